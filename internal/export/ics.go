package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"

	"github.com/prodx0x/minderlink/internal/directory"
)

const productID = "-//MinderLink//Directory//EN"

// Options control what ends up in an exported calendar. Gated records are
// exported without connection details unless Unlocked reports them.
type Options struct {
	WindowStart time.Time
	WindowEnd   time.Time
	Now         time.Time
	Unlocked    func(id string) bool
}

func (o Options) unlocked(id string) bool {
	return o.Unlocked != nil && o.Unlocked(id)
}

// Calendar builds a VCALENDAR with one event per meeting in the window and
// one event per expanded session occurrence.
func Calendar(meetings []directory.Meeting, sessions []directory.Session, opts Options) (*ics.Calendar, error) {
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}
	loc := opts.Now.Location()

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(productID)

	for _, meeting := range meetings {
		start, err := directory.ParseStart(meeting.Date, meeting.Time, loc)
		if err != nil {
			continue
		}
		end := start.Add(time.Duration(meeting.Duration) * time.Minute)
		if !inWindow(start, end, opts) {
			continue
		}

		event := cal.AddEvent(meeting.ID + "@minderlink")
		event.SetDtStampTime(opts.Now)
		event.SetStartAt(start)
		event.SetEndAt(end)
		event.SetSummary(meeting.Title)
		if len(meeting.Tags) > 0 {
			event.SetProperty(ics.ComponentPropertyCategories, strings.Join(meeting.Tags, ","))
		}

		conn := directory.MeetingConnection(meeting, opts.unlocked(meeting.ID))
		describe(event, conn, meeting.Organizer, meeting.Notes)
	}

	for _, session := range sessions {
		base := session.Base()
		gated, err := directory.SessionGated(session)
		if err != nil {
			return nil, err
		}
		conn, err := directory.SessionConnection(session, !gated || opts.unlocked(base.ID))
		if err != nil {
			return nil, err
		}

		for _, start := range directory.ExpandSession(session, opts.WindowStart, opts.WindowEnd) {
			end := start.Add(time.Duration(base.Duration) * time.Minute)
			event := cal.AddEvent(fmt.Sprintf("%s-%s@minderlink", base.ID, start.UTC().Format("20060102T1504")))
			event.SetDtStampTime(opts.Now)
			event.SetStartAt(start)
			event.SetEndAt(end)
			event.SetSummary(directory.SessionTitle(session))
			describe(event, conn, base.Instructor, "")
		}
	}

	return cal, nil
}

// Write serializes the calendar built by Calendar.
func Write(w io.Writer, meetings []directory.Meeting, sessions []directory.Session, opts Options) error {
	cal, err := Calendar(meetings, sessions, opts)
	if err != nil {
		return err
	}
	if _, err := io.WriteString(w, cal.Serialize()); err != nil {
		return fmt.Errorf("write calendar: %w", err)
	}
	return nil
}

func describe(event *ics.VEvent, conn directory.Connection, host, notes string) {
	lines := make([]string, 0, 5)
	if host != "" {
		lines = append(lines, "Host: "+host)
	}
	lines = append(lines, "Platform: "+directory.PlatformLabel(conn.Platform))

	if conn.Hidden {
		event.SetProperty(ics.ComponentPropertyClass, "PRIVATE")
		lines = append(lines, "Connection details require an access code.")
	} else {
		if conn.Link != "" {
			event.SetLocation(conn.Link)
			event.SetProperty(ics.ComponentPropertyUrl, conn.Link)
		}
		if conn.Password != "" {
			lines = append(lines, "Password: "+conn.Password)
		}
		if conn.MeetingID != "" && conn.Platform == directory.PlatformZoom {
			lines = append(lines, "Meeting ID: "+directory.FormatZoomID(conn.MeetingID))
		}
	}
	if notes != "" {
		lines = append(lines, "", notes)
	}
	event.SetDescription(strings.Join(lines, "\n"))
}

func inWindow(start, end time.Time, opts Options) bool {
	if !opts.WindowStart.IsZero() && !end.After(opts.WindowStart) {
		return false
	}
	if !opts.WindowEnd.IsZero() && !start.Before(opts.WindowEnd) {
		return false
	}
	return true
}

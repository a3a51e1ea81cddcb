package render

import (
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/prodx0x/minderlink/internal/directory"
)

const lockMark = "🔒"

// Meetings prints meetings grouped by date, each group in start order.
func Meetings(w io.Writer, theme Theme, meetings []directory.Meeting, now time.Time, unlocked func(id string) bool) error {
	if len(meetings) == 0 {
		return writeLine(w, theme.Muted.Render("No meetings match."))
	}

	groups := directory.GroupMeetingsByDate(meetings)
	dates := make([]string, 0, len(groups))
	for date := range groups {
		dates = append(dates, date)
	}
	slices.Sort(dates)

	var b strings.Builder
	for i, date := range dates {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(theme.Heading.Render(dateHeading(date, now)))
		b.WriteString("\n")

		items := groups[date]
		directory.SortMeetings(items, now.Location())
		for _, meeting := range items {
			b.WriteString(meetingLine(theme, meeting, now, unlocked))
			b.WriteString("\n")
		}
	}
	return writeString(w, b.String())
}

func meetingLine(theme Theme, meeting directory.Meeting, now time.Time, unlocked func(id string) bool) string {
	parts := []string{
		fmt.Sprintf("%-5s", meeting.Time),
		theme.Muted.Render(fmt.Sprintf("%4dmin", meeting.Duration)),
		fmt.Sprintf("%-16s", directory.PlatformLabel(meeting.Platform)),
		theme.Title.Render(meeting.Title),
	}
	if meeting.Gated() && (unlocked == nil || !unlocked(meeting.ID)) {
		parts = append(parts, theme.Locked.Render(lockMark))
	}
	parts = append(parts, statusLabel(theme, directory.Classify(meeting.Date, meeting.Time, meeting.Duration, now), meeting.Date, meeting.Time, now))
	parts = append(parts, theme.Muted.Render("#"+meeting.ID))
	return "  " + strings.Join(parts, "  ")
}

// Sessions prints sessions by kind, public first, each in start order.
func Sessions(w io.Writer, theme Theme, sessions []directory.Session, now time.Time) error {
	if len(sessions) == 0 {
		return writeLine(w, theme.Muted.Render("No sessions match."))
	}

	var b strings.Builder
	for i, kind := range []directory.SessionType{directory.SessionPublic, directory.SessionVip} {
		items := directory.SessionsByType(sessions, kind)
		if len(items) == 0 {
			continue
		}
		if i > 0 && b.Len() > 0 {
			b.WriteString("\n")
		}
		heading := "Public sessions"
		if kind == directory.SessionVip {
			heading = "VIP sessions " + lockMark
		}
		b.WriteString(theme.Heading.Render(heading))
		b.WriteString("\n")

		directory.SortSessions(items, now.Location())
		for _, session := range items {
			b.WriteString(sessionLine(theme, session, now))
			b.WriteString("\n")
		}
	}
	return writeString(w, b.String())
}

func sessionLine(theme Theme, session directory.Session, now time.Time) string {
	base := session.Base()
	parts := []string{
		fmt.Sprintf("%-5s", base.Time),
		theme.Muted.Render(fmt.Sprintf("%4dmin", base.Duration)),
		theme.Title.Render(base.Region),
		strings.Join(base.Language, ","),
		theme.Muted.Render(strings.Join(base.Day, "/")),
	}
	if next, ok := directory.NextSessionStart(session, now); ok {
		if !next.After(now) {
			parts = append(parts, theme.Active.Render("Active"))
		} else {
			parts = append(parts, theme.Soon.Render("next "+directory.FormatTimeRemaining(next.Sub(now))))
		}
	}
	parts = append(parts, theme.Muted.Render("#"+base.ID))
	return "  " + strings.Join(parts, "  ")
}

// MeetingCard prints one meeting with whatever connection details conn
// carries.
func MeetingCard(w io.Writer, theme Theme, meeting directory.Meeting, conn directory.Connection, now time.Time) error {
	rows := [][2]string{
		{"When", fmt.Sprintf("%s %s (%d min)", meeting.Date, meeting.Time, meeting.Duration)},
		{"Status", statusLabel(theme, directory.Classify(meeting.Date, meeting.Time, meeting.Duration, now), meeting.Date, meeting.Time, now)},
		{"Organizer", meeting.Organizer},
		{"Category", string(meeting.Category)},
	}
	if meeting.MaxParticipants > 0 {
		rows = append(rows, [2]string{"Capacity", fmt.Sprintf("%d participants", meeting.MaxParticipants)})
	}
	if meeting.IsRecurring && meeting.RecurrencePattern != "" {
		rows = append(rows, [2]string{"Recurrence", meeting.RecurrencePattern})
	}
	if len(meeting.Tags) > 0 {
		rows = append(rows, [2]string{"Tags", strings.Join(meeting.Tags, ", ")})
	}
	rows = append(rows, connectionRows(conn, "minderlink reveal meeting "+meeting.ID)...)
	if meeting.Notes != "" {
		rows = append(rows, [2]string{"Notes", meeting.Notes})
	}
	return card(w, theme, meeting.Title, rows)
}

// SessionCard prints one session; lang picks the description text.
func SessionCard(w io.Writer, theme Theme, session directory.Session, conn directory.Connection, now time.Time, lang string) error {
	base := session.Base()
	title := directory.SessionTitle(session)

	rows := [][2]string{
		{"When", fmt.Sprintf("%s %s (%d min)", base.Date, base.Time, base.Duration)},
		{"Days", strings.Join(base.Day, ", ")},
		{"Language", strings.Join(base.Language, ", ")},
		{"Instructor", base.Instructor},
		{"Capacity", fmt.Sprintf("%d participants", base.MaxParticipants)},
	}
	if next, ok := directory.NextSessionStart(session, now); ok {
		rows = append(rows, [2]string{"Next", next.Format("Mon 02 Jan 15:04")})
	}
	if public, ok := session.(*directory.PublicSession); ok {
		if public.Schedule != "" {
			rows = append(rows, [2]string{"Schedule", public.Schedule})
		}
		if public.TimeZone != "" {
			rows = append(rows, [2]string{"Time zone", public.TimeZone})
		}
		if desc := public.Description.In(lang); desc != "" {
			rows = append(rows, [2]string{"About", desc})
		}
	}
	rows = append(rows, connectionRows(conn, "minderlink reveal vip "+base.ID)...)
	return card(w, theme, title, rows)
}

func connectionRows(conn directory.Connection, revealHint string) [][2]string {
	rows := [][2]string{{"Platform", directory.PlatformLabel(conn.Platform)}}
	if conn.Hidden {
		return append(rows, [2]string{"Access", lockMark + " locked, run: " + revealHint})
	}
	if conn.Link != "" {
		rows = append(rows, [2]string{"Link", conn.Link})
	}
	if conn.MeetingID != "" {
		id := conn.MeetingID
		if conn.Platform == directory.PlatformZoom {
			id = directory.FormatZoomID(id)
		}
		rows = append(rows, [2]string{"Meeting ID", id})
	}
	if conn.Password != "" {
		rows = append(rows, [2]string{"Password", conn.Password})
	}
	if len(conn.PhoneNumbers) > 0 {
		rows = append(rows, [2]string{"Dial-in", strings.Join(conn.PhoneNumbers, ", ")})
	}
	return rows
}

func card(w io.Writer, theme Theme, title string, rows [][2]string) error {
	lines := make([]string, 0, len(rows)+2)
	lines = append(lines, theme.Title.Render(title), "")
	for _, row := range rows {
		if strings.TrimSpace(row[1]) == "" {
			continue
		}
		lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top, theme.Label.Render(row[0]), row[1]))
	}
	return writeLine(w, theme.Card.Render(strings.Join(lines, "\n")))
}

func statusLabel(theme Theme, status directory.Status, date, clock string, now time.Time) string {
	switch status {
	case directory.StatusActive:
		return theme.Active.Render("Active")
	case directory.StatusPast:
		return theme.Muted.Render("Ended")
	case directory.StatusUpcoming:
		return theme.Soon.Render(directory.RemainingLabel(date, clock, now))
	default:
		return theme.Muted.Render("?")
	}
}

func dateHeading(date string, now time.Time) string {
	parsed, err := time.ParseInLocation("2006-01-02", date, now.Location())
	if err != nil {
		return date
	}
	switch date {
	case now.Format("2006-01-02"):
		return "Today · " + parsed.Format("Mon 02 Jan")
	case now.AddDate(0, 0, 1).Format("2006-01-02"):
		return "Tomorrow · " + parsed.Format("Mon 02 Jan")
	default:
		return parsed.Format("Mon 02 Jan 2006")
	}
}

func writeString(w io.Writer, s string) error {
	if _, err := io.WriteString(w, s); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

func writeLine(w io.Writer, s string) error {
	return writeString(w, s+"\n")
}

package seed

import (
	"bytes"
	_ "embed"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/prodx0x/minderlink/internal/directory"
)

//go:embed directory.yaml
var bundled []byte

type meetingEntry struct {
	directory.Meeting `yaml:",inline"`

	DayOffset int `yaml:"dayOffset"`
}

type publicEntry struct {
	directory.PublicSession `yaml:",inline"`

	DayOffset int `yaml:"dayOffset"`
}

type vipEntry struct {
	directory.VipSession `yaml:",inline"`

	DayOffset int `yaml:"dayOffset"`
}

type document struct {
	Meetings       []meetingEntry `yaml:"meetings"`
	PublicSessions []publicEntry  `yaml:"publicSessions"`
	VipSessions    []vipEntry     `yaml:"vipSessions"`
}

type Dataset struct {
	Meetings []directory.Meeting
	Sessions []directory.Session
}

// Load returns the bundled directory with dates resolved against now.
func Load(now time.Time) (Dataset, error) {
	return Parse(bundled, now)
}

// Parse decodes a directory document. Entries without an explicit date get
// now's local date shifted by dayOffset; entries without an id get a random
// one.
func Parse(raw []byte, now time.Time) (Dataset, error) {
	var doc document
	decoder := yaml.NewDecoder(bytes.NewReader(raw))
	decoder.KnownFields(true)
	if err := decoder.Decode(&doc); err != nil {
		return Dataset{}, fmt.Errorf("decode seed document: %w", err)
	}

	seen := make(map[string]struct{})
	claim := func(id string) (string, error) {
		id = strings.TrimSpace(id)
		if id == "" {
			id = uuid.NewString()
		}
		if _, exists := seen[id]; exists {
			return "", fmt.Errorf("duplicate seed id %q", id)
		}
		seen[id] = struct{}{}
		return id, nil
	}

	dataset := Dataset{
		Meetings: make([]directory.Meeting, 0, len(doc.Meetings)),
		Sessions: make([]directory.Session, 0, len(doc.PublicSessions)+len(doc.VipSessions)),
	}

	for _, entry := range doc.Meetings {
		meeting := entry.Meeting
		id, err := claim(meeting.ID)
		if err != nil {
			return Dataset{}, err
		}
		meeting.ID = id
		meeting.Date = resolveDate(meeting.Date, entry.DayOffset, now)
		dataset.Meetings = append(dataset.Meetings, meeting)
	}

	for _, entry := range doc.PublicSessions {
		session := entry.PublicSession
		id, err := claim(session.ID)
		if err != nil {
			return Dataset{}, err
		}
		session.ID = id
		session.Date = resolveDate(session.Date, entry.DayOffset, now)
		if session.ZoomLink == "" {
			session.ZoomLink = directory.ZoomJoinLink(session.ZoomID)
		}
		dataset.Sessions = append(dataset.Sessions, &session)
	}

	for _, entry := range doc.VipSessions {
		session := entry.VipSession
		id, err := claim(session.ID)
		if err != nil {
			return Dataset{}, err
		}
		session.ID = id
		session.Date = resolveDate(session.Date, entry.DayOffset, now)
		dataset.Sessions = append(dataset.Sessions, &session)
	}

	return dataset, nil
}

// Rows flattens the dataset into store rows, meetings first.
func (d Dataset) Rows() ([]directory.Row, error) {
	rows := make([]directory.Row, 0, len(d.Meetings)+len(d.Sessions))
	for _, meeting := range d.Meetings {
		rows = append(rows, directory.RowFromMeeting(meeting))
	}
	for _, session := range d.Sessions {
		row, err := directory.RowFromSession(session)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func resolveDate(explicit string, offset int, now time.Time) string {
	if strings.TrimSpace(explicit) != "" {
		return explicit
	}
	return now.AddDate(0, 0, offset).Format("2006-01-02")
}

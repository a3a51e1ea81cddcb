package render

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/prodx0x/minderlink/internal/directory"
)

var now = time.Date(2024, 3, 4, 8, 30, 0, 0, time.UTC)

func sample() []directory.Meeting {
	return []directory.Meeting{
		{ID: "3", Title: "Direction", Platform: directory.PlatformTeams, Link: "https://teams.microsoft.com/l/x", Password: "dir2024", Category: directory.CategoryPrivate, Date: "2024-03-04", Time: "16:00", Duration: 120, Organizer: "DG"},
		{ID: "1", Title: "Dev sync", Platform: directory.PlatformZoom, Link: "https://zoom.us/j/4188579113", Category: directory.CategoryPublic, Date: "2024-03-04", Time: "08:00", Duration: 60, Organizer: "Marie"},
		{ID: "4", Title: "Stand-up", Platform: directory.PlatformZoom, Link: "https://zoom.us/j/1234567890", Category: directory.CategoryPublic, Date: "2024-03-05", Time: "09:15", Duration: 15, Organizer: "SM"},
	}
}

func TestMeetings_GroupsAndMarksLocked(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := Meetings(&buf, NewTheme(&buf), sample(), now, nil); err != nil {
		t.Fatalf("render: %v", err)
	}
	out := buf.String()

	today := strings.Index(out, "Today · Mon 04 Mar")
	tomorrow := strings.Index(out, "Tomorrow · Tue 05 Mar")
	if today < 0 || tomorrow < today {
		t.Fatalf("expected today then tomorrow headings:\n%s", out)
	}
	if strings.Index(out, "Dev sync") > strings.Index(out, "Direction") {
		t.Fatalf("meetings must be sorted by start:\n%s", out)
	}
	if !strings.Contains(out, "Active") || !strings.Contains(out, "in 7h 30min") {
		t.Fatalf("expected status labels:\n%s", out)
	}
	if !strings.Contains(out, "Direction  "+lockMark) {
		t.Fatalf("expected lock mark on private meeting:\n%s", out)
	}

	buf.Reset()
	unlocked := func(id string) bool { return id == "3" }
	if err := Meetings(&buf, NewTheme(&buf), sample(), now, unlocked); err != nil {
		t.Fatalf("render: %v", err)
	}
	if strings.Contains(buf.String(), lockMark) {
		t.Fatalf("unlocked meeting must not be marked:\n%s", buf.String())
	}
}

func TestMeetings_Empty(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := Meetings(&buf, NewTheme(&buf), nil, now, nil); err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(buf.String(), "No meetings match.") {
		t.Fatalf("unexpected output %q", buf.String())
	}
}

func TestMeetingCard_HiddenConnection(t *testing.T) {
	t.Parallel()

	meeting := sample()[0]

	var buf bytes.Buffer
	theme := NewTheme(&buf)
	if err := MeetingCard(&buf, theme, meeting, directory.MeetingConnection(meeting, false), now); err != nil {
		t.Fatalf("render: %v", err)
	}
	out := buf.String()
	if strings.Contains(out, "dir2024") || strings.Contains(out, "teams.microsoft.com") {
		t.Fatalf("hidden details leaked:\n%s", out)
	}
	if !strings.Contains(out, "minderlink reveal meeting 3") {
		t.Fatalf("expected reveal hint:\n%s", out)
	}

	buf.Reset()
	if err := MeetingCard(&buf, theme, meeting, directory.MeetingConnection(meeting, true), now); err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(buf.String(), "dir2024") {
		t.Fatalf("expected password once unlocked:\n%s", buf.String())
	}
}

func TestSessions_PublicBeforeVip(t *testing.T) {
	t.Parallel()

	sessions := []directory.Session{
		&directory.VipSession{SessionBase: directory.SessionBase{ID: "v1", Region: "Genève", Date: "2024-03-04", Time: "12:00", Duration: 45, Day: directory.StringList{"Monday"}, Language: directory.StringList{"fr"}}},
		&directory.PublicSession{SessionBase: directory.SessionBase{ID: "p1", Region: "Paris", Date: "2024-03-04", Time: "07:30", Duration: 45, Day: directory.StringList{"Tuesday"}, Language: directory.StringList{"fr", "en"}}},
	}

	var buf bytes.Buffer
	if err := Sessions(&buf, NewTheme(&buf), sessions, now); err != nil {
		t.Fatalf("render: %v", err)
	}
	out := buf.String()
	if strings.Index(out, "Public sessions") > strings.Index(out, "VIP sessions") {
		t.Fatalf("public sessions must come first:\n%s", out)
	}
	if !strings.Contains(out, "fr,en") || !strings.Contains(out, "#v1") {
		t.Fatalf("unexpected session lines:\n%s", out)
	}
}

func TestSessionCard_DescriptionLanguage(t *testing.T) {
	t.Parallel()

	session := &directory.PublicSession{
		SessionBase: directory.SessionBase{ID: "p1", Region: "Paris", Date: "2024-03-04", Time: "07:30", Duration: 45, Language: directory.StringList{"fr"}},
		ZoomLink:    "https://zoom.us/j/111222333",
		Description: directory.Description{EN: "Morning calm", FR: "Calme du matin"},
	}
	frenchOnly := &directory.PublicSession{
		SessionBase: directory.SessionBase{ID: "p2", Region: "Lyon", Date: "2024-03-04", Time: "18:00", Duration: 45},
		Description: directory.Description{FR: "Soirée guidée"},
	}

	tests := []struct {
		name    string
		session directory.Session
		lang    string
		want    string
		notWant string
	}{
		{name: "french", session: session, lang: "fr", want: "Calme du matin", notWant: "Morning calm"},
		{name: "english", session: session, lang: "en", want: "Morning calm", notWant: "Calme du matin"},
		{name: "english falls back to french", session: frenchOnly, lang: "en", want: "Soirée guidée"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			conn, err := directory.SessionConnection(tt.session, false)
			if err != nil {
				t.Fatalf("connection: %v", err)
			}
			var buf bytes.Buffer
			if err := SessionCard(&buf, NewTheme(&buf), tt.session, conn, now, tt.lang); err != nil {
				t.Fatalf("render: %v", err)
			}
			out := buf.String()
			if !strings.Contains(out, tt.want) {
				t.Fatalf("expected %q in card:\n%s", tt.want, out)
			}
			if tt.notWant != "" && strings.Contains(out, tt.notWant) {
				t.Fatalf("unexpected %q in card:\n%s", tt.notWant, out)
			}
		})
	}
}

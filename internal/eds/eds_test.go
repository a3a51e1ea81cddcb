package eds

import (
	"testing"
	"time"

	"github.com/prodx0x/minderlink/internal/directory"
)

var work = Calendar{UID: "cal-1", Name: "Work", Account: "ACME"}

func mustParse(t *testing.T, payload string) []Event {
	t.Helper()
	events, err := parseEventPayload(work, payload)
	if err != nil {
		t.Fatalf("parse payload: %v", err)
	}
	return events
}

func TestParseEventPayload(t *testing.T) {
	t.Parallel()

	events := mustParse(t, `BEGIN:VEVENT
UID:abc
SUMMARY:  Weekly   sync
DTSTART:20240304T090000Z
DTEND:20240304T093000Z
CLASS:private
ORGANIZER;CN=Marie Dubois:mailto:marie@example.com
LOCATION:https://zoom.us/j/4188579113
END:VEVENT`)

	if len(events) != 1 {
		t.Fatalf("expected one event, got %d", len(events))
	}
	event := events[0]
	if event.Summary != "Weekly sync" || event.Class != "PRIVATE" || event.Organizer != "Marie Dubois" {
		t.Fatalf("unexpected event: %+v", event)
	}
	if event.End.Sub(event.Start) != 30*time.Minute || event.CalendarName != "Work" {
		t.Fatalf("unexpected timing or calendar: %+v", event)
	}
}

func TestRows_ExpandsRecurrenceAndSkipsUnjoinable(t *testing.T) {
	t.Parallel()

	events := mustParse(t, `BEGIN:VEVENT
UID:standup
SUMMARY:Stand-up
DTSTART:20240304T091500Z
DTEND:20240304T093000Z
RRULE:FREQ=DAILY;COUNT=5
EXDATE:20240305T091500Z
DESCRIPTION:Join at https://meet.google.com/abc-defg-hij
END:VEVENT
BEGIN:VEVENT
UID:lunch
SUMMARY:Lunch
DTSTART:20240304T120000Z
DTEND:20240304T130000Z
END:VEVENT
BEGIN:VEVENT
UID:board
SUMMARY:Board
DTSTART:20240306T150000Z
DTEND:20240306T170000Z
CLASS:CONFIDENTIAL
URL:https://teams.microsoft.com/l/meetup-join/19%3aboard
END:VEVENT`)

	windowStart := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	rows := Rows(events, windowStart, windowStart.Add(7*24*time.Hour))

	var standups, boards int
	for _, row := range rows {
		switch row.Title {
		case "Stand-up":
			standups++
			if row.Date == "2024-03-05" {
				t.Fatal("excluded date must not be imported")
			}
			if row.IsRecurring == nil || !*row.IsRecurring || *row.Platform != string(directory.PlatformGoogleMeet) {
				t.Fatalf("unexpected recurring row: %+v", row)
			}
		case "Board":
			boards++
			if row.Category != directory.CategoryPrivate || row.Duration != 120 || row.Time != "15:00" {
				t.Fatalf("unexpected board row: %+v", row)
			}
		case "Lunch":
			t.Fatal("events without a join link must be skipped")
		}
		if row.Type != directory.RowMeeting || row.Organizer != "ACME" {
			t.Fatalf("unexpected row defaults: %+v", row)
		}
	}
	if standups != 4 || boards != 1 {
		t.Fatalf("expected 4 stand-ups and 1 board, got %d and %d", standups, boards)
	}
	if rows[0].Date != "2024-03-04" || rows[0].Time != "09:15" {
		t.Fatalf("rows must be sorted by start, first is %+v", rows[0])
	}
}

func TestRows_OverrideReplacesOccurrence(t *testing.T) {
	t.Parallel()

	events := mustParse(t, `BEGIN:VEVENT
UID:retro
SUMMARY:Retro
DTSTART:20240304T140000Z
DTEND:20240304T150000Z
RRULE:FREQ=WEEKLY;COUNT=2
LOCATION:https://zoom.us/j/9876543210
END:VEVENT
BEGIN:VEVENT
UID:retro
RECURRENCE-ID:20240311T140000Z
SUMMARY:Retro (moved)
DTSTART:20240312T100000Z
DTEND:20240312T110000Z
LOCATION:https://zoom.us/j/9876543210
END:VEVENT`)

	windowStart := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	rows := Rows(events, windowStart, windowStart.Add(30*24*time.Hour))
	if len(rows) != 2 {
		t.Fatalf("expected two rows, got %d", len(rows))
	}
	if rows[1].Title != "Retro (moved)" || rows[1].Date != "2024-03-12" {
		t.Fatalf("expected override, got %+v", rows[1])
	}
	if rows[0].ID == rows[1].ID {
		t.Fatal("occurrence ids must differ")
	}

	again := Rows(events, windowStart, windowStart.Add(30*24*time.Hour))
	if again[0].ID != rows[0].ID {
		t.Fatal("occurrence ids must be stable")
	}
}

func TestNewestService(t *testing.T) {
	t.Parallel()

	names := []string{
		"org.freedesktop.DBus",
		"org.gnome.evolution.dataserver.Calendar7",
		"org.gnome.evolution.dataserver.Calendar8",
		"org.gnome.evolution.dataserver.Sources5",
	}
	if got := newestService(names, calendarServicePrefix); got != "org.gnome.evolution.dataserver.Calendar8" {
		t.Fatalf("unexpected calendar service %q", got)
	}
	if got := newestService(names, "org.example"); got != "" {
		t.Fatalf("expected no match, got %q", got)
	}
}

func TestParseSourceAndActive(t *testing.T) {
	t.Parallel()

	entry, err := parseSource("cal-2", "[Data Source]\nDisplayName=Team\nParent=acct\nEnabled=true\n\n[Calendar]\nSelected=true\n")
	if err != nil {
		t.Fatalf("parse source: %v", err)
	}
	if !entry.calendar || !entry.calendarSelected || !entry.calendarEnabled || entry.displayName != "Team" {
		t.Fatalf("unexpected source: %+v", entry)
	}

	calendars := []Calendar{
		{UID: "a", Enabled: true},
		{UID: "b", Enabled: true, Selected: true},
		{UID: "c", Enabled: false, Selected: true},
	}
	if active := Active(calendars); len(active) != 1 || active[0].UID != "b" {
		t.Fatalf("expected only selected calendar, got %+v", active)
	}
	if active := Active(calendars[:1]); len(active) != 1 || active[0].UID != "a" {
		t.Fatalf("expected enabled fallback, got %+v", active)
	}
}

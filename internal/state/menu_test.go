package state

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestWriteMenu_ContainsExpectedActions(t *testing.T) {
	t.Parallel()

	tmp := t.TempDir()
	menuPath := filepath.Join(tmp, "minderlink.xml")
	now := time.Date(2024, 3, 4, 8, 50, 0, 0, time.UTC)

	next := Item{ID: "1", Title: "Stand-up & review", Start: now.Add(10 * time.Minute), Link: "https://zoom.us/j/1"}
	items := []Item{
		next,
		{ID: "3", Title: "Direction", Start: now.Add(26 * time.Hour), Gated: true},
	}

	if err := WriteMenu(menuPath, MenuData{StatusLine: "Upcoming meeting", Next: &next, Items: items, Now: now}); err != nil {
		t.Fatalf("write menu: %v", err)
	}

	raw, err := os.ReadFile(menuPath)
	if err != nil {
		t.Fatalf("read menu: %v", err)
	}
	text := string(raw)

	for _, expected := range []string{
		"join_next", "join_1", "join_2", "select_filter", "refresh",
		"Join: Stand-up &amp; review",
		"09:00 · Stand-up",
		"Tue 10:50 · Direction 🔒",
	} {
		if !strings.Contains(text, expected) {
			t.Fatalf("missing %q in menu:\n%s", expected, text)
		}
	}
}

func TestWriteMenu_EmptyShowsStatusLine(t *testing.T) {
	t.Parallel()

	menuPath := filepath.Join(t.TempDir(), "menus", "minderlink.xml")
	if err := WriteMenu(menuPath, MenuData{StatusLine: "No meeting in next 60 minutes"}); err != nil {
		t.Fatalf("write menu: %v", err)
	}

	raw, err := os.ReadFile(menuPath)
	if err != nil {
		t.Fatalf("read menu: %v", err)
	}
	text := string(raw)
	if !strings.Contains(text, `id="noop"`) || !strings.Contains(text, "No meeting in next 60 minutes") {
		t.Fatalf("expected status line entry:\n%s", text)
	}
	if !strings.Contains(text, `<property name="sensitive">False</property>`) {
		t.Fatalf("status line entry should be insensitive:\n%s", text)
	}
	if strings.Contains(text, "join_next") {
		t.Fatal("unexpected join_next entry")
	}
}

func TestJoinVerb(t *testing.T) {
	t.Parallel()

	tests := []struct {
		item Item
		want string
	}{
		{item: Item{Gated: true, Link: "x"}, want: "Unlock"},
		{item: Item{Link: "https://meet.google.com/abc"}, want: "Join"},
		{item: Item{}, want: "Open"},
	}
	for _, tc := range tests {
		if got := joinVerb(tc.item); got != tc.want {
			t.Fatalf("joinVerb(%+v) = %q, want %q", tc.item, got, tc.want)
		}
	}
}

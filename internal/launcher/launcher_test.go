package launcher

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prodx0x/minderlink/internal/directory"
)

func writeMimeApps(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mimeapps.list")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write mimeapps: %v", err)
	}
	return path
}

func TestHandlerFor(t *testing.T) {
	t.Parallel()

	user := writeMimeApps(t, "[Default Applications]\nx-scheme-handler/https=firefox.desktop\n")
	system := writeMimeApps(t, "[Added Associations]\nx-scheme-handler/zoommtg=Zoom.desktop;other.desktop;\n")

	l := Launcher{log: nil, MimeAppsFiles: []string{filepath.Join(t.TempDir(), "missing"), user, system}}

	if got := l.HandlerFor("zoommtg"); got != "Zoom.desktop" {
		t.Fatalf("zoommtg handler mismatch: %q", got)
	}
	if got := l.HandlerFor("HTTPS"); got != "firefox.desktop" {
		t.Fatalf("https handler mismatch: %q", got)
	}
	if got := l.HandlerFor("msteams"); got != "" {
		t.Fatalf("expected no handler, got %q", got)
	}
}

func TestTarget(t *testing.T) {
	t.Parallel()

	withZoom := Launcher{MimeAppsFiles: []string{writeMimeApps(t, "[Default Applications]\nx-scheme-handler/zoommtg=Zoom.desktop\n")}}
	withoutZoom := Launcher{}

	zoom := directory.Connection{Platform: directory.PlatformZoom, Link: "https://zoom.us/j/4188579113", Password: "dev2024"}

	got := withZoom.Target(zoom)
	if !strings.HasPrefix(got, "zoommtg://zoom.us/join?") || !strings.Contains(got, "confno=4188579113") || !strings.Contains(got, "pwd=dev2024") {
		t.Fatalf("unexpected native target: %q", got)
	}

	if got := withoutZoom.Target(zoom); got != zoom.Link {
		t.Fatalf("expected web link without handler, got %q", got)
	}

	meet := directory.Connection{Platform: directory.PlatformGoogleMeet, Link: " https://meet.google.com/abc-defg-hij "}
	if got := withZoom.Target(meet); got != "https://meet.google.com/abc-defg-hij" {
		t.Fatalf("non-zoom links must pass through, got %q", got)
	}

	if got := withZoom.Target(directory.Connection{Platform: directory.PlatformZoom, Hidden: true}); got != "" {
		t.Fatalf("hidden connection must have no target, got %q", got)
	}
}

func TestOpen_SurvivesCancelledContext(t *testing.T) {
	bin := t.TempDir()
	marker := filepath.Join(t.TempDir(), "opened")
	script := "#!/bin/sh\nprintf '%s' \"$1\" > \"$MINDERLINK_TEST_MARKER\"\n"
	if err := os.WriteFile(filepath.Join(bin, "xdg-open"), []byte(script), 0o755); err != nil {
		t.Fatalf("write xdg-open: %v", err)
	}
	t.Setenv("PATH", bin)
	t.Setenv("MINDERLINK_TEST_MARKER", marker)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	l := New(nil)
	l.MimeAppsFiles = nil
	link := "https://meet.google.com/abc-defg-hij"
	if err := l.Open(ctx, directory.Connection{Platform: directory.PlatformGoogleMeet, Link: link}); err != nil {
		t.Fatalf("open: %v", err)
	}

	deadline := time.Now().Add(3 * time.Second)
	for {
		raw, err := os.ReadFile(marker)
		if err == nil && string(raw) == link {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("xdg-open did not run with %q (last read %q, %v)", link, raw, err)
		}
		time.Sleep(20 * time.Millisecond)
	}
}

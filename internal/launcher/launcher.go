package launcher

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/godbus/dbus/v5"
	"go.uber.org/zap"
	"gopkg.in/ini.v1"

	"github.com/prodx0x/minderlink/internal/directory"
)

const (
	appName = "MinderLink"

	notificationsService = "org.freedesktop.Notifications"
	notificationsPath    = "/org/freedesktop/Notifications"
)

type Launcher struct {
	log *zap.Logger

	// MimeAppsFiles are read in order; the first handler found wins.
	MimeAppsFiles []string
}

func New(log *zap.Logger) Launcher {
	if log == nil {
		log = zap.NewNop()
	}
	return Launcher{log: log, MimeAppsFiles: defaultMimeAppsFiles()}
}

func defaultMimeAppsFiles() []string {
	files := make([]string, 0, 4)

	configHome := strings.TrimSpace(os.Getenv("XDG_CONFIG_HOME"))
	if configHome == "" {
		if home, err := os.UserHomeDir(); err == nil {
			configHome = filepath.Join(home, ".config")
		}
	}
	if configHome != "" {
		files = append(files, filepath.Join(configHome, "mimeapps.list"))
	}

	dataHome := strings.TrimSpace(os.Getenv("XDG_DATA_HOME"))
	if dataHome == "" {
		if home, err := os.UserHomeDir(); err == nil {
			dataHome = filepath.Join(home, ".local", "share")
		}
	}
	if dataHome != "" {
		files = append(files, filepath.Join(dataHome, "applications", "mimeapps.list"))
	}

	return append(files, "/etc/xdg/mimeapps.list", "/usr/share/applications/mimeapps.list")
}

// HandlerFor returns the desktop entry registered for a URL scheme.
func (l Launcher) HandlerFor(scheme string) string {
	key := "x-scheme-handler/" + strings.ToLower(strings.TrimSpace(scheme))
	for _, path := range l.MimeAppsFiles {
		if handler := handlerFromFile(path, key); handler != "" {
			return handler
		}
	}
	return ""
}

func handlerFromFile(path, key string) string {
	if _, err := os.Stat(path); err != nil {
		return ""
	}

	cfg, err := ini.LoadSources(ini.LoadOptions{
		IgnoreInlineComment: true,
		AllowShadows:        true,
	}, path)
	if err != nil {
		return ""
	}

	for _, section := range []string{"Default Applications", "Added Associations"} {
		value := strings.TrimSpace(cfg.Section(section).Key(key).String())
		if value == "" {
			continue
		}
		first, _, _ := strings.Cut(value, ";")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}
	return ""
}

// Target picks the URL to hand to xdg-open. Zoom links are rewritten to the
// zoommtg scheme when a native client is registered for it.
func (l Launcher) Target(conn directory.Connection) string {
	link := strings.TrimSpace(conn.Link)
	if link == "" {
		return ""
	}
	if conn.Platform != directory.PlatformZoom || l.HandlerFor("zoommtg") == "" {
		return link
	}

	id := strings.ReplaceAll(strings.TrimSpace(conn.MeetingID), " ", "")
	if id == "" {
		id = directory.ExtractMeetingID(link, directory.PlatformZoom)
	}
	if !directory.ValidZoomID(id) {
		return link
	}

	query := url.Values{"action": {"join"}, "confno": {id}}
	if conn.Password != "" {
		query.Set("pwd", conn.Password)
	}
	return "zoommtg://zoom.us/join?" + query.Encode()
}

func (l Launcher) Open(_ context.Context, conn directory.Connection) error {
	target := l.Target(conn)
	if target == "" {
		return fmt.Errorf("no link to open")
	}
	l.log.Debug("opening meeting link", zap.String("platform", string(conn.Platform)), zap.Bool("native", !strings.HasPrefix(target, "http")))
	return OpenURL(target)
}

// OpenURL hands target to xdg-open and returns without waiting.
func OpenURL(target string) error {
	if _, err := exec.LookPath("xdg-open"); err != nil {
		return fmt.Errorf("xdg-open not found")
	}
	if err := startDetached("xdg-open", target); err != nil {
		return fmt.Errorf("open url: %w", err)
	}
	return nil
}

// startDetached runs a helper that must outlive the command context.
func startDetached(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return err
	}
	return cmd.Process.Release()
}

// Notify shows a desktop notification over the session bus and falls back
// to notify-send. Failures are logged, never returned.
func (l Launcher) Notify(ctx context.Context, summary, body string) {
	summary = strings.TrimSpace(summary)
	if summary == "" {
		summary = appName
	}

	err := notifyDBus(ctx, summary, strings.TrimSpace(body))
	if err == nil {
		return
	}
	l.log.Debug("dbus notification failed", zap.Error(err))

	if _, lookErr := exec.LookPath("notify-send"); lookErr != nil {
		l.log.Warn("no notification backend", zap.Error(err))
		return
	}
	if startErr := startDetached("notify-send", "--app-name="+appName, summary, body); startErr != nil {
		l.log.Warn("notify-send failed", zap.Error(startErr))
	}
}

func notifyDBus(ctx context.Context, summary, body string) error {
	conn, err := dbus.ConnectSessionBus(dbus.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("connect session bus: %w", err)
	}
	defer func() {
		_ = conn.Close()
	}()

	obj := conn.Object(notificationsService, dbus.ObjectPath(notificationsPath))
	call := obj.CallWithContext(ctx, notificationsService+".Notify", 0,
		appName,
		uint32(0),
		"",
		summary,
		body,
		[]string{},
		map[string]dbus.Variant{},
		int32(-1),
	)
	if call.Err != nil {
		return fmt.Errorf("notify: %w", call.Err)
	}
	return nil
}

package eds

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/godbus/dbus/v5"
	"go.uber.org/zap"
)

const (
	sourceServicePrefix   = "org.gnome.evolution.dataserver.Sources"
	calendarServicePrefix = "org.gnome.evolution.dataserver.Calendar"
)

// Client reads calendars from the Evolution Data Server on the session bus.
type Client struct {
	conn            *dbus.Conn
	sourceService   string
	calendarService string
	log             *zap.Logger
}

func New(ctx context.Context, log *zap.Logger) (*Client, error) {
	if log == nil {
		log = zap.NewNop()
	}

	conn, err := dbus.ConnectSessionBus(dbus.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("connect session bus: %w", err)
	}

	names, err := busNames(ctx, conn)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	client := &Client{conn: conn, log: log}
	for prefix, target := range map[string]*string{
		sourceServicePrefix:   &client.sourceService,
		calendarServicePrefix: &client.calendarService,
	} {
		*target = newestService(names, prefix)
		if *target == "" {
			_ = conn.Close()
			return nil, fmt.Errorf("dbus service with prefix %q not found", prefix)
		}
	}

	log.Debug("connected to evolution data server",
		zap.String("sources", client.sourceService),
		zap.String("calendars", client.calendarService),
	)
	return client, nil
}

func (c *Client) Close() error {
	if c == nil || c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

// busNames lists running names first, then activatable ones.
func busNames(ctx context.Context, conn *dbus.Conn) ([]string, error) {
	bus := conn.BusObject()

	all := make([]string, 0, 64)
	var firstErr error
	for _, method := range []string{"org.freedesktop.DBus.ListNames", "org.freedesktop.DBus.ListActivatableNames"} {
		var names []string
		if err := bus.CallWithContext(ctx, method, 0).Store(&names); err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("%s: %w", method, err)
			}
			continue
		}
		all = append(all, names...)
	}
	if len(all) == 0 && firstErr != nil {
		return nil, firstErr
	}
	return all, nil
}

// newestService returns the matching name with the highest numeric suffix.
func newestService(names []string, prefix string) string {
	matches := make([]string, 0, 2)
	for _, name := range names {
		if strings.HasPrefix(name, prefix) && !slices.Contains(matches, name) {
			matches = append(matches, name)
		}
	}
	if len(matches) == 0 {
		return ""
	}

	slices.SortStableFunc(matches, func(a, b string) int {
		if va, vb := serviceVersion(a, prefix), serviceVersion(b, prefix); va != vb {
			return vb - va
		}
		return strings.Compare(a, b)
	})
	return matches[0]
}

func serviceVersion(name, prefix string) int {
	version, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(name, prefix)))
	if err != nil {
		return 0
	}
	return version
}

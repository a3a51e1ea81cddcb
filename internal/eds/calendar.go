package eds

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/godbus/dbus/v5"
	"go.uber.org/zap"
)

// Events fetches the raw events of each calendar that occur in the window.
// Per-calendar failures are logged and skipped unless every calendar fails.
func (c *Client) Events(ctx context.Context, calendars []Calendar, windowStart, windowEnd time.Time) ([]Event, error) {
	if len(calendars) == 0 {
		return nil, nil
	}

	query := timeRangeQuery(windowStart, windowEnd)
	factory := c.conn.Object(c.calendarService, dbus.ObjectPath("/org/gnome/evolution/dataserver/CalendarFactory"))

	events := make([]Event, 0, 64)
	failures := make([]string, 0)

	for _, calendar := range calendars {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		fetched, err := c.calendarEvents(ctx, factory, calendar, query)
		if err != nil {
			c.log.Warn("calendar query failed", zap.String("calendar", calendar.Name), zap.Error(err))
			failures = append(failures, fmt.Sprintf("%s: %s", calendar.Name, err.Error()))
			continue
		}
		events = append(events, fetched...)
	}

	if len(events) == 0 && len(failures) > 0 {
		return nil, fmt.Errorf("failed to query calendars: %s", strings.Join(failures, "; "))
	}
	return events, nil
}

func (c *Client) calendarEvents(ctx context.Context, factory dbus.BusObject, calendar Calendar, query string) ([]Event, error) {
	var objectPath, busName string
	if err := factory.CallWithContext(ctx, "org.gnome.evolution.dataserver.CalendarFactory.OpenCalendar", 0, strings.TrimSpace(calendar.UID)).Store(&objectPath, &busName); err != nil {
		return nil, fmt.Errorf("OpenCalendar: %w", err)
	}
	if strings.TrimSpace(objectPath) == "" || strings.TrimSpace(busName) == "" {
		return nil, fmt.Errorf("OpenCalendar returned an empty object path or bus name")
	}

	backend := c.conn.Object(busName, dbus.ObjectPath(objectPath))
	defer func() {
		_ = backend.CallWithContext(ctx, "org.gnome.evolution.dataserver.Calendar.Close", 0).Err
	}()

	var properties []string
	if err := backend.CallWithContext(ctx, "org.gnome.evolution.dataserver.Calendar.Open", 0).Store(&properties); err != nil {
		return nil, fmt.Errorf("open backend: %w", err)
	}

	var payloads []string
	if err := backend.CallWithContext(ctx, "org.gnome.evolution.dataserver.Calendar.GetObjectList", 0, query).Store(&payloads); err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}

	events := make([]Event, 0, len(payloads))
	for _, payload := range payloads {
		parsed, err := parseEventPayload(calendar, payload)
		if err != nil {
			c.log.Debug("skipping unparsable event", zap.String("calendar", calendar.Name), zap.Error(err))
			continue
		}
		events = append(events, parsed...)
	}
	return events, nil
}

func timeRangeQuery(windowStart, windowEnd time.Time) string {
	const layout = "20060102T150405Z"
	return fmt.Sprintf("(occur-in-time-range? (make-time \"%s\") (make-time \"%s\"))",
		windowStart.UTC().Format(layout), windowEnd.UTC().Format(layout))
}

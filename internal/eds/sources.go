package eds

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/godbus/dbus/v5"
	"go.uber.org/zap"
	"gopkg.in/ini.v1"
)

type Calendar struct {
	UID      string
	Name     string
	Account  string
	Enabled  bool
	Selected bool
}

type source struct {
	uid         string
	displayName string
	parentUID   string
	enabled     bool

	calendar         bool
	calendarEnabled  bool
	calendarSelected bool
}

// Calendars lists calendar sources sorted by name. Disabled calendars are
// included with Enabled=false.
func (c *Client) Calendars(ctx context.Context) ([]Calendar, error) {
	manager := c.conn.Object(c.sourceService, dbus.ObjectPath("/org/gnome/evolution/dataserver/SourceManager"))

	managed := make(map[dbus.ObjectPath]map[string]map[string]dbus.Variant)
	if err := manager.CallWithContext(ctx, "org.freedesktop.DBus.ObjectManager.GetManagedObjects", 0).Store(&managed); err != nil {
		return nil, fmt.Errorf("eds GetManagedObjects: %w", err)
	}

	sources := make(map[string]source, len(managed))
	for path, interfaces := range managed {
		props, ok := interfaces["org.gnome.evolution.dataserver.Source"]
		if !ok {
			continue
		}

		uid := variantString(props, "UID")
		data := variantString(props, "Data")
		if strings.TrimSpace(uid) == "" || strings.TrimSpace(data) == "" {
			continue
		}

		parsed, err := parseSource(uid, data)
		if err != nil {
			c.log.Debug("skipping unreadable source", zap.String("path", string(path)), zap.Error(err))
			continue
		}
		sources[uid] = parsed
	}

	calendars := make([]Calendar, 0, len(sources))
	for _, entry := range sources {
		if !entry.calendar {
			continue
		}
		calendars = append(calendars, Calendar{
			UID:      entry.uid,
			Name:     fallback(entry.displayName, entry.uid),
			Account:  accountName(entry, sources),
			Enabled:  entry.enabled && entry.calendarEnabled,
			Selected: entry.calendarSelected,
		})
	}

	slices.SortStableFunc(calendars, func(a, b Calendar) int {
		if cmp := strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)); cmp != 0 {
			return cmp
		}
		return strings.Compare(a.UID, b.UID)
	})
	return calendars, nil
}

// Active keeps enabled calendars the user marked as selected, or every
// enabled calendar when none is selected.
func Active(calendars []Calendar) []Calendar {
	enabled := make([]Calendar, 0, len(calendars))
	selected := make([]Calendar, 0, len(calendars))
	for _, calendar := range calendars {
		if !calendar.Enabled {
			continue
		}
		enabled = append(enabled, calendar)
		if calendar.Selected {
			selected = append(selected, calendar)
		}
	}
	if len(selected) > 0 {
		return selected
	}
	return enabled
}

// parseSource reads the key file EDS stores in a source's Data property.
func parseSource(uid, data string) (source, error) {
	cfg, err := ini.LoadSources(ini.LoadOptions{
		IgnoreInlineComment: true,
		AllowShadows:        true,
	}, []byte(data))
	if err != nil {
		return source{}, err
	}

	dataSection := cfg.Section("Data Source")
	entry := source{
		uid:         uid,
		displayName: strings.TrimSpace(dataSection.Key("DisplayName").String()),
		parentUID:   strings.TrimSpace(dataSection.Key("Parent").String()),
		enabled:     boolOr(dataSection.Key("Enabled").String(), true),
	}

	if section, err := cfg.GetSection("Calendar"); err == nil {
		entry.calendar = true
		entry.calendarEnabled = boolOr(section.Key("Enabled").String(), true)
		entry.calendarSelected = boolOr(section.Key("Selected").String(), false)
	}
	return entry, nil
}

func variantString(props map[string]dbus.Variant, key string) string {
	value, ok := props[key]
	if !ok {
		return ""
	}
	s, _ := value.Value().(string)
	return s
}

func boolOr(value string, fallback bool) bool {
	parsed, err := strconv.ParseBool(strings.ToLower(strings.TrimSpace(value)))
	if err != nil {
		return fallback
	}
	return parsed
}

// accountName is the display name of the parent source, ignoring stubs.
func accountName(entry source, sources map[string]source) string {
	if entry.parentUID == "" || strings.HasSuffix(entry.parentUID, "-stub") {
		return ""
	}
	parent, ok := sources[entry.parentUID]
	if !ok {
		return ""
	}
	name := strings.TrimSpace(parent.displayName)
	if strings.HasSuffix(strings.ToLower(name), "stub") {
		return ""
	}
	return name
}

func fallback(value, fallbackValue string) string {
	if strings.TrimSpace(value) == "" {
		return fallbackValue
	}
	return value
}

package eds

import (
	"fmt"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
)

// Event is one VEVENT as stored by a calendar backend.
type Event struct {
	CalendarUID  string
	CalendarName string
	Account      string

	UID          string
	RecurrenceID string
	RecurrenceAt *time.Time

	Summary     string
	Description string
	Location    string
	URL         string
	Conference  string
	Organizer   string
	Class       string
	Status      string

	Start  time.Time
	End    time.Time
	AllDay bool

	RRULE   string
	RDates  []time.Time
	ExDates []time.Time
}

func parseEventPayload(calendar Calendar, payload string) ([]Event, error) {
	wrapped := "BEGIN:VCALENDAR\n" + strings.TrimSpace(payload) + "\nEND:VCALENDAR\n"
	parsed, err := ics.ParseCalendar(strings.NewReader(wrapped))
	if err != nil {
		return nil, fmt.Errorf("parse ics payload: %w", err)
	}

	vevents := parsed.Events()
	events := make([]Event, 0, len(vevents))
	for _, vevent := range vevents {
		event, err := mapEvent(calendar, vevent)
		if err != nil {
			continue
		}
		events = append(events, event)
	}
	return events, nil
}

func mapEvent(calendar Calendar, vevent *ics.VEvent) (Event, error) {
	start, err := vevent.GetStartAt()
	if err != nil {
		return Event{}, err
	}
	end, err := vevent.GetEndAt()
	if err != nil || !end.After(start) {
		end = start.Add(30 * time.Minute)
	}

	text := func(name ics.ComponentProperty) string {
		return strings.TrimSpace(propertyValue(vevent.GetProperty(name)))
	}

	uid := sanitize(text(ics.ComponentPropertyUniqueId))
	if uid == "" {
		uid = sanitize(text(ics.ComponentPropertySummary))
	}

	event := Event{
		CalendarUID:  calendar.UID,
		CalendarName: calendar.Name,
		Account:      calendar.Account,
		UID:          uid,
		RecurrenceID: text(ics.ComponentPropertyRecurrenceId),
		Summary:      sanitize(text(ics.ComponentPropertySummary)),
		Description:  text(ics.ComponentPropertyDescription),
		Location:     text(ics.ComponentPropertyLocation),
		URL:          text(ics.ComponentPropertyUrl),
		Conference:   text(ics.ComponentProperty("X-GOOGLE-CONFERENCE")),
		Organizer:    organizerName(vevent.GetProperty(ics.ComponentPropertyOrganizer)),
		Class:        strings.ToUpper(sanitize(text(ics.ComponentPropertyClass))),
		Status:       strings.ToUpper(sanitize(text(ics.ComponentPropertyStatus))),
		Start:        start,
		End:          end,
		AllDay:       isAllDay(vevent.GetProperty(ics.ComponentPropertyDtStart)),
		RRULE:        text(ics.ComponentPropertyRrule),
		RDates:       collectDateTimes(vevent.GetProperties(ics.ComponentPropertyRdate)),
		ExDates:      collectDateTimes(vevent.GetProperties(ics.ComponentPropertyExdate)),
	}

	if prop := vevent.GetProperty(ics.ComponentPropertyRecurrenceId); prop != nil {
		if at, err := parseICSTime(prop.Value, prop.ICalParameters); err == nil {
			event.RecurrenceAt = &at
		}
	}
	return event, nil
}

// organizerName prefers the CN parameter over the mailto address.
func organizerName(prop *ics.IANAProperty) string {
	if prop == nil {
		return ""
	}
	if names := prop.ICalParameters["CN"]; len(names) > 0 && strings.TrimSpace(names[0]) != "" {
		return sanitize(strings.Trim(names[0], `"`))
	}
	value := strings.TrimSpace(prop.Value)
	if len(value) >= len("mailto:") && strings.EqualFold(value[:len("mailto:")], "mailto:") {
		value = value[len("mailto:"):]
	}
	return value
}

func collectDateTimes(props []*ics.IANAProperty) []time.Time {
	if len(props) == 0 {
		return nil
	}

	results := make([]time.Time, 0, len(props))
	for _, prop := range props {
		if prop == nil {
			continue
		}
		for _, value := range strings.Split(prop.Value, ",") {
			parsed, err := parseICSTime(value, prop.ICalParameters)
			if err != nil {
				continue
			}
			results = append(results, parsed)
		}
	}
	return results
}

var (
	utcLayouts   = []string{"20060102T150405Z", "20060102T1504Z"}
	localLayouts = []string{"20060102T150405", "20060102T1504", "20060102"}
)

// parseICSTime honours a TZID parameter and falls back to the host zone.
func parseICSTime(value string, params map[string][]string) (time.Time, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return time.Time{}, fmt.Errorf("empty time value")
	}

	for _, layout := range utcLayouts {
		if parsed, err := time.Parse(layout, trimmed); err == nil {
			return parsed, nil
		}
	}

	loc := time.Local
	if tzids := params["TZID"]; len(tzids) > 0 && strings.TrimSpace(tzids[0]) != "" {
		if loaded, err := time.LoadLocation(strings.TrimSpace(tzids[0])); err == nil {
			loc = loaded
		}
	}
	for _, layout := range localLayouts {
		if parsed, err := time.ParseInLocation(layout, trimmed, loc); err == nil {
			return parsed, nil
		}
	}

	return time.Time{}, fmt.Errorf("unable to parse time value %q", trimmed)
}

func isAllDay(prop *ics.IANAProperty) bool {
	if prop == nil {
		return false
	}
	for _, value := range prop.ICalParameters["VALUE"] {
		if strings.EqualFold(strings.TrimSpace(value), "DATE") {
			return true
		}
	}
	return len(strings.TrimSpace(prop.Value)) == len("20060102")
}

func propertyValue(prop *ics.IANAProperty) string {
	if prop == nil {
		return ""
	}
	return prop.Value
}

func sanitize(value string) string {
	return strings.Join(strings.Fields(value), " ")
}

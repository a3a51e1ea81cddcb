package eds

import (
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/teambition/rrule-go"

	"github.com/prodx0x/minderlink/internal/directory"
)

// Author marks rows imported from the desktop calendar.
const Author = "eds_import"

type occurrence struct {
	event     Event
	start     time.Time
	end       time.Time
	recurring bool
}

// Rows expands events over the window and converts every occurrence that
// carries a join link into a meeting row. All-day and cancelled events are
// skipped. Dates and times are rendered in windowStart's location.
func Rows(events []Event, windowStart, windowEnd time.Time) []directory.Row {
	occurrences := expand(events, windowStart, windowEnd)
	loc := windowStart.Location()

	rows := make([]directory.Row, 0, len(occurrences))
	for _, item := range occurrences {
		if item.event.AllDay || item.event.Status == "CANCELLED" {
			continue
		}
		row, ok := meetingRow(item, loc)
		if !ok {
			continue
		}
		rows = append(rows, row)
	}
	return rows
}

func meetingRow(item occurrence, loc *time.Location) (directory.Row, bool) {
	event := item.event
	link, platform := directory.JoinLinkFromText(event.Conference, event.URL, event.Location, event.Description)
	if link == "" {
		return directory.Row{}, false
	}

	category := directory.CategoryPublic
	if event.Class == "PRIVATE" || event.Class == "CONFIDENTIAL" {
		category = directory.CategoryPrivate
	}

	minutes := int(item.end.Sub(item.start).Round(time.Minute) / time.Minute)
	if minutes < 1 {
		minutes = 1
	}

	start := item.start.In(loc)
	platformValue := string(platform)
	author := Author
	row := directory.Row{
		ID:        occurrenceID(event, item.start),
		Title:     fallback(event.Summary, "Meeting"),
		Type:      directory.RowMeeting,
		Category:  category,
		Platform:  &platformValue,
		Link:      link,
		Date:      start.Format("2006-01-02"),
		Time:      start.Format("15:04"),
		Duration:  minutes,
		Organizer: fallback(event.Organizer, fallback(event.Account, event.CalendarName)),
		Notes:     optional(event.Description),
		Metadata: map[string]any{
			"source":   "eds",
			"calendar": event.CalendarName,
			"uid":      event.UID,
		},
		CreatedBy: &author,
	}
	if event.CalendarName != "" {
		row.Tags = []string{event.CalendarName}
	}
	if item.recurring {
		recurring := true
		row.IsRecurring = &recurring
		row.RecurrencePattern = optional(event.RRULE)
	}
	return row, true
}

// occurrenceID is stable across imports of the same occurrence.
func occurrenceID(event Event, start time.Time) string {
	key := event.CalendarUID + "/" + event.UID + "/" + start.UTC().Format(time.RFC3339)
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(key)).String()
}

func expand(events []Event, windowStart, windowEnd time.Time) []occurrence {
	masters := make([]Event, 0, len(events))
	singles := make([]Event, 0, len(events))
	overrides := make(map[string]Event)

	for _, event := range events {
		switch {
		case event.UID == "":
			continue
		case event.RRULE != "":
			masters = append(masters, event)
		case event.RecurrenceID != "" && event.RecurrenceAt != nil:
			overrides[overrideKey(event.CalendarUID, event.UID, *event.RecurrenceAt)] = event
		default:
			singles = append(singles, event)
		}
	}

	result := make([]occurrence, 0, len(events))
	add := func(event Event, start, end time.Time, recurring bool) {
		if overlaps(start, end, windowStart, windowEnd) {
			result = append(result, occurrence{event: event, start: start, end: end, recurring: recurring})
		}
	}

	for _, event := range singles {
		add(event, event.Start, event.End, false)
	}

	for _, master := range masters {
		duration := master.End.Sub(master.Start)
		for _, start := range ruleStarts(master, windowStart, windowEnd) {
			key := overrideKey(master.CalendarUID, master.UID, start)
			if override, ok := overrides[key]; ok {
				delete(overrides, key)
				add(override, override.Start, override.End, true)
				continue
			}
			add(master, start, start.Add(duration), true)
		}
	}

	for _, override := range overrides {
		add(override, override.Start, override.End, true)
	}

	slices.SortStableFunc(result, func(a, b occurrence) int {
		if c := a.start.Compare(b.start); c != 0 {
			return c
		}
		return strings.Compare(a.event.Summary, b.event.Summary)
	})
	return dedupe(result)
}

func ruleStarts(event Event, windowStart, windowEnd time.Time) []time.Time {
	single := []time.Time{event.Start}

	opt, err := rrule.StrToROption(event.RRULE)
	if err != nil {
		return single
	}
	opt.Dtstart = event.Start
	rule, err := rrule.NewRRule(*opt)
	if err != nil {
		return single
	}

	set := &rrule.Set{}
	set.RRule(rule)
	for _, exdate := range event.ExDates {
		set.ExDate(exdate)
	}
	for _, rdate := range event.RDates {
		set.RDate(rdate)
	}

	// Include occurrences that started before the window but still overlap it.
	lookback := event.End.Sub(event.Start)
	starts := set.Between(windowStart.Add(-lookback), windowEnd, true)
	if len(starts) == 0 {
		return single
	}
	return starts
}

func overlaps(start, end, windowStart, windowEnd time.Time) bool {
	if !end.After(start) {
		end = start.Add(30 * time.Minute)
	}
	return end.After(windowStart) && start.Before(windowEnd)
}

func overrideKey(calendarUID, uid string, start time.Time) string {
	return calendarUID + "|" + uid + "|" + start.UTC().Format(time.RFC3339)
}

func dedupe(items []occurrence) []occurrence {
	seen := make(map[string]struct{}, len(items))
	out := items[:0]
	for _, item := range items {
		key := overrideKey(item.event.CalendarUID, item.event.UID, item.start)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, item)
	}
	return out
}

func optional(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}

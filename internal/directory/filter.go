package directory

import (
	"sort"
	"strings"
	"time"
)

// Selector is a nullable filter value. The zero value matches everything.
type Selector string

const Any Selector = ""

func (s Selector) IsAny() bool {
	return s == Any
}

func (s Selector) matches(values []string) bool {
	if s.IsAny() {
		return true
	}
	for _, value := range values {
		if value == string(s) {
			return true
		}
	}
	return false
}

// Accessors expose the filterable fields of a record type. A scalar field is
// returned as a one-element slice.
type Accessors[T any] struct {
	Days      func(T) []string
	Secondary func(T) []string
}

// Filter keeps the records matching both selectors, preserving input order.
func Filter[T any](items []T, acc Accessors[T], day, secondary Selector) []T {
	if len(items) == 0 {
		return nil
	}

	filtered := make([]T, 0, len(items))
	for _, item := range items {
		if !day.IsAny() && (acc.Days == nil || !day.matches(acc.Days(item))) {
			continue
		}
		if !secondary.IsAny() && (acc.Secondary == nil || !secondary.matches(acc.Secondary(item))) {
			continue
		}
		filtered = append(filtered, item)
	}
	return filtered
}

var MeetingAccessors = Accessors[Meeting]{
	Days: func(m Meeting) []string {
		day, ok := WeekdayOf(m.Date)
		if !ok {
			return nil
		}
		return []string{day}
	},
	Secondary: func(m Meeting) []string {
		return []string{string(m.Platform)}
	},
}

var SessionAccessors = Accessors[Session]{
	Days: func(s Session) []string {
		return s.Base().Day
	},
	Secondary: func(s Session) []string {
		return s.Base().Language
	},
}

func FilterMeetings(items []Meeting, day, platform Selector) []Meeting {
	return Filter(items, MeetingAccessors, day, platform)
}

func FilterSessions(items []Session, day, language Selector) []Session {
	return Filter(items, SessionAccessors, day, language)
}

// WeekdayOf returns the English weekday name of an ISO date.
func WeekdayOf(date string) (string, bool) {
	parsed, err := time.Parse(dateLayout, strings.TrimSpace(date))
	if err != nil {
		return "", false
	}
	return parsed.Weekday().String(), true
}

// TodayFilterValue returns the day selector value for now.
func TodayFilterValue(now time.Time) string {
	return now.Weekday().String()
}

func TodayMeetings(items []Meeting, now time.Time) []Meeting {
	today := now.Format(dateLayout)
	filtered := make([]Meeting, 0, len(items))
	for _, item := range items {
		if strings.TrimSpace(item.Date) == today {
			filtered = append(filtered, item)
		}
	}
	return filtered
}

// SortMeetings orders by start; records with an unparseable start sort last.
func SortMeetings(items []Meeting, loc *time.Location) {
	sort.SliceStable(items, func(i, j int) bool {
		return startBefore(items[i].Date, items[i].Time, items[j].Date, items[j].Time, loc, items[i].Title, items[j].Title)
	})
}

func SortSessions(items []Session, loc *time.Location) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i].Base(), items[j].Base()
		return startBefore(a.Date, a.Time, b.Date, b.Time, loc, a.Region, b.Region)
	})
}

func startBefore(dateA, clockA, dateB, clockB string, loc *time.Location, labelA, labelB string) bool {
	startA, errA := ParseStart(dateA, clockA, loc)
	startB, errB := ParseStart(dateB, clockB, loc)
	switch {
	case errA != nil && errB != nil:
		return strings.ToLower(labelA) < strings.ToLower(labelB)
	case errA != nil:
		return false
	case errB != nil:
		return true
	}
	if !startA.Equal(startB) {
		return startA.Before(startB)
	}
	return strings.ToLower(labelA) < strings.ToLower(labelB)
}

func GroupMeetingsByDate(items []Meeting) map[string][]Meeting {
	groups := make(map[string][]Meeting)
	for _, item := range items {
		groups[item.Date] = append(groups[item.Date], item)
	}
	return groups
}

func GroupMeetingsByPlatform(items []Meeting) map[Platform][]Meeting {
	groups := make(map[Platform][]Meeting)
	for _, item := range items {
		groups[item.Platform] = append(groups[item.Platform], item)
	}
	return groups
}

// GroupSessionsByDay files a multi-day session under each of its day tags.
func GroupSessionsByDay(items []Session) map[string][]Session {
	groups := make(map[string][]Session)
	for _, item := range items {
		for _, day := range item.Base().Day {
			groups[day] = append(groups[day], item)
		}
	}
	return groups
}

func MeetingsByCategory(items []Meeting, category Category) []Meeting {
	filtered := make([]Meeting, 0, len(items))
	for _, item := range items {
		if item.Category == category {
			filtered = append(filtered, item)
		}
	}
	return filtered
}

func SessionsByType(items []Session, kind SessionType) []Session {
	filtered := make([]Session, 0, len(items))
	for _, item := range items {
		if item.Type() == kind {
			filtered = append(filtered, item)
		}
	}
	return filtered
}

package directory

import (
	"fmt"
	"strings"
	"time"
)

const (
	dateLayout = "2006-01-02"

	inProgressLabel = "in progress"
	unknownLabel    = "unknown"
)

var clockLayouts = []string{"15:04", "15:04:05"}

// ParseStart combines an ISO date and an HH:MM clock in loc. Time zone
// fields on records are display-only and are not consulted here.
func ParseStart(date, clock string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}

	date = strings.TrimSpace(date)
	clock = strings.TrimSpace(clock)
	if date == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	if clock == "" {
		return time.Time{}, fmt.Errorf("empty time")
	}

	for _, layout := range clockLayouts {
		parsed, err := time.ParseInLocation(dateLayout+" "+layout, date+" "+clock, loc)
		if err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, fmt.Errorf("unable to parse start %q %q", date, clock)
}

// IsActiveNow reports whether now falls in [start, start+duration], both ends
// inclusive. Malformed input is never active.
func IsActiveNow(date, clock string, durationMinutes int, now time.Time) bool {
	start, err := ParseStart(date, clock, now.Location())
	if err != nil {
		return false
	}
	end := start.Add(time.Duration(durationMinutes) * time.Minute)
	return !now.Before(start) && !now.After(end)
}

// TimeUntil returns start-now, negative once the start has passed. ok is
// false when the start cannot be parsed.
func TimeUntil(date, clock string, now time.Time) (d time.Duration, ok bool) {
	start, err := ParseStart(date, clock, now.Location())
	if err != nil {
		return 0, false
	}
	return start.Sub(now), true
}

// FormatTimeRemaining renders a countdown. Beyond a day only whole days are
// shown; the hour and minute remainder is dropped.
func FormatTimeRemaining(d time.Duration) string {
	if d <= 0 {
		return inProgressLabel
	}

	minutes := int(d / time.Minute)
	hours := minutes / 60
	days := hours / 24

	switch {
	case days > 0:
		return fmt.Sprintf("in %d %s", days, plural(days, "day", "days"))
	case hours > 0:
		return fmt.Sprintf("in %dh %dmin", hours, minutes%60)
	default:
		return fmt.Sprintf("in %d %s", minutes, plural(minutes, "minute", "minutes"))
	}
}

func RemainingLabel(date, clock string, now time.Time) string {
	d, ok := TimeUntil(date, clock, now)
	if !ok {
		return unknownLabel
	}
	return FormatTimeRemaining(d)
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

type Status string

const (
	StatusUnknown  Status = "unknown"
	StatusUpcoming Status = "upcoming"
	StatusActive   Status = "active"
	StatusPast     Status = "past"
)

func Classify(date, clock string, durationMinutes int, now time.Time) Status {
	start, err := ParseStart(date, clock, now.Location())
	if err != nil {
		return StatusUnknown
	}
	end := start.Add(time.Duration(durationMinutes) * time.Minute)
	switch {
	case now.Before(start):
		return StatusUpcoming
	case now.After(end):
		return StatusPast
	default:
		return StatusActive
	}
}

// NextMeetingWithin picks the active or soonest upcoming meeting starting no
// later than now+within.
func NextMeetingWithin(items []Meeting, now time.Time, within time.Duration) (Meeting, bool) {
	upcoming := UpcomingMeetings(items, now, within, 1)
	if len(upcoming) == 0 {
		return Meeting{}, false
	}
	return upcoming[0], true
}

// UpcomingMeetings returns meetings that have not ended and start within the
// window, sorted by start and capped at maxItems.
func UpcomingMeetings(items []Meeting, now time.Time, within time.Duration, maxItems int) []Meeting {
	if len(items) == 0 || maxItems <= 0 {
		return nil
	}

	windowEnd := now.Add(within)
	candidates := make([]Meeting, 0, len(items))
	for _, item := range items {
		start, err := ParseStart(item.Date, item.Time, now.Location())
		if err != nil {
			continue
		}
		end := start.Add(time.Duration(item.Duration) * time.Minute)
		if end.Before(now) {
			continue
		}
		if start.After(windowEnd) {
			continue
		}
		candidates = append(candidates, item)
	}

	SortMeetings(candidates, now.Location())
	if len(candidates) > maxItems {
		candidates = candidates[:maxItems]
	}
	return candidates
}

// CountdownText is the short form used in the status bar.
func CountdownText(now time.Time, item Meeting) string {
	d, ok := TimeUntil(item.Date, item.Time, now)
	if !ok {
		return "?"
	}
	if d <= 0 {
		return "now"
	}
	return HumanizeDuration(d)
}

func HumanizeDuration(d time.Duration) string {
	if d <= 0 {
		return "now"
	}

	minutes := int((d + time.Minute - 1) / time.Minute)
	days := minutes / (24 * 60)
	remaining := minutes % (24 * 60)
	hours := remaining / 60
	mins := remaining % 60

	parts := make([]string, 0, 3)
	if days > 0 {
		parts = append(parts, fmt.Sprintf("%dd", days))
	}
	if hours > 0 {
		parts = append(parts, fmt.Sprintf("%dh", hours))
	}
	if mins > 0 {
		parts = append(parts, fmt.Sprintf("%dm", mins))
	}
	if len(parts) == 0 {
		parts = append(parts, "0m")
	}
	return strings.Join(parts, " ")
}

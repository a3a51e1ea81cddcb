package directory

import (
	"strings"
	"time"

	"github.com/teambition/rrule-go"
)

var weekdayNames = map[string]rrule.Weekday{
	"monday":    rrule.MO,
	"tuesday":   rrule.TU,
	"wednesday": rrule.WE,
	"thursday":  rrule.TH,
	"friday":    rrule.FR,
	"saturday":  rrule.SA,
	"sunday":    rrule.SU,
	"lundi":     rrule.MO,
	"mardi":     rrule.TU,
	"mercredi":  rrule.WE,
	"jeudi":     rrule.TH,
	"vendredi":  rrule.FR,
	"samedi":    rrule.SA,
	"dimanche":  rrule.SU,
}

// sessionRule turns a session's day tags into a weekly rule anchored a week
// before now, at the session's clock time. ok is false when the session has
// no recognizable day tag or clock.
func sessionRule(s Session, now time.Time) (*rrule.RRule, bool) {
	base := s.Base()

	days := make([]rrule.Weekday, 0, len(base.Day))
	for _, tag := range base.Day {
		if day, ok := weekdayNames[strings.ToLower(strings.TrimSpace(tag))]; ok {
			days = append(days, day)
		}
	}
	if len(days) == 0 {
		return nil, false
	}

	anchor, err := ParseStart(now.Format(dateLayout), base.Time, now.Location())
	if err != nil {
		return nil, false
	}

	rule, err := rrule.NewRRule(rrule.ROption{
		Freq:      rrule.WEEKLY,
		Dtstart:   anchor.AddDate(0, 0, -7),
		Byweekday: days,
	})
	if err != nil {
		return nil, false
	}
	return rule, true
}

// NextSessionStart returns the start of the running or next occurrence of a
// session, from its weekday tags when present and from its date otherwise.
func NextSessionStart(s Session, now time.Time) (time.Time, bool) {
	base := s.Base()
	duration := time.Duration(base.Duration) * time.Minute

	if rule, ok := sessionRule(s, now); ok {
		next := rule.After(now.Add(-duration), true)
		if next.IsZero() {
			return time.Time{}, false
		}
		return next, true
	}

	start, err := ParseStart(base.Date, base.Time, now.Location())
	if err != nil {
		return time.Time{}, false
	}
	if start.Add(duration).Before(now) {
		return time.Time{}, false
	}
	return start, true
}

// ExpandSession lists session starts inside [windowStart, windowEnd].
func ExpandSession(s Session, windowStart, windowEnd time.Time) []time.Time {
	base := s.Base()

	if rule, ok := sessionRule(s, windowStart); ok {
		return rule.Between(windowStart, windowEnd, true)
	}

	start, err := ParseStart(base.Date, base.Time, windowStart.Location())
	if err != nil {
		return nil
	}
	if start.Before(windowStart) || start.After(windowEnd) {
		return nil
	}
	return []time.Time{start}
}

package directory

import (
	"testing"
	"time"
)

func TestIsActiveNow_Boundaries(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		now  time.Time
		want bool
	}{
		{name: "start", now: time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC), want: true},
		{name: "end_inclusive", now: time.Date(2024, 1, 1, 11, 0, 0, 0, time.UTC), want: true},
		{name: "after_end", now: time.Date(2024, 1, 1, 11, 0, 1, 0, time.UTC), want: false},
		{name: "before_start", now: time.Date(2024, 1, 1, 9, 59, 59, 0, time.UTC), want: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := IsActiveNow("2024-01-01", "10:00", 60, tc.now); got != tc.want {
				t.Fatalf("IsActiveNow at %s = %v, want %v", tc.now.Format(time.RFC3339), got, tc.want)
			}
		})
	}
}

func TestIsActiveNow_MalformedIsInactive(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 1, 1, 10, 30, 0, 0, time.UTC)
	for _, input := range [][2]string{{"2024-13-01", "10:00"}, {"2024-01-01", "25:00"}, {"", "10:00"}, {"2024-01-01", ""}} {
		if IsActiveNow(input[0], input[1], 60, now) {
			t.Fatalf("expected %q %q to be inactive", input[0], input[1])
		}
	}
}

func TestIsActiveNow_AcceptsSeconds(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 1, 1, 10, 30, 0, 0, time.UTC)
	if !IsActiveNow("2024-01-01", "10:00:00", 60, now) {
		t.Fatal("expected HH:MM:SS clock to be accepted")
	}
}

func TestTimeUntil_Sign(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

	future, ok := TimeUntil("2024-01-01", "10:30", now)
	if !ok || future != 30*time.Minute {
		t.Fatalf("future TimeUntil = %v, %v", future, ok)
	}

	past, ok := TimeUntil("2024-01-01", "09:00", now)
	if !ok || past >= 0 {
		t.Fatalf("past TimeUntil = %v, %v", past, ok)
	}

	if _, ok := TimeUntil("not-a-date", "09:00", now); ok {
		t.Fatal("expected malformed date to report !ok")
	}
}

func TestFormatTimeRemaining(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   time.Duration
		out  string
	}{
		{name: "floor_minute", in: 90 * time.Second, out: "in 1 minute"},
		{name: "minutes", in: 45 * time.Minute, out: "in 45 minutes"},
		{name: "under_minute", in: 30 * time.Second, out: "in 0 minutes"},
		{name: "hours_minutes", in: 90 * time.Minute, out: "in 1h 30min"},
		{name: "exact_hour", in: time.Hour, out: "in 1h 0min"},
		{name: "days_truncated", in: 2*24*time.Hour + time.Hour, out: "in 2 days"},
		{name: "one_day", in: 24 * time.Hour, out: "in 1 day"},
		{name: "zero", in: 0, out: "in progress"},
		{name: "negative", in: -time.Minute, out: "in progress"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := FormatTimeRemaining(tc.in); got != tc.out {
				t.Fatalf("FormatTimeRemaining(%v) = %q, want %q", tc.in, got, tc.out)
			}
		})
	}
}

func TestRemainingLabel_Unknown(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	if got := RemainingLabel("tomorrow", "10:00", now); got != "unknown" {
		t.Fatalf("RemainingLabel = %q", got)
	}
	if got := RemainingLabel("2024-01-01", "10:05", now); got != "in 5 minutes" {
		t.Fatalf("RemainingLabel = %q", got)
	}
}

func TestClassify(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 1, 1, 10, 30, 0, 0, time.UTC)
	tests := []struct {
		clock string
		want  Status
	}{
		{clock: "11:00", want: StatusUpcoming},
		{clock: "10:00", want: StatusActive},
		{clock: "08:00", want: StatusPast},
		{clock: "noon", want: StatusUnknown},
	}
	for _, tc := range tests {
		if got := Classify("2024-01-01", tc.clock, 60, now); got != tc.want {
			t.Fatalf("Classify(%s) = %s, want %s", tc.clock, got, tc.want)
		}
	}
}

func TestUpcomingMeetings_RespectsWindowAndLimit(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)
	items := []Meeting{
		{ID: "tomorrow", Date: "2024-03-05", Time: "12:00", Duration: 30},
		{ID: "soon", Date: "2024-03-04", Time: "10:00", Duration: 30},
		{ID: "running", Date: "2024-03-04", Time: "08:30", Duration: 60},
		{ID: "ended", Date: "2024-03-04", Time: "07:00", Duration: 30},
		{ID: "broken", Date: "2024-03-04", Time: "??", Duration: 30},
	}

	got := meetingIDs(UpcomingMeetings(items, now, 24*time.Hour, 8))
	want := []string{"running", "soon"}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("UpcomingMeetings = %v, want %v", got, want)
	}

	if got := UpcomingMeetings(items, now, 48*time.Hour, 1); len(got) != 1 || got[0].ID != "running" {
		t.Fatalf("expected cap of 1, got %v", meetingIDs(got))
	}

	next, ok := NextMeetingWithin(items, now, 24*time.Hour)
	if !ok || next.ID != "running" {
		t.Fatalf("NextMeetingWithin = %v, %v", next.ID, ok)
	}
}

func TestCountdownText(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)
	if got := CountdownText(now, Meeting{Date: "2024-03-04", Time: "09:25"}); got != "25m" {
		t.Fatalf("CountdownText = %q", got)
	}
	if got := CountdownText(now, Meeting{Date: "2024-03-04", Time: "08:00"}); got != "now" {
		t.Fatalf("CountdownText = %q", got)
	}
	if got := CountdownText(now, Meeting{Date: "x", Time: "08:00"}); got != "?" {
		t.Fatalf("CountdownText = %q", got)
	}
}

func TestHumanizeDuration(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   time.Duration
		out  string
	}{
		{name: "minutes", in: 24 * time.Minute, out: "24m"},
		{name: "hours_minutes", in: 4*time.Hour + 24*time.Minute, out: "4h 24m"},
		{name: "days_hours_minutes", in: 2*24*time.Hour + 3*time.Hour + 5*time.Minute, out: "2d 3h 5m"},
		{name: "rounds_up", in: 30 * time.Second, out: "1m"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := HumanizeDuration(tc.in); got != tc.out {
				t.Fatalf("HumanizeDuration(%v) = %q, want %q", tc.in, got, tc.out)
			}
		})
	}
}

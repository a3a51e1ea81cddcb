package directory

import (
	"reflect"
	"testing"
	"time"
)

func weekMeetings() []Meeting {
	return []Meeting{
		{ID: "m1", Title: "Standup", Platform: PlatformZoom, Date: "2024-03-04", Time: "09:00", Duration: 30, Category: CategoryPublic},
		{ID: "m2", Title: "Review", Platform: PlatformTeams, Date: "2024-03-05", Time: "14:00", Duration: 60, Category: CategoryPrivate},
	}
}

func meetingIDs(items []Meeting) []string {
	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ID)
	}
	return ids
}

func sessionIDs(items []Session) []string {
	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.Base().ID)
	}
	return ids
}

func TestFilterMeetings_DayAndPlatform(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		day      Selector
		platform Selector
		want     []string
	}{
		{name: "monday", day: "Monday", want: []string{"m1"}},
		{name: "teams", platform: "teams", want: []string{"m2"}},
		{name: "monday_teams", day: "Monday", platform: "teams", want: []string{}},
		{name: "no_filters", want: []string{"m1", "m2"}},
		{name: "unknown_day", day: "Funday", want: []string{}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := meetingIDs(FilterMeetings(weekMeetings(), tc.day, tc.platform))
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("FilterMeetings(%q, %q) = %v, want %v", tc.day, tc.platform, got, tc.want)
			}
		})
	}
}

func TestFilterMeetings_IdentityWithoutSelectors(t *testing.T) {
	t.Parallel()

	items := weekMeetings()
	got := FilterMeetings(items, Any, Any)
	if !reflect.DeepEqual(got, items) {
		t.Fatalf("expected identity, got %#v", got)
	}
}

func TestFilterMeetings_Idempotent(t *testing.T) {
	t.Parallel()

	items := append(weekMeetings(), Meeting{ID: "m3", Platform: PlatformZoom, Date: "2024-03-11"})
	once := FilterMeetings(items, "Monday", "zoom")
	twice := FilterMeetings(once, "Monday", "zoom")
	if !reflect.DeepEqual(once, twice) {
		t.Fatalf("filter is not idempotent: %v vs %v", meetingIDs(once), meetingIDs(twice))
	}
	if got := meetingIDs(once); !reflect.DeepEqual(got, []string{"m1", "m3"}) {
		t.Fatalf("unexpected order: %v", got)
	}
}

func TestFilterMeetings_EmptyInput(t *testing.T) {
	t.Parallel()

	if got := FilterMeetings(nil, "Monday", Any); len(got) != 0 {
		t.Fatalf("expected empty result, got %d", len(got))
	}
}

func TestFilterMeetings_MalformedDateNeverMatchesDay(t *testing.T) {
	t.Parallel()

	items := []Meeting{{ID: "bad", Date: "04/03/2024", Platform: PlatformZoom}}
	if got := FilterMeetings(items, "Monday", Any); len(got) != 0 {
		t.Fatalf("expected malformed date to be excluded, got %v", meetingIDs(got))
	}
	if got := FilterMeetings(items, Any, "zoom"); len(got) != 1 {
		t.Fatalf("expected malformed date to pass platform-only filter, got %d", len(got))
	}
}

func TestFilterSessions_ListMembership(t *testing.T) {
	t.Parallel()

	items := []Session{
		&PublicSession{SessionBase: SessionBase{ID: "s1", Day: StringList{"Monday", "Wednesday"}, Language: StringList{"fr", "en"}}},
		&VipSession{SessionBase: SessionBase{ID: "s2", Day: StringList{"Tuesday"}, Language: StringList{"fr"}}},
	}

	if got := sessionIDs(FilterSessions(items, "Wednesday", Any)); !reflect.DeepEqual(got, []string{"s1"}) {
		t.Fatalf("day filter = %v", got)
	}
	if got := sessionIDs(FilterSessions(items, Any, "en")); !reflect.DeepEqual(got, []string{"s1"}) {
		t.Fatalf("language filter = %v", got)
	}
	if got := sessionIDs(FilterSessions(items, Any, "fr")); !reflect.DeepEqual(got, []string{"s1", "s2"}) {
		t.Fatalf("shared language filter = %v", got)
	}
	if got := sessionIDs(FilterSessions(items, "Tuesday", "en")); len(got) != 0 {
		t.Fatalf("expected empty result, got %v", got)
	}
}

func TestFilterSessions_ScalarExactMatch(t *testing.T) {
	t.Parallel()

	items := []Session{
		&VipSession{SessionBase: SessionBase{ID: "s1", Day: StringList{"Monday"}, Language: StringList{"fr"}}},
	}
	if got := FilterSessions(items, "monday", Any); len(got) != 0 {
		t.Fatalf("day match must be case-sensitive, got %v", sessionIDs(got))
	}
	if got := FilterSessions(items, "Monday", "fr"); len(got) != 1 {
		t.Fatalf("expected exact match, got %d", len(got))
	}
}

func TestTodayFilterValue(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 3, 6, 12, 0, 0, 0, time.UTC)
	if got := TodayFilterValue(now); got != "Wednesday" {
		t.Fatalf("TodayFilterValue = %q", got)
	}

	day, _ := WeekdayOf("2024-03-06")
	if got := FilterMeetings([]Meeting{{ID: "x", Date: "2024-03-06"}}, Selector(TodayFilterValue(now)), Any); len(got) != 1 || day != "Wednesday" {
		t.Fatalf("today value must match meeting weekday names")
	}
}

func TestTodayMeetings(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 3, 5, 8, 0, 0, 0, time.UTC)
	got := meetingIDs(TodayMeetings(weekMeetings(), now))
	if !reflect.DeepEqual(got, []string{"m2"}) {
		t.Fatalf("TodayMeetings = %v", got)
	}
}

func TestSortMeetings_UnparseableLast(t *testing.T) {
	t.Parallel()

	items := []Meeting{
		{ID: "late", Title: "b", Date: "2024-03-05", Time: "10:00"},
		{ID: "bad", Title: "a", Date: "soon", Time: "10:00"},
		{ID: "early", Title: "c", Date: "2024-03-04", Time: "10:00"},
		{ID: "tie", Title: "A", Date: "2024-03-05", Time: "10:00"},
	}
	SortMeetings(items, time.UTC)

	if got := meetingIDs(items); !reflect.DeepEqual(got, []string{"early", "tie", "late", "bad"}) {
		t.Fatalf("SortMeetings order = %v", got)
	}
}

func TestGroupSessionsByDay_MultiDay(t *testing.T) {
	t.Parallel()

	items := []Session{
		&PublicSession{SessionBase: SessionBase{ID: "s1", Day: StringList{"Monday", "Wednesday"}}},
		&VipSession{SessionBase: SessionBase{ID: "s2", Day: StringList{"Monday"}}},
	}
	groups := GroupSessionsByDay(items)

	if got := sessionIDs(groups["Monday"]); !reflect.DeepEqual(got, []string{"s1", "s2"}) {
		t.Fatalf("Monday group = %v", got)
	}
	if got := sessionIDs(groups["Wednesday"]); !reflect.DeepEqual(got, []string{"s1"}) {
		t.Fatalf("Wednesday group = %v", got)
	}
}

func TestSessionsByType(t *testing.T) {
	t.Parallel()

	items := []Session{
		&PublicSession{SessionBase: SessionBase{ID: "p"}},
		&VipSession{SessionBase: SessionBase{ID: "v"}},
	}
	if got := sessionIDs(SessionsByType(items, SessionVip)); !reflect.DeepEqual(got, []string{"v"}) {
		t.Fatalf("SessionsByType(vip) = %v", got)
	}
	if got := meetingIDs(MeetingsByCategory(weekMeetings(), CategoryPrivate)); !reflect.DeepEqual(got, []string{"m2"}) {
		t.Fatalf("MeetingsByCategory(private) = %v", got)
	}
}

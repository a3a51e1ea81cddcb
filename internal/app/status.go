package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/prodx0x/minderlink/internal/directory"
	"github.com/prodx0x/minderlink/internal/selector"
	"github.com/prodx0x/minderlink/internal/state"
	"github.com/prodx0x/minderlink/internal/waybar"
)

var weekdays = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

func (r *runner) buildStatus(ctx context.Context) (waybar.Output, error) {
	if err := state.EnsureDirs(r.cfg.StateDir, r.cfg.MenuDir); err != nil {
		return waybar.Output{}, err
	}

	now := r.now()
	cat, err := r.loadCatalog(ctx)
	if err != nil {
		return r.renderFailure(fmt.Sprintf("Directory unavailable: %s", err.Error()))
	}

	filters, err := state.LoadFilters(r.cfg.FiltersPath)
	if err != nil {
		return waybar.Output{}, err
	}

	items := r.upcomingItems(cat, filters, now)
	if err := state.SaveItems(r.cfg.ItemsPath, items); err != nil {
		return waybar.Output{}, err
	}

	menuData := state.MenuData{
		StatusLine: fmt.Sprintf("No meeting in next %d minutes", int(r.cfg.Lookahead.Minutes())),
		Items:      items,
		Now:        now,
	}
	if len(items) > 0 {
		menuData.Next = &items[0]
		menuData.StatusLine = "Upcoming meeting"
	}
	if err := state.WriteMenu(r.cfg.MenuPath, menuData); err != nil {
		return waybar.Output{}, err
	}

	return waybar.Build(now, r.cfg.Lookahead, items, statusNote(cat, filters)), nil
}

func (r *runner) renderFailure(tooltip string) (waybar.Output, error) {
	if err := state.SaveItems(r.cfg.ItemsPath, nil); err != nil {
		return waybar.Output{}, err
	}
	if err := state.WriteMenu(r.cfg.MenuPath, state.MenuData{StatusLine: "Directory unavailable", Now: r.now()}); err != nil {
		return waybar.Output{}, err
	}
	return waybar.Failure(tooltip), nil
}

func statusNote(cat catalog, filters state.Filters) string {
	var parts []string
	if selected := describeFilters(filters); selected != "" {
		parts = append(parts, "Filter: "+selected)
	}
	if cat.Note != "" {
		parts = append(parts, cat.Note)
	}
	return strings.Join(parts, "\n")
}

func describeFilters(filters state.Filters) string {
	var parts []string
	if !filters.Day.IsAny() {
		parts = append(parts, string(filters.Day))
	}
	if !filters.Platform.IsAny() {
		parts = append(parts, directory.PlatformLabel(directory.Platform(filters.Platform)))
	}
	if !filters.Language.IsAny() {
		parts = append(parts, string(filters.Language))
	}
	return strings.Join(parts, " · ")
}

// upcomingItems merges meetings and session occurrences starting within the
// lookahead. Links of gated records are left empty.
func (r *runner) upcomingItems(cat catalog, filters state.Filters, now time.Time) []state.Item {
	meetings := directory.FilterMeetings(cat.Meetings, filters.Day, filters.Platform)
	sessions := directory.FilterSessions(cat.Sessions, filters.Day, filters.Language)

	items := make([]state.Item, 0, r.cfg.MaxItems)
	for _, meeting := range directory.UpcomingMeetings(meetings, now, r.cfg.Lookahead, r.cfg.MaxItems) {
		start, err := directory.ParseStart(meeting.Date, meeting.Time, now.Location())
		if err != nil {
			continue
		}
		conn := directory.MeetingConnection(meeting, r.unlocks.IsUnlocked(meeting.ID))
		items = append(items, state.Item{
			ID:       meeting.ID,
			Kind:     state.KindMeeting,
			Title:    meeting.Title,
			Start:    start,
			Duration: meeting.Duration,
			Platform: meeting.Platform,
			Link:     conn.Link,
			Gated:    conn.Hidden,
		})
	}

	windowEnd := now.Add(r.cfg.Lookahead)
	for _, session := range sessions {
		base := session.Base()
		start, ok := directory.NextSessionStart(session, now)
		if !ok || start.After(windowEnd) {
			continue
		}
		conn, err := directory.SessionConnection(session, r.unlocks.IsUnlocked(base.ID))
		if err != nil {
			r.log.Warn("skipping session", zap.String("id", base.ID), zap.Error(err))
			continue
		}
		items = append(items, state.Item{
			ID:       base.ID,
			Kind:     state.KindSession,
			Title:    directory.SessionTitle(session),
			Start:    start,
			Duration: base.Duration,
			Platform: conn.Platform,
			Link:     conn.Link,
			Gated:    conn.Hidden,
		})
	}

	sort.SliceStable(items, func(i, j int) bool {
		if !items[i].Start.Equal(items[j].Start) {
			return items[i].Start.Before(items[j].Start)
		}
		return items[i].Title < items[j].Title
	})
	if len(items) > r.cfg.MaxItems {
		items = items[:r.cfg.MaxItems]
	}
	return items
}

func (r *runner) joinItem(ctx context.Context, index int) error {
	items, err := state.LoadItems(r.cfg.ItemsPath)
	if err != nil {
		return err
	}
	if len(items) == 0 || index > len(items) {
		return nil
	}

	item := items[index-1]
	if !item.Gated {
		if strings.TrimSpace(item.Link) == "" {
			r.launcher.Notify(ctx, item.Title, "No link to join")
			return nil
		}
		return r.launcher.Open(ctx, directory.Connection{Platform: item.Platform, Link: item.Link})
	}

	candidate, err := r.prompt(ctx, "Access code for "+item.Title)
	if err != nil {
		if errors.Is(err, selector.ErrSelectionCancelled) {
			return nil
		}
		return err
	}

	conn, err := r.unlockConnection(ctx, item.Kind, item.ID, candidate)
	if err != nil {
		if errors.Is(err, directory.ErrUnlockRejected) {
			r.launcher.Notify(ctx, item.Title, "Access code rejected")
		}
		return err
	}
	if strings.TrimSpace(conn.Link) == "" {
		r.launcher.Notify(ctx, item.Title, "No link to join")
		return nil
	}
	return r.launcher.Open(ctx, conn)
}

// unlockConnection checks candidate for the record's domain and returns its
// full connection details.
func (r *runner) unlockConnection(ctx context.Context, kind state.ItemKind, id, candidate string) (directory.Connection, error) {
	domain := directory.DomainMeetings
	if kind == state.KindSession {
		domain = directory.DomainVip
	}
	if err := r.unlocks.Unlock(domain, id, candidate); err != nil {
		return directory.Connection{}, err
	}

	cat, err := r.loadCatalog(ctx)
	if err != nil {
		return directory.Connection{}, err
	}

	switch kind {
	case state.KindSession:
		session, ok := cat.session(id)
		if !ok {
			return directory.Connection{}, fmt.Errorf("session %q not found", id)
		}
		return directory.SessionConnection(session, true)
	default:
		meeting, ok := cat.meeting(id)
		if !ok {
			return directory.Connection{}, fmt.Errorf("meeting %q not found", id)
		}
		return directory.MeetingConnection(meeting, true), nil
	}
}

func (r *runner) selectFilter(ctx context.Context) error {
	if err := state.EnsureDirs(r.cfg.StateDir, r.cfg.MenuDir); err != nil {
		return err
	}

	current, err := state.LoadFilters(r.cfg.FiltersPath)
	if err != nil {
		return err
	}

	platformOptions := []selector.Option{{Label: "Any platform"}}
	for _, platform := range []directory.Platform{
		directory.PlatformZoom,
		directory.PlatformGoogleMeet,
		directory.PlatformTeams,
		directory.PlatformWebex,
		directory.PlatformOther,
	} {
		platformOptions = append(platformOptions, selector.Option{Value: string(platform), Label: directory.PlatformLabel(platform)})
	}

	dayOptions := []selector.Option{{Label: "Any day"}}
	for _, day := range weekdays {
		dayOptions = append(dayOptions, selector.Option{Value: day, Label: day})
	}

	languageOptions := []selector.Option{
		{Label: "Any language"},
		{Value: "fr", Label: "Français"},
		{Value: "en", Label: "English"},
	}

	next := current
	steps := []struct {
		title   string
		options []selector.Option
		target  *directory.Selector
	}{
		{"Platform", platformOptions, &next.Platform},
		{"Day", dayOptions, &next.Day},
		{"Session language", languageOptions, &next.Language},
	}
	for _, step := range steps {
		picked, err := r.choose(ctx, "MinderLink filter", step.title, step.options, string(*step.target))
		if err != nil {
			if errors.Is(err, selector.ErrSelectionCancelled) {
				return nil
			}
			r.launcher.Notify(ctx, "Filter selection failed", err.Error())
			return err
		}
		*step.target = directory.Selector(picked)
	}

	if err := state.SaveFilters(r.cfg.FiltersPath, next); err != nil {
		return err
	}
	if _, err := r.buildStatus(ctx); err != nil {
		return err
	}

	summary := describeFilters(next)
	if summary == "" {
		summary = "none"
	}
	_, _ = fmt.Fprintf(r.stdout, "Saved filter: %s\n", summary)
	return nil
}

func writeOutput(w io.Writer, output waybar.Output) error {
	payload, err := waybar.Encode(output)
	if err != nil {
		return err
	}
	if _, err := w.Write(payload); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	if _, err := w.Write([]byte("\n")); err != nil {
		return fmt.Errorf("write trailing newline: %w", err)
	}
	return nil
}

package app

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/prodx0x/minderlink/internal/config"
	"github.com/prodx0x/minderlink/internal/directory"
	"github.com/prodx0x/minderlink/internal/export"
	"github.com/prodx0x/minderlink/internal/render"
	"github.com/prodx0x/minderlink/internal/seed"
	"github.com/prodx0x/minderlink/internal/store"
)

const (
	defaultExportDays = 7
	defaultImportDays = 14
)

// daySelector title-cases a weekday typed on the command line; the filter
// itself compares exactly.
func daySelector(raw string) directory.Selector {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return directory.Any
	}
	return directory.Selector(cases.Title(language.English).String(trimmed))
}

func (r *runner) listMeetings(ctx context.Context, cmd command) error {
	cat, err := r.loadCatalog(ctx)
	if err != nil {
		return err
	}
	now := r.now()

	platform := directory.Selector(strings.ToLower(strings.TrimSpace(cmd.flag("platform"))))
	meetings := directory.FilterMeetings(cat.Meetings, daySelector(cmd.flag("day")), platform)
	if cmd.bool("today") {
		meetings = directory.TodayMeetings(meetings, now)
	}
	if raw := strings.ToLower(strings.TrimSpace(cmd.flag("category"))); raw != "" {
		category := directory.Category(raw)
		if category != directory.CategoryPublic && category != directory.CategoryPrivate {
			return fmt.Errorf("invalid --category %q (want public or private)", raw)
		}
		meetings = directory.MeetingsByCategory(meetings, category)
	}

	theme := render.NewTheme(r.stdout)
	if err := r.printNote(theme, cat); err != nil {
		return err
	}
	return render.Meetings(r.stdout, theme, meetings, now, r.unlocks.IsUnlocked)
}

func (r *runner) listSessions(ctx context.Context, cmd command) error {
	cat, err := r.loadCatalog(ctx)
	if err != nil {
		return err
	}
	now := r.now()

	lang := directory.Selector(strings.TrimSpace(cmd.flag("language")))
	sessions := directory.FilterSessions(cat.Sessions, daySelector(cmd.flag("day")), lang)
	if raw := strings.ToLower(strings.TrimSpace(cmd.flag("type"))); raw != "" {
		kind := directory.SessionType(raw)
		if kind != directory.SessionPublic && kind != directory.SessionVip {
			return fmt.Errorf("invalid --type %q (want public or vip)", raw)
		}
		sessions = directory.SessionsByType(sessions, kind)
	}
	directory.SortSessions(sessions, now.Location())

	theme := render.NewTheme(r.stdout)
	if err := r.printNote(theme, cat); err != nil {
		return err
	}
	return render.Sessions(r.stdout, theme, sessions, now)
}

func (r *runner) printNote(theme render.Theme, cat catalog) error {
	if cat.Note == "" {
		return nil
	}
	if _, err := fmt.Fprintln(r.stdout, theme.Muted.Render(cat.Note)); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

func (r *runner) show(ctx context.Context, kind, id string) error {
	cat, err := r.loadCatalog(ctx)
	if err != nil {
		return err
	}
	theme := render.NewTheme(r.stdout)

	switch kind {
	case "meeting":
		meeting, ok := cat.meeting(id)
		if !ok {
			return fmt.Errorf("meeting %q not found", id)
		}
		conn := directory.MeetingConnection(meeting, r.unlocks.IsUnlocked(id))
		return render.MeetingCard(r.stdout, theme, meeting, conn, r.now())
	case "session":
		session, ok := cat.session(id)
		if !ok {
			return fmt.Errorf("session %q not found", id)
		}
		conn, err := directory.SessionConnection(session, r.unlocks.IsUnlocked(id))
		if err != nil {
			return err
		}
		return render.SessionCard(r.stdout, theme, session, conn, r.now(), r.cfg.Language)
	default:
		return fmt.Errorf("show expects meeting or session, got %q", kind)
	}
}

// reveal unlocks one gated record and prints it with its connection details.
func (r *runner) reveal(ctx context.Context, kind, id string, dialog bool) error {
	cat, err := r.loadCatalog(ctx)
	if err != nil {
		return err
	}
	theme := render.NewTheme(r.stdout)

	switch kind {
	case "meeting":
		meeting, ok := cat.meeting(id)
		if !ok {
			return fmt.Errorf("meeting %q not found", id)
		}
		if meeting.Gated() {
			if err := r.unlock(ctx, directory.DomainMeetings, id, meeting.Title, dialog); err != nil {
				return err
			}
		}
		return render.MeetingCard(r.stdout, theme, meeting, directory.MeetingConnection(meeting, true), r.now())
	case "vip":
		session, ok := cat.session(id)
		if !ok {
			return fmt.Errorf("session %q not found", id)
		}
		if _, vip := session.(*directory.VipSession); !vip {
			return fmt.Errorf("session %q is not a VIP session", id)
		}
		if err := r.unlock(ctx, directory.DomainVip, id, directory.SessionTitle(session), dialog); err != nil {
			return err
		}
		conn, err := directory.SessionConnection(session, true)
		if err != nil {
			return err
		}
		return render.SessionCard(r.stdout, theme, session, conn, r.now(), r.cfg.Language)
	default:
		return fmt.Errorf("reveal expects meeting or vip, got %q", kind)
	}
}

func (r *runner) unlock(ctx context.Context, domain directory.Domain, id, title string, dialog bool) error {
	var (
		candidate string
		err       error
	)
	if dialog {
		candidate, err = r.prompt(ctx, "Access code for "+title)
	} else {
		candidate, err = readSecret(r.stdin)
	}
	if err != nil {
		return err
	}

	if err := r.unlocks.Unlock(domain, id, candidate); err != nil {
		return fmt.Errorf("%s: %w", title, err)
	}
	return nil
}

// readSecret reads one line and drops only its line ending.
func readSecret(in io.Reader) (string, error) {
	if in == nil {
		return "", fmt.Errorf("no access code given")
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read access code: %w", err)
	}
	if err != nil && line == "" {
		return "", fmt.Errorf("no access code given")
	}
	line = strings.TrimSuffix(line, "\n")
	return strings.TrimSuffix(line, "\r"), nil
}

func (r *runner) validate(ctx context.Context) error {
	cat, err := r.loadCatalog(ctx)
	if err != nil {
		return err
	}

	problems := 0
	for _, meeting := range cat.Meetings {
		if missing := directory.MissingMeetingFields(meeting); len(missing) > 0 {
			problems++
			_, _ = fmt.Fprintf(r.stdout, "meeting %s (%s): missing %s\n", meeting.ID, meeting.Title, strings.Join(missing, ", "))
		}
	}
	for _, session := range cat.Sessions {
		if missing := directory.MissingSessionFields(session); len(missing) > 0 {
			problems++
			_, _ = fmt.Fprintf(r.stdout, "%s session %s: missing %s\n", session.Type(), session.Base().ID, strings.Join(missing, ", "))
		}
	}

	_, _ = fmt.Fprintf(r.stdout, "%d meeting(s), %d session(s), %d with missing fields\n", len(cat.Meetings), len(cat.Sessions), problems)
	return nil
}

func (r *runner) exportICS(ctx context.Context, cmd command) (err error) {
	days, err := cmd.int("days", defaultExportDays)
	if err != nil {
		return err
	}
	cat, err := r.loadCatalog(ctx)
	if err != nil {
		return err
	}

	now := r.now()
	windowStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	opts := export.Options{
		WindowStart: windowStart,
		WindowEnd:   windowStart.AddDate(0, 0, days),
		Now:         now,
		Unlocked:    r.unlocks.IsUnlocked,
	}

	output := strings.TrimSpace(cmd.flag("output"))
	if output == "" || output == "-" {
		return export.Write(r.stdout, cat.Meetings, cat.Sessions, opts)
	}

	file, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("create %s: %w", output, err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", output, closeErr)
		}
	}()
	return export.Write(file, cat.Meetings, cat.Sessions, opts)
}

func (r *runner) schema(ctx context.Context) error {
	if r.cfg.Source != config.SourcePostgres {
		return fmt.Errorf("schema needs MINDERLINK_SOURCE=postgres")
	}
	versions, err := r.migrations(ctx, r.cfg.DatabaseDSN)
	if err != nil {
		return err
	}
	if len(versions) == 0 {
		_, _ = fmt.Fprintln(r.stdout, "Schema is up to date")
		return nil
	}
	_, _ = fmt.Fprintf(r.stdout, "Applied %d migration(s), now at version %d\n", len(versions), versions[len(versions)-1])
	return nil
}

func (r *runner) migrate(ctx context.Context) error {
	s, err := r.storeHandle(ctx)
	if err != nil {
		return err
	}

	dataset, err := seed.Load(r.now())
	if err != nil {
		return fmt.Errorf("load bundled directory: %w", err)
	}
	rows, err := dataset.Rows()
	if err != nil {
		return err
	}

	report, err := store.Migrate(ctx, s, rows, r.log)
	_, _ = fmt.Fprintf(r.stdout, "Migrated %d row(s), %d failed\n", report.Succeeded, report.Failed)
	if err != nil {
		return err
	}
	if report.Failed > 0 {
		return fmt.Errorf("%d row(s) failed to migrate", report.Failed)
	}
	return nil
}

func (r *runner) importEDS(ctx context.Context, cmd command) error {
	days, err := cmd.int("days", defaultImportDays)
	if err != nil {
		return err
	}
	s, err := r.storeHandle(ctx)
	if err != nil {
		return err
	}

	now := r.now()
	rows, err := r.calendar(ctx, now, now.AddDate(0, 0, days))
	if err != nil {
		r.launcher.Notify(ctx, "Calendar import failed", err.Error())
		return fmt.Errorf("read desktop calendars: %w", err)
	}

	report, err := store.Upsert(ctx, s, rows, r.log)
	_, _ = fmt.Fprintf(r.stdout, "Imported %d meeting(s), %d failed\n", report.Succeeded, report.Failed)
	if err != nil {
		return err
	}
	if report.Failed > 0 {
		return fmt.Errorf("%d meeting(s) failed to import", report.Failed)
	}
	return nil
}

func (r *runner) clear(ctx context.Context, confirmed bool) error {
	if !confirmed {
		return fmt.Errorf("clear deletes every row of the store; pass --yes to confirm")
	}
	s, err := r.storeHandle(ctx)
	if err != nil {
		return err
	}

	report, err := store.Clear(ctx, s, r.log)
	_, _ = fmt.Fprintf(r.stdout, "Deleted %d row(s), %d failed\n", report.Succeeded, report.Failed)
	if err != nil {
		return err
	}
	if report.Failed > 0 {
		return fmt.Errorf("%d row(s) could not be deleted", report.Failed)
	}
	return nil
}

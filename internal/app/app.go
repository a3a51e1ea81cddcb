package app

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/prodx0x/minderlink/internal/config"
	"github.com/prodx0x/minderlink/internal/directory"
	"github.com/prodx0x/minderlink/internal/eds"
	"github.com/prodx0x/minderlink/internal/launcher"
	"github.com/prodx0x/minderlink/internal/selector"
	"github.com/prodx0x/minderlink/internal/store"
	"github.com/prodx0x/minderlink/internal/store/postgres"
)

const Usage = `minderlink <command> [flags]

Status bar:
  status                         print the waybar JSON line (default)
  refresh                        rebuild the upcoming list and menu
  join-next                      open the next upcoming item
  join-item N                    open the Nth upcoming item
  select-filter                  pick the bar filters in a dialog

Directory:
  meetings [--day D] [--platform P] [--category C] [--today]
  sessions [--day D] [--language L] [--type public|vip]
  show meeting|session ID        print one record, gated details hidden
  reveal meeting|vip ID [--dialog]
                                 read the access code from stdin and print
                                 the record with its connection details
  validate                       list records with missing fields
  export-ics [--days N] [--output FILE]

Store:
  schema                         apply database migrations (postgres)
  migrate                        copy the bundled directory into the store
  import-eds [--days N]          import desktop calendar meetings
  clear --yes                    delete every row of the store`

type commandSpec struct {
	args  int
	flags map[string]bool // flag name -> boolean
}

var commands = map[string]commandSpec{
	"status":        {},
	"refresh":       {},
	"join-next":     {},
	"join-item":     {args: 1},
	"select-filter": {},
	"meetings":      {flags: map[string]bool{"day": false, "platform": false, "category": false, "today": true}},
	"sessions":      {flags: map[string]bool{"day": false, "language": false, "type": false}},
	"show":          {args: 2},
	"reveal":        {args: 2, flags: map[string]bool{"dialog": true}},
	"validate":      {},
	"export-ics":    {flags: map[string]bool{"days": false, "output": false}},
	"schema":        {},
	"migrate":       {},
	"import-eds":    {flags: map[string]bool{"days": false}},
	"clear":         {flags: map[string]bool{"yes": true}},
}

type command struct {
	name  string
	args  []string
	flags map[string]string
}

func (c command) flag(name string) string {
	return c.flags[name]
}

func (c command) bool(name string) bool {
	value, _ := strconv.ParseBool(c.flags[name])
	return value
}

func (c command) int(name string, fallback int) (int, error) {
	raw := strings.TrimSpace(c.flags[name])
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid --%s value %q", name, raw)
	}
	return n, nil
}

func parseArgs(args []string) (command, error) {
	if len(args) == 0 {
		return command{name: "status"}, nil
	}

	name := strings.TrimSpace(args[0])
	want, ok := commands[name]
	if !ok {
		return command{}, fmt.Errorf("unknown command %q\n\n%s", args[0], Usage)
	}

	cmd := command{name: name, flags: make(map[string]string)}
	rest := args[1:]
	for i := 0; i < len(rest); i++ {
		arg := rest[i]
		if !strings.HasPrefix(arg, "--") {
			cmd.args = append(cmd.args, arg)
			continue
		}

		key, value, hasValue := strings.Cut(strings.TrimPrefix(arg, "--"), "=")
		boolean, known := want.flags[key]
		if !known {
			return command{}, fmt.Errorf("unexpected flag %q for %s", arg, name)
		}
		switch {
		case boolean && !hasValue:
			value = "true"
		case boolean:
			if _, err := strconv.ParseBool(value); err != nil {
				return command{}, fmt.Errorf("invalid value for --%s: %q", key, value)
			}
		case !hasValue:
			if i+1 >= len(rest) {
				return command{}, fmt.Errorf("flag --%s needs a value", key)
			}
			i++
			value = rest[i]
		}
		cmd.flags[key] = value
	}

	if len(cmd.args) != want.args {
		return command{}, fmt.Errorf("%s expects %d argument(s), got %d\n\n%s", name, want.args, len(cmd.args), Usage)
	}
	return cmd, nil
}

// opener is satisfied by launcher.Launcher.
type opener interface {
	Open(ctx context.Context, conn directory.Connection) error
	Notify(ctx context.Context, summary, body string)
}

type runner struct {
	cfg    config.Runtime
	log    *zap.Logger
	stdin  io.Reader
	stdout io.Writer
	now    func() time.Time

	unlocks *directory.UnlockSet

	launcher opener
	prompt   func(ctx context.Context, title string) (string, error)
	choose   func(ctx context.Context, title, text string, options []selector.Option, current string) (string, error)

	// openStore is nil for the static source.
	openStore  func(ctx context.Context) (store.Store, func(), error)
	migrations func(ctx context.Context, dsn string) ([]int64, error)
	calendar   func(ctx context.Context, windowStart, windowEnd time.Time) ([]directory.Row, error)

	store       store.Store
	closeStores []func()
}

func newRunner(cfg config.Runtime, log *zap.Logger, stdin io.Reader, stdout io.Writer) *runner {
	if log == nil {
		log = zap.NewNop()
	}
	return &runner{
		cfg:        cfg,
		log:        log,
		stdin:      stdin,
		stdout:     stdout,
		now:        time.Now,
		unlocks:    directory.NewUnlockSet(cfg.Access),
		launcher:   launcher.New(log),
		prompt:     selector.PromptSecret,
		choose:     selector.Choose,
		openStore:  storeOpener(cfg, log),
		migrations: postgres.ApplyMigrations,
		calendar: func(ctx context.Context, windowStart, windowEnd time.Time) ([]directory.Row, error) {
			return desktopCalendarRows(ctx, log, windowStart, windowEnd)
		},
	}
}

func Run(ctx context.Context, args []string, cfg config.Runtime, log *zap.Logger, stdin io.Reader, stdout io.Writer) error {
	cmd, err := parseArgs(args)
	if err != nil {
		return err
	}

	r := newRunner(cfg, log, stdin, stdout)
	defer r.close()
	return r.run(ctx, cmd)
}

func (r *runner) close() {
	for _, closeFn := range r.closeStores {
		closeFn()
	}
	r.closeStores = nil
}

func (r *runner) run(ctx context.Context, cmd command) error {
	switch cmd.name {
	case "status":
		out, err := r.buildStatus(ctx)
		if err != nil {
			return err
		}
		return writeOutput(r.stdout, out)
	case "refresh":
		_, err := r.buildStatus(ctx)
		return err
	case "join-next":
		return r.joinItem(ctx, 1)
	case "join-item":
		index, err := strconv.Atoi(strings.TrimSpace(cmd.args[0]))
		if err != nil || index < 1 {
			return fmt.Errorf("invalid item index %q", cmd.args[0])
		}
		return r.joinItem(ctx, index)
	case "select-filter":
		return r.selectFilter(ctx)
	case "meetings":
		return r.listMeetings(ctx, cmd)
	case "sessions":
		return r.listSessions(ctx, cmd)
	case "show":
		return r.show(ctx, cmd.args[0], cmd.args[1])
	case "reveal":
		return r.reveal(ctx, cmd.args[0], cmd.args[1], cmd.bool("dialog"))
	case "validate":
		return r.validate(ctx)
	case "export-ics":
		return r.exportICS(ctx, cmd)
	case "schema":
		return r.schema(ctx)
	case "migrate":
		return r.migrate(ctx)
	case "import-eds":
		return r.importEDS(ctx, cmd)
	case "clear":
		return r.clear(ctx, cmd.bool("yes"))
	default:
		return fmt.Errorf("unsupported command %q", cmd.name)
	}
}

func desktopCalendarRows(ctx context.Context, log *zap.Logger, windowStart, windowEnd time.Time) ([]directory.Row, error) {
	client, err := eds.New(ctx, log)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = client.Close()
	}()

	calendars, err := client.Calendars(ctx)
	if err != nil {
		return nil, err
	}
	events, err := client.Events(ctx, eds.Active(calendars), windowStart, windowEnd)
	if err != nil {
		return nil, err
	}
	return eds.Rows(events, windowStart, windowEnd), nil
}

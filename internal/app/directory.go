package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/prodx0x/minderlink/internal/config"
	"github.com/prodx0x/minderlink/internal/directory"
	"github.com/prodx0x/minderlink/internal/httpx"
	"github.com/prodx0x/minderlink/internal/seed"
	"github.com/prodx0x/minderlink/internal/state"
	"github.com/prodx0x/minderlink/internal/store"
	"github.com/prodx0x/minderlink/internal/store/postgres"
	"github.com/prodx0x/minderlink/internal/store/rest"
)

var errStaticSource = errors.New("the static source has no store; set MINDERLINK_SOURCE to rest or postgres")

// catalog is the directory as loaded for one command.
type catalog struct {
	Meetings []directory.Meeting
	Sessions []directory.Session

	Source string
	// Note is set when the data did not come from the live store.
	Note string
}

func (c catalog) meeting(id string) (directory.Meeting, bool) {
	for _, meeting := range c.Meetings {
		if meeting.ID == id {
			return meeting, true
		}
	}
	return directory.Meeting{}, false
}

func (c catalog) session(id string) (directory.Session, bool) {
	for _, session := range c.Sessions {
		if session.Base().ID == id {
			return session, true
		}
	}
	return nil, false
}

func storeOpener(cfg config.Runtime, log *zap.Logger) func(ctx context.Context) (store.Store, func(), error) {
	switch cfg.Source {
	case config.SourceRest:
		return func(context.Context) (store.Store, func(), error) {
			return rest.New(cfg.StoreURL, cfg.StoreKey, cfg.Timeout, log), func() {}, nil
		}
	case config.SourcePostgres:
		return func(ctx context.Context) (store.Store, func(), error) {
			pool, err := postgres.NewPool(ctx, cfg.DatabaseDSN, cfg.Timeout)
			if err != nil {
				return nil, nil, err
			}
			return postgres.New(pool, log), pool.Close, nil
		}
	default:
		return nil
	}
}

// storeHandle opens the configured store once per run.
func (r *runner) storeHandle(ctx context.Context) (store.Store, error) {
	if r.store != nil {
		return r.store, nil
	}
	if r.openStore == nil {
		return nil, errStaticSource
	}

	s, closeFn, err := r.openStore(ctx)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", r.cfg.Source, err)
	}
	r.store = s
	if closeFn != nil {
		r.closeStores = append(r.closeStores, closeFn)
	}
	return s, nil
}

// loadCatalog reads the configured store and falls back to the last
// snapshot, then to the bundled directory.
func (r *runner) loadCatalog(ctx context.Context) (catalog, error) {
	now := r.now()
	if r.openStore == nil && r.store == nil {
		return r.bundledCatalog(now, "")
	}

	rows, err := r.fetchRows(ctx)
	if err == nil {
		snapshot := state.Snapshot{Source: string(r.cfg.Source), FetchedAt: now, Rows: rows}
		if saveErr := state.SaveSnapshot(r.cfg.SnapshotPath, snapshot); saveErr != nil {
			r.log.Warn("save snapshot failed", zap.Error(saveErr))
		}
		return r.rowsCatalog(rows, string(r.cfg.Source), ""), nil
	}
	r.log.Warn("store unavailable", zap.String("source", string(r.cfg.Source)), zap.Error(err))

	snapshot, ok, snapErr := state.LoadSnapshot(r.cfg.SnapshotPath)
	if snapErr != nil {
		r.log.Warn("load snapshot failed", zap.Error(snapErr))
	}
	reason := offlineReason(err)
	if ok {
		note := fmt.Sprintf("Offline: showing data cached %s (%s)", snapshot.FetchedAt.In(now.Location()).Format("Mon 02 Jan 15:04"), reason)
		return r.rowsCatalog(snapshot.Rows, snapshot.Source, note), nil
	}
	return r.bundledCatalog(now, fmt.Sprintf("Offline: showing the bundled directory (%s)", reason))
}

func offlineReason(err error) string {
	switch {
	case httpx.IsStatus(err, http.StatusUnauthorized), httpx.IsStatus(err, http.StatusForbidden):
		return "store rejected the API key"
	case httpx.Is5xx(err):
		return "store temporarily unavailable"
	case errors.Is(err, context.DeadlineExceeded):
		return "store timed out"
	default:
		return "store unreachable"
	}
}

func (r *runner) fetchRows(ctx context.Context) ([]directory.Row, error) {
	s, err := r.storeHandle(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := s.List(ctx, store.Query{})
	if err != nil {
		return nil, fmt.Errorf("list rows: %w", err)
	}
	return rows, nil
}

func (r *runner) rowsCatalog(rows []directory.Row, source, note string) catalog {
	meetings, sessions := directory.NewNormalizer(r.log, r.cfg.DefaultMaxParticipants).Split(rows)
	return catalog{Meetings: meetings, Sessions: sessions, Source: source, Note: note}
}

func (r *runner) bundledCatalog(now time.Time, note string) (catalog, error) {
	dataset, err := seed.Load(now)
	if err != nil {
		return catalog{}, fmt.Errorf("load bundled directory: %w", err)
	}
	return catalog{
		Meetings: dataset.Meetings,
		Sessions: dataset.Sessions,
		Source:   string(config.SourceStatic),
		Note:     note,
	}, nil
}

package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/prodx0x/minderlink/internal/directory"
)

const MigrationAuthor = "migration_script"

var ErrNotFound = errors.New("row not found")

// Query narrows List. Zero fields are not filtered.
type Query struct {
	Type     directory.RowType
	Category directory.Category
	Platform directory.Platform
	Date     string
}

func (q Query) Matches(row directory.Row) bool {
	if q.Type != "" && row.Type != q.Type {
		return false
	}
	if q.Category != "" && row.Category != q.Category {
		return false
	}
	if q.Platform != "" && (row.Platform == nil || *row.Platform != string(q.Platform)) {
		return false
	}
	if q.Date != "" && row.Date != q.Date {
		return false
	}
	return true
}

// Store is the remote meetings table. List results are ordered by date then
// time, ascending.
type Store interface {
	List(ctx context.Context, query Query) ([]directory.Row, error)
	Get(ctx context.Context, id string) (directory.Row, error)
	Create(ctx context.Context, row directory.Row) (directory.Row, error)
	Update(ctx context.Context, id string, row directory.Row) (directory.Row, error)
	Delete(ctx context.Context, id string) error
}

// SortRows orders rows by date then time.
func SortRows(rows []directory.Row) {
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Date != rows[j].Date {
			return rows[i].Date < rows[j].Date
		}
		return rows[i].Time < rows[j].Time
	})
}

// Memory is an in-process Store used for the static source.
type Memory struct {
	mu   sync.RWMutex
	rows map[string]directory.Row
	now  func() time.Time
}

func NewMemory(rows []directory.Row) *Memory {
	m := &Memory{rows: make(map[string]directory.Row, len(rows)), now: time.Now}
	for _, row := range rows {
		if strings.TrimSpace(row.ID) == "" {
			row.ID = uuid.NewString()
		}
		m.rows[row.ID] = row
	}
	return m
}

func (m *Memory) List(_ context.Context, query Query) ([]directory.Row, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rows := make([]directory.Row, 0, len(m.rows))
	for _, row := range m.rows {
		if query.Matches(row) {
			rows = append(rows, row)
		}
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].ID < rows[j].ID })
	SortRows(rows)
	return rows, nil
}

func (m *Memory) Get(_ context.Context, id string) (directory.Row, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	row, ok := m.rows[id]
	if !ok {
		return directory.Row{}, fmt.Errorf("get %s: %w", id, ErrNotFound)
	}
	return row, nil
}

func (m *Memory) Create(_ context.Context, row directory.Row) (directory.Row, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if strings.TrimSpace(row.ID) == "" {
		row.ID = uuid.NewString()
	}
	if _, exists := m.rows[row.ID]; exists {
		return directory.Row{}, fmt.Errorf("create %s: duplicate id", row.ID)
	}
	stamp := m.now().UTC()
	row.CreatedAt = &stamp
	row.UpdatedAt = &stamp
	m.rows[row.ID] = row
	return row, nil
}

func (m *Memory) Update(_ context.Context, id string, row directory.Row) (directory.Row, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.rows[id]
	if !ok {
		return directory.Row{}, fmt.Errorf("update %s: %w", id, ErrNotFound)
	}
	stamp := m.now().UTC()
	row.ID = id
	row.CreatedAt = existing.CreatedAt
	row.CreatedBy = existing.CreatedBy
	row.UpdatedAt = &stamp
	m.rows[id] = row
	return row, nil
}

func (m *Memory) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.rows[id]; !ok {
		return fmt.Errorf("delete %s: %w", id, ErrNotFound)
	}
	delete(m.rows, id)
	return nil
}

type Report struct {
	Succeeded int
	Failed    int
}

// Migrate creates every row in dst, tagging it with MigrationAuthor. A failed
// row is logged and counted; the remaining rows are still attempted.
func Migrate(ctx context.Context, dst Store, rows []directory.Row, log *zap.Logger) (Report, error) {
	var report Report
	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		author := MigrationAuthor
		row.CreatedBy = &author
		row.ID = ""
		if _, err := dst.Create(ctx, row); err != nil {
			log.Error("migrate row failed", zap.String("title", row.Title), zap.String("type", string(row.Type)), zap.Error(err))
			report.Failed++
			continue
		}
		log.Info("migrated row", zap.String("title", row.Title), zap.String("type", string(row.Type)))
		report.Succeeded++
	}
	return report, nil
}

// Clear deletes every row in s one by one.
func Clear(ctx context.Context, s Store, log *zap.Logger) (Report, error) {
	rows, err := s.List(ctx, Query{})
	if err != nil {
		return Report{}, fmt.Errorf("list rows: %w", err)
	}

	var report Report
	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if err := s.Delete(ctx, row.ID); err != nil {
			log.Error("delete row failed", zap.String("id", row.ID), zap.String("title", row.Title), zap.Error(err))
			report.Failed++
			continue
		}
		report.Succeeded++
	}
	return report, nil
}

// Upsert writes rows keyed by their IDs, updating rows that already exist.
// Created rows keep their own CreatedBy.
func Upsert(ctx context.Context, dst Store, rows []directory.Row, log *zap.Logger) (Report, error) {
	var report Report
	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		_, err := dst.Get(ctx, row.ID)
		switch {
		case err == nil:
			_, err = dst.Update(ctx, row.ID, row)
		case errors.Is(err, ErrNotFound):
			_, err = dst.Create(ctx, row)
		}
		if err != nil {
			log.Error("upsert row failed", zap.String("id", row.ID), zap.String("title", row.Title), zap.Error(err))
			report.Failed++
			continue
		}
		report.Succeeded++
	}
	return report, nil
}

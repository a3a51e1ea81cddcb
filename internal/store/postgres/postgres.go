package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/prodx0x/minderlink/internal/directory"
	"github.com/prodx0x/minderlink/internal/store"
)

const table = "meetings"

var columns = []string{
	"id", "title", "region", "type", "category", "platform", "link", "zoom_id", "password",
	"date::text", "time::text", "duration", "organizer", "instructor", "max_participants",
	"notes", "tags", "is_recurring", "recurrence_pattern", "language", "languages",
	"phone_numbers", "schedule", "time_zone", "day", "description", "metadata",
	"created_at", "updated_at", "created_by", "updated_by",
}

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

// Querier is satisfied by *pgxpool.Pool and pgx.Tx.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Store struct {
	q   Querier
	log *zap.Logger
}

func New(q Querier, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{q: q, log: log}
}

func NewPool(ctx context.Context, dsn string, timeout time.Duration) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse database DSN: %w", err)
	}
	poolCfg.MaxConns = 4
	poolCfg.ConnConfig.ConnectTimeout = timeout

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

func (s *Store) List(ctx context.Context, query store.Query) ([]directory.Row, error) {
	where := squirrel.Eq{}
	if query.Type != "" {
		where["type"] = string(query.Type)
	}
	if query.Category != "" {
		where["category"] = string(query.Category)
	}
	if query.Platform != "" {
		where["platform"] = string(query.Platform)
	}
	if query.Date != "" {
		where["date"] = query.Date
	}

	builder := psql.Select(columns...).From(table).OrderBy("date ASC", "time ASC")
	if len(where) > 0 {
		builder = builder.Where(where)
	}

	sql, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list query: %w", err)
	}

	rows, err := s.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list meetings: %w", err)
	}
	defer rows.Close()

	result := make([]directory.Row, 0)
	for rows.Next() {
		row, err := s.scanRow(rows)
		if err != nil {
			return nil, fmt.Errorf("list meetings: %w", err)
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list meetings: %w", err)
	}
	return result, nil
}

func (s *Store) Get(ctx context.Context, id string) (directory.Row, error) {
	sql, args, err := psql.Select(columns...).From(table).Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return directory.Row{}, fmt.Errorf("build get query: %w", err)
	}

	row, err := s.scanRow(s.q.QueryRow(ctx, sql, args...))
	if err != nil {
		return directory.Row{}, mapError(err, "get", id)
	}
	return row, nil
}

func (s *Store) Create(ctx context.Context, row directory.Row) (directory.Row, error) {
	values, err := writeValues(row)
	if err != nil {
		return directory.Row{}, err
	}

	insert := psql.Insert(table).SetMap(values).Suffix("RETURNING " + joinColumns())
	sql, args, err := insert.ToSql()
	if err != nil {
		return directory.Row{}, fmt.Errorf("build insert: %w", err)
	}

	created, err := s.scanRow(s.q.QueryRow(ctx, sql, args...))
	if err != nil {
		return directory.Row{}, mapError(err, "create", row.Title)
	}
	return created, nil
}

func (s *Store) Update(ctx context.Context, id string, row directory.Row) (directory.Row, error) {
	values, err := writeValues(row)
	if err != nil {
		return directory.Row{}, err
	}
	delete(values, "id")
	delete(values, "created_by")

	update := psql.Update(table).SetMap(values).Where(squirrel.Eq{"id": id}).Suffix("RETURNING " + joinColumns())
	sql, args, err := update.ToSql()
	if err != nil {
		return directory.Row{}, fmt.Errorf("build update: %w", err)
	}

	updated, err := s.scanRow(s.q.QueryRow(ctx, sql, args...))
	if err != nil {
		return directory.Row{}, mapError(err, "update", id)
	}
	return updated, nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	sql, args, err := psql.Delete(table).Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	tag, err := s.q.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("delete meeting %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete meeting %s: %w", id, store.ErrNotFound)
	}
	return nil
}

func mapError(err error, op, subject string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s meeting %s: %w", op, subject, store.ErrNotFound)
	}
	return fmt.Errorf("%s meeting %s: %w", op, subject, err)
}

func joinColumns() string {
	return strings.Join(columns, ", ")
}

func writeValues(row directory.Row) (map[string]any, error) {
	day, err := jsonValue(row.Day, len(row.Day) == 0)
	if err != nil {
		return nil, fmt.Errorf("encode day: %w", err)
	}
	description, err := jsonValue(row.Description, row.Description == nil)
	if err != nil {
		return nil, fmt.Errorf("encode description: %w", err)
	}
	metadata, err := jsonValue(row.Metadata, row.Metadata == nil)
	if err != nil {
		return nil, fmt.Errorf("encode metadata: %w", err)
	}

	values := map[string]any{
		"title":              row.Title,
		"region":             row.Region,
		"type":               string(row.Type),
		"category":           string(row.Category),
		"platform":           row.Platform,
		"link":               row.Link,
		"zoom_id":            row.ZoomID,
		"password":           row.Password,
		"date":               row.Date,
		"time":               row.Time,
		"duration":           row.Duration,
		"organizer":          row.Organizer,
		"instructor":         row.Instructor,
		"max_participants":   row.MaxParticipants,
		"notes":              row.Notes,
		"tags":               row.Tags,
		"is_recurring":       row.IsRecurring,
		"recurrence_pattern": row.RecurrencePattern,
		"language":           row.Language,
		"languages":          row.Languages,
		"phone_numbers":      row.PhoneNumbers,
		"schedule":           row.Schedule,
		"time_zone":          row.TimeZone,
		"day":                day,
		"description":        description,
		"metadata":           metadata,
		"created_by":         row.CreatedBy,
		"updated_by":         row.UpdatedBy,
	}
	if row.ID != "" {
		values["id"] = row.ID
	}
	return values, nil
}

func jsonValue(v any, empty bool) ([]byte, error) {
	if empty {
		return nil, nil
	}
	return json.Marshal(v)
}

// scanRow keeps a row whose jsonb columns are out of shape; the bad column
// is logged and left empty.
func (s *Store) scanRow(src pgx.Row) (directory.Row, error) {
	var (
		row                        directory.Row
		rowType, category          string
		day, description, metadata []byte
	)

	err := src.Scan(
		&row.ID, &row.Title, &row.Region, &rowType, &category, &row.Platform, &row.Link, &row.ZoomID, &row.Password,
		&row.Date, &row.Time, &row.Duration, &row.Organizer, &row.Instructor, &row.MaxParticipants,
		&row.Notes, &row.Tags, &row.IsRecurring, &row.RecurrencePattern, &row.Language, &row.Languages,
		&row.PhoneNumbers, &row.Schedule, &row.TimeZone, &day, &description, &metadata,
		&row.CreatedAt, &row.UpdatedAt, &row.CreatedBy, &row.UpdatedBy,
	)
	if err != nil {
		return directory.Row{}, err
	}

	row.Type = directory.RowType(rowType)
	row.Category = directory.Category(category)

	if len(day) > 0 {
		var value directory.StringList
		if s.decodeColumn(row.ID, "day", day, &value) {
			row.Day = value
		}
	}
	if len(description) > 0 {
		var value directory.Description
		if s.decodeColumn(row.ID, "description", description, &value) {
			row.Description = &value
		}
	}
	if len(metadata) > 0 {
		var value map[string]any
		if s.decodeColumn(row.ID, "metadata", metadata, &value) {
			row.Metadata = value
		}
	}
	return row, nil
}

func (s *Store) decodeColumn(id, column string, raw []byte, target any) bool {
	if err := json.Unmarshal(raw, target); err != nil {
		s.log.Warn("normalization gap: dropped undecodable column",
			zap.String("id", id),
			zap.String("column", column),
			zap.Error(err),
		)
		return false
	}
	return true
}

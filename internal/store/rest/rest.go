package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/prodx0x/minderlink/internal/directory"
	"github.com/prodx0x/minderlink/internal/httpx"
	"github.com/prodx0x/minderlink/internal/store"
)

const tablePath = "/rest/v1/meetings"

var returnRepresentation = map[string]string{"Prefer": "return=representation"}

// Store talks to a PostgREST endpoint exposing the meetings table.
type Store struct {
	client httpx.Client
	log    *zap.Logger
}

func New(baseURL, apiKey string, timeout time.Duration, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	headers := map[string]string{}
	if key := strings.TrimSpace(apiKey); key != "" {
		headers["apikey"] = key
		headers["Authorization"] = "Bearer " + key
	}
	return &Store{client: httpx.Client{BaseURL: baseURL, Headers: headers, Timeout: timeout}, log: log}
}

// do decodes the response one row at a time so a malformed row loses only
// its bad fields, or is skipped when it is not an object at all.
func (s *Store) do(ctx context.Context, method string, params url.Values, headers map[string]string, body any) ([]directory.Row, error) {
	raw, err := httpx.DoJSON[[]json.RawMessage](ctx, s.client, method, tablePath, params, headers, body)
	if err != nil {
		return nil, err
	}

	rows := make([]directory.Row, 0, len(raw))
	for idx, payload := range raw {
		row, dropped, err := directory.DecodeRow(payload)
		if err != nil {
			s.log.Warn("normalization gap: skipped undecodable row", zap.Int("index", idx), zap.Error(err))
			continue
		}
		if len(dropped) > 0 {
			s.log.Warn("normalization gap: dropped undecodable fields",
				zap.String("id", row.ID),
				zap.Strings("fields", dropped),
			)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func eq(value string) []string {
	return []string{"eq." + value}
}

func (s *Store) List(ctx context.Context, query store.Query) ([]directory.Row, error) {
	params := url.Values{
		"select": {"*"},
		"order":  {"date.asc,time.asc"},
	}
	if query.Type != "" {
		params["type"] = eq(string(query.Type))
	}
	if query.Category != "" {
		params["category"] = eq(string(query.Category))
	}
	if query.Platform != "" {
		params["platform"] = eq(string(query.Platform))
	}
	if query.Date != "" {
		params["date"] = eq(query.Date)
	}

	rows, err := s.do(ctx, http.MethodGet, params, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("list meetings: %w", err)
	}
	return rows, nil
}

func (s *Store) Get(ctx context.Context, id string) (directory.Row, error) {
	params := url.Values{"select": {"*"}, "id": eq(id)}
	rows, err := s.do(ctx, http.MethodGet, params, nil, nil)
	if err != nil {
		return directory.Row{}, fmt.Errorf("get meeting %s: %w", id, err)
	}
	if len(rows) == 0 {
		return directory.Row{}, fmt.Errorf("get meeting %s: %w", id, store.ErrNotFound)
	}
	return rows[0], nil
}

func (s *Store) Create(ctx context.Context, row directory.Row) (directory.Row, error) {
	rows, err := s.do(ctx, http.MethodPost, nil, returnRepresentation, []directory.Row{row})
	if err != nil {
		return directory.Row{}, fmt.Errorf("create meeting %q: %w", row.Title, err)
	}
	if len(rows) == 0 {
		return directory.Row{}, fmt.Errorf("create meeting %q: empty response", row.Title)
	}
	return rows[0], nil
}

func (s *Store) Update(ctx context.Context, id string, row directory.Row) (directory.Row, error) {
	row.ID = ""
	row.CreatedAt = nil
	row.UpdatedAt = nil

	params := url.Values{"id": eq(id)}
	rows, err := s.do(ctx, http.MethodPatch, params, returnRepresentation, row)
	if err != nil {
		return directory.Row{}, fmt.Errorf("update meeting %s: %w", id, err)
	}
	if len(rows) == 0 {
		return directory.Row{}, fmt.Errorf("update meeting %s: %w", id, store.ErrNotFound)
	}
	return rows[0], nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	params := url.Values{"id": eq(id)}
	rows, err := s.do(ctx, http.MethodDelete, params, returnRepresentation, nil)
	if err != nil {
		return fmt.Errorf("delete meeting %s: %w", id, err)
	}
	if len(rows) == 0 {
		return fmt.Errorf("delete meeting %s: %w", id, store.ErrNotFound)
	}
	return nil
}

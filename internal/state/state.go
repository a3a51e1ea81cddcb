package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/prodx0x/minderlink/internal/directory"
)

// Snapshot is the last row set fetched from a store.
type Snapshot struct {
	Source    string          `json:"source"`
	FetchedAt time.Time       `json:"fetchedAt"`
	Rows      []directory.Row `json:"rows"`
}

type ItemKind string

const (
	KindMeeting ItemKind = "meeting"
	KindSession ItemKind = "session"
)

// Item is one entry of the upcoming list shared by the bar and the menu.
// Link is empty for gated items.
type Item struct {
	ID       string             `json:"id"`
	Kind     ItemKind           `json:"kind"`
	Title    string             `json:"title"`
	Start    time.Time          `json:"start"`
	Duration int                `json:"duration"`
	Platform directory.Platform `json:"platform"`
	Link     string             `json:"link,omitempty"`
	Gated    bool               `json:"gated,omitempty"`
}

// Filters is the selection applied to the status bar list.
type Filters struct {
	Day       directory.Selector `json:"day,omitempty"`
	Platform  directory.Selector `json:"platform,omitempty"`
	Language  directory.Selector `json:"language,omitempty"`
	UpdatedAt string             `json:"updatedAt,omitempty"`

	Exists bool `json:"-"`
}

func EnsureDirs(stateDir, menuDir string) error {
	if err := os.MkdirAll(stateDir, 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	if err := os.MkdirAll(menuDir, 0o755); err != nil {
		return fmt.Errorf("create menu dir: %w", err)
	}
	return nil
}

func SaveSnapshot(path string, snapshot Snapshot) error {
	return saveJSON(path, "snapshot", snapshot)
}

// LoadSnapshot returns ok=false when no snapshot was written yet.
func LoadSnapshot(path string) (snapshot Snapshot, ok bool, err error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Snapshot{}, false, nil
		}
		return Snapshot{}, false, fmt.Errorf("read snapshot file: %w", err)
	}

	if err := json.Unmarshal(raw, &snapshot); err != nil {
		return Snapshot{}, false, fmt.Errorf("decode snapshot file: %w", err)
	}
	return snapshot, true, nil
}

func SaveItems(path string, items []Item) error {
	if items == nil {
		items = []Item{}
	}
	return saveJSON(path, "items", items)
}

func LoadItems(path string) ([]Item, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read items file: %w", err)
	}

	var items []Item
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("decode items file: %w", err)
	}
	return items, nil
}

func SaveFilters(path string, filters Filters) error {
	filters = normalizeFilters(filters)
	filters.UpdatedAt = time.Now().UTC().Format(time.RFC3339)
	return saveJSON(path, "filters", filters)
}

func LoadFilters(path string) (Filters, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Filters{}, nil
		}
		return Filters{}, fmt.Errorf("read filters file: %w", err)
	}

	if len(strings.TrimSpace(string(raw))) == 0 {
		return Filters{Exists: true}, nil
	}

	var filters Filters
	if err := json.Unmarshal(raw, &filters); err != nil {
		return Filters{}, fmt.Errorf("decode filters file: %w", err)
	}
	filters = normalizeFilters(filters)
	filters.Exists = true
	return filters, nil
}

// Selector values are exact, so only surrounding whitespace is dropped.
func normalizeFilters(filters Filters) Filters {
	filters.Day = directory.Selector(strings.TrimSpace(string(filters.Day)))
	filters.Platform = directory.Selector(strings.TrimSpace(string(filters.Platform)))
	filters.Language = directory.Selector(strings.TrimSpace(string(filters.Language)))
	return filters
}

func saveJSON(path, what string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create %s dir: %w", what, err)
	}

	payload, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", what, err)
	}

	return writeFileAtomically(path, append(payload, '\n'))
}

func writeFileAtomically(path string, content []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(content); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

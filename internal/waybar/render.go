package waybar

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/prodx0x/minderlink/internal/directory"
	"github.com/prodx0x/minderlink/internal/state"
)

const (
	ClassClear   = "clear"
	ClassNormal  = "normal"
	ClassSoon    = "soon"
	ClassActive  = "active"
	ClassUnknown = "unknown"
	ClassError   = "error"

	soonThreshold  = 10 * time.Minute
	tooltipEntries = 4
)

type Output struct {
	Text    string `json:"text"`
	Tooltip string `json:"tooltip"`
	Class   string `json:"class"`
}

func Encode(output Output) ([]byte, error) {
	payload, err := json.Marshal(output)
	if err != nil {
		return nil, fmt.Errorf("marshal waybar output: %w", err)
	}
	return payload, nil
}

// Build renders the bar for an upcoming list sorted by start. note, when
// set, is appended to the tooltip.
func Build(now time.Time, lookahead time.Duration, items []state.Item, note string) Output {
	if len(items) == 0 {
		tooltip := fmt.Sprintf("No meeting in next %d minutes", int(lookahead.Minutes()))
		return Output{Text: "—", Tooltip: withNote(tooltip, note), Class: ClassClear}
	}

	next := items[0]
	var b strings.Builder

	class := ClassNormal
	text := directory.HumanizeDuration(next.Start.Sub(now))
	if !next.Start.After(now) {
		class = ClassActive
		text = "now"
		_, _ = fmt.Fprintf(&b, "In progress: %s\n", next.Title)
	} else {
		if next.Start.Sub(now) <= soonThreshold {
			class = ClassSoon
		}
		_, _ = fmt.Fprintf(&b, "Next %s: %s\n", directory.FormatTimeRemaining(next.Start.Sub(now)), next.Title)
	}

	_, _ = fmt.Fprintf(&b, "Starts: %s (%d min)\n", next.Start.In(now.Location()).Format("Mon 15:04"), next.Duration)
	if next.Platform != "" {
		_, _ = fmt.Fprintf(&b, "Platform: %s\n", directory.PlatformLabel(next.Platform))
	}
	switch {
	case next.Gated:
		_, _ = fmt.Fprint(&b, "Access code required\n")
	case strings.TrimSpace(next.Link) != "":
		_, _ = fmt.Fprint(&b, "Join available\n")
	}

	if len(items) > 1 {
		_, _ = fmt.Fprint(&b, "\nUpcoming:\n")
		for _, item := range items[1:min(len(items), tooltipEntries+1)] {
			_, _ = fmt.Fprintf(&b, "%s · %s\n", item.Start.In(now.Location()).Format("Mon 15:04"), item.Title)
		}
	}

	_, _ = fmt.Fprint(&b, "Click to open dropdown")
	return Output{Text: text, Tooltip: withNote(strings.TrimSpace(b.String()), note), Class: class}
}

func Unknown(tooltip string) Output {
	return Output{Text: "?", Tooltip: tooltip, Class: ClassUnknown}
}

func Failure(tooltip string) Output {
	return Output{Text: "!", Tooltip: tooltip, Class: ClassError}
}

func withNote(tooltip, note string) string {
	if strings.TrimSpace(note) == "" {
		return tooltip
	}
	return tooltip + "\n\n" + note
}

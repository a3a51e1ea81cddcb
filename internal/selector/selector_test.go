package selector

import (
	"context"
	"errors"
	"slices"
	"testing"
)

func TestParseSelectionOutput(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{name: "empty", raw: "", want: nil},
		{name: "newline separated", raw: "zoom\n", want: []string{"zoom"}},
		{name: "pipe separated", raw: "zoom|teams", want: []string{"zoom", "teams"}},
		{name: "trimmed", raw: "  Monday  ", want: []string{"Monday"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := parseSelectionOutput(tt.raw); !slices.Equal(got, tt.want) {
				t.Fatalf("parseSelectionOutput() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestChooseArgs_MarksCurrentAndEncodesAny(t *testing.T) {
	t.Parallel()

	args := chooseArgs("Platform", "Pick one", []Option{
		{Value: ""},
		{Value: "zoom", Label: "Zoom"},
		{Value: "teams"},
	}, "zoom")

	tail := args[len(args)-9:]
	want := []string{
		"FALSE", "Any", anyValue,
		"TRUE", "Zoom", "zoom",
		"FALSE", "teams", "teams",
	}
	if !slices.Equal(tail, want) {
		t.Fatalf("unexpected rows: %q", tail)
	}
}

func TestValueCodec(t *testing.T) {
	t.Parallel()

	for _, value := range []string{"", "Monday", "google-meet"} {
		if got := decodeValue(encodeValue(value)); got != value {
			t.Fatalf("value %q decoded as %q", value, got)
		}
	}
}

func TestChoose_RequiresOptions(t *testing.T) {
	t.Parallel()

	if _, err := Choose(context.Background(), "t", "x", nil, ""); err == nil || errors.Is(err, ErrSelectionCancelled) {
		t.Fatalf("expected options error, got %v", err)
	}
}

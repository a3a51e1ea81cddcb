package selector

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

var ErrSelectionCancelled = errors.New("selection cancelled")

// Option is one row of a choice dialog. An empty Value stands for "any".
type Option struct {
	Value string
	Label string
}

// Choose shows a single-choice list and returns the picked value.
func Choose(ctx context.Context, title, text string, options []Option, current string) (string, error) {
	if len(options) == 0 {
		return "", fmt.Errorf("no options available")
	}
	if err := requireZenity(); err != nil {
		return "", err
	}

	out, err := runZenity(ctx, chooseArgs(title, text, options, current))
	if err != nil {
		return "", err
	}

	picked := parseSelectionOutput(out)
	if len(picked) == 0 {
		return "", ErrSelectionCancelled
	}
	return decodeValue(picked[0]), nil
}

// PromptSecret asks for a hidden value. The entry is returned without
// trimming, apart from the newline zenity appends.
func PromptSecret(ctx context.Context, title string) (string, error) {
	if err := requireZenity(); err != nil {
		return "", err
	}

	out, err := runZenity(ctx, []string{
		"--password",
		"--title=" + title,
		"--modal",
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSuffix(strings.TrimSuffix(out, "\n"), "\r"), nil
}

func requireZenity() error {
	if !hasGraphicalSession() {
		return fmt.Errorf("dialogs require a graphical session")
	}
	if _, err := exec.LookPath("zenity"); err != nil {
		return fmt.Errorf("zenity is required for dialogs")
	}
	return nil
}

func hasGraphicalSession() bool {
	return strings.TrimSpace(os.Getenv("WAYLAND_DISPLAY")) != "" || strings.TrimSpace(os.Getenv("DISPLAY")) != ""
}

func runZenity(ctx context.Context, args []string) (string, error) {
	cmd := exec.CommandContext(ctx, "zenity", args...)
	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 {
			return "", ErrSelectionCancelled
		}
		return "", fmt.Errorf("zenity failed: %w", err)
	}
	return string(out), nil
}

// anyValue keeps the "any" row distinguishable from an empty zenity answer.
const anyValue = "*"

func chooseArgs(title, text string, options []Option, current string) []string {
	args := []string{
		"--list",
		"--radiolist",
		"--title=" + title,
		"--text=" + text,
		"--modal",
		"--width=520",
		"--height=480",
		"--separator=\n",
		"--print-column=3",
		"--column=Use",
		"--column=Value",
		"--column=Key",
		"--hide-column=3",
	}

	for _, option := range options {
		checked := "FALSE"
		if option.Value == current {
			checked = "TRUE"
		}
		args = append(args, checked, optionLabel(option), encodeValue(option.Value))
	}
	return args
}

func optionLabel(option Option) string {
	label := strings.TrimSpace(option.Label)
	if label != "" {
		return label
	}
	if option.Value == "" {
		return "Any"
	}
	return option.Value
}

func encodeValue(value string) string {
	if value == "" {
		return anyValue
	}
	return value
}

func decodeValue(value string) string {
	if value == anyValue {
		return ""
	}
	return value
}

func parseSelectionOutput(raw string) []string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil
	}

	parts := strings.FieldsFunc(trimmed, func(r rune) bool {
		return r == '\n' || r == '|'
	})
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		value := strings.TrimSpace(part)
		if value == "" {
			continue
		}
		result = append(result, value)
	}
	return result
}

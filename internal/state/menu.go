package state

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

type MenuData struct {
	StatusLine string
	Next       *Item
	Items      []Item
	Now        time.Time
}

// GtkBuilder document read by the waybar menu option.
type gtkInterface struct {
	XMLName xml.Name  `xml:"interface"`
	Menu    gtkObject `xml:"object"`
}

type gtkObject struct {
	Class      string        `xml:"class,attr"`
	ID         string        `xml:"id,attr"`
	Properties []gtkProperty `xml:"property,omitempty"`
	Children   []gtkChild    `xml:"child,omitempty"`
}

type gtkChild struct {
	Object gtkObject `xml:"object"`
}

type gtkProperty struct {
	Name  string `xml:"name,attr"`
	Value string `xml:",chardata"`
}

// WriteMenu writes the dropdown for the upcoming list. Item ids map to the
// join-next, join-item N, select-filter and refresh commands.
func WriteMenu(path string, data MenuData) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create menu dir: %w", err)
	}
	if data.Now.IsZero() {
		data.Now = time.Now()
	}

	menu := gtkObject{Class: "GtkMenu", ID: "menu"}
	if data.Next != nil {
		menu.add(menuItem("join_next", fmt.Sprintf("%s: %s", joinVerb(*data.Next), fallback(data.Next.Title, "Meeting")), true))
		menu.add(separator("separator_next"))
	}

	for idx, item := range data.Items {
		label := fmt.Sprintf("%s · %s", formatStart(data.Now, item.Start), fallback(item.Title, "Meeting"))
		if item.Gated {
			label += " 🔒"
		}
		menu.add(menuItem(fmt.Sprintf("join_%d", idx+1), label, true))
	}
	if len(data.Items) == 0 {
		menu.add(menuItem("noop", fallback(data.StatusLine, "No upcoming meetings"), false))
	}

	menu.add(separator("separator_actions"))
	menu.add(menuItem("select_filter", "Filter…", true))
	menu.add(menuItem("refresh", "Refresh", true))

	payload, err := xml.MarshalIndent(gtkInterface{Menu: menu}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal menu: %w", err)
	}

	content := make([]byte, 0, len(xml.Header)+len(payload)+1)
	content = append(content, xml.Header...)
	content = append(content, payload...)
	return writeFileAtomically(path, append(content, '\n'))
}

func (o *gtkObject) add(child gtkObject) {
	o.Children = append(o.Children, gtkChild{Object: child})
}

func menuItem(id, label string, sensitive bool) gtkObject {
	item := gtkObject{
		Class:      "GtkMenuItem",
		ID:         id,
		Properties: []gtkProperty{{Name: "label", Value: label}},
	}
	if !sensitive {
		item.Properties = append(item.Properties, gtkProperty{Name: "sensitive", Value: "False"})
	}
	return item
}

func separator(id string) gtkObject {
	return gtkObject{Class: "GtkSeparatorMenuItem", ID: id}
}

func joinVerb(item Item) string {
	switch {
	case item.Gated:
		return "Unlock"
	case strings.TrimSpace(item.Link) != "":
		return "Join"
	default:
		return "Open"
	}
}

func fallback(value, defaultValue string) string {
	if strings.TrimSpace(value) == "" {
		return defaultValue
	}
	return value
}

// formatStart drops the weekday for items starting today.
func formatStart(now, value time.Time) string {
	value = value.In(now.Location())
	if now.Year() == value.Year() && now.YearDay() == value.YearDay() {
		return value.Format("15:04")
	}
	return value.Format("Mon 15:04")
}

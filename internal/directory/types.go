package directory

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

type Platform string

const (
	PlatformZoom       Platform = "zoom"
	PlatformGoogleMeet Platform = "google-meet"
	PlatformTeams      Platform = "teams"
	PlatformWebex      Platform = "webex"
	PlatformOther      Platform = "other"
)

func (p Platform) Valid() bool {
	switch p {
	case PlatformZoom, PlatformGoogleMeet, PlatformTeams, PlatformWebex, PlatformOther:
		return true
	default:
		return false
	}
}

type Category string

const (
	CategoryPublic  Category = "public"
	CategoryPrivate Category = "private"
)

type SessionType string

const (
	SessionPublic SessionType = "public"
	SessionVip    SessionType = "vip"
)

// StringList decodes either a scalar string or a list of strings.
type StringList []string

func (l *StringList) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" || trimmed == "null" {
		*l = nil
		return nil
	}

	if strings.HasPrefix(trimmed, "[") {
		var values []string
		if err := json.Unmarshal(data, &values); err != nil {
			return fmt.Errorf("decode string list: %w", err)
		}
		*l = compact(values)
		return nil
	}

	var value string
	if err := json.Unmarshal(data, &value); err != nil {
		return fmt.Errorf("decode string list: %w", err)
	}
	*l = compact([]string{value})
	return nil
}

// MarshalJSON writes a single value as a scalar so rows keep their original shape.
func (l StringList) MarshalJSON() ([]byte, error) {
	switch len(l) {
	case 0:
		return []byte("null"), nil
	case 1:
		return json.Marshal(l[0])
	default:
		return json.Marshal([]string(l))
	}
}

func (l *StringList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		*l = compact([]string{node.Value})
		return nil
	case yaml.SequenceNode:
		var values []string
		if err := node.Decode(&values); err != nil {
			return fmt.Errorf("decode string list: %w", err)
		}
		*l = compact(values)
		return nil
	default:
		return fmt.Errorf("decode string list: unexpected yaml node kind %d", node.Kind)
	}
}

func (l StringList) Contains(value string) bool {
	for _, item := range l {
		if item == value {
			return true
		}
	}
	return false
}

func compact(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	out := make([]string, 0, len(values))
	for _, value := range values {
		if strings.TrimSpace(value) == "" {
			continue
		}
		out = append(out, value)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

type Description struct {
	EN string `json:"en" yaml:"en"`
	FR string `json:"fr" yaml:"fr"`
}

// In returns the text for lang ("fr" or "en"), or the other language when
// that one is empty. Anything but "en" reads as French.
func (d Description) In(lang string) string {
	primary, other := d.FR, d.EN
	if lang == "en" {
		primary, other = d.EN, d.FR
	}
	if primary != "" {
		return primary
	}
	return other
}

type Meeting struct {
	ID                string   `json:"id" yaml:"id"`
	Title             string   `json:"title" yaml:"title"`
	Platform          Platform `json:"platform" yaml:"platform"`
	Link              string   `json:"link" yaml:"link"`
	Password          string   `json:"password,omitempty" yaml:"password,omitempty"`
	Notes             string   `json:"notes,omitempty" yaml:"notes,omitempty"`
	Category          Category `json:"category" yaml:"category"`
	Date              string   `json:"date" yaml:"date"`
	Time              string   `json:"time" yaml:"time"`
	Duration          int      `json:"duration" yaml:"duration"`
	Organizer         string   `json:"organizer" yaml:"organizer"`
	MaxParticipants   int      `json:"maxParticipants,omitempty" yaml:"maxParticipants,omitempty"`
	Tags              []string `json:"tags,omitempty" yaml:"tags,omitempty"`
	IsRecurring       bool     `json:"isRecurring,omitempty" yaml:"isRecurring,omitempty"`
	RecurrencePattern string   `json:"recurrencePattern,omitempty" yaml:"recurrencePattern,omitempty"`
}

func (m Meeting) Private() bool {
	return m.Category == CategoryPrivate
}

// Session is either a PublicSession or a VipSession.
type Session interface {
	Base() *SessionBase
	Type() SessionType

	sealed()
}

type SessionBase struct {
	ID              string     `json:"id" yaml:"id"`
	Region          string     `json:"region" yaml:"region"`
	Date            string     `json:"date" yaml:"date"`
	Time            string     `json:"time" yaml:"time"`
	Duration        int        `json:"duration" yaml:"duration"`
	ZoomID          string     `json:"zoomId" yaml:"zoomId"`
	Language        StringList `json:"language" yaml:"language"`
	Day             StringList `json:"day" yaml:"day"`
	Instructor      string     `json:"instructor" yaml:"instructor"`
	MaxParticipants int        `json:"maxParticipants" yaml:"maxParticipants"`
}

type PublicSession struct {
	SessionBase `yaml:",inline"`

	ZoomLink     string      `json:"zoomLink" yaml:"zoomLink"`
	PhoneNumbers []string    `json:"phoneNumbers" yaml:"phoneNumbers"`
	Schedule     string      `json:"schedule" yaml:"schedule"`
	Languages    []string    `json:"languages" yaml:"languages"`
	TimeZone     string      `json:"timeZone" yaml:"timeZone"`
	Description  Description `json:"description" yaml:"description"`
}

func (s *PublicSession) Base() *SessionBase { return &s.SessionBase }
func (s *PublicSession) Type() SessionType  { return SessionPublic }
func (s *PublicSession) sealed()            {}

type VipSession struct {
	SessionBase `yaml:",inline"`

	Password string `json:"password" yaml:"password"`
}

func (s *VipSession) Base() *SessionBase { return &s.SessionBase }
func (s *VipSession) Type() SessionType  { return SessionVip }
func (s *VipSession) sealed()            {}

// SessionTitle is the display name of a session, built from its region.
func SessionTitle(s Session) string {
	if _, vip := s.(*VipSession); vip {
		return "VIP session · " + s.Base().Region
	}
	return "Session · " + s.Base().Region
}

// ErrUnknownSessionType is returned by consumers that meet a Session
// implementation they do not handle.
var ErrUnknownSessionType = errors.New("unknown session type")

func unknownSession(s Session) error {
	return fmt.Errorf("%w: %T", ErrUnknownSessionType, s)
}

package directory

import (
	"encoding/json"
	"fmt"
	"slices"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultMaxParticipants = 100
	DefaultLanguage        = "fr"
)

type RowType string

const (
	RowMeeting       RowType = "meeting"
	RowPublicSession RowType = "public_session"
	RowVipSession    RowType = "vip_session"
)

// Row is one record of the remote meetings table.
type Row struct {
	ID                string         `json:"id,omitempty"`
	Title             string         `json:"title"`
	Region            *string        `json:"region"`
	Type              RowType        `json:"type"`
	Category          Category       `json:"category"`
	Platform          *string        `json:"platform"`
	Link              string         `json:"link"`
	ZoomID            *string        `json:"zoom_id"`
	Password          *string        `json:"password"`
	Date              string         `json:"date"`
	Time              string         `json:"time"`
	Duration          int            `json:"duration"`
	Organizer         string         `json:"organizer"`
	Instructor        *string        `json:"instructor"`
	MaxParticipants   *int           `json:"max_participants"`
	Notes             *string        `json:"notes"`
	Tags              []string       `json:"tags"`
	IsRecurring       *bool          `json:"is_recurring"`
	RecurrencePattern *string        `json:"recurrence_pattern"`
	Language          *string        `json:"language"`
	Languages         []string       `json:"languages"`
	PhoneNumbers      []string       `json:"phone_numbers"`
	Schedule          *string        `json:"schedule"`
	TimeZone          *string        `json:"time_zone"`
	Day               StringList     `json:"day"`
	Description       *Description   `json:"description"`
	Metadata          map[string]any `json:"metadata"`
	CreatedAt         *time.Time     `json:"created_at,omitempty"`
	UpdatedAt         *time.Time     `json:"updated_at,omitempty"`
	CreatedBy         *string        `json:"created_by"`
	UpdatedBy         *string        `json:"updated_by"`
}

// DecodeRow decodes one JSON row. A field whose value has the wrong shape is
// dropped and named in the returned list; only a payload that is not an
// object fails.
func DecodeRow(raw []byte) (Row, []string, error) {
	var row Row
	if err := json.Unmarshal(raw, &row); err == nil {
		return row, nil, nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return Row{}, nil, fmt.Errorf("decode row: %w", err)
	}

	var dropped []string
	for key, value := range fields {
		single, err := json.Marshal(map[string]json.RawMessage{key: value})
		if err != nil {
			return Row{}, nil, fmt.Errorf("decode row field %s: %w", key, err)
		}
		var scratch Row
		if err := json.Unmarshal(single, &scratch); err != nil {
			dropped = append(dropped, key)
			delete(fields, key)
		}
	}
	sort.Strings(dropped)

	cleaned, err := json.Marshal(fields)
	if err != nil {
		return Row{}, dropped, fmt.Errorf("decode row: %w", err)
	}
	row = Row{}
	if err := json.Unmarshal(cleaned, &row); err != nil {
		return Row{}, dropped, fmt.Errorf("decode row: %w", err)
	}
	return row, dropped, nil
}

// Normalizer maps rows onto records. It never fails: missing fields are
// replaced by defaults and every substitution is logged.
type Normalizer struct {
	log                    *zap.Logger
	defaultMaxParticipants int
}

func NewNormalizer(log *zap.Logger, defaultMaxParticipants int) Normalizer {
	if log == nil {
		log = zap.NewNop()
	}
	if defaultMaxParticipants <= 0 {
		defaultMaxParticipants = DefaultMaxParticipants
	}
	return Normalizer{log: log, defaultMaxParticipants: defaultMaxParticipants}
}

func (n Normalizer) gap(row Row, field, substitute string) {
	n.log.Warn("normalization gap",
		zap.String("id", row.ID),
		zap.String("type", string(row.Type)),
		zap.String("field", field),
		zap.String("substitute", substitute),
	)
}

func (n Normalizer) requireString(row Row, field, value string) string {
	if strings.TrimSpace(value) == "" {
		n.gap(row, field, "")
	}
	return value
}

func (n Normalizer) requireDuration(row Row) int {
	if row.Duration <= 0 {
		n.gap(row, "duration", "0")
		return 0
	}
	return row.Duration
}

func (n Normalizer) Meeting(row Row) Meeting {
	link := strings.TrimSpace(row.Link)
	if link == "" {
		if recovered, _ := JoinLinkFromText(deref(row.Notes)); recovered != "" {
			n.gap(row, "link", recovered)
			link = recovered
		} else {
			n.gap(row, "link", "")
		}
	}

	platform := Platform(strings.TrimSpace(deref(row.Platform)))
	if !platform.Valid() {
		substitute := PlatformZoom
		if detected := DetectPlatform(link); link != "" && detected != PlatformOther {
			substitute = detected
		}
		n.gap(row, "platform", string(substitute))
		platform = substitute
	}

	category := row.Category
	if category != CategoryPublic && category != CategoryPrivate {
		n.gap(row, "category", string(CategoryPrivate))
		category = CategoryPrivate
	}

	meeting := Meeting{
		ID:                n.requireString(row, "id", row.ID),
		Title:             n.requireString(row, "title", row.Title),
		Platform:          platform,
		Link:              link,
		Password:          deref(row.Password),
		Notes:             deref(row.Notes),
		Category:          category,
		Date:              n.requireString(row, "date", row.Date),
		Time:              n.requireString(row, "time", trimSeconds(row.Time)),
		Duration:          n.requireDuration(row),
		Organizer:         n.requireString(row, "organizer", row.Organizer),
		Tags:              row.Tags,
		RecurrencePattern: deref(row.RecurrencePattern),
	}
	if row.MaxParticipants != nil && *row.MaxParticipants > 0 {
		meeting.MaxParticipants = *row.MaxParticipants
	}
	if row.IsRecurring != nil {
		meeting.IsRecurring = *row.IsRecurring
	}
	return meeting
}

// Session discriminates on the row type. Rows that are not explicitly public
// sessions become VIP sessions so their details stay gated.
func (n Normalizer) Session(row Row) Session {
	base := SessionBase{
		ID:       n.requireString(row, "id", row.ID),
		Date:     n.requireString(row, "date", row.Date),
		Time:     n.requireString(row, "time", trimSeconds(row.Time)),
		Duration: n.requireDuration(row),
		Day:      row.Day,
	}

	base.Region = deref(row.Region)
	if strings.TrimSpace(base.Region) == "" {
		n.gap(row, "region", row.Title)
		base.Region = row.Title
	}

	base.ZoomID = deref(row.ZoomID)
	if strings.TrimSpace(base.ZoomID) == "" {
		n.gap(row, "zoom_id", "")
	}

	base.Language = mergeLanguages([]string{deref(row.Language)}, row.Languages)
	if len(base.Language) == 0 {
		n.gap(row, "language", DefaultLanguage)
		base.Language = StringList{DefaultLanguage}
	}

	if len(base.Day) == 0 {
		n.gap(row, "day", "")
	}

	base.Instructor = deref(row.Instructor)
	if strings.TrimSpace(base.Instructor) == "" {
		n.gap(row, "instructor", row.Organizer)
		base.Instructor = row.Organizer
	}

	if row.MaxParticipants != nil && *row.MaxParticipants > 0 {
		base.MaxParticipants = *row.MaxParticipants
	} else {
		n.gap(row, "max_participants", fmt.Sprint(n.defaultMaxParticipants))
		base.MaxParticipants = n.defaultMaxParticipants
	}

	switch row.Type {
	case RowPublicSession:
		session := &PublicSession{
			SessionBase:  base,
			ZoomLink:     strings.TrimSpace(row.Link),
			PhoneNumbers: orEmpty(row.PhoneNumbers),
			Schedule:     deref(row.Schedule),
			Languages:    orEmpty(row.Languages),
			TimeZone:     deref(row.TimeZone),
		}
		if row.Description != nil {
			session.Description = *row.Description
		}
		return session
	case RowVipSession:
		return &VipSession{SessionBase: base, Password: deref(row.Password)}
	default:
		n.gap(row, "type", string(RowVipSession))
		return &VipSession{SessionBase: base, Password: deref(row.Password)}
	}
}

// Split partitions rows by type. Each row is normalized on its own, so one
// incomplete row does not affect the others.
func (n Normalizer) Split(rows []Row) ([]Meeting, []Session) {
	meetings := make([]Meeting, 0, len(rows))
	sessions := make([]Session, 0, len(rows))
	for _, row := range rows {
		switch row.Type {
		case RowMeeting:
			meetings = append(meetings, n.Meeting(row))
		case RowPublicSession, RowVipSession:
			sessions = append(sessions, n.Session(row))
		default:
			n.log.Warn("skipping row with unknown type", zap.String("id", row.ID), zap.String("type", string(row.Type)))
		}
	}
	return meetings, sessions
}

func RowFromMeeting(m Meeting) Row {
	row := Row{
		ID:                m.ID,
		Title:             m.Title,
		Type:              RowMeeting,
		Category:          m.Category,
		Platform:          ptr(string(m.Platform)),
		Link:              m.Link,
		Password:          optional(m.Password),
		Date:              m.Date,
		Time:              m.Time,
		Duration:          m.Duration,
		Organizer:         m.Organizer,
		Notes:             optional(m.Notes),
		Tags:              m.Tags,
		RecurrencePattern: optional(m.RecurrencePattern),
	}
	if m.MaxParticipants > 0 {
		row.MaxParticipants = ptr(m.MaxParticipants)
	}
	if m.IsRecurring {
		row.IsRecurring = ptr(true)
	}
	return row
}

func RowFromSession(s Session) (Row, error) {
	base := s.Base()
	row := Row{
		ID:              base.ID,
		Title:           base.Region,
		Region:          optional(base.Region),
		Platform:        ptr(string(PlatformZoom)),
		ZoomID:          optional(base.ZoomID),
		Date:            base.Date,
		Time:            base.Time,
		Duration:        base.Duration,
		Organizer:       base.Instructor,
		Instructor:      optional(base.Instructor),
		MaxParticipants: ptr(base.MaxParticipants),
		Day:             base.Day,
	}
	if len(base.Language) > 0 {
		row.Language = ptr(base.Language[0])
	}

	switch v := s.(type) {
	case *PublicSession:
		row.Type = RowPublicSession
		row.Category = CategoryPublic
		row.Link = v.ZoomLink
		row.Languages = mergeLanguages(base.Language, v.Languages)
		row.PhoneNumbers = v.PhoneNumbers
		row.Schedule = optional(v.Schedule)
		row.TimeZone = optional(v.TimeZone)
		row.Description = &Description{EN: v.Description.EN, FR: v.Description.FR}
	case *VipSession:
		row.Type = RowVipSession
		row.Category = CategoryPrivate
		row.Password = optional(v.Password)
		if len(base.Language) > 1 {
			row.Languages = base.Language
		}
	default:
		return Row{}, unknownSession(s)
	}
	return row, nil
}

// MissingMeetingFields lists required fields that are empty.
func MissingMeetingFields(m Meeting) []string {
	missing := make([]string, 0)
	for _, field := range []struct {
		name  string
		empty bool
	}{
		{"id", strings.TrimSpace(m.ID) == ""},
		{"title", strings.TrimSpace(m.Title) == ""},
		{"platform", m.Platform == ""},
		{"link", strings.TrimSpace(m.Link) == ""},
		{"category", m.Category == ""},
		{"date", strings.TrimSpace(m.Date) == ""},
		{"time", strings.TrimSpace(m.Time) == ""},
		{"duration", m.Duration == 0},
		{"organizer", strings.TrimSpace(m.Organizer) == ""},
	} {
		if field.empty {
			missing = append(missing, field.name)
		}
	}
	return missing
}

func MissingSessionFields(s Session) []string {
	base := s.Base()
	missing := make([]string, 0)
	for _, field := range []struct {
		name  string
		empty bool
	}{
		{"id", strings.TrimSpace(base.ID) == ""},
		{"region", strings.TrimSpace(base.Region) == ""},
		{"date", strings.TrimSpace(base.Date) == ""},
		{"time", strings.TrimSpace(base.Time) == ""},
		{"duration", base.Duration == 0},
		{"zoomId", strings.TrimSpace(base.ZoomID) == ""},
		{"language", len(base.Language) == 0},
		{"day", len(base.Day) == 0},
		{"instructor", strings.TrimSpace(base.Instructor) == ""},
		{"maxParticipants", base.MaxParticipants == 0},
	} {
		if field.empty {
			missing = append(missing, field.name)
		}
	}
	return missing
}

// trimSeconds turns a database "HH:MM:SS" into "HH:MM".
// mergeLanguages joins language tags in order, without blanks or repeats.
func mergeLanguages(lists ...[]string) StringList {
	var merged StringList
	for _, list := range lists {
		for _, value := range list {
			value = strings.TrimSpace(value)
			if value != "" && !slices.Contains(merged, value) {
				merged = append(merged, value)
			}
		}
	}
	return merged
}

func trimSeconds(clock string) string {
	clock = strings.TrimSpace(clock)
	if len(clock) == len("15:04:05") && strings.HasSuffix(clock, ":00") {
		return clock[:5]
	}
	return clock
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

func optional(value string) *string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return &value
}

func ptr[T any](value T) *T {
	return &value
}

func orEmpty(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

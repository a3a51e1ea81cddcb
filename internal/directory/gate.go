package directory

import (
	"errors"
	"strings"
)

// ErrUnlockRejected means the candidate secret did not match. It is an
// expected outcome, not a failure of the gate.
var ErrUnlockRejected = errors.New("unlock rejected")

type Domain string

const (
	DomainMeetings Domain = "meetings"
	DomainVip      Domain = "vip"
)

// AccessPolicy holds one secret per protected domain. The values are
// independent even when configured to the same string.
type AccessPolicy struct {
	MeetingSecret string
	VIPSecret     string
}

func (p AccessPolicy) SecretFor(domain Domain) (string, bool) {
	switch domain {
	case DomainMeetings:
		return p.MeetingSecret, true
	case DomainVip:
		return p.VIPSecret, true
	default:
		return "", false
	}
}

// AttemptUnlock is an exact comparison: no trimming and no case folding.
func AttemptUnlock(candidate, expected string) bool {
	return candidate == expected
}

// UnlockSet tracks records unlocked during this process. Entries are never
// removed.
type UnlockSet struct {
	policy   AccessPolicy
	unlocked map[string]struct{}
}

func NewUnlockSet(policy AccessPolicy) *UnlockSet {
	return &UnlockSet{policy: policy, unlocked: make(map[string]struct{})}
}

func (u *UnlockSet) Unlock(domain Domain, id, candidate string) error {
	expected, ok := u.policy.SecretFor(domain)
	if !ok || !AttemptUnlock(candidate, expected) {
		return ErrUnlockRejected
	}
	u.unlocked[id] = struct{}{}
	return nil
}

func (u *UnlockSet) IsUnlocked(id string) bool {
	_, ok := u.unlocked[id]
	return ok
}

func (u *UnlockSet) Len() int {
	return len(u.unlocked)
}

// Gated reports whether showing the meeting's connection details needs an
// unlock first.
func (m Meeting) Gated() bool {
	return m.Private()
}

func SessionGated(s Session) (bool, error) {
	switch s.(type) {
	case *PublicSession:
		return false, nil
	case *VipSession:
		return true, nil
	default:
		return false, unknownSession(s)
	}
}

// Connection is what a user needs to join. Hidden is set when gated fields
// were withheld.
type Connection struct {
	Platform     Platform
	Link         string
	Password     string
	MeetingID    string
	PhoneNumbers []string
	Hidden       bool
}

func MeetingConnection(m Meeting, unlocked bool) Connection {
	if m.Gated() && !unlocked {
		return Connection{Platform: m.Platform, Hidden: true}
	}
	return Connection{
		Platform:  m.Platform,
		Link:      strings.TrimSpace(m.Link),
		Password:  m.Password,
		MeetingID: ExtractMeetingID(m.Link, m.Platform),
	}
}

func SessionConnection(s Session, unlocked bool) (Connection, error) {
	switch v := s.(type) {
	case *PublicSession:
		return Connection{
			Platform:     PlatformZoom,
			Link:         strings.TrimSpace(v.ZoomLink),
			MeetingID:    v.ZoomID,
			PhoneNumbers: v.PhoneNumbers,
		}, nil
	case *VipSession:
		if !unlocked {
			return Connection{Platform: PlatformZoom, Hidden: true}, nil
		}
		return Connection{
			Platform:  PlatformZoom,
			Link:      ZoomJoinLink(v.ZoomID),
			Password:  v.Password,
			MeetingID: v.ZoomID,
		}, nil
	default:
		return Connection{}, unknownSession(s)
	}
}

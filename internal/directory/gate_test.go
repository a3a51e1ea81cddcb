package directory

import (
	"errors"
	"testing"
)

type otherSession struct {
	SessionBase
}

func (s *otherSession) Base() *SessionBase { return &s.SessionBase }
func (s *otherSession) Type() SessionType  { return "workshop" }
func (s *otherSession) sealed()            {}

func TestAttemptUnlock(t *testing.T) {
	t.Parallel()

	tests := []struct {
		candidate string
		want      bool
	}{
		{candidate: "661", want: true},
		{candidate: "0661", want: false},
		{candidate: " 661", want: false},
		{candidate: "661 ", want: false},
		{candidate: "", want: false},
	}

	for _, tc := range tests {
		if got := AttemptUnlock(tc.candidate, "661"); got != tc.want {
			t.Fatalf("AttemptUnlock(%q) = %v, want %v", tc.candidate, got, tc.want)
		}
	}
}

func TestUnlockSet_PerDomainSecrets(t *testing.T) {
	t.Parallel()

	set := NewUnlockSet(AccessPolicy{MeetingSecret: "meet", VIPSecret: "vip"})

	if err := set.Unlock(DomainMeetings, "m1", "vip"); !errors.Is(err, ErrUnlockRejected) {
		t.Fatalf("expected rejection with vip secret on meetings, got %v", err)
	}
	if set.IsUnlocked("m1") {
		t.Fatal("rejected unlock must not add the record")
	}

	if err := set.Unlock(DomainMeetings, "m1", "meet"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := set.Unlock(DomainVip, "v1", "vip"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !set.IsUnlocked("m1") || !set.IsUnlocked("v1") || set.Len() != 2 {
		t.Fatalf("expected both records unlocked, len=%d", set.Len())
	}

	// A later failure never re-locks.
	if err := set.Unlock(DomainMeetings, "m1", "wrong"); !errors.Is(err, ErrUnlockRejected) {
		t.Fatalf("expected rejection, got %v", err)
	}
	if !set.IsUnlocked("m1") {
		t.Fatal("unlocked record was re-locked")
	}

	if err := set.Unlock(Domain("other"), "x", ""); !errors.Is(err, ErrUnlockRejected) {
		t.Fatalf("unknown domain must reject, got %v", err)
	}
}

func TestMeetingConnection_Gating(t *testing.T) {
	t.Parallel()

	private := Meeting{ID: "p", Category: CategoryPrivate, Platform: PlatformZoom, Link: "https://zoom.us/j/123456789", Password: "pw"}
	public := Meeting{ID: "o", Category: CategoryPublic, Platform: PlatformGoogleMeet, Link: "https://meet.google.com/abc-defg-hij"}

	hidden := MeetingConnection(private, false)
	if !hidden.Hidden || hidden.Link != "" || hidden.Password != "" {
		t.Fatalf("expected hidden connection, got %+v", hidden)
	}

	shown := MeetingConnection(private, true)
	if shown.Hidden || shown.Link != private.Link || shown.Password != "pw" || shown.MeetingID != "123456789" {
		t.Fatalf("unexpected unlocked connection: %+v", shown)
	}

	open := MeetingConnection(public, false)
	if open.Hidden || open.MeetingID != "abc-defg-hij" {
		t.Fatalf("public meeting must not be gated: %+v", open)
	}
}

func TestSessionConnection(t *testing.T) {
	t.Parallel()

	vip := &VipSession{SessionBase: SessionBase{ID: "v", ZoomID: "123 456 7890"}, Password: "secret"}

	locked, err := SessionConnection(vip, false)
	if err != nil || !locked.Hidden || locked.Link != "" {
		t.Fatalf("expected hidden vip connection, got %+v, %v", locked, err)
	}

	unlocked, err := SessionConnection(vip, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if unlocked.Link != "https://zoom.us/j/1234567890" || unlocked.Password != "secret" {
		t.Fatalf("unexpected vip connection: %+v", unlocked)
	}

	public := &PublicSession{SessionBase: SessionBase{ID: "p", ZoomID: "111"}, ZoomLink: "https://zoom.us/j/111", PhoneNumbers: []string{"+33 1"}}
	conn, err := SessionConnection(public, false)
	if err != nil || conn.Hidden || conn.Link != public.ZoomLink || len(conn.PhoneNumbers) != 1 {
		t.Fatalf("unexpected public connection: %+v, %v", conn, err)
	}
}

func TestSessionGated_UnknownVariant(t *testing.T) {
	t.Parallel()

	if _, err := SessionGated(&otherSession{}); !errors.Is(err, ErrUnknownSessionType) {
		t.Fatalf("expected ErrUnknownSessionType, got %v", err)
	}
	if _, err := SessionConnection(&otherSession{}, true); !errors.Is(err, ErrUnknownSessionType) {
		t.Fatalf("expected ErrUnknownSessionType, got %v", err)
	}
	if gated, err := SessionGated(&VipSession{}); err != nil || !gated {
		t.Fatalf("vip sessions are gated, got %v %v", gated, err)
	}
}

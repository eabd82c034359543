package game

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func member(i int) Participant {
	return Participant{ID: fmt.Sprintf("u%02d", i), DisplayName: fmt.Sprintf("User %d", i)}
}

func publicGame(roster int) *Game {
	g := New(member(0), "Test Lobby")
	g.IsPrivate = false
	for i := 1; i < roster; i++ {
		if _, err := g.Join(member(i)); err != nil {
			panic(err)
		}
	}
	return g
}

func countEvents(g *Game, t EventType) int {
	n := 0
	for _, e := range g.Log() {
		if e.Type == t {
			n++
		}
	}
	return n
}

func TestHostIsRosterIndexZero(t *testing.T) {
	g := publicGame(4)

	if g.Host().ID != "u00" {
		t.Fatalf("host: got %s, want u00", g.Host().ID)
	}

	// host must be stable across joins and leaves
	if err := g.Leave("u02"); err != nil {
		t.Fatalf("leave: %v", err)
	}
	if _, err := g.Join(member(9)); err != nil {
		t.Fatalf("join: %v", err)
	}
	if g.Host().ID != "u00" {
		t.Fatalf("host after churn: got %s, want u00", g.Host().ID)
	}
}

func TestJoin_Rejections(t *testing.T) {
	cases := []struct {
		name    string
		setup   func() *Game
		actor   Participant
		wantErr error
	}{
		{
			name:    "already a member",
			setup:   func() *Game { return publicGame(3) },
			actor:   member(1),
			wantErr: ErrAlreadyMember,
		},
		{
			name: "request already pending",
			setup: func() *Game {
				g := New(member(0), "t")
				if _, err := g.Join(member(5)); err != nil {
					panic(err)
				}
				return g
			},
			actor:   member(5),
			wantErr: ErrRequestPending,
		},
		{
			name:    "roster full",
			setup:   func() *Game { return publicGame(MaxRoster) },
			actor:   member(20),
			wantErr: ErrSessionFull,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			g := tc.setup()
			_, err := g.Join(tc.actor)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("got %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestJoin_PrivateQueuesRequest(t *testing.T) {
	g := New(member(0), "t")

	outcome, err := g.Join(member(1))
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if outcome != RequestQueued {
		t.Fatalf("outcome: got %v, want RequestQueued", outcome)
	}
	if g.RosterSize() != 1 {
		t.Fatalf("roster mutated by private join: size %d", g.RosterSize())
	}
	if len(g.Requests()) != 1 || g.Requests()[0].ID == "" {
		t.Fatalf("expected one pending request, got %+v", g.Requests())
	}
	// a queued request is not a roster event
	if countEvents(g, EvtJoin) != 0 {
		t.Fatalf("private join must not emit %s", EvtJoin)
	}
}

func TestJoinThenLeave_RestoresRosterOrder(t *testing.T) {
	g := publicGame(5)
	before := strings.Join(g.RosterIDs(), ",")

	if _, err := g.Join(member(9)); err != nil {
		t.Fatalf("join: %v", err)
	}
	if err := g.Leave(member(9).ID); err != nil {
		t.Fatalf("leave: %v", err)
	}

	after := strings.Join(g.RosterIDs(), ",")
	if before != after {
		t.Fatalf("roster order changed: %q -> %q", before, after)
	}
}

func TestLeave_HostAlwaysRejected(t *testing.T) {
	g := publicGame(3)
	if err := g.Leave(g.Host().ID); !errors.Is(err, ErrCannotLeaveAsHost) {
		t.Fatalf("got %v, want ErrCannotLeaveAsHost", err)
	}
	if err := g.Leave("stranger"); !errors.Is(err, ErrNotMember) {
		t.Fatalf("got %v, want ErrNotMember", err)
	}
}

func TestLeave_IsPositionalSplice(t *testing.T) {
	g := publicGame(5)
	if err := g.Leave("u02"); err != nil {
		t.Fatalf("leave: %v", err)
	}
	want := []string{"u00", "u01", "u03", "u04"}
	got := g.RosterIDs()
	if len(got) != len(want) {
		t.Fatalf("roster size: got %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("roster[%d]: got %s, want %s", i, got[i], want[i])
		}
	}
}

func TestAcceptDecline(t *testing.T) {
	g := New(member(0), "t")
	for i := 1; i <= 2; i++ {
		if _, err := g.Join(member(i)); err != nil {
			t.Fatalf("join: %v", err)
		}
	}

	if _, err := g.Accept("u01", "u02"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("non-host accept: got %v, want ErrForbidden", err)
	}
	if _, err := g.Accept("u00", "nobody"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing request: got %v, want ErrNotFound", err)
	}

	p, err := g.Accept("u00", "u01")
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if p.ID != "u01" || !g.IsMember("u01") {
		t.Fatalf("accepted member not on roster: %+v", p)
	}

	p, err = g.Decline("u00", "u02")
	if err != nil {
		t.Fatalf("decline: %v", err)
	}
	if p.ID != "u02" || g.IsMember("u02") || len(g.Requests()) != 0 {
		t.Fatalf("decline left state dirty: %+v requests=%v", p, g.Requests())
	}

	if countEvents(g, EvtAccept) != 1 || countEvents(g, EvtDecline) != 1 {
		t.Fatalf("log events: accept=%d decline=%d", countEvents(g, EvtAccept), countEvents(g, EvtDecline))
	}
}

func TestToggleAccess_DoubleFlipRoundTrips(t *testing.T) {
	g := New(member(0), "t")
	if _, err := g.ToggleAccess("u01"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("non-host toggle: got %v, want ErrForbidden", err)
	}

	was := g.IsPrivate
	if _, err := g.ToggleAccess("u00"); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if _, err := g.ToggleAccess("u00"); err != nil {
		t.Fatalf("toggle: %v", err)
	}

	if g.IsPrivate != was {
		t.Fatalf("double toggle did not round-trip: %v -> %v", was, g.IsPrivate)
	}
	if n := countEvents(g, EvtToggle); n != 2 {
		t.Fatalf("want exactly 2 %s entries, got %d", EvtToggle, n)
	}
}

func TestToggleToPublic_DoesNotAutoAccept(t *testing.T) {
	g := New(member(0), "t")
	if _, err := g.Join(member(1)); err != nil {
		t.Fatalf("join: %v", err)
	}

	if _, err := g.ToggleAccess("u00"); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if g.IsPrivate {
		t.Fatalf("expected public after toggle")
	}
	if len(g.Requests()) != 1 {
		t.Fatalf("pending request dropped by toggle: %v", g.Requests())
	}
	if g.RosterSize() != 1 {
		t.Fatalf("toggle mutated roster: size %d", g.RosterSize())
	}
}

func TestMutateAfterDeletePanics(t *testing.T) {
	g := publicGame(2)
	g.MarkDeleted()

	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic on mutation after delete")
		}
	}()
	_, _ = g.Join(member(9))
}

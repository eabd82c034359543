package game

import (
	"errors"
	"math/rand"
	"time"
)

var ErrAlreadyMember = errors.New("already in the game lobby")
var ErrRequestPending = errors.New("join request already pending")
var ErrSessionFull = errors.New("the game is full")
var ErrCannotLeaveAsHost = errors.New("cannot leave the game as host")
var ErrNotMember = errors.New("not in the game")
var ErrForbidden = errors.New("not the host of this game")
var ErrNotFound = errors.New("no such join request")

// MaxRoster is the hard cap on roster size, host included.
const MaxRoster = 15

type Participant struct {
	ID          string
	DisplayName string
	AvatarURL   string
}

type EventType string

const (
	EvtJoin         EventType = "roster:join"
	EvtLeave        EventType = "roster:leave"
	EvtAccept       EventType = "request:accept"
	EvtDecline      EventType = "request:decline"
	EvtToggle       EventType = "access:toggle"
	EvtVoteBegin    EventType = "vote:begin"
	EvtVoteAdd      EventType = "vote:add"
	EvtVoteChange   EventType = "vote:change"
	EvtVoteWithdraw EventType = "vote:withdraw"
	EvtVoteResult   EventType = "vote:result"
)

// LogEntry is one record in a game's append-only event log.
type LogEntry struct {
	Type    EventType      `json:"type"`
	At      time.Time      `json:"at"`
	Context map[string]any `json:"context,omitempty"`
}

// Game holds one lobby's roster, pending join requests and event log.
// Index 0 of the roster is always the host; host identity is derived from
// the roster, never stored separately.
type Game struct {
	ID        string // surface id, empty until the lobby is provisioned
	Title     string
	Color     int
	IsPrivate bool

	// Opaque handles to the externally rendered views that must be
	// refreshed on state change.
	PostRef   string
	PromptRef string

	players  []Participant
	requests []Participant
	log      []LogEntry
	deleted  bool
}

// JoinOutcome reports which path a Join took.
type JoinOutcome int

const (
	JoinedRoster JoinOutcome = iota
	RequestQueued
)

// New builds an unregistered game with the host as the only roster member.
// Games start private.
func New(host Participant, title string) *Game {
	return &Game{
		Title:     title,
		Color:     rand.Intn(0x1000000),
		IsPrivate: true,
		players:   []Participant{host},
	}
}

// Host returns roster index 0.
func (g *Game) Host() Participant {
	return g.players[0]
}

// Players returns a copy of the roster in join order.
func (g *Game) Players() []Participant {
	out := make([]Participant, len(g.players))
	copy(out, g.players)
	return out
}

// Requests returns a copy of the pending join requests in arrival order.
func (g *Game) Requests() []Participant {
	out := make([]Participant, len(g.requests))
	copy(out, g.requests)
	return out
}

func (g *Game) RosterSize() int { return len(g.players) }

func (g *Game) IsMember(id string) bool {
	return g.memberIndex(id) >= 0
}

func (g *Game) memberIndex(id string) int {
	for i, p := range g.players {
		if p.ID == id {
			return i
		}
	}
	return -1
}

func (g *Game) requestIndex(id string) int {
	for i, p := range g.requests {
		if p.ID == id {
			return i
		}
	}
	return -1
}

// RosterIDs returns the roster's participant ids in join order.
func (g *Game) RosterIDs() []string {
	ids := make([]string, len(g.players))
	for i, p := range g.players {
		ids[i] = p.ID
	}
	return ids
}

// Log returns a copy of the event log.
func (g *Game) Log() []LogEntry {
	out := make([]LogEntry, len(g.log))
	copy(out, g.log)
	return out
}

// Record appends an entry to the event log. The log is append-only; nothing
// ever mutates or prunes it while the game is live.
func (g *Game) Record(t EventType, ctx map[string]any) {
	g.assertLive()
	g.log = append(g.log, LogEntry{Type: t, At: time.Now(), Context: ctx})
}

// Join adds the actor to the roster, or queues a join request when the game
// is private. Queued requests do not touch the roster.
func (g *Game) Join(actor Participant) (JoinOutcome, error) {
	g.assertLive()

	if g.IsMember(actor.ID) {
		return 0, ErrAlreadyMember
	}
	if g.requestIndex(actor.ID) >= 0 {
		return 0, ErrRequestPending
	}
	if len(g.players) >= MaxRoster {
		return 0, ErrSessionFull
	}

	if g.IsPrivate {
		g.requests = append(g.requests, actor)
		return RequestQueued, nil
	}

	g.players = append(g.players, actor)
	g.Record(EvtJoin, map[string]any{"user": actor.ID})
	return JoinedRoster, nil
}

// Leave removes the actor from the roster with a positional splice; the
// order of the remaining members is preserved. The host can never leave.
func (g *Game) Leave(actorID string) error {
	g.assertLive()

	i := g.memberIndex(actorID)
	if i == 0 {
		return ErrCannotLeaveAsHost
	}
	if i < 0 {
		return ErrNotMember
	}

	g.players = append(g.players[:i], g.players[i+1:]...)
	g.Record(EvtLeave, map[string]any{"user": actorID})
	return nil
}

// Accept moves a pending request onto the roster. Host only.
func (g *Game) Accept(actorID, requestID string) (Participant, error) {
	g.assertLive()

	if g.Host().ID != actorID {
		return Participant{}, ErrForbidden
	}
	i := g.requestIndex(requestID)
	if i < 0 {
		return Participant{}, ErrNotFound
	}
	if len(g.players) >= MaxRoster {
		return Participant{}, ErrSessionFull
	}

	member := g.requests[i]
	g.requests = append(g.requests[:i], g.requests[i+1:]...)
	g.players = append(g.players, member)
	g.Record(EvtAccept, map[string]any{"user": member.ID, "host": actorID})
	return member, nil
}

// Decline drops a pending request. Host only.
func (g *Game) Decline(actorID, requestID string) (Participant, error) {
	g.assertLive()

	if g.Host().ID != actorID {
		return Participant{}, ErrForbidden
	}
	i := g.requestIndex(requestID)
	if i < 0 {
		return Participant{}, ErrNotFound
	}

	member := g.requests[i]
	g.requests = append(g.requests[:i], g.requests[i+1:]...)
	g.Record(EvtDecline, map[string]any{"user": member.ID, "host": actorID})
	return member, nil
}

// ToggleAccess flips the privacy flag and nothing else: a flip to public
// does not auto-accept pending requests. Host only. Returns the new value.
func (g *Game) ToggleAccess(actorID string) (bool, error) {
	g.assertLive()

	if g.Host().ID != actorID {
		return false, ErrForbidden
	}

	g.IsPrivate = !g.IsPrivate
	g.Record(EvtToggle, map[string]any{"private": g.IsPrivate, "host": actorID})
	return g.IsPrivate, nil
}

// MarkDeleted invalidates the game. Any mutation afterwards is a programmer
// error, not a user-facing one.
func (g *Game) MarkDeleted() {
	g.assertLive()
	g.deleted = true
	g.PostRef = ""
	g.PromptRef = ""
}

func (g *Game) assertLive() {
	if g.deleted {
		panic("game: mutated after deletion")
	}
}

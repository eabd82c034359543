// Package view turns game and ballot state into display payloads. Rendering
// is pure: the core decides what to push, the transport decides how to show
// it.
package view

import (
	"fmt"

	"github.com/campfire-games/lobby-backend/internal/ballot"
	"github.com/campfire-games/lobby-backend/internal/game"
)

type Kind string

const (
	KindSession Kind = "session"
	KindBallot  Kind = "ballot"
	KindResult  Kind = "result"
	KindRequest Kind = "request"
	KindPrompt  Kind = "prompt"
	KindDeleted Kind = "deleted"
)

// Payload is one pushable view update.
type Payload struct {
	Kind    Kind         `json:"kind"`
	Session *SessionView `json:"session,omitempty"`
	Ballot  *BallotView  `json:"ballot,omitempty"`
	Result  *ResultView  `json:"result,omitempty"`
	Request *RequestView `json:"request,omitempty"`
	Prompt  *PromptView  `json:"prompt,omitempty"`
}

type RosterRow struct {
	Position int    `json:"position"` // 1-based, position 1 is the host
	ID       string `json:"id"`
	Name     string `json:"name"`
}

type SessionView struct {
	SessionID    string      `json:"session_id"`
	Title        string      `json:"title"`
	HostName     string      `json:"host_name"`
	HostAvatar   string      `json:"host_avatar,omitempty"`
	Color        int         `json:"color"`
	Private      bool        `json:"private"`
	Roster       []RosterRow `json:"roster"`
	Capacity     int         `json:"capacity"`
	Pending      int         `json:"pending"`
	JoinEnabled  bool        `json:"join_enabled"`
	LeaveEnabled bool        `json:"leave_enabled"`
}

type BallotView struct {
	Surface  string      `json:"surface"`
	Cast     int         `json:"cast"`
	Eligible int         `json:"eligible"`
	Progress string      `json:"progress"` // "(n / m)"
	Options  []RosterRow `json:"options"`
}

type TargetCount struct {
	ID    string `json:"id"`
	Votes int    `json:"votes"`
}

type ResultView struct {
	Surface string        `json:"surface"`
	Kind    string        `json:"kind"` // inconclusive | unanimous | split
	Summary string        `json:"summary"`
	Counts  []TargetCount `json:"counts,omitempty"`
}

type RequestView struct {
	SessionID     string `json:"session_id"`
	RequesterID   string `json:"requester_id"`
	RequesterName string `json:"requester_name"`
	Color         int    `json:"color"`
}

type PromptView struct {
	CommunityID string `json:"community_id"`
	Enabled     bool   `json:"enabled"`
}

// Session renders the roster post: numbered rows, n/15 counter, and the
// join/leave button states (join disabled at capacity, leave disabled while
// only the host remains).
func Session(g *game.Game) SessionView {
	players := g.Players()
	host := g.Host()

	roster := make([]RosterRow, len(players))
	for i, p := range players {
		roster[i] = RosterRow{Position: i + 1, ID: p.ID, Name: p.DisplayName}
	}

	return SessionView{
		SessionID:    g.ID,
		Title:        g.Title,
		HostName:     host.DisplayName,
		HostAvatar:   host.AvatarURL,
		Color:        g.Color,
		Private:      g.IsPrivate,
		Roster:       roster,
		Capacity:     game.MaxRoster,
		Pending:      len(g.Requests()),
		JoinEnabled:  len(players) < game.MaxRoster,
		LeaveEnabled: len(players) > 1,
	}
}

// Ballot renders the live vote progress for a session's roster.
func Ballot(g *game.Game, b *ballot.Ballot, surface string) BallotView {
	players := g.Players()
	options := make([]RosterRow, len(players))
	for i, p := range players {
		options[i] = RosterRow{Position: i + 1, ID: p.ID, Name: p.DisplayName}
	}

	return BallotView{
		Surface:  surface,
		Cast:     b.CastCount(),
		Eligible: b.EligibleCount(),
		Progress: fmt.Sprintf("(%d / %d)", b.CastCount(), b.EligibleCount()),
		Options:  options,
	}
}

// Result renders a resolved outcome.
func Result(out ballot.Outcome, surface string) ResultView {
	v := ResultView{Surface: surface}

	counts := make([]TargetCount, 0, len(out.Targets))
	for _, id := range out.Targets {
		counts = append(counts, TargetCount{ID: id, Votes: out.Counts[id]})
	}
	v.Counts = counts

	switch out.Kind {
	case ballot.Inconclusive:
		v.Kind = "inconclusive"
		v.Summary = "The vote was inconclusive."
	case ballot.Unanimous:
		v.Kind = "unanimous"
		v.Summary = fmt.Sprintf("It was a unanimous vote for %s.", out.Target())
	case ballot.Split:
		v.Kind = "split"
		v.Summary = fmt.Sprintf("It was a split vote between %s.", JoinListTail(out.Targets, ", ", " and "))
	}
	return v
}

// Request renders the host-facing join request card.
func Request(g *game.Game, requester game.Participant) RequestView {
	return RequestView{
		SessionID:     g.ID,
		RequesterID:   requester.ID,
		RequesterName: requester.DisplayName,
		Color:         g.Color,
	}
}

// JoinListTail joins a list with a different connector before the last item:
// "a, b and c".
func JoinListTail(list []string, connector, tail string) string {
	switch len(list) {
	case 0:
		return ""
	case 1:
		return list[0]
	}

	out := list[0]
	for _, item := range list[1 : len(list)-1] {
		out += connector + item
	}
	return out + tail + list[len(list)-1]
}

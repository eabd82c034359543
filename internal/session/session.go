// Package session wraps one game in an actor loop. Every read-then-write
// against a session or its ballot goes through the inbox, so exactly one
// mutation is in flight per session at any time.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/campfire-games/lobby-backend/internal/audit"
	"github.com/campfire-games/lobby-backend/internal/ballot"
	"github.com/campfire-games/lobby-backend/internal/game"
	"github.com/campfire-games/lobby-backend/internal/notify"
	"github.com/campfire-games/lobby-backend/internal/view"
)

var ErrGone = errors.New("session no longer exists")
var ErrBallotActive = errors.New("a vote is already in progress")

const notifyTimeout = 3 * time.Second

type Msg interface{ isSessionMsg() }

// Result is the short reply reported back to the acting user.
type Result struct {
	Msg string
	Err error
}

type Join struct {
	Actor game.Participant
	Reply chan Result
}

type Leave struct {
	ActorID string
	Reply   chan Result
}

type Accept struct {
	ActorID   string
	RequestID string
	Reply     chan Result
}

type Decline struct {
	ActorID   string
	RequestID string
	Reply     chan Result
}

type ToggleAccess struct {
	ActorID string
	Reply   chan Result
}

type Delete struct {
	ActorID string
	Reply   chan Result
}

type OpenBallot struct {
	ActorID  string
	Surface  string
	Duration time.Duration
	Reply    chan Result
}

type CastVote struct {
	VoterID  string
	TargetID string // ballot.Withdraw to take a vote back
	Reply    chan Result
}

type Subscribe struct {
	ClientID string
	Outbox   chan view.Payload
}

type Unsubscribe struct{ ClientID string }

type GetInfo struct{ Reply chan Info }

type Shutdown struct{}

type ballotExpired struct{ gen int }

func (Join) isSessionMsg()          {}
func (Leave) isSessionMsg()         {}
func (Accept) isSessionMsg()        {}
func (Decline) isSessionMsg()       {}
func (ToggleAccess) isSessionMsg()  {}
func (Delete) isSessionMsg()        {}
func (OpenBallot) isSessionMsg()    {}
func (CastVote) isSessionMsg()      {}
func (Subscribe) isSessionMsg()     {}
func (Unsubscribe) isSessionMsg()   {}
func (GetInfo) isSessionMsg()       {}
func (Shutdown) isSessionMsg()      {}
func (ballotExpired) isSessionMsg() {}

// Info is a race-free reflection of internal state for tests and handlers.
type Info struct {
	SessionID   string
	Title       string
	RosterIDs   []string
	Pending     int
	Private     bool
	BallotOpen  bool
	Subscribers int
	LogLen      int
}

// Reporter receives roster membership changes so the registry can keep its
// membership index and lobby prompt state current.
type Reporter interface {
	RosterChanged(sessionID, communityID string, memberIDs []string)
	SessionDeleted(sessionID, communityID string)
}

type Options struct {
	Logger   *zap.Logger
	Notifier notify.Notifier
	Reporter Reporter
	Audit    audit.Exporter
	// OnBallotClosed unbinds the ballot's scoped action handlers once the
	// ballot resolves or the session dies.
	OnBallotClosed func(surface string)
	Clock          func() time.Time
}

type Session struct {
	inbox chan Msg

	g           *game.Game
	communityID string

	b             *ballot.Ballot
	ballotSurface string
	ballotGen     int
	ballotTimer   *time.Timer

	subs map[string]chan view.Payload
	opts Options

	ctx    context.Context
	cancel context.CancelFunc
}

// New starts the actor for an already provisioned game (g.ID must be set).
func New(parent context.Context, g *game.Game, communityID string, opts Options) *Session {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Notifier == nil {
		opts.Notifier = notify.Nop{}
	}
	if opts.Audit == nil {
		opts.Audit = audit.Nop{}
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}

	ctx, cancel := context.WithCancel(parent)
	s := &Session{
		inbox:       make(chan Msg, 64),
		g:           g,
		communityID: communityID,
		subs:        make(map[string]chan view.Payload),
		opts:        opts,
		ctx:         ctx,
		cancel:      cancel,
	}
	go s.loop()
	return s
}

func (s *Session) ID() string          { return s.g.ID }
func (s *Session) CommunityID() string { return s.communityID }

func (s *Session) Inbox() chan<- Msg     { return s.inbox }
func (s *Session) Done() <-chan struct{} { return s.ctx.Done() }

// Ask sends a message and waits for the reply, failing fast when the session
// has already shut down.
func (s *Session) Ask(msg Msg, reply chan Result) Result {
	select {
	case s.inbox <- msg:
	case <-s.ctx.Done():
		return Result{Err: ErrGone}
	}
	select {
	case r := <-reply:
		return r
	case <-s.ctx.Done():
		// the reply may have been sent right before shutdown
		select {
		case r := <-reply:
			return r
		default:
			return Result{Err: ErrGone}
		}
	}
}

func (s *Session) loop() {
	for {
		select {
		case <-s.ctx.Done():
			s.shutdown()
			return

		case m := <-s.inbox:
			switch msg := m.(type) {
			case Subscribe:
				// same drop policy as broadcast: a subscriber that cannot
				// take the snapshot must not stall the loop
				snap := view.Session(s.g)
				select {
				case msg.Outbox <- view.Payload{Kind: view.KindSession, Session: &snap}:
					s.subs[msg.ClientID] = msg.Outbox
				default:
					close(msg.Outbox)
				}

			case Unsubscribe:
				if ch, ok := s.subs[msg.ClientID]; ok {
					delete(s.subs, msg.ClientID)
					close(ch)
				}

			case Join:
				msg.Reply <- s.handleJoin(msg.Actor)

			case Leave:
				msg.Reply <- s.handleLeave(msg.ActorID)

			case Accept:
				msg.Reply <- s.handleAccept(msg.ActorID, msg.RequestID)

			case Decline:
				msg.Reply <- s.handleDecline(msg.ActorID, msg.RequestID)

			case ToggleAccess:
				msg.Reply <- s.handleToggle(msg.ActorID)

			case OpenBallot:
				msg.Reply <- s.handleOpenBallot(msg)

			case CastVote:
				msg.Reply <- s.handleCast(msg.VoterID, msg.TargetID)

			case ballotExpired:
				// drop stale fires from a previous ballot's timer
				if msg.gen != s.ballotGen || s.b == nil {
					break
				}
				s.resolveBallot()

			case Delete:
				res, deleted := s.handleDelete(msg.ActorID)
				msg.Reply <- res
				if deleted {
					s.shutdown()
					return
				}

			case GetInfo:
				msg.Reply <- Info{
					SessionID:   s.g.ID,
					Title:       s.g.Title,
					RosterIDs:   s.g.RosterIDs(),
					Pending:     len(s.g.Requests()),
					Private:     s.g.IsPrivate,
					BallotOpen:  s.b != nil,
					Subscribers: len(s.subs),
					LogLen:      len(s.g.Log()),
				}

			case Shutdown:
				s.shutdown()
				return
			}
		}
	}
}

func (s *Session) handleJoin(actor game.Participant) Result {
	outcome, err := s.g.Join(actor)
	if err != nil {
		return Result{Err: err}
	}

	if outcome == game.RequestQueued {
		req := view.Request(s.g, actor)
		s.broadcast(view.Payload{Kind: view.KindRequest, Request: &req})
		return Result{Msg: "Your request has been sent."}
	}

	s.broadcastSession()
	s.reportRoster()
	return Result{Msg: "You have joined the game."}
}

func (s *Session) handleLeave(actorID string) Result {
	if err := s.g.Leave(actorID); err != nil {
		return Result{Err: err}
	}
	s.broadcastSession()
	s.reportRoster()
	return Result{Msg: "You have left the game."}
}

func (s *Session) handleAccept(actorID, requestID string) Result {
	member, err := s.g.Accept(actorID, requestID)
	if err != nil {
		return Result{Err: err}
	}

	s.broadcastSession()
	s.reportRoster()
	s.notify(member.ID, fmt.Sprintf("Your request to join '%s' has been accepted.", s.g.Title))
	return Result{Msg: fmt.Sprintf("%s has joined the game.", member.DisplayName)}
}

func (s *Session) handleDecline(actorID, requestID string) Result {
	member, err := s.g.Decline(actorID, requestID)
	if err != nil {
		return Result{Err: err}
	}

	s.notify(member.ID, fmt.Sprintf("Your request to join '%s' has been declined.", s.g.Title))
	return Result{Msg: "Request declined."}
}

func (s *Session) handleToggle(actorID string) Result {
	private, err := s.g.ToggleAccess(actorID)
	if err != nil {
		return Result{Err: err}
	}

	s.broadcastSession()
	if private {
		return Result{Msg: "Game is now private."}
	}
	return Result{Msg: "Game is now public."}
}

func (s *Session) handleOpenBallot(msg OpenBallot) Result {
	if !s.g.IsMember(msg.ActorID) {
		return Result{Err: game.ErrNotMember}
	}
	if s.b != nil {
		return Result{Err: ErrBallotActive}
	}

	now := s.opts.Clock()
	s.b = ballot.Open(s.g.RosterIDs(), now, msg.Duration)
	s.ballotSurface = msg.Surface
	s.ballotGen++
	s.g.Record(game.EvtVoteBegin, map[string]any{
		"id":          msg.Surface,
		"requestedBy": msg.ActorID,
	})

	gen := s.ballotGen
	s.ballotTimer = time.AfterFunc(msg.Duration, func() {
		select {
		case s.inbox <- ballotExpired{gen: gen}:
		case <-s.ctx.Done():
		}
	})

	s.broadcastBallot()
	return Result{Msg: "A vote has begun."}
}

func (s *Session) handleCast(voterID, targetID string) Result {
	if s.b == nil {
		return Result{Err: ballot.ErrVoteClosed}
	}

	res, err := s.b.Cast(voterID, targetID, s.opts.Clock())
	if err != nil {
		return Result{Err: err}
	}

	switch res.Status {
	case ballot.CastNoVote:
		return Result{Msg: "You have not voted yet."}

	case ballot.CastUnchanged:
		return Result{Msg: "Unchanged."}

	case ballot.CastWithdrawn:
		s.g.Record(game.EvtVoteWithdraw, map[string]any{
			"id":      s.ballotSurface,
			"user":    voterID,
			"oldVote": res.Prev,
		})
		s.broadcastBallot()
		return Result{Msg: "Your vote has been withdrawn."}

	case ballot.CastChanged:
		s.g.Record(game.EvtVoteChange, map[string]any{
			"id":      s.ballotSurface,
			"user":    voterID,
			"newVote": targetID,
			"oldVote": res.Prev,
		})

	default: // CastAdded
		s.g.Record(game.EvtVoteAdd, map[string]any{
			"id":      s.ballotSurface,
			"user":    voterID,
			"newVote": targetID,
		})
	}

	s.broadcastBallot()
	return Result{Msg: fmt.Sprintf("You have voted for %s.", targetID)}
}

func (s *Session) resolveBallot() {
	surface := s.ballotSurface
	out := s.b.Resolve()

	s.g.Record(game.EvtVoteResult, map[string]any{
		"id":     surface,
		"ballot": s.b.Votes(),
	})

	result := view.Result(out, surface)
	s.broadcast(view.Payload{Kind: view.KindResult, Result: &result})

	s.b = nil
	s.ballotSurface = ""
	if s.opts.OnBallotClosed != nil {
		s.opts.OnBallotClosed(surface)
	}
}

func (s *Session) handleDelete(actorID string) (Result, bool) {
	if s.g.Host().ID != actorID {
		return Result{Err: game.ErrForbidden}, false
	}

	// export the log before the game is invalidated; failure is logged and
	// swallowed, deletion still proceeds
	ctx, cancel := context.WithTimeout(s.ctx, notifyTimeout)
	if err := s.opts.Audit.Export(ctx, s.g.ID, s.g.Title, s.g.Log()); err != nil {
		s.opts.Logger.Warn("audit export failed, continuing anyway",
			zap.String("session", s.g.ID), zap.Error(err))
	}
	cancel()

	s.g.MarkDeleted()
	s.broadcast(view.Payload{Kind: view.KindDeleted})

	if s.opts.Reporter != nil {
		s.opts.Reporter.SessionDeleted(s.g.ID, s.communityID)
	}
	return Result{Msg: "Game deleted."}, true
}

func (s *Session) shutdown() {
	if s.ballotTimer != nil {
		s.ballotTimer.Stop()
	}
	if s.ballotSurface != "" && s.opts.OnBallotClosed != nil {
		s.opts.OnBallotClosed(s.ballotSurface)
	}
	for id, ch := range s.subs {
		close(ch)
		delete(s.subs, id)
	}
	s.cancel()
}

func (s *Session) broadcastSession() {
	snap := view.Session(s.g)
	s.broadcast(view.Payload{Kind: view.KindSession, Session: &snap})
}

func (s *Session) broadcastBallot() {
	snap := view.Ballot(s.g, s.b, s.ballotSurface)
	s.broadcast(view.Payload{Kind: view.KindBallot, Ballot: &snap})
}

func (s *Session) broadcast(p view.Payload) {
	for id, ch := range s.subs {
		select {
		case ch <- p:
		default:
			// slow or full subscriber, drop it
			close(ch)
			delete(s.subs, id)
		}
	}
}

func (s *Session) reportRoster() {
	if s.opts.Reporter != nil {
		s.opts.Reporter.RosterChanged(s.g.ID, s.communityID, s.g.RosterIDs())
	}
}

func (s *Session) notify(participantID, message string) {
	ctx, cancel := context.WithTimeout(s.ctx, notifyTimeout)
	defer cancel()
	if err := s.opts.Notifier.Notify(ctx, participantID, message); err != nil {
		s.opts.Logger.Warn("could not notify participant, continuing anyway",
			zap.String("participant", participantID), zap.Error(err))
	}
}

// Package hub is the process-wide session registry: the table of live
// sessions, the membership index behind the one-session-per-participant
// rule, and the per-community lobby prompt state. It is an explicit object
// injected into everything that needs it, never ambient global state.
package hub

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/campfire-games/lobby-backend/internal/game"
	"github.com/campfire-games/lobby-backend/internal/session"
	"github.com/campfire-games/lobby-backend/internal/view"
)

var ErrAlreadyInSession = errors.New("already in a game")

// LobbyConfig tracks, per community, the surfaces behind the public "start
// a session" prompt.
type LobbyConfig struct {
	CommunityID string
	ChannelRef  string // channel carrying lobby posts
	CategoryRef string // category hosting session surfaces
	PromptRef   string // the "New Game" prompt message
}

// RosterStatus is what the prompt policy sees of each live session.
type RosterStatus struct {
	SessionID string
	Size      int
}

// PromptPolicy decides whether a community's "start a session" prompt is
// enabled given its live sessions. Supplied by the caller, not hardcoded.
type PromptPolicy func(sessions []RosterStatus) bool

// DefaultPromptPolicy disables the prompt while any session is still
// waiting on its first non-host member.
func DefaultPromptPolicy(sessions []RosterStatus) bool {
	for _, s := range sessions {
		if s.Size <= 1 {
			return false
		}
	}
	return true
}

// PromptSink is told when a community's prompt flips between enabled and
// disabled so the transport can refresh it.
type PromptSink interface {
	PromptChanged(v view.PromptView)
}

type Msg interface{ isHubMsg() }

// CreateSession is phase one of the two-phase create: scan the membership
// index and build an unregistered game. Registration happens only after the
// caller provisioned the session's surface, so a failed provision never
// leaves a half-registered session behind.
type CreateSession struct {
	Host  game.Participant
	Title string
	Reply chan CreateReply
}

type CreateReply struct {
	Game *game.Game
	Err  error
}

// Register is phase two: insert the provisioned session into the table.
// When two creates raced for the same host, whichever registers first wins
// and the loser is refused here, never registered.
type Register struct {
	Sess   *session.Session
	HostID string
	Reply  chan error
}

type Get struct {
	ID    string
	Reply chan *session.Session
}

type Remove struct{ ID string }

type SetLobby struct {
	Config LobbyConfig
	Reply  chan LobbyReply
}

type GetLobby struct {
	CommunityID string
	Reply       chan LobbyReply
}

type LobbyReply struct {
	Config        LobbyConfig
	OK            bool
	PromptEnabled bool
}

type ShutdownHub struct{}

type rosterChanged struct {
	sessionID   string
	communityID string
	members     []string
}

type sessionDeleted struct {
	sessionID   string
	communityID string
}

func (CreateSession) isHubMsg()  {}
func (Register) isHubMsg()       {}
func (Get) isHubMsg()            {}
func (Remove) isHubMsg()         {}
func (SetLobby) isHubMsg()       {}
func (GetLobby) isHubMsg()       {}
func (ShutdownHub) isHubMsg()    {}
func (rosterChanged) isHubMsg()  {}
func (sessionDeleted) isHubMsg() {}

type Options struct {
	Logger *zap.Logger
	Policy PromptPolicy
	Sink   PromptSink
}

type Hub struct {
	inbox chan Msg

	sessions    map[string]*session.Session
	members     map[string]string // participant id -> session id
	rosters     map[string]RosterStatus
	byCommunity map[string]map[string]bool // community id -> session ids
	lobbies     map[string]LobbyConfig
	promptOn    map[string]bool

	opts   Options
	ctx    context.Context
	cancel context.CancelFunc
}

func NewHub(parent context.Context, opts Options) *Hub {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Policy == nil {
		opts.Policy = DefaultPromptPolicy
	}

	ctx, cancel := context.WithCancel(parent)
	h := &Hub{
		inbox:       make(chan Msg, 64),
		sessions:    make(map[string]*session.Session),
		members:     make(map[string]string),
		rosters:     make(map[string]RosterStatus),
		byCommunity: make(map[string]map[string]bool),
		lobbies:     make(map[string]LobbyConfig),
		promptOn:    make(map[string]bool),
		opts:        opts,
		ctx:         ctx,
		cancel:      cancel,
	}
	go h.loop()
	return h
}

func (h *Hub) Inbox() chan<- Msg { return h.inbox }

// RosterChanged implements session.Reporter.
func (h *Hub) RosterChanged(sessionID, communityID string, memberIDs []string) {
	select {
	case h.inbox <- rosterChanged{sessionID: sessionID, communityID: communityID, members: memberIDs}:
	case <-h.ctx.Done():
	}
}

// SessionDeleted implements session.Reporter.
func (h *Hub) SessionDeleted(sessionID, communityID string) {
	select {
	case h.inbox <- sessionDeleted{sessionID: sessionID, communityID: communityID}:
	case <-h.ctx.Done():
	}
}

func (h *Hub) loop() {
	for {
		select {
		case <-h.ctx.Done():
			h.shutdown()
			return

		case m := <-h.inbox:
			switch msg := m.(type) {
			case CreateSession:
				if _, in := h.members[msg.Host.ID]; in {
					msg.Reply <- CreateReply{Err: ErrAlreadyInSession}
					break
				}
				title := msg.Title
				if title == "" {
					title = game.PhoneticPair()
				}
				msg.Reply <- CreateReply{Game: game.New(msg.Host, title)}

			case Register:
				if sid, in := h.members[msg.HostID]; in {
					h.opts.Logger.Info("refusing registration, host already committed elsewhere",
						zap.String("host", msg.HostID), zap.String("session", sid))
					msg.Reply <- ErrAlreadyInSession
					break
				}
				id := msg.Sess.ID()
				community := msg.Sess.CommunityID()
				h.sessions[id] = msg.Sess
				h.members[msg.HostID] = id
				h.rosters[id] = RosterStatus{SessionID: id, Size: 1}
				if h.byCommunity[community] == nil {
					h.byCommunity[community] = make(map[string]bool)
				}
				h.byCommunity[community][id] = true
				h.refreshPrompt(community)
				msg.Reply <- nil

			case Get:
				msg.Reply <- h.sessions[msg.ID] // may be nil

			case Remove:
				if s, ok := h.sessions[msg.ID]; ok {
					community := s.CommunityID()
					h.forget(msg.ID, community)
					h.refreshPrompt(community)
				}

			case SetLobby:
				prev, ok := h.lobbies[msg.Config.CommunityID]
				h.lobbies[msg.Config.CommunityID] = msg.Config
				h.refreshPrompt(msg.Config.CommunityID)
				msg.Reply <- LobbyReply{
					Config:        prev,
					OK:            ok,
					PromptEnabled: h.promptEnabled(msg.Config.CommunityID),
				}

			case GetLobby:
				cfg, ok := h.lobbies[msg.CommunityID]
				msg.Reply <- LobbyReply{
					Config:        cfg,
					OK:            ok,
					PromptEnabled: h.promptEnabled(msg.CommunityID),
				}

			case rosterChanged:
				for pid, sid := range h.members {
					if sid == msg.sessionID {
						delete(h.members, pid)
					}
				}
				for _, pid := range msg.members {
					h.members[pid] = msg.sessionID
				}
				h.rosters[msg.sessionID] = RosterStatus{SessionID: msg.sessionID, Size: len(msg.members)}
				h.refreshPrompt(msg.communityID)

			case sessionDeleted:
				h.forget(msg.sessionID, msg.communityID)
				h.refreshPrompt(msg.communityID)

			case ShutdownHub:
				for _, s := range h.sessions {
					select {
					case s.Inbox() <- session.Shutdown{}:
					default:
					}
				}
				h.shutdown()
				return
			}
		}
	}
}

func (h *Hub) forget(sessionID, communityID string) {
	delete(h.sessions, sessionID)
	delete(h.rosters, sessionID)
	for pid, sid := range h.members {
		if sid == sessionID {
			delete(h.members, pid)
		}
	}
	if set := h.byCommunity[communityID]; set != nil {
		delete(set, sessionID)
	}
}

func (h *Hub) promptEnabled(communityID string) bool {
	on, known := h.promptOn[communityID]
	if !known {
		return h.opts.Policy(nil)
	}
	return on
}

func (h *Hub) refreshPrompt(communityID string) {
	var statuses []RosterStatus
	for sid := range h.byCommunity[communityID] {
		statuses = append(statuses, h.rosters[sid])
	}

	enabled := h.opts.Policy(statuses)
	prev, known := h.promptOn[communityID]
	h.promptOn[communityID] = enabled

	if known && prev == enabled {
		return
	}
	if _, configured := h.lobbies[communityID]; !configured {
		return
	}
	if h.opts.Sink != nil {
		h.opts.Sink.PromptChanged(view.PromptView{CommunityID: communityID, Enabled: enabled})
	}
}

func (h *Hub) shutdown() {
	clear(h.sessions)
	h.cancel()
}

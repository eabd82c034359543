// Package handlers binds dispatcher actions to the registry and the session
// actors. Each handler resolves its surface to a live session, sends one
// typed message, and reports the session's reply back to the acting user.
package handlers

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/campfire-games/lobby-backend/internal/audit"
	"github.com/campfire-games/lobby-backend/internal/directory"
	"github.com/campfire-games/lobby-backend/internal/dispatch"
	"github.com/campfire-games/lobby-backend/internal/game"
	"github.com/campfire-games/lobby-backend/internal/hub"
	"github.com/campfire-games/lobby-backend/internal/notify"
	"github.com/campfire-games/lobby-backend/internal/provision"
	"github.com/campfire-games/lobby-backend/internal/session"
)

// Directory resolves an actor id to display identity.
type Directory interface {
	Lookup(participantID string) (directory.Identity, bool)
}

type Deps struct {
	// Base is the parent context new session actors run under; it outlives
	// any single request.
	Base      context.Context
	Hub       *hub.Hub
	Dispatch  *dispatch.Dispatcher
	Provision provision.Provisioner
	Directory Directory
	Notifier  notify.Notifier
	Audit     audit.Exporter
	Logger    *zap.Logger

	// BallotDuration is used when a vote request carries no duration.
	BallotDuration time.Duration
}

// RegisterAll installs the global action handlers.
func RegisterAll(d Deps) {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.BallotDuration <= 0 {
		d.BallotDuration = 5 * time.Minute
	}

	d.Dispatch.Register(dispatch.ActionNewSession, newSession(d))
	d.Dispatch.Register(dispatch.ActionJoin, join(d))
	d.Dispatch.Register(dispatch.ActionLeave, leave(d))
	d.Dispatch.Register(dispatch.ActionAccept, accept(d))
	d.Dispatch.Register(dispatch.ActionDecline, decline(d))
	d.Dispatch.Register(dispatch.ActionToggleAccess, toggleAccess(d))
	d.Dispatch.Register(dispatch.ActionDelete, deleteSession(d))
	d.Dispatch.Register(dispatch.ActionVote, openVote(d))
}

func (d Deps) identity(actorID string) game.Participant {
	if id, ok := d.Directory.Lookup(actorID); ok {
		return game.Participant{ID: id.ID, DisplayName: id.DisplayName, AvatarURL: id.AvatarURL}
	}
	return game.Participant{ID: actorID, DisplayName: actorID}
}

// resolve finds the live session behind a surface.
func (d Deps) resolve(sessionID string) (*session.Session, error) {
	reply := make(chan *session.Session, 1)
	d.Hub.Inbox() <- hub.Get{ID: sessionID, Reply: reply}
	s := <-reply
	if s == nil {
		return nil, session.ErrGone
	}
	return s, nil
}

func toResult(r session.Result) dispatch.Result {
	return dispatch.Result{Msg: r.Msg, Err: r.Err}
}

package handlers

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/campfire-games/lobby-backend/internal/dispatch"
	"github.com/campfire-games/lobby-backend/internal/hub"
	"github.com/campfire-games/lobby-backend/internal/session"
)

// newSession runs the two-phase create: the registry scans membership and
// builds the game, the provisioner allocates the session's surface, and only
// then does the session register. A host who raced a second create loses at
// registration and the orphaned actor is shut down before anyone saw it.
func newSession(d Deps) dispatch.HandlerFunc {
	return func(ctx context.Context, req dispatch.Request) dispatch.Result {
		host := d.identity(req.ActorID)

		createReply := make(chan hub.CreateReply, 1)
		d.Hub.Inbox() <- hub.CreateSession{Host: host, Title: req.Payload["title"], Reply: createReply}
		created := <-createReply
		if created.Err != nil {
			return dispatch.Result{Err: created.Err}
		}

		surface, err := d.Provision.ProvisionSurface(ctx, created.Game.Title, host.ID)
		if err != nil {
			d.Logger.Error("surface provisioning failed", zap.Error(err))
			return dispatch.Result{Err: err}
		}
		created.Game.ID = surface

		s := session.New(d.Base, created.Game, req.Surface, session.Options{
			Logger:         d.Logger,
			Notifier:       d.Notifier,
			Reporter:       d.Hub,
			Audit:          d.Audit,
			OnBallotClosed: d.Dispatch.UnregisterSurface,
		})

		registerReply := make(chan error, 1)
		d.Hub.Inbox() <- hub.Register{Sess: s, HostID: host.ID, Reply: registerReply}
		if err := <-registerReply; err != nil {
			s.Inbox() <- session.Shutdown{}
			return dispatch.Result{Err: err}
		}

		return dispatch.Result{Msg: fmt.Sprintf("Your game %q is ready.", created.Game.Title)}
	}
}

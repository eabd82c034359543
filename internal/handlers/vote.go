package handlers

import (
	"context"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/campfire-games/lobby-backend/internal/ballot"
	"github.com/campfire-games/lobby-backend/internal/dispatch"
	"github.com/campfire-games/lobby-backend/internal/session"
)

// openVote starts a ballot on a session. The ballot gets its own surface
// from the provisioner, and cast/withdraw handlers are bound to that surface
// for its lifetime; the session unbinds them when the ballot closes.
func openVote(d Deps) dispatch.HandlerFunc {
	return func(ctx context.Context, req dispatch.Request) dispatch.Result {
		s, err := d.resolve(req.Surface)
		if err != nil {
			return dispatch.Result{Err: err}
		}

		surface, err := d.Provision.BallotSurface(ctx, req.Surface)
		if err != nil {
			d.Logger.Error("ballot surface provisioning failed", zap.Error(err))
			return dispatch.Result{Err: err}
		}

		duration := d.BallotDuration
		if ms, convErr := strconv.Atoi(req.Payload["duration_ms"]); convErr == nil && ms > 0 {
			duration = time.Duration(ms) * time.Millisecond
		}

		// Bind before opening: the deadline can fire immediately for very
		// short ballots, and close must never race an unbound surface.
		d.Dispatch.RegisterScoped(dispatch.ActionVote, surface, castVote(s))
		d.Dispatch.RegisterScoped(dispatch.ActionVoteWithdraw, surface, withdrawVote(s))

		reply := make(chan session.Result, 1)
		res := s.Ask(session.OpenBallot{
			ActorID:  req.ActorID,
			Surface:  surface,
			Duration: duration,
			Reply:    reply,
		}, reply)
		if res.Err != nil {
			d.Dispatch.UnregisterSurface(surface)
		}
		return toResult(res)
	}
}

func castVote(s *session.Session) dispatch.HandlerFunc {
	return func(ctx context.Context, req dispatch.Request) dispatch.Result {
		reply := make(chan session.Result, 1)
		return toResult(s.Ask(session.CastVote{
			VoterID:  req.ActorID,
			TargetID: req.Payload["target"],
			Reply:    reply,
		}, reply))
	}
}

func withdrawVote(s *session.Session) dispatch.HandlerFunc {
	return func(ctx context.Context, req dispatch.Request) dispatch.Result {
		reply := make(chan session.Result, 1)
		return toResult(s.Ask(session.CastVote{
			VoterID:  req.ActorID,
			TargetID: ballot.Withdraw,
			Reply:    reply,
		}, reply))
	}
}

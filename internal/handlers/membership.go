package handlers

import (
	"context"

	"github.com/campfire-games/lobby-backend/internal/dispatch"
	"github.com/campfire-games/lobby-backend/internal/session"
)

func join(d Deps) dispatch.HandlerFunc {
	return func(ctx context.Context, req dispatch.Request) dispatch.Result {
		s, err := d.resolve(req.Surface)
		if err != nil {
			return dispatch.Result{Err: err}
		}
		reply := make(chan session.Result, 1)
		return toResult(s.Ask(session.Join{Actor: d.identity(req.ActorID), Reply: reply}, reply))
	}
}

func leave(d Deps) dispatch.HandlerFunc {
	return func(ctx context.Context, req dispatch.Request) dispatch.Result {
		s, err := d.resolve(req.Surface)
		if err != nil {
			return dispatch.Result{Err: err}
		}
		reply := make(chan session.Result, 1)
		return toResult(s.Ask(session.Leave{ActorID: req.ActorID, Reply: reply}, reply))
	}
}

func accept(d Deps) dispatch.HandlerFunc {
	return func(ctx context.Context, req dispatch.Request) dispatch.Result {
		s, err := d.resolve(req.Surface)
		if err != nil {
			return dispatch.Result{Err: err}
		}
		reply := make(chan session.Result, 1)
		return toResult(s.Ask(session.Accept{
			ActorID:   req.ActorID,
			RequestID: req.Payload["target"],
			Reply:     reply,
		}, reply))
	}
}

func decline(d Deps) dispatch.HandlerFunc {
	return func(ctx context.Context, req dispatch.Request) dispatch.Result {
		s, err := d.resolve(req.Surface)
		if err != nil {
			return dispatch.Result{Err: err}
		}
		reply := make(chan session.Result, 1)
		return toResult(s.Ask(session.Decline{
			ActorID:   req.ActorID,
			RequestID: req.Payload["target"],
			Reply:     reply,
		}, reply))
	}
}

func toggleAccess(d Deps) dispatch.HandlerFunc {
	return func(ctx context.Context, req dispatch.Request) dispatch.Result {
		s, err := d.resolve(req.Surface)
		if err != nil {
			return dispatch.Result{Err: err}
		}
		reply := make(chan session.Result, 1)
		return toResult(s.Ask(session.ToggleAccess{ActorID: req.ActorID, Reply: reply}, reply))
	}
}

func deleteSession(d Deps) dispatch.HandlerFunc {
	return func(ctx context.Context, req dispatch.Request) dispatch.Result {
		s, err := d.resolve(req.Surface)
		if err != nil {
			return dispatch.Result{Err: err}
		}
		reply := make(chan session.Result, 1)
		return toResult(s.Ask(session.Delete{ActorID: req.ActorID, Reply: reply}, reply))
	}
}

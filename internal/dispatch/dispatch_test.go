package dispatch

import (
	"context"
	"errors"
	"testing"
)

func TestInvoke_UnknownOrigin(t *testing.T) {
	d := New()
	res := d.Invoke(context.Background(), Request{Action: "join", Surface: "s1"})
	if !errors.Is(res.Err, ErrUnknownOrigin) {
		t.Fatalf("got %v, want ErrUnknownOrigin", res.Err)
	}
}

func TestInvoke_ScopedShadowsGlobal(t *testing.T) {
	d := New()
	d.Register(ActionVote, func(ctx context.Context, req Request) Result {
		return Result{Msg: "global"}
	})
	d.RegisterScoped(ActionVote, "m1", func(ctx context.Context, req Request) Result {
		return Result{Msg: "scoped"}
	})

	if res := d.Invoke(context.Background(), Request{Action: ActionVote, Surface: "m1"}); res.Msg != "scoped" {
		t.Fatalf("scoped surface: got %q", res.Msg)
	}
	if res := d.Invoke(context.Background(), Request{Action: ActionVote, Surface: "other"}); res.Msg != "global" {
		t.Fatalf("other surface: got %q", res.Msg)
	}
}

func TestUnregisterSurface_RemovesAllScoped(t *testing.T) {
	d := New()
	h := func(ctx context.Context, req Request) Result { return Result{Msg: "ok"} }
	d.RegisterScoped(ActionVote, "m1", h)
	d.RegisterScoped(ActionVoteWithdraw, "m1", h)

	d.UnregisterSurface("m1")

	res := d.Invoke(context.Background(), Request{Action: ActionVote, Surface: "m1"})
	if !errors.Is(res.Err, ErrUnknownOrigin) {
		t.Fatalf("vote still registered after unregister: %+v", res)
	}
	res = d.Invoke(context.Background(), Request{Action: ActionVoteWithdraw, Surface: "m1"})
	if !errors.Is(res.Err, ErrUnknownOrigin) {
		t.Fatalf("vote-withdraw still registered after unregister: %+v", res)
	}
}

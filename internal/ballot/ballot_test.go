package ballot

import (
	"errors"
	"testing"
	"time"
)

var t0 = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func openBallot(eligible ...string) *Ballot {
	return Open(eligible, t0, time.Minute)
}

func mustCast(t *testing.T, b *Ballot, voter, target string) CastResult {
	t.Helper()
	res, err := b.Cast(voter, target, t0.Add(time.Second))
	if err != nil {
		t.Fatalf("cast %s -> %s: %v", voter, target, err)
	}
	return res
}

func TestCast_Eligibility(t *testing.T) {
	b := openBallot("a", "b")
	if _, err := b.Cast("z", "a", t0); !errors.Is(err, ErrNotEligible) {
		t.Fatalf("got %v, want ErrNotEligible", err)
	}
}

func TestCast_AfterDeadlineRejected(t *testing.T) {
	b := openBallot("a", "b")
	mustCast(t, b, "a", "b")

	_, err := b.Cast("b", "a", t0.Add(time.Minute+time.Millisecond))
	if !errors.Is(err, ErrVoteClosed) {
		t.Fatalf("got %v, want ErrVoteClosed", err)
	}

	// the rejected vote must not appear in the snapshot resolve sees
	out := b.Resolve()
	if out.Counts["a"] != 0 {
		t.Fatalf("late vote leaked into counts: %v", out.Counts)
	}
	if out.Kind != Unanimous || out.Target() != "b" {
		t.Fatalf("got %+v, want unanimous b", out)
	}
}

func TestCast_StatusTransitions(t *testing.T) {
	b := openBallot("a", "b", "c")

	if res := mustCast(t, b, "a", "b"); res.Status != CastAdded {
		t.Fatalf("first cast: got %v, want CastAdded", res.Status)
	}
	if res := mustCast(t, b, "a", "c"); res.Status != CastChanged || res.Prev != "b" {
		t.Fatalf("revise: got %+v, want CastChanged prev=b", res)
	}
	if res := mustCast(t, b, "a", "c"); res.Status != CastUnchanged {
		t.Fatalf("idempotent re-cast: got %v, want CastUnchanged", res.Status)
	}
	if b.CastCount() != 1 {
		t.Fatalf("cast count: got %d, want 1", b.CastCount())
	}
	if res := mustCast(t, b, "a", Withdraw); res.Status != CastWithdrawn || res.Prev != "c" {
		t.Fatalf("withdraw: got %+v, want CastWithdrawn prev=c", res)
	}
	if res := mustCast(t, b, "a", Withdraw); res.Status != CastNoVote {
		t.Fatalf("double withdraw: got %v, want CastNoVote", res.Status)
	}
	if _, voted := b.Votes()["a"]; voted {
		t.Fatalf("withdrawn vote still present: %v", b.Votes())
	}
}

func TestCast_SelfVoteAllowed(t *testing.T) {
	b := openBallot("a", "b")
	if res := mustCast(t, b, "a", "a"); res.Status != CastAdded {
		t.Fatalf("self vote: got %v, want CastAdded", res.Status)
	}
}

func TestResolve_EmptyIsInconclusive(t *testing.T) {
	b := openBallot("a", "b", "c")
	out := b.Resolve()
	if out.Kind != Inconclusive {
		t.Fatalf("got kind %v, want Inconclusive", out.Kind)
	}
	if len(out.Counts) != 0 || len(out.Targets) != 0 {
		t.Fatalf("expected empty outcome, got %+v", out)
	}
}

func TestResolve_MajorityWins(t *testing.T) {
	b := openBallot("a", "b", "c")
	mustCast(t, b, "a", "x")
	mustCast(t, b, "b", "x")
	mustCast(t, b, "c", "y")

	out := b.Resolve()
	if out.Kind != Unanimous || out.Target() != "x" {
		t.Fatalf("got %+v, want unanimous x", out)
	}
	if out.Counts["x"] != 2 || out.Counts["y"] != 1 {
		t.Fatalf("counts: got %v", out.Counts)
	}
}

func TestResolve_SplitReportsEncounterOrder(t *testing.T) {
	b := openBallot("a", "b")
	mustCast(t, b, "a", "x")
	mustCast(t, b, "b", "y")

	out := b.Resolve()
	if out.Kind != Split {
		t.Fatalf("got kind %v, want Split", out.Kind)
	}
	if len(out.Targets) != 2 || out.Targets[0] != "x" || out.Targets[1] != "y" {
		t.Fatalf("split order: got %v, want [x y]", out.Targets)
	}
	if out.Counts["x"] != 1 || out.Counts["y"] != 1 {
		t.Fatalf("counts: got %v", out.Counts)
	}
}

func TestResolve_ZeroVoteTargetsAbsentFromCounts(t *testing.T) {
	b := openBallot("a", "b", "c")
	mustCast(t, b, "a", "b")

	out := b.Resolve()
	if _, present := out.Counts["c"]; present {
		t.Fatalf("zero-vote target present in counts: %v", out.Counts)
	}
}

func TestResolve_ReviseKeepsPosition_WithdrawMovesToEnd(t *testing.T) {
	// a revises their vote: a's position in the scan is unchanged, so a's
	// final target is still encountered first.
	b := openBallot("a", "b")
	mustCast(t, b, "a", "x")
	mustCast(t, b, "b", "y")
	mustCast(t, b, "a", "z")

	out := b.Resolve()
	if len(out.Targets) != 2 || out.Targets[0] != "z" || out.Targets[1] != "y" {
		t.Fatalf("revise order: got %v, want [z y]", out.Targets)
	}

	// withdraw + re-vote moves the voter to the end of the scan
	b2 := openBallot("a", "b")
	mustCast(t, b2, "a", "x")
	mustCast(t, b2, "b", "y")
	mustCast(t, b2, "a", Withdraw)
	mustCast(t, b2, "a", "z")

	out2 := b2.Resolve()
	if len(out2.Targets) != 2 || out2.Targets[0] != "y" || out2.Targets[1] != "z" {
		t.Fatalf("re-vote order: got %v, want [y z]", out2.Targets)
	}
}

func TestResolve_TwicePanics(t *testing.T) {
	b := openBallot("a")
	b.Resolve()

	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic on second resolve")
		}
	}()
	b.Resolve()
}

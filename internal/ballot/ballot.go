package ballot

import (
	"errors"
	"time"
)

var ErrNotEligible = errors.New("not eligible to vote")
var ErrVoteClosed = errors.New("vote closed")

// Withdraw is the sentinel target meaning "abstain / take my vote back".
const Withdraw = ""

// Ballot is one timed voting round. Eligibility is snapshotted at open time;
// roster changes during the ballot's lifetime do not add or remove voters.
// A ballot is single-use: resolve once, then discard.
type Ballot struct {
	OpenedAt time.Time
	Deadline time.Time

	eligible map[string]bool
	votes    map[string]string
	// voters in first-cast order. Changing a vote keeps the original
	// position; withdrawing and re-voting moves the voter to the end.
	order    []string
	resolved bool
}

// Open snapshots the eligibility set and fixes the deadline. The deadline is
// not extendable.
func Open(eligible []string, now time.Time, duration time.Duration) *Ballot {
	b := &Ballot{
		OpenedAt: now,
		Deadline: now.Add(duration),
		eligible: make(map[string]bool, len(eligible)),
		votes:    make(map[string]string),
	}
	for _, id := range eligible {
		b.eligible[id] = true
	}
	return b
}

type CastStatus int

const (
	// CastAdded: first vote from this voter.
	CastAdded CastStatus = iota
	// CastChanged: vote moved to a different target.
	CastChanged
	// CastUnchanged: same target twice in a row; no state change, no log.
	CastUnchanged
	// CastWithdrawn: an existing vote was removed.
	CastWithdrawn
	// CastNoVote: withdraw with nothing to withdraw; no-op.
	CastNoVote
)

type CastResult struct {
	Status CastStatus
	Prev   string // previous target, set for CastChanged and CastWithdrawn
}

// Cast records, revises or withdraws a vote. Votes after the deadline are
// rejected, not silently ignored.
func (b *Ballot) Cast(voterID, targetID string, now time.Time) (CastResult, error) {
	if now.After(b.Deadline) {
		return CastResult{}, ErrVoteClosed
	}
	if !b.eligible[voterID] {
		return CastResult{}, ErrNotEligible
	}

	prev, voted := b.votes[voterID]

	if targetID == Withdraw {
		if !voted {
			return CastResult{Status: CastNoVote}, nil
		}
		delete(b.votes, voterID)
		b.order = removeID(b.order, voterID)
		return CastResult{Status: CastWithdrawn, Prev: prev}, nil
	}

	if voted && prev == targetID {
		return CastResult{Status: CastUnchanged, Prev: prev}, nil
	}

	if !voted {
		b.order = append(b.order, voterID)
	}
	b.votes[voterID] = targetID

	if voted {
		return CastResult{Status: CastChanged, Prev: prev}, nil
	}
	return CastResult{Status: CastAdded}, nil
}

func (b *Ballot) CastCount() int     { return len(b.votes) }
func (b *Ballot) EligibleCount() int { return len(b.eligible) }

func (b *Ballot) IsEligible(id string) bool { return b.eligible[id] }

// Votes returns a copy of the live voter -> target map. A withdrawn vote is
// absent, not a null value.
func (b *Ballot) Votes() map[string]string {
	out := make(map[string]string, len(b.votes))
	for k, v := range b.votes {
		out[k] = v
	}
	return out
}

type OutcomeKind int

const (
	// Inconclusive: nobody voted.
	Inconclusive OutcomeKind = iota
	// Unanimous: a single target holds the highest count (unanimous or
	// plain majority).
	Unanimous
	// Split: two or more targets tie for the highest count.
	Split
)

// Outcome is the resolved result. Targets with zero votes are absent from
// Counts, not zero-valued. Split targets are reported in the order they were
// first reached during the frequency scan, not re-sorted.
type Outcome struct {
	Kind    OutcomeKind
	Targets []string
	Counts  map[string]int
}

// Target returns the single winner of a Unanimous outcome.
func (o Outcome) Target() string {
	if o.Kind != Unanimous {
		return ""
	}
	return o.Targets[0]
}

// Resolve computes the outcome as a pure function of the final votes
// snapshot. It must be called exactly once; a second call is a programmer
// error, not a user-facing one.
func (b *Ballot) Resolve() Outcome {
	if b.resolved {
		panic("ballot: resolved twice")
	}
	b.resolved = true

	counts := make(map[string]int)
	var seen []string // targets in encounter order
	for _, voter := range b.order {
		target := b.votes[voter]
		if counts[target] == 0 {
			seen = append(seen, target)
		}
		counts[target]++
	}

	max := 0
	for _, c := range counts {
		if c > max {
			max = c
		}
	}

	var top []string
	for _, target := range seen {
		if counts[target] == max {
			top = append(top, target)
		}
	}

	out := Outcome{Targets: top, Counts: counts}
	switch len(top) {
	case 0:
		out.Kind = Inconclusive
	case 1:
		out.Kind = Unanimous
	default:
		out.Kind = Split
	}
	return out
}

func removeID(ids []string, id string) []string {
	for i, v := range ids {
		if v == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}

// Package notify delivers best-effort direct messages to participants.
// Delivery failure is never fatal to the operation that triggered it.
package notify

import "context"

type Notifier interface {
	Notify(ctx context.Context, participantID, message string) error
}

// Nop discards every notification.
type Nop struct{}

func (Nop) Notify(ctx context.Context, participantID, message string) error { return nil }

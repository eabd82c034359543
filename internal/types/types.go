package types

import "github.com/campfire-games/lobby-backend/internal/view"

// ClientMessage is one inbound frame. "Hello" introduces the participant;
// everything else is an action routed through the dispatcher.
type ClientMessage struct {
	Type       string `json:"type"` // "Hello" | "Action"
	Action     string `json:"action,omitempty"`
	Surface    string `json:"surface,omitempty"`
	TargetID   string `json:"target_id,omitempty"`
	Title      string `json:"title,omitempty"`
	DurationMs int    `json:"duration_ms,omitempty"`

	// Hello fields.
	ActorID     string `json:"actor_id,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
	AvatarURL   string `json:"avatar_url,omitempty"`
}

type ServerMessage struct {
	Type    string        `json:"type"` // "View" | "Ack" | "Notice" | "Error"
	View    *view.Payload `json:"view,omitempty"`
	Message string        `json:"message,omitempty"`
	Error   string        `json:"error,omitempty"`
}

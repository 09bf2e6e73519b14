package types

import "context"

const (
	RoleUser  = "user"
	RoleModel = "model"
)

// Message is the envelope exchanged between interaction channels and the
// agent pipeline. Meta carries channel-specific payload such as structured
// action proposals.
type Message struct {
	ID        string                 `json:"id"`
	PersonaID string                 `json:"personaId"`
	Role      string                 `json:"role"`
	Text      string                 `json:"text"`
	Meta      map[string]interface{} `json:"meta,omitempty"`
}

// Agent turns an inbound message into a reply.
type Agent interface {
	Process(ctx context.Context, msg Message) (Message, error)
}

// Channel is an interaction surface (CLI, HTTP). Start blocks until the
// context is cancelled or the surface shuts down.
type Channel interface {
	ID() string
	Start(ctx context.Context, handle func(context.Context, Message) (Message, error)) error
}

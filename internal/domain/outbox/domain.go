package outbox

import (
	"context"
	"time"
)

type Status string

const (
	StatusCreated    Status = "CREATED"
	StatusInProgress Status = "IN_PROGRESS"
	StatusSuccess    Status = "SUCCESS"
)

type Kind int

const (
	KindAccountRegistered Kind = 1
)

func (k Kind) String() string {
	switch k {
	case KindAccountRegistered:
		return "account_registered"
	}
	return "unknown"
}

type Message struct {
	IdempotencyKey string
	Kind           Kind
	Data           []byte
	Status         Status
	CreatedAt      time.Time
	UpdatedAt      time.Time
	Tracestate     string
	Traceparent    string
	Baggage        string
}

type Repository interface {
	// Enqueue joins the caller's transaction when one is in ctx and records ctx's trace context.
	Enqueue(ctx context.Context, key string, kind Kind, data []byte) error

	PickBatch(ctx context.Context, batch int, inProgressTTL time.Duration) ([]Message, error)

	MarkSuccess(ctx context.Context, keys []string) error
}

type KindHandler func(ctx context.Context, data []byte) error

type GlobalHandler func(kind Kind) (KindHandler, error)

type AccountRegisteredPayload struct {
	PrincipalID  int64     `json:"principal_id"`
	Role         string    `json:"role"`
	Email        string    `json:"email"`
	RegisteredAt time.Time `json:"registered_at"`
}

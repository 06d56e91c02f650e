package kafka

import (
	"context"
	"fmt"
	"time"

	domainkafka "github.com/NordCoder/Placement/internal/domain/kafka"
	"github.com/NordCoder/Placement/internal/domain/outbox"
	"google.golang.org/protobuf/types/known/structpb"
)

const EventAccountRegistered = "account.registered"

type AccountEventsKafka struct {
	p *Producer
}

func NewAccountEventsKafka(p *Producer) *AccountEventsKafka { return &AccountEventsKafka{p: p} }

var _ domainkafka.AccountEvents = (*AccountEventsKafka)(nil)

// PublishAccountRegistered keys by role and id so every event of one principal lands on
// one partition.
func (e *AccountEventsKafka) PublishAccountRegistered(ctx context.Context, p outbox.AccountRegisteredPayload) error {
	msg, err := structpb.NewStruct(map[string]any{
		"type":          EventAccountRegistered,
		"principal_id":  float64(p.PrincipalID),
		"role":          p.Role,
		"email":         p.Email,
		"registered_at": p.RegisteredAt.UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return fmt.Errorf("build account event: %w", err)
	}
	key := append([]byte(p.Role+":"), KeyFromInt64(p.PrincipalID)...)
	return e.p.PublishProto(ctx, key, msg)
}

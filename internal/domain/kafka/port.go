package kafka

import (
	"context"

	"github.com/NordCoder/Placement/internal/domain/outbox"
)

type AccountEvents interface {
	PublishAccountRegistered(ctx context.Context, p outbox.AccountRegisteredPayload) error
}

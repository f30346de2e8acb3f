package sender

import (
	"context"

	"github.com/google/uuid"
)

// NoOpSender accepts every message without delivering it. Used in
// development when a provider is not configured.
type NoOpSender struct{}

func (NoOpSender) SendEmail(ctx context.Context, to, subject, body string) (string, error) {
	return uuid.NewString(), nil
}

func (NoOpSender) SendSMS(ctx context.Context, to, body string) (string, error) {
	return uuid.NewString(), nil
}

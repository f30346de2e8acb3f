// Package sender delivers rendered reminder messages over external
// channel providers (SMTP email, SMS gateway).
package sender

import (
	"context"
	"errors"
	"time"
)

// Channel is a deliverable transport. "both" at the template level is
// resolved to individual channels before dispatch.
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
)

// Result reports a successful provider handoff.
type Result struct {
	MessageID string
}

type EmailSender interface {
	SendEmail(ctx context.Context, to, subject, body string) (string, error)
}

type SMSSender interface {
	SendSMS(ctx context.Context, to, body string) (string, error)
}

var ErrUnknownChannel = errors.New("unknown channel")

// Dispatcher routes a message to the provider for its channel and bounds
// the provider call with a timeout, so a hung provider can never leave a
// step unresolved.
type Dispatcher struct {
	email   EmailSender
	sms     SMSSender
	timeout time.Duration
}

func NewDispatcher(email EmailSender, sms SMSSender, timeout time.Duration) *Dispatcher {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Dispatcher{email: email, sms: sms, timeout: timeout}
}

// Dispatch performs exactly one provider call.
func (d *Dispatcher) Dispatch(ctx context.Context, ch Channel, to, subject, body string) (Result, error) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	type outcome struct {
		id  string
		err error
	}
	done := make(chan outcome, 1)

	go func() {
		var o outcome
		switch ch {
		case ChannelEmail:
			o.id, o.err = d.email.SendEmail(ctx, to, subject, body)
		case ChannelSMS:
			o.id, o.err = d.sms.SendSMS(ctx, to, body)
		default:
			o.err = ErrUnknownChannel
		}
		done <- o
	}()

	select {
	case <-ctx.Done():
		return Result{}, ctx.Err()
	case o := <-done:
		if o.err != nil {
			return Result{}, o.err
		}
		return Result{MessageID: o.id}, nil
	}
}

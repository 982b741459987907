// Package events fans domain events out to live staff feeds and, optionally,
// to a message broker. Publishing is best effort: a failed publish is logged
// by the caller and never undoes a committed change.
package events

import (
	"context"
	"errors"
)

// Event types.
const (
	OrderCreated         = "order.created"
	OrderStatusChanged   = "order.status_changed"
	PaymentStatusChanged = "payment.status_changed"
	PaymentClaimed       = "payment.claimed"
	PaymentExpired       = "payment.expired"
)

// Event is a domain event addressed to one or more live channels.
type Event struct {
	Type     string      `json:"type"`
	Channels []string    `json:"channels"`
	Payload  interface{} `json:"payload"`
}

// Publisher delivers events. Implementations must be safe for concurrent use.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Multi publishes to every publisher and joins their errors.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, e Event) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type nop struct{}

func (nop) Publish(context.Context, Event) error { return nil }

// Nop discards every event.
var Nop Publisher = nop{}

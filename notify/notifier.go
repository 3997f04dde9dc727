// Package notify delivers operational messages (new bookings, booking
// decisions, contact requests) to administrators and customers.
package notify

import (
	"context"
	"errors"
)

type Channel string

const (
	ChannelAdmin    Channel = "admin"
	ChannelCustomer Channel = "customer"
	ChannelContact  Channel = "contact"
)

// Message is a channel-addressed notification. Payload carries the
// structured form for machine consumers, Body the human readable text.
type Message struct {
	Channel    Channel
	Subject    string
	Body       string
	Recipient  string
	Payload    map[string]interface{}
	Attributes map[string]string
}

type Notifier interface {
	Name() string
	Notify(ctx context.Context, msg Message) error
}

// Multi fans a message out to every backend and joins their errors.
type Multi []Notifier

func (m Multi) Name() string { return "multi" }

func (m Multi) Notify(ctx context.Context, msg Message) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, msg); err != nil {
			errs = append(errs, &BackendError{Backend: n.Name(), Err: err})
		}
	}
	return errors.Join(errs...)
}

type BackendError struct {
	Backend string
	Err     error
}

func (e *BackendError) Error() string { return e.Backend + ": " + e.Err.Error() }
func (e *BackendError) Unwrap() error { return e.Err }

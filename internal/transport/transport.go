// Package transport delivers rendered messages through a transactional email
// API. A Transport performs exactly one delivery attempt per Send call.
package transport

import (
	"context"
	"fmt"
	"strings"
)

// Address is a mailbox with an optional display name.
type Address struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// Message is a fully addressed email.
type Message struct {
	To      []Address
	CC      []Address
	ReplyTo *Address
	Subject string
	Text    string
	HTML    string
}

// Transport sends one message and returns the provider's message identifier.
type Transport interface {
	Send(ctx context.Context, msg Message) (string, error)
}

// SendError describes a delivery the provider rejected or that never reached it.
type SendError struct {
	StatusCode int
	Message    string
	Cause      error
}

func (e *SendError) Error() string {
	if e == nil {
		return "<nil>"
	}
	parts := make([]string, 0, 3)
	if e.StatusCode > 0 {
		parts = append(parts, fmt.Sprintf("HTTP %d", e.StatusCode))
	}
	if msg := strings.TrimSpace(e.Message); msg != "" {
		parts = append(parts, msg)
	}
	if e.Cause != nil {
		parts = append(parts, e.Cause.Error())
	}
	if len(parts) == 0 {
		return "send failed"
	}
	return strings.Join(parts, ": ")
}

func (e *SendError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

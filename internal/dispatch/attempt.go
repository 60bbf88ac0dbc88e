package dispatch

import (
	"time"

	"festmail/internal/recipient"
)

// Outcome classifies a dispatch attempt.
type Outcome string

const (
	OutcomeSent   Outcome = "sent"
	OutcomeFailed Outcome = "failed"
)

// Attempt is the transient record of one send.
type Attempt struct {
	Key       string        `json:"key"`
	Outcome   Outcome       `json:"outcome"`
	MessageID string        `json:"message_id,omitempty"`
	Error     string        `json:"error,omitempty"`
	Duration  time.Duration `json:"duration_ns"`
}

// Succeeded reports whether the transport accepted the message.
func (a Attempt) Succeeded() bool {
	return a.Outcome == OutcomeSent
}

// SucceededKeys returns the keys of successful attempts in order.
func SucceededKeys(attempts []Attempt) []string {
	keys := make([]string, 0, len(attempts))
	for _, a := range attempts {
		if a.Succeeded() {
			keys = append(keys, a.Key)
		}
	}
	return keys
}

// Summary counts the outcome of a run.
type Summary struct {
	Total           int `json:"total"`
	AlreadyNotified int `json:"already_notified"`
	Pending         int `json:"pending"`
	Sent            int `json:"sent"`
	Failed          int `json:"failed"`
	Skipped         int `json:"skipped"`
	NotAttempted    int `json:"not_attempted"`
}

// Observer receives progress as a batch runs. Failures are delivered as they
// happen so the operator can act before the batch ends.
type Observer interface {
	AttemptStarted(index, total int, r recipient.Recipient)
	AttemptFinished(index, total int, a Attempt)
}

type nopObserver struct{}

func (nopObserver) AttemptStarted(int, int, recipient.Recipient) {}

func (nopObserver) AttemptFinished(int, int, Attempt) {}

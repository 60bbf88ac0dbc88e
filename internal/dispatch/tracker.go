package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"festmail/internal/config"
	"festmail/internal/logging"
	"festmail/internal/recipient"
	"festmail/internal/transport"
)

// Composer turns a recipient into an addressed message.
type Composer interface {
	Compose(r recipient.Recipient) (transport.Message, error)
}

// Options configures a Tracker.
type Options struct {
	Transport   transport.Transport
	Composer    Composer
	Pacer       Pacer
	Observer    Observer
	Logger      *slog.Logger
	PersistMode string
	Now         func() time.Time
}

// Tracker runs campaigns against a transport.
type Tracker struct {
	transport   transport.Transport
	composer    Composer
	pacer       Pacer
	observer    Observer
	logger      *slog.Logger
	persistMode string
	now         func() time.Time
}

// NewTracker validates opts and fills defaults.
func NewTracker(opts Options) (*Tracker, error) {
	if opts.Transport == nil {
		return nil, errors.New("dispatch: transport is required")
	}
	if opts.Composer == nil {
		return nil, errors.New("dispatch: composer is required")
	}
	t := &Tracker{
		transport:   opts.Transport,
		composer:    opts.Composer,
		pacer:       opts.Pacer,
		observer:    opts.Observer,
		logger:      logging.NewComponentLogger(opts.Logger, "dispatch"),
		persistMode: opts.PersistMode,
		now:         opts.Now,
	}
	if t.pacer == nil {
		t.pacer = noPacer{}
	}
	if t.observer == nil {
		t.observer = nopObserver{}
	}
	if t.now == nil {
		t.now = time.Now
	}
	switch t.persistMode {
	case "":
		t.persistMode = config.PersistWriteThrough
	case config.PersistWriteThrough, config.PersistEndOfRun:
	default:
		return nil, fmt.Errorf("dispatch: unknown persist mode %q", t.persistMode)
	}
	return t, nil
}

// DispatchOne sends r exactly once. It never returns an error: compose
// failures, transport errors, cancellation and panics all become a failed
// Attempt.
func (t *Tracker) DispatchOne(ctx context.Context, r recipient.Recipient) (attempt Attempt) {
	start := time.Now()
	attempt = Attempt{Key: r.Key}
	defer func() {
		if rec := recover(); rec != nil {
			attempt.Outcome = OutcomeFailed
			attempt.MessageID = ""
			attempt.Error = fmt.Sprintf("panic: %v", rec)
		}
		attempt.Duration = time.Since(start)
	}()

	if err := ctx.Err(); err != nil {
		attempt.Outcome = OutcomeFailed
		attempt.Error = err.Error()
		return attempt
	}

	msg, err := t.composer.Compose(r)
	if err != nil {
		attempt.Outcome = OutcomeFailed
		attempt.Error = err.Error()
		return attempt
	}

	id, err := t.transport.Send(ctx, msg)
	if err != nil {
		attempt.Outcome = OutcomeFailed
		attempt.Error = err.Error()
		return attempt
	}
	attempt.Outcome = OutcomeSent
	attempt.MessageID = id
	return attempt
}

// RunBatch dispatches pending in order, one at a time. The pacer is consulted
// before each send, which spaces consecutive sends without waiting after the
// last one. onSuccess, when non-nil, runs after each successful attempt; an
// error from it stops the batch. Cancellation stops the batch before the next
// recipient.
func (t *Tracker) RunBatch(ctx context.Context, pending []recipient.Recipient, onSuccess func(Attempt) error) ([]Attempt, error) {
	logger := logging.WithContext(ctx, t.logger)
	attempts := make([]Attempt, 0, len(pending))
	total := len(pending)

	for i, r := range pending {
		if err := t.pacer.Wait(ctx); err != nil {
			return attempts, err
		}

		t.observer.AttemptStarted(i, total, r)
		attempt := t.DispatchOne(ctx, r)
		attempts = append(attempts, attempt)
		t.observer.AttemptFinished(i, total, attempt)

		if !attempt.Succeeded() {
			logging.WarnWithContext(logger, "email send failed", "dispatch_send_failed",
				logging.String(logging.FieldRecipient, r.Key),
				logging.String("error", attempt.Error),
				logging.String(logging.FieldErrorHint, "rerun the campaign to retry pending recipients"),
				logging.String(logging.FieldImpact, "recipient stays pending"))
			if ctx.Err() != nil {
				return attempts, ctx.Err()
			}
			continue
		}

		logger.Info("email sent",
			logging.String(logging.FieldRecipient, r.Key),
			logging.String(logging.FieldMessageID, attempt.MessageID),
			logging.Duration("duration", attempt.Duration))

		if onSuccess != nil {
			if err := onSuccess(attempt); err != nil {
				return attempts, err
			}
		}
	}
	return attempts, nil
}

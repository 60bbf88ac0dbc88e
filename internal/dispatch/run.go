package dispatch

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"festmail/internal/config"
	"festmail/internal/dispatchlog"
	"festmail/internal/logging"
	"festmail/internal/recipient"
)

// Mode selects what a run does with the pending set.
type Mode string

const (
	// ModeSend sends to every pending recipient and records successes.
	ModeSend Mode = "send"
	// ModeCheck reports the pending set. Nothing is sent or written.
	ModeCheck Mode = "check"
	// ModeMarkAll records every current recipient as notified without sending.
	ModeMarkAll Mode = "mark_all"
	// ModeTest sends a single chosen recipient and records nothing.
	ModeTest Mode = "test"
)

var (
	// ErrAborted reports that the operator declined to start the batch.
	ErrAborted = errors.New("dispatch aborted by operator")
	// ErrTestRecipientNotFound reports a test key missing from the source.
	ErrTestRecipientNotFound = errors.New("test recipient not found")
	// ErrUnrecorded reports recipients that were sent to but could not be
	// written to the dispatch log. A rerun would send to them again.
	ErrUnrecorded = errors.New("sent recipients not recorded in dispatch log")
)

// Plan is the state of a run once the pending set is known.
type Plan struct {
	RunID    string
	Mode     Mode
	Log      dispatchlog.Log
	Valid    []recipient.Recipient
	Pending  []recipient.Recipient
	Rejected []recipient.Rejection
}

// Request describes one run.
type Request struct {
	Recipients []recipient.Recipient
	Rejected   []recipient.Rejection
	LogPath    string
	Mode       Mode
	// Limit caps the number of pending recipients attempted; 0 means all.
	Limit int
	// TestKey picks the recipient for ModeTest.
	TestKey string
	// Confirm is called in ModeSend once the pending set is known. Returning
	// false aborts the run with ErrAborted.
	Confirm func(Plan) (bool, error)
}

// Result is the outcome of a run.
type Result struct {
	RunID     string                `json:"run_id"`
	Mode      Mode                  `json:"mode"`
	Summary   Summary               `json:"summary"`
	Pending   []string              `json:"pending"`
	Rejected  []recipient.Rejection `json:"skipped"`
	Attempts  []Attempt             `json:"attempts"`
	Persisted bool                  `json:"persisted"`
	LogPath   string                `json:"log_path"`
	Log       dispatchlog.Log       `json:"-"`
}

// Run executes req. Errors returned before dispatch starts mean nothing was
// sent and nothing was written. An error returned after dispatch started
// (cancellation or a failed log write) comes with a Result describing what was
// sent.
func (t *Tracker) Run(ctx context.Context, req Request) (Result, error) {
	if req.LogPath == "" {
		return Result{}, errors.New("dispatch: log path is required")
	}
	mode := req.Mode
	if mode == "" {
		mode = ModeSend
	}

	runID := uuid.NewString()
	ctx = logging.WithRunID(ctx, runID)
	logger := logging.WithContext(ctx, t.logger)

	if mode != ModeCheck {
		lock, err := dispatchlog.Lock(req.LogPath)
		if err != nil {
			return Result{}, err
		}
		defer func() {
			if err := lock.Release(); err != nil {
				logger.Warn("failed to release dispatch log lock",
					logging.String(logging.FieldEventType, "dispatch_lock_release_failed"),
					logging.Error(err),
					logging.String(logging.FieldErrorHint, "remove "+lock.Path()+" if no run is active"),
					logging.String(logging.FieldImpact, "next run may report the log as locked"))
			}
		}()
	}

	log, err := dispatchlog.Load(req.LogPath)
	if err != nil {
		return Result{}, err
	}

	valid, rejected := screen(req.Recipients, req.Rejected)
	pending := ComputePending(valid, log)

	result := Result{
		RunID:    runID,
		Mode:     mode,
		Rejected: rejected,
		LogPath:  req.LogPath,
		Log:      log,
		Summary: Summary{
			Total:           len(valid) + len(rejected),
			AlreadyNotified: len(valid) - len(pending),
			Pending:         len(pending),
			Skipped:         len(rejected),
		},
	}
	result.Pending = recipient.Keys(pending)

	logger.Info("dispatch log loaded",
		logging.String("log_path", req.LogPath),
		logging.String("mode", string(mode)),
		logging.Int("recipients", len(valid)),
		logging.Int("already_notified", result.Summary.AlreadyNotified),
		logging.Int("pending", len(pending)),
		logging.Int("skipped", len(rejected)))
	for _, rej := range rejected {
		logger.Info("recipient skipped",
			logging.String(logging.FieldRecipient, rej.Key),
			logging.String("reason", rej.Reason))
	}

	switch mode {
	case ModeCheck:
		return result, nil
	case ModeMarkAll:
		return t.markAll(ctx, result, valid)
	case ModeTest:
		return t.runTest(ctx, result, req.TestKey, valid, pending)
	case ModeSend:
	default:
		return Result{}, fmt.Errorf("dispatch: unknown mode %q", mode)
	}

	if req.Limit > 0 && len(pending) > req.Limit {
		pending = pending[:req.Limit]
	}
	if req.Confirm != nil && len(pending) > 0 {
		ok, err := req.Confirm(Plan{RunID: runID, Mode: mode, Log: log, Valid: valid, Pending: pending, Rejected: rejected})
		if err != nil {
			return result, err
		}
		if !ok {
			return result, ErrAborted
		}
	}
	return t.send(ctx, result, pending)
}

func (t *Tracker) send(ctx context.Context, result Result, pending []recipient.Recipient) (Result, error) {
	logger := logging.WithContext(ctx, t.logger)
	current := result.Log

	var onSuccess func(Attempt) error
	if t.persistMode == config.PersistWriteThrough {
		onSuccess = func(a Attempt) error {
			current = dispatchlog.Commit(current, []string{a.Key}, t.now())
			if err := dispatchlog.Persist(result.LogPath, current); err != nil {
				return fmt.Errorf("%w: %s: %v", ErrUnrecorded, a.Key, err)
			}
			result.Persisted = true
			return nil
		}
	}

	attempts, batchErr := t.RunBatch(ctx, pending, onSuccess)
	result.Attempts = attempts
	succeeded := SucceededKeys(attempts)
	result.Summary.Sent = len(succeeded)
	result.Summary.Failed = len(attempts) - len(succeeded)
	result.Summary.NotAttempted = result.Summary.Pending - len(attempts)

	if t.persistMode == config.PersistEndOfRun && len(succeeded) > 0 {
		current = dispatchlog.Commit(current, succeeded, t.now())
		if err := dispatchlog.Persist(result.LogPath, current); err != nil {
			logging.ErrorWithContext(logger, "dispatch log write failed", "dispatch_persist_failed",
				logging.Error(err),
				logging.Int("unrecorded", len(succeeded)),
				logging.String(logging.FieldErrorHint, "add the sent keys to the log by hand before rerunning"))
			result.Log = current
			return result, fmt.Errorf("%w: %d recipients: %v", ErrUnrecorded, len(succeeded), err)
		}
		result.Persisted = true
	}
	result.Log = current

	if errors.Is(batchErr, ErrUnrecorded) {
		logging.ErrorWithContext(logger, "dispatch log write failed", "dispatch_persist_failed",
			logging.Error(batchErr),
			logging.String(logging.FieldErrorHint, "add the last sent recipient to the log by hand before rerunning"))
		return result, batchErr
	}

	logger.Info("dispatch batch complete",
		logging.Int("sent", result.Summary.Sent),
		logging.Int("failed", result.Summary.Failed),
		logging.Int("skipped", result.Summary.Skipped),
		logging.Int("not_attempted", result.Summary.NotAttempted),
		logging.Bool("persisted", result.Persisted))
	return result, batchErr
}

func (t *Tracker) markAll(ctx context.Context, result Result, valid []recipient.Recipient) (Result, error) {
	logger := logging.WithContext(ctx, t.logger)
	keys := recipient.Keys(valid)
	next := dispatchlog.Commit(result.Log, keys, t.now())
	added := next.Len() - result.Log.Len()
	if added == 0 {
		logger.Info("mark-all found nothing new to record")
		return result, nil
	}
	if err := dispatchlog.Persist(result.LogPath, next); err != nil {
		return result, err
	}
	result.Log = next
	result.Persisted = true
	logger.Info("marked recipients as notified", logging.Int("added", added), logging.Int("total", next.Len()))
	return result, nil
}

func (t *Tracker) runTest(ctx context.Context, result Result, key string, valid, pending []recipient.Recipient) (Result, error) {
	if key == "" {
		return result, fmt.Errorf("%w: no test key configured", ErrTestRecipientNotFound)
	}
	target, ok := recipient.Find(pending, key)
	if !ok {
		target, ok = recipient.Find(valid, key)
	}
	if !ok {
		return result, fmt.Errorf("%w: %q", ErrTestRecipientNotFound, key)
	}
	attempts, err := t.RunBatch(ctx, []recipient.Recipient{target}, nil)
	result.Attempts = attempts
	succeeded := SucceededKeys(attempts)
	result.Summary.Sent = len(succeeded)
	result.Summary.Failed = len(attempts) - len(succeeded)
	return result, err
}

// Package dispatch implements the dispatch tracker: it works out which
// recipients of a campaign have not been notified yet, sends one message to
// each of them in order, and records every success in the campaign's dispatch
// log so that a repeated or interrupted run never notifies anyone twice.
//
// A run moves through Loaded (log read), Computed (pending set known),
// Dispatching, Committed and Persisted. A log or lock that cannot be read
// aborts the run before anything is sent or written. Per-recipient failures
// are reported as they happen and leave the key out of the log so the next
// run retries them.
//
// Persistence is configurable. In write-through mode the log is rewritten
// after every successful send, so an interrupt loses nothing. In end-of-run
// mode the log is written once after the batch; both modes produce the same
// final log for the same outcomes.
package dispatch

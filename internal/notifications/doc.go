// Package notifications publishes dispatch run summaries to ntfy.
//
// A blank topic yields a no-op Service, so callers never need to check
// whether notifications are enabled. Delivery failures are returned to the
// caller, which logs them; they never change the outcome of a run.
package notifications

// Package dispatchlog owns the durable record of recipients already notified
// by a campaign.
//
// The log is presence-only: a key in the log is never sent again, whatever
// happens to the upstream record afterwards. Removing a key (by hand-editing
// the file or with `festmail log reset`) is the only way to send again.
// Writes go through fileutil.WriteFileAtomic and runs that mutate the log
// hold an exclusive flock on the sidecar `<log>.lock` file.
package dispatchlog

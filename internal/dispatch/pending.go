package dispatch

import (
	"festmail/internal/dispatchlog"
	"festmail/internal/recipient"
)

// ComputePending returns the recipients whose key is not in log, in input
// order.
func ComputePending(all []recipient.Recipient, log dispatchlog.Log) []recipient.Recipient {
	pending := make([]recipient.Recipient, 0, len(all))
	for _, r := range all {
		if log.Contains(r.Key) {
			continue
		}
		pending = append(pending, r)
	}
	return pending
}

// screen merges duplicate keys and separates recipients that cannot be
// addressed. Unaddressable recipients become rejections and never reach the
// transport or the log.
func screen(all []recipient.Recipient, rejected []recipient.Rejection) ([]recipient.Recipient, []recipient.Rejection) {
	valid, unaddressable := recipient.Partition(recipient.Merge(all))
	out := append([]recipient.Rejection(nil), rejected...)
	for _, r := range unaddressable {
		out = append(out, recipient.Rejection{Key: r.Key, Reason: "no usable address"})
	}
	return valid, out
}

// Package recipient defines the validated Recipient value passed from roster
// extraction into the dispatch core.
package recipient

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidRecipient reports a source row that cannot be addressed.
var ErrInvalidRecipient = errors.New("invalid recipient")

// Recipient is one addressable notification target.
//
// Key is unique within a source collection and is what the dispatch log
// records. Primary is never empty for a Recipient returned by New. Name is an
// optional display name for the primary address.
type Recipient struct {
	Key       string
	Name      string
	Primary   string
	Secondary []string
	Fields    map[string]string
}

// New validates and normalizes a recipient. The first usable address in
// addresses becomes Primary; the rest become Secondary. Addresses are trimmed,
// lowercased, and deduplicated. A recipient with no usable address yields
// ErrInvalidRecipient.
func New(key string, addresses []string, fields map[string]string) (Recipient, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return Recipient{}, fmt.Errorf("%w: empty key", ErrInvalidRecipient)
	}
	cleaned := CleanAddresses(addresses)
	if len(cleaned) == 0 {
		return Recipient{}, fmt.Errorf("%w: %q has no usable address", ErrInvalidRecipient, key)
	}
	r := Recipient{Key: key, Primary: cleaned[0]}
	if len(cleaned) > 1 {
		r.Secondary = cleaned[1:]
	}
	if len(fields) > 0 {
		r.Fields = make(map[string]string, len(fields))
		for k, v := range fields {
			r.Fields[k] = v
		}
	}
	return r, nil
}

// Addresses returns Primary followed by Secondary.
func (r Recipient) Addresses() []string {
	if r.Primary == "" {
		return append([]string(nil), r.Secondary...)
	}
	return append([]string{r.Primary}, r.Secondary...)
}

// Addressable reports whether the recipient has at least one address.
func (r Recipient) Addressable() bool {
	if strings.TrimSpace(r.Primary) != "" {
		return true
	}
	for _, addr := range r.Secondary {
		if strings.TrimSpace(addr) != "" {
			return true
		}
	}
	return false
}

// Field returns a template field value.
func (r Recipient) Field(name string) (string, bool) {
	value, ok := r.Fields[name]
	return value, ok
}

// CleanAddress trims and lowercases a single address. It returns "" when the
// value does not contain '@'.
func CleanAddress(value string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	if !strings.Contains(value, "@") {
		return ""
	}
	return value
}

// CleanAddresses applies CleanAddress to each value, dropping unusable and
// duplicate entries while preserving first-appearance order.
func CleanAddresses(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, value := range values {
		addr := CleanAddress(value)
		if addr == "" {
			continue
		}
		if _, ok := seen[addr]; ok {
			continue
		}
		seen[addr] = struct{}{}
		out = append(out, addr)
	}
	return out
}

package recipient

// Merge collapses recipients sharing a key into one, keeping the position of
// the first occurrence. Addresses are unioned in order of first appearance and
// fields from later occurrences fill gaps without overwriting.
func Merge(list []Recipient) []Recipient {
	index := make(map[string]int, len(list))
	out := make([]Recipient, 0, len(list))
	for _, r := range list {
		pos, ok := index[r.Key]
		if !ok {
			index[r.Key] = len(out)
			out = append(out, r)
			continue
		}
		existing := out[pos]
		addrs := CleanAddresses(append(existing.Addresses(), r.Addresses()...))
		if len(addrs) > 0 {
			existing.Primary = addrs[0]
			existing.Secondary = addrs[1:]
			if len(existing.Secondary) == 0 {
				existing.Secondary = nil
			}
		}
		for k, v := range r.Fields {
			if existing.Fields == nil {
				existing.Fields = make(map[string]string, len(r.Fields))
			}
			if _, set := existing.Fields[k]; !set {
				existing.Fields[k] = v
			}
		}
		out[pos] = existing
	}
	return out
}

// Partition splits recipients into those that can be addressed and those that
// cannot. Order is preserved in both results.
func Partition(list []Recipient) (addressable, unaddressable []Recipient) {
	for _, r := range list {
		if r.Addressable() {
			addressable = append(addressable, r)
		} else {
			unaddressable = append(unaddressable, r)
		}
	}
	return addressable, unaddressable
}

// Keys returns the recipient keys in order.
func Keys(list []Recipient) []string {
	keys := make([]string, 0, len(list))
	for _, r := range list {
		keys = append(keys, r.Key)
	}
	return keys
}

// Find returns the recipient with the given key.
func Find(list []Recipient, key string) (Recipient, bool) {
	for _, r := range list {
		if r.Key == key {
			return r, true
		}
	}
	return Recipient{}, false
}

// Rejection records a source row that could not become a Recipient.
type Rejection struct {
	Key    string `json:"key"`
	Reason string `json:"reason"`
}

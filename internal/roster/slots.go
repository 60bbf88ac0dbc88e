package roster

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
)

// LoadSlots reads a two-column university,slots sheet. A non-numeric first
// row is treated as a header; rows without exactly two columns are ignored.
func LoadSlots(r io.Reader) (map[string]int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read slots csv: %w", err)
	}
	slots := make(map[string]int, len(records))
	for i, record := range records {
		if len(record) != 2 {
			continue
		}
		name := strings.TrimSpace(strings.TrimPrefix(record[0], utf8BOM))
		value := strings.TrimSpace(record[1])
		n, err := strconv.Atoi(value)
		if err != nil {
			if i == 0 {
				continue
			}
			return nil, fmt.Errorf("slots csv line %d: %q is not a number", i+1, value)
		}
		if n < 0 {
			return nil, fmt.Errorf("slots csv line %d: negative slot count %d", i+1, n)
		}
		slots[name] = n
	}
	return slots, nil
}

// ApplySlots returns a copy of unis with allocated_slots set from slots
// (0 when a university has no row), plus slot rows that matched no university.
func ApplySlots(unis []University, slots map[string]int) ([]University, []string) {
	out := make([]University, len(unis))
	used := make(map[string]struct{}, len(slots))
	for i, u := range unis {
		n := slots[u.University]
		if _, ok := slots[u.University]; ok {
			used[u.University] = struct{}{}
		}
		u.AllocatedSlots = &n
		out[i] = u
	}
	var orphans []string
	for name := range slots {
		if _, ok := used[name]; !ok {
			orphans = append(orphans, name)
		}
	}
	sort.Strings(orphans)
	return out, orphans
}

// EncodeSlotSummaryCSV renders University,Teams (Applied),Allocated Slots.
func EncodeSlotSummaryCSV(unis []University) ([]byte, error) {
	records := make([][]string, 0, len(unis))
	for _, u := range unis {
		records = append(records, []string{u.University, strconv.Itoa(u.TeamCount), strconv.Itoa(u.Slots())})
	}
	data, err := encodeCSV([]string{"University", "Teams (Applied)", "Allocated Slots"}, records)
	if err != nil {
		return nil, fmt.Errorf("encode slot summary: %w", err)
	}
	return data, nil
}

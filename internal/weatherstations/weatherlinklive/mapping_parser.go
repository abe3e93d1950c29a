package weatherlinklive

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseSelectionString parses a transmitter selection of the form
// "channel:txid, channel:txid, ...", starting from base. Channels that are
// not mentioned keep their base value.
// Examples:
//   - "wind:2" - wind comes from transmitter 2
//   - "temperature:1, rain:3, dew_point:1"
func ParseSelectionString(s string, base Selection) (Selection, error) {
	sel := base
	if strings.TrimSpace(s) == "" {
		return sel, nil
	}

	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		name, id, ok := strings.Cut(part, ":")
		if !ok {
			return base, fmt.Errorf("invalid selection %q: want channel:txid", part)
		}

		c, err := ParseChannel(name)
		if err != nil {
			return base, err
		}

		txid, err := strconv.Atoi(strings.TrimSpace(id))
		if err != nil {
			return base, fmt.Errorf("invalid txid in %q: %w", part, err)
		}
		if txid < 1 || txid > 8 {
			return base, fmt.Errorf("txid must be 1-8 in %q", part)
		}

		sel[c] = txid
	}

	return sel, nil
}

// FormatSelection renders a selection in the form ParseSelectionString reads
func FormatSelection(sel Selection) string {
	parts := make([]string, 0, numChannels)
	for _, c := range Channels() {
		parts = append(parts, fmt.Sprintf("%s:%d", c, sel[c]))
	}
	return strings.Join(parts, ",")
}

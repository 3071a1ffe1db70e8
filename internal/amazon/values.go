package amazon

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// dateLayouts are the heading formats seen on amazon.com, US layout first.
var dateLayouts = []string{
	"January 2, 2006",
	"Jan 2, 2006",
	"January 2 2006",
	"2 January 2006",
	"Monday, January 2, 2006",
	"2006-01-02",
	"01/02/2006",
}

// ParseOrderDate parses a date heading such as "February 17, 2024" to midnight UTC.
func ParseOrderDate(text string) (time.Time, error) {
	text = strings.Join(strings.Fields(text), " ")
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, text, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised order date %q", text)
}

// ParsePriceInCents converts display text like "-$10.11" into -1011.
//
// Everything except digits and '-' is dropped and the leading "-?digits" run is
// read as an integer, so "$10.1" yields 101 and "$1,234.56" yields 123456.
// Text with no digits is an error.
func ParsePriceInCents(text string) (int64, error) {
	var b strings.Builder
	for _, r := range text {
		if (r >= '0' && r <= '9') || r == '-' {
			b.WriteRune(r)
		}
	}
	kept := b.String()

	end := 0
	if strings.HasPrefix(kept, "-") {
		end = 1
	}
	start := end
	for end < len(kept) && kept[end] >= '0' && kept[end] <= '9' {
		end++
	}
	if end == start {
		return 0, fmt.Errorf("no amount in %q", text)
	}

	cents, err := strconv.ParseInt(kept[:end], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("amount %q: %w", text, err)
	}
	return cents, nil
}

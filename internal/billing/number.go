package billing

import (
	"fmt"
	"regexp"
	"strconv"
)

// Document number prefixes.
const (
	QuotePrefix   = "Q"
	InvoicePrefix = "I"
)

// Numbers look like Q-20250001: single-letter prefix, four-digit year, then a
// sequence starting at 1 per (user, year), zero-padded to at least four
// digits. The sequence keeps growing past 9999, so anything ordering numbers
// as strings has to rank longer numbers above shorter ones.
var numberRe = regexp.MustCompile(`^([A-Z])-(\d{4})(\d{4,})$`)

// FormatNumber renders a document number for the given prefix/year/sequence.
func FormatNumber(prefix string, year, seq int) string {
	return fmt.Sprintf("%s-%d%04d", prefix, year, seq)
}

// SequenceOf extracts the numeric suffix of a number previously issued for the
// same prefix and year. Returns false for foreign or malformed numbers.
func SequenceOf(number, prefix string, year int) (int, bool) {
	m := numberRe.FindStringSubmatch(number)
	if m == nil || m[1] != prefix {
		return 0, false
	}
	if y, err := strconv.Atoi(m[2]); err != nil || y != year {
		return 0, false
	}
	seq, err := strconv.Atoi(m[3])
	if err != nil {
		return 0, false
	}
	return seq, true
}

// NextNumber increments the sequence of last (or starts at 1 when last is
// empty or from another prefix/year).
func NextNumber(prefix, last string, year int) string {
	seq := 0
	if last != "" {
		if s, ok := SequenceOf(last, prefix, year); ok {
			seq = s
		}
	}
	return FormatNumber(prefix, year, seq+1)
}

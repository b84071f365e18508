package billing

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatNumber(t *testing.T) {
	re := regexp.MustCompile(`^[A-Z]-\d{4}\d{4}$`)
	assert.Equal(t, "Q-20250001", FormatNumber(QuotePrefix, 2025, 1))
	assert.Equal(t, "I-20251234", FormatNumber(InvoicePrefix, 2025, 1234))
	assert.Regexp(t, re, FormatNumber(QuotePrefix, 2025, 42))
}

func TestSequenceOf(t *testing.T) {
	seq, ok := SequenceOf("Q-20250007", QuotePrefix, 2025)
	require.True(t, ok)
	assert.Equal(t, 7, seq)

	// foreign prefix, wrong year, malformed
	_, ok = SequenceOf("I-20250007", QuotePrefix, 2025)
	assert.False(t, ok)
	_, ok = SequenceOf("Q-20240007", QuotePrefix, 2025)
	assert.False(t, ok)
	_, ok = SequenceOf("Q-2025-0007", QuotePrefix, 2025)
	assert.False(t, ok)
	_, ok = SequenceOf("garbage", QuotePrefix, 2025)
	assert.False(t, ok)
}

func TestNextNumber(t *testing.T) {
	assert.Equal(t, "Q-20250001", NextNumber(QuotePrefix, "", 2025))
	assert.Equal(t, "Q-20250002", NextNumber(QuotePrefix, "Q-20250001", 2025))
	assert.Equal(t, "Q-20250100", NextNumber(QuotePrefix, "Q-20250099", 2025))
	// year rollover: last year's numbers restart the sequence
	assert.Equal(t, "Q-20260001", NextNumber(QuotePrefix, "Q-20259999", 2026))
	// sequence keeps growing past four digits without colliding
	assert.Equal(t, "Q-202510000", NextNumber(QuotePrefix, "Q-20259999", 2025))
}

func TestNextNumberStrictlyIncreasing(t *testing.T) {
	last := ""
	prev := 0
	for i := 0; i < 50; i++ {
		last = NextNumber(QuotePrefix, last, 2025)
		seq, ok := SequenceOf(last, QuotePrefix, 2025)
		require.True(t, ok, "generated number %q did not parse", last)
		assert.Greater(t, seq, prev)
		prev = seq
	}
}

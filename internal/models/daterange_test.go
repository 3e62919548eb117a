package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func day(s string) time.Time {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestRangesOverlap(t *testing.T) {
	tests := []struct {
		name           string
		s1, e1, s2, e2 string
		want           bool
	}{
		{"disjoint before", "2025-01-01", "2025-01-04", "2025-01-05", "2025-01-10", false},
		{"disjoint after", "2025-01-11", "2025-01-12", "2025-01-05", "2025-01-10", false},
		{"shared boundary day", "2025-01-01", "2025-01-05", "2025-01-05", "2025-01-10", true},
		{"contained", "2025-03-03", "2025-03-04", "2025-03-01", "2025-03-05", true},
		{"containing", "2025-03-01", "2025-03-05", "2025-03-03", "2025-03-04", true},
		{"partial overlap", "2025-01-03", "2025-01-07", "2025-01-05", "2025-01-10", true},
		{"identical", "2025-06-01", "2025-06-02", "2025-06-01", "2025-06-02", true},
		{"single day vs single day", "2025-06-01", "2025-06-01", "2025-06-01", "2025-06-01", true},
		{"adjacent single days", "2025-06-01", "2025-06-01", "2025-06-02", "2025-06-02", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RangesOverlap(day(tt.s1), day(tt.e1), day(tt.s2), day(tt.e2))
			assert.Equal(t, tt.want, got)

			// overlaps(a, b) == overlaps(b, a) for every pair
			sym := RangesOverlap(day(tt.s2), day(tt.e2), day(tt.s1), day(tt.e1))
			assert.Equal(t, got, sym, "overlap must be symmetric")
		})
	}
}

func TestDateOnly(t *testing.T) {
	loc := time.FixedZone("UTC+5", 5*3600)
	in := time.Date(2025, 7, 14, 23, 45, 12, 999, loc)
	got := DateOnly(in)

	assert.Equal(t, 2025, got.Year())
	assert.Equal(t, time.July, got.Month())
	assert.Equal(t, 14, got.Day())
	assert.Equal(t, 0, got.Hour())
	assert.Equal(t, time.UTC, got.Location())
}

func TestStatusHelpers(t *testing.T) {
	assert.True(t, IsValidStatus(StatusPending))
	assert.True(t, IsValidStatus(StatusApproved))
	assert.True(t, IsValidStatus(StatusRejected))
	assert.False(t, IsValidStatus("CONFIRMED"))

	assert.False(t, IsTerminalStatus(StatusPending))
	assert.True(t, IsTerminalStatus(StatusApproved))
	assert.True(t, IsTerminalStatus(StatusRejected))

	assert.True(t, IsValidDecision(StatusApproved))
	assert.True(t, IsValidDecision(StatusRejected))
	assert.False(t, IsValidDecision(StatusPending))
	assert.False(t, IsValidDecision("approved"))
}

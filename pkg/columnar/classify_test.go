package columnar

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ajitpratap0/oraexport/pkg/models"
)

func TestIsISODate(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"2024-03-15", true},
		{"1970-01-01", true},
		{"2024-3-15", false},
		{"2024-02-30", false},
		{"2024/03/15", false},
		{"20240315xx", false},
		{"2024-03-15T00:00:00", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsISODate(tt.in), tt.in)
	}
}

// Exactly one of the temporal predicates matches, or none do.
func TestTemporalPredicatesAreExclusive(t *testing.T) {
	const (
		none = iota
		date
		withTZ
		noTZ
	)
	tests := []struct {
		in   string
		want int
	}{
		{"2024-01-01", date},
		{"2024-01-01T12:00:00", noTZ},
		{"2024-01-01T12:00:00.123456", noTZ},
		{"2024-01-01T12:00:00Z", withTZ},
		{"2024-01-01T12:00:00.000000 +02:00", withTZ},
		{"2024-01-01T12:00:00.000000 -08:00", withTZ},
		{"2024-01-01T12:00:00-05:00", withTZ},
		{"2024-01-01T12:00:00+05:30", withTZ},
		{"hello world", none},
		{"12345678", none},
		{"2024-01-01T", none},
		{"Tomorrow at noon, 2024-01-01", none},
		{"", none},
	}
	for _, tt := range tests {
		got := map[int]bool{
			date:   IsISODate(tt.in),
			withTZ: IsISOTimestampTZ(tt.in),
			noTZ:   IsISOTimestamp(tt.in),
		}
		matches := 0
		for _, ok := range got {
			if ok {
				matches++
			}
		}
		if tt.want == none {
			assert.Zero(t, matches, tt.in)
			continue
		}
		assert.Equal(t, 1, matches, tt.in)
		assert.True(t, got[tt.want], tt.in)
	}
}

func TestIsHexString(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"DEADBEEF", true},
		{"deadbeef", true},
		{"0A1b2C3d4E5f", true},
		{"DEADBEE", false},
		{"ABCDEF", false},
		{"DEADBEEG", false},
		// long even-length digit strings are treated as binary
		{"12345678", true},
		{"1234", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsHexString(tt.in), tt.in)
	}
}

func TestIsLikelyLOB(t *testing.T) {
	assert.True(t, IsLikelyLOB(models.String(strings.Repeat("x", LOBThreshold+1))))
	assert.False(t, IsLikelyLOB(models.String(strings.Repeat("x", LOBThreshold))))
	assert.True(t, IsLikelyLOB(models.String("HEXTORAW('DEADBEEF')")))
	assert.False(t, IsLikelyLOB(models.Int(1)))
	assert.False(t, IsLikelyLOB(models.Null()))

	// length is counted in characters, not bytes
	assert.False(t, IsLikelyLOB(models.String(strings.Repeat("é", 3000))))
}

func TestExtractTimezone(t *testing.T) {
	tests := []struct {
		in     string
		want   string
		wantOK bool
	}{
		{"2024-01-01T12:00:00Z", "UTC", true},
		{"2024-01-01T12:00:00.000000 +02:00", "+02:00", true},
		{"2024-01-01T12:00:00.000000 -08:00", "-08:00", true},
		{"2024-01-01T12:00:00-05:00", "-05:00", true},
		{"2024-01-01T12:00:00+05:30", "+05:30", true},
		{"2024-01-01T12:00:00", "", false},
	}
	for _, tt := range tests {
		got, ok := ExtractTimezone(tt.in)
		assert.Equal(t, tt.wantOK, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

package columnar

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ajitpratap0/oraexport/pkg/models"
)

const (
	dateLayout      = "2006-01-02"
	timestampLayout = "2006-01-02T15:04:05"

	// timestampPrefixLen is len("YYYY-MM-DDTHH:MM:SS"); a timezone marker
	// can only start at or after this offset.
	timestampPrefixLen = 19

	// LOBThreshold is the text length above which a value is treated as a large object
	LOBThreshold = 4000
	// hexMinLen keeps short numeric IDs out of the Binary classification
	hexMinLen = 8

	hexToRawPrefix = "HEXTORAW"
)

// IsISODate reports whether s is a calendar date in YYYY-MM-DD form
func IsISODate(s string) bool {
	if len(s) != 10 || s[4] != '-' || s[7] != '-' {
		return false
	}
	_, err := time.Parse(dateLayout, s)
	return err == nil
}

// IsISOTimestampTZ reports whether s looks like an ISO timestamp carrying a
// timezone marker: a trailing 'Z', a space followed by a sign, or a sign at
// or after offset 19. A trailing '-' only counts when the string holds more
// than the two date hyphens.
func IsISOTimestampTZ(s string) bool {
	if !strings.Contains(s, "T") || len(s) < timestampPrefixLen+1 {
		return false
	}

	return strings.HasSuffix(s, "Z") ||
		strings.Contains(s, " +") || strings.Contains(s, " -") ||
		strings.LastIndexByte(s, '+') >= timestampPrefixLen ||
		(strings.LastIndexByte(s, '-') >= timestampPrefixLen && strings.Count(s, "-") > 2)
}

// IsISOTimestamp reports whether s is an ISO timestamp without a timezone
// (YYYY-MM-DDTHH:MM:SS with an optional fraction)
func IsISOTimestamp(s string) bool {
	if !strings.Contains(s, "T") || len(s) < timestampPrefixLen {
		return false
	}
	if IsISOTimestampTZ(s) {
		return false
	}
	_, err := time.Parse(timestampLayout, s[:timestampPrefixLen])
	return err == nil
}

// IsHexString reports whether s is an even-length string of at least eight
// ASCII hex digits, the way RAW columns are rendered
func IsHexString(s string) bool {
	if len(s) < hexMinLen || len(s)%2 != 0 {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isHexDigit(s[i]) {
			return false
		}
	}
	return true
}

// IsLikelyLOB reports whether v looks like a CLOB/BLOB payload: text longer
// than LOBThreshold characters or a HEXTORAW literal
func IsLikelyLOB(v models.Value) bool {
	s, ok := v.AsString()
	if !ok {
		return false
	}
	if strings.HasPrefix(s, hexToRawPrefix) {
		return true
	}
	return len(s) > LOBThreshold && utf8.RuneCountInString(s) > LOBThreshold
}

// ExtractTimezone returns the timezone marker of a timestamp string: "UTC"
// for a trailing 'Z', otherwise the ±HH:MM suffix.
func ExtractTimezone(s string) (string, bool) {
	if strings.HasSuffix(s, "Z") {
		return "UTC", true
	}

	pos := strings.LastIndex(s, " +")
	if pos < 0 {
		pos = strings.LastIndex(s, " -")
	}
	if pos >= 0 {
		return strings.TrimSpace(s[pos+1:]), true
	}

	if pos := strings.LastIndexByte(s, '+'); pos >= timestampPrefixLen {
		return s[pos:], true
	}

	if pos := strings.LastIndexByte(s, '-'); pos >= timestampPrefixLen && strings.Count(s, "-") > 2 {
		return s[pos:], true
	}

	return "", false
}

func isHexDigit(c byte) bool {
	return ('0' <= c && c <= '9') || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}

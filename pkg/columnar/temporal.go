package columnar

import (
	"encoding/hex"
	"strconv"
	"strings"
	"time"
)

const (
	microsPerSecond = int64(1_000_000)
	secondsPerDay   = int64(86_400)
	fractionDigits  = 6
)

// DateToDays parses YYYY-MM-DD and returns the signed number of days since 1970-01-01
func DateToDays(s string) (int32, bool) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return 0, false
	}
	// t is midnight UTC, so the division is exact, including before the epoch
	return int32(t.Unix() / secondsPerDay), true
}

// TimestampToMicros parses the first 19 characters of s as
// YYYY-MM-DDTHH:MM:SS, adds an optional ".ffffff" fraction (at most six
// digits, right-padded) and returns microseconds since the epoch. No
// timezone adjustment is made.
func TimestampToMicros(s string) (int64, bool) {
	if len(s) < timestampPrefixLen {
		return 0, false
	}
	t, err := time.Parse(timestampLayout, s[:timestampPrefixLen])
	if err != nil {
		return 0, false
	}
	return t.Unix()*microsPerSecond + fractionMicros(s), true
}

// fractionMicros reads the digits following a '.' at offset 19. Anything
// unparseable counts as zero.
func fractionMicros(s string) int64 {
	if len(s) <= timestampPrefixLen || s[timestampPrefixLen] != '.' {
		return 0
	}
	rest := s[timestampPrefixLen+1:]
	n := 0
	for n < len(rest) && rest[n] >= '0' && rest[n] <= '9' {
		n++
	}
	digits := rest[:n]
	if len(digits) > fractionDigits {
		digits = digits[:fractionDigits]
	}
	digits += strings.Repeat("0", fractionDigits-len(digits))
	frac, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0
	}
	return frac
}

// TimezoneOffsetSeconds converts a timezone marker to its offset east of UTC:
// 0 for "Z" and "UTC", sign*(HH*3600+MM*60) for ±HH:MM.
func TimezoneOffsetSeconds(tz string) (int64, bool) {
	tz = strings.TrimSpace(tz)
	switch tz {
	case "Z", "UTC":
		return 0, true
	case "":
		return 0, false
	}

	var sign int64
	switch tz[0] {
	case '+':
		sign = 1
	case '-':
		sign = -1
	default:
		return 0, false
	}

	parts := strings.Split(tz[1:], ":")
	if len(parts) != 2 {
		return 0, false
	}
	hours, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return 0, false
	}
	minutes, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return 0, false
	}
	return sign * (hours*3600 + minutes*60), true
}

// TZTimestampToUTCMicros parses a timestamp carrying a timezone marker and
// returns UTC microseconds since the epoch. Accepted shapes:
//
//	2024-01-01T12:00:00.000000 +02:00   (space before the offset)
//	2024-01-01T12:00:00Z
//	2024-01-01T12:00:00-05:00
func TZTimestampToUTCMicros(s string) (int64, bool) {
	base, tz, ok := splitTimezone(s)
	if !ok {
		return 0, false
	}
	micros, ok := TimestampToMicros(base)
	if !ok {
		return 0, false
	}
	offset, ok := TimezoneOffsetSeconds(tz)
	if !ok {
		return 0, false
	}
	return micros - offset*microsPerSecond, true
}

// splitTimezone separates the base timestamp from its timezone marker
func splitTimezone(s string) (base, tz string, ok bool) {
	if i := firstSpaceSign(s); i >= 0 {
		return strings.TrimSpace(s[:i]), strings.TrimSpace(s[i+1:]), true
	}
	if strings.HasSuffix(s, "Z") {
		return strings.TrimSuffix(s, "Z"), "Z", true
	}
	pos := strings.LastIndexAny(s, "+-")
	if pos < timestampPrefixLen {
		return "", "", false
	}
	return s[:pos], s[pos:], true
}

func firstSpaceSign(s string) int {
	plus := strings.Index(s, " +")
	minus := strings.Index(s, " -")
	switch {
	case plus < 0:
		return minus
	case minus < 0:
		return plus
	case plus < minus:
		return plus
	default:
		return minus
	}
}

// HexToBinary decodes a hex string into raw bytes. Odd lengths and non-hex
// characters are rejected.
func HexToBinary(s string) ([]byte, bool) {
	if len(s)%2 != 0 {
		return nil, false
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, false
	}
	return b, true
}

// BytesToHex encodes b as upper-case hex, the form RAW columns use
func BytesToHex(b []byte) string {
	return strings.ToUpper(hex.EncodeToString(b))
}

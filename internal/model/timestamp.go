package model

import (
	"strconv"
	"strings"
)

// Timestamp is a platform-assigned message timestamp ("1712345678.000200" on Slack).
// Timestamps are unique within a channel and increase monotonically.
type Timestamp string

func (t Timestamp) String() string {
	return string(t)
}

func (t Timestamp) IsZero() bool {
	return strings.TrimSpace(string(t)) == ""
}

// Compare orders timestamps numerically: seconds first, then the fractional part.
// Values that don't parse fall back to lexical order so the result is still total.
func (t Timestamp) Compare(other Timestamp) int {
	aSec, aFrac, aOK := splitTimestamp(string(t))
	bSec, bFrac, bOK := splitTimestamp(string(other))
	if !aOK || !bOK {
		return strings.Compare(string(t), string(other))
	}

	switch {
	case aSec < bSec:
		return -1
	case aSec > bSec:
		return 1
	}

	// pad fractions to equal width so "5" and "500000" compare as the same micros
	for len(aFrac) < len(bFrac) {
		aFrac += "0"
	}
	for len(bFrac) < len(aFrac) {
		bFrac += "0"
	}
	return strings.Compare(aFrac, bFrac)
}

func (t Timestamp) Before(other Timestamp) bool {
	return t.Compare(other) < 0
}

func splitTimestamp(s string) (int64, string, bool) {
	whole, frac, _ := strings.Cut(strings.TrimSpace(s), ".")
	sec, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, "", false
	}
	for _, r := range frac {
		if r < '0' || r > '9' {
			return 0, "", false
		}
	}
	return sec, frac, true
}

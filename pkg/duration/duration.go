package duration

import (
	"fmt"
	"strconv"
	"strings"
)

type unit struct {
	suffix  string
	seconds int64
}

// Suffixes are scanned in this order. The first suffix class that matches any
// token wins, regardless of where the token appears in the input.
var units = []unit{
	{"d", 24 * 60 * 60},
	{"h", 60 * 60},
	{"m", 60},
	{"s", 1},
}

// Parse extracts a duration in seconds from free-text argument tokens.
//
// A token matches when it is a purely numeric prefix followed by one of the
// suffixes d, h, m or s ("3d", "45m"). Suffixes are tried in priority order
// d, h, m, s; once a suffix class yields a match the remaining classes are
// not considered. Malformed tokens never fail the parse, they are just not
// matches. No match at all returns 0, which callers treat as "permanent".
func Parse(tokens []string) int64 {
	for _, u := range units {
		for _, tok := range tokens {
			prefix, ok := strings.CutSuffix(tok, u.suffix)
			if !ok || prefix == "" {
				continue
			}
			n, err := strconv.ParseUint(prefix, 10, 32)
			if err != nil {
				continue
			}
			return int64(n) * u.seconds
		}
	}
	return 0
}

// Format renders seconds as the largest whole unit that fits: "2 days",
// "1 hour", "45 minutes", "30 seconds". Zero or negative means "forever".
func Format(seconds int64) string {
	if seconds <= 0 {
		return "forever"
	}

	for _, u := range units {
		if seconds < u.seconds {
			continue
		}
		n := seconds / u.seconds
		return fmt.Sprintf("%d %s", n, unitName(u.suffix, n))
	}
	return "forever" // unreachable: the "s" unit always fits
}

func unitName(suffix string, n int64) string {
	var name string
	switch suffix {
	case "d":
		name = "day"
	case "h":
		name = "hour"
	case "m":
		name = "minute"
	default:
		name = "second"
	}
	if n != 1 {
		name += "s"
	}
	return name
}

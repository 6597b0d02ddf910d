package webtk

import (
	"regexp"
	"strconv"
	"time"
)

var durationRe = regexp.MustCompile(`^\s*(\d+)\s*([smhdw])\s*$`)

// ParseDuration parses a short human duration like "30s", "15m", "24h",
// "7d", or "2w". Unlike time.ParseDuration it supports day and week units,
// which cache TTLs are usually expressed in.
func ParseDuration(value string) (time.Duration, error) {
	m := durationRe.FindStringSubmatch(value)
	if m == nil {
		return 0, Errorf(EINVALID, "invalid duration %q (expected e.g. 30s, 15m, 24h, 7d)", value)
	}
	amount, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, Errorf(EINVALID, "invalid duration %q", value)
	}
	switch m[2] {
	case "s":
		return time.Duration(amount) * time.Second, nil
	case "m":
		return time.Duration(amount) * time.Minute, nil
	case "h":
		return time.Duration(amount) * time.Hour, nil
	case "d":
		return time.Duration(amount) * 24 * time.Hour, nil
	case "w":
		return time.Duration(amount) * 7 * 24 * time.Hour, nil
	}
	return 0, Errorf(EINVALID, "invalid duration unit %q", m[2])
}

package source

import (
	"strconv"
	"strings"
)

// Float leniently parses a numeric field from an upstream payload. The fund
// endpoints send numbers as JSON strings and leave fields empty (or send
// placeholders like "--") when they have no value; all of those normalize to
// 0 rather than raising a parse error, because downstream already treats
// v <= 0 as absent.
func Float(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

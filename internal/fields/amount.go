package fields

import (
	"strconv"
	"strings"
)

// ParseAmount normalizes a penalty amount string to a numeric value. Source
// amounts are irregular and not guaranteed parseable; the raw string is
// always kept on the record and nil here just means no clean number.
func ParseAmount(raw string) *float64 {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 {
		return nil
	}
	return &v
}

package normalize

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var (
	ErrEmptyValue = errors.New("empty value")
	ErrNotNumeric = errors.New("value is not numeric")
	ErrNonFinite  = errors.New("value is not finite")
)

// ValueFields is what a line parser extracted before numeric conversion.
type ValueFields struct {
	Token string
	Raw   string
}

func Normalize(fields ValueFields) (float64, error) {
	return ParseValue(fields.Token)
}

// ParseValue converts a single token to a reading. Whitespace and one
// matching pair of surrounding quotes are ignored. NaN and infinities are rejected so that every
// accepted reading compares meaningfully against the threshold.
func ParseValue(token string) (float64, error) {
	v := strings.TrimSpace(unquote(strings.TrimSpace(token)))
	if v == "" {
		return 0, ErrEmptyValue
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		var numErr *strconv.NumError
		if errors.As(err, &numErr) && errors.Is(numErr.Err, strconv.ErrRange) {
			return 0, fmt.Errorf("%w: %q", ErrNonFinite, v)
		}
		return 0, fmt.Errorf("%w: %q", ErrNotNumeric, v)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%w: %q", ErrNonFinite, v)
	}
	return f, nil
}

func unquote(s string) string {
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	return s
}

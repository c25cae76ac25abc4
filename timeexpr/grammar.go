package timeexpr

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/capslice/capslice/errs"
)

// unit identifies a structured-grammar token's field, ordered from most to
// least significant; the zero value is the most significant (year).
type unit int

const (
	unitYear unit = iota
	unitMonth
	unitDay
	unitHour
	unitMinute
	unitSecond
	unitMicro
	unitCount
)

// token is one <amount><letter> structured-grammar element.
type token struct {
	val  int
	u    unit
	rank int // position in the strictly-decreasing-magnitude sequence
}

// isRawTimestamp reports whether s matches the raw grammar: `digits` or
// `digits.digits`, with no sign (a leading '+' is stripped by the caller).
func isRawTimestamp(s string) bool {
	intPart, fracPart, hasFrac := strings.Cut(s, ".")
	if intPart == "" || (hasFrac && fracPart == "") {
		return false
	}
	for _, c := range intPart + fracPart {
		if !(c >= '0' && c <= '9') {
			return false
		}
	}
	return true
}

// parseRaw parses the raw grammar into (seconds, microseconds), enforcing
// the integer bound of 2^31-1 and at most 6 fractional digits.
func parseRaw(s string) (sec int64, usec int32, err error) {
	intPart, fracPart, hasFrac := strings.Cut(s, ".")
	if intPart == "" {
		return 0, 0, fmt.Errorf("%w: empty integer part in %q", errs.ErrBadFormat, s)
	}

	iv, convErr := strconv.ParseInt(intPart, 10, 64)
	if convErr != nil {
		return 0, 0, fmt.Errorf("%w: %q: %v", errs.ErrBadFormat, s, convErr)
	}
	if iv > (1<<31)-1 {
		return 0, 0, fmt.Errorf("%w: %q exceeds 2^31-1", errs.ErrOutOfRange, s)
	}

	if !hasFrac {
		return iv, 0, nil
	}
	if len(fracPart) > 6 {
		return 0, 0, fmt.Errorf("%w: %q has more than 6 fractional digits", errs.ErrBadFormat, s)
	}
	if fracPart == "" {
		return iv, 0, nil
	}
	fv, convErr := strconv.ParseInt(fracPart, 10, 64)
	if convErr != nil {
		return 0, 0, fmt.Errorf("%w: %q: %v", errs.ErrBadFormat, s, convErr)
	}
	for n := len(fracPart); n < 6; n++ {
		fv *= 10
	}
	return iv, int32(fv), nil
}

// tokenize splits a structured time expression into its <amount><letter>
// tokens, resolving the ambiguous 'm' unit (month vs. minute) by looking
// ahead in the remainder of the string for a 'd'/'D' token, and enforcing
// strictly decreasing unit magnitude with each unit used at most once.
func tokenize(s string) ([]token, error) {
	var toks []token
	seen := [unitCount]bool{}
	lastRank := -1

	i := 0
	for i < len(s) {
		start := i
		if s[i] < '0' || s[i] > '9' {
			return nil, fmt.Errorf("%w: %q: expected digit at position %d", errs.ErrBadFormat, s, i)
		}
		for i < len(s) && s[i] >= '0' && s[i] <= '9' {
			i++
		}
		val, err := strconv.Atoi(s[start:i])
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %v", errs.ErrBadFormat, s, err)
		}
		if i >= len(s) {
			return nil, fmt.Errorf("%w: %q: missing unit letter after %d", errs.ErrBadFormat, s, val)
		}

		ch := s[i]
		i++
		u, ok := classifyUnit(ch, s[i:])
		if !ok {
			return nil, fmt.Errorf("%w: %q: unknown unit %q", errs.ErrBadFormat, s, string(ch))
		}

		rank := int(u)
		if seen[u] {
			return nil, fmt.Errorf("%w: %q: unit %q used more than once", errs.ErrBadFormat, s, string(ch))
		}
		if rank <= lastRank {
			return nil, fmt.Errorf("%w: %q: units must appear in decreasing magnitude", errs.ErrBadFormat, s)
		}
		seen[u] = true
		lastRank = rank

		toks = append(toks, token{val: val, u: u, rank: rank})
		if len(toks) > 7 {
			return nil, fmt.Errorf("%w: %q: more than 7 tokens", errs.ErrBadFormat, s)
		}
	}
	if len(toks) == 0 {
		return nil, fmt.Errorf("%w: %q: empty structured time expression", errs.ErrBadFormat, s)
	}
	return toks, nil
}

// classifyUnit resolves a single unit letter to a unit, disambiguating 'm'
// between month and minute: it's month only when a later 'd'/'D' token
// letter appears in the remainder of the expression, minute otherwise.
func classifyUnit(ch byte, rest string) (unit, bool) {
	switch lower(ch) {
	case 'y':
		return unitYear, true
	case 'm':
		if strings.ContainsAny(rest, "dD") {
			return unitMonth, true
		}
		return unitMinute, true
	case 'd':
		return unitDay, true
	case 'h':
		return unitHour, true
	case 's':
		return unitSecond, true
	case 'u':
		return unitMicro, true
	default:
		return 0, false
	}
}

func lower(b byte) byte {
	if b >= 'A' && b <= 'Z' {
		return b - 'A' + 'a'
	}
	return b
}

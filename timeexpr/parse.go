// Package timeexpr parses the two time-expression grammars capslice accepts
// as positional start/end times: a raw epoch value
// ("1690000000.5") and a structured "3y2m1d12h30m0s" style expression, each
// usable either as an absolute time or, prefixed with '+', as a delta
// applied to a base time.
package timeexpr

import (
	"fmt"
	"strings"

	"github.com/capslice/capslice/errs"
	"github.com/capslice/capslice/timeval"
)

// rawFields mirrors struct tm's representation during parsing: tmYear is
// years-since-1900 (possibly still accumulating, for a delta expression),
// Month is 0-11, and an unset non-delta field is held as -1 until the
// base-time fill-in pass resolves it.
type rawFields struct {
	tmYear         int
	mon, day       int
	hour, min, sec int
	usec           int64
}

const unset = -1

// LooksLikeTimeExpression reports whether str is a syntactically well-formed
// time expression under the raw or structured grammar (optionally '+'-
// prefixed), without resolving it against any base time. The CLI uses this
// to disambiguate a positional argument as a start/stop time versus an
// input filename (§6): a token is a time iff it satisfies this grammar,
// otherwise it is taken to be a filename.
func LooksLikeTimeExpression(str string) bool {
	str = strings.TrimSpace(str)
	if str == "" {
		return false
	}
	if str[0] == '+' {
		str = str[1:]
	}
	if isRawTimestamp(str) {
		return true
	}
	_, err := tokenize(str)
	return err == nil
}

// Parse resolves str, a raw or structured time expression optionally
// prefixed with '+' for a delta, against base. base is used both as the
// addend for a delta expression and as the source of any calendar field a
// non-delta structured expression leaves unspecified.
func Parse(str string, base timeval.Timestamp) (timeval.Timestamp, error) {
	str = strings.TrimSpace(str)
	if str == "" {
		return timeval.Timestamp{}, fmt.Errorf("%w: empty time expression", errs.ErrBadFormat)
	}

	delta := false
	if str[0] == '+' {
		delta = true
		str = str[1:]
	}

	if isRawTimestamp(str) {
		sec, usec, err := parseRaw(str)
		if err != nil {
			return timeval.Timestamp{}, err
		}
		ts := timeval.Timestamp{Sec: sec, Usec: usec}
		if delta {
			ts = base.Add(ts)
		}
		return ts.Normalize(), nil
	}

	toks, err := tokenize(str)
	if err != nil {
		return timeval.Timestamp{}, err
	}

	bdt := timeval.LocalBrokenDown(base)
	baseRaw := rawFields{
		tmYear: bdt.Year - 1900,
		mon:    bdt.Month,
		day:    bdt.Day,
		hour:   bdt.Hour,
		min:    bdt.Min,
		sec:    bdt.Sec,
		usec:   int64(base.Usec),
	}

	var f rawFields
	if delta {
		f = baseRaw
	} else {
		f = rawFields{tmYear: unset, mon: unset, day: unset, hour: unset, min: unset, sec: unset}
	}

	for _, tok := range toks {
		if err := applyToken(&f, tok, delta); err != nil {
			return timeval.Timestamp{}, err
		}
	}

	if !delta {
		fillFromBase(&f, baseRaw)
	}

	year := timeval.FoldYearOffset(f.tmYear)
	b := timeval.BrokenDownTime{Year: year, Month: f.mon, Day: f.day, Hour: f.hour, Min: f.min, Sec: f.sec}

	pretendGMT, err := b.FoldGMT()
	if err != nil {
		return timeval.Timestamp{}, err
	}
	sec := pretendGMT - timeval.LocalOffset(pretendGMT)

	return normalizeUsec(sec, f.usec), nil
}

// normalizeUsec folds a possibly out-of-range accumulated microsecond count
// (a delta expression can push usec past 1e6, or negative) into a Timestamp.
func normalizeUsec(sec int64, usec int64) timeval.Timestamp {
	sec += usec / 1_000_000
	u := usec % 1_000_000
	if u < 0 {
		u += 1_000_000
		sec--
	}
	return timeval.Timestamp{Sec: sec, Usec: int32(u)}
}

// applyToken assigns (absolute) or accumulates (delta) one token's value
// into its field, mirroring fill_tm's per-unit SET_VAL handling.
func applyToken(f *rawFields, tok token, delta bool) error {
	switch tok.u {
	case unitYear:
		offset, err := timeval.YearTokenOffset(tok.val)
		if err != nil {
			return err
		}
		f.tmYear = setOrAdd(f.tmYear, offset, delta)
	case unitMonth:
		if delta {
			f.mon += tok.val
		} else {
			f.mon = tok.val - 1
		}
	case unitDay:
		f.day = setOrAdd(f.day, tok.val, delta)
	case unitHour:
		f.hour = setOrAdd(f.hour, tok.val, delta)
	case unitMinute:
		f.min = setOrAdd(f.min, tok.val, delta)
	case unitSecond:
		f.sec = setOrAdd(f.sec, tok.val, delta)
	case unitMicro:
		if delta {
			f.usec += int64(tok.val)
		} else {
			f.usec = int64(tok.val)
		}
	}
	return nil
}

func setOrAdd(cur, val int, delta bool) int {
	if delta {
		return cur + val
	}
	return val
}

// fillFromBase walks the calendar fields from most to least significant,
// filling any field the user left unset from base's fields. It stops at
// the first field the user DID set: fields more significant than the
// user's most significant token inherit from base, but fields below it
// default to zero/one rather than picking up base's value, matching the
// original tool's CHECK_FIELD/ZERO_FIELD_IF_NOT_SET sequence.
func fillFromBase(f *rawFields, base rawFields) {
	fields := []struct {
		cur  *int
		base int
	}{
		{&f.tmYear, base.tmYear},
		{&f.mon, base.mon},
		{&f.day, base.day},
		{&f.hour, base.hour},
		{&f.min, base.min},
		{&f.sec, base.sec},
	}
	for _, fl := range fields {
		if *fl.cur == unset {
			*fl.cur = fl.base
		} else {
			break
		}
	}

	if f.mon == unset {
		f.mon = 0
	}
	if f.day == unset {
		f.day = 1
	}
	if f.hour == unset {
		f.hour = 0
	}
	if f.min == unset {
		f.min = 0
	}
	if f.sec == unset {
		f.sec = 0
	}
	// f.tmYear can't reach here unset: the walk above always either keeps
	// the user's value or fills it from base on its first iteration.
}

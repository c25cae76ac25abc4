package timeval

import (
	"fmt"
	"time"

	"github.com/capslice/capslice/errs"
)

// daysInMonth mirrors the non-leap days-per-month table; Month is 0-11.
var daysInMonth = [12]int{31, 28, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}

// IsLeapYear reports whether year is a leap year (divisible by 4, except
// centuries not divisible by 400).
func IsLeapYear(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

// BrokenDownTime is a calendar time with Month in [0, 11] (January == 0),
// matching the wire/grammar convention used by timeexpr.
type BrokenDownTime struct {
	Year  int
	Month int
	Day   int
	Hour  int
	Min   int
	Sec   int
}

// ResolveTwoDigitYear folds a parsed year token into a 4-digit year using
// the same two-step rule the original tool applies: a value in [100, 1969]
// is rejected outright (it can't be a valid 2-digit-or-4-digit year), a
// value above 1900 is first brought into "years since 1900" form, and
// finally any year that lands below 1970 is pushed forward a century. The
// net effect: two-digit years in [0, 69] resolve to 2000-2069, in [70, 99]
// resolve to 1970-1999, and ordinary 4-digit years in [1970, 2069] pass
// through unchanged.
func ResolveTwoDigitYear(val int) (int, error) {
	offset, err := YearTokenOffset(val)
	if err != nil {
		return 0, err
	}
	return FoldYearOffset(offset), nil
}

// YearTokenOffset validates a raw year token and converts it to "years
// since 1900" form, the representation a year field is carried in until
// FoldYearOffset resolves it to a 4-digit year. Exposed separately from
// ResolveTwoDigitYear because a delta time expression accumulates an offset
// across possibly several operations before the final fold.
func YearTokenOffset(val int) (int, error) {
	if val >= 100 && val < 1970 {
		return 0, fmt.Errorf("%w: year %d", errs.ErrOutOfRange, val)
	}
	if val > 1900 {
		val -= 1900
	}
	return val, nil
}

// FoldYearOffset resolves a "years since 1900" offset to a 4-digit year,
// pushing anything that lands before 1970 forward a century.
func FoldYearOffset(offset int) int {
	year := offset + 1900
	if year < 1970 {
		year += 100
	}
	return year
}

// Validate rejects calendar fields outside their supported range, naming
// the offending field. The supported year range is [1970, 2069].
func (b BrokenDownTime) Validate() error {
	switch {
	case b.Year < 1970 || b.Year > 2069:
		return fmt.Errorf("%w: year %d not in [1970, 2069]", errs.ErrOutOfRange, b.Year)
	case b.Month < 0 || b.Month > 11:
		return fmt.Errorf("%w: month %d not in [0, 11]", errs.ErrOutOfRange, b.Month)
	case b.Day < 1 || b.Day > 31:
		return fmt.Errorf("%w: day %d not in [1, 31]", errs.ErrOutOfRange, b.Day)
	case b.Hour < 0 || b.Hour > 23:
		return fmt.Errorf("%w: hour %d not in [0, 23]", errs.ErrOutOfRange, b.Hour)
	case b.Min < 0 || b.Min > 59:
		return fmt.Errorf("%w: minute %d not in [0, 59]", errs.ErrOutOfRange, b.Min)
	case b.Sec < 0 || b.Sec > 60:
		return fmt.Errorf("%w: second %d not in [0, 60]", errs.ErrOutOfRange, b.Sec)
	}
	return nil
}

// FoldGMT converts a validated broken-down time into epoch seconds by
// accumulating whole days since 1970-01-01, treating the fields as GMT
// (no timezone database involved). This is deliberately independent of the
// host's local time zone so that parsing a given time string yields the
// same instant on any machine; LocalBrokenDown/LocalOffset (below) are
// what pull the local zone in, at the call sites that need it.
func (b BrokenDownTime) FoldGMT() (int64, error) {
	if err := b.Validate(); err != nil {
		return 0, err
	}

	days := 0
	for y := 1970; y < b.Year; y++ {
		days += 365
		if IsLeapYear(y) {
			days++
		}
	}
	for m := 0; m < b.Month; m++ {
		days += daysInMonth[m]
	}
	if IsLeapYear(b.Year) && b.Month > 1 {
		days++
	}
	days += b.Day - 1

	secs := int64(days)*86400 + int64(b.Hour)*3600 + int64(b.Min)*60 + int64(b.Sec)
	return secs, nil
}

// LocalBrokenDown returns the broken-down calendar fields of ts in the
// host's local time zone, used by the time-string parser to fill in fields
// left unset by the user relative to a base time.
func LocalBrokenDown(ts Timestamp) BrokenDownTime {
	t := time.Unix(ts.Sec, 0).Local()
	return BrokenDownTime{
		Year:  t.Year(),
		Month: int(t.Month()) - 1,
		Day:   t.Day(),
		Hour:  t.Hour(),
		Min:   t.Minute(),
		Sec:   t.Second(),
	}
}

// LocalOffset returns the local zone's offset from GMT, in seconds, at the
// instant epochSec (GMT-folded seconds since 1970-01-01). Subtracting it
// from a GMT-folded result converts "local wall-clock fields folded as if
// GMT" into the correct absolute instant, mirroring gmt2local().
func LocalOffset(epochSec int64) int64 {
	_, offset := time.Unix(epochSec, 0).Local().Zone()
	return int64(offset)
}

package timeval

import "fmt"

// Style selects the textual rendering of a Timestamp.
type Style int

const (
	// Raw renders "seconds.microseconds", e.g. "1690000000.500000".
	Raw Style = iota
	// Readable renders an asctime-ish "Mon Jan  2 15:04:05 2006" in local time.
	Readable
	// Parseable renders capslice's own round-trippable
	// "YYYYyMMmDDdHHhMMmSSsUUUUUUu" form in local time.
	Parseable
)

var weekdayNames = [7]string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}
var monthNames = [12]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

// Render formats ts according to style.
func Render(ts Timestamp, style Style) string {
	switch style {
	case Readable:
		return renderReadable(ts)
	case Parseable:
		return renderParseable(ts)
	default:
		return ts.String()
	}
}

func renderReadable(ts Timestamp) string {
	b := LocalBrokenDown(ts)
	wd := weekday(b)
	return fmt.Sprintf("%s %s %2d %02d:%02d:%02d %04d",
		weekdayNames[wd], monthNames[b.Month], b.Day, b.Hour, b.Min, b.Sec, b.Year)
}

func renderParseable(ts Timestamp) string {
	b := LocalBrokenDown(ts)
	return fmt.Sprintf("%04dy%02dm%02dd%02dh%02dm%02ds%06du",
		b.Year, b.Month+1, b.Day, b.Hour, b.Min, b.Sec, ts.Usec)
}

// weekday computes the day of week (0=Sunday) for a broken-down date using
// Zeller-ish accumulation consistent with the Gregorian calendar, so that
// Readable rendering doesn't need to round-trip through FoldGMT/time.Time.
func weekday(b BrokenDownTime) int {
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
	// 1970-01-01 was a Thursday (weekday index 4).
	return (days%7 + 4 + 7) % 7
}

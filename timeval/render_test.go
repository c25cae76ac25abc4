package timeval

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRender_Raw(t *testing.T) {
	ts := Timestamp{Sec: 1690000000, Usec: 500000}
	require.Equal(t, "1690000000.500000", Render(ts, Raw))
}

func TestRender_Parseable_RoundTrip(t *testing.T) {
	// Build a timestamp at a well-known local instant and confirm the
	// PARSEABLE rendering reflects the same broken-down fields that
	// LocalBrokenDown reports for it (the property the parser relies on
	// for round-tripping).
	local := time.Date(2021, time.March, 3, 4, 5, 6, 0, time.Local)
	ts := Timestamp{Sec: local.Unix(), Usec: 123000}

	want := Render(ts, Parseable)
	b := LocalBrokenDown(ts)
	got := Render(Timestamp{Sec: mustFold(t, b), Usec: ts.Usec}, Parseable)
	require.Equal(t, want, got)
}

func mustFold(t *testing.T, b BrokenDownTime) int64 {
	// Fold as GMT then re-apply the local offset, inverse of what the
	// parser does, purely to exercise the round trip in this test.
	gmtSecs, err := b.FoldGMT()
	require.NoError(t, err)
	return gmtSecs - LocalOffset(gmtSecs)
}

func TestRender_Readable(t *testing.T) {
	// 2020-06-15 12:00:00 GMT falls on a Monday.
	b := BrokenDownTime{Year: 2020, Month: 5, Day: 15, Hour: 12, Min: 0, Sec: 0}
	require.Equal(t, 1, weekday(b))
}

package merge

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/capslice/capslice/capture"
	"github.com/capslice/capslice/session"
	"github.com/capslice/capslice/timeval"
)

func TestNewContext_Defaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.pcap")
	writeSavefile(t, path, 8, []packetSpec{{1000, 'a'}})
	in := openInput(t, path)
	defer in.Close()

	ctx, err := NewContext([]*capture.Input{in}, Window{Start: timeval.Timestamp{Sec: 1000}, Stop: timeval.Timestamp{Sec: 1000}})
	require.NoError(t, err)
	require.False(t, ctx.KeepDups)
	require.Equal(t, session.NoopTracker{}, ctx.Tracker)
	require.Equal(t, 0, ctx.Verbose)
}

func TestNewContext_AppliesOptions(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.pcap")
	writeSavefile(t, path, 8, []packetSpec{{1000, 'a'}})
	in := openInput(t, path)
	defer in.Close()

	tracker := &stubTracker{open: true}
	ctx, err := NewContext([]*capture.Input{in}, Window{Start: timeval.Timestamp{Sec: 1000}, Stop: timeval.Timestamp{Sec: 1000}},
		WithKeepDuplicates(true),
		WithTracker(tracker),
		WithVerbose(2),
	)
	require.NoError(t, err)
	require.True(t, ctx.KeepDups)
	require.Same(t, tracker, ctx.Tracker)
	require.Equal(t, 2, ctx.Verbose)
}

func TestWithTracker_NilBecomesNoop(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.pcap")
	writeSavefile(t, path, 8, []packetSpec{{1000, 'a'}})
	in := openInput(t, path)
	defer in.Close()

	ctx, err := NewContext([]*capture.Input{in}, Window{Start: timeval.Timestamp{Sec: 1000}, Stop: timeval.Timestamp{Sec: 1000}}, WithTracker(nil))
	require.NoError(t, err)
	require.Equal(t, session.NoopTracker{}, ctx.Tracker)
}

package locator

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/capslice/capslice/capformat"
	"github.com/capslice/capslice/endian"
	"github.com/capslice/capslice/timeval"
)

func TestReasonable(t *testing.T) {
	tests := []struct {
		name                string
		hdr                 Header
		firstTime, lastTime int64
		want                bool
	}{
		{"in range", Header{Timestamp: timeval.Timestamp{Sec: 100}, CapLen: 10, Len: 10}, 0, 200, true},
		{"before first", Header{Timestamp: timeval.Timestamp{Sec: 5}, CapLen: 10, Len: 10}, 100, 200, false},
		{"after last", Header{Timestamp: timeval.Timestamp{Sec: 300}, CapLen: 10, Len: 10}, 100, 200, false},
		{"zero caplen", Header{Timestamp: timeval.Timestamp{Sec: 100}, CapLen: 0, Len: 10}, 0, 200, false},
		{"oversized len", Header{Timestamp: timeval.Timestamp{Sec: 100}, CapLen: 10, Len: MaxReasonablePacketLength + 1}, 0, 200, false},
		{"open-ended upper bound", Header{Timestamp: timeval.Timestamp{Sec: 100 + MaxReasonableFileSpan - 1}, CapLen: 10, Len: 10}, 100, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, Reasonable(tt.hdr, tt.firstTime, tt.lastTime))
		})
	}
}

// packetBytes builds one record (header + dummy payload) at the given
// timestamp, for synthesizing scan buffers in tests.
func packetBytes(engine endian.EndianEngine, sec int64, caplen uint32) []byte {
	rh := capformat.RecordHeader{Sec: int32(sec), Usec: 0, CapLen: caplen, Len: caplen}
	buf := rh.Bytes(engine)
	buf = append(buf, make([]byte, caplen)...)
	return buf
}

func TestFindHeader_Definitely(t *testing.T) {
	engine := endian.GetLittleEndianEngine()
	var buf []byte
	buf = append(buf, packetBytes(engine, 1000, 20)...)
	buf = append(buf, packetBytes(engine, 1001, 20)...)
	buf = append(buf, packetBytes(engine, 1002, 20)...)

	status, pos, hdr := FindHeader(buf, engine, 4, 0, 0)
	require.Equal(t, Definitely, status)
	require.Equal(t, 0, pos)
	require.Equal(t, int64(1000), hdr.Timestamp.Sec)
}

func TestFindHeader_Perhaps(t *testing.T) {
	engine := endian.GetLittleEndianEngine()
	// A single packet with no room left for a confirming successor.
	buf := packetBytes(engine, 1000, 20)

	status, pos, hdr := FindHeader(buf, engine, 4, 0, 0)
	require.Equal(t, Perhaps, status)
	require.Equal(t, 0, pos)
	require.Equal(t, int64(1000), hdr.Timestamp.Sec)
}

func TestFindHeader_None(t *testing.T) {
	engine := endian.GetLittleEndianEngine()
	buf := make([]byte, 64) // all zero: caplen/len are 0, never reasonable

	status, _, _ := FindHeader(buf, engine, 4, 0, 0)
	require.Equal(t, None, status)
}

func TestInterpolatedPosition(t *testing.T) {
	minTime := timeval.Timestamp{Sec: 1000}
	maxTime := timeval.Timestamp{Sec: 2000}
	desired := timeval.Timestamp{Sec: 1500}

	pos := interpolatedPosition(minTime, 0, maxTime, 1000, desired)
	require.Equal(t, int64(500), pos)
}

func TestInterpolatedPosition_OutOfRange(t *testing.T) {
	minTime := timeval.Timestamp{Sec: 1000}
	maxTime := timeval.Timestamp{Sec: 2000}

	require.Equal(t, int64(-1), interpolatedPosition(minTime, 0, maxTime, 1000, timeval.Timestamp{Sec: 500}))
	require.Equal(t, int64(-1), interpolatedPosition(minTime, 0, maxTime, 1000, timeval.Timestamp{Sec: 2500}))
}

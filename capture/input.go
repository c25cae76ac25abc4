package capture

import (
	"fmt"
	"io"

	"github.com/capslice/capslice/errs"
	"github.com/capslice/capslice/locator"
	"github.com/capslice/capslice/timeval"
)

// Input tracks one opened capture file's merge-relevant state: its first
// and last record timestamps (and the last record's byte offset, the upper
// bound FindPacket interpolates against), the current record cursor, and the
// monotonicity guard tcpslice's get_next_packet applies so a corrupt or
// out-of-order file can't make time run backwards within itself.
type Input struct {
	Path string
	Adapter

	StartTime timeval.Timestamp
	StartPos  int64
	StopTime  timeval.Timestamp
	StopPos   int64

	lastPktTime timeval.Timestamp
	pending     Record
	havePending bool
	done        bool

	source locator.Source
	seq    locator.SequentialReader

	// scanSnapLen sizes locator scan buffers for this input. It defaults
	// to the input's own declared SnapLength but can be widened by
	// OpenAdapter to a value shared across every input in a merge (see
	// capslice.MaxSnapLength), so a multi-file merge over files with
	// different snaplens scans every input with one buffer size.
	scanSnapLen uint32

	// Invalid holds the reason this input failed validation (currently
	// only "last timestamp precedes first timestamp"), matching §4.4's
	// per-file validation warning rather than a hard open error. A
	// non-empty Invalid implies Done() is already true.
	Invalid string
}

// Open opens path, reads its header, reads its first record to establish
// StartTime/StartPos, and locates its last record via locator.FindEnd to
// establish StopTime/StopPos. Locator scan buffers are sized from the
// file's own declared SnapLength; callers merging several inputs together
// should use OpenAdapter instead so every input shares one scan buffer size.
func Open(path string, adapter Adapter) (*Input, error) {
	if err := adapter.Open(path); err != nil {
		return nil, err
	}
	return OpenAdapter(path, adapter, adapter.SnapLength())
}

// OpenAdapter finishes opening an input whose adapter has already had Open
// called against path (so its file header, and therefore SnapLength, is
// already known), sizing locator scan buffers from scanSnapLen rather than
// the adapter's own declared snap length. scanSnapLen is widened to the
// adapter's own SnapLength if it is smaller.
//
// capslice.OpenInputs uses this: it opens every input's adapter first to
// learn each file's declared snaplen, computes the maximum across all of
// them, then finishes opening each input with that shared maximum so the
// locator never has to reuse a scan buffer sized for one file's snaplen
// against another file's larger one.
func OpenAdapter(path string, adapter Adapter, scanSnapLen uint32) (*Input, error) {
	if own := adapter.SnapLength(); scanSnapLen < own {
		scanSnapLen = own
	}

	in := &Input{Path: path, Adapter: adapter, scanSnapLen: scanSnapLen}

	in.StartPos, _ = adapter.Pos()
	first, err := adapter.NextRecord()
	if err != nil {
		adapter.Close()
		return nil, fmt.Errorf("%w: %s has no readable records: %v", errs.ErrInputIO, path, err)
	}
	in.StartTime = first.Timestamp()
	in.lastPktTime = in.StartTime
	in.pending = first
	in.havePending = true

	src, ok := adapter.(locator.Source)
	if !ok {
		adapter.Close()
		return nil, fmt.Errorf("%w: adapter for %s does not support end-of-file search", errs.ErrInputIO, path)
	}
	seq, ok := adapter.(locator.SequentialReader)
	if !ok {
		adapter.Close()
		return nil, fmt.Errorf("%w: adapter for %s does not support packet search", errs.ErrInputIO, path)
	}
	in.source = src
	in.seq = seq

	stopTime, stopPos, err := locator.FindEnd(src, adapter.ByteOrder(), adapter.MinorVersion(), scanSnapLen, in.StartTime.Sec)
	if err != nil {
		adapter.Close()
		return nil, fmt.Errorf("%w: finding end of %s: %v", errs.ErrInputIO, path, err)
	}
	in.StopTime = stopTime
	in.StopPos = stopPos

	if in.StopTime.Less(in.StartTime) {
		in.Invalid = "last timestamp precedes first timestamp"
		in.done = true
	}

	return in, nil
}

// SeekToPacket positions the input so the next Peek/Advance returns the
// first record with a timestamp >= desired, which must lie within
// [StartTime, StopTime]. Mirrors extract_slice's sf_find_packet call
// before the merge loop begins pulling records from this input.
func (in *Input) SeekToPacket(desired timeval.Timestamp) (bool, error) {
	if desired.Less(in.StartTime) {
		desired = in.StartTime
	}
	ok, err := locator.FindPacket(in.source, in.seq, in.ByteOrder(), in.MinorVersion(), in.scanSnapLen,
		in.StartTime, in.StartPos, in.StopTime, in.StopPos, desired)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	in.havePending = false
	return true, nil
}

// Done reports whether the input has been exhausted.
func (in *Input) Done() bool { return in.done }

// MarkDone flags the input as exhausted without reading further, used by
// the merge engine when an input has no records inside the requested
// window at all.
func (in *Input) MarkDone() { in.done = true }

// Peek returns the next record without consuming it.
func (in *Input) Peek() (Record, bool) {
	if in.done {
		return Record{}, false
	}
	if !in.havePending {
		rec, err := in.readNext()
		if err != nil {
			in.done = true
			return Record{}, false
		}
		in.pending = rec
		in.havePending = true
	}
	return in.pending, true
}

// Advance consumes and returns the record Peek last returned, moving the
// cursor to the following record.
func (in *Input) Advance() (Record, bool) {
	rec, ok := in.Peek()
	if !ok {
		return Record{}, false
	}
	in.havePending = false
	return rec, true
}

// readNext reads records from the adapter, discarding any whose timestamp
// is less than the previous record's (the monotonicity guard
// get_next_packet applies), and marks the input done at EOF.
func (in *Input) readNext() (Record, error) {
	for {
		rec, err := in.Adapter.NextRecord()
		if err == io.EOF {
			in.done = true
			return Record{}, io.EOF
		}
		if err != nil {
			in.done = true
			return Record{}, err
		}
		ts := rec.Timestamp()
		if ts.Less(in.lastPktTime) {
			continue
		}
		in.lastPktTime = ts
		return rec, nil
	}
}

// Close releases the input's adapter.
func (in *Input) Close() error {
	return in.Adapter.Close()
}

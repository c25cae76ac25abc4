package locator

import (
	"fmt"
	"io"

	"github.com/capslice/capslice/capformat"
	"github.com/capslice/capslice/endian"
	"github.com/capslice/capslice/errs"
	"github.com/capslice/capslice/internal/pool"
	"github.com/capslice/capslice/timeval"
)

// Source is the byte-range view over a capture file that FindEnd and
// FindPacket need for their raw buffer scans.
type Source interface {
	io.ReaderAt
	// Size returns the total length of the underlying file in bytes.
	Size() (int64, error)
}

// scanBuffer reads numBytes from src starting at off into a pooled buffer,
// returning it (and a release func) sized exactly to what was read.
func scanBuffer(src Source, off int64, numBytes int) ([]byte, func(), error) {
	bb := pool.GetLargeScanBuffer()
	if cap(bb.B) < numBytes {
		bb.Grow(numBytes - cap(bb.B))
	}
	bb.SetLength(numBytes)

	n, err := src.ReadAt(bb.B, off)
	if err != nil && err != io.EOF {
		pool.PutLargeScanBuffer(bb)
		return nil, nil, fmt.Errorf("%w: reading scan window at offset %d: %v", errs.ErrInputIO, off, err)
	}
	bb.SetLength(n)

	return bb.B, func() { pool.PutLargeScanBuffer(bb) }, nil
}

// FindEnd locates the last valid record in the capture file exposed by src,
// returning its timestamp and its byte offset. It reads only a bounded
// window from the tail of the file (MaxBytesForDefiniteHeader(snapLen)
// bytes), finds a Definitely header in that window, and follows the chain
// of successor headers to the true end of the file.
func FindEnd(src Source, engine endian.EndianEngine, minorVersion uint16, snapLen uint32, firstTime int64) (timeval.Timestamp, int64, error) {
	fileLen, err := src.Size()
	if err != nil {
		return timeval.Timestamp{}, 0, fmt.Errorf("%w: %v", errs.ErrInputIO, err)
	}

	numBytes := MaxBytesForDefiniteHeader(snapLen)
	if int64(numBytes) > fileLen {
		numBytes = int(fileLen)
	}
	windowOff := fileLen - int64(numBytes)

	buf, release, err := scanBuffer(src, windowOff, numBytes)
	if err != nil {
		return timeval.Timestamp{}, 0, err
	}
	defer release()

	status, hdrPos, hdr := FindHeader(buf, engine, minorVersion, firstTime, 0)
	if status != Definitely {
		return timeval.Timestamp{}, 0, errNotDefinite(status)
	}

	bufEnd := len(buf)
	for {
		nextPos := hdrPos + capformat.RecordHeaderLen + int(hdr.CapLen)
		if nextPos >= bufEnd-capformat.RecordHeaderLen {
			break
		}

		successor, ok := extractHeader(buf[nextPos:], engine, minorVersion)
		if !ok || !Reasonable(successor, hdr.Timestamp.Sec, 0) {
			break
		}
		if nextPos+capformat.RecordHeaderLen+int(successor.CapLen) > bufEnd {
			break
		}

		hdrPos = nextPos
		hdr = successor
	}

	return hdr.Timestamp, windowOff + int64(hdrPos), nil
}

func timevalDiff(a, b timeval.Timestamp) float64 {
	return timeval.Diff(b, a)
}

// interpolatedPosition estimates the byte offset of desired, assuming
// timestamps advance roughly linearly with file position between
// (minTime, minPos) and (maxTime, maxPos). Returns a negative value if
// desired falls outside that range.
func interpolatedPosition(minTime timeval.Timestamp, minPos int64, maxTime timeval.Timestamp, maxPos int64, desired timeval.Timestamp) int64 {
	fullSpan := timevalDiff(minTime, maxTime)
	desiredSpan := timevalDiff(minTime, desired)
	fullSpanPos := maxPos - minPos
	fractionalOffset := desiredSpan / fullSpan

	if fractionalOffset < 0.0 || fractionalOffset > 1.0 {
		return -1
	}
	return minPos + int64(fractionalOffset*float64(fullSpanPos))
}

// SequentialReader is the per-record forward-reading half of a capture
// input, used by FindPacket once the raw-buffer interpolation has landed
// close enough to read the rest of the way linearly.
type SequentialReader interface {
	// Pos returns the stream's current read offset.
	Pos() (int64, error)
	// SeekTo repositions the stream so the next NextTimestamp reads from
	// off.
	SeekTo(off int64) error
	// NextTimestamp reads the next record's timestamp, advancing the
	// stream by exactly one record. Returns io.EOF at end of stream.
	NextTimestamp() (timeval.Timestamp, error)
}

// readUpTo advances seq one record at a time until it finds one whose
// timestamp is >= desired, then repositions the stream to just before that
// record. Returns false on reaching EOF first.
func readUpTo(seq SequentialReader, desired timeval.Timestamp) (bool, error) {
	for {
		pos, err := seq.Pos()
		if err != nil {
			return false, err
		}

		ts, err := seq.NextTimestamp()
		if err == io.EOF {
			return false, nil
		}
		if err != nil {
			return false, err
		}

		if !ts.Less(desired) {
			if err := seq.SeekTo(pos); err != nil {
				return false, err
			}
			return true, nil
		}
	}
}

// FindPacket positions seq so the next read returns the first record with a
// timestamp >= desired. minTime/maxTime and minPos/maxPos must bracket
// desired and correspond to actual records in the file (min_pos the byte
// offset of the min_time record, max_pos likewise for max_time). Returns
// false if desired falls outside [minTime, maxTime].
func FindPacket(
	src Source, seq SequentialReader,
	engine endian.EndianEngine, minorVersion uint16, snapLen uint32,
	minTime timeval.Timestamp, minPos int64,
	maxTime timeval.Timestamp, maxPos int64,
	desired timeval.Timestamp,
) (bool, error) {
	numBytes := MaxBytesForDefiniteHeader(snapLen)
	threshold := StraightScanThreshold(snapLen)

	for {
		desiredPos := interpolatedPosition(minTime, minPos, maxTime, maxPos, desired)
		if desiredPos < 0 {
			return false, nil
		}

		presentPos, err := seq.Pos()
		if err != nil {
			return false, err
		}

		if presentPos <= desiredPos && desiredPos-presentPos < threshold {
			return readUpTo(seq, desired)
		}

		// Undershoot a bit: scanning forward from here is easier than
		// trying to read backwards.
		desiredPos -= threshold / 2
		if desiredPos < minPos {
			desiredPos = minPos
		}

		buf, release, err := scanBuffer(src, desiredPos, numBytes)
		if err != nil {
			return false, err
		}

		status, hdrPos, hdr := FindHeader(buf, engine, minorVersion, minTime.Sec, maxTime.Sec)
		release()
		if status != Definitely {
			return false, fmt.Errorf("%w: can't find header near offset %d", errs.ErrInconsistent, desiredPos)
		}

		desiredPos += int64(hdrPos)
		if err := seq.SeekTo(desiredPos); err != nil {
			return false, err
		}

		switch {
		case hdr.Timestamp.Less(desired):
			minTime = hdr.Timestamp
			minPos = desiredPos
		case desired.Less(hdr.Timestamp):
			maxTime = hdr.Timestamp
			maxPos = desiredPos
		default:
			return true, nil
		}
	}
}

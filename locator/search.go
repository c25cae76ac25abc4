// Package locator implements the heuristic binary-format scanning used to
// find record-header boundaries inside a capture file and to binary-search
// it for a desired timestamp, without needing a complete, aligned parse of
// every record up to that point.
package locator

import (
	"fmt"

	"github.com/capslice/capslice/capformat"
	"github.com/capslice/capslice/endian"
	"github.com/capslice/capslice/errs"
	"github.com/capslice/capslice/timeval"
)

const (
	// MaxReasonableFileSpan bounds how far apart a file's first and last
	// timestamps can plausibly be when no explicit upper bound is given.
	MaxReasonableFileSpan = 3600 * 24 * 366 // one year, in seconds

	// MaxReasonablePacketLength bounds a single record's captured or
	// original length for it to be considered a plausible header.
	MaxReasonablePacketLength = 262144

	// MaxReasonableHeaderSeparation bounds how far apart two consecutive
	// candidate headers' timestamps can be while still confirming one
	// another.
	MaxReasonableHeaderSeparation = 3600 * 24 * 7 // one week, in seconds
)

// MaxPacketSize is the largest a single record (header + captured payload)
// can be for the given snapshot length.
func MaxPacketSize(snapLen uint32) int {
	return capformat.RecordHeaderLen + int(snapLen)
}

// MaxBytesForDefiniteHeader is the number of contiguous bytes guaranteed to
// contain a "definite" header if one is present: enough for three full
// packets at the given snaplen — one to be misaligned and missing its
// timestamp, one to carry a legitimate header, and one to confirm it.
func MaxBytesForDefiniteHeader(snapLen uint32) int {
	return 3 * MaxPacketSize(snapLen)
}

// StraightScanThreshold is, in bytes, how close sf_find_packet's
// interpolation search must land to the target before it gives up
// estimating and just reads forward linearly.
func StraightScanThreshold(snapLen uint32) int64 {
	return int64(100 * MaxPacketSize(snapLen))
}

// Header is a candidate record header found during a scan: its timestamp
// and the captured/original lengths that made it look plausible.
type Header struct {
	Timestamp timeval.Timestamp
	CapLen    uint32
	Len       uint32
}

// Reasonable reports whether hdr looks like a plausible record header: its
// timestamp falls in [firstTime, lastTime] (lastTime == 0 means "up to
// MaxReasonableFileSpan after firstTime") and its lengths are positive and
// bounded.
func Reasonable(hdr Header, firstTime, lastTime int64) bool {
	if lastTime == 0 {
		lastTime = firstTime + MaxReasonableFileSpan
	}
	return hdr.Timestamp.Sec >= firstTime &&
		hdr.Timestamp.Sec <= lastTime &&
		hdr.Len > 0 && hdr.Len <= MaxReasonablePacketLength &&
		hdr.CapLen > 0 && hdr.CapLen <= MaxReasonablePacketLength
}

func extractHeader(buf []byte, engine endian.EndianEngine, minorVersion uint16) (Header, bool) {
	if len(buf) < capformat.RecordHeaderLen {
		return Header{}, false
	}
	rh, err := capformat.ParseRecordHeader(buf, engine, minorVersion)
	if err != nil {
		return Header{}, false
	}
	return Header{
		Timestamp: timeval.Timestamp{Sec: int64(rh.Sec), Usec: rh.Usec},
		CapLen:    rh.CapLen,
		Len:       rh.Len,
	}, true
}

// Status is the outcome of searching a buffer for a record header.
type Status int

const (
	// None means no position in the buffer looked like a valid header.
	None Status = iota
	// Clash means two or more equally-plausible candidates were found,
	// with nothing to break the tie.
	Clash
	// Perhaps means exactly one plausible candidate was found, but there
	// wasn't enough room in the buffer to confirm it with a successor
	// header.
	Perhaps
	// Definitely means exactly one candidate was found and confirmed by
	// a plausible successor header immediately following it.
	Definitely
)

// FindHeader scans buf for the first record header, using firstTime/
// lastTime to judge plausibility (see Reasonable) and minorVersion/engine to
// decode candidate headers. It returns the status of the search and, for
// Perhaps or Definitely, the header found and its byte offset into buf.
func FindHeader(buf []byte, engine endian.EndianEngine, minorVersion uint16, firstTime, lastTime int64) (Status, int, Header) {
	status := None
	var hdrPos int
	var found Header
	sawPerhapsClash := false

	lastPosToTry := len(buf) - capformat.RecordHeaderLen
	bufEnd := len(buf)

	for pos := 0; pos < lastPosToTry; pos++ {
		hdr, ok := extractHeader(buf[pos:], engine, minorVersion)
		if !ok || !Reasonable(hdr, firstTime, lastTime) {
			continue
		}

		nextHeaderPos := pos + capformat.RecordHeaderLen + int(hdr.CapLen)

		if nextHeaderPos+capformat.RecordHeaderLen < bufEnd {
			hdr2, ok2 := extractHeader(buf[nextHeaderPos:], engine, minorVersion)
			if ok2 && Reasonable(hdr2, hdr.Timestamp.Sec, hdr.Timestamp.Sec+MaxReasonableHeaderSeparation) {
				switch status {
				case None, Perhaps:
					status = Definitely
					hdrPos = pos
					found = hdr
					// Don't let a later look at this header's own
					// successor demote it back to a clash.
					lastPosToTry = nextHeaderPos - capformat.RecordHeaderLen
				case Definitely:
					return Clash, 0, Header{}
				}
			}
			// Otherwise: not followed by a reasonable header, so this
			// candidate was bogus. Keep scanning.
			continue
		}

		// Not enough room left to confirm with a successor header.
		switch status {
		case None:
			status = Perhaps
			hdrPos = pos
			found = hdr
		case Perhaps:
			// Don't immediately clash — a later Definitely might still
			// rescue us.
			sawPerhapsClash = true
		case Definitely:
			// Keep the definite header in preference to this one.
		}
	}

	if status == Perhaps && sawPerhapsClash {
		status = Clash
	}

	return status, hdrPos, found
}

// errNotDefinite is returned internally by FindEnd when its scan window
// was expected to yield a Definitely header but didn't.
func errNotDefinite(status Status) error {
	return fmt.Errorf("%w: header search returned status %d, not Definitely", errs.ErrInconsistent, status)
}

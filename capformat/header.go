// Package capformat implements the classic libpcap savefile wire format: the
// 24-byte file header, the 16-byte per-record header, byte-order detection
// from the file header's magic number, and the minor-version-3
// captured/original length swap quirk carried over from early libpcap.
package capformat

import (
	"encoding/binary"
	"fmt"

	"github.com/capslice/capslice/endian"
	"github.com/capslice/capslice/errs"
)

const (
	// MagicNative is the savefile magic number written by a host using the
	// same byte order it's being read with.
	MagicNative uint32 = 0xa1b2c3d4
	// MagicSwapped is MagicNative's byte-swapped form; seeing it as the
	// first four bytes of a file means every subsequent multi-byte field
	// needs swapping too.
	MagicSwapped uint32 = 0xd4c3b2a1

	// FileHeaderLen is the size in bytes of the savefile header.
	FileHeaderLen = 24
	// RecordHeaderLen is the size in bytes of a per-record header.
	RecordHeaderLen = 16
)

// FileHeader is the fixed-size header at the start of a savefile.
type FileHeader struct {
	MajorVersion uint16
	MinorVersion uint16
	// ThisZone, SigFigs are carried through unmodified; the original tool
	// never inspects them beyond round-tripping.
	ThisZone int32
	SigFigs  uint32
	SnapLen  uint32
	LinkType uint32
}

// ParseFileHeader reads the 24-byte savefile header from buf and returns the
// header together with the EndianEngine subsequent reads must use: the
// magic number determines whether the file is in the reader's native byte
// order or swapped.
func ParseFileHeader(buf []byte) (FileHeader, endian.EndianEngine, error) {
	if len(buf) < FileHeaderLen {
		return FileHeader{}, nil, fmt.Errorf("%w: file header needs %d bytes, got %d", errs.ErrInputIO, FileHeaderLen, len(buf))
	}

	magic := binary.LittleEndian.Uint32(buf[0:4])
	var engine endian.EndianEngine
	switch magic {
	case MagicNative:
		engine = endian.GetLittleEndianEngine()
	case MagicSwapped:
		engine = endian.GetBigEndianEngine()
	default:
		// Try the reverse interpretation before giving up: a big-endian
		// host's "native" magic reads as MagicSwapped under a
		// little-endian read and vice versa.
		magic = binary.BigEndian.Uint32(buf[0:4])
		switch magic {
		case MagicNative:
			engine = endian.GetBigEndianEngine()
		case MagicSwapped:
			engine = endian.GetLittleEndianEngine()
		default:
			return FileHeader{}, nil, fmt.Errorf("%w: unrecognized savefile magic %#x", errs.ErrBadFormat, magic)
		}
	}

	h := FileHeader{
		MajorVersion: engine.Uint16(buf[4:6]),
		MinorVersion: engine.Uint16(buf[6:8]),
		ThisZone:     int32(engine.Uint32(buf[8:12])),
		SigFigs:      engine.Uint32(buf[12:16]),
		SnapLen:      engine.Uint32(buf[16:20]),
		LinkType:     engine.Uint32(buf[20:24]),
	}
	return h, engine, nil
}

// Bytes serializes h using engine, producing a 24-byte buffer suitable for
// writing at the start of an output savefile.
func (h FileHeader) Bytes(engine endian.EndianEngine) []byte {
	buf := make([]byte, FileHeaderLen)
	engine.PutUint32(buf[0:4], MagicNative)
	engine.PutUint16(buf[4:6], h.MajorVersion)
	engine.PutUint16(buf[6:8], h.MinorVersion)
	engine.PutUint32(buf[8:12], uint32(h.ThisZone))
	engine.PutUint32(buf[12:16], h.SigFigs)
	engine.PutUint32(buf[16:20], h.SnapLen)
	engine.PutUint32(buf[20:24], h.LinkType)
	return buf
}

// RecordHeader is the per-record header preceding each packet's captured
// bytes: a timestamp plus the captured and original on-wire lengths.
type RecordHeader struct {
	Sec    int32
	Usec   int32
	CapLen uint32
	Len    uint32
}

// ParseRecordHeader reads a 16-byte record header from buf using engine,
// applying the minor-version-3 caplen/len swap quirk: libpcap interchanged
// the two fields starting at minor version 2.3 to match the bpf header
// layout, but some files claim version 2.3 without actually having made the
// swap, so minor version < 3 always un-swaps and minor version == 3 only
// un-swaps when the claimed caplen exceeds len (a caplen that large is
// otherwise nonsensical).
func ParseRecordHeader(buf []byte, engine endian.EndianEngine, minorVersion uint16) (RecordHeader, error) {
	if len(buf) < RecordHeaderLen {
		return RecordHeader{}, fmt.Errorf("%w: record header needs %d bytes, got %d", errs.ErrHeaderTruncated, RecordHeaderLen, len(buf))
	}

	h := RecordHeader{
		Sec:    int32(engine.Uint32(buf[0:4])),
		Usec:   int32(engine.Uint32(buf[4:8])),
		CapLen: engine.Uint32(buf[8:12]),
		Len:    engine.Uint32(buf[12:16]),
	}

	if minorVersion < 3 || (minorVersion == 3 && h.CapLen > h.Len) {
		h.CapLen, h.Len = h.Len, h.CapLen
	}

	return h, nil
}

// Bytes serializes h using engine. It does not re-apply the minor-version
// swap quirk: output savefiles are always written at the current version,
// so caplen and len are written in their already-corrected order.
func (h RecordHeader) Bytes(engine endian.EndianEngine) []byte {
	buf := make([]byte, RecordHeaderLen)
	engine.PutUint32(buf[0:4], uint32(h.Sec))
	engine.PutUint32(buf[4:8], uint32(h.Usec))
	engine.PutUint32(buf[8:12], h.CapLen)
	engine.PutUint32(buf[12:16], h.Len)
	return buf
}

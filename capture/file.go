// Package capture adapts a single savefile on disk to the minimal surface
// the merge engine and locator need: open/byte_order/minor_version/
// link_type/snap_length/next_record/open_dumper/dump/close, plus the
// per-input first/last timestamp discovery and monotonic-read guard that
// tcpslice's open_files/get_next_packet perform inline.
package capture

import (
	"fmt"
	"io"
	"os"

	"github.com/capslice/capslice/capformat"
	"github.com/capslice/capslice/endian"
	"github.com/capslice/capslice/errs"
	"github.com/capslice/capslice/locator"
	"github.com/capslice/capslice/timeval"
)

// Record is one decoded packet: its header plus the captured bytes.
type Record struct {
	Header  capformat.RecordHeader
	Payload []byte
}

// Timestamp returns the record's timestamp as a Timestamp.
func (r Record) Timestamp() timeval.Timestamp {
	return timeval.Timestamp{Sec: int64(r.Header.Sec), Usec: r.Header.Usec}
}

// Adapter is the external capture-format surface the merge engine and
// locator consume. sfile is this package's concrete implementation of it
// over the classic libpcap savefile format; a future implementation could
// satisfy the same interface for a different on-disk format without the
// merge engine changing at all.
type Adapter interface {
	// Open opens path and reads its file header.
	Open(path string) error
	// ByteOrder returns the engine the savefile's magic number selected.
	ByteOrder() endian.EndianEngine
	// MinorVersion returns the savefile's minor version, needed by
	// ParseRecordHeader's caplen/len swap quirk.
	MinorVersion() uint16
	// LinkType returns the savefile's declared link-layer framing.
	LinkType() capformat.LinkType
	// SnapLength returns the savefile's declared snapshot length.
	SnapLength() uint32
	// NextRecord reads and returns the next record, advancing the
	// cursor. Returns io.EOF when no more records remain.
	NextRecord() (Record, error)
	// Pos returns the adapter's current read offset.
	Pos() (int64, error)
	// SeekTo repositions the adapter so the next NextRecord reads from
	// off, which must be the start of a record header.
	SeekTo(off int64) error
	// Size returns the total length of the underlying file.
	Size() (int64, error)
	// Close releases the adapter's resources.
	Close() error
}

// Dumper writes records to an output savefile using the byte order and
// format parameters captured at OpenDumper time.
type Dumper interface {
	// Dump writes one record.
	Dump(rec Record) error
	// Close flushes and releases the dumper's resources.
	Close() error
}

// sfile is the concrete Adapter over a classic libpcap savefile.
type sfile struct {
	f            *os.File
	path         string
	engine       endian.EndianEngine
	minorVersion uint16
	linkType     capformat.LinkType
	snapLen      uint32
}

var _ Adapter = (*sfile)(nil)
var _ locator.Source = (*sfile)(nil)
var _ locator.SequentialReader = (*sfile)(nil)

// NewSavefileAdapter returns an unopened sfile Adapter.
func NewSavefileAdapter() Adapter {
	return &sfile{}
}

func (s *sfile) Open(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: opening %s: %v", errs.ErrInputIO, path, err)
	}

	hdrBuf := make([]byte, capformat.FileHeaderLen)
	if _, err := io.ReadFull(f, hdrBuf); err != nil {
		f.Close()
		return fmt.Errorf("%w: reading header of %s: %v", errs.ErrInputIO, path, err)
	}

	hdr, engine, err := capformat.ParseFileHeader(hdrBuf)
	if err != nil {
		f.Close()
		return fmt.Errorf("%w: %s: %v", errs.ErrBadFormat, path, err)
	}

	s.f = f
	s.path = path
	s.engine = engine
	s.minorVersion = hdr.MinorVersion
	s.linkType = capformat.LinkType(hdr.LinkType)
	s.snapLen = hdr.SnapLen
	return nil
}

func (s *sfile) ByteOrder() endian.EndianEngine { return s.engine }
func (s *sfile) MinorVersion() uint16           { return s.minorVersion }
func (s *sfile) LinkType() capformat.LinkType   { return s.linkType }
func (s *sfile) SnapLength() uint32             { return s.snapLen }

func (s *sfile) NextRecord() (Record, error) {
	hdrBuf := make([]byte, capformat.RecordHeaderLen)
	if _, err := io.ReadFull(s.f, hdrBuf); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return Record{}, io.EOF
		}
		return Record{}, fmt.Errorf("%w: reading record header in %s: %v", errs.ErrInputIO, s.path, err)
	}

	hdr, err := capformat.ParseRecordHeader(hdrBuf, s.engine, s.minorVersion)
	if err != nil {
		return Record{}, fmt.Errorf("%w: %s: %v", errs.ErrInputIO, s.path, err)
	}

	payload := make([]byte, hdr.CapLen)
	if _, err := io.ReadFull(s.f, payload); err != nil {
		return Record{}, fmt.Errorf("%w: reading %d-byte payload in %s: %v", errs.ErrInputIO, hdr.CapLen, s.path, err)
	}

	return Record{Header: hdr, Payload: payload}, nil
}

// NextTimestamp satisfies locator.SequentialReader: it reads a full record
// (header and payload) but returns only the timestamp, so FindPacket's
// straight-scan fallback can walk forward without retaining payload bytes
// it will discard anyway.
func (s *sfile) NextTimestamp() (timeval.Timestamp, error) {
	rec, err := s.NextRecord()
	if err != nil {
		return timeval.Timestamp{}, err
	}
	return rec.Timestamp(), nil
}

func (s *sfile) Pos() (int64, error) {
	off, err := s.f.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", errs.ErrInputIO, err)
	}
	return off, nil
}

func (s *sfile) SeekTo(off int64) error {
	if _, err := s.f.Seek(off, io.SeekStart); err != nil {
		return fmt.Errorf("%w: %v", errs.ErrInputIO, err)
	}
	return nil
}

func (s *sfile) ReadAt(p []byte, off int64) (int, error) {
	return s.f.ReadAt(p, off)
}

func (s *sfile) Size() (int64, error) {
	info, err := s.f.Stat()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", errs.ErrInputIO, err)
	}
	return info.Size(), nil
}

func (s *sfile) Close() error {
	if s.f == nil {
		return nil
	}
	return s.f.Close()
}

// dumper is the concrete Dumper writing a classic libpcap savefile to any
// io.Writer; OpenDumper wraps a path and OpenDumperWriter wraps stdout or
// any other already-open writer (the "-w -" case).
type dumper struct {
	w      io.Writer
	c      io.Closer
	engine endian.EndianEngine
}

// OpenDumper creates (or truncates) path and writes a savefile header built
// from src's byte order, link type, and snap length.
func OpenDumper(path string, src Adapter) (Dumper, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("%w: creating %s: %v", errs.ErrInputIO, path, err)
	}
	d, err := newDumper(f, f, src)
	if err != nil {
		f.Close()
		return nil, err
	}
	return d, nil
}

// OpenDumperWriter wraps an already-open writer (stdout for "-w -") as a
// Dumper. Closing it only closes c if c is non-nil.
func OpenDumperWriter(w io.Writer, c io.Closer, src Adapter) (Dumper, error) {
	return newDumper(w, c, src)
}

func newDumper(w io.Writer, c io.Closer, src Adapter) (Dumper, error) {
	engine := src.ByteOrder()
	hdr := capformat.FileHeader{
		MajorVersion: 2,
		MinorVersion: src.MinorVersion(),
		SnapLen:      src.SnapLength(),
		LinkType:     uint32(src.LinkType()),
	}
	if hdr.MinorVersion < 4 {
		hdr.MinorVersion = 4
	}

	if _, err := w.Write(hdr.Bytes(engine)); err != nil {
		return nil, fmt.Errorf("%w: writing savefile header: %v", errs.ErrInputIO, err)
	}

	return &dumper{w: w, c: c, engine: engine}, nil
}

func (d *dumper) Dump(rec Record) error {
	if _, err := d.w.Write(rec.Header.Bytes(d.engine)); err != nil {
		return fmt.Errorf("%w: %v", errs.ErrInputIO, err)
	}
	if _, err := d.w.Write(rec.Payload); err != nil {
		return fmt.Errorf("%w: %v", errs.ErrInputIO, err)
	}
	return nil
}

func (d *dumper) Close() error {
	if d.c == nil {
		return nil
	}
	return d.c.Close()
}

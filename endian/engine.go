// Package endian provides byte order utilities for decoding and encoding
// classic libpcap savefile headers and records.
//
// A savefile's own magic number tells a reader whether it was written in
// native, byte-swapped, or (for the nanosecond-resolution variant) a
// different magic entirely; capformat resolves that once per file into an
// EndianEngine and threads it through every subsequent header read so the
// decision is never repeated per-record.
//
//	engine := endian.GetLittleEndianEngine()
//	hdr, err := capformat.ParseRecordHeader(buf, engine, minorVersion)
//
// EndianEngine combines encoding/binary's ByteOrder and AppendByteOrder so
// callers get both Uint32/PutUint32 and the allocation-free AppendUint32
// from one value; binary.LittleEndian and binary.BigEndian already satisfy
// it.
package endian

import (
	"encoding/binary"
)

// EndianEngine combines ByteOrder and AppendByteOrder interfaces from encoding/binary
// into a single interface for convenient byte order operations.
//
// This interface is satisfied by binary.LittleEndian and binary.BigEndian from
// the standard library, making it fully compatible with existing Go code while
// providing access to both read/write and append operations.
type EndianEngine interface {
	binary.ByteOrder
	binary.AppendByteOrder
}

// GetLittleEndianEngine returns the little-endian engine.
func GetLittleEndianEngine() EndianEngine {
	return binary.LittleEndian
}

// GetBigEndianEngine returns the big-endian engine.
func GetBigEndianEngine() EndianEngine {
	return binary.BigEndian
}

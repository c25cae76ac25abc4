// Package merge implements the k-way time-ordered emission engine: given
// several opened capture inputs and a window, it positions each input near
// the window start, then repeatedly picks the input whose current record
// is chronologically earliest (or earliest within its own file, in
// relative mode), clips to the window's stop bound, suppresses exact
// duplicates across inputs, and writes the survivors to an output dumper.
package merge

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"log"

	"github.com/capslice/capslice/capformat"
	"github.com/capslice/capslice/capture"
	"github.com/capslice/capslice/errs"
	"github.com/capslice/capslice/internal/hash"
	"github.com/capslice/capslice/session"
	"github.com/capslice/capslice/timeval"
)

// Window describes the time range to extract. Start/Stop are absolute
// unless Relative is set, in which case each input's window is computed as
// file_start + (Start − Base) / file_start + (Stop − Base).
type Window struct {
	Start, Stop timeval.Timestamp
	Relative    bool
	Base        timeval.Timestamp
}

// Context holds everything a single merge run needs.
type Context struct {
	Inputs   []*capture.Input
	Window   Window
	KeepDups bool
	Tracker  session.Tracker
	Verbose  int
}

// Validate enforces §4.4's cross-input invariant: every input must share
// the same link-layer type. An input already marked Invalid (first time
// after last time) is excluded from the check and from the merge, but its
// presence is not itself a fatal error — only a mismatched link type is.
func Validate(inputs []*capture.Input) error {
	have := false
	var linkType capformat.LinkType
	for _, in := range inputs {
		if in.Invalid != "" {
			continue
		}
		if !have {
			linkType = in.LinkType()
			have = true
			continue
		}
		if in.LinkType() != linkType {
			return fmt.Errorf("%w: %w: %s has link type %v, expected %v",
				errs.ErrInconsistent, errs.ErrLinkTypeMismatch, in.Path, in.LinkType(), linkType)
		}
	}
	return nil
}

// LowestStartTime returns the earliest first-record timestamp across
// inputs, used as the default base time for relative-mode merges.
func LowestStartTime(inputs []*capture.Input) timeval.Timestamp {
	min := inputs[0].StartTime
	for _, in := range inputs[1:] {
		if in.StartTime.Less(min) {
			min = in.StartTime
		}
	}
	return min
}

// LatestEndTime returns the latest last-record timestamp across inputs,
// used as the default stop time when the user didn't supply one.
func LatestEndTime(inputs []*capture.Input) timeval.Timestamp {
	max := inputs[0].StopTime
	for _, in := range inputs[1:] {
		if max.Less(in.StopTime) {
			max = in.StopTime
		}
	}
	return max
}

// candidate is one input's current record. In relative mode pickMin
// derives the per-file offset it orders by from the record's timestamp and
// the input's StartTime.
type candidate struct {
	input *capture.Input
	rec   capture.Record
}

// pickMin returns the input with the chronologically earliest current
// record (per-file offset from its own start time in relative mode), ties
// broken by input order.
func pickMin(inputs []*capture.Input, relative bool) (candidate, bool) {
	var best candidate
	var bestKey timeval.Timestamp
	found := false

	for _, in := range inputs {
		if in.Done() {
			continue
		}
		rec, ok := in.Peek()
		if !ok {
			continue
		}
		key := rec.Timestamp()
		if relative {
			key = key.Sub(in.StartTime)
		}
		if !found || key.Less(bestKey) {
			best = candidate{input: in, rec: rec}
			bestKey = key
			found = true
		}
	}
	return best, found
}

// headerFields encodes a record header's logical fields (not its on-disk
// byte order) into a fixed big-endian layout, for hashing and for handing
// to a session tracker; it is never written to an output file.
func headerFields(sec, usec int32, capLen, length uint32) []byte {
	buf := make([]byte, 16)
	binary.BigEndian.PutUint32(buf[0:4], uint32(sec))
	binary.BigEndian.PutUint32(buf[4:8], uint32(usec))
	binary.BigEndian.PutUint32(buf[8:12], capLen)
	binary.BigEndian.PutUint32(buf[12:16], length)
	return buf
}

// Run pre-positions every input, then drains them in timestamp order into
// out until the window is exhausted.
func (c *Context) Run(out capture.Dumper) error {
	if err := Validate(c.Inputs); err != nil {
		return err
	}

	relativeStartOffset := c.Window.Start.Sub(c.Window.Base)
	relativeStopOffset := c.Window.Stop.Sub(c.Window.Base)

	for _, in := range c.Inputs {
		if in.Done() {
			continue
		}

		effectiveStart := c.Window.Start
		if c.Window.Relative {
			effectiveStart = in.StartTime.Add(relativeStartOffset)
		}

		if in.StopTime.Less(effectiveStart) {
			in.MarkDone()
			continue
		}
		if effectiveStart.Less(in.StartTime) {
			effectiveStart = in.StartTime
		}

		ok, err := in.SeekToPacket(effectiveStart)
		if err != nil {
			return err
		}
		if !ok {
			in.MarkDone()
		}
		if c.Verbose > 0 {
			log.Printf("merge: %s positioned at %s (seek ok=%v)", in.Path, effectiveStart, ok)
		}
	}

	var lastInput *capture.Input
	var lastRec capture.Record
	var lastFingerprint uint64
	havePrev := false

	for {
		cand, any := pickMin(c.Inputs, c.Window.Relative)
		if !any {
			break
		}
		chosen, rec := cand.input, cand.rec

		effectiveStop := c.Window.Stop
		if c.Window.Relative {
			effectiveStop = chosen.StartTime.Add(relativeStopOffset)
		}

		if effectiveStop.Less(rec.Timestamp()) {
			sessionsOpen := c.Tracker != nil && c.Tracker.Open()
			if c.Verbose > 0 {
				log.Printf("merge: %s crossed stop %s at %s, sessions open=%v", chosen.Path, effectiveStop, rec.Timestamp(), sessionsOpen)
			}
			if !sessionsOpen {
				chosen.MarkDone()
				break
			}
		}

		emitRec := rec
		if c.Window.Relative {
			offset := rec.Timestamp().Sub(chosen.StartTime)
			newTs := c.Window.Base.Add(offset)
			emitRec.Header.Sec = int32(newTs.Sec)
			emitRec.Header.Usec = newTs.Usec
		}

		fields := headerFields(emitRec.Header.Sec, emitRec.Header.Usec, emitRec.Header.CapLen, emitRec.Header.Len)

		if c.Tracker != nil {
			c.Tracker.Observe(fields, emitRec.Payload)
		}

		duplicate := false
		if !c.KeepDups && havePrev && chosen != lastInput {
			fp := hash.RecordFingerprint(fields, emitRec.Payload)
			if fp == lastFingerprint &&
				emitRec.Header == lastRec.Header &&
				bytes.Equal(emitRec.Payload, lastRec.Payload) {
				duplicate = true
			}
		}

		if duplicate && c.Verbose > 0 {
			log.Printf("merge: dropping duplicate record from %s at %s", chosen.Path, emitRec.Timestamp())
		}

		if !duplicate {
			if err := out.Dump(emitRec); err != nil {
				return err
			}
			if !c.KeepDups {
				lastInput = chosen
				lastRec = emitRec
				lastFingerprint = hash.RecordFingerprint(fields, emitRec.Payload)
				havePrev = true
			}
		}

		chosen.Advance()
	}

	return nil
}

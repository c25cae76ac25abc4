// Package capslice extracts, merges, and time-slices classic tcpdump/libpcap
// savefile captures. Given one or more input files and an optional time
// window it writes a single output capture containing exactly the records
// whose timestamps fall in the window, in global timestamp order, with
// duplicate suppression.
//
// # Core Packages
//
//   - timeval: timestamp arithmetic, calendar folding, rendering
//   - timeexpr: the raw/structured time-expression grammar
//   - capformat: the savefile wire format (file header, record header)
//   - locator: the heuristic header finder, FindEnd, FindPacket
//   - capture: the Adapter interface, its savefile implementation, and Input
//   - session: the no-op-by-default session-tracking collaborator
//   - merge: the k-way time-ordered emission engine
//
// # Basic Usage
//
// Opening a set of inputs and merging them into an output file:
//
//	newAdapter := func() capture.Adapter { return capture.NewSavefileAdapter() }
//	inputs, base, err := capslice.OpenInputs([]string{"a.pcap", "b.pcap"}, newAdapter)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer capslice.CloseInputs(inputs)
//
//	window := merge.Window{Start: start, Stop: stop, Base: base}
//	out, err := capture.OpenDumper("out.pcap", inputs[0])
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer out.Close()
//
//	ctx := &merge.Context{Inputs: inputs, Window: window, Tracker: session.NoopTracker{}}
//	if err := ctx.Run(out); err != nil {
//	    log.Fatal(err)
//	}
//
// This package provides a thin convenience layer around capture/merge/
// timeexpr; for fine-grained control (custom adapters, a real session
// tracker) use those packages directly.
package capslice

import (
	"fmt"

	"github.com/capslice/capslice/capture"
	"github.com/capslice/capslice/errs"
	"github.com/capslice/capslice/merge"
	"github.com/capslice/capslice/timeval"
)

// OpenInputs opens every path in paths with a fresh adapter from newAdapter,
// returning the opened capture.Input values and the base time (the lowest
// first-record timestamp across all of them, per §3's Merge window
// definition). On any failure, every already-opened input is closed before
// the error is returned.
//
// Opening happens in two passes so every input's locator scans share one
// buffer size (§7's snaplen auto-detection): the first pass opens each
// adapter far enough to read its file header and learn its declared
// snaplen; the second finishes each input with MaxSnapLength's result, via
// capture.OpenAdapter.
func OpenInputs(paths []string, newAdapter func() capture.Adapter) ([]*capture.Input, timeval.Timestamp, error) {
	if len(paths) == 0 {
		return nil, timeval.Timestamp{}, fmt.Errorf("%w: no input files", errs.ErrUsage)
	}

	adapters := make([]capture.Adapter, len(paths))
	for i, p := range paths {
		a := newAdapter()
		if err := a.Open(p); err != nil {
			for _, opened := range adapters[:i] {
				_ = opened.Close()
			}
			return nil, timeval.Timestamp{}, err
		}
		adapters[i] = a
	}

	scanSnapLen := MaxSnapLength(adapters)

	inputs := make([]*capture.Input, 0, len(paths))
	for i, p := range paths {
		in, err := capture.OpenAdapter(p, adapters[i], scanSnapLen)
		if err != nil {
			CloseInputs(inputs)
			for _, opened := range adapters[i+1:] {
				_ = opened.Close()
			}
			return nil, timeval.Timestamp{}, err
		}
		inputs = append(inputs, in)
	}

	if err := merge.Validate(inputs); err != nil {
		CloseInputs(inputs)
		return nil, timeval.Timestamp{}, err
	}

	return inputs, merge.LowestStartTime(inputs), nil
}

// CloseInputs closes every input, ignoring individual close errors (mirrors
// the scoped-acquisition release-on-done-or-abort pattern of §5: by the time
// CloseInputs runs, the caller has already decided the merge is over).
func CloseInputs(inputs []*capture.Input) {
	for _, in := range inputs {
		_ = in.Close()
	}
}

// snapLengthDeclarer is satisfied by both capture.Adapter and *capture.Input
// (which embeds Adapter), so MaxSnapLength can size locator buffers both
// before an Input exists (OpenInputs's first pass, over bare adapters) and
// afterward (reporting the value an already-opened set of inputs shares).
type snapLengthDeclarer interface {
	SnapLength() uint32
}

// MaxSnapLength returns the largest SnapLength declared across items, used
// to size locator scan buffers for a merge spanning files with different
// snaplens (§7 of SPEC_FULL.md's supplemented snaplen auto-detection).
func MaxSnapLength[T snapLengthDeclarer](items []T) uint32 {
	var max uint32
	for _, it := range items {
		if sl := it.SnapLength(); sl > max {
			max = sl
		}
	}
	return max
}

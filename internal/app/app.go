// Package app implements capslice's command-line behavior: positional
// time/filename disambiguation, flag validation, and dispatch to the
// report, dump-window, or merge code paths described in SPEC_FULL.md §9.
// It is split out from cmd/capslice/main.go so the exit-code/error-message
// policy can be exercised by tests without invoking os.Exit.
package app

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/capslice/capslice"
	"github.com/capslice/capslice/capture"
	"github.com/capslice/capslice/errs"
	"github.com/capslice/capslice/merge"
	"github.com/capslice/capslice/session"
	"github.com/capslice/capslice/timeexpr"
	"github.com/capslice/capslice/timeval"
)

// Args holds every flag and positional value the CLI accepts, decoupled
// from the flag package so Run can be tested directly.
type Args struct {
	Positional []string

	Out      string
	KeepDups bool
	Relative bool

	DumpWindow bool
	StyleRaw   bool
	StyleRead  bool
	StylePars  bool

	SessTypes  string
	SessFormat string
	Verbose    int
}

// Exit codes per SPEC_FULL.md §9 (spec.md §6's "Exit" contract): 0 success,
// 1 validation failure (BadFormat/OutOfRange/Usage/Inconsistent), 2 a
// fatal I/O error from the locator or adapter.
const (
	ExitOK         = 0
	ExitValidation = 1
	ExitFatalIO    = 2
)

// Run executes the CLI against args, writing normal output to stdout and
// diagnostics to stderr, and returns the process exit code.
func Run(args Args, stdout, stderr io.Writer) int {
	logger := log.New(stderr, "", 0)

	styleCount := boolCount(args.StyleRaw, args.StyleRead, args.StylePars)
	if styleCount > 1 {
		logger.Printf("capslice: %v: -R, -r, and -t are mutually exclusive", errs.ErrUsage)
		return ExitValidation
	}

	startTok, stopTok, files := splitPositional(args.Positional)
	if len(files) == 0 {
		logger.Printf("capslice: %v: no input files given", errs.ErrUsage)
		return ExitValidation
	}
	if args.Out != "" && (args.StyleRaw || args.StyleRead || args.StylePars) {
		logger.Printf("capslice: %v: -w and a report style flag (-R/-r/-t) are mutually exclusive", errs.ErrUsage)
		return ExitValidation
	}

	newAdapter := func() capture.Adapter { return capture.NewSavefileAdapter() }
	inputs, base, err := capslice.OpenInputs(files, newAdapter)
	if err != nil {
		return report(logger, err)
	}
	defer capslice.CloseInputs(inputs)

	start := base
	if startTok != "" {
		start, err = timeexpr.Parse(startTok, base)
		if err != nil {
			return report(logger, err)
		}
	}
	stop := merge.LatestEndTime(inputs)
	if stopTok != "" {
		stop, err = timeexpr.Parse(stopTok, start)
		if err != nil {
			return report(logger, err)
		}
	}

	window := merge.Window{Start: start, Stop: stop, Relative: args.Relative, Base: base}

	switch {
	case args.DumpWindow:
		fmt.Fprintf(stdout, "start\t%s\n", start)
		fmt.Fprintf(stdout, "stop\t%s\n", stop)
		return ExitOK
	case styleCount == 1:
		style := timeval.Raw
		switch {
		case args.StyleRead:
			style = timeval.Readable
		case args.StylePars:
			style = timeval.Parseable
		}
		for _, in := range inputs {
			fmt.Fprintf(stdout, "%s\t%s\t%s\n", in.Path, timeval.Render(in.StartTime, style), timeval.Render(in.StopTime, style))
		}
		return ExitOK
	}

	if args.Out == "" {
		logger.Printf("capslice: %v: -w is required unless -d/-R/-r/-t is given", errs.ErrUsage)
		return ExitValidation
	}

	dumper, closeOut, err := openOutput(args.Out, inputs[0], stdout)
	if err != nil {
		return report(logger, err)
	}
	defer closeOut()

	tracker := session.NoopTracker{}
	sessCfg := session.Config{Types: args.SessTypes, FileFormat: args.SessFormat}
	if err := tracker.Init(sessCfg); err != nil {
		return report(logger, err)
	}

	ctx, err := merge.NewContext(inputs, window,
		merge.WithKeepDuplicates(args.KeepDups),
		merge.WithTracker(tracker),
		merge.WithVerbose(args.Verbose),
	)
	if err != nil {
		return report(logger, err)
	}

	if err := ctx.Run(dumper); err != nil {
		return report(logger, err)
	}

	warned := false
	for _, in := range inputs {
		if in.Invalid != "" {
			logger.Printf("capslice: warning: %s: %s", in.Path, in.Invalid)
			warned = true
		}
	}
	if warned {
		return ExitValidation
	}

	return ExitOK
}

// splitPositional classifies up to the first two positional arguments as
// start/stop time expressions (per §6: "a positional token is treated as a
// time iff it is a well-formed time expression under §4.2; otherwise it is
// a filename"), stopping as soon as one fails to parse as a time. Every
// remaining argument is a filename.
func splitPositional(args []string) (start, stop string, files []string) {
	rest := args
	if len(rest) > 0 && timeexpr.LooksLikeTimeExpression(rest[0]) {
		start = rest[0]
		rest = rest[1:]
		if len(rest) > 0 && timeexpr.LooksLikeTimeExpression(rest[0]) {
			stop = rest[0]
			rest = rest[1:]
		}
	}
	return start, stop, rest
}

func boolCount(bs ...bool) int {
	n := 0
	for _, b := range bs {
		if b {
			n++
		}
	}
	return n
}

// openOutput opens args.Out as a Dumper built against src's format
// parameters. "-" means stdout, refused if stdout is a terminal (the
// isatty guard tcpslice's main() applies before accepting "-w -").
func openOutput(path string, src capture.Adapter, stdout io.Writer) (capture.Dumper, func() error, error) {
	if path != "-" {
		d, err := capture.OpenDumper(path, src)
		if err != nil {
			return nil, nil, err
		}
		return d, d.Close, nil
	}

	if f, ok := stdout.(*os.File); ok {
		if info, err := f.Stat(); err == nil && info.Mode()&os.ModeCharDevice != 0 {
			return nil, nil, fmt.Errorf("%w: refusing to write a capture file to a terminal", errs.ErrUsage)
		}
	}

	d, err := capture.OpenDumperWriter(stdout, nil, src)
	if err != nil {
		return nil, nil, err
	}
	return d, d.Close, nil
}

// report logs err's message and maps it to an exit code: BadFormat/
// OutOfRange/Usage/Inconsistent/mismatched-link-type are validation
// failures (exit 1); anything else, including InputIO, is treated as a
// fatal I/O error (exit 2).
func report(logger *log.Logger, err error) int {
	logger.Printf("capslice: %v", err)
	switch {
	case errors.Is(err, errs.ErrBadFormat),
		errors.Is(err, errs.ErrOutOfRange),
		errors.Is(err, errs.ErrUsage),
		errors.Is(err, errs.ErrInconsistent),
		errors.Is(err, errs.ErrLinkTypeMismatch):
		return ExitValidation
	default:
		return ExitFatalIO
	}
}

// Command capslice extracts, merges, and time-slices tcpdump/libpcap
// savefile captures. See helpText in help.go (or run with -h) for the flag and
// positional-argument surface.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/capslice/capslice/internal/app"
)

func init() {
	log.SetOutput(os.Stderr)
	log.SetPrefix("capslice: ")
	log.SetFlags(0)

	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, helpText)
	}
}

func main() {
	var (
		out        = flag.String("w", "", "output file (- for stdout)")
		keepDups   = flag.Bool("D", false, "keep duplicate records instead of suppressing them")
		relative   = flag.Bool("l", false, "relative-time merge: window is applied per-file against a common base")
		dumpWindow = flag.Bool("d", false, "print the resolved start/stop window and exit")
		styleRaw   = flag.Bool("R", false, "report timestamps in RAW style (s.uuuuuu)")
		styleRead  = flag.Bool("r", false, "report timestamps in READABLE style")
		stylePars  = flag.Bool("t", false, "report timestamps in PARSEABLE style")
		sessTypes  = flag.String("e", "", "comma-separated session types to track (e.g. tcp,sip)")
		sessFormat = flag.String("f", "", "output format a session tracker should use when persisting sessions")
		verbose    = flag.Int("v", 0, "verbosity level for per-record merge decisions")
	)
	flag.Parse()

	code := app.Run(app.Args{
		Positional: flag.Args(),
		Out:        *out,
		KeepDups:   *keepDups,
		Relative:   *relative,
		DumpWindow: *dumpWindow,
		StyleRaw:   *styleRaw,
		StyleRead:  *styleRead,
		StylePars:  *stylePars,
		SessTypes:  *sessTypes,
		SessFormat: *sessFormat,
		Verbose:    *verbose,
	}, os.Stdout, os.Stderr)

	os.Exit(code)
}

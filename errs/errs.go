// Package errs collects the sentinel errors returned by capslice's
// packages. Call sites wrap them with additional context via fmt.Errorf's
// %w verb; callers dispatch on error kind with errors.Is.
package errs

import "errors"

// Error kinds from the CLI's point of view (matches the exit-code policy:
// BadFormat/OutOfRange/Usage/Inconsistent abort before any output; InputIO
// during the merge is fatal but may leave partial output).
var (
	// ErrBadFormat means a time string failed the §4.2 grammar.
	ErrBadFormat = errors.New("bad time format")
	// ErrOutOfRange means a time string parsed but a calendar field, or
	// the supported year range, was violated.
	ErrOutOfRange = errors.New("time value out of range")
	// ErrInputIO means a capture adapter read/seek/open failure, or a
	// malformed capture file.
	ErrInputIO = errors.New("input i/o error")
	// ErrInconsistent means the locator could not produce a required
	// Definitely result, or inputs have mismatched link-layer types (that
	// error wraps ErrLinkTypeMismatch too). capture.OpenAdapter reports a
	// FindEnd failure as ErrInputIO instead, and an input whose first
	// timestamp exceeds its last is recorded in capture.Input.Invalid
	// rather than returned as an error.
	ErrInconsistent = errors.New("inconsistent input")
	// ErrUsage means conflicting flags or a missing input file.
	ErrUsage = errors.New("usage error")
)

// Structural sentinels, wrapped by the package that detects them.
var (
	// ErrClash names the header finder's Clash outcome (two or more
	// incompatible header candidates in a scan window); locator.FindHeader
	// reports that outcome as its Clash status, not as this error.
	ErrClash = errors.New("clashing header candidates")
	// ErrHeaderTruncated means fewer than a full record header's worth
	// of bytes were available where one was expected.
	ErrHeaderTruncated = errors.New("truncated record header")
	// ErrNotFound names a requested time outside the range a file can
	// confidently search (interpolation ratio outside [0, 1]).
	// locator.FindPacket reports that case as a false result with a nil
	// error, not as this sentinel, and callers skip the file.
	ErrNotFound = errors.New("position not found")
	// ErrLinkTypeMismatch means two inputs declare different link-layer
	// framings; merging them would require transcoding, which this
	// package does not do.
	ErrLinkTypeMismatch = errors.New("mismatched link-layer types")
)

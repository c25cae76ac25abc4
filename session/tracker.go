// Package session defines the collaborator boundary the merge engine uses
// to decide whether it must linger past an input's nominal stop time to let
// in-flight sessions (TCP streams, SIP dialogs, whatever a concrete tracker
// understands) close out cleanly.
//
// No concrete tracker ships here: tcpslice's own session tracking depended
// on libnids, an external packet-reassembly library outside this module's
// scope. What does ship is the interface the merge engine calls against,
// and a Config carrying tcpslice's session-tracking knobs, so a
// caller that does have a concrete Tracker has somewhere to plug it in.
package session

// Config holds the session-tracking tunables. Types and FileFormat come
// from the CLI's -e/-f flags; ExpirationDelay has no flag and is zero
// unless a caller sets it.
type Config struct {
	// Types is the comma-separated list of session types to track (the
	// -e flag's argument), e.g. "tcp,sip". Empty means tracking is off.
	Types string
	// FileFormat names the output format a concrete tracker should use
	// when it persists session records (the -f flag's argument).
	FileFormat string
	// ExpirationDelay is how long, in seconds, a tracker should keep a
	// session alive past its last observed record before considering it
	// closed.
	ExpirationDelay int
}

// Tracker observes records as the merge engine emits them and reports
// whether it still has sessions open, so the merge loop knows whether it
// must keep pulling records past an input's nominal stop time (the
// "bonus time" extension) instead of stopping there outright.
type Tracker interface {
	// Init prepares the tracker for a merge run using cfg. Called once,
	// after the inputs are opened and before the merge starts.
	Init(cfg Config) error
	// Observe is called for every record the merge loop picks and does not
	// stop at, before duplicate suppression (so dropped duplicates are
	// observed too), mirroring libnids' packet handler callback.
	Observe(header, payload []byte)
	// Open reports whether any session the tracker knows about is still
	// active. The merge engine treats a true result as a reason to keep
	// reading an input past its nominal stop time.
	Open() bool
	// Finalize gives the tracker a chance to flush or expire whatever it
	// was tracking. Neither merge.Context.Run nor the CLI calls it.
	Finalize()
}

// NoopTracker is the zero-configuration default: it never reports an open
// session, so the merge engine behaves exactly as if session tracking were
// absent. It satisfies Tracker so -e/-f can always be accepted even though
// no concrete tracker ships in this module.
type NoopTracker struct{}

var _ Tracker = NoopTracker{}

func (NoopTracker) Init(Config) error         { return nil }
func (NoopTracker) Observe(header, payload []byte) {}
func (NoopTracker) Open() bool                { return false }
func (NoopTracker) Finalize()                 {}

package merge

import (
	"github.com/capslice/capslice/capture"
	"github.com/capslice/capslice/internal/options"
	"github.com/capslice/capslice/session"
)

// ContextOption configures a Context built by NewContext, following the
// generic functional-options pattern internal/options defines (mirroring
// the teacher's blob.With... option constructors, generalized here over
// *Context instead of an encoder/decoder config).
type ContextOption = options.Option[*Context]

// WithKeepDuplicates disables duplicate suppression entirely (the CLI's -D
// flag).
func WithKeepDuplicates(keep bool) ContextOption {
	return options.NoError(func(c *Context) { c.KeepDups = keep })
}

// WithTracker installs a session.Tracker the merge loop consults for
// "bonus time" once a record crosses the effective stop bound. Passing nil
// is equivalent to session.NoopTracker{}.
func WithTracker(t session.Tracker) ContextOption {
	return options.NoError(func(c *Context) {
		if t == nil {
			t = session.NoopTracker{}
		}
		c.Tracker = t
	})
}

// WithVerbose sets the per-record merge-decision verbosity level consulted
// by Context.Run's logging (the CLI's -v flag).
func WithVerbose(level int) ContextOption {
	return options.NoError(func(c *Context) { c.Verbose = level })
}

// NewContext builds a Context for inputs and window, applying opts in
// order. Defaults match the CLI's own flag defaults: duplicates
// suppressed, a no-op session tracker, verbosity 0.
func NewContext(inputs []*capture.Input, window Window, opts ...ContextOption) (*Context, error) {
	c := &Context{Inputs: inputs, Window: window, Tracker: session.NoopTracker{}}
	if err := options.Apply(c, opts...); err != nil {
		return nil, err
	}
	return c, nil
}

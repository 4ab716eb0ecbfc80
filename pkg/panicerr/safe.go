// Package panicerr turns panics in background goroutines into errors so a
// supervising pool can cancel its siblings instead of crashing the process.
package panicerr

import (
	"context"

	"github.com/sourcegraph/conc/panics"
)

// Safe wraps fn so that a panic is returned as an error.
func Safe(fn func() error) func() error {
	return func() error {
		var (
			catcher panics.Catcher
			err     error
		)
		catcher.Try(func() {
			err = fn()
		})
		if err != nil {
			return err
		}
		return catcher.Recovered().AsError()
	}
}

// SafeContext is Safe for functions run by a context-aware pool.
func SafeContext(fn func(context.Context) error) func(context.Context) error {
	return func(ctx context.Context) error {
		return Safe(func() error { return fn(ctx) })()
	}
}

// Go runs fn on its own goroutine and reports a panic through onPanic.
// Used for fire-and-forget work such as push delivery.
func Go(fn func(), onPanic func(error)) {
	go func() {
		var catcher panics.Catcher
		catcher.Try(fn)
		if err := catcher.Recovered().AsError(); err != nil && onPanic != nil {
			onPanic(err)
		}
	}()
}

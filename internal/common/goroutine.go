package common

import (
	"fmt"
	"runtime/debug"

	"github.com/ternarybob/arbor"
)

// SafeGo runs fn on a new goroutine. A panic is logged with its stack and swallowed.
// The returned channel closes when fn has returned or panicked.
func SafeGo(logger arbor.ILogger, name string, fn func()) <-chan struct{} {
	done := make(chan struct{})

	go func() {
		defer close(done)
		defer func() {
			if r := recover(); r != nil {
				logger.Error().
					Str("goroutine", name).
					Str("panic", fmt.Sprintf("%v", r)).
					Str("stack", string(debug.Stack())).
					Msg("Recovered from panic in goroutine")
			}
		}()

		fn()
	}()

	return done
}

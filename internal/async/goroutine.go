// Package async spawns background goroutines that must never take the
// process down. A panic is logged with its stack and swallowed.
package async

import (
	"runtime/debug"

	"teamup/internal/logging"
)

// Go runs fn on a new goroutine behind a recover guard. The name tags the
// panic log line so the failing goroutine can be identified.
func Go(logger logging.Logger, name string, fn func()) {
	logger = logging.OrNop(logger)
	go func() {
		defer Recover(logger, name)
		fn()
	}()
}

// Recover is the deferred half of Go, exported so callers that manage their
// own goroutines can reuse the same guard.
func Recover(logger logging.Logger, name string) {
	r := recover()
	if r == nil {
		return
	}
	if name == "" {
		name = "unnamed"
	}
	logging.OrNop(logger).Error("goroutine %s panicked: %v\n%s", name, r, debug.Stack())
}

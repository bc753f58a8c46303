package safego

import (
	"go.uber.org/zap"
)

// Go launches a goroutine with panic recovery.
// If the goroutine panics, the panic value is logged and the goroutine exits
// cleanly instead of crashing the process.
//
// Usage:
//
//	safego.Go(logger, "http-server", func() {
//	    // work that might panic
//	})
func Go(logger *zap.Logger, name string, fn func()) {
	go Run(logger, name, fn)
}

// Run calls fn on the current goroutine and recovers a panic the same way Go
// does. It reports whether fn returned normally.
func Run(logger *zap.Logger, name string, fn func()) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Goroutine panicked",
				zap.String("goroutine", name),
				zap.Any("panic", r),
				zap.Stack("stack"),
			)
			ok = false
		}
	}()
	fn()
	return true
}

package utils

import (
	"context"
	"fmt"
	"runtime/debug"

	"golang-signal-scryper/pkg/logger"
)

// GoSafe runs fn in a goroutine and swallows panics so one task cannot crash the process.
func GoSafe(fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				fmt.Printf("recovered from panic: %v\n%s\n", r, debug.Stack())
			}
		}()
		fn()
	}()
}

// RunSafe calls fn and converts a panic into an error.
func RunSafe(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic recovered: %v", r)
		}
	}()
	return fn()
}

// ShouldContinue reports whether ctx is still live, logging when it is not.
func ShouldContinue(ctx context.Context, log *logger.Logger) bool {
	select {
	case <-ctx.Done():
		log.Warn("Context done, stopping further processing", logger.ErrorField(ctx.Err()))
		return false
	default:
		return true
	}
}

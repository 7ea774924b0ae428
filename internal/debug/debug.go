// Copyright 2023 Gustavo C. Viegas. All rights reserved.

// Package debug provides the logger used to trace
// platform decisions (backend choice, libraries tried,
// protocol globals).
// Output is discarded unless Enable is called.
package debug

import (
	"io"
	"log"
	"sync/atomic"
)

var (
	logger  = log.New(io.Discard, "ngl: ", log.LstdFlags)
	enabled atomic.Bool
)

// Enable directs debug output to w.
// A nil w disables output.
func Enable(w io.Writer) {
	if w == nil {
		logger.SetOutput(io.Discard)
		enabled.Store(false)
		return
	}
	logger.SetOutput(w)
	enabled.Store(true)
}

// Enabled reports whether debug output is on.
func Enabled() bool { return enabled.Load() }

// Printf logs a debug message.
func Printf(format string, v ...any) {
	if enabled.Load() {
		logger.Printf(format, v...)
	}
}

// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package texstack

import (
	"log/slog"

	"github.com/gogpu/texstack/internal/logging"
)

// SetLogger configures the logger for texstack and all its sub-packages.
// By default, texstack produces no log output. Call SetLogger to enable
// logging.
//
// SetLogger is safe for concurrent use: it stores the new logger atomically.
// Pass nil to disable logging (restore default silent behavior).
//
// Log levels used by texstack:
//   - [slog.LevelDebug]: per-layer and per-sub-mesh diagnostics (buffer sizes, filtered triangle counts)
//   - [slog.LevelInfo]: lifecycle events (engine created, shader compiled)
//   - [slog.LevelWarn]: non-fatal issues (clip discarded, primitive skipped)
//
// Example:
//
//	// Enable debug-level logging for full diagnostics:
//	texstack.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	logging.Set(l)
}

// Logger returns the current logger used by texstack.
//
// Logger is safe for concurrent use.
func Logger() *slog.Logger {
	return logging.Logger()
}

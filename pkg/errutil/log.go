// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Shopcore Contributors

// Package errutil bridges oops errors and structured logging, plus test
// assertions for error codes.
package errutil

import (
	"log/slog"

	"github.com/samber/oops"
)

// LogError logs err with its oops code and context when present. Plain
// errors log as a single attribute.
func LogError(logger *slog.Logger, msg string, err error) {
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		logger.Error(msg, "error", err)
		return
	}

	attrs := []any{"error", oopsErr.Error()}
	if code := oopsErr.Code(); code != nil {
		attrs = append(attrs, "code", code)
	}
	if ctx := oopsErr.Context(); len(ctx) > 0 {
		attrs = append(attrs, "context", ctx)
	}
	logger.Error(msg, attrs...)
}

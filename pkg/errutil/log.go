// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 NexusSSO Contributors

// Package errutil holds helpers for logging and inspecting oops errors.
package errutil

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/samber/oops"
)

// LogError logs an error with structured context if it's an oops error.
// For oops errors, it extracts the message, code and context.
// For standard errors, it logs the error string.
func LogError(logger *slog.Logger, msg string, err error, attrs ...any) {
	LogErrorContext(context.Background(), logger, msg, err, attrs...)
}

// LogErrorContext is LogError with a context so trace ids reach the handler.
func LogErrorContext(ctx context.Context, logger *slog.Logger, msg string, err error, attrs ...any) {
	if logger == nil {
		logger = slog.Default()
	}
	if oopsErr, ok := oops.AsOops(err); ok {
		attrs = append(attrs, "error", oopsErr.Error())
		if code := Code(err); code != "" {
			attrs = append(attrs, "code", code)
		}
		if errCtx := oopsErr.Context(); len(errCtx) > 0 {
			attrs = append(attrs, "context", errCtx)
		}
		logger.ErrorContext(ctx, msg, attrs...)
		return
	}
	logger.ErrorContext(ctx, msg, append(attrs, "error", err)...)
}

// Code returns the oops error code of err, or "" when err carries none.
func Code(err error) string {
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return ""
	}
	code := oopsErr.Code()
	if code == nil {
		return ""
	}
	return fmt.Sprint(code)
}

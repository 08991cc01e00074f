// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 NexusSSO Contributors

package session

import (
	"errors"

	"github.com/samber/oops"
)

var (
	// ErrBusy is returned when a flow is already running.
	ErrBusy = errors.New("session busy")
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("session closed")
)

func busyError(state State) error {
	return oops.Code("SESSION_BUSY").With("state", state.String()).Wrap(ErrBusy)
}

func closedError() error {
	return oops.Code("SESSION_CLOSED").Wrap(ErrClosed)
}

func invalidTransition(from, to State) error {
	return oops.Code("SESSION_INVALID_TRANSITION").
		With("from", from.String()).
		With("to", to.String()).
		Errorf("invalid session transition %s -> %s", from, to)
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 NexusSSO Contributors

package session

import (
	"slices"

	"github.com/samber/oops"
)

// State is a session state.
type State int

const (
	LoggedOut State = iota
	Authenticating
	Verifying
	Ready
	Failed
)

var stateNames = [...]string{
	LoggedOut:      "LoggedOut",
	Authenticating: "Authenticating",
	Verifying:      "Verifying",
	Ready:          "Ready",
	Failed:         "Failed",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "Unknown"
	}
	return stateNames[s]
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// ParseState returns the State named s.
func ParseState(s string) (State, error) {
	for i, name := range stateNames {
		if name == s {
			return State(i), nil
		}
	}
	return LoggedOut, oops.Code("SESSION_UNKNOWN_STATE").With("state", s).Errorf("unknown session state %q", s)
}

// transitions lists the allowed successor states.
var transitions = map[State][]State{
	LoggedOut:      {Authenticating, Verifying},
	Authenticating: {Verifying, Failed},
	Verifying:      {Ready, Failed},
	Ready:          {LoggedOut},
	Failed:         {LoggedOut},
}

// CanTransitionTo reports whether next may follow s.
func (s State) CanTransitionTo(next State) bool {
	return slices.Contains(transitions[s], next)
}

// Display texts for the login control.
const (
	TextLogIn        = "LOG IN"
	TextLoggingIn    = "LOGGING IN..."
	TextGettingData  = "GETTING DATA..."
	TextLoggedIn     = "LOGGED IN"
	TextLoginFailed  = "LOGIN FAILED"
	TextUserInfoFail = "FAILED TO GET USER INFO :("
)

func displayText(s State, failText string) string {
	switch s {
	case Authenticating:
		return TextLoggingIn
	case Verifying:
		return TextGettingData
	case Ready:
		return TextLoggedIn
	case Failed:
		if failText != "" {
			return failText
		}
		return TextLoginFailed
	default:
		return TextLogIn
	}
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 NexusSSO Contributors

// Package session drives the NexusMods single sign-on flow.
//
// A Coordinator owns the session state machine:
//
//	LoggedOut      -> Authenticating  RequestLogin
//	LoggedOut      -> Verifying       Start with stored credentials
//	Authenticating -> Verifying       helper returned credentials
//	Authenticating -> Failed          timeout, cancel, unreadable output
//	Verifying      -> Ready           account verified
//	Verifying      -> Failed          account could not be verified
//	Ready          -> LoggedOut       Logout
//	Failed         -> LoggedOut       immediately, after the failure notice
//
// Only one flow runs at a time; a second RequestLogin while one is running
// returns ErrBusy and changes nothing. Every state change and prompt is
// published as an event.Event for the presentation layer.
package session

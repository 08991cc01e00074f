// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 NexusSSO Contributors

// Package helper runs the external updater executable that performs every
// network call on behalf of the session manager.
//
// The helper is a command-line program. Each call is one process:
//
//	<helper> nexus-login [<previous-token>]
//	<helper> get-metafile <url> <apiKey>
//	<helper> get-file <url> <destPath> <apiKey>
//
// Results are read from its standard output line by line. The Client waits
// for the process to exit, polling on a fixed interval so callers can react
// to elapsed time, and kills the process when the timeout elapses or the
// context is cancelled. Killed processes are always reaped before Invoke
// returns.
package helper

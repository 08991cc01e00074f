// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 NexusSSO Contributors

package config

import (
	"github.com/spf13/pflag"
)

// flagKeys maps flag names registered by BindFlags to config keys.
var flagKeys = map[string]string{
	"helper":        "helper.path",
	"helper-dir":    "helper.dir",
	"storage":       "storage.path",
	"storage-key":   "storage.key_path",
	"login-timeout": "session.login_timeout",
	"log-format":    "log.format",
	"log-level":     "log.level",
	"metrics-addr":  "metrics.addr",
}

// BindFlags registers the flags that override config file values. Flag
// defaults are placeholders; Load only applies flags that were set.
func BindFlags(fs *pflag.FlagSet) {
	fs.String("helper", "", "helper executable (helper.path)")
	fs.String("helper-dir", "", "helper working directory (helper.dir)")
	fs.String("storage", "", "sealed credential file (storage.path)")
	fs.String("storage-key", "", "credential key file (storage.key_path)")
	fs.Duration("login-timeout", 0, "how long to wait for the website login (session.login_timeout)")
	fs.String("log-format", "", "log format, json or text (log.format)")
	fs.String("log-level", "", "log level (log.level)")
	fs.String("metrics-addr", "", "metrics/health HTTP address, empty disables (metrics.addr)")
}

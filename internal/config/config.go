// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 NexusSSO Contributors

// Package config loads nexus-sso settings from a YAML file and command-line
// flags.
package config

import (
	"errors"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"

	"github.com/mscloader/nexussso/internal/account"
	"github.com/mscloader/nexussso/internal/asset"
	"github.com/mscloader/nexussso/internal/logging"
	"github.com/mscloader/nexussso/internal/session"
	"github.com/mscloader/nexussso/internal/xdg"
)

// Config is the complete nexus-sso configuration.
type Config struct {
	Helper  Helper  `koanf:"helper" json:"helper,omitempty" yaml:"helper"`
	Storage Storage `koanf:"storage" json:"storage,omitempty" yaml:"storage"`
	Session Session `koanf:"session" json:"session,omitempty" yaml:"session"`
	Cache   Cache   `koanf:"cache" json:"cache,omitempty" yaml:"cache"`
	Log     Log     `koanf:"log" json:"log,omitempty" yaml:"log"`
	Metrics Metrics `koanf:"metrics" json:"metrics,omitempty" yaml:"metrics"`
}

// Helper locates the helper executable.
type Helper struct {
	Path string `koanf:"path" json:"path,omitempty" yaml:"path" jsonschema:"description=Helper executable"`
	// Dir is the helper's working and data directory. Cached profile
	// images live under it.
	Dir string `koanf:"dir" json:"dir,omitempty" yaml:"dir" jsonschema:"description=Helper working and data directory"`
}

// Storage locates the sealed credential file.
type Storage struct {
	Path    string `koanf:"path" json:"path,omitempty" yaml:"path" jsonschema:"description=Sealed credential file"`
	KeyPath string `koanf:"key_path" json:"key_path,omitempty" yaml:"key_path" jsonschema:"description=Installation secret used to seal the credential file"`
}

// Session holds the flow timings.
type Session struct {
	LoginTimeout     time.Duration `koanf:"login_timeout" json:"login_timeout,omitempty" yaml:"login_timeout" jsonschema:"type=string,pattern=^([0-9]+(\\.[0-9]+)?(ns|us|µs|ms|s|m|h))+$"`
	VerifyTimeout    time.Duration `koanf:"verify_timeout" json:"verify_timeout,omitempty" yaml:"verify_timeout" jsonschema:"type=string,pattern=^([0-9]+(\\.[0-9]+)?(ns|us|µs|ms|s|m|h))+$"`
	FetchTimeout     time.Duration `koanf:"fetch_timeout" json:"fetch_timeout,omitempty" yaml:"fetch_timeout" jsonschema:"type=string,pattern=^([0-9]+(\\.[0-9]+)?(ns|us|µs|ms|s|m|h))+$"`
	PollInterval     time.Duration `koanf:"poll_interval" json:"poll_interval,omitempty" yaml:"poll_interval" jsonschema:"type=string,pattern=^([0-9]+(\\.[0-9]+)?(ns|us|µs|ms|s|m|h))+$"`
	LaunchDelay      time.Duration `koanf:"launch_delay" json:"launch_delay,omitempty" yaml:"launch_delay" jsonschema:"type=string,pattern=^(0|([0-9]+(\\.[0-9]+)?(ns|us|µs|ms|s|m|h))+)$"`
	CancelPromptTick int           `koanf:"cancel_prompt_tick" json:"cancel_prompt_tick,omitempty" yaml:"cancel_prompt_tick" jsonschema:"minimum=1"`
	UserInfoURL      string        `koanf:"user_info_url" json:"user_info_url,omitempty" yaml:"user_info_url" jsonschema:"format=uri"`
}

// Cache controls profile image freshness.
type Cache struct {
	MaxAge time.Duration `koanf:"max_age" json:"max_age,omitempty" yaml:"max_age" jsonschema:"type=string,pattern=^([0-9]+(\\.[0-9]+)?(ns|us|µs|ms|s|m|h))+$"`
}

// Log selects the log output.
type Log struct {
	Format string `koanf:"format" json:"format,omitempty" yaml:"format" jsonschema:"enum=json,enum=text"`
	Level  string `koanf:"level" json:"level,omitempty" yaml:"level" jsonschema:"enum=debug,enum=info,enum=warn,enum=error"`
}

// Metrics configures the observability server. An empty Addr disables it.
type Metrics struct {
	Addr string `koanf:"addr" json:"addr,omitempty" yaml:"addr"`
}

// Default returns the configuration used when nothing is set. Paths are
// resolved from the XDG base directories.
func Default() (Config, error) {
	dataDir, err := xdg.DataDir()
	if err != nil {
		return Config{}, err
	}
	sess := session.DefaultConfig()
	return Config{
		Helper: Helper{
			Dir: dataDir,
		},
		Storage: Storage{
			Path:    filepath.Join(dataDir, xdg.CredentialFile),
			KeyPath: filepath.Join(dataDir, xdg.KeyFile),
		},
		Session: Session{
			LoginTimeout:     sess.LoginTimeout,
			VerifyTimeout:    account.DefaultTimeout,
			FetchTimeout:     asset.DefaultTimeout,
			PollInterval:     sess.PollInterval,
			LaunchDelay:      sess.LaunchDelay,
			CancelPromptTick: sess.CancelPromptTick,
			UserInfoURL:      account.DefaultUserInfoURL,
		},
		Cache: Cache{
			MaxAge: asset.DefaultMaxAge,
		},
		Log: Log{
			Format: logging.FormatJSON,
			Level:  "info",
		},
	}, nil
}

// Validate checks that the configuration is usable.
func (c Config) Validate() error {
	invalid := func(key, msg string) error {
		return oops.Code("CONFIG_INVALID").With("key", key).Errorf("%s: %s", key, msg)
	}

	if c.Helper.Path == "" {
		return invalid("helper.path", "is required")
	}
	if c.Helper.Dir == "" {
		return invalid("helper.dir", "is required")
	}
	if c.Storage.Path == "" {
		return invalid("storage.path", "is required")
	}

	positive := []struct {
		key string
		d   time.Duration
	}{
		{"session.login_timeout", c.Session.LoginTimeout},
		{"session.verify_timeout", c.Session.VerifyTimeout},
		{"session.fetch_timeout", c.Session.FetchTimeout},
		{"session.poll_interval", c.Session.PollInterval},
		{"cache.max_age", c.Cache.MaxAge},
	}
	for _, p := range positive {
		if p.d <= 0 {
			return invalid(p.key, "must be positive")
		}
	}
	if c.Session.LaunchDelay < 0 {
		return invalid("session.launch_delay", "must not be negative")
	}
	if c.Session.CancelPromptTick < 1 {
		return invalid("session.cancel_prompt_tick", "must be at least 1")
	}
	if u, err := url.Parse(c.Session.UserInfoURL); err != nil || u.Scheme == "" || u.Host == "" {
		return invalid("session.user_info_url", "must be an absolute URL")
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return invalid("log.level", err.Error())
	}
	if c.Log.Format != logging.FormatJSON && c.Log.Format != logging.FormatText {
		return invalid("log.format", "must be 'json' or 'text'")
	}
	return nil
}

// SessionConfig returns the coordinator timings.
func (c Config) SessionConfig() session.Config {
	return session.Config{
		LoginTimeout:     c.Session.LoginTimeout,
		PollInterval:     c.Session.PollInterval,
		LaunchDelay:      c.Session.LaunchDelay,
		CancelPromptTick: c.Session.CancelPromptTick,
	}
}

// LoadOptions controls where Load reads from.
type LoadOptions struct {
	// Path is the YAML file. Empty means the XDG default location.
	Path string
	// Required makes a missing file an error. A missing default file is
	// always ignored.
	Required bool
	// Flags overlays values from flags registered by BindFlags. Only flags
	// the user changed take effect.
	Flags *pflag.FlagSet
}

// Load builds the configuration from defaults, the YAML file and flags, in
// that order, and validates the result.
func Load(opts LoadOptions) (Config, error) {
	cfg, err := Default()
	if err != nil {
		return Config{}, oops.Code("CONFIG_INVALID").Wrapf(err, "resolve default directories")
	}

	path := opts.Path
	if path == "" {
		if path, err = xdg.ConfigPath(); err != nil {
			return Config{}, oops.Code("CONFIG_INVALID").Wrapf(err, "resolve config path")
		}
	}

	k := koanf.New(".")

	data, err := os.ReadFile(path) //nolint:gosec // path comes from the operator
	switch {
	case err == nil:
		if err := ValidateYAML(data); err != nil {
			return Config{}, oops.With("path", path).Wrap(err)
		}
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, oops.Code("CONFIG_INVALID").With("path", path).Wrapf(err, "load config file")
		}
	case errors.Is(err, fs.ErrNotExist) && !opts.Required:
	default:
		return Config{}, oops.Code("CONFIG_INVALID").With("path", path).Wrapf(err, "read config file")
	}

	if opts.Flags != nil {
		provider := posflag.ProviderWithFlag(opts.Flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			key, ok := flagKeys[f.Name]
			if !ok || !f.Changed {
				return "", nil
			}
			// Durations decode from their string form.
			return key, f.Value.String()
		})
		if err := k.Load(provider, nil); err != nil {
			return Config{}, oops.Code("CONFIG_INVALID").Wrapf(err, "load flags")
		}
	}

	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, oops.Code("CONFIG_INVALID").With("path", path).Wrapf(err, "decode config")
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

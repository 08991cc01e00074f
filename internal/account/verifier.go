// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 NexusSSO Contributors

// Package account checks an API key against NexusMods and reads the account
// it belongs to.
package account

import (
	"context"
	"log/slog"
	"time"

	"github.com/samber/oops"

	"github.com/mscloader/nexussso/internal/helper"
	"github.com/mscloader/nexussso/pkg/errutil"
)

// DefaultUserInfoURL is the NexusMods key validation endpoint.
const DefaultUserInfoURL = "https://api.nexusmods.com/v1/users/validate.json"

// DefaultTimeout bounds one verification.
const DefaultTimeout = 10 * time.Second

// Config configures a Verifier.
type Config struct {
	Helper       helper.Invoker
	URL          string
	Timeout      time.Duration
	PollInterval time.Duration
	Logger       *slog.Logger
}

// Verifier fetches account details for an API key through the helper.
type Verifier struct {
	helper  helper.Invoker
	url     string
	timeout time.Duration
	poll    time.Duration
	logger  *slog.Logger
}

// NewVerifier creates a Verifier.
func NewVerifier(cfg Config) (*Verifier, error) {
	if cfg.Helper == nil {
		return nil, oops.Code("ACCOUNT_INVALID_CONFIG").Errorf("helper invoker is required")
	}
	if cfg.URL == "" {
		cfg.URL = DefaultUserInfoURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Verifier{
		helper:  cfg.Helper,
		url:     cfg.URL,
		timeout: cfg.Timeout,
		poll:    cfg.PollInterval,
		logger:  cfg.Logger.With("component", "account"),
	}, nil
}

// Verify returns the account for apiKey. A nil result with a nil error means
// the key could not be verified: it was rejected, the request timed out or was
// cancelled, or the response carried no account name. The only error is a
// failure to run the helper.
func (v *Verifier) Verify(ctx context.Context, apiKey string) (*UserInfo, error) {
	if apiKey == "" {
		return nil, nil
	}

	out, err := v.helper.Invoke(ctx, helper.Invocation{
		Args:         []string{helper.CommandGetMetafile, v.url, apiKey},
		Timeout:      v.timeout,
		PollInterval: v.poll,
	})
	if err != nil {
		return nil, err
	}

	switch out.Status {
	case helper.StatusTimedOut:
		v.logger.WarnContext(ctx, "user info request timed out", "timeout", v.timeout)
		return nil, nil
	case helper.StatusCancelled:
		v.logger.InfoContext(ctx, "user info request cancelled")
		return nil, nil
	}

	if IsRejected(out.Stdout) {
		v.logger.WarnContext(ctx, "api key rejected")
		return nil, nil
	}

	info, errs := ParseUserInfo(out.Stdout)
	for _, perr := range errs {
		errutil.LogErrorContext(ctx, v.logger, "user info line skipped", perr)
	}
	if info == nil {
		v.logger.WarnContext(ctx, "user info response has no account name")
		return nil, nil
	}

	v.logger.DebugContext(ctx, "account verified",
		"user_name", info.Name,
		"member_status", info.MemberStatus(),
	)
	return info, nil
}

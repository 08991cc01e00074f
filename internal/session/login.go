// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 NexusSSO Contributors

package session

import (
	"context"
	"time"

	"github.com/samber/oops"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/mscloader/nexussso/internal/credential"
	"github.com/mscloader/nexussso/internal/event"
	"github.com/mscloader/nexussso/internal/helper"
	"github.com/mscloader/nexussso/pkg/errutil"
)

// login runs Authenticating and, on success, Verifying. It returns the
// outcome label for metrics.
func (c *Coordinator) login(ctx context.Context) (string, error) {
	ctx, span := c.tracer.Start(ctx, "session.login")
	defer span.End()

	c.mu.Lock()
	hint := c.creds.Token
	err := c.transitionLocked(Authenticating)
	c.mu.Unlock()
	if err != nil {
		return OutcomeError, err
	}

	c.events.Publish(event.PromptShown(PromptTitle, LaunchMessage))
	promptShown := true
	hidePrompt := func() {
		if promptShown {
			c.events.Publish(event.PromptHidden())
			promptShown = false
		}
	}

	if !c.sleep(ctx, c.cfg.LaunchDelay) {
		hidePrompt()
		c.logger.InfoContext(ctx, "login cancelled before launch")
		c.fail(ctx, event.NoticeCancelled, CancelledMessage, TextLoginFailed)
		return OutcomeCancelled, nil
	}

	args := []string{helper.CommandLogin}
	if hint != "" {
		args = append(args, hint)
	}
	cancelShown := false
	c.logger.InfoContext(ctx, "starting login helper", "token_hint", hint != "")

	out, err := c.helper.Invoke(ctx, helper.Invocation{
		Args:         args,
		Timeout:      c.cfg.LoginTimeout,
		PollInterval: c.cfg.PollInterval,
		OnTick: func(tick int) {
			if tick == c.cfg.CancelPromptTick && !cancelShown {
				hidePrompt()
				c.events.Publish(event.CancelShown(WaitingMessage))
				promptShown = true
				cancelShown = true
			}
		},
	})
	hidePrompt()

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "helper spawn failed")
		errutil.LogErrorContext(ctx, c.logger, "login helper failed to start", err)
		c.fail(ctx, event.NoticeError, err.Error(), TextLoginFailed)
		return OutcomeError, err
	}

	span.SetAttributes(attribute.String("helper.status", out.Status.String()))
	switch out.Status {
	case helper.StatusTimedOut:
		c.logger.WarnContext(ctx, "login timed out", "timeout", c.cfg.LoginTimeout)
		c.fail(ctx, event.NoticeTimeout, TimedOutMessage, TextLoginFailed)
		return OutcomeTimeout, nil
	case helper.StatusCancelled:
		c.logger.InfoContext(ctx, "login cancelled")
		c.fail(ctx, event.NoticeCancelled, CancelledMessage, TextLoginFailed)
		return OutcomeCancelled, nil
	}

	creds, perr := credential.ParseRecord(out.Stdout)
	if perr != nil {
		err := oops.Code("SESSION_LOGIN_PARSE").
			With("reason", perr.Error()).
			With("exit_code", out.ExitCode).
			Errorf("login helper output is not a credential record")
		span.RecordError(err)
		span.SetStatus(codes.Error, "unreadable login output")
		errutil.LogErrorContext(ctx, c.logger, "login output unreadable", err)
		c.fail(ctx, event.NoticeError, ParseMessage, TextLoginFailed)
		return OutcomeInvalid, err
	}

	// The helper already consumed the token; a late cancel must not lose it.
	if err := c.store.Save(context.WithoutCancel(ctx), creds); err != nil {
		errutil.LogErrorContext(ctx, c.logger, "persist credentials", err)
		c.events.Publish(event.Notice(event.NoticeError, "Credentials could not be saved; you will need to log in again next time."))
	}

	c.mu.Lock()
	c.creds = creds
	err = c.transitionLocked(Verifying)
	c.mu.Unlock()
	if err != nil {
		return OutcomeError, err
	}

	info, err := c.verify(ctx, creds, true)
	switch {
	case err != nil:
		return OutcomeError, err
	case info == nil && ctx.Err() != nil:
		return OutcomeCancelled, nil
	case info == nil:
		return OutcomeInvalid, nil
	default:
		return OutcomeCompleted, nil
	}
}

// sleep waits for d. It returns false if ctx ended first.
func (c *Coordinator) sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 NexusSSO Contributors

package session

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/mscloader/nexussso/internal/account"
	"github.com/mscloader/nexussso/internal/credential"
	"github.com/mscloader/nexussso/internal/event"
	"github.com/mscloader/nexussso/pkg/errutil"
)

// verify runs the Verifying state to Ready or, through Failed, to LoggedOut.
// A verification cut short by ctx reports the cancellation, not a rejection.
// forceProfile refetches the profile image regardless of its age.
func (c *Coordinator) verify(ctx context.Context, creds credential.Credentials, forceProfile bool) (*account.UserInfo, error) {
	ctx, span := c.tracer.Start(ctx, "session.verify")
	defer span.End()

	info, err := c.verifier.Verify(ctx, creds.APIKey)
	if info == nil && ctx.Err() != nil {
		span.SetAttributes(attribute.Bool("account.verified", false))
		c.logger.InfoContext(ctx, "account verification cancelled")
		c.fail(ctx, event.NoticeCancelled, CancelledMessage, TextLoginFailed)
		return nil, nil
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "verification failed to run")
		errutil.LogErrorContext(ctx, c.logger, "account verification failed to run", err)
		c.fail(ctx, event.NoticeError, UserInfoMessage, TextUserInfoFail)
		return nil, err
	}
	if info == nil {
		span.SetAttributes(attribute.Bool("account.verified", false))
		c.logger.WarnContext(ctx, "account could not be verified")
		c.fail(ctx, event.NoticeError, UserInfoMessage, TextUserInfoFail)
		return nil, nil
	}

	span.SetAttributes(
		attribute.Bool("account.verified", true),
		attribute.Bool("account.premium", info.IsPremium),
	)

	c.mu.Lock()
	c.user = info
	c.failText = ""
	err = c.transitionLocked(Ready)
	c.mu.Unlock()
	if err != nil {
		return nil, err
	}

	c.logger.InfoContext(ctx, "logged in", "user_name", info.Name, "member_status", info.MemberStatus())
	c.refreshProfile(*info, creds.APIKey, forceProfile)
	return info, nil
}

// refreshProfile fetches the profile image in the background and publishes
// profile.updated when done. The result is dropped if the session has moved
// on to another account meanwhile.
func (c *Coordinator) refreshProfile(user account.UserInfo, apiKey string, force bool) {
	if c.assets == nil {
		return
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.wg.Add(1)
	c.mu.Unlock()

	go func() {
		defer c.wg.Done()

		ctx, span := c.tracer.Start(c.baseCtx, "session.profile_refresh")
		defer span.End()

		entry, err := c.assets.Refresh(ctx, user.Name, user.ProfilePicURL, apiKey, force)
		if err != nil {
			span.RecordError(err)
			errutil.LogErrorContext(ctx, c.logger, "profile image refresh failed", err, "user_name", user.Name)
			return
		}

		if entry == nil || ctx.Err() != nil {
			return
		}

		c.mu.Lock()
		defer c.mu.Unlock()
		if c.state != Ready || c.user == nil || c.user.Name != user.Name {
			return
		}
		c.profile = entry
		c.events.Publish(event.ProfileUpdated(c.viewLocked()))
	}()
}

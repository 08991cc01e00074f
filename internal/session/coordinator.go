// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 NexusSSO Contributors

package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/samber/oops"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/mscloader/nexussso/internal/account"
	"github.com/mscloader/nexussso/internal/asset"
	"github.com/mscloader/nexussso/internal/credential"
	"github.com/mscloader/nexussso/internal/event"
	"github.com/mscloader/nexussso/internal/helper"
	"github.com/mscloader/nexussso/pkg/errutil"
)

// Prompt and notice texts.
const (
	PromptTitle      = "NexusMods Login"
	LaunchMessage    = "You will now be taken to NexusMods..."
	WaitingMessage   = "Waiting for user to login..."
	CancelledMessage = "Log in procedure has been canceled."
	TimedOutMessage  = "Login token timed-out."
	ParseMessage     = "Login response could not be read."
	UserInfoMessage  = "Failed to get user info."
	LogoutQuestion   = "Are you sure you want to log out?"
	BusyMessage      = "Busy!"
)

// Config holds the flow timings.
type Config struct {
	// LoginTimeout bounds the wait for the user to finish logging in on the
	// website. Defaults to five minutes, the lifetime of a NexusMods SSO token.
	LoginTimeout time.Duration
	// PollInterval is the helper wait granularity. Defaults to one second.
	PollInterval time.Duration
	// LaunchDelay is how long the launch prompt shows before the browser
	// opens. Zero opens it immediately; negative means the one second default.
	LaunchDelay time.Duration
	// CancelPromptTick is the poll tick on which the launch prompt is
	// replaced by the cancel prompt. Defaults to 2.
	CancelPromptTick int
}

// DefaultConfig returns the standard flow timings.
func DefaultConfig() Config {
	return Config{
		LoginTimeout:     5 * time.Minute,
		PollInterval:     time.Second,
		LaunchDelay:      time.Second,
		CancelPromptTick: 2,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.LoginTimeout <= 0 {
		c.LoginTimeout = d.LoginTimeout
	}
	if c.PollInterval <= 0 {
		c.PollInterval = d.PollInterval
	}
	if c.LaunchDelay < 0 {
		c.LaunchDelay = d.LaunchDelay
	}
	if c.CancelPromptTick <= 0 {
		c.CancelPromptTick = d.CancelPromptTick
	}
	return c
}

// Verifier checks an API key and returns its account, or nil when the key
// could not be verified.
type Verifier interface {
	Verify(ctx context.Context, apiKey string) (*account.UserInfo, error)
}

// AssetRefresher refreshes a cached profile image.
type AssetRefresher interface {
	Refresh(ctx context.Context, key, sourceURL, apiKey string, force bool) (*asset.Entry, error)
}

// Confirmer asks the user a yes/no question.
type Confirmer interface {
	ConfirmLogout(ctx context.Context, question, title string) bool
}

// ConfirmerFunc adapts a function to Confirmer.
type ConfirmerFunc func(ctx context.Context, question, title string) bool

// ConfirmLogout calls f.
func (f ConfirmerFunc) ConfirmLogout(ctx context.Context, question, title string) bool {
	return f(ctx, question, title)
}

// Deps are the Coordinator's collaborators.
type Deps struct {
	Store    credential.Store
	Helper   helper.Invoker
	Verifier Verifier
	// Assets is optional; without it no profile image is fetched.
	Assets AssetRefresher
	// Events defaults to event.Discard.
	Events event.Publisher
	// Confirmer is optional; without it logout is always confirmed.
	Confirmer Confirmer
	Logger    *slog.Logger
}

// Coordinator runs the login, verification and logout flows.
type Coordinator struct {
	cfg       Config
	store     credential.Store
	helper    helper.Invoker
	verifier  Verifier
	assets    AssetRefresher
	events    event.Publisher
	confirmer Confirmer
	logger    *slog.Logger
	tracer    trace.Tracer

	mu          sync.Mutex
	state       State
	active      bool
	closed      bool
	creds       credential.Credentials
	user        *account.UserInfo
	profile     *asset.Entry
	failText    string
	cancelLogin context.CancelFunc

	// Background follow-ups run under baseCtx and are tracked by wg.
	baseCtx    context.Context
	baseCancel context.CancelFunc
	wg         sync.WaitGroup
}

// New creates a Coordinator in the LoggedOut state.
func New(cfg Config, deps Deps) (*Coordinator, error) {
	if deps.Store == nil {
		return nil, oops.Code("SESSION_INVALID_CONFIG").Errorf("credential store is required")
	}
	if deps.Helper == nil {
		return nil, oops.Code("SESSION_INVALID_CONFIG").Errorf("helper invoker is required")
	}
	if deps.Verifier == nil {
		return nil, oops.Code("SESSION_INVALID_CONFIG").Errorf("verifier is required")
	}
	if deps.Events == nil {
		deps.Events = event.Discard
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	baseCtx, baseCancel := context.WithCancel(context.Background())
	StateGauge.Set(float64(LoggedOut))
	return &Coordinator{
		cfg:        cfg.withDefaults(),
		store:      deps.Store,
		helper:     deps.Helper,
		verifier:   deps.Verifier,
		assets:     deps.Assets,
		events:     deps.Events,
		confirmer:  deps.Confirmer,
		logger:     deps.Logger.With("component", "session"),
		tracer:     otel.Tracer("github.com/mscloader/nexussso/internal/session"),
		state:      LoggedOut,
		baseCtx:    baseCtx,
		baseCancel: baseCancel,
	}, nil
}

// Start restores a stored session. With stored credentials the session moves
// to Verifying and the account is verified; otherwise it stays LoggedOut.
func (c *Coordinator) Start(ctx context.Context) error {
	if err := c.begin(LoggedOut); err != nil {
		return err
	}
	defer c.end()

	creds, ok := c.store.Load(ctx)
	if !ok {
		c.mu.Lock()
		c.publishStateLocked()
		c.mu.Unlock()
		c.logger.InfoContext(ctx, "no stored credentials")
		return nil
	}

	c.mu.Lock()
	c.creds = creds
	err := c.transitionLocked(Verifying)
	c.mu.Unlock()
	if err != nil {
		return err
	}

	c.logger.InfoContext(ctx, "verifying stored credentials")
	_, err = c.verify(ctx, creds, false)
	return err
}

// RequestLogin runs the interactive login flow and blocks until it ends.
//
// If a flow is already running it returns ErrBusy and changes nothing. If the
// session is Ready it asks the Confirmer whether to log out instead.
// Timeouts, cancellation and failed verification end the flow in LoggedOut
// with a notice and a nil error; the state tells the caller how it went.
func (c *Coordinator) RequestLogin(ctx context.Context) error {
	c.mu.Lock()
	switch {
	case c.closed:
		c.mu.Unlock()
		return closedError()
	case c.active:
		state := c.state
		c.events.Publish(event.Notice(event.NoticeBusy, BusyMessage))
		c.mu.Unlock()
		recordLogin(OutcomeBusy)
		c.logger.InfoContext(ctx, "login requested while busy", "state", state.String())
		return busyError(state)
	case c.state == Ready:
		c.mu.Unlock()
		if c.confirmer != nil && !c.confirmer.ConfirmLogout(ctx, LogoutQuestion, PromptTitle) {
			return nil
		}
		return c.Logout(ctx)
	case c.state != LoggedOut:
		state := c.state
		c.mu.Unlock()
		return invalidTransition(state, Authenticating)
	}

	loginCtx, cancel := context.WithCancel(ctx)
	c.active = true
	c.cancelLogin = cancel
	c.mu.Unlock()

	defer func() {
		cancel()
		c.end()
	}()

	outcome, err := c.login(loginCtx)
	recordLogin(outcome)
	return err
}

// Cancel aborts the running login flow. It reports whether there was one.
func (c *Coordinator) Cancel() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cancelLogin == nil {
		return false
	}
	c.cancelLogin()
	c.cancelLogin = nil
	return true
}

// Logout forgets the session and deletes stored credentials. It is valid
// whenever no flow is running.
func (c *Coordinator) Logout(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return closedError()
	}
	if c.active {
		state := c.state
		c.mu.Unlock()
		return busyError(state)
	}
	c.active = true
	c.creds = credential.Credentials{}
	c.user = nil
	c.profile = nil
	c.failText = ""
	if c.state == Ready {
		// Ready -> LoggedOut is always allowed.
		_ = c.transitionLocked(LoggedOut)
	} else {
		c.publishStateLocked()
	}
	c.mu.Unlock()
	defer c.end()

	if err := c.store.Delete(ctx); err != nil {
		errutil.LogErrorContext(ctx, c.logger, "delete stored credentials", err)
		return err
	}
	c.logger.InfoContext(ctx, "logged out")
	return nil
}

// State returns the current state.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// UserInfo returns a copy of the verified account, or nil.
func (c *Coordinator) UserInfo() *account.UserInfo {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.user == nil {
		return nil
	}
	u := *c.user
	return &u
}

// Busy reports whether a flow is running.
func (c *Coordinator) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// Snapshot is a point-in-time view of the session.
type Snapshot struct {
	State            State  `json:"state" yaml:"state"`
	DisplayText      string `json:"display_text" yaml:"display_text"`
	Busy             bool   `json:"busy" yaml:"busy"`
	UserName         string `json:"user_name,omitempty" yaml:"user_name,omitempty"`
	MemberStatus     string `json:"member_status,omitempty" yaml:"member_status,omitempty"`
	IsSupporter      bool   `json:"is_supporter,omitempty" yaml:"is_supporter,omitempty"`
	ProfileImagePath string `json:"profile_image_path,omitempty" yaml:"profile_image_path,omitempty"`
}

// Snapshot returns the current view of the session.
func (c *Coordinator) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Wait blocks until background follow-ups such as the profile image refresh
// have finished.
func (c *Coordinator) Wait() {
	c.wg.Wait()
}

// Close cancels any running flow and background work and waits for them.
func (c *Coordinator) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	if c.cancelLogin != nil {
		c.cancelLogin()
		c.cancelLogin = nil
	}
	c.mu.Unlock()

	c.baseCancel()
	c.wg.Wait()
	return nil
}

// begin marks a flow active. The session must be in want.
func (c *Coordinator) begin(want State) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch {
	case c.closed:
		return closedError()
	case c.active:
		return busyError(c.state)
	case c.state != want:
		return oops.Code("SESSION_INVALID_TRANSITION").
			With("state", c.state.String()).
			With("want", want.String()).
			Errorf("session is %s, not %s", c.state, want)
	}
	c.active = true
	return nil
}

func (c *Coordinator) end() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.active = false
	c.cancelLogin = nil
}

// transitionLocked moves to next and publishes the new state. c.mu must be held.
func (c *Coordinator) transitionLocked(next State) error {
	if !c.state.CanTransitionTo(next) {
		return invalidTransition(c.state, next)
	}
	c.logger.Debug("session state changed", "from", c.state.String(), "to", next.String())
	c.state = next
	StateGauge.Set(float64(next))
	c.publishStateLocked()
	return nil
}

func (c *Coordinator) publishStateLocked() {
	c.events.Publish(event.StateChanged(c.viewLocked()))
}

func (c *Coordinator) snapshotLocked() Snapshot {
	s := Snapshot{
		State:       c.state,
		DisplayText: displayText(c.state, c.failText),
		Busy:        c.active,
	}
	if c.user != nil {
		s.UserName = c.user.Name
		s.MemberStatus = c.user.MemberStatus()
		s.IsSupporter = c.user.IsSupporter
	}
	if c.profile != nil {
		s.ProfileImagePath = c.profile.FilePath
	}
	return s
}

func (c *Coordinator) viewLocked() event.SessionView {
	s := c.snapshotLocked()
	return event.SessionView{
		State:            s.State.String(),
		DisplayText:      s.DisplayText,
		MemberStatus:     s.MemberStatus,
		UserName:         s.UserName,
		ProfileImagePath: s.ProfileImagePath,
	}
}

// fail moves through Failed to LoggedOut, publishing a notice in between.
// In-memory credentials are kept so the next login can pass the token hint.
func (c *Coordinator) fail(ctx context.Context, kind event.NoticeKind, message, failText string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.user = nil
	c.profile = nil
	c.failText = failText
	if err := c.transitionLocked(Failed); err != nil {
		errutil.LogErrorContext(ctx, c.logger, "session failure from unexpected state", err)
	}
	c.events.Publish(event.Notice(kind, message))
	c.failText = ""
	if err := c.transitionLocked(LoggedOut); err != nil {
		errutil.LogErrorContext(ctx, c.logger, "session reset failed", err)
	}
}

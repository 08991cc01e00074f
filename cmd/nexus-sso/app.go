// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 NexusSSO Contributors

package main

import (
	"io"
	"log/slog"

	"github.com/samber/oops"

	"github.com/mscloader/nexussso/internal/account"
	"github.com/mscloader/nexussso/internal/asset"
	"github.com/mscloader/nexussso/internal/config"
	"github.com/mscloader/nexussso/internal/credential"
	"github.com/mscloader/nexussso/internal/event"
	"github.com/mscloader/nexussso/internal/helper"
	"github.com/mscloader/nexussso/internal/logging"
	"github.com/mscloader/nexussso/internal/session"
	"github.com/mscloader/nexussso/internal/xdg"
	"github.com/mscloader/nexussso/pkg/errutil"
)

const serviceName = "nexus-sso"

// app is the wired session stack for one command run.
type app struct {
	cfg       config.Config
	logger    *slog.Logger
	store     credential.Store
	events    *event.Broadcaster
	session   *session.Coordinator
	presenter *Presenter
}

// newApp wires the session stack from cfg. Events are printed to out; a nil
// confirmer confirms every logout.
func newApp(cfg config.Config, deps *Deps, out io.Writer, confirmer session.Confirmer) (*app, error) {
	logger, err := logging.New(logging.Options{
		Service: serviceName,
		Version: version,
		Format:  cfg.Log.Format,
		Level:   cfg.Log.Level,
		Writer:  deps.LogWriter,
	})
	if err != nil {
		return nil, err
	}

	if err := xdg.EnsureDir(cfg.Helper.Dir); err != nil {
		return nil, err
	}

	inv, err := deps.HelperFactory(helper.Config{
		Path:   cfg.Helper.Path,
		Dir:    cfg.Helper.Dir,
		Logger: logger,
	})
	if err != nil {
		return nil, oops.With("helper", cfg.Helper.Path).Wrapf(err, "create helper client")
	}

	store, err := deps.StoreFactory(credential.FileStoreConfig{
		Path:    cfg.Storage.Path,
		KeyPath: cfg.Storage.KeyPath,
		Logger:  logger,
	})
	if err != nil {
		return nil, oops.With("path", cfg.Storage.Path).Wrapf(err, "open credential store")
	}

	verifier, err := account.NewVerifier(account.Config{
		Helper:       inv,
		URL:          cfg.Session.UserInfoURL,
		Timeout:      cfg.Session.VerifyTimeout,
		PollInterval: cfg.Session.PollInterval,
		Logger:       logger,
	})
	if err != nil {
		return nil, err
	}

	cache, err := asset.NewCache(asset.Config{
		Helper:       inv,
		UpdaterDir:   cfg.Helper.Dir,
		MaxAge:       cfg.Cache.MaxAge,
		Timeout:      cfg.Session.FetchTimeout,
		PollInterval: cfg.Session.PollInterval,
		Logger:       logger,
	})
	if err != nil {
		return nil, err
	}

	events := event.NewBroadcaster(logger)
	presenter := NewPresenter(out)
	presenter.Run(events.Subscribe())

	coord, err := session.New(cfg.SessionConfig(), session.Deps{
		Store:     store,
		Helper:    inv,
		Verifier:  verifier,
		Assets:    cache,
		Events:    events,
		Confirmer: confirmer,
		Logger:    logger,
	})
	if err != nil {
		events.Close()
		presenter.Wait()
		return nil, err
	}

	return &app{
		cfg:       cfg,
		logger:    logger,
		store:     store,
		events:    events,
		session:   coord,
		presenter: presenter,
	}, nil
}

// Close stops the session, then flushes pending event output.
func (a *app) Close() {
	if err := a.session.Close(); err != nil {
		errutil.LogError(a.logger, "close session", err)
	}
	a.events.Close()
	a.presenter.Wait()
}

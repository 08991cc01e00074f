// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 NexusSSO Contributors

//go:build integration

package session_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/mscloader/nexussso/internal/account"
	"github.com/mscloader/nexussso/internal/asset"
	"github.com/mscloader/nexussso/internal/credential"
	"github.com/mscloader/nexussso/internal/event"
	"github.com/mscloader/nexussso/internal/helper"
	"github.com/mscloader/nexussso/internal/session"
)

// updaterScript mimics the updater helper: the SSO login prints a key and
// token, metadata requests print account JSON for the known key, and file
// requests write a small image. Calls are appended to calls.log.
const updaterScript = `#!/bin/sh
dir=%q
cmd="$1"
shift
if [ $# -gt 0 ]; then
  echo "$cmd $*" >> "$dir/calls.log"
else
  echo "$cmd" >> "$dir/calls.log"
fi
case "$cmd" in
nexus-login)
  if [ -f "$dir/login.hang" ]; then
    exec sleep 30
  fi
  echo 'Waiting for browser...' >&2
  echo 'apiKey: "sso-key",'
  echo 'token: "sso-token",'
  ;;
get-metafile)
  if [ "$2" != "sso-key" ]; then
    echo 'Please provide a valid API Key'
    exit 0
  fi
  echo '{'
  echo '  "user_id": 1234567,'
  echo '  "key": "sso-key",'
  echo '  "name": "alice",'
  echo '  "is_premium?": true,'
  echo '  "is_supporter?": true,'
  echo '  "profile_url": "https://avatars.example.com/alice.png"'
  echo '}'
  ;;
get-file)
  printf 'PNG' > "$2"
  ;;
esac
`

type stack struct {
	dir     string
	store   *credential.FileStore
	events  *event.Recorder
	session *session.Coordinator
}

func (s *stack) calls() []string {
	data, err := os.ReadFile(filepath.Join(s.dir, "calls.log"))
	if err != nil {
		return nil
	}
	return strings.Split(strings.TrimSpace(string(data)), "\n")
}

func newStack(dir string) *stack {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	client, err := helper.NewClient(helper.Config{
		Path:   filepath.Join(dir, "updater"),
		Dir:    dir,
		Logger: logger,
	})
	Expect(err).NotTo(HaveOccurred())

	store, err := credential.NewFileStore(credential.FileStoreConfig{
		Path:   filepath.Join(dir, "data", "credentials.bin"),
		Logger: logger,
	})
	Expect(err).NotTo(HaveOccurred())

	verifier, err := account.NewVerifier(account.Config{
		Helper:       client,
		Timeout:      5 * time.Second,
		PollInterval: 20 * time.Millisecond,
		Logger:       logger,
	})
	Expect(err).NotTo(HaveOccurred())

	cache, err := asset.NewCache(asset.Config{
		Helper:       client,
		UpdaterDir:   dir,
		PollInterval: 20 * time.Millisecond,
		Logger:       logger,
	})
	Expect(err).NotTo(HaveOccurred())

	events := &event.Recorder{}
	coord, err := session.New(session.Config{
		LoginTimeout: 5 * time.Second,
		PollInterval: 20 * time.Millisecond,
	}, session.Deps{
		Store:    store,
		Helper:   client,
		Verifier: verifier,
		Assets:   cache,
		Events:   events,
		Logger:   logger,
	})
	Expect(err).NotTo(HaveOccurred())
	DeferCleanup(func() {
		Expect(coord.Close()).To(Succeed())
	})

	return &stack{dir: dir, store: store, events: events, session: coord}
}

var _ = Describe("Session against a real helper process", func() {
	var (
		ctx context.Context
		dir string
	)

	BeforeEach(func() {
		if runtime.GOOS == "windows" {
			Skip("the fake updater is a POSIX shell script")
		}
		ctx = context.Background()
		dir = GinkgoT().TempDir()
		script := fmt.Sprintf(updaterScript, dir)
		//nolint:gosec // test helper must be executable
		Expect(os.WriteFile(filepath.Join(dir, "updater"), []byte(script), 0o755)).To(Succeed())
	})

	Describe("interactive login", func() {
		It("stores sealed credentials and becomes Ready with the account and image", func() {
			s := newStack(dir)

			Expect(s.session.RequestLogin(ctx)).To(Succeed())
			s.session.Wait()

			snap := s.session.Snapshot()
			Expect(snap.State).To(Equal(session.Ready))
			Expect(snap.UserName).To(Equal("alice"))
			Expect(snap.MemberStatus).To(Equal("PREMIUM"))
			Expect(snap.IsSupporter).To(BeTrue())
			Expect(snap.ProfileImagePath).To(Equal(filepath.Join(dir, "Nexus", "alice.png")))
			Expect(snap.ProfileImagePath).To(BeAnExistingFile())

			sealed, err := os.ReadFile(s.store.Path())
			Expect(err).NotTo(HaveOccurred())
			Expect(string(sealed)).NotTo(ContainSubstring("sso-key"))
			Expect(string(sealed)).NotTo(ContainSubstring("sso-token"))

			Expect(s.calls()).To(HaveExactElements(
				"nexus-login",
				"get-metafile https://api.nexusmods.com/v1/users/validate.json sso-key",
				MatchRegexp(`^get-file https://avatars\.example\.com/alice\.png %s sso-key$`,
					regexp.QuoteMeta(filepath.Join(dir, "Nexus", ".alice."))+`\d+\.png`),
			))
			Expect(filepath.Join(dir, "Nexus")).To(BeADirectory())
			entries, err := os.ReadDir(filepath.Join(dir, "Nexus"))
			Expect(err).NotTo(HaveOccurred())
			Expect(entries).To(HaveLen(1), "the download target is renamed into place")

			Expect(s.events.States()).To(Equal([]string{"Authenticating", "Verifying", "Ready"}))
			Expect(s.events.OfType(event.TypeProfileUpdated)).To(HaveLen(1))
		})

		It("restores the session on the next start without logging in again", func() {
			first := newStack(dir)
			Expect(first.session.RequestLogin(ctx)).To(Succeed())
			first.session.Wait()
			Expect(first.session.Close()).To(Succeed())
			Expect(os.Remove(filepath.Join(dir, "calls.log"))).To(Succeed())

			second := newStack(dir)
			Expect(second.session.Start(ctx)).To(Succeed())
			second.session.Wait()

			Expect(second.session.State()).To(Equal(session.Ready))
			Expect(second.session.UserInfo().Name).To(Equal("alice"))
			// The image is still fresh, so only the account is fetched.
			Expect(second.calls()).To(Equal([]string{
				"get-metafile https://api.nexusmods.com/v1/users/validate.json sso-key",
			}))
		})

		It("kills the helper and returns to LoggedOut when cancelled", func() {
			Expect(os.WriteFile(filepath.Join(dir, "login.hang"), nil, 0o600)).To(Succeed())
			s := newStack(dir)

			done := make(chan error, 1)
			go func() {
				defer GinkgoRecover()
				done <- s.session.RequestLogin(ctx)
			}()

			Eventually(s.session.State).Should(Equal(session.Authenticating))
			Eventually(s.calls).Should(ContainElement("nexus-login"))
			Expect(s.session.Cancel()).To(BeTrue())

			Eventually(done, 3*time.Second).Should(Receive(BeNil()))
			Expect(s.session.State()).To(Equal(session.LoggedOut))
			Expect(s.events.OfType(event.TypeNotice)).To(ContainElement(
				HaveField("Notice", event.NoticeCancelled),
			))
			_, ok := s.store.Load(ctx)
			Expect(ok).To(BeFalse())
		})
	})

	Describe("stored credentials", func() {
		It("falls back to LoggedOut when the stored key is rejected", func() {
			s := newStack(dir)
			Expect(s.store.Save(ctx, credential.Credentials{APIKey: "revoked", Token: "old"})).To(Succeed())

			Expect(s.session.Start(ctx)).To(Succeed())

			Expect(s.session.State()).To(Equal(session.LoggedOut))
			Expect(s.events.States()).To(Equal([]string{"Verifying", "Failed", "LoggedOut"}))
			Expect(s.events.OfType(event.TypeStateChanged)).To(ContainElement(
				HaveField("Session.DisplayText", session.TextUserInfoFail),
			))
		})

		It("deletes the sealed file on logout and keeps the installation key", func() {
			s := newStack(dir)
			Expect(s.session.RequestLogin(ctx)).To(Succeed())
			s.session.Wait()

			Expect(s.session.Logout(ctx)).To(Succeed())

			Expect(s.session.State()).To(Equal(session.LoggedOut))
			Expect(s.store.Path()).NotTo(BeAnExistingFile())
			Expect(filepath.Join(dir, "data", "credentials.key")).To(BeAnExistingFile())
			_, ok := s.store.Load(ctx)
			Expect(ok).To(BeFalse())
		})
	})
})

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 NexusSSO Contributors

package credential

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/samber/oops"

	"github.com/mscloader/nexussso/internal/xdg"
	"github.com/mscloader/nexussso/pkg/errutil"
)

// FileStoreConfig configures a FileStore.
type FileStoreConfig struct {
	// Path is the sealed credential file. Required.
	Path string
	// KeyPath is the installation secret. Defaults to Path with a ".key"
	// extension.
	KeyPath string
	Logger  *slog.Logger
}

// FileStore keeps credentials in an encrypted file. The record is sealed with
// XChaCha20-Poly1305 under a key derived from a per-installation secret.
type FileStore struct {
	mu      sync.Mutex
	path    string
	keyPath string
	logger  *slog.Logger
}

// NewFileStore creates a FileStore. Nothing is touched on disk until the
// first Save.
func NewFileStore(cfg FileStoreConfig) (*FileStore, error) {
	if cfg.Path == "" {
		return nil, oops.Code("CREDENTIAL_SAVE_FAILED").Errorf("credential path is required")
	}
	if cfg.KeyPath == "" {
		cfg.KeyPath = cfg.Path[:len(cfg.Path)-len(filepath.Ext(cfg.Path))] + ".key"
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &FileStore{
		path:    cfg.Path,
		keyPath: cfg.KeyPath,
		logger:  cfg.Logger.With("component", "credential"),
	}, nil
}

// Path returns the sealed credential file location.
func (s *FileStore) Path() string {
	return s.path
}

// Load implements Store.
func (s *FileStore) Load(ctx context.Context) (Credentials, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	envelope, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.WarnContext(ctx, "credential file unreadable", "path", s.path, "error", err)
		}
		return Credentials{}, false
	}

	secret, err := readKey(s.keyPath)
	if err != nil {
		errutil.LogErrorContext(ctx, s.logger, "credential key unavailable", err)
		return Credentials{}, false
	}
	defer clear(secret)

	plaintext, err := open(secret, envelope)
	if err != nil {
		errutil.LogErrorContext(ctx, s.logger, "credential file could not be decrypted", err)
		return Credentials{}, false
	}
	defer clear(plaintext)

	c, err := ParseRecord(string(plaintext))
	if err != nil {
		errutil.LogErrorContext(ctx, s.logger, "credential record malformed", err)
		return Credentials{}, false
	}
	return c, true
}

// Save implements Store. The file is replaced atomically.
func (s *FileStore) Save(ctx context.Context, c Credentials) error {
	if c.IsZero() {
		return oops.Code("CREDENTIAL_SAVE_FAILED").Errorf("refusing to save empty credentials")
	}
	if err := CheckRecord(c); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Dir(s.path)
	if err := xdg.EnsureDir(dir); err != nil {
		return oops.Code("CREDENTIAL_SAVE_FAILED").With("path", s.path).Wrap(err)
	}

	secret, err := loadOrCreateKey(s.keyPath)
	if err != nil {
		return err
	}
	defer clear(secret)

	record := []byte(FormatRecord(c))
	defer clear(record)
	envelope, err := seal(secret, record)
	if err != nil {
		return err
	}

	if err := writeAtomic(s.path, envelope); err != nil {
		return oops.Code("CREDENTIAL_SAVE_FAILED").With("path", s.path).Wrap(err)
	}
	s.logger.DebugContext(ctx, "credentials saved", "path", s.path)
	return nil
}

// Delete implements Store. The installation secret is kept.
func (s *FileStore) Delete(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return oops.Code("CREDENTIAL_DELETE_FAILED").With("path", s.path).Wrap(err)
	}
	s.logger.DebugContext(ctx, "credentials deleted", "path", s.path)
	return nil
}

// writeAtomic writes data to a temp file in the target directory, syncs it and
// renames it over path.
func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		return err
	}
	committed = true
	return nil
}

// Compile-time check.
var _ Store = (*FileStore)(nil)

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 NexusSSO Contributors

package credential

import (
	"bytes"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/samber/oops"
	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

const (
	// KeySize is the size of the installation secret.
	KeySize  = 32
	saltSize = 16
	hkdfInfo = "nexus-sso-credentials-v1"
)

var envelopeMagic = []byte("NXS1")

func deriveKey(secret, salt []byte) ([]byte, error) {
	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, secret, salt, []byte(hkdfInfo)), key); err != nil {
		return nil, oops.Code("CREDENTIAL_KEY_FAILED").Wrapf(err, "derive key")
	}
	return key, nil
}

// seal encrypts plaintext into magic | salt | nonce | ciphertext.
func seal(secret, plaintext []byte) ([]byte, error) {
	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, oops.Code("CREDENTIAL_KEY_FAILED").Wrapf(err, "generate salt")
	}
	key, err := deriveKey(secret, salt)
	if err != nil {
		return nil, err
	}
	defer clear(key)

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, oops.Code("CREDENTIAL_KEY_FAILED").Wrap(err)
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, oops.Code("CREDENTIAL_KEY_FAILED").Wrapf(err, "generate nonce")
	}

	out := make([]byte, 0, len(envelopeMagic)+saltSize+len(nonce)+len(plaintext)+aead.Overhead())
	out = append(out, envelopeMagic...)
	out = append(out, salt...)
	out = append(out, nonce...)
	// The header is authenticated along with the payload.
	aad := bytes.Clone(out[:len(envelopeMagic)+saltSize])
	return aead.Seal(out, nonce, plaintext, aad), nil
}

// open reverses seal.
func open(secret, envelope []byte) ([]byte, error) {
	headerSize := len(envelopeMagic) + saltSize + chacha20poly1305.NonceSizeX
	if len(envelope) < headerSize+chacha20poly1305.Overhead || !bytes.HasPrefix(envelope, envelopeMagic) {
		return nil, oops.Code("CREDENTIAL_ENVELOPE_INVALID").
			With("size", len(envelope)).
			Errorf("not a credential envelope")
	}

	salt := envelope[len(envelopeMagic) : len(envelopeMagic)+saltSize]
	nonce := envelope[len(envelopeMagic)+saltSize : headerSize]
	key, err := deriveKey(secret, salt)
	if err != nil {
		return nil, err
	}
	defer clear(key)

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, oops.Code("CREDENTIAL_KEY_FAILED").Wrap(err)
	}
	plaintext, err := aead.Open(nil, nonce, envelope[headerSize:], envelope[:len(envelopeMagic)+saltSize])
	if err != nil {
		return nil, oops.Code("CREDENTIAL_ENVELOPE_INVALID").Wrapf(err, "decrypt credentials")
	}
	return plaintext, nil
}

// readKey reads the installation secret.
func readKey(path string) ([]byte, error) {
	secret, err := os.ReadFile(path) //nolint:gosec // path comes from configuration
	if err != nil {
		return nil, oops.Code("CREDENTIAL_KEY_FAILED").With("path", path).Wrap(err)
	}
	if len(secret) != KeySize {
		return nil, oops.Code("CREDENTIAL_KEY_FAILED").
			With("path", path).
			With("size", len(secret)).
			Errorf("key file must hold %d bytes", KeySize)
	}
	return secret, nil
}

// loadOrCreateKey reads the installation secret, generating it on first use.
func loadOrCreateKey(path string) ([]byte, error) {
	secret, err := readKey(path)
	if err == nil {
		return secret, nil
	}
	if _, statErr := os.Stat(path); !errors.Is(statErr, fs.ErrNotExist) {
		return nil, err
	}

	secret = make([]byte, KeySize)
	if _, err := rand.Read(secret); err != nil {
		return nil, oops.Code("CREDENTIAL_KEY_FAILED").Wrapf(err, "generate key")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, oops.Code("CREDENTIAL_KEY_FAILED").With("path", path).Wrap(err)
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600) //nolint:gosec // path comes from configuration
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			// Lost a race with another writer; use its key.
			return readKey(path)
		}
		return nil, oops.Code("CREDENTIAL_KEY_FAILED").With("path", path).Wrap(err)
	}
	if _, err := f.Write(secret); err != nil {
		_ = f.Close()
		return nil, oops.Code("CREDENTIAL_KEY_FAILED").With("path", path).Wrap(err)
	}
	if err := f.Close(); err != nil {
		return nil, oops.Code("CREDENTIAL_KEY_FAILED").With("path", path).Wrap(err)
	}
	return secret, nil
}

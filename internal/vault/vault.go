// Package vault persists encoded clipboard pages either as plaintext at a base
// path or encrypted at base path + ".gpg". After every successful write exactly
// one of the two files exists; the stale counterpart is removed.
package vault

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// EncryptedSuffix is appended to the base path for encrypted pages.
const EncryptedSuffix = ".gpg"

const fileMode = 0o600

// ErrDecrypt is returned when an encrypted page exists but cannot be
// decrypted. Ciphertext is never treated as plaintext.
var ErrDecrypt = errors.New("vault: cannot decrypt page")

// Cipher encrypts and decrypts opaque buffers for one identity.
type Cipher interface {
	Encrypt(plain []byte) ([]byte, error)
	Decrypt(ciphertext []byte) ([]byte, error)
}

// CipherFunc builds the Cipher on first use, so setup errors (no key, no
// passphrase) only surface when encryption is actually needed.
type CipherFunc func() (Cipher, error)

// Vault reads and writes one page.
type Vault struct {
	base      string
	secure    bool
	newCipher CipherFunc

	once      sync.Once
	cipher    Cipher
	cipherErr error
}

// New returns a Vault for the page at base. When secure is true writes are
// encrypted. newCipher may be nil if no encryption is ever expected; reading
// an existing encrypted page then fails.
func New(base string, secure bool, newCipher CipherFunc) *Vault {
	return &Vault{base: base, secure: secure, newCipher: newCipher}
}

// PlainPath returns the plaintext page path.
func (v *Vault) PlainPath() string { return v.base }

// EncryptedPath returns the encrypted page path.
func (v *Vault) EncryptedPath() string { return v.base + EncryptedSuffix }

// Write stores plain, encrypted when the vault is secure, and removes the
// other representation. An empty buffer is a no-op: no file is written and
// nothing is encrypted.
func (v *Vault) Write(plain []byte) error {
	if len(plain) == 0 {
		slog.Debug("vault: empty page, skipping write", "path", v.base)
		return nil
	}

	if !v.secure {
		if err := writeAtomic(v.PlainPath(), plain); err != nil {
			return err
		}
		return removeIfExists(v.EncryptedPath())
	}

	c, err := v.getCipher()
	if err != nil {
		return err
	}
	ct, err := c.Encrypt(plain)
	if err != nil {
		return fmt.Errorf("vault: encrypt page: %w", err)
	}
	if err := writeAtomic(v.EncryptedPath(), ct); err != nil {
		return err
	}
	return removeIfExists(v.PlainPath())
}

// Read returns the plaintext page bytes. The encrypted file is preferred;
// a missing page returns an empty buffer and no error.
func (v *Vault) Read() ([]byte, error) {
	ct, err := os.ReadFile(v.EncryptedPath())
	switch {
	case err == nil:
		c, err := v.getCipher()
		if err != nil {
			return nil, err
		}
		plain, err := c.Decrypt(ct)
		if err != nil {
			return nil, fmt.Errorf("%w %s: %w", ErrDecrypt, v.EncryptedPath(), err)
		}
		return plain, nil
	case !errors.Is(err, fs.ErrNotExist):
		return nil, fmt.Errorf("vault: read %s: %w", v.EncryptedPath(), err)
	}

	plain, err := os.ReadFile(v.PlainPath())
	switch {
	case err == nil:
		return plain, nil
	case errors.Is(err, fs.ErrNotExist):
		return nil, nil
	default:
		return nil, fmt.Errorf("vault: read %s: %w", v.PlainPath(), err)
	}
}

func (v *Vault) getCipher() (Cipher, error) {
	v.once.Do(func() {
		if v.newCipher == nil {
			v.cipherErr = errors.New("vault: encryption not configured")
			return
		}
		v.cipher, v.cipherErr = v.newCipher()
	})
	return v.cipher, v.cipherErr
}

// writeAtomic writes data to a temporary file next to path and renames it
// into place, so readers never observe a partially written page.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("vault: create temp file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("vault: write %s: %w", path, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("vault: sync %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("vault: close %s: %w", path, err)
	}
	if err := os.Chmod(tmpName, fileMode); err != nil {
		cleanup()
		return fmt.Errorf("vault: chmod %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return fmt.Errorf("vault: rename into %s: %w", path, err)
	}
	return nil
}

func removeIfExists(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("vault: remove stale %s: %w", path, err)
	}
	return nil
}

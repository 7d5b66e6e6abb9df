package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"go.klb.dev/clipmgr/internal/clip"
	"go.klb.dev/clipmgr/internal/crypto"
	"go.klb.dev/clipmgr/internal/gpg"
	"go.klb.dev/clipmgr/internal/history"
	"go.klb.dev/clipmgr/internal/mimesniff"
	"go.klb.dev/clipmgr/internal/procblock"
	"go.klb.dev/clipmgr/internal/vault"
)

const (
	cipherGPG       = "gpg"
	cipherSecretbox = "secretbox"

	scratchName = "tmpfile"
)

// newBridge selects the clipboard bridge by kind.
var newBridge = clip.New

// cacheDir returns the page directory, creating it owner-only.
func cacheDir(v *viper.Viper) (string, error) {
	dir := v.GetString("cache-dir")
	if dir == "" {
		base, err := os.UserCacheDir()
		if err != nil {
			return "", fmt.Errorf("locating cache directory: %w", err)
		}
		dir = filepath.Join(base, "clipmgr")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("creating cache directory: %w", err)
	}
	return dir, nil
}

// defaultPage names today's page, e.g. clip191026 for 19 October 2026.
func defaultPage(now time.Time) string {
	return "clip" + now.Format("020106")
}

// pageName returns the configured page or today's default.
func pageName(v *viper.Viper) (string, error) {
	page := v.GetString("page")
	if page == "" {
		return defaultPage(time.Now()), nil
	}
	if page == "." || page == ".." || page == scratchName || strings.ContainsRune(page, filepath.Separator) || strings.HasSuffix(page, vault.EncryptedSuffix) {
		return "", fmt.Errorf("invalid page name %q", page)
	}
	return page, nil
}

// newCipherFunc returns a constructor for the configured page cipher. gpg is
// only consulted when a page actually needs encrypting or decrypting.
func newCipherFunc(ctx context.Context, v *viper.Viper) (vault.CipherFunc, error) {
	switch name := v.GetString("cipher"); name {
	case "", cipherGPG:
		identity := v.GetString("gpg-user")
		return func() (vault.Cipher, error) {
			return gpg.New(ctx, identity)
		}, nil
	case cipherSecretbox:
		passphrase := v.GetString("passphrase")
		return func() (vault.Cipher, error) {
			return crypto.NewBox(passphrase)
		}, nil
	default:
		return nil, fmt.Errorf("unknown cipher %q (want %s or %s)", name, cipherGPG, cipherSecretbox)
	}
}

// openStore builds the store for the configured page and loads it.
func openStore(ctx context.Context, v *viper.Viper) (*history.Store, error) {
	dir, err := cacheDir(v)
	if err != nil {
		return nil, err
	}
	page, err := pageName(v)
	if err != nil {
		return nil, err
	}
	newCipher, err := newCipherFunc(ctx, v)
	if err != nil {
		return nil, err
	}
	bridge, err := newBridge(v.GetString("bridge"))
	if err != nil {
		return nil, err
	}

	secure := !v.GetBool("no-encryption")
	s := history.New(history.Config{
		Page:          page,
		Storage:       vault.New(filepath.Join(dir, page), secure, newCipher),
		Gate:          procblock.NewGate(nil),
		Classifier:    mimesniff.Sniffer{},
		Bridge:        bridge,
		ScratchPath:   filepath.Join(dir, scratchName),
		RemoveScratch: secure,
	})
	if err := s.Load(); err != nil {
		return nil, err
	}
	return s, nil
}

// watchArgs is the command the watcher runs on every clipboard change: this
// binary's store command with the page settings of the watch invocation.
func watchArgs(self string, v *viper.Viper) []string {
	args := []string{self, "store"}
	for _, key := range []string{"page", "block", "gpg-user", "cipher", "bridge", "cache-dir", "config", "log-format", "log-level"} {
		if val := v.GetString(key); val != "" {
			args = append(args, "--"+key, val)
		}
	}
	if v.GetBool("no-encryption") {
		args = append(args, "--no-encryption")
	}
	return args
}

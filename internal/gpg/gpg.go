// Package gpg encrypts and decrypts clipboard pages with the user's GnuPG
// keyring by driving the gpg binary.
package gpg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
)

// ErrNoIdentity is returned when the keyring holds no secret key that can
// encrypt and matches the requested identity.
var ErrNoIdentity = errors.New("gpg: no usable secret key to encrypt the clipboard")

// Runner executes gpg with args, feeding stdin and returning stdout.
type Runner func(ctx context.Context, stdin []byte, args ...string) ([]byte, error)

// GPG is a page cipher bound to one secret key.
type GPG struct {
	// ctx bounds every gpg run, including pinentry prompts.
	ctx         context.Context
	run         Runner
	fingerprint string
	uid         string
}

// Option configures New.
type Option func(*GPG)

// WithRunner replaces the exec-based runner.
func WithRunner(r Runner) Option {
	return func(g *GPG) { g.run = r }
}

// WithBinary runs the named gpg binary instead of "gpg".
func WithBinary(name string) Option {
	return func(g *GPG) { g.run = execRunner(name) }
}

// New selects the key used for pages. identity matches a user id name, e-mail
// address, or a key id / fingerprint suffix; empty picks the first secret key
// that can encrypt. Cancelling ctx also aborts later Encrypt and Decrypt calls.
func New(ctx context.Context, identity string, opts ...Option) (*GPG, error) {
	g := &GPG{ctx: ctx, run: execRunner("gpg")}
	for _, o := range opts {
		o(g)
	}

	out, err := g.run(ctx, nil, "--batch", "--with-colons", "--fixed-list-mode", "--list-secret-keys")
	if err != nil {
		return nil, fmt.Errorf("gpg key listing failed: %w", err)
	}
	k, ok := selectKey(parseSecretKeys(out), identity)
	if !ok {
		if identity != "" {
			return nil, fmt.Errorf("%w (identity %q)", ErrNoIdentity, identity)
		}
		return nil, ErrNoIdentity
	}
	g.fingerprint = k.fingerprint
	if len(k.uids) > 0 {
		g.uid = k.uids[0].raw
	}
	slog.Debug("gpg key selected", "fingerprint", g.fingerprint, "uid", g.uid)
	return g, nil
}

// Fingerprint returns the fingerprint of the selected key.
func (g *GPG) Fingerprint() string { return g.fingerprint }

// Encrypt encrypts plain to the selected key.
func (g *GPG) Encrypt(plain []byte) ([]byte, error) {
	out, err := g.run(g.ctx, plain,
		"--batch", "--yes", "--quiet",
		"--trust-model", "always",
		"--encrypt", "--recipient", g.fingerprint,
	)
	if err != nil {
		return nil, fmt.Errorf("encrypting data failed: %w", err)
	}
	return out, nil
}

// Decrypt decrypts ciphertext with whatever secret key gpg-agent can unlock.
func (g *GPG) Decrypt(ciphertext []byte) ([]byte, error) {
	out, err := g.run(g.ctx, ciphertext, "--batch", "--quiet", "--decrypt")
	if err != nil {
		return nil, fmt.Errorf("decrypting data failed: %w", err)
	}
	return out, nil
}

func execRunner(name string) Runner {
	return func(ctx context.Context, stdin []byte, args ...string) ([]byte, error) {
		//nolint:gosec // G204: args are fixed flags plus a fingerprint read from gpg itself
		cmd := exec.CommandContext(ctx, name, args...)
		if stdin != nil {
			cmd.Stdin = bytes.NewReader(stdin)
		}
		var stdout, stderr bytes.Buffer
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr

		if err := cmd.Run(); err != nil {
			if msg := strings.TrimSpace(stderr.String()); msg != "" {
				return nil, fmt.Errorf("%s: %w: %s", name, err, msg)
			}
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		return stdout.Bytes(), nil
	}
}

// Package crypto provides a passphrase-based page cipher for hosts without a
// gpg keyring.
//
// Every page gets a fresh random salt; a 32-byte key is derived from the
// passphrase and salt with Argon2id and the page is sealed with NaCl
// secretbox under a fresh random nonce:
//
//	[ 4-byte magic "CMB2" ][ 16-byte salt ][ 24-byte nonce ][ ciphertext ]
package crypto

import (
	"bytes"
	"crypto/rand"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/nacl/secretbox"
)

const (
	keySize   = 32
	saltSize  = 16
	nonceSize = 24
)

// Argon2id cost, RFC 9106 second recommended option.
const (
	argonTime    = 3
	argonMemory  = 64 * 1024
	argonThreads = 4
)

var magic = []byte("CMB2")

// ErrNoPassphrase is returned when the secretbox cipher is selected without a
// passphrase.
var ErrNoPassphrase = errors.New("crypto: no passphrase configured (set CLIPMGR_PASSPHRASE)")

// DeriveKey derives a 32-byte secretbox key from passphrase and salt.
func DeriveKey(passphrase string, salt []byte) *[keySize]byte {
	var key [keySize]byte
	copy(key[:], argon2.IDKey([]byte(passphrase), salt, argonTime, argonMemory, argonThreads, keySize))
	return &key
}

// Seal encrypts plaintext under passphrase and returns
// magic+salt+nonce+ciphertext.
func Seal(plaintext []byte, passphrase string) ([]byte, error) {
	var salt [saltSize]byte
	if _, err := io.ReadFull(rand.Reader, salt[:]); err != nil {
		return nil, fmt.Errorf("salt generation: %w", err)
	}
	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return nil, fmt.Errorf("nonce generation: %w", err)
	}
	key := DeriveKey(passphrase, salt[:])

	out := make([]byte, 0, len(magic)+saltSize+nonceSize+len(plaintext)+secretbox.Overhead)
	out = append(out, magic...)
	out = append(out, salt[:]...)
	out = append(out, nonce[:]...)
	return secretbox.Seal(out, plaintext, &nonce, key), nil
}

// Open decrypts the output of Seal.
func Open(sealed []byte, passphrase string) ([]byte, error) {
	if !bytes.HasPrefix(sealed, magic) {
		return nil, errors.New("not a clipmgr secretbox page")
	}
	sealed = sealed[len(magic):]
	if len(sealed) < saltSize+nonceSize+secretbox.Overhead {
		return nil, errors.New("ciphertext too short")
	}
	salt := sealed[:saltSize]
	var nonce [nonceSize]byte
	copy(nonce[:], sealed[saltSize:saltSize+nonceSize])

	plain, ok := secretbox.Open(nil, sealed[saltSize+nonceSize:], &nonce, DeriveKey(passphrase, salt))
	if !ok {
		return nil, errors.New("decryption failed (wrong passphrase?)")
	}
	return plain, nil
}

// Box is a page cipher bound to one passphrase.
type Box struct {
	passphrase string
}

// NewBox returns a Box for passphrase.
func NewBox(passphrase string) (*Box, error) {
	if passphrase == "" {
		return nil, ErrNoPassphrase
	}
	return &Box{passphrase: passphrase}, nil
}

func (b *Box) Encrypt(plain []byte) ([]byte, error) { return Seal(plain, b.passphrase) }
func (b *Box) Decrypt(sealed []byte) ([]byte, error) { return Open(sealed, b.passphrase) }

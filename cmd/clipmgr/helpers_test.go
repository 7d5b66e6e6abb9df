package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.klb.dev/clipmgr/internal/clip"
)

func TestDefaultPage(t *testing.T) {
	assert.Equal(t, "clip191026", defaultPage(time.Date(2026, time.October, 19, 23, 59, 0, 0, time.Local)))
	assert.Equal(t, "clip010126", defaultPage(time.Date(2026, time.January, 1, 0, 0, 0, 0, time.Local)))
}

func TestPageName(t *testing.T) {
	v := viper.New()
	name, err := pageName(v)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(name, "clip"))

	for _, bad := range []string{"..", "a/b", "tmpfile", "work.gpg"} {
		v.Set("page", bad)
		_, err := pageName(v)
		assert.Error(t, err, bad)
	}

	v.Set("page", "work")
	name, err = pageName(v)
	require.NoError(t, err)
	assert.Equal(t, "work", name)
}

func TestCacheDir(t *testing.T) {
	v := viper.New()
	dir := filepath.Join(t.TempDir(), "nested", "clipmgr")
	v.Set("cache-dir", dir)

	got, err := cacheDir(v)
	require.NoError(t, err)
	assert.Equal(t, dir, got)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	assert.Equal(t, os.FileMode(0o700), info.Mode().Perm())
}

func TestCacheDir_Default(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	got, err := cacheDir(viper.New())
	require.NoError(t, err)
	assert.Equal(t, "clipmgr", filepath.Base(got))
}

func TestNewCipherFunc(t *testing.T) {
	v := viper.New()
	v.Set("cipher", "rot13")
	_, err := newCipherFunc(testContext(t), v)
	require.Error(t, err)

	v.Set("cipher", cipherSecretbox)
	v.Set("passphrase", "hunter2")
	newCipher, err := newCipherFunc(testContext(t), v)
	require.NoError(t, err)
	c, err := newCipher()
	require.NoError(t, err)
	sealed, err := c.Encrypt([]byte("x"))
	require.NoError(t, err)
	plain, err := c.Decrypt(sealed)
	require.NoError(t, err)
	assert.Equal(t, "x", string(plain))
}

func TestWatchArgs(t *testing.T) {
	v := viper.New()
	v.Set("page", "work")
	v.Set("block", "pass:10,scary_app")
	v.Set("cipher", cipherSecretbox)
	v.Set("passphrase", "hunter2")
	v.Set("no-encryption", true)

	args := watchArgs("/usr/bin/clipmgr", v)
	assert.Equal(t, []string{
		"/usr/bin/clipmgr", "store",
		"--page", "work",
		"--block", "pass:10,scary_app",
		"--cipher", "secretbox",
		"--no-encryption",
	}, args)
	assert.NotContains(t, strings.Join(args, " "), "hunter2")
}

func execute(t *testing.T, cmd *cobra.Command, stdin string, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetArgs(args)
	require.NoError(t, cmd.ExecuteContext(testContext(t)))
	return out.String()
}

type bridgeCall struct {
	literal string
	file    string
	data    string
}

type fakeBridge struct {
	calls []bridgeCall
	err   error
}

func (b *fakeBridge) Name() string { return "fake" }

func (b *fakeBridge) CopyLiteral(_ context.Context, data []byte) error {
	b.calls = append(b.calls, bridgeCall{literal: string(data)})
	return b.err
}

func (b *fakeBridge) CopyFromFile(_ context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	b.calls = append(b.calls, bridgeCall{file: path, data: string(data)})
	return b.err
}

func (b *fakeBridge) Watch(context.Context, []string) error { return nil }

// useFakeBridge makes every command in the test talk to the returned bridge.
func useFakeBridge(t *testing.T) *fakeBridge {
	t.Helper()
	b := &fakeBridge{}
	orig := newBridge
	newBridge = func(string) (clip.Bridge, error) { return b, nil }
	t.Cleanup(func() { newBridge = orig })
	return b
}

func TestCommands_StoreListRestore(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	bridge := useFakeBridge(t)
	dir := t.TempDir()
	page := []string{"--cache-dir", dir, "--page", "work", "--no-encryption"}

	for _, text := range []string{"first", "second", "second", "third"} {
		execute(t, newStoreCmd(), text, page...)
	}
	execute(t, newStoreCmd(), "", page...)

	out := execute(t, newListCmd(), "", page...)
	assert.Equal(t, "0 third\n1 second\n2 first\n", out)

	out = execute(t, newListCmd(), "", append(page, "--lines", "1")...)
	assert.Equal(t, "0 third\n", out)

	out = execute(t, newRestoreCmd(), "", append(page, "--index", "0")...)
	assert.Equal(t, "Nothing to restore\n", out)
	assert.Empty(t, bridge.calls)

	execute(t, newRestoreCmd(), "", append(page, "--index", "2")...)
	require.Len(t, bridge.calls, 1)
	assert.Equal(t, "first", bridge.calls[0].literal)

	out = execute(t, newListCmd(), "", page...)
	assert.Equal(t, "0 third\n1 second\n", out)

	_, err := os.Stat(filepath.Join(dir, "work"))
	require.NoError(t, err)
}

func TestCommands_RestoreDeliveryFailureKeepsPage(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	bridge := useFakeBridge(t)
	bridge.err = errors.New("wl-copy: exit status 1")
	page := []string{"--cache-dir", t.TempDir(), "--page", "work", "--no-encryption"}

	execute(t, newStoreCmd(), "old", page...)
	execute(t, newStoreCmd(), "new", page...)
	execute(t, newRestoreCmd(), "", append(page, "--index", "1")...)

	out := execute(t, newListCmd(), "", page...)
	assert.Equal(t, "0 new\n", out, "entry leaves the page even when the clipboard refuses it")
}

func TestCommands_EncryptedRestoreRemovesScratch(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("CLIPMGR_PASSPHRASE", "correct horse")
	bridge := useFakeBridge(t)
	dir := t.TempDir()
	page := []string{"--cache-dir", dir, "--page", "vault", "--cipher", cipherSecretbox}

	large := strings.Repeat("secret line\n", 40)
	execute(t, newStoreCmd(), large, page...)
	execute(t, newStoreCmd(), "head", page...)

	_, err := os.Stat(filepath.Join(dir, "vault.gpg"))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "vault"))
	require.ErrorIs(t, err, os.ErrNotExist)

	execute(t, newRestoreCmd(), "", append(page, "--index", "1")...)
	require.Len(t, bridge.calls, 1)
	assert.Equal(t, large, bridge.calls[0].data)
	_, err = os.Stat(filepath.Join(dir, scratchName))
	assert.ErrorIs(t, err, os.ErrNotExist, "plaintext must not outlive the restore")
}

func TestCommands_StoreOversize(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	useFakeBridge(t)
	dir := t.TempDir()
	page := []string{"--cache-dir", dir, "--page", "big", "--no-encryption"}

	execute(t, newStoreCmd(), strings.Repeat("x", 16<<20+1), page...)
	_, err := os.Stat(filepath.Join(dir, "big"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestCommands_BadBlockSpec(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	useFakeBridge(t)
	cmd := newStoreCmd()
	cmd.SetIn(strings.NewReader("data"))
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--cache-dir", t.TempDir(), "--no-encryption", "--block", ":5"})
	require.Error(t, cmd.ExecuteContext(testContext(t)))
}

// testContext stands in for testing.T.Context (Go 1.24+): a context that is
// cancelled when the test finishes.
func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return ctx
}

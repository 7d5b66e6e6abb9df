package clip

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
)

// Runner starts name with args and waits for it to exit. stdin may be nil.
type Runner func(ctx context.Context, stdin io.Reader, name string, args ...string) error

// Wayland is the wl-clipboard bridge.
type Wayland struct {
	run Runner
}

// NewWayland returns a wl-clipboard bridge. A nil run executes the real
// binaries.
func NewWayland(run Runner) *Wayland {
	if run == nil {
		run = execRunner
	}
	return &Wayland{run: run}
}

func (w *Wayland) Name() string { return "wayland (wl-clipboard)" }

func (w *Wayland) CopyLiteral(ctx context.Context, data []byte) error {
	if err := w.run(ctx, nil, "wl-copy", "--", string(data)); err != nil {
		return fmt.Errorf("wl-copy: %w", err)
	}
	return nil
}

func (w *Wayland) CopyFromFile(ctx context.Context, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := w.run(ctx, f, "wl-copy"); err != nil {
		return fmt.Errorf("wl-copy < %s: %w", path, err)
	}
	return nil
}

// Watch runs wl-paste --watch, which executes onChange for every new
// selection. Cancelling ctx stops wl-paste and returns nil.
func (w *Wayland) Watch(ctx context.Context, onChange []string) error {
	if len(onChange) == 0 {
		return errors.New("watch: no command to run on change")
	}
	args := append([]string{"--watch"}, onChange...)
	err := w.run(ctx, nil, "wl-paste", args...)
	if ctx.Err() != nil {
		return nil
	}
	if err != nil {
		return fmt.Errorf("wl-paste: %w", err)
	}
	return nil
}

// execRunner connects the child to the real stdout and stderr. wl-copy forks
// a server that keeps them open, so they must not be pipes we wait on.
func execRunner(ctx context.Context, stdin io.Reader, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	if stdin != nil {
		cmd.Stdin = stdin
	}
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

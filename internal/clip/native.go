package clip

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"sync"

	"github.com/gabriel-vasile/mimetype"
	"golang.design/x/clipboard"
)

// Native is the golang.design/x/clipboard bridge.
type Native struct {
	initOnce sync.Once
	initErr  error
}

// NewNative returns the native bridge. The display connection is opened on
// first use so that commands that never touch the clipboard work headless.
func NewNative() *Native { return &Native{} }

func (n *Native) Name() string { return "native (golang.design/x/clipboard)" }

func (n *Native) init() error {
	n.initOnce.Do(func() {
		if err := clipboard.Init(); err != nil {
			n.initErr = fmt.Errorf("clipboard unavailable: %w", err)
		}
	})
	return n.initErr
}

func (n *Native) CopyLiteral(ctx context.Context, data []byte) error {
	return n.write(ctx, clipboard.FmtText, data)
}

// CopyFromFile publishes PNG files as images and everything else as text.
func (n *Native) CopyFromFile(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return n.write(ctx, formatOf(data), data)
}

// formatOf picks the clipboard format for a payload: PNG images go out as
// images, everything else as text.
func formatOf(data []byte) clipboard.Format {
	if mimetype.Detect(data).Is("image/png") {
		return clipboard.FmtImage
	}
	return clipboard.FmtText
}

func (n *Native) write(ctx context.Context, format clipboard.Format, data []byte) error {
	if err := n.init(); err != nil {
		return err
	}
	changed := clipboard.Write(format, data)
	if changed == nil {
		return errors.New("clipboard write failed")
	}
	if !holdSelection {
		return nil
	}
	// The selection lives in this process; serve it until another client
	// takes ownership.
	slog.Debug("serving clipboard selection until replaced")
	select {
	case <-changed:
	case <-ctx.Done():
	}
	return nil
}

// Watch runs onChange with the new text or image on stdin for every change.
func (n *Native) Watch(ctx context.Context, onChange []string) error {
	if len(onChange) == 0 {
		return errors.New("watch: no command to run on change")
	}
	if err := n.init(); err != nil {
		return err
	}
	texts := clipboard.Watch(ctx, clipboard.FmtText)
	images := clipboard.Watch(ctx, clipboard.FmtImage)
	relay(ctx, texts, images, func(data []byte) {
		if err := runOnChange(ctx, onChange, data); err != nil {
			slog.Warn("clipboard change handler failed", "cmd", onChange[0], "err", err)
		}
	})
	return nil
}

// relay passes every non-empty change from texts and images to handle until
// ctx is done or both channels are closed.
func relay(ctx context.Context, texts, images <-chan []byte, handle func([]byte)) {
	for texts != nil || images != nil {
		var (
			data []byte
			ok   bool
		)
		select {
		case <-ctx.Done():
			return
		case data, ok = <-texts:
			if !ok {
				texts = nil
				continue
			}
		case data, ok = <-images:
			if !ok {
				images = nil
				continue
			}
		}
		if len(data) == 0 {
			continue
		}
		handle(data)
	}
}

func runOnChange(ctx context.Context, argv []string, data []byte) error {
	//nolint:gosec // G204: argv is this binary's own store command
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Stdin = bytes.NewReader(data)
	cmd.Stdout = os.Stderr
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

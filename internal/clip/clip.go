// Package clip hands clipboard history entries back to the desktop clipboard
// and watches it for new content.
//
// Two bridges are provided:
//
//	wayland  drives wl-copy and wl-paste from wl-clipboard
//	native   uses golang.design/x/clipboard (X11, macOS, Windows)
package clip

import (
	"context"
	"fmt"
	"os"
)

// Bridge is the interface every clipboard implementation satisfies.
type Bridge interface {
	// Name returns a human-readable name for the bridge.
	Name() string

	// CopyLiteral places data on the clipboard.
	CopyLiteral(ctx context.Context, data []byte) error

	// CopyFromFile places the contents of the file at path on the clipboard.
	CopyFromFile(ctx context.Context, path string) error

	// Watch runs onChange, with the new content on its stdin, every time the
	// clipboard changes. It blocks until ctx is done or the watcher fails.
	Watch(ctx context.Context, onChange []string) error
}

// Kinds accepted by New.
const (
	KindWayland = "wayland"
	KindNative  = "native"
)

// New returns the bridge named by kind. An empty kind picks wayland when a
// Wayland session is detected and native otherwise.
func New(kind string) (Bridge, error) {
	if kind == "" {
		kind = KindNative
		if os.Getenv("WAYLAND_DISPLAY") != "" {
			kind = KindWayland
		}
	}
	switch kind {
	case KindWayland:
		return NewWayland(nil), nil
	case KindNative:
		return NewNative(), nil
	default:
		return nil, fmt.Errorf("unknown clipboard bridge %q (want %s or %s)", kind, KindWayland, KindNative)
	}
}

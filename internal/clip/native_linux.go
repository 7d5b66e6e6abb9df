//go:build linux

package clip

// X11 selections are owned by a live client and vanish when it exits.
const holdSelection = true

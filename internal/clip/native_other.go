//go:build !linux

package clip

const holdSelection = false

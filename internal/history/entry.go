// Package history keeps the bounded, most-recent-first clipboard history of a
// single named page.
//
// A page is hydrated from disk at process start, mutated by exactly one
// operation (capture or restore) and flushed back. Entries are immutable and can
// only be constructed inside this package; callers see read-only accessors.
package history

import (
	"bytes"
	"fmt"
	"io"
	"slices"
	"strings"
	"unicode/utf8"
)

const (
	// MaxEntrySize is the largest payload that is kept (16 MiB). Larger
	// captures are discarded whole.
	MaxEntrySize = 16 * 1024 * 1024

	// MinClassifySize is the payload size above which the content type is
	// sniffed. Smaller buffers rarely carry a meaningful signature.
	MinClassifySize = 4 * 1024

	// FileDeliverySize is the payload size above which a restored entry is
	// handed to the clipboard bridge through the scratch file.
	FileDeliverySize = 256

	// DefaultPreviewWidth is the number of bytes shown by Render when the
	// caller passes a non-positive width.
	DefaultPreviewWidth = 32
)

// placeholder replaces non-printable bytes in previews.
const placeholder = "█"

// Entry is one clipboard payload.
type Entry struct {
	data        []byte
	contentType string
}

func newEntry(data []byte, contentType string) *Entry {
	return &Entry{data: slices.Clone(data), contentType: contentType}
}

// Bytes returns a copy of the payload.
func (e *Entry) Bytes() []byte { return slices.Clone(e.data) }

// Size returns the payload length in bytes.
func (e *Entry) Size() int { return len(e.data) }

// ContentType returns the sniffed MIME type, or "" if the entry was too small
// to be classified.
func (e *Entry) ContentType() string { return e.contentType }

// Equal reports whether both entries carry the same bytes. The content type is
// not part of an entry's identity.
func (e *Entry) Equal(other *Entry) bool {
	if e == nil || other == nil {
		return e == other
	}
	return len(e.data) == len(other.data) && bytes.Equal(e.data, other.data)
}

// IsPrintableText reports whether the classified content type is any text/*
// type.
func (e *Entry) IsPrintableText() bool {
	return strings.HasPrefix(e.contentType, "text")
}

// WriteTo writes the raw, untransformed payload to w.
func (e *Entry) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(e.data)
	return int64(n), err
}

// Render returns a one-line preview of the entry. Classified non-text/plain
// entries are summarised by type and size; everything else shows the first
// maxChars bytes with control characters escaped.
func (e *Entry) Render(maxChars int) string {
	if e.contentType != "" && e.contentType != "text/plain" {
		return fmt.Sprintf("mime: [%s] size: %d", e.contentType, len(e.data))
	}
	if maxChars <= 0 {
		maxChars = DefaultPreviewWidth
	}

	n := min(len(e.data), maxChars)
	var sb strings.Builder
	sb.Grow(n)
	for _, c := range e.data[:n] {
		switch {
		case c == '\n':
			sb.WriteString(`\n`)
		case c == '\r':
			sb.WriteString(`\r`)
		case c >= 0x20 && c < 0x7f:
			sb.WriteByte(c)
		default:
			sb.WriteString(placeholder)
		}
	}
	if len(e.data) > maxChars {
		fmt.Fprintf(&sb, "... (%d more chars)", len(e.data)-maxChars)
	}
	return sb.String()
}

// deliverableAsLiteral reports whether the entry can be passed to the bridge
// as a command-line argument instead of through the scratch file.
func (e *Entry) deliverableAsLiteral() bool {
	if len(e.data) > FileDeliverySize {
		return false
	}
	if e.contentType != "" {
		return e.IsPrintableText()
	}
	return utf8Text(e.data)
}

// utf8Text reports whether b is valid UTF-8 without NUL bytes.
func utf8Text(b []byte) bool {
	return utf8.Valid(b) && bytes.IndexByte(b, 0) < 0
}

package history

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntry_SizeMatchesBytes(t *testing.T) {
	e := newEntry([]byte("hello"), "")
	assert.Equal(t, 5, e.Size())
	assert.Equal(t, []byte("hello"), e.Bytes())
}

func TestEntry_IsImmutable(t *testing.T) {
	src := []byte("hello")
	e := newEntry(src, "")
	src[0] = 'j'
	assert.Equal(t, "hello", string(e.Bytes()), "constructor must copy its input")

	out := e.Bytes()
	out[0] = 'y'
	assert.Equal(t, "hello", string(e.Bytes()), "Bytes must return a copy")
}

func TestEntry_Equal(t *testing.T) {
	tests := []struct {
		name string
		a, b *Entry
		want bool
	}{
		{"same bytes", newEntry([]byte("abc"), ""), newEntry([]byte("abc"), ""), true},
		{"content type ignored", newEntry([]byte("abc"), "text/plain"), newEntry([]byte("abc"), ""), true},
		{"different length", newEntry([]byte("abc"), ""), newEntry([]byte("abcd"), ""), false},
		{"different bytes", newEntry([]byte("abc"), ""), newEntry([]byte("abd"), ""), false},
		{"both empty", newEntry(nil, ""), newEntry([]byte{}, ""), true},
		{"nil other", newEntry([]byte("abc"), ""), nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.Equal(tt.b))
		})
	}
}

func TestEntry_IsPrintableText(t *testing.T) {
	tests := []struct {
		contentType string
		want        bool
	}{
		{"", false},
		{"tex", false},
		{"t", false},
		{"text", true},
		{"text/plain", true},
		{"text/html", true},
		{"Text/plain", false},
		{"image/png", false},
		{"application/json", false},
	}
	for _, tt := range tests {
		t.Run(tt.contentType, func(t *testing.T) {
			e := newEntry([]byte("x"), tt.contentType)
			assert.Equal(t, tt.want, e.IsPrintableText())
		})
	}
}

func TestEntry_Render(t *testing.T) {
	tests := []struct {
		name        string
		data        []byte
		contentType string
		maxChars    int
		want        string
	}{
		{
			name: "short text",
			data: []byte("hello"),
			want: "hello",
		},
		{
			name: "escapes newline and carriage return",
			data: []byte("a\nb\r"),
			want: `a\nb\r`,
		},
		{
			name: "non-printable bytes become placeholder",
			data: []byte{'a', 0x00, 0x07, 'b', 0xff},
			want: "a██b█",
		},
		{
			name: "exactly the preview width is not truncated",
			data: []byte(strings.Repeat("x", 32)),
			want: strings.Repeat("x", 32),
		},
		{
			name: "truncated with remaining count",
			data: []byte(strings.Repeat("x", 40)),
			want: strings.Repeat("x", 32) + "... (8 more chars)",
		},
		{
			name:     "custom width",
			data:     []byte("abcdef"),
			maxChars: 2,
			want:     "ab... (4 more chars)",
		},
		{
			name:        "text/plain renders content",
			data:        []byte("plain"),
			contentType: "text/plain",
			want:        "plain",
		},
		{
			name:        "other mime summarised",
			data:        bytes.Repeat([]byte{0x89}, 5000),
			contentType: "image/png",
			maxChars:    4,
			want:        "mime: [image/png] size: 5000",
		},
		{
			name:        "text subtype summarised too",
			data:        []byte("<p>hi</p>"),
			contentType: "text/html",
			want:        "mime: [text/html] size: 9",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEntry(tt.data, tt.contentType)
			assert.Equal(t, tt.want, e.Render(tt.maxChars))
		})
	}
}

func TestEntry_WriteToIsRaw(t *testing.T) {
	payload := []byte("line1\nline2\r\n\x00\xff")
	e := newEntry(payload, "")

	var buf bytes.Buffer
	n, err := e.WriteTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, int64(len(payload)), n)
	assert.Equal(t, payload, buf.Bytes())
}

func TestEntry_DeliverableAsLiteral(t *testing.T) {
	tests := []struct {
		name        string
		data        []byte
		contentType string
		want        bool
	}{
		{"short text", []byte("hello"), "", true},
		{"at threshold", bytes.Repeat([]byte("a"), FileDeliverySize), "", true},
		{"over threshold", bytes.Repeat([]byte("a"), FileDeliverySize+1), "", false},
		{"nul byte", []byte("a\x00b"), "", false},
		{"invalid utf-8", []byte{0xff, 0xfe}, "", false},
		{"classified binary", []byte("abc"), "image/png", false},
		{"classified text", []byte("abc"), "text/plain", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, newEntry(tt.data, tt.contentType).deliverableAsLiteral())
		})
	}
}

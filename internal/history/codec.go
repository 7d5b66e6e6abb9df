package history

import (
	"errors"
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// Page wire layout, protobuf wire format:
//
//	Page  { repeated bytes entry = 1; }
//	Entry { bytes data = 1; uint64 size = 2; string content_type = 3; }
//
// Unknown fields are skipped at both levels so newer writers can add fields
// without breaking older readers. An empty page encodes to zero bytes.
const (
	pageEntryField protowire.Number = 1

	entryDataField protowire.Number = 1
	entrySizeField protowire.Number = 2
	entryTypeField protowire.Number = 3
)

// ErrCorruptPage is returned when persisted page bytes cannot be decoded.
var ErrCorruptPage = errors.New("history: corrupt page")

func encodePage(entries []*Entry) []byte {
	var out []byte
	for _, e := range entries {
		out = protowire.AppendTag(out, pageEntryField, protowire.BytesType)
		out = protowire.AppendBytes(out, encodeEntry(e))
	}
	return out
}

func encodeEntry(e *Entry) []byte {
	b := make([]byte, 0, len(e.data)+len(e.contentType)+16)
	b = protowire.AppendTag(b, entryDataField, protowire.BytesType)
	b = protowire.AppendBytes(b, e.data)
	b = protowire.AppendTag(b, entrySizeField, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(len(e.data)))
	if e.contentType != "" {
		b = protowire.AppendTag(b, entryTypeField, protowire.BytesType)
		b = protowire.AppendString(b, e.contentType)
	}
	return b
}

func decodePage(b []byte) ([]*Entry, error) {
	var entries []*Entry
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, fmt.Errorf("%w: %w", ErrCorruptPage, protowire.ParseError(n))
		}
		b = b[n:]

		if num != pageEntryField || typ != protowire.BytesType {
			n = protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return nil, fmt.Errorf("%w: field %d: %w", ErrCorruptPage, num, protowire.ParseError(n))
			}
			b = b[n:]
			continue
		}

		raw, n := protowire.ConsumeBytes(b)
		if n < 0 {
			return nil, fmt.Errorf("%w: entry %d: %w", ErrCorruptPage, len(entries), protowire.ParseError(n))
		}
		b = b[n:]

		e, err := decodeEntry(raw)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", len(entries), err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func decodeEntry(b []byte) (*Entry, error) {
	var (
		data        []byte
		size        uint64
		haveSize    bool
		contentType string
	)
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, fmt.Errorf("%w: %w", ErrCorruptPage, protowire.ParseError(n))
		}
		b = b[n:]

		switch {
		case num == entryDataField && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return nil, fmt.Errorf("%w: data: %w", ErrCorruptPage, protowire.ParseError(n))
			}
			data = v
			b = b[n:]
		case num == entrySizeField && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return nil, fmt.Errorf("%w: size: %w", ErrCorruptPage, protowire.ParseError(n))
			}
			size, haveSize = v, true
			b = b[n:]
		case num == entryTypeField && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(b)
			if n < 0 {
				return nil, fmt.Errorf("%w: content type: %w", ErrCorruptPage, protowire.ParseError(n))
			}
			contentType = v
			b = b[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return nil, fmt.Errorf("%w: field %d: %w", ErrCorruptPage, num, protowire.ParseError(n))
			}
			b = b[n:]
		}
	}

	if haveSize && size != uint64(len(data)) {
		return nil, fmt.Errorf("%w: size %d does not match %d data bytes", ErrCorruptPage, size, len(data))
	}
	return newEntry(data, contentType), nil
}

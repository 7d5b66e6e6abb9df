// Package mimesniff classifies clipboard payloads by content.
package mimesniff

import (
	"mime"

	"github.com/gabriel-vasile/mimetype"
)

// Sniffer detects a payload's media type from its leading bytes.
type Sniffer struct{}

// Classify returns the bare media type of data, without parameters such as
// charset. Unknown binary data is reported as application/octet-stream.
func (Sniffer) Classify(data []byte) string {
	detected := mimetype.Detect(data).String()
	mediaType, _, err := mime.ParseMediaType(detected)
	if err != nil {
		return detected
	}
	return mediaType
}

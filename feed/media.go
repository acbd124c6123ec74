package feed

import (
	"encoding/base64"
	"fmt"
	"io"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// DefaultMediaMaxBytes is the largest accepted attachment before encoding.
const DefaultMediaMaxBytes int64 = 2 << 20

// Attachment is an image accepted for the overlay, already encoded as a data URL.
type Attachment struct {
	Name    string `json:"name,omitempty"`
	MIME    string `json:"mime"`
	Size    int64  `json:"size"`
	DataURL string `json:"-"`
}

// SelectMedia validates a picked file and encodes it. Only image types are accepted and
// payloads above maxBytes are refused, so nothing oversized ever reaches the store.
// An empty or generic contentType is replaced by the sniffed type.
func SelectMedia(name, contentType string, data []byte, maxBytes int64) (Attachment, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMediaMaxBytes
	}
	mt := mediaType(contentType)
	if mt == "" || mt == "application/octet-stream" {
		mt = mediaType(mimetype.Detect(data).String())
	}
	if !strings.HasPrefix(mt, "image/") {
		return Attachment{}, ErrNotImage
	}
	if int64(len(data)) > maxBytes {
		return Attachment{}, ErrMediaTooLarge
	}
	return Attachment{
		Name:    name,
		MIME:    mt,
		Size:    int64(len(data)),
		DataURL: "data:" + mt + ";base64," + base64.StdEncoding.EncodeToString(data),
	}, nil
}

// ReadMedia is SelectMedia over a stream. At most maxBytes+1 bytes are read.
func ReadMedia(r io.Reader, name, contentType string, maxBytes int64) (Attachment, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMediaMaxBytes
	}
	data, err := io.ReadAll(io.LimitReader(r, maxBytes+1))
	if err != nil {
		return Attachment{}, fmt.Errorf("read media: %w", err)
	}
	return SelectMedia(name, contentType, data, maxBytes)
}

func mediaType(v string) string {
	mt, _, _ := strings.Cut(v, ";")
	return strings.ToLower(strings.TrimSpace(mt))
}

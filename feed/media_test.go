package feed

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(n int) []byte {
	sig := []byte("\x89PNG\r\n\x1a\n")
	if n < len(sig) {
		n = len(sig)
	}
	return append(sig, make([]byte, n-len(sig))...)
}

func TestSelectMediaSizeCeiling(t *testing.T) {
	_, err := SelectMedia("big.png", "image/png", pngBytes(3<<20), DefaultMediaMaxBytes)
	assert.ErrorIs(t, err, ErrMediaTooLarge)

	att, err := SelectMedia("ok.png", "image/png", pngBytes(1<<20), DefaultMediaMaxBytes)
	require.NoError(t, err)
	assert.Equal(t, int64(1<<20), att.Size)
	assert.True(t, strings.HasPrefix(att.DataURL, "data:image/png;base64,iVBORw0KGgo"))

	_, err = SelectMedia("edge.png", "image/png", pngBytes(int(DefaultMediaMaxBytes)), DefaultMediaMaxBytes)
	assert.NoError(t, err)
}

func TestSelectMediaRejectsNonImages(t *testing.T) {
	_, err := SelectMedia("notes.txt", "text/plain", []byte("hello"), 0)
	assert.ErrorIs(t, err, ErrNotImage)

	_, err = SelectMedia("notes", "", []byte("hello world"), 0)
	assert.ErrorIs(t, err, ErrNotImage)
}

func TestSelectMediaSniffsMissingType(t *testing.T) {
	att, err := SelectMedia("pic", "application/octet-stream", pngBytes(64), 0)
	require.NoError(t, err)
	assert.Equal(t, "image/png", att.MIME)

	att, err = SelectMedia("pic.gif", "Image/GIF; foo=bar", []byte("GIF89a...."), 0)
	require.NoError(t, err)
	assert.Equal(t, "image/gif", att.MIME)
}

func TestReadMediaStopsAfterCeiling(t *testing.T) {
	r := bytes.NewReader(pngBytes(3 << 20))
	_, err := ReadMedia(r, "big.png", "image/png", DefaultMediaMaxBytes)
	assert.ErrorIs(t, err, ErrMediaTooLarge)
	assert.Equal(t, (3<<20)-int(DefaultMediaMaxBytes)-1, r.Len())
}

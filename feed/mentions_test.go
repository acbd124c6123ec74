package feed

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cppla/postfeed/models"
)

func TestSegments(t *testing.T) {
	got := Segments("hi @ana.b and @José-x!")
	assert.Equal(t, []models.Segment{
		{Text: "hi "},
		{Text: "@ana.b", Mention: true},
		{Text: " and "},
		{Text: "@José-x", Mention: true},
		{Text: "!"},
	}, got)
}

func TestSegmentsRoundTrip(t *testing.T) {
	for _, in := range []string{"", "@", "no mentions", "@a@b", "mail me at x@y.z"} {
		var b strings.Builder
		for _, s := range Segments(in) {
			b.WriteString(s.Text)
		}
		assert.Equal(t, in, b.String())
	}
}

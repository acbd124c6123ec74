package feed

import (
	"regexp"

	"github.com/cppla/postfeed/models"
)

var mentionPattern = regexp.MustCompile(`@[\w\x{00C0}-\x{024F}\x{1E00}-\x{1EFF}.-]+`)

// Segments splits text into plain runs and @mention spans. Concatenating the segment
// texts yields the input.
func Segments(text string) []models.Segment {
	locs := mentionPattern.FindAllStringIndex(text, -1)
	segs := make([]models.Segment, 0, 2*len(locs)+1)
	last := 0
	for _, loc := range locs {
		if loc[0] > last {
			segs = append(segs, models.Segment{Text: text[last:loc[0]]})
		}
		segs = append(segs, models.Segment{Text: text[loc[0]:loc[1]], Mention: true})
		last = loc[1]
	}
	if last < len(text) {
		segs = append(segs, models.Segment{Text: text[last:]})
	}
	return segs
}

package feed

import (
	"slices"
	"sort"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/cppla/postfeed/models"
)

// SortKey selects one of the supported feed orderings.
type SortKey string

const (
	DateDesc  SortKey = "date-desc"
	DateAsc   SortKey = "date-asc"
	TitleAsc  SortKey = "title-asc"
	TitleDesc SortKey = "title-desc"

	DefaultSort = DateDesc
)

var sortLabels = map[SortKey]string{
	DateDesc:  "Newest first",
	DateAsc:   "Oldest first",
	TitleAsc:  "Title A → Z",
	TitleDesc: "Title Z → A",
}

// SortKeys lists the supported orderings in menu order.
func SortKeys() []SortKey {
	return []SortKey{DateDesc, DateAsc, TitleAsc, TitleDesc}
}

// Label is the human readable name of the ordering.
func (k SortKey) Label() string {
	return sortLabels[k]
}

// ParseSortKey validates user input. An empty value selects DefaultSort.
func ParseSortKey(s string) (SortKey, bool) {
	if s == "" {
		return DefaultSort, true
	}
	k := SortKey(s)
	if _, ok := sortLabels[k]; ok {
		return k, true
	}
	return DefaultSort, false
}

// Sort returns a sorted copy of posts; the input is never modified. Equal keys keep their
// relative order. An unknown key returns the copy in its original order.
func Sort(posts []models.Post, key SortKey) []models.Post {
	out := slices.Clone(posts)
	switch key {
	case DateDesc:
		sort.SliceStable(out, func(i, j int) bool {
			return createdAt(out[i]).After(createdAt(out[j]))
		})
	case DateAsc:
		sort.SliceStable(out, func(i, j int) bool {
			return createdAt(out[i]).Before(createdAt(out[j]))
		})
	case TitleAsc:
		c := titleCollator()
		sort.SliceStable(out, func(i, j int) bool {
			return c.CompareString(out[i].Title, out[j].Title) < 0
		})
	case TitleDesc:
		c := titleCollator()
		sort.SliceStable(out, func(i, j int) bool {
			return c.CompareString(out[j].Title, out[i].Title) < 0
		})
	}
	return out
}

// titleCollator compares at base strength: case and accents are ignored.
// A Collator is not safe for concurrent use, so every sort builds its own.
func titleCollator() *collate.Collator {
	return collate.New(language.Und, collate.Loose)
}

// createdAt parses the post timestamp; unparseable values sort as the zero time.
func createdAt(p models.Post) time.Time {
	t, err := time.Parse(time.RFC3339Nano, p.CreatedDatetime)
	if err != nil {
		return time.Time{}
	}
	return t
}

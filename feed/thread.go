package feed

import (
	"slices"

	"github.com/cppla/postfeed/models"
)

// buildThread arranges comments in two tiers. Every reply hangs under the root of its
// parent chain, so replies to replies render as second-tier entries. A comment whose
// parent is unknown, or whose chain loops, is shown as a root. Both tiers keep insertion
// order.
func buildThread(postID int64, comments []models.Comment, likes map[string][]string, viewer string) []models.CommentView {
	byID := make(map[string]int, len(comments))
	for i, c := range comments {
		if _, ok := byID[c.ID]; !ok {
			byID[c.ID] = i
		}
	}

	rootOf := func(i int) int {
		cur := i
		for steps := 0; steps <= len(comments); steps++ {
			parent := comments[cur].ParentID
			if parent == "" {
				return cur
			}
			p, ok := byID[parent]
			if !ok || p == cur {
				return cur
			}
			cur = p
		}
		return i
	}

	roots := make([]models.CommentView, 0, len(comments))
	rootPos := make(map[int]int, len(comments))
	replies := make(map[int][]int)
	for i := range comments {
		r := rootOf(i)
		if r == i {
			rootPos[i] = len(roots)
			roots = append(roots, commentView(postID, comments[i], likes, viewer))
			continue
		}
		replies[r] = append(replies[r], i)
	}
	for r, list := range replies {
		pos, ok := rootPos[r]
		if !ok {
			continue
		}
		views := make([]models.CommentView, 0, len(list))
		for _, i := range list {
			views = append(views, commentView(postID, comments[i], likes, viewer))
		}
		roots[pos].Replies = views
	}
	return roots
}

func commentView(postID int64, c models.Comment, likes map[string][]string, viewer string) models.CommentView {
	c.PostID = postID
	set := likes[c.ID]
	return models.CommentView{
		Comment:   c,
		LikeCount: len(set),
		LikedByMe: viewer != "" && slices.Contains(set, viewer),
		Segments:  Segments(c.Content),
	}
}

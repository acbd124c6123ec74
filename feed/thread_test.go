package feed

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cppla/postfeed/models"
)

func commentIDs(views []models.CommentView) []string {
	out := make([]string, 0, len(views))
	for _, v := range views {
		out = append(out, v.ID)
	}
	return out
}

func TestBuildThreadTwoTiers(t *testing.T) {
	comments := []models.Comment{
		{ID: "a"},
		{ID: "b"},
		{ID: "a1", ParentID: "a"},
		{ID: "a1x", ParentID: "a1"},
		{ID: "b1", ParentID: "b"},
		{ID: "a2", ParentID: "a"},
	}
	likes := map[string][]string{"a1x": {"bo", "cy"}}

	roots := buildThread(9, comments, likes, "bo")
	require.Equal(t, []string{"a", "b"}, commentIDs(roots))
	assert.Equal(t, []string{"a1", "a1x", "a2"}, commentIDs(roots[0].Replies))
	assert.Equal(t, []string{"b1"}, commentIDs(roots[1].Replies))

	deep := roots[0].Replies[1]
	assert.Equal(t, 2, deep.LikeCount)
	assert.True(t, deep.LikedByMe)
	assert.Equal(t, "a1", deep.ParentID)
	assert.Equal(t, int64(9), deep.PostID)
	assert.Empty(t, deep.Replies)
}

func TestBuildThreadOrphansAndCycles(t *testing.T) {
	comments := []models.Comment{
		{ID: "x", ParentID: "gone"},
		{ID: "y", ParentID: "z"},
		{ID: "z", ParentID: "y"},
		{ID: "s", ParentID: "s"},
		{ID: "x1", ParentID: "x"},
	}

	roots := buildThread(1, comments, nil, "")
	assert.Equal(t, []string{"x", "y", "z", "s"}, commentIDs(roots))
	assert.Equal(t, []string{"x1"}, commentIDs(roots[0].Replies))
}

func TestBuildThreadEmpty(t *testing.T) {
	assert.Empty(t, buildThread(1, nil, nil, "ana"))
}

package feed

import (
	"context"
	"slices"

	"github.com/cppla/postfeed/models"
	"github.com/cppla/postfeed/overlay"
)

// Feed returns the whole collection, sorted by key and joined with the overlay as seen
// by viewer. viewer may be empty.
func (s *Synchronizer) Feed(ctx context.Context, key SortKey, viewer string) ([]models.PostView, error) {
	posts, err := s.Posts(ctx)
	if err != nil {
		return nil, err
	}
	snap := s.snapshot(ctx)
	views := make([]models.PostView, 0, len(posts))
	for _, p := range Sort(posts, key) {
		views = append(views, snap.view(p, viewer))
	}
	return views, nil
}

// View returns a single merged post.
func (s *Synchronizer) View(ctx context.Context, id int64, viewer string) (models.PostView, error) {
	post, err := s.Lookup(ctx, id)
	if err != nil {
		return models.PostView{}, err
	}
	return s.snapshot(ctx).view(post, viewer), nil
}

type overlaySnapshot struct {
	likes        overlay.LikesMap
	comments     overlay.CommentsMap
	commentLikes overlay.CommentLikesMap
	media        overlay.MediaMap
}

func (s *Synchronizer) snapshot(ctx context.Context) overlaySnapshot {
	return overlaySnapshot{
		likes:        s.overlay.Likes(ctx),
		comments:     s.overlay.Comments(ctx),
		commentLikes: s.overlay.CommentLikes(ctx),
		media:        s.overlay.Media(ctx),
	}
}

func (o overlaySnapshot) view(p models.Post, viewer string) models.PostView {
	likes := o.likes[p.ID]
	comments := o.comments[p.ID]
	return models.PostView{
		Post:         p,
		LikeCount:    len(likes),
		LikedByMe:    viewer != "" && slices.Contains(likes, viewer),
		IsOwn:        p.OwnedBy(viewer),
		Media:        o.media[p.ID],
		CommentCount: len(comments),
		Comments:     buildThread(p.ID, comments, o.commentLikes, viewer),
		Segments:     Segments(p.Content),
	}
}

// Package overlay holds the per-profile likes, comments, comment likes and media that are
// merged into the remote feed. Reads never fail: missing or corrupt data reads as empty.
package overlay

import (
	"context"
	"encoding/json"
	"errors"
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/cppla/postfeed/models"
	"github.com/cppla/postfeed/storage"
	"github.com/cppla/postfeed/utils"
)

const (
	LikesKey        = "codeleap-post-likes"
	CommentsKey     = "codeleap-post-comments"
	CommentLikesKey = "codeleap-comment-likes"
	MediaKey        = "codeleap-post-media"
	UsernameKey     = "codeleap-username"
	SessionTokenKey = "codeleap-session-token"
)

// LikesMap maps a post id to the usernames that liked it.
type LikesMap map[int64][]string

// CommentsMap maps a post id to its comments in insertion order.
type CommentsMap map[int64][]models.Comment

// CommentLikesMap maps a comment id to the usernames that liked it.
type CommentLikesMap map[string][]string

// MediaMap maps a post id to its single data URL attachment.
type MediaMap map[int64]string

// Store is the overlay accessor. Each map has its own lock so a read-modify-write
// is a single critical section.
type Store struct {
	st  storage.Storage
	log *zap.Logger

	likesMu        sync.Mutex
	commentsMu     sync.Mutex
	commentLikesMu sync.Mutex
	mediaMu        sync.Mutex
}

// New creates a Store over a storage driver.
func New(st storage.Storage, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{st: st, log: logger.Named("overlay")}
}

func readMap[M ~map[K]V, K comparable, V any](ctx context.Context, s *Store, key string) M {
	raw, err := s.st.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			s.log.Debug("overlay read failed", zap.String("key", key), zap.Error(err))
		}
		return M{}
	}
	var m M
	if err := json.Unmarshal(raw, &m); err != nil {
		s.log.Debug("overlay payload unparseable", zap.String("key", key), zap.Error(err))
		return M{}
	}
	if m == nil {
		return M{}
	}
	return m
}

func (s *Store) writeJSON(ctx context.Context, key string, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		s.log.Warn("overlay encode failed", zap.String("key", key), zap.Error(err))
		return
	}
	if err := s.st.Set(ctx, key, b); err != nil {
		s.log.Warn("overlay write failed", zap.String("key", key), zap.Error(err))
	}
}

func (s *Store) readString(ctx context.Context, key string) string {
	raw, err := s.st.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			s.log.Debug("overlay read failed", zap.String("key", key), zap.Error(err))
		}
		return ""
	}
	return string(raw)
}

func (s *Store) writeString(ctx context.Context, key, value string) {
	if err := s.st.Set(ctx, key, []byte(value)); err != nil {
		s.log.Warn("overlay write failed", zap.String("key", key), zap.Error(err))
	}
}

func (s *Store) remove(ctx context.Context, key string) {
	if err := s.st.Remove(ctx, key); err != nil {
		s.log.Warn("overlay remove failed", zap.String("key", key), zap.Error(err))
	}
}

// toggleMember flips username's membership and reports the resulting state.
func toggleMember(list []string, username string) ([]string, bool) {
	list = utils.Unique(list)
	if idx := slices.Index(list, username); idx >= 0 {
		return slices.Delete(list, idx, idx+1), false
	}
	return append(list, username), true
}

// Likes returns every post like set.
func (s *Store) Likes(ctx context.Context) LikesMap {
	return readMap[LikesMap](ctx, s, LikesKey)
}

// SetLikes replaces the post like map.
func (s *Store) SetLikes(ctx context.Context, m LikesMap) {
	s.writeJSON(ctx, LikesKey, m)
}

// ToggleLike flips username in the post's like set and returns whether it is now liked.
// An emptied set is removed from the map.
func (s *Store) ToggleLike(ctx context.Context, postID int64, username string) bool {
	s.likesMu.Lock()
	defer s.likesMu.Unlock()

	m := s.Likes(ctx)
	list, liked := toggleMember(m[postID], username)
	if len(list) == 0 {
		delete(m, postID)
	} else {
		m[postID] = list
	}
	s.SetLikes(ctx, m)
	return liked
}

// Comments returns every post's comment list.
func (s *Store) Comments(ctx context.Context) CommentsMap {
	return readMap[CommentsMap](ctx, s, CommentsKey)
}

// SetComments replaces the comment map.
func (s *Store) SetComments(ctx context.Context, m CommentsMap) {
	s.writeJSON(ctx, CommentsKey, m)
}

// AddComment appends a comment to the post's list.
func (s *Store) AddComment(ctx context.Context, postID int64, c models.Comment) {
	s.commentsMu.Lock()
	defer s.commentsMu.Unlock()

	m := s.Comments(ctx)
	m[postID] = append(m[postID], c)
	s.SetComments(ctx, m)
}

// CommentLikes returns every comment like set.
func (s *Store) CommentLikes(ctx context.Context) CommentLikesMap {
	return readMap[CommentLikesMap](ctx, s, CommentLikesKey)
}

// SetCommentLikes replaces the comment like map.
func (s *Store) SetCommentLikes(ctx context.Context, m CommentLikesMap) {
	s.writeJSON(ctx, CommentLikesKey, m)
}

// ToggleCommentLike is ToggleLike for a comment.
func (s *Store) ToggleCommentLike(ctx context.Context, commentID, username string) bool {
	s.commentLikesMu.Lock()
	defer s.commentLikesMu.Unlock()

	m := s.CommentLikes(ctx)
	list, liked := toggleMember(m[commentID], username)
	if len(list) == 0 {
		delete(m, commentID)
	} else {
		m[commentID] = list
	}
	s.SetCommentLikes(ctx, m)
	return liked
}

// Media returns every post attachment.
func (s *Store) Media(ctx context.Context) MediaMap {
	return readMap[MediaMap](ctx, s, MediaKey)
}

// SetMediaMap replaces the attachment map.
func (s *Store) SetMediaMap(ctx context.Context, m MediaMap) {
	s.writeJSON(ctx, MediaKey, m)
}

// SetMediaForPost replaces the post's attachment; an empty dataURL removes it.
func (s *Store) SetMediaForPost(ctx context.Context, postID int64, dataURL string) {
	s.mediaMu.Lock()
	defer s.mediaMu.Unlock()

	m := s.Media(ctx)
	if dataURL != "" {
		m[postID] = dataURL
	} else {
		delete(m, postID)
	}
	s.SetMediaMap(ctx, m)
}

// Forget drops every overlay record of a deleted post, including likes of its comments.
func (s *Store) Forget(ctx context.Context, postID int64) {
	s.likesMu.Lock()
	likes := s.Likes(ctx)
	if _, ok := likes[postID]; ok {
		delete(likes, postID)
		s.SetLikes(ctx, likes)
	}
	s.likesMu.Unlock()

	s.commentsMu.Lock()
	comments := s.Comments(ctx)
	dropped := comments[postID]
	if _, ok := comments[postID]; ok {
		delete(comments, postID)
		s.SetComments(ctx, comments)
	}
	s.commentsMu.Unlock()

	if len(dropped) > 0 {
		s.commentLikesMu.Lock()
		cl := s.CommentLikes(ctx)
		changed := false
		for _, c := range dropped {
			if _, ok := cl[c.ID]; ok {
				delete(cl, c.ID)
				changed = true
			}
		}
		if changed {
			s.SetCommentLikes(ctx, cl)
		}
		s.commentLikesMu.Unlock()
	}

	s.mediaMu.Lock()
	media := s.Media(ctx)
	if _, ok := media[postID]; ok {
		delete(media, postID)
		s.SetMediaMap(ctx, media)
	}
	s.mediaMu.Unlock()
}

// Username returns the locally chosen display name, or "".
func (s *Store) Username(ctx context.Context) string {
	return s.readString(ctx, UsernameKey)
}

// SetUsername persists the locally chosen display name.
func (s *Store) SetUsername(ctx context.Context, name string) {
	s.writeString(ctx, UsernameKey, name)
}

// ClearUsername forgets the locally chosen display name.
func (s *Store) ClearUsername(ctx context.Context) {
	s.remove(ctx, UsernameKey)
}

// SessionToken returns the stored server-backed session token, or "".
func (s *Store) SessionToken(ctx context.Context) string {
	return s.readString(ctx, SessionTokenKey)
}

// SetSessionToken persists the server-backed session token.
func (s *Store) SetSessionToken(ctx context.Context, token string) {
	s.writeString(ctx, SessionTokenKey, token)
}

// ClearSessionToken forgets the session token and keeps the chosen name.
func (s *Store) ClearSessionToken(ctx context.Context) {
	s.remove(ctx, SessionTokenKey)
}

// ClearIdentity removes the chosen name and the session token only.
func (s *Store) ClearIdentity(ctx context.Context) {
	s.remove(ctx, UsernameKey)
	s.remove(ctx, SessionTokenKey)
}

// Clear wipes every key of the profile, overlay data included.
func (s *Store) Clear(ctx context.Context) {
	if err := s.st.Clear(ctx); err != nil {
		s.log.Warn("overlay clear failed", zap.Error(err))
	}
}

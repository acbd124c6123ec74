// Package feed merges the remote post collection with the local overlay and applies
// user actions to both.
package feed

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/cppla/postfeed/feedclient"
	"github.com/cppla/postfeed/models"
	"github.com/cppla/postfeed/overlay"
	"github.com/cppla/postfeed/utils"
)

const (
	DefaultMaxPages  = 100
	DefaultCacheSize = 16

	collectionKey = "posts"
)

// Remote is the subset of the feed client the synchronizer needs.
type Remote interface {
	FetchPosts(ctx context.Context, pageURL string) (models.Page, error)
	CreatePost(ctx context.Context, username, title, content string) (models.Post, error)
	UpdatePost(ctx context.Context, id int64, title, content string) (models.Post, error)
	DeletePost(ctx context.Context, id int64) error
}

// Options tunes the synchronizer. Zero values select the defaults.
type Options struct {
	MaxPages      int
	CacheSize     int
	MediaMaxBytes int64
}

// Synchronizer owns the cached remote collection and the write paths.
type Synchronizer struct {
	remote  Remote
	overlay *overlay.Store
	cache   *utils.LocalCache[[]models.Post]
	opts    Options
	log     *zap.Logger
	now     func() time.Time

	// generation is bumped on every invalidation so a load that started earlier does not
	// repopulate the cache with a stale collection. cacheMu makes the generation check and
	// the cache write one step.
	cacheMu    sync.Mutex
	generation uint64
}

// New creates a Synchronizer.
func New(remote Remote, store *overlay.Store, opts Options, logger *zap.Logger) (*Synchronizer, error) {
	if opts.MaxPages <= 0 {
		opts.MaxPages = DefaultMaxPages
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = DefaultCacheSize
	}
	if opts.MediaMaxBytes <= 0 {
		opts.MediaMaxBytes = DefaultMediaMaxBytes
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	cache, err := utils.NewLocalCache[[]models.Post](opts.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("create collection cache: %w", err)
	}
	return &Synchronizer{
		remote:  remote,
		overlay: store,
		cache:   cache,
		opts:    opts,
		log:     logger.Named("feed"),
		now:     time.Now,
	}, nil
}

// MediaMaxBytes is the configured attachment ceiling.
func (s *Synchronizer) MediaMaxBytes() int64 { return s.opts.MediaMaxBytes }

// ListPosts returns one remote page as is. The overlay is never merged into pages.
func (s *Synchronizer) ListPosts(ctx context.Context, cursor string) (models.Page, error) {
	return s.remote.FetchPosts(ctx, cursor)
}

// LoadAll walks every page sequentially and returns the whole collection in server order,
// without duplicate ids. The first failing page aborts the walk with no partial result.
// A next cursor that was already visited ends the walk.
func (s *Synchronizer) LoadAll(ctx context.Context) ([]models.Post, error) {
	var (
		posts   []models.Post
		cursor  string
		visited = map[string]struct{}{}
	)
	for pages := 1; ; pages++ {
		page, err := s.remote.FetchPosts(ctx, cursor)
		if err != nil {
			s.log.Warn("load posts failed", zap.Int("page", pages), zap.Error(err))
			if errors.Is(err, feedclient.ErrForeignCursor) {
				return nil, fmt.Errorf("%w: %s", ErrBadNextCursor, cursor)
			}
			return nil, err
		}
		posts = append(posts, page.Results...)

		next := page.NextCursor()
		if next == "" {
			break
		}
		if _, seen := visited[next]; seen {
			s.log.Warn("remote repeated a page cursor, stopping", zap.String("cursor", next))
			break
		}
		if pages >= s.opts.MaxPages {
			return nil, fmt.Errorf("%w: stopped after %d pages", ErrTooManyPages, pages)
		}
		visited[next] = struct{}{}
		cursor = next
	}

	unique := utils.UniqueBy(posts, func(p models.Post) int64 { return p.ID })
	s.log.Debug("loaded posts", zap.Int("count", len(unique)), zap.Int("pages", len(visited)+1))
	return unique, nil
}

// Posts serves the whole collection from cache, loading it on a miss.
// The returned slice belongs to the caller.
func (s *Synchronizer) Posts(ctx context.Context) ([]models.Post, error) {
	if posts, ok := s.cache.Get(collectionKey); ok {
		return slices.Clone(posts), nil
	}
	s.cacheMu.Lock()
	gen := s.generation
	s.cacheMu.Unlock()

	posts, err := s.LoadAll(ctx)
	if err != nil {
		return nil, err
	}

	s.cacheMu.Lock()
	if s.generation == gen {
		s.cache.Set(collectionKey, posts, 0)
	}
	s.cacheMu.Unlock()
	return slices.Clone(posts), nil
}

// Invalidate drops the cached collection so the next read refetches it.
func (s *Synchronizer) Invalidate() {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	s.generation++
	s.cache.Remove(collectionKey)
}

// Lookup finds a post in the collection.
func (s *Synchronizer) Lookup(ctx context.Context, id int64) (models.Post, error) {
	posts, err := s.Posts(ctx)
	if err != nil {
		return models.Post{}, err
	}
	for _, p := range posts {
		if p.ID == id {
			return p, nil
		}
	}
	return models.Post{}, ErrPostNotFound
}

// Authorize returns the post when username may edit, delete or attach media to it.
func (s *Synchronizer) Authorize(ctx context.Context, username string, id int64) (models.Post, error) {
	if strings.TrimSpace(username) == "" {
		return models.Post{}, ErrNoIdentity
	}
	post, err := s.Lookup(ctx, id)
	if err != nil {
		return models.Post{}, err
	}
	if !post.OwnedBy(username) {
		return models.Post{}, ErrNotOwner
	}
	return post, nil
}

// CreatePost publishes a post for username. Inputs are trimmed and validated before any
// request is made. On success the optional attachment is stored under the new id and the
// collection is invalidated.
func (s *Synchronizer) CreatePost(ctx context.Context, username, title, content string, media *Attachment) (models.Post, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return models.Post{}, ErrNoIdentity
	}
	title, content, err := validatePost(title, content)
	if err != nil {
		return models.Post{}, err
	}

	post, err := s.remote.CreatePost(ctx, username, title, content)
	if err != nil {
		return models.Post{}, err
	}
	if media != nil && media.DataURL != "" {
		s.overlay.SetMediaForPost(ctx, post.ID, media.DataURL)
	}
	s.Invalidate()
	s.log.Info("post created", zap.Int64("id", post.ID), zap.String("username", username))
	return post, nil
}

// UpdatePost changes title and content; the collection is invalidated on success only.
func (s *Synchronizer) UpdatePost(ctx context.Context, id int64, title, content string) (models.Post, error) {
	title, content, err := validatePost(title, content)
	if err != nil {
		return models.Post{}, err
	}
	post, err := s.remote.UpdatePost(ctx, id, title, content)
	if err != nil {
		return models.Post{}, err
	}
	s.Invalidate()
	s.log.Info("post updated", zap.Int64("id", id))
	return post, nil
}

// DeletePost removes the post remotely, then forgets its overlay records.
func (s *Synchronizer) DeletePost(ctx context.Context, id int64) error {
	if err := s.remote.DeletePost(ctx, id); err != nil {
		return err
	}
	s.overlay.Forget(ctx, id)
	s.Invalidate()
	s.log.Info("post deleted", zap.Int64("id", id))
	return nil
}

func validatePost(title, content string) (string, string, error) {
	title = strings.TrimSpace(title)
	content = strings.TrimSpace(content)
	if title == "" || content == "" {
		return "", "", ErrInvalidPost
	}
	return title, content, nil
}

// AddComment appends a comment, or a reply when parentID is set, to a post's thread.
// The text is stripped of markup before it is stored.
func (s *Synchronizer) AddComment(ctx context.Context, postID int64, username, content, parentID string) (models.Comment, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return models.Comment{}, ErrNoIdentity
	}
	content = utils.SanitizeText(content)
	if content == "" {
		return models.Comment{}, ErrEmptyComment
	}
	parentID = strings.TrimSpace(parentID)

	now := s.now()
	c := models.Comment{
		ID:              utils.NewCommentID(now),
		Username:        username,
		Content:         content,
		CreatedDatetime: now.UTC().Format(isoMillis),
		ParentID:        parentID,
	}
	s.overlay.AddComment(ctx, postID, c)
	c.PostID = postID
	return c, nil
}

// isoMillis matches the timestamps browsers produce with toISOString.
const isoMillis = "2006-01-02T15:04:05.000Z07:00"

// ToggleLike flips the viewer's like on a post and returns the new state.
func (s *Synchronizer) ToggleLike(ctx context.Context, postID int64, username string) (bool, error) {
	if username == "" {
		return false, ErrNoIdentity
	}
	return s.overlay.ToggleLike(ctx, postID, username), nil
}

// ToggleCommentLike flips the viewer's like on a comment and returns the new state.
func (s *Synchronizer) ToggleCommentLike(ctx context.Context, commentID, username string) (bool, error) {
	if username == "" {
		return false, ErrNoIdentity
	}
	return s.overlay.ToggleCommentLike(ctx, commentID, username), nil
}

// SetMedia replaces the post's attachment.
func (s *Synchronizer) SetMedia(ctx context.Context, postID int64, username string, media Attachment) error {
	if username == "" {
		return ErrNoIdentity
	}
	if media.DataURL == "" {
		return ErrNotImage
	}
	s.overlay.SetMediaForPost(ctx, postID, media.DataURL)
	return nil
}

// RemoveMedia drops the post's attachment.
func (s *Synchronizer) RemoveMedia(ctx context.Context, postID int64, username string) error {
	if username == "" {
		return ErrNoIdentity
	}
	s.overlay.SetMediaForPost(ctx, postID, "")
	return nil
}

// SelectMedia validates and encodes an attachment with the configured ceiling.
func (s *Synchronizer) SelectMedia(name, contentType string, data []byte) (Attachment, error) {
	return SelectMedia(name, contentType, data, s.opts.MediaMaxBytes)
}

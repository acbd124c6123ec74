package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cppla/postfeed/feed"
	"github.com/cppla/postfeed/middleware"
	"github.com/cppla/postfeed/utils"
)

// FeedController serves the merged feed and the post write paths.
type FeedController struct {
	feed *feed.Synchronizer
}

// NewFeedController creates a FeedController.
func NewFeedController(s *feed.Synchronizer) *FeedController {
	return &FeedController{feed: s}
}

// ListFeed returns every post, sorted and merged with the overlay.
func (f *FeedController) ListFeed(ctx *gin.Context) {
	key, ok := feed.ParseSortKey(strings.TrimSpace(ctx.Query("sort")))
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40011, "unsupported sort key")
		return
	}
	views, err := f.feed.Feed(ctx.Request.Context(), key, middleware.Username(ctx))
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"items": views, "count": len(views), "sort": key})
}

// ListSorts returns the supported orderings.
func (f *FeedController) ListSorts(ctx *gin.Context) {
	items := make([]gin.H, 0, 4)
	for _, k := range feed.SortKeys() {
		items = append(items, gin.H{"key": k, "label": k.Label()})
	}
	utils.Success(ctx, gin.H{"items": items, "default": feed.DefaultSort})
}

// ListPage proxies a single remote page, without overlay data.
func (f *FeedController) ListPage(ctx *gin.Context) {
	page, err := f.feed.ListPosts(ctx.Request.Context(), strings.TrimSpace(ctx.Query("cursor")))
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, page)
}

// GetPost returns one merged post.
func (f *FeedController) GetPost(ctx *gin.Context) {
	id, ok := parsePostID(ctx)
	if !ok {
		return
	}
	view, err := f.feed.View(ctx.Request.Context(), id, middleware.Username(ctx))
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, view)
}

type postRequest struct {
	Title   string `json:"title" form:"title"`
	Content string `json:"content" form:"content"`
}

// CreatePost publishes a post. A multipart body may carry an image in "file".
func (f *FeedController) CreatePost(ctx *gin.Context) {
	var req postRequest
	if err := ctx.ShouldBind(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40001, "invalid request payload")
		return
	}

	var media *feed.Attachment
	if strings.HasPrefix(ctx.ContentType(), "multipart/") {
		att, err := readUpload(ctx, f.feed.MediaMaxBytes())
		switch {
		case err == nil:
			media = &att
		case errors.Is(err, errNoUpload):
		default:
			respondError(ctx, err)
			return
		}
	}

	post, err := f.feed.CreatePost(ctx.Request.Context(), middleware.Username(ctx), req.Title, req.Content, media)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"post": post})
}

// UpdatePost edits title and content of an own post.
func (f *FeedController) UpdatePost(ctx *gin.Context) {
	id, ok := parsePostID(ctx)
	if !ok {
		return
	}
	var req postRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40001, "invalid request payload")
		return
	}
	if _, err := f.feed.Authorize(ctx.Request.Context(), middleware.Username(ctx), id); err != nil {
		respondError(ctx, err)
		return
	}
	post, err := f.feed.UpdatePost(ctx.Request.Context(), id, req.Title, req.Content)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"post": post})
}

// DeletePost removes an own post.
func (f *FeedController) DeletePost(ctx *gin.Context) {
	id, ok := parsePostID(ctx)
	if !ok {
		return
	}
	if _, err := f.feed.Authorize(ctx.Request.Context(), middleware.Username(ctx), id); err != nil {
		respondError(ctx, err)
		return
	}
	if err := f.feed.DeletePost(ctx.Request.Context(), id); err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"deleted": id})
}

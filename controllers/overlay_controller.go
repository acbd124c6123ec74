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

var errNoUpload = errors.New("no file uploaded")

// OverlayController handles likes, comments and attachments, which never leave the profile.
type OverlayController struct {
	feed *feed.Synchronizer
}

// NewOverlayController creates an OverlayController.
func NewOverlayController(s *feed.Synchronizer) *OverlayController {
	return &OverlayController{feed: s}
}

// ToggleLike flips the caller's like on a post.
func (o *OverlayController) ToggleLike(ctx *gin.Context) {
	id, ok := parsePostID(ctx)
	if !ok {
		return
	}
	liked, err := o.feed.ToggleLike(ctx.Request.Context(), id, middleware.Username(ctx))
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"post_id": id, "liked": liked})
}

// ToggleCommentLike flips the caller's like on a comment.
func (o *OverlayController) ToggleCommentLike(ctx *gin.Context) {
	commentID := strings.TrimSpace(ctx.Param("id"))
	if commentID == "" {
		utils.Error(ctx, http.StatusBadRequest, 40012, "invalid comment id")
		return
	}
	liked, err := o.feed.ToggleCommentLike(ctx.Request.Context(), commentID, middleware.Username(ctx))
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"comment_id": commentID, "liked": liked})
}

// AddComment appends a comment or a reply to a post.
func (o *OverlayController) AddComment(ctx *gin.Context) {
	id, ok := parsePostID(ctx)
	if !ok {
		return
	}
	var req struct {
		Content  string `json:"content"`
		ParentID string `json:"parent_id"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40001, "invalid request payload")
		return
	}
	c, err := o.feed.AddComment(ctx.Request.Context(), id, middleware.Username(ctx), req.Content, req.ParentID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"comment": c})
}

// SetMedia replaces the image attached to an own post. The image comes in the multipart
// field "file".
func (o *OverlayController) SetMedia(ctx *gin.Context) {
	id, ok := parsePostID(ctx)
	if !ok {
		return
	}
	username := middleware.Username(ctx)
	if _, err := o.feed.Authorize(ctx.Request.Context(), username, id); err != nil {
		respondError(ctx, err)
		return
	}
	att, err := readUpload(ctx, o.feed.MediaMaxBytes())
	if errors.Is(err, errNoUpload) {
		utils.Error(ctx, http.StatusBadRequest, 40032, err.Error())
		return
	}
	if err != nil {
		respondError(ctx, err)
		return
	}
	if err := o.feed.SetMedia(ctx.Request.Context(), id, username, att); err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"post_id": id, "media": att})
}

// RemoveMedia drops the image attached to an own post.
func (o *OverlayController) RemoveMedia(ctx *gin.Context) {
	id, ok := parsePostID(ctx)
	if !ok {
		return
	}
	username := middleware.Username(ctx)
	if _, err := o.feed.Authorize(ctx.Request.Context(), username, id); err != nil {
		respondError(ctx, err)
		return
	}
	if err := o.feed.RemoveMedia(ctx.Request.Context(), id, username); err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"post_id": id})
}

// readUpload reads the multipart "file" field as an attachment. A declared size above the
// ceiling is refused before the body is read.
func readUpload(ctx *gin.Context, maxBytes int64) (feed.Attachment, error) {
	file, header, err := ctx.Request.FormFile("file")
	if err != nil {
		return feed.Attachment{}, errNoUpload
	}
	defer file.Close()

	if header.Size > maxBytes {
		return feed.Attachment{}, feed.ErrMediaTooLarge
	}
	return feed.ReadMedia(file, header.Filename, header.Header.Get("Content-Type"), maxBytes)
}

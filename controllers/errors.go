package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cppla/postfeed/feed"
	"github.com/cppla/postfeed/feedclient"
	"github.com/cppla/postfeed/session"
	"github.com/cppla/postfeed/utils"
)

// respondError maps domain errors onto the response envelope.
func respondError(ctx *gin.Context, err error) {
	var apiErr *feedclient.APIError
	switch {
	case errors.As(err, &apiErr):
		utils.Error(ctx, http.StatusBadGateway, 50201, apiErr.Error())
	case errors.Is(err, feedclient.ErrForeignCursor):
		utils.Error(ctx, http.StatusBadRequest, 40013, err.Error())
	case errors.Is(err, feed.ErrTooManyPages):
		utils.Error(ctx, http.StatusBadGateway, 50202, err.Error())
	case errors.Is(err, feed.ErrBadNextCursor):
		utils.Error(ctx, http.StatusBadGateway, 50203, err.Error())
	case errors.Is(err, feed.ErrNoIdentity):
		utils.Error(ctx, http.StatusUnauthorized, 40101, err.Error())
	case errors.Is(err, feed.ErrNotOwner):
		utils.Error(ctx, http.StatusForbidden, 40301, err.Error())
	case errors.Is(err, feed.ErrPostNotFound):
		utils.Error(ctx, http.StatusNotFound, 40401, err.Error())
	case errors.Is(err, feed.ErrInvalidPost):
		utils.Error(ctx, http.StatusBadRequest, 40020, err.Error())
	case errors.Is(err, feed.ErrEmptyComment):
		utils.Error(ctx, http.StatusBadRequest, 40021, err.Error())
	case errors.Is(err, feed.ErrNotImage):
		utils.Error(ctx, http.StatusBadRequest, 40030, err.Error())
	case errors.Is(err, feed.ErrMediaTooLarge):
		utils.Error(ctx, http.StatusBadRequest, 40031, err.Error())
	case errors.Is(err, session.ErrEmptyName):
		utils.Error(ctx, http.StatusBadRequest, 40002, err.Error())
	case errors.Is(err, session.ErrAuthenticated):
		utils.Error(ctx, http.StatusConflict, 40901, err.Error())
	default:
		utils.Sugar.Errorw("request failed", "path", ctx.FullPath(), "err", err)
		utils.Error(ctx, http.StatusInternalServerError, 50000, "internal error")
	}
}

func parsePostID(ctx *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(ctx.Param("id")), 10, 64)
	if err != nil || id <= 0 {
		utils.Error(ctx, http.StatusBadRequest, 40010, "invalid post id")
		return 0, false
	}
	return id, true
}

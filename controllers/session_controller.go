package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cppla/postfeed/session"
	"github.com/cppla/postfeed/utils"
)

// SessionController exposes the identity state machine and Google sign-in.
type SessionController struct {
	sessions *session.Manager
	// google is nil when sign-in is not configured.
	google *session.GoogleProvider
}

// NewSessionController creates a SessionController.
func NewSessionController(sessions *session.Manager, google *session.GoogleProvider) *SessionController {
	return &SessionController{sessions: sessions, google: google}
}

// Status returns the current identity.
func (s *SessionController) Status(ctx *gin.Context) {
	st := s.sessions.Resolve(ctx.Request.Context())
	utils.Success(ctx, gin.H{"session": st, "google_enabled": s.google != nil})
}

// ChooseName sets the local display name.
func (s *SessionController) ChooseName(ctx *gin.Context) {
	var req struct {
		Name string `json:"name"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40001, "invalid request payload")
		return
	}
	st, err := s.sessions.ChooseName(ctx.Request.Context(), req.Name)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"session": st})
}

// SignOut resets the identity.
func (s *SessionController) SignOut(ctx *gin.Context) {
	st := s.sessions.SignOut(ctx.Request.Context())
	utils.Success(ctx, gin.H{"session": st})
}

// GoogleLogin returns the consent page URL.
func (s *SessionController) GoogleLogin(ctx *gin.Context) {
	if s.google == nil {
		utils.Error(ctx, http.StatusBadRequest, 40004, session.ErrProviderDisabled.Error())
		return
	}
	utils.Success(ctx, gin.H{"authorization_url": s.google.AuthURL(ctx.Request.Context())})
}

// GoogleCallback completes the code flow and signs the profile in.
func (s *SessionController) GoogleCallback(ctx *gin.Context) {
	if s.google == nil {
		utils.Error(ctx, http.StatusBadRequest, 40004, session.ErrProviderDisabled.Error())
		return
	}
	profile, err := s.google.Complete(ctx.Request.Context(), ctx.Query("code"), ctx.Query("state"))
	switch {
	case errors.Is(err, session.ErrMissingCode):
		utils.Error(ctx, http.StatusBadRequest, 40005, err.Error())
		return
	case errors.Is(err, session.ErrInvalidState):
		utils.Error(ctx, http.StatusBadRequest, 40006, err.Error())
		return
	case err != nil:
		utils.Sugar.Warnw("google sign-in failed", "err", err)
		utils.Error(ctx, http.StatusBadRequest, 40007, "failed to exchange code")
		return
	}

	st, err := s.sessions.SignInWithProvider(ctx.Request.Context(), session.ProviderGoogle, profile)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"session": st})
}

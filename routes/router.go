package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/cppla/postfeed/config"
	"github.com/cppla/postfeed/controllers"
	"github.com/cppla/postfeed/feed"
	"github.com/cppla/postfeed/middleware"
	"github.com/cppla/postfeed/session"
	"github.com/cppla/postfeed/utils"
)

// Services are the components the gateway exposes.
type Services struct {
	Feed     *feed.Synchronizer
	Sessions *session.Manager
	// Google is nil when sign-in is not configured.
	Google *session.GoogleProvider
}

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(cfg config.AppConfig, svc Services) *gin.Engine {
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	gl, err := utils.NewRollingFileLogger(cfg.GinPath, cfg.LogLevel, cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress)
	if err == nil {
		r.Use(utils.Ginzap(gl, time.RFC3339, true))
		r.Use(utils.RecoveryWithZap(gl, false))
	} else {
		r.Use(gin.Recovery())
	}

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 0 || (len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*") {
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	feedController := controllers.NewFeedController(svc.Feed)
	overlayController := controllers.NewOverlayController(svc.Feed)
	sessionController := controllers.NewSessionController(svc.Sessions, svc.Google)

	api := r.Group("/api/v1")
	api.Use(middleware.RateLimit(cfg.RateLimitPerMinute), middleware.ResolveIdentity(svc.Sessions))

	api.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})

	api.GET("/session", sessionController.Status)
	api.POST("/session/name", sessionController.ChooseName)
	api.POST("/session/signout", sessionController.SignOut)
	api.GET("/auth/google/login", sessionController.GoogleLogin)
	api.GET("/auth/google/callback", sessionController.GoogleCallback)

	api.GET("/posts", feedController.ListFeed)
	api.GET("/posts/sorts", feedController.ListSorts)
	api.GET("/posts/page", feedController.ListPage)
	api.GET("/posts/:id", feedController.GetPost)

	protected := api.Group("")
	protected.Use(middleware.TrustedOrigin(cfg.AllowedOrigins), middleware.IdentityRequired())
	protected.POST("/posts", feedController.CreatePost)
	protected.PATCH("/posts/:id", feedController.UpdatePost)
	protected.DELETE("/posts/:id", feedController.DeletePost)
	protected.POST("/posts/:id/like", overlayController.ToggleLike)
	protected.POST("/posts/:id/comments", overlayController.AddComment)
	protected.POST("/comments/:id/like", overlayController.ToggleCommentLike)
	protected.PUT("/posts/:id/media", overlayController.SetMedia)
	protected.DELETE("/posts/:id/media", overlayController.RemoveMedia)

	r.NoRoute(func(ctx *gin.Context) {
		utils.Error(ctx, http.StatusNotFound, 40400, "api route not found")
	})

	return r
}

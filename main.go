package main

import (
	"context"
	"errors"
	"time"

	"github.com/cppla/postfeed/config"
	"github.com/cppla/postfeed/feed"
	"github.com/cppla/postfeed/feedclient"
	"github.com/cppla/postfeed/overlay"
	"github.com/cppla/postfeed/routes"
	"github.com/cppla/postfeed/session"
	"github.com/cppla/postfeed/storage"
	"github.com/cppla/postfeed/utils"
)

func main() {
	cfg := config.Load()

	// Initialize logger early
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}
	defer func() { _ = utils.Logger.Sync() }()

	st, err := storage.Open(cfg)
	if err != nil {
		utils.Sugar.Fatalf("open storage driver=%s: %v", cfg.StorageDriver, err)
	}
	store := overlay.New(st, utils.Logger)

	remote := feedclient.New(cfg.FeedBaseURL, nil, time.Duration(cfg.FeedTimeoutSec)*time.Second, utils.Logger)
	synchronizer, err := feed.New(remote, store, feed.Options{
		MaxPages:      cfg.FeedMaxPages,
		CacheSize:     cfg.FeedCacheSize,
		MediaMaxBytes: cfg.MediaMaxBytes,
	}, utils.Logger)
	if err != nil {
		utils.Sugar.Fatalf("init feed: %v", err)
	}

	sessions := session.NewManager(store, synchronizer, session.Options{
		Secret:       []byte(cfg.JWTSecret),
		TTL:          time.Duration(cfg.SessionTTLHours) * time.Hour,
		SignOutScope: session.ParseScope(cfg.SignOutScope),
	}, utils.Logger)
	status := sessions.Resolve(context.Background())
	utils.Sugar.Infow("session resolved", "state", status.State.String(), "username", status.Username)

	google, err := session.NewGoogleProvider(cfg, utils.NewStateStore(utils.GetRedis()))
	if err != nil {
		if !errors.Is(err, session.ErrProviderDisabled) {
			utils.Sugar.Fatalf("init google sign-in: %v", err)
		}
		utils.Sugar.Info("google sign-in disabled")
	}

	r := routes.SetupRouter(cfg, routes.Services{Feed: synchronizer, Sessions: sessions, Google: google})

	srv := utils.NewServer(":"+cfg.AppPort, r, utils.DEFAULT_READ_TIMEOUT, utils.DEFAULT_WRITE_TIMEOUT)
	srv.OnShutdown(func() {
		if rc := utils.GetRedis(); rc != nil {
			_ = rc.Close()
		}
	})

	utils.Sugar.Infof("Starting server on port %s (graceful) feed=%s storage=%s", cfg.AppPort, cfg.FeedBaseURL, cfg.StorageDriver)
	if err := srv.ListenAndServe(); err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}

// feedwatch is a headless feed client: it recovers or establishes a session,
// loads the feed and the user's profile, then follows realtime post inserts
// until interrupted.
package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"socialfeed/internal/app"
	"socialfeed/internal/config"
	"socialfeed/internal/util"
	"socialfeed/pkg/gateway"
	"socialfeed/pkg/realtime"
	"socialfeed/pkg/storage"
	"socialfeed/pkg/store"
)

const feedChannel = "feed:posts:insert"

func main() {
	cfg, err := config.Load(config.ConfigPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	sessionTTL, err := config.ParseSessionTTL(cfg.SessionTTL)
	if err != nil {
		log.Fatalf("failed to parse session TTL: %v", err)
	}
	if sessionTTL == 0 {
		sessionTTL = 24 * time.Hour
	}

	logger := util.InitLogger(cfg.LogLevel)

	svc, err := buildGateway(cfg, sessionTTL)
	if err != nil {
		log.Fatalf("failed to init gateway: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	authC := app.NewAuthContainer(svc)
	feed := app.NewFeedContainer(svc)
	profile := app.NewProfileContainer(svc, authC)

	authC.RecoverSession(ctx)
	if !authC.Authenticated() {
		email, password := os.Getenv("FEED_EMAIL"), os.Getenv("FEED_PASSWORD")
		if email == "" || password == "" {
			log.Fatalf("no stored session; set FEED_EMAIL and FEED_PASSWORD to log in")
		}
		if err := authC.Login(ctx, email, password); err != nil {
			log.Fatalf("login failed: %v", err)
		}
	}
	session, _ := authC.Session()
	slog.Info("signed in", "userId", session.UserID, "email", session.Email)

	if err := feed.FetchPosts(ctx); err != nil {
		logger.Error("initial feed fetch failed", "err", err)
	}
	if err := profile.FetchUserProfile(ctx); err != nil {
		logger.Error("profile fetch failed", "err", err)
	}
	if err := profile.FetchUserPosts(ctx); err != nil {
		logger.Error("post history fetch failed", "err", err)
	}

	if err := feed.Start(ctx); err != nil {
		log.Fatalf("failed to start realtime feed: %v", err)
	}
	slog.Info("following feed", "posts", len(feed.Posts()))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return gctx.Err()
			case <-ticker.C:
				slog.Info("feed status", "posts", len(feed.Posts()), "loading", feed.Loading(), "err", feed.Err())
			}
		}
	})
	g.Go(func() error {
		<-gctx.Done()
		return feed.Close()
	})
	if err := g.Wait(); err != nil && err != context.Canceled {
		logger.Error("shutdown error", "err", err)
	}
	slog.Info("feedwatch stopped")
}

func buildGateway(cfg config.FileConfig, sessionTTL time.Duration) (*gateway.Service, error) {
	rows, err := store.NewGormStore(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	var sessions store.SessionStore
	switch cfg.SessionStrategy {
	case config.SessionStrategyJWT:
		sessions = store.NewJWTSessionStore(cfg.JWTSecret, sessionTTL)
	default:
		sessions = store.NewRedisSessionStore(cfg.RedisAddr, cfg.RedisPassword, sessionTTL)
	}

	objects, err := storage.NewMinioStore(cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL, cfg.MinioPublicBaseURL)
	if err != nil {
		return nil, err
	}

	var bus realtime.Bus
	switch cfg.RealtimeDriver {
	case config.RealtimeDriverAMQP:
		bus, err = realtime.NewAMQPBus(cfg.AMQPURL, "feed.posts")
		if err != nil {
			return nil, err
		}
	default:
		bus = realtime.NewRedisBus(cfg.RedisAddr, cfg.RedisPassword, feedChannel)
	}

	tokenPath := cfg.TokenPath
	if tokenPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		tokenPath = home + "/.feedwatch/session"
	}
	tokens, err := gateway.NewFileTokenKeeper(tokenPath)
	if err != nil {
		return nil, err
	}

	return gateway.New(gateway.Config{
		Store:                    rows,
		Sessions:                 sessions,
		Objects:                  objects,
		Bus:                      bus,
		Tokens:                   tokens,
		RequireEmailConfirmation: cfg.RequireEmailConfirmation,
	})
}

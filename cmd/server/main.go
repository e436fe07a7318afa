// Command server runs the Shinel Studios website API: auth, admin CRUD over
// the KV-backed collections, and YouTube view refresh.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/shinelstudios/website-sub000/internal/audit"
	"github.com/shinelstudios/website-sub000/internal/auth"
	"github.com/shinelstudios/website-sub000/internal/config"
	"github.com/shinelstudios/website-sub000/internal/database"
	"github.com/shinelstudios/website-sub000/internal/handler"
	"github.com/shinelstudios/website-sub000/internal/logger"
	"github.com/shinelstudios/website-sub000/internal/model"
	"github.com/shinelstudios/website-sub000/internal/notify"
	"github.com/shinelstudios/website-sub000/internal/obs"
	"github.com/shinelstudios/website-sub000/internal/queue"
	"github.com/shinelstudios/website-sub000/internal/ratelimit"
	"github.com/shinelstudios/website-sub000/internal/router"
	"github.com/shinelstudios/website-sub000/internal/store"
	"github.com/shinelstudios/website-sub000/internal/youtube"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	log := logger.L()

	// Redis backs every namespace in production; the in-memory store only
	// keeps development environments usable without a Redis instance.
	var newKV func(prefix string) store.KV
	if rdb := config.NewRedisClient(); rdb != nil {
		newKV = func(prefix string) store.KV { return store.NewRedisKV(rdb, prefix) }
	} else {
		log.Warn("redis unreachable, falling back to in-memory store")
		mem := store.NewMemoryKV()
		newKV = func(prefix string) store.KV { return mem }
	}
	stores := store.Stores{
		Users:  newKV("users:"),
		Audit:  newKV("audit:"),
		Videos: newKV("videos:"),
		Thumbs: newKV("thumbnails:"),
		Client: newKV("clients:"),
	}

	videos := store.NewList[model.VideoRecord](stores.Videos, "videos")
	thumbs := store.NewList[model.ThumbnailRecord](stores.Thumbs, "thumbnails")
	clients := store.NewList[model.ClientRecord](stores.Client, "clients")

	userStores := []store.UserStore{store.NewKVUserStore(stores.Users)}
	if cfg.DBHost != "" {
		db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
		if err != nil {
			log.WithField("err", err).Fatal("mysql connect failed")
		}
		defer db.Close()
		userStores = append(userStores, store.NewMySQLUserStore(db))
	}
	userStores = append(userStores, store.NewStaticUserStore(cfg.UsersJSON))
	users := store.NewUserResolver(userStores...)

	var publisher audit.Publisher
	if cfg.AMQPURL != "" {
		publisher = queue.NewAMQPPublisher(cfg.AMQPURL)
	}
	auditLog := audit.NewLog(stores.Audit, publisher)

	tokens := auth.NewTokenService(cfg.JWTSecret, cfg.AccessTTL, cfg.RefreshTTL)
	limiter := ratelimit.NewLoginLimiter(stores.Audit, cfg.LoginWindow, cfg.LoginMax)
	metrics := obs.NewMetrics()

	var stats youtube.StatsSource
	if cfg.YouTubeAPIKey != "" {
		client, err := youtube.NewClient(context.Background(), cfg.YouTubeAPIKey)
		if err != nil {
			log.WithField("err", err).Fatal("youtube client init failed")
		}
		stats = client
	} else {
		log.Warn("YOUTUBE_API_KEY not set, view refresh disabled")
	}

	e := echo.New()
	router.Register(e, router.Handlers{
		Auth:    handler.NewAuthHandler(users, tokens, limiter, auditLog, metrics),
		Records: handler.NewRecordHandler(videos, thumbs),
		Clients: handler.NewClientHandler(clients),
		Views:   handler.NewViewHandler(videos, thumbs, stats, metrics, cfg.ViewStaleAfter, cfg.ViewBulkMax),
		System:  handler.NewSystemHandler(videos, thumbs, notify.NewDiscord(cfg.DiscordWebhookURL)),
	}, tokens, metrics, cfg.AllowedOrigins)

	go func() {
		addr := ":" + cfg.Port
		log.WithField("addr", addr).WithField("env", cfg.Env).Info("listening")
		if err := e.Start(addr); err != nil {
			log.WithField("err", err).Info("server stopped")
		}
	}()

	// Drain in-flight requests on SIGINT/SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.WithField("err", err).Error("shutdown failed")
	}
}

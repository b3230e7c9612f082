package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/tienchung1704/real-dinhanstore/analytics"
	"github.com/tienchung1704/real-dinhanstore/assistant"
	"github.com/tienchung1704/real-dinhanstore/auth"
	"github.com/tienchung1704/real-dinhanstore/cache"
	"github.com/tienchung1704/real-dinhanstore/config"
	orderControllers "github.com/tienchung1704/real-dinhanstore/controllers/order"
	"github.com/tienchung1704/real-dinhanstore/database"
	"github.com/tienchung1704/real-dinhanstore/events"
	"github.com/tienchung1704/real-dinhanstore/jobs"
	logx "github.com/tienchung1704/real-dinhanstore/logger"
	"github.com/tienchung1704/real-dinhanstore/middleware"
	"github.com/tienchung1704/real-dinhanstore/payment"
	"github.com/tienchung1704/real-dinhanstore/routes"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	logx.Init(logx.LoggerOpts{Environment: cfg.Env})
	logx.Info().Str("env", string(cfg.Env)).Msg("starting application")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shop, err := config.LoadShop(cfg.ShopSettingsFile)
	if err != nil {
		logx.Fatal().Err(err).Msg("load shop settings")
	}

	db, err := database.Open(cfg.Database)
	if err != nil {
		logx.Fatal().Err(err).Msg("connect database")
	}
	if err := database.Migrate(db); err != nil {
		logx.Fatal().Err(err).Msg("auto-migrate failed")
	}

	store := initCache(cfg.Redis)
	hub := events.NewHub(cfg.AllowedOrigins)
	publisher := events.Multi{hub}
	if cfg.RabbitMQ.URL != "" {
		rabbit, err := events.DialRabbit(cfg.RabbitMQ)
		if err != nil {
			logx.Warn().Err(err).Msg("rabbitmq unavailable, events stay in-process")
		} else {
			defer rabbit.Close()
			publisher = append(publisher, rabbit)
		}
	}

	var gateway payment.Gateway = payment.Disabled{}
	if cfg.Stripe.SecretKey != "" {
		gateway = payment.NewStripe(cfg.Stripe)
	} else {
		logx.Warn().Msg("STRIPE_SECRET_KEY not set, card payments disabled")
	}

	var bot assistant.Assistant = assistant.Disabled{}
	if cfg.Gemini.APIKey != "" {
		g, err := assistant.NewGemini(ctx, cfg.Gemini)
		if err != nil {
			logx.Warn().Err(err).Msg("gemini unavailable, chat disabled")
		} else {
			bot = g
		}
	}

	orders := &orderControllers.Service{
		DB:     db,
		Rules:  shop.PricingRules(),
		Events: publisher,
		Loc:    analytics.Zone(shop.TimezoneOffsetHours),
	}

	if cfg.Env.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), logx.RequestLogger())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-API-KEY", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	routes.SetupRoutes(r, routes.Deps{
		DB:        db,
		Cfg:       cfg,
		Shop:      shop,
		Tokens:    auth.NewTokens(cfg.JWTSecret, auth.DefaultTokenTTL),
		Cache:     store,
		Orders:    orders,
		Gateway:   gateway,
		VietQR:    payment.NewVietQR(cfg.VietQR),
		Assistant: bot,
		Hub:       hub,
		ChatLimit: middleware.NewPerMinuteLimiter(cfg.ChatRatePerMin),
	})

	go jobs.SweepPendingOrders(ctx, orders, cfg.PendingOrderMaxAge(), cfg.SweepEvery())

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logx.Info().Str("port", cfg.Port).Msg("server running")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logx.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	<-ctx.Done()
	logx.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logx.Error().Err(err).Msg("graceful shutdown failed")
	}
}

// initCache connects to Redis when configured; without it listings are not
// cached and webhook dedupe is skipped.
func initCache(cfg config.RedisConfig) cache.Cache {
	if cfg.URL == "" {
		logx.Warn().Msg("REDIS_URL not set, caching disabled")
		return cache.Nop{}
	}
	client, err := cache.NewClient(cfg)
	if err != nil {
		logx.Warn().Err(err).Msg("redis unavailable, caching disabled")
		return cache.Nop{}
	}
	return cache.NewRedis(client)
}

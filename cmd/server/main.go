package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/storyloom/collab/internal/admin"
	"github.com/storyloom/collab/internal/api"
	"github.com/storyloom/collab/internal/auth"
	"github.com/storyloom/collab/internal/collab"
	"github.com/storyloom/collab/internal/config"
	"github.com/storyloom/collab/internal/middleware"
	"github.com/storyloom/collab/internal/seed"
	"github.com/storyloom/collab/internal/store"
)

func main() {
	log.SetFormatter(&log.JSONFormatter{})

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("failed to load config")
	}

	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.WithError(err).WithField("level", cfg.LogLevel).Warn("unknown log level, using info")
		level = log.InfoLevel
	}
	log.SetLevel(level)

	gin.SetMode(cfg.GinMode)

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0755); err != nil {
		log.WithError(err).Fatal("failed to create db directory")
	}

	bboltStore, err := store.NewBBoltStore(cfg.DBPath)
	if err != nil {
		log.WithError(err).Fatal("failed to open bbolt store")
	}
	defer bboltStore.Close()

	if err := seed.LoadFromFile(cfg.SeedFile, bboltStore); err != nil {
		log.WithError(err).Fatal("failed to seed data")
	}

	verifier, err := auth.NewVerifier(cfg.JWTSecret, cfg.JWTIssuer)
	if err != nil {
		log.WithError(err).Fatal("failed to create token verifier")
	}

	swagger, err := api.GetSwagger()
	if err != nil {
		log.WithError(err).Fatal("failed to load embedded swagger spec")
	}

	validator, err := middleware.NewOpenAPIValidator(swagger)
	if err != nil {
		log.WithError(err).Fatal("failed to create openapi validator")
	}

	svc := collab.NewService(bboltStore, bboltStore, cfg.Policy(), nil)
	defer svc.Wait()

	limit := rate.Limit(cfg.RateLimitRPS)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID(), middleware.RequestLogger())
	r.Use(middleware.NewRateLimiter(limit, cfg.RateLimitBurst, middleware.KeyByClientIP))
	r.Use(validator)

	handler := api.NewHandler(svc)
	api.RegisterHandlersWithOptions(r, handler, api.GinServerOptions{
		Middlewares: []api.MiddlewareFunc{
			api.Secured(verifier.Middleware()),
			api.Secured(middleware.NewRateLimiter(limit, cfg.RateLimitBurst, middleware.KeyByCaller)),
		},
	})

	srv := &http.Server{
		Handler: r,
		Addr:    net.JoinHostPort("0.0.0.0", cfg.Port),
	}

	adminRouter := gin.New()
	adminRouter.Use(gin.Recovery())
	adminRouter.Use(middleware.RequestID(), middleware.RequestLogger())

	adminHandler := admin.NewHandler(bboltStore, svc)
	admin.RegisterHandlers(adminRouter, adminHandler)

	adminSrv := &http.Server{
		Handler: adminRouter,
		Addr:    net.JoinHostPort("0.0.0.0", cfg.AdminPort),
	}

	go func() {
		log.WithField("addr", srv.Addr).Info("starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("server error")
		}
	}()

	go func() {
		log.WithField("addr", adminSrv.Addr).Info("starting admin server")
		if err := adminSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("admin server error")
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	var sweeper sync.WaitGroup
	if cfg.SweepInterval > 0 {
		sweeper.Add(1)
		go func() {
			defer sweeper.Done()
			runSweeper(ctx, svc, cfg.SweepInterval)
		}()
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.WithField("signal", fmt.Sprintf("%v", sig)).Info("shutting down servers")

	cancel()
	sweeper.Wait()

	shutdownCtx, done := context.WithTimeout(context.Background(), 10*time.Second)
	defer done()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("server shutdown error")
	}
	if err := adminSrv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("admin server shutdown error")
	}
}

// runSweeper expires overdue invitations every interval until ctx ends.
func runSweeper(ctx context.Context, svc *collab.Service, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := svc.SweepExpired(ctx)
			if err != nil {
				log.WithError(err).WithField("expired", n).Error("periodic sweep failed")
				continue
			}
			if n > 0 {
				log.WithField("expired", n).Info("periodic sweep expired invitations")
			}
		}
	}
}

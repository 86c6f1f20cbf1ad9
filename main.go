package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/marior032001/jwt-pizza-service/config"
	"github.com/marior032001/jwt-pizza-service/database"
	"github.com/marior032001/jwt-pizza-service/kds"
	"github.com/marior032001/jwt-pizza-service/router"
	"github.com/marior032001/jwt-pizza-service/services"
	"github.com/marior032001/jwt-pizza-service/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		utils.ErrorLogger.Fatalf("Invalid configuration: %v", err)
	}

	utils.InitLogger(cfg.Log.Level, cfg.Server.Env)
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	hasher := utils.BcryptHasher{Cost: cfg.Auth.BcryptCost}
	provider := database.NewProvider(cfg.DB, database.Seed{Admin: cfg.Admin, Hasher: hasher})
	defer provider.Close()

	// fail fast when the database is unreachable at startup
	if _, err := provider.Conn(context.Background()); err != nil {
		utils.ErrorLogger.Fatalf("Failed to connect to database: %v", err)
	}

	svc := services.New(provider, hasher)
	signer := utils.NewTokenSigner(cfg.Auth.JWTSecret, cfg.Auth.SessionTTL)
	hub := kds.NewHub()

	sweeper := services.NewSessionSweeper(svc.Auth, cfg.Auth.SessionTTL, cfg.Auth.SweepInterval)
	sweeper.Start()
	defer sweeper.Stop()

	bgCtx, stopBackground := context.WithCancel(context.Background())
	defer stopBackground()

	r := router.SetupRouter(router.Deps{
		Ctx:        bgCtx,
		Services:   svc,
		Signer:     signer,
		Factory:    services.NewFactoryClient(cfg.Factory),
		Hub:        hub,
		CORSOrigin: cfg.Server.CORSOrigin,
		RateLimit:  cfg.Server.RateLimit,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		utils.InfoLogger.Printf("Listening on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			utils.ErrorLogger.Fatal(err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	utils.InfoLogger.Println("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		utils.ErrorLogger.WithError(err).Error("Server forced to shutdown")
	}
}

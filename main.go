package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/IkingariSolorzano/cinepoints-be/config"
	"github.com/IkingariSolorzano/cinepoints-be/jobs"
	"github.com/IkingariSolorzano/cinepoints-be/metrics"
	"github.com/IkingariSolorzano/cinepoints-be/middleware"
	"github.com/IkingariSolorzano/cinepoints-be/repository"
	"github.com/IkingariSolorzano/cinepoints-be/routes"
	"github.com/IkingariSolorzano/cinepoints-be/services"
	"github.com/IkingariSolorzano/cinepoints-be/websocket"
)

func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatal("Invalid configuration: ", err)
	}
	config.SetupLogging(cfg.LogFile)

	db, err := config.ConnectDatabase(cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database: ", err)
	}
	if cfg.RunMigrations {
		if err := config.RunMigrations(db); err != nil {
			log.Fatal("Failed to run migrations: ", err)
		}
	}

	catalog, err := services.LoadRewardCatalog(cfg.RewardCatalogPath)
	if err != nil {
		log.Fatal("Failed to load reward catalog: ", err)
	}

	hub := websocket.NewHub()
	go hub.Run()

	store := repository.New(db)
	loyalty := services.NewLoyaltyService(store, catalog,
		services.WithPublisher(hub),
		services.WithMetrics(metrics.Loyalty()),
	)
	audit := services.NewAuditService(store)

	scheduler, err := jobs.NewScheduler(jobs.Config{
		PointsExpirySpec:  cfg.PointsExpirySpec,
		VoucherExpirySpec: cfg.VoucherExpirySpec,
	}, loyalty, hub)
	if err != nil {
		log.Fatal("Failed to schedule jobs: ", err)
	}
	scheduler.Start()

	r := routes.SetupRoutes(routes.Deps{
		JWTSecret:    []byte(cfg.JWTSecret),
		RateLimiter:  middleware.NewRateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow),
		Hub:          hub,
		Auth:         services.NewAuthService(store, []byte(cfg.JWTSecret), cfg.JWTTTL),
		Audit:        audit,
		Customers:    services.NewCustomerService(store, loyalty.Tiers()),
		Transactions: services.NewTransactionService(store, loyalty, hub),
		Loyalty:      loyalty,
		Dashboard:    services.NewDashboardService(store),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Server starting on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server: ", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server shutdown: %v", err)
	}
	scheduler.Stop()
	hub.Stop()
}

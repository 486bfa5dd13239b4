package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/time/rate"

	"github.com/hireside/marketplace-api/internal/config"
	"github.com/hireside/marketplace-api/internal/handler"
	bookinghandler "github.com/hireside/marketplace-api/internal/handler/booking"
	notificationhandler "github.com/hireside/marketplace-api/internal/handler/notification"
	offerhandler "github.com/hireside/marketplace-api/internal/handler/offer"
	requesthandler "github.com/hireside/marketplace-api/internal/handler/request"
	reviewhandler "github.com/hireside/marketplace-api/internal/handler/review"
	"github.com/hireside/marketplace-api/internal/middleware"
	"github.com/hireside/marketplace-api/internal/repository/postgres"
	"github.com/hireside/marketplace-api/internal/router"
	"github.com/hireside/marketplace-api/internal/service/booking"
	"github.com/hireside/marketplace-api/internal/service/notification"
	"github.com/hireside/marketplace-api/internal/service/offer"
	"github.com/hireside/marketplace-api/internal/service/request"
	"github.com/hireside/marketplace-api/internal/service/review"
	"github.com/hireside/marketplace-api/pkg/auth"
	"github.com/hireside/marketplace-api/pkg/logger"
	"github.com/hireside/marketplace-api/pkg/metrics"
)

func main() {
	log := logger.NewLogger(nil)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err, "failed to load config")
	}

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal(err, "failed to connect to database")
	}
	defer db.Close()

	m := metrics.NewMetrics("marketplace_api")

	bookingRepo := postgres.NewBookingRepository(db)
	offerRepo := postgres.NewOfferRepository(db)
	requestRepo := postgres.NewServiceRequestRepository(db)
	reviewRepo := postgres.NewReviewRepository(db)
	notificationRepo := postgres.NewNotificationRepository(db)
	userRepo := postgres.NewUserRepository(db)

	bookingSvc := booking.NewService(bookingRepo, userRepo, m)
	offerSvc := offer.NewService(offerRepo, requestRepo, userRepo, m)
	requestSvc := request.NewService(requestRepo, userRepo)
	reviewSvc := review.NewService(reviewRepo, userRepo)
	notificationSvc := notification.NewService(notificationRepo)

	tokens := auth.NewTokenService(cfg.JWT.Secret, cfg.JWT.ExpiryHours)
	authMiddleware := middleware.NewAuthMiddleware(tokens)

	r := router.NewRouter(
		authMiddleware,
		bookinghandler.NewHandler(bookingSvc),
		requesthandler.NewHandler(requestSvc, offerSvc),
		offerhandler.NewHandler(offerSvc),
		reviewhandler.NewHandler(reviewSvc),
		notificationhandler.NewHandler(notificationSvc),
		handler.NewHandler(db),
		router.RouterConfig{
			RateLimit:     rate.Limit(cfg.Server.RateLimit),
			RateBurst:     cfg.Server.RateBurst,
			CORSConfig:    middleware.DefaultCORSConfig(),
			MetricsPrefix: "marketplace_api",
		},
	)
	r.Setup()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  time.Duration(cfg.Server.TimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.TimeoutSeconds) * time.Second,
	}

	go func() {
		log.Info("starting server", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal(err, "server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal(err, "forced shutdown")
	}
	log.Info("server stopped")
}

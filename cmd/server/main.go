package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"storefront-api/internal/api"
	"storefront-api/internal/config"
	"storefront-api/internal/database"
	"storefront-api/internal/middleware"
	"storefront-api/internal/services"
	"storefront-api/pkg/logging"

	"github.com/gin-gonic/gin"
)

func main() {
	// Initialize configuration
	if err := config.InitConfig(); err != nil {
		log.Fatal("Failed to initialize config:", err)
	}
	cfg := config.AppConfig

	// Initialize logging
	if err := logging.InitLogging(cfg.IsRelease(), cfg.LogLevel); err != nil {
		log.Fatal("Failed to initialize logging:", err)
	}
	defer logging.Sync()

	// Initialize database
	if err := database.InitDatabase(cfg); err != nil {
		log.Fatal("Failed to initialize database:", err)
	}
	defer database.CloseDatabase()

	if cfg.GatewayURL == "" {
		logging.Warnf("MPESA_GATEWAY_URL is not set, every checkout will fail")
	}

	handler, confirmations := buildHandler(cfg)

	// Set Gin mode
	gin.SetMode(cfg.Mode)

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestID(), middleware.RequestLogger())
	api.SetupRoutes(r, handler)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logging.Infof("Starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Errorf("Server stopped: %v", err)
			stop()
		}
	}()

	<-ctx.Done()
	logging.Infof("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Errorf("Server shutdown failed: %v", err)
	}

	drainCtx, cancelDrain := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelDrain()
	confirmations.Close(drainCtx)
}

func buildHandler(cfg *config.Config) (*api.Handler, *services.ConfirmationService) {
	catalog := database.NewCatalogStore(database.PrimaryDB)

	primary := database.NewPaymentStore(database.PrimaryDB, "primary")
	var mirror database.RecordStore
	if database.SecondaryDB != nil {
		mirror = database.NewPaymentStore(database.SecondaryDB, "secondary")
	}
	ledger := database.NewLedger(primary, mirror)

	gateway := services.NewHTTPGateway(cfg.GatewayURL, cfg.GatewayTimeout)
	confirmations := services.NewConfirmationService(ledger,
		services.NewReplayGuard(database.RedisClient, cfg.CallbackReplayTTL),
		services.NewWebhookNotifier(cfg.PaymentWebhookURL, cfg.PaymentWebhookSecret, cfg.ServiceName),
		services.NewSaleMailer(cfg.BrevoAPIKey, cfg.BrevoFromEmail, cfg.BrevoFromName, cfg.SaleNotifyEmail),
	)

	return &api.Handler{
		Catalog:       services.NewCatalogService(catalog),
		Pricing:       services.NewPricingService(catalog),
		Checkout:      services.NewCheckoutService(ledger, gateway),
		Confirmations: confirmations,
		Delivery:      services.NewDeliveryService(cfg.DeliveryStagger),
		Payments:      ledger,
		Throttle:      services.NewCheckoutThrottle(database.RedisClient, time.Duration(cfg.CheckoutRateLimitSeconds)*time.Second),
		Clock:         services.RealClock,
		Poller: services.PollerConfig{
			Interval:     cfg.PollInterval,
			MaxAttempts:  cfg.PollMaxAttempts,
			DismissDelay: cfg.DismissDelay,
		},
		CallbackSecret: cfg.CallbackSecret,
		AdminPassword:  cfg.AdminPassword,
		ServiceName:    cfg.ServiceName,
	}, confirmations
}

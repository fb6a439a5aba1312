package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"coachpay/internal/bankaccount"
	"coachpay/internal/config"
	"coachpay/internal/db"
	"coachpay/internal/gateway"
	"coachpay/internal/logger"
	"coachpay/internal/notify"
	"coachpay/internal/payout"
	"coachpay/internal/server"
)

// @title CoachPay API
// @version 1.0
// @description Payment lifecycle and ledger engine for coaching sessions.
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {

	logger.Init()
	logger.Info("Starting CoachPay application")
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}

	logger.Info("Connecting to database...")
	database, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()
	logger.Info("Database connected")

	if err := db.RunMigrations(database, "migrations"); err != nil {
		logger.Fatalf("Failed to run migrations: %v", err)
	}
	logger.Info("Migrations completed")

	cipher, err := bankaccount.NewCipher(cfg.BankEncryptionKey)
	if err != nil {
		logger.Fatalf("Failed to load bank encryption key: %v", err)
	}

	var gw gateway.Port
	switch cfg.GatewayMode {
	case "fake":
		gw = gateway.NewFake()
	default:
		logger.Fatalf("Unknown gateway mode: %s", cfg.GatewayMode)
	}
	logger.Info("Gateway initialized", "mode", cfg.GatewayMode)

	mailer := notify.New(
		cfg.EmailFrom,
		cfg.EmailFromName,
		cfg.SMTPHost,
		cfg.SMTPPort,
		cfg.SMTPUser,
		cfg.SMTPPass,
		cfg.RedisAddr,
	)
	defer mailer.Close()
	logger.Info("Email service initialized")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go mailer.Start(ctx)

	srv := server.New(database, cfg, gw, cipher, payout.NoopTransferer{}, mailer)

	serverErrChan := make(chan error, 1)
	go func() {
		logger.Infof("Server starting on port %s", cfg.Port)
		if err := srv.Start(cfg.Port); err != nil && err != http.ErrServerClosed {
			serverErrChan <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Infof("Received signal: %v", sig)
	case err := <-serverErrChan:
		logger.Errorf("Server error: %v", err)
	}

	logger.Info("Shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Error during server shutdown: %v", err)
	}

	logger.Info("Server stopped")
}

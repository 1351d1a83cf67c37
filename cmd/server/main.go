package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tamil_society/internal/api/middleware"
	"tamil_society/internal/bootstrap"
	"tamil_society/internal/database"
	"tamil_society/internal/global"
	"tamil_society/internal/logger"
	"tamil_society/internal/utility"

	"github.com/gofiber/fiber/v3"
)

// initLogger configures the named loggers from the environment
func initLogger() {
	if err := logger.Init(nil); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	logger.GetAppLogger().Info("Logger system initialized successfully")
}

func main() {
	initLogger()
	defer logger.Flush()

	InitGlobal()
	InitRegistry()

	log := logger.GetAppLogger()
	cfg := global.MongoDB_ServerConfig

	components, err := bootstrap.Build(cfg)
	if err != nil {
		log.Fatalf("Failed to build notification components: %v", err)
	}

	auth := middleware.NewAuthManager(cfg.JwtSecret, components.Users, time.Duration(cfg.UserCacheTTLSeconds)*time.Second)
	defer auth.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.RedeliveryIntervalSeconds > 0 {
		go utility.GoProtect(func() {
			components.Redelivery.Start(ctx)
		})
	} else {
		log.Info("📧 [REDELIVERY] Redelivery sweeper disabled")
	}

	app, err := InitFiberApp(components.Service, auth)
	if err != nil {
		log.Fatalf("Failed to set up routes: %v", err)
	}

	listenErr := make(chan error, 1)
	go func() {
		listenErr <- listen(app)
	}()

	select {
	case err := <-listenErr:
		if err != nil {
			log.WithError(err).Error("Server stopped")
		}
	case <-ctx.Done():
		log.Info("Shutdown signal received")
	}

	shutdown(app, components)
}

// listen serves HTTP, or HTTPS when TLS is enabled and both files are set
func listen(app *fiber.App) error {
	cfg := global.MongoDB_ServerConfig
	log := logger.GetAppLogger()

	listenConfig := fiber.ListenConfig{}
	protocol := "HTTP"
	if cfg.EnableTLS && cfg.TLSCertFile != "" && cfg.TLSKeyFile != "" {
		for _, path := range []string{cfg.TLSCertFile, cfg.TLSKeyFile} {
			if _, err := os.Stat(path); err != nil {
				return fmt.Errorf("TLS file not found: %s", path)
			}
		}
		listenConfig.CertFile = cfg.TLSCertFile
		listenConfig.CertKeyFile = cfg.TLSKeyFile
		protocol = "HTTPS"
	}

	log.WithFields(map[string]interface{}{
		"address":  cfg.Address,
		"protocol": protocol,
	}).Info("Starting Fiber server")
	return app.Listen(cfg.Address, listenConfig)
}

// shutdown stops accepting requests, then lets in-flight deliveries finish
func shutdown(app *fiber.App, components *bootstrap.Components) {
	log := logger.GetAppLogger()

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.WithError(err).Warn("HTTP server shutdown incomplete")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := components.Delivery.Close(ctx); err != nil {
		log.WithError(err).Warn("📧 [DELIVERY] Pending deliveries abandoned at shutdown; the redelivery sweeper will retry them")
	}

	if global.MongoDB_Session != nil {
		_ = database.CloseInstance(global.MongoDB_Session)
	}
	log.Info("Server stopped")
}

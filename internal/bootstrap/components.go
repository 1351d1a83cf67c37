package bootstrap

import (
	"fmt"
	"time"

	"tamil_society/config"
	authsvc "tamil_society/internal/api/auth/service"
	notifsvc "tamil_society/internal/api/notification/service"
	"tamil_society/internal/delivery"
	"tamil_society/internal/delivery/channels"
	"tamil_society/internal/logger"
	"tamil_society/internal/storage"
	"tamil_society/internal/worker"

	"github.com/spf13/afero"
)

// Components is the wired notification engine
type Components struct {
	Users      *authsvc.UserService
	Store      *notifsvc.NotificationStore
	Logs       *notifsvc.DeliveryLogService
	Renderer   *channels.Renderer
	Transport  channels.Transport
	Delivery   *delivery.Worker
	Redelivery *worker.RedeliveryWorker
	Assets     *storage.AssetStore
	Service    *notifsvc.NotificationService
}

// NewTransport returns SMTP when a host is configured, the sandbox otherwise
func NewTransport(cfg *config.Configuration) channels.Transport {
	if cfg.SMTP_Host != "" {
		return channels.NewSMTPTransport(channels.SMTPConfig{
			Host:     cfg.SMTP_Host,
			Port:     cfg.SMTP_Port,
			Username: cfg.SMTP_Username,
			Password: cfg.SMTP_Password,
			From:     cfg.SMTP_From,
			FromName: cfg.SMTP_FromName,
		})
	}
	return channels.NewSandboxTransport(afero.NewOsFs(), cfg.MailSandboxDir, cfg.SMTP_From, cfg.SMTP_FromName)
}

// Build wires the components on top of the registered collections
func Build(cfg *config.Configuration) (*Components, error) {
	users, err := authsvc.NewUserService()
	if err != nil {
		return nil, fmt.Errorf("create user service: %w", err)
	}
	store, err := notifsvc.NewNotificationStore()
	if err != nil {
		return nil, fmt.Errorf("create notification store: %w", err)
	}
	logs, err := notifsvc.NewDeliveryLogService()
	if err != nil {
		return nil, fmt.Errorf("create delivery log service: %w", err)
	}
	renderer, err := channels.NewRenderer(cfg.FrontendURL)
	if err != nil {
		return nil, fmt.Errorf("parse email templates: %w", err)
	}

	transport := NewTransport(cfg)
	deliveryWorker := delivery.NewWorker(delivery.Config{
		Workers:     cfg.MailWorkers,
		MaxInFlight: cfg.MailMaxInFlight,
		SendTimeout: cfg.MailSendTimeout(),
		Deadline:    cfg.DeliveryDeadline(),
	}, users, transport, renderer, store, logs)

	assets := storage.NewOsAssetStore(cfg.UploadDir)

	service := notifsvc.NewNotificationService(notifsvc.Options{
		Store:         store,
		Directory:     users,
		Dispatcher:    deliveryWorker,
		Assets:        assets,
		Logs:          logs,
		FanOutWorkers: cfg.FanOutWorkers,
	})

	redelivery := worker.NewRedeliveryWorker(
		store,
		deliveryWorker,
		time.Duration(cfg.RedeliveryIntervalSeconds)*time.Second,
		time.Duration(cfg.RedeliveryGraceSeconds)*time.Second,
		cfg.RedeliveryBatchSize,
	)

	logger.GetAppLogger().WithField("transport", transport.Name()).Info("📧 [DELIVERY] Mail transport ready")

	return &Components{
		Users:      users,
		Store:      store,
		Logs:       logs,
		Renderer:   renderer,
		Transport:  transport,
		Delivery:   deliveryWorker,
		Redelivery: redelivery,
		Assets:     assets,
		Service:    service,
	}, nil
}

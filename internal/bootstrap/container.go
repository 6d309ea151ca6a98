package bootstrap

import (
	"context"
	"log"
	"time"

	"email-onboarding-be/internal/config"
	"email-onboarding-be/internal/controller"
	"email-onboarding-be/internal/handler"
	"email-onboarding-be/internal/pkg/logger"
	"email-onboarding-be/internal/pkg/mailer"
	"email-onboarding-be/internal/repository/memory"
	"email-onboarding-be/internal/repository/unitofwork"
	"email-onboarding-be/internal/service"
	"email-onboarding-be/internal/websocket"
	deployEvents "email-onboarding-be/pkg/deployment/events"
	"email-onboarding-be/pkg/inject"
	"email-onboarding-be/pkg/merge"

	pktNats "email-onboarding-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	BusinessTypeController controller.IBusinessTypeController
	DeploymentController   controller.IDeploymentController

	// Handlers
	DeploymentStreamHandler *handler.DeploymentStreamHandler

	DeploymentService service.IDeploymentService

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService
	WebSocketHub    *websocket.Hub

	Logger logger.ILogger

	closers []func()
}

// NewContainer wires the service. db may be nil, in which case label maps
// live in process memory and are lost on restart.
func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())
	auditLogger := logger.NewIsolatedLogger(cfg.App.AuditLogFilePath)

	var uowFactory unitofwork.RepositoryFactory
	if db != nil {
		uowFactory = unitofwork.NewRepositoryFactory(db)
	} else {
		log.Printf("[WARN] No database configured, label maps are kept in memory")
		uowFactory = memory.NewRepositoryFactory()
	}

	c := &Container{Logger: sysLogger}

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)
	c.closers = append(c.closers, func() { _ = pubSub.Close() })

	// 3. Infrastructure
	var natsPub *pktNats.Publisher
	if cfg.App.NatsURL != "" {
		p, err := pktNats.NewPublisher(cfg.App.NatsURL)
		if err != nil {
			log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
		} else {
			natsPub = p
			c.closers = append(c.closers, p.Close)
		}
	}

	rdb := NewRedisClient(cfg)
	if rdb != nil {
		c.closers = append(c.closers, func() { _ = rdb.Close() })
	}

	streamLogger := logger.NewIsolatedLogger("logs/stream.log")
	c.WebSocketHub = websocket.NewHub(rdb, streamLogger)

	// 4. Pipeline
	schemas, err := NewSchemaRepository(cfg, sysLogger)
	if err != nil {
		log.Fatalf("[FATAL] Failed to open schema source: %v", err)
	}
	template, err := LoadTemplate(cfg)
	if err != nil {
		log.Fatalf("[FATAL] Failed to load workflow template: %v", err)
	}

	engine := merge.NewEngine(schemas, MergeOptions(cfg), sysLogger)
	reconciler := NewReconciler(cfg, service.NewLabelMapStore(uowFactory), NewLocker(cfg, rdb), auditLogger)
	injector := inject.New(sysLogger, inject.WithJSONEscaping())

	// 5. Services
	publisherService := service.NewPublisherService(cfg.App.DeployTopic, pubSub)
	sinks := deployEvents.MultiSink{c.WebSocketHub}
	if natsPub != nil {
		sinks = append(sinks, natsPub)
	}
	if cfg.AlertsEnabled() {
		emailService := mailer.NewEmailService(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Email, cfg.SMTP.Password, cfg.SMTP.Email, cfg.SMTP.SenderName, sysLogger)
		sinks = append(sinks, mailer.NewAlertSink(emailService, cfg.SMTP.AlertEmail))
	}
	eventPublisher := deployEvents.NewPublisherWithSink(sinks, sysLogger)

	c.DeploymentService = service.NewDeploymentService(
		schemas,
		engine,
		reconciler,
		NewProviderResolver(cfg),
		injector,
		template,
		uowFactory,
		publisherService,
		eventPublisher,
		sysLogger,
	)
	c.ConsumerService = service.NewConsumerService(
		pubSub,
		cfg.App.DeployTopic,
		c.DeploymentService,
		sysLogger,
	)

	// 6. Controllers
	c.BusinessTypeController = controller.NewBusinessTypeController(c.DeploymentService)
	c.DeploymentController = controller.NewDeploymentController(c.DeploymentService)
	c.DeploymentStreamHandler = handler.NewDeploymentStreamHandler(c.WebSocketHub, streamLogger)

	return c
}

// NewRedisClient returns nil when REDIS_URL is unset or unreachable.
func NewRedisClient(cfg *config.Config) *redis.Client {
	if cfg.App.RedisURL == "" {
		return nil
	}
	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: cfg.App.RedisURL,
		}
	}
	rdb := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v. Tenant locks stay process-local", err)
		_ = rdb.Close()
		return nil
	}
	return rdb
}

// Close releases connections opened by NewContainer.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	_ = c.Logger.Sync()
}

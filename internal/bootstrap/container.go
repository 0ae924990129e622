package bootstrap

import (
	"context"
	"fmt"
	"log"

	"ethics-review-be/internal/config"
	"ethics-review-be/internal/controller"
	"ethics-review-be/internal/handler"
	"ethics-review-be/internal/model"
	"ethics-review-be/internal/pkg/logger"
	"ethics-review-be/internal/pkg/serverutils"
	"ethics-review-be/internal/repository/memory"
	"ethics-review-be/internal/repository/unitofwork"
	"ethics-review-be/internal/service"
	"ethics-review-be/internal/websocket"
	"ethics-review-be/pkg/assistant"
	"ethics-review-be/pkg/assistant/factory"
	"ethics-review-be/pkg/document"
	"ethics-review-be/pkg/events"
	"ethics-review-be/pkg/persona"

	pktNats "ethics-review-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// TranscriptTopic is the in-process topic carrying transcript events to the
// websocket hub.
const TranscriptTopic = "review.transcript"

type Container struct {
	// Controllers
	ReviewController  controller.IReviewController
	PageController    controller.IPageController
	AdminController   controller.IAdminController
	TranscriptHandler *handler.TranscriptHandler

	// Services (also used by the CLI)
	AdminService        service.IAdminService
	AgentService        service.IAgentService
	RiskService         service.IRiskService
	SessionService      service.ISessionService
	ConversationService service.IConversationService
	ExportService       service.IExportService

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService

	// WebSockets
	WebSocketHub *websocket.Hub

	SessionTokens  *serverutils.SessionTokens
	Catalog        *persona.Catalog
	Settings       service.ReviewSettings
	NatsSubscriber *pktNats.Subscriber
	Logger         logger.ILogger

	closers []func()
}

// Migrate creates or updates the registry tables.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(model.RegistryModels()...)
}

func NewContainer(ctx context.Context, db *gorm.DB, cfg *config.Config) (*Container, error) {
	c := &Container{}

	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())
	c.Logger = sysLogger
	c.closers = append(c.closers, func() { _ = sysLogger.Sync() })

	catalog, err := persona.Load(cfg.Review.PersonaCatalog, cfg.Review.EthicistRoleFile)
	if err != nil {
		return nil, fmt.Errorf("load persona catalog: %w", err)
	}
	c.Catalog = catalog

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	// Blocking until the hub acks keeps transcript events in publish order.
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{BlockPublishUntilSubscriberAck: true},
		watermillLogger,
	)
	c.closers = append(c.closers, func() { _ = pubSub.Close() })

	// 3. Assistant backend
	client, err := factory.NewAssistantClient(cfg.Assistant.Provider, cfg.Assistant.APIKey, cfg.Assistant.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("initialize assistant provider: %w", err)
	}
	log.Printf("[INFO] Using Assistant Provider: %s (%s)", cfg.Assistant.Provider, cfg.Assistant.Model)

	registryService := service.NewRegistryService(uowFactory, client, sysLogger)
	if _, err := registryService.Refresh(ctx); err != nil {
		log.Printf("[WARN] Failed to refresh registry: %v", err)
	}

	vectorStoreService := service.NewVectorStoreService(client, registryService, sysLogger)
	store, _, err := vectorStoreService.CreateOrGet(ctx, cfg.Assistant.VectorStoreName)
	if err != nil {
		return nil, fmt.Errorf("create or get vector store %q: %w", cfg.Assistant.VectorStoreName, err)
	}

	settings := service.ReviewSettings{
		Model:   cfg.Assistant.Model,
		StoreID: store.RemoteId,
		Poll: assistant.PollConfig{
			InitialInterval: cfg.Assistant.PollInitial,
			MaxInterval:     cfg.Assistant.PollMax,
			Timeout:         cfg.Assistant.PollTimeout,
		},
		MaxRounds: cfg.Review.MaxRounds,
	}
	c.Settings = settings

	// 4. Infrastructure
	// NATS
	var auditPublisher events.Publisher = events.NopPublisher{}
	if cfg.App.NatsURL != "" {
		natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
		if err != nil {
			log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
		} else {
			auditPublisher = natsPub
			c.closers = append(c.closers, natsPub.Close)
		}
		natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL)
		if err != nil {
			log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
		} else {
			c.NatsSubscriber = natsSub
			c.closers = append(c.closers, natsSub.Close)
		}
	}

	// Redis
	var rdb *redis.Client
	if cfg.App.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.App.RedisURL)
		if err != nil {
			log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
			opt = &redis.Options{
				Addr: cfg.App.RedisURL,
			}
		}
		rdb = redis.NewClient(opt)
		if _, err := rdb.Ping(ctx).Result(); err != nil {
			log.Printf("[WARN] Failed to connect to Redis: %v", err)
		}
		c.closers = append(c.closers, func() { _ = rdb.Close() })
	}

	// WebSocket Hub
	wsLogger := logger.NewIsolatedLogger("logs/transcript.log")
	c.WebSocketHub = websocket.NewHub(rdb, wsLogger)

	publisherService := service.NewPublisherService(TranscriptTopic, pubSub)
	c.ConsumerService = service.NewConsumerService(pubSub, TranscriptTopic, c.WebSocketHub, wsLogger)

	// 5. Services
	c.AgentService = service.NewAgentService(client, registryService, sysLogger)
	c.RiskService = service.NewRiskService(client, c.AgentService, settings, sysLogger)
	c.ConversationService = service.NewConversationService(client, c.RiskService, publisherService, auditPublisher, settings, sysLogger)
	c.ExportService = service.NewExportService()

	sessionRepo := memory.NewSessionRepository(cfg.Session.TTL)
	c.SessionService = service.NewSessionService(sessionRepo, c.AgentService, catalog, settings, sysLogger)

	syncService := service.NewDocumentSyncService(client, registryService, document.NewPDFInspector(), auditPublisher, sysLogger)
	c.AdminService = service.NewAdminService(registryService, syncService, c.AgentService, auditPublisher, store.RemoteId, cfg.Review.PDFDir, sysLogger)

	// 6. Controllers
	c.SessionTokens = serverutils.NewSessionTokens(cfg.Session.Secret, cfg.Session.TTL)
	c.ReviewController = controller.NewReviewController(c.SessionService, c.ConversationService, c.ExportService, c.SessionTokens, catalog)
	c.PageController = controller.NewPageController(c.SessionService, c.ConversationService, c.SessionTokens, catalog, cfg.Review.MaxRounds, sysLogger)
	c.AdminController = controller.NewAdminController(c.AdminService, cfg.App.AdminToken)
	c.TranscriptHandler = handler.NewTranscriptHandler(c.SessionService, c.SessionTokens, c.WebSocketHub, wsLogger)

	return c, nil
}

// Warmup syncs the source documents and makes sure the classifier exists so
// the first review does not pay for it.
func (c *Container) Warmup(ctx context.Context) {
	if report, err := c.AdminService.SyncDocuments(ctx, ""); err != nil {
		c.Logger.Warn("BOOTSTRAP", "Initial document sync failed", map[string]interface{}{"error": err.Error()})
	} else {
		c.Logger.Info("BOOTSTRAP", "Initial document sync done", map[string]interface{}{
			"uploaded": len(report.Uploaded), "unchanged": len(report.Unchanged), "failed": len(report.Failed),
		})
	}
	if _, err := c.RiskService.EnsureClassifier(ctx); err != nil {
		c.Logger.Warn("BOOTSTRAP", "Failed to prepare the risk classifier", map[string]interface{}{"error": err.Error()})
	}
}

// Close releases the connections opened by NewContainer, last opened first.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
}

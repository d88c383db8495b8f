package bootstrap

import (
	"context"
	"log"
	"time"

	"github.com/thetahealth/mirobody-sub003/internal/config"
	"github.com/thetahealth/mirobody-sub003/internal/pkg/logger"
	"github.com/thetahealth/mirobody-sub003/internal/repository/memory"
	"github.com/thetahealth/mirobody-sub003/internal/repository/unitofwork"
	"github.com/thetahealth/mirobody-sub003/internal/service"
	"github.com/thetahealth/mirobody-sub003/pkg/extraction"
	"github.com/thetahealth/mirobody-sub003/pkg/fetch"
	"github.com/thetahealth/mirobody-sub003/pkg/fileparse"
	"github.com/thetahealth/mirobody-sub003/pkg/objstore"

	pktNats "github.com/thetahealth/mirobody-sub003/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Core Services
	StoreService     service.IStoreService
	FileCacheService service.IFileCacheService
	WorkspaceService service.IWorkspaceService
	IngestService    service.IIngestService
	LibraryService   service.ILibraryService

	// Queue entry point for producers feeding the ingest topic
	PublisherService service.IPublisherService

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService
	EventMonitor    *service.EventMonitorService

	Logger logger.ILogger
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 2.5 Infrastructure
	// NATS
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	}
	natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
	}

	// Redis
	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: cfg.App.RedisURL,
		}
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v", err)
	}

	// Workspace collaborators
	recordCache := memory.NewRecordCache(
		time.Duration(cfg.Workspace.CacheTTLSeconds)*time.Second,
		cfg.Workspace.CacheMaxEntries,
	)
	storageClient := objstore.NewHTTPClient(cfg.Storage.BaseURL, cfg.Storage.APIKey)
	downloader := fetch.NewDownloader()
	extractor := extraction.NewHTTPProvider(cfg.Extraction.BaseURL, cfg.Extraction.APIKey, cfg.Extraction.Model)
	parser := fileparse.NewStrategyParser(extractor)

	// 3. Services
	storeService := service.NewStoreService(uowFactory)
	fileCacheService := service.NewFileCacheService(uowFactory, cfg.FileCache.ReadEnabled)
	workspaceService := service.NewWorkspaceService(
		storeService,
		fileCacheService,
		recordCache,
		storageClient,
		downloader,
		parser,
	)
	ingestService := service.NewIngestService(
		workspaceService,
		fileCacheService,
		storageClient,
		downloader,
		parser,
		natsPub,
	)
	libraryService := service.NewLibraryService(uowFactory, workspaceService, storageClient, rdb)

	publisherService := service.NewPublisherService(cfg.Ingest.TopicName, pubSub)
	consumerService := service.NewConsumerService(pubSub, cfg.Ingest.TopicName, ingestService)

	// 3.5 Event Monitor (Worker)
	monitorLogger := logger.NewIsolatedLogger("logs/events.log")
	eventMonitor := service.NewEventMonitorService(natsSub, monitorLogger)
	if natsSub != nil {
		go eventMonitor.Start()
	}

	return &Container{
		StoreService:     storeService,
		FileCacheService: fileCacheService,
		WorkspaceService: workspaceService,
		IngestService:    ingestService,
		LibraryService:   libraryService,
		PublisherService: publisherService,
		ConsumerService:  consumerService,
		EventMonitor:     eventMonitor,
		Logger:           sysLogger,
	}
}

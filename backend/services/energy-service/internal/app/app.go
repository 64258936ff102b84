package app

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	libdb "ieoms/backend/libs/db"
	libredis "ieoms/backend/libs/redis"
	"ieoms/backend/services/energy-service/internal/clients"
	"ieoms/backend/services/energy-service/internal/config"
	"ieoms/backend/services/energy-service/internal/events"
	httpserver "ieoms/backend/services/energy-service/internal/http"
	"ieoms/backend/services/energy-service/internal/http/handlers"
	"ieoms/backend/services/energy-service/internal/http/middleware"
	redisstore "ieoms/backend/services/energy-service/internal/redis"
	"ieoms/backend/services/energy-service/internal/repository"
	"ieoms/backend/services/energy-service/internal/service"
	"ieoms/backend/services/energy-service/internal/upload"
)

// Core holds the pipeline shared by the HTTP service and the operator CLI.
type Core struct {
	DB        *sql.DB
	Store     *repository.Store
	Ingestion *service.IngestionService
	Reports   *service.ReportService
}

// NewCore opens the database and builds the ingestion and report services.
func NewCore(cfg *config.Config, notifier events.Notifier, logger *zap.Logger) (*Core, error) {
	pipeline, err := cfg.PipelineSettings()
	if err != nil {
		return nil, err
	}

	sqlDB, err := libdb.NewPostgresDB(cfg.Database.DSN, libdb.PoolOptions{
		MaxOpenConns: cfg.Database.MaxOpenConns,
		MaxIdleConns: cfg.Database.MaxIdleConns,
	})
	if err != nil {
		return nil, err
	}

	store := repository.NewStore(sqlDB)
	ingestion, err := service.NewIngestionService(
		service.NewSQLTransactor(store),
		upload.NewParser(cfg.UploadLocation()),
		upload.NewStager(cfg.Upload.Dir, cfg.Upload.MaxBytes),
		pipeline,
		nil,
		notifier,
		logger.Named("ingestion"),
	)
	if err != nil {
		sqlDB.Close()
		return nil, err
	}

	return &Core{
		DB:        sqlDB,
		Store:     store,
		Ingestion: ingestion,
		Reports:   service.NewReportService(store, cfg.Pipeline.CostPerKWh, pipeline.ModelVersionTag, logger.Named("reports")),
	}, nil
}

// Close releases the database.
func (c *Core) Close() error {
	if c.DB == nil {
		return nil
	}
	return c.DB.Close()
}

// App wires energy-service dependencies.
type App struct {
	server      *httpserver.Server
	core        *Core
	redisClient *redis.Client
	mqtt        *events.MQTTPublisher
	logger      *zap.Logger
}

// New constructs the application graph.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	a := &App{logger: logger}

	var cache *redisstore.RecommendationCache
	if cfg.Redis.Addr != "" {
		client, err := libredis.NewRedisClient(libredis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return nil, err
		}
		a.redisClient = client
		cache = redisstore.NewRecommendationCache(client, cfg.RecommendationTTL())
	}

	hub := events.NewHub(cfg.Events.PingInterval, cfg.Events.WriteTimeout, logger.Named("events"))
	notifiers := events.Multi{hub}
	if cache != nil {
		notifiers = append(notifiers, cache)
	}
	if cfg.MQTT.Broker != "" {
		publisher, err := events.NewMQTTPublisher(events.MQTTOptions{
			Broker:      cfg.MQTT.Broker,
			ClientID:    cfg.MQTT.ClientID,
			Username:    cfg.MQTT.Username,
			Password:    cfg.MQTT.Password,
			TopicPrefix: cfg.MQTT.TopicPrefix,
			QoS:         byte(cfg.MQTT.QoS),
		})
		if err != nil {
			a.Close()
			return nil, err
		}
		a.mqtt = publisher
		notifiers = append(notifiers, publisher)
	}

	core, err := NewCore(cfg, notifiers, logger)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("init core: %w", err)
	}
	a.core = core

	generator := clients.NewGeminiClient(
		cfg.Recommendations.BaseURL,
		cfg.Recommendations.Model,
		cfg.Recommendations.APIKey,
		cfg.Recommendations.Timeout,
		logger.Named("gemini"),
	)
	var recCache service.RecommendationCache
	if cache != nil {
		recCache = cache
	}
	recommendations := service.NewRecommendationService(core.Store, generator, recCache, cfg.Recommendations.Limit, logger.Named("recommendations"))

	router := httpserver.NewRouter(httpserver.RouterDeps{
		UploadHandler:          handlers.NewUploadHandler(core.Ingestion, cfg.Upload.MaxBytes, logger),
		EnergyHandlers:         handlers.NewEnergyHandlers(core.Reports, logger),
		RecommendationsHandler: handlers.NewRecommendationsHandler(recommendations, logger),
		EventsHandler:          handlers.NewEventsHandler(hub, logger),
		HealthHandler:          handlers.HealthHandler(core.DB),
	}, middleware.AuthMiddleware(cfg.JWT.Secret))

	a.server = httpserver.NewServer(cfg.HTTPAddress(), router, httpserver.Timeouts{
		Read:     cfg.HTTP.ReadTimeout,
		Write:    cfg.HTTP.WriteTimeout,
		Idle:     cfg.HTTP.IdleTimeout,
		Shutdown: cfg.HTTP.ShutdownTimeout,
	}, logger, middleware.Recover(logger), middleware.RequestLogger(logger))

	return a, nil
}

// Run starts HTTP server.
func (a *App) Run(ctx context.Context) error {
	return a.server.Run(ctx)
}

// Close releases resources.
func (a *App) Close() {
	if a.core != nil {
		if err := a.core.Close(); err != nil {
			a.logger.Warn("failed to close db", zap.Error(err))
		}
	}
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warn("failed to close redis", zap.Error(err))
		}
	}
	if a.mqtt != nil {
		a.mqtt.Close()
	}
}

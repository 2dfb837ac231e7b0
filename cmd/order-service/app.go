package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/sync/errgroup"

	"retailops/internal/activity"
	"retailops/internal/automation"
	"retailops/internal/config"
	"retailops/internal/constants"
	"retailops/internal/customers"
	"retailops/internal/idempotency"
	"retailops/internal/locking"
	"retailops/internal/logger"
	"retailops/internal/orders"
	sqlmigrations "retailops/migrations"
	"retailops/pkg/bootstrap"
	"retailops/pkg/health"
	"retailops/pkg/logging"
	"retailops/pkg/metrics"
	"retailops/pkg/middleware"
	"retailops/pkg/migrations"
	"retailops/pkg/models"
	"retailops/pkg/ratelimit"
	"retailops/pkg/tracing"
)

type App struct {
	*bootstrap.Base
	dbConnector *bootstrap.DatabaseConnector
	db          *sql.DB
	redis       *redis.Client
	mongoClient *mongo.Client
	activity    *activity.Service
	ruleCache   *automation.RuleCache
	service     orders.Service
	limiter     *ratelimit.Limiter
	server      *http.Server
}

func NewApp(cfg *config.Config, log logger.Logger) *App {
	if sugaredLogger, ok := log.(*logger.SugaredLogger); ok {
		sugaredLogger.SetServiceName(constants.ServiceNameOrder)
	}
	return &App{
		Base:        bootstrap.NewBase(cfg, log),
		dbConnector: bootstrap.NewDatabaseConnector(cfg, log),
	}
}

func (a *App) Initialize(ctx context.Context) error {
	initCtx, cancel := context.WithTimeout(ctx, constants.InitTimeout)
	defer cancel()

	tp, err := tracing.Init(a.Config.Tracing, constants.ServiceNameOrder)
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	a.OnShutdown("tracing", tp.Shutdown)
	a.OnShutdown("databases", func(ctx context.Context) error {
		return a.dbConnector.ShutdownDatabases(ctx, a.redis, a.db, a.mongoClient)
	})

	if err := a.initDatabases(initCtx); err != nil {
		return fmt.Errorf("failed to initialize databases: %w", err)
	}

	if err := a.InitBroker(initCtx, constants.ServiceNameOrder); err != nil {
		return fmt.Errorf("failed to initialize broker: %w", err)
	}

	metrics.RegisterAutomationMetrics()
	metrics.RegisterOrderMetrics()
	metrics.RegisterBrokerMetrics()
	if a.Config.CircuitBreaker.Enabled {
		metrics.RegisterCircuitBreakerMetrics()
	}

	if err := a.initService(initCtx); err != nil {
		return fmt.Errorf("failed to initialize service: %w", err)
	}

	a.initHTTPServer(initCtx)
	return nil
}

func (a *App) initDatabases(ctx context.Context) error {
	db, err := a.dbConnector.InitPostgreSQL(ctx)
	if err != nil {
		return err
	}
	a.db = db

	if a.Config.Database.RunMigrations {
		if err := migrations.RunPostgres(db, sqlmigrations.Postgres, sqlmigrations.PostgresDir, migrations.Up); err != nil {
			return err
		}
	}

	rdb, err := a.dbConnector.InitRedis(ctx)
	if err != nil {
		return err
	}
	a.redis = rdb

	mongoClient, err := a.dbConnector.InitMongoDB(ctx)
	if err != nil {
		a.Logger.WarnwCtx(ctx, "MongoDB connection failed, automation audit entries will be dropped", "error", err)
		return nil
	}
	if mongoClient != nil {
		a.mongoClient = mongoClient
		a.activity = activity.NewService(activity.NewRepository(a.dbConnector.MongoDatabase(mongoClient)), a.Logger)
	}
	return nil
}

func (a *App) initService(ctx context.Context) error {
	locker, err := locking.New(a.Config.Automation.Locking, a.redis, a.Logger)
	if err != nil {
		return err
	}

	var customerRepo customers.Repository = customers.NewRepository(a.db)
	if a.Config.Customers.Cache.Enabled && a.redis != nil {
		customerRepo = customers.NewCachedRepository(customerRepo, a.redis, a.Config.Customers.Cache, a.Config.CircuitBreaker, a.Logger)
	}

	customerOpts := []customers.ServiceOption{
		customers.WithLocker(locker),
		customers.WithLogger(a.Logger),
	}

	engineOpts := []automation.EngineOption{
		automation.WithLocker(locker),
		automation.WithLogger(a.Logger),
		automation.WithMissingEntityHook(a.logMissingEntity),
	}

	// A nil interface keeps the engine from calling a nil *activity.Service.
	var auditSink automation.AuditLogSink
	if a.activity != nil {
		auditSink = a.activity
		customerOpts = append(customerOpts, customers.WithActivity(a.activity))
	}

	engine, err := automation.NewEngine(customers.ForUpdate(customerRepo), auditSink, engineOpts...)
	if err != nil {
		return err
	}

	a.ruleCache = automation.NewRuleCache(automation.NewRepository(a.db, automation.WithRepositoryLogger(a.Logger)), a.Config.Automation.Reload, a.Logger)
	if err := a.ruleCache.Load(ctx); err != nil {
		return fmt.Errorf("failed to load automation rules: %w", err)
	}

	orderOpts := []orders.ServiceOption{
		orders.WithDispatcher(automation.NewDispatcher(engine, a.ruleCache, a.Logger)),
		orders.WithLogger(a.Logger),
	}
	if a.activity != nil {
		orderOpts = append(orderOpts, orders.WithActivity(a.activity))
	}
	if a.Producer != nil {
		orderOpts = append(orderOpts, orders.WithPublisher(orders.NewBrokerPublisher(a.Producer, a.Config.Broker.Kafka.OrderEventsTopic)))
	}
	if guard := a.newIdempotencyGuard(ctx); guard != nil {
		orderOpts = append(orderOpts, orders.WithIdempotency(guard))
	}

	a.service = orders.NewService(
		orders.NewRepository(a.db),
		customers.NewService(customerRepo, customerOpts...),
		orderOpts...,
	)
	return nil
}

func (a *App) newIdempotencyGuard(ctx context.Context) *idempotency.Service {
	cfg := a.Config.Orders.Idempotency
	if !cfg.Enabled {
		return nil
	}
	if a.redis == nil {
		a.Logger.WarnwCtx(ctx, "Idempotency enabled but Redis is not configured, Idempotency-Key headers will be ignored")
		return nil
	}

	var repo idempotency.Repository = idempotency.NewRepository(a.redis)
	if a.Config.CircuitBreaker.Enabled {
		repo = idempotency.NewCircuitBreakerRepository(repo, a.Config.CircuitBreaker)
		a.Logger.InfowCtx(ctx, "Circuit breaker enabled for idempotency repository")
	}
	return idempotency.NewService(repo, cfg, a.Logger)
}

func (a *App) logMissingEntity(ctx context.Context, rule automation.AutomationRule, entityType models.EntityType, entityID string) {
	a.Logger.InfowCtx(ctx, "Automation target not found, action skipped",
		"rule_id", rule.ID,
		"entity_type", entityType,
		"entity_id", entityID,
	)
}

func (a *App) initHTTPServer(ctx context.Context) {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	if a.Config.Tracing.Enabled {
		router.Use(tracing.GinMiddleware(constants.ServiceNameOrder))
	}

	router.Use(middleware.RecoveryMiddleware(a.Logger))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.UserIDMiddleware())
	router.Use(middleware.ServiceNameMiddleware(constants.ServiceNameOrder))
	router.Use(middleware.LoggerMiddleware(a.Logger))

	if a.Config.Orders.RateLimit.Enabled {
		a.limiter = ratelimit.New(ratelimit.FromConfig(a.Config.Orders.RateLimit))
		router.Use(a.limiter.Middleware())
		a.Logger.InfowCtx(ctx, "Rate limiting enabled",
			"rps", a.Config.Orders.RateLimit.RPS,
			"burst", a.Config.Orders.RateLimit.Burst,
		)
	}

	orders.NewHandler(a.service, a.Logger).RegisterRoutes(router)

	healthRegistry := health.NewCheckerRegistry()
	healthRegistry.Register(health.NewPostgreSQLChecker(a.db))
	if a.redis != nil {
		healthRegistry.Register(health.NewRedisChecker(a.redis))
	}
	if a.mongoClient != nil {
		healthRegistry.RegisterOptional(health.NewMongoDBChecker(a.mongoClient))
	}
	if a.Consumer != nil {
		healthRegistry.RegisterOptional(health.NewKafkaChecker(a.Config.Broker.Kafka.Brokers))
	}

	router.GET("/health", healthRegistry.Handler())
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	a.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:      router,
		ReadTimeout:  a.Config.Server.ReadTimeoutSeconds,
		WriteTimeout: a.Config.Server.WriteTimeoutSeconds,
	}
	a.OnShutdown("http server", a.server.Shutdown)
}

func (a *App) Run(ctx context.Context) error {
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.Logger.InfowCtx(ctx, "HTTP server starting", "port", a.Config.Server.Port)
		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		return a.ruleCache.StartReloader(gCtx)
	})

	if a.limiter != nil {
		g.Go(func() error {
			a.limiter.StartCleanup(gCtx)
			return nil
		})
	}

	if a.Consumer != nil && a.Config.Broker.Kafka.ConfigUpdateTopic != "" {
		configEventHandler := automation.NewHandler(a.ruleCache, a.Logger)
		topic := a.Config.Broker.Kafka.ConfigUpdateTopic

		g.Go(func() error {
			configCtx := logging.WithServiceName(gCtx, constants.ServiceNameOrder)
			a.Logger.InfowCtx(configCtx, "Starting config update event consumer", "topic", topic)
			return a.Consumer.Consume(gCtx, topic, func(cCtx context.Context, msg models.MessageEnvelope) error {
				return configEventHandler.HandleConfigUpdateEvent(cCtx, msg)
			})
		})
	}

	g.Go(func() error {
		<-gCtx.Done()
		shutdownCtx := logging.WithServiceName(context.WithoutCancel(ctx), constants.ServiceNameOrder)
		return a.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/sync/errgroup"

	"retailops/internal/activity"
	"retailops/internal/config"
	"retailops/internal/constants"
	"retailops/internal/customers"
	"retailops/internal/locking"
	"retailops/internal/logger"
	"retailops/internal/management"
	sqlmigrations "retailops/migrations"
	"retailops/pkg/bootstrap"
	"retailops/pkg/health"
	"retailops/pkg/metrics"
	"retailops/pkg/middleware"
	"retailops/pkg/migrations"
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
	limiter     *ratelimit.Limiter
	server      *http.Server
	router      *gin.Engine
}

func NewApp(cfg *config.Config, log logger.Logger) *App {
	if sugaredLogger, ok := log.(*logger.SugaredLogger); ok {
		sugaredLogger.SetServiceName(constants.ServiceNameManagement)
	}
	return &App{
		Base:        bootstrap.NewBase(cfg, log),
		dbConnector: bootstrap.NewDatabaseConnector(cfg, log),
	}
}

func (a *App) Initialize(ctx context.Context) error {
	initCtx, cancel := context.WithTimeout(ctx, constants.InitTimeout)
	defer cancel()

	tp, err := tracing.Init(a.Config.Tracing, constants.ServiceNameManagement)
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

	// Only the producer is used: rule changes flow out of this service.
	if err := a.InitBroker(initCtx, constants.ServiceNameManagement); err != nil {
		return fmt.Errorf("failed to initialize broker: %w", err)
	}

	metrics.RegisterManagementMetrics()
	metrics.RegisterCircuitBreakerMetrics()

	if err := a.initRouter(initCtx); err != nil {
		return fmt.Errorf("failed to initialize router: %w", err)
	}

	a.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:      a.router,
		ReadTimeout:  a.Config.Server.ReadTimeoutSeconds,
		WriteTimeout: a.Config.Server.WriteTimeoutSeconds,
	}
	a.OnShutdown("http server", a.server.Shutdown)
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
		a.Logger.InfowCtx(ctx, "PostgreSQL migrations applied")
	}

	rdb, err := a.dbConnector.InitRedis(ctx)
	if err != nil {
		return err
	}
	a.redis = rdb

	mongoClient, err := a.dbConnector.InitMongoDB(ctx)
	if err != nil {
		a.Logger.WarnwCtx(ctx, "MongoDB connection failed, continuing without activity feed", "error", err)
		return nil
	}
	if mongoClient != nil {
		a.mongoClient = mongoClient
		mongoDB := a.dbConnector.MongoDatabase(mongoClient)
		if err := migrations.EnsureActivityLogIndexes(ctx, mongoDB); err != nil {
			a.Logger.WarnwCtx(ctx, "Failed to ensure activity log indexes", "error", err)
		}
		a.activity = activity.NewService(activity.NewRepository(mongoDB), a.Logger)
	}
	return nil
}

func (a *App) initRouter(ctx context.Context) error {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	if a.Config.Tracing.Enabled {
		router.Use(tracing.GinMiddleware(constants.ServiceNameManagement))
	}

	router.Use(middleware.RecoveryMiddleware(a.Logger))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.UserIDMiddleware())
	router.Use(middleware.ServiceNameMiddleware(constants.ServiceNameManagement))
	router.Use(middleware.LoggerMiddleware(a.Logger))

	if a.Config.Management.RateLimit.Enabled {
		a.limiter = ratelimit.New(ratelimit.FromConfig(a.Config.Management.RateLimit))
		router.Use(a.limiter.Middleware())
		a.Logger.InfowCtx(ctx, "Rate limiting enabled",
			"rps", a.Config.Management.RateLimit.RPS,
			"burst", a.Config.Management.RateLimit.Burst,
		)
	}

	ruleOpts := []management.ServiceOption{
		management.WithVersioning(management.NewVersioningRepository(a.db)),
		management.WithLogger(a.Logger),
	}
	if a.Producer != nil {
		ruleOpts = append(ruleOpts, management.WithConfigEvents(
			management.NewConfigEventProducer(a.Producer, a.Config.Broker.Kafka.ConfigUpdateTopic),
		))
	}
	ruleService, err := management.NewService(management.NewRepository(a.db), ruleOpts...)
	if err != nil {
		return err
	}
	management.NewHandler(ruleService, a.Logger).RegisterRoutes(router)

	customerService, err := a.newCustomerService()
	if err != nil {
		return err
	}
	customers.NewHandler(customerService, a.Logger).RegisterRoutes(router)

	if a.activity != nil {
		activity.NewHandler(a.activity, a.Logger).RegisterRoutes(router)
	}

	healthRegistry := health.NewCheckerRegistry()
	healthRegistry.Register(health.NewPostgreSQLChecker(a.db))
	if a.redis != nil {
		healthRegistry.Register(health.NewRedisChecker(a.redis))
	}
	if a.mongoClient != nil {
		healthRegistry.RegisterOptional(health.NewMongoDBChecker(a.mongoClient))
	}
	if a.Producer != nil {
		healthRegistry.RegisterOptional(health.NewKafkaChecker(a.Config.Broker.Kafka.Brokers))
	}

	router.GET("/health", healthRegistry.Handler())
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	a.router = router
	return nil
}

// newCustomerService shares the customer lock with the order service's
// engine. Run the redis locking backend when both services are deployed.
func (a *App) newCustomerService() (customers.Service, error) {
	locker, err := locking.New(a.Config.Automation.Locking, a.redis, a.Logger)
	if err != nil {
		return nil, err
	}

	var repo customers.Repository = customers.NewRepository(a.db)
	if a.Config.Customers.Cache.Enabled && a.redis != nil {
		repo = customers.NewCachedRepository(repo, a.redis, a.Config.Customers.Cache, a.Config.CircuitBreaker, a.Logger)
	}

	opts := []customers.ServiceOption{
		customers.WithLocker(locker),
		customers.WithLogger(a.Logger),
	}
	if a.activity != nil {
		opts = append(opts, customers.WithActivity(a.activity))
	}
	return customers.NewService(repo, opts...), nil
}

func (a *App) Run(ctx context.Context) error {
	g, gCtx := errgroup.WithContext(ctx)

	if a.limiter != nil {
		g.Go(func() error {
			a.limiter.StartCleanup(gCtx)
			return nil
		})
	}

	g.Go(func() error {
		a.Logger.InfowCtx(ctx, "Server listening", "port", a.Config.Server.Port)
		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		return a.Shutdown(context.WithoutCancel(ctx))
	})

	return g.Wait()
}

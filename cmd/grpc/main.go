package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/fekuna/omnipos-sales-service/config"
	"github.com/fekuna/omnipos-sales-service/internal/cart"
	"github.com/fekuna/omnipos-sales-service/internal/catalog"
	catH "github.com/fekuna/omnipos-sales-service/internal/catalog/handler"
	catRepoPkg "github.com/fekuna/omnipos-sales-service/internal/catalog/repository"
	catUCPkg "github.com/fekuna/omnipos-sales-service/internal/catalog/usecase"
	"github.com/fekuna/omnipos-sales-service/internal/order"
	orderH "github.com/fekuna/omnipos-sales-service/internal/order/handler"
	orderRepoPkg "github.com/fekuna/omnipos-sales-service/internal/order/repository"
	orderUCPkg "github.com/fekuna/omnipos-sales-service/internal/order/usecase"
	"github.com/fekuna/omnipos-sales-service/internal/pkg/broker"
	"github.com/fekuna/omnipos-sales-service/internal/pkg/cache"
	"github.com/fekuna/omnipos-sales-service/internal/pkg/i18n"
	"github.com/fekuna/omnipos-sales-service/internal/pkg/logger"
	"github.com/fekuna/omnipos-sales-service/internal/pkg/memtx"
	"github.com/fekuna/omnipos-sales-service/internal/pkg/middleware"
	"github.com/fekuna/omnipos-sales-service/internal/pkg/postgres"
	"github.com/fekuna/omnipos-sales-service/internal/pkg/search"
	"github.com/fekuna/omnipos-sales-service/internal/returns"
	retH "github.com/fekuna/omnipos-sales-service/internal/returns/handler"
	retListenerPkg "github.com/fekuna/omnipos-sales-service/internal/returns/listener"
	retRepoPkg "github.com/fekuna/omnipos-sales-service/internal/returns/repository"
	retUCPkg "github.com/fekuna/omnipos-sales-service/internal/returns/usecase"
)

// stores bundles the repositories of one storage driver. Both UnitOfWork
// implementations satisfy the catalog and order interfaces.
type stores struct {
	uow     catalog.UnitOfWork
	catalog catalog.Repository
	orders  order.Repository
	returns returns.Repository
}

func main() {
	// 1. Load Configuration
	_ = godotenv.Load()
	cfg := config.LoadEnv()

	// 2. Initialize Logger
	logConfig := &logger.ZapLoggerConfig{
		Encoding:          cfg.Logger.Encoding,
		Level:             cfg.Logger.Level,
		DisableCaller:     cfg.Logger.DisableCaller,
		DisableStacktrace: cfg.Logger.DisableStacktrace,
	}
	if cfg.Server.AppEnv == "development" || cfg.Server.AppEnv == "dev" {
		logConfig.IsDevelopment = true
	}
	appLogger := logger.NewZapLogger(logConfig)
	defer appLogger.Sync()

	// 3. Initialize i18n
	translator, err := i18n.New(cfg.Server.DefaultLocale)
	if err != nil {
		log.Fatalf("failed to load locales: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 4. Storage
	st, closeStore := openStores(ctx, cfg, appLogger)
	defer closeStore()

	// 5. Initialize Redis
	var reportCache cache.Cache = cache.NewLocalCache()
	if cfg.Redis.Enabled {
		redisClient, err := cache.NewRedisClient(&cache.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			appLogger.Warn("Could not connect to Redis, using in-process cache and locks", zap.Error(err))
		} else {
			defer redisClient.Close()
			reportCache = redisClient
			appLogger.Info("Connected to Redis", zap.String("addr", cfg.Redis.Addr))
		}
	}

	// 6. Initialize Elasticsearch
	var esClient *search.Client
	if cfg.Elastic.Enabled {
		esClient, err = search.NewClient(&search.Config{
			Addresses: cfg.Elastic.Addresses,
			Username:  cfg.Elastic.Username,
			Password:  cfg.Elastic.Password,
		})
		if err == nil {
			err = catUCPkg.EnsureIndex(ctx, esClient, cfg.Elastic.Index)
		}
		if err != nil {
			appLogger.Warn("Could not connect to Elasticsearch (batch search falls back to the database)", zap.Error(err))
			esClient = nil
		} else {
			appLogger.Info("Connected to Elasticsearch", zap.Strings("addresses", cfg.Elastic.Addresses))
		}
	}

	// 7. Initialize UseCases
	catUC := catUCPkg.NewCatalogUseCase(st.catalog, st.uow, esClient, cfg.Elastic.Index, appLogger)

	orderDeps := orderUCPkg.Deps{
		Repo:    st.orders,
		UoW:     st.uow,
		Stock:   catUC,
		Cache:   reportCache,
		Logger:  appLogger,
		LockTTL: cfg.Sales.CheckoutLockTTL,
	}
	var returnsConsumer *broker.KafkaConsumer
	if cfg.Kafka.Enabled {
		producer := broker.NewProducer(&broker.Config{Brokers: cfg.Kafka.Brokers, Topic: cfg.Kafka.SalesTopic})
		defer producer.Close()
		orderDeps.Publisher = producer

		returnsConsumer = broker.NewConsumer(&broker.Config{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.ReturnsTopic,
			GroupID: cfg.Kafka.ReturnsGroup,
		})
		defer returnsConsumer.Close()
		appLogger.Info("Kafka enabled", zap.Strings("brokers", cfg.Kafka.Brokers),
			zap.String("sales_topic", cfg.Kafka.SalesTopic), zap.String("returns_topic", cfg.Kafka.ReturnsTopic))
	}
	orderUC := orderUCPkg.NewOrderUseCase(orderDeps)
	returnsUC := retUCPkg.NewReturnsUseCase(st.returns, st.orders, reportCache, cfg.Sales.ReportCacheTTL, appLogger)

	// 8. Initialize Handlers
	salesHandler := orderH.NewSalesHandler(cart.NewRegistry(catUC), catUC, orderUC, translator, appLogger)
	catalogHandler := catH.NewCatalogHandler(catUC, translator, appLogger)
	reportHandler := retH.NewReportHandler(returnsUC, translator, appLogger)
	secret := []byte(cfg.JWT.SecretKey)

	// 9. gRPC Server
	grpcLis, err := net.Listen("tcp", addr(cfg.Server.GRPCPort))
	if err != nil {
		appLogger.Fatal("failed to listen", zap.Error(err))
	}
	grpcServer := grpc.NewServer(grpc.UnaryInterceptor(middleware.ContextInterceptor(secret)))
	orderH.RegisterSalesServiceServer(grpcServer, salesHandler)
	catH.RegisterCatalogServiceServer(grpcServer, catalogHandler)
	healthServer := health.NewServer()
	healthServer.SetServingStatus(orderH.ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(catH.ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	reflection.Register(grpcServer)

	// 10. HTTP Server
	httpServer := &http.Server{
		Addr:              addr(cfg.Server.HTTPPort),
		Handler:           reportHandler.Routes(secret),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		appLogger.Info("Starting gRPC server", zap.String("port", cfg.Server.GRPCPort))
		return grpcServer.Serve(grpcLis)
	})
	g.Go(func() error {
		appLogger.Info("Starting HTTP server", zap.String("port", cfg.Server.HTTPPort))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	if returnsConsumer != nil {
		listener := retListenerPkg.NewReturnsListener(returnsConsumer, returnsUC, appLogger)
		g.Go(func() error {
			listener.Start(gctx)
			return nil
		})
	}

	// Graceful Shutdown
	g.Go(func() error {
		<-gctx.Done()
		appLogger.Info("Shutting down server...")
		healthServer.Shutdown()
		grpcServer.GracefulStop()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		appLogger.Error("server stopped with error", zap.Error(err))
		return
	}
	appLogger.Info("Server stopped")
}

func openStores(ctx context.Context, cfg *config.Config, appLogger logger.ZapLogger) (*stores, func()) {
	switch cfg.Storage.Driver {
	case config.StorageDriverMemory:
		appLogger.Warn("Using in-memory storage, data is lost on restart")
		return &stores{
			uow:     memtx.NewUnitOfWork(),
			catalog: catRepoPkg.NewMemoryRepository(),
			orders:  orderRepoPkg.NewMemoryRepository(),
			returns: retRepoPkg.NewMemoryRepository(),
		}, func() {}

	case config.StorageDriverPostgres:
		db, err := connectPostgres(cfg)
		if err != nil {
			appLogger.Fatal("Could not connect to database", zap.Error(err))
		}
		if err := postgres.Migrate(ctx, db); err != nil {
			appLogger.Fatal("Could not apply schema", zap.Error(err))
		}
		appLogger.Info("Connected to PostgreSQL database", zap.String("db_name", cfg.Postgres.DBName))
		return &stores{
			uow:     postgres.NewTxManager(db),
			catalog: catRepoPkg.NewPGRepository(db),
			orders:  orderRepoPkg.NewPGRepository(db),
			returns: retRepoPkg.NewPGRepository(db),
		}, func() { _ = db.Close() }

	default:
		appLogger.Fatal("unknown storage driver", zap.String("driver", cfg.Storage.Driver))
		return nil, nil
	}
}

func connectPostgres(cfg *config.Config) (*sqlx.DB, error) {
	return postgres.NewPostgres(&postgres.Config{
		Host:            cfg.Postgres.Host,
		Port:            cfg.Postgres.Port,
		User:            cfg.Postgres.User,
		Password:        cfg.Postgres.Password,
		DBName:          cfg.Postgres.DBName,
		SSLMode:         cfg.Postgres.SSLMode,
		MaxOpenConns:    cfg.Postgres.MaxOpenConns,
		MaxIdleConns:    cfg.Postgres.MaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.Postgres.ConnMaxLifetime) * time.Second,
		ConnMaxIdleTime: time.Duration(cfg.Postgres.ConnMaxIdleTime) * time.Second,
	})
}

func addr(port string) string {
	if !strings.HasPrefix(port, ":") && !strings.Contains(port, ":") {
		return ":" + port
	}
	return port
}

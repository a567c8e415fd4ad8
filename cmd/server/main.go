package main

import (
	"context"
	"database/sql"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/rentspace/messaging/internal/application"
	"github.com/rentspace/messaging/internal/auth"
	"github.com/rentspace/messaging/internal/config"
	"github.com/rentspace/messaging/internal/dispatcher"
	"github.com/rentspace/messaging/internal/kafka"
	"github.com/rentspace/messaging/internal/observability"
	"github.com/rentspace/messaging/internal/presence"
	"github.com/rentspace/messaging/internal/profile"
	"github.com/rentspace/messaging/internal/repository"
	badgerstore "github.com/rentspace/messaging/internal/repository/badger"
	"github.com/rentspace/messaging/internal/repository/postgres"
	"github.com/rentspace/messaging/internal/server"
	grpctransport "github.com/rentspace/messaging/internal/transport/grpc"
	httptransport "github.com/rentspace/messaging/internal/transport/http"
	"github.com/rentspace/messaging/internal/websocket"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		observability.InitLogger("messaging-service")
		observability.Log.Fatal("invalid configuration", zap.Error(err))
	}

	// Observability
	observability.InitLogger(cfg.ServiceName)
	log := observability.Log
	defer log.Sync()

	if cfg.TracingEnabled {
		tp, err := observability.InitTracer(cfg.ServiceName, cfg.JaegerURL)
		if err != nil {
			log.Fatal("failed to initialize tracer", zap.Error(err))
		}
		defer tp.Shutdown(context.Background())
	}

	ctx, cancel := setupSignalHandler(log)
	defer cancel()

	instanceID := getOrGenerateInstanceID(cfg.InstanceID)
	checks := map[string]observability.Checker{}

	// Storage
	store, db, closeStore := initStore(ctx, cfg, log)
	defer closeStore()
	checks["store"] = store.Ping

	// Presence
	reg := presence.NewRegistry()
	status := &presence.StatusReader{Registry: reg}
	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = initRedis(ctx, cfg.RedisAddr, log)
		defer redisClient.Close()
		status.Mirror = presence.NewMirror(redisClient, instanceID)
		checks["redis"] = status.Mirror.Ping
	}

	profiles := initProfiles(db, redisClient)

	app := application.New(application.Deps{
		Store:    store,
		Notifier: dispatcher.New(reg),
		Presence: reg,
		Profiles: profiles,
		Status:   status,
		Logger:   log,
	})

	verifier := auth.NewVerifier(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAudience)

	var wsMirror websocket.Mirror
	if status.Mirror != nil {
		wsMirror = status.Mirror
	}
	wsHandler := websocket.NewHandler(reg, wsMirror, verifier)

	if redisClient != nil {
		watcher := presence.NewWatcher(redisClient, reg, instanceID, wsHandler.Evict)
		if err := watcher.Start(ctx); err != nil {
			log.Fatal("failed to subscribe to presence updates", zap.Error(err))
		}
	}

	// Kafka Consumer
	consumer := initKafka(ctx, cfg, app, profiles, log)
	if consumer != nil {
		defer consumer.Close()
	}

	// Servers
	router := httptransport.NewRouter(
		httptransport.RouterConfig{
			ServiceName:       cfg.ServiceName,
			RateLimitRequests: cfg.RateLimitRequests,
			RateLimitWindow:   cfg.RateLimitWindow,
			RequestTimeout:    cfg.RequestTimeout,
			InternalToken:     cfg.InternalToken,
		},
		httptransport.NewMessageHandler(app),
		httptransport.NewPresenceHandler(status),
		httptransport.NewNotifyHandler(app),
		wsHandler,
		verifier,
		checks,
	)

	obsSrv := initObservabilityServer(cfg, checks)
	mainSrv := server.New(cfg.HTTPAddr, router, log)
	grpcSrv := grpctransport.New(app, log)

	startServers(cfg, obsSrv, mainSrv, grpcSrv, log)

	<-ctx.Done()
	performGracefulShutdown(obsSrv, mainSrv, grpcSrv, wsHandler, log)
}

func setupSignalHandler(log *zap.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Info("received signal, initiating shutdown", zap.String("signal", sig.String()))
		cancel()
	}()
	return ctx, cancel
}

func getOrGenerateInstanceID(id string) string {
	if id == "" {
		return uuid.NewString()
	}
	return id
}

func initStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (repository.MessageStore, *sql.DB, func()) {
	switch cfg.StoreDriver {
	case config.DriverBadger:
		s, err := badgerstore.Open(cfg.BadgerPath)
		if err != nil {
			log.Fatal("failed to open badger store", zap.String("path", cfg.BadgerPath), zap.Error(err))
		}
		log.Info("using badger message store", zap.String("path", cfg.BadgerPath))
		return s, nil, func() { closeQuietly(s, log) }
	default:
		db, err := postgres.NewDB(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatal("failed to connect to postgres", zap.Error(err))
		}
		if err := postgres.Migrate(ctx, db); err != nil {
			log.Fatal("failed to migrate schema", zap.Error(err))
		}
		log.Info("using postgres message store")
		return postgres.New(db), db, func() { closeQuietly(db, log) }
	}
}

func closeQuietly(c io.Closer, log *zap.Logger) {
	if err := c.Close(); err != nil {
		log.Warn("close failed", zap.Error(err))
	}
}

func initRedis(ctx context.Context, addr string, log *zap.Logger) *redis.Client {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}
	return client
}

func initProfiles(db *sql.DB, redisClient *redis.Client) profile.Directory {
	if db == nil {
		return profile.StaticDirectory{}
	}
	var dir profile.Directory = &profile.PostgresDirectory{DB: db}
	if redisClient != nil {
		dir = &profile.CachedDirectory{R: redisClient, Next: dir}
	}
	return dir
}

func initKafka(ctx context.Context, cfg *config.Config, app *application.Service, profiles profile.Directory, log *zap.Logger) *kafka.Consumer {
	if len(cfg.KafkaBrokers) == 0 {
		log.Info("kafka disabled: no brokers configured")
		return nil
	}

	router := kafka.NewTopicRouter(kafka.NewNotificationHandler(app))
	if cached, ok := profiles.(*profile.CachedDirectory); ok && cfg.KafkaProfileTopic != "" {
		router.Route(cfg.KafkaProfileTopic, kafka.NewProfileHandler(cached))
	}

	consumer, err := kafka.New(cfg.KafkaBrokers, router.Topics(cfg.KafkaTopics), router)
	if err != nil {
		log.Fatal("failed to create kafka consumer", zap.Error(err))
	}
	consumer.Start(ctx)
	return consumer
}

func initObservabilityServer(cfg *config.Config, checks map[string]observability.Checker) *http.Server {
	mux := chi.NewRouter()
	mux.Use(observability.MetricsMiddleware(cfg.ServiceName))
	mux.Handle("/metrics", promhttp.Handler())
	mux.Get("/health/live", observability.HealthLiveHandler)
	mux.Get("/health/ready", observability.HealthReadyHandler(checks))
	return &http.Server{Addr: cfg.ObsHTTPAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
}

func startServers(cfg *config.Config, obsSrv *http.Server, mainSrv *server.Server, grpcSrv *grpctransport.Server, log *zap.Logger) {
	go func() {
		log.Info("starting observability server", zap.String("addr", cfg.ObsHTTPAddr))
		if err := obsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("observability server error", zap.Error(err))
		}
	}()
	go func() {
		if err := mainSrv.Start(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server error", zap.Error(err))
		}
	}()
	go func() {
		if err := grpcSrv.Start(cfg.GRPCAddr); err != nil {
			log.Fatal("grpc server error", zap.Error(err))
		}
	}()
}

func performGracefulShutdown(obs *http.Server, mainSrv *server.Server, grpcSrv *grpctransport.Server, ws *websocket.Handler, log *zap.Logger) {
	log.Info("shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := mainSrv.Shutdown(ctx); err != nil {
		log.Error("error during main server shutdown", zap.Error(err))
	}
	// Sessions must finish their offline writes before redis is closed.
	if err := ws.Drain(ctx); err != nil {
		log.Warn("websocket sessions still draining", zap.Error(err))
	}
	if err := obs.Shutdown(ctx); err != nil {
		log.Error("error during observability server shutdown", zap.Error(err))
	}
	grpcSrv.Stop()
	log.Info("shutdown complete, exiting")
}

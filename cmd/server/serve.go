package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"google.golang.org/grpc"

	"github.com/rl1809/garage-ledger/internal/adapter/events"
	"github.com/rl1809/garage-ledger/internal/adapter/handler"
	"github.com/rl1809/garage-ledger/internal/adapter/storage"
	"github.com/rl1809/garage-ledger/internal/core/service"
	"github.com/rl1809/garage-ledger/internal/metrics"
	"github.com/rl1809/garage-ledger/internal/port"
)

const shutdownTimeout = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP and gRPC servers and the stock alert workers",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	m := metrics.New(metricsNamespace(cfg.ServiceName))

	// MySQL
	store, db, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer db.Close()
	logger.Info("connected to mysql")

	// Redis
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	})
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return err
	}
	logger.Info("connected to redis", zap.String("addr", cfg.Redis.Addr))
	cache := storage.NewRedisAdapter(rdb)

	publisher, closePublisher := newAlertPublisher()
	defer closePublisher()

	roles, err := cfg.Roles()
	if err != nil {
		return err
	}

	dispatcher := service.NewAlertDispatcher(publisher, cache, cfg.Alerts.QueueSize, cfg.Alerts.PublishTimeout, logger, m)
	dispatcher.Start(cfg.Alerts.Workers)
	logger.Info("started alert workers", zap.Int("workers", cfg.Alerts.Workers))

	users := service.NewUserService(store, logger)
	dashboard := service.NewDashboardService(store, store, cache, roles, cfg.SummaryCacheTTL, logger, m)
	httpHandler := handler.NewHTTPHandler(
		service.NewWorkOrderService(store, cache, logger, m),
		service.NewInventoryService(store, cache, dispatcher, logger, m),
		users,
		dashboard,
		logger,
		m,
	)

	// gRPC
	grpcServer := grpc.NewServer(grpc.ChainUnaryInterceptor(
		handler.LoggingInterceptor(logger, m),
		handler.AuthInterceptor(users),
	))
	handler.RegisterDashboardServer(grpcServer, handler.NewGRPCHandler(dashboard))

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		dispatcher.Close()
		return err
	}

	serverErr := make(chan error, 2)
	go func() {
		logger.Info("gRPC server listening", zap.String("addr", cfg.GRPCAddr))
		if err := grpcServer.Serve(lis); err != nil {
			serverErr <- err
		}
	}()

	// HTTP
	if !logger.Core().Enabled(zapcore.DebugLevel) {
		gin.SetMode(gin.ReleaseMode)
	}
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           httpHandler.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("HTTP server listening", zap.String("addr", cfg.HTTPAddr))
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case runErr = <-serverErr:
		logger.Error("server failed, shutting down", zap.Error(runErr))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("HTTP shutdown", zap.Error(err))
	}
	logger.Info("HTTP server stopped")

	grpcServer.GracefulStop()
	logger.Info("gRPC server stopped")

	dispatcher.Close()
	logger.Info("alert workers stopped")

	return runErr
}

// newAlertPublisher connects to RabbitMQ when a URL is configured. Without
// one, or when the broker is unreachable, alerts are only logged.
func newAlertPublisher() (port.AlertPublisher, func()) {
	if cfg.RabbitMQ.URL == "" {
		logger.Warn("RABBITMQ_URL not set, stock alerts will only be logged")
		return events.NewLogPublisher(logger), func() {}
	}
	publisher, err := events.NewRabbitMQPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange, cfg.ServiceName, logger)
	if err != nil {
		logger.Warn("rabbitmq unavailable, stock alerts will only be logged", zap.Error(err))
		return events.NewLogPublisher(logger), func() {}
	}
	logger.Info("connected to rabbitmq", zap.String("exchange", cfg.RabbitMQ.Exchange))
	return publisher, publisher.Close
}

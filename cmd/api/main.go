package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/tmc/langchaingo/llms"
	"go.uber.org/zap"

	"sufikitchen/pkg/cart"
	cartmem "sufikitchen/pkg/cart/memory"
	cartpg "sufikitchen/pkg/cart/postgres"
	cartredis "sufikitchen/pkg/cart/redis"
	"sufikitchen/pkg/cart/sqlite"
	"sufikitchen/pkg/catalog"
	"sufikitchen/pkg/config"
	"sufikitchen/pkg/content"
	"sufikitchen/pkg/logger"
	"sufikitchen/pkg/metrics"
	"sufikitchen/pkg/notify"
	"sufikitchen/pkg/notify/sendgrid"
	"sufikitchen/pkg/order"
	ordermem "sufikitchen/pkg/order/memory"
	orderpg "sufikitchen/pkg/order/postgres"
	"sufikitchen/pkg/otel"
)

// @title Sufi's Kitchen API
// @version 1.0
// @description Menu, session cart, checkout and AI content for Sufi's Kitchen
// @host localhost:8443
// @BasePath /
func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_FILE"), "path to YAML config")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	log := logger.New(os.Stdout, level, cfg.ServiceName)
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tp, shutdownTracing, err := otel.InitTracing(log, otel.Config{
		ServiceName: cfg.ServiceName,
		Host:        cfg.Tracing.Host,
		Probability: cfg.Tracing.Probability,
	})
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer shutdownTracing(context.Background())

	var db *sql.DB
	if cfg.DatabaseURL != "" {
		db, err = sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("db connect: %w", err)
		}
		defer db.Close()
	}

	storage, closeStorage, err := openCartStorage(ctx, cfg, db)
	if err != nil {
		return err
	}
	defer closeStorage()

	repo, err := openOrderRepository(ctx, cfg, db)
	if err != nil {
		return err
	}

	var sessions *cart.Sessions
	m := metrics.New(func() int { return sessions.Len() })
	sessions = cart.NewSessions(storage, log,
		cart.WithObserver(m),
		cart.WithWriteTimeout(cfg.Cart.WriteTimeout))
	if cfg.Cart.IdleTimeout > 0 {
		go sessions.Run(ctx, cfg.Cart.IdleTimeout, cfg.Cart.IdleTimeout/4)
	}

	notifier, err := newNotifier(cfg, log)
	if err != nil {
		return err
	}

	srv := &Server{
		menu:     catalog.Default(),
		sessions: sessions,
		orders:   order.NewService(repo, notifier, log, order.WithRecorder(m)),
		metrics:  m.Handler(),
		tracer:   tp.Tracer(cfg.ServiceName),
		log:      log,
	}
	if cfg.AI.APIKey != "" {
		model, err := content.NewOpenAI(cfg.AI.APIKey, cfg.AI.BaseURL, cfg.AI.Model)
		if err != nil {
			return err
		}
		srv.content = content.New(model, log,
			content.WithRecorder(m),
			content.WithCallOptions(
				llms.WithTemperature(cfg.AI.Temperature),
				llms.WithMaxTokens(cfg.AI.MaxTokens)))
	} else {
		log.Warn("OPENAI_API_KEY not set, /ai endpoints disabled")
	}

	httpServer := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", cfg.ListenAddr), zap.Bool("tls", cfg.TLS.CertFile != ""))
		if cfg.TLS.CertFile != "" {
			errCh <- httpServer.ListenAndServeTLS(cfg.TLS.CertFile, cfg.TLS.KeyFile)
			return
		}
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Error("server closed", zap.Error(err))
		}
	case <-ctx.Done():
		log.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown", zap.Error(err))
	}
	if err := sessions.Close(shutdownCtx); err != nil {
		log.Error("flush carts", zap.Error(err))
	}
	return nil
}

func openCartStorage(ctx context.Context, cfg config.Config, db *sql.DB) (cart.Storage, func(), error) {
	noop := func() {}
	switch cfg.Cart.Backend {
	case config.BackendMemory:
		return cartmem.New(), noop, nil
	case config.BackendRedis:
		client := redis.NewClient(&redis.Options{Addr: cfg.Cart.RedisAddr})
		return cartredis.New(client, cfg.Cart.RedisTTL), func() { client.Close() }, nil
	case config.BackendPostgres:
		if _, err := db.ExecContext(ctx, cartpg.Schema); err != nil {
			return nil, nil, fmt.Errorf("create cart table: %w", err)
		}
		return cartpg.New(db), noop, nil
	default:
		s, err := sqlite.Open(ctx, cfg.Cart.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { s.Close() }, nil
	}
}

func openOrderRepository(ctx context.Context, cfg config.Config, db *sql.DB) (order.Repository, error) {
	if cfg.Orders.Repository != config.BackendPostgres {
		return ordermem.New(), nil
	}
	if _, err := db.ExecContext(ctx, orderpg.Schema); err != nil {
		return nil, fmt.Errorf("create orders table: %w", err)
	}
	return orderpg.New(db), nil
}

func newNotifier(cfg config.Config, log *zap.Logger) (order.Notifier, error) {
	if cfg.Orders.SendGridAPIKey == "" {
		log.Warn("SENDGRID_API_KEY not set, order notifications are logged only")
		return notify.LogNotifier{Log: log}, nil
	}
	return sendgrid.New(sendgrid.Config{
		APIKey:     cfg.Orders.SendGridAPIKey,
		From:       cfg.Orders.From,
		To:         cfg.Orders.To,
		CC:         cfg.Orders.CC,
		MaxRetries: cfg.Orders.MaxRetries,
	}, log)
}

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"civicledger/backend/internal/ai"
	"civicledger/backend/internal/analysis"
	"civicledger/backend/internal/api/handler"
	"civicledger/backend/internal/audit"
	"civicledger/backend/internal/complaint"
	"civicledger/backend/internal/config"
	"civicledger/backend/internal/feed"
	"civicledger/backend/internal/filestore"
	"civicledger/backend/internal/localization"
	"civicledger/backend/internal/logger"
	"civicledger/backend/internal/metrics"
	"civicledger/backend/internal/resolution"
	"civicledger/backend/internal/storage"
	"civicledger/backend/internal/telegram"
)

const tokenTTL = 72 * time.Hour

func setupStorage(cfg *config.Config, log logrus.FieldLogger) (storage.Storage, error) {
	if cfg.StorageDriver == "memory" {
		log.Warn("Using in-memory storage; data is lost on restart")
		return storage.NewMemoryStore(), nil
	}

	db, err := gorm.Open(postgres.Open(cfg.DB.DSN()), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect PostgreSQL: %w", err)
	}
	s := storage.NewStorageService(db)
	if err := s.Migrate(); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	log.Info("Database connection established, migrations complete")
	return s, nil
}

// setupRedis returns nil when REDIS_ADDR is unset; the audit cache and the
// cross-instance feed are then disabled.
func setupRedis(ctx context.Context, cfg config.RedisConfig, log logrus.FieldLogger) (*storage.RedisStore, error) {
	if cfg.Addr == "" {
		log.Info("REDIS_ADDR not set, running without cache and feed fan-out")
		return nil, nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	rs := storage.NewRedisStore(rdb, "civicledger:")
	if err := rs.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect Redis: %w", err)
	}
	return rs, nil
}

func setupFiles(ctx context.Context, cfg config.FileConfig) (filestore.Store, error) {
	if cfg.Backend == "s3" {
		return filestore.NewS3Store(ctx, filestore.S3Config{
			Bucket:   cfg.S3Bucket,
			Region:   cfg.S3Region,
			Endpoint: cfg.S3Endpoint,
			Prefix:   cfg.S3Prefix,
		})
	}
	return filestore.NewLocalStore(cfg.UploadDir)
}

func run(ctx context.Context, cfg *config.Config, log *logrus.Entry) error {
	store, err := setupStorage(cfg, log)
	if err != nil {
		return err
	}
	rs, err := setupRedis(ctx, cfg.Redis, log)
	if err != nil {
		return err
	}
	files, err := setupFiles(ctx, cfg.Files)
	if err != nil {
		return err
	}
	policyCfg, err := config.LoadPolicy(cfg.PolicyFile)
	if err != nil {
		return err
	}
	loc, err := localization.NewLocalizer(cfg.LocalesDir)
	if err != nil {
		return err
	}

	policy := analysis.NewPolicy(policyCfg)
	evaluator := policy.Strict()
	if !cfg.StrictPolicy {
		evaluator = policy.Standard()
	}
	m := metrics.New()
	gemini := ai.NewGeminiClient(cfg.Gemini.APIKey, cfg.Gemini.Model, cfg.Gemini.BaseURL, cfg.Gemini.Timeout, log.WithField("component", "gemini"))

	complaints := complaint.NewService(store, policy, gemini, gemini, files, log.WithField("component", "complaint"))
	machine := complaint.NewMachine(policy.FraudPenalty())
	workflow := resolution.NewWorkflow(store, machine, evaluator, gemini, files, m, log.WithField("component", "resolution"))
	standardWorkflow := resolution.NewWorkflow(store, machine, policy.Standard(), gemini, files, m, log.WithField("component", "resolution"))
	query := audit.NewQuery(store, policy, log.WithField("component", "audit"))

	var broker feed.Broker
	if rs != nil {
		query.WithCache(rs, cfg.AuditCacheTTL)
		broker = rs
	}
	hub := feed.NewHub(broker, log.WithField("component", "feed"))

	observers := []complaint.Observer{m, query, hub}

	g, ctx := errgroup.WithContext(ctx)

	if cfg.Telegram.Token != "" {
		bot, err := telegram.NewBotAPI(cfg.Telegram.Token, log)
		if err != nil {
			return err
		}
		tgLog := log.WithField("component", "telegram")
		observers = append(observers, telegram.NewNotifier(bot, cfg.Telegram.AlertChatID, loc, tgLog))
		botService := telegram.NewBotService(bot, query, loc, tgLog)
		g.Go(func() error { return botService.Run(ctx) })
	} else {
		log.Info("TELEGRAM_BOT_TOKEN not set, Telegram alerts and /audit bot disabled")
	}

	complaints.Observe(observers...)
	workflow.Observe(observers...)
	standardWorkflow.Observe(observers...)

	h := handler.NewHandler(complaints, workflow, query, store, files, hub,
		handler.NewTokenIssuer(cfg.JWTSecret, tokenTTL), loc, log.WithField("component", "http"))
	h.StandardResolver = standardWorkflow
	server := &http.Server{
		Addr:           cfg.HTTPAddr,
		Handler:        handler.NewRouter(h, handler.NewRateLimiter(cfg.PreviewPerMin), m.GinMiddleware(), m.Handler()),
		ReadTimeout:    30 * time.Second,
		WriteTimeout:   60 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	g.Go(func() error { return hub.Run(ctx) })
	g.Go(func() error {
		log.WithField("addr", cfg.HTTPAddr).Info("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownWindow)
		defer cancel()
		log.Info("Shutting down HTTP server")
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log := logger.New("civicledger-backend", cfg.LogLevel)
	log.Info("Starting CivicLedger backend")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.WithError(err).Fatal("Backend stopped with error")
	}
	log.Info("Backend stopped")
}

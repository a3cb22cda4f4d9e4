package main

import (
	"context"
	"fmt"
	"os"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"civicledger/backend/internal/analysis"
	"civicledger/backend/internal/config"
	"civicledger/backend/internal/logger"
	"civicledger/backend/internal/storage"
)

var rootCmd = &cobra.Command{
	Use:   "admin",
	Short: "Operator commands for the CivicLedger backend",
	Long:  "admin runs maintenance tasks against the CivicLedger database:\nmigrations, officer seeding, soft delete and restore, proof verification and token minting.",
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(restoreCmd)
	rootCmd.AddCommand(listDeletedCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(tokenCmd)
}

// env is what every command needs: configuration, a logger and the
// Postgres store. redis is nil when REDIS_ADDR is unset.
type env struct {
	cfg    *config.Config
	log    *logrus.Entry
	store  *storage.Service
	policy *analysis.Policy
	redis  *storage.RedisStore
}

func openEnv() (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	log := logger.New("civicledger-admin", cfg.LogLevel)

	db, err := gorm.Open(postgres.Open(cfg.DB.DSN()), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}
	policyCfg, err := config.LoadPolicy(cfg.PolicyFile)
	if err != nil {
		return nil, err
	}
	e := &env{
		cfg:    cfg,
		log:    log,
		store:  storage.NewStorageService(db),
		policy: analysis.NewPolicy(policyCfg),
	}

	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		// Same prefix as the API so cache keys and the feed channel line up.
		rs := storage.NewRedisStore(rdb, "civicledger:")
		if err := rs.Ping(context.Background()); err != nil {
			return nil, fmt.Errorf("failed to connect Redis: %w", err)
		}
		e.redis = rs
	}
	return e, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

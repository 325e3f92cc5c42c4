package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"arbScope/internal/bundle"
	rediscache "arbScope/internal/cache/redis"
	"arbScope/internal/config"
	"arbScope/internal/etherscan"
	"arbScope/internal/indexer"
)

func main() {
	root := &cobra.Command{
		Use:          "arbscope",
		Short:        "Rocket arb bundle classifier",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Classify deposits since the last persisted block",
		RunE:  runClassifier,
	}

	addSourceFlags(runCmd.Flags())
	addStoreFlags(runCmd.Flags())
	runCmd.Flags().Uint64("from", 0, "start block (inclusive), 0 resumes from the store")
	runCmd.Flags().Uint64("to", 0, "end block (inclusive), 0 means latest")
	runCmd.Flags().Uint64("window", 0, "blocks per deposit query when --to is set, 0 means one query")
	runCmd.Flags().String("anomaly-log", "./data/anomalies.jsonl", "JSONL path for bundles that exhausted retries")
	runCmd.Flags().String("redis-addr", "", "Redis address for the internal transfer cache (empty disables)")
	runCmd.Flags().String("redis-password", "", "Redis password")
	runCmd.Flags().Int("redis-db", 0, "Redis database")
	runCmd.Flags().Duration("redis-ttl", rediscache.DefaultTransferTTL, "internal transfer cache TTL")
	runCmd.Flags().StringSlice("kafka-brokers", nil, "Kafka brokers to publish verdicts to (comma-separated)")
	runCmd.Flags().String("kafka-topic", "arbscope.bundles", "Kafka topic for verdicts")
	runCmd.Flags().Int("max-retries", bundle.DefaultMaxRetries, "retries per bundle after the first attempt")
	runCmd.Flags().Duration("retry-delay", bundle.DefaultRetryDelay, "delay between bundle retries")
	runCmd.Flags().Int("concurrency", bundle.DefaultConcurrency, "parallel internal transfer lookups per bundle")
	runCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(runCmd)

	cursorCmd := &cobra.Command{
		Use:   "cursor",
		Short: "Print the block the next run starts from",
		RunE:  runCursor,
	}

	addStoreFlags(cursorCmd.Flags())
	cursorCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(cursorCmd)

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create the Postgres bundles table",
		RunE:  runMigrate,
	}

	migrateCmd.Flags().String("pg-dsn", "", "Postgres DSN")
	migrateCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(migrateCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func addSourceFlags(flags *pflag.FlagSet) {
	flags.String("source", config.SourceEtherscan, "transaction source (etherscan, rpc)")
	flags.String("etherscan-url", etherscan.DefaultBaseURL, "Etherscan API URL")
	flags.String("etherscan-api-key", "", "Etherscan API key")
	flags.String("rpc", "", "Ethereum RPC URL (requires debug_traceTransaction)")
	flags.String("contract", indexer.DefaultContract.Hex(), "deposit contract address")
}

func addStoreFlags(flags *pflag.FlagSet) {
	flags.String("store", config.StoreFile, "verdict store (file, postgres)")
	flags.String("pg-dsn", "", "Postgres DSN")
	flags.String("state-file", "./data/bundles.json", "JSON verdict store path")
	flags.Uint64("deployment-block", indexer.DefaultDeploymentBlock, "first block of the deposit contract")
}

func runClassifier(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	contract, err := indexer.ParseContract(cfg.Contract)
	if err != nil {
		return fmt.Errorf("contract: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	src, err := openSource(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer src.Close()

	st, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	classifier := bundle.NewClassifier(bundle.Config{
		MaxRetries:  cfg.MaxRetries,
		RetryDelay:  cfg.RetryDelay,
		Concurrency: cfg.Concurrency,
	}, src, st.anomalies, logger)

	start := indexer.ResolveStartBlock(ctx, st.cursor, cfg.DeploymentBlock, logger)
	if cfg.FromBlock != 0 {
		start = cfg.FromBlock
	}

	runner := indexer.NewRunner(indexer.RunConfig{
		Contract:        contract,
		DeploymentBlock: cfg.DeploymentBlock,
		ToBlock:         cfg.ToBlock,
		Window:          cfg.Window,
	}, src, classifier, st.sink, logger)

	logger.Info("arbscope start",
		zap.String("source", cfg.Source),
		zap.String("store", cfg.Store),
		zap.String("pg_dsn", redactDSN(cfg.PGDSN)),
		zap.String("contract", contract.Hex()),
		zap.Uint64("start_block", start),
		zap.Uint64("to", cfg.ToBlock),
		zap.Uint64("window", cfg.Window),
		zap.Bool("transfer_cache", cfg.RedisAddr != ""),
		zap.Strings("kafka_brokers", cfg.KafkaBrokers),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Duration("retry_delay", cfg.RetryDelay),
	)

	stats, err := runner.Run(ctx, start)
	if err != nil {
		return err
	}

	logger.Info("arbscope done",
		zap.Int("deposits", stats.Deposits),
		zap.Int("failed", stats.Failed),
		zap.Int("persisted", stats.Persisted),
		zap.Int("skipped", stats.Skipped),
	)
	return nil
}

func runCursor(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	start := indexer.ResolveStartBlock(ctx, st.cursor, cfg.DeploymentBlock, logger)
	fmt.Fprintln(cmd.OutOrStdout(), start)
	return nil
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.PGDSN == "" {
		return fmt.Errorf("pg dsn is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pg, err := openPostgres(ctx, cfg.PGDSN)
	if err != nil {
		return err
	}
	defer pg.Close()

	logger.Info("schema applied", zap.String("pg_dsn", redactDSN(cfg.PGDSN)))
	return nil
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}

func redactDSN(dsn string) string {
	if dsn == "" {
		return dsn
	}
	return "***"
}

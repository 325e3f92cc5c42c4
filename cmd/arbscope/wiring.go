package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"arbScope/internal/bundle"
	"arbScope/internal/cache"
	rediscache "arbScope/internal/cache/redis"
	"arbScope/internal/chain"
	"arbScope/internal/config"
	"arbScope/internal/etherscan"
	"arbScope/internal/storage"
	"arbScope/internal/storage/kafka"
	"arbScope/internal/storage/postgres"
)

type source struct {
	bundle.Source
	closers []func()
}

func (s *source) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

// openSource builds the transaction source, fronted by the Redis transfer cache when configured.
func openSource(ctx context.Context, cfg config.Config, logger *zap.Logger) (*source, error) {
	out := &source{}

	switch cfg.Source {
	case config.SourceRPC:
		client, err := chain.NewClient(ctx, cfg.RPCURL)
		if err != nil {
			return nil, fmt.Errorf("connect rpc: %w", err)
		}
		out.Source = client
		out.closers = append(out.closers, client.Close)
	default:
		out.Source = etherscan.NewClient(cfg.EtherscanURL, cfg.EtherscanAPIKey)
	}

	if cfg.RedisAddr == "" {
		return out, nil
	}

	rc, err := rediscache.New(ctx, rediscache.ClientConfig{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		out.Close()
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	out.closers = append(out.closers, func() { _ = rc.Close() })
	out.Source = cache.NewCachedSource(out.Source, rediscache.NewTransferCache(rc, cfg.RedisTTL), logger)
	return out, nil
}

type store struct {
	sink      storage.Sink
	cursor    storage.Cursor
	anomalies bundle.AnomalyRecorder
	closers   []func()
}

func (s *store) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

// openStore builds the verdict sink, its cursor, and the anomaly log.
func openStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (*store, error) {
	out := &store{}
	var primary storage.Sink

	switch cfg.Store {
	case config.StorePostgres:
		pg, err := openPostgres(ctx, cfg.PGDSN)
		if err != nil {
			return nil, err
		}
		primary = pg
		out.cursor = pg
		out.closers = append(out.closers, pg.Close)
	default:
		fs := storage.NewFileStore(cfg.StateFile)
		primary = fs
		out.cursor = fs
	}

	out.sink = primary
	if len(cfg.KafkaBrokers) > 0 {
		pub, err := kafka.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			out.Close()
			return nil, fmt.Errorf("kafka publisher: %w", err)
		}
		out.closers = append(out.closers, func() {
			if err := pub.Close(); err != nil {
				logger.Warn("close kafka publisher failed", zap.Error(err))
			}
		})
		out.sink = storage.MultiSink{primary, pub}
	}

	if cfg.AnomalyLog != "" {
		out.anomalies = storage.NewAnomalyLog(cfg.AnomalyLog)
	}
	return out, nil
}

func openPostgres(ctx context.Context, dsn string) (*postgres.Store, error) {
	pg, err := postgres.NewStore(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pg.Migrate(ctx); err != nil {
		pg.Close()
		return nil, fmt.Errorf("migrate postgres: %w", err)
	}
	return pg, nil
}

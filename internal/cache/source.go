// Package cache decorates a transaction source with a read-through cache for internal
// transfers, which never change once a transaction is mined.
package cache

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"arbScope/internal/model"
)

// Source is the decorated transaction source.
type Source interface {
	ListTransactions(ctx context.Context, q model.TxQuery) ([]model.Transaction, error)
	ListInternalTransfers(ctx context.Context, txHash common.Hash) ([]model.InternalTransfer, error)
}

// TransferCache stores internal transfers by transaction hash.
type TransferCache interface {
	GetTransfers(ctx context.Context, txHash common.Hash) ([]model.InternalTransfer, bool, error)
	SetTransfers(ctx context.Context, txHash common.Hash, transfers []model.InternalTransfer) error
}

// CachedSource serves internal transfers from the cache when possible. Cache errors are
// logged and fall through to the source.
type CachedSource struct {
	source Source
	cache  TransferCache
	logger *zap.Logger
}

func NewCachedSource(source Source, cache TransferCache, logger *zap.Logger) *CachedSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedSource{source: source, cache: cache, logger: logger}
}

func (c *CachedSource) ListTransactions(ctx context.Context, q model.TxQuery) ([]model.Transaction, error) {
	return c.source.ListTransactions(ctx, q)
}

func (c *CachedSource) ListInternalTransfers(ctx context.Context, txHash common.Hash) ([]model.InternalTransfer, error) {
	transfers, ok, err := c.cache.GetTransfers(ctx, txHash)
	if err != nil {
		c.logger.Warn("transfer cache read failed", zap.Error(err), zap.String("hash", txHash.Hex()))
	} else if ok {
		return transfers, nil
	}

	transfers, err = c.source.ListInternalTransfers(ctx, txHash)
	if err != nil {
		return nil, err
	}

	// An empty list may be an indexing lag on the explorer side; only cache real payouts.
	if len(transfers) > 0 {
		if err := c.cache.SetTransfers(ctx, txHash, transfers); err != nil {
			c.logger.Warn("transfer cache write failed", zap.Error(err), zap.String("hash", txHash.Hex()))
		}
	}
	return transfers, nil
}

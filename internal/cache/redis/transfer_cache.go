package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/redis/go-redis/v9"

	"arbScope/internal/model"
)

const DefaultTransferTTL = 7 * 24 * time.Hour

// TransferCache stores internal transfers as JSON strings.
//
// Key schema:
//
//	arbscope:itx:{txHash} - JSON array of transfers
type TransferCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewTransferCache creates a TransferCache backed by the given Client. A non-positive ttl
// selects DefaultTransferTTL.
func NewTransferCache(c *Client, ttl time.Duration) *TransferCache {
	if ttl <= 0 {
		ttl = DefaultTransferTTL
	}
	return &TransferCache{rdb: c.rdb, ttl: ttl}
}

func transferKey(txHash common.Hash) string {
	return "arbscope:itx:" + txHash.Hex()
}

// GetTransfers returns the cached transfers for txHash; ok is false on a miss.
func (tc *TransferCache) GetTransfers(ctx context.Context, txHash common.Hash) ([]model.InternalTransfer, bool, error) {
	data, err := tc.rdb.Get(ctx, transferKey(txHash)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("redis: get transfers %s: %w", txHash.Hex(), err)
	}

	var transfers []model.InternalTransfer
	if err := json.Unmarshal(data, &transfers); err != nil {
		return nil, false, fmt.Errorf("redis: unmarshal transfers %s: %w", txHash.Hex(), err)
	}
	return transfers, true, nil
}

// SetTransfers caches transfers for txHash with the configured TTL.
func (tc *TransferCache) SetTransfers(ctx context.Context, txHash common.Hash, transfers []model.InternalTransfer) error {
	data, err := json.Marshal(transfers)
	if err != nil {
		return fmt.Errorf("redis: marshal transfers %s: %w", txHash.Hex(), err)
	}
	if err := tc.rdb.Set(ctx, transferKey(txHash), data, tc.ttl).Err(); err != nil {
		return fmt.Errorf("redis: set transfers %s: %w", txHash.Hex(), err)
	}
	return nil
}

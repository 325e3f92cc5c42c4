package indexer

import (
	"context"

	"go.uber.org/zap"

	"arbScope/internal/storage"
)

// ClampStart never lets a run start before the contract existed.
func ClampStart(block, deploymentBlock uint64) uint64 {
	if block < deploymentBlock {
		return deploymentBlock
	}
	return block
}

// ResolveStartBlock reads the latest persisted block. Missing state or a failed read falls
// back to the deployment block. The persisted block itself is re-queried so deposits that
// share it with the last stored bundle are not skipped.
func ResolveStartBlock(ctx context.Context, cursor storage.Cursor, deploymentBlock uint64, logger *zap.Logger) uint64 {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cursor == nil {
		return deploymentBlock
	}

	latest, ok, err := cursor.LatestBlock(ctx)
	if err != nil {
		logger.Warn("read cursor failed, starting from deployment block", zap.Error(err), zap.Uint64("deployment_block", deploymentBlock))
		return deploymentBlock
	}
	if !ok {
		return deploymentBlock
	}
	return ClampStart(latest, deploymentBlock)
}

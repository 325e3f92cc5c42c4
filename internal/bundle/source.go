package bundle

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"arbScope/internal/model"
)

// Source supplies normal transactions and their internal value transfers.
type Source interface {
	ListTransactions(ctx context.Context, q model.TxQuery) ([]model.Transaction, error)
	ListInternalTransfers(ctx context.Context, txHash common.Hash) ([]model.InternalTransfer, error)
}

// AnomalyRecorder receives deposits that exhausted their classification attempts.
type AnomalyRecorder interface {
	RecordAnomaly(ctx context.Context, anomaly model.Anomaly) error
}

package indexer

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"arbScope/internal/model"
	"arbScope/internal/storage"
)

// DefaultDeploymentBlock is the first block of the deposit contract.
const DefaultDeploymentBlock uint64 = 15889442

// DefaultContract is the deposit contract address.
var DefaultContract = common.HexToAddress("0x1Cc9cF5586522c6F483E84A19c3C2B0B6d027bF0")

// DepositSource lists the deposit contract's transactions.
type DepositSource interface {
	ListTransactions(ctx context.Context, q model.TxQuery) ([]model.Transaction, error)
}

// Classifier turns one deposit into a verdict without failing.
type Classifier interface {
	Classify(ctx context.Context, deposit model.Transaction) model.Verdict
}

// RunConfig holds runtime settings for the batch driver.
type RunConfig struct {
	Contract        common.Address
	DeploymentBlock uint64
	// ToBlock bounds the range when non-zero; Window then splits it into per-query chunks.
	ToBlock uint64
	Window  uint64
}

// Runner pulls deposits and classifies them one at a time.
type Runner struct {
	cfg        RunConfig
	source     DepositSource
	classifier Classifier
	sink       storage.Sink
	logger     *zap.Logger
}

// RunStats counts the outcome of one run.
type RunStats struct {
	Deposits  int
	Failed    int
	Persisted int
	Skipped   int
}

// NewRunner builds a Runner with its dependencies.
func NewRunner(cfg RunConfig, source DepositSource, classifier Classifier, sink storage.Sink, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		cfg:        cfg,
		source:     source,
		classifier: classifier,
		sink:       sink,
		logger:     logger,
	}
}

// Run classifies every successful deposit from lastProcessedBlock onward and persists the
// verdicts that carry arbitrage economics. A sink failure stops the run.
func (r *Runner) Run(ctx context.Context, lastProcessedBlock uint64) (RunStats, error) {
	var stats RunStats
	if r.source == nil {
		return stats, fmt.Errorf("source is nil")
	}
	if r.classifier == nil {
		return stats, fmt.Errorf("classifier is nil")
	}
	if r.sink == nil {
		return stats, fmt.Errorf("sink is nil")
	}

	logger := r.logger.With(zap.String("run_id", uuid.NewString()))

	from := ClampStart(lastProcessedBlock, r.cfg.DeploymentBlock)
	if r.cfg.ToBlock != 0 && from > r.cfg.ToBlock {
		logger.Info("nothing to sync", zap.Uint64("from", from), zap.Uint64("to", r.cfg.ToBlock))
		return stats, nil
	}

	logger.Info("batch start", zap.Uint64("from", from), zap.Uint64("to", r.cfg.ToBlock), zap.String("contract", r.cfg.Contract.Hex()))

	deposits, err := r.fetchDeposits(ctx, from)
	if err != nil {
		return stats, err
	}

	for _, deposit := range deposits {
		select {
		case <-ctx.Done():
			return stats, ctx.Err()
		default:
		}

		if deposit.IsError {
			stats.Failed++
			continue
		}
		stats.Deposits++

		verdict := r.classifier.Classify(ctx, deposit)
		logger.Info("deposit classified",
			zap.String("hash", deposit.Hash.Hex()),
			zap.Uint64("block_number", deposit.BlockNumber),
			zap.String("bundle_type", string(verdict.Type)),
		)

		if !verdict.Type.Persistable() {
			stats.Skipped++
			continue
		}
		if err := r.sink.Upsert(ctx, verdict); err != nil {
			return stats, fmt.Errorf("persist bundle %s for deposit %s: %w", verdict.Hash.Hex(), deposit.Hash.Hex(), err)
		}
		stats.Persisted++
		logger.Info("bundle persisted",
			zap.String("hash", verdict.Hash.Hex()),
			zap.String("net_profit_eth", model.FormatEther(verdict.NetProfit)),
		)
	}

	logger.Info("batch complete",
		zap.Int("deposits", stats.Deposits),
		zap.Int("failed", stats.Failed),
		zap.Int("persisted", stats.Persisted),
		zap.Int("skipped", stats.Skipped),
	)
	return stats, nil
}

func (r *Runner) fetchDeposits(ctx context.Context, from uint64) ([]model.Transaction, error) {
	queries, err := DepositQueries(r.cfg.Contract, from, r.cfg.ToBlock, r.cfg.Window)
	if err != nil {
		return nil, err
	}

	var deposits []model.Transaction
	for _, q := range queries {
		r.logger.Debug("fetch deposits", zap.Uint64("from", q.StartBlock), zap.Uint64p("to", q.EndBlock))
		batch, err := r.source.ListTransactions(ctx, q)
		if err != nil {
			return nil, fmt.Errorf("list deposits from %d: %w", q.StartBlock, err)
		}
		deposits = append(deposits, batch...)
	}
	return deposits, nil
}

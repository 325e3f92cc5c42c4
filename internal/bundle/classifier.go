package bundle

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"arbScope/internal/model"
)

const (
	DefaultMaxRetries  = 5
	DefaultRetryDelay  = 2 * time.Second
	DefaultConcurrency = 4
)

var (
	// ErrEmptyBundle means the source returned no transactions for the deposit's block, which
	// cannot happen for a mined deposit.
	ErrEmptyBundle = errors.New("bundle has no transactions")
	// ErrNoOperatorTransfer means a swap or arb paid nothing back to the operator.
	ErrNoOperatorTransfer = errors.New("no internal transfer to operator")
)

// Config controls classification retries and sub-query fan-out. Zero MaxRetries means a single
// attempt and zero RetryDelay retries immediately; use DefaultConfig for the production policy.
// A non-positive Concurrency selects DefaultConcurrency.
type Config struct {
	MaxRetries  int
	RetryDelay  time.Duration
	Concurrency int
}

// DefaultConfig retries five times, two seconds apart.
func DefaultConfig() Config {
	return Config{
		MaxRetries:  DefaultMaxRetries,
		RetryDelay:  DefaultRetryDelay,
		Concurrency: DefaultConcurrency,
	}
}

// Classifier turns a deposit into a bundle verdict.
type Classifier struct {
	cfg       Config
	source    Source
	anomalies AnomalyRecorder
	logger    *zap.Logger
}

// NewClassifier builds a Classifier. anomalies may be nil.
func NewClassifier(cfg Config, source Source, anomalies AnomalyRecorder, logger *zap.Logger) *Classifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}
	return &Classifier{
		cfg:       cfg,
		source:    source,
		anomalies: anomalies,
		logger:    logger,
	}
}

// Classify never fails: when every attempt errors the deposit is recorded as an anomaly and
// reported as a short no-arb verdict.
func (c *Classifier) Classify(ctx context.Context, deposit model.Transaction) model.Verdict {
	var verdict model.Verdict
	attempts, err := withRetry(ctx, c.cfg.MaxRetries, c.cfg.RetryDelay, func(ctx context.Context, attempt int) error {
		v, err := c.classifyOnce(ctx, deposit)
		if err != nil {
			c.logger.Warn("classification failed",
				zap.Error(err),
				zap.String("hash", deposit.Hash.Hex()),
				zap.Int("attempt", attempt),
			)
			return err
		}
		verdict = v
		return nil
	})
	if err == nil {
		return verdict
	}

	if ctx.Err() != nil {
		return model.ShortVerdict(model.BundleNoArb)
	}

	c.logger.Warn("treating deposit as no-arb",
		zap.String("hash", deposit.Hash.Hex()),
		zap.Uint64("block_number", deposit.BlockNumber),
		zap.Int("attempts", attempts),
		zap.Error(err),
	)
	if c.anomalies != nil {
		anomaly := model.Anomaly{
			Hash:        deposit.Hash,
			BlockNumber: deposit.BlockNumber,
			Operator:    deposit.From,
			Attempts:    attempts,
			Error:       err.Error(),
			RecordedAt:  time.Now().UTC().Format(time.RFC3339Nano),
		}
		if err := c.anomalies.RecordAnomaly(ctx, anomaly); err != nil {
			c.logger.Error("record anomaly", zap.Error(err), zap.String("hash", deposit.Hash.Hex()))
		}
	}
	return model.ShortVerdict(model.BundleNoArb)
}

func (c *Classifier) classifyOnce(ctx context.Context, deposit model.Transaction) (model.Verdict, error) {
	if c.source == nil {
		return model.Verdict{}, fmt.Errorf("source is nil")
	}

	siblings, err := c.source.ListTransactions(ctx, model.BlockQuery(deposit.From, deposit.BlockNumber, model.SortDesc))
	if err != nil {
		return model.Verdict{}, fmt.Errorf("list bundle transactions: %w", err)
	}

	switch len(siblings) {
	case 0:
		return model.Verdict{}, fmt.Errorf("block %d: %w", deposit.BlockNumber, ErrEmptyBundle)
	case 1:
		return model.ShortVerdict(model.BundleNoArb), nil
	}

	// Flash-loan economics are recorded upstream; only the type is reported here.
	for _, tx := range siblings {
		if tx.Method() == model.MethodArb {
			return model.ShortVerdict(model.BundleArbFlashLoan), nil
		}
	}

	legs, err := c.resolveLegs(ctx, deposit.From, siblings)
	if err != nil {
		return model.Verdict{}, err
	}
	return foldBundle(deposit, legs), nil
}

// resolveLegs labels every sibling and fetches the operator payout of swap/arb legs
// concurrently. Each goroutine writes only its own slot.
func (c *Classifier) resolveLegs(ctx context.Context, operator common.Address, siblings []model.Transaction) ([]leg, error) {
	legs := make([]leg, len(siblings))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.cfg.Concurrency)
	for i, tx := range siblings {
		legs[i] = leg{tx: tx, method: tx.Method()}
		if !legs[i].method.Settles() {
			continue
		}
		i, tx := i, tx
		g.Go(func() error {
			out, err := c.operatorOutput(gctx, tx.Hash, operator)
			if err != nil {
				return err
			}
			legs[i].output = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return legs, nil
}

func (c *Classifier) operatorOutput(ctx context.Context, txHash common.Hash, operator common.Address) (*big.Int, error) {
	transfers, err := c.source.ListInternalTransfers(ctx, txHash)
	if err != nil {
		return nil, fmt.Errorf("internal transfers %s: %w", txHash.Hex(), err)
	}
	for _, t := range transfers {
		if t.To == operator {
			return valueOrZero(t.Value), nil
		}
	}
	return nil, fmt.Errorf("tx %s: %w", txHash.Hex(), ErrNoOperatorTransfer)
}

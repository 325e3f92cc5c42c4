package storage

import (
	"context"
	"fmt"

	"arbScope/internal/model"
)

// Sink durably upserts a verdict keyed by its canonical hash. Repeating an upsert with the
// same verdict leaves the store unchanged.
type Sink interface {
	Upsert(ctx context.Context, verdict model.Verdict) error
}

// Cursor reports the highest block number among persisted verdicts.
type Cursor interface {
	LatestBlock(ctx context.Context) (uint64, bool, error)
}

// MultiSink forwards each verdict to every sink in order and stops at the first failure.
type MultiSink []Sink

func (m MultiSink) Upsert(ctx context.Context, verdict model.Verdict) error {
	for i, sink := range m {
		if sink == nil {
			continue
		}
		if err := sink.Upsert(ctx, verdict); err != nil {
			return fmt.Errorf("sink %d: %w", i, err)
		}
	}
	return nil
}

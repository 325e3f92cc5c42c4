package bundle

import (
	"context"
	"errors"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"arbScope/internal/model"
)

var (
	operator     = common.HexToAddress("0x4444444444444444444444444444444444444444")
	depositHash  = common.HexToHash("0x01")
	mintHash     = common.HexToHash("0x02")
	approveHash  = common.HexToHash("0x03")
	swapHash     = common.HexToHash("0x04")
	arbHash      = common.HexToHash("0x05")
	unknownHash  = common.HexToHash("0x06")
	depositBlock = uint64(16_000_000)
)

const gwei = 1_000_000_000

func ether(value string) *big.Int {
	wei, ok := model.ParseEther(value)
	if !ok {
		panic("bad ether fixture " + value)
	}
	return wei
}

func sibling(hash common.Hash, sel model.Selector, value string, gasPriceGwei int64, gasUsed uint64) model.Transaction {
	return model.Transaction{
		Hash:        hash,
		BlockNumber: depositBlock,
		From:        operator,
		Selector:    sel,
		Value:       ether(value),
		GasUsed:     gasUsed,
		GasPrice:    big.NewInt(gasPriceGwei * gwei),
		Timestamp:   1_700_000_000,
	}
}

func depositTx() model.Transaction {
	return sibling(depositHash, model.SelectorDeposit, "16", 10, 250_000)
}

// fakeSource serves a fixed bundle and fails the first failures calls to ListTransactions.
type fakeSource struct {
	mu        sync.Mutex
	siblings  []model.Transaction
	transfers map[common.Hash][]model.InternalTransfer
	failures  int
	listCalls int
	itxCalls  int
}

func (f *fakeSource) ListTransactions(_ context.Context, q model.TxQuery) ([]model.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if f.listCalls <= f.failures {
		return nil, errors.New("upstream unavailable")
	}
	if q.EndBlock == nil || *q.EndBlock != q.StartBlock || q.Address != operator || q.Sort != model.SortDesc {
		return nil, errors.New("unexpected bundle query")
	}
	return f.siblings, nil
}

func (f *fakeSource) ListInternalTransfers(_ context.Context, txHash common.Hash) ([]model.InternalTransfer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.itxCalls++
	return f.transfers[txHash], nil
}

type anomalySink struct {
	recorded []model.Anomaly
}

func (a *anomalySink) RecordAnomaly(_ context.Context, anomaly model.Anomaly) error {
	a.recorded = append(a.recorded, anomaly)
	return nil
}

package chain

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"

	"arbScope/internal/model"
)

func buildTransaction(tx *types.Transaction, from common.Address, receipt *types.Receipt, blockNumber, blockTime uint64) model.Transaction {
	var sel model.Selector
	if data := tx.Data(); len(data) >= len(sel) {
		copy(sel[:], data[:len(sel)])
	}

	var to common.Address
	if tx.To() != nil {
		to = *tx.To()
	}

	gasPrice := tx.GasPrice()
	if receipt.EffectiveGasPrice != nil {
		gasPrice = receipt.EffectiveGasPrice
	}

	return model.Transaction{
		Hash:        tx.Hash(),
		BlockNumber: blockNumber,
		From:        from,
		To:          to,
		Selector:    sel,
		Value:       new(big.Int).Set(tx.Value()),
		GasUsed:     receipt.GasUsed,
		GasPrice:    new(big.Int).Set(gasPrice),
		Timestamp:   blockTime,
		IsError:     receipt.Status == types.ReceiptStatusFailed,
	}
}

// callFrame is the callTracer output shape.
type callFrame struct {
	Type  string         `json:"type"`
	From  common.Address `json:"from"`
	To    common.Address `json:"to"`
	Value *hexutil.Big   `json:"value,omitempty"`
	Error string         `json:"error,omitempty"`
	Calls []callFrame    `json:"calls,omitempty"`
}

// flattenTransfers walks the call tree depth first and collects value transfers below the
// root call. Reverted frames and everything beneath them moved no value.
func flattenTransfers(root callFrame) []model.InternalTransfer {
	out := make([]model.InternalTransfer, 0)
	if root.Error != "" {
		return out
	}
	var walk func(frames []callFrame)
	walk = func(frames []callFrame) {
		for _, f := range frames {
			if f.Error != "" {
				continue
			}
			if f.Value != nil && f.Value.ToInt().Sign() > 0 {
				out = append(out, model.InternalTransfer{
					From:  f.From,
					To:    f.To,
					Value: new(big.Int).Set(f.Value.ToInt()),
				})
			}
			walk(f.Calls)
		}
	}
	walk(root.Calls)
	return out
}

package model

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// SortOrder is the block ordering requested from a transaction source.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// TxQuery selects the transactions sent from or to Address within an inclusive block range.
// A nil EndBlock means no upper bound.
type TxQuery struct {
	Address    common.Address
	StartBlock uint64
	EndBlock   *uint64
	Sort       SortOrder
}

// BlockQuery returns a query for a single block.
func BlockQuery(address common.Address, block uint64, sort SortOrder) TxQuery {
	end := block
	return TxQuery{Address: address, StartBlock: block, EndBlock: &end, Sort: sort}
}

// Transaction is a normal (externally signed) transaction as reported by a transaction source.
// Deposits and their siblings share this shape.
type Transaction struct {
	Hash        common.Hash    `json:"hash"`
	BlockNumber uint64         `json:"block_number"`
	From        common.Address `json:"from"`
	To          common.Address `json:"to"`
	Selector    Selector       `json:"selector"`
	Value       *big.Int       `json:"value"`
	GasUsed     uint64         `json:"gas_used"`
	GasPrice    *big.Int       `json:"gas_price"`
	Timestamp   uint64         `json:"timestamp"`
	IsError     bool           `json:"is_error"`
}

// Method labels the transaction by its selector.
func (tx Transaction) Method() Method {
	return MethodOf(tx.Selector)
}

// GasCost returns gasPrice * gasUsed in wei.
func (tx Transaction) GasCost() *big.Int {
	if tx.GasPrice == nil {
		return new(big.Int)
	}
	return new(big.Int).Mul(tx.GasPrice, new(big.Int).SetUint64(tx.GasUsed))
}

// InternalTransfer is a value transfer emitted inside a transaction's execution.
type InternalTransfer struct {
	From  common.Address `json:"from"`
	To    common.Address `json:"to"`
	Value *big.Int       `json:"value"`
}

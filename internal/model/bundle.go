package model

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// BundleType is the verdict category for a deposit bundle.
type BundleType string

const (
	BundleNoArb             BundleType = "No Arb"
	BundleArbFlashLoan      BundleType = "Arb Flash Loan"
	BundleArbNoFlashLoan    BundleType = "Arb No Flash Loan"
	BundleArbUnrealisedGain BundleType = "Arb Unrealised Gain"
)

// Persistable reports whether a verdict of this type carries economics worth storing.
// Flash-loan arbs are accounted for elsewhere and no-arb deposits carry nothing.
func (t BundleType) Persistable() bool {
	return t != BundleNoArb && t != BundleArbFlashLoan
}

func (t BundleType) Valid() bool {
	switch t {
	case BundleNoArb, BundleArbFlashLoan, BundleArbNoFlashLoan, BundleArbUnrealisedGain:
		return true
	default:
		return false
	}
}

// Verdict is the classification of one deposit bundle. Short verdicts (no-arb with a single
// transaction, flash loans, exhausted retries) carry only Type. Amounts are in wei.
type Verdict struct {
	Type          BundleType     `json:"bundle_type"`
	Hash          common.Hash    `json:"hash,omitzero"`
	Operator      common.Address `json:"operator,omitzero"`
	BlockNumber   uint64         `json:"block_number,omitempty"`
	Timestamp     uint64         `json:"timestamp,omitempty"`
	NetProfit     *big.Int       `json:"net_profit,omitempty"`
	TxFee         *big.Int       `json:"tx_fee,omitempty"`
	GasUsed       uint64         `json:"gas_used,omitempty"`
	GasPrice      *big.Int       `json:"gas_price,omitempty"`
	MinipoolStake *big.Int       `json:"minipool_stake,omitempty"`
}

// ShortVerdict returns a verdict with only its type set.
func ShortVerdict(t BundleType) Verdict {
	return Verdict{Type: t}
}

// Validate checks the fields a sink needs to key and store the verdict.
func (v Verdict) Validate() error {
	if !v.Type.Valid() {
		return fmt.Errorf("invalid bundle type %q", v.Type)
	}
	if v.Hash == (common.Hash{}) {
		return fmt.Errorf("verdict has no canonical hash")
	}
	return nil
}

// Anomaly records a deposit that could not be classified.
type Anomaly struct {
	Hash        common.Hash    `json:"hash"`
	BlockNumber uint64         `json:"block_number"`
	Operator    common.Address `json:"operator"`
	Attempts    int            `json:"attempts"`
	Error       string         `json:"error"`
	RecordedAt  string         `json:"recorded_at"`
}

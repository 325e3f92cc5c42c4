package bundle

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"arbScope/internal/model"
)

// leg is one sibling transaction with its label and, for swap/arb legs, the ETH paid back to
// the operator.
type leg struct {
	tx     model.Transaction
	method model.Method
	output *big.Int
}

// accumulator folds resolved legs into bundle totals.
type accumulator struct {
	labels      model.LabelSet
	gasUsed     uint64
	gasCost     *big.Int
	gasPriceSum *big.Int
	gasPriceN   int64
	ethInput    *big.Int
	ethOutput   *big.Int
	stake       *big.Int
	timestamp   uint64
	hash        common.Hash
	settled     bool
}

func newAccumulator(deposit model.Transaction) *accumulator {
	return &accumulator{
		gasCost:     new(big.Int),
		gasPriceSum: new(big.Int),
		ethInput:    new(big.Int),
		ethOutput:   new(big.Int),
		stake:       valueOrZero(deposit.Value),
		timestamp:   deposit.Timestamp,
		hash:        deposit.Hash,
	}
}

func (a *accumulator) add(depositHash common.Hash, l leg) {
	a.labels = a.labels.With(l.method)

	if l.method.GasBearing() {
		a.gasUsed += l.tx.GasUsed
		a.gasCost.Add(a.gasCost, l.tx.GasCost())
		if l.tx.GasPrice != nil {
			a.gasPriceSum.Add(a.gasPriceSum, l.tx.GasPrice)
		}
		a.gasPriceN++
	}

	switch l.method {
	case model.MethodDeposit:
		if l.tx.Hash == depositHash {
			a.stake = valueOrZero(l.tx.Value)
			a.timestamp = l.tx.Timestamp
		}
	case model.MethodMint:
		if l.tx.Value != nil {
			a.ethInput.Add(a.ethInput, l.tx.Value)
		}
	case model.MethodSwap, model.MethodArb:
		if l.output != nil {
			a.ethOutput.Add(a.ethOutput, l.output)
		}
		// Legs arrive newest first; the newest settling leg names the bundle.
		if !a.settled {
			a.hash = l.tx.Hash
			a.settled = true
		}
	}
}

// averageGasPrice is the unweighted mean of the gas-bearing legs' gas prices, truncated to wei.
func (a *accumulator) averageGasPrice() *big.Int {
	if a.gasPriceN == 0 {
		return nil
	}
	return new(big.Int).Quo(a.gasPriceSum, big.NewInt(a.gasPriceN))
}

func (a *accumulator) verdict(deposit model.Transaction) model.Verdict {
	bundleType := a.labels.BundleType()

	profit := new(big.Int).Sub(a.ethOutput, a.ethInput)
	profit.Sub(profit, a.gasCost)
	if bundleType == model.BundleArbUnrealisedGain {
		profit.SetInt64(0)
	}

	return model.Verdict{
		Type:          bundleType,
		Hash:          a.hash,
		Operator:      deposit.From,
		BlockNumber:   deposit.BlockNumber,
		Timestamp:     a.timestamp,
		NetProfit:     profit,
		TxFee:         new(big.Int).Set(a.gasCost),
		GasUsed:       a.gasUsed,
		GasPrice:      a.averageGasPrice(),
		MinipoolStake: a.stake,
	}
}

// foldBundle reduces resolved legs to a verdict. legs must be in source order (newest first).
func foldBundle(deposit model.Transaction, legs []leg) model.Verdict {
	acc := newAccumulator(deposit)
	for _, l := range legs {
		acc.add(deposit.Hash, l)
	}
	return acc.verdict(deposit)
}

func valueOrZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(v)
}

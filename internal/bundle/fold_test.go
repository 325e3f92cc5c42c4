package bundle

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"

	"arbScope/internal/model"
)

func TestAverageGasPriceIsUnweighted(t *testing.T) {
	legs := []leg{
		{tx: sibling(swapHash, model.SelectorSwap, "0", 10, 1_000_000), method: model.MethodSwap, output: ether("1")},
		{tx: sibling(approveHash, model.SelectorApprove, "0", 50, 10_000), method: model.MethodApprove},
		{tx: sibling(mintHash, model.SelectorMint, "1", 30, 100_000), method: model.MethodMint},
		{tx: depositTx(), method: model.MethodDeposit},
	}

	got := foldBundle(depositTx(), legs)

	// (10 + 50 + 30) / 3 gwei; a gas-used weighting would land near 11.8 gwei.
	assert.Equal(t, big.NewInt(30*gwei), got.GasPrice)
	assert.Equal(t, uint64(1_110_000), got.GasUsed)
}

func TestFoldWithoutGasBearingLegs(t *testing.T) {
	legs := []leg{
		{tx: sibling(unknownHash, model.Selector{0x01, 0x02, 0x03, 0x04}, "0", 10, 21_000), method: model.MethodUnrecognized},
		{tx: depositTx(), method: model.MethodDeposit},
	}

	got := foldBundle(depositTx(), legs)

	assert.Equal(t, model.BundleNoArb, got.Type)
	assert.Nil(t, got.GasPrice)
	assert.Equal(t, 0, got.TxFee.Sign())
	assert.Equal(t, depositHash, got.Hash)
}

func TestFoldNewestSettlingLegNamesBundle(t *testing.T) {
	newer := swapHash
	older := arbHash
	legs := []leg{
		{tx: sibling(newer, model.SelectorSwap, "0", 10, 100_000), method: model.MethodSwap, output: ether("2")},
		{tx: sibling(older, model.SelectorSwap, "0", 10, 100_000), method: model.MethodSwap, output: ether("3")},
		{tx: sibling(mintHash, model.SelectorMint, "4", 10, 100_000), method: model.MethodMint},
		{tx: depositTx(), method: model.MethodDeposit},
	}

	got := foldBundle(depositTx(), legs)

	assert.Equal(t, newer, got.Hash)
	// 2 + 3 - 4 - 0.003
	assert.Equal(t, "0.997", model.FormatEther(got.NetProfit))
}

func TestFoldNegativeProfit(t *testing.T) {
	legs := []leg{
		{tx: sibling(swapHash, model.SelectorSwap, "0", 40, 200_000), method: model.MethodSwap, output: ether("23.9")},
		{tx: sibling(mintHash, model.SelectorMint, "24", 20, 100_000), method: model.MethodMint},
		{tx: depositTx(), method: model.MethodDeposit},
	}

	got := foldBundle(depositTx(), legs)

	assert.Equal(t, model.BundleArbNoFlashLoan, got.Type)
	assert.Equal(t, "-0.11", model.FormatEther(got.NetProfit))
}

package model

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/params"
)

const etherDecimals = 18

var weiPerEther = big.NewInt(params.Ether)

// FormatEther renders a wei amount as a decimal ETH string without trailing zeros.
func FormatEther(wei *big.Int) string {
	if wei == nil {
		return "0"
	}
	rat := new(big.Rat).SetFrac(wei, weiPerEther)
	text := rat.FloatString(etherDecimals)
	if strings.Contains(text, ".") {
		text = strings.TrimRight(text, "0")
		text = strings.TrimSuffix(text, ".")
	}
	if text == "-0" {
		return "0"
	}
	return text
}

// ParseEther converts a decimal ETH string to wei. Digits beyond 18 decimals are truncated.
func ParseEther(value string) (*big.Int, bool) {
	rat, ok := new(big.Rat).SetString(strings.TrimSpace(value))
	if !ok {
		return nil, false
	}
	rat.Mul(rat, new(big.Rat).SetInt(weiPerEther))
	return new(big.Int).Quo(rat.Num(), rat.Denom()), true
}

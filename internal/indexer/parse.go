package indexer

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// ParseContract resolves the deposit contract address. Empty input selects DefaultContract.
func ParseContract(input string) (common.Address, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return DefaultContract, nil
	}
	if !common.IsHexAddress(input) {
		return common.Address{}, fmt.Errorf("invalid contract address: %q", input)
	}
	addr := common.HexToAddress(input)
	if addr == (common.Address{}) {
		return common.Address{}, fmt.Errorf("contract address is zero")
	}
	return addr, nil
}

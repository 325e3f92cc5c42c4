package etherscan

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"arbScope/internal/model"
)

// rawTx is a txlist row; Etherscan encodes every number as a decimal string.
type rawTx struct {
	BlockNumber string `json:"blockNumber"`
	TimeStamp   string `json:"timeStamp"`
	Hash        string `json:"hash"`
	From        string `json:"from"`
	To          string `json:"to"`
	Value       string `json:"value"`
	GasPrice    string `json:"gasPrice"`
	GasUsed     string `json:"gasUsed"`
	IsError     string `json:"isError"`
	Input       string `json:"input"`
	MethodID    string `json:"methodId"`
}

type rawInternalTx struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Value string `json:"value"`
}

func (r rawTx) toModel() (model.Transaction, error) {
	block, err := parseUint(r.BlockNumber)
	if err != nil {
		return model.Transaction{}, fmt.Errorf("tx %s block number: %w", r.Hash, err)
	}
	ts, err := parseUint(r.TimeStamp)
	if err != nil {
		return model.Transaction{}, fmt.Errorf("tx %s timestamp: %w", r.Hash, err)
	}
	gasUsed, err := parseUint(r.GasUsed)
	if err != nil {
		return model.Transaction{}, fmt.Errorf("tx %s gas used: %w", r.Hash, err)
	}
	value, err := parseBig(r.Value)
	if err != nil {
		return model.Transaction{}, fmt.Errorf("tx %s value: %w", r.Hash, err)
	}
	gasPrice, err := parseBig(r.GasPrice)
	if err != nil {
		return model.Transaction{}, fmt.Errorf("tx %s gas price: %w", r.Hash, err)
	}

	sel := model.SelectorOf(r.MethodID)
	if sel == (model.Selector{}) {
		sel = model.SelectorOf(r.Input)
	}

	return model.Transaction{
		Hash:        common.HexToHash(r.Hash),
		BlockNumber: block,
		From:        common.HexToAddress(r.From),
		To:          common.HexToAddress(r.To),
		Selector:    sel,
		Value:       value,
		GasUsed:     gasUsed,
		GasPrice:    gasPrice,
		Timestamp:   ts,
		IsError:     r.IsError == "1",
	}, nil
}

func (r rawInternalTx) toModel() (model.InternalTransfer, error) {
	value, err := parseBig(r.Value)
	if err != nil {
		return model.InternalTransfer{}, fmt.Errorf("internal value: %w", err)
	}
	return model.InternalTransfer{
		From:  common.HexToAddress(r.From),
		To:    common.HexToAddress(r.To),
		Value: value,
	}, nil
}

func parseUint(value string) (uint64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, nil
	}
	return strconv.ParseUint(value, 10, 64)
}

func parseBig(value string) (*big.Int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return big.NewInt(0), nil
	}
	parsed, ok := new(big.Int).SetString(value, 10)
	if !ok {
		return nil, fmt.Errorf("invalid int: %s", value)
	}
	return parsed, nil
}

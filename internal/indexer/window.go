package indexer

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"arbScope/internal/model"
)

// DepositQueries plans the ascending deposit queries for [from, to]. A zero to leaves the
// range open-ended; a zero window keeps it as one query.
func DepositQueries(contract common.Address, from, to, window uint64) ([]model.TxQuery, error) {
	if to == 0 {
		return []model.TxQuery{{Address: contract, StartBlock: from, Sort: model.SortAsc}}, nil
	}
	if to < from {
		return nil, fmt.Errorf("to block %d precedes start block %d", to, from)
	}
	if window == 0 {
		window = to - from + 1
	}

	queries := make([]model.TxQuery, 0, (to-from)/window+1)
	for start := from; ; {
		end := to
		if to-start >= window {
			end = start + window - 1
		}
		last := end
		queries = append(queries, model.TxQuery{
			Address:    contract,
			StartBlock: start,
			EndBlock:   &last,
			Sort:       model.SortAsc,
		})
		if end == to {
			break
		}
		start = end + 1
	}
	return queries, nil
}

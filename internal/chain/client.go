package chain

import (
	"context"
	"fmt"
	"math/big"
	"slices"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"

	"arbScope/internal/model"
)

// Client wraps go-ethereum RPC and serves transaction lists from a node. Internal transfers
// require the debug namespace (callTracer).
type Client struct {
	rpcClient *rpc.Client
	ethClient *ethclient.Client

	mu     sync.Mutex
	signer types.Signer
}

// NewClient creates a new chain client from the RPC URL.
func NewClient(ctx context.Context, rpcURL string) (*Client, error) {
	rpcClient, err := rpc.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, err
	}

	return &Client{
		rpcClient: rpcClient,
		ethClient: ethclient.NewClient(rpcClient),
	}, nil
}

// Close closes the underlying RPC client.
func (c *Client) Close() {
	if c.rpcClient != nil {
		c.rpcClient.Close()
	}
}

// LatestBlockNumber returns the latest block number.
func (c *Client) LatestBlockNumber(ctx context.Context) (uint64, error) {
	return c.ethClient.BlockNumber(ctx)
}

func (c *Client) txSigner(ctx context.Context) (types.Signer, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.signer != nil {
		return c.signer, nil
	}
	chainID, err := c.ethClient.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("get chain id: %w", err)
	}
	c.signer = types.LatestSignerForChainID(chainID)
	return c.signer, nil
}

// ListTransactions scans every block in the query range and returns the transactions sent
// from or to q.Address, enriched with receipt gas data. A nil EndBlock scans to the head.
func (c *Client) ListTransactions(ctx context.Context, q model.TxQuery) ([]model.Transaction, error) {
	signer, err := c.txSigner(ctx)
	if err != nil {
		return nil, err
	}

	var end uint64
	if q.EndBlock != nil {
		end = *q.EndBlock
	} else {
		end, err = c.LatestBlockNumber(ctx)
		if err != nil {
			return nil, fmt.Errorf("get latest block: %w", err)
		}
	}

	out := make([]model.Transaction, 0)
	for number := q.StartBlock; number <= end; number++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		block, err := c.ethClient.BlockByNumber(ctx, new(big.Int).SetUint64(number))
		if err != nil {
			return nil, fmt.Errorf("block %d: %w", number, err)
		}

		for _, tx := range block.Transactions() {
			from, err := types.Sender(signer, tx)
			if err != nil {
				return nil, fmt.Errorf("recover sender %s: %w", tx.Hash().Hex(), err)
			}
			if !involves(q.Address, from, tx.To()) {
				continue
			}

			receipt, err := c.ethClient.TransactionReceipt(ctx, tx.Hash())
			if err != nil {
				return nil, fmt.Errorf("receipt %s: %w", tx.Hash().Hex(), err)
			}
			out = append(out, buildTransaction(tx, from, receipt, number, block.Time()))
		}

		if number == end {
			break
		}
	}

	if q.Sort == model.SortDesc {
		slices.Reverse(out)
	}
	return out, nil
}

// ListInternalTransfers traces the transaction and returns its value-bearing internal calls.
func (c *Client) ListInternalTransfers(ctx context.Context, txHash common.Hash) ([]model.InternalTransfer, error) {
	var root callFrame
	err := c.rpcClient.CallContext(ctx, &root, "debug_traceTransaction", txHash, map[string]any{
		"tracer": "callTracer",
	})
	if err != nil {
		return nil, fmt.Errorf("trace %s: %w", txHash.Hex(), err)
	}
	return flattenTransfers(root), nil
}

func involves(address, from common.Address, to *common.Address) bool {
	if from == address {
		return true
	}
	return to != nil && *to == address
}

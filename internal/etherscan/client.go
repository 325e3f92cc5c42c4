// Package etherscan implements the transaction source over the Etherscan account API.
package etherscan

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"arbScope/internal/model"
)

const DefaultBaseURL = "https://api.etherscan.io/api"

// ErrAPI is returned when Etherscan answers with status "0" for a reason other than an empty
// result. Rate limiting surfaces this way.
var ErrAPI = errors.New("etherscan api error")

const noTransactionsFound = "No transactions found"

// Client queries normal and internal transaction lists.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a Client. An empty baseURL selects the mainnet endpoint.
func NewClient(baseURL, apiKey string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  strings.TrimSpace(apiKey),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Result  json.RawMessage `json:"result"`
}

// ListTransactions returns normal transactions from or to q.Address (action=txlist).
func (c *Client) ListTransactions(ctx context.Context, q model.TxQuery) ([]model.Transaction, error) {
	params := url.Values{}
	params.Set("module", "account")
	params.Set("action", "txlist")
	params.Set("address", q.Address.Hex())
	params.Set("startblock", strconv.FormatUint(q.StartBlock, 10))
	if q.EndBlock != nil {
		params.Set("endblock", strconv.FormatUint(*q.EndBlock, 10))
	}
	sort := q.Sort
	if sort == "" {
		sort = model.SortAsc
	}
	params.Set("sort", string(sort))

	var raw []rawTx
	if err := c.get(ctx, params, &raw); err != nil {
		return nil, fmt.Errorf("txlist %s: %w", q.Address.Hex(), err)
	}

	txs := make([]model.Transaction, 0, len(raw))
	for _, r := range raw {
		tx, err := r.toModel()
		if err != nil {
			return nil, fmt.Errorf("txlist %s: %w", q.Address.Hex(), err)
		}
		txs = append(txs, tx)
	}
	return txs, nil
}

// ListInternalTransfers returns the internal transactions of txHash (action=txlistinternal).
func (c *Client) ListInternalTransfers(ctx context.Context, txHash common.Hash) ([]model.InternalTransfer, error) {
	params := url.Values{}
	params.Set("module", "account")
	params.Set("action", "txlistinternal")
	params.Set("txhash", txHash.Hex())

	var raw []rawInternalTx
	if err := c.get(ctx, params, &raw); err != nil {
		return nil, fmt.Errorf("txlistinternal %s: %w", txHash.Hex(), err)
	}

	transfers := make([]model.InternalTransfer, 0, len(raw))
	for _, r := range raw {
		transfer, err := r.toModel()
		if err != nil {
			return nil, fmt.Errorf("txlistinternal %s: %w", txHash.Hex(), err)
		}
		transfers = append(transfers, transfer)
	}
	return transfers, nil
}

func (c *Client) get(ctx context.Context, params url.Values, out any) error {
	if c.apiKey != "" {
		params.Set("apikey", c.apiKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, truncate(body, 256))
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return fmt.Errorf("decode envelope: %w", err)
	}

	if env.Status != "1" {
		if strings.EqualFold(strings.TrimSpace(env.Message), noTransactionsFound) {
			return nil
		}
		var detail string
		if err := json.Unmarshal(env.Result, &detail); err != nil {
			detail = string(env.Result)
		}
		return fmt.Errorf("%w: %s: %s", ErrAPI, env.Message, detail)
	}

	if err := json.Unmarshal(env.Result, out); err != nil {
		return fmt.Errorf("decode result: %w", err)
	}
	return nil
}

func truncate(body []byte, n int) string {
	if len(body) <= n {
		return string(body)
	}
	return string(body[:n]) + "..."
}

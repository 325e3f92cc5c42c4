package cache

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arbScope/internal/model"
)

type stubSource struct {
	transfers map[common.Hash][]model.InternalTransfer
	calls     int
}

func (s *stubSource) ListTransactions(context.Context, model.TxQuery) ([]model.Transaction, error) {
	return nil, nil
}

func (s *stubSource) ListInternalTransfers(_ context.Context, txHash common.Hash) ([]model.InternalTransfer, error) {
	s.calls++
	return s.transfers[txHash], nil
}

type memoryCache struct {
	data    map[common.Hash][]model.InternalTransfer
	readErr error
}

func (m *memoryCache) GetTransfers(_ context.Context, txHash common.Hash) ([]model.InternalTransfer, bool, error) {
	if m.readErr != nil {
		return nil, false, m.readErr
	}
	v, ok := m.data[txHash]
	return v, ok, nil
}

func (m *memoryCache) SetTransfers(_ context.Context, txHash common.Hash, transfers []model.InternalTransfer) error {
	m.data[txHash] = transfers
	return nil
}

func TestCachedSourceReadThrough(t *testing.T) {
	hash := common.HexToHash("0x01")
	source := &stubSource{transfers: map[common.Hash][]model.InternalTransfer{
		hash: {{To: common.HexToAddress("0x04"), Value: big.NewInt(5)}},
	}}
	cached := NewCachedSource(source, &memoryCache{data: map[common.Hash][]model.InternalTransfer{}}, nil)

	for i := 0; i < 3; i++ {
		got, err := cached.ListInternalTransfers(context.Background(), hash)
		require.NoError(t, err)
		require.Len(t, got, 1)
	}
	assert.Equal(t, 1, source.calls)
}

func TestCachedSourceSkipsEmptyResults(t *testing.T) {
	source := &stubSource{}
	cache := &memoryCache{data: map[common.Hash][]model.InternalTransfer{}}
	cached := NewCachedSource(source, cache, nil)

	_, err := cached.ListInternalTransfers(context.Background(), common.HexToHash("0x02"))
	require.NoError(t, err)
	_, err = cached.ListInternalTransfers(context.Background(), common.HexToHash("0x02"))
	require.NoError(t, err)

	assert.Equal(t, 2, source.calls)
	assert.Empty(t, cache.data)
}

func TestCachedSourceFallsThroughOnCacheError(t *testing.T) {
	hash := common.HexToHash("0x03")
	source := &stubSource{transfers: map[common.Hash][]model.InternalTransfer{
		hash: {{To: common.HexToAddress("0x04"), Value: big.NewInt(1)}},
	}}
	cached := NewCachedSource(source, &memoryCache{data: map[common.Hash][]model.InternalTransfer{}, readErr: errors.New("redis down")}, nil)

	got, err := cached.ListInternalTransfers(context.Background(), hash)
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, 1, source.calls)
}

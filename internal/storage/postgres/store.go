package postgres

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"arbScope/internal/model"
)

//go:embed schema.sql
var schemaSQL string

// ErrNotFound is returned when no bundle is stored under a hash.
var ErrNotFound = errors.New("bundle not found")

const etherExp = -18

// Store provides Postgres persistence for bundle verdicts.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Migrate creates the bundles table if it does not exist.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// Upsert inserts or replaces the bundle stored under the verdict's canonical hash.
func (s *Store) Upsert(ctx context.Context, v model.Verdict) error {
	if err := v.Validate(); err != nil {
		return err
	}

	var gasPrice pgtype.Numeric
	if v.GasPrice != nil {
		gasPrice = weiNumeric(v.GasPrice, 0)
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO bundles (
			hash, bundle_type, operator, block_number, block_timestamp,
			net_profit_eth, tx_fee_eth, gas_used, gas_price_wei, minipool_stake_eth,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, now(), now())
		ON CONFLICT (hash)
		DO UPDATE SET
			bundle_type = EXCLUDED.bundle_type,
			operator = EXCLUDED.operator,
			block_number = EXCLUDED.block_number,
			block_timestamp = EXCLUDED.block_timestamp,
			net_profit_eth = EXCLUDED.net_profit_eth,
			tx_fee_eth = EXCLUDED.tx_fee_eth,
			gas_used = EXCLUDED.gas_used,
			gas_price_wei = EXCLUDED.gas_price_wei,
			minipool_stake_eth = EXCLUDED.minipool_stake_eth,
			updated_at = now()
	`,
		v.Hash.Hex(),
		string(v.Type),
		v.Operator.Hex(),
		int64(v.BlockNumber),
		int64(v.Timestamp),
		weiNumeric(v.NetProfit, etherExp),
		weiNumeric(v.TxFee, etherExp),
		int64(v.GasUsed),
		gasPrice,
		weiNumeric(v.MinipoolStake, etherExp),
	)
	if err != nil {
		return fmt.Errorf("upsert bundle %s: %w", v.Hash.Hex(), err)
	}
	return nil
}

// LatestBlock returns the highest persisted block number.
func (s *Store) LatestBlock(ctx context.Context) (uint64, bool, error) {
	var latest pgtype.Int8
	if err := s.pool.QueryRow(ctx, `SELECT MAX(block_number) FROM bundles`).Scan(&latest); err != nil {
		return 0, false, fmt.Errorf("latest block: %w", err)
	}
	if !latest.Valid {
		return 0, false, nil
	}
	return uint64(latest.Int64), true, nil
}

// Verdict loads the bundle stored under hash.
func (s *Store) Verdict(ctx context.Context, hash common.Hash) (model.Verdict, error) {
	var (
		bundleType, operator         string
		block, ts, gasUsed           int64
		profit, fee, gasPrice, stake pgtype.Numeric
	)
	row := s.pool.QueryRow(ctx, `
		SELECT bundle_type, operator, block_number, block_timestamp,
			net_profit_eth, tx_fee_eth, gas_used, gas_price_wei, minipool_stake_eth
		FROM bundles WHERE hash = $1
	`, hash.Hex())
	if err := row.Scan(&bundleType, &operator, &block, &ts, &profit, &fee, &gasUsed, &gasPrice, &stake); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Verdict{}, ErrNotFound
		}
		return model.Verdict{}, err
	}

	return model.Verdict{
		Type:          model.BundleType(bundleType),
		Hash:          hash,
		Operator:      common.HexToAddress(operator),
		BlockNumber:   uint64(block),
		Timestamp:     uint64(ts),
		NetProfit:     numericWei(profit, etherExp),
		TxFee:         numericWei(fee, etherExp),
		GasUsed:       uint64(gasUsed),
		GasPrice:      numericWei(gasPrice, 0),
		MinipoolStake: numericWei(stake, etherExp),
	}, nil
}

// weiNumeric encodes wei scaled by 10^exp; exp -18 stores whole ETH.
func weiNumeric(wei *big.Int, exp int32) pgtype.Numeric {
	if wei == nil {
		wei = new(big.Int)
	}
	return pgtype.Numeric{Int: new(big.Int).Set(wei), Exp: exp, Valid: true}
}

// numericWei is the inverse of weiNumeric. A NULL yields nil.
func numericWei(n pgtype.Numeric, exp int32) *big.Int {
	if !n.Valid || n.Int == nil {
		return nil
	}
	shift := n.Exp - exp
	out := new(big.Int).Set(n.Int)
	ten := big.NewInt(10)
	switch {
	case shift > 0:
		out.Mul(out, new(big.Int).Exp(ten, big.NewInt(int64(shift)), nil))
	case shift < 0:
		out.Quo(out, new(big.Int).Exp(ten, big.NewInt(int64(-shift)), nil))
	}
	return out
}

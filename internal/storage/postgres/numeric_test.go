package postgres

import (
	"math/big"
	"testing"

	"github.com/jackc/pgx/v5/pgtype"
)

func TestNumericWeiRoundTrip(t *testing.T) {
	wei, _ := new(big.Int).SetString("-490000000000000000", 10)
	n := weiNumeric(wei, etherExp)
	if got := numericWei(n, etherExp); got.Cmp(wei) != 0 {
		t.Fatalf("round trip mismatch: %s", got)
	}
}

func TestNumericWeiRescales(t *testing.T) {
	// Postgres returns 0.49 as 49e-2.
	n := pgtype.Numeric{Int: big.NewInt(49), Exp: -2, Valid: true}
	if got := numericWei(n, etherExp); got.String() != "490000000000000000" {
		t.Fatalf("unexpected wei: %s", got)
	}

	n = pgtype.Numeric{Int: big.NewInt(3), Exp: 10, Valid: true}
	if got := numericWei(n, 0); got.String() != "30000000000" {
		t.Fatalf("unexpected wei: %s", got)
	}

	if got := numericWei(pgtype.Numeric{}, 0); got != nil {
		t.Fatalf("expected nil for NULL, got %s", got)
	}
}

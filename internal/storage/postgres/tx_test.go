package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/bouncehire/rentals/internal/domain"
	"github.com/bouncehire/rentals/internal/testutil"
)

// Crosses two transactions over two products so Postgres kills one of them
// with a deadlock abort. The abort comes out of the locking statement, not
// commit, and must still map to ErrTransactionConflict so Reserve can retry.
func TestWithTxMapsDeadlockToConflict(t *testing.T) {
	pool := testutil.NewTestPool(t)
	repo := NewInventoryRepository(pool)
	ctx := context.Background()
	testutil.ApplyMigrations(t, ctx, pool)
	testutil.TruncateAll(t, ctx, pool)

	castle := testutil.InsertProduct(t, ctx, pool, "Castle Classic", 5000)
	slide := testutil.InsertProduct(t, ctx, pool, "Mega Slide", 8000)
	testutil.InsertUnit(t, ctx, pool, castle, 1, domain.UnitStatusAvailable)
	testutil.InsertUnit(t, ctx, pool, slide, 1, domain.UnitStatusAvailable)

	lockBoth := func(first, second string, locked chan<- struct{}, proceed <-chan struct{}) error {
		return repo.WithTx(ctx, func(txCtx context.Context) error {
			if _, err := repo.FindUnitsForUpdate(txCtx, first); err != nil {
				return err
			}
			close(locked)
			<-proceed
			_, err := repo.FindUnitsForUpdate(txCtx, second)
			return err
		})
	}

	castleLocked := make(chan struct{})
	slideLocked := make(chan struct{})
	errs := make(chan error, 2)
	go func() { errs <- lockBoth(castle, slide, castleLocked, slideLocked) }()
	go func() { errs <- lockBoth(slide, castle, slideLocked, castleLocked) }()

	var survivors, conflicts int
	for i := 0; i < 2; i++ {
		switch err := <-errs; {
		case err == nil:
			survivors++
		case errors.Is(err, domain.ErrTransactionConflict):
			conflicts++
		default:
			t.Fatalf("unexpected tx error: %v", err)
		}
	}
	if survivors != 1 || conflicts != 1 {
		t.Fatalf("expected one survivor and one conflict, got %d survivors, %d conflicts", survivors, conflicts)
	}
}

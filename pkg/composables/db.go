package composables

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lodgecrew/lodgecrew/pkg/constants"
	"github.com/lodgecrew/lodgecrew/pkg/repo"
)

var ErrNoPool = errors.New("no database pool found in context")

// WithTx stores tx for repositories downstream to pick up with UseTx.
func WithTx(ctx context.Context, tx pgx.Tx) context.Context {
	return context.WithValue(ctx, constants.TxKey, tx)
}

// UseTx returns the context transaction, or the pool when none was opened.
// Single statements work the same against either.
func UseTx(ctx context.Context) (repo.Tx, error) {
	if tx, ok := ctx.Value(constants.TxKey).(repo.Tx); ok {
		return tx, nil
	}
	return UsePool(ctx)
}

func WithPool(ctx context.Context, pool *pgxpool.Pool) context.Context {
	return context.WithValue(ctx, constants.PoolKey, pool)
}

func UsePool(ctx context.Context) (*pgxpool.Pool, error) {
	if pool, ok := ctx.Value(constants.PoolKey).(*pgxpool.Pool); ok {
		return pool, nil
	}
	return nil, ErrNoPool
}

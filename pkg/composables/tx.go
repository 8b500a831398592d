package composables

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/lodgecrew/lodgecrew/pkg/configuration"
	"github.com/lodgecrew/lodgecrew/pkg/constants"
)

// ApplyTenantRLS pins the row-level-security tenant for the transaction.
// A no-op unless RLS_ENFORCE=enforce. set_config with is_local=true scopes
// the pin to the transaction, so nothing leaks back into the pool.
func ApplyTenantRLS(ctx context.Context, tx pgx.Tx) error {
	if configuration.Use().RLSEnforce != "enforce" {
		return nil
	}
	tenantID, err := UseTenantID(ctx)
	if err != nil {
		return fmt.Errorf("rls requires tenant in context: %w", err)
	}
	if _, err := tx.Exec(ctx, "SELECT set_config('app.current_tenant', $1, true)", tenantID.String()); err != nil {
		return fmt.Errorf("failed to set rls tenant context: %w", err)
	}
	return nil
}

// InTx runs fn in a fresh transaction, even when the context already
// carries one.
func InTx(ctx context.Context, fn func(context.Context) error) error {
	return beginAndRun(ctx, fn)
}

// InTenantTx runs fn in the context transaction when one exists, otherwise
// in a fresh one. The RLS tenant pin is applied either way, so service code
// composes without caring who opened the transaction.
func InTenantTx(ctx context.Context, fn func(context.Context) error) error {
	if existing, ok := ctx.Value(constants.TxKey).(pgx.Tx); ok && existing != nil {
		if err := ApplyTenantRLS(ctx, existing); err != nil {
			return err
		}
		return fn(ctx)
	}
	return beginAndRun(ctx, fn)
}

// InTenantTxResult is InTenantTx for callers that produce a value.
func InTenantTxResult[T any](ctx context.Context, fn func(context.Context) (T, error)) (T, error) {
	var out T
	err := InTenantTx(ctx, func(txCtx context.Context) error {
		var innerErr error
		out, innerErr = fn(txCtx)
		return innerErr
	})
	return out, err
}

func beginAndRun(ctx context.Context, fn func(context.Context) error) error {
	pool, err := UsePool(ctx)
	if err != nil {
		return err
	}
	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	txCtx := WithTx(ctx, tx)
	if err := ApplyTenantRLS(txCtx, tx); err != nil {
		return rollbackOn(ctx, tx, err)
	}
	if err := fn(txCtx); err != nil {
		return rollbackOn(ctx, tx, err)
	}
	return tx.Commit(ctx)
}

func rollbackOn(ctx context.Context, tx pgx.Tx, cause error) error {
	if err := tx.Rollback(ctx); err != nil {
		return errors.Join(cause, err)
	}
	return cause
}

package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// txBeginner lo implementan *pgxpool.Pool y *pgx.Conn.
type txBeginner interface {
	BeginTx(ctx context.Context, opts pgx.TxOptions) (pgx.Tx, error)
}

// TxRunner agrupa escrituras que deben confirmarse juntas: identidad local + perfil,
// reemplazo de permisos, lote de importación.
type TxRunner struct {
	db   txBeginner
	opts pgx.TxOptions
}

// NewTxRunner construye el runner con aislamiento read committed.
func NewTxRunner(db txBeginner) *TxRunner {
	return &TxRunner{db: db, opts: pgx.TxOptions{IsoLevel: pgx.ReadCommitted}}
}

// Run ejecuta fn con la tx como Querier. Error de fn o del commit revierte todo.
func (r *TxRunner) Run(ctx context.Context, fn func(q Querier) error) error {
	return r.RunTx(ctx, func(tx pgx.Tx) error { return fn(tx) })
}

// RunTx igual que Run pero expone pgx.Tx (batches).
func (r *TxRunner) RunTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	if err := pgx.BeginTxFunc(ctx, r.db, r.opts, fn); err != nil {
		return fmt.Errorf("transacción: %w", err)
	}
	return nil
}

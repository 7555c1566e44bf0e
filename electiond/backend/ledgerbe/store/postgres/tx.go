// Copyright (c) 2022 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
	"github.com/tokenvote/tokenvote/electiond/backend/ledgerbe/store"
)

var (
	_ store.Tx = (*pgTx)(nil)
)

// pgTx implements the store Tx interface using a pgx transaction.
type pgTx struct {
	postgres *postgres
	ctx      context.Context
	tx       pgx.Tx
}

// Put saves the provided key-value pairs to the store.
//
// This function satisfies the store Tx interface.
func (t *pgTx) Put(blobs map[string][]byte, encrypt bool) error {
	return t.postgres.put(t.ctx, t.tx, blobs, encrypt)
}

// Del deletes the provided blobs from the store.
//
// This function satisfies the store Tx interface.
func (t *pgTx) Del(keys []string) error {
	return t.postgres.del(t.ctx, t.tx, keys)
}

// Get returns the blobs for the provided keys.
//
// This function satisfies the store Tx interface.
func (t *pgTx) Get(keys []string) (map[string][]byte, error) {
	return t.postgres.get(t.ctx, t.tx, keys)
}

// Rollback aborts the transaction.
//
// This function satisfies the store Tx interface.
func (t *pgTx) Rollback() error {
	return t.tx.Rollback(t.ctx)
}

// Commit commits the transaction.
//
// This function satisfies the store Tx interface.
func (t *pgTx) Commit() error {
	err := t.tx.Commit(t.ctx)
	if err != nil {
		return errors.Wrap(err, "commit tx")
	}
	return nil
}

// Tx returns a new database transaction as well as the cancel function that
// releases all resources associated with it.
//
// This function satisfies the store BlobKV interface.
func (p *postgres) Tx() (store.Tx, func(), error) {
	if p.isShutdown() {
		return nil, nil, store.ErrShutdown
	}

	ctx, cancel := ctxWithTimeout()
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		cancel()
		return nil, nil, errors.Wrap(err, "begin tx")
	}

	return &pgTx{
			postgres: p,
			ctx:      ctx,
			tx:       tx,
		}, func() {
			err := tx.Rollback(ctx)
			if err != nil && !errors.Is(err, pgx.ErrTxClosed) {
				log.Errorf("tx rollback: %v", err)
			}
			cancel()
		}, nil
}

// Copyright (c) 2021-2022 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mysql

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"
	"github.com/tokenvote/tokenvote/electiond/backend/ledgerbe/store"
)

var (
	_ store.Tx = (*sqlTx)(nil)
)

// sqlTx implements the store Tx interface using a sql transaction.
type sqlTx struct {
	mysql *mysql
	ctx   context.Context
	tx    *sql.Tx
}

// Put saves a key-value pair to the store.
//
// This function satisfies the store Tx interface.
func (s *sqlTx) Put(blobs map[string][]byte, encrypt bool) error {
	return s.mysql.put(s.ctx, s.tx, blobs, encrypt)
}

// Del deletes an entry from the store.
//
// This function satisfies the store Tx interface.
func (s *sqlTx) Del(keys []string) error {
	return s.mysql.del(s.ctx, s.tx, keys)
}

// Get retrieves entries from the store. An entry will not exist in the
// returned map if for any blobs that are not found. It is the responsibility
// of the caller to ensure a blob was returned for all provided keys.
//
// This function satisfies the store Tx interface.
func (s *sqlTx) Get(keys []string) (map[string][]byte, error) {
	return s.mysql.get(s.ctx, s.tx, keys)
}

// Rollback aborts the transaction.
//
// This function satisfies the store Tx interface.
func (s *sqlTx) Rollback() error {
	return s.tx.Rollback()
}

// Commit commits the transaction.
//
// This function satisfies the store Tx interface.
func (s *sqlTx) Commit() error {
	err := s.tx.Commit()
	if err != nil {
		return errors.Wrap(err, "commit tx")
	}
	return nil
}

// Tx returns a new database transaction as well as the cancel function that
// releases all resources associated with it.
//
// This function satisfies the store BlobKV interface.
func (s *mysql) Tx() (store.Tx, func(), error) {
	if s.isShutdown() {
		return nil, nil, store.ErrShutdown
	}

	tx, cancelTx, err := s.beginTx()
	if err != nil {
		return nil, nil, err
	}
	ctx, cancelCtx := ctxWithTimeout()

	return &sqlTx{
			mysql: s,
			ctx:   ctx,
			tx:    tx,
		}, func() {
			cancelTx()
			cancelCtx()
		}, nil
}

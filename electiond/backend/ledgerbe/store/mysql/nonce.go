// Copyright (c) 2020-2022 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mysql

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"
)

const (
	queryInsertNonce = "INSERT INTO nonce () VALUES ();"
	queryLastNonce   = "SELECT LAST_INSERT_ID();"
)

// insertNonce inserts a new row into the nonce table, incrementing the
// auto increment counter.
func (s *mysql) insertNonce(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, queryInsertNonce)
	if err != nil {
		return errors.Wrap(err, "insert nonce")
	}
	return nil
}

// queryNonce returns the nonce value that was inserted last by this
// connection. LAST_INSERT_ID is connection scoped so concurrent inserts made
// by other connections do not race with it.
func (s *mysql) queryNonce(ctx context.Context, tx *sql.Tx) (int64, error) {
	rows, err := tx.QueryContext(ctx, queryLastNonce)
	if err != nil {
		return 0, errors.Wrap(err, "query nonce")
	}
	defer rows.Close()

	var nonce int64
	for rows.Next() {
		if nonce > 0 {
			return 0, errors.Errorf("multiple nonces returned")
		}
		err = rows.Scan(&nonce)
		if err != nil {
			return 0, errors.Wrap(err, "scan nonce")
		}
	}
	err = rows.Err()
	if err != nil {
		return 0, errors.Wrap(err, "next")
	}
	if nonce == 0 {
		return 0, errors.Errorf("invalid 0 nonce")
	}
	return nonce, nil
}

// nonce returns a new unique nonce value.
func (s *mysql) nonce(ctx context.Context, tx *sql.Tx) (int64, error) {
	err := s.insertNonce(ctx, tx)
	if err != nil {
		return 0, err
	}
	return s.queryNonce(ctx, tx)
}

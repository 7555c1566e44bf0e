// Copyright (c) 2021-2022 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mysql

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/tokenvote/tokenvote/electiond/backend/ledgerbe/store"
	"github.com/tokenvote/tokenvote/unittest"
)

// newTestMySQL returns a mysql context that has been setup for testing along
// with the sql mocking context. Random nonces are used for encryption so that
// the nonce table is not queried.
func newTestMySQL(t *testing.T) (*mysql, sqlmock.Sqlmock) {
	t.Helper()

	// QueryMatcherEqual does a full case sensitive match instead of
	// treating the expected SQL as a regular expression.
	opts := sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual)
	db, mock, err := sqlmock.New(opts)
	if err != nil {
		t.Fatal(err)
	}
	s := &mysql{
		db: db,
	}
	s.getNonce = s.getTestNonce
	copy(s.key[:], bytes.Repeat([]byte{0x01}, 32))

	t.Cleanup(func() {
		db.Close()
	})

	return s, mock
}

func TestPut(t *testing.T) {
	s, mock := newTestMySQL(t)
	var (
		key   = "election-details-1"
		value = []byte("details")
	)

	mock.ExpectBegin()
	mock.ExpectExec(queryPut).
		WithArgs(key, value).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := s.Put(map[string][]byte{key: value}, false)
	if err != nil {
		t.Fatal(err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestPutRollback(t *testing.T) {
	s, mock := newTestMySQL(t)
	unexpectedErr := errors.New("unexpected error")

	mock.ExpectBegin()
	mock.ExpectExec(queryPut).
		WithArgs("k", []byte("v")).
		WillReturnError(unexpectedErr)
	mock.ExpectRollback()

	err := s.Put(map[string][]byte{"k": []byte("v")}, false)
	if !errors.Is(err, unexpectedErr) {
		t.Fatalf("got err %v, want %v", err, unexpectedErr)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestGetDecrypts(t *testing.T) {
	s, mock := newTestMySQL(t)
	var (
		key1   = "token-balance-a"
		key2   = "token-balance-b"
		value1 = []byte("100")
		value2 = []byte("200")
	)
	encrypted, err := s.encrypt(context.Background(), nil, value1)
	if err != nil {
		t.Fatal(err)
	}

	rows := sqlmock.NewRows([]string{"k", "v"}).
		AddRow(key1, encrypted).
		AddRow(key2, value2)
	mock.ExpectQuery(buildSelectQuery(3)).
		WithArgs(key1, key2, "missing").
		WillReturnRows(rows)

	blobs, err := s.Get([]string{key1, key2, "missing"})
	if err != nil {
		t.Fatal(err)
	}
	want := map[string][]byte{
		key1: value1,
		key2: value2,
	}
	if diff := unittest.DeepEqual(blobs, want); diff != "" {
		t.Error(diff)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestTx(t *testing.T) {
	s, mock := newTestMySQL(t)

	mock.ExpectBegin()
	mock.ExpectExec(queryDel).
		WithArgs("k").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(buildSelectQuery(1)).
		WithArgs("k").
		WillReturnRows(sqlmock.NewRows([]string{"k", "v"}))
	mock.ExpectRollback()

	tx, cancel, err := s.Tx()
	if err != nil {
		t.Fatal(err)
	}
	defer cancel()

	err = tx.Del([]string{"k"})
	if err != nil {
		t.Fatal(err)
	}
	blobs, err := tx.Get([]string{"k"})
	if err != nil {
		t.Fatal(err)
	}
	if len(blobs) != 0 {
		t.Fatalf("got %v blobs, want 0", len(blobs))
	}
	err = tx.Rollback()
	if err != nil {
		t.Fatal(err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestShutdown(t *testing.T) {
	s, mock := newTestMySQL(t)
	mock.ExpectClose()
	s.Close()

	_, err := s.Get([]string{"k"})
	if !errors.Is(err, store.ErrShutdown) {
		t.Fatalf("got err %v, want %v", err, store.ErrShutdown)
	}
}

func TestBuildSelectStatements(t *testing.T) {
	var (
		sizeLimit = 2

		key1 = "key1"
		key2 = "key2"
		key3 = "key3"
	)
	var tests = []struct {
		name       string
		keys       []string
		statements []selectStatement
	}{
		{
			"one statement under the size limit",
			[]string{key1},
			[]selectStatement{
				{
					Query: buildSelectQuery(1),
					Args:  []interface{}{key1},
				},
			},
		},
		{
			"one statement at the size limit",
			[]string{key1, key2},
			[]selectStatement{
				{
					Query: buildSelectQuery(2),
					Args:  []interface{}{key1, key2},
				},
			},
		},
		{
			"second statement under the size limit",
			[]string{key1, key2, key3},
			[]selectStatement{
				{
					Query: buildSelectQuery(2),
					Args:  []interface{}{key1, key2},
				},
				{
					Query: buildSelectQuery(1),
					Args:  []interface{}{key3},
				},
			},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			statements := buildSelectStatements(tc.keys, sizeLimit)
			diff := unittest.DeepEqual(statements, tc.statements)
			if diff != "" {
				t.Error(diff)
			}
		})
	}
}

func TestBuildPlaceholders(t *testing.T) {
	var tests = []struct {
		placeholders int
		output       string
	}{
		{0, "()"},
		{1, "(?)"},
		{3, "(?,?,?)"},
	}
	for _, tc := range tests {
		t.Run(tc.output, func(t *testing.T) {
			output := buildPlaceholders(tc.placeholders)
			if output != tc.output {
				t.Errorf("got %v, want %v", output, tc.output)
			}
		})
	}
}

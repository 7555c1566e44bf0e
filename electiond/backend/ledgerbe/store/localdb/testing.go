// Copyright (c) 2022 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package localdb

import (
	"testing"

	"github.com/marcopeereboom/sbox"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/storage"
)

// NewTestLocalDB returns a localdb that is backed by an in-memory leveldb
// storage and a random encryption key. The database is closed when the test
// finishes.
func NewTestLocalDB(t *testing.T) *localdb {
	t.Helper()

	db, err := leveldb.Open(storage.NewMemStorage(), nil)
	if err != nil {
		t.Fatal(err)
	}
	key, err := sbox.NewKey()
	if err != nil {
		t.Fatal(err)
	}
	l := &localdb{
		db:  db,
		key: key,
	}
	t.Cleanup(func() {
		l.Lock()
		shutdown := l.shutdown
		l.Unlock()
		if !shutdown {
			l.Close()
		}
	})
	return l
}

// Copyright (c) 2021-2022 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package localdb

import (
	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/tokenvote/tokenvote/electiond/backend/ledgerbe/store"
)

var (
	_ store.Tx = (*tx)(nil)
)

// tx implements the store Tx interface using leveldb.
//
// leveldb does not support transactions, so the localdb lock is held from tx
// creation until the tx is committed, rolled back, or canceled. Operations
// are collected in a leveldb batch that is written atomically on commit. The
// plaintext of pending writes is kept in memory so that reads made using the
// tx see them.
type tx struct {
	localdb *localdb
	batch   *leveldb.Batch
	pending map[string][]byte   // [key]plaintext
	deleted map[string]struct{} // [key]

	// cancel releases the localdb lock. It is replaced with an empty
	// function once the tx has been committed or rolled back so that
	// deferred invocations do not unlock an unlocked mutex.
	cancel func()
}

// newTx returns a new localdb tx and the cancel function that releases all
// resources associated with the tx. The caller must hold the localdb lock.
func newTx(l *localdb) (*tx, func()) {
	t := &tx{
		localdb: l,
		batch:   new(leveldb.Batch),
		pending: make(map[string][]byte),
		deleted: make(map[string]struct{}),
	}
	t.cancel = func() {
		t.cancel = func() {}
		l.Unlock()
	}
	return t, func() { t.cancel() }
}

// Put saves the provided key-value pairs to the store.
//
// This function satisfies the store Tx interface.
func (t *tx) Put(blobs map[string][]byte, encrypt bool) error {
	log.Tracef("Tx Put: %v blobs", len(blobs))

	err := t.localdb.put(blobs, encrypt, t.batch)
	if err != nil {
		return err
	}
	for k, v := range blobs {
		b := make([]byte, len(v))
		copy(b, v)
		t.pending[k] = b
		delete(t.deleted, k)
	}
	return nil
}

// Del deletes the provided blobs from the store.
//
// This function satisfies the store Tx interface.
func (t *tx) Del(keys []string) error {
	log.Tracef("Tx Del: %v", keys)

	t.localdb.del(keys, t.batch)
	for _, k := range keys {
		delete(t.pending, k)
		t.deleted[k] = struct{}{}
	}
	return nil
}

// Get returns blobs for the provided keys. Writes made by this tx take
// precedence over the database.
//
// This function satisfies the store Tx interface.
func (t *tx) Get(keys []string) (map[string][]byte, error) {
	log.Tracef("Tx Get: %v", keys)

	var (
		reply = make(map[string][]byte, len(keys))
		fetch = make([]string, 0, len(keys))
	)
	for _, k := range keys {
		if b, ok := t.pending[k]; ok {
			reply[k] = b
			continue
		}
		if _, ok := t.deleted[k]; ok {
			continue
		}
		fetch = append(fetch, k)
	}
	if len(fetch) == 0 {
		return reply, nil
	}
	blobs, err := t.localdb.get(fetch)
	if err != nil {
		return nil, err
	}
	for k, v := range blobs {
		reply[k] = v
	}
	return reply, nil
}

// Rollback aborts the transaction.
//
// This function satisfies the store Tx interface.
func (t *tx) Rollback() error {
	t.cancel()

	log.Debugf("Tx rolled back")

	return nil
}

// Commit commits the transaction.
//
// This function satisfies the store Tx interface.
func (t *tx) Commit() error {
	defer t.cancel()

	err := t.localdb.db.Write(t.batch, nil)
	if err != nil {
		return errors.WithStack(err)
	}

	log.Debugf("Tx committed: %v ops", t.batch.Len())

	return nil
}

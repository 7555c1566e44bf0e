// Copyright (c) 2020-2022 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package localdb

import (
	"bytes"
	"os"
	"path/filepath"
	"sync"

	"github.com/marcopeereboom/sbox"
	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/tokenvote/tokenvote/electiond/backend/ledgerbe/store"
	"github.com/tokenvote/tokenvote/util"
)

const (
	// storeDirname contains the directory name that the leveldb
	// database will be saved to.
	storeDirname = "store"

	// encryptionKeyFilename is the filename of the encryption key that
	// is created in the app directory.
	encryptionKeyFilename = "leveldb-sbox.key"
)

var (
	_ store.BlobKV = (*localdb)(nil)
)

// localdb implements the store BlobKV interface using leveldb.
//
// All exported calls are locked against concurrent access. A transaction
// holds the lock from creation until it is committed or rolled back and
// writes its operations using a single leveldb batch.
//
// A random secretbox encryption key is created on first startup and saved to
// the app dir. Blobs are encrypted using random 24 byte nonces.
type localdb struct {
	sync.Mutex
	db       *leveldb.DB
	key      *[32]byte
	shutdown bool
}

// encrypt encrypts and returns the provided data blob.
func (l *localdb) encrypt(data []byte) ([]byte, error) {
	return sbox.Encrypt(0, l.key, data)
}

// decrypt decrypts the provided data blob. It unpacks the sbox header and
// returns the version and unencrypted data if successful.
func (l *localdb) decrypt(data []byte) ([]byte, uint32, error) {
	return sbox.Decrypt(l.key, data)
}

// isEncrypted returns whether the provided blob has been prefixed with an sbox
// header, indicating that it is an encrypted blob.
func isEncrypted(b []byte) bool {
	return bytes.HasPrefix(b, []byte("sbox"))
}

// put adds the provided key-value pairs to the batch. The blobs map is not
// modified.
func (l *localdb) put(blobs map[string][]byte, encrypt bool, batch *leveldb.Batch) error {
	for k, v := range blobs {
		if encrypt {
			e, err := l.encrypt(v)
			if err != nil {
				return errors.Wrapf(err, "encrypt %v", k)
			}
			v = e
		}
		batch.Put([]byte(k), v)
	}
	return nil
}

// del adds a delete operation to the batch for each of the provided keys.
func (l *localdb) del(keys []string, batch *leveldb.Batch) {
	for _, v := range keys {
		batch.Delete([]byte(v))
	}
}

// get returns blobs from the database for the provided keys. An entry will
// not exist in the returned map if for any blobs that are not found.
func (l *localdb) get(keys []string) (map[string][]byte, error) {
	blobs := make(map[string][]byte, len(keys))
	for _, v := range keys {
		b, err := l.db.Get([]byte(v), nil)
		if err != nil {
			if errors.Is(err, leveldb.ErrNotFound) {
				// Entry does not exist. This is ok.
				continue
			}
			return nil, errors.WithStack(err)
		}
		if isEncrypted(b) {
			b, _, err = l.decrypt(b)
			if err != nil {
				return nil, errors.Wrapf(err, "decrypt %v", v)
			}
		}
		blobs[v] = b
	}
	return blobs, nil
}

// Put saves the provided key-value pairs to the store. This operation is
// performed atomically.
//
// This function satisfies the store BlobKV interface.
func (l *localdb) Put(blobs map[string][]byte, encrypt bool) error {
	log.Tracef("Put: %v blobs", len(blobs))

	l.Lock()
	defer l.Unlock()
	if l.shutdown {
		return store.ErrShutdown
	}

	batch := new(leveldb.Batch)
	err := l.put(blobs, encrypt, batch)
	if err != nil {
		return err
	}
	err = l.db.Write(batch, nil)
	if err != nil {
		return errors.WithStack(err)
	}

	log.Debugf("Saved blobs (%v) to store", len(blobs))

	return nil
}

// Del deletes the provided blobs from the store. This operation is performed
// atomically.
//
// This function satisfies the store BlobKV interface.
func (l *localdb) Del(keys []string) error {
	log.Tracef("Del: %v", keys)

	l.Lock()
	defer l.Unlock()
	if l.shutdown {
		return store.ErrShutdown
	}

	batch := new(leveldb.Batch)
	l.del(keys, batch)
	err := l.db.Write(batch, nil)
	if err != nil {
		return errors.WithStack(err)
	}

	log.Debugf("Deleted blobs (%v) from store", len(keys))

	return nil
}

// Get returns blobs from the store for the provided keys. An entry will not
// exist in the returned map if for any blobs that are not found. It is the
// responsibility of the caller to ensure a blob was returned for all provided
// keys.
//
// This function satisfies the store BlobKV interface.
func (l *localdb) Get(keys []string) (map[string][]byte, error) {
	log.Tracef("Get: %v", keys)

	l.Lock()
	defer l.Unlock()
	if l.shutdown {
		return nil, store.ErrShutdown
	}

	return l.get(keys)
}

// Tx returns a new database transaction as well as the cancel function that
// releases all resources associated with it.
//
// This function satisfies the store BlobKV interface.
func (l *localdb) Tx() (store.Tx, func(), error) {
	l.Lock()
	if l.shutdown {
		l.Unlock()
		return nil, nil, store.ErrShutdown
	}
	tx, cancel := newTx(l)
	return tx, cancel, nil
}

// Close closes the store connection.
//
// This function satisfies the store BlobKV interface.
func (l *localdb) Close() {
	log.Tracef("Close")

	l.Lock()
	defer l.Unlock()

	l.shutdown = true
	util.Zero(l.key[:])
	l.db.Close()
}

// New returns a new localdb that saves its database to the data dir and its
// encryption key to the app dir.
func New(appDir, dataDir string) (*localdb, error) {
	switch {
	case appDir == "":
		return nil, errors.Errorf("app dir not provided")
	case dataDir == "":
		return nil, errors.Errorf("data dir not provided")
	}

	fp := filepath.Join(dataDir, storeDirname)
	err := os.MkdirAll(fp, 0700)
	if err != nil {
		return nil, err
	}

	db, err := leveldb.OpenFile(fp, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "open %v", fp)
	}

	keyFile := filepath.Join(appDir, encryptionKeyFilename)
	key, err := util.LoadEncryptionKey(log, keyFile)
	if err != nil {
		db.Close()
		return nil, err
	}

	log.Infof("Leveldb store: %v", fp)

	return &localdb{
		db:  db,
		key: key,
	}, nil
}

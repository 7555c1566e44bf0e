// Copyright (c) 2022 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package postgres

import (
	"bytes"
	"context"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/marcopeereboom/sbox"
	"github.com/pkg/errors"
	"github.com/tokenvote/tokenvote/electiond/backend/ledgerbe/store"
	"github.com/tokenvote/tokenvote/util"
)

const (
	opTimeout = 1 * time.Minute

	// encryptionKeyParamsKey is the kv store key for the encryption
	// key params that are saved on initial key derivation.
	encryptionKeyParamsKey = "store-postgres-encryptionkeyparams"
)

const (
	queryCreateTable = `CREATE TABLE IF NOT EXISTS kv (
  k TEXT NOT NULL PRIMARY KEY,
  v BYTEA NOT NULL
)`
	queryPut = `INSERT INTO kv (k, v) VALUES ($1, $2)
  ON CONFLICT (k) DO UPDATE SET v = EXCLUDED.v`
	queryDel = `DELETE FROM kv WHERE k = ANY($1)`
	queryGet = `SELECT k, v FROM kv WHERE k = ANY($1)`
)

var (
	_ store.BlobKV = (*postgres)(nil)
)

// postgres implements the store BlobKV interface using a pgx connection
// pool. Encrypted blobs use random nonces.
type postgres struct {
	shutdown uint64
	pool     *pgxpool.Pool
	key      [32]byte
}

func ctxWithTimeout() (context.Context, func()) {
	return context.WithTimeout(context.Background(), opTimeout)
}

func (p *postgres) isShutdown() bool {
	return atomic.LoadUint64(&p.shutdown) != 0
}

func (p *postgres) put(ctx context.Context, tx pgx.Tx, blobs map[string][]byte, encrypt bool) error {
	for k, v := range blobs {
		if encrypt {
			e, err := sbox.Encrypt(0, &p.key, v)
			if err != nil {
				return errors.Wrapf(err, "encrypt %v", k)
			}
			v = e
		}
		_, err := tx.Exec(ctx, queryPut, k, v)
		if err != nil {
			return errors.Wrap(err, "exec put")
		}
	}
	return nil
}

func (p *postgres) del(ctx context.Context, tx pgx.Tx, keys []string) error {
	_, err := tx.Exec(ctx, queryDel, keys)
	if err != nil {
		return errors.Wrap(err, "exec del")
	}
	return nil
}

// querier is satisfied by both a pgxpool.Pool and a pgx.Tx.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func (p *postgres) get(ctx context.Context, q querier, keys []string) (map[string][]byte, error) {
	rows, err := q.Query(ctx, queryGet, keys)
	if err != nil {
		return nil, errors.Wrap(err, "query")
	}
	defer rows.Close()

	reply := make(map[string][]byte, len(keys))
	for rows.Next() {
		var (
			k string
			v []byte
		)
		if err := rows.Scan(&k, &v); err != nil {
			return nil, errors.Wrap(err, "scan")
		}
		if bytes.HasPrefix(v, []byte("sbox")) {
			v, _, err = sbox.Decrypt(&p.key, v)
			if err != nil {
				return nil, errors.Wrapf(err, "decrypt %v", k)
			}
		}
		reply[k] = v
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "rows")
	}
	return reply, nil
}

// withTx runs fn inside of a new transaction and commits it.
func (p *postgres) withTx(fn func(context.Context, pgx.Tx) error) error {
	ctx, cancel := ctxWithTimeout()
	defer cancel()

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return errors.Wrap(err, "begin tx")
	}
	defer tx.Rollback(ctx)

	err = fn(ctx, tx)
	if err != nil {
		return err
	}
	err = tx.Commit(ctx)
	if err != nil {
		return errors.Wrap(err, "commit tx")
	}
	return nil
}

// Put saves the provided key-value pairs to the store. This operation is
// performed atomically.
//
// This function satisfies the store BlobKV interface.
func (p *postgres) Put(blobs map[string][]byte, encrypt bool) error {
	log.Tracef("Put: %v blobs", len(blobs))

	if p.isShutdown() {
		return store.ErrShutdown
	}
	err := p.withTx(func(ctx context.Context, tx pgx.Tx) error {
		return p.put(ctx, tx, blobs, encrypt)
	})
	if err != nil {
		return err
	}

	log.Debugf("Saved blobs (%v) to store", len(blobs))

	return nil
}

// Del deletes the provided blobs from the store. This operation is performed
// atomically.
//
// This function satisfies the store BlobKV interface.
func (p *postgres) Del(keys []string) error {
	log.Tracef("Del: %v", keys)

	if p.isShutdown() {
		return store.ErrShutdown
	}
	err := p.withTx(func(ctx context.Context, tx pgx.Tx) error {
		return p.del(ctx, tx, keys)
	})
	if err != nil {
		return err
	}

	log.Debugf("Deleted blobs (%v) from store", len(keys))

	return nil
}

// Get returns blobs from the store for the provided keys.
//
// This function satisfies the store BlobKV interface.
func (p *postgres) Get(keys []string) (map[string][]byte, error) {
	log.Tracef("Get: %v", keys)

	if p.isShutdown() {
		return nil, store.ErrShutdown
	}

	ctx, cancel := ctxWithTimeout()
	defer cancel()

	return p.get(ctx, p.pool, keys)
}

// Close closes the connection pool.
//
// This function satisfies the store BlobKV interface.
func (p *postgres) Close() {
	log.Tracef("Close")

	atomic.AddUint64(&p.shutdown, 1)
	util.Zero(p.key[:])
	p.pool.Close()
}

// deriveEncryptionKey derives the store encryption key from the password.
func (p *postgres) deriveEncryptionKey(password string) error {
	key, err := store.DeriveKey(p, encryptionKeyParamsKey, password)
	if err != nil {
		return err
	}
	p.key = *key
	util.Zero(key[:])
	return nil
}

// New connects to the postgres database described by the DSN, creates the kv
// table and derives the encryption key from the password.
func New(dsn, password string) (*postgres, error) {
	if password == "" {
		return nil, errors.Errorf("encryption password not provided")
	}

	ctx, cancel := ctxWithTimeout()
	defer cancel()

	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, errors.Wrap(err, "parse postgres dsn")
	}
	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, errors.Wrap(err, "connect to postgres")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, errors.Wrap(err, "ping postgres")
	}
	_, err = pool.Exec(ctx, queryCreateTable)
	if err != nil {
		pool.Close()
		return nil, errors.Wrap(err, "create kv table")
	}

	log.Infof("Postgres host: %v/%v", config.ConnConfig.Host,
		config.ConnConfig.Database)

	p := &postgres{
		pool: pool,
	}
	err = p.deriveEncryptionKey(password)
	if err != nil {
		pool.Close()
		return nil, errors.Wrap(err, "deriveEncryptionKey")
	}

	return p, nil
}

// Copyright (c) 2020-2022 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/pkg/errors"
	"github.com/tokenvote/tokenvote/electiond/backend/ledgerbe/store"
	"github.com/tokenvote/tokenvote/util"
)

const (
	// Database options
	connTimeout     = 1 * time.Minute
	connMaxLifetime = 1 * time.Minute
	maxOpenConns    = 0 // 0 is unlimited
	maxIdleConns    = 100

	// selectSizeLimit is the maximum number of placeholders that are
	// included in a single select statement.
	selectSizeLimit = 1000

	// Database table names
	tableNameKeyValue = "kv"
	tableNameNonce    = "nonce"
)

// tableKeyValue defines the key-value table.
const tableKeyValue = `
  k VARCHAR(255) NOT NULL PRIMARY KEY,
  v LONGBLOB NOT NULL
`

// tableNonce defines the table used to track the encryption nonce.
const tableNonce = `
  n BIGINT PRIMARY KEY AUTO_INCREMENT
`

const (
	queryPut = "INSERT INTO kv (k, v) VALUES (?, ?) " +
		"ON DUPLICATE KEY UPDATE v = VALUES(v);"
	queryDel = "DELETE FROM kv WHERE k IN (?);"
)

var (
	_ store.BlobKV = (*mysql)(nil)
)

// querier is satisfied by both a sql.DB and a sql.Tx.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}

// mysql implements the store BlobKV interface using a mysql driver.
type mysql struct {
	shutdown uint64
	db       *sql.DB
	getNonce func(context.Context, *sql.Tx) ([24]byte, error)
	key      [32]byte
}

func ctxWithTimeout() (context.Context, func()) {
	return context.WithTimeout(context.Background(), connTimeout)
}

func (s *mysql) isShutdown() bool {
	return atomic.LoadUint64(&s.shutdown) != 0
}

// put saves the provided key-value pairs using the provided tx. Existing
// entries are overwritten.
func (s *mysql) put(ctx context.Context, tx *sql.Tx, blobs map[string][]byte, encrypt bool) error {
	for k, v := range blobs {
		if encrypt {
			e, err := s.encrypt(ctx, tx, v)
			if err != nil {
				return errors.Wrapf(err, "encrypt %v", k)
			}
			v = e
		}
		_, err := tx.ExecContext(ctx, queryPut, k, v)
		if err != nil {
			return errors.Wrap(err, "exec put")
		}
	}
	return nil
}

// del deletes the provided keys using the provided tx.
func (s *mysql) del(ctx context.Context, tx *sql.Tx, keys []string) error {
	for _, v := range keys {
		_, err := tx.ExecContext(ctx, queryDel, v)
		if err != nil {
			return errors.Wrap(err, "exec del")
		}
	}
	return nil
}

// get returns the blobs for the provided keys. Encrypted blobs are
// decrypted.
func (s *mysql) get(ctx context.Context, q querier, keys []string) (map[string][]byte, error) {
	reply := make(map[string][]byte, len(keys))
	for _, ss := range buildSelectStatements(keys, selectSizeLimit) {
		log.Tracef("%v", ss.Query)

		rows, err := q.QueryContext(ctx, ss.Query, ss.Args...)
		if err != nil {
			return nil, errors.Wrap(err, "query")
		}
		for rows.Next() {
			var (
				k string
				v []byte
			)
			err = rows.Scan(&k, &v)
			if err != nil {
				rows.Close()
				return nil, errors.Wrap(err, "scan")
			}
			reply[k] = v
		}
		err = rows.Err()
		rows.Close()
		if err != nil {
			return nil, errors.Wrap(err, "next")
		}
	}

	for k, v := range reply {
		if !isEncrypted(v) {
			continue
		}
		b, _, err := s.decrypt(v)
		if err != nil {
			return nil, errors.Wrapf(err, "decrypt %v", k)
		}
		reply[k] = b
	}

	return reply, nil
}

// beginTx starts a new sql transaction. The returned cancel function rolls
// the tx back and releases its context. It does nothing once the tx has been
// committed.
func (s *mysql) beginTx() (*sql.Tx, func(), error) {
	ctx, cancel := ctxWithTimeout()

	opts := &sql.TxOptions{
		Isolation: sql.LevelDefault,
	}
	tx, err := s.db.BeginTx(ctx, opts)
	if err != nil {
		cancel()
		return nil, nil, errors.Wrap(err, "begin tx")
	}

	return tx, func() {
		// Rollback returns sql.ErrTxDone once the tx has been
		// committed or rolled back.
		if err := tx.Rollback(); err != nil &&
			!errors.Is(err, sql.ErrTxDone) {
			log.Errorf("tx rollback: %v", err)
		}
		cancel()
	}, nil
}

// Put saves the provided key-value pairs to the store. This operation is
// performed atomically.
//
// This function satisfies the store BlobKV interface.
func (s *mysql) Put(blobs map[string][]byte, encrypt bool) error {
	log.Tracef("Put: %v blobs", len(blobs))

	if s.isShutdown() {
		return store.ErrShutdown
	}

	tx, cancel, err := s.beginTx()
	if err != nil {
		return err
	}
	defer cancel()

	ctx, cancelCtx := ctxWithTimeout()
	defer cancelCtx()

	err = s.put(ctx, tx, blobs, encrypt)
	if err != nil {
		return err
	}
	err = tx.Commit()
	if err != nil {
		return errors.Wrap(err, "commit tx")
	}

	log.Debugf("Saved blobs (%v) to store", len(blobs))

	return nil
}

// Del deletes the provided blobs from the store. This operation is performed
// atomically.
//
// This function satisfies the store BlobKV interface.
func (s *mysql) Del(keys []string) error {
	log.Tracef("Del: %v", keys)

	if s.isShutdown() {
		return store.ErrShutdown
	}

	tx, cancel, err := s.beginTx()
	if err != nil {
		return err
	}
	defer cancel()

	ctx, cancelCtx := ctxWithTimeout()
	defer cancelCtx()

	err = s.del(ctx, tx, keys)
	if err != nil {
		return err
	}
	err = tx.Commit()
	if err != nil {
		return errors.Wrap(err, "commit tx")
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
func (s *mysql) Get(keys []string) (map[string][]byte, error) {
	log.Tracef("Get: %v", keys)

	if s.isShutdown() {
		return nil, store.ErrShutdown
	}

	ctx, cancel := ctxWithTimeout()
	defer cancel()

	return s.get(ctx, s.db, keys)
}

// Close closes the blob store connection.
//
// This function satisfies the store BlobKV interface.
func (s *mysql) Close() {
	log.Tracef("Close")

	atomic.AddUint64(&s.shutdown, 1)

	// Zero the encryption key
	util.Zero(s.key[:])

	s.db.Close()
}

// selectStatement contains a select query and its arguments.
type selectStatement struct {
	Query string
	Args  []interface{}
}

// buildSelectStatements splits the provided keys into select statements that
// each contain at most sizeLimit placeholders.
func buildSelectStatements(keys []string, sizeLimit int) []selectStatement {
	var (
		statements = make([]selectStatement, 0, (len(keys)/sizeLimit)+1)
		args       = make([]interface{}, 0, sizeLimit)
	)
	for _, k := range keys {
		args = append(args, k)
		if len(args) == sizeLimit {
			statements = append(statements, selectStatement{
				Query: buildSelectQuery(len(args)),
				Args:  args,
			})
			args = make([]interface{}, 0, sizeLimit)
		}
	}
	if len(args) > 0 {
		statements = append(statements, selectStatement{
			Query: buildSelectQuery(len(args)),
			Args:  args,
		})
	}
	return statements
}

// buildSelectQuery returns a select query for the provided number of keys.
//
// Ex 3 keys: "SELECT k, v FROM kv WHERE k IN (?,?,?);"
func buildSelectQuery(placeholders int) string {
	return fmt.Sprintf("SELECT k, v FROM kv WHERE k IN %v;",
		buildPlaceholders(placeholders))
}

// buildPlaceholders returns a parenthesized, comma separated list of the
// provided number of placeholders.
func buildPlaceholders(placeholders int) string {
	var b strings.Builder
	b.WriteString("(")
	for i := 0; i < placeholders; i++ {
		b.WriteString("?")
		if i < placeholders-1 {
			b.WriteString(",")
		}
	}
	b.WriteString(")")
	return b.String()
}

// New connects to the MySQL database, sets up the tables and derives the
// encryption key from the password.
func New(host, user, password, dbname string) (*mysql, error) {
	// The password is required to derive the encryption key
	if password == "" {
		return nil, errors.Errorf("password not provided")
	}

	log.Infof("MySQL host: %v:[password]@tcp(%v)/%v", user, host, dbname)

	h := fmt.Sprintf("%v:%v@tcp(%v)/%v", user, password, host, dbname)
	db, err := sql.Open("mysql", h)
	if err != nil {
		return nil, err
	}

	db.SetConnMaxLifetime(connMaxLifetime)
	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)

	err = db.Ping()
	if err != nil {
		return nil, errors.Wrap(err, "db ping")
	}

	q := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %v (%v)`,
		tableNameKeyValue, tableKeyValue)
	_, err = db.Exec(q)
	if err != nil {
		return nil, errors.Wrap(err, "create kv table")
	}
	q = fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %v (%v)`,
		tableNameNonce, tableNonce)
	_, err = db.Exec(q)
	if err != nil {
		return nil, errors.Wrap(err, "create nonce table")
	}

	s := &mysql{
		db: db,
	}
	s.getNonce = s.getDbNonce

	err = s.deriveEncryptionKey(password)
	if err != nil {
		return nil, errors.Wrap(err, "deriveEncryptionKey")
	}

	return s, nil
}

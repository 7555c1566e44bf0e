// Copyright (c) 2020-2022 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mysql

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/binary"

	"github.com/marcopeereboom/sbox"
	"github.com/tokenvote/tokenvote/electiond/backend/ledgerbe/store"
	"github.com/tokenvote/tokenvote/util"
)

const (
	// encryptionKeyParamsKey is the kv store key for the encryption
	// key params that are saved on initial key derivation.
	encryptionKeyParamsKey = "store-mysql-encryptionkeyparams"
)

// deriveEncryptionKey derives the store encryption key from the password.
func (s *mysql) deriveEncryptionKey(password string) error {
	log.Infof("Deriving encryption key")

	key, err := store.DeriveKey(s, encryptionKeyParamsKey, password)
	if err != nil {
		return err
	}
	s.key = *key
	util.Zero(key[:])
	return nil
}

var emptyNonce = [24]byte{}

// getDbNonce returns a nonce built from the next value of the nonce table.
// The table is shared by every writer of the database, so two writers never
// seal with the same nonce.
func (s *mysql) getDbNonce(ctx context.Context, tx *sql.Tx) ([24]byte, error) {
	nonce, err := s.nonce(ctx, tx)
	if err != nil {
		return emptyNonce, err
	}

	log.Tracef("Encrypting with nonce: %v", nonce)

	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, uint64(nonce))
	n, err := sbox.NewNonceFromBytes(b)
	if err != nil {
		return emptyNonce, err
	}
	return n.Current(), nil
}

// getTestNonce returns a random nonce without a database round trip. Tests
// use it in place of getDbNonce.
func (s *mysql) getTestNonce(ctx context.Context, tx *sql.Tx) ([24]byte, error) {
	nonce, err := util.Random(8)
	if err != nil {
		return emptyNonce, err
	}
	n, err := sbox.NewNonceFromBytes(nonce)
	if err != nil {
		return emptyNonce, err
	}
	return n.Current(), nil
}

// encrypt seals data with the store key.
func (s *mysql) encrypt(ctx context.Context, tx *sql.Tx, data []byte) ([]byte, error) {
	nonce, err := s.getNonce(ctx, tx)
	if err != nil {
		return nil, err
	}
	return sbox.EncryptN(0, &s.key, nonce, data)
}

func (s *mysql) decrypt(data []byte) ([]byte, uint32, error) {
	return sbox.Decrypt(&s.key, data)
}

// isEncrypted returns whether the blob carries an sbox header.
func isEncrypted(b []byte) bool {
	return bytes.HasPrefix(b, []byte("sbox"))
}

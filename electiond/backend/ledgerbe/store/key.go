// Copyright (c) 2022 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package store

import (
	"bytes"
	"encoding/json"
	"errors"

	"github.com/tokenvote/tokenvote/util"
)

// ErrWrongKey is returned when a password derives a key other than the one
// the store was first opened with.
var ErrWrongKey = errors.New("encryption key does not match the store")

// KeyStore is the part of a BlobKV that key derivation needs.
type KeyStore interface {
	Getter
	Put(blobs map[string][]byte, encrypt bool) error
}

// keyParams is saved unencrypted on the first derivation. Later derivations
// reuse the params and compare the digest to detect a changed password.
type keyParams struct {
	Digest []byte            `json:"digest"` // SHA256 of the key
	Params util.Argon2Params `json:"params"`
}

// DeriveKey derives the 32 byte encryption key of a SQL store from the
// password with Argon2id. The argon2 params are kept in the store under
// paramsKey. The caller must zero the returned key when done with it.
func DeriveKey(kv KeyStore, paramsKey, password string) (*[32]byte, error) {
	blobs, err := kv.Get([]string{paramsKey})
	if err != nil {
		return nil, err
	}

	var kp keyParams
	b, found := blobs[paramsKey]
	if found {
		err = json.Unmarshal(b, &kp)
		if err != nil {
			return nil, err
		}
	} else {
		ap, err := util.NewArgon2Params()
		if err != nil {
			return nil, err
		}
		kp.Params = *ap
	}

	key := util.Argon2idKey(password, kp.Params)
	digest := util.Digest(key[:])
	if found {
		if !bytes.Equal(digest, kp.Digest) {
			util.Zero(key[:])
			return nil, ErrWrongKey
		}
		return key, nil
	}

	kp.Digest = digest
	b, err = json.Marshal(kp)
	if err != nil {
		util.Zero(key[:])
		return nil, err
	}
	err = kv.Put(map[string][]byte{paramsKey: b}, false)
	if err != nil {
		util.Zero(key[:])
		return nil, err
	}
	return key, nil
}

// Copyright (c) 2021-2022 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package store

import (
	"bytes"

	"github.com/pkg/errors"
)

// TestBlobKV runs through a series of BlobKV operations to verify that basic
// functionality of the BlobKV implementation is working correctly.
//
// These are not unit tests. These are intended to be run against an actual
// database on initialization of a BlobKV implemenation.
func TestBlobKV(kv BlobKV) error {
	var (
		key1 = "testops-key-1"
		key2 = "testops-key-2"

		value1 = []byte("value-1")
		value2 = []byte("value-2")
	)

	// Clear out any previous test data
	err := kv.Del([]string{key1, key2})
	if err != nil {
		return err
	}

	// Put and get an unencrypted and an encrypted entry
	err = kv.Put(map[string][]byte{key1: value1}, false)
	if err != nil {
		return err
	}
	err = kv.Put(map[string][]byte{key2: value2}, true)
	if err != nil {
		return err
	}
	blobs, err := kv.Get([]string{key1, key2})
	if err != nil {
		return err
	}
	if !bytes.Equal(blobs[key1], value1) {
		return errors.Errorf("got %s, want %s", blobs[key1], value1)
	}
	if !bytes.Equal(blobs[key2], value2) {
		return errors.Errorf("got %s, want %s", blobs[key2], value2)
	}

	// Overwrite an entry inside of a tx and verify the tx sees its
	// own write. Roll it back and verify the value is unchanged.
	tx, cancel, err := kv.Tx()
	if err != nil {
		return err
	}
	defer cancel()
	err = tx.Put(map[string][]byte{key1: value2}, false)
	if err != nil {
		return err
	}
	blobs, err = tx.Get([]string{key1})
	if err != nil {
		return err
	}
	if !bytes.Equal(blobs[key1], value2) {
		return errors.Errorf("tx get: got %s, want %s", blobs[key1], value2)
	}
	err = tx.Rollback()
	if err != nil {
		return err
	}
	blobs, err = kv.Get([]string{key1})
	if err != nil {
		return err
	}
	if !bytes.Equal(blobs[key1], value1) {
		return errors.Errorf("rollback: got %s, want %s", blobs[key1], value1)
	}

	// Delete the entries inside of a committed tx
	tx, cancel, err = kv.Tx()
	if err != nil {
		return err
	}
	defer cancel()
	err = tx.Del([]string{key1, key2})
	if err != nil {
		return err
	}
	err = tx.Commit()
	if err != nil {
		return err
	}
	blobs, err = kv.Get([]string{key1, key2})
	if err != nil {
		return err
	}
	if len(blobs) != 0 {
		return errors.Errorf("got %v blobs after delete, want 0", len(blobs))
	}

	return nil
}

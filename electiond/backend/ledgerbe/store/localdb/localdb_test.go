// Copyright (c) 2022 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package localdb

import (
	"bytes"
	"errors"
	"testing"

	"github.com/tokenvote/tokenvote/electiond/backend/ledgerbe/store"
)

func TestBlobKV(t *testing.T) {
	l := NewTestLocalDB(t)
	err := store.TestBlobKV(l)
	if err != nil {
		t.Fatal(err)
	}
}

func TestEncryptedAtRest(t *testing.T) {
	l := NewTestLocalDB(t)
	var (
		key   = "token-balance-abc"
		value = []byte("1000")
	)
	err := l.Put(map[string][]byte{key: value}, true)
	if err != nil {
		t.Fatal(err)
	}

	// The raw leveldb value must carry the sbox header
	raw, err := l.db.Get([]byte(key), nil)
	if err != nil {
		t.Fatal(err)
	}
	if !isEncrypted(raw) {
		t.Fatalf("blob was not encrypted")
	}

	blobs, err := l.Get([]string{key})
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(blobs[key], value) {
		t.Fatalf("got %s, want %s", blobs[key], value)
	}
}

func TestTxReadYourWrites(t *testing.T) {
	l := NewTestLocalDB(t)
	err := l.Put(map[string][]byte{"a": []byte("1"), "b": []byte("2")}, false)
	if err != nil {
		t.Fatal(err)
	}

	tx, cancel, err := l.Tx()
	if err != nil {
		t.Fatal(err)
	}
	defer cancel()

	err = tx.Put(map[string][]byte{"a": []byte("10")}, true)
	if err != nil {
		t.Fatal(err)
	}
	err = tx.Del([]string{"b"})
	if err != nil {
		t.Fatal(err)
	}
	blobs, err := tx.Get([]string{"a", "b"})
	if err != nil {
		t.Fatal(err)
	}
	if string(blobs["a"]) != "10" {
		t.Errorf("got a=%s, want 10", blobs["a"])
	}
	if _, ok := blobs["b"]; ok {
		t.Errorf("deleted entry b was returned")
	}
	err = tx.Commit()
	if err != nil {
		t.Fatal(err)
	}

	blobs, err = l.Get([]string{"a", "b"})
	if err != nil {
		t.Fatal(err)
	}
	if string(blobs["a"]) != "10" || len(blobs) != 1 {
		t.Errorf("unexpected blobs after commit: %v", blobs)
	}
}

func TestShutdown(t *testing.T) {
	l := NewTestLocalDB(t)
	l.Close()

	_, err := l.Get([]string{"a"})
	if !errors.Is(err, store.ErrShutdown) {
		t.Fatalf("got err %v, want %v", err, store.ErrShutdown)
	}
	_, _, err = l.Tx()
	if !errors.Is(err, store.ErrShutdown) {
		t.Fatalf("got err %v, want %v", err, store.ErrShutdown)
	}
}

// Copyright (c) 2022 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package store

import (
	"errors"
	"testing"
)

// memKV is a map backed KeyStore.
type memKV map[string][]byte

func (m memKV) Get(keys []string) (map[string][]byte, error) {
	r := make(map[string][]byte, len(keys))
	for _, k := range keys {
		if v, ok := m[k]; ok {
			r[k] = v
		}
	}
	return r, nil
}

func (m memKV) Put(blobs map[string][]byte, encrypt bool) error {
	for k, v := range blobs {
		m[k] = v
	}
	return nil
}

func TestDeriveKey(t *testing.T) {
	kv := memKV{}
	k1, err := DeriveKey(kv, "keyparams", "hunter2")
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := kv["keyparams"]; !ok {
		t.Fatalf("key params not saved")
	}

	// The same password must derive the same key from the saved params.
	k2, err := DeriveKey(kv, "keyparams", "hunter2")
	if err != nil {
		t.Fatal(err)
	}
	if *k1 != *k2 {
		t.Fatalf("keys differ")
	}

	_, err = DeriveKey(kv, "keyparams", "hunter3")
	if !errors.Is(err, ErrWrongKey) {
		t.Fatalf("got err %v, want %v", err, ErrWrongKey)
	}
}

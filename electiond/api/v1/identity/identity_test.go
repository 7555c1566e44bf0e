// Copyright (c) 2022 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package identity

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestSignVerify(t *testing.T) {
	fi, err := New()
	if err != nil {
		t.Fatal(err)
	}
	msg := []byte("election 1 candidate 2")
	sig := fi.SignMessage(msg)
	if !fi.Public.VerifyMessage(msg, sig) {
		t.Fatalf("valid signature did not verify")
	}
	if fi.Public.VerifyMessage([]byte("election 1 candidate 3"), sig) {
		t.Fatalf("signature verified for a different message")
	}
}

func TestSaveLoad(t *testing.T) {
	dir := t.TempDir()
	fi, err := New()
	if err != nil {
		t.Fatal(err)
	}

	fn := filepath.Join(dir, "identity.json")
	if err := fi.Save(fn); err != nil {
		t.Fatal(err)
	}
	loaded, err := LoadFullIdentity(fn)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Public.String() != fi.Public.String() {
		t.Fatalf("public key got %v, want %v",
			loaded.Public.String(), fi.Public.String())
	}

	pfn := filepath.Join(dir, "identity_public.json")
	if err := fi.Public.Save(pfn); err != nil {
		t.Fatal(err)
	}
	pi, err := LoadPublicIdentity(pfn)
	if err != nil {
		t.Fatal(err)
	}
	if pi.Key != fi.Public.Key {
		t.Fatalf("loaded public identity does not match")
	}
}

func TestPublicIdentityFromString(t *testing.T) {
	fi, err := New()
	if err != nil {
		t.Fatal(err)
	}
	var tests = []struct {
		name    string
		key     string
		wantErr error
	}{
		{"valid", fi.Public.String(), nil},
		{"not hex", "zz", ErrInvalidPublicKey},
		{"short", "abcd", ErrInvalidPublicKey},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			pi, err := PublicIdentityFromString(tc.key)
			switch {
			case tc.wantErr == nil && err != nil:
				t.Fatalf("unexpected error: %v", err)
			case tc.wantErr != nil:
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("got err %v, want %v", err, tc.wantErr)
				}
				return
			}
			if pi.String() != tc.key {
				t.Fatalf("got %v, want %v", pi.String(), tc.key)
			}
		})
	}
}

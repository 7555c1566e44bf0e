// Copyright (c) 2022 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package util

import "testing"

func TestRandom(t *testing.T) {
	a, err := Random(16)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Random(16)
	if err != nil {
		t.Fatal(err)
	}
	if len(a) != 16 || len(b) != 16 {
		t.Fatalf("invalid lengths %v %v", len(a), len(b))
	}
	if string(a) == string(b) {
		t.Fatalf("two random reads returned the same bytes")
	}

	h, err := RandomHex(8)
	if err != nil {
		t.Fatal(err)
	}
	if len(h) != 16 {
		t.Fatalf("got hex length %v, want 16", len(h))
	}
}

// Copyright (c) 2022 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package token

import (
	"math/big"
	"testing"
)

func TestCheckpoints(t *testing.T) {
	var c checkpoints
	c = c.update(2, big.NewInt(10))
	c = c.update(5, big.NewInt(7))
	c = c.update(5, big.NewInt(8)) // Same block overwrites
	c = c.update(9, big.NewInt(0))

	if len(c) != 3 {
		t.Fatalf("got %v checkpoints, want 3", len(c))
	}

	var tests = []struct {
		height uint64
		want   int64
	}{
		{0, 0},
		{1, 0},
		{2, 10},
		{4, 10},
		{5, 8},
		{8, 8},
		{9, 0},
		{100, 0},
	}
	for _, tc := range tests {
		v, err := c.valueAt(tc.height)
		if err != nil {
			t.Fatal(err)
		}
		if v.Int64() != tc.want {
			t.Errorf("height %v: got %v, want %v", tc.height, v, tc.want)
		}
	}

	v, err := c.latest()
	if err != nil {
		t.Fatal(err)
	}
	if v.Sign() != 0 {
		t.Fatalf("latest got %v, want 0", v)
	}
}

func TestCheckpointsInvalidValue(t *testing.T) {
	c := checkpoints{{FromBlock: 1, Value: "abc"}}
	if _, err := c.valueAt(1); err == nil {
		t.Fatalf("expected error")
	}
}

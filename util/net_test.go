// Copyright (c) 2022 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package util

import (
	"net/http/httptest"
	"testing"
)

func TestNormalizeAddress(t *testing.T) {
	var tests = []struct {
		addr string
		want string
	}{
		{"localhost", "localhost:49374"},
		{"localhost:1234", "localhost:1234"},
		{"127.0.0.1", "127.0.0.1:49374"},
		{"::1", "[::1]:49374"},
	}
	for _, tc := range tests {
		t.Run(tc.addr, func(t *testing.T) {
			got := NormalizeAddress(tc.addr, "49374")
			if got != tc.want {
				t.Errorf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestParseGetParams(t *testing.T) {
	type params struct {
		Height uint64 `schema:"height"`
	}
	r := httptest.NewRequest("GET", "/v1/block?height=12&foo=bar", nil)
	var p params
	if err := ParseGetParams(r, &p); err != nil {
		t.Fatal(err)
	}
	if p.Height != 12 {
		t.Errorf("got height %v, want 12", p.Height)
	}
}

// Copyright (c) 2022 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package store

import (
	"errors"
	"strings"
	"testing"

	"github.com/tokenvote/tokenvote/unittest"
)

func TestEncodeDecodeStruct(t *testing.T) {
	type details struct {
		ID       uint64   `json:"id"`
		Metadata string   `json:"metadata"`
		IDs      []uint64 `json:"ids"`
	}
	var tests = []struct {
		name     string
		in       details
		encoding byte
	}{
		{"small", details{ID: 7, Metadata: "board election",
			IDs: []uint64{1, 2}}, encodingGob},
		{"large", details{ID: 8, Metadata: strings.Repeat("m", 1024)},
			encodingGobGzip},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			b, err := EncodeStruct("electiondetails", tc.in)
			if err != nil {
				t.Fatal(err)
			}
			if b[0] != tc.encoding {
				t.Fatalf("got encoding %x, want %x", b[0], tc.encoding)
			}
			var out details
			err = DecodeStruct(b, &out)
			if err != nil {
				t.Fatal(err)
			}
			if diff := unittest.DeepEqual(out, tc.in); diff != "" {
				t.Error(diff)
			}
			r, err := DecodeRecord(b)
			if err != nil {
				t.Fatal(err)
			}
			if r.Descriptor != "electiondetails" {
				t.Fatalf("got descriptor %v", r.Descriptor)
			}
		})
	}
}

func TestDecodeRecordErrors(t *testing.T) {
	b, err := encodeRecord(Record{
		Descriptor: "bad",
		Digest:     []byte{0x00},
		Data:       []byte(`{"id":1}`),
	})
	if err != nil {
		t.Fatal(err)
	}
	var v map[string]interface{}
	err = DecodeStruct(b, &v)
	if !errors.Is(err, ErrDigestMismatch) {
		t.Fatalf("got err %v, want %v", err, ErrDigestMismatch)
	}

	for _, blob := range [][]byte{nil, {0x7f, 0x00}} {
		_, err = DecodeRecord(blob)
		if !errors.Is(err, ErrEncoding) {
			t.Fatalf("got err %v, want %v", err, ErrEncoding)
		}
	}
}

// Copyright (c) 2020-2022 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package store defines the key-value interface that the ledger is persisted
// in and the record encoding of the values.
package store

import (
	"bytes"
	"compress/gzip"
	"encoding/gob"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/tokenvote/tokenvote/util"
)

var (
	// ErrShutdown is returned when a action is attempted against a
	// store that is shutdown.
	ErrShutdown = errors.New("store is shutdown")

	// ErrDigestMismatch is returned when the digest of a decoded record
	// does not match its data.
	ErrDigestMismatch = errors.New("record digest mismatch")

	// ErrEncoding is returned when a value does not start with a known
	// encoding byte.
	ErrEncoding = errors.New("unknown record encoding")
)

// Encoding bytes that prefix every record.
const (
	encodingGob     byte = 0x01
	encodingGobGzip byte = 0x02

	// gzipThreshold is the JSON size above which records are compressed.
	// Most ledger records are small structs that do not gain from it.
	gzipThreshold = 512
)

// Record is the envelope of every value that the ledger saves. Data holds
// the JSON encoding of a structure and Descriptor names the structure.
type Record struct {
	Descriptor string
	Digest     []byte // SHA256 of Data
	Data       []byte
}

// encodeRecord gob encodes the record and prefixes it with its encoding
// byte. Large records are gzipped.
func encodeRecord(r Record) ([]byte, error) {
	var b bytes.Buffer
	if len(r.Data) <= gzipThreshold {
		b.WriteByte(encodingGob)
		err := gob.NewEncoder(&b).Encode(r)
		if err != nil {
			return nil, err
		}
		return b.Bytes(), nil
	}

	b.WriteByte(encodingGobGzip)
	zw := gzip.NewWriter(&b)
	err := gob.NewEncoder(zw).Encode(r)
	if err != nil {
		return nil, err
	}
	err = zw.Close()
	if err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}

// DecodeRecord decodes a value that was created by EncodeStruct. The digest
// is verified.
func DecodeRecord(blob []byte) (*Record, error) {
	if len(blob) == 0 {
		return nil, ErrEncoding
	}
	var r io.Reader = bytes.NewReader(blob[1:])
	switch blob[0] {
	case encodingGob:
	case encodingGobGzip:
		zr, err := gzip.NewReader(r)
		if err != nil {
			return nil, err
		}
		defer zr.Close()
		r = zr
	default:
		return nil, fmt.Errorf("%w: %x", ErrEncoding, blob[0])
	}

	var rec Record
	err := gob.NewDecoder(r).Decode(&rec)
	if err != nil {
		return nil, err
	}
	if !bytes.Equal(util.Digest(rec.Data), rec.Digest) {
		return nil, fmt.Errorf("%w: %v", ErrDigestMismatch, rec.Descriptor)
	}
	return &rec, nil
}

// EncodeStruct JSON encodes the structure into a record named by the
// descriptor.
func EncodeStruct(descriptor string, v interface{}) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return encodeRecord(Record{
		Descriptor: descriptor,
		Digest:     util.Digest(data),
		Data:       data,
	})
}

// DecodeStruct decodes a value that was created by EncodeStruct into the
// structure.
func DecodeStruct(blob []byte, v interface{}) error {
	r, err := DecodeRecord(blob)
	if err != nil {
		return err
	}
	return json.Unmarshal(r.Data, v)
}

// Getter is the read half of both BlobKV and Tx, so reads can be served
// from the store or from inside a transaction with the same code.
type Getter interface {
	// Get returns the values of the keys that exist. Missing keys are
	// absent from the returned map.
	Get(keys []string) (map[string][]byte, error)
}

// Tx is an atomic unit of work against a BlobKV. Reads made through a Tx see
// the writes made earlier in the same Tx. A Tx ends with Commit or Rollback.
type Tx interface {
	Getter

	// Put saves the values, overwriting existing keys. Encrypted values
	// are sealed before they are written.
	Put(blobs map[string][]byte, encrypt bool) error

	// Del removes the keys.
	Del(keys []string) error

	Rollback() error
	Commit() error
}

// BlobKV is the key-value store that the ledger is persisted in. Every
// method call is atomic on its own.
type BlobKV interface {
	Getter

	Put(blobs map[string][]byte, encrypt bool) error
	Del(keys []string) error

	// Tx begins a transaction. The returned cancel function rolls the
	// transaction back and releases it. Calling it after Commit is a
	// no-op, so callers defer it right away.
	Tx() (Tx, func(), error)

	Close()
}

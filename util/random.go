// Copyright (c) 2017-2022 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package util

import (
	"crypto/rand"
	"encoding/hex"
	"io"
)

// Random returns a variable number of bytes of random data.
func Random(n int) ([]byte, error) {
	k := make([]byte, n)
	_, err := io.ReadFull(rand.Reader, k)
	if err != nil {
		return nil, err
	}
	return k, nil
}

// RandomHex returns n bytes of random data, hex encoded.
func RandomHex(n int) (string, error) {
	b, err := Random(n)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

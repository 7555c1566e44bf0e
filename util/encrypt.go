// Copyright (c) 2020-2022 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package util

import (
	"os"

	"github.com/decred/slog"
	"github.com/marcopeereboom/sbox"
	"github.com/pkg/errors"
)

// Zero zeros out a byte slice.
func Zero(in []byte) {
	for i := range in {
		in[i] ^= in[i]
	}
}

// LoadEncryptionKey loads the encryption key at the provided file path. If a
// key does not exists at the file path then a new secretbox key is created
// and saved to the file path before returning the key.
func LoadEncryptionKey(log slog.Logger, keyFile string) (*[32]byte, error) {
	if keyFile == "" {
		return nil, errors.Errorf("no key file provided")
	}

	if !FileExists(keyFile) {
		log.Infof("Generating encryption key")
		key, err := sbox.NewKey()
		if err != nil {
			return nil, err
		}
		err = os.WriteFile(keyFile, key[:], 0400)
		if err != nil {
			return nil, err
		}
		Zero(key[:])
		log.Infof("Encryption key created: %v", keyFile)
	}

	b, err := os.ReadFile(keyFile)
	if err != nil {
		return nil, err
	}
	defer Zero(b)

	var key [32]byte
	if len(b) != len(key) {
		return nil, errors.Errorf("invalid encryption key length %v", len(b))
	}
	copy(key[:], b)

	log.Infof("Encryption key: %v", keyFile)

	return &key, nil
}

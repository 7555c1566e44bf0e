// Copyright (c) 2016-2022 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package identity manages the ed25519 identities of the election daemon
// and of the token holders that sign commands. A holder address is the hex
// encoded public key of the holder's identity.
package identity

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/agl/ed25519"
)

const (
	PrivateKeySize = ed25519.PrivateKeySize
	SignatureSize  = ed25519.SignatureSize
	PublicKeySize  = ed25519.PublicKeySize
)

var (
	prng = rand.Reader

	// ErrInvalidPublicKey is returned when a public key cannot be decoded.
	ErrInvalidPublicKey = errors.New("invalid public key")
)

// FullIdentity contains a key pair. The private key is exported so that the
// identity can be saved to disk.
type FullIdentity struct {
	Public     PublicIdentity       `json:"public"`
	PrivateKey [PrivateKeySize]byte `json:"privatekey"`
}

// PublicIdentity contains the public half of a FullIdentity.
type PublicIdentity struct {
	Key [PublicKeySize]byte `json:"key"`
}

// New returns a new randomly generated FullIdentity.
func New() (*FullIdentity, error) {
	pub, priv, err := ed25519.GenerateKey(prng)
	if err != nil {
		return nil, err
	}

	var fi FullIdentity
	copy(fi.Public.Key[:], pub[:])
	copy(fi.PrivateKey[:], priv[:])
	zero(pub[:])
	zero(priv[:])

	return &fi, nil
}

// SignMessage signs the provided message with the private key.
func (fi *FullIdentity) SignMessage(message []byte) [SignatureSize]byte {
	return *ed25519.Sign(&fi.PrivateKey, message)
}

// SignHex signs the provided message and returns the hex encoded signature.
func (fi *FullIdentity) SignHex(message string) string {
	s := fi.SignMessage([]byte(message))
	return hex.EncodeToString(s[:])
}

// Marshal returns the JSON encoding of the full identity.
func (fi *FullIdentity) Marshal() ([]byte, error) {
	return json.Marshal(fi)
}

// Save writes the full identity to the provided file.
func (fi *FullIdentity) Save(filename string) error {
	b, err := fi.Marshal()
	if err != nil {
		return fmt.Errorf("could not marshal identity: %v", err)
	}
	return os.WriteFile(filename, b, 0600)
}

// LoadFullIdentity loads a full identity from the provided file.
func LoadFullIdentity(filename string) (*FullIdentity, error) {
	b, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	var fi FullIdentity
	err = json.Unmarshal(b, &fi)
	if err != nil {
		return nil, fmt.Errorf("could not unmarshal identity: %v", err)
	}
	return &fi, nil
}

// PublicIdentityFromBytes returns the public identity for a raw key.
func PublicIdentityFromBytes(data []byte) (*PublicIdentity, error) {
	if len(data) != PublicKeySize {
		return nil, fmt.Errorf("%w: length %v", ErrInvalidPublicKey, len(data))
	}
	var pi PublicIdentity
	copy(pi.Key[:], data)
	return &pi, nil
}

// PublicIdentityFromString returns the public identity for a hex encoded
// key.
func PublicIdentityFromString(key string) (*PublicIdentity, error) {
	b, err := hex.DecodeString(key)
	if err != nil {
		return nil, fmt.Errorf("%w: not hex", ErrInvalidPublicKey)
	}
	return PublicIdentityFromBytes(b)
}

// VerifyMessage returns whether sig is a valid signature of msg.
func (p PublicIdentity) VerifyMessage(msg []byte, sig [SignatureSize]byte) bool {
	return ed25519.Verify(&p.Key, msg, &sig)
}

// String returns the hex encoded public key. This is the holder address.
func (p PublicIdentity) String() string {
	return hex.EncodeToString(p.Key[:])
}

// Save writes the public identity to the provided file.
func (p *PublicIdentity) Save(filename string) error {
	b, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("could not marshal public identity: %v", err)
	}
	return os.WriteFile(filename, b, 0600)
}

// LoadPublicIdentity loads a public identity from the provided file.
func LoadPublicIdentity(filename string) (*PublicIdentity, error) {
	b, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	var pi PublicIdentity
	err = json.Unmarshal(b, &pi)
	if err != nil {
		return nil, fmt.Errorf("could not unmarshal public identity: %v", err)
	}
	return &pi, nil
}

func zero(in []byte) {
	for i := range in {
		in[i] = 0
	}
}

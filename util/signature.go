// Copyright (c) 2020-2022 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package util

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/tokenvote/tokenvote/electiond/api/v1/identity"
)

// ErrorCodeT represents a signature verification error.
type ErrorCodeT int

const (
	ErrorCodeInvalid          ErrorCodeT = 0
	ErrorCodePublicKeyInvalid ErrorCodeT = 1
	ErrorCodeSignatureInvalid ErrorCodeT = 2
)

// SignatureError represents an error that was caused while verifying a
// signature.
type SignatureError struct {
	ErrorCode    ErrorCodeT
	ErrorContext string
}

// Error satisfies the error interface.
func (e SignatureError) Error() string {
	if e.ErrorContext == "" {
		return fmt.Sprintf("signature error code: %v", e.ErrorCode)
	}
	return fmt.Sprintf("signature error code: %v: %v",
		e.ErrorCode, e.ErrorContext)
}

// SignatureMsg returns the message that is signed for a command. The tag
// names the command and every field is encoded as a netstring, i.e.
// "<len>:<field>,", so that no two distinct commands or field splits produce
// the same message.
func SignatureMsg(tag string, fields ...string) string {
	var b strings.Builder
	for _, f := range append([]string{tag}, fields...) {
		b.WriteString(strconv.Itoa(len(f)))
		b.WriteByte(':')
		b.WriteString(f)
		b.WriteByte(',')
	}
	return b.String()
}

// ConvertSignature converts a hex encoded signature to a proper sized byte
// array.
func ConvertSignature(s string) ([identity.SignatureSize]byte, error) {
	var sig [identity.SignatureSize]byte
	sb, err := hex.DecodeString(s)
	if err != nil {
		return sig, err
	}
	if len(sb) != identity.SignatureSize {
		return sig, fmt.Errorf("invalid signature length")
	}
	copy(sig[:], sb)
	return sig, nil
}

// VerifySignature verifies a hex encoded ed25519 signature of msg made by the
// hex encoded public key.
func VerifySignature(signature, pubKey, msg string) error {
	sig, err := ConvertSignature(signature)
	if err != nil {
		return SignatureError{
			ErrorCode:    ErrorCodeSignatureInvalid,
			ErrorContext: err.Error(),
		}
	}
	pk, err := identity.PublicIdentityFromString(pubKey)
	if err != nil {
		return SignatureError{
			ErrorCode:    ErrorCodePublicKeyInvalid,
			ErrorContext: err.Error(),
		}
	}
	if !pk.VerifyMessage([]byte(msg), sig) {
		return SignatureError{
			ErrorCode: ErrorCodeSignatureInvalid,
		}
	}
	return nil
}

// VerifyChallenge checks that the signature returned from the server is the
// challenge signed by the server identity.
func VerifyChallenge(id *identity.PublicIdentity, challenge []byte, signature string) error {
	sig, err := ConvertSignature(signature)
	if err != nil {
		return err
	}
	if !id.VerifyMessage(challenge, sig) {
		return fmt.Errorf("challenge signature verification failed")
	}
	return nil
}

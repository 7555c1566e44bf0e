// Copyright (c) 2022 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package util

import (
	"crypto/tls"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestListenerHosts(t *testing.T) {
	got := listenerHosts([]string{"127.0.0.1:49480", "[::1]:49480",
		"vote.example.com:443", ":49480", "10.0.0.2:49480", "bogus"})
	want := []string{"vote.example.com", "10.0.0.2"}
	if diff := cmp.Diff(got, want); diff != "" {
		t.Fatalf("hosts mismatch (-got +want):\n%v", diff)
	}
}

func TestGenCertPair(t *testing.T) {
	dir := t.TempDir()
	certFile := filepath.Join(dir, "https.cert")
	keyFile := filepath.Join(dir, "https.key")
	err := GenCertPair("electiond", certFile, keyFile,
		[]string{"vote.example.com:443"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := tls.LoadX509KeyPair(certFile, keyFile); err != nil {
		t.Fatalf("load generated pair: %v", err)
	}
}

// Copyright (c) 2017-2022 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package util

import (
	"crypto/elliptic"
	"net"
	"os"
	"time"

	"github.com/decred/dcrd/certgen"
)

// certValidity is how long a generated certificate is valid for.
const certValidity = 10 * 365 * 24 * time.Hour

// listenerHosts returns the hosts of the provided listen addresses that are
// not already covered by the default names of a generated certificate.
func listenerHosts(listeners []string) []string {
	hosts := make([]string, 0, len(listeners))
	for _, l := range listeners {
		h, _, err := net.SplitHostPort(l)
		if err != nil || h == "" {
			continue
		}
		switch h {
		case "localhost", "127.0.0.1", "::1", "0.0.0.0", "::":
			continue
		}
		hosts = append(hosts, h)
	}
	return hosts
}

// GenCertPair generates a self signed key/cert pair to the paths provided.
// The certificate is also valid for the hosts of the listen addresses.
func GenCertPair(org, certFile, keyFile string, listeners []string) error {
	cert, key, err := certgen.NewTLSCertPair(elliptic.P521(), org,
		time.Now().Add(certValidity), listenerHosts(listeners))
	if err != nil {
		return err
	}

	if err = os.WriteFile(certFile, cert, 0644); err != nil {
		return err
	}
	if err = os.WriteFile(keyFile, key, 0600); err != nil {
		os.Remove(certFile)
		return err
	}

	return nil
}

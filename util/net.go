// Copyright (c) 2017-2022 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package util

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/schema"
)

// forwardedHeader is the header that a reverse proxy uses to pass along the
// address of the original client.
const forwardedHeader = "X-Forwarded-For"

// NormalizeAddress returns addr with the passed default port appended if
// there is not already a port specified.
func NormalizeAddress(addr, defaultPort string) string {
	_, _, err := net.SplitHostPort(addr)
	if err != nil {
		return net.JoinHostPort(addr, defaultPort)
	}
	return addr
}

// NewHTTPClient returns a new http.Client. If certPath is provided the
// certificate is added to the root CAs of the client.
func NewHTTPClient(skipVerify bool, certPath string) (*http.Client, error) {
	tlsConfig := &tls.Config{
		InsecureSkipVerify: skipVerify,
	}
	if !skipVerify && certPath != "" {
		cert, err := os.ReadFile(certPath)
		if err != nil {
			return nil, err
		}
		certPool, err := x509.SystemCertPool()
		if err != nil || certPool == nil {
			certPool = x509.NewCertPool()
		}
		if !certPool.AppendCertsFromPEM(cert) {
			return nil, fmt.Errorf("no certificates found in %v", certPath)
		}
		tlsConfig.RootCAs = certPool
	}

	return &http.Client{
		Timeout: 2 * time.Minute,
		Transport: &http.Transport{
			IdleConnTimeout:       60 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			TLSClientConfig:       tlsConfig,
		},
	}, nil
}

// RespBody returns the response body as a byte slice.
func RespBody(r *http.Response) []byte {
	b, _ := io.ReadAll(r.Body)
	return b
}

// RespondWithJSON writes the JSON encoding of payload to the response writer
// using the provided http status code.
func RespondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError),
			http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

// ParseGetParams parses the query params from the GET request into a struct.
// This method requires the struct type to be defined with `schema` tags.
func ParseGetParams(r *http.Request, dst interface{}) error {
	err := r.ParseForm()
	if err != nil {
		return err
	}
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(true)
	return d.Decode(dst, r.Form)
}

// RemoteAddr returns a string of the remote address, i.e. the address that
// sent the request.
func RemoteAddr(r *http.Request) string {
	xff := r.Header.Get(forwardedHeader)
	if xff != "" {
		return fmt.Sprintf("%v via %v", xff, r.RemoteAddr)
	}
	return r.RemoteAddr
}

// Copyright (c) 2020-2022 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package client provides an HTTP client for the electiond API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/gorilla/schema"
	v1 "github.com/tokenvote/tokenvote/electiond/api/v1"
	"github.com/tokenvote/tokenvote/electiond/api/v1/identity"
	"github.com/tokenvote/tokenvote/util"
)

// Client provides a client for interacting with the electiond API.
type Client struct {
	host    string
	rpcUser string
	rpcPass string
	http    *http.Client
	pid     *identity.PublicIdentity
}

// Opts contains the electiond client options. The admin credentials are
// only required for privileged plugin writes.
type Opts struct {
	HTTPSCert  string
	SkipVerify bool
	RPCUser    string
	RPCPass    string

	// PublicIdentity is the expected electiond identity. Identity
	// replies are verified against it when it is set.
	PublicIdentity *identity.PublicIdentity
}

// ErrorReply represents the request body that is returned from electiond
// when an error occurs. PluginID and ErrorReason are only populated if the
// error occurred during execution of a plugin command.
type ErrorReply struct {
	PluginID     string `json:"pluginid"`
	ErrorCode    uint32 `json:"errorcode"`
	ErrorReason  string `json:"errorreason"`
	ErrorContext string `json:"errorcontext"`
}

// RespError represents an electiond response error. A RespError is
// returned anytime the electiond response is not a 200.
type RespError struct {
	HTTPCode   int
	ErrorReply ErrorReply
}

// Error satisfies the error interface.
func (e RespError) Error() string {
	r := e.ErrorReply
	switch {
	case r.PluginID != "":
		s := fmt.Sprintf("electiond plugin error: %v %v %v",
			e.HTTPCode, r.PluginID, r.ErrorReason)
		if r.ErrorContext != "" {
			s += ": " + r.ErrorContext
		}
		return s
	case e.HTTPCode == http.StatusInternalServerError:
		return fmt.Sprintf("electiond server error: %v", r.ErrorCode)
	}
	s := fmt.Sprintf("electiond error: %v %v", e.HTTPCode,
		v1.ErrorCodes[v1.ErrorCodeT(r.ErrorCode)])
	if r.ErrorContext != "" {
		s += ": " + r.ErrorContext
	}
	return s
}

// makeReq makes an electiond http request to the method and route provided,
// serializing the provided object as the request body for POST requests and
// as the query parameters for GET requests. A RespError is returned if
// electiond responds with anything other than a 200 http status code.
func (c *Client) makeReq(ctx context.Context, method, route string, v interface{}) ([]byte, error) {
	var (
		reqBody []byte
		query   string
		err     error
	)
	switch {
	case v == nil:
	case method == http.MethodGet:
		form := url.Values{}
		err = schema.NewEncoder().Encode(v, form)
		if err != nil {
			return nil, err
		}
		query = "?" + form.Encode()
	default:
		reqBody, err = json.Marshal(v)
		if err != nil {
			return nil, err
		}
	}

	fullRoute := c.host + v1.APIRoute + route + query
	req, err := http.NewRequestWithContext(ctx, method, fullRoute,
		bytes.NewReader(reqBody))
	if err != nil {
		return nil, err
	}
	if c.rpcUser != "" || c.rpcPass != "" {
		req.SetBasicAuth(c.rpcUser, c.rpcPass)
	}
	r, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer r.Body.Close()

	if r.StatusCode != http.StatusOK {
		var e ErrorReply
		decoder := json.NewDecoder(r.Body)
		if err := decoder.Decode(&e); err != nil {
			return nil, fmt.Errorf("status code %v: %v", r.StatusCode, err)
		}
		return nil, RespError{
			HTTPCode:   r.StatusCode,
			ErrorReply: e,
		}
	}

	return util.RespBody(r), nil
}

// New returns a new electiond client.
func New(host string, opts Opts) (*Client, error) {
	h, err := util.NewHTTPClient(opts.SkipVerify, opts.HTTPSCert)
	if err != nil {
		return nil, err
	}
	return &Client{
		host:    host,
		rpcUser: opts.RPCUser,
		rpcPass: opts.RPCPass,
		http:    h,
		pid:     opts.PublicIdentity,
	}, nil
}

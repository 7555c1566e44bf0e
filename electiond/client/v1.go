// Copyright (c) 2020-2022 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	v1 "github.com/tokenvote/tokenvote/electiond/api/v1"
	"github.com/tokenvote/tokenvote/electiond/api/v1/identity"
	"github.com/tokenvote/tokenvote/util"
)

// Version sends a Version command to electiond.
func (c *Client) Version(ctx context.Context) (*v1.VersionReply, error) {
	resBody, err := c.makeReq(ctx, http.MethodGet, v1.RouteVersion, nil)
	if err != nil {
		return nil, err
	}

	var vr v1.VersionReply
	err = json.Unmarshal(resBody, &vr)
	if err != nil {
		return nil, err
	}
	return &vr, nil
}

// Identity sends an Identity command to electiond and verifies the
// challenge response. The response is also verified against the expected
// identity when the client was created with one.
func (c *Client) Identity(ctx context.Context) (*identity.PublicIdentity, error) {
	challenge, err := util.Random(32)
	if err != nil {
		return nil, err
	}
	i := v1.Identity{
		Challenge: fmt.Sprintf("%x", challenge),
	}
	resBody, err := c.makeReq(ctx, http.MethodPost, v1.RouteIdentity, i)
	if err != nil {
		return nil, err
	}

	var ir v1.IdentityReply
	err = json.Unmarshal(resBody, &ir)
	if err != nil {
		return nil, err
	}
	pid, err := identity.PublicIdentityFromString(ir.PublicKey)
	if err != nil {
		return nil, err
	}
	if c.pid != nil && c.pid.String() != pid.String() {
		return nil, fmt.Errorf("unexpected identity %v, want %v",
			pid.String(), c.pid.String())
	}
	err = util.VerifyChallenge(pid, challenge, ir.Response)
	if err != nil {
		return nil, err
	}

	return pid, nil
}

// PluginWrite sends a PluginWrite command to electiond.
func (c *Client) PluginWrite(ctx context.Context, cmd v1.PluginCmd) (*v1.PluginWriteReply, error) {
	pw := v1.PluginWrite{
		Cmd: cmd,
	}
	resBody, err := c.makeReq(ctx, http.MethodPost, v1.RoutePluginWrite, pw)
	if err != nil {
		return nil, err
	}

	var pwr v1.PluginWriteReply
	err = json.Unmarshal(resBody, &pwr)
	if err != nil {
		return nil, err
	}
	return &pwr, nil
}

// PluginRead sends a PluginRead command to electiond and returns the JSON
// encoded plugin reply.
func (c *Client) PluginRead(ctx context.Context, cmd v1.PluginCmd) (string, error) {
	pr := v1.PluginRead{
		Cmd: cmd,
	}
	resBody, err := c.makeReq(ctx, http.MethodPost, v1.RoutePluginRead, pr)
	if err != nil {
		return "", err
	}

	var prr v1.PluginReadReply
	err = json.Unmarshal(resBody, &prr)
	if err != nil {
		return "", err
	}
	return prr.Payload, nil
}

// PluginInventory sends a PluginInventory command to electiond.
func (c *Client) PluginInventory(ctx context.Context) ([]v1.Plugin, error) {
	resBody, err := c.makeReq(ctx, http.MethodPost,
		v1.RoutePluginInventory, v1.PluginInventory{})
	if err != nil {
		return nil, err
	}

	var pir v1.PluginInventoryReply
	err = json.Unmarshal(resBody, &pir)
	if err != nil {
		return nil, err
	}
	return pir.Plugins, nil
}

// Block sends a BlockGet command to electiond.
func (c *Client) Block(ctx context.Context, height uint64) (*v1.Block, error) {
	resBody, err := c.makeReq(ctx, http.MethodGet, v1.RouteBlock,
		v1.BlockGet{Height: height})
	if err != nil {
		return nil, err
	}

	var bgr v1.BlockGetReply
	err = json.Unmarshal(resBody, &bgr)
	if err != nil {
		return nil, err
	}
	return &bgr.Block, nil
}

// BlockBest sends a BlockBest command to electiond.
func (c *Client) BlockBest(ctx context.Context) (*v1.Block, error) {
	resBody, err := c.makeReq(ctx, http.MethodGet, v1.RouteBlockBest, nil)
	if err != nil {
		return nil, err
	}

	var bbr v1.BlockBestReply
	err = json.Unmarshal(resBody, &bbr)
	if err != nil {
		return nil, err
	}
	return &bbr.Block, nil
}

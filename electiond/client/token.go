// Copyright (c) 2022 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package client

import (
	"context"

	v1 "github.com/tokenvote/tokenvote/electiond/api/v1"
	"github.com/tokenvote/tokenvote/electiond/plugins/token"
)

// TokenGenerate sends the token plugin Generate command to electiond. This
// command requires admin credentials.
func (c *Client) TokenGenerate(ctx context.Context, g token.Generate) (*token.GenerateReply, *v1.Block, error) {
	var gr token.GenerateReply
	b, err := c.pluginWrite(ctx, token.PluginID, token.CmdGenerate, g, &gr)
	if err != nil {
		return nil, nil, err
	}
	return &gr, b, nil
}

// TokenDestroy sends the token plugin Destroy command to electiond. This
// command requires admin credentials.
func (c *Client) TokenDestroy(ctx context.Context, d token.Destroy) (*token.DestroyReply, *v1.Block, error) {
	var dr token.DestroyReply
	b, err := c.pluginWrite(ctx, token.PluginID, token.CmdDestroy, d, &dr)
	if err != nil {
		return nil, nil, err
	}
	return &dr, b, nil
}

// TokenTransfer sends the token plugin Transfer command to electiond.
func (c *Client) TokenTransfer(ctx context.Context, t token.Transfer) (*token.TransferReply, *v1.Block, error) {
	var tr token.TransferReply
	b, err := c.pluginWrite(ctx, token.PluginID, token.CmdTransfer, t, &tr)
	if err != nil {
		return nil, nil, err
	}
	return &tr, b, nil
}

// TokenBalance sends the token plugin Balance command to electiond.
func (c *Client) TokenBalance(ctx context.Context, holder string) (string, error) {
	var br token.BalanceReply
	err := c.pluginRead(ctx, token.PluginID, token.CmdBalance,
		token.Balance{Holder: holder}, &br)
	if err != nil {
		return "", err
	}
	return br.Balance, nil
}

// TokenBalanceAt sends the token plugin BalanceAt command to electiond.
func (c *Client) TokenBalanceAt(ctx context.Context, holder string, height uint64) (string, error) {
	var br token.BalanceAtReply
	err := c.pluginRead(ctx, token.PluginID, token.CmdBalanceAt,
		token.BalanceAt{Holder: holder, Height: height}, &br)
	if err != nil {
		return "", err
	}
	return br.Balance, nil
}

// TokenTotalSupplyAt sends the token plugin TotalSupplyAt command to
// electiond.
func (c *Client) TokenTotalSupplyAt(ctx context.Context, height uint64) (string, error) {
	var tr token.TotalSupplyAtReply
	err := c.pluginRead(ctx, token.PluginID, token.CmdTotalSupplyAt,
		token.TotalSupplyAt{Height: height}, &tr)
	if err != nil {
		return "", err
	}
	return tr.TotalSupply, nil
}

// TokenHolders sends the token plugin Holders command to electiond.
func (c *Client) TokenHolders(ctx context.Context) ([]token.Holder, error) {
	var hr token.HoldersReply
	err := c.pluginRead(ctx, token.PluginID, token.CmdHolders,
		token.Holders{}, &hr)
	if err != nil {
		return nil, err
	}
	return hr.Holders, nil
}

// TokenInfo sends the token plugin Info command to electiond.
func (c *Client) TokenInfo(ctx context.Context) (*token.InfoReply, error) {
	var ir token.InfoReply
	err := c.pluginRead(ctx, token.PluginID, token.CmdInfo, token.Info{}, &ir)
	if err != nil {
		return nil, err
	}
	return &ir, nil
}

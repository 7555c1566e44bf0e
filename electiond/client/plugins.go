// Copyright (c) 2020-2022 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package client

import (
	"context"
	"encoding/json"

	v1 "github.com/tokenvote/tokenvote/electiond/api/v1"
)

// pluginWrite JSON encodes the payload, executes the plugin write and
// decodes the plugin reply into reply. The block that the write was
// committed in is returned.
func (c *Client) pluginWrite(ctx context.Context, pluginID, cmd string, payload, reply interface{}) (*v1.Block, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	pwr, err := c.PluginWrite(ctx, v1.PluginCmd{
		PluginID: pluginID,
		Cmd:      cmd,
		Payload:  string(b),
	})
	if err != nil {
		return nil, err
	}
	err = json.Unmarshal([]byte(pwr.Payload), reply)
	if err != nil {
		return nil, err
	}
	return &pwr.Block, nil
}

// pluginRead JSON encodes the payload, executes the plugin read and decodes
// the plugin reply into reply.
func (c *Client) pluginRead(ctx context.Context, pluginID, cmd string, payload, reply interface{}) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	r, err := c.PluginRead(ctx, v1.PluginCmd{
		PluginID: pluginID,
		Cmd:      cmd,
		Payload:  string(b),
	})
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(r), reply)
}

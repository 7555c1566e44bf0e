// Copyright (c) 2022 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package ledgerbe

import (
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/tokenvote/tokenvote/electiond/backend"
	"github.com/tokenvote/tokenvote/electiond/backend/ledgerbe/plugins"
	"github.com/tokenvote/tokenvote/electiond/backend/ledgerbe/store"
)

const (
	// maxCallDepth is the maximum number of nested plugin calls that a
	// single plugin command can make.
	maxCallDepth = 8
)

var (
	_ plugins.LedgerClient = (*ledgerClient)(nil)
)

// ErrCallDepth is returned when a plugin command exceeds the maximum number
// of nested plugin calls.
var ErrCallDepth = errors.New("plugin call depth exceeded")

// ledgerClient is the plugins LedgerClient implementation that is handed to
// a plugin for the execution of a single command. Writes are made inside the
// store transaction of the block that is being built. A ledgerClient
// without a transaction is read-only.
type ledgerClient struct {
	backend   *ledgerBackend
	getter    store.Getter
	tx        store.Tx // Nil for reads
	pluginID  string
	height    uint64
	timestamp int64
	depth     int

	// events is shared between all clients of a single write.
	events *[]backend.Event
}

// child returns a client for a nested call to the provided plugin.
func (c *ledgerClient) child(pluginID string, readOnly bool) (*ledgerClient, error) {
	if c.depth+1 > maxCallDepth {
		return nil, ErrCallDepth
	}
	n := *c
	n.pluginID = pluginID
	n.depth++
	if readOnly {
		n.tx = nil
	}
	return &n, nil
}

// BlockHeight returns the height of the block that is being built for
// writes and the height of the best block for reads.
//
// This function satisfies the plugins LedgerClient interface.
func (c *ledgerClient) BlockHeight() uint64 {
	return c.height
}

// BlockTime returns the timestamp of the block that is being built for
// writes and the current time for reads.
//
// This function satisfies the plugins LedgerClient interface.
func (c *ledgerClient) BlockTime() int64 {
	return c.timestamp
}

// Put saves the provided key-value pairs in the plugin's namespace.
//
// This function satisfies the plugins LedgerClient interface.
func (c *ledgerClient) Put(blobs map[string][]byte, encrypt bool) error {
	if c.tx == nil {
		return plugins.ErrReadOnly
	}
	nb := make(map[string][]byte, len(blobs))
	for k, v := range blobs {
		nb[pluginKey(c.pluginID, k)] = v
	}
	return c.tx.Put(nb, encrypt)
}

// Del deletes the provided keys from the plugin's namespace.
//
// This function satisfies the plugins LedgerClient interface.
func (c *ledgerClient) Del(keys []string) error {
	if c.tx == nil {
		return plugins.ErrReadOnly
	}
	nk := make([]string, 0, len(keys))
	for _, v := range keys {
		nk = append(nk, pluginKey(c.pluginID, v))
	}
	return c.tx.Del(nk)
}

// Get returns the values of the provided keys from the plugin's namespace.
//
// This function satisfies the plugins LedgerClient interface.
func (c *ledgerClient) Get(keys []string) (map[string][]byte, error) {
	nk := make([]string, 0, len(keys))
	for _, v := range keys {
		nk = append(nk, pluginKey(c.pluginID, v))
	}
	blobs, err := c.getter.Get(nk)
	if err != nil {
		return nil, err
	}
	reply := make(map[string][]byte, len(blobs))
	for _, v := range keys {
		b, ok := blobs[pluginKey(c.pluginID, v)]
		if !ok {
			continue
		}
		reply[v] = b
	}
	return reply, nil
}

// Emit appends an event to the block that is being built.
//
// This function satisfies the plugins LedgerClient interface.
func (c *ledgerClient) Emit(name string, payload interface{}) error {
	if c.tx == nil {
		return plugins.ErrReadOnly
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	*c.events = append(*c.events, backend.Event{
		PluginID: c.pluginID,
		Name:     name,
		Payload:  string(b),
	})
	return nil
}

// Exec executes a write command of the provided plugin as part of the
// current write. Privileged commands are allowed.
//
// This function satisfies the plugins LedgerClient interface.
func (c *ledgerClient) Exec(pluginID, cmd, payload string) (string, error) {
	log.Tracef("Exec: %v %v %v", c.pluginID, pluginID, cmd)

	if c.tx == nil {
		return "", plugins.ErrReadOnly
	}
	p, ok := c.backend.plugin(pluginID)
	if !ok {
		return "", backend.ErrPluginIDInvalid
	}
	n, err := c.child(pluginID, false)
	if err != nil {
		return "", err
	}
	return p.client.Write(n, cmd, payload)
}

// Read executes a read command of the provided plugin. Reads made during a
// write see the uncommitted state of the write.
//
// This function satisfies the plugins LedgerClient interface.
func (c *ledgerClient) Read(pluginID, cmd, payload string) (string, error) {
	log.Tracef("Read: %v %v %v", c.pluginID, pluginID, cmd)

	p, ok := c.backend.plugin(pluginID)
	if !ok {
		return "", backend.ErrPluginIDInvalid
	}
	n, err := c.child(pluginID, true)
	if err != nil {
		return "", err
	}
	return p.client.Read(n, cmd, payload)
}

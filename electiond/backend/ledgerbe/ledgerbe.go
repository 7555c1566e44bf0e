// Copyright (c) 2022 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package ledgerbe

import (
	"encoding/hex"
	"sort"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/tokenvote/tokenvote/electiond/backend"
	"github.com/tokenvote/tokenvote/electiond/backend/ledgerbe/plugins"
	"github.com/tokenvote/tokenvote/electiond/backend/ledgerbe/plugins/election"
	"github.com/tokenvote/tokenvote/electiond/backend/ledgerbe/plugins/token"
	"github.com/tokenvote/tokenvote/electiond/backend/ledgerbe/store"
	elplugin "github.com/tokenvote/tokenvote/electiond/plugins/election"
	tkplugin "github.com/tokenvote/tokenvote/electiond/plugins/token"
	"github.com/tokenvote/tokenvote/util"
)

var (
	_ backend.Backend = (*ledgerBackend)(nil)
)

// plugin represents a ledger plugin.
type plugin struct {
	id     string
	client plugins.PluginClient
}

// ledgerBackend implements the backend Backend interface. Plugin writes are
// serialized and every successful write is committed as a single block.
type ledgerBackend struct {
	sync.RWMutex
	shutdown bool
	store    store.BlobKV
	now      func() time.Time
	best     backend.Block

	// pluginsMtx protects the plugins map. It is separate from the
	// backend mutex so that plugins can look up other plugins during
	// a write.
	pluginsMtx sync.RWMutex
	plugins    map[string]plugin // [pluginID]plugin

	// notifyMtx orders the delivery of block notifications.
	notifyMtx sync.Mutex
	notifiers []func(backend.Block)
}

// plugin returns the specified plugin. Only plugins that have been registered
// will be returned.
func (l *ledgerBackend) plugin(pluginID string) (plugin, bool) {
	l.pluginsMtx.RLock()
	defer l.pluginsMtx.RUnlock()

	p, ok := l.plugins[pluginID]
	return p, ok
}

// PluginRegister registers a plugin. Plugin commands can be executed on the
// plugin once registered.
//
// This function satisfies the backend Backend interface.
func (l *ledgerBackend) PluginRegister(p backend.Plugin) error {
	log.Tracef("PluginRegister: %v", p.ID)

	var (
		client plugins.PluginClient
		err    error
	)
	switch p.ID {
	case tkplugin.PluginID:
		client, err = token.New(p.Settings)
		if err != nil {
			return err
		}
	case elplugin.PluginID:
		client, err = election.New(l, p.Settings, p.Identity)
		if err != nil {
			return err
		}
	default:
		return backend.ErrPluginIDInvalid
	}

	l.pluginsMtx.Lock()
	defer l.pluginsMtx.Unlock()

	l.plugins[p.ID] = plugin{
		id:     p.ID,
		client: client,
	}

	return nil
}

// PluginSetup performs any required plugin setup.
//
// This function satisfies the backend Backend interface.
func (l *ledgerBackend) PluginSetup(pluginID string) error {
	log.Tracef("PluginSetup: %v", pluginID)

	p, ok := l.plugin(pluginID)
	if !ok {
		return backend.ErrPluginIDInvalid
	}

	return p.client.Setup()
}

// PluginInventory returns all registered plugins and their settings, sorted
// by plugin ID.
//
// This function satisfies the backend Backend interface.
func (l *ledgerBackend) PluginInventory() []backend.Plugin {
	log.Tracef("PluginInventory")

	l.pluginsMtx.RLock()
	defer l.pluginsMtx.RUnlock()

	ps := make([]backend.Plugin, 0, len(l.plugins))
	for _, v := range l.plugins {
		ps = append(ps, backend.Plugin{
			ID:       v.id,
			Settings: v.client.Settings(),
		})
	}
	sort.SliceStable(ps, func(i, j int) bool {
		return ps[i].ID < ps[j].ID
	})

	return ps
}

// PluginRead executes a read-only plugin command against the current state
// of the ledger.
//
// This function satisfies the backend Backend interface.
func (l *ledgerBackend) PluginRead(pluginID, pluginCmd, payload string) (string, error) {
	log.Tracef("PluginRead: %v %v", pluginID, pluginCmd)

	p, ok := l.plugin(pluginID)
	if !ok {
		return "", backend.ErrPluginIDInvalid
	}

	l.RLock()
	defer l.RUnlock()

	if l.shutdown {
		return "", backend.ErrShutdown
	}

	now := l.now().Unix()
	if now < l.best.Timestamp {
		now = l.best.Timestamp
	}
	c := &ledgerClient{
		backend:   l,
		getter:    l.store,
		pluginID:  pluginID,
		height:    l.best.Height,
		timestamp: now,
		events:    &[]backend.Event{},
	}

	return p.client.Read(c, pluginCmd, payload)
}

// PluginWrite executes a plugin command that writes data. The write is
// committed as a new block. Nothing is committed when the command returns
// an error.
//
// This function satisfies the backend Backend interface.
func (l *ledgerBackend) PluginWrite(pluginID, pluginCmd, payload string, privileged bool) (*backend.Receipt, error) {
	log.Tracef("PluginWrite: %v %v", pluginID, pluginCmd)

	p, ok := l.plugin(pluginID)
	if !ok {
		return nil, backend.ErrPluginIDInvalid
	}
	if p.client.Privileged(pluginCmd) && !privileged {
		return nil, backend.ErrPluginNotPrivileged
	}

	// Hold the backend lock for the remainder of this function. We do
	// this here in the backend so that the individual plugin
	// implementations don't need to worry about race conditions.
	l.Lock()
	unlocked := false
	defer func() {
		if !unlocked {
			l.Unlock()
		}
	}()

	if l.shutdown {
		return nil, backend.ErrShutdown
	}

	tx, cancel, err := l.store.Tx()
	if err != nil {
		return nil, err
	}
	defer cancel()

	// Execute the plugin command against the block that is being built
	b := newBlock(l.best, l.now().Unix())
	b.PluginID = pluginID
	b.Cmd = pluginCmd
	b.PayloadDigest = hex.EncodeToString(util.Digest([]byte(payload)))
	events := make([]backend.Event, 0, 4)
	c := &ledgerClient{
		backend:   l,
		getter:    tx,
		tx:        tx,
		pluginID:  pluginID,
		height:    b.Height,
		timestamp: b.Timestamp,
		events:    &events,
	}
	reply, err := p.client.Write(c, pluginCmd, payload)
	if err != nil {
		return nil, err
	}

	// Seal the block
	b.Events = events
	b.Hash, err = blockHash(b)
	if err != nil {
		return nil, err
	}
	err = blockSave(tx, b)
	if err != nil {
		return nil, err
	}
	err = tx.Commit()
	if err != nil {
		return nil, errors.Wrap(err, "commit")
	}
	l.best = b

	log.Infof("Block %v: %v %v (%v events)",
		b.Height, pluginID, pluginCmd, len(b.Events))

	// Notifications are delivered in block order without holding the
	// backend lock so that notifiers can read from the backend.
	l.notifyMtx.Lock()
	defer l.notifyMtx.Unlock()
	l.Unlock()
	unlocked = true
	for _, fn := range l.notifiers {
		fn(b)
	}

	return &backend.Receipt{
		Reply: reply,
		Block: b,
	}, nil
}

// BestBlock returns the most recent block.
//
// This function satisfies the backend Backend interface.
func (l *ledgerBackend) BestBlock() (*backend.Block, error) {
	l.RLock()
	defer l.RUnlock()

	if l.shutdown {
		return nil, backend.ErrShutdown
	}
	b := l.best
	return &b, nil
}

// Block returns the block at the provided height.
//
// This function satisfies the backend Backend interface.
func (l *ledgerBackend) Block(height uint64) (*backend.Block, error) {
	log.Tracef("Block: %v", height)

	l.RLock()
	defer l.RUnlock()

	if l.shutdown {
		return nil, backend.ErrShutdown
	}
	if height > l.best.Height {
		return nil, backend.ErrBlockNotFound
	}
	return blockGet(l.store, blockKey(height))
}

// RegisterBlockNotifier registers a function that is invoked with every
// newly committed block.
//
// This function satisfies the backend Backend interface.
func (l *ledgerBackend) RegisterBlockNotifier(fn func(backend.Block)) {
	l.notifyMtx.Lock()
	defer l.notifyMtx.Unlock()

	l.notifiers = append(l.notifiers, fn)
}

// Close performs cleanup of the backend.
//
// This function satisfies the backend Backend interface.
func (l *ledgerBackend) Close() {
	log.Tracef("Close")

	l.Lock()
	defer l.Unlock()

	// Shutdown backend
	l.shutdown = true

	// Close the store connection
	l.store.Close()
}

// setup loads the chain head or creates the genesis block when the ledger is
// empty.
func (l *ledgerBackend) setup() error {
	log.Tracef("setup")

	best, err := blockGet(l.store, keyChainHead)
	switch {
	case err == nil:
		l.best = *best
		log.Infof("Chain head: %v %v", best.Height, best.Hash)
		return nil
	case errors.Is(err, backend.ErrBlockNotFound):
		// Ledger is empty
	default:
		return err
	}

	genesis, err := genesisBlock(l.now().Unix())
	if err != nil {
		return err
	}
	tx, cancel, err := l.store.Tx()
	if err != nil {
		return err
	}
	defer cancel()
	err = blockSave(tx, *genesis)
	if err != nil {
		return err
	}
	err = tx.Commit()
	if err != nil {
		return err
	}
	l.best = *genesis

	log.Infof("Genesis block created: %v", genesis.Hash)

	return nil
}

// New returns a new ledgerBackend that is stored in the provided store. The
// now function is the clock that is used for block timestamps. time.Now is
// used when it is nil.
func New(kv store.BlobKV, now func() time.Time) (*ledgerBackend, error) {
	if now == nil {
		now = time.Now
	}
	l := ledgerBackend{
		store:   kv,
		now:     now,
		plugins: make(map[string]plugin),
	}
	err := l.setup()
	if err != nil {
		return nil, errors.Wrap(err, "setup")
	}
	return &l, nil
}

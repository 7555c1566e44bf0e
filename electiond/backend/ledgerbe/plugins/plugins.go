// Copyright (c) 2020-2022 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package plugins defines the API between the ledger backend and the plugins
// that it hosts.
package plugins

import (
	"github.com/pkg/errors"
	"github.com/tokenvote/tokenvote/electiond/backend"
	"github.com/tokenvote/tokenvote/electiond/backend/ledgerbe/store"
)

// PluginClient provides an API for the ledger to use when interacting with a
// plugin. All ledger plugins must implement the PluginClient interface.
type PluginClient interface {
	// Setup performs any required plugin setup.
	Setup() error

	// Write executes a write plugin command. All operations performed
	// using the LedgerClient are part of a single atomic ledger write.
	// The plugin does not need to worry about concurrency issues. An
	// error rolls back every change made by the write, including the
	// changes made by nested writes.
	Write(l LedgerClient, cmd, payload string) (string, error)

	// Read executes a read-only plugin command against the current
	// state of the ledger.
	Read(l LedgerClient, cmd, payload string) (string, error)

	// Privileged returns whether the provided write command requires
	// admin privileges.
	Privileged(cmd string) bool

	// Settings returns the plugin settings.
	Settings() []backend.PluginSetting
}

// LedgerClient provides an API for plugins to interact with the ledger. Keys
// are namespaced per plugin by the ledger, so plugins do not need to prefix
// them.
type LedgerClient interface {
	// BlockHeight returns the height of the block that is being built
	// for writes, or the height of the best block for reads.
	BlockHeight() uint64

	// BlockTime returns the timestamp of the block that is being built
	// for writes, or the current time for reads.
	BlockTime() int64

	// Put saves the provided key-value pairs. It returns an error when
	// used during a read.
	Put(blobs map[string][]byte, encrypt bool) error

	// Del deletes the provided keys. It returns an error when used
	// during a read.
	Del(keys []string) error

	// Get returns the values of the provided keys. Keys that do not
	// exist are not included in the returned map.
	Get(keys []string) (map[string][]byte, error)

	// Emit appends an event to the block that is being built. The
	// payload is JSON encoded.
	Emit(name string, payload interface{}) error

	// Exec executes a privileged write command of any plugin as part of
	// the current write.
	Exec(pluginID, cmd, payload string) (string, error)

	// Read executes a read command of any plugin. Reads made during a
	// write see the uncommitted state of the write.
	Read(pluginID, cmd, payload string) (string, error)
}

// ErrReadOnly is returned when a write operation is attempted using the
// LedgerClient of a read command.
var ErrReadOnly = errors.New("ledger client is read-only")

// PutStruct saves the provided structure under the provided key using a
// store blob entry with the provided descriptor.
func PutStruct(l LedgerClient, key, descriptor string, v interface{}, encrypt bool) error {
	b, err := store.EncodeStruct(descriptor, v)
	if err != nil {
		return errors.Wrapf(err, "encode %v", key)
	}
	return l.Put(map[string][]byte{key: b}, encrypt)
}

// GetStruct decodes the structure saved under the provided key into v. The
// returned bool is false when the key does not exist.
func GetStruct(l LedgerClient, key string, v interface{}) (bool, error) {
	blobs, err := l.Get([]string{key})
	if err != nil {
		return false, err
	}
	b, ok := blobs[key]
	if !ok {
		return false, nil
	}
	err = store.DecodeStruct(b, v)
	if err != nil {
		return false, errors.Wrapf(err, "decode %v", key)
	}
	return true, nil
}

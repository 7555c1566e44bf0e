// Copyright (c) 2020-2022 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package backend defines the interface between the election daemon and the
// ledger that hosts the plugins.
package backend

import (
	"errors"
	"fmt"

	"github.com/tokenvote/tokenvote/electiond/api/v1/identity"
)

var (
	// ErrShutdown is returned when the backend is shutdown.
	ErrShutdown = errors.New("backend is shutdown")

	// ErrPluginIDInvalid is returned when a invalid plugin ID is used.
	ErrPluginIDInvalid = errors.New("plugin id invalid")

	// ErrPluginCmdInvalid is returned when a invalid plugin command is
	// used.
	ErrPluginCmdInvalid = errors.New("plugin command invalid")

	// ErrPluginNotPrivileged is returned when a privileged plugin
	// command is executed without admin credentials.
	ErrPluginNotPrivileged = errors.New("plugin command requires privileges")

	// ErrBlockNotFound is returned when a block height does not exist.
	ErrBlockNotFound = errors.New("block not found")
)

// PluginSetting is a structure that holds key/value pairs of a plugin setting.
type PluginSetting struct {
	Key   string // Name of setting
	Value string // Value of setting
}

// Plugin describes a plugin and its settings.
type Plugin struct {
	ID       string
	Settings []PluginSetting

	// Identity is the full identity of the daemon. Plugins use it to
	// sign receipts of the commands that they process.
	Identity *identity.FullIdentity
}

// PluginError represents an error that occurred during plugin execution that
// was caused by the user. ErrorReason is the symbolic reason of the error
// code, e.g. ERROR_VOTE_UNCHANGED.
type PluginError struct {
	PluginID     string
	ErrorCode    uint32
	ErrorReason  string
	ErrorContext string
}

// Error satisfies the error interface.
func (e PluginError) Error() string {
	if e.ErrorContext == "" {
		return fmt.Sprintf("%v plugin error %v %v",
			e.PluginID, e.ErrorCode, e.ErrorReason)
	}
	return fmt.Sprintf("%v plugin error %v %v: %v",
		e.PluginID, e.ErrorCode, e.ErrorReason, e.ErrorContext)
}

// Event is a named, JSON encoded notification that a plugin emits while
// executing a write.
type Event struct {
	PluginID string `json:"pluginid"`
	Name     string `json:"name"`
	Payload  string `json:"payload"` // JSON encoded
}

// Block describes a committed ledger write. Every successful plugin write
// produces exactly one block. The genesis block has a height of 0 and does
// not contain a command.
type Block struct {
	Height        uint64  `json:"height"`
	Timestamp     int64   `json:"timestamp"` // Unix time
	PrevHash      string  `json:"prevhash"`
	Hash          string  `json:"hash"`
	PluginID      string  `json:"pluginid,omitempty"`
	Cmd           string  `json:"cmd,omitempty"`
	PayloadDigest string  `json:"payloaddigest,omitempty"`
	Events        []Event `json:"events,omitempty"`
}

// Receipt is returned by a successful plugin write. It contains the plugin
// reply payload and the block that the write was committed in.
type Receipt struct {
	Reply string
	Block Block
}

// Backend provides an API for executing plugin commands against the ledger.
type Backend interface {
	// PluginRegister registers a plugin.
	PluginRegister(Plugin) error

	// PluginSetup performs any required plugin setup.
	PluginSetup(pluginID string) error

	// PluginInventory returns all registered plugins.
	PluginInventory() []Plugin

	// PluginRead executes a read-only plugin command against the
	// current state of the ledger.
	PluginRead(pluginID, pluginCmd, payload string) (string, error)

	// PluginWrite executes a plugin command that writes data. The
	// privileged argument indicates whether the caller provided admin
	// credentials.
	PluginWrite(pluginID, pluginCmd, payload string,
		privileged bool) (*Receipt, error)

	// BestBlock returns the most recent block.
	BestBlock() (*Block, error)

	// Block returns the block at the provided height.
	Block(height uint64) (*Block, error)

	// RegisterBlockNotifier registers a function that is invoked with
	// every newly committed block.
	RegisterBlockNotifier(func(Block))

	// Close performs cleanup of the backend.
	Close()
}

// Copyright (c) 2022 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"fmt"

	"github.com/tokenvote/tokenvote/electiond/api/v1/identity"
	"github.com/tokenvote/tokenvote/util"
)

// cmdVersion retrieves the server version.
type cmdVersion struct{}

// Execute executes the cmdVersion command.
//
// This function satisfies the go-flags Commander interface.
func (c *cmdVersion) Execute(args []string) error {
	ec, err := newClient()
	if err != nil {
		return err
	}
	vr, err := ec.Version(ctx())
	if err != nil {
		return err
	}
	return printReply(vr)
}

// cmdIdentity retrieves and verifies the server identity.
type cmdIdentity struct{}

// Execute executes the cmdIdentity command.
//
// This function satisfies the go-flags Commander interface.
func (c *cmdIdentity) Execute(args []string) error {
	ec, err := newClient()
	if err != nil {
		return err
	}
	pid, err := ec.Identity(ctx())
	if err != nil {
		return err
	}
	fmt.Printf("Server public key: %v\n", pid.String())
	return nil
}

// cmdPlugins retrieves the registered plugins.
type cmdPlugins struct{}

// Execute executes the cmdPlugins command.
//
// This function satisfies the go-flags Commander interface.
func (c *cmdPlugins) Execute(args []string) error {
	ec, err := newClient()
	if err != nil {
		return err
	}
	plugins, err := ec.PluginInventory(ctx())
	if err != nil {
		return err
	}
	return printReply(plugins)
}

// cmdBlock retrieves a block.
type cmdBlock struct {
	Args struct {
		Height uint64 `positional-arg-name:"height"`
	} `positional-args:"true" required:"true"`
}

// Execute executes the cmdBlock command.
//
// This function satisfies the go-flags Commander interface.
func (c *cmdBlock) Execute(args []string) error {
	ec, err := newClient()
	if err != nil {
		return err
	}
	b, err := ec.Block(ctx(), c.Args.Height)
	if err != nil {
		return err
	}
	return printReply(b)
}

// cmdBestBlock retrieves the most recent block.
type cmdBestBlock struct{}

// Execute executes the cmdBestBlock command.
//
// This function satisfies the go-flags Commander interface.
func (c *cmdBestBlock) Execute(args []string) error {
	ec, err := newClient()
	if err != nil {
		return err
	}
	b, err := ec.BlockBest(ctx())
	if err != nil {
		return err
	}
	return printReply(b)
}

// cmdNewIdentity creates a new holder identity and saves it to the identity
// file. The holder address is printed.
type cmdNewIdentity struct {
	Force bool `long:"force" description:"Overwrite an existing identity"`
}

// Execute executes the cmdNewIdentity command.
//
// This function satisfies the go-flags Commander interface.
func (c *cmdNewIdentity) Execute(args []string) error {
	fn := util.CleanAndExpandPath(cfg.Identity)
	if util.FileExists(fn) && !c.Force {
		return fmt.Errorf("identity %v already exists; use --force to "+
			"overwrite it", fn)
	}
	id, err := identity.New()
	if err != nil {
		return err
	}
	err = saveIdentity(id, fn)
	if err != nil {
		return err
	}
	fmt.Printf("Identity saved to %v\n", fn)
	fmt.Printf("Address: %v\n", id.Public.String())
	return nil
}

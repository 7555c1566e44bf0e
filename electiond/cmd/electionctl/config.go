// Copyright (c) 2017-2022 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tokenvote/tokenvote/electiond/api/v1/identity"
	"github.com/tokenvote/tokenvote/electiond/client"
	"github.com/tokenvote/tokenvote/util"
)

const (
	defaultHost             = "https://127.0.0.1:49480"
	defaultConfigFilename   = "electionctl.conf"
	defaultIdentityFilename = "identity.json"
)

var (
	defaultHomeDir      = util.AppDataDir("electionctl")
	defaultConfigFile   = filepath.Join(defaultHomeDir, defaultConfigFilename)
	defaultIdentityFile = filepath.Join(defaultHomeDir, defaultIdentityFilename)
	defaultHTTPSCert    = filepath.Join(util.AppDataDir("electiond"),
		"https.cert")
)

// config contains the application options of electionctl.
type config struct {
	Host       string `long:"host" description:"electiond host"`
	HTTPSCert  string `long:"httpscert" description:"electiond https certificate"`
	SkipVerify bool   `long:"skipverify" description:"Skip verifying the server's certificate chain and host name"`
	RPCUser    string `long:"rpcuser" description:"RPC user name for privileged commands"`
	RPCPass    string `long:"rpcpass" description:"RPC password for privileged commands"`
	Identity   string `long:"identity" description:"Holder identity file that signs commands"`
	RawJSON    bool   `short:"j" long:"json" description:"Print raw JSON output"`
	Verbose    bool   `short:"v" long:"verbose" description:"Print verbose output"`
}

// newConfig returns a config populated with the default settings.
func newConfig() config {
	cert := defaultHTTPSCert
	if !util.FileExists(cert) {
		cert = ""
	}
	return config{
		Host:      defaultHost,
		HTTPSCert: cert,
		Identity:  defaultIdentityFile,
	}
}

// newClient returns an electiond client for the global config.
func newClient() (*client.Client, error) {
	return client.New(cfg.Host, client.Opts{
		HTTPSCert:  util.CleanAndExpandPath(cfg.HTTPSCert),
		SkipVerify: cfg.SkipVerify,
		RPCUser:    cfg.RPCUser,
		RPCPass:    cfg.RPCPass,
	})
}

// loadIdentity loads the holder identity of the global config.
func loadIdentity() (*identity.FullIdentity, error) {
	fn := util.CleanAndExpandPath(cfg.Identity)
	id, err := identity.LoadFullIdentity(fn)
	if err != nil {
		return nil, fmt.Errorf("load identity %v: %v; use newidentity "+
			"to create one", fn, err)
	}
	return id, nil
}

// saveIdentity saves the identity to the provided file, creating the
// directory when needed.
func saveIdentity(id *identity.FullIdentity, filename string) error {
	err := os.MkdirAll(filepath.Dir(filename), 0700)
	if err != nil {
		return err
	}
	return id.Save(filename)
}

// newNonce returns a random nonce for signed commands.
func newNonce() (string, error) {
	return util.RandomHex(16)
}

// ctx returns the context of a single command.
func ctx() context.Context {
	return context.Background()
}

// Copyright (c) 2017-2022 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"errors"
	"fmt"
	"os"

	flags "github.com/jessevdk/go-flags"
	"github.com/tokenvote/tokenvote/util"
)

// cfg is the config of the running command.
var cfg *config

type electionctl struct {
	// This is here to prevent parsing errors caused by config flags.
	Config config

	// Server commands
	Version     cmdVersion     `command:"version"`
	Identity    cmdIdentity    `command:"identity"`
	Plugins     cmdPlugins     `command:"plugins"`
	Block       cmdBlock       `command:"block"`
	BestBlock   cmdBestBlock   `command:"bestblock"`
	NewIdentity cmdNewIdentity `command:"newidentity"`
	Subscribe   cmdSubscribe   `command:"subscribe"`

	// Token commands
	Generate      cmdGenerate      `command:"generate"`
	Destroy       cmdDestroy       `command:"destroy"`
	Transfer      cmdTransfer      `command:"transfer"`
	Balance       cmdBalance       `command:"balance"`
	BalanceAt     cmdBalanceAt     `command:"balanceat"`
	TotalSupplyAt cmdTotalSupplyAt `command:"totalsupplyat"`
	Holders       cmdHolders       `command:"holders"`
	TokenInfo     cmdTokenInfo     `command:"tokeninfo"`

	// Election commands
	NewElection      cmdNewElection      `command:"newelection"`
	AddCandidate     cmdAddCandidate     `command:"addcandidate"`
	Vote             cmdVote             `command:"vote"`
	Execute          cmdExecute          `command:"execute"`
	SetSupport       cmdSetSupport       `command:"setsupport"`
	SetQuorum        cmdSetQuorum        `command:"setquorum"`
	Election         cmdElection         `command:"election"`
	Candidate        cmdCandidate        `command:"candidate"`
	VoterState       cmdVoterState       `command:"voterstate"`
	VoterChoice      cmdVoterChoice      `command:"voterchoice"`
	Summary          cmdSummary          `command:"summary"`
	ElectionInv      cmdElectionInv      `command:"electioninv"`
	ElectionSettings cmdElectionSettings `command:"electionsettings"`
	Script           cmdScript           `command:"script"`
}

const helpMsg = `Application Options:
      --host=       electiond host (default: https://127.0.0.1:49480)
      --httpscert=  electiond https certificate
      --skipverify  Skip verifying the server's certificate chain and host name
      --rpcuser=    RPC user name for privileged commands
      --rpcpass=    RPC password for privileged commands
      --identity=   Holder identity file that signs commands
  -j, --json        Print raw JSON output
  -v, --verbose     Print verbose output

Help commands
  -h, --help        Print this help message

Server commands
  version                         Get server version and best height
  identity                        Get and verify the server identity
  plugins                         Get registered plugins
  block <height>                  Get a block
  bestblock                       Get the best block
  newidentity                     Create a holder identity
  subscribe [notifications...]    Print block and electionclosed notifications

Token commands
  generate <holder> <amount>      (privileged) Create tokens
  destroy <holder> <amount>       (privileged) Destroy tokens
  transfer <to> <amount>          Transfer tokens of the identity
  balance [holder]                Get current balance
  balanceat <holder> <height>     Get balance at a block height
  totalsupplyat <height>          Get total supply at a block height
  holders                         Get all holders
  tokeninfo                       Get token settings and supply

Election commands
  newelection [script] [metadata]               (privileged) Start an election
  addcandidate <eid> <description> [script]     Add a candidate
  vote <cid> <yea|nay> [--execute]              Cast or switch a vote
  execute <eid>                                 Execute a decided election
  setsupport <percent>                          (privileged) Set support required
  setquorum <percent>                           (privileged) Set min accept quorum
  election <eid>                                Get an election
  candidate <cid>                               Get a candidate
  voterstate <cid> [voter]                      Get the voter state of a candidate
  voterchoice <eid> [voter]                     Get the candidate a voter backs
  summary <eid>                                 Get the tally of an election
  electioninv                                   Get election IDs by status
  electionsettings                              Get election settings
  script [<pluginid> <cmd> <payload>]...        Encode a call script
`

func _main() error {
	c := newConfig()
	cfg = &c

	// Check for a help flag. This is done separately so that we can
	// print our own custom help message.
	var opts flags.Options = flags.HelpFlag | flags.IgnoreUnknown |
		flags.PassDoubleDash
	parser := flags.NewParser(&struct{}{}, opts)
	_, err := parser.Parse()
	if err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			fmt.Printf("%v\n", helpMsg)
			os.Exit(0)
		}
		return fmt.Errorf("parse help flag: %v", err)
	}

	// Config file settings are overridden by the command line.
	app := electionctl{Config: c}
	parser = flags.NewParser(&app, flags.Default)
	if util.FileExists(defaultConfigFile) {
		err = flags.NewIniParser(parser).ParseFile(defaultConfigFile)
		if err != nil {
			return fmt.Errorf("parse config file: %v", err)
		}
	}
	cfg = &app.Config

	_, err = parser.Parse()
	if err != nil {
		// go-flags has already printed the error.
		os.Exit(1)
	}

	return nil
}

func main() {
	err := _main()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

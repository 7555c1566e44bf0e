// Copyright (c) 2022 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"strconv"

	"github.com/tokenvote/tokenvote/electiond/plugins/election"
)

// parsePct parses a whole percentage and returns it expressed in
// election.PctBase.
func parsePct(s string) (uint64, error) {
	pct, err := strconv.ParseUint(s, 10, 64)
	if err != nil || pct > 100 {
		return 0, fmt.Errorf("invalid percentage '%v'", s)
	}
	return election.Pct16(pct), nil
}

// parseSupports parses a vote option.
func parseSupports(s string) (bool, error) {
	switch s {
	case "yea", "yes":
		return true, nil
	case "nay", "no":
		return false, nil
	}
	return false, fmt.Errorf("invalid vote option '%v'; use yea or nay", s)
}

// cmdNewElection creates an election that is signed by the configured
// identity.
type cmdNewElection struct {
	Args struct {
		Script   string `positional-arg-name:"script"`
		Metadata string `positional-arg-name:"metadata"`
	} `positional-args:"true" optional:"true"`
}

// Execute executes the cmdNewElection command.
//
// This function satisfies the go-flags Commander interface.
func (c *cmdNewElection) Execute(args []string) error {
	id, err := loadIdentity()
	if err != nil {
		return err
	}
	nonce, err := newNonce()
	if err != nil {
		return err
	}
	script := c.Args.Script
	if script == "" {
		script = election.EmptyScript
	}
	msg := election.NewElectionMsg(script, c.Args.Metadata, nonce)

	ec, err := newClient()
	if err != nil {
		return err
	}
	ner, b, err := ec.ElectionNew(ctx(), election.NewElection{
		Script:    script,
		Metadata:  c.Args.Metadata,
		PublicKey: id.Public.String(),
		Nonce:     nonce,
		Signature: id.SignHex(msg),
	})
	if err != nil {
		return err
	}
	return printWrite(ner, b)
}

// cmdAddCandidate adds a candidate to an election.
type cmdAddCandidate struct {
	Args struct {
		ElectionID  uint64 `positional-arg-name:"electionid" required:"true"`
		Description string `positional-arg-name:"description" required:"true"`
		Script      string `positional-arg-name:"script"`
	} `positional-args:"true"`
}

// Execute executes the cmdAddCandidate command.
//
// This function satisfies the go-flags Commander interface.
func (c *cmdAddCandidate) Execute(args []string) error {
	id, err := loadIdentity()
	if err != nil {
		return err
	}
	nonce, err := newNonce()
	if err != nil {
		return err
	}
	script := c.Args.Script
	if script == "" {
		script = election.EmptyScript
	}
	msg := election.AddCandidateMsg(c.Args.ElectionID, c.Args.Description,
		script, nonce)

	ec, err := newClient()
	if err != nil {
		return err
	}
	acr, b, err := ec.ElectionAddCandidate(ctx(), election.AddCandidate{
		ElectionID:  c.Args.ElectionID,
		Description: c.Args.Description,
		Script:      script,
		PublicKey:   id.Public.String(),
		Nonce:       nonce,
		Signature:   id.SignHex(msg),
	})
	if err != nil {
		return err
	}
	return printWrite(acr, b)
}

// cmdVote casts a vote of the configured identity on a candidate.
type cmdVote struct {
	Args struct {
		CandidateID uint64 `positional-arg-name:"candidateid"`
		Option      string `positional-arg-name:"yea|nay"`
	} `positional-args:"true" required:"true"`
	Exec bool `long:"execute" description:"Execute the election if the vote decides it"`
}

// Execute executes the cmdVote command.
//
// This function satisfies the go-flags Commander interface.
func (c *cmdVote) Execute(args []string) error {
	supports, err := parseSupports(c.Args.Option)
	if err != nil {
		return err
	}
	id, err := loadIdentity()
	if err != nil {
		return err
	}
	nonce, err := newNonce()
	if err != nil {
		return err
	}
	msg := election.VoteMsg(c.Args.CandidateID, supports, c.Exec, nonce)

	ec, err := newClient()
	if err != nil {
		return err
	}
	vr, b, err := ec.ElectionVote(ctx(), election.Vote{
		CandidateID:       c.Args.CandidateID,
		Supports:          supports,
		ExecutesIfDecided: c.Exec,
		PublicKey:         id.Public.String(),
		Nonce:             nonce,
		Signature:         id.SignHex(msg),
	})
	if err != nil {
		return err
	}
	return printWrite(vr, b)
}

// cmdExecute executes a decided election.
type cmdExecute struct {
	Args struct {
		ElectionID uint64 `positional-arg-name:"electionid"`
	} `positional-args:"true" required:"true"`
}

// Execute executes the cmdExecute command.
//
// This function satisfies the go-flags Commander interface.
func (c *cmdExecute) Execute(args []string) error {
	ec, err := newClient()
	if err != nil {
		return err
	}
	er, b, err := ec.ElectionExecute(ctx(), c.Args.ElectionID)
	if err != nil {
		return err
	}
	return printWrite(er, b)
}

// cmdSetSupport changes the required support of new elections.
type cmdSetSupport struct {
	Args struct {
		Percent string `positional-arg-name:"percent"`
	} `positional-args:"true" required:"true"`
}

// Execute executes the cmdSetSupport command.
//
// This function satisfies the go-flags Commander interface.
func (c *cmdSetSupport) Execute(args []string) error {
	pct, err := parsePct(c.Args.Percent)
	if err != nil {
		return err
	}
	ec, err := newClient()
	if err != nil {
		return err
	}
	b, err := ec.ElectionSetSupport(ctx(), pct)
	if err != nil {
		return err
	}
	return printWrite(election.SetSupportReply{}, b)
}

// cmdSetQuorum changes the minimum accept quorum of new elections.
type cmdSetQuorum struct {
	Args struct {
		Percent string `positional-arg-name:"percent"`
	} `positional-args:"true" required:"true"`
}

// Execute executes the cmdSetQuorum command.
//
// This function satisfies the go-flags Commander interface.
func (c *cmdSetQuorum) Execute(args []string) error {
	pct, err := parsePct(c.Args.Percent)
	if err != nil {
		return err
	}
	ec, err := newClient()
	if err != nil {
		return err
	}
	b, err := ec.ElectionSetQuorum(ctx(), pct)
	if err != nil {
		return err
	}
	return printWrite(election.SetQuorumReply{}, b)
}

// cmdElection retrieves an election.
type cmdElection struct {
	Args struct {
		ElectionID uint64 `positional-arg-name:"electionid"`
	} `positional-args:"true" required:"true"`
}

// Execute executes the cmdElection command.
//
// This function satisfies the go-flags Commander interface.
func (c *cmdElection) Execute(args []string) error {
	ec, err := newClient()
	if err != nil {
		return err
	}
	e, err := ec.Election(ctx(), c.Args.ElectionID)
	if err != nil {
		return err
	}
	return printReply(e)
}

// cmdCandidate retrieves a candidate.
type cmdCandidate struct {
	Args struct {
		CandidateID uint64 `positional-arg-name:"candidateid"`
	} `positional-args:"true" required:"true"`
}

// Execute executes the cmdCandidate command.
//
// This function satisfies the go-flags Commander interface.
func (c *cmdCandidate) Execute(args []string) error {
	ec, err := newClient()
	if err != nil {
		return err
	}
	cd, err := ec.ElectionCandidate(ctx(), c.Args.CandidateID)
	if err != nil {
		return err
	}
	return printReply(cd)
}

// cmdVoterState retrieves the state of a voter on a candidate.
type cmdVoterState struct {
	Args struct {
		CandidateID uint64 `positional-arg-name:"candidateid" required:"true"`
		Voter       string `positional-arg-name:"voter"`
	} `positional-args:"true"`
}

// Execute executes the cmdVoterState command.
//
// This function satisfies the go-flags Commander interface.
func (c *cmdVoterState) Execute(args []string) error {
	voter, err := holderOrSelf(c.Args.Voter)
	if err != nil {
		return err
	}
	ec, err := newClient()
	if err != nil {
		return err
	}
	s, err := ec.ElectionVoterState(ctx(), c.Args.CandidateID, voter)
	if err != nil {
		return err
	}
	fmt.Printf("%v\n", election.VoterStates[s])
	return nil
}

// cmdVoterChoice retrieves the candidate that a voter backs in an election.
type cmdVoterChoice struct {
	Args struct {
		ElectionID uint64 `positional-arg-name:"electionid" required:"true"`
		Voter      string `positional-arg-name:"voter"`
	} `positional-args:"true"`
}

// Execute executes the cmdVoterChoice command.
//
// This function satisfies the go-flags Commander interface.
func (c *cmdVoterChoice) Execute(args []string) error {
	voter, err := holderOrSelf(c.Args.Voter)
	if err != nil {
		return err
	}
	ec, err := newClient()
	if err != nil {
		return err
	}
	vcr, err := ec.ElectionVoterChoice(ctx(), c.Args.ElectionID, voter)
	if err != nil {
		return err
	}
	return printReply(vcr)
}

// cmdSummary retrieves the tally of an election.
type cmdSummary struct {
	Args struct {
		ElectionID uint64 `positional-arg-name:"electionid"`
	} `positional-args:"true" required:"true"`
}

// Execute executes the cmdSummary command.
//
// This function satisfies the go-flags Commander interface.
func (c *cmdSummary) Execute(args []string) error {
	ec, err := newClient()
	if err != nil {
		return err
	}
	sr, err := ec.ElectionSummary(ctx(), c.Args.ElectionID)
	if err != nil {
		return err
	}
	return printReply(sr)
}

// cmdElectionInv retrieves the election IDs by status.
type cmdElectionInv struct{}

// Execute executes the cmdElectionInv command.
//
// This function satisfies the go-flags Commander interface.
func (c *cmdElectionInv) Execute(args []string) error {
	ec, err := newClient()
	if err != nil {
		return err
	}
	ir, err := ec.ElectionInventory(ctx())
	if err != nil {
		return err
	}
	return printReply(ir)
}

// cmdElectionSettings retrieves the election plugin settings.
type cmdElectionSettings struct{}

// Execute executes the cmdElectionSettings command.
//
// This function satisfies the go-flags Commander interface.
func (c *cmdElectionSettings) Execute(args []string) error {
	ec, err := newClient()
	if err != nil {
		return err
	}
	sr, err := ec.ElectionSettings(ctx())
	if err != nil {
		return err
	}
	return printReply(sr)
}

// cmdScript encodes plugin commands into a call script. Arguments are
// triples of plugin ID, command and JSON payload.
type cmdScript struct{}

// Execute executes the cmdScript command.
//
// This function satisfies the go-flags Commander interface.
func (c *cmdScript) Execute(args []string) error {
	if len(args)%3 != 0 {
		return fmt.Errorf("arguments must be triples of pluginid, cmd " +
			"and payload")
	}
	actions := make([]election.Action, 0, len(args)/3)
	for i := 0; i < len(args); i += 3 {
		actions = append(actions, election.Action{
			PluginID: args[i],
			Cmd:      args[i+1],
			Payload:  args[i+2],
		})
	}
	fmt.Printf("%v\n", election.EncodeCallScript(actions))
	return nil
}

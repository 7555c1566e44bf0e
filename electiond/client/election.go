// Copyright (c) 2022 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package client

import (
	"context"

	v1 "github.com/tokenvote/tokenvote/electiond/api/v1"
	"github.com/tokenvote/tokenvote/electiond/plugins/election"
)

// ElectionNew sends the election plugin NewElection command to electiond.
// This command requires admin credentials.
func (c *Client) ElectionNew(ctx context.Context, ne election.NewElection) (*election.NewElectionReply, *v1.Block, error) {
	var ner election.NewElectionReply
	b, err := c.pluginWrite(ctx, election.PluginID, election.CmdNewElection,
		ne, &ner)
	if err != nil {
		return nil, nil, err
	}
	return &ner, b, nil
}

// ElectionAddCandidate sends the election plugin AddCandidate command to
// electiond. This command requires admin credentials.
func (c *Client) ElectionAddCandidate(ctx context.Context, ac election.AddCandidate) (*election.AddCandidateReply, *v1.Block, error) {
	var acr election.AddCandidateReply
	b, err := c.pluginWrite(ctx, election.PluginID, election.CmdAddCandidate,
		ac, &acr)
	if err != nil {
		return nil, nil, err
	}
	return &acr, b, nil
}

// ElectionVote sends the election plugin Vote command to electiond.
func (c *Client) ElectionVote(ctx context.Context, v election.Vote) (*election.VoteReply, *v1.Block, error) {
	var vr election.VoteReply
	b, err := c.pluginWrite(ctx, election.PluginID, election.CmdVote, v, &vr)
	if err != nil {
		return nil, nil, err
	}
	return &vr, b, nil
}

// ElectionExecute sends the election plugin Execute command to electiond.
func (c *Client) ElectionExecute(ctx context.Context, electionID uint64) (*election.ExecuteReply, *v1.Block, error) {
	var er election.ExecuteReply
	b, err := c.pluginWrite(ctx, election.PluginID, election.CmdExecute,
		election.Execute{ElectionID: electionID}, &er)
	if err != nil {
		return nil, nil, err
	}
	return &er, b, nil
}

// ElectionSetSupport sends the election plugin SetSupport command to
// electiond. This command requires admin credentials.
func (c *Client) ElectionSetSupport(ctx context.Context, supportRequired uint64) (*v1.Block, error) {
	var r election.SetSupportReply
	return c.pluginWrite(ctx, election.PluginID, election.CmdSetSupport,
		election.SetSupport{SupportRequired: supportRequired}, &r)
}

// ElectionSetQuorum sends the election plugin SetQuorum command to
// electiond. This command requires admin credentials.
func (c *Client) ElectionSetQuorum(ctx context.Context, minAcceptQuorum uint64) (*v1.Block, error) {
	var r election.SetQuorumReply
	return c.pluginWrite(ctx, election.PluginID, election.CmdSetQuorum,
		election.SetQuorum{MinAcceptQuorum: minAcceptQuorum}, &r)
}

// Election sends the election plugin Election command to electiond.
func (c *Client) Election(ctx context.Context, electionID uint64) (*election.ElectionDetails, error) {
	var er election.ElectionReply
	err := c.pluginRead(ctx, election.PluginID, election.CmdElection,
		election.Election{ElectionID: electionID}, &er)
	if err != nil {
		return nil, err
	}
	return &er.Election, nil
}

// ElectionCandidate sends the election plugin Candidate command to
// electiond.
func (c *Client) ElectionCandidate(ctx context.Context, candidateID uint64) (*election.CandidateDetails, error) {
	var cr election.CandidateReply
	err := c.pluginRead(ctx, election.PluginID, election.CmdCandidate,
		election.Candidate{CandidateID: candidateID}, &cr)
	if err != nil {
		return nil, err
	}
	return &cr.Candidate, nil
}

// ElectionVoterState sends the election plugin VoterState command to
// electiond.
func (c *Client) ElectionVoterState(ctx context.Context, candidateID uint64, voter string) (election.VoterStateT, error) {
	var vsr election.VoterStateReply
	err := c.pluginRead(ctx, election.PluginID, election.CmdVoterState,
		election.VoterState{CandidateID: candidateID, Voter: voter}, &vsr)
	if err != nil {
		return election.VoterStateAbsent, err
	}
	return vsr.State, nil
}

// ElectionVoterChoice sends the election plugin VoterChoice command to
// electiond.
func (c *Client) ElectionVoterChoice(ctx context.Context, electionID uint64, voter string) (*election.VoterChoiceReply, error) {
	var vcr election.VoterChoiceReply
	err := c.pluginRead(ctx, election.PluginID, election.CmdVoterChoice,
		election.VoterChoice{ElectionID: electionID, Voter: voter}, &vcr)
	if err != nil {
		return nil, err
	}
	return &vcr, nil
}

// ElectionSummary sends the election plugin Summary command to electiond.
func (c *Client) ElectionSummary(ctx context.Context, electionID uint64) (*election.SummaryReply, error) {
	var sr election.SummaryReply
	err := c.pluginRead(ctx, election.PluginID, election.CmdSummary,
		election.Summary{ElectionID: electionID}, &sr)
	if err != nil {
		return nil, err
	}
	return &sr, nil
}

// ElectionInventory sends the election plugin Inventory command to
// electiond.
func (c *Client) ElectionInventory(ctx context.Context) (*election.InventoryReply, error) {
	var ir election.InventoryReply
	err := c.pluginRead(ctx, election.PluginID, election.CmdInventory,
		election.Inventory{}, &ir)
	if err != nil {
		return nil, err
	}
	return &ir, nil
}

// ElectionSettings sends the election plugin Settings command to
// electiond.
func (c *Client) ElectionSettings(ctx context.Context) (*election.SettingsReply, error) {
	var sr election.SettingsReply
	err := c.pluginRead(ctx, election.PluginID, election.CmdSettings,
		election.Settings{}, &sr)
	if err != nil {
		return nil, err
	}
	return &sr, nil
}

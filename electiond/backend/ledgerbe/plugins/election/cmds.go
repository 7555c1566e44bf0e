// Copyright (c) 2022 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package election

import (
	"fmt"
	"math/big"

	"github.com/tokenvote/tokenvote/electiond/backend/ledgerbe/plugins"
	"github.com/tokenvote/tokenvote/electiond/plugins/election"
)

// snapshotBlock returns the snapshot block for an election or candidate that
// is created in the block that is being built.
func snapshotBlock(l plugins.LedgerClient) uint64 {
	h := l.BlockHeight()
	if h == 0 {
		return 0
	}
	return h - 1
}

// cmdNewElection creates a new election.
func (p *electionPlugin) cmdNewElection(l plugins.LedgerClient, payload string) (string, error) {
	var ne election.NewElection
	err := decodePayload(payload, &ne)
	if err != nil {
		return "", err
	}
	msg := election.NewElectionMsg(ne.Script, ne.Metadata, ne.Nonce)
	err = verifySignature(ne.Signature, ne.PublicKey, msg)
	if err != nil {
		return "", err
	}
	err = consumeSignature(l, ne.Signature, ne.PublicKey)
	if err != nil {
		return "", err
	}
	script, err := verifyScript(ne.Script)
	if err != nil {
		return "", err
	}

	// The voting power is fixed at the snapshot block
	snapshot := snapshotBlock(l)
	votingPower, err := totalSupplyAt(l, snapshot)
	if err != nil {
		return "", err
	}
	if votingPower.Sign() == 0 {
		return "", electionError(election.ErrorCodeNoVotingPower,
			fmt.Sprintf("no tokens at block %v", snapshot))
	}

	t, err := p.thresholdsGet(l)
	if err != nil {
		return "", err
	}
	c, err := countersGet(l)
	if err != nil {
		return "", err
	}
	c.LastElectionID++
	err = countersSave(l, *c)
	if err != nil {
		return "", err
	}

	e := electionRecord{
		ElectionID:      c.LastElectionID,
		Creator:         ne.PublicKey,
		Metadata:        ne.Metadata,
		Script:          script,
		StartDate:       l.BlockTime(),
		VoteTime:        p.voteTime,
		SnapshotBlock:   snapshot,
		SupportRequired: t.SupportRequired,
		MinAcceptQuorum: t.MinAcceptQuorum,
		VotingPower:     votingPower.String(),
		CandidateIDs:    []uint64{},
	}
	err = electionSave(l, e)
	if err != nil {
		return "", err
	}
	err = l.Emit(election.EventStartElection, election.StartElectionEvent{
		ElectionID: e.ElectionID,
		Creator:    e.Creator,
		Metadata:   e.Metadata,
	})
	if err != nil {
		return "", err
	}

	log.Debugf("Election %v created by %v", e.ElectionID, e.Creator)

	return encodeReply(election.NewElectionReply{
		ElectionID:    e.ElectionID,
		SnapshotBlock: e.SnapshotBlock,
		StartDate:     e.StartDate,
	})
}

// cmdAddCandidate adds a candidate to an open election.
func (p *electionPlugin) cmdAddCandidate(l plugins.LedgerClient, payload string) (string, error) {
	var ac election.AddCandidate
	err := decodePayload(payload, &ac)
	if err != nil {
		return "", err
	}
	msg := election.AddCandidateMsg(ac.ElectionID, ac.Description,
		ac.Script, ac.Nonce)
	err = verifySignature(ac.Signature, ac.PublicKey, msg)
	if err != nil {
		return "", err
	}
	err = consumeSignature(l, ac.Signature, ac.PublicKey)
	if err != nil {
		return "", err
	}

	e, err := electionGet(l, ac.ElectionID)
	if err != nil {
		return "", err
	}
	if !e.isOpen(l.BlockTime()) {
		return "", electionError(election.ErrorCodeCanNotAdd,
			"election is not open")
	}
	if uint32(len(e.CandidateIDs)) >= p.maxCandidates {
		return "", electionError(election.ErrorCodeCandidateLimit,
			fmt.Sprintf("max %v", p.maxCandidates))
	}
	script, err := verifyScript(ac.Script)
	if err != nil {
		return "", err
	}

	c, err := countersGet(l)
	if err != nil {
		return "", err
	}
	c.LastCandidateID++
	err = countersSave(l, *c)
	if err != nil {
		return "", err
	}

	cr := candidateRecord{
		CandidateID:   c.LastCandidateID,
		ElectionID:    e.ElectionID,
		Creator:       ac.PublicKey,
		Description:   ac.Description,
		Script:        script,
		StartDate:     l.BlockTime(),
		SnapshotBlock: e.SnapshotBlock,
		Yea:           "0",
		Nay:           "0",
	}
	err = candidateSave(l, cr)
	if err != nil {
		return "", err
	}
	e.CandidateIDs = append(e.CandidateIDs, cr.CandidateID)
	err = electionSave(l, *e)
	if err != nil {
		return "", err
	}
	err = l.Emit(election.EventStartVote, election.StartVoteEvent{
		VoteID:     cr.CandidateID,
		ElectionID: cr.ElectionID,
		Creator:    cr.Creator,
		Metadata:   cr.Description,
	})
	if err != nil {
		return "", err
	}

	log.Debugf("Candidate %v added to election %v",
		cr.CandidateID, cr.ElectionID)

	return encodeReply(election.AddCandidateReply{
		CandidateID:   cr.CandidateID,
		SnapshotBlock: cr.SnapshotBlock,
	})
}

// addWeight adds the weight, which may be negative, to the yea or nay count
// of the candidate.
func addWeight(c *candidateRecord, state election.VoterStateT, weight *big.Int) error {
	count := &c.Yea
	if state == election.VoterStateNay {
		count = &c.Nay
	}
	v, err := parseUint(*count)
	if err != nil {
		return err
	}
	v.Add(v, weight)
	if v.Sign() < 0 {
		return fmt.Errorf("candidate %v %v count is negative",
			c.CandidateID, election.VoterStates[state])
	}
	*count = v.String()
	return nil
}

// cmdVote casts a vote on a candidate. A voter backs a single candidate per
// election. A vote for a different candidate moves the full weight of the
// voter from the previous candidate to the new candidate.
func (p *electionPlugin) cmdVote(l plugins.LedgerClient, payload string) (string, error) {
	var v election.Vote
	err := decodePayload(payload, &v)
	if err != nil {
		return "", err
	}
	msg := election.VoteMsg(v.CandidateID, v.Supports,
		v.ExecutesIfDecided, v.Nonce)
	err = verifySignature(v.Signature, v.PublicKey, msg)
	if err != nil {
		return "", err
	}

	c, err := candidateGet(l, v.CandidateID)
	if err != nil {
		return "", err
	}
	e, err := electionGet(l, c.ElectionID)
	if err != nil {
		return "", err
	}
	if !e.isOpen(l.BlockTime()) {
		return "", electionError(election.ErrorCodeCanNotVote,
			"election is not open")
	}

	// The weight of the voter is fixed at the snapshot of the election
	weight, err := balanceAt(l, v.PublicKey, e.SnapshotBlock)
	if err != nil {
		return "", err
	}
	if weight.Sign() == 0 {
		return "", electionError(election.ErrorCodeCanNotVote,
			fmt.Sprintf("no tokens at block %v", e.SnapshotBlock))
	}

	state := election.VoterStateNay
	if v.Supports {
		state = election.VoterStateYea
	}
	prev, err := choiceGet(l, e.ElectionID, v.PublicKey)
	if err != nil {
		return "", err
	}
	if prev.CandidateID == c.CandidateID && prev.State == state {
		return "", electionError(election.ErrorCodeVoteUnchanged, "")
	}
	err = consumeSignature(l, v.Signature, v.PublicKey)
	if err != nil {
		return "", err
	}

	// Retract the previous choice
	if prev.CandidateID != 0 {
		pc := c
		if prev.CandidateID != c.CandidateID {
			pc, err = candidateGet(l, prev.CandidateID)
			if err != nil {
				return "", err
			}
		}
		stake, err := parseUint(prev.Stake)
		if err != nil {
			return "", err
		}
		err = addWeight(pc, prev.State, stake.Neg(stake))
		if err != nil {
			return "", err
		}
		if pc != c {
			err = candidateSave(l, *pc)
			if err != nil {
				return "", err
			}
		}
	}

	// Apply the new choice
	err = addWeight(c, state, weight)
	if err != nil {
		return "", err
	}
	err = candidateSave(l, *c)
	if err != nil {
		return "", err
	}
	err = choiceSave(l, e.ElectionID, v.PublicKey, choiceRecord{
		CandidateID: c.CandidateID,
		State:       state,
		Stake:       weight.String(),
	})
	if err != nil {
		return "", err
	}
	err = l.Emit(election.EventCastVote, election.CastVoteEvent{
		ElectionID:  e.ElectionID,
		CandidateID: c.CandidateID,
		Voter:       v.PublicKey,
		Supports:    v.Supports,
		Stake:       weight.String(),
	})
	if err != nil {
		return "", err
	}

	log.Debugf("Vote cast on candidate %v by %v: %v %v", c.CandidateID,
		v.PublicKey, election.VoterStates[state], weight)

	// Execute the election if the candidate is decided
	var executed bool
	if v.ExecutesIfDecided {
		passed, err := candidatePasses(*e, *c)
		if err != nil {
			return "", err
		}
		if passed {
			err = p.execute(l, e, c)
			if err != nil {
				return "", err
			}
			executed = true
		}
	}

	var receipt string
	if p.identity != nil {
		receipt = p.identity.SignHex(v.Signature)
	}

	return encodeReply(election.VoteReply{
		Stake:    weight.String(),
		Receipt:  receipt,
		Executed: executed,
	})
}

// execute executes the candidate and its election. The election is marked
// as executed before any script action runs so that an election can not be
// executed twice.
func (p *electionPlugin) execute(l plugins.LedgerClient, e *electionRecord, c *candidateRecord) error {
	if e.Executed {
		return electionError(election.ErrorCodeCanNotExecute,
			"election already executed")
	}

	e.Executed = true
	e.ExecutedCandidate = c.CandidateID
	c.Executed = true
	err := electionSave(l, *e)
	if err != nil {
		return err
	}
	err = candidateSave(l, *c)
	if err != nil {
		return err
	}

	// Run the candidate script followed by the election script
	for _, script := range []string{c.Script, e.Script} {
		actions, err := election.DecodeCallScript(script)
		if err != nil {
			return electionError(election.ErrorCodeScriptInvalid,
				err.Error())
		}
		for _, a := range actions {
			log.Debugf("Election %v action: %v %v",
				e.ElectionID, a.PluginID, a.Cmd)

			_, err := l.Exec(a.PluginID, a.Cmd, a.Payload)
			if err != nil {
				return err
			}
		}
	}

	err = l.Emit(election.EventExecuteElection, election.ExecuteElectionEvent{
		ElectionID:  e.ElectionID,
		CandidateID: c.CandidateID,
	})
	if err != nil {
		return err
	}

	log.Infof("Election %v executed: candidate %v",
		e.ElectionID, c.CandidateID)

	return nil
}

// candidatesGet returns the candidates of an election in ID order.
func candidatesGet(l plugins.LedgerClient, e electionRecord) ([]candidateRecord, error) {
	cs := make([]candidateRecord, 0, len(e.CandidateIDs))
	for _, id := range e.CandidateIDs {
		c, err := candidateGet(l, id)
		if err != nil {
			return nil, err
		}
		cs = append(cs, *c)
	}
	return cs, nil
}

// cmdExecute executes the leading candidate of an election.
func (p *electionPlugin) cmdExecute(l plugins.LedgerClient, payload string) (string, error) {
	var ex election.Execute
	err := decodePayload(payload, &ex)
	if err != nil {
		return "", err
	}
	e, err := electionGet(l, ex.ElectionID)
	if err != nil {
		return "", err
	}
	if e.Executed {
		return "", electionError(election.ErrorCodeCanNotExecute,
			"election already executed")
	}
	cs, err := candidatesGet(l, *e)
	if err != nil {
		return "", err
	}
	c, err := leader(*e, cs)
	if err != nil {
		return "", err
	}
	if c == nil {
		return "", electionError(election.ErrorCodeCanNotExecute,
			"no candidate passes")
	}
	err = p.execute(l, e, c)
	if err != nil {
		return "", err
	}

	return encodeReply(election.ExecuteReply{
		CandidateID: c.CandidateID,
	})
}

// cmdSetSupport changes the required support of new elections.
func (p *electionPlugin) cmdSetSupport(l plugins.LedgerClient, payload string) (string, error) {
	var ss election.SetSupport
	err := decodePayload(payload, &ss)
	if err != nil {
		return "", err
	}
	t, err := p.thresholdsGet(l)
	if err != nil {
		return "", err
	}
	switch {
	case ss.SupportRequired >= election.PctBase:
		return "", electionError(election.ErrorCodeChangeSupportTooBig,
			"supportrequired must be less than 100%")
	case ss.SupportRequired < t.MinAcceptQuorum:
		return "", electionError(election.ErrorCodeChangeSupportPcts,
			"supportrequired is below minacceptquorum")
	}
	t.SupportRequired = ss.SupportRequired
	err = thresholdsSave(l, *t)
	if err != nil {
		return "", err
	}
	err = l.Emit(election.EventChangeSupportRequired,
		election.ChangeSupportRequiredEvent{
			SupportRequired: t.SupportRequired,
		})
	if err != nil {
		return "", err
	}

	log.Infof("Support required changed to %v", t.SupportRequired)

	return encodeReply(election.SetSupportReply{})
}

// cmdSetQuorum changes the minimum accept quorum of new elections.
func (p *electionPlugin) cmdSetQuorum(l plugins.LedgerClient, payload string) (string, error) {
	var sq election.SetQuorum
	err := decodePayload(payload, &sq)
	if err != nil {
		return "", err
	}
	t, err := p.thresholdsGet(l)
	if err != nil {
		return "", err
	}
	if sq.MinAcceptQuorum > t.SupportRequired {
		return "", electionError(election.ErrorCodeChangeQuorumPcts,
			"minacceptquorum exceeds supportrequired")
	}
	t.MinAcceptQuorum = sq.MinAcceptQuorum
	err = thresholdsSave(l, *t)
	if err != nil {
		return "", err
	}
	err = l.Emit(election.EventChangeMinQuorum, election.ChangeMinQuorumEvent{
		MinAcceptQuorum: t.MinAcceptQuorum,
	})
	if err != nil {
		return "", err
	}

	log.Infof("Min accept quorum changed to %v", t.MinAcceptQuorum)

	return encodeReply(election.SetQuorumReply{})
}

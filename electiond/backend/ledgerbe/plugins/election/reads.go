// Copyright (c) 2022 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package election

import (
	"github.com/tokenvote/tokenvote/electiond/backend/ledgerbe/plugins"
	"github.com/tokenvote/tokenvote/electiond/plugins/election"
)

func convertElection(e electionRecord, now int64) election.ElectionDetails {
	ids := e.CandidateIDs
	if ids == nil {
		ids = []uint64{}
	}
	return election.ElectionDetails{
		ElectionID:        e.ElectionID,
		Creator:           e.Creator,
		Metadata:          e.Metadata,
		Script:            e.Script,
		Open:              e.isOpen(now),
		Executed:          e.Executed,
		StartDate:         e.StartDate,
		EndDate:           e.endDate(),
		SnapshotBlock:     e.SnapshotBlock,
		SupportRequired:   e.SupportRequired,
		MinAcceptQuorum:   e.MinAcceptQuorum,
		VotingPower:       e.VotingPower,
		CandidateIDs:      ids,
		ExecutedCandidate: e.ExecutedCandidate,
	}
}

// convertCandidate returns the candidate details. A candidate is open while
// its election is open.
func convertCandidate(e electionRecord, c candidateRecord, now int64) election.CandidateDetails {
	return election.CandidateDetails{
		CandidateID:     c.CandidateID,
		ElectionID:      c.ElectionID,
		Creator:         c.Creator,
		Description:     c.Description,
		Script:          c.Script,
		Open:            e.isOpen(now),
		Executed:        c.Executed,
		StartDate:       c.StartDate,
		EndDate:         e.endDate(),
		SnapshotBlock:   c.SnapshotBlock,
		SupportRequired: e.SupportRequired,
		MinAcceptQuorum: e.MinAcceptQuorum,
		Yea:             c.Yea,
		Nay:             c.Nay,
		VotingPower:     e.VotingPower,
	}
}

// cmdElection returns the details of an election.
func (p *electionPlugin) cmdElection(l plugins.LedgerClient, payload string) (string, error) {
	var el election.Election
	err := decodePayload(payload, &el)
	if err != nil {
		return "", err
	}
	e, err := electionGet(l, el.ElectionID)
	if err != nil {
		return "", err
	}
	return encodeReply(election.ElectionReply{
		Election: convertElection(*e, l.BlockTime()),
	})
}

// cmdCandidate returns the details of a candidate.
func (p *electionPlugin) cmdCandidate(l plugins.LedgerClient, payload string) (string, error) {
	var ca election.Candidate
	err := decodePayload(payload, &ca)
	if err != nil {
		return "", err
	}
	c, err := candidateGet(l, ca.CandidateID)
	if err != nil {
		return "", err
	}
	e, err := electionGet(l, c.ElectionID)
	if err != nil {
		return "", err
	}
	return encodeReply(election.CandidateReply{
		Candidate: convertCandidate(*e, *c, l.BlockTime()),
	})
}

// cmdVoterState returns the state of a voter on a candidate. The state is
// absent unless the candidate is the standing choice of the voter.
func (p *electionPlugin) cmdVoterState(l plugins.LedgerClient, payload string) (string, error) {
	var vs election.VoterState
	err := decodePayload(payload, &vs)
	if err != nil {
		return "", err
	}
	err = verifyAddress(vs.Voter)
	if err != nil {
		return "", err
	}
	c, err := candidateGet(l, vs.CandidateID)
	if err != nil {
		return "", err
	}
	ch, err := choiceGet(l, c.ElectionID, vs.Voter)
	if err != nil {
		return "", err
	}
	state := election.VoterStateAbsent
	if ch.CandidateID == c.CandidateID {
		state = ch.State
	}
	return encodeReply(election.VoterStateReply{
		State: state,
	})
}

// cmdVoterChoice returns the standing choice of a voter in an election.
func (p *electionPlugin) cmdVoterChoice(l plugins.LedgerClient, payload string) (string, error) {
	var vc election.VoterChoice
	err := decodePayload(payload, &vc)
	if err != nil {
		return "", err
	}
	err = verifyAddress(vc.Voter)
	if err != nil {
		return "", err
	}
	_, err = electionGet(l, vc.ElectionID)
	if err != nil {
		return "", err
	}
	ch, err := choiceGet(l, vc.ElectionID, vc.Voter)
	if err != nil {
		return "", err
	}
	stake := ch.Stake
	if stake == "" {
		stake = "0"
	}
	return encodeReply(election.VoterChoiceReply{
		CandidateID: ch.CandidateID,
		State:       ch.State,
		Stake:       stake,
	})
}

// cmdSummary returns the tally of every candidate of an election.
func (p *electionPlugin) cmdSummary(l plugins.LedgerClient, payload string) (string, error) {
	var s election.Summary
	err := decodePayload(payload, &s)
	if err != nil {
		return "", err
	}
	e, err := electionGet(l, s.ElectionID)
	if err != nil {
		return "", err
	}
	cs, err := candidatesGet(l, *e)
	if err != nil {
		return "", err
	}

	summaries := make([]election.CandidateSummary, 0, len(cs))
	for _, c := range cs {
		t, err := newTally(*e, c)
		if err != nil {
			return "", err
		}
		summaries = append(summaries, election.CandidateSummary{
			CandidateID: c.CandidateID,
			Yea:         t.yea.String(),
			Nay:         t.nay.String(),
			Support:     t.support().Uint64(),
			Quorum:      t.quorum().Uint64(),
			Passed:      t.passes(e.SupportRequired, e.MinAcceptQuorum),
		})
	}

	var leaderID uint64
	switch {
	case e.Executed:
		leaderID = e.ExecutedCandidate
	default:
		lc, err := leader(*e, cs)
		if err != nil {
			return "", err
		}
		if lc != nil {
			leaderID = lc.CandidateID
		}
	}

	return encodeReply(election.SummaryReply{
		ElectionID:  e.ElectionID,
		Open:        e.isOpen(l.BlockTime()),
		Executed:    e.Executed,
		VotingPower: e.VotingPower,
		Leader:      leaderID,
		Candidates:  summaries,
	})
}

// cmdInventory returns the IDs of all elections categorized by status.
func (p *electionPlugin) cmdInventory(l plugins.LedgerClient) (string, error) {
	c, err := countersGet(l)
	if err != nil {
		return "", err
	}
	var (
		now = l.BlockTime()
		ir  = election.InventoryReply{
			Open:     []uint64{},
			Closed:   []uint64{},
			Executed: []uint64{},
		}
	)
	for id := uint64(1); id <= c.LastElectionID; id++ {
		e, err := electionGet(l, id)
		if err != nil {
			return "", err
		}
		switch {
		case e.Executed:
			ir.Executed = append(ir.Executed, id)
		case e.isOpen(now):
			ir.Open = append(ir.Open, id)
		default:
			ir.Closed = append(ir.Closed, id)
		}
	}
	return encodeReply(ir)
}

// cmdSettings returns the settings that apply to new elections.
func (p *electionPlugin) cmdSettings(l plugins.LedgerClient) (string, error) {
	t, err := p.thresholdsGet(l)
	if err != nil {
		return "", err
	}
	return encodeReply(election.SettingsReply{
		SupportRequired: t.SupportRequired,
		MinAcceptQuorum: t.MinAcceptQuorum,
		VoteTime:        p.voteTime,
		MaxCandidates:   p.maxCandidates,
	})
}

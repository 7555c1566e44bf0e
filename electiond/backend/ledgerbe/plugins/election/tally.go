// Copyright (c) 2022 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package election

import (
	"math/big"

	"github.com/tokenvote/tokenvote/electiond/plugins/election"
)

var pctBase = new(big.Int).SetUint64(election.PctBase)

// pct returns n/d in PctBase. Zero is returned when d is zero.
func pct(n, d *big.Int) *big.Int {
	if d.Sign() == 0 {
		return new(big.Int)
	}
	r := new(big.Int).Mul(n, pctBase)
	return r.Quo(r, d)
}

// tally is the vote count of a candidate.
type tally struct {
	yea         *big.Int
	nay         *big.Int
	votingPower *big.Int
}

func newTally(e electionRecord, c candidateRecord) (*tally, error) {
	yea, err := parseUint(c.Yea)
	if err != nil {
		return nil, err
	}
	nay, err := parseUint(c.Nay)
	if err != nil {
		return nil, err
	}
	vp, err := parseUint(e.VotingPower)
	if err != nil {
		return nil, err
	}
	return &tally{
		yea:         yea,
		nay:         nay,
		votingPower: vp,
	}, nil
}

// support returns yea / (yea + nay) in PctBase.
func (t *tally) support() *big.Int {
	return pct(t.yea, new(big.Int).Add(t.yea, t.nay))
}

// quorum returns yea / voting power in PctBase.
func (t *tally) quorum() *big.Int {
	return pct(t.yea, t.votingPower)
}

// passes returns whether both thresholds are strictly exceeded.
func (t *tally) passes(supportRequired, minAcceptQuorum uint64) bool {
	sr := new(big.Int).SetUint64(supportRequired)
	mq := new(big.Int).SetUint64(minAcceptQuorum)
	return t.support().Cmp(sr) > 0 && t.quorum().Cmp(mq) > 0
}

// candidatePasses returns whether the candidate passes the thresholds of its
// election.
func candidatePasses(e electionRecord, c candidateRecord) (bool, error) {
	t, err := newTally(e, c)
	if err != nil {
		return false, err
	}
	return t.passes(e.SupportRequired, e.MinAcceptQuorum), nil
}

// leader returns the passing candidate with the most yea weight. Ties are won
// by the candidate with the lowest ID. Nil is returned when no candidate
// passes.
func leader(e electionRecord, cs []candidateRecord) (*candidateRecord, error) {
	var (
		best    *candidateRecord
		bestYea *big.Int
	)
	for i := range cs {
		c := cs[i]
		t, err := newTally(e, c)
		if err != nil {
			return nil, err
		}
		if !t.passes(e.SupportRequired, e.MinAcceptQuorum) {
			continue
		}
		cmp := 1
		if best != nil {
			cmp = t.yea.Cmp(bestYea)
		}
		if cmp > 0 || (cmp == 0 && c.CandidateID < best.CandidateID) {
			best = &cs[i]
			bestYea = t.yea
		}
	}
	return best, nil
}

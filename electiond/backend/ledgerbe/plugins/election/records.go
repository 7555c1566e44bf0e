// Copyright (c) 2022 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package election

import (
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/pkg/errors"
	"github.com/tokenvote/tokenvote/electiond/api/v1/identity"
	"github.com/tokenvote/tokenvote/electiond/backend"
	"github.com/tokenvote/tokenvote/electiond/backend/ledgerbe/plugins"
	"github.com/tokenvote/tokenvote/electiond/plugins/election"
	"github.com/tokenvote/tokenvote/electiond/plugins/token"
	"github.com/tokenvote/tokenvote/util"
)

const (
	// Blob entry data descriptors
	dataDescriptorElection   = "election-v1"
	dataDescriptorCandidate  = "candidate-v1"
	dataDescriptorChoice     = "choice-v1"
	dataDescriptorCounters   = "counters-v1"
	dataDescriptorThresholds = "thresholds-v1"

	// Keys
	keyFormatElection  = "election-%v"
	keyFormatCandidate = "candidate-%v"
	keyFormatChoice    = "choice-%v-%v"
	keyPrefixSignature = "signature-"
	keyCounters        = "counters"
	keyThresholds      = "thresholds"
)

// electionRecord is the saved state of an election.
type electionRecord struct {
	ElectionID        uint64   `json:"electionid"`
	Creator           string   `json:"creator"`
	Metadata          string   `json:"metadata"`
	Script            string   `json:"script"`
	Executed          bool     `json:"executed"`
	ExecutedCandidate uint64   `json:"executedcandidate"`
	StartDate         int64    `json:"startdate"`
	VoteTime          int64    `json:"votetime"`
	SnapshotBlock     uint64   `json:"snapshotblock"`
	SupportRequired   uint64   `json:"supportrequired"`
	MinAcceptQuorum   uint64   `json:"minacceptquorum"`
	VotingPower       string   `json:"votingpower"`
	CandidateIDs      []uint64 `json:"candidateids"`
}

// endDate returns the time at which voting on the election ends.
func (e *electionRecord) endDate() int64 {
	return e.StartDate + e.VoteTime
}

// isOpen returns whether the election accepts candidates and votes at the
// provided time.
func (e *electionRecord) isOpen(now int64) bool {
	return !e.Executed && now < e.endDate()
}

// candidateRecord is the saved state of a candidate.
type candidateRecord struct {
	CandidateID   uint64 `json:"candidateid"`
	ElectionID    uint64 `json:"electionid"`
	Creator       string `json:"creator"`
	Description   string `json:"description"`
	Script        string `json:"script"`
	Executed      bool   `json:"executed"`
	StartDate     int64  `json:"startdate"`
	SnapshotBlock uint64 `json:"snapshotblock"`
	Yea           string `json:"yea"`
	Nay           string `json:"nay"`
}

// choiceRecord is the standing choice of a voter in an election. A voter
// backs at most one candidate per election.
type choiceRecord struct {
	CandidateID uint64               `json:"candidateid"`
	State       election.VoterStateT `json:"state"`
	Stake       string               `json:"stake"`
}

// counters contains the last assigned IDs. IDs start at 1.
type counters struct {
	LastElectionID  uint64 `json:"lastelectionid"`
	LastCandidateID uint64 `json:"lastcandidateid"`
}

// thresholds contains the thresholds that are applied to new elections.
type thresholds struct {
	SupportRequired uint64 `json:"supportrequired"`
	MinAcceptQuorum uint64 `json:"minacceptquorum"`
}

func electionKey(electionID uint64) string {
	return fmt.Sprintf(keyFormatElection, electionID)
}

func candidateKey(candidateID uint64) string {
	return fmt.Sprintf(keyFormatCandidate, candidateID)
}

func choiceKey(electionID uint64, voter string) string {
	return fmt.Sprintf(keyFormatChoice, electionID, voter)
}

// electionError returns a user error for the provided error code.
func electionError(c election.ErrorCodeT, context string) error {
	return backend.PluginError{
		PluginID:     election.PluginID,
		ErrorCode:    uint32(c),
		ErrorReason:  election.ErrorCodes[c],
		ErrorContext: context,
	}
}

// decodePayload decodes a JSON command payload.
func decodePayload(payload string, v interface{}) error {
	err := json.Unmarshal([]byte(payload), v)
	if err != nil {
		return electionError(election.ErrorCodePayloadInvalid, err.Error())
	}
	return nil
}

// encodeReply returns the JSON encoded reply.
func encodeReply(v interface{}) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// parseUint parses a stored base 10 amount.
func parseUint(s string) (*big.Int, error) {
	if s == "" {
		return new(big.Int), nil
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, errors.Errorf("invalid amount: %v", s)
	}
	return v, nil
}

// verifyAddress verifies that the address is the canonical hex encoding of a
// public key.
func verifyAddress(address string) error {
	pi, err := identity.PublicIdentityFromString(address)
	if err != nil {
		return electionError(election.ErrorCodePublicKeyInvalid, err.Error())
	}
	if pi.String() != address {
		return electionError(election.ErrorCodePublicKeyInvalid,
			"address must be lowercase hex")
	}
	return nil
}

// verifySignature verifies the signature of msg made by the public key.
func verifySignature(signature, publicKey, msg string) error {
	err := verifyAddress(publicKey)
	if err != nil {
		return err
	}
	err = util.VerifySignature(signature, publicKey, msg)
	if err != nil {
		var se util.SignatureError
		if errors.As(err, &se) {
			return electionError(election.ErrorCodeSignatureInvalid,
				se.ErrorContext)
		}
		return err
	}
	return nil
}

// consumeSignature records the signature as used. An error is returned when
// the signature has already been used.
func consumeSignature(l plugins.LedgerClient, signature, publicKey string) error {
	key := keyPrefixSignature + signature
	blobs, err := l.Get([]string{key})
	if err != nil {
		return err
	}
	if _, ok := blobs[key]; ok {
		return electionError(election.ErrorCodeSignatureReplayed, "")
	}
	return l.Put(map[string][]byte{key: []byte(publicKey)}, false)
}

// verifyScript verifies that the script is a valid call script and returns
// its canonical form.
func verifyScript(script string) (string, error) {
	actions, err := election.DecodeCallScript(script)
	if err != nil {
		return "", electionError(election.ErrorCodeScriptInvalid, err.Error())
	}
	return election.EncodeCallScript(actions), nil
}

// electionGet returns the election. A user error is returned when it does
// not exist.
func electionGet(l plugins.LedgerClient, electionID uint64) (*electionRecord, error) {
	var e electionRecord
	ok, err := plugins.GetStruct(l, electionKey(electionID), &e)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, electionError(election.ErrorCodeElectionNotFound,
			fmt.Sprintf("%v", electionID))
	}
	return &e, nil
}

func electionSave(l plugins.LedgerClient, e electionRecord) error {
	return plugins.PutStruct(l, electionKey(e.ElectionID),
		dataDescriptorElection, e, false)
}

// candidateGet returns the candidate. A user error is returned when it does
// not exist.
func candidateGet(l plugins.LedgerClient, candidateID uint64) (*candidateRecord, error) {
	var c candidateRecord
	ok, err := plugins.GetStruct(l, candidateKey(candidateID), &c)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, electionError(election.ErrorCodeCandidateNotFound,
			fmt.Sprintf("%v", candidateID))
	}
	return &c, nil
}

func candidateSave(l plugins.LedgerClient, c candidateRecord) error {
	return plugins.PutStruct(l, candidateKey(c.CandidateID),
		dataDescriptorCandidate, c, false)
}

// choiceGet returns the standing choice of a voter. A zero choice is returned
// when the voter has not voted in the election.
func choiceGet(l plugins.LedgerClient, electionID uint64, voter string) (*choiceRecord, error) {
	var c choiceRecord
	_, err := plugins.GetStruct(l, choiceKey(electionID, voter), &c)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func choiceSave(l plugins.LedgerClient, electionID uint64, voter string, c choiceRecord) error {
	return plugins.PutStruct(l, choiceKey(electionID, voter),
		dataDescriptorChoice, c, false)
}

func countersGet(l plugins.LedgerClient) (*counters, error) {
	var c counters
	_, err := plugins.GetStruct(l, keyCounters, &c)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func countersSave(l plugins.LedgerClient, c counters) error {
	return plugins.PutStruct(l, keyCounters, dataDescriptorCounters, c, false)
}

// thresholdsGet returns the thresholds for new elections.
func (p *electionPlugin) thresholdsGet(l plugins.LedgerClient) (*thresholds, error) {
	t := thresholds{
		SupportRequired: p.supportRequired,
		MinAcceptQuorum: p.minAcceptQuorum,
	}
	_, err := plugins.GetStruct(l, keyThresholds, &t)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func thresholdsSave(l plugins.LedgerClient, t thresholds) error {
	return plugins.PutStruct(l, keyThresholds, dataDescriptorThresholds, t, false)
}

// balanceAt returns the token balance of the holder at the end of the
// provided block height.
func balanceAt(l plugins.LedgerClient, holder string, height uint64) (*big.Int, error) {
	b, err := json.Marshal(token.BalanceAt{
		Holder: holder,
		Height: height,
	})
	if err != nil {
		return nil, err
	}
	reply, err := l.Read(token.PluginID, token.CmdBalanceAt, string(b))
	if err != nil {
		return nil, err
	}
	var br token.BalanceAtReply
	err = json.Unmarshal([]byte(reply), &br)
	if err != nil {
		return nil, err
	}
	return parseUint(br.Balance)
}

// totalSupplyAt returns the token supply at the end of the provided block
// height.
func totalSupplyAt(l plugins.LedgerClient, height uint64) (*big.Int, error) {
	b, err := json.Marshal(token.TotalSupplyAt{
		Height: height,
	})
	if err != nil {
		return nil, err
	}
	reply, err := l.Read(token.PluginID, token.CmdTotalSupplyAt, string(b))
	if err != nil {
		return nil, err
	}
	var tr token.TotalSupplyAtReply
	err = json.Unmarshal([]byte(reply), &tr)
	if err != nil {
		return nil, err
	}
	return parseUint(tr.TotalSupply)
}

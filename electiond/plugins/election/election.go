// Copyright (c) 2022 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package election provides a plugin for elections that are decided by token
// holders. An election contains candidates. A holder can back at most one
// candidate of an election at a time, voting yea or nay, with a weight equal
// to the holder's token balance at the snapshot block of the election. A
// candidate that exceeds both the support and the quorum requirement decides
// the election and its execution script is run exactly once.
//
// Election and candidate IDs are assigned sequentially starting at 1. An ID
// of 0 means none.
package election

import "github.com/tokenvote/tokenvote/util"

const (
	// PluginID is the unique identifier for this plugin.
	PluginID = "election"

	// Plugin write commands
	CmdNewElection  = "newelection"  // Create an election
	CmdAddCandidate = "addcandidate" // Add a candidate to an election
	CmdVote         = "vote"         // Cast a vote on a candidate
	CmdExecute      = "execute"      // Execute a decided election
	CmdSetSupport   = "setsupport"   // Change the required support
	CmdSetQuorum    = "setquorum"    // Change the minimum accept quorum

	// Plugin read commands
	CmdElection    = "election"    // Get an election
	CmdCandidate   = "candidate"   // Get a candidate
	CmdVoterState  = "voterstate"  // Get the state of a voter on a candidate
	CmdVoterChoice = "voterchoice" // Get the candidate a voter backs
	CmdSummary     = "summary"     // Get the tally of an election
	CmdInventory   = "inventory"   // Get election IDs by status
	CmdSettings    = "settings"    // Get the current settings
)

const (
	// PctBase is the base of all percentages. A percentage of PctBase
	// is 100%.
	PctBase uint64 = 1e18

	// pct16Unit is 1% expressed in PctBase.
	pct16Unit uint64 = 1e16
)

// Pct16 returns the provided whole percentage expressed in PctBase.
func Pct16(pct uint64) uint64 {
	return pct * pct16Unit
}

// Plugin setting keys can be used to specify custom plugin settings. Default
// plugin setting values can be overridden by providing a plugin setting key
// and value to the daemon on startup.
const (
	// SettingKeySupportRequired is the plugin setting key for the
	// SettingSupportRequired plugin setting.
	SettingKeySupportRequired = "supportrequired"

	// SettingKeyMinAcceptQuorum is the plugin setting key for the
	// SettingMinAcceptQuorum plugin setting.
	SettingKeyMinAcceptQuorum = "minacceptquorum"

	// SettingKeyVoteTime is the plugin setting key for the
	// SettingVoteTime plugin setting.
	SettingKeyVoteTime = "votetime"

	// SettingKeyMaxCandidates is the plugin setting key for the
	// SettingMaxCandidates plugin setting.
	SettingKeyMaxCandidates = "maxcandidates"
)

// Plugin setting default values.
const (
	// SettingSupportRequired is the default support, yea / (yea + nay),
	// that a candidate must exceed. Defaults to 50%.
	SettingSupportRequired = 50 * pct16Unit

	// SettingMinAcceptQuorum is the default quorum, yea / voting power,
	// that a candidate must exceed. Defaults to 20%.
	SettingMinAcceptQuorum = 20 * pct16Unit

	// SettingVoteTime is the default duration of an election in
	// seconds. Defaults to one week.
	SettingVoteTime int64 = 7 * 24 * 60 * 60

	// SettingVoteTimeMax is the largest accepted vote time in seconds,
	// 100 years. It keeps the end date of an election far from the int64
	// limit.
	SettingVoteTimeMax int64 = 100 * 365 * 24 * 60 * 60

	// SettingMaxCandidates is the default maximum number of candidates
	// that an election can contain.
	SettingMaxCandidates uint32 = 100
)

// VoterStateT represents the state of a voter on a candidate.
type VoterStateT uint32

const (
	// VoterStateAbsent indicates that the voter has not voted on the
	// candidate.
	VoterStateAbsent VoterStateT = 0

	// VoterStateYea indicates that the voter supports the candidate.
	VoterStateYea VoterStateT = 1

	// VoterStateNay indicates that the voter opposes the candidate.
	VoterStateNay VoterStateT = 2
)

var (
	// VoterStates contains the human readable voter states.
	VoterStates = map[VoterStateT]string{
		VoterStateAbsent: "absent",
		VoterStateYea:    "yea",
		VoterStateNay:    "nay",
	}
)

// ErrorCodeT represents a plugin error that was caused by the user.
type ErrorCodeT uint32

const (
	// ErrorCodeInvalid is an invalid error code.
	ErrorCodeInvalid ErrorCodeT = 0

	// ErrorCodePayloadInvalid is returned when a command payload can not
	// be decoded.
	ErrorCodePayloadInvalid ErrorCodeT = 1

	// ErrorCodePublicKeyInvalid is returned when a public key is invalid.
	ErrorCodePublicKeyInvalid ErrorCodeT = 2

	// ErrorCodeSignatureInvalid is returned when a signature is invalid.
	ErrorCodeSignatureInvalid ErrorCodeT = 3

	// ErrorCodeSignatureReplayed is returned when a signature has
	// already been used.
	ErrorCodeSignatureReplayed ErrorCodeT = 4

	// ErrorCodeElectionNotFound is returned when an election does not
	// exist.
	ErrorCodeElectionNotFound ErrorCodeT = 5

	// ErrorCodeCandidateNotFound is returned when a candidate does not
	// exist.
	ErrorCodeCandidateNotFound ErrorCodeT = 6

	// ErrorCodeCanNotAdd is returned when a candidate is added to an
	// election that is closed or executed.
	ErrorCodeCanNotAdd ErrorCodeT = 7

	// ErrorCodeCanNotVote is returned when the voter had no balance at
	// the snapshot block or the election is closed or executed.
	ErrorCodeCanNotVote ErrorCodeT = 8

	// ErrorCodeVoteUnchanged is returned when a voter resubmits the vote
	// that they currently have on a candidate.
	ErrorCodeVoteUnchanged ErrorCodeT = 9

	// ErrorCodeCanNotExecute is returned when an election is already
	// executed or none of its candidates passes.
	ErrorCodeCanNotExecute ErrorCodeT = 10

	// ErrorCodeNoVotingPower is returned when an election is created
	// while the token has no supply at the snapshot block.
	ErrorCodeNoVotingPower ErrorCodeT = 11

	// ErrorCodeScriptInvalid is returned when an execution script can
	// not be decoded.
	ErrorCodeScriptInvalid ErrorCodeT = 12

	// ErrorCodeInitPcts is returned on setup when the minimum accept
	// quorum exceeds the required support.
	ErrorCodeInitPcts ErrorCodeT = 13

	// ErrorCodeInitSupportTooBig is returned on setup when the required
	// support is not less than PctBase.
	ErrorCodeInitSupportTooBig ErrorCodeT = 14

	// ErrorCodeChangeSupportPcts is returned when the required support
	// is changed to a value below the minimum accept quorum.
	ErrorCodeChangeSupportPcts ErrorCodeT = 15

	// ErrorCodeChangeSupportTooBig is returned when the required support
	// is changed to a value that is not less than PctBase.
	ErrorCodeChangeSupportTooBig ErrorCodeT = 16

	// ErrorCodeChangeQuorumPcts is returned when the minimum accept
	// quorum is changed to a value above the required support.
	ErrorCodeChangeQuorumPcts ErrorCodeT = 17

	// ErrorCodeCandidateLimit is returned when an election already
	// contains the maximum number of candidates.
	ErrorCodeCandidateLimit ErrorCodeT = 18

	// ErrorCodeLast unit test only.
	ErrorCodeLast ErrorCodeT = 19
)

var (
	// ErrorCodes contains the symbolic reason of each error code. The
	// reasons are returned to the caller verbatim.
	ErrorCodes = map[ErrorCodeT]string{
		ErrorCodeInvalid:             "ERROR_INVALID",
		ErrorCodePayloadInvalid:      "ERROR_PAYLOAD_INVALID",
		ErrorCodePublicKeyInvalid:    "ERROR_PUBLIC_KEY_INVALID",
		ErrorCodeSignatureInvalid:    "ERROR_SIGNATURE_INVALID",
		ErrorCodeSignatureReplayed:   "ERROR_SIGNATURE_REPLAYED",
		ErrorCodeElectionNotFound:    "ERROR_NO_ELECTION",
		ErrorCodeCandidateNotFound:   "ERROR_NO_VOTE",
		ErrorCodeCanNotAdd:           "ERROR_CAN_NOT_ADD",
		ErrorCodeCanNotVote:          "ERROR_CAN_NOT_VOTE",
		ErrorCodeVoteUnchanged:       "ERROR_VOTE_UNCHANGED",
		ErrorCodeCanNotExecute:       "ERROR_CAN_NOT_EXECUTE",
		ErrorCodeNoVotingPower:       "ERROR_NO_VOTING_POWER",
		ErrorCodeScriptInvalid:       "ERROR_SCRIPT_INVALID",
		ErrorCodeInitPcts:            "ERROR_INIT_PCTS",
		ErrorCodeInitSupportTooBig:   "ERROR_INIT_SUPPORT_TOO_BIG",
		ErrorCodeChangeSupportPcts:   "ERROR_CHANGE_SUPPORT_PCTS",
		ErrorCodeChangeSupportTooBig: "ERROR_CHANGE_SUPPORT_TOO_BIG",
		ErrorCodeChangeQuorumPcts:    "ERROR_CHANGE_QUORUM_PCTS",
		ErrorCodeCandidateLimit:      "ERROR_CANDIDATE_LIMIT",
	}
)

// NewElection creates a new election. This command is privileged. The
// snapshot block of the election is the block that precedes the block the
// election is created in.
//
// PublicKey is the creator of the election. Signature is the signature of
// NewElectionMsg.
type NewElection struct {
	Script    string `json:"script"` // Hex encoded call script
	Metadata  string `json:"metadata"`
	PublicKey string `json:"publickey"`
	Nonce     string `json:"nonce"`
	Signature string `json:"signature"`
}

// NewElectionMsg returns the message that is signed by the creator of an
// election.
func NewElectionMsg(script, metadata, nonce string) string {
	return util.SignatureMsg(PluginID+"/"+CmdNewElection, script, metadata,
		nonce)
}

// NewElectionReply is the reply to the NewElection command.
type NewElectionReply struct {
	ElectionID    uint64 `json:"electionid"`
	SnapshotBlock uint64 `json:"snapshotblock"`
	StartDate     int64  `json:"startdate"`
}

// AddCandidate adds a candidate to an open election. This command is
// privileged. Signature is the signature of AddCandidateMsg.
type AddCandidate struct {
	ElectionID  uint64 `json:"electionid"`
	Description string `json:"description"`
	Script      string `json:"script"` // Hex encoded call script
	PublicKey   string `json:"publickey"`
	Nonce       string `json:"nonce"`
	Signature   string `json:"signature"`
}

// AddCandidateMsg returns the message that is signed when adding a
// candidate.
func AddCandidateMsg(electionID uint64, description, script, nonce string) string {
	return util.SignatureMsg(PluginID+"/"+CmdAddCandidate,
		uintString(electionID), description, script, nonce)
}

// AddCandidateReply is the reply to the AddCandidate command.
type AddCandidateReply struct {
	CandidateID   uint64 `json:"candidateid"`
	SnapshotBlock uint64 `json:"snapshotblock"`
}

// Vote casts a vote on a candidate. PublicKey is the voter address.
// Signature is the signature of VoteMsg.
//
// A voter backs at most one candidate of an election. Voting on a different
// candidate of the same election moves the full weight of the voter from the
// previous candidate to the new one. When ExecutesIfDecided is set and the
// vote causes the candidate to pass, the election is executed as part of the
// vote.
type Vote struct {
	CandidateID       uint64 `json:"candidateid"`
	Supports          bool   `json:"supports"`
	ExecutesIfDecided bool   `json:"executesifdecided"`
	PublicKey         string `json:"publickey"`
	Nonce             string `json:"nonce"`
	Signature         string `json:"signature"`
}

// VoteMsg returns the message that is signed by a voter.
func VoteMsg(candidateID uint64, supports, executesIfDecided bool, nonce string) string {
	return util.SignatureMsg(PluginID+"/"+CmdVote, uintString(candidateID),
		boolString(supports), boolString(executesIfDecided), nonce)
}

// VoteReply is the reply to the Vote command. Receipt is the server
// signature of the client signature. Executed is set when the vote caused
// the election to be executed.
type VoteReply struct {
	Stake    string `json:"stake"`
	Receipt  string `json:"receipt"`
	Executed bool   `json:"executed"`
}

// Execute executes a decided election. The passing candidate with the most
// yea weight wins, ties broken by the lowest candidate ID. The candidate
// script runs first, followed by the election script.
type Execute struct {
	ElectionID uint64 `json:"electionid"`
}

// ExecuteReply is the reply to the Execute command.
type ExecuteReply struct {
	CandidateID uint64 `json:"candidateid"`
}

// SetSupport changes the required support of elections that are created
// afterwards. This command is privileged.
type SetSupport struct {
	SupportRequired uint64 `json:"supportrequired"`
}

// SetSupportReply is the reply to the SetSupport command.
type SetSupportReply struct{}

// SetQuorum changes the minimum accept quorum of elections that are created
// afterwards. This command is privileged.
type SetQuorum struct {
	MinAcceptQuorum uint64 `json:"minacceptquorum"`
}

// SetQuorumReply is the reply to the SetQuorum command.
type SetQuorumReply struct{}

// ElectionDetails contains the full state of an election. VotingPower is
// the total token supply at the snapshot block. An election is open until
// EndDate or until it is executed.
type ElectionDetails struct {
	ElectionID        uint64   `json:"electionid"`
	Creator           string   `json:"creator"`
	Metadata          string   `json:"metadata"`
	Script            string   `json:"script"`
	Open              bool     `json:"open"`
	Executed          bool     `json:"executed"`
	StartDate         int64    `json:"startdate"`
	EndDate           int64    `json:"enddate"`
	SnapshotBlock     uint64   `json:"snapshotblock"`
	SupportRequired   uint64   `json:"supportrequired"`
	MinAcceptQuorum   uint64   `json:"minacceptquorum"`
	VotingPower       string   `json:"votingpower"`
	CandidateIDs      []uint64 `json:"candidateids"`
	ExecutedCandidate uint64   `json:"executedcandidate,omitempty"`
}

// Election requests the details of an election.
type Election struct {
	ElectionID uint64 `json:"electionid"`
}

// ElectionReply is the reply to the Election command.
type ElectionReply struct {
	Election ElectionDetails `json:"election"`
}

// CandidateDetails contains the full state of a candidate. The time and
// threshold fields are those of the election that contains the candidate.
type CandidateDetails struct {
	CandidateID     uint64 `json:"candidateid"`
	ElectionID      uint64 `json:"electionid"`
	Creator         string `json:"creator"`
	Description     string `json:"description"`
	Script          string `json:"script"`
	Open            bool   `json:"open"`
	Executed        bool   `json:"executed"`
	StartDate       int64  `json:"startdate"`
	EndDate         int64  `json:"enddate"`
	SnapshotBlock   uint64 `json:"snapshotblock"`
	SupportRequired uint64 `json:"supportrequired"`
	MinAcceptQuorum uint64 `json:"minacceptquorum"`
	Yea             string `json:"yea"`
	Nay             string `json:"nay"`
	VotingPower     string `json:"votingpower"`
}

// Candidate requests the details of a candidate.
type Candidate struct {
	CandidateID uint64 `json:"candidateid"`
}

// CandidateReply is the reply to the Candidate command.
type CandidateReply struct {
	Candidate CandidateDetails `json:"candidate"`
}

// VoterState requests the state of a voter on a candidate.
type VoterState struct {
	CandidateID uint64 `json:"candidateid"`
	Voter       string `json:"voter"`
}

// VoterStateReply is the reply to the VoterState command.
type VoterStateReply struct {
	State VoterStateT `json:"state"`
}

// VoterChoice requests the candidate that a voter currently backs in an
// election.
type VoterChoice struct {
	ElectionID uint64 `json:"electionid"`
	Voter      string `json:"voter"`
}

// VoterChoiceReply is the reply to the VoterChoice command. CandidateID is
// 0 and State is VoterStateAbsent when the voter has no standing choice.
type VoterChoiceReply struct {
	CandidateID uint64      `json:"candidateid"`
	State       VoterStateT `json:"state"`
	Stake       string      `json:"stake"`
}

// CandidateSummary contains the tally of a candidate. Support and Quorum
// are expressed in PctBase.
type CandidateSummary struct {
	CandidateID uint64 `json:"candidateid"`
	Yea         string `json:"yea"`
	Nay         string `json:"nay"`
	Support     uint64 `json:"support"`
	Quorum      uint64 `json:"quorum"`
	Passed      bool   `json:"passed"`
}

// Summary requests the tally of an election.
type Summary struct {
	ElectionID uint64 `json:"electionid"`
}

// SummaryReply is the reply to the Summary command. Leader is the candidate
// that would win if the election was executed now, 0 if none passes.
type SummaryReply struct {
	ElectionID  uint64             `json:"electionid"`
	Open        bool               `json:"open"`
	Executed    bool               `json:"executed"`
	VotingPower string             `json:"votingpower"`
	Leader      uint64             `json:"leader"`
	Candidates  []CandidateSummary `json:"candidates"`
}

// Inventory requests the IDs of all elections categorized by status.
type Inventory struct{}

// InventoryReply is the reply to the Inventory command. Closed contains the
// elections that ended without being executed.
type InventoryReply struct {
	Open     []uint64 `json:"open"`
	Closed   []uint64 `json:"closed"`
	Executed []uint64 `json:"executed"`
}

// Settings requests the current plugin settings.
type Settings struct{}

// SettingsReply is the reply to the Settings command.
type SettingsReply struct {
	SupportRequired uint64 `json:"supportrequired"`
	MinAcceptQuorum uint64 `json:"minacceptquorum"`
	VoteTime        int64  `json:"votetime"`
	MaxCandidates   uint32 `json:"maxcandidates"`
}

// Event names
const (
	EventStartElection         = "StartElection"
	EventStartVote             = "StartVote"
	EventCastVote              = "CastVote"
	EventExecuteElection       = "ExecuteElection"
	EventChangeSupportRequired = "ChangeSupportRequired"
	EventChangeMinQuorum       = "ChangeMinQuorum"
)

// StartElectionEvent is the payload of the StartElection event.
type StartElectionEvent struct {
	ElectionID uint64 `json:"electionid"`
	Creator    string `json:"creator"`
	Metadata   string `json:"metadata"`
}

// StartVoteEvent is the payload of the StartVote event. VoteID is the
// candidate ID and Metadata is the candidate description.
type StartVoteEvent struct {
	VoteID     uint64 `json:"voteid"`
	ElectionID uint64 `json:"electionid"`
	Creator    string `json:"creator"`
	Metadata   string `json:"metadata"`
}

// CastVoteEvent is the payload of the CastVote event.
type CastVoteEvent struct {
	ElectionID  uint64 `json:"electionid"`
	CandidateID uint64 `json:"candidateid"`
	Voter       string `json:"voter"`
	Supports    bool   `json:"supports"`
	Stake       string `json:"stake"`
}

// ExecuteElectionEvent is the payload of the ExecuteElection event.
type ExecuteElectionEvent struct {
	ElectionID  uint64 `json:"electionid"`
	CandidateID uint64 `json:"candidateid"`
}

// ChangeSupportRequiredEvent is the payload of the ChangeSupportRequired
// event.
type ChangeSupportRequiredEvent struct {
	SupportRequired uint64 `json:"supportrequired"`
}

// ChangeMinQuorumEvent is the payload of the ChangeMinQuorum event.
type ChangeMinQuorumEvent struct {
	MinAcceptQuorum uint64 `json:"minacceptquorum"`
}

// Copyright (c) 2022 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package election

import (
	"strconv"

	"github.com/pkg/errors"
	"github.com/tokenvote/tokenvote/electiond/api/v1/identity"
	"github.com/tokenvote/tokenvote/electiond/backend"
	"github.com/tokenvote/tokenvote/electiond/backend/ledgerbe/plugins"
	"github.com/tokenvote/tokenvote/electiond/plugins/election"
	"github.com/tokenvote/tokenvote/electiond/plugins/token"
)

var (
	_ plugins.PluginClient = (*electionPlugin)(nil)
)

// electionPlugin is the ledger backend implementation of the election
// plugin. Elections are weighted by the balances of the token plugin at the
// snapshot block of the election.
//
// electionPlugin satisfies the plugins PluginClient interface.
type electionPlugin struct {
	backend backend.Backend

	// identity is the full identity of the daemon. It is used to sign
	// vote receipts.
	identity *identity.FullIdentity

	// Plugin settings. The thresholds are the initial values. The
	// current values are saved in the ledger once they have been
	// changed by the setsupport or setquorum commands.
	supportRequired uint64
	minAcceptQuorum uint64
	voteTime        int64
	maxCandidates   uint32
}

// Setup performs any plugin setup that is required.
//
// This function satisfies the plugins PluginClient interface.
func (p *electionPlugin) Setup() error {
	log.Tracef("election Setup")

	// Verify plugin dependencies
	var tokenFound bool
	for _, v := range p.backend.PluginInventory() {
		if v.ID == token.PluginID {
			tokenFound = true
		}
	}
	if !tokenFound {
		return errors.Errorf("plugin dependency not registered: %v",
			token.PluginID)
	}

	return nil
}

// Write executes a read/write plugin command.
//
// This function satisfies the plugins PluginClient interface.
func (p *electionPlugin) Write(l plugins.LedgerClient, cmd, payload string) (string, error) {
	log.Tracef("election Write: %v %v", cmd, payload)

	switch cmd {
	case election.CmdNewElection:
		return p.cmdNewElection(l, payload)
	case election.CmdAddCandidate:
		return p.cmdAddCandidate(l, payload)
	case election.CmdVote:
		return p.cmdVote(l, payload)
	case election.CmdExecute:
		return p.cmdExecute(l, payload)
	case election.CmdSetSupport:
		return p.cmdSetSupport(l, payload)
	case election.CmdSetQuorum:
		return p.cmdSetQuorum(l, payload)
	}

	return "", backend.ErrPluginCmdInvalid
}

// Read executes a read-only plugin command.
//
// This function satisfies the plugins PluginClient interface.
func (p *electionPlugin) Read(l plugins.LedgerClient, cmd, payload string) (string, error) {
	log.Tracef("election Read: %v %v", cmd, payload)

	switch cmd {
	case election.CmdElection:
		return p.cmdElection(l, payload)
	case election.CmdCandidate:
		return p.cmdCandidate(l, payload)
	case election.CmdVoterState:
		return p.cmdVoterState(l, payload)
	case election.CmdVoterChoice:
		return p.cmdVoterChoice(l, payload)
	case election.CmdSummary:
		return p.cmdSummary(l, payload)
	case election.CmdInventory:
		return p.cmdInventory(l)
	case election.CmdSettings:
		return p.cmdSettings(l)
	}

	return "", backend.ErrPluginCmdInvalid
}

// Privileged returns whether the write command requires admin privileges.
//
// This function satisfies the plugins PluginClient interface.
func (p *electionPlugin) Privileged(cmd string) bool {
	switch cmd {
	case election.CmdNewElection, election.CmdAddCandidate,
		election.CmdSetSupport, election.CmdSetQuorum:
		return true
	}
	return false
}

// Settings returns the plugin's settings.
//
// This function satisfies the plugins PluginClient interface.
func (p *electionPlugin) Settings() []backend.PluginSetting {
	log.Tracef("election Settings")

	return []backend.PluginSetting{
		{
			Key:   election.SettingKeySupportRequired,
			Value: strconv.FormatUint(p.supportRequired, 10),
		},
		{
			Key:   election.SettingKeyMinAcceptQuorum,
			Value: strconv.FormatUint(p.minAcceptQuorum, 10),
		},
		{
			Key:   election.SettingKeyVoteTime,
			Value: strconv.FormatInt(p.voteTime, 10),
		},
		{
			Key:   election.SettingKeyMaxCandidates,
			Value: strconv.FormatUint(uint64(p.maxCandidates), 10),
		},
	}
}

// New returns a new electionPlugin.
func New(b backend.Backend, settings []backend.PluginSetting, id *identity.FullIdentity) (*electionPlugin, error) {
	var (
		supportRequired = election.SettingSupportRequired
		minAcceptQuorum = election.SettingMinAcceptQuorum
		voteTime        = election.SettingVoteTime
		maxCandidates   = election.SettingMaxCandidates
	)

	// Override defaults with any passed in settings
	for _, v := range settings {
		switch v.Key {
		case election.SettingKeySupportRequired:
			u, err := strconv.ParseUint(v.Value, 10, 64)
			if err != nil {
				return nil, errors.Errorf("invalid plugin setting %v '%v': %v",
					v.Key, v.Value, err)
			}
			supportRequired = u
			log.Infof("Plugin setting updated: election %v %v",
				election.SettingKeySupportRequired, supportRequired)

		case election.SettingKeyMinAcceptQuorum:
			u, err := strconv.ParseUint(v.Value, 10, 64)
			if err != nil {
				return nil, errors.Errorf("invalid plugin setting %v '%v': %v",
					v.Key, v.Value, err)
			}
			minAcceptQuorum = u
			log.Infof("Plugin setting updated: election %v %v",
				election.SettingKeyMinAcceptQuorum, minAcceptQuorum)

		case election.SettingKeyVoteTime:
			i, err := strconv.ParseInt(v.Value, 10, 64)
			if err != nil {
				return nil, errors.Errorf("invalid plugin setting %v '%v': %v",
					v.Key, v.Value, err)
			}
			if i <= 0 || i > election.SettingVoteTimeMax {
				return nil, errors.Errorf("invalid plugin setting %v: "+
					"must be between 1 and %v", v.Key,
					election.SettingVoteTimeMax)
			}
			voteTime = i
			log.Infof("Plugin setting updated: election %v %v",
				election.SettingKeyVoteTime, voteTime)

		case election.SettingKeyMaxCandidates:
			u, err := strconv.ParseUint(v.Value, 10, 32)
			if err != nil {
				return nil, errors.Errorf("invalid plugin setting %v '%v': %v",
					v.Key, v.Value, err)
			}
			maxCandidates = uint32(u)
			log.Infof("Plugin setting updated: election %v %v",
				election.SettingKeyMaxCandidates, maxCandidates)

		default:
			return nil, errors.Errorf("invalid plugin setting: %v", v.Key)
		}
	}

	// Verify the thresholds
	if minAcceptQuorum > supportRequired {
		return nil, electionError(election.ErrorCodeInitPcts,
			"minacceptquorum exceeds supportrequired")
	}
	if supportRequired >= election.PctBase {
		return nil, electionError(election.ErrorCodeInitSupportTooBig,
			"supportrequired must be less than 100%")
	}

	return &electionPlugin{
		backend:         b,
		identity:        id,
		supportRequired: supportRequired,
		minAcceptQuorum: minAcceptQuorum,
		voteTime:        voteTime,
		maxCandidates:   maxCandidates,
	}, nil
}

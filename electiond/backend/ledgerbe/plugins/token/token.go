// Copyright (c) 2022 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package token

import (
	"math/big"
	"strconv"

	"github.com/pkg/errors"
	"github.com/tokenvote/tokenvote/electiond/backend"
	"github.com/tokenvote/tokenvote/electiond/backend/ledgerbe/plugins"
	"github.com/tokenvote/tokenvote/electiond/plugins/token"
)

var (
	_ plugins.PluginClient = (*tokenPlugin)(nil)
)

// tokenPlugin is the ledger backend implementation of the token plugin. The
// token plugin keeps a MiniMe style checkpoint history of every holder
// balance and of the total supply so that balances can be queried at any
// past block height.
//
// tokenPlugin satisfies the plugins PluginClient interface.
type tokenPlugin struct {
	// Plugin settings
	name             string
	symbol           string
	decimals         uint32
	transfersEnabled bool
	maxAccountTokens *big.Int // nil means no limit
}

// Setup performs any plugin setup that is required.
//
// This function satisfies the plugins PluginClient interface.
func (p *tokenPlugin) Setup() error {
	log.Tracef("token Setup")

	return nil
}

// Write executes a read/write plugin command.
//
// This function satisfies the plugins PluginClient interface.
func (p *tokenPlugin) Write(l plugins.LedgerClient, cmd, payload string) (string, error) {
	log.Tracef("token Write: %v %v", cmd, payload)

	switch cmd {
	case token.CmdGenerate:
		return p.cmdGenerate(l, payload)
	case token.CmdDestroy:
		return p.cmdDestroy(l, payload)
	case token.CmdTransfer:
		return p.cmdTransfer(l, payload)
	}

	return "", backend.ErrPluginCmdInvalid
}

// Read executes a read-only plugin command.
//
// This function satisfies the plugins PluginClient interface.
func (p *tokenPlugin) Read(l plugins.LedgerClient, cmd, payload string) (string, error) {
	log.Tracef("token Read: %v %v", cmd, payload)

	switch cmd {
	case token.CmdBalance:
		return p.cmdBalance(l, payload)
	case token.CmdBalanceAt:
		return p.cmdBalanceAt(l, payload)
	case token.CmdTotalSupplyAt:
		return p.cmdTotalSupplyAt(l, payload)
	case token.CmdHolders:
		return p.cmdHolders(l)
	case token.CmdInfo:
		return p.cmdInfo(l)
	}

	return "", backend.ErrPluginCmdInvalid
}

// Privileged returns whether the write command requires admin privileges.
// Generating and destroying tokens are privileged.
//
// This function satisfies the plugins PluginClient interface.
func (p *tokenPlugin) Privileged(cmd string) bool {
	switch cmd {
	case token.CmdGenerate, token.CmdDestroy:
		return true
	}
	return false
}

// Settings returns the plugin's settings.
//
// This function satisfies the plugins PluginClient interface.
func (p *tokenPlugin) Settings() []backend.PluginSetting {
	log.Tracef("token Settings")

	max := "0"
	if p.maxAccountTokens != nil {
		max = p.maxAccountTokens.String()
	}
	return []backend.PluginSetting{
		{
			Key:   token.SettingKeyName,
			Value: p.name,
		},
		{
			Key:   token.SettingKeySymbol,
			Value: p.symbol,
		},
		{
			Key:   token.SettingKeyDecimals,
			Value: strconv.FormatUint(uint64(p.decimals), 10),
		},
		{
			Key:   token.SettingKeyTransfersEnabled,
			Value: strconv.FormatBool(p.transfersEnabled),
		},
		{
			Key:   token.SettingKeyMaxAccountTokens,
			Value: max,
		},
	}
}

// New returns a new tokenPlugin.
func New(settings []backend.PluginSetting) (*tokenPlugin, error) {
	var (
		name             = token.SettingName
		symbol           = token.SettingSymbol
		decimals         = token.SettingDecimals
		transfersEnabled = token.SettingTransfersEnabled
		maxAccountTokens *big.Int
	)

	// Override defaults with any passed in settings
	for _, v := range settings {
		switch v.Key {
		case token.SettingKeyName:
			name = v.Value
			log.Infof("Plugin setting updated: token %v %v",
				token.SettingKeyName, name)

		case token.SettingKeySymbol:
			symbol = v.Value
			log.Infof("Plugin setting updated: token %v %v",
				token.SettingKeySymbol, symbol)

		case token.SettingKeyDecimals:
			u, err := strconv.ParseUint(v.Value, 10, 32)
			if err != nil {
				return nil, errors.Errorf("invalid plugin setting %v '%v': %v",
					v.Key, v.Value, err)
			}
			if uint32(u) > token.SettingDecimalsMax {
				return nil, errors.Errorf("invalid plugin setting %v: "+
					"%v exceeds max %v", v.Key, u, token.SettingDecimalsMax)
			}
			decimals = uint32(u)
			log.Infof("Plugin setting updated: token %v %v",
				token.SettingKeyDecimals, decimals)

		case token.SettingKeyTransfersEnabled:
			b, err := strconv.ParseBool(v.Value)
			if err != nil {
				return nil, errors.Errorf("invalid plugin setting %v '%v': %v",
					v.Key, v.Value, err)
			}
			transfersEnabled = b
			log.Infof("Plugin setting updated: token %v %v",
				token.SettingKeyTransfersEnabled, transfersEnabled)

		case token.SettingKeyMaxAccountTokens:
			max, ok := new(big.Int).SetString(v.Value, 10)
			if !ok || max.Sign() < 0 {
				return nil, errors.Errorf("invalid plugin setting %v '%v'",
					v.Key, v.Value)
			}
			if max.Sign() > 0 {
				maxAccountTokens = max
			}
			log.Infof("Plugin setting updated: token %v %v",
				token.SettingKeyMaxAccountTokens, max)

		default:
			return nil, errors.Errorf("invalid plugin setting: %v", v.Key)
		}
	}

	return &tokenPlugin{
		name:             name,
		symbol:           symbol,
		decimals:         decimals,
		transfersEnabled: transfersEnabled,
		maxAccountTokens: maxAccountTokens,
	}, nil
}

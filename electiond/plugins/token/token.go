// Copyright (c) 2022 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package token provides a plugin for a fungible token that records the
// balance history of every holder. Balances can be queried at any past block
// height, which allows other plugins to weigh holders by a snapshot.
//
// Amounts are unsigned integers of arbitrary size encoded as base 10 strings.
// They are denominated in the smallest unit of the token, i.e. an amount of
// 1 with decimals of 18 is 10^-18 whole tokens.
package token

import "github.com/tokenvote/tokenvote/util"

const (
	// PluginID is the unique identifier for this plugin.
	PluginID = "token"

	// Plugin commands
	CmdGenerate      = "generate"      // Create tokens for a holder
	CmdDestroy       = "destroy"       // Destroy tokens of a holder
	CmdTransfer      = "transfer"      // Transfer tokens between holders
	CmdBalance       = "balance"       // Get the current balance of a holder
	CmdBalanceAt     = "balanceat"     // Get a balance at a block height
	CmdTotalSupplyAt = "totalsupplyat" // Get the total supply at a height
	CmdHolders       = "holders"       // Get all holders and balances
	CmdInfo          = "info"          // Get the token details
)

// Plugin setting keys can be used to specify custom plugin settings. Default
// plugin setting values can be overridden by providing a plugin setting key
// and value to the daemon on startup.
const (
	// SettingKeyName is the plugin setting key for the SettingName
	// plugin setting.
	SettingKeyName = "name"

	// SettingKeySymbol is the plugin setting key for the SettingSymbol
	// plugin setting.
	SettingKeySymbol = "symbol"

	// SettingKeyDecimals is the plugin setting key for the
	// SettingDecimals plugin setting.
	SettingKeyDecimals = "decimals"

	// SettingKeyTransfersEnabled is the plugin setting key for the
	// SettingTransfersEnabled plugin setting.
	SettingKeyTransfersEnabled = "transfersenabled"

	// SettingKeyMaxAccountTokens is the plugin setting key for the
	// SettingMaxAccountTokens plugin setting.
	SettingKeyMaxAccountTokens = "maxaccounttokens"
)

// Plugin setting default values. These can be overridden by providing a
// plugin setting key and value to the daemon on startup.
const (
	// SettingName is the default human readable name of the token.
	SettingName = "Vote Token"

	// SettingSymbol is the default ticker symbol of the token.
	SettingSymbol = "VOTE"

	// SettingDecimals is the default number of decimals of the token.
	SettingDecimals uint32 = 18

	// SettingDecimalsMax is the largest number of decimals allowed.
	SettingDecimalsMax uint32 = 77

	// SettingTransfersEnabled is the default value of whether holders
	// can transfer tokens between each other.
	SettingTransfersEnabled = true

	// SettingMaxAccountTokens is the default maximum balance of a
	// single holder. An empty string or "0" means there is no limit.
	SettingMaxAccountTokens = "0"
)

// ErrorCodeT represents a plugin error that was caused by the user.
type ErrorCodeT uint32

const (
	// ErrorCodeInvalid is an invalid error code.
	ErrorCodeInvalid ErrorCodeT = 0

	// ErrorCodePayloadInvalid is returned when a command payload can not
	// be decoded.
	ErrorCodePayloadInvalid ErrorCodeT = 1

	// ErrorCodePublicKeyInvalid is returned when a holder address is not
	// a valid public key.
	ErrorCodePublicKeyInvalid ErrorCodeT = 2

	// ErrorCodeSignatureInvalid is returned when a signature is invalid.
	ErrorCodeSignatureInvalid ErrorCodeT = 3

	// ErrorCodeSignatureReplayed is returned when a signature has
	// already been used.
	ErrorCodeSignatureReplayed ErrorCodeT = 4

	// ErrorCodeAmountInvalid is returned when an amount is not a
	// positive base 10 integer.
	ErrorCodeAmountInvalid ErrorCodeT = 5

	// ErrorCodeBalanceInsufficient is returned when a holder does not
	// have enough tokens to transfer or destroy.
	ErrorCodeBalanceInsufficient ErrorCodeT = 6

	// ErrorCodeTransfersDisabled is returned when a transfer is
	// attempted while transfers are disabled.
	ErrorCodeTransfersDisabled ErrorCodeT = 7

	// ErrorCodeMaxAccountTokens is returned when a write would push the
	// balance of a holder over the max account tokens setting.
	ErrorCodeMaxAccountTokens ErrorCodeT = 8

	// ErrorCodeBlockInvalid is returned when a block height in the
	// future is requested.
	ErrorCodeBlockInvalid ErrorCodeT = 9

	// ErrorCodeLast unit test only.
	ErrorCodeLast ErrorCodeT = 10
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
		ErrorCodeAmountInvalid:       "ERROR_INVALID_AMOUNT",
		ErrorCodeBalanceInsufficient: "ERROR_INSUFFICIENT_BALANCE",
		ErrorCodeTransfersDisabled:   "ERROR_TRANSFERS_DISABLED",
		ErrorCodeMaxAccountTokens:    "ERROR_MAX_ACCOUNT_TOKENS",
		ErrorCodeBlockInvalid:        "ERROR_BLOCK_INVALID",
	}
)

// Generate creates new tokens for a holder. This command is privileged.
type Generate struct {
	Holder string `json:"holder"` // Holder address
	Amount string `json:"amount"`
}

// GenerateReply is the reply to the Generate command.
type GenerateReply struct {
	Balance     string `json:"balance"`
	TotalSupply string `json:"totalsupply"`
}

// Destroy destroys tokens of a holder. This command is privileged.
type Destroy struct {
	Holder string `json:"holder"`
	Amount string `json:"amount"`
}

// DestroyReply is the reply to the Destroy command.
type DestroyReply struct {
	Balance     string `json:"balance"`
	TotalSupply string `json:"totalsupply"`
}

// Transfer transfers tokens from one holder to another. From is the holder
// address, i.e. the hex encoded public key, that signs the transfer. The
// signature is of TransferMsg. Nonce is chosen by the sender and
// allows identical transfers to be submitted more than once.
type Transfer struct {
	From      string `json:"from"`
	To        string `json:"to"`
	Amount    string `json:"amount"`
	Nonce     string `json:"nonce"`
	Signature string `json:"signature"`
}

// TransferMsg returns the message that is signed by the sender of a
// transfer.
func TransferMsg(from, to, amount, nonce string) string {
	return util.SignatureMsg(PluginID+"/"+CmdTransfer, from, to, amount,
		nonce)
}

// TransferReply is the reply to the Transfer command.
type TransferReply struct {
	FromBalance string `json:"frombalance"`
	ToBalance   string `json:"tobalance"`
}

// Balance requests the current balance of a holder.
type Balance struct {
	Holder string `json:"holder"`
}

// BalanceReply is the reply to the Balance command.
type BalanceReply struct {
	Balance string `json:"balance"`
}

// BalanceAt requests the balance of a holder at the end of the provided
// block height.
type BalanceAt struct {
	Holder string `json:"holder"`
	Height uint64 `json:"height"`
}

// BalanceAtReply is the reply to the BalanceAt command.
type BalanceAtReply struct {
	Balance string `json:"balance"`
}

// TotalSupplyAt requests the total supply at the end of the provided block
// height.
type TotalSupplyAt struct {
	Height uint64 `json:"height"`
}

// TotalSupplyAtReply is the reply to the TotalSupplyAt command.
type TotalSupplyAtReply struct {
	TotalSupply string `json:"totalsupply"`
}

// Holder is a token holder and its current balance.
type Holder struct {
	Address string `json:"address"`
	Balance string `json:"balance"`
}

// Holders requests all holders with a non-zero balance.
type Holders struct{}

// HoldersReply is the reply to the Holders command. Holders are sorted by
// balance from largest to smallest, ties broken by address.
type HoldersReply struct {
	Holders []Holder `json:"holders"`
}

// Info requests the token details.
type Info struct{}

// InfoReply is the reply to the Info command.
type InfoReply struct {
	Name             string `json:"name"`
	Symbol           string `json:"symbol"`
	Decimals         uint32 `json:"decimals"`
	TotalSupply      string `json:"totalsupply"`
	TransfersEnabled bool   `json:"transfersenabled"`
	MaxAccountTokens string `json:"maxaccounttokens"`
	Holders          uint64 `json:"holders"`
}

// EventTransfer is the name of the event that is emitted whenever balances
// change. From is empty when tokens are generated and To is empty when
// tokens are destroyed.
const EventTransfer = "Transfer"

// TransferEvent is the payload of the Transfer event.
type TransferEvent struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Amount string `json:"amount"`
}

// Copyright (c) 2020-2022 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package v1 contains the HTTP and websocket API of the election daemon.
package v1

import "fmt"

const (
	// APIVersion is the version of the API that this package
	// represents.
	APIVersion uint = 1

	// APIRoute is prefixed onto all routes in this package.
	APIRoute = "/v1"

	// Routes
	RouteVersion         = "/version"
	RouteIdentity        = "/identity"
	RoutePluginWrite     = "/plugin/write"
	RoutePluginRead      = "/plugin/read"
	RoutePluginInventory = "/plugin/inventory"
	RouteBlock           = "/block"
	RouteBlockBest       = "/block/best"
	RouteWebsocket       = "/ws"

	// Forward is the header that a reverse proxy uses to forward the
	// address of the client.
	Forward = "X-Forwarded-For"
)

// ErrorCodeT represents a user error code.
type ErrorCodeT uint32

const (
	// ErrorCodeInvalid is an invalid error code.
	ErrorCodeInvalid ErrorCodeT = 0

	// ErrorCodeInputInvalid is returned when the request body could
	// not be decoded.
	ErrorCodeInputInvalid ErrorCodeT = 1

	// ErrorCodeChallengeInvalid is returned when the identity
	// challenge is not a hex encoded 32 byte value.
	ErrorCodeChallengeInvalid ErrorCodeT = 2

	// ErrorCodePluginIDInvalid is returned when a plugin is not
	// registered.
	ErrorCodePluginIDInvalid ErrorCodeT = 3

	// ErrorCodePluginCmdInvalid is returned when a plugin command is
	// not supported by the plugin.
	ErrorCodePluginCmdInvalid ErrorCodeT = 4

	// ErrorCodeNotAuthorized is returned when a privileged plugin
	// command is sent without valid admin credentials.
	ErrorCodeNotAuthorized ErrorCodeT = 5

	// ErrorCodeBlockNotFound is returned when a block height does not
	// exist.
	ErrorCodeBlockNotFound ErrorCodeT = 6

	// ErrorCodeLast unit test only.
	ErrorCodeLast ErrorCodeT = 7
)

var (
	// ErrorCodes contains the human readable error messages.
	ErrorCodes = map[ErrorCodeT]string{
		ErrorCodeInvalid:          "error invalid",
		ErrorCodeInputInvalid:     "input invalid",
		ErrorCodeChallengeInvalid: "invalid challenge",
		ErrorCodePluginIDInvalid:  "plugin id invalid",
		ErrorCodePluginCmdInvalid: "plugin cmd invalid",
		ErrorCodeNotAuthorized:    "not authorized",
		ErrorCodeBlockNotFound:    "block not found",
	}
)

// UserErrorReply is the reply that the server returns when it encounters an
// error that is caused by something that the user did (malformed input, bad
// timing, etc). The HTTP status code will be 400.
type UserErrorReply struct {
	ErrorCode    ErrorCodeT `json:"errorcode"`
	ErrorContext string     `json:"errorcontext,omitempty"`
}

// Error satisfies the error interface.
func (e UserErrorReply) Error() string {
	return fmt.Sprintf("user error code: %v", e.ErrorCode)
}

// PluginErrorReply is the reply that the server returns when a plugin
// rejects a command. ErrorReason is the symbolic reason of the error, e.g.
// ERROR_VOTE_UNCHANGED. The HTTP status code will be 400.
type PluginErrorReply struct {
	PluginID     string `json:"pluginid"`
	ErrorCode    uint32 `json:"errorcode"`
	ErrorReason  string `json:"errorreason"`
	ErrorContext string `json:"errorcontext,omitempty"`
}

// ServerErrorReply is the reply that the server returns when it encounters an
// unrecoverable error while executing a command. The HTTP status code will be
// 500 and the ErrorCode field will contain a UNIX timestamp that the user can
// provide to the server admin to track down the error details in the logs.
type ServerErrorReply struct {
	ErrorCode int64 `json:"errorcode"`
}

// Version requests the server version information.
type Version struct{}

// VersionReply is the reply to the Version command. PubKey is the hex
// encoded public key of the server identity.
type VersionReply struct {
	Version uint   `json:"version"`
	Route   string `json:"route"`
	PubKey  string `json:"pubkey"`
	Height  uint64 `json:"height"`
}

// Identity requests the server identity. The challenge is a hex encoded 32
// byte random value that the server signs.
type Identity struct {
	Challenge string `json:"challenge"`
}

// IdentityReply is the reply to the Identity command.
type IdentityReply struct {
	PublicKey string `json:"publickey"`
	Response  string `json:"response"` // Signature of the challenge
}

// PluginCmd represents a plugin command.
type PluginCmd struct {
	PluginID string `json:"pluginid"`
	Cmd      string `json:"cmd"`
	Payload  string `json:"payload"` // JSON encoded
}

// PluginWrite executes a plugin command that writes data. Privileged
// commands require the basic auth admin credentials.
type PluginWrite struct {
	Cmd PluginCmd `json:"cmd"`
}

// PluginWriteReply is the reply to the PluginWrite command. Block is the
// block that the write was committed in.
type PluginWriteReply struct {
	Payload string `json:"payload"` // JSON encoded
	Block   Block  `json:"block"`
}

// PluginRead executes a read-only plugin command.
type PluginRead struct {
	Cmd PluginCmd `json:"cmd"`
}

// PluginReadReply is the reply to the PluginRead command.
type PluginReadReply struct {
	Payload string `json:"payload"` // JSON encoded
}

// PluginSetting is a structure that holds key/value pairs of a plugin
// setting.
type PluginSetting struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Plugin describes a plugin and its settings.
type Plugin struct {
	ID       string          `json:"id"`
	Settings []PluginSetting `json:"settings"`
}

// PluginInventory requests the registered plugins.
type PluginInventory struct{}

// PluginInventoryReply is the reply to the PluginInventory command.
type PluginInventoryReply struct {
	Plugins []Plugin `json:"plugins"`
}

// Event is a notification that a plugin emitted while executing a write.
type Event struct {
	PluginID string `json:"pluginid"`
	Name     string `json:"name"`
	Payload  string `json:"payload"` // JSON encoded
}

// Block is a committed ledger write.
type Block struct {
	Height        uint64  `json:"height"`
	Timestamp     int64   `json:"timestamp"`
	PrevHash      string  `json:"prevhash"`
	Hash          string  `json:"hash"`
	PluginID      string  `json:"pluginid,omitempty"`
	Cmd           string  `json:"cmd,omitempty"`
	PayloadDigest string  `json:"payloaddigest,omitempty"`
	Events        []Event `json:"events,omitempty"`
}

// BlockGet requests the block at a height. It is sent as URL query
// parameters.
type BlockGet struct {
	Height uint64 `schema:"height"`
}

// BlockGetReply is the reply to the BlockGet command.
type BlockGetReply struct {
	Block Block `json:"block"`
}

// BlockBest requests the most recent block.
type BlockBest struct{}

// BlockBestReply is the reply to the BlockBest command.
type BlockBestReply struct {
	Block Block `json:"block"`
}

// Websocket commands
const (
	WSCError          = "error"
	WSCPing           = "ping"
	WSCSubscribe      = "subscribe"
	WSCBlock          = "block"
	WSCElectionClosed = "electionclosed"
)

// WSHeader is required to be sent before any other command. The point is to
// make decoding easier without too much magic. E.g. a ping command
// WSHeader<ping>WSPing<timestamp>
type WSHeader struct {
	Command string `json:"command"`      // Following command
	ID      string `json:"id,omitempty"` // Client setable client id
}

// WSError is a generic websocket error. It returns in ID the client side id
// and all errors it encountered in Errors.
type WSError struct {
	Command string   `json:"command,omitempty"` // Command from client
	ID      string   `json:"id,omitempty"`      // Client set client id
	Errors  []string `json:"errors"`            // Errors returned by server
}

// WSSubscribe is a client side push to tell the server what notifications
// it wishes to receive: ping, block and electionclosed.
type WSSubscribe struct {
	RPCS []string `json:"rpcs"`
}

// WSPing is a server side push to the client to see if it is still alive.
type WSPing struct {
	Timestamp int64 `json:"timestamp"` // Server side timestamp
}

// WSBlock is a server side push of a newly committed block.
type WSBlock struct {
	Block Block `json:"block"`
}

// WSElectionClosed is a server side push that is sent once the voting
// window of an election has ended or the election has been executed.
type WSElectionClosed struct {
	ElectionID uint64 `json:"electionid"`
	Executed   bool   `json:"executed"`
	Timestamp  int64  `json:"timestamp"`
}

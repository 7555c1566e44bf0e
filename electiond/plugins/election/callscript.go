// Copyright (c) 2022 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package election

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
)

// CallScriptSpecID is the 4 byte identifier that prefixes every call script.
const CallScriptSpecID uint32 = 1

// EmptyScript is a call script that contains no actions.
var EmptyScript = EncodeCallScript(nil)

var (
	// ErrScriptSpecID is returned when a call script does not start
	// with CallScriptSpecID.
	ErrScriptSpecID = errors.New("call script spec id invalid")

	// ErrScriptTruncated is returned when a call script ends in the
	// middle of an action.
	ErrScriptTruncated = errors.New("call script truncated")
)

// Action is a single plugin write that is executed by a call script.
type Action struct {
	PluginID string `json:"pluginid"`
	Cmd      string `json:"cmd"`
	Payload  string `json:"payload"`
}

// EncodeCallScript encodes the provided actions into a hex encoded call
// script. The script is the big endian spec ID followed by each action as
// three length prefixed fields: plugin ID, command and payload. Every length
// prefix is a big endian uint32.
func EncodeCallScript(actions []Action) string {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, CallScriptSpecID)
	for _, a := range actions {
		b = appendField(b, a.PluginID)
		b = appendField(b, a.Cmd)
		b = appendField(b, a.Payload)
	}
	return hex.EncodeToString(b)
}

// DecodeCallScript decodes a hex encoded call script into its actions. An
// empty string is treated as EmptyScript.
func DecodeCallScript(script string) ([]Action, error) {
	if script == "" {
		return []Action{}, nil
	}
	b, err := hex.DecodeString(script)
	if err != nil {
		return nil, fmt.Errorf("call script not hex: %v", err)
	}
	if len(b) < 4 || binary.BigEndian.Uint32(b[:4]) != CallScriptSpecID {
		return nil, ErrScriptSpecID
	}
	b = b[4:]

	actions := make([]Action, 0, 1)
	for len(b) > 0 {
		var (
			a      Action
			fields = []*string{&a.PluginID, &a.Cmd, &a.Payload}
		)
		for _, f := range fields {
			*f, b, err = readField(b)
			if err != nil {
				return nil, err
			}
		}
		if a.PluginID == "" || a.Cmd == "" {
			return nil, fmt.Errorf("call script action %v is missing "+
				"a plugin id or command", len(actions))
		}
		actions = append(actions, a)
	}
	return actions, nil
}

// appendField appends a length prefixed string to b.
func appendField(b []byte, s string) []byte {
	l := make([]byte, 4)
	binary.BigEndian.PutUint32(l, uint32(len(s)))
	b = append(b, l...)
	return append(b, s...)
}

// readField reads a length prefixed string from b and returns the string and
// the remaining bytes.
func readField(b []byte) (string, []byte, error) {
	if len(b) < 4 {
		return "", nil, ErrScriptTruncated
	}
	l := binary.BigEndian.Uint32(b[:4])
	b = b[4:]
	if uint64(l) > uint64(len(b)) {
		return "", nil, ErrScriptTruncated
	}
	return string(b[:l]), b[l:], nil
}

func uintString(u uint64) string {
	return strconv.FormatUint(u, 10)
}

func boolString(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

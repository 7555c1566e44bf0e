// Copyright (c) 2017-2022 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package websockets

import (
	"encoding/json"
	"errors"

	"github.com/gorilla/websocket"
	v1 "github.com/tokenvote/tokenvote/electiond/api/v1"
)

var (
	// ErrInvalidWSCommand is returned when an invalid command is attempted
	// to be written to a websocket connection or when an invalid message
	// or command is read from a websocket connection.
	ErrInvalidWSCommand = errors.New("invalid websocket command")
)

// Write writes a command to the websocket connection. A WSHeader is written
// to the connection prior to sending the command payload.
func Write(c *websocket.Conn, cmd, id string, payload interface{}) error {
	if !validCommand(cmd) {
		return ErrInvalidWSCommand
	}
	err := c.WriteJSON(v1.WSHeader{Command: cmd, ID: id})
	if err != nil {
		return err
	}
	return c.WriteJSON(payload)
}

// Read reads a client command from the websocket connection. Reads are
// performed in two steps. First, a WSHeader is read from the connection. If
// a valid header is found then the command payload is read and returned.
func Read(c *websocket.Conn) (string, string, interface{}, error) {
	var header v1.WSHeader
	err := c.ReadJSON(&header)
	if err != nil {
		return "", "", nil, err
	}

	var payload interface{}
	switch header.Command {
	case v1.WSCSubscribe:
		var subscribe v1.WSSubscribe
		err = c.ReadJSON(&subscribe)
		payload = subscribe
	case v1.WSCPing:
		var ping v1.WSPing
		err = c.ReadJSON(&ping)
		payload = ping
	default:
		return "", "", nil, ErrInvalidWSCommand
	}

	return header.Command, header.ID, payload, err
}

// ReadNotification reads a server side push from the websocket connection.
// It is the client side counterpart of Write.
func ReadNotification(c *websocket.Conn) (string, interface{}, error) {
	var header v1.WSHeader
	err := c.ReadJSON(&header)
	if err != nil {
		return "", nil, err
	}

	var payload interface{}
	switch header.Command {
	case v1.WSCError:
		var e v1.WSError
		err = c.ReadJSON(&e)
		payload = e
	case v1.WSCPing:
		var ping v1.WSPing
		err = c.ReadJSON(&ping)
		payload = ping
	case v1.WSCBlock:
		var b v1.WSBlock
		err = c.ReadJSON(&b)
		payload = b
	case v1.WSCElectionClosed:
		var ec v1.WSElectionClosed
		err = c.ReadJSON(&ec)
		payload = ec
	default:
		return "", nil, ErrInvalidWSCommand
	}

	return header.Command, payload, err
}

// validCommand returns whether the command is a valid command.
func validCommand(cmd string) bool {
	switch cmd {
	case v1.WSCError:
	case v1.WSCPing:
	case v1.WSCSubscribe:
	case v1.WSCBlock:
	case v1.WSCElectionClosed:
	default:
		return false
	}
	return true
}

// ValidSubscription returns whether the command is a valid client
// subscription.
func ValidSubscription(cmd string) bool {
	switch cmd {
	case v1.WSCPing:
	case v1.WSCBlock:
	case v1.WSCElectionClosed:
	default:
		return false
	}
	return true
}

// WSJSON returns the JSON representation of a wire command. This function
// must always match Write.
func WSJSON(cmd, id string, payload interface{}) ([][]byte, error) {
	j1, err := json.Marshal(v1.WSHeader{Command: cmd, ID: id})
	if err != nil {
		return nil, err
	}
	j2, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return [][]byte{j1, j2}, nil
}

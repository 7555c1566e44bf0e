// Copyright (c) 2017-2022 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package websockets

import (
	"sync"

	"github.com/gorilla/websocket"
)

// notification is a server side push that is queued for a single
// connection.
type notification struct {
	cmd     string
	payload interface{}
}

// wsContext is the context of a single websocket connection. The
// subscriptions are protected by the Manager lock.
type wsContext struct {
	sid           string // Session ID
	remote        string
	conn          *websocket.Conn
	wg            sync.WaitGroup
	subscriptions map[string]struct{}
	errorC        chan wsError
	notifyC       chan notification
	done          chan struct{}
}

// wsError wraps a websocket error with the command that caused it.
type wsError struct {
	id      string
	command string
	errors  []string
}

func (w *wsContext) String() string {
	return w.sid + " " + w.remote
}

// subscribed returns whether the connection is subscribed to the command.
// The caller must hold the Manager lock.
func (w *wsContext) subscribed(cmd string) bool {
	_, ok := w.subscriptions[cmd]
	return ok
}

// Copyright (c) 2017-2022 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package websockets pushes ledger notifications to subscribed websocket
// clients. Clients do not need to authenticate since every notification is
// public ledger data.
package websockets

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	v1 "github.com/tokenvote/tokenvote/electiond/api/v1"
	"github.com/tokenvote/tokenvote/util"
)

const (
	// notifyQueueSize is the number of notifications that can be queued
	// for a single connection before new notifications are dropped.
	notifyQueueSize = 64
)

// Manager provides an API for managing websocket connections.
type Manager struct {
	sync.RWMutex
	readLimit int64 // Max allowed bytes for msg reads

	ws map[string]*wsContext // [sessionID]*wsContext
}

// NewManager returns a new websocket Manager.
func NewManager(readLimit int64) *Manager {
	return &Manager{
		readLimit: readLimit,
		ws:        make(map[string]*wsContext),
	}
}

// HandleWebsocket upgrades a regular HTTP connection to a websocket. It
// blocks until the connection is closed.
func (m *Manager) HandleWebsocket(w http.ResponseWriter, r *http.Request) {
	wc := wsContext{
		sid:           uuid.New().String(),
		remote:        util.RemoteAddr(r),
		subscriptions: make(map[string]struct{}),
		errorC:        make(chan wsError),
		notifyC:       make(chan notification, notifyQueueSize),
		done:          make(chan struct{}),
	}

	log.Tracef("HandleWebsocket: %v", &wc)
	defer log.Tracef("HandleWebsocket exit: %v", &wc)

	var upgrader = websocket.Upgrader{
		EnableCompression: true,
	}

	var err error
	wc.conn, err = upgrader.Upgrade(w, r, nil)
	if err != nil {
		// The upgrader has already replied to the client
		log.Debugf("HandleWebsocket upgrade %v: %v", &wc, err)
		return
	}
	defer wc.conn.Close() // causes read to exit as well

	wc.conn.SetReadLimit(m.readLimit)

	m.Lock()
	m.ws[wc.sid] = &wc
	m.Unlock()

	log.Debugf("Websocket connected: %v", &wc)

	// Reads
	wc.wg.Add(1)
	go m.handleWebsocketRead(&wc)

	// Writes
	wc.wg.Add(1)
	go m.handleWebsocketWrite(&wc)

	wc.wg.Wait()

	m.Lock()
	delete(m.ws, wc.sid)
	m.Unlock()

	log.Debugf("Websocket disconnected: %v", &wc)
}

// handleWebsocketRead reads websocket commands off the socket and handles
// them. Only subscribe commands are acted upon.
func (m *Manager) handleWebsocketRead(wc *wsContext) {
	defer wc.wg.Done()

	log.Tracef("handleWebsocketRead %v", wc)
	defer log.Tracef("handleWebsocketRead exit %v", wc)

	for {
		cmd, id, payload, err := Read(wc.conn)
		if err != nil {
			log.Tracef("handleWebsocketRead read %v %v", wc, err)
			close(wc.done) // force handlers to quit
			return
		}
		if cmd != v1.WSCSubscribe {
			continue
		}
		subscribe, ok := payload.(v1.WSSubscribe)
		if !ok {
			// This is a hard error so that the client knows they
			// sent in something wrong.
			log.Errorf("handleWebsocketRead invalid subscribe "+
				"type %v %v", wc, spew.Sdump(payload))
			close(wc.done)
			return
		}

		log.Tracef("subscribe: %v %v", wc, spew.Sdump(subscribe))

		subscriptions := make(map[string]struct{}, len(subscribe.RPCS))
		var errors []string
		for _, v := range subscribe.RPCS {
			if !ValidSubscription(v) {
				log.Tracef("invalid subscription %v %v", wc, v)
				errors = append(errors,
					fmt.Sprintf("invalid subscription %v", v))
				continue
			}
			subscriptions[v] = struct{}{}
		}

		if len(errors) > 0 {
			select {
			case wc.errorC <- wsError{
				id:      id,
				command: v1.WSCSubscribe,
				errors:  errors,
			}:
			case <-wc.done:
				return
			}
			continue
		}

		// Replace old subscriptions
		m.Lock()
		wc.subscriptions = subscriptions
		m.Unlock()
	}
}

// handleWebsocketWrite writes errors and queued notifications to the
// websocket until the connection is closed.
func (m *Manager) handleWebsocketWrite(wc *wsContext) {
	defer wc.wg.Done()

	log.Tracef("handleWebsocketWrite %v", wc)
	defer log.Tracef("handleWebsocketWrite exit %v", wc)

	for {
		var (
			cmd, id string
			payload interface{}
		)
		select {
		case <-wc.done:
			return
		case e := <-wc.errorC:
			cmd = v1.WSCError
			id = e.id
			payload = v1.WSError{
				Command: e.command,
				ID:      e.id,
				Errors:  e.errors,
			}
		case n := <-wc.notifyC:
			cmd = n.cmd
			payload = n.payload
		}

		err := Write(wc.conn, cmd, id, payload)
		if err != nil {
			log.Tracef("handleWebsocketWrite write %v %v", wc, err)
			wc.conn.Close() // unblock the reader
			return
		}
	}
}

// Broadcast queues a notification for every connection that is subscribed
// to the command. Notifications for connections with a full queue are
// dropped.
func (m *Manager) Broadcast(cmd string, payload interface{}) {
	log.Tracef("Broadcast: %v", cmd)

	m.RLock()
	defer m.RUnlock()

	for _, wc := range m.ws {
		if !wc.subscribed(cmd) {
			continue
		}
		select {
		case wc.notifyC <- notification{cmd: cmd, payload: payload}:
		default:
			log.Warnf("Broadcast: dropped %v notification for %v",
				cmd, wc)
		}
	}
}

// Ping sends a ping to every connection that subscribed to pings.
func (m *Manager) Ping() {
	m.Broadcast(v1.WSCPing, v1.WSPing{Timestamp: time.Now().Unix()})
}

// Count returns the number of open websocket connections.
func (m *Manager) Count() int {
	m.RLock()
	defer m.RUnlock()

	return len(m.ws)
}

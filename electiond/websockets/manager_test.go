// Copyright (c) 2022 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package websockets

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	v1 "github.com/tokenvote/tokenvote/electiond/api/v1"
)

func dial(t *testing.T, m *Manager) *websocket.Conn {
	t.Helper()

	s := httptest.NewServer(http.HandlerFunc(m.HandleWebsocket))
	t.Cleanup(s.Close)

	url := "ws" + strings.TrimPrefix(s.URL, "http")
	c, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { c.Close() })
	c.SetReadDeadline(time.Now().Add(10 * time.Second))
	return c
}

func subscribe(t *testing.T, c *websocket.Conn, rpcs ...string) {
	t.Helper()

	err := Write(c, v1.WSCSubscribe, "", v1.WSSubscribe{RPCS: rpcs})
	if err != nil {
		t.Fatal(err)
	}

	// Subscriptions are processed in order. An invalid subscription
	// returns an error once the prior subscription has been applied.
	err = Write(c, v1.WSCSubscribe, "sync",
		v1.WSSubscribe{RPCS: []string{"bogus"}})
	if err != nil {
		t.Fatal(err)
	}
	cmd, payload, err := ReadNotification(c)
	if err != nil {
		t.Fatal(err)
	}
	e, ok := payload.(v1.WSError)
	if cmd != v1.WSCError || !ok || e.ID != "sync" {
		t.Fatalf("unexpected sync reply %v %v", cmd, payload)
	}
}

func TestBroadcast(t *testing.T) {
	m := NewManager(4096)
	blocks := dial(t, m)
	closed := dial(t, m)

	subscribe(t, blocks, v1.WSCBlock)
	subscribe(t, closed, v1.WSCElectionClosed)

	m.Broadcast(v1.WSCBlock, v1.WSBlock{Block: v1.Block{Height: 7}})
	m.Broadcast(v1.WSCElectionClosed,
		v1.WSElectionClosed{ElectionID: 3, Executed: true})

	cmd, payload, err := ReadNotification(blocks)
	if err != nil {
		t.Fatal(err)
	}
	b, ok := payload.(v1.WSBlock)
	if cmd != v1.WSCBlock || !ok || b.Block.Height != 7 {
		t.Fatalf("got %v %v, want block 7", cmd, payload)
	}

	cmd, payload, err = ReadNotification(closed)
	if err != nil {
		t.Fatal(err)
	}
	ec, ok := payload.(v1.WSElectionClosed)
	if cmd != v1.WSCElectionClosed || !ok || ec.ElectionID != 3 ||
		!ec.Executed {
		t.Fatalf("got %v %v, want election 3 closed", cmd, payload)
	}

	if m.Count() != 2 {
		t.Fatalf("got %v connections, want 2", m.Count())
	}
}

func TestSubscribeInvalid(t *testing.T) {
	m := NewManager(4096)
	c := dial(t, m)

	err := Write(c, v1.WSCSubscribe, "1",
		v1.WSSubscribe{RPCS: []string{v1.WSCPing, "transfer"}})
	if err != nil {
		t.Fatal(err)
	}
	cmd, payload, err := ReadNotification(c)
	if err != nil {
		t.Fatal(err)
	}
	e, ok := payload.(v1.WSError)
	if cmd != v1.WSCError || !ok {
		t.Fatalf("got %v %v, want error", cmd, payload)
	}
	if e.ID != "1" || e.Command != v1.WSCSubscribe || len(e.Errors) != 1 {
		t.Fatalf("unexpected error reply %+v", e)
	}
}

func TestWriteInvalidCommand(t *testing.T) {
	err := Write(nil, "transfer", "", nil)
	if err != ErrInvalidWSCommand {
		t.Fatalf("got %v, want %v", err, ErrInvalidWSCommand)
	}
}

func TestWSJSON(t *testing.T) {
	r, err := WSJSON(v1.WSCPing, "", v1.WSPing{Timestamp: 5})
	if err != nil {
		t.Fatal(err)
	}
	if string(r[0]) != `{"command":"ping"}` {
		t.Fatalf("unexpected header %s", r[0])
	}
	if string(r[1]) != `{"timestamp":5}` {
		t.Fatalf("unexpected payload %s", r[1])
	}
}

// Copyright (c) 2022 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package ledgerbe

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/tokenvote/tokenvote/electiond/api/v1/identity"
	"github.com/tokenvote/tokenvote/electiond/backend"
	"github.com/tokenvote/tokenvote/electiond/backend/ledgerbe/plugins"
	tkplugin "github.com/tokenvote/tokenvote/electiond/plugins/token"
	"github.com/tokenvote/tokenvote/unittest"
	"github.com/tokenvote/tokenvote/util"
)

var testEpoch = time.Unix(1600000000, 0)

func newIdentity(t *testing.T) *identity.FullIdentity {
	t.Helper()

	id, err := identity.New()
	if err != nil {
		t.Fatal(err)
	}
	return id
}

func newNonce(t *testing.T) string {
	t.Helper()

	n, err := util.RandomHex(8)
	if err != nil {
		t.Fatal(err)
	}
	return n
}

func encode(t *testing.T, v interface{}) string {
	t.Helper()

	b, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	return string(b)
}

func decode(t *testing.T, s string, v interface{}) {
	t.Helper()

	err := json.Unmarshal([]byte(s), v)
	if err != nil {
		t.Fatal(err)
	}
}

// errorReason returns the symbolic reason of a plugin error or an empty
// string if err is not a plugin error.
func errorReason(err error) string {
	var pe backend.PluginError
	if errors.As(err, &pe) {
		return pe.ErrorReason
	}
	return ""
}

func generate(t *testing.T, l *ledgerBackend, holder, amount string) {
	t.Helper()

	_, err := l.PluginWrite(tkplugin.PluginID, tkplugin.CmdGenerate,
		encode(t, tkplugin.Generate{
			Holder: holder,
			Amount: amount,
		}), true)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
}

func TestGenesis(t *testing.T) {
	clock := NewTestClock(testEpoch)
	l := NewTestLedger(t, clock, nil, nil)

	b, err := l.BestBlock()
	if err != nil {
		t.Fatal(err)
	}
	if b.Height != 0 || b.PrevHash != "" || b.Hash == "" {
		t.Fatalf("invalid genesis block: %+v", b)
	}
	if b.Timestamp != testEpoch.Unix() {
		t.Fatalf("genesis timestamp got %v, want %v",
			b.Timestamp, testEpoch.Unix())
	}
	g, err := l.Block(0)
	if err != nil {
		t.Fatal(err)
	}
	if diff := unittest.DeepEqual(g, b); diff != "" {
		t.Fatal(diff)
	}
	_, err = l.Block(1)
	if !errors.Is(err, backend.ErrBlockNotFound) {
		t.Fatalf("got err %v, want %v", err, backend.ErrBlockNotFound)
	}
}

func TestPluginWriteBlocks(t *testing.T) {
	clock := NewTestClock(testEpoch)
	l := NewTestLedger(t, clock, nil, nil)
	holder := newIdentity(t).Public.String()

	var notified []backend.Block
	l.RegisterBlockNotifier(func(b backend.Block) {
		notified = append(notified, b)
	})

	genesis, err := l.BestBlock()
	if err != nil {
		t.Fatal(err)
	}

	clock.Advance(time.Minute)
	r, err := l.PluginWrite(tkplugin.PluginID, tkplugin.CmdGenerate,
		encode(t, tkplugin.Generate{
			Holder: holder,
			Amount: "10",
		}), true)
	if err != nil {
		t.Fatal(err)
	}

	b := r.Block
	switch {
	case b.Height != 1:
		t.Fatalf("height got %v, want 1", b.Height)
	case b.PrevHash != genesis.Hash:
		t.Fatalf("prev hash got %v, want %v", b.PrevHash, genesis.Hash)
	case b.Timestamp != clock.Now().Unix():
		t.Fatalf("timestamp got %v, want %v", b.Timestamp, clock.Now().Unix())
	case b.PluginID != tkplugin.PluginID || b.Cmd != tkplugin.CmdGenerate:
		t.Fatalf("command got %v %v", b.PluginID, b.Cmd)
	case len(b.Events) != 1 || b.Events[0].Name != tkplugin.EventTransfer:
		t.Fatalf("events got %+v", b.Events)
	}
	hash, err := blockHash(b)
	if err != nil {
		t.Fatal(err)
	}
	if hash != b.Hash {
		t.Fatalf("hash got %v, want %v", b.Hash, hash)
	}

	saved, err := l.Block(1)
	if err != nil {
		t.Fatal(err)
	}
	if diff := unittest.DeepEqual(*saved, b); diff != "" {
		t.Fatal(diff)
	}
	if len(notified) != 1 || notified[0].Hash != b.Hash {
		t.Fatalf("notified got %v blocks", len(notified))
	}

	// Timestamps never move backwards
	clock.Advance(-time.Hour)
	r, err = l.PluginWrite(tkplugin.PluginID, tkplugin.CmdGenerate,
		encode(t, tkplugin.Generate{
			Holder: holder,
			Amount: "10",
		}), true)
	if err != nil {
		t.Fatal(err)
	}
	if r.Block.Timestamp != b.Timestamp {
		t.Fatalf("timestamp got %v, want %v", r.Block.Timestamp, b.Timestamp)
	}
}

func TestPluginWriteRollback(t *testing.T) {
	clock := NewTestClock(testEpoch)
	l := NewTestLedger(t, clock, nil, nil)
	holder := newIdentity(t).Public.String()

	generate(t, l, holder, "10")
	before, err := l.BestBlock()
	if err != nil {
		t.Fatal(err)
	}

	// Destroying more than the balance fails
	_, err = l.PluginWrite(tkplugin.PluginID, tkplugin.CmdDestroy,
		encode(t, tkplugin.Destroy{
			Holder: holder,
			Amount: "11",
		}), true)
	if errorReason(err) != "ERROR_INSUFFICIENT_BALANCE" {
		t.Fatalf("got err %v", err)
	}

	after, err := l.BestBlock()
	if err != nil {
		t.Fatal(err)
	}
	if diff := unittest.DeepEqual(after, before); diff != "" {
		t.Fatalf("block created by failed write: %v", diff)
	}
	reply, err := l.PluginRead(tkplugin.PluginID, tkplugin.CmdBalance,
		encode(t, tkplugin.Balance{Holder: holder}))
	if err != nil {
		t.Fatal(err)
	}
	var br tkplugin.BalanceReply
	decode(t, reply, &br)
	if br.Balance != "10" {
		t.Fatalf("balance got %v, want 10", br.Balance)
	}
}

func TestPluginWriteErrors(t *testing.T) {
	clock := NewTestClock(testEpoch)
	l := NewTestLedger(t, clock, nil, nil)
	holder := newIdentity(t).Public.String()
	payload := encode(t, tkplugin.Generate{
		Holder: holder,
		Amount: "10",
	})

	var tests = []struct {
		name       string
		pluginID   string
		cmd        string
		privileged bool
		want       error
	}{
		{
			"invalid plugin",
			"bogus",
			tkplugin.CmdGenerate,
			true,
			backend.ErrPluginIDInvalid,
		},
		{
			"invalid cmd",
			tkplugin.PluginID,
			"bogus",
			true,
			backend.ErrPluginCmdInvalid,
		},
		{
			"not privileged",
			tkplugin.PluginID,
			tkplugin.CmdGenerate,
			false,
			backend.ErrPluginNotPrivileged,
		},
		{
			"read cmd",
			tkplugin.PluginID,
			tkplugin.CmdBalance,
			true,
			backend.ErrPluginCmdInvalid,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := l.PluginWrite(tc.pluginID, tc.cmd, payload,
				tc.privileged)
			if !errors.Is(err, tc.want) {
				t.Fatalf("got err %v, want %v", err, tc.want)
			}
		})
	}

	b, err := l.BestBlock()
	if err != nil {
		t.Fatal(err)
	}
	if b.Height != 0 {
		t.Fatalf("height got %v, want 0", b.Height)
	}
}

func TestPluginInventory(t *testing.T) {
	clock := NewTestClock(testEpoch)
	l := NewTestLedger(t, clock, []backend.PluginSetting{
		{
			Key:   tkplugin.SettingKeySymbol,
			Value: "ELEC",
		},
	}, nil)

	ps := l.PluginInventory()
	if len(ps) != 2 {
		t.Fatalf("got %v plugins, want 2", len(ps))
	}
	if ps[0].ID != "election" || ps[1].ID != tkplugin.PluginID {
		t.Fatalf("unexpected plugin order: %v %v", ps[0].ID, ps[1].ID)
	}
	var symbol string
	for _, v := range ps[1].Settings {
		if v.Key == tkplugin.SettingKeySymbol {
			symbol = v.Value
		}
	}
	if symbol != "ELEC" {
		t.Fatalf("symbol got %v, want ELEC", symbol)
	}
}

func TestReopen(t *testing.T) {
	clock := NewTestClock(testEpoch)
	l := NewTestLedger(t, clock, nil, nil)
	generate(t, l, newIdentity(t).Public.String(), "1")

	best, err := l.BestBlock()
	if err != nil {
		t.Fatal(err)
	}
	l2, err := New(l.store, clock.Now)
	if err != nil {
		t.Fatal(err)
	}
	reopened, err := l2.BestBlock()
	if err != nil {
		t.Fatal(err)
	}
	if diff := unittest.DeepEqual(reopened, best); diff != "" {
		t.Fatal(diff)
	}
}

func TestShutdown(t *testing.T) {
	clock := NewTestClock(testEpoch)
	l := NewTestLedger(t, clock, nil, nil)
	l.Close()

	_, err := l.PluginWrite(tkplugin.PluginID, tkplugin.CmdGenerate, "{}", true)
	if !errors.Is(err, backend.ErrShutdown) {
		t.Fatalf("got err %v, want %v", err, backend.ErrShutdown)
	}
	_, err = l.PluginRead(tkplugin.PluginID, tkplugin.CmdInfo, "{}")
	if !errors.Is(err, backend.ErrShutdown) {
		t.Fatalf("got err %v, want %v", err, backend.ErrShutdown)
	}
}

func TestLedgerClient(t *testing.T) {
	clock := NewTestClock(testEpoch)
	l := NewTestLedger(t, clock, nil, nil)

	c := &ledgerClient{
		backend:  l,
		getter:   l.store,
		pluginID: tkplugin.PluginID,
		events:   &[]backend.Event{},
	}
	err := c.Put(map[string][]byte{"k": []byte("v")}, false)
	if !errors.Is(err, plugins.ErrReadOnly) {
		t.Fatalf("Put got err %v, want %v", err, plugins.ErrReadOnly)
	}
	err = c.Emit("event", nil)
	if !errors.Is(err, plugins.ErrReadOnly) {
		t.Fatalf("Emit got err %v, want %v", err, plugins.ErrReadOnly)
	}
	_, err = c.Exec(tkplugin.PluginID, tkplugin.CmdGenerate, "{}")
	if !errors.Is(err, plugins.ErrReadOnly) {
		t.Fatalf("Exec got err %v, want %v", err, plugins.ErrReadOnly)
	}

	c.depth = maxCallDepth
	_, err = c.Read(tkplugin.PluginID, tkplugin.CmdInfo, "{}")
	if !errors.Is(err, ErrCallDepth) {
		t.Fatalf("Read got err %v, want %v", err, ErrCallDepth)
	}
}

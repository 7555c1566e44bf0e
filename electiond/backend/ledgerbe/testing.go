// Copyright (c) 2022 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package ledgerbe

import (
	"sync"
	"testing"
	"time"

	"github.com/tokenvote/tokenvote/electiond/api/v1/identity"
	"github.com/tokenvote/tokenvote/electiond/backend"
	"github.com/tokenvote/tokenvote/electiond/backend/ledgerbe/store/localdb"
	elplugin "github.com/tokenvote/tokenvote/electiond/plugins/election"
	tkplugin "github.com/tokenvote/tokenvote/electiond/plugins/token"
)

// TestClock is a clock that only moves when told to. It is used to control
// block timestamps in tests.
type TestClock struct {
	sync.Mutex
	now time.Time
}

// NewTestClock returns a TestClock set to the provided time.
func NewTestClock(now time.Time) *TestClock {
	return &TestClock{now: now}
}

// Now returns the current time of the clock.
func (c *TestClock) Now() time.Time {
	c.Lock()
	defer c.Unlock()

	return c.now
}

// Advance moves the clock forward by the provided duration. A negative
// duration moves the clock backwards.
func (c *TestClock) Advance(d time.Duration) {
	c.Lock()
	defer c.Unlock()

	c.now = c.now.Add(d)
}

// NewTestLedger returns a ledger backend that uses an in-memory leveldb
// store and has the token and election plugins registered and setup. This
// function is for unit tests only.
func NewTestLedger(t *testing.T, clock *TestClock, tokenSettings, electionSettings []backend.PluginSetting) *ledgerBackend {
	t.Helper()

	l, err := New(localdb.NewTestLocalDB(t), clock.Now)
	if err != nil {
		t.Fatal(err)
	}
	id, err := identity.New()
	if err != nil {
		t.Fatal(err)
	}
	ps := []backend.Plugin{
		{
			ID:       tkplugin.PluginID,
			Settings: tokenSettings,
			Identity: id,
		},
		{
			ID:       elplugin.PluginID,
			Settings: electionSettings,
			Identity: id,
		},
	}
	for _, p := range ps {
		err = l.PluginRegister(p)
		if err != nil {
			t.Fatalf("PluginRegister %v: %v", p.ID, err)
		}
	}
	for _, p := range ps {
		err = l.PluginSetup(p.ID)
		if err != nil {
			t.Fatalf("PluginSetup %v: %v", p.ID, err)
		}
	}

	return l
}

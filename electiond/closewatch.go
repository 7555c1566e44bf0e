// Copyright (c) 2022 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"encoding/json"
	"sort"
	"time"

	v1 "github.com/tokenvote/tokenvote/electiond/api/v1"
	"github.com/tokenvote/tokenvote/electiond/backend"
	elplugin "github.com/tokenvote/tokenvote/electiond/plugins/election"
)

// notifyBlock pushes a newly committed block to the websocket subscribers.
func (e *electiond) notifyBlock(b backend.Block) {
	e.ws.Broadcast(v1.WSCBlock, v1.WSBlock{
		Block: convertBlockToV1(b),
	})
}

// electionInventory returns the inventory of the election plugin.
func (e *electiond) electionInventory() (*elplugin.InventoryReply, error) {
	reply, err := e.backend.PluginRead(elplugin.PluginID,
		elplugin.CmdInventory, "{}")
	if err != nil {
		return nil, err
	}
	var ir elplugin.InventoryReply
	err = json.Unmarshal([]byte(reply), &ir)
	if err != nil {
		return nil, err
	}
	return &ir, nil
}

// loadClosed marks every election that is already closed as announced.
func (e *electiond) loadClosed() error {
	ir, err := e.electionInventory()
	if err != nil {
		return err
	}

	e.Lock()
	defer e.Unlock()

	for _, id := range ir.Closed {
		e.announced[id] = false
	}
	for _, id := range ir.Executed {
		e.announced[id] = true
	}

	log.Infof("Elections: %v open, %v closed, %v executed",
		len(ir.Open), len(ir.Closed), len(ir.Executed))

	return nil
}

// closedSince returns the elections of the inventory that have not been
// announced in their current state and marks them as announced. The result
// is sorted by election ID.
func (e *electiond) closedSince(ir *elplugin.InventoryReply) []v1.WSElectionClosed {
	e.Lock()
	defer e.Unlock()

	now := time.Now().Unix()
	closed := make([]v1.WSElectionClosed, 0)
	for _, id := range ir.Closed {
		if _, ok := e.announced[id]; ok {
			continue
		}
		e.announced[id] = false
		closed = append(closed, v1.WSElectionClosed{
			ElectionID: id,
			Timestamp:  now,
		})
	}
	for _, id := range ir.Executed {
		if executed := e.announced[id]; executed {
			continue
		}
		e.announced[id] = true
		closed = append(closed, v1.WSElectionClosed{
			ElectionID: id,
			Executed:   true,
			Timestamp:  now,
		})
	}

	sort.Slice(closed, func(i, j int) bool {
		return closed[i].ElectionID < closed[j].ElectionID
	})
	return closed
}

// announceClosed pushes an electionclosed notification for every election
// whose voting window has ended or that has been executed since the last
// run. It is run periodically by the cron.
func (e *electiond) announceClosed() {
	log.Tracef("announceClosed")

	ir, err := e.electionInventory()
	if err != nil {
		log.Errorf("announceClosed: %v", err)
		return
	}
	for _, v := range e.closedSince(ir) {
		log.Infof("Election %v closed (executed %v)", v.ElectionID,
			v.Executed)
		e.ws.Broadcast(v1.WSCElectionClosed, v)
	}
}

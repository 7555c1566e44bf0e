// Copyright (c) 2022 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package client

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	v1 "github.com/tokenvote/tokenvote/electiond/api/v1"
	"github.com/tokenvote/tokenvote/electiond/api/v1/identity"
	"github.com/tokenvote/tokenvote/electiond/plugins/election"
	"github.com/tokenvote/tokenvote/util"
)

func newTestClient(t *testing.T, h http.HandlerFunc, opts Opts) *Client {
	t.Helper()

	s := httptest.NewServer(h)
	t.Cleanup(s.Close)

	c, err := New(s.URL, opts)
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestIdentity(t *testing.T) {
	id, err := identity.New()
	if err != nil {
		t.Fatal(err)
	}
	h := func(w http.ResponseWriter, r *http.Request) {
		var i v1.Identity
		if err := json.NewDecoder(r.Body).Decode(&i); err != nil {
			t.Errorf("decode: %v", err)
			return
		}
		challenge, err := hex.DecodeString(i.Challenge)
		if err != nil {
			t.Errorf("challenge: %v", err)
			return
		}
		s := id.SignMessage(challenge)
		util.RespondWithJSON(w, http.StatusOK, v1.IdentityReply{
			PublicKey: id.Public.String(),
			Response:  hex.EncodeToString(s[:]),
		})
	}

	c := newTestClient(t, h, Opts{PublicIdentity: &id.Public})
	pid, err := c.Identity(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if pid.String() != id.Public.String() {
		t.Fatalf("got identity %v, want %v", pid, id.Public.String())
	}

	other, err := identity.New()
	if err != nil {
		t.Fatal(err)
	}
	c = newTestClient(t, h, Opts{PublicIdentity: &other.Public})
	_, err = c.Identity(context.Background())
	if err == nil {
		t.Fatalf("expected error for an unexpected identity")
	}
}

func TestRespError(t *testing.T) {
	h := func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "admin" || pass != "pass" {
			t.Errorf("missing credentials")
		}
		util.RespondWithJSON(w, http.StatusBadRequest, v1.PluginErrorReply{
			PluginID:    election.PluginID,
			ErrorCode:   uint32(election.ErrorCodeVoteUnchanged),
			ErrorReason: "ERROR_VOTE_UNCHANGED",
		})
	}
	c := newTestClient(t, h, Opts{RPCUser: "admin", RPCPass: "pass"})

	_, _, err := c.ElectionVote(context.Background(), election.Vote{})
	var re RespError
	if !errors.As(err, &re) {
		t.Fatalf("got err %v, want RespError", err)
	}
	if re.HTTPCode != http.StatusBadRequest ||
		re.ErrorReply.PluginID != election.PluginID ||
		re.ErrorReply.ErrorReason != "ERROR_VOTE_UNCHANGED" {
		t.Fatalf("unexpected error %+v", re)
	}
}

func TestBlock(t *testing.T) {
	h := func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet ||
			r.URL.Path != v1.APIRoute+v1.RouteBlock {
			t.Errorf("unexpected request %v %v", r.Method, r.URL.Path)
		}
		if r.URL.Query().Get("height") != "5" {
			t.Errorf("unexpected query %v", r.URL.RawQuery)
		}
		util.RespondWithJSON(w, http.StatusOK, v1.BlockGetReply{
			Block: v1.Block{Height: 5, Hash: "ab"},
		})
	}
	c := newTestClient(t, h, Opts{})

	b, err := c.Block(context.Background(), 5)
	if err != nil {
		t.Fatal(err)
	}
	if b.Height != 5 || b.Hash != "ab" {
		t.Fatalf("unexpected block %+v", b)
	}
}

func TestElectionSummary(t *testing.T) {
	h := func(w http.ResponseWriter, r *http.Request) {
		var pr v1.PluginRead
		if err := json.NewDecoder(r.Body).Decode(&pr); err != nil {
			t.Errorf("decode: %v", err)
			return
		}
		if pr.Cmd.PluginID != election.PluginID ||
			pr.Cmd.Cmd != election.CmdSummary ||
			pr.Cmd.Payload != `{"electionid":2}` {
			t.Errorf("unexpected command %+v", pr.Cmd)
		}
		reply, _ := json.Marshal(election.SummaryReply{
			ElectionID: 2,
			Leader:     4,
		})
		util.RespondWithJSON(w, http.StatusOK, v1.PluginReadReply{
			Payload: string(reply),
		})
	}
	c := newTestClient(t, h, Opts{})

	sr, err := c.ElectionSummary(context.Background(), 2)
	if err != nil {
		t.Fatal(err)
	}
	if sr.ElectionID != 2 || sr.Leader != 4 {
		t.Fatalf("unexpected summary %+v", sr)
	}
}

// Copyright (c) 2022 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	v1 "github.com/tokenvote/tokenvote/electiond/api/v1"
	"github.com/tokenvote/tokenvote/electiond/api/v1/identity"
	"github.com/tokenvote/tokenvote/electiond/backend"
	"github.com/tokenvote/tokenvote/electiond/backend/ledgerbe"
	elplugin "github.com/tokenvote/tokenvote/electiond/plugins/election"
	tkplugin "github.com/tokenvote/tokenvote/electiond/plugins/token"
	"github.com/tokenvote/tokenvote/electiond/websockets"
	"github.com/tokenvote/tokenvote/unittest"
	"github.com/tokenvote/tokenvote/util"
)

const (
	testUser = "admin"
	testPass = "secret"
)

func newTestElectiond(t *testing.T) *electiond {
	t.Helper()

	id, err := identity.New()
	if err != nil {
		t.Fatal(err)
	}
	clock := ledgerbe.NewTestClock(time.Unix(1600000000, 0))
	e := &electiond{
		cfg: &config{
			RPCUser: testUser,
			RPCPass: testPass,
			Plugins: defaultPlugins,
		},
		backend:   ledgerbe.NewTestLedger(t, clock, nil, nil),
		identity:  id,
		ws:        websockets.NewManager(defaultWSReadLimit),
		announced: make(map[uint64]bool),
	}
	e.setupRouter()
	return e
}

// request sends a request to the router and returns the recorded response.
// The body is JSON encoded when it is not nil.
func request(t *testing.T, e *electiond, method, route string, body interface{}, auth bool) *httptest.ResponseRecorder {
	t.Helper()

	var b []byte
	switch v := body.(type) {
	case nil:
	case []byte:
		b = v
	default:
		var err error
		b, err = json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
	}
	r := httptest.NewRequest(method, v1.APIRoute+route, bytes.NewReader(b))
	if auth {
		r.SetBasicAuth(testUser, testPass)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, r)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()

	err := json.Unmarshal(w.Body.Bytes(), v)
	if err != nil {
		t.Fatalf("decode %s: %v", w.Body.Bytes(), err)
	}
}

func pluginCmd(t *testing.T, pluginID, cmd string, payload interface{}) v1.PluginCmd {
	t.Helper()

	b, err := json.Marshal(payload)
	if err != nil {
		t.Fatal(err)
	}
	return v1.PluginCmd{
		PluginID: pluginID,
		Cmd:      cmd,
		Payload:  string(b),
	}
}

func TestHandleVersion(t *testing.T) {
	e := newTestElectiond(t)

	w := request(t, e, http.MethodGet, v1.RouteVersion, nil, false)
	if w.Code != http.StatusOK {
		t.Fatalf("got status %v, want %v", w.Code, http.StatusOK)
	}
	var vr v1.VersionReply
	decodeBody(t, w, &vr)
	want := v1.VersionReply{
		Version: v1.APIVersion,
		Route:   v1.APIRoute,
		PubKey:  e.identity.Public.String(),
		Height:  0,
	}
	if diff := unittest.DeepEqual(vr, want); diff != "" {
		t.Fatal(diff)
	}
}

func TestHandleIdentity(t *testing.T) {
	e := newTestElectiond(t)

	challenge, err := util.Random(challengeSize)
	if err != nil {
		t.Fatal(err)
	}
	w := request(t, e, http.MethodPost, v1.RouteIdentity,
		v1.Identity{Challenge: hex.EncodeToString(challenge)}, false)
	if w.Code != http.StatusOK {
		t.Fatalf("got status %v, want %v", w.Code, http.StatusOK)
	}
	var ir v1.IdentityReply
	decodeBody(t, w, &ir)
	pid, err := identity.PublicIdentityFromString(ir.PublicKey)
	if err != nil {
		t.Fatal(err)
	}
	err = util.VerifyChallenge(pid, challenge, ir.Response)
	if err != nil {
		t.Fatalf("challenge response did not verify: %v", err)
	}

	var tests = []struct {
		name string
		body interface{}
		want v1.ErrorCodeT
	}{
		{"not json", []byte("{"), v1.ErrorCodeInputInvalid},
		{"not hex", v1.Identity{Challenge: "zz"}, v1.ErrorCodeChallengeInvalid},
		{"short", v1.Identity{Challenge: "abcd"}, v1.ErrorCodeChallengeInvalid},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := request(t, e, http.MethodPost, v1.RouteIdentity,
				tc.body, false)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("got status %v, want %v", w.Code,
					http.StatusBadRequest)
			}
			var ue v1.UserErrorReply
			decodeBody(t, w, &ue)
			if ue.ErrorCode != tc.want {
				t.Fatalf("got error %v, want %v", ue.ErrorCode, tc.want)
			}
		})
	}
}

func TestHandlePluginWrite(t *testing.T) {
	e := newTestElectiond(t)
	holder, err := identity.New()
	if err != nil {
		t.Fatal(err)
	}
	generate := v1.PluginWrite{
		Cmd: pluginCmd(t, tkplugin.PluginID, tkplugin.CmdGenerate,
			tkplugin.Generate{
				Holder: holder.Public.String(),
				Amount: "100",
			}),
	}

	// Privileged command without credentials
	w := request(t, e, http.MethodPost, v1.RoutePluginWrite, generate, false)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("got status %v, want %v", w.Code, http.StatusUnauthorized)
	}
	var ue v1.UserErrorReply
	decodeBody(t, w, &ue)
	if ue.ErrorCode != v1.ErrorCodeNotAuthorized {
		t.Fatalf("got error %v, want %v", ue.ErrorCode,
			v1.ErrorCodeNotAuthorized)
	}

	// Invalid credentials
	b, _ := json.Marshal(generate)
	r := httptest.NewRequest(http.MethodPost,
		v1.APIRoute+v1.RoutePluginWrite, bytes.NewReader(b))
	r.SetBasicAuth(testUser, "wrong")
	rw := httptest.NewRecorder()
	e.router.ServeHTTP(rw, r)
	if rw.Code != http.StatusUnauthorized {
		t.Fatalf("got status %v, want %v", rw.Code, http.StatusUnauthorized)
	}

	// Success
	w = request(t, e, http.MethodPost, v1.RoutePluginWrite, generate, true)
	if w.Code != http.StatusOK {
		t.Fatalf("got status %v, want %v: %s", w.Code, http.StatusOK,
			w.Body.Bytes())
	}
	var pwr v1.PluginWriteReply
	decodeBody(t, w, &pwr)
	if pwr.Block.Height != 1 || pwr.Block.Cmd != tkplugin.CmdGenerate {
		t.Fatalf("unexpected block %+v", pwr.Block)
	}
	var gr tkplugin.GenerateReply
	err = json.Unmarshal([]byte(pwr.Payload), &gr)
	if err != nil {
		t.Fatal(err)
	}
	if gr.Balance != "100" || gr.TotalSupply != "100" {
		t.Fatalf("unexpected reply %+v", gr)
	}

	// Plugin error
	zero := v1.PluginWrite{
		Cmd: pluginCmd(t, tkplugin.PluginID, tkplugin.CmdGenerate,
			tkplugin.Generate{
				Holder: holder.Public.String(),
				Amount: "0",
			}),
	}
	w = request(t, e, http.MethodPost, v1.RoutePluginWrite, zero, true)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("got status %v, want %v", w.Code, http.StatusBadRequest)
	}
	var pe v1.PluginErrorReply
	decodeBody(t, w, &pe)
	if pe.PluginID != tkplugin.PluginID ||
		pe.ErrorReason != "ERROR_INVALID_AMOUNT" {
		t.Fatalf("unexpected plugin error %+v", pe)
	}

	// User errors
	var tests = []struct {
		name string
		body interface{}
		want v1.ErrorCodeT
	}{
		{
			"not json",
			[]byte("["),
			v1.ErrorCodeInputInvalid,
		},
		{
			"invalid plugin",
			v1.PluginWrite{Cmd: v1.PluginCmd{PluginID: "dao", Cmd: "x"}},
			v1.ErrorCodePluginIDInvalid,
		},
		{
			"invalid cmd",
			v1.PluginWrite{Cmd: v1.PluginCmd{
				PluginID: elplugin.PluginID,
				Cmd:      "delete",
			}},
			v1.ErrorCodePluginCmdInvalid,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := request(t, e, http.MethodPost, v1.RoutePluginWrite,
				tc.body, true)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("got status %v, want %v", w.Code,
					http.StatusBadRequest)
			}
			var ue v1.UserErrorReply
			decodeBody(t, w, &ue)
			if ue.ErrorCode != tc.want {
				t.Fatalf("got error %v, want %v", ue.ErrorCode, tc.want)
			}
		})
	}

	// Failed writes must not produce blocks
	bb, err := e.backend.BestBlock()
	if err != nil {
		t.Fatal(err)
	}
	if bb.Height != 1 {
		t.Fatalf("best block got %v, want 1", bb.Height)
	}
}

func TestHandlePluginRead(t *testing.T) {
	e := newTestElectiond(t)
	holder, err := identity.New()
	if err != nil {
		t.Fatal(err)
	}
	w := request(t, e, http.MethodPost, v1.RoutePluginWrite,
		v1.PluginWrite{
			Cmd: pluginCmd(t, tkplugin.PluginID, tkplugin.CmdGenerate,
				tkplugin.Generate{
					Holder: holder.Public.String(),
					Amount: "42",
				}),
		}, true)
	if w.Code != http.StatusOK {
		t.Fatalf("generate: status %v: %s", w.Code, w.Body.Bytes())
	}

	w = request(t, e, http.MethodPost, v1.RoutePluginRead,
		v1.PluginRead{
			Cmd: pluginCmd(t, tkplugin.PluginID, tkplugin.CmdBalance,
				tkplugin.Balance{Holder: holder.Public.String()}),
		}, false)
	if w.Code != http.StatusOK {
		t.Fatalf("got status %v, want %v: %s", w.Code, http.StatusOK,
			w.Body.Bytes())
	}
	var prr v1.PluginReadReply
	decodeBody(t, w, &prr)
	var br tkplugin.BalanceReply
	err = json.Unmarshal([]byte(prr.Payload), &br)
	if err != nil {
		t.Fatal(err)
	}
	if br.Balance != "42" {
		t.Fatalf("balance got %v, want 42", br.Balance)
	}

	// Reads do not produce blocks
	bb, err := e.backend.BestBlock()
	if err != nil {
		t.Fatal(err)
	}
	if bb.Height != 1 {
		t.Fatalf("best block got %v, want 1", bb.Height)
	}
}

func TestHandlePluginInventory(t *testing.T) {
	e := newTestElectiond(t)

	w := request(t, e, http.MethodPost, v1.RoutePluginInventory,
		v1.PluginInventory{}, false)
	if w.Code != http.StatusOK {
		t.Fatalf("got status %v, want %v", w.Code, http.StatusOK)
	}
	var pir v1.PluginInventoryReply
	decodeBody(t, w, &pir)
	if len(pir.Plugins) != 2 {
		t.Fatalf("got %v plugins, want 2", len(pir.Plugins))
	}
	if pir.Plugins[0].ID != elplugin.PluginID ||
		pir.Plugins[1].ID != tkplugin.PluginID {
		t.Fatalf("unexpected plugins %+v", pir.Plugins)
	}
}

func TestHandleBlock(t *testing.T) {
	e := newTestElectiond(t)

	w := request(t, e, http.MethodGet, v1.RouteBlock+"?height=0", nil, false)
	if w.Code != http.StatusOK {
		t.Fatalf("got status %v, want %v", w.Code, http.StatusOK)
	}
	var bgr v1.BlockGetReply
	decodeBody(t, w, &bgr)

	w = request(t, e, http.MethodGet, v1.RouteBlockBest, nil, false)
	if w.Code != http.StatusOK {
		t.Fatalf("got status %v, want %v", w.Code, http.StatusOK)
	}
	var bbr v1.BlockBestReply
	decodeBody(t, w, &bbr)
	if diff := unittest.DeepEqual(bgr.Block, bbr.Block); diff != "" {
		t.Fatal(diff)
	}

	var tests = []struct {
		name  string
		query string
		want  v1.ErrorCodeT
	}{
		{"not found", "?height=9", v1.ErrorCodeBlockNotFound},
		{"invalid height", "?height=x", v1.ErrorCodeInputInvalid},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := request(t, e, http.MethodGet, v1.RouteBlock+tc.query,
				nil, false)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("got status %v, want %v", w.Code,
					http.StatusBadRequest)
			}
			var ue v1.UserErrorReply
			decodeBody(t, w, &ue)
			if ue.ErrorCode != tc.want {
				t.Fatalf("got error %v, want %v", ue.ErrorCode, tc.want)
			}
		})
	}
}

func TestHandleNotFound(t *testing.T) {
	e := newTestElectiond(t)

	w := request(t, e, http.MethodGet, "/nope", nil, false)
	if w.Code != http.StatusNotFound {
		t.Fatalf("got status %v, want %v", w.Code, http.StatusNotFound)
	}
}

func TestRecoverMiddleware(t *testing.T) {
	h := recoverMiddleware(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			panic("boom")
		}))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("got status %v, want %v", w.Code,
			http.StatusInternalServerError)
	}
	var se v1.ServerErrorReply
	decodeBody(t, w, &se)
	if se.ErrorCode == 0 {
		t.Fatalf("server error code not set")
	}
}

func TestDumpRequestRedactsAuth(t *testing.T) {
	body := `{"pluginid":"token"}`
	r := httptest.NewRequest(http.MethodPost, "/v1/plugin/write",
		strings.NewReader(body))
	r.SetBasicAuth(testUser, testPass)

	trace := dumpRequest(r)
	if strings.Contains(trace, "YWRtaW46c2VjcmV0") {
		t.Fatalf("credentials leaked into trace: %v", trace)
	}
	if !strings.Contains(trace, "[redacted]") {
		t.Fatalf("authorization header not redacted: %v", trace)
	}

	// The body must still be readable by the handler.
	b, err := io.ReadAll(r.Body)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != body {
		t.Fatalf("got body %q, want %q", b, body)
	}
}

func TestLoggingMiddlewareStatus(t *testing.T) {
	var sw *statusWriter
	h := loggingMiddleware(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			sw = w.(*statusWriter)
			w.WriteHeader(http.StatusTeapot)
		}))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusTeapot || sw.status != http.StatusTeapot {
		t.Fatalf("got status %v/%v, want %v", w.Code, sw.status,
			http.StatusTeapot)
	}
}

func TestParsePluginSettings(t *testing.T) {
	s, err := parsePluginSettings([]string{
		"token,name,Vote Token",
		"token,decimals,2",
		"election,votetime,3600",
		"election,metadata,a,b",
	})
	if err != nil {
		t.Fatal(err)
	}
	want := map[string][]backend.PluginSetting{
		tkplugin.PluginID: {
			{Key: "name", Value: "Vote Token"},
			{Key: "decimals", Value: "2"},
		},
		elplugin.PluginID: {
			{Key: "votetime", Value: "3600"},
			{Key: "metadata", Value: "a,b"},
		},
	}
	if diff := unittest.DeepEqual(s, want); diff != "" {
		t.Fatal(diff)
	}

	_, err = parsePluginSettings([]string{"token,name"})
	if err == nil {
		t.Fatalf("expected error for a setting without a value")
	}
}

func TestSetupPluginsUnknownSetting(t *testing.T) {
	e := newTestElectiond(t)
	e.cfg.PluginSettings = []string{"ballot,votetime,10"}

	err := e.setupPlugins()
	if err == nil {
		t.Fatalf("expected error for a setting of an unregistered plugin")
	}
}

func TestClosedSince(t *testing.T) {
	e := newTestElectiond(t)
	e.announced[1] = false

	ir := &elplugin.InventoryReply{
		Open:     []uint64{5},
		Closed:   []uint64{1, 3},
		Executed: []uint64{2},
	}
	got := e.closedSince(ir)
	if len(got) != 2 {
		t.Fatalf("got %v announcements, want 2", len(got))
	}
	if got[0].ElectionID != 2 || !got[0].Executed ||
		got[1].ElectionID != 3 || got[1].Executed {
		t.Fatalf("unexpected announcements %+v", got)
	}

	// Elections are only announced once per state
	if got := e.closedSince(ir); len(got) != 0 {
		t.Fatalf("got %v announcements, want 0", len(got))
	}

	// A closed election that is executed afterwards is announced again
	ir = &elplugin.InventoryReply{
		Closed:   []uint64{1},
		Executed: []uint64{2, 3},
	}
	got = e.closedSince(ir)
	if len(got) != 1 || got[0].ElectionID != 3 || !got[0].Executed {
		t.Fatalf("unexpected announcements %+v", got)
	}
}

func TestLoadClosed(t *testing.T) {
	e := newTestElectiond(t)

	err := e.loadClosed()
	if err != nil {
		t.Fatal(err)
	}
	if len(e.announced) != 0 {
		t.Fatalf("got %v announced elections, want 0", len(e.announced))
	}
}

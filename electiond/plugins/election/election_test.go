// Copyright (c) 2022 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package election

import (
	"errors"
	"testing"

	"github.com/tokenvote/tokenvote/unittest"
)

func TestMaps(t *testing.T) {
	err := unittest.TestGenericConstMap(ErrorCodes, uint64(ErrorCodeLast))
	if err != nil {
		t.Fatal(err)
	}
}

func TestPct16(t *testing.T) {
	if Pct16(100) != PctBase {
		t.Fatalf("100%% got %v, want %v", Pct16(100), PctBase)
	}
	if SettingSupportRequired != Pct16(50) {
		t.Fatalf("default support got %v", SettingSupportRequired)
	}
}

func TestEmptyScript(t *testing.T) {
	if EmptyScript != "00000001" {
		t.Fatalf("got %v, want 00000001", EmptyScript)
	}
	actions, err := DecodeCallScript(EmptyScript)
	if err != nil {
		t.Fatal(err)
	}
	if len(actions) != 0 {
		t.Fatalf("got %v actions, want 0", len(actions))
	}
}

func TestCallScript(t *testing.T) {
	actions := []Action{
		{
			PluginID: "token",
			Cmd:      "generate",
			Payload:  `{"holder":"ab","amount":"10"}`,
		},
		{
			PluginID: "election",
			Cmd:      "setquorum",
			Payload:  `{"minacceptquorum":1}`,
		},
	}
	script := EncodeCallScript(actions)
	got, err := DecodeCallScript(script)
	if err != nil {
		t.Fatal(err)
	}
	if diff := unittest.DeepEqual(got, actions); diff != "" {
		t.Error(diff)
	}
}

func TestDecodeCallScriptErrors(t *testing.T) {
	valid := EncodeCallScript([]Action{{PluginID: "token", Cmd: "info"}})
	var tests = []struct {
		name    string
		script  string
		wantErr error
	}{
		{"wrong spec id", "00000002", ErrScriptSpecID},
		{"too short", "0000", ErrScriptSpecID},
		{"truncated length", "0000000100", ErrScriptTruncated},
		{"truncated field", "0000000100000005abcd", ErrScriptTruncated},
		{"truncated action", valid[:len(valid)-8], ErrScriptTruncated},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := DecodeCallScript(tc.script)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("got err %v, want %v", err, tc.wantErr)
			}
		})
	}

	_, err := DecodeCallScript("zz")
	if err == nil {
		t.Fatalf("expected an error for a non hex script")
	}
}

func TestVoteMsg(t *testing.T) {
	got := VoteMsg(12, true, false, "abcd")
	want := "13:election/vote,2:12,1:1,1:0,4:abcd,"
	if got != want {
		t.Fatalf("got %v, want %v", got, want)
	}

	// Moving characters between the candidate and the nonce must change
	// the message.
	if VoteMsg(1, true, false, "1x") == VoteMsg(11, false, true, "x") {
		t.Fatalf("re-split vote fields produce the same message")
	}
}

func TestSignedMsgsDistinct(t *testing.T) {
	msgs := []string{
		NewElectionMsg("1", "2", "3"),
		AddCandidateMsg(1, "2", "3", ""),
		VoteMsg(1, false, false, ""),
	}
	seen := make(map[string]bool, len(msgs))
	for _, m := range msgs {
		if seen[m] {
			t.Fatalf("duplicate message across commands: %v", m)
		}
		seen[m] = true
	}
}

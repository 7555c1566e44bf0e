// Copyright (c) 2022 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package election

import (
	"errors"
	"testing"

	"github.com/tokenvote/tokenvote/electiond/backend"
	"github.com/tokenvote/tokenvote/electiond/plugins/election"
)

func TestTallyPasses(t *testing.T) {
	e := electionRecord{
		SupportRequired: election.Pct16(50),
		MinAcceptQuorum: election.Pct16(20),
		VotingPower:     "100",
	}
	var tests = []struct {
		name string
		yea  string
		nay  string
		want bool
	}{
		{"no votes", "0", "0", false},
		{"exact quorum", "20", "0", false},
		{"above quorum", "21", "0", true},
		{"exact support", "30", "30", false},
		{"above support", "31", "30", true},
		{"nay only", "0", "80", false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := candidatePasses(e, candidateRecord{
				Yea: tc.yea,
				Nay: tc.nay,
			})
			if err != nil {
				t.Fatal(err)
			}
			if got != tc.want {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestLeader(t *testing.T) {
	e := electionRecord{
		SupportRequired: election.Pct16(50),
		MinAcceptQuorum: election.Pct16(20),
		VotingPower:     "100",
	}
	var tests = []struct {
		name       string
		candidates []candidateRecord
		want       uint64
	}{
		{
			"none pass",
			[]candidateRecord{
				{CandidateID: 1, Yea: "10", Nay: "0"},
				{CandidateID: 2, Yea: "20", Nay: "0"},
			},
			0,
		},
		{
			"highest yea",
			[]candidateRecord{
				{CandidateID: 1, Yea: "25", Nay: "0"},
				{CandidateID: 2, Yea: "40", Nay: "0"},
				{CandidateID: 3, Yea: "35", Nay: "0"},
			},
			2,
		},
		{
			"highest yea does not pass support",
			[]candidateRecord{
				{CandidateID: 1, Yea: "25", Nay: "0"},
				{CandidateID: 2, Yea: "40", Nay: "60"},
			},
			1,
		},
		{
			"tie goes to lowest id",
			[]candidateRecord{
				{CandidateID: 4, Yea: "30", Nay: "0"},
				{CandidateID: 2, Yea: "30", Nay: "0"},
				{CandidateID: 3, Yea: "30", Nay: "0"},
			},
			2,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c, err := leader(e, tc.candidates)
			if err != nil {
				t.Fatal(err)
			}
			var got uint64
			if c != nil {
				got = c.CandidateID
			}
			if got != tc.want {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestNewSettings(t *testing.T) {
	var tests = []struct {
		name     string
		settings []backend.PluginSetting
		want     election.ErrorCodeT
	}{
		{
			"quorum above support",
			[]backend.PluginSetting{
				{Key: election.SettingKeySupportRequired, Value: "300000000000000000"},
				{Key: election.SettingKeyMinAcceptQuorum, Value: "400000000000000000"},
			},
			election.ErrorCodeInitPcts,
		},
		{
			"support too big",
			[]backend.PluginSetting{
				{Key: election.SettingKeySupportRequired, Value: "1000000000000000000"},
			},
			election.ErrorCodeInitSupportTooBig,
		},
		{
			"valid",
			[]backend.PluginSetting{
				{Key: election.SettingKeySupportRequired, Value: "600000000000000000"},
				{Key: election.SettingKeyVoteTime, Value: "60"},
			},
			election.ErrorCodeInvalid,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p, err := New(nil, tc.settings, nil)
			if tc.want == election.ErrorCodeInvalid {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if p.supportRequired != election.Pct16(60) || p.voteTime != 60 {
					t.Fatalf("settings not applied: %v %v",
						p.supportRequired, p.voteTime)
				}
				return
			}
			var pe backend.PluginError
			if !errors.As(err, &pe) {
				t.Fatalf("got err %v, want a plugin error", err)
			}
			if pe.ErrorCode != uint32(tc.want) {
				t.Fatalf("got %v, want %v", pe.ErrorReason,
					election.ErrorCodes[tc.want])
			}
		})
	}
}

func TestNewSettingsInvalid(t *testing.T) {
	_, err := New(nil, []backend.PluginSetting{
		{Key: "bogus", Value: "1"},
	}, nil)
	if err == nil {
		t.Fatalf("expected error")
	}
	for _, vt := range []string{"0", "-1", "3153600001",
		"9223372036854775807"} {
		_, err = New(nil, []backend.PluginSetting{
			{Key: election.SettingKeyVoteTime, Value: vt},
		}, nil)
		if err == nil {
			t.Fatalf("votetime %v: expected error", vt)
		}
	}

	_, err = New(nil, []backend.PluginSetting{
		{Key: election.SettingKeyVoteTime, Value: "3153600000"},
	}, nil)
	if err != nil {
		t.Fatalf("max votetime: %v", err)
	}
}

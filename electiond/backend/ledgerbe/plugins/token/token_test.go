// Copyright (c) 2022 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package token

import (
	"testing"

	"github.com/tokenvote/tokenvote/electiond/backend"
	"github.com/tokenvote/tokenvote/electiond/plugins/token"
)

func TestParseAmount(t *testing.T) {
	var tests = []struct {
		amount string
		valid  bool
	}{
		{"", false},
		{"0", false},
		{"-1", false},
		{"+1", false},
		{"1.5", false},
		{"1e18", false},
		{"1", true},
		{"2600000000000000000000000000", true},
	}
	for _, tc := range tests {
		_, err := parseAmount(tc.amount)
		if (err == nil) != tc.valid {
			t.Errorf("%q: got err %v, want valid %v", tc.amount, err, tc.valid)
		}
	}
}

func TestNewSettings(t *testing.T) {
	p, err := New([]backend.PluginSetting{
		{Key: token.SettingKeyDecimals, Value: "2"},
		{Key: token.SettingKeyMaxAccountTokens, Value: "500"},
		{Key: token.SettingKeyTransfersEnabled, Value: "false"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if p.decimals != 2 || p.transfersEnabled ||
		p.maxAccountTokens.String() != "500" {
		t.Fatalf("settings not applied: %+v", p)
	}

	var invalid = []backend.PluginSetting{
		{Key: token.SettingKeyDecimals, Value: "78"},
		{Key: token.SettingKeyDecimals, Value: "x"},
		{Key: token.SettingKeyMaxAccountTokens, Value: "-1"},
		{Key: token.SettingKeyTransfersEnabled, Value: "maybe"},
		{Key: "bogus", Value: "1"},
	}
	for _, v := range invalid {
		_, err := New([]backend.PluginSetting{v})
		if err == nil {
			t.Errorf("%v=%v: expected error", v.Key, v.Value)
		}
	}
}

// Copyright (c) 2022 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package ledgerbe

import (
	"fmt"
	"math/big"
	"testing"

	"github.com/go-test/deep"
	"github.com/tokenvote/tokenvote/electiond/api/v1/identity"
	"github.com/tokenvote/tokenvote/electiond/backend"
	tkplugin "github.com/tokenvote/tokenvote/electiond/plugins/token"
)

// bigExp returns x * 10^y as a base 10 string.
func bigExp(x int64, y uint32) string {
	e := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(y)), nil)
	return e.Mul(e, big.NewInt(x)).String()
}

func newTransfer(from *identity.FullIdentity, to, amount, nonce string) tkplugin.Transfer {
	f := from.Public.String()
	return tkplugin.Transfer{
		From:      f,
		To:        to,
		Amount:    amount,
		Nonce:     nonce,
		Signature: from.SignHex(tkplugin.TransferMsg(f, to, amount, nonce)),
	}
}

func transfer(t *testing.T, l *ledgerBackend, tr tkplugin.Transfer) (*tkplugin.TransferReply, error) {
	t.Helper()

	r, err := l.PluginWrite(tkplugin.PluginID, tkplugin.CmdTransfer,
		encode(t, tr), false)
	if err != nil {
		return nil, err
	}
	var reply tkplugin.TransferReply
	decode(t, r.Reply, &reply)
	return &reply, nil
}

func balance(t *testing.T, l *ledgerBackend, holder string) string {
	t.Helper()

	r, err := l.PluginRead(tkplugin.PluginID, tkplugin.CmdBalance,
		encode(t, tkplugin.Balance{Holder: holder}))
	if err != nil {
		t.Fatal(err)
	}
	var br tkplugin.BalanceReply
	decode(t, r, &br)
	return br.Balance
}

func balanceAtHeight(t *testing.T, l *ledgerBackend, holder string, height uint64) string {
	t.Helper()

	r, err := l.PluginRead(tkplugin.PluginID, tkplugin.CmdBalanceAt,
		encode(t, tkplugin.BalanceAt{Holder: holder, Height: height}))
	if err != nil {
		t.Fatal(err)
	}
	var br tkplugin.BalanceAtReply
	decode(t, r, &br)
	return br.Balance
}

func TestTokenDecimals(t *testing.T) {
	for _, decimals := range []uint32{0, 2, 18, 26} {
		t.Run(fmt.Sprintf("decimals %v", decimals), func(t *testing.T) {
			clock := NewTestClock(testEpoch)
			l := NewTestLedger(t, clock, []backend.PluginSetting{
				{
					Key:   tkplugin.SettingKeyDecimals,
					Value: fmt.Sprintf("%v", decimals),
				},
			}, nil)
			alice := newIdentity(t)
			bob := newIdentity(t).Public.String()

			generate(t, l, alice.Public.String(), bigExp(20, decimals)) // Block 1
			generate(t, l, bob, bigExp(29, decimals))                   // Block 2

			reply, err := transfer(t, l, newTransfer(alice, bob,
				bigExp(5, decimals), newNonce(t))) // Block 3
			if err != nil {
				t.Fatal(err)
			}
			if reply.FromBalance != bigExp(15, decimals) ||
				reply.ToBalance != bigExp(34, decimals) {
				t.Fatalf("got %v %v", reply.FromBalance, reply.ToBalance)
			}

			// Historical balances are unaffected by later writes
			var tests = []struct {
				height uint64
				alice  string
				bob    string
			}{
				{0, "0", "0"},
				{1, bigExp(20, decimals), "0"},
				{2, bigExp(20, decimals), bigExp(29, decimals)},
				{3, bigExp(15, decimals), bigExp(34, decimals)},
			}
			for _, tc := range tests {
				a := balanceAtHeight(t, l, alice.Public.String(), tc.height)
				b := balanceAtHeight(t, l, bob, tc.height)
				if a != tc.alice || b != tc.bob {
					t.Errorf("height %v: got %v %v, want %v %v",
						tc.height, a, b, tc.alice, tc.bob)
				}
			}

			r, err := l.PluginRead(tkplugin.PluginID, tkplugin.CmdTotalSupplyAt,
				encode(t, tkplugin.TotalSupplyAt{Height: 1}))
			if err != nil {
				t.Fatal(err)
			}
			var ts tkplugin.TotalSupplyAtReply
			decode(t, r, &ts)
			if ts.TotalSupply != bigExp(20, decimals) {
				t.Fatalf("total supply got %v", ts.TotalSupply)
			}
		})
	}
}

func TestTokenTransferErrors(t *testing.T) {
	clock := NewTestClock(testEpoch)
	l := NewTestLedger(t, clock, []backend.PluginSetting{
		{
			Key:   tkplugin.SettingKeyMaxAccountTokens,
			Value: "100",
		},
	}, nil)
	alice := newIdentity(t)
	bob := newIdentity(t)
	generate(t, l, alice.Public.String(), "50")
	generate(t, l, bob.Public.String(), "90")

	replayed := newTransfer(alice, bob.Public.String(), "1", newNonce(t))
	_, err := transfer(t, l, replayed)
	if err != nil {
		t.Fatal(err)
	}

	badSig := newTransfer(alice, bob.Public.String(), "1", newNonce(t))
	badSig.Amount = "2"

	var tests = []struct {
		name string
		tr   tkplugin.Transfer
		want string
	}{
		{
			"replayed",
			replayed,
			"ERROR_SIGNATURE_REPLAYED",
		},
		{
			"bad signature",
			badSig,
			"ERROR_SIGNATURE_INVALID",
		},
		{
			"invalid amount",
			newTransfer(alice, bob.Public.String(), "-1", newNonce(t)),
			"ERROR_INVALID_AMOUNT",
		},
		{
			"zero amount",
			newTransfer(alice, bob.Public.String(), "0", newNonce(t)),
			"ERROR_INVALID_AMOUNT",
		},
		{
			"invalid recipient",
			newTransfer(alice, "abcd", "1", newNonce(t)),
			"ERROR_PUBLIC_KEY_INVALID",
		},
		{
			"insufficient balance",
			newTransfer(alice, bob.Public.String(), "50", newNonce(t)),
			"ERROR_INSUFFICIENT_BALANCE",
		},
		{
			"max account tokens",
			newTransfer(alice, bob.Public.String(), "10", newNonce(t)),
			"ERROR_MAX_ACCOUNT_TOKENS",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := transfer(t, l, tc.tr)
			if errorReason(err) != tc.want {
				t.Fatalf("got err %v, want %v", err, tc.want)
			}
		})
	}

	// The failed writes did not change any balance
	if b := balance(t, l, alice.Public.String()); b != "49" {
		t.Fatalf("alice balance got %v, want 49", b)
	}
	if b := balance(t, l, bob.Public.String()); b != "91" {
		t.Fatalf("bob balance got %v, want 91", b)
	}
}

func TestTokenTransferResplit(t *testing.T) {
	clock := NewTestClock(testEpoch)
	l := NewTestLedger(t, clock, nil, nil)
	alice := newIdentity(t)
	bob := newIdentity(t).Public.String()
	generate(t, l, alice.Public.String(), "50")

	// Moving the leading nonce digit into the amount must not produce a
	// transfer that verifies under the original signature.
	tr := newTransfer(alice, bob, "1", "5x")
	tr.Amount = "15"
	tr.Nonce = "x"
	_, err := transfer(t, l, tr)
	if errorReason(err) != "ERROR_SIGNATURE_INVALID" {
		t.Fatalf("got err %v, want ERROR_SIGNATURE_INVALID", err)
	}
	if b := balance(t, l, bob); b != "0" {
		t.Fatalf("bob balance got %v, want 0", b)
	}
}

func TestTokenTransfersDisabled(t *testing.T) {
	clock := NewTestClock(testEpoch)
	l := NewTestLedger(t, clock, []backend.PluginSetting{
		{
			Key:   tkplugin.SettingKeyTransfersEnabled,
			Value: "false",
		},
	}, nil)
	alice := newIdentity(t)
	generate(t, l, alice.Public.String(), "50")

	_, err := transfer(t, l, newTransfer(alice,
		newIdentity(t).Public.String(), "1", newNonce(t)))
	if errorReason(err) != "ERROR_TRANSFERS_DISABLED" {
		t.Fatalf("got err %v", err)
	}
}

func TestTokenBalanceAtFuture(t *testing.T) {
	clock := NewTestClock(testEpoch)
	l := NewTestLedger(t, clock, nil, nil)

	_, err := l.PluginRead(tkplugin.PluginID, tkplugin.CmdBalanceAt,
		encode(t, tkplugin.BalanceAt{
			Holder: newIdentity(t).Public.String(),
			Height: 1,
		}))
	if errorReason(err) != "ERROR_BLOCK_INVALID" {
		t.Fatalf("got err %v", err)
	}
}

func TestTokenHoldersInfo(t *testing.T) {
	clock := NewTestClock(testEpoch)
	l := NewTestLedger(t, clock, nil, nil)
	alice := newIdentity(t).Public.String()
	bob := newIdentity(t).Public.String()
	carol := newIdentity(t).Public.String()

	generate(t, l, alice, "20")
	generate(t, l, bob, "51")
	generate(t, l, carol, "5")
	_, err := l.PluginWrite(tkplugin.PluginID, tkplugin.CmdDestroy,
		encode(t, tkplugin.Destroy{Holder: carol, Amount: "5"}), true)
	if err != nil {
		t.Fatal(err)
	}

	r, err := l.PluginRead(tkplugin.PluginID, tkplugin.CmdHolders, "{}")
	if err != nil {
		t.Fatal(err)
	}
	var hr tkplugin.HoldersReply
	decode(t, r, &hr)
	want := []tkplugin.Holder{
		{Address: bob, Balance: "51"},
		{Address: alice, Balance: "20"},
	}
	if diff := deep.Equal(hr.Holders, want); diff != nil {
		t.Fatal(diff)
	}

	r, err = l.PluginRead(tkplugin.PluginID, tkplugin.CmdInfo, "{}")
	if err != nil {
		t.Fatal(err)
	}
	var ir tkplugin.InfoReply
	decode(t, r, &ir)
	wantInfo := tkplugin.InfoReply{
		Name:             tkplugin.SettingName,
		Symbol:           tkplugin.SettingSymbol,
		Decimals:         tkplugin.SettingDecimals,
		TotalSupply:      "71",
		TransfersEnabled: true,
		MaxAccountTokens: "0",
		Holders:          2,
	}
	if diff := deep.Equal(ir, wantInfo); diff != nil {
		t.Fatal(diff)
	}
}

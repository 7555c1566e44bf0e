// Copyright (c) 2022 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package token

import (
	"encoding/json"
	"math/big"
	"sort"

	"github.com/pkg/errors"
	"github.com/tokenvote/tokenvote/electiond/api/v1/identity"
	"github.com/tokenvote/tokenvote/electiond/backend"
	"github.com/tokenvote/tokenvote/electiond/backend/ledgerbe/plugins"
	"github.com/tokenvote/tokenvote/electiond/backend/ledgerbe/store"
	"github.com/tokenvote/tokenvote/electiond/plugins/token"
	"github.com/tokenvote/tokenvote/util"
)

const (
	// Blob entry data descriptors
	dataDescriptorCheckpoints = "checkpoints-v1"
	dataDescriptorHolders     = "holders-v1"

	// Key prefixes and keys
	keyPrefixBalance   = "balance-"
	keyPrefixSignature = "signature-"
	keySupply          = "supply"
	keyHolders         = "holders"
)

// holderIndex contains every address that has ever held tokens, sorted.
type holderIndex struct {
	Addresses []string `json:"addresses"`
}

func balanceKey(address string) string {
	return keyPrefixBalance + address
}

func signatureKey(signature string) string {
	return keyPrefixSignature + signature
}

// tokenError returns a user error for the provided error code.
func tokenError(c token.ErrorCodeT, context string) error {
	return backend.PluginError{
		PluginID:     token.PluginID,
		ErrorCode:    uint32(c),
		ErrorReason:  token.ErrorCodes[c],
		ErrorContext: context,
	}
}

// decodePayload decodes a JSON command payload.
func decodePayload(payload string, v interface{}) error {
	err := json.Unmarshal([]byte(payload), v)
	if err != nil {
		return tokenError(token.ErrorCodePayloadInvalid, err.Error())
	}
	return nil
}

// encodeReply returns the JSON encoded reply.
func encodeReply(v interface{}) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// verifyAddress verifies that the address is the canonical hex encoding of a
// public key.
func verifyAddress(address string) error {
	pi, err := identity.PublicIdentityFromString(address)
	if err != nil {
		return tokenError(token.ErrorCodePublicKeyInvalid, err.Error())
	}
	if pi.String() != address {
		return tokenError(token.ErrorCodePublicKeyInvalid,
			"address must be lowercase hex")
	}
	return nil
}

// parseAmount parses a strictly positive base 10 amount.
func parseAmount(s string) (*big.Int, error) {
	if s == "" {
		return nil, tokenError(token.ErrorCodeAmountInvalid, "empty amount")
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return nil, tokenError(token.ErrorCodeAmountInvalid,
				"amount must be a base 10 integer")
		}
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok || v.Sign() <= 0 {
		return nil, tokenError(token.ErrorCodeAmountInvalid,
			"amount must be positive")
	}
	return v, nil
}

// verifySignature verifies the signature of a holder and that the signature
// has not been used before.
func verifySignature(l plugins.LedgerClient, signature, address, msg string) error {
	err := util.VerifySignature(signature, address, msg)
	if err != nil {
		var se util.SignatureError
		if errors.As(err, &se) {
			c := token.ErrorCodeSignatureInvalid
			if se.ErrorCode == util.ErrorCodePublicKeyInvalid {
				c = token.ErrorCodePublicKeyInvalid
			}
			return tokenError(c, se.ErrorContext)
		}
		return err
	}

	key := signatureKey(signature)
	blobs, err := l.Get([]string{key})
	if err != nil {
		return err
	}
	if _, ok := blobs[key]; ok {
		return tokenError(token.ErrorCodeSignatureReplayed, "")
	}
	return l.Put(map[string][]byte{key: []byte(address)}, false)
}

// history returns the checkpoints saved under the provided key.
func history(l plugins.LedgerClient, key string) (checkpoints, error) {
	var c checkpoints
	_, err := plugins.GetStruct(l, key, &c)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// histories returns the checkpoints of the provided addresses.
func histories(l plugins.LedgerClient, addresses []string) (map[string]checkpoints, error) {
	keys := make([]string, 0, len(addresses))
	for _, v := range addresses {
		keys = append(keys, balanceKey(v))
	}
	blobs, err := l.Get(keys)
	if err != nil {
		return nil, err
	}
	h := make(map[string]checkpoints, len(addresses))
	for _, v := range addresses {
		b, ok := blobs[balanceKey(v)]
		if !ok {
			continue
		}
		var c checkpoints
		err := store.DecodeStruct(b, &c)
		if err != nil {
			return nil, errors.Wrapf(err, "decode balance %v", v)
		}
		h[v] = c
	}
	return h, nil
}

// holders returns the holder index.
func holders(l plugins.LedgerClient) (*holderIndex, error) {
	var hi holderIndex
	_, err := plugins.GetStruct(l, keyHolders, &hi)
	if err != nil {
		return nil, err
	}
	return &hi, nil
}

// addHolder adds the address to the holder index if it is not already
// present.
func addHolder(l plugins.LedgerClient, address string) error {
	hi, err := holders(l)
	if err != nil {
		return err
	}
	i := sort.SearchStrings(hi.Addresses, address)
	if i < len(hi.Addresses) && hi.Addresses[i] == address {
		return nil
	}
	hi.Addresses = append(hi.Addresses, "")
	copy(hi.Addresses[i+1:], hi.Addresses[i:])
	hi.Addresses[i] = address
	return plugins.PutStruct(l, keyHolders, dataDescriptorHolders, hi, false)
}

// adjust adds delta, which may be negative, to the history saved under the
// provided key and returns the new value. The new value is recorded at the
// height of the block that is being built.
func (p *tokenPlugin) adjust(l plugins.LedgerClient, key string, delta *big.Int) (*big.Int, error) {
	c, err := history(l, key)
	if err != nil {
		return nil, err
	}
	v, err := c.latest()
	if err != nil {
		return nil, err
	}
	v.Add(v, delta)
	if v.Sign() < 0 {
		return nil, tokenError(token.ErrorCodeBalanceInsufficient, "")
	}
	c = c.update(l.BlockHeight(), v)
	err = plugins.PutStruct(l, key, dataDescriptorCheckpoints, c, false)
	if err != nil {
		return nil, err
	}
	return v, nil
}

// credit increases the balance of a holder.
func (p *tokenPlugin) credit(l plugins.LedgerClient, address string, amount *big.Int) (*big.Int, error) {
	balance, err := p.adjust(l, balanceKey(address), amount)
	if err != nil {
		return nil, err
	}
	if p.maxAccountTokens != nil && balance.Cmp(p.maxAccountTokens) > 0 {
		return nil, tokenError(token.ErrorCodeMaxAccountTokens,
			p.maxAccountTokens.String())
	}
	err = addHolder(l, address)
	if err != nil {
		return nil, err
	}
	return balance, nil
}

// debit decreases the balance of a holder.
func (p *tokenPlugin) debit(l plugins.LedgerClient, address string, amount *big.Int) (*big.Int, error) {
	return p.adjust(l, balanceKey(address), new(big.Int).Neg(amount))
}

// emitTransfer emits a Transfer event.
func emitTransfer(l plugins.LedgerClient, from, to string, amount *big.Int) error {
	return l.Emit(token.EventTransfer, token.TransferEvent{
		From:   from,
		To:     to,
		Amount: amount.String(),
	})
}

// cmdGenerate creates tokens for a holder.
func (p *tokenPlugin) cmdGenerate(l plugins.LedgerClient, payload string) (string, error) {
	var g token.Generate
	err := decodePayload(payload, &g)
	if err != nil {
		return "", err
	}
	err = verifyAddress(g.Holder)
	if err != nil {
		return "", err
	}
	amount, err := parseAmount(g.Amount)
	if err != nil {
		return "", err
	}

	balance, err := p.credit(l, g.Holder, amount)
	if err != nil {
		return "", err
	}
	supply, err := p.adjust(l, keySupply, amount)
	if err != nil {
		return "", err
	}
	err = emitTransfer(l, "", g.Holder, amount)
	if err != nil {
		return "", err
	}

	log.Debugf("Generated %v tokens for %v", amount, g.Holder)

	return encodeReply(token.GenerateReply{
		Balance:     balance.String(),
		TotalSupply: supply.String(),
	})
}

// cmdDestroy destroys tokens of a holder.
func (p *tokenPlugin) cmdDestroy(l plugins.LedgerClient, payload string) (string, error) {
	var d token.Destroy
	err := decodePayload(payload, &d)
	if err != nil {
		return "", err
	}
	err = verifyAddress(d.Holder)
	if err != nil {
		return "", err
	}
	amount, err := parseAmount(d.Amount)
	if err != nil {
		return "", err
	}

	balance, err := p.debit(l, d.Holder, amount)
	if err != nil {
		return "", err
	}
	supply, err := p.adjust(l, keySupply, new(big.Int).Neg(amount))
	if err != nil {
		return "", err
	}
	err = emitTransfer(l, d.Holder, "", amount)
	if err != nil {
		return "", err
	}

	log.Debugf("Destroyed %v tokens of %v", amount, d.Holder)

	return encodeReply(token.DestroyReply{
		Balance:     balance.String(),
		TotalSupply: supply.String(),
	})
}

// cmdTransfer transfers tokens between holders.
func (p *tokenPlugin) cmdTransfer(l plugins.LedgerClient, payload string) (string, error) {
	var t token.Transfer
	err := decodePayload(payload, &t)
	if err != nil {
		return "", err
	}
	if !p.transfersEnabled {
		return "", tokenError(token.ErrorCodeTransfersDisabled, "")
	}
	err = verifyAddress(t.From)
	if err != nil {
		return "", err
	}
	err = verifyAddress(t.To)
	if err != nil {
		return "", err
	}
	amount, err := parseAmount(t.Amount)
	if err != nil {
		return "", err
	}
	msg := token.TransferMsg(t.From, t.To, t.Amount, t.Nonce)
	err = verifySignature(l, t.Signature, t.From, msg)
	if err != nil {
		return "", err
	}

	fromBalance, err := p.debit(l, t.From, amount)
	if err != nil {
		return "", err
	}
	toBalance, err := p.credit(l, t.To, amount)
	if err != nil {
		return "", err
	}
	if t.From == t.To {
		fromBalance = toBalance
	}
	err = emitTransfer(l, t.From, t.To, amount)
	if err != nil {
		return "", err
	}

	log.Debugf("Transferred %v tokens from %v to %v", amount, t.From, t.To)

	return encodeReply(token.TransferReply{
		FromBalance: fromBalance.String(),
		ToBalance:   toBalance.String(),
	})
}

// cmdBalance returns the current balance of a holder.
func (p *tokenPlugin) cmdBalance(l plugins.LedgerClient, payload string) (string, error) {
	var b token.Balance
	err := decodePayload(payload, &b)
	if err != nil {
		return "", err
	}
	err = verifyAddress(b.Holder)
	if err != nil {
		return "", err
	}
	c, err := history(l, balanceKey(b.Holder))
	if err != nil {
		return "", err
	}
	v, err := c.latest()
	if err != nil {
		return "", err
	}
	return encodeReply(token.BalanceReply{
		Balance: v.String(),
	})
}

// cmdBalanceAt returns the balance of a holder at a block height.
func (p *tokenPlugin) cmdBalanceAt(l plugins.LedgerClient, payload string) (string, error) {
	var b token.BalanceAt
	err := decodePayload(payload, &b)
	if err != nil {
		return "", err
	}
	err = verifyAddress(b.Holder)
	if err != nil {
		return "", err
	}
	if b.Height > l.BlockHeight() {
		return "", tokenError(token.ErrorCodeBlockInvalid,
			"block height is in the future")
	}
	c, err := history(l, balanceKey(b.Holder))
	if err != nil {
		return "", err
	}
	v, err := c.valueAt(b.Height)
	if err != nil {
		return "", err
	}
	return encodeReply(token.BalanceAtReply{
		Balance: v.String(),
	})
}

// cmdTotalSupplyAt returns the total supply at a block height.
func (p *tokenPlugin) cmdTotalSupplyAt(l plugins.LedgerClient, payload string) (string, error) {
	var ts token.TotalSupplyAt
	err := decodePayload(payload, &ts)
	if err != nil {
		return "", err
	}
	if ts.Height > l.BlockHeight() {
		return "", tokenError(token.ErrorCodeBlockInvalid,
			"block height is in the future")
	}
	c, err := history(l, keySupply)
	if err != nil {
		return "", err
	}
	v, err := c.valueAt(ts.Height)
	if err != nil {
		return "", err
	}
	return encodeReply(token.TotalSupplyAtReply{
		TotalSupply: v.String(),
	})
}

// currentHolders returns all holders with a non-zero balance, sorted by
// balance from largest to smallest.
func currentHolders(l plugins.LedgerClient) ([]token.Holder, error) {
	hi, err := holders(l)
	if err != nil {
		return nil, err
	}
	h, err := histories(l, hi.Addresses)
	if err != nil {
		return nil, err
	}

	type balance struct {
		address string
		value   *big.Int
	}
	balances := make([]balance, 0, len(h))
	for _, v := range hi.Addresses {
		value, err := h[v].latest()
		if err != nil {
			return nil, err
		}
		if value.Sign() == 0 {
			continue
		}
		balances = append(balances, balance{address: v, value: value})
	}
	sort.SliceStable(balances, func(i, j int) bool {
		// Addresses are already sorted
		return balances[i].value.Cmp(balances[j].value) > 0
	})

	reply := make([]token.Holder, 0, len(balances))
	for _, v := range balances {
		reply = append(reply, token.Holder{
			Address: v.address,
			Balance: v.value.String(),
		})
	}
	return reply, nil
}

// cmdHolders returns all holders with a non-zero balance.
func (p *tokenPlugin) cmdHolders(l plugins.LedgerClient) (string, error) {
	h, err := currentHolders(l)
	if err != nil {
		return "", err
	}
	return encodeReply(token.HoldersReply{
		Holders: h,
	})
}

// cmdInfo returns the token details.
func (p *tokenPlugin) cmdInfo(l plugins.LedgerClient) (string, error) {
	c, err := history(l, keySupply)
	if err != nil {
		return "", err
	}
	supply, err := c.latest()
	if err != nil {
		return "", err
	}
	h, err := currentHolders(l)
	if err != nil {
		return "", err
	}
	max := "0"
	if p.maxAccountTokens != nil {
		max = p.maxAccountTokens.String()
	}
	return encodeReply(token.InfoReply{
		Name:             p.name,
		Symbol:           p.symbol,
		Decimals:         p.decimals,
		TotalSupply:      supply.String(),
		TransfersEnabled: p.transfersEnabled,
		MaxAccountTokens: max,
		Holders:          uint64(len(h)),
	})
}

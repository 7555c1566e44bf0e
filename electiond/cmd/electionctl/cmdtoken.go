// Copyright (c) 2022 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"fmt"

	"github.com/tokenvote/tokenvote/electiond/plugins/token"
)

// holderOrSelf returns the provided holder address or the address of the
// configured identity when it is empty.
func holderOrSelf(holder string) (string, error) {
	if holder != "" {
		return holder, nil
	}
	id, err := loadIdentity()
	if err != nil {
		return "", err
	}
	return id.Public.String(), nil
}

// cmdGenerate creates tokens for a holder.
type cmdGenerate struct {
	Args struct {
		Holder string `positional-arg-name:"holder"`
		Amount string `positional-arg-name:"amount"`
	} `positional-args:"true" required:"true"`
}

// Execute executes the cmdGenerate command.
//
// This function satisfies the go-flags Commander interface.
func (c *cmdGenerate) Execute(args []string) error {
	ec, err := newClient()
	if err != nil {
		return err
	}
	gr, b, err := ec.TokenGenerate(ctx(), token.Generate{
		Holder: c.Args.Holder,
		Amount: c.Args.Amount,
	})
	if err != nil {
		return err
	}
	return printWrite(gr, b)
}

// cmdDestroy destroys tokens of a holder.
type cmdDestroy struct {
	Args struct {
		Holder string `positional-arg-name:"holder"`
		Amount string `positional-arg-name:"amount"`
	} `positional-args:"true" required:"true"`
}

// Execute executes the cmdDestroy command.
//
// This function satisfies the go-flags Commander interface.
func (c *cmdDestroy) Execute(args []string) error {
	ec, err := newClient()
	if err != nil {
		return err
	}
	dr, b, err := ec.TokenDestroy(ctx(), token.Destroy{
		Holder: c.Args.Holder,
		Amount: c.Args.Amount,
	})
	if err != nil {
		return err
	}
	return printWrite(dr, b)
}

// cmdTransfer transfers tokens from the configured identity to a holder.
type cmdTransfer struct {
	Args struct {
		To     string `positional-arg-name:"to"`
		Amount string `positional-arg-name:"amount"`
	} `positional-args:"true" required:"true"`
}

// Execute executes the cmdTransfer command.
//
// This function satisfies the go-flags Commander interface.
func (c *cmdTransfer) Execute(args []string) error {
	id, err := loadIdentity()
	if err != nil {
		return err
	}
	nonce, err := newNonce()
	if err != nil {
		return err
	}
	from := id.Public.String()
	msg := token.TransferMsg(from, c.Args.To, c.Args.Amount, nonce)

	ec, err := newClient()
	if err != nil {
		return err
	}
	tr, b, err := ec.TokenTransfer(ctx(), token.Transfer{
		From:      from,
		To:        c.Args.To,
		Amount:    c.Args.Amount,
		Nonce:     nonce,
		Signature: id.SignHex(msg),
	})
	if err != nil {
		return err
	}
	return printWrite(tr, b)
}

// cmdBalance retrieves the current balance of a holder.
type cmdBalance struct {
	Args struct {
		Holder string `positional-arg-name:"holder"`
	} `positional-args:"true" optional:"true"`
}

// Execute executes the cmdBalance command.
//
// This function satisfies the go-flags Commander interface.
func (c *cmdBalance) Execute(args []string) error {
	holder, err := holderOrSelf(c.Args.Holder)
	if err != nil {
		return err
	}
	ec, err := newClient()
	if err != nil {
		return err
	}
	balance, err := ec.TokenBalance(ctx(), holder)
	if err != nil {
		return err
	}
	fmt.Printf("%v\n", balance)
	return nil
}

// cmdBalanceAt retrieves the balance of a holder at a block height.
type cmdBalanceAt struct {
	Args struct {
		Holder string `positional-arg-name:"holder"`
		Height uint64 `positional-arg-name:"height"`
	} `positional-args:"true" required:"true"`
}

// Execute executes the cmdBalanceAt command.
//
// This function satisfies the go-flags Commander interface.
func (c *cmdBalanceAt) Execute(args []string) error {
	ec, err := newClient()
	if err != nil {
		return err
	}
	balance, err := ec.TokenBalanceAt(ctx(), c.Args.Holder, c.Args.Height)
	if err != nil {
		return err
	}
	fmt.Printf("%v\n", balance)
	return nil
}

// cmdTotalSupplyAt retrieves the total supply at a block height.
type cmdTotalSupplyAt struct {
	Args struct {
		Height uint64 `positional-arg-name:"height"`
	} `positional-args:"true" required:"true"`
}

// Execute executes the cmdTotalSupplyAt command.
//
// This function satisfies the go-flags Commander interface.
func (c *cmdTotalSupplyAt) Execute(args []string) error {
	ec, err := newClient()
	if err != nil {
		return err
	}
	supply, err := ec.TokenTotalSupplyAt(ctx(), c.Args.Height)
	if err != nil {
		return err
	}
	fmt.Printf("%v\n", supply)
	return nil
}

// cmdHolders retrieves all token holders.
type cmdHolders struct{}

// Execute executes the cmdHolders command.
//
// This function satisfies the go-flags Commander interface.
func (c *cmdHolders) Execute(args []string) error {
	ec, err := newClient()
	if err != nil {
		return err
	}
	holders, err := ec.TokenHolders(ctx())
	if err != nil {
		return err
	}
	return printReply(holders)
}

// cmdTokenInfo retrieves the token details.
type cmdTokenInfo struct{}

// Execute executes the cmdTokenInfo command.
//
// This function satisfies the go-flags Commander interface.
func (c *cmdTokenInfo) Execute(args []string) error {
	ec, err := newClient()
	if err != nil {
		return err
	}
	ir, err := ec.TokenInfo(ctx())
	if err != nil {
		return err
	}
	return printReply(ir)
}

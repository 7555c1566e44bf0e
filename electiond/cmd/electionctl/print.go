// Copyright (c) 2020-2022 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"encoding/json"
	"fmt"

	"github.com/davecgh/go-spew/spew"
	v1 "github.com/tokenvote/tokenvote/electiond/api/v1"
)

// printReply prints a command reply. Raw JSON is printed when requested and
// a full dump of the reply in verbose mode.
func printReply(v interface{}) error {
	switch {
	case cfg.Verbose:
		spew.Dump(v)
		return nil
	case cfg.RawJSON:
		b, err := json.Marshal(v)
		if err != nil {
			return err
		}
		fmt.Printf("%s\n", b)
		return nil
	}
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Printf("%s\n", b)
	return nil
}

// writeResult is printed for every plugin write.
type writeResult struct {
	Reply interface{} `json:"reply"`
	Block uint64      `json:"block"`
	Hash  string      `json:"hash"`
}

// printWrite prints the reply of a plugin write along with the block that
// it was committed in.
func printWrite(reply interface{}, b *v1.Block) error {
	if cfg.Verbose {
		spew.Dump(reply, b)
		return nil
	}
	return printReply(writeResult{
		Reply: reply,
		Block: b.Height,
		Hash:  b.Hash,
	})
}

// Copyright (c) 2022 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package token

import (
	"math/big"
	"sort"

	"github.com/pkg/errors"
)

// checkpoint records the value of a balance starting at a block height. The
// value holds until the next checkpoint.
type checkpoint struct {
	FromBlock uint64 `json:"fromblock"`
	Value     string `json:"value"` // Base 10 integer
}

// checkpoints is the ordered value history of a single balance. Heights are
// strictly increasing.
type checkpoints []checkpoint

// valueAt returns the value at the end of the provided block height.
func (c checkpoints) valueAt(height uint64) (*big.Int, error) {
	if len(c) == 0 || height < c[0].FromBlock {
		return new(big.Int), nil
	}

	// Shortcut for the current value
	i := len(c) - 1
	if height < c[i].FromBlock {
		// Find the first checkpoint that starts after the height.
		// The checkpoint before it holds the value.
		i = sort.Search(len(c), func(j int) bool {
			return c[j].FromBlock > height
		}) - 1
	}

	v, ok := new(big.Int).SetString(c[i].Value, 10)
	if !ok {
		return nil, errors.Errorf("invalid checkpoint value at %v: %v",
			c[i].FromBlock, c[i].Value)
	}
	return v, nil
}

// latest returns the current value.
func (c checkpoints) latest() (*big.Int, error) {
	if len(c) == 0 {
		return new(big.Int), nil
	}
	return c.valueAt(c[len(c)-1].FromBlock)
}

// update records a new value at the provided height. A checkpoint that
// already exists for the height is overwritten.
func (c checkpoints) update(height uint64, v *big.Int) checkpoints {
	if l := len(c); l > 0 && c[l-1].FromBlock == height {
		c[l-1].Value = v.String()
		return c
	}
	return append(c, checkpoint{
		FromBlock: height,
		Value:     v.String(),
	})
}

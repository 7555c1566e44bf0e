// Copyright (c) 2022 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package ledgerbe

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"
	"github.com/tokenvote/tokenvote/electiond/backend"
	"github.com/tokenvote/tokenvote/electiond/backend/ledgerbe/store"
	"github.com/tokenvote/tokenvote/util"
)

const (
	// Blob entry data descriptors
	dataDescriptorBlock = "block-v1"

	// Chain keys. Plugin keys are prefixed with keyPrefixPlugin so
	// they can not collide with the chain keys.
	keyChainHead      = "chain-head"
	keyPrefixBlock    = "chain-block-"
	keyPrefixPlugin   = "plugin-"
	keyFormatBlock    = keyPrefixBlock + "%020d"
	keyFormatPluginNS = keyPrefixPlugin + "%v-%v"
)

func blockKey(height uint64) string {
	return fmt.Sprintf(keyFormatBlock, height)
}

func pluginKey(pluginID, key string) string {
	return fmt.Sprintf(keyFormatPluginNS, pluginID, key)
}

// blockHash returns the hex encoded digest of the block. The hash field is
// not part of the digest.
func blockHash(b backend.Block) (string, error) {
	b.Hash = ""
	j, err := json.Marshal(b)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(util.Digest(j)), nil
}

// newBlock returns the block that follows the provided previous block. The
// timestamp never moves backwards.
func newBlock(prev backend.Block, now int64) backend.Block {
	if now < prev.Timestamp {
		now = prev.Timestamp
	}
	return backend.Block{
		Height:    prev.Height + 1,
		Timestamp: now,
		PrevHash:  prev.Hash,
	}
}

// genesisBlock returns the first block of the chain.
func genesisBlock(now int64) (*backend.Block, error) {
	b := backend.Block{
		Height:    0,
		Timestamp: now,
	}
	hash, err := blockHash(b)
	if err != nil {
		return nil, err
	}
	b.Hash = hash
	return &b, nil
}

// blockSave saves the block and makes it the chain head.
func blockSave(tx store.Tx, b backend.Block) error {
	be, err := store.EncodeStruct(dataDescriptorBlock, b)
	if err != nil {
		return err
	}
	return tx.Put(map[string][]byte{
		blockKey(b.Height): be,
		keyChainHead:       be,
	}, false)
}

// blockGet returns the block saved under the provided key.
func blockGet(g store.Getter, key string) (*backend.Block, error) {
	blobs, err := g.Get([]string{key})
	if err != nil {
		return nil, err
	}
	be, ok := blobs[key]
	if !ok {
		return nil, backend.ErrBlockNotFound
	}
	var b backend.Block
	err = store.DecodeStruct(be, &b)
	if err != nil {
		return nil, errors.Wrapf(err, "decode %v", key)
	}
	return &b, nil
}

// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package triedb

import (
	"fmt"

	"github.com/fantom-foundation/triestore/go/trie"
	"github.com/fantom-foundation/triestore/go/trie/node"
	"github.com/fantom-foundation/triestore/go/trie/path"
)

// Batch is a single-writer transaction obtained from Engine.Begin.
type Batch struct {
	engine *Engine
	inner  *trie.Batch
	done   bool
}

// Set inserts or overwrites key's value. key must be exactly KeyLength
// bytes; this is enforced by the type system ([KeyLength]byte) rather
// than a runtime check.
func (b *Batch) Set(key [KeyLength]byte, value []byte) error {
	return b.inner.Set(path.FromKey(key[:]), value)
}

// Remove deletes key, reporting whether it was present.
func (b *Batch) Remove(key [KeyLength]byte) (bool, error) {
	return b.inner.Remove(path.FromKey(key[:]))
}

// TryGet reads through the batch's current root (read-your-writes: a
// prior Set or Remove in this same batch is visible here).
func (b *Batch) TryGet(key [KeyLength]byte) ([]byte, bool, error) {
	return b.inner.TryGet(path.FromKey(key[:]))
}

// Root returns the batch's current root id.
func (b *Batch) Root() node.ID {
	return b.inner.Root()
}

// Commit applies mode's durability semantics and publishes the batch's
// final root id to the engine, releasing the single-writer slot so a new
// batch may be opened.
func (b *Batch) Commit(mode trie.CommitMode) error {
	if b.done {
		return fmt.Errorf("triedb: batch already committed or aborted")
	}
	root, err := b.inner.Commit(mode)
	b.release()
	if err != nil {
		return err
	}

	b.engine.mu.Lock()
	defer b.engine.mu.Unlock()
	b.engine.root = root
	switch mode {
	case trie.SealUpdatable:
		b.engine.log.sealed()
	case trie.ForceFlush:
		b.engine.log.sealed()
		b.engine.lastFlushTo = b.engine.store.NextID()
		b.engine.log.flushed(b.engine.lastFlushTo)
	}
	return nil
}

// Abort discards the batch without publishing its root: the engine's
// published root and any nodes it was already pointing at are unchanged.
// Nodes this batch allocated remain in the backing store (reclaiming them
// is the host database's job, same as any other abandoned-node cleanup;
// see spec section 1's "out of scope" list), but none of them become
// reachable from the engine's root.
func (b *Batch) Abort() {
	if b.done {
		return
	}
	b.release()
}

func (b *Batch) release() {
	b.done = true
	b.engine.mu.Lock()
	b.engine.batchOpen = false
	b.engine.mu.Unlock()
}

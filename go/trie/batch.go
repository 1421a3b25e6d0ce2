// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package trie

import (
	"fmt"

	"github.com/fantom-foundation/triestore/go/trie/node"
	"github.com/fantom-foundation/triestore/go/trie/path"
)

// CommitMode selects how much durability work Batch.Commit performs
// beyond publishing the batch's root.
type CommitMode int

const (
	// RootOnly copies the batch's root back to the caller; nothing else.
	RootOnly CommitMode = iota
	// SealUpdatable does the above, then seals the node store so that no
	// node allocated during this batch may be overwritten in place by a
	// future one.
	SealUpdatable
	// ForceFlush does the above, then forces the backing store to durably
	// persist every node allocated since the batch began.
	ForceFlush
)

func (m CommitMode) String() string {
	switch m {
	case RootOnly:
		return "RootOnly"
	case SealUpdatable:
		return "SealUpdatable"
	case ForceFlush:
		return "ForceFlush"
	default:
		return fmt.Sprintf("CommitMode(%d)", int(m))
	}
}

// Batch is a single-writer transaction against an Engine. It holds a
// mutable root id, initialized from the root passed to Begin; Set and
// Remove each compute a new root via the owning Engine, and later calls
// within the same batch observe earlier ones (read-your-writes).
type Batch struct {
	engine     *Engine
	root       node.ID
	flushSince node.ID
}

// Begin opens a batch over e, rooted at root (normally a caller's
// currently published root id). It pulls the store's update_from
// watermark forward if the store was sealed, so nodes allocated during
// this batch become eligible for in-place overwrite within it.
func (e *Engine) Begin(root node.ID) *Batch {
	e.store.EnsureUpdatable()
	return &Batch{engine: e, root: root, flushSince: e.store.NextID()}
}

// Root returns the batch's current root id, reflecting every Set/Remove
// applied so far.
func (b *Batch) Root() node.ID {
	return b.root
}

// Set inserts or overwrites key's value under the batch's root.
func (b *Batch) Set(key path.Path, value []byte) error {
	newRoot, err := b.engine.Insert(b.root, key, value)
	if err != nil {
		return err
	}
	b.root = newRoot
	return nil
}

// Remove deletes key from the batch's root, reporting whether it was
// present.
func (b *Batch) Remove(key path.Path) (bool, error) {
	newRoot, removed, err := b.engine.Remove(b.root, key)
	if err != nil {
		return false, err
	}
	b.root = newRoot
	return removed, nil
}

// TryGet reads through the batch's current root.
func (b *Batch) TryGet(key path.Path) ([]byte, bool, error) {
	return b.engine.TryGet(b.root, key)
}

// Commit applies mode's durability semantics and returns the batch's
// final root id, which the caller is responsible for publishing back as
// the new state (the trie engine itself has no notion of "the" current
// root; that bookkeeping belongs to the facade that owns this batch).
func (b *Batch) Commit(mode CommitMode) (node.ID, error) {
	switch mode {
	case RootOnly:
		return b.root, nil
	case SealUpdatable:
		b.engine.store.Seal()
		return b.root, nil
	case ForceFlush:
		b.engine.store.Seal()
		if err := b.engine.store.FlushFrom(b.flushSince); err != nil {
			return b.root, err
		}
		return b.root, nil
	default:
		return b.root, fmt.Errorf("trie: unknown commit mode %v", mode)
	}
}

// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package triedb wires go/store and go/trie behind the engine-facing
// API of a trie-backed key/value store: a single published root, a
// single-writer batch workflow, and Open/Close lifecycle management over
// a go/store/pagefile backing file.
package triedb

import (
	"fmt"
	"io"
	"sync"

	"github.com/fantom-foundation/triestore/go/common"
	"github.com/fantom-foundation/triestore/go/store"
	"github.com/fantom-foundation/triestore/go/store/pagefile"
	"github.com/fantom-foundation/triestore/go/trie"
	"github.com/fantom-foundation/triestore/go/trie/node"
	"github.com/fantom-foundation/triestore/go/trie/path"
)

// KeyLength is the fixed size of every key the engine accepts: a 32-byte
// account or storage-slot identifier.
const KeyLength = 32

// Engine is the top-level, single-writer facade: it owns the currently
// published root and the node store, and enforces that at most one Batch
// is open at a time.
type Engine struct {
	mu          sync.Mutex
	trie        *trie.Engine
	store       *store.Store
	backing     store.BackingStore
	root        node.ID
	lastFlushTo node.ID
	batchOpen   bool
	log         *logAdapter
}

// Open opens (creating if needed) a trie-backed engine at path, backed by
// a go/store/pagefile file. The tree starts empty if the file is new;
// re-opening an existing file does not by itself recover its root (the
// root id is the host database's bookkeeping, outside this module's
// scope per spec section 1) -- callers pass the root they last observed
// to Begin.
func Open(path string, opts ...Option) (*Engine, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Hash != Keccak256 {
		return nil, fmt.Errorf("%w: unsupported hash algorithm %d", common.InvalidArgument, cfg.Hash)
	}
	f, err := pagefile.OpenWithCache(path, cfg.CachePages)
	if err != nil {
		return nil, err
	}
	return newEngine(f, cfg), nil
}

// New wraps an already-open store.BackingStore (a pagefile.File, a test
// fake, or a host database's own segment implementation) instead of
// opening a pagefile directly.
func New(backing store.BackingStore, opts ...Option) (*Engine, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Hash != Keccak256 {
		return nil, fmt.Errorf("%w: unsupported hash algorithm %d", common.InvalidArgument, cfg.Hash)
	}
	return newEngine(backing, cfg), nil
}

func newEngine(backing store.BackingStore, cfg Config) *Engine {
	s := store.New(backing)
	return &Engine{
		trie:    trie.New(s),
		store:   s,
		backing: backing,
		log:     &logAdapter{l: cfg.Logger},
	}
}

// Close releases the backing store, if it supports being closed (a
// pagefile.File does; a caller-supplied fake may not).
func (e *Engine) Close() error {
	if closer, ok := e.backing.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// Root returns the engine's currently published root id.
func (e *Engine) Root() node.ID {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.root
}

// RootHash computes the Keccak-256 Merkle root of the currently published
// tree.
func (e *Engine) RootHash() (node.Hash, error) {
	e.mu.Lock()
	root := e.root
	e.mu.Unlock()
	return e.trie.RootHash(root)
}

// Set inserts or overwrites key's value as a single-operation batch,
// committed with SealUpdatable.
func (e *Engine) Set(key [KeyLength]byte, value []byte) error {
	b, err := e.Begin()
	if err != nil {
		return err
	}
	if err := b.Set(key, value); err != nil {
		b.Abort()
		return err
	}
	return b.Commit(trie.SealUpdatable)
}

// Remove deletes key as a single-operation batch, committed with
// SealUpdatable.
func (e *Engine) Remove(key [KeyLength]byte) (bool, error) {
	b, err := e.Begin()
	if err != nil {
		return false, err
	}
	removed, err := b.Remove(key)
	if err != nil {
		b.Abort()
		return false, err
	}
	return removed, b.Commit(trie.SealUpdatable)
}

// TryGet reads through the engine's currently published root.
func (e *Engine) TryGet(key [KeyLength]byte) ([]byte, bool, error) {
	e.mu.Lock()
	root := e.root
	e.mu.Unlock()
	return e.trie.TryGet(root, path.FromKey(key[:]))
}

// Begin opens a batch rooted at the engine's currently published root.
// Only one batch may be open at a time; Begin returns
// common.ErrBatchAlreadyOpen if a previous batch has not yet been
// committed or aborted.
func (e *Engine) Begin() (*Batch, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.batchOpen {
		return nil, common.ErrBatchAlreadyOpen
	}
	e.batchOpen = true
	return &Batch{engine: e, inner: e.trie.Begin(e.root)}, nil
}

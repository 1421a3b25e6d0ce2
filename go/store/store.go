// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package store implements the node store: an allocator over a paged
// backing medium that serves reads, appends new nodes, and overwrites
// still-mutable nodes in place when a rewritten payload fits into the slot
// it replaces.
package store

import (
	"encoding/binary"
	"fmt"

	"github.com/fantom-foundation/triestore/go/common"
	"github.com/fantom-foundation/triestore/go/trie/node"
)

// BackingStore is the minimal persistence surface the node store needs from
// whatever medium holds node bytes. pagefile.File is the reference
// implementation; a host database may supply its own.
type BackingStore interface {
	// Read returns the payload previously written at id. The slice's
	// validity is bounded by the store's lifetime; callers must not retain
	// it across a call to Write, Overwrite, or Free.
	Read(id uint64) ([]byte, error)
	// Write allocates a new slot, copies data into it, and returns its id.
	Write(data []byte) (uint64, error)
	// Overwrite replaces the payload at an existing id in place. It is
	// only ever called with len(data) no larger than the slot's current
	// payload.
	Overwrite(id uint64, data []byte) error
	// Free returns id's slot to the backing allocator.
	Free(id uint64) error
	// NextID reports the id the next Write call would return.
	NextID() uint64
	// FlushFrom forces durability of every id allocated after prevID.
	FlushFrom(prevID uint64) error
	// IsSameFile reports whether a and b were allocated from the same
	// underlying file epoch, so that a store may avoid reusing a freed
	// slot across a segment boundary.
	IsSameFile(a, b uint64) bool
}

// MaxCachedLen bounds the per-length free-slot cache: payloads this size or
// larger are returned straight to the backing allocator instead of being
// recycled locally.
const MaxCachedLen = 256

// idSize is the number of bytes a cached slot must have free to carry the
// linked-list pointer to the next cached slot of the same length.
const idSize = 8

// Store is the node store described by the engine: it layers allocation,
// in-place update, and free-slot reuse over a BackingStore.
type Store struct {
	backing    BackingStore
	updateFrom uint64      // smallest id considered part of the writable frontier
	slots      [MaxCachedLen]uint64 // slots[L] is the head of the free list for length L, 0 = empty
}

// New wraps a backing store with node-store semantics. The store starts
// sealed (update_from = +infinity); call EnsureUpdatable before the first
// batch.
func New(backing BackingStore) *Store {
	return &Store{backing: backing, updateFrom: sealedWatermark}
}

// sealedWatermark is used as update_from when the store is sealed: no
// existing id can ever satisfy `id >= sealedWatermark` because ids never
// reach node.MaxID's sentinel-adjacent range in practice, but to match the
// "set to +infinity" language of the contract exactly, it is the maximum
// representable value.
const sealedWatermark = ^uint64(0)

// Read returns the payload stored at id.
func (s *Store) Read(id node.ID) ([]byte, error) {
	return s.backing.Read(uint64(id))
}

// Write allocates a new node with the given payload.
func (s *Store) Write(data []byte) (node.ID, error) {
	id, err := s.backing.Write(data)
	if err != nil {
		return 0, err
	}
	if !node.ID(id).IsValid() {
		return 0, fmt.Errorf("%w: backing allocator returned id 0x%x exceeding node.MaxID", common.OutOfSpace, id)
	}
	return node.ID(id), nil
}

// Free returns id's slot to the backing allocator, bypassing the per-length
// cache.
func (s *Store) Free(id node.ID) error {
	return s.backing.Free(uint64(id))
}

// TryUpdateOrAdd implements the store's central contract (spec section
// 4.3): if id is within the writable frontier and newBytes fits into its
// existing payload, the node is overwritten in place and id is returned
// unchanged. Otherwise an in-frontier old slot is recycled into the
// per-length free list (or freed outright, if too large to cache), while a
// slot outside the frontier is left untouched because earlier roots may
// still reach it; the new payload is satisfied from the matching free
// list, falling back to a fresh allocation.
func (s *Store) TryUpdateOrAdd(id node.ID, newBytes []byte) (node.ID, error) {
	if id != 0 && uint64(id) >= s.updateFrom {
		existing, err := s.backing.Read(uint64(id))
		if err != nil {
			return 0, err
		}
		if len(newBytes) <= len(existing) {
			if err := s.backing.Overwrite(uint64(id), newBytes); err != nil {
				return 0, err
			}
			return id, nil
		}
	}

	if id != 0 && uint64(id) >= s.updateFrom {
		if err := s.recycle(id); err != nil {
			return 0, err
		}
	}
	return s.allocate(newBytes)
}

// recycle returns id's slot to the per-length free list, or frees it
// outright when its length is too large to cache.
func (s *Store) recycle(id node.ID) error {
	existing, err := s.backing.Read(uint64(id))
	if err != nil {
		return err
	}
	length := len(existing)
	if length < idSize || length >= MaxCachedLen {
		return s.backing.Free(uint64(id))
	}

	// The link goes into the slot's first idSize bytes; the slot keeps its
	// full length so that allocate can later overwrite it with a payload of
	// that length.
	buf := make([]byte, length)
	copy(buf, existing)
	binary.LittleEndian.PutUint64(buf[:idSize], s.slots[length])
	if err := s.backing.Overwrite(uint64(id), buf); err != nil {
		return err
	}
	s.slots[length] = uint64(id)
	return nil
}

// allocate satisfies a write of the given length from the per-length free
// list when possible, falling back to the backing allocator.
func (s *Store) allocate(data []byte) (node.ID, error) {
	length := len(data)
	if length < MaxCachedLen {
		next := s.backing.NextID()
		for s.slots[length] != 0 {
			candidate := s.slots[length]
			payload, err := s.backing.Read(candidate)
			if err != nil {
				return 0, err
			}
			var link [idSize]byte
			copy(link[:], payload[:idSize])
			s.slots[length] = binary.LittleEndian.Uint64(link[:])

			if !s.backing.IsSameFile(candidate, next) {
				// Crosses a file-segment boundary: not worth the random
				// access, return the slot to the backing allocator and
				// keep looking.
				if err := s.backing.Free(candidate); err != nil {
					return 0, err
				}
				continue
			}

			if err := s.backing.Overwrite(candidate, data); err != nil {
				return 0, err
			}
			return node.ID(candidate), nil
		}
	}
	return s.Write(data)
}

// EnsureUpdatable is called at batch start: if the store is sealed, its
// watermark is pulled forward to the allocator's current position so that
// every node allocated during the new batch is in-frontier.
func (s *Store) EnsureUpdatable() {
	if s.updateFrom == sealedWatermark {
		s.updateFrom = s.backing.NextID()
	}
}

// Seal is called at batch commit: the watermark is pushed to infinity (no
// id can ever again be considered in-frontier) and the free-slot cache is
// cleared, since a cached node's bytes could otherwise be overwritten after
// becoming visible to readers of the newly published state.
func (s *Store) Seal() {
	s.updateFrom = sealedWatermark
	for i := range s.slots {
		s.slots[i] = 0
	}
}

// FlushFrom forces durability of every node allocated since prevID.
func (s *Store) FlushFrom(prevID node.ID) error {
	return s.backing.FlushFrom(uint64(prevID))
}

// NextID reports the id the next Write call would return.
func (s *Store) NextID() node.ID {
	return node.ID(s.backing.NextID())
}

// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package trie implements the Merkle-Patricia tree mutation algorithm:
// insert, structural rewrites (split, push-down, merge), removal, and
// lookup, layered over a node store.
package trie

import (
	"fmt"

	"github.com/fantom-foundation/triestore/go/store"
	"github.com/fantom-foundation/triestore/go/trie/node"
	"github.com/fantom-foundation/triestore/go/trie/path"
)

// Engine implements the tree algorithm against a node store. It holds no
// root of its own; callers (the Batch facade) thread the root id through
// Insert/TryGet/Remove themselves.
type Engine struct {
	store *store.Store
}

// New builds an Engine over the given node store.
func New(s *store.Store) *Engine {
	return &Engine{store: s}
}

// Insert computes the id of the tree that results from adding (or
// overwriting) added's key with value under the subtree rooted at
// current, returning the new root id for that subtree.
func (e *Engine) Insert(current node.ID, added path.Path, value []byte) (node.ID, error) {
	if current == 0 {
		return e.newLeaf(added, value)
	}

	raw, err := e.store.Read(current)
	if err != nil {
		return 0, err
	}
	if len(raw) < 1 {
		return 0, fmt.Errorf("%w: empty node slot", node.ErrCorruptNode)
	}
	kind, err := node.DecodeKind(raw[0])
	if err != nil {
		return 0, err
	}
	switch kind {
	case node.KindLeaf:
		return e.insertIntoLeaf(current, raw[1:], added, value)
	case node.KindBranch:
		return e.insertIntoBranch(current, raw, added, value)
	case node.KindExtension:
		return e.insertIntoExtension(current, raw[1:], added, value)
	default:
		return 0, fmt.Errorf("%w: unreachable node kind %v", node.ErrCorruptNode, kind)
	}
}

func (e *Engine) insertIntoLeaf(current node.ID, body []byte, added path.Path, value []byte) (node.ID, error) {
	existingPath, existingValue, err := node.DecodeLeaf(body)
	if err != nil {
		return 0, err
	}
	d := added.FirstDifferentNibble(existingPath)

	if d == added.Length() && d == existingPath.Length() {
		return e.publishLeaf(current, added, value)
	}

	if d > 0 {
		newLeafID, err := e.newLeaf(added.SliceFrom(d+1), value)
		if err != nil {
			return 0, err
		}
		existingLeafID, err := e.newLeaf(existingPath.SliceFrom(d+1), existingValue)
		if err != nil {
			return 0, err
		}

		var children [16]node.ID
		children[added.NibbleAt(d)] = newLeafID
		children[existingPath.NibbleAt(d)] = existingLeafID
		branchID, err := e.newBranch(children)
		if err != nil {
			return 0, err
		}
		return e.publishExtension(current, added.SliceTo(d), branchID)
	}

	// d == 0: no shared nibble, a branch replaces the leaf directly. The
	// existing leaf is rewritten in place at depth+1; the new leaf and the
	// branch are freshly allocated.
	newLeafID, err := e.newLeaf(added.SliceFrom(1), value)
	if err != nil {
		return 0, err
	}
	existingLeafID, err := e.publishLeaf(current, existingPath.SliceFrom(1), existingValue)
	if err != nil {
		return 0, err
	}

	var children [16]node.ID
	children[added.NibbleAt(0)] = newLeafID
	children[existingPath.NibbleAt(0)] = existingLeafID
	return e.newBranch(children)
}

func (e *Engine) insertIntoBranch(current node.ID, raw []byte, added path.Path, value []byte) (node.ID, error) {
	n := added.NibbleAt(0)
	children, err := node.DecodeBranch(raw)
	if err != nil {
		return 0, err
	}

	childID := children[n]
	var newChildID node.ID
	if childID != 0 {
		newChildID, err = e.Insert(childID, added.SliceFrom(1), value)
		if err != nil {
			return 0, err
		}
		if newChildID == childID {
			return current, nil
		}
	} else {
		newChildID, err = e.newLeaf(added.SliceFrom(1), value)
		if err != nil {
			return 0, err
		}
	}
	children[n] = newChildID
	return e.publishBranch(current, children)
}

func (e *Engine) insertIntoExtension(current node.ID, body []byte, added path.Path, value []byte) (node.ID, error) {
	extPath, childID, err := node.DecodeExtension(body)
	if err != nil {
		return 0, err
	}
	d := extPath.FirstDifferentNibble(added)

	if d == extPath.Length() {
		newChildID, err := e.Insert(childID, added.SliceFrom(d), value)
		if err != nil {
			return 0, err
		}
		if newChildID == childID {
			return current, nil
		}
		return e.publishExtension(current, extPath, newChildID)
	}

	// Split: the inserted key diverges from the extension's path at
	// nibble d. The former child is pushed down by d+1 nibbles; a new
	// leaf carries the inserted key from the same depth.
	newLeafID, err := e.newLeaf(added.SliceFrom(d+1), value)
	if err != nil {
		return 0, err
	}

	var pushedDownID node.ID
	if extPath.Length() == d+1 {
		pushedDownID = childID
	} else {
		pushedDownID, err = e.newExtension(extPath.SliceFrom(d+1), childID)
		if err != nil {
			return 0, err
		}
	}

	var children [16]node.ID
	children[added.NibbleAt(d)] = newLeafID
	children[extPath.NibbleAt(d)] = pushedDownID

	if d == 0 {
		// The branch replaces the extension directly: publish it in
		// place of current instead of allocating a separate node.
		return e.publishBranch(current, children)
	}
	branchID, err := e.newBranch(children)
	if err != nil {
		return 0, err
	}
	return e.publishExtension(current, extPath.SliceTo(d), branchID)
}

// TryGet descends from root looking up key, returning (value, true) on a
// hit or (nil, false) on a miss.
func (e *Engine) TryGet(root node.ID, key path.Path) ([]byte, bool, error) {
	current := root
	remaining := key
	for current != 0 {
		raw, err := e.store.Read(current)
		if err != nil {
			return nil, false, err
		}
		if len(raw) < 1 {
			return nil, false, fmt.Errorf("%w: empty node slot", node.ErrCorruptNode)
		}
		kind, err := node.DecodeKind(raw[0])
		if err != nil {
			return nil, false, err
		}
		switch kind {
		case node.KindLeaf:
			existingPath, value, err := node.DecodeLeaf(raw[1:])
			if err != nil {
				return nil, false, err
			}
			if existingPath.Equal(remaining) {
				return value, true, nil
			}
			return nil, false, nil

		case node.KindBranch:
			if remaining.IsEmpty() {
				return nil, false, nil
			}
			children, err := node.DecodeBranch(raw)
			if err != nil {
				return nil, false, err
			}
			n := remaining.NibbleAt(0)
			if children[n] == 0 {
				return nil, false, nil
			}
			current = children[n]
			remaining = remaining.SliceFrom(1)

		case node.KindExtension:
			extPath, childID, err := node.DecodeExtension(raw[1:])
			if err != nil {
				return nil, false, err
			}
			d := extPath.FirstDifferentNibble(remaining)
			if d != extPath.Length() {
				return nil, false, nil
			}
			current = childID
			remaining = remaining.SliceFrom(d)

		default:
			return nil, false, fmt.Errorf("%w: unreachable node kind %v", node.ErrCorruptNode, kind)
		}
	}
	return nil, false, nil
}

// RootHash computes the Keccak-256 Merkle root of the subtree rooted at
// id, or the empty-tree hash (Keccak-256 of the RLP empty string) when id
// is 0.
func (e *Engine) RootHash(id node.ID) (node.Hash, error) {
	if id == 0 {
		return node.Keccak256(rlpEmptyString), nil
	}
	enc, err := e.hashNode(id)
	if err != nil {
		return node.Hash{}, err
	}
	if enc.Discriminant == node.HasKeccak {
		return node.Hash(enc.Buf), nil
	}
	// A root whose own RLP is short enough to embed is still hashed
	// directly: root_hash always reports a genuine Keccak digest, never
	// an inlined fragment (there is no parent to inline it into).
	n := int(enc.Buf[0])
	return node.Keccak256(enc.Buf[1 : 1+n]), nil
}

// rlpEmptyString is the canonical RLP encoding of the empty string (0x80),
// whose Keccak-256 hash is Ethereum's well-known empty-trie root.
var rlpEmptyString = []byte{0x80}

// hashNode computes the Merkle representation of the node at id, recursing
// into children as needed.
func (e *Engine) hashNode(id node.ID) (node.ChildEncoding, error) {
	raw, err := e.store.Read(id)
	if err != nil {
		return node.ChildEncoding{}, err
	}
	if len(raw) < 1 {
		return node.ChildEncoding{}, fmt.Errorf("%w: empty node slot", node.ErrCorruptNode)
	}
	kind, err := node.DecodeKind(raw[0])
	if err != nil {
		return node.ChildEncoding{}, err
	}
	switch kind {
	case node.KindLeaf:
		p, value, err := node.DecodeLeaf(raw[1:])
		if err != nil {
			return node.ChildEncoding{}, err
		}
		var enc node.ChildEncoding
		enc.Discriminant = node.HashLeaf(p, value, &enc.Buf)
		return enc, nil

	case node.KindExtension:
		p, childID, err := node.DecodeExtension(raw[1:])
		if err != nil {
			return node.ChildEncoding{}, err
		}
		child, err := e.hashNode(childID)
		if err != nil {
			return node.ChildEncoding{}, err
		}
		var enc node.ChildEncoding
		enc.Discriminant = node.HashExtension(p, child, &enc.Buf)
		return enc, nil

	case node.KindBranch:
		children, err := node.DecodeBranch(raw)
		if err != nil {
			return node.ChildEncoding{}, err
		}
		var childEncs [16]*node.ChildEncoding
		for i, c := range children {
			if c == 0 {
				continue
			}
			enc, err := e.hashNode(c)
			if err != nil {
				return node.ChildEncoding{}, err
			}
			childEncs[i] = &enc
		}
		var enc node.ChildEncoding
		enc.Discriminant = node.HashBranch(childEncs, &enc.Buf)
		return enc, nil

	default:
		return node.ChildEncoding{}, fmt.Errorf("%w: unreachable node kind %v", node.ErrCorruptNode, kind)
	}
}

// newLeaf allocates a brand-new leaf node.
func (e *Engine) newLeaf(p path.Path, value []byte) (node.ID, error) {
	buf := make([]byte, node.LeafEncodedSize(p, value))
	encoded, err := node.EncodeLeaf(p, value, buf)
	if err != nil {
		return 0, err
	}
	return e.store.Write(encoded)
}

// newExtension allocates a brand-new extension node.
func (e *Engine) newExtension(p path.Path, child node.ID) (node.ID, error) {
	buf := make([]byte, node.ExtensionEncodedSize(p))
	encoded, err := node.EncodeExtension(p, child, buf)
	if err != nil {
		return 0, err
	}
	return e.store.Write(encoded)
}

// newBranch allocates a brand-new branch node.
func (e *Engine) newBranch(children [16]node.ID) (node.ID, error) {
	count := node.CountChildren(children)
	buf := make([]byte, node.BranchEncodedSize(count))
	encoded, err := node.EncodeBranch(children, buf)
	if err != nil {
		return 0, err
	}
	return e.store.Write(encoded)
}

// publishLeaf re-encodes a leaf and publishes it in place of current's id,
// in-place overwriting when the store's frontier and size permit.
func (e *Engine) publishLeaf(current node.ID, p path.Path, value []byte) (node.ID, error) {
	buf := make([]byte, node.LeafEncodedSize(p, value))
	encoded, err := node.EncodeLeaf(p, value, buf)
	if err != nil {
		return 0, err
	}
	return e.store.TryUpdateOrAdd(current, encoded)
}

// publishExtension re-encodes an extension and publishes it in place of
// current's id.
func (e *Engine) publishExtension(current node.ID, p path.Path, child node.ID) (node.ID, error) {
	buf := make([]byte, node.ExtensionEncodedSize(p))
	encoded, err := node.EncodeExtension(p, child, buf)
	if err != nil {
		return 0, err
	}
	return e.store.TryUpdateOrAdd(current, encoded)
}

// publishBranch re-encodes a branch and publishes it in place of current's
// id.
func (e *Engine) publishBranch(current node.ID, children [16]node.ID) (node.ID, error) {
	count := node.CountChildren(children)
	buf := make([]byte, node.BranchEncodedSize(count))
	encoded, err := node.EncodeBranch(children, buf)
	if err != nil {
		return 0, err
	}
	return e.store.TryUpdateOrAdd(current, encoded)
}

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

// Remove deletes key from the subtree rooted at current, returning the new
// subtree root (0 if the subtree became empty as a result), whether a
// value was actually found and removed, and any error. Removing an absent
// key is a no-op: the returned id equals current and removed is false.
//
// Dropping a branch to a single child, or an extension whose child
// vanishes or itself becomes a leaf/extension, is collapsed immediately so
// that every published root keeps the structural invariants insert relies
// on (no extension's child is an extension, every branch has >= 2
// children).
func (e *Engine) Remove(current node.ID, key path.Path) (node.ID, bool, error) {
	if current == 0 {
		return 0, false, nil
	}
	raw, err := e.store.Read(current)
	if err != nil {
		return 0, false, err
	}
	if len(raw) < 1 {
		return 0, false, fmt.Errorf("%w: empty node slot", node.ErrCorruptNode)
	}
	kind, err := node.DecodeKind(raw[0])
	if err != nil {
		return 0, false, err
	}
	switch kind {
	case node.KindLeaf:
		return e.removeFromLeaf(current, raw[1:], key)
	case node.KindBranch:
		return e.removeFromBranch(current, raw, key)
	case node.KindExtension:
		return e.removeFromExtension(current, raw[1:], key)
	default:
		return 0, false, fmt.Errorf("%w: unreachable node kind %v", node.ErrCorruptNode, kind)
	}
}

func (e *Engine) removeFromLeaf(current node.ID, body []byte, key path.Path) (node.ID, bool, error) {
	existingPath, _, err := node.DecodeLeaf(body)
	if err != nil {
		return 0, false, err
	}
	if !existingPath.Equal(key) {
		return current, false, nil
	}
	if err := e.store.Free(current); err != nil {
		return 0, false, err
	}
	return 0, true, nil
}

func (e *Engine) removeFromBranch(current node.ID, raw []byte, key path.Path) (node.ID, bool, error) {
	if key.IsEmpty() {
		// Branches never carry a value of their own (see hash.go); an
		// exhausted key at a branch can never be a hit.
		return current, false, nil
	}
	children, err := node.DecodeBranch(raw)
	if err != nil {
		return 0, false, err
	}
	n := key.NibbleAt(0)
	childID := children[n]
	if childID == 0 {
		return current, false, nil
	}
	newChildID, removed, err := e.Remove(childID, key.SliceFrom(1))
	if err != nil {
		return 0, false, err
	}
	if !removed {
		return current, false, nil
	}
	children[n] = newChildID

	switch node.CountChildren(children) {
	case 0:
		return 0, false, fmt.Errorf("%w: branch at id %v lost all children on removal", node.ErrCorruptNode, current)
	case 1:
		var nibble byte
		var soleChild node.ID
		for i, c := range children {
			if c != 0 {
				nibble, soleChild = byte(i), c
				break
			}
		}
		return e.collapseBranch(current, nibble, soleChild)
	default:
		newID, err := e.publishBranch(current, children)
		if err != nil {
			return 0, false, err
		}
		return newID, true, nil
	}
}

// collapseBranch replaces a branch that has dropped to a single child with
// whatever node correctly represents "nibble followed by soleChild",
// restoring the no-singleton-branch and no-extension-child-is-extension
// invariants. The replacement is published in place of current.
func (e *Engine) collapseBranch(current node.ID, nibble byte, soleChild node.ID) (node.ID, bool, error) {
	childRaw, err := e.store.Read(soleChild)
	if err != nil {
		return 0, false, err
	}
	if len(childRaw) < 1 {
		return 0, false, fmt.Errorf("%w: empty node slot", node.ErrCorruptNode)
	}
	childKind, err := node.DecodeKind(childRaw[0])
	if err != nil {
		return 0, false, err
	}

	switch childKind {
	case node.KindLeaf:
		childPath, childValue, err := node.DecodeLeaf(childRaw[1:])
		if err != nil {
			return 0, false, err
		}
		merged := joinNibble(nibble, childPath)
		if err := e.store.Free(soleChild); err != nil {
			return 0, false, err
		}
		newID, err := e.publishLeaf(current, merged, childValue)
		if err != nil {
			return 0, false, err
		}
		return newID, true, nil

	case node.KindExtension:
		childPath, grandchildID, err := node.DecodeExtension(childRaw[1:])
		if err != nil {
			return 0, false, err
		}
		merged := joinNibble(nibble, childPath)
		if err := e.store.Free(soleChild); err != nil {
			return 0, false, err
		}
		newID, err := e.publishExtension(current, merged, grandchildID)
		if err != nil {
			return 0, false, err
		}
		return newID, true, nil

	case node.KindBranch:
		newID, err := e.publishExtension(current, singleNibblePath(nibble), soleChild)
		if err != nil {
			return 0, false, err
		}
		return newID, true, nil

	default:
		return 0, false, fmt.Errorf("%w: unreachable node kind %v", node.ErrCorruptNode, childKind)
	}
}

func (e *Engine) removeFromExtension(current node.ID, body []byte, key path.Path) (node.ID, bool, error) {
	extPath, childID, err := node.DecodeExtension(body)
	if err != nil {
		return 0, false, err
	}
	d := extPath.FirstDifferentNibble(key)
	if d != extPath.Length() {
		return current, false, nil
	}
	newChildID, removed, err := e.Remove(childID, key.SliceFrom(d))
	if err != nil {
		return 0, false, err
	}
	if !removed {
		return current, false, nil
	}
	if newChildID == 0 {
		if err := e.store.Free(current); err != nil {
			return 0, false, err
		}
		return 0, true, nil
	}

	childRaw, err := e.store.Read(newChildID)
	if err != nil {
		return 0, false, err
	}
	if len(childRaw) < 1 {
		return 0, false, fmt.Errorf("%w: empty node slot", node.ErrCorruptNode)
	}
	childKind, err := node.DecodeKind(childRaw[0])
	if err != nil {
		return 0, false, err
	}

	switch childKind {
	case node.KindExtension:
		grandPath, grandchildID, err := node.DecodeExtension(childRaw[1:])
		if err != nil {
			return 0, false, err
		}
		merged := joinPaths(extPath, grandPath)
		if err := e.store.Free(newChildID); err != nil {
			return 0, false, err
		}
		newID, err := e.publishExtension(current, merged, grandchildID)
		if err != nil {
			return 0, false, err
		}
		return newID, true, nil

	case node.KindLeaf:
		leafPath, leafValue, err := node.DecodeLeaf(childRaw[1:])
		if err != nil {
			return 0, false, err
		}
		merged := joinPaths(extPath, leafPath)
		if err := e.store.Free(newChildID); err != nil {
			return 0, false, err
		}
		newID, err := e.publishLeaf(current, merged, leafValue)
		if err != nil {
			return 0, false, err
		}
		return newID, true, nil

	case node.KindBranch:
		newID, err := e.publishExtension(current, extPath, newChildID)
		if err != nil {
			return 0, false, err
		}
		return newID, true, nil

	default:
		return 0, false, fmt.Errorf("%w: unreachable node kind %v", node.ErrCorruptNode, childKind)
	}
}

// singleNibblePath builds a one-nibble path. Used when a collapsed branch
// must be wrapped in a minimal extension pointing straight at it.
func singleNibblePath(nibble byte) path.Path {
	return path.New([]byte{nibble << 4}, false, 1)
}

// joinNibble prepends a single nibble to rest, copying into a freshly
// packed buffer (unlike path's own slicing operations, which never copy).
func joinNibble(nibble byte, rest path.Path) path.Path {
	return joinPaths(singleNibblePath(nibble), rest)
}

// joinPaths concatenates a followed by b into a freshly packed path.
func joinPaths(a, b path.Path) path.Path {
	total := a.Length() + b.Length()
	out := make([]byte, (total+1)/2)
	for i := 0; i < a.Length(); i++ {
		setNibble(out, i, a.NibbleAt(i))
	}
	for i := 0; i < b.Length(); i++ {
		setNibble(out, a.Length()+i, b.NibbleAt(i))
	}
	return path.New(out, false, total)
}

func setNibble(data []byte, i int, n byte) {
	if i%2 == 0 {
		data[i/2] |= n << 4
	} else {
		data[i/2] |= n
	}
}

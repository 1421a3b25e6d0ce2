// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package node implements the on-disk encoding of the three Merkle-Patricia
// trie node kinds (leaf, extension, branch) as pure functions over byte
// spans, plus the RLP/Keccak encoding used to compute a node's hash.
package node

import (
	"encoding/binary"
	"fmt"

	"github.com/fantom-foundation/triestore/go/trie/path"
)

// ID is an opaque handle into the node store. The zero value means "no
// node". The upper 4 bits are reserved: branch records pack a nibble there
// (see EncodeBranch), so a store must never hand out an id at or above
// 1<<60.
type ID uint64

// MaxID is the largest id a store may allocate; ids must leave the top 4
// bits free for branch record packing.
const MaxID = ID(1)<<60 - 1

// IsValid reports whether id fits within the reserved bit budget.
func (id ID) IsValid() bool {
	return id <= MaxID
}

// Kind identifies which of the three node variants a prefix byte encodes.
type Kind byte

const (
	KindExtension Kind = 0b00
	KindLeaf      Kind = 0b01
	KindBranch    Kind = 0b10
)

const (
	prefixKindMask  = 0b1100_0000
	prefixKindShift = 6
	prefixCountMask = 0b0000_1111
)

// ErrCorruptNode is wrapped by every error produced while decoding
// malformed node bytes: a prefix whose top two bits fall outside
// {00, 01, 10}, or a declared size that does not match the slot.
var ErrCorruptNode = fmt.Errorf("corrupt node")

// DecodeKind extracts the node kind from a node's first byte.
func DecodeKind(first byte) (Kind, error) {
	switch k := Kind((first & prefixKindMask) >> prefixKindShift); k {
	case KindLeaf, KindExtension, KindBranch:
		return k, nil
	default:
		return 0, fmt.Errorf("%w: prefix byte 0x%02x has reserved kind bits", ErrCorruptNode, first)
	}
}

// EncodeLeaf writes the encoding of a leaf node (path, value) into dst and
// returns the portion of dst actually used.
func EncodeLeaf(p path.Path, value []byte, dst []byte) ([]byte, error) {
	need := 1 + p.EncodedSize() + len(value)
	if len(dst) < need {
		return nil, fmt.Errorf("%w: leaf needs %d bytes, have %d", ErrShortBuffer, need, len(dst))
	}
	dst[0] = byte(KindLeaf) << prefixKindShift
	tail, err := p.WriteTo(dst[1:])
	if err != nil {
		return nil, err
	}
	copy(tail, value)
	return dst[:need], nil
}

// LeafEncodedSize returns the number of bytes EncodeLeaf needs for the given
// path and value.
func LeafEncodedSize(p path.Path, value []byte) int {
	return 1 + p.EncodedSize() + len(value)
}

// DecodeLeaf extracts the path and value of a leaf node from its body
// (the bytes following the prefix byte).
func DecodeLeaf(body []byte) (path.Path, []byte, error) {
	p, rest, err := path.ReadFrom(body)
	if err != nil {
		return path.Path{}, nil, fmt.Errorf("%w: leaf path: %v", ErrCorruptNode, err)
	}
	return p, rest, nil
}

// EncodeExtension writes the encoding of an extension node (path, childID)
// into dst and returns the portion of dst actually used. The path must
// address at least one nibble.
func EncodeExtension(p path.Path, child ID, dst []byte) ([]byte, error) {
	if p.Length() < 1 {
		return nil, fmt.Errorf("%w: extension path must not be empty", ErrCorruptNode)
	}
	need := ExtensionEncodedSize(p)
	if len(dst) < need {
		return nil, fmt.Errorf("%w: extension needs %d bytes, have %d", ErrShortBuffer, need, len(dst))
	}
	dst[0] = byte(KindExtension) << prefixKindShift
	tail, err := p.WriteTo(dst[1:])
	if err != nil {
		return nil, err
	}
	binary.LittleEndian.PutUint64(tail, uint64(child))
	return dst[:need], nil
}

// ExtensionEncodedSize returns the number of bytes EncodeExtension needs for
// the given path.
func ExtensionEncodedSize(p path.Path) int {
	return 1 + p.EncodedSize() + 8
}

// DecodeExtension extracts the path and child id of an extension node from
// its body.
func DecodeExtension(body []byte) (path.Path, ID, error) {
	p, rest, err := path.ReadFrom(body)
	if err != nil {
		return path.Path{}, 0, fmt.Errorf("%w: extension path: %v", ErrCorruptNode, err)
	}
	if p.Length() < 1 {
		return path.Path{}, 0, fmt.Errorf("%w: extension path must not be empty", ErrCorruptNode)
	}
	if len(rest) != 8 {
		return path.Path{}, 0, fmt.Errorf("%w: extension body has %d trailing bytes, want 8", ErrCorruptNode, len(rest))
	}
	return p, ID(binary.LittleEndian.Uint64(rest)), nil
}

// branchChildMask is the mask applied to a branch record to recover the
// 60-bit child id; the top 4 bits hold the nibble the record is keyed by.
const branchChildMask = 0x0FFF_FFFF_FFFF_FFFF

// EncodeBranch writes a branch node with the given 16 child slots (ID(0)
// meaning "no child") into dst and returns the portion of dst actually
// used. At least 2 and at most 16 children must be present.
func EncodeBranch(children [16]ID, dst []byte) ([]byte, error) {
	count := 0
	for _, c := range children {
		if c != 0 {
			count++
		}
	}
	if count < 2 || count > 16 {
		return nil, fmt.Errorf("%w: branch must have between 2 and 16 children, has %d", ErrCorruptNode, count)
	}
	need := BranchEncodedSize(count)
	if len(dst) < need {
		return nil, fmt.Errorf("%w: branch needs %d bytes, have %d", ErrShortBuffer, need, len(dst))
	}
	dst[0] = byte(KindBranch)<<prefixKindShift | byte(count-2)&prefixCountMask

	if count == 16 {
		for i, c := range children {
			putBranchRecord(dst[1+i*8:9+i*8], byte(i), c)
		}
		return dst[:need], nil
	}

	offset := 1
	for i, c := range children {
		if c == 0 {
			continue
		}
		putBranchRecord(dst[offset:offset+8], byte(i), c)
		offset += 8
	}
	return dst[:need], nil
}

// BranchEncodedSize returns the number of bytes EncodeBranch needs for a
// branch with count non-null children.
func BranchEncodedSize(count int) int {
	return 1 + count*8
}

func putBranchRecord(dst []byte, nibble byte, child ID) {
	record := uint64(nibble&0x0F)<<60 | uint64(child)&branchChildMask
	binary.LittleEndian.PutUint64(dst, record)
}

func getBranchRecord(src []byte) (nibble byte, child ID) {
	record := binary.LittleEndian.Uint64(src)
	return byte(record >> 60), ID(record & branchChildMask)
}

// DecodeBranch materializes a branch node into a 16-slot array of child ids
// (ID(0) meaning "no child"). Unlike DecodeLeaf/DecodeExtension, it takes
// the node's full encoding including the prefix byte: a branch's child
// count is packed into the low 4 bits of that same byte (see EncodeBranch),
// so the record data alone is not self-describing.
func DecodeBranch(raw []byte) ([16]ID, error) {
	var children [16]ID
	if len(raw) < 1 {
		return children, fmt.Errorf("%w: branch is empty", ErrCorruptNode)
	}
	count := int(raw[0]&prefixCountMask) + 2
	want := BranchEncodedSize(count)
	if len(raw) != want {
		return children, fmt.Errorf("%w: branch declares %d children (%d bytes), slot has %d bytes", ErrCorruptNode, count, want, len(raw))
	}
	body := raw[1:]

	if count == 16 {
		for i := 0; i < 16; i++ {
			nibble, child := getBranchRecord(body[i*8 : i*8+8])
			if int(nibble) != i {
				return children, fmt.Errorf("%w: full branch record %d has mismatched nibble %d", ErrCorruptNode, i, nibble)
			}
			children[i] = child
		}
		return children, nil
	}

	for r := 0; r < count; r++ {
		nibble, child := getBranchRecord(body[r*8 : r*8+8])
		if nibble > 15 {
			return children, fmt.Errorf("%w: branch record %d has invalid nibble %d", ErrCorruptNode, r, nibble)
		}
		if children[nibble] != 0 {
			return children, fmt.Errorf("%w: branch record %d repeats nibble %d", ErrCorruptNode, r, nibble)
		}
		children[nibble] = child
	}
	return children, nil
}

// IsFullBranch reports whether a branch node's prefix byte declares the
// full (16-child, nibble-indexed) layout.
func IsFullBranch(prefixByte byte) bool {
	return int(prefixByte&prefixCountMask)+2 == 16
}

// CountChildren returns the number of non-null entries in a 16-slot child
// array.
func CountChildren(children [16]ID) int {
	count := 0
	for _, c := range children {
		if c != 0 {
			count++
		}
	}
	return count
}

// ErrShortBuffer is returned when a destination span is too small to hold
// an encoded node.
var ErrShortBuffer = fmt.Errorf("node: short buffer")

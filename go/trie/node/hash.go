// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package node

import (
	"sync"

	"golang.org/x/crypto/sha3"

	"github.com/fantom-foundation/triestore/go/trie/path"
	"github.com/fantom-foundation/triestore/go/trie/rlp"
)

// Hash is a 32-byte Keccak-256 digest.
type Hash [32]byte

// Discriminant tells a caller how to interpret a node's 32-byte encoding
// buffer: as a Keccak hash of the node's RLP, or as the RLP itself (when it
// is short enough to be embedded inline in a parent node).
type Discriminant byte

const (
	HasRlp Discriminant = iota
	HasKeccak
)

var keccakPool = sync.Pool{New: func() any { return sha3.NewLegacyKeccak256() }}

// Keccak256 hashes data using Keccak-256 (the pre-standardization variant
// used throughout Ethereum, not NIST SHA3-256).
func Keccak256(data []byte) Hash {
	h := keccakPool.Get().(hasherState)
	h.Reset()
	h.Write(data)
	var res Hash
	h.Read(res[:])
	keccakPool.Put(h)
	return res
}

type hasherState interface {
	Reset()
	Write([]byte) (int, error)
	Read([]byte) (int, error)
}

// HexPrefix implements Ethereum's hex-prefix encoding of a nibble path for
// RLP purposes (see spec section 6.4): the first byte carries a flag
// (leaf/extension) and the odd/even-length marker, merging the path's first
// nibble into it when the path has odd length.
func HexPrefix(p path.Path, isLeaf bool) []byte {
	n := p.Length()
	odd := n%2 == 1
	out := make([]byte, n/2+1)

	header := byte(0)
	if isLeaf {
		header |= 0x20
	}
	pos := 0
	if odd {
		header |= 0x10 | p.NibbleAt(0)
		pos = 1
	}
	out[0] = header

	o := 1
	for pos < n {
		hi := p.NibbleAt(pos)
		pos++
		var lo byte
		if pos < n {
			lo = p.NibbleAt(pos)
			pos++
		}
		out[o] = hi<<4 | lo
		o++
	}
	return out
}

// HashOrEncode writes the Merkle representation of an already RLP-encoded
// node into dst (which must be 32 bytes): if encoded is 32 bytes or longer,
// dst receives its Keccak-256 hash and the discriminant is HasKeccak.
// Otherwise dst receives a 1-byte length followed by encoded itself, and
// the discriminant is HasRlp.
func HashOrEncode(encoded []byte, dst *[32]byte) Discriminant {
	if len(encoded) >= 32 {
		h := Keccak256(encoded)
		copy(dst[:], h[:])
		return HasKeccak
	}
	dst[0] = byte(len(encoded))
	copy(dst[1:], encoded)
	return HasRlp
}

// ChildEncoding carries the result of hashing a child node, ready to be
// embedded into its parent's RLP item list.
type ChildEncoding struct {
	Discriminant Discriminant
	Buf          [32]byte
}

// Item returns the RLP item representing this child encoding: the raw
// inline RLP fragment if short, or a 32-byte string wrapping the Keccak
// hash otherwise.
func (c ChildEncoding) Item() rlp.Item {
	if c.Discriminant == HasKeccak {
		h := make([]byte, 32)
		copy(h, c.Buf[:])
		return rlp.String{Bytes: h}
	}
	n := int(c.Buf[0])
	data := make([]byte, n)
	copy(data, c.Buf[1:1+n])
	return rlp.Raw{Data: data}
}

// emptyItem is the RLP encoding of an absent value or child: the empty
// string, 0x80.
var emptyItem = rlp.String{}

// HashLeaf computes the Merkle representation of a leaf node.
func HashLeaf(p path.Path, value []byte, dst *[32]byte) Discriminant {
	items := []rlp.Item{
		rlp.String{Bytes: HexPrefix(p, true)},
		rlp.String{Bytes: value},
	}
	return HashOrEncode(rlp.Encode(rlp.List{Items: items}), dst)
}

// HashExtension computes the Merkle representation of an extension node,
// given the already-resolved encoding of its child.
func HashExtension(p path.Path, child ChildEncoding, dst *[32]byte) Discriminant {
	items := []rlp.Item{
		rlp.String{Bytes: HexPrefix(p, false)},
		child.Item(),
	}
	return HashOrEncode(rlp.Encode(rlp.List{Items: items}), dst)
}

// HashBranch computes the Merkle representation of a branch node, given the
// already-resolved encodings of its 16 child slots (nil meaning "no
// child"). The engine never stores values at branch nodes, so the 17th
// list element is always the empty string.
func HashBranch(children [16]*ChildEncoding, dst *[32]byte) Discriminant {
	items := make([]rlp.Item, 17)
	for i, c := range children {
		if c == nil {
			items[i] = emptyItem
		} else {
			items[i] = c.Item()
		}
	}
	items[16] = emptyItem
	return HashOrEncode(rlp.Encode(rlp.List{Items: items}), dst)
}

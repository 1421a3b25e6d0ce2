// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package rlp implements the subset of Ethereum's Recursive Length Prefix
// encoding needed to hash Merkle-Patricia trie nodes.
//
// The definition of the encoding can be found in Appendix B of the Ethereum
// yellow paper: https://ethereum.github.io/yellowpaper/paper.pdf. An RLP
// input structure is defined recursively as either a string of bytes or a
// list of items; this package models that as the Item interface with a
// handful of concrete implementations.
package rlp

import (
	"encoding/binary"
	"math/big"
)

// Item is anything that can be RLP encoded by this package.
type Item interface {
	appendTo(buf []byte) []byte
	encodedLen() int
}

// Encode serializes an item into a freshly allocated byte slice.
func Encode(item Item) []byte {
	return AppendEncoded(make([]byte, 0, item.encodedLen()), item)
}

// AppendEncoded appends the RLP encoding of item to dst and returns the
// extended slice, in the style of the standard library's append.
func AppendEncoded(dst []byte, item Item) []byte {
	return item.appendTo(dst)
}

// String is the atomic item of RLP: a (possibly empty) byte string.
type String struct {
	Bytes []byte
}

func (s String) appendTo(buf []byte) []byte {
	l := len(s.Bytes)
	if l == 1 && s.Bytes[0] < 0x80 {
		return append(buf, s.Bytes[0])
	}
	buf = appendLength(buf, l, 0x80)
	return append(buf, s.Bytes...)
}

func (s String) encodedLen() int {
	l := len(s.Bytes)
	if l == 1 && s.Bytes[0] < 0x80 {
		return 1
	}
	return l + lengthPrefixSize(l)
}

// List composes a sequence of items into a single item.
type List struct {
	Items []Item
}

func (l List) appendTo(buf []byte) []byte {
	length := 0
	for _, item := range l.Items {
		length += item.encodedLen()
	}
	buf = appendLength(buf, length, 0xc0)
	for _, item := range l.Items {
		buf = item.appendTo(buf)
	}
	return buf
}

func (l List) encodedLen() int {
	sum := 0
	for _, item := range l.Items {
		sum += item.encodedLen()
	}
	return sum + lengthPrefixSize(sum)
}

// Raw embeds an already RLP-encoded fragment verbatim into a larger
// encoding - used to inline a child node's encoding directly into its
// parent without re-encoding it.
type Raw struct {
	Data []byte
}

func (r Raw) appendTo(buf []byte) []byte {
	return append(buf, r.Data...)
}

func (r Raw) encodedLen() int {
	return len(r.Data)
}

// Uint64 encodes an unsigned integer as its minimal big-endian byte string.
type Uint64 struct {
	Value uint64
}

func (u Uint64) appendTo(buf []byte) []byte {
	if u.Value == 0 {
		return append(buf, 0x80)
	}
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], u.Value)
	trimmed := tmp[:]
	for len(trimmed) > 0 && trimmed[0] == 0 {
		trimmed = trimmed[1:]
	}
	return String{Bytes: trimmed}.appendTo(buf)
}

func (u Uint64) encodedLen() int {
	if u.Value < 0x80 {
		return 1
	}
	return 1 + int(minimalByteLen(u.Value))
}

// BigInt encodes an arbitrary precision non-negative integer the same way
// Uint64 does, falling back to a big-endian byte string for values that do
// not fit into 64 bits.
type BigInt struct {
	Value *big.Int
}

func (i BigInt) appendTo(buf []byte) []byte {
	if i.Value.BitLen() <= 64 {
		return Uint64{Value: i.Value.Uint64()}.appendTo(buf)
	}
	bytes := i.Value.Bytes()
	buf = appendLength(buf, len(bytes), 0x80)
	return append(buf, bytes...)
}

func (i BigInt) encodedLen() int {
	if i.Value.BitLen() <= 64 {
		return Uint64{Value: i.Value.Uint64()}.encodedLen()
	}
	l := len(i.Value.Bytes())
	return lengthPrefixSize(l) + l
}

func appendLength(buf []byte, length int, offset byte) []byte {
	if length < 56 {
		return append(buf, offset+byte(length))
	}
	numBytes := minimalByteLen(uint64(length))
	buf = append(buf, offset+55+numBytes)
	for i := byte(0); i < numBytes; i++ {
		buf = append(buf, byte(length>>(8*(numBytes-i-1))))
	}
	return buf
}

func lengthPrefixSize(length int) int {
	if length < 56 {
		return 1
	}
	return int(minimalByteLen(uint64(length))) + 1
}

func minimalByteLen(value uint64) byte {
	var n byte
	for value > 0 {
		n++
		value >>= 8
	}
	return n
}

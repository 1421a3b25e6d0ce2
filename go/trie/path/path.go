// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package path provides a zero-copy view of a nibble sequence over a
// borrowed byte buffer, the addressing scheme used to navigate a
// Merkle-Patricia trie.
package path

import (
	"fmt"
)

// MaxLength is the maximum number of nibbles a Path may describe: a 32-byte
// key expands into exactly 64 nibbles.
const MaxLength = 64

// Path is a borrowed, half-byte-addressed view over a byte buffer. Every
// slicing operation returns a sub-view of the same underlying buffer; no
// nibble data is ever copied by Path itself.
type Path struct {
	data     []byte // the first nibble lives in data[0], high or low half
	oddStart bool   // true if the first nibble is the low half of data[0]
	length   int    // number of nibbles in [0, MaxLength]
}

// FromKey builds the full-length path addressing every nibble of a key's
// bytes, starting at the high nibble of the first byte.
func FromKey(key []byte) Path {
	return Path{data: key, length: len(key) * 2}
}

// New builds a Path over data starting at the given nibble alignment and
// running for length nibbles. It is the caller's responsibility to ensure
// data is large enough to cover length nibbles at that alignment.
func New(data []byte, oddStart bool, length int) Path {
	return Path{data: data, oddStart: oddStart, length: length}
}

// Length returns the number of nibbles addressed by this path.
func (p Path) Length() int {
	return p.length
}

// OddStart reports whether the path's first nibble lives in the low half of
// its first data byte.
func (p Path) OddStart() bool {
	return p.oddStart
}

// IsEmpty reports whether the path addresses zero nibbles.
func (p Path) IsEmpty() bool {
	return p.length == 0
}

// NibbleAt returns the i-th nibble of the path, i in [0, Length()).
func (p Path) NibbleAt(i int) byte {
	pos := i
	if p.oddStart {
		pos++
	}
	b := p.data[pos/2]
	if pos%2 == 0 {
		return b >> 4
	}
	return b & 0x0F
}

// SliceFrom drops the leading n nibbles and returns a view of the remainder.
// For n aligned with the current nibble parity, this is a pure bit flip; no
// byte data is copied in either case.
func (p Path) SliceFrom(n int) Path {
	if n <= 0 {
		return p
	}
	pos := n
	if p.oddStart {
		pos++
	}
	return Path{
		data:     p.data[pos/2:],
		oddStart: pos%2 == 1,
		length:   p.length - n,
	}
}

// SliceTo keeps only the leading n nibbles of the path.
func (p Path) SliceTo(n int) Path {
	return Path{data: p.data, oddStart: p.oddStart, length: n}
}

// FirstDifferentNibble returns the length of the common nibble prefix of p
// and other, bounded by the shorter of the two paths.
func (p Path) FirstDifferentNibble(other Path) int {
	limit := p.length
	if other.length < limit {
		limit = other.length
	}
	for i := 0; i < limit; i++ {
		if p.NibbleAt(i) != other.NibbleAt(i) {
			return i
		}
	}
	return limit
}

// Equal reports whether p and other address the same nibble sequence.
func (p Path) Equal(other Path) bool {
	return p.length == other.length && p.FirstDifferentNibble(other) == p.length
}

// PackedNibbles repacks the path's nibbles into a freshly allocated,
// nibble-0-aligned byte slice. Unlike the zero-copy slicing operations
// above, this does copy - it exists for callers (hex-prefix / RLP
// encoding) that require a canonically aligned byte representation.
func (p Path) PackedNibbles() []byte {
	out := make([]byte, (p.length+1)/2)
	for i := 0; i < p.length; i++ {
		n := p.NibbleAt(i)
		if i%2 == 0 {
			out[i/2] = n << 4
		} else {
			out[i/2] |= n
		}
	}
	return out
}

// EncodedSize returns the number of bytes WriteTo needs: one header byte
// plus the packed nibble bytes at the path's current alignment.
func (p Path) EncodedSize() int {
	return 1 + dataByteCount(p.oddStart, p.length)
}

// WriteTo serializes the path into dst as a one-byte header encoding
// (oddStart, length) followed by the packed nibble bytes taken directly
// from the path's own buffer alignment, and returns the unused tail of dst.
func (p Path) WriteTo(dst []byte) ([]byte, error) {
	n := dataByteCount(p.oddStart, p.length)
	need := 1 + n
	if len(dst) < need {
		return nil, fmt.Errorf("%w: need %d bytes, have %d", ErrShortBuffer, need, len(dst))
	}
	header := byte(p.length & 0x7F)
	if p.oddStart {
		header |= 0x80
	}
	dst[0] = header
	copy(dst[1:need], p.data[:n])
	return dst[need:], nil
}

// ReadFrom parses a path out of src (the inverse of WriteTo) and returns the
// path together with the unconsumed remainder of src.
func ReadFrom(src []byte) (Path, []byte, error) {
	if len(src) < 1 {
		return Path{}, nil, fmt.Errorf("%w: empty input", ErrShortBuffer)
	}
	header := src[0]
	oddStart := header&0x80 != 0
	length := int(header & 0x7F)
	n := dataByteCount(oddStart, length)
	if len(src) < 1+n {
		return Path{}, nil, fmt.Errorf("%w: need %d bytes, have %d", ErrShortBuffer, 1+n, len(src))
	}
	return Path{data: src[1 : 1+n], oddStart: oddStart, length: length}, src[1+n:], nil
}

func dataByteCount(oddStart bool, length int) int {
	if oddStart {
		return (length + 2) / 2
	}
	return (length + 1) / 2
}

// ErrShortBuffer is returned when a destination or source span is too small
// to hold an encoded path.
var ErrShortBuffer = fmt.Errorf("path: short buffer")

package node

import (
	"bytes"
	"encoding/hex"
	"testing"

	"github.com/fantom-foundation/triestore/go/trie/path"
)

func TestKeccak256_EmptyInput(t *testing.T) {
	want, _ := hex.DecodeString("c5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470")
	got := Keccak256(nil)
	if !bytes.Equal(got[:], want) {
		t.Fatalf("keccak256(\"\") = %x, want %x", got, want)
	}
}

func TestHexPrefix(t *testing.T) {
	cases := []struct {
		name   string
		path   path.Path
		isLeaf bool
		want   []byte
	}{
		{"even-leaf", path.FromKey([]byte{0x12, 0x34}), true, []byte{0x20, 0x12, 0x34}},
		{"odd-leaf", path.FromKey([]byte{0x31}).SliceTo(1), true, []byte{0x33}},
		{"odd-extension", path.FromKey([]byte{0x71}).SliceTo(1), false, []byte{0x17}},
	}
	for _, c := range cases {
		got := HexPrefix(c.path, c.isLeaf)
		if !bytes.Equal(got, c.want) {
			t.Fatalf("%s: hex_prefix = %x, want %x", c.name, got, c.want)
		}
	}
}

// TestHashLeaf_ShortRlp reproduces the spec's worked leaf example: path
// nibbles 1,2,3,4 and value 03 05 07 11 produce a 10-byte RLP encoding,
// short enough to be embedded inline (HasRlp) rather than hashed.
func TestHashLeaf_ShortRlp(t *testing.T) {
	p := path.FromKey([]byte{0x12, 0x34})
	value := []byte{0x03, 0x05, 0x07, 0x11}

	var dst [32]byte
	disc := HashLeaf(p, value, &dst)
	if disc != HasRlp {
		t.Fatalf("expected HasRlp, got %v", disc)
	}
	wantEncoded := []byte{0xc9, 0x83, 0x20, 0x12, 0x34, 0x84, 0x03, 0x05, 0x07, 0x11}
	if dst[0] != byte(len(wantEncoded)) {
		t.Fatalf("encoded length = %d, want %d", dst[0], len(wantEncoded))
	}
	if !bytes.Equal(dst[1:1+len(wantEncoded)], wantEncoded) {
		t.Fatalf("encoded = %x, want %x", dst[1:1+len(wantEncoded)], wantEncoded)
	}
}

// TestHashExtension_ShortRlp reproduces the spec's worked extension example:
// a leaf child (path nibble 3, value 05) embedded under an extension with a
// single nibble (7).
func TestHashExtension_ShortRlp(t *testing.T) {
	childPath := path.FromKey([]byte{0x30}).SliceTo(1)
	childValue := []byte{0x05}

	var childDst [32]byte
	childDisc := HashLeaf(childPath, childValue, &childDst)
	if childDisc != HasRlp {
		t.Fatalf("expected child HasRlp, got %v", childDisc)
	}
	wantChildEncoded := []byte{0xc2, 0x33, 0x05}
	if childDst[0] != byte(len(wantChildEncoded)) || !bytes.Equal(childDst[1:1+len(wantChildEncoded)], wantChildEncoded) {
		t.Fatalf("child encoded = %x, want %x", childDst[1:1+childDst[0]], wantChildEncoded)
	}

	extPath := path.FromKey([]byte{0x70}).SliceTo(1)
	child := ChildEncoding{Discriminant: childDisc, Buf: childDst}

	var dst [32]byte
	disc := HashExtension(extPath, child, &dst)
	if disc != HasRlp {
		t.Fatalf("expected HasRlp, got %v", disc)
	}
	wantEncoded := []byte{0xc4, 0x17, 0xc2, 0x33, 0x05}
	if dst[0] != byte(len(wantEncoded)) {
		t.Fatalf("encoded length = %d, want %d", dst[0], len(wantEncoded))
	}
	if !bytes.Equal(dst[1:1+len(wantEncoded)], wantEncoded) {
		t.Fatalf("encoded = %x, want %x", dst[1:1+len(wantEncoded)], wantEncoded)
	}
}

// TestHash_KnownKeccakDigests reproduces the spec's two long-value worked
// examples, where the encoded node crosses the 32-byte inlining threshold
// and the discriminant becomes HasKeccak: a leaf whose value alone forces
// the hash, and an extension wrapping such a leaf.
func TestHash_KnownKeccakDigests(t *testing.T) {
	cases := []struct {
		name    string
		compute func() (Discriminant, [32]byte)
		want    string
	}{
		{
			name: "leaf-long-value",
			compute: func() (Discriminant, [32]byte) {
				p := path.FromKey([]byte{0x12, 0x34})
				value := make([]byte, 32)
				var dst [32]byte
				disc := HashLeaf(p, value, &dst)
				return disc, dst
			},
			want: "c9a263dc573d67a8d0627756d012385a27db78bb4a072ab0f755a84d3b4babda",
		},
		{
			name: "extension-wrapping-long-value-leaf",
			compute: func() (Discriminant, [32]byte) {
				childPath := path.FromKey([]byte{0x12, 0x34})
				childValue := make([]byte, 32)
				var childDst [32]byte
				childDisc := HashLeaf(childPath, childValue, &childDst)

				extPath := path.FromKey([]byte{0x70}).SliceTo(1)
				child := ChildEncoding{Discriminant: childDisc, Buf: childDst}

				var dst [32]byte
				disc := HashExtension(extPath, child, &dst)
				return disc, dst
			},
			want: "87096a8380f2003182a4fa0409326e6678e0c5cf55418fc0aa516ae06b66be46",
		},
	}

	for _, c := range cases {
		disc, digest := c.compute()
		if disc != HasKeccak {
			t.Fatalf("%s: expected HasKeccak, got %v", c.name, disc)
		}
		want, err := hex.DecodeString(c.want)
		if err != nil {
			t.Fatalf("%s: bad test vector: %v", c.name, err)
		}
		if !bytes.Equal(digest[:], want) {
			t.Fatalf("%s: digest = %x, want %x", c.name, digest, want)
		}
	}
}

func TestHashBranch_TwoChildrenAmongEmptySlotsEncodes(t *testing.T) {
	var children [16]*ChildEncoding
	leafPath := path.FromKey([]byte{0x12, 0x34})
	var leafDst [32]byte
	leafDisc := HashLeaf(leafPath, []byte{0x01}, &leafDst)
	children[3] = &ChildEncoding{Discriminant: leafDisc, Buf: leafDst}
	children[9] = &ChildEncoding{Discriminant: leafDisc, Buf: leafDst}

	var dst [32]byte
	disc := HashBranch(children, &dst)
	if disc != HasRlp && disc != HasKeccak {
		t.Fatalf("unexpected discriminant %v", disc)
	}
}

package rlp

import (
	"bytes"
	"math/big"
	"testing"
)

func TestString_ShortAndSingleByte(t *testing.T) {
	cases := []struct {
		in   []byte
		want []byte
	}{
		{[]byte{}, []byte{0x80}},
		{[]byte{0x00}, []byte{0x00}},
		{[]byte{0x7f}, []byte{0x7f}},
		{[]byte{0x80}, []byte{0x81, 0x80}},
		{[]byte("dog"), []byte{0x83, 'd', 'o', 'g'}},
	}
	for _, c := range cases {
		got := Encode(String{Bytes: c.in})
		if !bytes.Equal(got, c.want) {
			t.Fatalf("encode(%x) = %x, want %x", c.in, got, c.want)
		}
		if got, want := (String{Bytes: c.in}).encodedLen(), len(c.want); got != want {
			t.Fatalf("encodedLen(%x) = %d, want %d", c.in, got, want)
		}
	}
}

func TestList(t *testing.T) {
	got := Encode(List{Items: []Item{String{Bytes: []byte("cat")}, String{Bytes: []byte("dog")}}})
	want := []byte{0xc8, 0x83, 'c', 'a', 't', 0x83, 'd', 'o', 'g'}
	if !bytes.Equal(got, want) {
		t.Fatalf("encode(list) = %x, want %x", got, want)
	}
}

func TestLongString(t *testing.T) {
	data := bytes.Repeat([]byte{0x41}, 60)
	got := Encode(String{Bytes: data})
	if got[0] != 0xb8 || got[1] != 60 {
		t.Fatalf("unexpected long-string header: %x", got[:2])
	}
	if len(got) != 62 {
		t.Fatalf("unexpected encoded length %d", len(got))
	}
}

func TestUint64(t *testing.T) {
	cases := []struct {
		v    uint64
		want []byte
	}{
		{0, []byte{0x80}},
		{1, []byte{0x01}},
		{127, []byte{0x7f}},
		{128, []byte{0x81, 0x80}},
		{1024, []byte{0x82, 0x04, 0x00}},
	}
	for _, c := range cases {
		got := Encode(Uint64{Value: c.v})
		if !bytes.Equal(got, c.want) {
			t.Fatalf("encode(%d) = %x, want %x", c.v, got, c.want)
		}
	}
}

func TestBigInt_MatchesUint64ForSmallValues(t *testing.T) {
	for _, v := range []uint64{0, 1, 127, 128, 1 << 40} {
		a := Encode(Uint64{Value: v})
		b := Encode(BigInt{Value: new(big.Int).SetUint64(v)})
		if !bytes.Equal(a, b) {
			t.Fatalf("BigInt(%d) = %x, want %x", v, b, a)
		}
	}
}

func TestRaw_Inlined(t *testing.T) {
	frag := []byte{0xc2, 0x01, 0x02}
	got := Encode(List{Items: []Item{Raw{Data: frag}}})
	want := append([]byte{0xc3}, frag...)
	if !bytes.Equal(got, want) {
		t.Fatalf("encode(raw-wrapped) = %x, want %x", got, want)
	}
}

func TestAppendEncoded_PreservesPrefix(t *testing.T) {
	buf := []byte{0xde, 0xad}
	buf = AppendEncoded(buf, String{Bytes: []byte("dog")})
	want := []byte{0xde, 0xad, 0x83, 'd', 'o', 'g'}
	if !bytes.Equal(buf, want) {
		t.Fatalf("append_encoded = %x, want %x", buf, want)
	}
}

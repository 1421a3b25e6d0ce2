package trie

import (
	"bytes"
	"testing"

	"github.com/fantom-foundation/triestore/go/trie/node"
	"github.com/fantom-foundation/triestore/go/trie/path"
)

func TestRemove_AbsentKeyIsNoOp(t *testing.T) {
	e, _ := newEngine()
	root, err := e.Insert(0, keyPath(1), []byte("V1"))
	if err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	newRoot, removed, err := e.Remove(root, keyPath(2))
	if err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	if removed {
		t.Fatalf("expected no removal for an absent key")
	}
	if newRoot != root {
		t.Fatalf("root must be unchanged on a no-op remove: got %v, want %v", newRoot, root)
	}
	if got := mustGet(t, e, newRoot, keyPath(1)); !bytes.Equal(got, []byte("V1")) {
		t.Fatalf("got %q, want V1", got)
	}
}

func TestRemove_SingleLeafEmptiesTree(t *testing.T) {
	e, _ := newEngine()
	root, err := e.Insert(0, keyPath(1), []byte("V1"))
	if err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	newRoot, removed, err := e.Remove(root, keyPath(1))
	if err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	if !removed {
		t.Fatalf("expected the key to be removed")
	}
	if newRoot != 0 {
		t.Fatalf("tree should be empty after removing its only key, got root %v", newRoot)
	}
	_, found, err := e.TryGet(newRoot, keyPath(1))
	if err != nil {
		t.Fatalf("TryGet failed: %v", err)
	}
	if found {
		t.Fatalf("expected a miss after removal")
	}
}

// TestRemove_BranchCollapsesToLeaf covers a branch dropping from 2 children
// to 1: the surviving child (a leaf) must be merged with the branch's
// nibble into a single leaf that replaces the branch as the root.
func TestRemove_BranchCollapsesToLeaf(t *testing.T) {
	e, _ := newEngine()
	keyA := make([]byte, 32)
	keyA[0] = 0x00
	keyB := make([]byte, 32)
	keyB[0] = 0x10

	root, err := e.Insert(0, path.FromKey(keyA), []byte("V1"))
	if err != nil {
		t.Fatalf("insert 1 failed: %v", err)
	}
	root, err = e.Insert(root, path.FromKey(keyB), []byte("V2"))
	if err != nil {
		t.Fatalf("insert 2 failed: %v", err)
	}

	newRoot, removed, err := e.Remove(root, path.FromKey(keyA))
	if err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	if !removed {
		t.Fatalf("expected removal of keyA")
	}

	raw, err := readRaw(e, newRoot)
	if err != nil {
		t.Fatalf("read root failed: %v", err)
	}
	kind, err := node.DecodeKind(raw[0])
	if err != nil {
		t.Fatalf("decode kind failed: %v", err)
	}
	if kind != node.KindLeaf {
		t.Fatalf("collapsed root kind = %v, want leaf", kind)
	}

	if got := mustGet(t, e, newRoot, path.FromKey(keyB)); !bytes.Equal(got, []byte("V2")) {
		t.Fatalf("got %q, want V2", got)
	}
	_, found, err := e.TryGet(newRoot, path.FromKey(keyA))
	if err != nil {
		t.Fatalf("TryGet failed: %v", err)
	}
	if found {
		t.Fatalf("expected a miss for the removed key")
	}
}

// TestRemove_ExtensionMergesWithCollapsedLeaf covers the deeper case from
// spec scenario 5 ("split then read"): an extension over a 2-leaf branch,
// where removing one leaf collapses the branch into a leaf, which must
// then merge with the parent extension's path rather than leave an
// extension pointing at a leaf.
func TestRemove_ExtensionMergesWithCollapsedLeaf(t *testing.T) {
	e, _ := newEngine()
	root, err := e.Insert(0, keyPath(0x01), []byte("V1"))
	if err != nil {
		t.Fatalf("insert 1 failed: %v", err)
	}
	root, err = e.Insert(root, keyPath(0x02), []byte("V2"))
	if err != nil {
		t.Fatalf("insert 2 failed: %v", err)
	}

	newRoot, removed, err := e.Remove(root, keyPath(0x01))
	if err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	if !removed {
		t.Fatalf("expected removal of keyPath(0x01)")
	}

	raw, err := readRaw(e, newRoot)
	if err != nil {
		t.Fatalf("read root failed: %v", err)
	}
	kind, err := node.DecodeKind(raw[0])
	if err != nil {
		t.Fatalf("decode kind failed: %v", err)
	}
	if kind != node.KindLeaf {
		t.Fatalf("root kind after collapse = %v, want leaf", kind)
	}
	leafPath, _, err := node.DecodeLeaf(raw[1:])
	if err != nil {
		t.Fatalf("decode leaf failed: %v", err)
	}
	if leafPath.Length() != 64 {
		t.Fatalf("merged leaf path length = %d, want 64", leafPath.Length())
	}

	if got := mustGet(t, e, newRoot, keyPath(0x02)); !bytes.Equal(got, []byte("V2")) {
		t.Fatalf("got %q, want V2", got)
	}
}

func TestRemove_ThenReinsertSameKeyWorks(t *testing.T) {
	e, _ := newEngine()
	root, err := e.Insert(0, keyPath(1), []byte("V1"))
	if err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	root, removed, err := e.Remove(root, keyPath(1))
	if err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	if !removed {
		t.Fatalf("expected removal")
	}
	root, err = e.Insert(root, keyPath(1), []byte("V2"))
	if err != nil {
		t.Fatalf("reinsert failed: %v", err)
	}
	if got := mustGet(t, e, root, keyPath(1)); !bytes.Equal(got, []byte("V2")) {
		t.Fatalf("got %q, want V2", got)
	}
}

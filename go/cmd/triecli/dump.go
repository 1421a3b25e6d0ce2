// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package main

import (
	"fmt"
	"strings"

	"github.com/fantom-foundation/triestore/go/store"
	"github.com/fantom-foundation/triestore/go/trie/node"
	"github.com/fantom-foundation/triestore/go/trie/path"
	"github.com/urfave/cli/v2"
)

var Dump = cli.Command{
	Action:    dump,
	Name:      "dump",
	Usage:     "prints the node tree rooted at a given node id",
	ArgsUsage: "<file>",
	Flags: []cli.Flag{
		&rootIDFlag,
	},
}

func dump(context *cli.Context) error {
	if context.Args().Len() != 1 {
		return fmt.Errorf("missing path of the node store file")
	}
	dir := context.Args().Get(0)

	s, f, err := openStore(dir)
	if err != nil {
		return err
	}
	defer f.Close()

	root := node.ID(context.Uint64(rootIDFlag.Name))
	if root == 0 {
		fmt.Println("(empty tree)")
		return nil
	}
	return dumpNode(s, root, 0)
}

func dumpNode(s *store.Store, id node.ID, depth int) error {
	indent := strings.Repeat("  ", depth)

	raw, err := s.Read(id)
	if err != nil {
		return fmt.Errorf("failed to read node %d: %w", id, err)
	}
	if len(raw) == 0 {
		return fmt.Errorf("node %d is empty", id)
	}

	kind, err := node.DecodeKind(raw[0])
	if err != nil {
		return err
	}

	switch kind {
	case node.KindLeaf:
		p, value, err := node.DecodeLeaf(raw[1:])
		if err != nil {
			return err
		}
		fmt.Printf("%sleaf   id=%d path=%s value=%d bytes\n", indent, id, nibbleString(p), len(value))
		return nil

	case node.KindExtension:
		p, child, err := node.DecodeExtension(raw[1:])
		if err != nil {
			return err
		}
		fmt.Printf("%sext    id=%d path=%s -> %d\n", indent, id, nibbleString(p), child)
		return dumpNode(s, child, depth+1)

	case node.KindBranch:
		children, err := node.DecodeBranch(raw)
		if err != nil {
			return err
		}
		fmt.Printf("%sbranch id=%d children=%d\n", indent, id, node.CountChildren(children))
		for i, c := range children {
			if c == 0 {
				continue
			}
			fmt.Printf("%s  [%x]\n", indent, i)
			if err := dumpNode(s, c, depth+2); err != nil {
				return err
			}
		}
		return nil

	default:
		return fmt.Errorf("node %d has unrecognized kind %v", id, kind)
	}
}

func nibbleString(p path.Path) string {
	var b strings.Builder
	for i := 0; i < p.Length(); i++ {
		fmt.Fprintf(&b, "%x", p.NibbleAt(i))
	}
	return b.String()
}

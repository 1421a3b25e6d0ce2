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

	"github.com/fantom-foundation/triestore/go/trie"
	"github.com/fantom-foundation/triestore/go/trie/node"
	"github.com/urfave/cli/v2"
)

var Root = cli.Command{
	Action:    rootHash,
	Name:      "root",
	Usage:     "prints the Keccak-256 root hash of a given root node id",
	ArgsUsage: "<file>",
	Flags: []cli.Flag{
		&rootIDFlag,
	},
}

func rootHash(context *cli.Context) error {
	if context.Args().Len() != 1 {
		return fmt.Errorf("missing path of the node store file")
	}
	dir := context.Args().Get(0)

	s, f, err := openStore(dir)
	if err != nil {
		return err
	}
	defer f.Close()

	engine := trie.New(s)
	root := node.ID(context.Uint64(rootIDFlag.Name))

	hash, err := engine.RootHash(root)
	if err != nil {
		return fmt.Errorf("failed to compute root hash: %w", err)
	}

	fmt.Printf("root id:   %d\n", root)
	fmt.Printf("root hash: 0x%x\n", hash)
	return nil
}

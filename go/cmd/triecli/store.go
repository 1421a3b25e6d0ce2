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
	"github.com/fantom-foundation/triestore/go/store"
	"github.com/fantom-foundation/triestore/go/store/pagefile"
)

// openStore opens the node-store file whose path is dir read/write and wraps it with node
// store semantics. Every subcommand opens its own handle and closes it
// before returning; none of them mutate the tree.
func openStore(dir string) (*store.Store, *pagefile.File, error) {
	f, err := pagefile.Open(dir)
	if err != nil {
		return nil, nil, err
	}
	return store.New(f), f, nil
}

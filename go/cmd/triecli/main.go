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
	"os"

	"github.com/urfave/cli/v2"
)

// Run using
//  go run ./go/cmd/triecli <command> <flags>

func main() {
	app := &cli.App{
		Name:      "triecli",
		Usage:     "inspection toolbox for a triestore node store",
		Copyright: "(c) 2024 Fantom Foundation",
		Commands: []*cli.Command{
			&Root,
			&Dump,
			&Verify,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootIDFlag = cli.Uint64Flag{
	Name:     "root",
	Usage:    "node id of the tree's root, as last observed by the caller",
	Required: true,
}

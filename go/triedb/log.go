// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package triedb

import (
	"log"

	"github.com/fantom-foundation/triestore/go/trie/node"
)

// logAdapter wraps a *log.Logger with the engine's two operational log
// lines: one per seal, one per flush. No per-node chatter.
type logAdapter struct {
	l *log.Logger
}

func (a *logAdapter) sealed() {
	a.l.Printf("triedb: batch sealed")
}

func (a *logAdapter) flushed(upTo node.ID) {
	a.l.Printf("triedb: flushed up to node %d", upTo)
}

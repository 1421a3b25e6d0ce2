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

import "log"

// HashAlgorithm selects the digest used to compute Merkle roots. Keccak256
// is the only one this engine implements (Ethereum state/storage tries
// are defined in terms of it); the type exists so that a future algorithm
// can be added without changing Config's shape.
type HashAlgorithm int

const (
	Keccak256 HashAlgorithm = iota
)

// Config holds the Open-time knobs go/store/pagefile and go/trie/node
// don't otherwise have a natural home for.
type Config struct {
	// CachePages bounds the backing pagefile's in-memory page cache.
	CachePages int
	// Hash selects the Merkle hash algorithm. Currently only Keccak256 is
	// accepted; Open rejects anything else.
	Hash HashAlgorithm
	// Logger receives the engine's sparse operational log lines (one per
	// seal, one per flush). Defaults to log.Default().
	Logger *log.Logger
}

func defaultConfig() Config {
	return Config{
		CachePages: 1024,
		Hash:       Keccak256,
		Logger:     log.Default(),
	}
}

// Option customizes a Config passed to Open or New.
type Option func(*Config)

// WithCachePages overrides the backing pagefile's page-cache capacity.
func WithCachePages(pages int) Option {
	return func(c *Config) { c.CachePages = pages }
}

// WithLogger overrides the logger used for operational log lines.
func WithLogger(logger *log.Logger) Option {
	return func(c *Config) { c.Logger = logger }
}

// WithHashAlgorithm overrides the Merkle hash algorithm. Reserved for
// forward compatibility: Open currently rejects any value but Keccak256.
func WithHashAlgorithm(alg HashAlgorithm) Option {
	return func(c *Config) { c.Hash = alg }
}

// Package circuits provides PLONKish arithmetic circuits proving the
// correctness of Ethereum state, starting with Merkle Patricia Trie proofs.
//
// The repository is organised as:
//   - plonkish: a minimal halo2-style constraint system (columns, gates,
//     lookup arguments, witness table, satisfiability check)
//   - mpt: the Merkle Patricia Trie circuit built on top of it
//
// Hashing uses the RLC (random linear combination) representation of byte
// strings throughout; see the mpt package documentation.
package circuits

import (
	"github.com/blang/semver/v4"
)

// Version of the witness/archive format. Bump the minor version whenever the
// row layout or the archive encoding changes.
var Version = semver.MustParse("0.2.0")

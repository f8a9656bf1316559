// Package mpt proves Ethereum Merkle Patricia Trie modifications inside a
// PLONKish circuit. One witness describes two trie states side by side, S
// (before) and C (after), differing in exactly one modification: a nonce,
// balance or code hash update, a storage slot write, an account or storage
// non-existence statement, or an account delete.
//
// The witness is a sequence of 69-byte rows grouped into blocks: 19 rows per
// branch node (an init row, sixteen children, two extension rows), 8 rows per
// account leaf and 5 rows per storage leaf. Byte strings never appear whole
// in the table; every node, key and hash is folded into a random linear
// combination b[0] + b[1]*r + b[2]*r^2 + ... and equalities between nodes are
// checked through keccak table lookups on the RLC pairs. Running (RLC,
// multiplier) accumulator pairs tie consecutive rows of a block together, and
// a key accumulator threads the modified path's nibbles from the root down to
// the leaf, where it must match the externally supplied address (or storage
// slot) RLC.
//
// Usage: NewConfig registers all gates and lookups once; Assign lays a Proof
// into a fresh assignment, hashing the proof's node preimages into the keccak
// table; IsSolved reports a violated constraint when one exists, standing in
// for the proving system.
package mpt

package mpt

import (
	"encoding/binary"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
)

// The fixtures below build real trie nodes with go-ethereum's RLP encoder
// and lay them out into proof rows the way the witness generator does, so
// the assigned tables satisfy every gate and hash lookup.

// fixtureAddress is the account the modification proofs touch.
var fixtureAddress = common.HexToAddress("0x40efbf12580138bc263c95757826df4e24eb81c9")

func newTestRow(t byte) WitnessRow {
	r := make(WitnessRow, witnessRowLen)
	r[rowLen] = t
	return r
}

// compactKey terminates a hashed key from the given nibble depth onward,
// hex-prefix encoded the way leaf keys are stored.
func compactKey(path []byte, depth int) []byte {
	if depth%2 == 1 {
		out := []byte{keyOddOffset | pathNibble(path, depth)}
		for d := depth + 1; d < 2*len(path); d += 2 {
			out = append(out, pathNibble(path, d)<<4|pathNibble(path, d+1))
		}
		return out
	}
	out := []byte{keyEvenPrefix}
	for d := depth; d < 2*len(path); d += 2 {
		out = append(out, path[d/2])
	}
	return out
}

func rlpItemLen(head byte) int {
	if head >= rlpNil {
		return 1 + int(head) - rlpNil
	}
	return 1
}

type testAccount struct {
	nonce    uint64
	balance  *uint256.Int
	root     common.Hash
	codehash common.Hash
}

// leaf encodes the account leaf node holding this account under the given
// hex-prefix key.
func (ta testAccount) leaf(tb testing.TB, key []byte) []byte {
	tb.Helper()
	body, err := rlp.EncodeToBytes(&types.StateAccount{
		Nonce:    ta.nonce,
		Balance:  ta.balance,
		Root:     ta.root,
		CodeHash: ta.codehash[:],
	})
	require.NoError(tb, err)
	enc, err := rlp.EncodeToBytes([]interface{}{key, body})
	require.NoError(tb, err)
	return enc
}

// fillAccountRows splits an account leaf encoding into the key,
// nonce-balance and storage-codehash row payloads.
func fillAccountRows(tb testing.TB, enc []byte, keyRow, nbRow, schRow WitnessRow) {
	tb.Helper()
	assert := require.New(tb)

	assert.EqualValues(rlpList2, enc[0])
	kl := int(enc[2]) - rlpNil
	assert.True(kl >= 1 && kl <= hashWidth+1, "key of %d bytes", kl)
	copy(keyRow[:3+kl], enc[:3+kl])
	off := 3 + kl

	assert.EqualValues(rlpLongStr, enc[off])
	assert.EqualValues(rlpList2, enc[off+2])
	nbRow[0], nbRow[1] = enc[off], enc[off+1]
	nbRow[rowLen/2], nbRow[rowLen/2+1] = enc[off+2], enc[off+3]
	off += 4

	nl := rlpItemLen(enc[off])
	assert.LessOrEqual(nl, hashWidth)
	copy(nbRow[rlpNum:rlpNum+nl], enc[off:off+nl])
	off += nl
	bl := rlpItemLen(enc[off])
	assert.LessOrEqual(bl, hashWidth)
	copy(nbRow[rowLen/2+rlpNum:rowLen/2+rlpNum+bl], enc[off:off+bl])
	off += bl

	assert.EqualValues(rlpHashPrefix, enc[off])
	schRow[1] = rlpHashPrefix
	copy(schRow[rlpNum:rlpNum+hashWidth], enc[off+1:off+1+hashWidth])
	off += 1 + hashWidth
	assert.EqualValues(rlpHashPrefix, enc[off])
	schRow[rowLen/2+1] = rlpHashPrefix
	copy(schRow[rowLen/2+rlpNum:rowLen/2+rlpNum+hashWidth], enc[off+1:off+1+hashWidth])
	off += 1 + hashWidth
	assert.Equal(len(enc), off)
}

// accountBlockRows lays the S and C leaf encodings into the eight account
// block rows. A nil ne row leaves the non-existing row empty.
func accountBlockRows(tb testing.TB, leafS, leafC []byte, ne WitnessRow) []WitnessRow {
	tb.Helper()
	keyS := newTestRow(rowTypeAccountKeyS)
	nbS := newTestRow(rowTypeAccountNonceBalS)
	schS := newTestRow(rowTypeAccountCodehashS)
	fillAccountRows(tb, leafS, keyS, nbS, schS)

	keyC := newTestRow(rowTypeAccountKeyC)
	nbC := newTestRow(rowTypeAccountNonceBalC)
	schC := newTestRow(rowTypeAccountCodehashC)
	fillAccountRows(tb, leafC, keyC, nbC, schC)

	if ne == nil {
		ne = newTestRow(rowTypeAccountNonExist)
	}
	return []WitnessRow{keyS, keyC, ne, nbS, nbC, schS, schC, newTestRow(rowTypeAccountDrifted)}
}

func branchEncode(tb testing.TB, slots [branchChildren][]byte) []byte {
	tb.Helper()
	items := make([]interface{}, branchChildren+1)
	for i, s := range slots {
		if s == nil {
			items[i] = []byte{}
		} else {
			items[i] = s
		}
	}
	items[branchChildren] = []byte{}
	enc, err := rlp.EncodeToBytes(items)
	require.NoError(tb, err)
	return enc
}

func fillSlot(sec []byte, hash []byte) {
	if hash == nil {
		sec[rlpNum] = rlpNil
		return
	}
	sec[1] = rlpHashPrefix
	copy(sec[rlpNum:rlpNum+hashWidth], hash)
}

// branchBlockRows builds the 19 rows of a branch block from the child hash
// slots of both sides. c16 tells whether the branch consumes an even-depth
// nibble.
func branchBlockRows(tb testing.TB, sSlots, cSlots [branchChildren][]byte, c16 bool) ([]WitnessRow, []byte, []byte) {
	tb.Helper()
	assert := require.New(tb)
	sEnc := branchEncode(tb, sSlots)
	cEnc := branchEncode(tb, cSlots)

	init := newTestRow(rowTypeBranchInit)
	setHdr := func(hdrPos, twoPos, threePos int, enc []byte) {
		switch enc[0] {
		case 0xf8:
			copy(init[hdrPos:hdrPos+2], enc[:2])
			init[twoPos] = 1
		case 0xf9:
			copy(init[hdrPos:hdrPos+3], enc[:3])
			init[threePos] = 1
		default:
			assert.FailNow("unexpected branch header", "byte %#x", enc[0])
		}
	}
	setHdr(branchInitSHdrPos, isSTwoRLPBytesPos, isSThreeRLPBytesPos, sEnc)
	setHdr(branchInitCHdrPos, isCTwoRLPBytesPos, isCThreeRLPBytesPos, cEnc)
	if c16 {
		init[isBranchC16Pos] = 1
	} else {
		init[isBranchC1Pos] = 1
	}

	rows := []WitnessRow{init}
	for i := 0; i < branchChildren; i++ {
		row := newTestRow(rowTypeBranchChild)
		fillSlot(row[:rowLen/2], sSlots[i])
		fillSlot(row[rowLen/2:rowLen], cSlots[i])
		rows = append(rows, row)
	}
	rows = append(rows, newTestRow(rowTypeExtS), newTestRow(rowTypeExtC))
	return rows, sEnc, cEnc
}

func extEncode(tb testing.TB, nib byte, child []byte) []byte {
	tb.Helper()
	enc, err := rlp.EncodeToBytes([]interface{}{[]byte{extKeyOddOffset | nib}, child})
	require.NoError(tb, err)
	require.Len(tb, enc, 35)
	return enc
}

// extensionBlockRows builds a branch block reached through a single-nibble
// extension node. The branch then consumes an odd-depth nibble.
func extensionBlockRows(tb testing.TB, sSlots, cSlots [branchChildren][]byte, extNib byte) (rows []WitnessRow, sEnc, cEnc, extSEnc, extCEnc []byte) {
	tb.Helper()
	rows, sEnc, cEnc = branchBlockRows(tb, sSlots, cSlots, false)
	init := rows[branchInitOffset]
	init[extOneRLPBytePos] = 1
	init[extShortC1Pos] = 1

	extSEnc = extEncode(tb, extNib, crypto.Keccak256(sEnc))
	extCEnc = extEncode(tb, extNib, crypto.Keccak256(cEnc))

	fill := func(row WitnessRow, enc []byte) {
		row[0], row[1] = enc[0], enc[1]
		row[rowLen/2+1] = rlpHashPrefix
		copy(row[rowLen/2+rlpNum:rowLen/2+rlpNum+hashWidth], enc[3:3+hashWidth])
	}
	fill(rows[branchExtSOffset], extSEnc)
	fill(rows[branchExtCOffset], extCEnc)
	return rows, sEnc, cEnc, extSEnc, extCEnc
}

func storageLeafEncode(tb testing.TB, key, value []byte) []byte {
	tb.Helper()
	enc, err := rlp.EncodeToBytes([]interface{}{key, value})
	require.NoError(tb, err)
	return enc
}

// fillStorageLeafRows splits a storage leaf encoding into its key and value
// row payloads.
func fillStorageLeafRows(tb testing.TB, enc []byte, keyRow, valueRow WitnessRow) {
	tb.Helper()
	assert := require.New(tb)

	var prefix int
	if enc[0] == rlpList2 {
		prefix = 3 + int(enc[2]) - rlpNil
	} else {
		prefix = 2 + int(enc[1]) - rlpNil
	}
	copy(keyRow[:prefix], enc[:prefix])
	rest := enc[prefix:]
	assert.LessOrEqual(len(rest), rowLen/2)
	copy(valueRow[:len(rest)], rest)
}

func storageBlockRows(tb testing.TB, encS, encC []byte) []WitnessRow {
	tb.Helper()
	keyS := newTestRow(rowTypeLeafKeyS)
	valS := newTestRow(rowTypeLeafValueS)
	fillStorageLeafRows(tb, encS, keyS, valS)
	keyC := newTestRow(rowTypeLeafKeyC)
	valC := newTestRow(rowTypeLeafValueC)
	fillStorageLeafRows(tb, encC, keyC, valC)
	return []WitnessRow{keyS, valS, keyC, valC, newTestRow(rowTypeLeafDrifted)}
}

// neighbourAddress scans for an address whose hashed key starts with the
// given nibble, for non-existing proofs that end on another account's leaf.
func neighbourAddress(tb testing.TB, nib byte, avoid common.Address) common.Address {
	tb.Helper()
	for i := uint16(0); i < 4096; i++ {
		var a common.Address
		a[0] = 0x77
		binary.BigEndian.PutUint16(a[18:], i)
		if a == avoid {
			continue
		}
		if pathNibble(crypto.Keccak256(a[:]), 0) == nib {
			return a
		}
	}
	tb.Fatalf("no address found with leading path nibble %d", nib)
	return common.Address{}
}

// nonExistingRow carries the queried address key on the block's non-existing
// row, flagged when the path ends on another account's leaf.
func nonExistingRow(path []byte, wrongLeaf bool) WitnessRow {
	r := newTestRow(rowTypeAccountNonExist)
	if wrongLeaf {
		r[0] = 1
	}
	key := compactKey(path, 1)
	r[2] = byte(rlpNil + len(key))
	copy(r[3:3+len(key)], key)
	return r
}

// nonceFirstLevelProof changes an account nonce in a single-account state
// trie; the leaf is the trie root.
func nonceFirstLevelProof(tb testing.TB) *Proof {
	tb.Helper()
	addr := fixtureAddress
	path := crypto.Keccak256(addr[:])
	key := compactKey(path, 0)

	acc := testAccount{nonce: 5, balance: uint256.NewInt(1_000_000), root: types.EmptyRootHash, codehash: types.EmptyCodeHash}
	leafS := acc.leaf(tb, key)
	acc.nonce = 6
	leafC := acc.leaf(tb, key)

	return &Proof{
		Type:      ProofNonceChanged,
		Address:   addr,
		StartRoot: crypto.Keccak256Hash(leafS),
		FinalRoot: crypto.Keccak256Hash(leafC),
		Rows:      accountBlockRows(tb, leafS, leafC, nil),
		Nodes:     [][]byte{leafS, leafC},
	}
}

// balanceProof changes an account balance under a root branch with one
// sibling, covering both the short and the long balance encoding.
func balanceProof(tb testing.TB) *Proof {
	tb.Helper()
	addr := fixtureAddress
	path := crypto.Keccak256(addr[:])
	nib := pathNibble(path, 0)
	key := compactKey(path, 1)

	acc := testAccount{nonce: 1, balance: uint256.NewInt(100), root: types.EmptyRootHash, codehash: types.EmptyCodeHash}
	leafS := acc.leaf(tb, key)
	acc.balance = uint256.NewInt(200)
	leafC := acc.leaf(tb, key)

	var sSlots, cSlots [branchChildren][]byte
	sSlots[nib] = crypto.Keccak256(leafS)
	cSlots[nib] = crypto.Keccak256(leafC)
	sibling := crypto.Keccak256([]byte("sibling leaf"))
	sibNib := (nib + 1) % branchChildren
	sSlots[sibNib], cSlots[sibNib] = sibling, sibling

	rows, sEnc, cEnc := branchBlockRows(tb, sSlots, cSlots, true)
	rows = append(rows, accountBlockRows(tb, leafS, leafC, nil)...)

	return &Proof{
		Type:      ProofBalanceChanged,
		Address:   addr,
		StartRoot: crypto.Keccak256Hash(sEnc),
		FinalRoot: crypto.Keccak256Hash(cEnc),
		Rows:      rows,
		Nodes:     [][]byte{sEnc, cEnc, leafS, leafC},
	}
}

// balanceExtensionProof is balanceProof with the root branch hanging off a
// single-nibble extension node.
func balanceExtensionProof(tb testing.TB) *Proof {
	tb.Helper()
	addr := fixtureAddress
	path := crypto.Keccak256(addr[:])
	extNib := pathNibble(path, 0)
	modNib := pathNibble(path, 1)
	key := compactKey(path, 2)

	acc := testAccount{nonce: 1, balance: uint256.NewInt(100), root: types.EmptyRootHash, codehash: types.EmptyCodeHash}
	leafS := acc.leaf(tb, key)
	acc.balance = uint256.NewInt(200)
	leafC := acc.leaf(tb, key)

	var sSlots, cSlots [branchChildren][]byte
	sSlots[modNib] = crypto.Keccak256(leafS)
	cSlots[modNib] = crypto.Keccak256(leafC)
	sibling := crypto.Keccak256([]byte("sibling leaf"))
	sibNib := (modNib + 1) % branchChildren
	sSlots[sibNib], cSlots[sibNib] = sibling, sibling

	rows, sEnc, cEnc, extSEnc, extCEnc := extensionBlockRows(tb, sSlots, cSlots, extNib)
	rows = append(rows, accountBlockRows(tb, leafS, leafC, nil)...)

	return &Proof{
		Type:      ProofBalanceChanged,
		Address:   addr,
		StartRoot: crypto.Keccak256Hash(extSEnc),
		FinalRoot: crypto.Keccak256Hash(extCEnc),
		Rows:      rows,
		Nodes:     [][]byte{sEnc, cEnc, extSEnc, extCEnc, leafS, leafC},
	}
}

// storageProof changes a storage slot of an account whose storage trie is a
// single leaf, so the leaf hashes straight into the account's storage root.
func storageProof(tb testing.TB) *Proof {
	tb.Helper()
	addr := fixtureAddress
	path := crypto.Keccak256(addr[:])
	nib := pathNibble(path, 0)
	key := compactKey(path, 1)

	slot := common.HexToHash("0x01")
	spath := crypto.Keccak256(slot[:])
	skey := compactKey(spath, 0)
	valS, err := rlp.EncodeToBytes(uint64(7))
	require.NoError(tb, err)
	valC, err := rlp.EncodeToBytes(uint64(300))
	require.NoError(tb, err)
	sLeafS := storageLeafEncode(tb, skey, valS)
	sLeafC := storageLeafEncode(tb, skey, valC)

	acc := testAccount{nonce: 3, balance: uint256.NewInt(42), root: crypto.Keccak256Hash(sLeafS), codehash: types.EmptyCodeHash}
	leafS := acc.leaf(tb, key)
	acc.root = crypto.Keccak256Hash(sLeafC)
	leafC := acc.leaf(tb, key)

	var sSlots, cSlots [branchChildren][]byte
	sSlots[nib] = crypto.Keccak256(leafS)
	cSlots[nib] = crypto.Keccak256(leafC)
	sibling := crypto.Keccak256([]byte("sibling leaf"))
	sibNib := (nib + 1) % branchChildren
	sSlots[sibNib], cSlots[sibNib] = sibling, sibling

	rows, sEnc, cEnc := branchBlockRows(tb, sSlots, cSlots, true)
	rows = append(rows, accountBlockRows(tb, leafS, leafC, nil)...)
	rows = append(rows, storageBlockRows(tb, sLeafS, sLeafC)...)

	return &Proof{
		Type:        ProofStorageChanged,
		Address:     addr,
		StorageSlot: slot,
		StartRoot:   crypto.Keccak256Hash(sEnc),
		FinalRoot:   crypto.Keccak256Hash(cEnc),
		Rows:        rows,
		Nodes:       [][]byte{sEnc, cEnc, leafS, leafC, sLeafS, sLeafC},
	}
}

// nonExistingProof proves the fixture address is absent, either because the
// path ends on a neighbour's leaf or because it ends in an empty branch
// slot. The account rows carry the neighbour leaf in both shapes; in the
// nil-slot shape it only keeps the row constraints satisfiable and stays
// outside every hash binding.
func nonExistingProof(tb testing.TB, wrongLeaf bool) *Proof {
	tb.Helper()
	addr := fixtureAddress
	path := crypto.Keccak256(addr[:])
	nib := pathNibble(path, 0)

	neighbour := neighbourAddress(tb, nib, addr)
	npath := crypto.Keccak256(neighbour[:])
	acc := testAccount{nonce: 9, balance: uint256.NewInt(77), root: types.EmptyRootHash, codehash: types.EmptyCodeHash}
	leaf := acc.leaf(tb, compactKey(npath, 1))

	var slots [branchChildren][]byte
	sibling := crypto.Keccak256([]byte("sibling leaf"))
	if wrongLeaf {
		slots[nib] = crypto.Keccak256(leaf)
		slots[(nib+1)%branchChildren] = sibling
	} else {
		slots[(nib+1)%branchChildren] = sibling
		slots[(nib+5)%branchChildren] = crypto.Keccak256([]byte("second sibling"))
	}

	rows, sEnc, _ := branchBlockRows(tb, slots, slots, true)
	rows = append(rows, accountBlockRows(tb, leaf, leaf, nonExistingRow(path, wrongLeaf))...)

	nodes := [][]byte{sEnc}
	if wrongLeaf {
		nodes = append(nodes, leaf)
	}

	root := crypto.Keccak256Hash(sEnc)
	return &Proof{
		Type:      ProofAccountDoesNotExist,
		Address:   addr,
		StartRoot: root,
		FinalRoot: root,
		Rows:      rows,
		Nodes:     nodes,
	}
}

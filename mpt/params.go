package mpt

// Row geometry. Every witness row carries two 34-cell sections (2 RLP cells
// followed by 32 byte cells), the S section for the state before the
// modification and the C section for the state after.
const (
	hashWidth = 32
	rlpNum    = 2
	rowLen    = 2 * (hashWidth + rlpNum)
)

// A branch block occupies 19 rows: one init row, sixteen child rows and two
// extension rows. Non-extension branches keep the two extension rows zeroed.
const (
	branchRowsNum  = 19
	branchChildren = 16

	branchInitOffset  = 0
	branchChildOffset = 1
	branchExtSOffset  = 17
	branchExtCOffset  = 18
)

// Account leaf block row indices.
const (
	accountLeafRowsNum = 8

	accountKeySInd             = 0
	accountKeyCInd             = 1
	accountNonExistingInd      = 2
	accountNonceBalanceSInd    = 3
	accountNonceBalanceCInd    = 4
	accountStorageCodehashSInd = 5
	accountStorageCodehashCInd = 6
	accountDriftedLeafInd      = 7
)

// Storage leaf block row indices.
const (
	storageLeafRowsNum = 5

	leafKeySInd    = 0
	leafValueSInd  = 1
	leafKeyCInd    = 2
	leafValueCInd  = 3
	leafDriftedInd = 4
)

// Branch init rows pack block-level flags into fixed payload positions. The
// positions index the 68-cell payload; position p maps to s_main for p < 34
// and to c_main above that.
const (
	branchInitSHdrPos = 0 // 3 cells, S branch RLP header
	branchInitCHdrPos = 3 // 3 cells, C branch RLP header

	isBranchSPlaceholderPos = 6
	isBranchCPlaceholderPos = 7

	extShortC16Pos    = 8
	extShortC1Pos     = 9
	extLongEvenC16Pos = 10
	extLongEvenC1Pos  = 11
	extLongOddC16Pos  = 12
	extLongOddC1Pos   = 13

	isBranchC16Pos = 14
	isBranchC1Pos  = 15

	isSTwoRLPBytesPos   = 16
	isSThreeRLPBytesPos = 17
	isCTwoRLPBytesPos   = 18
	isCThreeRLPBytesPos = 19

	extOneRLPBytePos    = 20 // extension key part is the single byte 0x10|nibble
	extLongerThan55Pos  = 21 // extension node list payload exceeds 55 bytes
)

// Row type markers, the trailing byte of each witness row.
const (
	rowTypeBranchInit       byte = 0
	rowTypeBranchChild      byte = 1
	rowTypeLeafKeyS         byte = 2
	rowTypeLeafKeyC         byte = 3
	rowTypeAccountKeyC      byte = 4
	rowTypeAccountKeyS      byte = 6
	rowTypeAccountNonceBalS byte = 7
	rowTypeAccountNonceBalC byte = 8
	rowTypeAccountCodehashS byte = 9
	rowTypeAccountDrifted   byte = 10
	rowTypeAccountCodehashC byte = 11
	rowTypeLeafValueS       byte = 13
	rowTypeLeafValueC       byte = 14
	rowTypeLeafDrifted      byte = 15
	rowTypeExtS             byte = 16
	rowTypeExtC             byte = 17
	rowTypeAccountNonExist  byte = 18
)

// RLP markers used by the trie encodings.
const (
	rlpNil        = 128 // 0x80, the empty string; nil branch slots and the branch value slot
	rlpHashPrefix = 160 // 0xa0, prefix of a 32-byte string
	rlpLongStr    = 184 // 0xb8, string with a one-byte length
	rlpList2      = 248 // 0xf8, list with a one-byte length
	rlpList3      = 249 // 0xf9, list with a two-byte length

	keyEvenPrefix   = 32 // 0x20, terminating key head when an even nibble count remains
	keyOddOffset    = 48 // 0x30 | nibble, terminating key head when odd
	extKeyOddOffset = 16 // 0x10 | nibble, extension key head when odd
)

// Proof types, the lookup discriminant threaded through the proof rows.
const (
	ProofDisabled             = 0
	ProofNonceChanged         = 1
	ProofBalanceChanged       = 2
	ProofCodeHashChanged      = 3
	ProofAccountDoesNotExist  = 4
	ProofAccountDeleted       = 5
	ProofStorageChanged       = 6
	ProofStorageDoesNotExist  = 7
	nbProofTypes              = 7
)

// Rotations between related rows. All derived from the block shapes above;
// chips never use rotation literals directly.
const (
	// from a branch's last child row
	rotLastChildToInit        = -16
	rotLastChildToRowAbove    = -17 // account drifted row when the branch starts a storage trie
	rotLastChildToParentChild = -19 // parent block's last child row

	// from a branch init row
	rotInitToPrevLastChild = -3

	// from a branch's first child row
	rotFirstChildToInit     = -1
	rotFirstChildToRowAbove = -2
	rotFirstChildToParent   = -branchRowsNum // parent block's first child row

	// from extension rows
	rotExtSToInit        = -17
	rotExtCToInit        = -18
	rotExtSToRowAbove    = -18
	rotExtCToRowAbove    = -19
	rotExtSToParentChild = -20
	rotExtCToParentChild = -21
	rotExtSToLastChild   = -1
	rotExtCToLastChild   = -2
	rotExtCToExtS        = -1

	// from storage leaf rows
	rotLeafValueToKey         = -1
	rotLeafValueToBranch      = -6 // lands among the enclosing branch's child rows
	rotLeafValueSToInit       = -20
	rotLeafValueCToInit       = -22
	rotLeafValueSToRowAbove   = -2 // account drifted row when the leaf hangs off the account
	rotLeafValueCToRowAbove   = -4
	rotLeafValueSToCodehashS  = -4
	rotLeafValueCToCodehashC  = -5
	rotLeafKeySToFirstChild   = -18
	rotLeafKeyCToFirstChild   = -20
	rotLeafKeySToInit         = -19
	rotLeafKeyCToInit         = -21
	rotLeafKeySToRowAbove     = -1
	rotLeafKeyCToRowAbove     = -3

	// from account leaf rows
	rotAccountKeySToFirstChild    = -18
	rotAccountKeyCToFirstChild    = -19
	rotAccountKeySToInit          = -19
	rotAccountKeyCToInit          = -20
	rotNonExistingToKeyRow        = -1 // the key C row
	rotNonExistingToFirstChild    = -(accountNonExistingInd - 1 + branchRowsNum)
	rotNonExistingToInit          = rotNonExistingToFirstChild - 1
	rotNonceBalanceToKey          = -3
	rotNonceBalanceCToNonceBalS   = -1
	rotCodehashSToAcc             = -1 // the S accumulator carried onto the nonce-balance C row
	rotCodehashCToAcc             = -2
	rotCodehashCToNonceBalS       = -3
	rotCodehashCToNonceBalC       = -2
	rotCodehashSToParentChild     = -8
	rotCodehashCToParentChild     = -9

	// from the first storage-level rows back into the account leaf block
	rotStorageBranchToCodehashS = -19
	rotStorageBranchToCodehashC = -18
	rotStorageExtSToCodehashS   = -20
	rotStorageExtCToCodehashC   = -20
)

// Folding and lookup bounds.
const (
	maxKeyEncLen = 34 // length prefix plus up to 33 key bytes
	rMultMax     = 72 // highest power of r the RMult table carries

	maxGateDegree = 9
)

package mpt

import (
	"errors"
	"fmt"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"

	"github.com/zkevm/circuits/debug"
	"github.com/zkevm/circuits/logger"
	"github.com/zkevm/circuits/plonkish"
)

// defaultRandomness stands in for the verifier challenge during development
// and testing. With r = 256 the RLC of a short byte string is its
// little-endian integer value, which keeps failing rows readable.
const defaultRandomness = 256

// Config is the configured MPT circuit: the column layout, the registered
// gates and lookups, and the folding randomness with its precomputed powers.
// A Config is immutable once NewConfig returns and safe for concurrent use.
type Config struct {
	sys *plonkish.System

	position  PositionCols
	proofType ProofTypeCols

	branch      BranchCols
	accountLeaf AccountLeafCols
	storageLeaf StorageLeafCols
	denote      DenoteCols
	accs        AccumulatorCols

	sMain MainCols
	cMain MainCols

	interStartRoot plonkish.Column
	interFinalRoot plonkish.Column
	addressRLC     plonkish.Column

	fixedTable  [3]plonkish.Column // tag, value, value2
	keccakTable [2]plonkish.Column // input RLC, output RLC

	randomness fr.Element
	rPowers    []fr.Element
	inv160     fr.Element

	minRows int
}

// Option alters the circuit configuration. See the With* functions.
type Option func(*Config) error

// WithRandomness replaces the default RLC folding randomness. In production
// the randomness is a verifier challenge drawn after the witness commitment;
// it must not be zero.
func WithRandomness(r fr.Element) Option {
	return func(c *Config) error {
		if r.IsZero() {
			return errors.New("mpt: randomness must not be zero")
		}
		c.randomness = r
		return nil
	}
}

// WithMinRows raises the minimum row capacity of the assignments Assign
// creates, for callers that pad proofs to a fixed table height.
func WithMinRows(n int) Option {
	return func(c *Config) error {
		if n < 0 {
			return fmt.Errorf("mpt: negative row capacity %d", n)
		}
		c.minRows = n
		return nil
	}
}

// NewConfig allocates the circuit's columns and registers every chip's gates
// and lookup arguments. The underlying system freezes when the first
// assignment is created.
func NewConfig(opts ...Option) (_ *Config, err error) {
	c := &Config{sys: plonkish.NewSystem()}
	c.randomness.SetUint64(defaultRandomness)
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	c.rPowers = make([]fr.Element, rMultMax+1)
	c.rPowers[0].SetOne()
	for i := 1; i < len(c.rPowers); i++ {
		c.rPowers[i].Mul(&c.rPowers[i-1], &c.randomness)
	}
	var p fr.Element
	p.SetUint64(rlpHashPrefix)
	c.inv160.Inverse(&p)

	// recover from registration panics to report the offending chip with
	// its stack
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%v\n%s", r, debug.Stack())
		}
	}()

	c.allocateColumns()

	c.configureSelectors()
	c.configureBranch()
	c.configureBranchKey()
	c.configureBranchHashInParent()
	c.configureExtensionNode()
	c.configureLeafKey()
	c.configureLeafValue()
	c.configureStorageRootInAccountLeaf()
	c.configureAccountLeafKey()
	c.configureAccountLeafNonceBalance()
	c.configureAccountLeafStorageCodehash()
	c.configureAccountNonExisting()

	log := logger.Logger()
	log.Debug().
		Int("fixed", c.sys.NbFixed()).
		Int("advice", c.sys.NbAdvice()).
		Int("gates", c.sys.NbGates()).
		Int("lookups", c.sys.NbLookups()).
		Msg("mpt circuit configured")
	return c, nil
}

func (c *Config) allocateColumns() {
	sys := c.sys

	c.position = PositionCols{
		QEnable:       sys.AddFixed("q_enable"),
		QNotFirst:     sys.AddFixed("q_not_first"),
		NotFirstLevel: sys.AddAdvice("not_first_level"),
	}

	c.proofType = ProofTypeCols{
		IsNonceMod:           sys.AddAdvice("is_nonce_mod"),
		IsBalanceMod:         sys.AddAdvice("is_balance_mod"),
		IsCodeHashMod:        sys.AddAdvice("is_code_hash_mod"),
		IsNonExistingAccount: sys.AddAdvice("is_non_existing_account_proof"),
		IsAccountDelete:      sys.AddAdvice("is_account_delete_mod"),
		IsStorageMod:         sys.AddAdvice("is_storage_mod"),
		IsNonExistingStorage: sys.AddAdvice("is_non_existing_storage_proof"),
		ProofType:            sys.AddAdvice("proof_type"),
	}

	c.branch = BranchCols{
		IsInit:       sys.AddAdvice("is_branch_init"),
		IsChild:      sys.AddAdvice("is_branch_child"),
		IsLastChild:  sys.AddAdvice("is_last_branch_child"),
		NodeIndex:    sys.AddAdvice("node_index"),
		ModifiedNode: sys.AddAdvice("modified_node"),
		IsModified:   sys.AddAdvice("is_modified"),
		IsExtS:       sys.AddAdvice("is_extension_node_s"),
		IsExtC:       sys.AddAdvice("is_extension_node_c"),
	}

	c.accountLeaf = AccountLeafCols{
		IsKeyS:             sys.AddAdvice("is_account_leaf_key_s"),
		IsKeyC:             sys.AddAdvice("is_account_leaf_key_c"),
		IsNonExisting:      sys.AddAdvice("is_non_existing_account_row"),
		IsNonceBalanceS:    sys.AddAdvice("is_account_leaf_nonce_balance_s"),
		IsNonceBalanceC:    sys.AddAdvice("is_account_leaf_nonce_balance_c"),
		IsStorageCodehashS: sys.AddAdvice("is_account_leaf_storage_codehash_s"),
		IsStorageCodehashC: sys.AddAdvice("is_account_leaf_storage_codehash_c"),
		IsInAddedBranch:    sys.AddAdvice("is_account_leaf_in_added_branch"),
	}

	c.storageLeaf = StorageLeafCols{
		IsKeyS:          sys.AddAdvice("is_leaf_key_s"),
		IsValueS:        sys.AddAdvice("is_leaf_value_s"),
		IsKeyC:          sys.AddAdvice("is_leaf_key_c"),
		IsValueC:        sys.AddAdvice("is_leaf_value_c"),
		IsInAddedBranch: sys.AddAdvice("is_leaf_in_added_branch"),
		IsLong:          sys.AddAdvice("is_long_leaf"),
	}

	c.sMain = newMainCols(sys, "s_main")
	c.cMain = newMainCols(sys, "c_main")

	c.accs = AccumulatorCols{
		AccS:     newAccumulatorPair(sys, "acc_s"),
		AccC:     newAccumulatorPair(sys, "acc_c"),
		Key:      newAccumulatorPair(sys, "key"),
		MultDiff: sys.AddAdvice("mult_diff"),
	}

	c.denote = DenoteCols{
		Sel1:            sys.AddAdvice("sel1"),
		Sel2:            sys.AddAdvice("sel2"),
		SModNodeHashRLC: sys.AddAdvice("s_mod_node_hash_rlc"),
		CModNodeHashRLC: sys.AddAdvice("c_mod_node_hash_rlc"),
	}

	c.interStartRoot = sys.AddAdvice("inter_start_root")
	c.interFinalRoot = sys.AddAdvice("inter_final_root")
	c.addressRLC = sys.AddAdvice("address_rlc")

	for i := range c.fixedTable {
		c.fixedTable[i] = sys.AddFixed(fmt.Sprintf("fixed_table[%d]", i))
	}
	c.keccakTable[0] = sys.AddFixed("keccak_table.input_rlc")
	c.keccakTable[1] = sys.AddFixed("keccak_table.output_rlc")
}

// Randomness returns the RLC folding randomness the circuit folds with.
func (c *Config) Randomness() fr.Element { return c.randomness }

// IsSolved checks an assignment against every gate and lookup of the circuit.
func (c *Config) IsSolved(a *plonkish.Assignment) error {
	return c.sys.IsSolved(a)
}

package mpt

import (
	"fmt"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/zkevm/circuits/plonkish"
)

// Assign lays a proof into a fresh assignment: the fixed tables, the keccak
// table over the proof's nodes, the row payloads with their role flags, and
// every derived advice cell the gates read (accumulators, key chain, helper
// selectors). The returned assignment is ready for IsSolved.
func (c *Config) Assign(proof *Proof) (*plonkish.Assignment, error) {
	if err := proof.validate(); err != nil {
		return nil, err
	}

	nbRows := fixedTableRows()
	if c.minRows > nbRows {
		nbRows = c.minRows
	}
	if n := len(proof.Rows); n > nbRows {
		nbRows = n
	}
	if n := len(proof.Nodes) + 1; n > nbRows {
		nbRows = n
	}

	a := plonkish.NewAssignment(c.sys, nbRows)
	c.loadFixedTable(a)
	c.loadKeccakTable(a, proof.Nodes)

	w := &assigner{
		c:       c,
		a:       a,
		proof:   proof,
		path:    crypto.Keccak256(proof.Address[:]),
		keyMult: fr.One(),
	}

	one := fr.One()
	addressRLC := c.rlcBytes(w.path)
	startRoot := c.rlcBytes(proof.StartRoot[:])
	finalRoot := c.rlcBytes(proof.FinalRoot[:])
	var proofType fr.Element
	proofType.SetUint64(uint64(proof.Type))
	flagCol := c.proofType.flags()[proof.Type-1]
	for i := range proof.Rows {
		a.AssignFixed(c.position.QEnable, i, one)
		if i > 0 {
			a.AssignFixed(c.position.QNotFirst, i, one)
		}
		a.AssignAdvice(c.interStartRoot, i, startRoot)
		a.AssignAdvice(c.interFinalRoot, i, finalRoot)
		a.AssignAdvice(c.addressRLC, i, addressRLC)
		a.AssignAdvice(c.proofType.ProofType, i, proofType)
		a.AssignAdvice(flagCol, i, one)
	}

	for i := 0; i < len(proof.Rows); {
		switch t := proof.Rows[i].Type(); t {
		case rowTypeBranchInit:
			if i+branchRowsNum > len(proof.Rows) {
				return nil, fmt.Errorf("%w: truncated branch block at row %d", ErrWitness, i)
			}
			if err := w.branchBlock(i, proof.Rows[i:i+branchRowsNum]); err != nil {
				return nil, err
			}
			i += branchRowsNum
		case rowTypeAccountKeyS:
			if i+accountLeafRowsNum > len(proof.Rows) {
				return nil, fmt.Errorf("%w: truncated account block at row %d", ErrWitness, i)
			}
			if err := w.accountBlock(i, proof.Rows[i:i+accountLeafRowsNum]); err != nil {
				return nil, err
			}
			i += accountLeafRowsNum
		case rowTypeLeafKeyS:
			if i+storageLeafRowsNum > len(proof.Rows) {
				return nil, fmt.Errorf("%w: truncated storage block at row %d", ErrWitness, i)
			}
			if err := w.storageBlock(i, proof.Rows[i:i+storageLeafRowsNum]); err != nil {
				return nil, err
			}
			i += storageLeafRowsNum
		default:
			return nil, fmt.Errorf("%w: unexpected row type %d at row %d", ErrWitness, t, i)
		}
	}

	a.Complete()
	return a, nil
}

// assigner threads the path state while laying blocks into the assignment.
type assigner struct {
	c     *Config
	a     *plonkish.Assignment
	proof *Proof

	path    []byte // hashed key whose nibbles the proof follows
	depth   int    // nibbles consumed so far
	keyRLC  fr.Element
	keyMult fr.Element
	nfl     bool
}

func (w *assigner) set(col plonkish.Column, row int, v fr.Element) {
	w.a.AssignAdvice(col, row, v)
}

func (w *assigner) setOne(col plonkish.Column, row int) {
	w.a.AssignAdvice(col, row, fr.One())
}

func (w *assigner) setUint(col plonkish.Column, row int, v uint64) {
	var e fr.Element
	e.SetUint64(v)
	w.a.AssignAdvice(col, row, e)
}

func (w *assigner) assignPayload(row int, r WitnessRow) {
	var v fr.Element
	for p, b := range r.Payload() {
		v.SetUint64(uint64(b))
		w.a.AssignAdvice(w.c.payloadCol(p), row, v)
	}
}

func (w *assigner) setNotFirstLevel(row int) {
	if w.nfl {
		w.setOne(w.c.position.NotFirstLevel, row)
	}
}

// foldBytes extends an accumulator pair over a byte run, one r step per byte.
func (c *Config) foldBytes(acc, mult fr.Element, bs ...byte) (fr.Element, fr.Element) {
	var t fr.Element
	for _, b := range bs {
		t.SetUint64(uint64(b))
		t.Mul(&t, &mult)
		acc.Add(&acc, &t)
		mult.Mul(&mult, &c.randomness)
	}
	return acc, mult
}

// pushNibble folds one path nibble into the key chain.
func (w *assigner) pushNibble(n byte) {
	var t fr.Element
	if w.depth%2 == 0 {
		t.SetUint64(uint64(n) * 16)
		t.Mul(&t, &w.keyMult)
		w.keyRLC.Add(&w.keyRLC, &t)
	} else {
		t.SetUint64(uint64(n))
		t.Mul(&t, &w.keyMult)
		w.keyRLC.Add(&w.keyRLC, &t)
		w.keyMult.Mul(&w.keyMult, &w.c.randomness)
	}
	w.depth++
}

func pathNibble(path []byte, depth int) byte {
	b := path[depth/2]
	if depth%2 == 0 {
		return b >> 4
	}
	return b & 0x0f
}

// leafKeyRLC completes the key chain over a leaf's remaining key bytes,
// matching the head parity the enclosing block left behind.
func (w *assigner) leafKeyRLC(head byte, tail []byte) fr.Element {
	if !w.nfl {
		acc, _ := w.c.foldBytes(fr.Element{}, fr.One(), tail...)
		return acc
	}
	acc, mult := w.keyRLC, w.keyMult
	if w.depth%2 == 1 {
		var t fr.Element
		t.SetUint64(uint64(head - keyOddOffset))
		t.Mul(&t, &mult)
		acc.Add(&acc, &t)
		mult.Mul(&mult, &w.c.randomness)
	}
	acc, _ = w.c.foldBytes(acc, mult, tail...)
	return acc
}

// extKeyShape reads the extension key part's folded cell count and nibble
// count off its encoding.
func extKeyShape(init, extS WitnessRow) (foldLen, nibbles int, err error) {
	pl := init.Payload()
	s := extS.S()
	switch {
	case pl[extOneRLPBytePos] != 0:
		return 2, 1, nil
	case pl[extLongerThan55Pos] != 0:
		ks := int(s[2]) - rlpNil
		if ks < 1 || ks > hashWidth+1 {
			return 0, 0, fmt.Errorf("%w: extension key of %d bytes", ErrWitness, ks)
		}
		return 3 + ks, nibbleCount(s[3], ks), nil
	default:
		ks := int(s[1]) - rlpNil
		if ks < 1 || ks > hashWidth+1 {
			return 0, 0, fmt.Errorf("%w: extension key of %d bytes", ErrWitness, ks)
		}
		return 2 + ks, nibbleCount(s[2], ks), nil
	}
}

// nibbleCount decodes how many nibbles a compact key of ks bytes holds, head
// byte included.
func nibbleCount(head byte, ks int) int {
	if head >= extKeyOddOffset && head < keyEvenPrefix {
		return 1 + 2*(ks-1)
	}
	return 2 * (ks - 1)
}

func (w *assigner) branchBlock(base int, rows []WitnessRow) error {
	c := w.c
	init := rows[branchInitOffset]
	pl := init.Payload()

	for i := 1; i <= branchChildren; i++ {
		if rows[i].Type() != rowTypeBranchChild {
			return fmt.Errorf("%w: row %d is not a branch child", ErrWitness, base+i)
		}
	}
	if rows[branchExtSOffset].Type() != rowTypeExtS || rows[branchExtCOffset].Type() != rowTypeExtC {
		return fmt.Errorf("%w: branch block at row %d lacks extension rows", ErrWitness, base)
	}

	isExt := false
	for p := extShortC16Pos; p <= extLongOddC1Pos; p++ {
		if pl[p] != 0 {
			isExt = true
		}
	}

	extFoldLen := 0
	if isExt {
		foldLen, nibbles, err := extKeyShape(init, rows[branchExtSOffset])
		if err != nil {
			return err
		}
		extFoldLen = foldLen
		for i := 0; i < nibbles; i++ {
			w.pushNibble(pathNibble(w.path, w.depth))
		}
	}
	modNibble := pathNibble(w.path, w.depth)
	w.pushNibble(modNibble)

	// init row
	w.assignPayload(base, init)
	w.setOne(c.branch.IsInit, base)
	w.setNotFirstLevel(base)

	accS, multS := c.foldBytes(fr.Element{}, fr.One(), pl[branchInitSHdrPos:branchInitSHdrPos+2]...)
	if pl[isSThreeRLPBytesPos] != 0 {
		accS, multS = c.foldBytes(fr.Element{}, fr.One(), pl[branchInitSHdrPos:branchInitSHdrPos+3]...)
	}
	accC, multC := c.foldBytes(fr.Element{}, fr.One(), pl[branchInitCHdrPos:branchInitCHdrPos+2]...)
	if pl[isCThreeRLPBytesPos] != 0 {
		accC, multC = c.foldBytes(fr.Element{}, fr.One(), pl[branchInitCHdrPos:branchInitCHdrPos+3]...)
	}
	w.set(c.accs.AccS.RLC, base, accS)
	w.set(c.accs.AccS.Mult, base, multS)
	w.set(c.accs.AccC.RLC, base, accC)
	w.set(c.accs.AccC.Mult, base, multC)

	// modified child bookkeeping, constant across the child rows
	modRow := rows[branchChildOffset+int(modNibble)]
	sNil := modRow.S()[1] == 0
	cNil := modRow.C()[1] == 0
	var sModHash, cModHash fr.Element
	if !sNil {
		sModHash = c.rlcBytes(modRow.S()[rlpNum:])
	}
	if !cNil {
		cModHash = c.rlcBytes(modRow.C()[rlpNum:])
	}

	for i := 0; i < branchChildren; i++ {
		row := base + branchChildOffset + i
		r := rows[branchChildOffset+i]
		w.assignPayload(row, r)
		w.setOne(c.branch.IsChild, row)
		w.setUint(c.branch.NodeIndex, row, uint64(i))
		w.setUint(c.branch.ModifiedNode, row, uint64(modNibble))
		if i == int(modNibble) {
			w.setOne(c.branch.IsModified, row)
		}
		if i == branchChildren-1 {
			w.setOne(c.branch.IsLastChild, row)
		}
		w.setNotFirstLevel(row)
		if sNil {
			w.setOne(c.denote.Sel1, row)
		}
		if cNil {
			w.setOne(c.denote.Sel2, row)
		}
		w.set(c.denote.SModNodeHashRLC, row, sModHash)
		w.set(c.denote.CModNodeHashRLC, row, cModHash)
		w.set(c.accs.Key.RLC, row, w.keyRLC)
		w.set(c.accs.Key.Mult, row, w.keyMult)

		if r.S()[1] == 0 {
			accS, multS = c.foldBytes(accS, multS, rlpNil)
		} else {
			accS, multS = c.foldBytes(accS, multS, append([]byte{rlpHashPrefix}, r.S()[rlpNum:]...)...)
		}
		if r.C()[1] == 0 {
			accC, multC = c.foldBytes(accC, multC, rlpNil)
		} else {
			accC, multC = c.foldBytes(accC, multC, append([]byte{rlpHashPrefix}, r.C()[rlpNum:]...)...)
		}
		w.set(c.accs.AccS.RLC, row, accS)
		w.set(c.accs.AccS.Mult, row, multS)
		w.set(c.accs.AccC.RLC, row, accC)
		w.set(c.accs.AccC.Mult, row, multC)
	}

	// extension rows
	extSRow, extCRow := base+branchExtSOffset, base+branchExtCOffset
	w.assignPayload(extSRow, rows[branchExtSOffset])
	w.assignPayload(extCRow, rows[branchExtCOffset])
	w.setOne(c.branch.IsExtS, extSRow)
	w.setOne(c.branch.IsExtC, extCRow)
	w.setNotFirstLevel(extSRow)
	w.setNotFirstLevel(extCRow)

	if isExt {
		keyPart := c.rlcBytes(rows[branchExtSOffset].S())
		multAfter := c.rPow(extFoldLen)
		accExtS, multExtS := c.foldBytes(keyPart, multAfter,
			append([]byte{rlpHashPrefix}, rows[branchExtSOffset].C()[rlpNum:]...)...)
		accExtC, multExtC := c.foldBytes(keyPart, multAfter,
			append([]byte{rlpHashPrefix}, rows[branchExtCOffset].C()[rlpNum:]...)...)
		w.set(c.accs.AccS.RLC, extSRow, accExtS)
		w.set(c.accs.AccS.Mult, extSRow, multExtS)
		w.set(c.accs.MultDiff, extSRow, multAfter)
		w.set(c.accs.AccC.RLC, extCRow, accExtC)
		w.set(c.accs.AccC.Mult, extCRow, multExtC)
	}

	w.nfl = true
	return nil
}

func (w *assigner) accountBlock(base int, rows []WitnessRow) error {
	c := w.c
	order := []struct {
		t    byte
		role plonkish.Column
	}{
		{rowTypeAccountKeyS, c.accountLeaf.IsKeyS},
		{rowTypeAccountKeyC, c.accountLeaf.IsKeyC},
		{rowTypeAccountNonExist, c.accountLeaf.IsNonExisting},
		{rowTypeAccountNonceBalS, c.accountLeaf.IsNonceBalanceS},
		{rowTypeAccountNonceBalC, c.accountLeaf.IsNonceBalanceC},
		{rowTypeAccountCodehashS, c.accountLeaf.IsStorageCodehashS},
		{rowTypeAccountCodehashC, c.accountLeaf.IsStorageCodehashC},
		{rowTypeAccountDrifted, c.accountLeaf.IsInAddedBranch},
	}
	for i, o := range order {
		if rows[i].Type() != o.t {
			return fmt.Errorf("%w: account block row %d has type %d, want %d",
				ErrWitness, base+i, rows[i].Type(), o.t)
		}
		w.assignPayload(base+i, rows[i])
		w.setOne(o.role, base+i)
		w.setNotFirstLevel(base + i)
	}

	// key rows
	type keyFold struct {
		acc  fr.Element
		mult fr.Element
	}
	foldKeyRow := func(r WitnessRow) (keyFold, error) {
		pl := r.Payload()
		if pl[0] != rlpList2 {
			return keyFold{}, fmt.Errorf("%w: account leaf header %d", ErrWitness, pl[0])
		}
		kl := int(pl[2]) - rlpNil
		if kl < 1 || kl > hashWidth+1 {
			return keyFold{}, fmt.Errorf("%w: account key of %d bytes", ErrWitness, kl)
		}
		return keyFold{acc: c.rlcBytes(pl[:rowLen/2+rlpNum]), mult: c.rPow(3 + kl)}, nil
	}
	sFold, err := foldKeyRow(rows[accountKeySInd])
	if err != nil {
		return err
	}
	cFold, err := foldKeyRow(rows[accountKeyCInd])
	if err != nil {
		return err
	}
	w.set(c.accs.AccS.RLC, base+accountKeySInd, sFold.acc)
	w.set(c.accs.AccS.Mult, base+accountKeySInd, sFold.mult)
	w.set(c.accs.AccC.RLC, base+accountKeyCInd, cFold.acc)
	w.set(c.accs.AccC.Mult, base+accountKeyCInd, cFold.mult)

	keyTail := func(r WitnessRow) (byte, []byte) {
		pl := r.Payload()
		return pl[3], pl[4 : rowLen/2+rlpNum]
	}
	headS, tailS := keyTail(rows[accountKeySInd])
	w.set(c.accs.Key.RLC, base+accountKeySInd, w.leafKeyRLC(headS, tailS))
	headC, tailC := keyTail(rows[accountKeyCInd])
	w.set(c.accs.Key.RLC, base+accountKeyCInd, w.leafKeyRLC(headC, tailC))

	// non-existing row machinery, wrong-leaf shape only
	ne := rows[accountNonExistingInd]
	if w.proof.Type == ProofAccountDoesNotExist && ne.Payload()[0] != 0 {
		sum := c.rlcBytes(ne.Payload()[3 : rowLen/2+rlpNum])
		sumPrev := c.rlcBytes(rows[accountKeyCInd].Payload()[3 : rowLen/2+rlpNum])
		var diff, diffInv fr.Element
		diff.Sub(&sum, &sumPrev)
		if !diff.IsZero() {
			diffInv.Inverse(&diff)
		}
		// equal keys leave diffInv zero and the nonzero gadget unsatisfied
		w.set(c.accs.Key.RLC, base+accountNonExistingInd, sum)
		w.set(c.accs.Key.Mult, base+accountNonExistingInd, sumPrev)
		w.set(c.accs.AccS.RLC, base+accountNonExistingInd, diffInv)
	}

	// nonce-balance rows
	encLen := func(head byte) int {
		if head >= rlpNil {
			return 1 + int(head) - rlpNil
		}
		return 1
	}
	foldNB := func(r WitnessRow, prev keyFold) (keyFold, int, int) {
		pl := r.Payload()
		hdr := []byte{pl[0], pl[1], pl[rowLen/2], pl[rowLen/2+1]}
		mid, mult4 := c.foldBytes(prev.acc, prev.mult, hdr...)
		nonce := pl[rlpNum : rowLen/2]
		bal := pl[rowLen/2+rlpNum:]
		nl, bl := encLen(nonce[0]), encLen(bal[0])
		mid, _ = c.foldBytes(mid, mult4, nonce...)
		var balMult fr.Element
		nMult := c.rPow(nl)
		balMult.Mul(&mult4, &nMult)
		acc, _ := c.foldBytes(mid, balMult, bal...)
		var end fr.Element
		bMult := c.rPow(bl)
		end.Mul(&balMult, &bMult)
		return keyFold{acc: acc, mult: end}, nl, bl
	}

	nbs, nbc := rows[accountNonceBalanceSInd], rows[accountNonceBalanceCInd]
	sNB, snl, sbl := foldNB(nbs, sFold)
	cNB, cnl, cbl := foldNB(nbc, cFold)
	rowNBS, rowNBC := base+accountNonceBalanceSInd, base+accountNonceBalanceCInd

	w.set(c.accs.AccS.RLC, rowNBS, sNB.acc)
	w.set(c.accs.AccS.Mult, rowNBS, sNB.mult)
	w.set(c.accs.MultDiff, rowNBS, c.rPow(snl))
	w.set(c.denote.SModNodeHashRLC, rowNBS, c.rPow(sbl))
	if nbs.Payload()[rlpNum] >= rlpNil {
		w.setOne(c.denote.Sel1, rowNBS)
	}
	if nbs.Payload()[rowLen/2+rlpNum] >= rlpNil {
		w.setOne(c.denote.Sel2, rowNBS)
	}

	w.set(c.accs.AccC.RLC, rowNBC, cNB.acc)
	w.set(c.accs.AccC.Mult, rowNBC, cNB.mult)
	w.set(c.accs.MultDiff, rowNBC, c.rPow(cnl))
	w.set(c.denote.SModNodeHashRLC, rowNBC, c.rPow(cbl))
	if nbc.Payload()[rlpNum] >= rlpNil {
		w.setOne(c.denote.Sel1, rowNBC)
	}
	if nbc.Payload()[rowLen/2+rlpNum] >= rlpNil {
		w.setOne(c.denote.Sel2, rowNBC)
	}

	// the codehash rows read the completed S pair one rotation back
	w.set(c.accs.AccS.RLC, rowNBC, sNB.acc)
	w.set(c.accs.AccS.Mult, rowNBC, sNB.mult)

	// storage-codehash rows
	foldSCH := func(r WitnessRow, prev keyFold) fr.Element {
		pl := r.Payload()
		stream := append([]byte{rlpHashPrefix}, pl[rlpNum:rowLen/2]...)
		stream = append(stream, rlpHashPrefix)
		stream = append(stream, pl[rowLen/2+rlpNum:]...)
		acc, _ := c.foldBytes(prev.acc, prev.mult, stream...)
		return acc
	}
	w.set(c.accs.AccS.RLC, base+accountStorageCodehashSInd, foldSCH(rows[accountStorageCodehashSInd], sNB))
	w.set(c.accs.AccC.RLC, base+accountStorageCodehashCInd, foldSCH(rows[accountStorageCodehashCInd], cNB))

	// past the account the path continues into its storage trie
	if w.proof.Type == ProofStorageChanged || w.proof.Type == ProofStorageDoesNotExist {
		w.path = crypto.Keccak256(w.proof.StorageSlot[:])
		w.depth = 0
		w.keyRLC.SetZero()
		w.keyMult.SetOne()
	}
	w.nfl = true
	return nil
}

func (w *assigner) storageBlock(base int, rows []WitnessRow) error {
	c := w.c
	order := []struct {
		t    byte
		role plonkish.Column
	}{
		{rowTypeLeafKeyS, c.storageLeaf.IsKeyS},
		{rowTypeLeafValueS, c.storageLeaf.IsValueS},
		{rowTypeLeafKeyC, c.storageLeaf.IsKeyC},
		{rowTypeLeafValueC, c.storageLeaf.IsValueC},
		{rowTypeLeafDrifted, c.storageLeaf.IsInAddedBranch},
	}
	for i, o := range order {
		if rows[i].Type() != o.t {
			return fmt.Errorf("%w: storage block row %d has type %d, want %d",
				ErrWitness, base+i, rows[i].Type(), o.t)
		}
		w.assignPayload(base+i, rows[i])
		w.setOne(o.role, base+i)
		w.setNotFirstLevel(base + i)
	}

	type leafFold struct {
		acc  fr.Element
		mult fr.Element
	}
	foldKeyRow := func(r WitnessRow, row int) (leafFold, error) {
		pl := r.Payload()
		long := pl[0] == rlpList2
		var prefix int
		if long {
			w.setOne(c.storageLeaf.IsLong, row)
			prefix = 3 + int(pl[2]) - rlpNil
		} else {
			prefix = 2 + int(pl[1]) - rlpNil
		}
		if prefix < 2 || prefix > rowLen/2+rlpNum {
			return leafFold{}, fmt.Errorf("%w: leaf key prefix of %d cells", ErrWitness, prefix)
		}
		f := leafFold{acc: c.rlcBytes(pl[:rowLen/2+rlpNum]), mult: c.rPow(prefix)}
		w.set(c.accs.AccS.RLC, row, f.acc)
		w.set(c.accs.AccS.Mult, row, f.mult)

		head, tail := pl[2], pl[3:rowLen/2+1]
		if long {
			head, tail = pl[3], pl[4:rowLen/2+rlpNum]
		}
		w.set(c.accs.Key.RLC, row, w.leafKeyRLC(head, tail))
		return f, nil
	}
	foldValueRow := func(r WitnessRow, row int, key leafFold) {
		pl := r.Payload()
		acc, _ := c.foldBytes(key.acc, key.mult, pl[:rowLen/2]...)
		w.set(c.accs.AccS.RLC, row, acc)
		if pl[0] >= rlpNil {
			w.setOne(c.storageLeaf.IsLong, row)
			w.set(c.accs.AccC.RLC, row, c.rlcBytes(pl[1:rowLen/2]))
		} else {
			var v fr.Element
			v.SetUint64(uint64(pl[0]))
			w.set(c.accs.AccC.RLC, row, v)
		}
	}

	sKey, err := foldKeyRow(rows[leafKeySInd], base+leafKeySInd)
	if err != nil {
		return err
	}
	foldValueRow(rows[leafValueSInd], base+leafValueSInd, sKey)
	cKey, err := foldKeyRow(rows[leafKeyCInd], base+leafKeyCInd)
	if err != nil {
		return err
	}
	foldValueRow(rows[leafValueCInd], base+leafValueCInd, cKey)
	return nil
}

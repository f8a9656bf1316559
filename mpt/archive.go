package mpt

import (
	"bytes"
	"fmt"
	"io"

	"github.com/blang/semver/v4"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/ethereum/go-ethereum/common"
	"github.com/fxamacker/cbor/v2"

	"github.com/zkevm/circuits"
	"github.com/zkevm/circuits/logger"
)

// archive is the wire shape of a Proof: CBOR, prefixed with the module
// version and the scalar field so readers can reject foreign payloads before
// touching the rows.
type archive struct {
	Version     string
	ScalarField string

	Type        int
	Address     []byte
	StorageSlot []byte
	StartRoot   []byte
	FinalRoot   []byte
	Rows        [][]byte
	Nodes       [][]byte
}

var (
	_ io.WriterTo   = (*Proof)(nil)
	_ io.ReaderFrom = (*Proof)(nil)
)

// WriteTo serializes the proof as a witness archive.
func (p *Proof) WriteTo(w io.Writer) (int64, error) {
	em, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		return 0, err
	}

	ar := archive{
		Version:     circuits.Version.String(),
		ScalarField: fr.Modulus().Text(16),
		Type:        p.Type,
		Address:     p.Address[:],
		StorageSlot: p.StorageSlot[:],
		StartRoot:   p.StartRoot[:],
		FinalRoot:   p.FinalRoot[:],
		Rows:        make([][]byte, len(p.Rows)),
		Nodes:       p.Nodes,
	}
	for i := range p.Rows {
		ar.Rows[i] = p.Rows[i]
	}

	var buf bytes.Buffer
	if err := em.NewEncoder(&buf).Encode(&ar); err != nil {
		return 0, err
	}
	return buf.WriteTo(w)
}

// ReadFrom deserializes a proof written by WriteTo. A module version mismatch
// only warns; a foreign scalar field or a malformed proof shape is an error.
func (p *Proof) ReadFrom(r io.Reader) (int64, error) {
	dm, err := cbor.DecOptions{
		MaxArrayElements: 2147483647,
		MaxMapPairs:      2147483647,
	}.DecMode()
	if err != nil {
		return 0, err
	}

	dec := dm.NewDecoder(r)
	var ar archive
	if err := dec.Decode(&ar); err != nil {
		return int64(dec.NumBytesRead()), err
	}
	n := int64(dec.NumBytesRead())

	if err := ar.checkHeader(); err != nil {
		return n, err
	}

	if len(ar.Address) != common.AddressLength {
		return n, fmt.Errorf("%w: address has %d bytes", ErrWitness, len(ar.Address))
	}
	copy(p.Address[:], ar.Address)
	for _, h := range []struct {
		name string
		dst  *common.Hash
		src  []byte
	}{
		{"storage slot", &p.StorageSlot, ar.StorageSlot},
		{"start root", &p.StartRoot, ar.StartRoot},
		{"final root", &p.FinalRoot, ar.FinalRoot},
	} {
		if len(h.src) != common.HashLength {
			return n, fmt.Errorf("%w: %s has %d bytes", ErrWitness, h.name, len(h.src))
		}
		copy(h.dst[:], h.src)
	}

	p.Type = ar.Type
	p.Rows = make([]WitnessRow, len(ar.Rows))
	for i := range ar.Rows {
		p.Rows[i] = WitnessRow(ar.Rows[i])
	}
	p.Nodes = ar.Nodes

	return n, p.validate()
}

func (ar *archive) checkHeader() error {
	object, err := semver.Parse(ar.Version)
	if err != nil {
		return fmt.Errorf("when parsing archive version: %w", err)
	}
	if circuits.Version.Compare(object) != 0 {
		log := logger.Logger()
		log.Warn().
			Str("binary", circuits.Version.String()).
			Str("archive", object.String()).
			Msg("witness archive version mismatch, no compatibility guarantees")
	}
	if ar.ScalarField != fr.Modulus().Text(16) {
		return fmt.Errorf("unsupported scalar field %s", ar.ScalarField)
	}
	return nil
}

package withdrawal

import (
	"math/big"
	"strconv"
	"sync"

	"github.com/privacypool/client-sdk/types"
	"go.vocdoni.io/dvote/log"
)

// Proof is a Groth16 zkSNARK proof, mirroring the wire shape produced by
// common snarkjs-compatible provers.
type Proof struct {
	A        [3]*big.Int    `json:"pi_a"`
	B        [3][2]*big.Int `json:"pi_b"`
	C        [3]*big.Int    `json:"pi_c"`
	Protocol string         `json:"protocol"`
}

// Backend is the black-box Groth16 prover/verifier this module hands
// assembled inputs to. fullProve and verify are treated as opaque
// functions; this module never implements the cryptographic protocol
// itself.
type Backend interface {
	FullProve(inputs map[string]interface{}, wasm, zkey []byte) (*Proof, []string, error)
	Verify(vkey []byte, publicSignals []string, proof *Proof) (bool, error)
}

// FileLoader reads a circuit artifact (WASM, zkey, or vkey) from wherever
// it is stored. Kept as a narrow interface so callers can back it with a
// filesystem, an embedded asset bundle, or a remote fetch.
type FileLoader interface {
	Load(path string) ([]byte, error)
}

// CircuitFiles names the three artifacts a withdrawal proof needs.
type CircuitFiles struct {
	WasmPath string
	ZkeyPath string
	VkeyPath string
}

// Prover wraps a Backend with lazy, memoized loading of circuit files:
// they are read-only once loaded, and loading happens behind the first
// call to Prove.
type Prover struct {
	Backend Backend
	Loader  FileLoader
	Files   CircuitFiles

	once    sync.Once
	loadErr error
	wasm    []byte
	zkey    []byte
	vkey    []byte
}

func (p *Prover) loadFiles() error {
	p.once.Do(func() {
		if p.Loader == nil {
			log.Errorf("prover: no file loader configured")
			p.loadErr = types.NewError(types.KindCircuitFilesUnavailable, "prover: no file loader configured", nil)
			return
		}
		wasm, err := p.Loader.Load(p.Files.WasmPath)
		if err != nil {
			log.Errorf("prover: load wasm %q: %v", p.Files.WasmPath, err)
			p.loadErr = types.NewError(types.KindCircuitFilesUnavailable, "prover: load wasm", err)
			return
		}
		zkey, err := p.Loader.Load(p.Files.ZkeyPath)
		if err != nil {
			log.Errorf("prover: load zkey %q: %v", p.Files.ZkeyPath, err)
			p.loadErr = types.NewError(types.KindCircuitFilesUnavailable, "prover: load zkey", err)
			return
		}
		vkey, err := p.Loader.Load(p.Files.VkeyPath)
		if err != nil {
			log.Errorf("prover: load vkey %q: %v", p.Files.VkeyPath, err)
			p.loadErr = types.NewError(types.KindCircuitFilesUnavailable, "prover: load vkey", err)
			return
		}
		p.wasm, p.zkey, p.vkey = wasm, zkey, vkey
		log.Debugf("prover: circuit files loaded (wasm=%q, zkey=%q, vkey=%q)", p.Files.WasmPath, p.Files.ZkeyPath, p.Files.VkeyPath)
	})
	return p.loadErr
}

// Prove generates a proof for record and self-verifies it before
// returning. A verification failure is always fatal — it signals
// parameter-set drift between the circuit and this SDK, never a
// retryable condition.
func (p *Prover) Prove(record *types.InputRecord) (*Proof, []string, error) {
	if err := p.loadFiles(); err != nil {
		return nil, nil, err
	}

	proof, publicSignals, err := p.Backend.FullProve(InputRecordToSignals(record), p.wasm, p.zkey)
	if err != nil {
		log.Errorf("prover: fullProve failed: %v", err)
		return nil, nil, types.NewError(types.KindProofVerificationFailed, "prover: fullProve failed", err)
	}

	ok, err := p.Backend.Verify(p.vkey, publicSignals, proof)
	if err != nil {
		log.Errorf("prover: verify errored: %v", err)
		return nil, nil, types.NewError(types.KindProofVerificationFailed, "prover: verify errored", err)
	}
	if !ok {
		log.Errorf("prover: self-verification failed, proof and verification key parameters have drifted")
		return nil, nil, types.NewError(types.KindProofVerificationFailed, "prover: self-verification failed", nil)
	}

	log.Debugf("prover: proof generated and self-verified")
	return proof, publicSignals, nil
}

// InputRecordToSignals flattens an InputRecord into the named signal map
// a snarkjs-style fullProve call expects: field elements, indices and
// depths all as decimal strings.
func InputRecordToSignals(r *types.InputRecord) map[string]interface{} {
	m := map[string]interface{}{
		"withdrawnValue":    decString(r.WithdrawnValue),
		"stateRoot":         decString(r.StateRoot),
		"ASPRoot":           decString(r.ASPRoot),
		"stateTreeDepth":    strconv.Itoa(r.StateTreeDepth),
		"ASPTreeDepth":      strconv.Itoa(r.ASPTreeDepth),
		"context":           decString(r.Context),
		"label":             decString(r.Label),
		"existingValue":     decString(r.ExistingValue),
		"existingNullifier": decString(r.ExistingNullifier),
		"existingSecret":    decString(r.ExistingSecret),
		"newNullifier":      decString(r.NewNullifier),
		"newSecret":         decString(r.NewSecret),
		"stateSiblings":     decStrings(r.StateSiblings[:]),
		"ASPSiblings":       decStrings(r.ASPSiblings[:]),
		"stateIndex":        strconv.Itoa(r.StateIndex),
		"ASPIndex":          strconv.Itoa(r.ASPIndex),
	}
	if r.RefundNullifier != nil {
		m["refundNullifier"] = decString(r.RefundNullifier)
	}
	if r.RefundSecret != nil {
		m["refundSecret"] = decString(r.RefundSecret)
	}
	return m
}

func decString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

func decStrings(vs []*big.Int) []string {
	out := make([]string, len(vs))
	for i, v := range vs {
		out[i] = decString(v)
	}
	return out
}

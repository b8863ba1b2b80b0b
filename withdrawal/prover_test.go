package withdrawal

import (
	"math/big"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/privacypool/client-sdk/types"
)

type fakeLoader struct {
	calls int
	files map[string][]byte
}

func (f *fakeLoader) Load(path string) ([]byte, error) {
	f.calls++
	return f.files[path], nil
}

type fakeBackend struct {
	verifyResult bool
	verifyErr    error
}

func (b *fakeBackend) FullProve(inputs map[string]interface{}, wasm, zkey []byte) (*Proof, []string, error) {
	return &Proof{Protocol: "groth16"}, []string{inputs["context"].(string)}, nil
}

func (b *fakeBackend) Verify(vkey []byte, publicSignals []string, proof *Proof) (bool, error) {
	return b.verifyResult, b.verifyErr
}

func sampleRecord() *types.InputRecord {
	r := &types.InputRecord{
		WithdrawnValue:    big.NewInt(1),
		StateRoot:         big.NewInt(2),
		ASPRoot:           big.NewInt(3),
		StateTreeDepth:    1,
		ASPTreeDepth:      1,
		Context:           big.NewInt(4),
		Label:             big.NewInt(5),
		ExistingValue:     big.NewInt(6),
		ExistingNullifier: big.NewInt(7),
		ExistingSecret:    big.NewInt(8),
		NewNullifier:      big.NewInt(9),
		NewSecret:         big.NewInt(10),
		StateIndex:        0,
		ASPIndex:          0,
	}
	for i := range r.StateSiblings {
		r.StateSiblings[i] = big.NewInt(0)
		r.ASPSiblings[i] = big.NewInt(0)
	}
	return r
}

func TestProverMemoizesFileLoads(t *testing.T) {
	c := qt.New(t)

	loader := &fakeLoader{files: map[string][]byte{"w": []byte("wasm"), "z": []byte("zkey"), "v": []byte("vkey")}}
	p := &Prover{
		Backend: &fakeBackend{verifyResult: true},
		Loader:  loader,
		Files:   CircuitFiles{WasmPath: "w", ZkeyPath: "z", VkeyPath: "v"},
	}

	_, _, err := p.Prove(sampleRecord())
	c.Assert(err, qt.IsNil)
	_, _, err = p.Prove(sampleRecord())
	c.Assert(err, qt.IsNil)

	c.Assert(loader.calls, qt.Equals, 3)
}

func TestProverSelfVerificationFailureIsFatal(t *testing.T) {
	c := qt.New(t)

	loader := &fakeLoader{files: map[string][]byte{"w": nil, "z": nil, "v": nil}}
	p := &Prover{
		Backend: &fakeBackend{verifyResult: false},
		Loader:  loader,
		Files:   CircuitFiles{WasmPath: "w", ZkeyPath: "z", VkeyPath: "v"},
	}

	_, _, err := p.Prove(sampleRecord())
	c.Assert(types.IsKind(err, types.KindProofVerificationFailed), qt.IsTrue)
}

func TestProverMissingLoaderIsCircuitFilesUnavailable(t *testing.T) {
	c := qt.New(t)

	p := &Prover{Backend: &fakeBackend{verifyResult: true}}

	_, _, err := p.Prove(sampleRecord())
	c.Assert(types.IsKind(err, types.KindCircuitFilesUnavailable), qt.IsTrue)
}

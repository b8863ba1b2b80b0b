package withdrawal

import (
	"math/big"

	"github.com/privacypool/client-sdk/imt"
	"github.com/privacypool/client-sdk/note"
	"github.com/privacypool/client-sdk/types"
	"go.vocdoni.io/dvote/log"
)

// circuitSiblingDepth is the circuit's hard-wired proof depth. Proofs
// generated against a shallower live tree are padded with field-zero up
// to this length; the circuit is told the real depth separately via
// StateTreeDepth/ASPTreeDepth.
const circuitSiblingDepth = 32

// Request bundles everything AssembleInput needs: the selected spendable
// note, the withdrawal intent, and the indexer-supplied leaves for both
// trees consumed by the circuit.
type Request struct {
	AccountKey     *big.Int
	Note           *types.Note
	WithdrawnValue *big.Int
	WithdrawalData types.WithdrawalData
	PoolScope      types.PoolScope

	// CrossChain selects whether a refund nullifier/secret pair is
	// derived and included in the resulting record.
	CrossChain bool

	StateTreeLeaves []*big.Int
	ApprovedLabels  []*big.Int
}

// BuildContext computes the WithdrawalContext for req: the context hash,
// the existing commitment's nullifier/secret/value, the next change
// note's nullifier/secret, and — for cross-chain withdrawals — the
// refund nullifier/secret/commitment.
func BuildContext(req *Request) (*types.WithdrawalContext, error) {
	n := req.Note
	if n.IsPending() {
		log.Errorf("withdrawal: deposit index=%d pool=%s is still pending, cannot build context", n.DepositIndex, n.PoolAddress.Hex())
		return nil, types.NewError(types.KindInvalidKey, "withdrawal: note is still pending", nil)
	}
	if req.WithdrawnValue == nil || req.WithdrawnValue.Sign() <= 0 || req.WithdrawnValue.Cmp(n.Amount) > 0 {
		log.Errorf("withdrawal: deposit index=%d pool=%s requested value out of range", n.DepositIndex, n.PoolAddress.Hex())
		return nil, types.NewError(types.KindInvalidKey, "withdrawal: withdrawn value must be in (0, note.Amount]", nil)
	}

	contextHash, err := ContextHash(req.WithdrawalData, req.PoolScope)
	if err != nil {
		return nil, err
	}

	existingNullifier, existingSecret, err := note.NullifierSecretForCoordinate(req.AccountKey, n.Coordinate)
	if err != nil {
		return nil, err
	}
	precommitment, err := note.Precommitment(existingNullifier, existingSecret)
	if err != nil {
		return nil, err
	}
	existingCommitment, err := note.Commitment(n.Amount, n.Label, precommitment)
	if err != nil {
		return nil, err
	}

	newNullifier, err := note.DeriveChangeNullifier(req.AccountKey, n.PoolAddress, n.DepositIndex, n.ChangeIndex+1)
	if err != nil {
		return nil, err
	}
	newSecret, err := note.DeriveChangeSecret(req.AccountKey, n.PoolAddress, n.DepositIndex, n.ChangeIndex+1)
	if err != nil {
		return nil, err
	}

	wc := &types.WithdrawalContext{
		Context:            contextHash,
		ExistingNullifier:  existingNullifier,
		ExistingSecret:     existingSecret,
		ExistingValue:      n.Amount,
		ExistingCommitment: existingCommitment,
		Label:              n.Label,
		NewNullifier:       newNullifier,
		NewSecret:          newSecret,
	}

	if req.CrossChain {
		refundNullifier, err := note.DeriveRefundNullifier(req.AccountKey, n.PoolAddress, n.DepositIndex, n.ChangeIndex+1)
		if err != nil {
			return nil, err
		}
		refundSecret, err := note.DeriveRefundSecret(req.AccountKey, n.PoolAddress, n.DepositIndex, n.ChangeIndex+1)
		if err != nil {
			return nil, err
		}
		refundPre, err := note.Precommitment(refundNullifier, refundSecret)
		if err != nil {
			return nil, err
		}
		// The refund note covers the original spendable value, not the
		// withdrawn amount, so the user can recover funds if the
		// destination fill fails. The circuit enforces amount equality.
		refundCommitment, err := note.Commitment(n.Amount, n.Label, refundPre)
		if err != nil {
			return nil, err
		}
		wc.RefundNullifier = refundNullifier
		wc.RefundSecret = refundSecret
		wc.RefundCommitment = refundCommitment
	}

	return wc, nil
}

// AssembleInput builds the full Groth16 input record for req: it derives
// the withdrawal context, builds the state and approved-set trees from
// the supplied leaves, locates the existing commitment and label within
// them, and pads both inclusion proofs to the circuit's fixed depth.
func AssembleInput(req *Request) (*types.InputRecord, error) {
	wc, err := BuildContext(req)
	if err != nil {
		return nil, err
	}

	stateTree, err := imt.NewFromLeaves(req.StateTreeLeaves)
	if err != nil {
		return nil, err
	}
	aspTree, err := imt.NewFromLeaves(req.ApprovedLabels)
	if err != nil {
		return nil, err
	}

	stateIndex := stateTree.IndexOf(wc.ExistingCommitment)
	if stateIndex < 0 {
		log.Errorf("withdrawal: existing commitment absent from state tree (deposit index=%d, %d leaves supplied)",
			req.Note.DepositIndex, len(req.StateTreeLeaves))
		return nil, types.NewError(types.KindCommitmentNotInStateTree, "withdrawal: existing commitment absent from state tree", nil)
	}
	aspIndex := aspTree.IndexOf(wc.Label)
	if aspIndex < 0 {
		log.Errorf("withdrawal: label %s absent from approved-set tree (%d leaves supplied)", wc.Label, len(req.ApprovedLabels))
		return nil, types.NewError(types.KindLabelNotInApprovedTree, "withdrawal: label absent from approved-set tree", nil)
	}

	stateProof, err := stateTree.GenProof(stateIndex)
	if err != nil {
		return nil, err
	}
	aspProof, err := aspTree.GenProof(aspIndex)
	if err != nil {
		return nil, err
	}

	record := &types.InputRecord{
		WithdrawnValue:    req.WithdrawnValue,
		StateRoot:         stateTree.Root(),
		ASPRoot:           aspTree.Root(),
		StateTreeDepth:    stateTree.Depth(),
		ASPTreeDepth:      aspTree.Depth(),
		Context:           wc.Context,
		Label:             wc.Label,
		ExistingValue:     wc.ExistingValue,
		ExistingNullifier: wc.ExistingNullifier,
		ExistingSecret:    wc.ExistingSecret,
		NewNullifier:      wc.NewNullifier,
		NewSecret:         wc.NewSecret,
		RefundNullifier:   wc.RefundNullifier,
		RefundSecret:      wc.RefundSecret,
		StateIndex:        naNGuard(stateIndex, stateTree.Depth()),
		ASPIndex:          naNGuard(aspIndex, aspTree.Depth()),
	}

	padSiblings(&record.StateSiblings, stateProof.Siblings)
	padSiblings(&record.ASPSiblings, aspProof.Siblings)

	return record, nil
}

// padSiblings copies src into dst, filling any entry beyond src's length
// (or any single-child-propagation nil within src) with field-zero, up to
// the circuit's fixed depth.
func padSiblings(dst *[circuitSiblingDepth]*big.Int, src []*big.Int) {
	for i := 0; i < circuitSiblingDepth; i++ {
		if i < len(src) && src[i] != nil {
			dst[i] = src[i]
		} else {
			dst[i] = big.NewInt(0)
		}
	}
}

// naNGuard returns 0 when depth is 0 (the degenerate single-leaf tree,
// where a real index would otherwise be NaN in the source
// implementation), and index otherwise.
func naNGuard(index, depth int) int {
	if depth == 0 {
		return 0
	}
	return index
}

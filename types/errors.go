package types

import "fmt"

// ErrorKind is a short machine-readable error category that callers can
// branch on without parsing Detail strings.
type ErrorKind string

const (
	// KindInvalidKey marks an unparseable user key input, and is also used
	// for other invalid caller input: a malformed note coordinate, an
	// out-of-range tree index, a pending note or out-of-range value in a
	// withdrawal request, or a context tuple that cannot be ABI-encoded.
	KindInvalidKey ErrorKind = "invalid_key"
	// KindInvalidMnemonic marks a mnemonic that does not form a valid
	// BIP-39 phrase.
	KindInvalidMnemonic ErrorKind = "invalid_mnemonic"
	// KindCancelled marks a discovery run aborted via a cancellation
	// signal. Non-fatal: the last checkpoint remains valid.
	KindCancelled ErrorKind = "cancelled"
	// KindCommitmentNotInStateTree marks a withdrawal attempt whose
	// selected note's commitment is absent from the supplied state-tree
	// leaves.
	KindCommitmentNotInStateTree ErrorKind = "commitment_not_in_state_tree"
	// KindLabelNotInApprovedTree marks a withdrawal attempt whose note's
	// label is absent from the supplied approved-set leaves.
	KindLabelNotInApprovedTree ErrorKind = "label_not_in_approved_tree"
	// KindProofVerificationFailed marks a Groth16 proving or
	// self-verification failure. Always fatal; never retried with
	// different parameters.
	KindProofVerificationFailed ErrorKind = "proof_verification_failed"
	// KindCircuitFilesUnavailable marks a prover invoked without a file
	// loader configured.
	KindCircuitFilesUnavailable ErrorKind = "circuit_files_unavailable"
	// KindStorageError wraps a NoteStorageProvider failure.
	KindStorageError ErrorKind = "storage_error"
	// KindFetcherError wraps an ActivityFetcher failure.
	KindFetcherError ErrorKind = "fetcher_error"
)

// Error is the typed error this module returns for the failures it
// classifies: a short machine-readable Kind plus a human-readable Detail,
// wrapping the underlying cause when there is one. Errors passed up
// unchanged from a dependency (a hash, a database or a node call) are not
// wrapped in an Error.
type Error struct {
	Kind   ErrorKind
	Detail string
	Err    error
}

// NewError builds an *Error. err may be nil.
func NewError(kind ErrorKind, detail string, err error) *Error {
	return &Error{Kind: kind, Detail: detail, Err: err}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Detail, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

// Unwrap lets errors.Is/errors.As see through to the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error with the same Kind, so callers can
// write errors.Is(err, types.NewError(types.KindCancelled, "", nil)) or,
// more conveniently, use IsKind below.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// IsKind reports whether err is a *Error of the given Kind.
func IsKind(err error, kind ErrorKind) bool {
	var e *Error
	for err != nil {
		if ae, ok := err.(*Error); ok {
			e = ae
			break
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	return e != nil && e.Kind == kind
}

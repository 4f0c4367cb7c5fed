package interfaces

import (
	"context"

	"github.com/cyphera/cyphera-delegation/libs/go/types/business"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// ChainStateReader reads account and fee-market state from the ledger
type ChainStateReader interface {
	ChainID(ctx context.Context) (uint64, error)
	GetTransactionCount(ctx context.Context, address common.Address) (uint64, error)
	GetCode(ctx context.Context, address common.Address) ([]byte, error)
	GetFeeEstimate(ctx context.Context) (business.FeeParameters, error)
	GetAccountState(ctx context.Context, address common.Address) (business.AccountState, error)
}

// AuthorizationBuilder produces signed authorization tuples
type AuthorizationBuilder interface {
	BuildAuthorization(owner SigningIdentity, delegate common.Address, chainID uint64, observedNonce uint64, policy business.NoncePolicy) (business.AuthorizationTuple, error)
}

// TransactionAssembler wraps an authorization into a set-code envelope and signs it
type TransactionAssembler interface {
	AssembleTransaction(auth business.AuthorizationTuple, feePayer SigningIdentity, feePayerNonce uint64, recipient common.Address, fees business.FeeParameters, gasLimit uint64) (*business.DelegationTransaction, error)
	Sign(tx *business.DelegationTransaction, feePayer SigningIdentity) (*types.Transaction, error)
}

// SubmissionTracker broadcasts a signed envelope and waits for inclusion
type SubmissionTracker interface {
	Submit(ctx context.Context, signed *types.Transaction) (common.Hash, error)
	AwaitInclusion(ctx context.Context, hash common.Hash, watch business.InclusionWatch, poll business.PollPolicy) (*business.DelegationOutcome, error)
}

// DelegationRunner runs complete install and revoke workflows
type DelegationRunner interface {
	Install(ctx context.Context, req business.DelegationRequest) (*business.DelegationOutcome, error)
	Revoke(ctx context.Context, req business.DelegationRequest) (*business.DelegationOutcome, error)
	Inspect(ctx context.Context, address common.Address) (business.AccountState, error)
	Owner() common.Address
}

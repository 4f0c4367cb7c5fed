package services

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"

	"github.com/cyphera/cyphera-delegation/libs/go/apperrors"
	"github.com/cyphera/cyphera-delegation/libs/go/constants"
	"github.com/cyphera/cyphera-delegation/libs/go/interfaces"
	"github.com/cyphera/cyphera-delegation/libs/go/logger"
	"github.com/cyphera/cyphera-delegation/libs/go/types/business"
)

// WorkflowOption represents a function that can modify the workflow
type WorkflowOption func(*DelegationWorkflow)

// WithFeePayer sets a separate identity that signs and pays for the
// delegation transaction. Without it the owner pays.
func WithFeePayer(feePayer interfaces.SigningIdentity) WorkflowOption {
	return func(w *DelegationWorkflow) {
		if feePayer != nil {
			w.feePayer = feePayer
		}
	}
}

// WithExpectedChainID makes every run fail unless the node reports chainID.
func WithExpectedChainID(chainID uint64) WorkflowOption {
	return func(w *DelegationWorkflow) {
		w.expectedChainID = chainID
	}
}

// WithFixedFees uses fees as-is instead of asking the node for an estimate.
func WithFixedFees(fees business.FeeParameters) WorkflowOption {
	return func(w *DelegationWorkflow) {
		w.fixedFees = &fees
	}
}

// WithEnvelopeHook registers fn to observe each unsigned envelope before signing.
func WithEnvelopeHook(fn func(*business.DelegationTransaction)) WorkflowOption {
	return func(w *DelegationWorkflow) {
		w.envelopeHook = fn
	}
}

// WithComponents replaces the default services. Nil arguments keep the default.
func WithComponents(chain interfaces.ChainStateReader, builder interfaces.AuthorizationBuilder, assembler interfaces.TransactionAssembler, tracker interfaces.SubmissionTracker) WorkflowOption {
	return func(w *DelegationWorkflow) {
		if chain != nil {
			w.chain = chain
		}
		if builder != nil {
			w.builder = builder
		}
		if assembler != nil {
			w.assembler = assembler
		}
		if tracker != nil {
			w.tracker = tracker
		}
	}
}

// DelegationWorkflow runs the sequential install and revoke flow:
// read nonce, build authorization, assemble, sign, broadcast, poll.
//
// A workflow is bound to one owner. Runs for the same owner must be
// serialized by the caller.
type DelegationWorkflow struct {
	owner           interfaces.SigningIdentity
	feePayer        interfaces.SigningIdentity
	chain           interfaces.ChainStateReader
	builder         interfaces.AuthorizationBuilder
	assembler       interfaces.TransactionAssembler
	tracker         interfaces.SubmissionTracker
	expectedChainID uint64
	fixedFees       *business.FeeParameters
	envelopeHook    func(*business.DelegationTransaction)
	logger          *logger.StructuredLogger
}

var _ interfaces.DelegationRunner = (*DelegationWorkflow)(nil)

// NewDelegationWorkflow wires the default services over client for owner.
func NewDelegationWorkflow(client interfaces.LedgerClient, owner interfaces.SigningIdentity, options ...WorkflowOption) *DelegationWorkflow {
	chain := NewChainStateService(client)
	w := &DelegationWorkflow{
		owner:     owner,
		feePayer:  owner,
		chain:     chain,
		builder:   NewAuthorizationService(),
		assembler: NewDelegationTxService(),
		tracker:   NewSubmissionService(client, chain),
		logger:    logger.NewStructuredLogger(logger.ComponentWorkflow),
	}
	for _, option := range options {
		option(w)
	}
	return w
}

// Owner returns the account whose code the workflow changes.
func (w *DelegationWorkflow) Owner() common.Address {
	return w.owner.Address()
}

// FeePayer returns the account that signs and pays for the transaction.
func (w *DelegationWorkflow) FeePayer() common.Address {
	return w.feePayer.Address()
}

// Install points the owner account at req.Delegate.
func (w *DelegationWorkflow) Install(ctx context.Context, req business.DelegationRequest) (*business.DelegationOutcome, error) {
	if req.IsRevocation() {
		return nil, apperrors.New(apperrors.KindConfiguration, "Install", "delegate address is required; use revoke to clear a delegation")
	}
	return w.run(ctx, "install", req)
}

// Revoke clears the owner's delegation by authorizing the null address.
// Any delegate set on req is ignored.
func (w *DelegationWorkflow) Revoke(ctx context.Context, req business.DelegationRequest) (*business.DelegationOutcome, error) {
	req.Delegate = common.Address{}
	return w.run(ctx, "revoke", req)
}

// Inspect reads the current nonce, code and delegate of address.
func (w *DelegationWorkflow) Inspect(ctx context.Context, address common.Address) (business.AccountState, error) {
	return w.chain.GetAccountState(ctx, address)
}

func (w *DelegationWorkflow) run(ctx context.Context, operation string, req business.DelegationRequest) (*business.DelegationOutcome, error) {
	correlationID := logger.CorrelationIDFromContext(ctx)
	if correlationID == "" {
		correlationID = uuid.New().String()
	}
	owner := w.owner.Address()
	feePayer := w.feePayer.Address()
	l := w.logger.WithCorrelationID(correlationID).WithOperation(operation).WithFields(map[string]interface{}{
		"owner":     owner.Hex(),
		"fee_payer": feePayer.Hex(),
		"delegate":  req.Delegate.Hex(),
	})
	timer := l.NewTimer(operation)

	outcome, err := w.execute(ctx, l, req, owner, feePayer)
	if outcome != nil {
		outcome.CorrelationID = correlationID
	}
	timer.StopWithResult(err == nil, err)
	return outcome, err
}

func (w *DelegationWorkflow) execute(ctx context.Context, l *logger.StructuredLogger, req business.DelegationRequest, owner, feePayer common.Address) (*business.DelegationOutcome, error) {
	policy, err := w.resolvePolicy(req.Policy, owner, feePayer)
	if err != nil {
		return nil, err
	}

	chainID, err := w.chain.ChainID(ctx)
	if err != nil {
		return nil, err
	}
	if w.expectedChainID != 0 && chainID != w.expectedChainID {
		return nil, apperrors.Newf(apperrors.KindChainIDMismatch, "ChainID",
			"configured chain %d, node reports chain %d", w.expectedChainID, chainID)
	}

	state, err := w.chain.GetAccountState(ctx, owner)
	if err != nil {
		return nil, err
	}
	preflight := map[string]interface{}{
		"chain_id":     chainID,
		"owner_nonce":  state.Nonce,
		"code_before":  state.Code.String(),
		"nonce_policy": string(policy),
	}
	if state.Delegate != nil {
		preflight["current_delegate"] = state.Delegate.Hex()
	}
	l.WithFields(preflight).Info("Pre-flight account state")

	auth, err := w.builder.BuildAuthorization(w.owner, req.Delegate, chainID, state.Nonce, policy)
	if err != nil {
		return nil, err
	}

	feePayerNonce := state.Nonce
	if feePayer != owner {
		feePayerNonce, err = w.chain.GetTransactionCount(ctx, feePayer)
		if err != nil {
			return nil, err
		}
	}

	fees, err := w.fees(ctx)
	if err != nil {
		return nil, err
	}

	gasLimit := req.GasLimit
	if gasLimit == 0 {
		gasLimit = constants.DefaultGasLimit
	}

	tx, err := w.assembler.AssembleTransaction(auth, w.feePayer, feePayerNonce, w.recipient(req, owner), fees, gasLimit)
	if err != nil {
		return nil, err
	}
	if w.envelopeHook != nil {
		w.envelopeHook(tx)
	}

	signed, err := w.assembler.Sign(tx, w.feePayer)
	if err != nil {
		return nil, err
	}

	hash, err := w.tracker.Submit(ctx, signed)
	if err != nil {
		return nil, err
	}
	l.WithField("tx_hash", hash.Hex()).Info("Delegation transaction submitted")

	poll := req.Poll
	if poll == (business.PollPolicy{}) {
		poll = business.DefaultPollPolicy()
	}
	outcome, err := w.tracker.AwaitInclusion(ctx, hash, business.InclusionWatch{
		Owner:      owner,
		Delegate:   req.Delegate,
		CodeBefore: state.Code,
	}, poll)
	if outcome == nil {
		return nil, err
	}

	outcome.FeePayer = feePayer
	outcome.AuthorizationNonce = auth.Nonce()
	outcome.ExplorerURL = business.ExplorerTxURL(chainID, hash)

	if err == nil && outcome.Status == business.InclusionSuccess {
		if verr := outcome.Verify(); verr != nil {
			// The transaction is mined but the authorization was skipped,
			// typically because its nonce no longer matched.
			l.WithField("tx_hash", hash.Hex()).Warn("Delegation not applied: " + verr.Error())
		}
	}
	return outcome, err
}

// resolvePolicy turns NoncePolicyAuto into a concrete policy and rejects a
// policy that contradicts who actually sends the transaction.
func (w *DelegationWorkflow) resolvePolicy(policy business.NoncePolicy, owner, feePayer common.Address) (business.NoncePolicy, error) {
	if policy == "" {
		return "", apperrors.New(apperrors.KindConfiguration, "NoncePolicy", "nonce policy is required")
	}
	if _, err := business.ParseNoncePolicy(string(policy)); err != nil {
		return "", apperrors.Wrap(apperrors.KindConfiguration, "NoncePolicy", err)
	}

	resolved := policy.Resolve(owner, feePayer)
	switch {
	case resolved == business.NoncePolicySelfSends && owner != feePayer:
		return "", apperrors.Newf(apperrors.KindConfiguration, "NoncePolicy",
			"policy %s requires the owner to send, but fee payer is %s", resolved, feePayer.Hex())
	case resolved == business.NoncePolicySponsored && owner == feePayer:
		return "", apperrors.Newf(apperrors.KindConfiguration, "NoncePolicy",
			"policy %s requires a separate fee payer", resolved)
	}
	return resolved, nil
}

func (w *DelegationWorkflow) fees(ctx context.Context) (business.FeeParameters, error) {
	if w.fixedFees != nil {
		return *w.fixedFees, nil
	}
	return w.chain.GetFeeEstimate(ctx)
}

// recipient picks the transaction destination: the owner for an install and
// the null address for a revoke, unless the request overrides it.
func (w *DelegationWorkflow) recipient(req business.DelegationRequest, owner common.Address) common.Address {
	if req.Recipient != nil {
		return *req.Recipient
	}
	if req.IsRevocation() {
		return common.Address{}
	}
	return owner
}

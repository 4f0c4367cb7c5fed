package server

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"

	"github.com/cyphera/cyphera-delegation/libs/go/interfaces"
	"github.com/cyphera/cyphera-delegation/libs/go/types/business"
)

// serializedRunner lets one install or revoke run at a time. Two concurrent
// runs would read the same owner nonce and sign conflicting authorizations.
// Inspect is read-only and not serialized.
type serializedRunner struct {
	runner interfaces.DelegationRunner
	slot   chan struct{}
}

var _ interfaces.DelegationRunner = (*serializedRunner)(nil)

func newSerializedRunner(runner interfaces.DelegationRunner) *serializedRunner {
	return &serializedRunner{runner: runner, slot: make(chan struct{}, 1)}
}

func (r *serializedRunner) acquire(ctx context.Context) error {
	select {
	case r.slot <- struct{}{}:
		return nil
	case <-ctx.Done():
		return errors.Wrap(ctx.Err(), "waiting for in-flight delegation")
	}
}

func (r *serializedRunner) release() {
	<-r.slot
}

func (r *serializedRunner) Install(ctx context.Context, req business.DelegationRequest) (*business.DelegationOutcome, error) {
	if err := r.acquire(ctx); err != nil {
		return nil, err
	}
	defer r.release()
	return r.runner.Install(ctx, req)
}

func (r *serializedRunner) Revoke(ctx context.Context, req business.DelegationRequest) (*business.DelegationOutcome, error) {
	if err := r.acquire(ctx); err != nil {
		return nil, err
	}
	defer r.release()
	return r.runner.Revoke(ctx, req)
}

func (r *serializedRunner) Inspect(ctx context.Context, address common.Address) (business.AccountState, error) {
	return r.runner.Inspect(ctx, address)
}

func (r *serializedRunner) Owner() common.Address {
	return r.runner.Owner()
}

package server

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/cyphera/cyphera-delegation/libs/go/mocks"
	"github.com/cyphera/cyphera-delegation/libs/go/types/business"
)

func TestSerializedRunner_WaitRespectsContext(t *testing.T) {
	inner := mocks.NewMockDelegationRunnerForTest(t)
	runner := newSerializedRunner(inner)

	started := make(chan struct{})
	release := make(chan struct{})
	inner.EXPECT().Install(gomock.Any(), gomock.Any()).DoAndReturn(
		func(context.Context, business.DelegationRequest) (*business.DelegationOutcome, error) {
			close(started)
			<-release
			return &business.DelegationOutcome{}, nil
		})

	go func() {
		_, _ = runner.Install(context.Background(), business.DelegationRequest{})
	}()
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	outcome, err := runner.Revoke(ctx, business.DelegationRequest{})
	assert.Nil(t, outcome)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(release)

	// The slot is free again once the first run finishes.
	inner.EXPECT().Revoke(gomock.Any(), gomock.Any()).Return(&business.DelegationOutcome{}, nil)
	_, err = runner.Revoke(context.Background(), business.DelegationRequest{})
	assert.NoError(t, err)
}

package mocks

import (
	"testing"

	"go.uber.org/mock/gomock"
)

// NewMockLedgerClientForTest creates a new mock LedgerClient for testing
func NewMockLedgerClientForTest(t *testing.T) *MockLedgerClient {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)
	return NewMockLedgerClient(ctrl)
}

// NewMockSecretsManagerAPIForTest creates a new mock SecretsManagerAPI for testing
func NewMockSecretsManagerAPIForTest(t *testing.T) *MockSecretsManagerAPI {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)
	return NewMockSecretsManagerAPI(ctrl)
}

// NewMockDelegationRunnerForTest creates a new mock DelegationRunner for testing
func NewMockDelegationRunnerForTest(t *testing.T) *MockDelegationRunner {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)
	return NewMockDelegationRunner(ctrl)
}

package bootstrap_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/cyphera/cyphera-delegation/internal/bootstrap"
	"github.com/cyphera/cyphera-delegation/libs/go/apperrors"
	"github.com/cyphera/cyphera-delegation/libs/go/config"
	"github.com/cyphera/cyphera-delegation/libs/go/logger"
	"github.com/cyphera/cyphera-delegation/libs/go/mocks"
	"github.com/cyphera/cyphera-delegation/libs/go/types/business"
)

const (
	testOwnerKey = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
	testPayerKey = "59c6995e998f97a5a0044966f0945389dc9e86dae88c7a8412f4603b6b78690d"
)

var (
	testOwner    = common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")
	testPayer    = common.HexToAddress("0x70997970C51812dc3A010C7d01b50e0d17dc79C8")
	testDelegate = common.HexToAddress("0xAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA")
)

func init() {
	logger.InitLogger("test")
}

func loadConfig(t *testing.T, env map[string]string) *config.DelegationConfig {
	t.Helper()
	base := map[string]string{
		config.EnvRPCURL:          "http://127.0.0.1:8545",
		config.EnvChainID:         "31337",
		config.EnvDelegateAddress: testDelegate.Hex(),
		config.EnvOwnerKey:        "set",
	}
	for k, v := range env {
		base[k] = v
	}
	cfg := config.Load(func(key string) string { return base[key] })
	require.NoError(t, cfg.Validate(config.OperationInstall))
	return cfg
}

func TestNewRuntime(t *testing.T) {
	ctx := context.Background()

	t.Run("owner pays", func(t *testing.T) {
		secrets := mocks.NewMockSecretSource(gomock.NewController(t))
		secrets.EXPECT().GetSecretString(ctx, config.EnvOwnerKeyARN, config.EnvOwnerKey).Return(testOwnerKey, nil)

		rt, err := bootstrap.NewRuntime(ctx, loadConfig(t, nil), secrets, mocks.NewMockLedgerClientForTest(t))
		require.NoError(t, err)

		assert.Equal(t, testOwner, rt.Owner.Address())
		assert.Nil(t, rt.FeePayer)
		assert.Equal(t, testOwner, rt.Workflow.Owner())
		assert.Equal(t, testOwner, rt.Workflow.FeePayer())

		rt.Close()
		_, err = rt.Owner.SignHash(make([]byte, 32))
		assert.ErrorIs(t, err, apperrors.ErrSigning)
	})

	t.Run("separate gas payer", func(t *testing.T) {
		secrets := mocks.NewMockSecretSource(gomock.NewController(t))
		secrets.EXPECT().GetSecretString(ctx, config.EnvOwnerKeyARN, config.EnvOwnerKey).Return(testOwnerKey, nil)
		secrets.EXPECT().GetSecretString(ctx, config.EnvGasPayerKeyARN, config.EnvGasPayerKey).Return(testPayerKey, nil)

		cfg := loadConfig(t, map[string]string{config.EnvGasPayerKey: "set"})
		rt, err := bootstrap.NewRuntime(ctx, cfg, secrets, mocks.NewMockLedgerClientForTest(t))
		require.NoError(t, err)
		defer rt.Close()

		require.NotNil(t, rt.FeePayer)
		assert.Equal(t, testPayer, rt.Workflow.FeePayer())
	})

	t.Run("owner address mismatch", func(t *testing.T) {
		secrets := mocks.NewMockSecretSource(gomock.NewController(t))
		secrets.EXPECT().GetSecretString(ctx, config.EnvOwnerKeyARN, config.EnvOwnerKey).Return(testOwnerKey, nil)

		cfg := loadConfig(t, map[string]string{config.EnvOwnerAddress: testPayer.Hex()})
		_, err := bootstrap.NewRuntime(ctx, cfg, secrets, mocks.NewMockLedgerClientForTest(t))
		assert.ErrorIs(t, err, apperrors.ErrConfiguration)
	})

	t.Run("missing secret", func(t *testing.T) {
		secrets := mocks.NewMockSecretSource(gomock.NewController(t))
		secrets.EXPECT().GetSecretString(ctx, config.EnvOwnerKeyARN, config.EnvOwnerKey).Return("", errors.New("secret not found"))

		_, err := bootstrap.NewRuntime(ctx, loadConfig(t, nil), secrets, mocks.NewMockLedgerClientForTest(t))
		assert.ErrorIs(t, err, apperrors.ErrConfiguration)
	})

	t.Run("malformed key", func(t *testing.T) {
		secrets := mocks.NewMockSecretSource(gomock.NewController(t))
		secrets.EXPECT().GetSecretString(ctx, config.EnvOwnerKeyARN, config.EnvOwnerKey).Return("0xnotakey", nil)

		_, err := bootstrap.NewRuntime(ctx, loadConfig(t, nil), secrets, mocks.NewMockLedgerClientForTest(t))
		assert.ErrorIs(t, err, apperrors.ErrSigning)
		assert.NotContains(t, err.Error(), testOwnerKey)
	})
}

func TestExecute(t *testing.T) {
	ctx := context.Background()
	hash := common.HexToHash("0xbeef")
	req := business.DelegationRequest{Delegate: testDelegate, Policy: business.NoncePolicyAuto}

	tests := []struct {
		name       string
		op         config.Operation
		setup      func(r *mocks.MockDelegationRunner)
		wantCode   int
		wantOutput []string
	}{
		{
			name: "install applied",
			op:   config.OperationInstall,
			setup: func(r *mocks.MockDelegationRunner) {
				r.EXPECT().Install(ctx, req).Return(&business.DelegationOutcome{
					Owner:           testOwner,
					FeePayer:        testOwner,
					Delegate:        testDelegate,
					TransactionHash: hash,
					Status:          business.InclusionSuccess,
					BlockNumber:     12,
					CodeBefore:      []byte{},
					CodeAfter:       types.AddressToDelegation(testDelegate),
					ExplorerURL:     "https://sepolia.etherscan.io/tx/" + hash.Hex(),
				}, nil)
			},
			wantCode:   bootstrap.ExitOK,
			wantOutput: []string{hash.Hex(), "success", "0xef0100", "etherscan"},
		},
		{
			name: "pending is not a failure",
			op:   config.OperationRevoke,
			setup: func(r *mocks.MockDelegationRunner) {
				r.EXPECT().Revoke(ctx, req).Return(&business.DelegationOutcome{
					Owner:           testOwner,
					TransactionHash: hash,
					Status:          business.InclusionPending,
				}, nil)
			},
			wantCode:   bootstrap.ExitOK,
			wantOutput: []string{"pending", "not yet mined"},
		},
		{
			name: "reverted",
			op:   config.OperationInstall,
			setup: func(r *mocks.MockDelegationRunner) {
				r.EXPECT().Install(ctx, req).Return(&business.DelegationOutcome{
					TransactionHash: hash,
					Status:          business.InclusionReverted,
				}, nil)
			},
			wantCode:   bootstrap.ExitReverted,
			wantOutput: []string{"reverted"},
		},
		{
			name: "authorization skipped on chain",
			op:   config.OperationInstall,
			setup: func(r *mocks.MockDelegationRunner) {
				r.EXPECT().Install(ctx, req).Return(&business.DelegationOutcome{
					Owner:     testOwner,
					Delegate:  testDelegate,
					Status:    business.InclusionSuccess,
					CodeAfter: []byte{},
				}, nil)
			},
			wantCode:   bootstrap.ExitFailed,
			wantOutput: []string{"Warning", "unexpected code"},
		},
		{
			name: "broadcast rejected prints node reason",
			op:   config.OperationInstall,
			setup: func(r *mocks.MockDelegationRunner) {
				r.EXPECT().Install(ctx, req).Return(nil,
					apperrors.Wrap(apperrors.KindBroadcastRejected, "Submit", errors.New("nonce too low")))
			},
			wantCode:   bootstrap.ExitFailed,
			wantOutput: []string{"Error:", "nonce too low", "transient"},
		},
		{
			name:       "unsupported operation",
			op:         config.OperationServe,
			setup:      func(r *mocks.MockDelegationRunner) {},
			wantCode:   bootstrap.ExitFailed,
			wantOutput: []string{"unsupported operation"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := mocks.NewMockDelegationRunnerForTest(t)
			tt.setup(runner)

			var out bytes.Buffer
			code := bootstrap.Execute(ctx, runner, tt.op, req, &out)
			assert.Equal(t, tt.wantCode, code)
			for _, want := range tt.wantOutput {
				assert.Contains(t, out.String(), want)
			}
		})
	}
}

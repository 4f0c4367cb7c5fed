package config_test

import (
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cyphera/cyphera-delegation/libs/go/apperrors"
	"github.com/cyphera/cyphera-delegation/libs/go/config"
	"github.com/cyphera/cyphera-delegation/libs/go/logger"
	"github.com/cyphera/cyphera-delegation/libs/go/testutil"
	"github.com/cyphera/cyphera-delegation/libs/go/types/business"
)

func init() {
	logger.InitLogger("test")
}

func envFrom(values map[string]string) func(string) string {
	return func(key string) string { return values[key] }
}

func validEnv() map[string]string {
	return map[string]string{
		config.EnvRPCURL:          "https://sepolia.example.org/v3/0123456789abcdef0123",
		config.EnvChainID:         "11155111",
		config.EnvDelegateAddress: "0xAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA",
		config.EnvOwnerKey:        "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80",
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg := config.Load(envFrom(validEnv()))
	require.NoError(t, cfg.Validate(config.OperationInstall))

	assert.Equal(t, uint64(11155111), cfg.ChainID)
	assert.Equal(t, common.HexToAddress("0xAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"), cfg.DelegateAddress)
	assert.Nil(t, cfg.OwnerAddress)
	assert.Equal(t, uint64(100000), cfg.GasLimit)
	assert.Equal(t, business.NoncePolicyAuto, cfg.NoncePolicy)
	assert.Equal(t, 2*time.Second, cfg.PollInterval)
	assert.Equal(t, 2*time.Minute, cfg.InclusionTimeout)
	assert.Equal(t, 10.0, cfg.RPCRequestsPerSecond)
	assert.Equal(t, config.SecretRef{ArnEnv: config.EnvOwnerKeyARN, FallbackEnv: config.EnvOwnerKey}, cfg.OwnerKey)
	assert.Nil(t, cfg.GasPayerKey)
}

func TestLoad_ChainIDDefaultsToMainnet(t *testing.T) {
	env := validEnv()
	delete(env, config.EnvChainID)

	cfg := config.Load(envFrom(env))
	require.NoError(t, cfg.Validate(config.OperationInstall))
	assert.Equal(t, uint64(1), cfg.ChainID)
}

func TestLoad_Overrides(t *testing.T) {
	env := validEnv()
	env[config.EnvOwnerAddress] = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"
	env[config.EnvGasLimit] = "120000"
	env[config.EnvNoncePolicy] = "sponsored"
	env[config.EnvRecipient] = "null"
	env[config.EnvPollInterval] = "500ms"
	env[config.EnvInclusionTimeout] = "90"
	env[config.EnvRPCRequestsPerSecond] = "2.5"
	env[config.EnvGasPayerKey] = "59c6995e998f97a5a0044966f0945389dc9e86dae88c7a8412f4603b6b78690d"

	cfg := config.Load(envFrom(env))
	require.NoError(t, cfg.Validate(config.OperationInstall))

	require.NotNil(t, cfg.OwnerAddress)
	assert.Equal(t, common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"), *cfg.OwnerAddress)
	assert.Equal(t, uint64(120000), cfg.GasLimit)
	assert.Equal(t, business.NoncePolicySponsored, cfg.NoncePolicy)
	assert.Equal(t, 500*time.Millisecond, cfg.PollInterval)
	assert.Equal(t, 90*time.Second, cfg.InclusionTimeout)
	assert.Equal(t, 2.5, cfg.RPCRequestsPerSecond)
	require.NotNil(t, cfg.GasPayerKey)
	assert.Equal(t, config.EnvGasPayerKey, cfg.GasPayerKey.FallbackEnv)

	owner := common.HexToAddress("0x01")
	req := cfg.Request(config.OperationInstall, owner)
	assert.Equal(t, cfg.DelegateAddress, req.Delegate)
	require.NotNil(t, req.Recipient)
	assert.Equal(t, common.Address{}, *req.Recipient)
	assert.Equal(t, 500*time.Millisecond, req.Poll.Interval)
	assert.Equal(t, 90*time.Second, req.Poll.Timeout)
}

func TestLoad_LegacyPrivateKey(t *testing.T) {
	env := validEnv()
	delete(env, config.EnvOwnerKey)
	env[config.EnvLegacyOwnerKey] = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"

	cfg := config.Load(envFrom(env))
	require.NoError(t, cfg.Validate(config.OperationRevoke))
	assert.Equal(t, config.EnvLegacyOwnerKey, cfg.OwnerKey.FallbackEnv)
}

func TestValidate_ReportsEveryProblem(t *testing.T) {
	cfg := config.Load(envFrom(map[string]string{
		config.EnvChainID:         "mainnet",
		config.EnvDelegateAddress: "0x1234",
		config.EnvGasLimit:        "21000",
		config.EnvNoncePolicy:     "whenever",
		config.EnvRecipient:       "delegate",
		config.EnvPollInterval:    "soon",
	}))

	err := cfg.Validate(config.OperationInstall)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrConfiguration)
	assert.False(t, apperrors.IsTransient(err))

	for _, want := range []string{
		config.EnvRPCURL,
		config.EnvChainID,
		config.EnvDelegateAddress,
		config.EnvGasLimit,
		config.EnvNoncePolicy,
		config.EnvRecipient,
		config.EnvPollInterval,
		config.EnvOwnerKey,
	} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestValidate_ByOperation(t *testing.T) {
	env := validEnv()
	delete(env, config.EnvDelegateAddress)
	cfg := config.Load(envFrom(env))

	assert.ErrorIs(t, cfg.Validate(config.OperationInstall), apperrors.ErrConfiguration)
	assert.NoError(t, cfg.Validate(config.OperationRevoke))
	assert.NoError(t, cfg.Validate(config.OperationServe))

	req := cfg.Request(config.OperationRevoke, common.HexToAddress("0x01"))
	assert.True(t, req.IsRevocation())
	assert.Nil(t, req.Recipient)
}

func TestValidate_RPCURL(t *testing.T) {
	tests := []struct {
		url     string
		wantErr bool
	}{
		{url: "http://127.0.0.1:8545"},
		{url: "wss://mainnet.example.org/ws"},
		{url: "127.0.0.1:8545", wantErr: true},
		{url: "ftp://node.example.org", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			env := validEnv()
			env[config.EnvRPCURL] = tt.url
			err := config.Load(envFrom(env)).Validate(config.OperationInstall)
			if tt.wantErr {
				assert.ErrorIs(t, err, apperrors.ErrConfiguration)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestCheckOwner(t *testing.T) {
	env := validEnv()
	env[config.EnvOwnerAddress] = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"
	cfg := config.Load(envFrom(env))

	assert.NoError(t, cfg.CheckOwner(common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")))
	err := cfg.CheckOwner(common.HexToAddress("0x70997970C51812dc3A010C7d01b50e0d17dc79C8"))
	assert.ErrorIs(t, err, apperrors.ErrConfiguration)
	assert.Contains(t, err.Error(), "0x70997970C51812dc3A010C7d01b50e0d17dc79C8")

	unset := config.Load(envFrom(validEnv()))
	assert.NoError(t, unset.CheckOwner(common.HexToAddress("0x01")))
}

func TestLoadFromEnv(t *testing.T) {
	testutil.SetupTestEnvironment(t)
	t.Setenv(config.EnvRPCURL, "http://127.0.0.1:8545")
	t.Setenv(config.EnvOwnerKey, "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80")

	cfg := config.LoadFromEnv()
	assert.NoError(t, cfg.Validate(config.OperationRevoke))
	assert.Equal(t, "http://127.0.0.1:8545", cfg.RPCURL)
}

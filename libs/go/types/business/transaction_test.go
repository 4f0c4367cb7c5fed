package business_test

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"

	"github.com/cyphera/cyphera-delegation/libs/go/constants"
	"github.com/cyphera/cyphera-delegation/libs/go/types/business"
)

var delegate = common.HexToAddress("0xAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA")

func TestExpectedCode(t *testing.T) {
	code := business.ExpectedCode(delegate)
	assert.Len(t, code, 23)
	assert.Equal(t, []byte{0xef, 0x01, 0x00}, code[:3])
	assert.Equal(t, delegate.Bytes(), code[3:])

	assert.Empty(t, business.ExpectedCode(common.Address{}))
}

func TestDelegationOutcome_Verify(t *testing.T) {
	tests := []struct {
		name    string
		outcome business.DelegationOutcome
		wantErr bool
	}{
		{
			name:    "install applied",
			outcome: business.DelegationOutcome{Status: business.InclusionSuccess, Delegate: delegate, CodeAfter: types.AddressToDelegation(delegate)},
		},
		{
			name:    "revoke applied",
			outcome: business.DelegationOutcome{Status: business.InclusionSuccess, CodeAfter: []byte{}},
		},
		{
			name:    "revoke applied with nil code",
			outcome: business.DelegationOutcome{Status: business.InclusionSuccess},
		},
		{
			name:    "authorization skipped",
			outcome: business.DelegationOutcome{Status: business.InclusionSuccess, Delegate: delegate, CodeAfter: []byte{}},
			wantErr: true,
		},
		{
			name:    "other delegate installed",
			outcome: business.DelegationOutcome{Status: business.InclusionSuccess, Delegate: delegate, CodeAfter: types.AddressToDelegation(common.HexToAddress("0xBB"))},
			wantErr: true,
		},
		{
			name:    "still pending",
			outcome: business.DelegationOutcome{Status: business.InclusionPending, Delegate: delegate},
			wantErr: true,
		},
		{
			name:    "reverted",
			outcome: business.DelegationOutcome{Status: business.InclusionReverted, Delegate: delegate, CodeAfter: types.AddressToDelegation(delegate)},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.outcome.Verify()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestStatusFromReceipt(t *testing.T) {
	assert.Equal(t, business.InclusionSuccess, business.StatusFromReceipt(types.ReceiptStatusSuccessful))
	assert.Equal(t, business.InclusionReverted, business.StatusFromReceipt(types.ReceiptStatusFailed))
}

func TestExplorerTxURL(t *testing.T) {
	hash := common.HexToHash("0xabc")
	assert.Equal(t, "https://etherscan.io/tx/"+hash.Hex(), business.ExplorerTxURL(1, hash))
	assert.Equal(t, "https://sepolia.basescan.org/tx/"+hash.Hex(), business.ExplorerTxURL(84532, hash))
	assert.Empty(t, business.ExplorerTxURL(1337, hash))
}

func TestNewAccountState(t *testing.T) {
	address := common.HexToAddress("0x01")

	delegated := business.NewAccountState(address, 3, types.AddressToDelegation(delegate))
	if assert.NotNil(t, delegated.Delegate) {
		assert.Equal(t, delegate, *delegated.Delegate)
	}

	plain := business.NewAccountState(address, 3, []byte{})
	assert.Nil(t, plain.Delegate)

	contract := business.NewAccountState(address, 1, []byte{0x60, 0x80, 0x60, 0x40})
	assert.Nil(t, contract.Delegate)
}

func TestFeeParameters(t *testing.T) {
	assert.True(t, business.FeeParameters{MaxFeePerGas: big.NewInt(2), MaxPriorityFeePerGas: big.NewInt(1)}.Complete())
	assert.Equal(t, []string{"maxFeePerGas", "maxPriorityFeePerGas"}, business.FeeParameters{}.Missing())
	assert.Equal(t, []string{"maxPriorityFeePerGas"}, business.FeeParameters{MaxFeePerGas: big.NewInt(2)}.Missing())
}

func TestDefaultPollPolicy(t *testing.T) {
	poll := business.DefaultPollPolicy()
	assert.Equal(t, constants.DefaultPollInterval, poll.Interval)
	assert.Equal(t, constants.DefaultInclusionTimeout, poll.Timeout)
	assert.False(t, poll.FailOnTimeout)
}

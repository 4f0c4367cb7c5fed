package services_test

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cyphera/cyphera-delegation/libs/go/apperrors"
	"github.com/cyphera/cyphera-delegation/libs/go/services"
	"github.com/cyphera/cyphera-delegation/libs/go/types/business"
)

var testDelegate = common.HexToAddress("0xAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA")

func TestAuthorizationService_BuildAuthorization(t *testing.T) {
	owner, err := services.NewLocalIdentity(testOwnerKey)
	require.NoError(t, err)
	service := services.NewAuthorizationService()

	tests := []struct {
		name      string
		delegate  common.Address
		chainID   uint64
		observed  uint64
		policy    business.NoncePolicy
		wantNonce uint64
		wantErr   error
	}{
		{name: "owner self-sends uses observed plus one", delegate: testDelegate, chainID: 1, observed: 5, policy: business.NoncePolicySelfSends, wantNonce: 6},
		{name: "sponsored uses observed nonce", delegate: testDelegate, chainID: 1, observed: 5, policy: business.NoncePolicySponsored, wantNonce: 5},
		{name: "fresh account self-sends", delegate: testDelegate, chainID: 1, observed: 0, policy: business.NoncePolicySelfSends, wantNonce: 1},
		{name: "revocation sponsored", delegate: common.Address{}, chainID: 1, observed: 5, policy: business.NoncePolicySponsored, wantNonce: 5},
		{name: "unresolved auto policy", delegate: testDelegate, chainID: 1, observed: 5, policy: business.NoncePolicyAuto, wantErr: apperrors.ErrConfiguration},
		{name: "empty policy", delegate: testDelegate, chainID: 1, observed: 5, policy: "", wantErr: apperrors.ErrConfiguration},
		{name: "zero chain id", delegate: testDelegate, chainID: 0, observed: 5, policy: business.NoncePolicySponsored, wantErr: apperrors.ErrConfiguration},
		{name: "nonce overflow", delegate: testDelegate, chainID: 1, observed: ^uint64(0), policy: business.NoncePolicySelfSends, wantErr: apperrors.ErrConfiguration},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			auth, err := service.BuildAuthorization(owner, tt.delegate, tt.chainID, tt.observed, tt.policy)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)

			assert.Equal(t, tt.wantNonce, auth.Nonce())
			assert.Equal(t, tt.delegate, auth.Delegate())
			assert.Equal(t, tt.chainID, auth.ChainID())
			assert.Equal(t, tt.delegate == (common.Address{}), auth.IsRevocation())

			authority, err := auth.Authority()
			require.NoError(t, err)
			assert.Equal(t, owner.Address(), authority)
		})
	}
}

func TestAuthorizationService_NoncePolicyHoldsForAllNonces(t *testing.T) {
	owner, err := services.NewLocalIdentity(testOwnerKey)
	require.NoError(t, err)
	service := services.NewAuthorizationService()

	for _, n := range []uint64{0, 1, 2, 7, 255, 1 << 20, 1<<63 - 1} {
		self, err := service.BuildAuthorization(owner, testDelegate, 1, n, business.NoncePolicySelfSends)
		require.NoError(t, err)
		sponsored, err := service.BuildAuthorization(owner, testDelegate, 1, n, business.NoncePolicySponsored)
		require.NoError(t, err)

		assert.Equal(t, n+1, self.Nonce(), "self-sends at %d", n)
		assert.Equal(t, n, sponsored.Nonce(), "sponsored at %d", n)
	}
}

func TestAuthorizationService_SigningFailures(t *testing.T) {
	service := services.NewAuthorizationService()

	t.Run("nil owner", func(t *testing.T) {
		_, err := service.BuildAuthorization(nil, testDelegate, 1, 0, business.NoncePolicySponsored)
		assert.ErrorIs(t, err, apperrors.ErrSigning)
	})

	t.Run("discarded key", func(t *testing.T) {
		owner, err := services.NewLocalIdentity(testOwnerKey)
		require.NoError(t, err)
		owner.Discard()

		_, err = service.BuildAuthorization(owner, testDelegate, 1, 0, business.NoncePolicySponsored)
		assert.ErrorIs(t, err, apperrors.ErrSigning)
		assert.False(t, apperrors.IsTransient(err))
	})
}

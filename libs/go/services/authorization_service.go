package services

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/holiman/uint256"

	"github.com/cyphera/cyphera-delegation/libs/go/apperrors"
	"github.com/cyphera/cyphera-delegation/libs/go/interfaces"
	"github.com/cyphera/cyphera-delegation/libs/go/logger"
	"github.com/cyphera/cyphera-delegation/libs/go/types/business"
)

// AuthorizationService builds signed set-code authorization tuples.
//
// It holds no per-owner state, but it is not safe to build authorizations for
// the same owner concurrently without external serialization: both calls
// observe the same nonce and at most one of the resulting tuples can be valid.
type AuthorizationService struct {
	logger *logger.StructuredLogger
}

var _ interfaces.AuthorizationBuilder = (*AuthorizationService)(nil)

// NewAuthorizationService creates a new authorization service
func NewAuthorizationService() *AuthorizationService {
	return &AuthorizationService{
		logger: logger.NewStructuredLogger(logger.ComponentAuthorization),
	}
}

// BuildAuthorization signs (delegate, nonce, chainID) with the owner identity.
// The nonce is derived from observedNonce by policy, which must already be
// resolved to NoncePolicySelfSends or NoncePolicySponsored.
func (s *AuthorizationService) BuildAuthorization(owner interfaces.SigningIdentity, delegate common.Address, chainID uint64, observedNonce uint64, policy business.NoncePolicy) (business.AuthorizationTuple, error) {
	const op = "BuildAuthorization"

	if owner == nil {
		return business.AuthorizationTuple{}, apperrors.New(apperrors.KindSigning, op, "owner identity is not available")
	}
	if chainID == 0 {
		return business.AuthorizationTuple{}, apperrors.New(apperrors.KindConfiguration, op, "chain id must be non-zero")
	}

	nonce, err := policy.AuthorizationNonce(observedNonce)
	if err != nil {
		return business.AuthorizationTuple{}, apperrors.Wrap(apperrors.KindConfiguration, op, err)
	}

	signed, err := owner.SignAuthorization(types.SetCodeAuthorization{
		ChainID: *uint256.NewInt(chainID),
		Address: delegate,
		Nonce:   nonce,
	})
	if err != nil {
		return business.AuthorizationTuple{}, apperrors.Wrap(apperrors.KindSigning, op, err)
	}

	tuple := business.NewAuthorizationTuple(signed)
	authority, err := tuple.Authority()
	if err != nil {
		return business.AuthorizationTuple{}, apperrors.Wrap(apperrors.KindSigning, op, err)
	}
	if authority != owner.Address() {
		return business.AuthorizationTuple{}, apperrors.Newf(apperrors.KindSigning, op,
			"signature recovers %s, expected %s", authority.Hex(), owner.Address().Hex())
	}

	s.logger.WithFields(map[string]interface{}{
		"owner":          owner.Address().Hex(),
		"delegate":       delegate.Hex(),
		"chain_id":       chainID,
		"observed_nonce": observedNonce,
		"auth_nonce":     nonce,
		"policy":         string(policy),
		"revocation":     tuple.IsRevocation(),
	}).Info("Authorization signed")

	return tuple, nil
}

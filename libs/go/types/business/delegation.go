package business

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/cyphera/cyphera-delegation/libs/go/constants"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// NoncePolicy decides how the authorization nonce is derived from the owner's
// observed transaction count.
type NoncePolicy string

const (
	// NoncePolicySelfSends is used when the owner also broadcasts the delegation
	// transaction. The transaction consumes the observed nonce before the
	// authorization is checked, so the authorization must carry observed+1.
	NoncePolicySelfSends NoncePolicy = constants.NoncePolicySelf
	// NoncePolicySponsored is used when a separate fee payer broadcasts and the
	// owner sends nothing in between. The authorization carries the observed nonce.
	NoncePolicySponsored NoncePolicy = constants.NoncePolicySponsored
	// NoncePolicyAuto asks the workflow to pick one of the two policies by
	// comparing the owner and fee payer addresses.
	NoncePolicyAuto NoncePolicy = constants.NoncePolicyAuto
)

// ParseNoncePolicy parses a policy name. The empty string is rejected.
func ParseNoncePolicy(s string) (NoncePolicy, error) {
	switch p := NoncePolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case NoncePolicySelfSends, NoncePolicySponsored, NoncePolicyAuto:
		return p, nil
	default:
		return "", fmt.Errorf("unknown nonce policy %q (want %s, %s or %s)", s,
			NoncePolicySelfSends, NoncePolicySponsored, NoncePolicyAuto)
	}
}

// AuthorizationNonce returns the nonce an authorization must carry given the
// owner's observed transaction count. NoncePolicyAuto must be resolved first.
func (p NoncePolicy) AuthorizationNonce(observed uint64) (uint64, error) {
	switch p {
	case NoncePolicySelfSends:
		if observed == ^uint64(0) {
			return 0, fmt.Errorf("observed nonce %d cannot be incremented", observed)
		}
		return observed + 1, nil
	case NoncePolicySponsored:
		return observed, nil
	default:
		return 0, fmt.Errorf("nonce policy %q is not resolved", p)
	}
}

// Resolve turns NoncePolicyAuto into a concrete policy.
func (p NoncePolicy) Resolve(owner, feePayer common.Address) NoncePolicy {
	if p != NoncePolicyAuto {
		return p
	}
	if owner == feePayer {
		return NoncePolicySelfSends
	}
	return NoncePolicySponsored
}

// AuthorizationTuple is a signed consent of an account to a delegate (or to no
// delegate) at a given nonce and chain. It is immutable once built.
type AuthorizationTuple struct {
	auth types.SetCodeAuthorization
}

// NewAuthorizationTuple wraps a signed set-code authorization.
func NewAuthorizationTuple(auth types.SetCodeAuthorization) AuthorizationTuple {
	return AuthorizationTuple{auth: auth}
}

// ChainID returns the chain the authorization is bound to.
func (a AuthorizationTuple) ChainID() uint64 {
	return a.auth.ChainID.Uint64()
}

// Delegate returns the delegate address. The null address means revocation.
func (a AuthorizationTuple) Delegate() common.Address {
	return a.auth.Address
}

// Nonce returns the authorization nonce.
func (a AuthorizationTuple) Nonce() uint64 {
	return a.auth.Nonce
}

// IsRevocation reports whether the tuple points the account back to the null address.
func (a AuthorizationTuple) IsRevocation() bool {
	return a.auth.Address == (common.Address{})
}

// Signature returns the recovery id and the r, s values.
func (a AuthorizationTuple) Signature() (yParity uint8, r, s *big.Int) {
	return a.auth.V, a.auth.R.ToBig(), a.auth.S.ToBig()
}

// Authority recovers the address that signed the tuple.
func (a AuthorizationTuple) Authority() (common.Address, error) {
	return a.auth.Authority()
}

// SetCode returns a copy of the underlying go-ethereum authorization.
func (a AuthorizationTuple) SetCode() types.SetCodeAuthorization {
	return a.auth
}

// AuthorizationView is the JSON form of an AuthorizationTuple.
type AuthorizationView struct {
	ChainID  uint64 `json:"chain_id"`
	Delegate string `json:"delegate"`
	Nonce    uint64 `json:"nonce"`
	YParity  uint8  `json:"y_parity"`
	R        string `json:"r"`
	S        string `json:"s"`
}

// View renders the tuple for logs and API responses. It contains no secrets.
func (a AuthorizationTuple) View() AuthorizationView {
	v, r, s := a.Signature()
	return AuthorizationView{
		ChainID:  a.ChainID(),
		Delegate: a.Delegate().Hex(),
		Nonce:    a.Nonce(),
		YParity:  v,
		R:        "0x" + r.Text(16),
		S:        "0x" + s.Text(16),
	}
}

// DelegationRequest is the input of a single install or revoke run.
type DelegationRequest struct {
	// Delegate is the contract to install; the null address revokes.
	Delegate common.Address
	Policy   NoncePolicy
	// Recipient overrides the transaction `to`; nil picks the owner for an
	// install and the null address for a revoke.
	Recipient *common.Address
	GasLimit  uint64
	Poll      PollPolicy
}

// IsRevocation reports whether the request revokes the current delegation.
func (r DelegationRequest) IsRevocation() bool {
	return r.Delegate == (common.Address{})
}

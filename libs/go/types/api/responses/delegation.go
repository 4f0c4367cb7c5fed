package responses

import "github.com/cyphera/cyphera-delegation/libs/go/types/business"

// DelegationResponse represents the result of an install or revoke
type DelegationResponse struct {
	Object string `json:"object"`
	business.DelegationOutcome
}

// AccountStateResponse represents the delegation state of an account
type AccountStateResponse struct {
	Object          string `json:"object"`
	Address         string `json:"address"`
	Nonce           uint64 `json:"nonce"`
	Code            string `json:"code"`
	Delegated       bool   `json:"delegated"`
	DelegateAddress string `json:"delegate_address,omitempty"`
}

// NewAccountStateResponse renders an account state
func NewAccountStateResponse(state business.AccountState) AccountStateResponse {
	resp := AccountStateResponse{
		Object:  "account_delegation",
		Address: state.Address.Hex(),
		Nonce:   state.Nonce,
		Code:    state.Code.String(),
	}
	if state.Delegate != nil {
		resp.Delegated = true
		resp.DelegateAddress = state.Delegate.Hex()
	}
	return resp
}

// NewDelegationResponse renders a delegation outcome
func NewDelegationResponse(outcome *business.DelegationOutcome) DelegationResponse {
	return DelegationResponse{Object: "delegation", DelegationOutcome: *outcome}
}

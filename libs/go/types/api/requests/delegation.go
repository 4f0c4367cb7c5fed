package requests

// InstallDelegationRequest represents the request body for installing a delegate
type InstallDelegationRequest struct {
	DelegateAddress string `json:"delegate_address" binding:"required"`
	NoncePolicy     string `json:"nonce_policy,omitempty"` // 'self', 'sponsored' or 'auto'
	Recipient       string `json:"recipient,omitempty"`    // 'owner' or 'null'
	GasLimit        uint64 `json:"gas_limit,omitempty"`
	// WaitSeconds bounds the inclusion wait; zero uses the server default.
	WaitSeconds int `json:"wait_seconds,omitempty"`
}

// RevokeDelegationRequest represents the request body for clearing a delegation
type RevokeDelegationRequest struct {
	NoncePolicy string `json:"nonce_policy,omitempty"`
	Recipient   string `json:"recipient,omitempty"`
	GasLimit    uint64 `json:"gas_limit,omitempty"`
	WaitSeconds int    `json:"wait_seconds,omitempty"`
}

package business

import "math/big"

// FeeParameters are the EIP-1559 fee caps for the delegation transaction. They
// come from an external estimator and are passed through unmodified.
type FeeParameters struct {
	MaxFeePerGas         *big.Int `json:"max_fee_per_gas"`
	MaxPriorityFeePerGas *big.Int `json:"max_priority_fee_per_gas"`
}

// Complete reports whether both fee caps are present.
func (f FeeParameters) Complete() bool {
	return f.MaxFeePerGas != nil && f.MaxPriorityFeePerGas != nil
}

// Missing lists the absent fee fields by their JSON-RPC names.
func (f FeeParameters) Missing() []string {
	var missing []string
	if f.MaxFeePerGas == nil {
		missing = append(missing, "maxFeePerGas")
	}
	if f.MaxPriorityFeePerGas == nil {
		missing = append(missing, "maxPriorityFeePerGas")
	}
	return missing
}

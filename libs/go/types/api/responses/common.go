package responses

// ErrorResponse represents a standard error response. Error carries the raw
// failure message, including any node-provided reason.
type ErrorResponse struct {
	Error     string `json:"error"`
	Kind      string `json:"kind,omitempty"`
	Transient bool   `json:"transient"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status  string `json:"status"`
	Owner   string `json:"owner"`
	ChainID uint64 `json:"chain_id,omitempty"`
}

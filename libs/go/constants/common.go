package constants

// Common string constants used throughout the codebase
const (
	// Environments
	ProdEnvironment  = "prod"
	DevEnvironment   = "dev"
	LocalEnvironment = "local"
	TestEnvironment  = "test"

	// Service name attached to every log line
	ServiceName = "cyphera-delegation"

	// Status values
	PendingStatus  = "pending"
	SuccessStatus  = "success"
	RevertedStatus = "reverted"
)

// Nonce policies accepted from configuration and HTTP requests
const (
	NoncePolicySelf      = "self"
	NoncePolicySponsored = "sponsored"
	NoncePolicyAuto      = "auto"
)

// Recipient modes for the delegation transaction `to` field
const (
	RecipientOwner = "owner"
	RecipientNull  = "null"
)

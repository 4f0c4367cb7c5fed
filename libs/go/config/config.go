// Package config loads the delegation settings from the environment and
// validates them once, before any network call is made.
package config

import (
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"

	"github.com/cyphera/cyphera-delegation/libs/go/apperrors"
	"github.com/cyphera/cyphera-delegation/libs/go/constants"
	"github.com/cyphera/cyphera-delegation/libs/go/helpers"
	"github.com/cyphera/cyphera-delegation/libs/go/types/business"
)

// Environment variable names
const (
	EnvRPCURL               = "RPC_URL"
	EnvChainID              = "CHAIN_ID"
	EnvDelegateAddress      = "DELEGATE_ADDRESS"
	EnvOwnerAddress         = "OWNER_ADDRESS"
	EnvGasLimit             = "GAS_LIMIT"
	EnvNoncePolicy          = "NONCE_POLICY"
	EnvRecipient            = "RECIPIENT"
	EnvPollInterval         = "POLL_INTERVAL"
	EnvInclusionTimeout     = "INCLUSION_TIMEOUT"
	EnvRPCRequestsPerSecond = "RPC_REQUESTS_PER_SECOND"

	EnvOwnerKeyARN    = "OWNER_PRIVATE_KEY_ARN"
	EnvOwnerKey       = "OWNER_PRIVATE_KEY"
	EnvLegacyOwnerKey = "PRIVATE_KEY"
	EnvGasPayerKeyARN = "GAS_PAYER_PRIVATE_KEY_ARN"
	EnvGasPayerKey    = "GAS_PAYER_PRIVATE_KEY"
)

// Operation selects which fields Validate requires.
type Operation string

const (
	OperationInstall Operation = "install"
	OperationRevoke  Operation = "revoke"
	OperationServe   Operation = "serve"
)

// SecretRef names where a private key is found: an ARN in Secrets Manager,
// or the raw value in a fallback variable.
type SecretRef struct {
	ArnEnv      string
	FallbackEnv string
}

// DelegationConfig holds every setting a delegation run needs
type DelegationConfig struct {
	RPCURL               string
	ChainID              uint64
	DelegateAddress      common.Address
	OwnerAddress         *common.Address
	GasLimit             uint64
	NoncePolicy          business.NoncePolicy
	RecipientMode        string
	PollInterval         time.Duration
	InclusionTimeout     time.Duration
	RPCRequestsPerSecond float64

	OwnerKey    SecretRef
	GasPayerKey *SecretRef

	problems []string
}

// LoadFromEnv reads the configuration from the process environment.
// Parse failures are collected and reported by Validate.
func LoadFromEnv() *DelegationConfig {
	return Load(os.Getenv)
}

// Load reads the configuration through getenv.
func Load(getenv func(string) string) *DelegationConfig {
	cfg := &DelegationConfig{
		RPCURL:               strings.TrimSpace(getenv(EnvRPCURL)),
		ChainID:              constants.DefaultChainID,
		GasLimit:             constants.DefaultGasLimit,
		NoncePolicy:          business.NoncePolicyAuto,
		RecipientMode:        strings.ToLower(strings.TrimSpace(getenv(EnvRecipient))),
		PollInterval:         constants.DefaultPollInterval,
		InclusionTimeout:     constants.DefaultInclusionTimeout,
		RPCRequestsPerSecond: constants.DefaultRPCRequestsPerSec,
	}

	if v := getenv(EnvChainID); v != "" {
		id, err := strconv.ParseUint(strings.TrimSpace(v), 10, 64)
		if err != nil {
			cfg.addProblem(errors.Wrapf(err, "%s", EnvChainID).Error())
		} else {
			cfg.ChainID = id
		}
	}

	if v := getenv(EnvDelegateAddress); v != "" {
		addr, err := helpers.ParseAddress(EnvDelegateAddress, v)
		if err != nil {
			cfg.addProblem(err.Error())
		} else {
			cfg.DelegateAddress = addr
		}
	}

	if v := getenv(EnvOwnerAddress); v != "" {
		addr, err := helpers.ParseAddress(EnvOwnerAddress, v)
		if err != nil {
			cfg.addProblem(err.Error())
		} else {
			cfg.OwnerAddress = &addr
		}
	}

	if v := getenv(EnvGasLimit); v != "" {
		limit, err := strconv.ParseUint(strings.TrimSpace(v), 10, 64)
		if err != nil {
			cfg.addProblem(errors.Wrapf(err, "%s", EnvGasLimit).Error())
		} else {
			cfg.GasLimit = limit
		}
	}

	if v := getenv(EnvNoncePolicy); v != "" {
		policy, err := business.ParseNoncePolicy(v)
		if err != nil {
			cfg.addProblem(errors.Wrapf(err, "%s", EnvNoncePolicy).Error())
		} else {
			cfg.NoncePolicy = policy
		}
	}

	cfg.PollInterval = cfg.parseDuration(getenv, EnvPollInterval, cfg.PollInterval)
	cfg.InclusionTimeout = cfg.parseDuration(getenv, EnvInclusionTimeout, cfg.InclusionTimeout)

	if v := getenv(EnvRPCRequestsPerSecond); v != "" {
		rps, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			cfg.addProblem(errors.Wrapf(err, "%s", EnvRPCRequestsPerSecond).Error())
		} else {
			cfg.RPCRequestsPerSecond = rps
		}
	}

	cfg.OwnerKey = SecretRef{ArnEnv: EnvOwnerKeyARN, FallbackEnv: EnvOwnerKey}
	if getenv(EnvOwnerKeyARN) == "" && getenv(EnvOwnerKey) == "" {
		if getenv(EnvLegacyOwnerKey) != "" {
			cfg.OwnerKey.FallbackEnv = EnvLegacyOwnerKey
		} else {
			cfg.addProblem("owner key is required: set " + EnvOwnerKeyARN + " or " + EnvOwnerKey)
		}
	}

	if getenv(EnvGasPayerKeyARN) != "" || getenv(EnvGasPayerKey) != "" {
		cfg.GasPayerKey = &SecretRef{ArnEnv: EnvGasPayerKeyARN, FallbackEnv: EnvGasPayerKey}
	}

	return cfg
}

// Validate reports every missing or malformed setting for op in a single
// configuration error.
func (c *DelegationConfig) Validate(op Operation) error {
	problems := append([]string(nil), c.problems...)

	if c.RPCURL == "" {
		problems = append(problems, EnvRPCURL+" is required")
	} else if u, err := url.Parse(c.RPCURL); err != nil || u.Host == "" || !supportedScheme(u.Scheme) {
		problems = append(problems, EnvRPCURL+" must be an http(s) or ws(s) URL")
	}
	if c.ChainID == 0 {
		problems = append(problems, EnvChainID+" must be non-zero")
	}
	if op == OperationInstall && helpers.IsNullAddress(c.DelegateAddress) {
		problems = append(problems, EnvDelegateAddress+" is required and must not be the null address")
	}
	if c.GasLimit < constants.MinGasLimit {
		problems = append(problems, EnvGasLimit+" must be at least "+strconv.FormatUint(constants.MinGasLimit, 10))
	}
	switch c.RecipientMode {
	case "", constants.RecipientOwner, constants.RecipientNull:
	default:
		problems = append(problems, EnvRecipient+" must be "+constants.RecipientOwner+" or "+constants.RecipientNull)
	}
	if c.PollInterval <= 0 {
		problems = append(problems, EnvPollInterval+" must be positive")
	}
	if c.InclusionTimeout < 0 {
		problems = append(problems, EnvInclusionTimeout+" must not be negative")
	}
	if c.RPCRequestsPerSecond < 0 {
		problems = append(problems, EnvRPCRequestsPerSecond+" must not be negative")
	}

	if len(problems) == 0 {
		return nil
	}
	return apperrors.New(apperrors.KindConfiguration, "config", strings.Join(problems, "; "))
}

// CheckOwner fails when OWNER_ADDRESS is set and differs from the address
// derived from the owner key.
func (c *DelegationConfig) CheckOwner(derived common.Address) error {
	if c.OwnerAddress == nil || *c.OwnerAddress == derived {
		return nil
	}
	return apperrors.Newf(apperrors.KindConfiguration, "config",
		"%s is %s but the owner key controls %s", EnvOwnerAddress, c.OwnerAddress.Hex(), derived.Hex())
}

// PollPolicy returns the inclusion polling settings.
func (c *DelegationConfig) PollPolicy() business.PollPolicy {
	poll := business.DefaultPollPolicy()
	poll.Interval = c.PollInterval
	if poll.MaxInterval < poll.Interval {
		poll.MaxInterval = poll.Interval
	}
	poll.Timeout = c.InclusionTimeout
	return poll
}

// Recipient returns the configured transaction destination, or nil to let the
// workflow pick the default for the operation.
func (c *DelegationConfig) Recipient(owner common.Address) *common.Address {
	switch c.RecipientMode {
	case constants.RecipientOwner:
		return &owner
	case constants.RecipientNull:
		null := common.Address{}
		return &null
	default:
		return nil
	}
}

// Request builds the delegation request for op. Revocations ignore the
// configured delegate.
func (c *DelegationConfig) Request(op Operation, owner common.Address) business.DelegationRequest {
	req := business.DelegationRequest{
		Policy:    c.NoncePolicy,
		Recipient: c.Recipient(owner),
		GasLimit:  c.GasLimit,
		Poll:      c.PollPolicy(),
	}
	if op == OperationInstall {
		req.Delegate = c.DelegateAddress
	}
	return req
}

func (c *DelegationConfig) parseDuration(getenv func(string) string, key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(getenv(key))
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	// Bare integers are seconds.
	if secs, err := strconv.ParseInt(v, 10, 64); err == nil {
		return time.Duration(secs) * time.Second
	}
	c.addProblem(key + " must be a duration such as 2s or 1m30s")
	return fallback
}

func (c *DelegationConfig) addProblem(problem string) {
	c.problems = append(c.problems, problem)
}

func supportedScheme(scheme string) bool {
	switch scheme {
	case "http", "https", "ws", "wss":
		return true
	default:
		return false
	}
}

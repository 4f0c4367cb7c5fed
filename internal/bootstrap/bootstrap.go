// Package bootstrap turns the process environment into a ready delegation
// workflow. The install, revoke and server commands all start here.
package bootstrap

import (
	"context"
	"os"

	"github.com/davecgh/go-spew/spew"
	"go.uber.org/zap"

	"github.com/cyphera/cyphera-delegation/libs/go/client/aws"
	"github.com/cyphera/cyphera-delegation/libs/go/client/rpc"
	"github.com/cyphera/cyphera-delegation/libs/go/config"
	"github.com/cyphera/cyphera-delegation/libs/go/constants"
	"github.com/cyphera/cyphera-delegation/libs/go/interfaces"
	"github.com/cyphera/cyphera-delegation/libs/go/logger"
	"github.com/cyphera/cyphera-delegation/libs/go/services"
	"github.com/cyphera/cyphera-delegation/libs/go/types/business"
)

// Runtime holds everything a delegation command needs
type Runtime struct {
	Config   *config.DelegationConfig
	Owner    *services.LocalIdentity
	FeePayer *services.LocalIdentity // nil when the owner pays
	Workflow *services.DelegationWorkflow

	client *rpc.Client
}

// Setup loads and validates the configuration for op, resolves the signing
// keys and connects to the node. Nothing is sent until the workflow runs.
func Setup(ctx context.Context, op config.Operation, options ...services.WorkflowOption) (*Runtime, error) {
	cfg := config.LoadFromEnv()
	if err := cfg.Validate(op); err != nil {
		return nil, err
	}

	secrets, err := newSecretSource(ctx, cfg)
	if err != nil {
		return nil, err
	}

	client, err := rpc.Dial(ctx, cfg.RPCURL, rpc.WithRateLimit(cfg.RPCRequestsPerSecond, constants.DefaultRPCBurst))
	if err != nil {
		return nil, err
	}

	rt, err := NewRuntime(ctx, cfg, secrets, client, options...)
	if err != nil {
		client.Close()
		return nil, err
	}
	rt.client = client
	return rt, nil
}

// NewRuntime builds the identities and workflow from an already validated
// configuration.
func NewRuntime(ctx context.Context, cfg *config.DelegationConfig, secrets interfaces.SecretSource, client interfaces.LedgerClient, options ...services.WorkflowOption) (*Runtime, error) {
	identities := services.NewIdentityService(secrets)

	owner, err := identities.Load(ctx, "owner", cfg.OwnerKey.ArnEnv, cfg.OwnerKey.FallbackEnv)
	if err != nil {
		return nil, err
	}
	if err := cfg.CheckOwner(owner.Address()); err != nil {
		owner.Discard()
		return nil, err
	}

	rt := &Runtime{Config: cfg, Owner: owner}

	opts := []services.WorkflowOption{services.WithExpectedChainID(cfg.ChainID)}
	if cfg.GasPayerKey != nil {
		payer, err := identities.Load(ctx, "gas payer", cfg.GasPayerKey.ArnEnv, cfg.GasPayerKey.FallbackEnv)
		if err != nil {
			owner.Discard()
			return nil, err
		}
		rt.FeePayer = payer
		opts = append(opts, services.WithFeePayer(payer))
	}
	opts = append(opts, options...)

	rt.Workflow = services.NewDelegationWorkflow(client, owner, opts...)
	return rt, nil
}

// Close discards the signing keys and releases the node connection.
func (r *Runtime) Close() {
	r.Owner.Discard()
	if r.FeePayer != nil {
		r.FeePayer.Discard()
	}
	if r.client != nil {
		r.client.Close()
	}
}

// DumpEnvelope logs the unsigned transaction at debug level.
func DumpEnvelope(tx *business.DelegationTransaction) {
	logger.L().Debug("Assembled delegation transaction", zap.String("envelope", spew.Sdump(tx)))
}

// newSecretSource only builds an AWS client when an ARN is configured, so
// local runs with raw keys need no AWS credentials.
func newSecretSource(ctx context.Context, cfg *config.DelegationConfig) (interfaces.SecretSource, error) {
	useAWS := os.Getenv(cfg.OwnerKey.ArnEnv) != ""
	if cfg.GasPayerKey != nil && os.Getenv(cfg.GasPayerKey.ArnEnv) != "" {
		useAWS = true
	}
	if !useAWS {
		return aws.NewSecretsManagerClientWithAPI(nil), nil
	}
	return aws.NewSecretsManagerClient(ctx)
}

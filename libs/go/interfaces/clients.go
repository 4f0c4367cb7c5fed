package interfaces

import (
	"context"
	"crypto/ecdsa"
	"math/big"

	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// LedgerClient is the JSON-RPC surface of a ledger node used by the
// delegation services. *ethclient.Client and the simulated backend client
// both satisfy it.
type LedgerClient interface {
	ChainID(ctx context.Context) (*big.Int, error)
	NonceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (uint64, error)
	CodeAt(ctx context.Context, account common.Address, blockNumber *big.Int) ([]byte, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
	SuggestGasTipCap(ctx context.Context) (*big.Int, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

// SecretsManagerAPI is the subset of the AWS Secrets Manager client used to
// fetch key material.
type SecretsManagerAPI interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// SecretSource supplies raw secret strings by logical name.
type SecretSource interface {
	GetSecretString(ctx context.Context, secretArnEnvVar string, fallbackEnvVar string) (string, error)
}

// SigningIdentity is a credential bound to one address. Implementations own
// their key material and never expose it.
type SigningIdentity interface {
	Address() common.Address
	PublicKey() *ecdsa.PublicKey
	// SignHash signs a 32-byte digest and returns a 65-byte [R || S || V] signature.
	SignHash(hash []byte) ([]byte, error)
	// SignMessage signs an EIP-191 personal message.
	SignMessage(msg []byte) ([]byte, error)
	SignAuthorization(auth types.SetCodeAuthorization) (types.SetCodeAuthorization, error)
	SignTransaction(tx *types.Transaction, signer types.Signer) (*types.Transaction, error)
}

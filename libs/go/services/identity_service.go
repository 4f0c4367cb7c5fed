package services

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/cyphera/cyphera-delegation/libs/go/apperrors"
	"github.com/cyphera/cyphera-delegation/libs/go/helpers"
	"github.com/cyphera/cyphera-delegation/libs/go/interfaces"
	"github.com/cyphera/cyphera-delegation/libs/go/logger"
)

// LocalIdentity is a SigningIdentity backed by an in-memory secp256k1 key.
// The key is never serialized; String and GoString print the address only.
type LocalIdentity struct {
	mu      sync.RWMutex
	key     *ecdsa.PrivateKey
	address common.Address
	public  ecdsa.PublicKey
}

var _ interfaces.SigningIdentity = (*LocalIdentity)(nil)

// NewLocalIdentity parses a hex private key (with or without 0x).
func NewLocalIdentity(hexKey string) (*LocalIdentity, error) {
	hexKey = strings.TrimSpace(hexKey)
	if !helpers.IsPrivateKeyValid(hexKey) {
		return nil, apperrors.New(apperrors.KindSigning, "NewLocalIdentity", "private key must be 32 bytes of hex")
	}
	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimPrefix(hexKey, "0x"), "0X"))
	if err != nil {
		// The crypto error text never contains key bytes.
		return nil, apperrors.Wrap(apperrors.KindSigning, "NewLocalIdentity", err)
	}
	return NewLocalIdentityFromKey(key), nil
}

// NewLocalIdentityFromKey wraps an existing key. The identity takes ownership of it.
func NewLocalIdentityFromKey(key *ecdsa.PrivateKey) *LocalIdentity {
	return &LocalIdentity{
		key:     key,
		address: crypto.PubkeyToAddress(key.PublicKey),
		public:  key.PublicKey,
	}
}

// Address returns the account bound to this identity.
func (i *LocalIdentity) Address() common.Address {
	return i.address
}

// PublicKey returns a copy of the public key.
func (i *LocalIdentity) PublicKey() *ecdsa.PublicKey {
	pub := i.public
	return &pub
}

// String identifies the account only; key material never reaches fmt.
func (i *LocalIdentity) String() string {
	return fmt.Sprintf("LocalIdentity(%s)", i.address.Hex())
}

func (i *LocalIdentity) GoString() string {
	return i.String()
}

// withKey runs fn with the key held, or fails if the key was discarded.
func (i *LocalIdentity) withKey(op string, fn func(*ecdsa.PrivateKey) error) error {
	i.mu.RLock()
	defer i.mu.RUnlock()
	if i.key == nil {
		return apperrors.Newf(apperrors.KindSigning, op, "key material for %s is unavailable", i.address.Hex())
	}
	if err := fn(i.key); err != nil {
		return apperrors.Wrap(apperrors.KindSigning, op, err)
	}
	return nil
}

// SignHash signs a 32-byte digest. The recovery id is 0 or 1.
func (i *LocalIdentity) SignHash(hash []byte) ([]byte, error) {
	var sig []byte
	err := i.withKey("SignHash", func(key *ecdsa.PrivateKey) error {
		var err error
		sig, err = crypto.Sign(hash, key)
		return err
	})
	return sig, err
}

// SignMessage signs an EIP-191 personal message. The recovery id is 27 or 28.
func (i *LocalIdentity) SignMessage(msg []byte) ([]byte, error) {
	sig, err := i.SignHash(accounts.TextHash(msg))
	if err != nil {
		return nil, err
	}
	sig[crypto.RecoveryIDOffset] += 27
	return sig, nil
}

// SignAuthorization signs a set-code authorization over (chainId, address, nonce).
func (i *LocalIdentity) SignAuthorization(auth types.SetCodeAuthorization) (types.SetCodeAuthorization, error) {
	var signed types.SetCodeAuthorization
	err := i.withKey("SignAuthorization", func(key *ecdsa.PrivateKey) error {
		var err error
		signed, err = types.SignSetCode(key, auth)
		return err
	})
	return signed, err
}

// SignTransaction signs tx with the given signer.
func (i *LocalIdentity) SignTransaction(tx *types.Transaction, signer types.Signer) (*types.Transaction, error) {
	var signed *types.Transaction
	err := i.withKey("SignTransaction", func(key *ecdsa.PrivateKey) error {
		var err error
		signed, err = types.SignTx(tx, signer, key)
		return err
	})
	return signed, err
}

// Discard zeroes the private scalar. Every later signing call fails.
func (i *LocalIdentity) Discard() {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.key == nil {
		return
	}
	if i.key.D != nil {
		i.key.D.SetInt64(0)
	}
	i.key = nil
}

// IdentityService resolves secret material into signing identities.
type IdentityService struct {
	secrets interfaces.SecretSource
	logger  *logger.StructuredLogger
}

// NewIdentityService creates a new identity service
func NewIdentityService(secrets interfaces.SecretSource) *IdentityService {
	return &IdentityService{
		secrets: secrets,
		logger:  logger.NewStructuredLogger(logger.ComponentIdentity),
	}
}

// Load fetches a private key through the secret source and builds an identity.
// A missing secret is a configuration error; a malformed one is a signing error.
func (s *IdentityService) Load(ctx context.Context, role, secretArnEnvVar, fallbackEnvVar string) (*LocalIdentity, error) {
	raw, err := s.secrets.GetSecretString(ctx, secretArnEnvVar, fallbackEnvVar)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindConfiguration, "Load "+role+" identity", err)
	}

	identity, err := NewLocalIdentity(raw)
	if err != nil {
		return nil, fmt.Errorf("%s identity: %w", role, err)
	}

	s.logger.WithFields(map[string]interface{}{
		"role":    role,
		"address": identity.Address().Hex(),
	}).Info("Signing identity loaded")
	return identity, nil
}

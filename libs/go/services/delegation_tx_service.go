package services

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/holiman/uint256"

	"github.com/cyphera/cyphera-delegation/libs/go/apperrors"
	"github.com/cyphera/cyphera-delegation/libs/go/interfaces"
	"github.com/cyphera/cyphera-delegation/libs/go/logger"
	"github.com/cyphera/cyphera-delegation/libs/go/types/business"
)

// DelegationTxService assembles and signs set-code (type 0x04) envelopes.
type DelegationTxService struct {
	logger *logger.StructuredLogger
}

var _ interfaces.TransactionAssembler = (*DelegationTxService)(nil)

// NewDelegationTxService creates a new delegation transaction service
func NewDelegationTxService() *DelegationTxService {
	return &DelegationTxService{
		logger: logger.NewStructuredLogger(logger.ComponentAssembler),
	}
}

// AssembleTransaction wraps auth into an unsigned envelope sent by feePayer.
// The envelope chain id is taken from the authorization, value is zero and
// data is empty. Fee caps are passed through unmodified and must both be set.
func (s *DelegationTxService) AssembleTransaction(auth business.AuthorizationTuple, feePayer interfaces.SigningIdentity, feePayerNonce uint64, recipient common.Address, fees business.FeeParameters, gasLimit uint64) (*business.DelegationTransaction, error) {
	const op = "AssembleTransaction"

	if feePayer == nil {
		return nil, apperrors.New(apperrors.KindSigning, op, "fee payer identity is not available")
	}
	if gasLimit == 0 {
		return nil, apperrors.New(apperrors.KindConfiguration, op, "gas limit must be positive")
	}

	tx := &business.DelegationTransaction{
		ChainID:           auth.ChainID(),
		From:              feePayer.Address(),
		Nonce:             feePayerNonce,
		To:                recipient,
		Value:             new(big.Int),
		Data:              []byte{},
		GasLimit:          gasLimit,
		Fees:              fees,
		AuthorizationList: []business.AuthorizationTuple{auth},
	}
	if err := validateEnvelope(op, tx); err != nil {
		return nil, err
	}

	s.logger.WithFields(map[string]interface{}{
		"fee_payer":                feePayer.Address().Hex(),
		"fee_payer_nonce":          feePayerNonce,
		"to":                       recipient.Hex(),
		"chain_id":                 tx.ChainID,
		"gas_limit":                gasLimit,
		"max_fee_per_gas":          fees.MaxFeePerGas.String(),
		"max_priority_fee_per_gas": fees.MaxPriorityFeePerGas.String(),
		"authorization":            auth.View(),
	}).Debug("Delegation transaction assembled")

	return tx, nil
}

// Sign converts tx into a go-ethereum set-code transaction and signs it with
// the fee payer. The signer must be the account the envelope was assembled for.
func (s *DelegationTxService) Sign(tx *business.DelegationTransaction, feePayer interfaces.SigningIdentity) (*types.Transaction, error) {
	const op = "Sign"

	if tx == nil {
		return nil, apperrors.New(apperrors.KindConfiguration, op, "transaction is nil")
	}
	if feePayer == nil {
		return nil, apperrors.New(apperrors.KindSigning, op, "fee payer identity is not available")
	}
	if feePayer.Address() != tx.From {
		return nil, apperrors.Newf(apperrors.KindSigning, op,
			"transaction is assembled for %s, not %s", tx.From.Hex(), feePayer.Address().Hex())
	}
	if err := validateEnvelope(op, tx); err != nil {
		return nil, err
	}

	feeCap, err := toUint256("maxFeePerGas", tx.Fees.MaxFeePerGas)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindMissingFeeData, op, err)
	}
	tipCap, err := toUint256("maxPriorityFeePerGas", tx.Fees.MaxPriorityFeePerGas)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindMissingFeeData, op, err)
	}
	value, err := toUint256("value", tx.Value)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindConfiguration, op, err)
	}

	authList := make([]types.SetCodeAuthorization, 0, len(tx.AuthorizationList))
	for _, auth := range tx.AuthorizationList {
		authList = append(authList, auth.SetCode())
	}

	chainID := new(big.Int).SetUint64(tx.ChainID)
	unsigned := types.NewTx(&types.SetCodeTx{
		ChainID:   uint256.NewInt(tx.ChainID),
		Nonce:     tx.Nonce,
		GasTipCap: tipCap,
		GasFeeCap: feeCap,
		Gas:       tx.GasLimit,
		To:        tx.To,
		Value:     value,
		Data:      tx.Data,
		AuthList:  authList,
	})

	signed, err := feePayer.SignTransaction(unsigned, types.NewPragueSigner(chainID))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindSigning, op, err)
	}

	s.logger.WithFields(map[string]interface{}{
		"fee_payer": tx.From.Hex(),
		"tx_hash":   signed.Hash().Hex(),
		"chain_id":  tx.ChainID,
	}).Info("Delegation transaction signed")

	return signed, nil
}

// validateEnvelope enforces the set-code envelope invariants.
func validateEnvelope(op string, tx *business.DelegationTransaction) error {
	if len(tx.AuthorizationList) == 0 {
		return apperrors.New(apperrors.KindConfiguration, op, "authorization list is empty")
	}
	for i, auth := range tx.AuthorizationList {
		if auth.ChainID() != tx.ChainID {
			return apperrors.Newf(apperrors.KindChainIDMismatch, op,
				"authorization %d is bound to chain %d, envelope to chain %d", i, auth.ChainID(), tx.ChainID)
		}
	}
	if tx.Value != nil && tx.Value.Sign() != 0 {
		return apperrors.New(apperrors.KindConfiguration, op, "delegation transaction must not carry value")
	}
	if len(tx.Data) != 0 {
		return apperrors.New(apperrors.KindConfiguration, op, "delegation transaction must not carry data")
	}
	if !tx.Fees.Complete() {
		return apperrors.Newf(apperrors.KindMissingFeeData, op, "missing %s", strings.Join(tx.Fees.Missing(), ", "))
	}
	return nil
}

func toUint256(field string, v *big.Int) (*uint256.Int, error) {
	if v == nil {
		return new(uint256.Int), nil
	}
	if v.Sign() < 0 {
		return nil, fmt.Errorf("%s is negative", field)
	}
	out, overflow := uint256.FromBig(v)
	if overflow {
		return nil, fmt.Errorf("%s overflows 256 bits", field)
	}
	return out, nil
}

package services

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/cyphera/cyphera-delegation/libs/go/apperrors"
	"github.com/cyphera/cyphera-delegation/libs/go/interfaces"
	"github.com/cyphera/cyphera-delegation/libs/go/logger"
	"github.com/cyphera/cyphera-delegation/libs/go/types/business"
)

// ChainStateService reads nonce, code and fee-market data from a ledger node.
// All reads are against the latest block and are side-effect free.
type ChainStateService struct {
	client interfaces.LedgerClient
	logger *logger.StructuredLogger
}

var _ interfaces.ChainStateReader = (*ChainStateService)(nil)

// NewChainStateService creates a new chain state service
func NewChainStateService(client interfaces.LedgerClient) *ChainStateService {
	return &ChainStateService{
		client: client,
		logger: logger.NewStructuredLogger(logger.ComponentChain),
	}
}

// ChainID returns the node's chain id.
func (s *ChainStateService) ChainID(ctx context.Context) (uint64, error) {
	start := time.Now()
	id, err := s.client.ChainID(ctx)
	s.logger.LogChainQuery("eth_chainId", "", time.Since(start), err)
	if err != nil {
		return 0, apperrors.Wrap(apperrors.KindChainRead, "ChainID", err)
	}
	if !id.IsUint64() {
		return 0, apperrors.Newf(apperrors.KindChainRead, "ChainID", "chain id %s does not fit in 64 bits", id)
	}
	return id.Uint64(), nil
}

// GetTransactionCount returns the account's transaction count at the latest block.
func (s *ChainStateService) GetTransactionCount(ctx context.Context, address common.Address) (uint64, error) {
	start := time.Now()
	nonce, err := s.client.NonceAt(ctx, address, nil)
	s.logger.LogChainQuery("eth_getTransactionCount", address.Hex(), time.Since(start), err)
	if err != nil {
		return 0, apperrors.Wrap(apperrors.KindChainRead, "GetTransactionCount", err)
	}
	return nonce, nil
}

// GetCode returns the code deployed at address. An EOA without a delegate has empty code.
func (s *ChainStateService) GetCode(ctx context.Context, address common.Address) ([]byte, error) {
	start := time.Now()
	code, err := s.client.CodeAt(ctx, address, nil)
	s.logger.LogChainQuery("eth_getCode", address.Hex(), time.Since(start), err)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindChainRead, "GetCode", err)
	}
	if code == nil {
		code = []byte{}
	}
	return code, nil
}

// GetFeeEstimate suggests EIP-1559 fee caps: the node's tip suggestion and
// maxFeePerGas = tip + 2*baseFee. On a chain without a base fee the
// maxFeePerGas field is left nil.
func (s *ChainStateService) GetFeeEstimate(ctx context.Context) (business.FeeParameters, error) {
	start := time.Now()
	tip, err := s.client.SuggestGasTipCap(ctx)
	s.logger.LogChainQuery("eth_maxPriorityFeePerGas", "", time.Since(start), err)
	if err != nil {
		return business.FeeParameters{}, apperrors.Wrap(apperrors.KindChainRead, "GetFeeEstimate", err)
	}

	start = time.Now()
	head, err := s.client.HeaderByNumber(ctx, nil)
	s.logger.LogChainQuery("eth_getBlockByNumber", "", time.Since(start), err)
	if err != nil {
		return business.FeeParameters{}, apperrors.Wrap(apperrors.KindChainRead, "GetFeeEstimate", err)
	}

	fees := business.FeeParameters{MaxPriorityFeePerGas: tip}
	if tip != nil && head != nil && head.BaseFee != nil {
		fees.MaxFeePerGas = new(big.Int).Add(tip, new(big.Int).Mul(head.BaseFee, big.NewInt(2)))
	}
	return fees, nil
}

// GetAccountState reads nonce and code together and parses the current delegate.
func (s *ChainStateService) GetAccountState(ctx context.Context, address common.Address) (business.AccountState, error) {
	nonce, err := s.GetTransactionCount(ctx, address)
	if err != nil {
		return business.AccountState{}, err
	}
	code, err := s.GetCode(ctx, address)
	if err != nil {
		return business.AccountState{}, err
	}
	return business.NewAccountState(address, nonce, code), nil
}

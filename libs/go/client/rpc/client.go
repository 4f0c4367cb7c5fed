// Package rpc provides the ledger JSON-RPC client used by the delegation
// services. It wraps go-ethereum's ethclient with a client-side rate limit so
// inclusion polling stays inside provider quotas.
package rpc

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/cyphera/cyphera-delegation/libs/go/apperrors"
	"github.com/cyphera/cyphera-delegation/libs/go/constants"
	"github.com/cyphera/cyphera-delegation/libs/go/interfaces"
	"github.com/cyphera/cyphera-delegation/libs/go/logger"
)

// ClientOption represents a function that can modify the client
type ClientOption func(*Client)

// Client is a rate-limited LedgerClient.
type Client struct {
	backend     interfaces.LedgerClient
	closer      func()
	limiter     *rate.Limiter
	callTimeout time.Duration
}

var _ interfaces.LedgerClient = (*Client)(nil)

// WithRateLimit sets the sustained requests per second and burst size.
// A non-positive rps disables limiting.
func WithRateLimit(rps float64, burst int) ClientOption {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 0)
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithCallTimeout bounds every individual RPC call.
func WithCallTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.callTimeout = timeout
	}
}

// Dial connects to the node at rawURL.
func Dial(ctx context.Context, rawURL string, options ...ClientOption) (*Client, error) {
	ec, err := ethclient.DialContext(ctx, rawURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RPC endpoint: %w", err)
	}
	client := NewClient(ec, options...)
	client.closer = ec.Close

	logger.L().Info("Connected to ledger RPC", zap.String("endpoint", redactURL(rawURL)))
	return client, nil
}

// NewClient wraps an existing LedgerClient.
func NewClient(backend interfaces.LedgerClient, options ...ClientOption) *Client {
	client := &Client{
		backend:     backend,
		limiter:     rate.NewLimiter(rate.Limit(constants.DefaultRPCRequestsPerSec), constants.DefaultRPCBurst),
		callTimeout: 30 * time.Second,
	}
	for _, option := range options {
		option(client)
	}
	return client
}

// Close releases the underlying connection.
func (c *Client) Close() {
	if c.closer != nil {
		c.closer()
	}
}

// acquire waits for a request slot. A refused slot means the call never left
// this process and is reported as a chain-read error, never as a node answer.
func (c *Client) acquire(ctx context.Context) (context.Context, context.CancelFunc, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, nil, apperrors.Wrap(apperrors.KindChainRead, "rpc rate limiter", err)
	}
	if c.callTimeout <= 0 {
		ctx, cancel := context.WithCancel(ctx)
		return ctx, cancel, nil
	}
	ctx, cancel := context.WithTimeout(ctx, c.callTimeout)
	return ctx, cancel, nil
}

func (c *Client) ChainID(ctx context.Context) (*big.Int, error) {
	ctx, cancel, err := c.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer cancel()
	return c.backend.ChainID(ctx)
}

func (c *Client) NonceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (uint64, error) {
	ctx, cancel, err := c.acquire(ctx)
	if err != nil {
		return 0, err
	}
	defer cancel()
	return c.backend.NonceAt(ctx, account, blockNumber)
}

func (c *Client) CodeAt(ctx context.Context, account common.Address, blockNumber *big.Int) ([]byte, error) {
	ctx, cancel, err := c.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer cancel()
	return c.backend.CodeAt(ctx, account, blockNumber)
}

func (c *Client) HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error) {
	ctx, cancel, err := c.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer cancel()
	return c.backend.HeaderByNumber(ctx, number)
}

func (c *Client) SuggestGasTipCap(ctx context.Context) (*big.Int, error) {
	ctx, cancel, err := c.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer cancel()
	return c.backend.SuggestGasTipCap(ctx)
}

func (c *Client) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	ctx, cancel, err := c.acquire(ctx)
	if err != nil {
		return err
	}
	defer cancel()
	return c.backend.SendTransaction(ctx, tx)
}

func (c *Client) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	ctx, cancel, err := c.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer cancel()
	return c.backend.TransactionReceipt(ctx, txHash)
}

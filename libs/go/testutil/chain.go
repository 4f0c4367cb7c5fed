package testutil

import (
	"context"
	"crypto/ecdsa"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient/simulated"
	"github.com/ethereum/go-ethereum/params"
	"github.com/stretchr/testify/require"
)

// SimulatedChain is an in-process Prague ledger with pre-funded accounts.
type SimulatedChain struct {
	Backend *simulated.Backend
	Keys    []*ecdsa.PrivateKey
}

// NewSimulatedChain starts a simulated ledger and funds n fresh accounts
// with 100 ether each. The backend is closed when the test ends.
func NewSimulatedChain(t *testing.T, n int) *SimulatedChain {
	t.Helper()
	return NewSimulatedChainWithNonces(t, make([]uint64, n)...)
}

// NewSimulatedChainWithNonces funds one account per entry and starts it at
// the given nonce.
func NewSimulatedChainWithNonces(t *testing.T, nonces ...uint64) *SimulatedChain {
	t.Helper()

	funds := new(big.Int).Mul(big.NewInt(100), big.NewInt(params.Ether))
	alloc := types.GenesisAlloc{}
	keys := make([]*ecdsa.PrivateKey, 0, len(nonces))
	for _, nonce := range nonces {
		key, err := crypto.GenerateKey()
		require.NoError(t, err)
		keys = append(keys, key)
		alloc[crypto.PubkeyToAddress(key.PublicKey)] = types.Account{Balance: funds, Nonce: nonce}
	}

	backend := simulated.NewBackend(alloc)
	t.Cleanup(func() { _ = backend.Close() })

	return &SimulatedChain{Backend: backend, Keys: keys}
}

// Client returns the RPC client of the backend.
func (c *SimulatedChain) Client() simulated.Client {
	return c.Backend.Client()
}

// Address returns the address of the i-th funded account.
func (c *SimulatedChain) Address(i int) common.Address {
	return crypto.PubkeyToAddress(c.Keys[i].PublicKey)
}

// ChainID returns the chain id reported by the backend.
func (c *SimulatedChain) ChainID(t *testing.T) uint64 {
	t.Helper()
	id, err := c.Client().ChainID(context.Background())
	require.NoError(t, err)
	return id.Uint64()
}

// AutoCommit mines a block every interval until the returned stop function
// is called. It stands in for a live network while a workflow polls.
func (c *SimulatedChain) AutoCommit(interval time.Duration) (stop func()) {
	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.Backend.Commit()
			}
		}
	}()
	return func() {
		cancel()
		wg.Wait()
	}
}

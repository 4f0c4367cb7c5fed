package constants

import (
	"time"

	"github.com/ethereum/go-ethereum/params"
)

// Defaults carried over from the delegation scripts
const (
	DefaultChainID           uint64 = 1
	DefaultGasLimit          uint64 = 100000
	DefaultPollInterval             = 2 * time.Second
	DefaultMaxPollInterval          = 12 * time.Second
	DefaultInclusionTimeout         = 2 * time.Minute
	DefaultRPCRequestsPerSec        = 10
	DefaultRPCBurst                 = 5

	DefaultHTTPRequestsPerSec = 1
	DefaultHTTPBurst          = 3
)

// MinGasLimit covers the intrinsic cost of a call plus one authorization.
const MinGasLimit = params.TxGas + params.CallNewAccountGas

// MaxWaitSeconds bounds the inclusion wait a single HTTP request may ask for.
const MaxWaitSeconds = 600

// NullAddress is the sentinel delegate used to revoke a delegation.
const NullAddress = "0x0000000000000000000000000000000000000000"

// ExplorerTxURLs maps well-known chain ids to a transaction explorer prefix.
var ExplorerTxURLs = map[uint64]string{
	1:        "https://etherscan.io/tx/",
	10:       "https://optimistic.etherscan.io/tx/",
	137:      "https://polygonscan.com/tx/",
	8453:     "https://basescan.org/tx/",
	17000:    "https://holesky.etherscan.io/tx/",
	42161:    "https://arbiscan.io/tx/",
	84532:    "https://sepolia.basescan.org/tx/",
	11155111: "https://sepolia.etherscan.io/tx/",
}

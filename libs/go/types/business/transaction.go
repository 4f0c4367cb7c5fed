package business

import (
	"bytes"
	"fmt"
	"math/big"
	"time"

	"github.com/cyphera/cyphera-delegation/libs/go/constants"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
)

// DelegationTransaction is an unsigned set-code envelope carrying the
// authorization list. It is signed once by the fee payer and then discarded.
type DelegationTransaction struct {
	ChainID           uint64
	From              common.Address // fee payer
	Nonce             uint64         // fee payer nonce
	To                common.Address
	Value             *big.Int
	Data              []byte
	GasLimit          uint64
	Fees              FeeParameters
	AuthorizationList []AuthorizationTuple
}

// Type returns the envelope discriminator.
func (t *DelegationTransaction) Type() uint8 {
	return types.SetCodeTxType
}

// InclusionStatus is the observed state of a broadcast transaction.
type InclusionStatus string

const (
	InclusionPending  InclusionStatus = constants.PendingStatus
	InclusionSuccess  InclusionStatus = constants.SuccessStatus
	InclusionReverted InclusionStatus = constants.RevertedStatus
)

// StatusFromReceipt maps a receipt status code to an InclusionStatus.
func StatusFromReceipt(status uint64) InclusionStatus {
	if status == types.ReceiptStatusSuccessful {
		return InclusionSuccess
	}
	return InclusionReverted
}

// PollPolicy controls how long and how often inclusion is polled.
type PollPolicy struct {
	Interval    time.Duration
	MaxInterval time.Duration
	// Timeout bounds the wait; zero means the caller's context alone bounds it.
	Timeout time.Duration
	// FailOnTimeout reports an inclusion-timeout error alongside the pending
	// outcome instead of returning it as a plain result.
	FailOnTimeout bool
}

// DefaultPollPolicy returns the polling defaults.
func DefaultPollPolicy() PollPolicy {
	return PollPolicy{
		Interval:    constants.DefaultPollInterval,
		MaxInterval: constants.DefaultMaxPollInterval,
		Timeout:     constants.DefaultInclusionTimeout,
	}
}

// DelegationOutcome summarizes a submitted delegation for the caller.
type DelegationOutcome struct {
	CorrelationID      string          `json:"correlation_id,omitempty"`
	Owner              common.Address  `json:"owner"`
	FeePayer           common.Address  `json:"fee_payer"`
	Delegate           common.Address  `json:"delegate"`
	AuthorizationNonce uint64          `json:"authorization_nonce"`
	TransactionHash    common.Hash     `json:"transaction_hash"`
	Status             InclusionStatus `json:"status"`
	BlockNumber        uint64          `json:"block_number,omitempty"`
	GasUsed            uint64          `json:"gas_used,omitempty"`
	CodeBefore         hexutil.Bytes   `json:"code_before"`
	CodeAfter          hexutil.Bytes   `json:"code_after"`
	ExplorerURL        string          `json:"explorer_url,omitempty"`
}

// ExpectedCode returns the account code a delegate should leave behind: the
// 0xef0100 marker followed by the delegate, or empty code for the null address.
func ExpectedCode(delegate common.Address) []byte {
	if delegate == (common.Address{}) {
		return []byte{}
	}
	return types.AddressToDelegation(delegate)
}

// Verify checks that the observed post-inclusion code matches the delegate
// carried by the authorization.
func (o *DelegationOutcome) Verify() error {
	if o.Status != InclusionSuccess {
		return fmt.Errorf("transaction %s is %s", o.TransactionHash.Hex(), o.Status)
	}
	want := ExpectedCode(o.Delegate)
	if !bytes.Equal(o.CodeAfter, want) {
		return fmt.Errorf("unexpected code for %s: got %s, want %s",
			o.Owner.Hex(), hexutil.Encode(o.CodeAfter), hexutil.Encode(want))
	}
	return nil
}

// ExplorerTxURL returns an explorer link for well-known chains, or "".
func ExplorerTxURL(chainID uint64, hash common.Hash) string {
	prefix, ok := constants.ExplorerTxURLs[chainID]
	if !ok {
		return ""
	}
	return prefix + hash.Hex()
}

// AccountState is a point-in-time view of an account's delegation.
type AccountState struct {
	Address  common.Address  `json:"address"`
	Nonce    uint64          `json:"nonce"`
	Code     hexutil.Bytes   `json:"code"`
	Delegate *common.Address `json:"delegate,omitempty"`
}

// NewAccountState parses the delegate out of code when it has the delegation layout.
func NewAccountState(address common.Address, nonce uint64, code []byte) AccountState {
	state := AccountState{Address: address, Nonce: nonce, Code: code}
	if delegate, ok := types.ParseDelegation(code); ok {
		state.Delegate = &delegate
	}
	return state
}

// InclusionWatch identifies the account whose code is re-read after inclusion.
type InclusionWatch struct {
	Owner      common.Address
	Delegate   common.Address
	CodeBefore []byte
}

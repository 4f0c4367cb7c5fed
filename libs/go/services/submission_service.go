package services

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/cyphera/cyphera-delegation/libs/go/apperrors"
	"github.com/cyphera/cyphera-delegation/libs/go/constants"
	"github.com/cyphera/cyphera-delegation/libs/go/interfaces"
	"github.com/cyphera/cyphera-delegation/libs/go/logger"
	"github.com/cyphera/cyphera-delegation/libs/go/types/business"
)

const pollMultiplier = 1.5

// SubmissionService broadcasts signed delegation transactions and tracks them
// until they are mined.
type SubmissionService struct {
	client interfaces.LedgerClient
	chain  interfaces.ChainStateReader
	logger *logger.StructuredLogger
}

var _ interfaces.SubmissionTracker = (*SubmissionService)(nil)

// NewSubmissionService creates a new submission service
func NewSubmissionService(client interfaces.LedgerClient, chain interfaces.ChainStateReader) *SubmissionService {
	return &SubmissionService{
		client: client,
		chain:  chain,
		logger: logger.NewStructuredLogger(logger.ComponentTracker),
	}
}

// Submit broadcasts signed exactly once. A refusal by the node is returned as
// a broadcast-rejected error carrying the node's message unchanged. A send
// that never reached the node, or was cut off by ctx, is a chain-read error.
func (s *SubmissionService) Submit(ctx context.Context, signed *types.Transaction) (common.Hash, error) {
	if signed == nil {
		return common.Hash{}, apperrors.New(apperrors.KindConfiguration, "Submit", "transaction is nil")
	}
	hash := signed.Hash()

	start := time.Now()
	err := s.client.SendTransaction(ctx, signed)
	l := s.logger.WithFields(map[string]interface{}{
		"tx_hash": hash.Hex(),
		"tx_type": signed.Type(),
		"nonce":   signed.Nonce(),
	}).WithDuration(time.Since(start))
	if err != nil {
		var classified *apperrors.Error
		switch {
		case errors.As(err, &classified):
			// Refused before reaching the node, e.g. by the client rate limiter.
			l.Error("Broadcast not sent", err)
			return common.Hash{}, err
		case ctx.Err() != nil:
			l.Error("Broadcast interrupted", err)
			return common.Hash{}, apperrors.Wrap(apperrors.KindChainRead, "Submit", err)
		}
		l.Error("Broadcast rejected", err)
		return common.Hash{}, apperrors.Wrap(apperrors.KindBroadcastRejected, "Submit", err)
	}

	l.Info("Transaction broadcast")
	return hash, nil
}

// AwaitInclusion polls for the receipt of hash until it is mined, the poll
// timeout elapses or ctx is done. When the wait ends without a receipt the
// outcome is pending and, unless poll.FailOnTimeout is set, no error is
// returned. After inclusion the owner's code is re-read into CodeAfter.
func (s *SubmissionService) AwaitInclusion(ctx context.Context, hash common.Hash, watch business.InclusionWatch, poll business.PollPolicy) (*business.DelegationOutcome, error) {
	outcome := &business.DelegationOutcome{
		Owner:           watch.Owner,
		Delegate:        watch.Delegate,
		TransactionHash: hash,
		Status:          business.InclusionPending,
		CodeBefore:      watch.CodeBefore,
	}

	pollCtx := ctx
	if poll.Timeout > 0 {
		var cancel context.CancelFunc
		pollCtx, cancel = context.WithTimeout(ctx, poll.Timeout)
		defer cancel()
	}

	l := s.logger.WithField("tx_hash", hash.Hex())
	attempts := 0
	var receipt *types.Receipt
	operation := func() error {
		attempts++
		r, err := s.client.TransactionReceipt(pollCtx, hash)
		if err != nil {
			return err
		}
		receipt = r
		return nil
	}
	notify := func(err error, next time.Duration) {
		if errors.Is(err, ethereum.NotFound) {
			l.WithField("next_poll", next).Debug("Transaction not yet included")
			return
		}
		l.WithField("next_poll", next).Warn("Receipt query failed: " + err.Error())
	}

	err := backoff.RetryNotify(operation, backoff.WithContext(newPollBackOff(poll), pollCtx), notify)
	if err != nil || receipt == nil {
		if pollCtx.Err() == nil && err != nil {
			return outcome, apperrors.Wrap(apperrors.KindChainRead, "AwaitInclusion", err)
		}
		l.WithFields(map[string]interface{}{
			"attempts": attempts,
			"timeout":  poll.Timeout,
		}).Warn("Transaction still pending")
		if poll.FailOnTimeout {
			return outcome, apperrors.Newf(apperrors.KindInclusionTimeout, "AwaitInclusion",
				"transaction %s not included after %d polls", hash.Hex(), attempts)
		}
		return outcome, nil
	}

	outcome.Status = business.StatusFromReceipt(receipt.Status)
	outcome.GasUsed = receipt.GasUsed
	if receipt.BlockNumber != nil {
		outcome.BlockNumber = receipt.BlockNumber.Uint64()
	}

	code, err := s.chain.GetCode(ctx, watch.Owner)
	if err != nil {
		return outcome, err
	}
	outcome.CodeAfter = code

	l.LogDelegationEvent(watch.Owner.Hex(), hash.Hex(), string(outcome.Status), map[string]interface{}{
		"block_number": outcome.BlockNumber,
		"gas_used":     outcome.GasUsed,
		"attempts":     attempts,
		"code_after":   outcome.CodeAfter.String(),
	})
	return outcome, nil
}

// newPollBackOff builds a capped exponential schedule with no elapsed-time
// limit; the context is the only stop condition.
func newPollBackOff(poll business.PollPolicy) backoff.BackOff {
	interval := poll.Interval
	if interval <= 0 {
		interval = constants.DefaultPollInterval
	}
	maxInterval := poll.MaxInterval
	if maxInterval < interval {
		maxInterval = interval
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = interval
	b.MaxInterval = maxInterval
	b.Multiplier = pollMultiplier
	b.RandomizationFactor = 0
	b.MaxElapsedTime = 0
	return b
}

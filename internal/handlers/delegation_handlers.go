package handlers

import (
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"

	"github.com/cyphera/cyphera-delegation/libs/go/apperrors"
	"github.com/cyphera/cyphera-delegation/libs/go/constants"
	"github.com/cyphera/cyphera-delegation/libs/go/helpers"
	"github.com/cyphera/cyphera-delegation/libs/go/interfaces"
	"github.com/cyphera/cyphera-delegation/libs/go/types/api/requests"
	"github.com/cyphera/cyphera-delegation/libs/go/types/api/responses"
	"github.com/cyphera/cyphera-delegation/libs/go/types/business"
)

const requestOp = "request"

// DelegationHandler exposes install, revoke and inspect over HTTP
type DelegationHandler struct {
	runner   interfaces.DelegationRunner
	defaults business.DelegationRequest
}

// NewDelegationHandler creates a new DelegationHandler instance. defaults
// supplies the policy, gas limit, recipient and polling used when a request
// leaves them out; its Delegate is ignored.
func NewDelegationHandler(runner interfaces.DelegationRunner, defaults business.DelegationRequest) *DelegationHandler {
	defaults.Delegate = common.Address{}
	return &DelegationHandler{runner: runner, defaults: defaults}
}

// GetDelegation returns the nonce, code and current delegate of an address.
// GET /api/delegations/:address
func (h *DelegationHandler) GetDelegation(c *gin.Context) {
	address, err := helpers.ParseAddress("address", c.Param("address"))
	if err != nil {
		sendError(c, err)
		return
	}

	state, err := h.runner.Inspect(c.Request.Context(), address)
	if err != nil {
		sendError(c, err)
		return
	}

	sendSuccess(c, http.StatusOK, responses.NewAccountStateResponse(state))
}

// InstallDelegation points the owner account at a delegate contract.
// POST /api/delegations
func (h *DelegationHandler) InstallDelegation(c *gin.Context) {
	var body requests.InstallDelegationRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		sendError(c, apperrors.Wrap(apperrors.KindConfiguration, requestOp, err))
		return
	}

	delegate, err := helpers.ParseAddress("delegate_address", body.DelegateAddress)
	if err != nil {
		sendError(c, err)
		return
	}
	if helpers.IsNullAddress(delegate) {
		sendError(c, apperrors.New(apperrors.KindConfiguration, requestOp, "delegate_address must not be the null address, use DELETE to revoke"))
		return
	}

	req, err := h.buildRequest(body.NoncePolicy, body.Recipient, body.GasLimit, body.WaitSeconds)
	if err != nil {
		sendError(c, err)
		return
	}
	req.Delegate = delegate

	outcome, err := h.runner.Install(c.Request.Context(), req)
	h.sendOutcome(c, outcome, err)
}

// RevokeDelegation clears the owner's delegation. The body is optional.
// DELETE /api/delegations
func (h *DelegationHandler) RevokeDelegation(c *gin.Context) {
	var body requests.RevokeDelegationRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			sendError(c, apperrors.Wrap(apperrors.KindConfiguration, requestOp, err))
			return
		}
	}

	req, err := h.buildRequest(body.NoncePolicy, body.Recipient, body.GasLimit, body.WaitSeconds)
	if err != nil {
		sendError(c, err)
		return
	}

	outcome, err := h.runner.Revoke(c.Request.Context(), req)
	h.sendOutcome(c, outcome, err)
}

func (h *DelegationHandler) buildRequest(policy, recipient string, gasLimit uint64, waitSeconds int) (business.DelegationRequest, error) {
	req := h.defaults

	if policy != "" {
		parsed, err := business.ParseNoncePolicy(policy)
		if err != nil {
			return req, apperrors.Wrap(apperrors.KindConfiguration, requestOp, err)
		}
		req.Policy = parsed
	}

	switch recipient {
	case "":
	case constants.RecipientOwner:
		owner := h.runner.Owner()
		req.Recipient = &owner
	case constants.RecipientNull:
		req.Recipient = &common.Address{}
	default:
		return req, apperrors.Newf(apperrors.KindConfiguration, requestOp,
			"recipient must be %q or %q", constants.RecipientOwner, constants.RecipientNull)
	}

	if gasLimit != 0 {
		if gasLimit < constants.MinGasLimit {
			return req, apperrors.Newf(apperrors.KindConfiguration, requestOp, "gas_limit must be at least %d", constants.MinGasLimit)
		}
		req.GasLimit = gasLimit
	}

	if waitSeconds < 0 || waitSeconds > constants.MaxWaitSeconds {
		return req, apperrors.Newf(apperrors.KindConfiguration, requestOp, "wait_seconds must be between 0 and %d", constants.MaxWaitSeconds)
	}
	if waitSeconds > 0 {
		req.Poll.Timeout = time.Duration(waitSeconds) * time.Second
	}

	return req, nil
}

// sendOutcome renders a workflow result. A transaction still pending when the
// wait ends is reported with 202 so the caller knows to check back.
func (h *DelegationHandler) sendOutcome(c *gin.Context, outcome *business.DelegationOutcome, err error) {
	if err != nil {
		sendError(c, err)
		return
	}

	status := http.StatusOK
	if outcome.Status == business.InclusionPending {
		status = http.StatusAccepted
	}
	sendSuccess(c, status, responses.NewDelegationResponse(outcome))
}

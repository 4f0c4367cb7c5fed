package handlers

import (
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"

	"github.com/cyphera/cyphera-delegation/libs/go/types/api/responses"
)

type HealthHandler struct {
	owner   common.Address
	chainID uint64
}

func NewHealthHandler(owner common.Address, chainID uint64) *HealthHandler {
	return &HealthHandler{owner: owner, chainID: chainID}
}

// Health reports that the server is up and which account it manages.
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, responses.HealthResponse{
		Status:  "ok",
		Owner:   h.owner.Hex(),
		ChainID: h.chainID,
	})
}

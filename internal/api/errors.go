package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
)

var errUnavailable = errors.New("service not configured")

func respondError(c *gin.Context, code int, msg string) {
	c.AbortWithStatusJSON(code, gin.H{"error": msg})
}

// respondChainError reports a failed chain read as a bad gateway; the node
// or contract is the upstream.
func (s *Server) respondChainError(c *gin.Context, err error) {
	_ = c.Error(err)
	respondError(c, http.StatusBadGateway, "chain request failed: "+err.Error())
}

// parseAddress reads a required hex address query parameter.
func parseAddress(c *gin.Context, param string) (common.Address, bool) {
	raw := strings.TrimSpace(c.Query(param))
	if raw == "" {
		respondError(c, http.StatusBadRequest, param+" is required")
		return common.Address{}, false
	}
	if !common.IsHexAddress(raw) {
		respondError(c, http.StatusBadRequest, "invalid "+param+" address")
		return common.Address{}, false
	}
	return common.HexToAddress(raw), true
}

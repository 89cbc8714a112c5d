package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/ClipXonchain/proofledger/internal/identity"
	"github.com/ClipXonchain/proofledger/internal/treasury"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ValueHeader carries the value units attached to a request. A request to
// an unmatched route that bears value is treated as a deposit instead of a
// 404, mirroring the source system's fallback value-acceptance path.
const ValueHeader = "X-Clipx-Value"

// DefaultDeposit returns the NoRoute handler: any authenticated,
// value-bearing request that matches no named operation is routed to the
// treasury's unconditional accept path.
func DefaultDeposit(svc *treasury.Service, tokens *identity.TokenIssuer, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader(ValueHeader)
		if raw == "" {
			c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
			return
		}

		amount, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || amount < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + ValueHeader + " header"})
			return
		}

		auth := c.GetHeader("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "bearer token required"})
			return
		}
		claims, err := tokens.Verify(strings.TrimPrefix(auth, "Bearer "))
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		balance, err := svc.AcceptIncoming(c.Request.Context(), amount, claims.Address)
		if err != nil {
			logger.Error("default deposit", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "deposit failed"})
			return
		}

		RecordDeposit(amount)
		c.JSON(http.StatusAccepted, gin.H{"balance": balance, "sender": claims.Address})
	}
}

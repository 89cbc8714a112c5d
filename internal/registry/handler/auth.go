package handler

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/ClipXonchain/proofledger/internal/identity"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// callerCtxKey is the gin context key holding the verified caller address.
const callerCtxKey = "clipx_caller"

// RequireCaller returns a middleware that verifies the Authorization bearer
// token and stores the caller address in the request context. Requests
// without a valid token are rejected with 401.
func RequireCaller(tokens *identity.TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "bearer token required"})
			return
		}

		claims, err := tokens.Verify(strings.TrimPrefix(auth, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set(callerCtxKey, claims.Address)
		c.Next()
	}
}

// CallerFromCtx returns the verified caller address, or "" when the request
// did not pass RequireCaller.
func CallerFromCtx(c *gin.Context) string {
	addr, _ := c.Get(callerCtxKey)
	s, _ := addr.(string)
	return s
}

// AuthHandler issues caller tokens. Token minting is gated by a shared
// issuer secret; the registry itself has no user accounts — callers are
// opaque addresses vouched for by whoever holds the secret.
type AuthHandler struct {
	tokens       *identity.TokenIssuer
	issuerSecret string
	logger       *zap.Logger
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(tokens *identity.TokenIssuer, issuerSecret string, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{tokens: tokens, issuerSecret: issuerSecret, logger: logger}
}

// Register mounts the identity routes on the given router group.
func (h *AuthHandler) Register(rg *gin.RouterGroup) {
	rg.POST("/identity/tokens", h.IssueToken)
}

// issueTokenRequest is the payload for IssueToken.
type issueTokenRequest struct {
	Address      string `json:"address"       binding:"required"`
	IssuerSecret string `json:"issuer_secret" binding:"required"`
}

// IssueToken handles POST /identity/tokens — mints a caller token.
func (h *AuthHandler) IssueToken(c *gin.Context) {
	if h.issuerSecret == "" {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "token issuance is not configured"})
		return
	}

	var req issueTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if subtle.ConstantTimeCompare([]byte(req.IssuerSecret), []byte(h.issuerSecret)) != 1 {
		c.JSON(http.StatusForbidden, gin.H{"error": "issuer secret mismatch"})
		return
	}

	token, err := h.tokens.Issue(req.Address)
	if err != nil {
		h.logger.Error("issue caller token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to issue token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token, "address": req.Address})
}

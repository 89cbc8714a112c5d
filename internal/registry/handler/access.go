package handler

import (
	"errors"
	"net/http"

	"github.com/ClipXonchain/proofledger/internal/access"
	"github.com/ClipXonchain/proofledger/internal/identity"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AccessHandler exposes the controller identity over HTTP.
type AccessHandler struct {
	svc    *access.Service
	tokens *identity.TokenIssuer
	logger *zap.Logger
}

// NewAccessHandler creates an AccessHandler.
func NewAccessHandler(svc *access.Service, tokens *identity.TokenIssuer, logger *zap.Logger) *AccessHandler {
	return &AccessHandler{svc: svc, tokens: tokens, logger: logger}
}

// Register mounts the controller routes on the given router group.
func (h *AccessHandler) Register(rg *gin.RouterGroup) {
	rg.GET("/controller", h.Current)
	rg.POST("/controller/transfers", RequireCaller(h.tokens), h.Transfer)
}

// Current handles GET /controller.
func (h *AccessHandler) Current(c *gin.Context) {
	addr, err := h.svc.Current(c.Request.Context())
	if err != nil {
		h.logger.Error("read controller", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read controller"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"controller": addr})
}

// transferControllerRequest is the payload for Transfer.
type transferControllerRequest struct {
	NewController string `json:"new_controller"`
}

// Transfer handles POST /controller/transfers — hands the controller role over.
func (h *AccessHandler) Transfer(c *gin.Context) {
	var req transferControllerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	caller := CallerFromCtx(c)
	if err := h.svc.Transfer(c.Request.Context(), req.NewController, caller); err != nil {
		switch {
		case errors.Is(err, access.ErrNotAuthorized):
			c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
		case errors.Is(err, access.ErrInvalidAddress):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			h.logger.Error("transfer controller", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to transfer controller"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"controller": req.NewController, "previous": caller})
}

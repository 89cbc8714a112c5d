package handler

import (
	"errors"
	"net/http"

	"github.com/ClipXonchain/proofledger/internal/access"
	"github.com/ClipXonchain/proofledger/internal/identity"
	"github.com/ClipXonchain/proofledger/internal/treasury"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// TreasuryHandler exposes the custodial treasury over HTTP.
type TreasuryHandler struct {
	svc    *treasury.Service
	tokens *identity.TokenIssuer
	logger *zap.Logger
}

// NewTreasuryHandler creates a TreasuryHandler.
func NewTreasuryHandler(svc *treasury.Service, tokens *identity.TokenIssuer, logger *zap.Logger) *TreasuryHandler {
	return &TreasuryHandler{svc: svc, tokens: tokens, logger: logger}
}

// Register mounts the treasury routes on the given router group.
func (h *TreasuryHandler) Register(rg *gin.RouterGroup) {
	t := rg.Group("/treasury")
	{
		t.GET("/balance", h.Balance)
		auth := t.Group("", RequireCaller(h.tokens))
		{
			auth.POST("/deposits", h.Deposit)
			auth.POST("/withdrawals", h.Withdraw)
			auth.POST("/transfers", h.Transfer)
		}
	}
}

// Balance handles GET /treasury/balance.
func (h *TreasuryHandler) Balance(c *gin.Context) {
	balance, err := h.svc.Balance(c.Request.Context())
	if err != nil {
		h.logger.Error("treasury balance", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read balance"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"balance": balance})
}

// depositRequest is the payload for Deposit. No binding tag on Amount:
// a zero-value deposit is accepted, so "required" would wrongly reject it.
type depositRequest struct {
	Amount int64 `json:"amount"`
}

// Deposit handles POST /treasury/deposits — credits value to the treasury.
func (h *TreasuryHandler) Deposit(c *gin.Context) {
	var req depositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sender := CallerFromCtx(c)
	balance, err := h.svc.AcceptIncoming(c.Request.Context(), req.Amount, sender)
	if err != nil {
		h.writeTreasuryError(c, err, "deposit")
		return
	}

	RecordDeposit(req.Amount)
	c.JSON(http.StatusCreated, gin.H{"balance": balance, "sender": sender})
}

// Withdraw handles POST /treasury/withdrawals — drains the balance to the
// controller.
func (h *TreasuryHandler) Withdraw(c *gin.Context) {
	caller := CallerFromCtx(c)
	amount, err := h.svc.WithdrawAll(c.Request.Context(), caller)
	if err != nil {
		h.writeTreasuryError(c, err, "withdraw")
		return
	}

	RecordRelease(amount)
	c.JSON(http.StatusOK, gin.H{"withdrawn": amount, "balance": 0})
}

// transferRequest is the payload for Transfer.
type transferRequest struct {
	Recipient string `json:"recipient"`
	Amount    int64  `json:"amount" binding:"required"`
}

// Transfer handles POST /treasury/transfers — releases value to a recipient.
func (h *TreasuryHandler) Transfer(c *gin.Context) {
	var req transferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	caller := CallerFromCtx(c)
	if err := h.svc.TransferTo(c.Request.Context(), req.Recipient, req.Amount, caller); err != nil {
		h.writeTreasuryError(c, err, "transfer")
		return
	}

	RecordRelease(req.Amount)
	c.JSON(http.StatusOK, gin.H{"recipient": req.Recipient, "amount": req.Amount})
}

// writeTreasuryError maps treasury and access errors onto HTTP statuses.
func (h *TreasuryHandler) writeTreasuryError(c *gin.Context, err error, op string) {
	switch {
	case errors.Is(err, access.ErrNotAuthorized):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, treasury.ErrInvalidRecipient), errors.Is(err, treasury.ErrInvalidAmount):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, treasury.ErrNoFunds), errors.Is(err, treasury.ErrInsufficientFunds):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, treasury.ErrTransferFailed):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	default:
		h.logger.Error("treasury "+op, zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "treasury operation failed"})
	}
}

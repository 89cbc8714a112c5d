package handler

import (
	"net/http"
	"strconv"

	"github.com/ClipXonchain/proofledger/internal/events"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// EventsHandler exposes read-only HTTP endpoints for the event chain.
type EventsHandler struct {
	chain  events.Chain
	logger *zap.Logger
}

// NewEventsHandler creates a new EventsHandler.
func NewEventsHandler(chain events.Chain, logger *zap.Logger) *EventsHandler {
	return &EventsHandler{chain: chain, logger: logger}
}

// Register mounts the event routes on the given router group.
func (h *EventsHandler) Register(rg *gin.RouterGroup) {
	e := rg.Group("/events")
	{
		e.GET("", h.Overview)
		e.GET("/verify", h.Verify)
		e.GET("/entries/:idx", h.GetEntry)
	}
}

// Overview handles GET /events — returns the chain length and current root hash.
func (h *EventsHandler) Overview(c *gin.Context) {
	ctx := c.Request.Context()

	count, err := h.chain.Len(ctx)
	if err != nil {
		h.logger.Error("chain Len", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to query event chain"})
		return
	}

	root, err := h.chain.Root(ctx)
	if err != nil {
		h.logger.Error("chain Root", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to query chain root"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"entries": count,
		"root":    root,
	})
}

// Verify handles GET /events/verify — walks the full chain and reports integrity.
func (h *EventsHandler) Verify(c *gin.Context) {
	ctx := c.Request.Context()

	if err := h.chain.Verify(ctx); err != nil {
		h.logger.Warn("event chain integrity check failed", zap.Error(err))
		c.JSON(http.StatusOK, gin.H{
			"valid": false,
			"error": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"valid": true})
}

// GetEntry handles GET /events/entries/:idx — returns a single chain entry.
func (h *EventsHandler) GetEntry(c *gin.Context) {
	ctx := c.Request.Context()

	idxStr := c.Param("idx")
	idx, err := strconv.Atoi(idxStr)
	if err != nil || idx < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "idx must be a non-negative integer"})
		return
	}

	entry, err := h.chain.Get(ctx, idx)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "entry not found"})
		return
	}

	c.JSON(http.StatusOK, entry)
}

package handler

import (
	"errors"
	"net/http"

	"github.com/ClipXonchain/proofledger/internal/identity"
	"github.com/ClipXonchain/proofledger/internal/proof"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ProofHandler exposes the proof ledger over HTTP.
type ProofHandler struct {
	svc    *proof.Service
	tokens *identity.TokenIssuer
	logger *zap.Logger
}

// NewProofHandler creates a ProofHandler.
func NewProofHandler(svc *proof.Service, tokens *identity.TokenIssuer, logger *zap.Logger) *ProofHandler {
	return &ProofHandler{svc: svc, tokens: tokens, logger: logger}
}

// Register mounts the proof routes on the given router group.
func (h *ProofHandler) Register(rg *gin.RouterGroup) {
	p := rg.Group("/proofs")
	{
		p.POST("", RequireCaller(h.tokens), h.RegisterProof)
		p.GET("/cid/:cid", h.VerifyByCID)
		p.GET("/post/:postId", h.GetByPostID)
	}
}

// registerRequest is the payload for RegisterProof.
type registerRequest struct {
	CID    string `json:"cid"`
	PostID string `json:"post_id"`
}

// proofResponse is the JSON shape of a proof lookup. Unregistered lookups
// keep the zero-tuple contract: timestamp 0, empty post_id, empty recorder.
type proofResponse struct {
	Registered bool   `json:"registered"`
	CID        string `json:"cid"`
	PostID     string `json:"post_id"`
	Timestamp  int64  `json:"timestamp"`
	Recorder   string `json:"recorder"`
}

func toResponse(p *proof.Proof) proofResponse {
	resp := proofResponse{
		Registered: p.Registered(),
		CID:        p.CID,
		PostID:     p.PostID,
		Recorder:   p.Recorder,
	}
	if resp.Registered {
		resp.Timestamp = p.RegisteredAt.Unix()
	}
	return resp
}

// RegisterProof handles POST /proofs — registers a screenshot binding.
func (h *ProofHandler) RegisterProof(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	caller := CallerFromCtx(c)
	p, err := h.svc.Register(c.Request.Context(), req.CID, req.PostID, caller)
	if err != nil {
		switch {
		case errors.Is(err, proof.ErrEmptyCID), errors.Is(err, proof.ErrEmptyPostID):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, proof.ErrDuplicateCID), errors.Is(err, proof.ErrDuplicatePostID):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			h.logger.Error("register proof", zap.String("cid", req.CID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to register proof"})
		}
		return
	}

	RecordProofRegistered()
	c.JSON(http.StatusCreated, toResponse(p))
}

// VerifyByCID handles GET /proofs/cid/:cid — looks a proof up by CID.
// Unknown CIDs return 200 with a zero-valued body, never 404.
func (h *ProofHandler) VerifyByCID(c *gin.Context) {
	p, err := h.svc.Verify(c.Request.Context(), c.Param("cid"))
	if err != nil {
		h.logger.Error("verify proof", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to query ledger"})
		return
	}
	c.JSON(http.StatusOK, toResponse(p))
}

// GetByPostID handles GET /proofs/post/:postId — resolves a proof by post ID.
// Unknown post IDs return 200 with a zero-valued body, never 404.
func (h *ProofHandler) GetByPostID(c *gin.Context) {
	p, err := h.svc.ByPostID(c.Request.Context(), c.Param("postId"))
	if err != nil {
		h.logger.Error("proof by post id", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to query ledger"})
		return
	}
	c.JSON(http.StatusOK, toResponse(p))
}

package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ClipXonchain/proofledger/internal/events"
	"github.com/ClipXonchain/proofledger/internal/identity"
	"github.com/ClipXonchain/proofledger/internal/proof"
	"github.com/ClipXonchain/proofledger/internal/registry/handler"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ── Helpers ──────────────────────────────────────────────────────────────

func testIssuer(t *testing.T) *identity.TokenIssuer {
	t.Helper()
	tokens, err := identity.NewTokenIssuer([]byte("test-signing-key"), "http://test", time.Hour)
	if err != nil {
		t.Fatalf("new token issuer: %v", err)
	}
	return tokens
}

func callerToken(t *testing.T, tokens *identity.TokenIssuer, address string) string {
	t.Helper()
	token, err := tokens.Issue(address)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return token
}

func setupProofRouter(t *testing.T) (*gin.Engine, *identity.TokenIssuer, events.Chain) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()

	chain := events.NewMemoryChain()
	svc := proof.NewService(proof.NewMemoryStore(), chain, zap.NewNop())
	tokens := testIssuer(t)

	h := handler.NewProofHandler(svc, tokens, zap.NewNop())
	v1 := r.Group("/api/v1")
	h.Register(v1)
	return r, tokens, chain
}

func registerProof(t *testing.T, router *gin.Engine, token, cid, postID string) map[string]any {
	t.Helper()
	body := `{"cid":"` + cid + `","post_id":"` + postID + `"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/proofs", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("register proof: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var result map[string]any
	json.Unmarshal(w.Body.Bytes(), &result)
	return result
}

// ── Tests ────────────────────────────────────────────────────────────────

func TestRegisterProof_201(t *testing.T) {
	router, tokens, chain := setupProofRouter(t)
	token := callerToken(t, tokens, "clipx-recorder")

	result := registerProof(t, router, token, "bafybeie5xq", "post-42")

	if result["registered"] != true {
		t.Errorf("expected registered=true, got %v", result["registered"])
	}
	if result["cid"] != "bafybeie5xq" {
		t.Errorf("unexpected cid %v", result["cid"])
	}
	if result["recorder"] != "clipx-recorder" {
		t.Errorf("expected recorder from token, got %v", result["recorder"])
	}
	if ts, _ := result["timestamp"].(float64); ts <= 0 {
		t.Errorf("expected positive timestamp, got %v", result["timestamp"])
	}

	// Registration lands on the event chain past the genesis entry.
	if got, _ := chain.Len(context.Background()); got != 2 {
		t.Errorf("expected 2 chain entries, got %d", got)
	}
}

func TestRegisterProof_401_NoToken(t *testing.T) {
	router, _, _ := setupProofRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/proofs",
		strings.NewReader(`{"cid":"bafy1","post_id":"post-1"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestRegisterProof_400_Malformed(t *testing.T) {
	router, tokens, _ := setupProofRouter(t)
	token := callerToken(t, tokens, "clipx-recorder")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/proofs", strings.NewReader(`{invalid`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestRegisterProof_400_EmptyFields(t *testing.T) {
	router, tokens, _ := setupProofRouter(t)
	token := callerToken(t, tokens, "clipx-recorder")

	for _, body := range []string{
		`{"cid":"","post_id":"post-1"}`,
		`{"cid":"bafy1","post_id":""}`,
	} {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/proofs", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("body %s: expected 400, got %d", body, w.Code)
		}
	}
}

func TestRegisterProof_409_Duplicate(t *testing.T) {
	router, tokens, _ := setupProofRouter(t)
	token := callerToken(t, tokens, "clipx-recorder")
	registerProof(t, router, token, "bafy-dup", "post-dup")

	for _, body := range []string{
		`{"cid":"bafy-dup","post_id":"post-other"}`,
		`{"cid":"bafy-other","post_id":"post-dup"}`,
	} {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/proofs", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusConflict {
			t.Errorf("body %s: expected 409, got %d: %s", body, w.Code, w.Body.String())
		}
	}
}

func TestVerifyByCID_Registered(t *testing.T) {
	router, tokens, _ := setupProofRouter(t)
	token := callerToken(t, tokens, "clipx-recorder")
	registerProof(t, router, token, "bafy-v1", "post-v1")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/proofs/cid/bafy-v1", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var result map[string]any
	json.Unmarshal(w.Body.Bytes(), &result)
	if result["registered"] != true {
		t.Errorf("expected registered=true, got %v", result["registered"])
	}
	if result["post_id"] != "post-v1" {
		t.Errorf("expected post-v1, got %v", result["post_id"])
	}
}

func TestVerifyByCID_Unknown_200_Zeroed(t *testing.T) {
	router, _, _ := setupProofRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/proofs/cid/bafy-missing", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for unknown cid, got %d", w.Code)
	}
	var result map[string]any
	json.Unmarshal(w.Body.Bytes(), &result)
	if result["registered"] != false {
		t.Errorf("expected registered=false, got %v", result["registered"])
	}
	if ts, _ := result["timestamp"].(float64); ts != 0 {
		t.Errorf("expected zero timestamp, got %v", result["timestamp"])
	}
	if result["post_id"] != "" || result["recorder"] != "" {
		t.Errorf("expected zeroed fields, got %v", result)
	}
}

func TestGetByPostID(t *testing.T) {
	router, tokens, _ := setupProofRouter(t)
	token := callerToken(t, tokens, "clipx-recorder")
	registerProof(t, router, token, "bafy-p1", "post-p1")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/proofs/post/post-p1", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var result map[string]any
	json.Unmarshal(w.Body.Bytes(), &result)
	if result["cid"] != "bafy-p1" {
		t.Errorf("expected bafy-p1, got %v", result["cid"])
	}

	// Unknown post IDs keep the zero-tuple contract.
	req = httptest.NewRequest(http.MethodGet, "/api/v1/proofs/post/post-missing", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for unknown post id, got %d", w.Code)
	}
	json.Unmarshal(w.Body.Bytes(), &result)
	if result["registered"] != false {
		t.Errorf("expected registered=false, got %v", result["registered"])
	}
}

package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// ErrNotAuthorized is returned when the registry rejects a privileged call
// because the caller is not the current controller.
var ErrNotAuthorized = errors.New("caller is not the controller")

// ErrConflict is returned when a registration or treasury operation is
// rejected because of existing state (duplicate proof, insufficient funds).
var ErrConflict = errors.New("operation conflicts with registry state")

// Proof is a screenshot binding returned by lookup and registration calls.
// Registered reports whether the CID (or post ID) is known; when false the
// remaining fields are zero-valued.
type Proof struct {
	Registered bool   `json:"registered"`
	CID        string `json:"cid"`
	PostID     string `json:"post_id"`
	Timestamp  int64  `json:"timestamp"`
	Recorder   string `json:"recorder"`
}

// ChainOverview holds the event chain length and current root hash.
type ChainOverview struct {
	Entries int    `json:"entries"`
	Root    string `json:"root"`
}

// ChainEntry is a single entry of the registry's event chain.
type ChainEntry struct {
	Index     int       `json:"index"`
	Timestamp time.Time `json:"timestamp"`
	Type      string    `json:"type"`
	Actor     string    `json:"actor"`
	Subject   string    `json:"subject"`
	DataHash  string    `json:"data_hash"`
	PrevHash  string    `json:"prev_hash"`
	Hash      string    `json:"hash"`
}

// Client is the proofledger SDK entry point.
type Client struct {
	registryBase string
	httpClient   *http.Client
	cache        *proofCache

	// token state — guarded by mu
	mu          sync.Mutex
	bearerToken string
}

// Option is a functional option for configuring a Client.
type Option func(*Client) error

// WithHTTPClient sets a custom http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) error {
		c.httpClient = hc
		return nil
	}
}

// WithBearerToken attaches a pre-obtained caller token to every request.
func WithBearerToken(token string) Option {
	return func(c *Client) error {
		c.bearerToken = token
		return nil
	}
}

// WithCacheTTL enables in-memory caching of registered proof lookups with
// the given TTL. Unregistered lookups are never cached — the CID may be
// registered at any moment.
func WithCacheTTL(ttl time.Duration) Option {
	return func(c *Client) error {
		c.cache = newProofCache(ttl)
		return nil
	}
}

// New creates a new proofledger SDK Client connected to registryBase.
//
//	c, err := client.New("http://localhost:8080",
//	    client.WithCacheTTL(60*time.Second),
//	)
func New(registryBase string, opts ...Option) (*Client, error) {
	c := &Client{
		registryBase: registryBase,
		httpClient:   &http.Client{Timeout: 10 * time.Second},
	}
	for _, o := range opts {
		if err := o(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// MustNew is like New but panics on error. Useful in tests and program init.
func MustNew(registryBase string, opts ...Option) *Client {
	c, err := New(registryBase, opts...)
	if err != nil {
		panic(err)
	}
	return c
}

// IssueToken exchanges the issuer secret for a caller token bound to
// address, caches it on the client, and returns it.
func (c *Client) IssueToken(ctx context.Context, address, issuerSecret string) (string, error) {
	body, err := c.post(ctx, "/api/v1/identity/tokens", map[string]string{
		"address":       address,
		"issuer_secret": issuerSecret,
	})
	if err != nil {
		return "", err
	}

	var resp struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("decode token response: %w", err)
	}

	c.mu.Lock()
	c.bearerToken = resp.Token
	c.mu.Unlock()
	return resp.Token, nil
}

// RegisterProof binds cid to postID in the registry. The caller address
// comes from the client's bearer token.
func (c *Client) RegisterProof(ctx context.Context, cid, postID string) (*Proof, error) {
	body, err := c.post(ctx, "/api/v1/proofs", map[string]string{
		"cid":     cid,
		"post_id": postID,
	})
	if err != nil {
		return nil, err
	}

	var p Proof
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("decode proof response: %w", err)
	}
	return &p, nil
}

// Verify looks a proof up by its CID. Unknown CIDs return a Proof with
// Registered=false, not an error.
func (c *Client) Verify(ctx context.Context, cid string) (*Proof, error) {
	if c.cache != nil {
		if p, ok := c.cache.get(cid); ok {
			return p, nil
		}
	}

	p, err := c.getProof(ctx, "/api/v1/proofs/cid/"+cid)
	if err != nil {
		return nil, err
	}

	if c.cache != nil && p.Registered {
		c.cache.set(cid, p)
	}
	return p, nil
}

// ProofByPost looks a proof up by the post it is bound to. Unknown post IDs
// return a Proof with Registered=false, not an error.
func (c *Client) ProofByPost(ctx context.Context, postID string) (*Proof, error) {
	return c.getProof(ctx, "/api/v1/proofs/post/"+postID)
}

// Balance returns the treasury's custodial balance.
func (c *Client) Balance(ctx context.Context) (int64, error) {
	body, err := c.get(ctx, "/api/v1/treasury/balance")
	if err != nil {
		return 0, err
	}

	var resp struct {
		Balance int64 `json:"balance"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return 0, fmt.Errorf("decode balance response: %w", err)
	}
	return resp.Balance, nil
}

// Deposit credits amount value units to the treasury and returns the new
// balance. Any authenticated caller may deposit.
func (c *Client) Deposit(ctx context.Context, amount int64) (int64, error) {
	body, err := c.post(ctx, "/api/v1/treasury/deposits", map[string]int64{
		"amount": amount,
	})
	if err != nil {
		return 0, err
	}

	var resp struct {
		Balance int64 `json:"balance"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return 0, fmt.Errorf("decode deposit response: %w", err)
	}
	return resp.Balance, nil
}

// WithdrawAll drains the full treasury balance to the controller and
// returns the amount withdrawn. Controller only.
func (c *Client) WithdrawAll(ctx context.Context) (int64, error) {
	body, err := c.post(ctx, "/api/v1/treasury/withdrawals", nil)
	if err != nil {
		return 0, err
	}

	var resp struct {
		Withdrawn int64 `json:"withdrawn"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return 0, fmt.Errorf("decode withdrawal response: %w", err)
	}
	return resp.Withdrawn, nil
}

// Transfer releases amount value units from the treasury to recipient.
// Controller only.
func (c *Client) Transfer(ctx context.Context, recipient string, amount int64) error {
	payload := struct {
		Recipient string `json:"recipient"`
		Amount    int64  `json:"amount"`
	}{Recipient: recipient, Amount: amount}

	_, err := c.post(ctx, "/api/v1/treasury/transfers", payload)
	return err
}

// Controller returns the current controller address.
func (c *Client) Controller(ctx context.Context) (string, error) {
	body, err := c.get(ctx, "/api/v1/controller")
	if err != nil {
		return "", err
	}

	var resp struct {
		Controller string `json:"controller"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("decode controller response: %w", err)
	}
	return resp.Controller, nil
}

// TransferController hands the controller role to next. Controller only.
func (c *Client) TransferController(ctx context.Context, next string) error {
	_, err := c.post(ctx, "/api/v1/controller/transfers", map[string]string{
		"new_controller": next,
	})
	return err
}

// ChainOverview returns the event chain length and root hash.
func (c *Client) ChainOverview(ctx context.Context) (*ChainOverview, error) {
	body, err := c.get(ctx, "/api/v1/events")
	if err != nil {
		return nil, err
	}

	var resp ChainOverview
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode events response: %w", err)
	}
	return &resp, nil
}

// VerifyChain walks the full event chain on the server and reports whether
// it is intact. A false return with nil error means the chain is tampered.
func (c *Client) VerifyChain(ctx context.Context) (bool, error) {
	body, err := c.get(ctx, "/api/v1/events/verify")
	if err != nil {
		return false, err
	}

	var resp struct {
		Valid bool   `json:"valid"`
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return false, fmt.Errorf("decode verify response: %w", err)
	}
	return resp.Valid, nil
}

// ChainEntry fetches a single event chain entry by index.
func (c *Client) ChainEntry(ctx context.Context, index int) (*ChainEntry, error) {
	body, err := c.get(ctx, "/api/v1/events/entries/"+strconv.Itoa(index))
	if err != nil {
		return nil, err
	}

	var entry ChainEntry
	if err := json.Unmarshal(body, &entry); err != nil {
		return nil, fmt.Errorf("decode entry response: %w", err)
	}
	return &entry, nil
}

func (c *Client) getProof(ctx context.Context, path string) (*Proof, error) {
	body, err := c.get(ctx, path)
	if err != nil {
		return nil, err
	}

	var p Proof
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("decode proof response: %w", err)
	}
	return &p, nil
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.registryBase+path, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	return c.do(req)
}

func (c *Client) post(ctx context.Context, path string, payload any) ([]byte, error) {
	var bodyReader io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.registryBase+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if bodyReader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	return c.do(req)
}

// do executes an HTTP request, attaching the bearer token if present, and
// maps error statuses onto the package sentinel errors.
func (c *Client) do(req *http.Request) ([]byte, error) {
	c.mu.Lock()
	token := c.bearerToken
	c.mu.Unlock()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("%w: %s", ErrNotAuthorized, string(body))
	case resp.StatusCode == http.StatusConflict:
		return nil, fmt.Errorf("%w: %s", ErrConflict, string(body))
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, fmt.Errorf("unauthorized: %s", string(body))
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("not found: %s", req.URL.Path)
	case resp.StatusCode >= 300:
		return nil, fmt.Errorf("server error %d: %s", resp.StatusCode, string(body))
	}
	return body, nil
}

// --- simple in-memory proof cache ---

type cacheEntry struct {
	proof     *Proof
	expiresAt time.Time
}

type proofCache struct {
	mu      sync.RWMutex
	entries map[string]*cacheEntry
	ttl     time.Duration
}

func newProofCache(ttl time.Duration) *proofCache {
	return &proofCache{entries: make(map[string]*cacheEntry), ttl: ttl}
}

func (pc *proofCache) get(cid string) (*Proof, bool) {
	pc.mu.RLock()
	defer pc.mu.RUnlock()
	e, ok := pc.entries[cid]
	if !ok || time.Now().After(e.expiresAt) {
		return nil, false
	}
	return e.proof, true
}

func (pc *proofCache) set(cid string, p *Proof) {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	pc.entries[cid] = &cacheEntry{proof: p, expiresAt: time.Now().Add(pc.ttl)}
}

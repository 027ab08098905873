package payment

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

	"github.com/rs/zerolog"

	"github.com/bimuz/bimuz-backend/internal/config"
)

// tokenTTL is shorter than the gateway's 24h token lifetime so a cached
// token never expires mid-request.
const tokenTTL = 23 * time.Hour

var (
	// ErrNotConfigured is returned when gateway credentials are missing.
	ErrNotConfigured = errors.New("multicard: gateway is not configured")
	// ErrUnauthorized is returned when the gateway rejects fresh credentials.
	ErrUnauthorized = errors.New("multicard: unauthorized")
)

// APIError is a non-success answer from the gateway.
type APIError struct {
	StatusCode int
	Code       string
	Details    string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("multicard: %s (%s, http %d)", e.Details, e.Code, e.StatusCode)
	}
	return fmt.Sprintf("multicard: %s (http %d)", e.Details, e.StatusCode)
}

// TokenStore caches the gateway bearer token between requests and replicas.
type TokenStore interface {
	Get(ctx context.Context) (string, error)
	Set(ctx context.Context, token string, ttl time.Duration) error
	Delete(ctx context.Context) error
}

// CreateInvoiceParams describes a checkout to open at the gateway.
// Amount is in tiyin.
type CreateInvoiceParams struct {
	InvoiceID      string
	Amount         int64
	Lang           string
	CallbackURL    string
	ReturnURL      string
	ReturnErrorURL string
	SMS            string
}

// CreatedInvoice is the gateway's answer to a new checkout.
type CreatedInvoice struct {
	UUID        string `json:"uuid"`
	CheckoutURL string `json:"checkout_url"`
	ShortLink   string `json:"short_link"`
}

// InvoiceInfo is the gateway's view of a checkout.
type InvoiceInfo struct {
	UUID       string `json:"uuid"`
	InvoiceID  string `json:"invoice_id"`
	ReceiptURL string `json:"receipt_url"`
	Payment    struct {
		Status        string `json:"status"`
		PaymentTime   string `json:"payment_time"`
		PS            string `json:"ps"`
		CardPAN       string `json:"card_pan"`
		ReceiptURL    string `json:"receipt_url"`
		PaymentAmount int64  `json:"amount"`
	} `json:"payment"`
}

// envelope is the common response wrapper of the gateway API.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Details string `json:"details"`
	} `json:"error"`
}

// Client talks to the Multicard payment API.
type Client struct {
	cfg    config.MulticardConfig
	http   *http.Client
	tokens TokenStore
	log    zerolog.Logger

	// loginMu collapses concurrent logins into one.
	loginMu sync.Mutex
}

// NewClient creates a new Multicard client.
func NewClient(cfg config.MulticardConfig, tokens TokenStore, log zerolog.Logger) *Client {
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		tokens: tokens,
		log:    log.With().Str("component", "multicard_client").Logger(),
	}
}

// Configured reports whether credentials and a store are set.
func (c *Client) Configured() bool {
	return c.cfg.ApplicationID != "" && c.cfg.Secret != "" && c.cfg.StoreID != ""
}

// CreateInvoice opens a checkout at the gateway.
func (c *Client) CreateInvoice(ctx context.Context, p CreateInvoiceParams) (*CreatedInvoice, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}
	callback := p.CallbackURL
	if callback == "" {
		callback = c.cfg.CallbackURL
	}
	if callback == "" {
		return nil, fmt.Errorf("%w: callback url missing", ErrNotConfigured)
	}

	storeID, err := strconv.ParseInt(c.cfg.StoreID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: store id %q is not numeric", ErrNotConfigured, c.cfg.StoreID)
	}

	body := map[string]any{
		"store_id":     storeID,
		"amount":       p.Amount,
		"invoice_id":   p.InvoiceID,
		"lang":         p.Lang,
		"callback_url": callback,
	}
	if url := firstNonEmpty(p.ReturnURL, c.cfg.ReturnURL); url != "" {
		body["return_url"] = url
	}
	if url := firstNonEmpty(p.ReturnErrorURL, c.cfg.ReturnErrorURL); url != "" {
		body["return_error_url"] = url
	}
	if p.SMS != "" {
		body["sms"] = p.SMS
	}

	var out CreatedInvoice
	if err := c.call(ctx, http.MethodPost, "/payment/invoice", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetInvoice fetches the current state of a checkout by its gateway uuid.
func (c *Client) GetInvoice(ctx context.Context, uuid string) (*InvoiceInfo, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}
	var out InvoiceInfo
	if err := c.call(ctx, http.MethodGet, "/payment/invoice/"+uuid, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CancelInvoice voids an unpaid checkout.
func (c *Client) CancelInvoice(ctx context.Context, uuid string) error {
	if !c.Configured() {
		return ErrNotConfigured
	}
	return c.call(ctx, http.MethodDelete, "/payment/invoice/"+uuid, nil, nil)
}

// call performs an authenticated request. A 401 drops the cached token and
// retries once with a fresh login.
func (c *Client) call(ctx context.Context, method, path string, body any, out any) error {
	token, err := c.token(ctx, false)
	if err != nil {
		return err
	}

	status, env, err := c.do(ctx, method, path, token, body)
	if err != nil {
		return err
	}
	if status == http.StatusUnauthorized {
		c.log.Info().Str("path", path).Msg("Token rejected, logging in again")
		token, err = c.token(ctx, true)
		if err != nil {
			return err
		}
		status, env, err = c.do(ctx, method, path, token, body)
		if err != nil {
			return err
		}
		if status == http.StatusUnauthorized {
			return ErrUnauthorized
		}
	}

	if status >= 300 || !env.Success {
		apiErr := &APIError{StatusCode: status, Details: "unknown error"}
		if env.Error != nil {
			apiErr.Code = env.Error.Code
			if env.Error.Details != "" {
				apiErr.Details = env.Error.Details
			}
		}
		return apiErr
	}

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("multicard: decode data: %w", err)
		}
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path, token string, body any) (int, *envelope, error) {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return 0, nil, fmt.Errorf("multicard: encode request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("multicard: create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Error().Err(err).Str("method", method).Str("path", path).Msg("Request failed")
		return 0, nil, fmt.Errorf("multicard: request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return 0, nil, fmt.Errorf("multicard: read response: %w", err)
	}

	c.log.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("Gateway call")

	env := &envelope{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, env); err != nil && resp.StatusCode < 300 {
			return resp.StatusCode, nil, fmt.Errorf("multicard: decode response: %w", err)
		}
	}
	return resp.StatusCode, env, nil
}

// token returns a cached token, logging in when none is cached or force is set.
func (c *Client) token(ctx context.Context, force bool) (string, error) {
	if !force {
		if t, err := c.tokens.Get(ctx); err == nil && t != "" {
			return t, nil
		}
	}

	c.loginMu.Lock()
	defer c.loginMu.Unlock()

	// Another goroutine may have logged in while we waited.
	if !force {
		if t, err := c.tokens.Get(ctx); err == nil && t != "" {
			return t, nil
		}
	} else {
		_ = c.tokens.Delete(ctx)
	}

	t, err := c.login(ctx)
	if err != nil {
		return "", err
	}
	if err := c.tokens.Set(ctx, t, tokenTTL); err != nil {
		c.log.Warn().Err(err).Msg("Failed to cache gateway token")
	}
	return t, nil
}

func (c *Client) login(ctx context.Context) (string, error) {
	b, err := json.Marshal(map[string]string{
		"application_id": c.cfg.ApplicationID,
		"secret":         c.cfg.Secret,
	})
	if err != nil {
		return "", fmt.Errorf("multicard: encode login: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/auth", bytes.NewReader(b))
	if err != nil {
		return "", fmt.Errorf("multicard: create login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("multicard: login failed: %w", err)
	}
	defer resp.Body.Close()

	var out struct {
		Token  string `json:"token"`
		Expiry string `json:"expiry"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&out); err != nil {
		return "", fmt.Errorf("multicard: decode login: %w", err)
	}
	if resp.StatusCode >= 300 || out.Token == "" {
		c.log.Error().Int("status", resp.StatusCode).Msg("Gateway login rejected")
		return "", ErrUnauthorized
	}

	c.log.Info().Str("expiry", out.Expiry).Msg("Gateway login succeeded")
	return out.Token, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

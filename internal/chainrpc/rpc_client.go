// Package chainrpc talks JSON-RPC 2.0 to a marketplace test node. The HTTP
// client covers entry point execution, order state, approvals, and offerer
// probing; the WebSocket client streams execution events.
package chainrpc

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"fulfillment-mutation-lab/internal/domain"
	"fulfillment-mutation-lab/internal/observability"
	"fulfillment-mutation-lab/internal/protocol"
)

// Default configuration values.
const (
	DefaultTimeout     = 30 * time.Second
	DefaultMaxRetries  = 3
	DefaultRetryDelay  = 1 * time.Second
	DefaultMaxDelay    = 10 * time.Second
	DefaultBackoffMult = 2.0
)

// HTTPClient is a JSON-RPC 2.0 client for the marketplace node.
type HTTPClient struct {
	endpoint    string
	client      *http.Client
	maxRetries  int
	retryDelay  time.Duration
	maxDelay    time.Duration
	backoffMult float64
	requestID   atomic.Uint64
}

// Compile-time interface checks.
var (
	_ protocol.Marketplace     = (*HTTPClient)(nil)
	_ protocol.StateReader     = (*HTTPClient)(nil)
	_ protocol.StateWriter     = (*HTTPClient)(nil)
	_ protocol.TokenController = (*HTTPClient)(nil)
	_ protocol.OffererProbe    = (*HTTPClient)(nil)
)

// ClientOption configures HTTPClient.
type ClientOption func(*HTTPClient)

// WithTimeout sets HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *HTTPClient) {
		c.client.Timeout = d
	}
}

// WithMaxRetries sets maximum retry attempts.
func WithMaxRetries(n int) ClientOption {
	return func(c *HTTPClient) {
		c.maxRetries = n
	}
}

// WithRetryDelay sets initial retry delay.
func WithRetryDelay(d time.Duration) ClientOption {
	return func(c *HTTPClient) {
		c.retryDelay = d
	}
}

// WithMaxDelay sets maximum retry delay.
func WithMaxDelay(d time.Duration) ClientOption {
	return func(c *HTTPClient) {
		c.maxDelay = d
	}
}

// WithHTTPClient sets custom http.Client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *HTTPClient) {
		c.client = client
	}
}

// NewHTTPClient creates a new marketplace RPC client.
func NewHTTPClient(endpoint string, opts ...ClientOption) *HTTPClient {
	c := &HTTPClient{
		endpoint:    endpoint,
		client:      &http.Client{Timeout: DefaultTimeout},
		maxRetries:  DefaultMaxRetries,
		retryDelay:  DefaultRetryDelay,
		maxDelay:    DefaultMaxDelay,
		backoffMult: DefaultBackoffMult,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// rpcRequest represents a JSON-RPC 2.0 request.
type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      uint64        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params,omitempty"`
}

// rpcResponse represents a JSON-RPC 2.0 response.
type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      uint64          `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

// rpcError represents a JSON-RPC 2.0 error.
type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *rpcError) Error() string {
	return fmt.Sprintf("RPC error %d: %s", e.Code, e.Message)
}

// call performs a JSON-RPC call with retries and exponential backoff.
func (c *HTTPClient) call(ctx context.Context, method string, params []interface{}, result interface{}) error {
	start := time.Now()
	err := c.doCall(ctx, method, params, result)
	observability.RecordRPCLatency(method, time.Since(start).Seconds())
	return err
}

func (c *HTTPClient) doCall(ctx context.Context, method string, params []interface{}, result interface{}) error {
	reqID := c.requestID.Add(1)
	reqBody := rpcRequest{
		JSONRPC: "2.0",
		ID:      reqID,
		Method:  method,
		Params:  params,
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	delay := c.retryDelay
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			// Exponential backoff
			delay = time.Duration(float64(delay) * c.backoffMult)
			if delay > c.maxDelay {
				delay = c.maxDelay
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("http request: %w", err)
			continue
		}

		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("read response: %w", err)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			lastErr = fmt.Errorf("rate limited (429)")
			continue
		}

		if resp.StatusCode != http.StatusOK {
			lastErr = fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(respBody))
			continue
		}

		var rpcResp rpcResponse
		if err := json.Unmarshal(respBody, &rpcResp); err != nil {
			lastErr = fmt.Errorf("unmarshal response: %w", err)
			continue
		}

		if rpcResp.Error != nil {
			// RPC errors are not retried
			return rpcResp.Error
		}

		if result != nil && rpcResp.Result != nil {
			if err := json.Unmarshal(rpcResp.Result, result); err != nil {
				return fmt.Errorf("unmarshal result: %w", err)
			}
		}

		return nil
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

// execute runs one entry point method against the node. A reverted call is
// a successful RPC exchange; only transport and protocol-level errors
// surface as errors.
func (c *HTTPClient) execute(ctx context.Context, method string, call protocol.Call, orders []domain.Order, resolvers []domain.CriteriaResolver) (domain.ExecOutcome, error) {
	params := []interface{}{
		wireCall{Caller: call.Caller, NativeValue: call.NativeValue},
		encodeOrders(orders),
	}
	if resolvers != nil {
		params = append(params, encodeResolvers(resolvers))
	}

	var result wireOutcome
	if err := c.call(ctx, method, params, &result); err != nil {
		return domain.ExecOutcome{}, err
	}
	return decodeOutcome(result), nil
}

// Fulfill implements protocol.Marketplace.
func (c *HTTPClient) Fulfill(ctx context.Context, call protocol.Call, order domain.Order) (domain.ExecOutcome, error) {
	return c.execute(ctx, "marketplace_fulfill", call, []domain.Order{order}, nil)
}

// FulfillAdvanced implements protocol.Marketplace.
func (c *HTTPClient) FulfillAdvanced(ctx context.Context, call protocol.Call, order domain.Order, resolvers []domain.CriteriaResolver) (domain.ExecOutcome, error) {
	if resolvers == nil {
		resolvers = []domain.CriteriaResolver{}
	}
	return c.execute(ctx, "marketplace_fulfillAdvanced", call, []domain.Order{order}, resolvers)
}

// FulfillBasic implements protocol.Marketplace.
func (c *HTTPClient) FulfillBasic(ctx context.Context, call protocol.Call, order domain.Order) (domain.ExecOutcome, error) {
	return c.execute(ctx, "marketplace_fulfillBasic", call, []domain.Order{order}, nil)
}

// FulfillAvailable implements protocol.Marketplace.
func (c *HTTPClient) FulfillAvailable(ctx context.Context, call protocol.Call, orders []domain.Order) (domain.ExecOutcome, error) {
	return c.execute(ctx, "marketplace_fulfillAvailable", call, orders, nil)
}

// FulfillAvailableAdvanced implements protocol.Marketplace.
func (c *HTTPClient) FulfillAvailableAdvanced(ctx context.Context, call protocol.Call, orders []domain.Order, resolvers []domain.CriteriaResolver) (domain.ExecOutcome, error) {
	if resolvers == nil {
		resolvers = []domain.CriteriaResolver{}
	}
	return c.execute(ctx, "marketplace_fulfillAvailableAdvanced", call, orders, resolvers)
}

// Match implements protocol.Marketplace.
func (c *HTTPClient) Match(ctx context.Context, call protocol.Call, orders []domain.Order) (domain.ExecOutcome, error) {
	return c.execute(ctx, "marketplace_match", call, orders, nil)
}

// MatchAdvanced implements protocol.Marketplace.
func (c *HTTPClient) MatchAdvanced(ctx context.Context, call protocol.Call, orders []domain.Order, resolvers []domain.CriteriaResolver) (domain.ExecOutcome, error) {
	if resolvers == nil {
		resolvers = []domain.CriteriaResolver{}
	}
	return c.execute(ctx, "marketplace_matchAdvanced", call, orders, resolvers)
}

// Cancel implements protocol.Marketplace.
func (c *HTTPClient) Cancel(ctx context.Context, call protocol.Call, orders []domain.Order) (domain.ExecOutcome, error) {
	return c.execute(ctx, "marketplace_cancel", call, orders, nil)
}

// Validate implements protocol.Marketplace.
func (c *HTTPClient) Validate(ctx context.Context, call protocol.Call, orders []domain.Order) (domain.ExecOutcome, error) {
	return c.execute(ctx, "marketplace_validate", call, orders, nil)
}

// OrderStatus implements protocol.StateReader.
func (c *HTTPClient) OrderStatus(ctx context.Context, orderHash string) (domain.OrderStatus, error) {
	var result wireOrderStatus
	if err := c.call(ctx, "state_getOrderStatus", []interface{}{orderHash}, &result); err != nil {
		return domain.OrderStatus{}, err
	}
	return decodeOrderStatus(result), nil
}

// InscribeValidated implements protocol.StateWriter.
func (c *HTTPClient) InscribeValidated(ctx context.Context, orderHash string, validated bool) error {
	return c.call(ctx, "state_inscribeValidated", []interface{}{orderHash, validated}, nil)
}

// InscribeCancelled implements protocol.StateWriter.
func (c *HTTPClient) InscribeCancelled(ctx context.Context, orderHash string, cancelled bool) error {
	return c.call(ctx, "state_inscribeCancelled", []interface{}{orderHash, cancelled}, nil)
}

// InscribeFill implements protocol.StateWriter.
func (c *HTTPClient) InscribeFill(ctx context.Context, orderHash string, numerator, denominator uint64) error {
	return c.call(ctx, "state_inscribeFill", []interface{}{orderHash, numerator, denominator}, nil)
}

// RevokeApproval implements protocol.TokenController.
func (c *HTTPClient) RevokeApproval(ctx context.Context, token, owner, spender string) error {
	return c.call(ctx, "token_revokeApproval", []interface{}{token, owner, spender}, nil)
}

// ValidSignature implements protocol.OffererProbe.
func (c *HTTPClient) ValidSignature(ctx context.Context, offerer, orderHash string, signature []byte) (bool, error) {
	params := []interface{}{offerer, orderHash, base64.StdEncoding.EncodeToString(signature)}
	var result bool
	if err := c.call(ctx, "offerer_isValidSignature", params, &result); err != nil {
		return false, err
	}
	return result, nil
}

// ForceRejection implements protocol.OffererProbe.
func (c *HTTPClient) ForceRejection(ctx context.Context, offerer string) error {
	return c.call(ctx, "offerer_forceRejection", []interface{}{offerer}, nil)
}

// Sign requests a fresh offerer signature over an order hash from the
// node's test signer.
func (c *HTTPClient) Sign(ctx context.Context, offerer, orderHash string) ([]byte, error) {
	var result string
	if err := c.call(ctx, "offerer_sign", []interface{}{offerer, orderHash}, &result); err != nil {
		return nil, err
	}
	sig, err := base64.StdEncoding.DecodeString(result)
	if err != nil {
		return nil, fmt.Errorf("decode signature: %w", err)
	}
	return sig, nil
}

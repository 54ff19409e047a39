package chainrpc

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"fulfillment-mutation-lab/internal/domain"
	"fulfillment-mutation-lab/internal/protocol"
	"fulfillment-mutation-lab/internal/scenario"
)

func rpcServer(t *testing.T, wantMethod string, result interface{}) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Method != wantMethod {
			t.Errorf("expected method %s, got %s", wantMethod, req.Method)
		}

		resp := map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result":  result,
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
}

func TestHTTPClient_Fulfill(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Method != "marketplace_fulfill" {
			t.Errorf("expected marketplace_fulfill, got %s", req.Method)
		}
		if len(req.Params) != 2 {
			t.Fatalf("expected 2 params, got %d", len(req.Params))
		}

		call, ok := req.Params[0].(map[string]interface{})
		if !ok || call["caller"] == "" {
			t.Errorf("malformed call param: %v", req.Params[0])
		}
		orders, ok := req.Params[1].([]interface{})
		if !ok || len(orders) != 1 {
			t.Errorf("malformed orders param: %v", req.Params[1])
		}

		resp := map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result": map[string]interface{}{
				"status":       "REVERT",
				"revertReason": "InvalidSignature",
			},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL)
	s := scenario.SingleOrder(domain.EntryFulfill)

	out, err := client.Fulfill(context.Background(), protocol.Call{Caller: s.Caller, NativeValue: 50}, s.Orders[0])
	if err != nil {
		t.Fatalf("Fulfill: %v", err)
	}
	if !out.Reverted() || out.RevertReason != "InvalidSignature" {
		t.Errorf("unexpected outcome: %+v", out)
	}
}

func TestHTTPClient_FulfillAdvancedSendsResolvers(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		json.NewDecoder(r.Body).Decode(&req)
		if len(req.Params) != 3 {
			t.Errorf("expected 3 params, got %d", len(req.Params))
		}

		resp := map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result":  map[string]interface{}{"status": "SUCCESS"},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL)
	s := scenario.CriteriaOrder(domain.EntryFulfillAdvanced, false)

	out, err := client.FulfillAdvanced(context.Background(), protocol.Call{Caller: s.Caller}, s.Orders[0], s.Resolvers)
	if err != nil {
		t.Fatalf("FulfillAdvanced: %v", err)
	}
	if out.Status != domain.ExecStatusSuccess {
		t.Errorf("unexpected outcome: %+v", out)
	}
}

func TestHTTPClient_OrderStatus(t *testing.T) {
	server := rpcServer(t, "state_getOrderStatus", map[string]interface{}{
		"validated":         true,
		"cancelled":         false,
		"filledNumerator":   1,
		"filledDenominator": 2,
	})
	defer server.Close()

	client := NewHTTPClient(server.URL)
	status, err := client.OrderStatus(context.Background(), "hash-1")
	if err != nil {
		t.Fatalf("OrderStatus: %v", err)
	}
	if !status.Validated || status.Cancelled {
		t.Errorf("unexpected status flags: %+v", status)
	}
	if status.FilledNumerator != 1 || status.FilledDenominator != 2 {
		t.Errorf("unexpected fill: %+v", status)
	}
}

func TestHTTPClient_ValidSignature(t *testing.T) {
	sig := []byte{0x01, 0x02}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.Method != "offerer_isValidSignature" {
			t.Errorf("expected offerer_isValidSignature, got %s", req.Method)
		}
		if got := req.Params[2]; got != base64.StdEncoding.EncodeToString(sig) {
			t.Errorf("signature not base64 encoded: %v", got)
		}

		resp := map[string]interface{}{"jsonrpc": "2.0", "id": req.ID, "result": true}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL)
	valid, err := client.ValidSignature(context.Background(), "offerer-1", "hash-1", sig)
	if err != nil {
		t.Fatalf("ValidSignature: %v", err)
	}
	if !valid {
		t.Error("expected valid signature")
	}
}

func TestHTTPClient_Sign(t *testing.T) {
	sig := []byte{0xaa, 0xbb, 0xcc}
	server := rpcServer(t, "offerer_sign", base64.StdEncoding.EncodeToString(sig))
	defer server.Close()

	client := NewHTTPClient(server.URL)
	got, err := client.Sign(context.Background(), "offerer-1", "hash-1")
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if len(got) != 3 || got[0] != 0xaa {
		t.Errorf("signature not decoded: %x", got)
	}
}

func TestHTTPClient_RPCErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		var req rpcRequest
		json.NewDecoder(r.Body).Decode(&req)
		resp := map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"error":   map[string]interface{}{"code": -32000, "message": "unknown order"},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, WithRetryDelay(time.Millisecond))
	_, err := client.OrderStatus(context.Background(), "hash-1")
	if err == nil {
		t.Fatal("expected RPC error")
	}
	if calls.Load() != 1 {
		t.Errorf("RPC error retried %d times", calls.Load())
	}
}

func TestHTTPClient_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		var req rpcRequest
		json.NewDecoder(r.Body).Decode(&req)
		resp := map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result":  map[string]interface{}{"status": "SUCCESS"},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, WithRetryDelay(time.Millisecond), WithMaxDelay(5*time.Millisecond))
	s := scenario.SingleOrder(domain.EntryValidate)

	out, err := client.Validate(context.Background(), protocol.Call{Caller: s.Caller}, s.Orders)
	if err != nil {
		t.Fatalf("Validate after retries: %v", err)
	}
	if out.Status != domain.ExecStatusSuccess {
		t.Errorf("unexpected outcome: %+v", out)
	}
	if calls.Load() != 3 {
		t.Errorf("expected 3 attempts, got %d", calls.Load())
	}
}

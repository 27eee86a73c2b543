package unsubscribe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/mikey/llm-mail-triage/internal/core"
)

// countingTransport fails every request loudly; it exists to prove a code
// path never reaches the network.
type countingTransport struct {
	calls int
}

func (c *countingTransport) RoundTrip(*http.Request) (*http.Response, error) {
	c.calls++
	return nil, http.ErrNotSupported
}

func newTestExecutor(t *testing.T) (*Executor, *countingTransport) {
	t.Helper()
	exec := NewExecutor(5*time.Second, 0, zap.NewNop())
	transport := &countingTransport{}
	exec.httpClient.Transport = transport
	return exec, transport
}

func TestUnsubscribeDryRunNeverNetworks(t *testing.T) {
	infos := []core.UnsubscribeInfo{
		{HasUnsubscribe: true, Method: core.MethodOneClick, URL: "https://example.com/u", ListUnsubscribePost: "List-Unsubscribe=One-Click"},
		{HasUnsubscribe: true, Method: core.MethodHTTP, URL: "https://example.com/u"},
		{HasUnsubscribe: true, Method: core.MethodMailto, URL: "mailto:unsub@example.com"},
		{HasUnsubscribe: true, Method: core.MethodWeb, URL: "https://example.com/unsubscribe"},
	}

	exec, transport := newTestExecutor(t)
	for _, info := range infos {
		result := exec.Unsubscribe(context.Background(), info, "m1", true)
		if !result.Success {
			t.Errorf("%s: dry-run Success = false", info.Method)
		}
		if !strings.Contains(result.ActionTaken, "dry-run") {
			t.Errorf("%s: ActionTaken = %q, want a dry-run marker", info.Method, result.ActionTaken)
		}
	}
	if transport.calls != 0 {
		t.Errorf("dry-run made %d network calls, want 0", transport.calls)
	}
}

func TestUnsubscribeNoMechanism(t *testing.T) {
	exec, transport := newTestExecutor(t)
	result := exec.Unsubscribe(context.Background(), core.UnsubscribeInfo{}, "m1", false)
	if result.Success {
		t.Error("Success = true with no mechanism")
	}
	if result.Message != "No unsubscribe method found" {
		t.Errorf("Message = %q", result.Message)
	}
	if transport.calls != 0 {
		t.Errorf("network calls = %d, want 0", transport.calls)
	}
}

func TestUnsubscribeUnsafeURLNeverNetworks(t *testing.T) {
	exec, transport := newTestExecutor(t)
	info := core.UnsubscribeInfo{
		HasUnsubscribe: true,
		Method:         core.MethodHTTP,
		URL:            "http://192.168.1.1/unsubscribe",
	}
	result := exec.Unsubscribe(context.Background(), info, "m1", false)
	if result.Success {
		t.Error("Success = true for an unsafe URL")
	}
	if result.Message != "URL failed safety validation (possible phishing)" {
		t.Errorf("Message = %q", result.Message)
	}
	if transport.calls != 0 {
		t.Errorf("network calls = %d, want 0", transport.calls)
	}
}

// The loopback test server is an IPv4 literal, which the safety screen
// rejects by design, so the wire-level tests drive requestUnsubscribe
// directly.
func TestRequestUnsubscribeOneClickPost(t *testing.T) {
	var gotMethod, gotOneClick, gotUserAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotOneClick = r.Header.Get("List-Unsubscribe")
		gotUserAgent = r.Header.Get("User-Agent")
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	exec := NewExecutor(5*time.Second, 0, zap.NewNop())
	info := core.UnsubscribeInfo{
		HasUnsubscribe:      true,
		Method:              core.MethodOneClick,
		URL:                 server.URL + "/unsub",
		ListUnsubscribePost: "List-Unsubscribe=One-Click",
	}
	result := exec.requestUnsubscribe(context.Background(), http.MethodPost, info, "m1")

	if !result.Success {
		t.Fatalf("Success = false, message = %q", result.Message)
	}
	if result.ActionTaken != "automated-unsubscribe" {
		t.Errorf("ActionTaken = %q", result.ActionTaken)
	}
	if gotMethod != http.MethodPost {
		t.Errorf("request method = %q, want POST", gotMethod)
	}
	if gotOneClick != "One-Click" {
		t.Errorf("List-Unsubscribe header = %q, want One-Click", gotOneClick)
	}
	if gotUserAgent == "" {
		t.Error("User-Agent header not set")
	}
	if !strings.Contains(result.Message, "202") {
		t.Errorf("Message = %q, want the status code in it", result.Message)
	}
}

func TestRequestUnsubscribeHTTPGet(t *testing.T) {
	var gotMethod string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	exec := NewExecutor(5*time.Second, 0, zap.NewNop())
	info := core.UnsubscribeInfo{HasUnsubscribe: true, Method: core.MethodHTTP, URL: server.URL}
	result := exec.requestUnsubscribe(context.Background(), http.MethodGet, info, "m1")

	if !result.Success {
		t.Fatalf("Success = false, message = %q", result.Message)
	}
	if gotMethod != http.MethodGet {
		t.Errorf("request method = %q, want GET", gotMethod)
	}
}

func TestRequestUnsubscribeFailureStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	exec := NewExecutor(5*time.Second, 0, zap.NewNop())
	info := core.UnsubscribeInfo{HasUnsubscribe: true, Method: core.MethodHTTP, URL: server.URL}
	result := exec.requestUnsubscribe(context.Background(), http.MethodGet, info, "m1")

	if result.Success {
		t.Error("Success = true for a 500 response")
	}
	if result.ActionTaken != "failed" {
		t.Errorf("ActionTaken = %q, want failed", result.ActionTaken)
	}
	if !strings.Contains(result.Message, "500") {
		t.Errorf("Message = %q, want the status code in it", result.Message)
	}
}

func TestRequestUnsubscribeRedirectNotSuccess(t *testing.T) {
	// 3xx handled by the client's default policy lands on the final
	// status; a terminal 404 after redirect is a failure.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/start" {
			http.Redirect(w, r, "/gone", http.StatusFound)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	exec := NewExecutor(5*time.Second, 0, zap.NewNop())
	info := core.UnsubscribeInfo{HasUnsubscribe: true, Method: core.MethodHTTP, URL: server.URL + "/start"}
	result := exec.requestUnsubscribe(context.Background(), http.MethodGet, info, "m1")

	if result.Success {
		t.Error("Success = true after redirect to 404")
	}
}

func TestUnsubscribeManualMethods(t *testing.T) {
	exec, transport := newTestExecutor(t)

	mailto := core.UnsubscribeInfo{HasUnsubscribe: true, Method: core.MethodMailto, URL: "mailto:unsub@example.com"}
	result := exec.Unsubscribe(context.Background(), mailto, "m1", false)
	if result.Success {
		t.Error("mailto Success = true, want false")
	}
	if result.ActionTaken != "manual-required" {
		t.Errorf("mailto ActionTaken = %q", result.ActionTaken)
	}
	if !strings.Contains(result.Message, "Send email to mailto:unsub@example.com") {
		t.Errorf("mailto Message = %q", result.Message)
	}

	web := core.UnsubscribeInfo{HasUnsubscribe: true, Method: core.MethodWeb, URL: "https://example.com/unsubscribe"}
	result = exec.Unsubscribe(context.Background(), web, "m1", false)
	if result.ActionTaken != "manual-required" {
		t.Errorf("web ActionTaken = %q", result.ActionTaken)
	}
	if !strings.Contains(result.Message, "Visit https://example.com/unsubscribe") {
		t.Errorf("web Message = %q", result.Message)
	}

	if transport.calls != 0 {
		t.Errorf("manual methods made %d network calls, want 0", transport.calls)
	}
}

func TestClassifyRequestErrorTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	exec := NewExecutor(20*time.Millisecond, 0, zap.NewNop())
	info := core.UnsubscribeInfo{HasUnsubscribe: true, Method: core.MethodHTTP, URL: server.URL}
	result := exec.requestUnsubscribe(context.Background(), http.MethodGet, info, "m1")

	if result.Success {
		t.Error("Success = true for a timed-out request")
	}
	if result.Message != "Request timeout" {
		t.Errorf("Message = %q, want Request timeout", result.Message)
	}
}

func TestClassifyRequestErrorTLS(t *testing.T) {
	// A TLS server contacted without its root CA fails verification.
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	exec := NewExecutor(5*time.Second, 0, zap.NewNop())
	info := core.UnsubscribeInfo{HasUnsubscribe: true, Method: core.MethodHTTP, URL: server.URL}
	result := exec.requestUnsubscribe(context.Background(), http.MethodGet, info, "m1")

	if result.Success {
		t.Error("Success = true for a TLS failure")
	}
	if result.Message != "TLS certificate verification failed" {
		t.Errorf("Message = %q, want TLS certificate verification failed", result.Message)
	}
}

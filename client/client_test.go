package client_test

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/adamwoolhether/fetchkit/client"
	"github.com/adamwoolhether/fetchkit/client/assemble"
	"github.com/adamwoolhether/fetchkit/client/decode"
	"github.com/adamwoolhether/fetchkit/client/download"
	"github.com/adamwoolhether/fetchkit/client/hooks"
	"github.com/adamwoolhether/fetchkit/client/transport"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

func jsonHandler(status int, body any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}
}

func TestClient_WithUserAgent(t *testing.T) {
	expectedUA := "TestUserAgent/1.0"

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ua := r.Header.Get("User-Agent")
		if ua != expectedUA {
			t.Errorf("expected User-Agent %q, got %q", expectedUA, ua)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	c, err := client.Build(client.WithUserAgent(expectedUA), client.WithBaseURL(ts.URL))
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}

	req, err := c.Request(t.Context(), "/ping")
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}

	if err := c.Do(req, client.WithExpectedStatus(http.StatusOK)); err != nil {
		t.Errorf("expected no error, got: %v", err)
	}
}

func TestClient_WithTransport(t *testing.T) {
	var called atomic.Bool
	custom := roundTripFunc(func(r *http.Request) (*http.Response, error) {
		called.Store(true)
		return http.DefaultTransport.RoundTrip(r)
	})

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	orders := [][]client.Option{
		{client.WithTransport(custom), client.WithUserAgent("a/1"), client.WithThrottle(100, 10)},
		{client.WithThrottle(100, 10), client.WithTransport(custom), client.WithUserAgent("a/1")},
		{client.WithUserAgent("a/1"), client.WithThrottle(100, 10), client.WithTransport(custom)},
	}

	for i, opts := range orders {
		called.Store(false)

		c, err := client.Build(opts...)
		if err != nil {
			t.Fatalf("order %d: failed to create client: %v", i, err)
		}

		req, err := c.Request(t.Context(), "GET "+ts.URL+"/")
		if err != nil {
			t.Fatalf("order %d: failed to create request: %v", i, err)
		}

		if err := c.Do(req); err != nil {
			t.Errorf("order %d: expected no error, got: %v", i, err)
		}
		if !called.Load() {
			t.Errorf("order %d: custom transport was not called", i)
		}
	}
}

func TestClient_InvalidOptions(t *testing.T) {
	tests := map[string]client.Option{
		"nil transport":    client.WithTransport(nil),
		"nil client":       client.WithClient(nil),
		"negative timeout": client.WithTimeout(-1),
		"zero throttle":    client.WithThrottle(0, 1),
		"empty base url":   client.WithBaseURL(""),
		"nil dialer":       client.WithDialer(nil),
		"negative retry":   client.WithRetry(transport.RetryConfig{Max: -1}),
	}

	for name, opt := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := client.Build(opt); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestClient_WithClientAndWithTimeout(t *testing.T) {
	custom := &http.Client{Timeout: time.Millisecond}

	c, err := client.Build(client.WithClient(custom), client.WithTimeout(5*time.Second))
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}

	if c.HTTPClient() != custom {
		t.Error("expected provided client to be used")
	}
	if custom.Timeout != 5*time.Second {
		t.Errorf("expected WithTimeout to win, got %v", custom.Timeout)
	}
}

func TestClient_FetchJSON(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		jsonHandler(http.StatusOK, map[string]any{
			"path":  r.URL.Path,
			"query": r.URL.RawQuery,
		})(w, r)
	}))
	defer ts.Close()

	c, err := client.Build(client.WithBaseURL(ts.URL))
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}

	res, err := c.Fetch(t.Context(), "GET /users/:id",
		client.WithParameters(map[string]any{"id": 42}),
		client.WithData(map[string]any{"page": 2}),
	)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}

	if res.Kind != decode.KindJSON {
		t.Fatalf("expected json result, got %s", res.Kind)
	}

	want := map[string]any{"path": "/users/42", "query": "page=2"}
	if diff := cmp.Diff(want, res.Value); diff != "" {
		t.Errorf("unexpected value (-want +got):\n%s", diff)
	}
}

func TestClient_DoDestination(t *testing.T) {
	type user struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
	}

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("expected json content type, got %q", ct)
		}

		var in user
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		in.ID = 7

		jsonHandler(http.StatusCreated, in)(w, r)
	}))
	defer ts.Close()

	c, err := client.Build(client.WithBaseURL(ts.URL))
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}

	req, err := c.Request(t.Context(), "POST /users", client.WithPayload(user{Name: "bob"}))
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}

	var got user
	if err := c.Do(req, client.WithDestination(&got), client.WithExpectedStatus(http.StatusCreated)); err != nil {
		t.Fatalf("do: %v", err)
	}

	if diff := cmp.Diff(user{ID: 7, Name: "bob"}, got); diff != "" {
		t.Errorf("unexpected body (-want +got):\n%s", diff)
	}
}

func TestClient_DoJSONNumber(t *testing.T) {
	ts := httptest.NewServer(jsonHandler(http.StatusOK, map[string]any{"big": 9007199254740993}))
	defer ts.Close()

	c, err := client.Build(client.WithBaseURL(ts.URL))
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}

	req, err := c.Request(t.Context(), "/")
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}

	var got map[string]any
	if err := c.Do(req, client.WithDestination(&got), client.WithJSONNumb()); err != nil {
		t.Fatalf("do: %v", err)
	}

	if got["big"] != json.Number("9007199254740993") {
		t.Errorf("expected json.Number, got %#v", got["big"])
	}
}

func TestClient_DoUnexpectedStatus(t *testing.T) {
	ts := httptest.NewServer(jsonHandler(http.StatusOK, map[string]any{}))
	defer ts.Close()

	c, err := client.Build(client.WithBaseURL(ts.URL))
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}

	req, err := c.Request(t.Context(), "/")
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}

	err = c.Do(req, client.WithExpectedStatus(http.StatusCreated))

	var statusErr *client.UnexpectedStatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected UnexpectedStatusError, got %v", err)
	}
	if statusErr.StatusCode != http.StatusOK || statusErr.Expected != http.StatusCreated {
		t.Errorf("unexpected error fields: %+v", statusErr)
	}
	if !errors.Is(err, client.ErrUnexpectedStatusCode) {
		t.Error("expected ErrUnexpectedStatusCode")
	}
}

func TestClient_DoDestinationWrongKind(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = io.WriteString(w, "hello")
	}))
	defer ts.Close()

	c, err := client.Build(client.WithBaseURL(ts.URL))
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}

	req, err := c.Request(t.Context(), "/")
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}

	var got map[string]any
	if err := c.Do(req, client.WithDestination(&got)); !errors.Is(err, client.ErrUnexpectedKind) {
		t.Errorf("expected ErrUnexpectedKind, got %v", err)
	}
}

func TestClient_FetchFailureHooks(t *testing.T) {
	ts := httptest.NewServer(jsonHandler(http.StatusNotFound, map[string]any{"message": "no such user"}))
	defer ts.Close()

	var calls []string
	c, err := client.Build(
		client.WithBaseURL(ts.URL),
		client.WithDefaultHooks(hooks.Hooks{
			OnEnd: func(*http.Response) { calls = append(calls, "default end") },
		}),
	)
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}

	_, err = c.Fetch(t.Context(), "/users/9", client.WithHooks(hooks.Hooks{
		OnSuccess: func(*http.Response) { calls = append(calls, "success") },
		OnFailure: func(*http.Response) { calls = append(calls, "failure") },
		OnEnd:     func(*http.Response) { calls = append(calls, "end") },
	}))

	fe, ok := decode.IsFailure(err)
	if !ok {
		t.Fatalf("expected failure error, got %v", err)
	}
	if fe.StatusCode != http.StatusNotFound || fe.Message != "no such user" {
		t.Errorf("unexpected failure: %+v", fe)
	}

	want := []string{"failure", "default end", "end"}
	if diff := cmp.Diff(want, calls); diff != "" {
		t.Errorf("unexpected hook calls (-want +got):\n%s", diff)
	}
}

func TestClient_FetchTransportError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	ts.Close()

	c, err := client.Build(client.WithBaseURL(ts.URL))
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}

	var ends int
	var endResp *http.Response
	_, err = c.Fetch(t.Context(), "/", client.WithHooks(hooks.Hooks{
		OnEnd: func(resp *http.Response) {
			ends++
			endResp = resp
		},
	}))
	if err == nil {
		t.Fatal("expected transport error")
	}
	if ends != 1 || endResp != nil {
		t.Errorf("expected one OnEnd with nil response, got %d calls, resp %v", ends, endResp)
	}
}

func TestClient_Defaults(t *testing.T) {
	type seen struct {
		Auth   string
		Tenant string
		Cookie string
		Query  string
	}

	var got seen
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = seen{
			Auth:   r.Header.Get("Authorization"),
			Tenant: r.Header.Get("X-Tenant"),
			Cookie: r.Header.Get("Cookie"),
			Query:  r.URL.RawQuery,
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer ts.Close()

	c, err := client.Build(
		client.WithBaseURL(ts.URL),
		client.WithToken("secret", "", ""),
		client.WithDefaultHeaders(map[string]any{"X-Tenant": "a"}),
		client.WithArrayFormat(assemble.FormatComma),
	)
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}

	tests := []struct {
		name string
		opts []client.RequestOption
		want seen
	}{
		{
			name: "defaults",
			opts: []client.RequestOption{client.WithQuery(map[string]any{"ids": []int{1, 2}})},
			want: seen{Auth: "Bearer secret", Tenant: "a", Query: "ids=1%2C2"},
		},
		{
			name: "overrides",
			opts: []client.RequestOption{
				client.WithHeaders(map[string]any{"x-tenant": "b"}),
				client.WithRequestToken("tok", assemble.TokenCookie, "sid"),
				client.WithCookies(&http.Cookie{Name: "theme", Value: "dark"}),
				client.WithQueryFormat(assemble.FormatFlat),
				client.WithQuery(map[string]any{"ids": []int{1, 2}}),
			},
			want: seen{Tenant: "b", Cookie: "theme=dark; sid=tok", Query: "ids=1&ids=2"},
		},
		{
			name: "token disabled",
			opts: []client.RequestOption{client.WithRequestToken("", "", "")},
			want: seen{Tenant: "a"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got = seen{}

			res, err := c.Fetch(t.Context(), "GET /", tt.opts...)
			if err != nil {
				t.Fatalf("fetch: %v", err)
			}
			if res.Kind != decode.KindNone {
				t.Errorf("expected no content, got %s", res.Kind)
			}

			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("unexpected request (-want +got):\n%s", diff)
			}
		})
	}
}

func TestClient_FetchNDJSON(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/stream+json")
		for i := range 3 {
			_, _ = io.WriteString(w, `{"n":`+strconv.Itoa(i)+"}\n")
			w.(http.Flusher).Flush()
		}
	}))
	defer ts.Close()

	c, err := client.Build(client.WithBaseURL(ts.URL))
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}

	var ended int
	res, err := c.Fetch(t.Context(), "/feed",
		client.WithDecodeOptions(decode.WithDelimiter('\n')),
		client.WithHooks(hooks.Hooks{OnEnd: func(*http.Response) { ended++ }}),
	)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if res.Kind != decode.KindNDJSON {
		t.Fatalf("expected ndjson result, got %s", res.Kind)
	}

	got, err := res.Values.Collect()
	if err != nil {
		t.Fatalf("collect: %v", err)
	}

	want := []any{
		map[string]any{"n": float64(0)},
		map[string]any{"n": float64(1)},
		map[string]any{"n": float64(2)},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("unexpected values (-want +got):\n%s", diff)
	}
	if ended != 1 {
		t.Errorf("expected OnEnd once, got %d", ended)
	}
}

func TestClient_Download(t *testing.T) {
	content := strings.Repeat("fetchkit", 1024)
	sum := sha256.Sum256([]byte(content))

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/files/report.bin" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Header().Set("Content-Length", strconv.Itoa(len(content)))
		_, _ = io.WriteString(w, content)
	}))
	defer ts.Close()

	c, err := client.Build(client.WithBaseURL(ts.URL))
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}

	t.Run("checksum", func(t *testing.T) {
		dest := filepath.Join(t.TempDir(), "report.bin")

		req, err := c.Request(t.Context(), "/files/:name", client.WithParameters(map[string]any{"name": "report.bin"}))
		if err != nil {
			t.Fatalf("failed to create request: %v", err)
		}

		if err := c.Download(req, dest, download.WithChecksum(sha256.New(), hex.EncodeToString(sum[:]))); err != nil {
			t.Fatalf("download: %v", err)
		}

		b, err := os.ReadFile(dest)
		if err != nil {
			t.Fatalf("reading file: %v", err)
		}
		if string(b) != content {
			t.Error("downloaded content mismatch")
		}
	})

	t.Run("checksum mismatch", func(t *testing.T) {
		dest := filepath.Join(t.TempDir(), "report.bin")

		req, err := c.Request(t.Context(), "/files/report.bin")
		if err != nil {
			t.Fatalf("failed to create request: %v", err)
		}

		err = c.Download(req, dest, download.WithChecksum(sha256.New(), "00"))
		if !errors.Is(err, client.ErrChecksumMismatch) {
			t.Fatalf("expected checksum mismatch, got %v", err)
		}
		if _, err := os.Stat(dest); !os.IsNotExist(err) {
			t.Error("expected destination to be absent")
		}
	})

	t.Run("not found", func(t *testing.T) {
		req, err := c.Request(t.Context(), "/missing")
		if err != nil {
			t.Fatalf("failed to create request: %v", err)
		}

		err = c.Download(req, filepath.Join(t.TempDir(), "x"))
		if fe, ok := decode.IsFailure(err); !ok || fe.StatusCode != http.StatusNotFound {
			t.Fatalf("expected 404 failure, got %v", err)
		}
	})

	t.Run("empty destination", func(t *testing.T) {
		req, err := c.Request(t.Context(), "/files/report.bin")
		if err != nil {
			t.Fatalf("failed to create request: %v", err)
		}

		if err := c.Download(req, ""); err == nil {
			t.Fatal("expected error")
		}
	})
}

func TestClient_Connect(t *testing.T) {
	upgrader := websocket.Upgrader{}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rooms/lobby" || r.Header.Get("Authorization") != "Bearer secret" {
			w.WriteHeader(http.StatusForbidden)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		kind, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		_ = conn.WriteMessage(kind, msg)
	}))
	defer ts.Close()

	c, err := client.Build(client.WithBaseURL(ts.URL), client.WithToken("secret", "", ""))
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}

	ch, err := c.Connect(t.Context(), "WS /rooms/:room", client.WithParameters(map[string]any{"room": "lobby"}))
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer ch.Close()

	if err := ch.Send(map[string]any{"say": "hi"}); err != nil {
		t.Fatalf("send: %v", err)
	}

	got, err := ch.Receive()
	if err != nil {
		t.Fatalf("receive: %v", err)
	}
	if diff := cmp.Diff(map[string]any{"say": "hi"}, got); diff != "" {
		t.Errorf("unexpected message (-want +got):\n%s", diff)
	}

	if _, err := c.Connect(t.Context(), "WS /rooms/other"); err == nil {
		t.Error("expected handshake failure")
	}
}

func TestClient_WithRetry(t *testing.T) {
	var attempts atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		jsonHandler(http.StatusOK, map[string]any{"ok": true})(w, r)
	}))
	defer ts.Close()

	c, err := client.Build(
		client.WithBaseURL(ts.URL),
		client.WithRetry(transport.RetryConfig{Max: 2, WaitMin: time.Millisecond, WaitMax: 2 * time.Millisecond}),
	)
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}

	var successes int
	res, err := c.Fetch(t.Context(), "/", client.WithHooks(hooks.Hooks{
		OnSuccess: func(*http.Response) { successes++ },
		OnFailure: func(*http.Response) { t.Error("failure hook fired for a retried attempt") },
	}))
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}

	if diff := cmp.Diff(map[string]any{"ok": true}, res.Value); diff != "" {
		t.Errorf("unexpected value (-want +got):\n%s", diff)
	}
	if attempts.Load() != 2 || successes != 1 {
		t.Errorf("expected 2 attempts and 1 success, got %d and %d", attempts.Load(), successes)
	}
}

func TestClient_WithMetricsAndRequestID(t *testing.T) {
	var requestID string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID = r.Header.Get(transport.RequestIDHeader)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer ts.Close()

	reg := prometheus.NewRegistry()
	c, err := client.Build(
		client.WithBaseURL(ts.URL),
		client.WithMetrics(reg, "test"),
		client.WithRequestID(),
	)
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	if c.Metrics() == nil {
		t.Fatal("expected metrics to be installed")
	}

	if _, err := c.Fetch(t.Context(), "DELETE /items/1"); err != nil {
		t.Fatalf("fetch: %v", err)
	}

	if requestID == "" {
		t.Error("expected request id header")
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}

	var found bool
	for _, mf := range families {
		if mf.GetName() == "test_http_client_requests_total" {
			found = len(mf.GetMetric()) == 1 && mf.GetMetric()[0].GetCounter().GetValue() == 1
		}
	}
	if !found {
		t.Error("expected one counted request")
	}
}

func TestClient_WithEnv(t *testing.T) {
	var auth string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("X-Api-Key")
		w.WriteHeader(http.StatusNoContent)
	}))
	defer ts.Close()

	t.Setenv("FETCHKIT_TEST_BASE_URL", ts.URL)
	t.Setenv("FETCHKIT_TEST_TOKEN", "k")
	t.Setenv("FETCHKIT_TEST_TOKEN_LOCATION", "header")
	t.Setenv("FETCHKIT_TEST_TOKEN_PROPERTY", "X-Api-Key")
	t.Setenv("FETCHKIT_TEST_TIMEOUT", "3s")

	c, err := client.Build(client.WithEnv("FETCHKIT_TEST"))
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}

	if c.HTTPClient().Timeout != 3*time.Second {
		t.Errorf("expected 3s timeout, got %v", c.HTTPClient().Timeout)
	}

	if _, err := c.Fetch(t.Context(), "/"); err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if auth != "k" {
		t.Errorf("expected env token, got %q", auth)
	}

	t.Setenv("FETCHKIT_TEST_TOKEN_LOCATION", "body")
	if _, err := client.Build(client.WithEnv("FETCHKIT_TEST")); err == nil {
		t.Error("expected validation error")
	}
}

func TestClient_RequestInvalidMethod(t *testing.T) {
	c, err := client.Build(client.WithBaseURL("https://example.com"))
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}

	if _, err := c.Request(t.Context(), "/", client.WithMethod("TRACE")); err == nil {
		t.Error("expected invalid method error")
	}
	if _, err := c.Request(t.Context(), "FETCH /"); err == nil {
		t.Error("expected invalid method error")
	}
}

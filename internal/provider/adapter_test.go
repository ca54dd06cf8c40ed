package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	customerrors "github.com/linkbridge/linkbridge/internal/errors"
)

func newTestAdapter(timeout time.Duration) *Adapter {
	return NewAdapter(nil, Options{Timeout: timeout}, zap.NewNop())
}

func requireKind(t *testing.T, err error, kind customerrors.Kind) *customerrors.BridgeError {
	t.Helper()
	be, ok := customerrors.As(err)
	require.True(t, ok, "expected BridgeError, got %v", err)
	require.Equal(t, kind, be.Kind)
	return be
}

func TestAdapter_Resolve_JSONResponse(t *testing.T) {
	t.Parallel()

	var gotQuery, gotUA atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery.Store(r.URL.RawQuery)
		gotUA.Store(r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"status":"success","shortenedUrl":"https://x.co/a"}`)
	}))
	defer srv.Close()

	res, err := newTestAdapter(time.Second).Resolve(context.Background(), Request{
		BaseURL:     srv.URL,
		Key:         "secret-key",
		Destination: "https://example.com/page?q=1",
	})
	require.NoError(t, err)
	require.Equal(t, "https://x.co/a", res.ShortURL)
	require.Equal(t, srv.URL, res.Endpoint)
	require.Equal(t, 1, res.Attempts)
	require.Equal(t, "api=secret-key&url=https%3A%2F%2Fexample.com%2Fpage%3Fq%3D1", gotQuery.Load())
	require.Equal(t, DefaultUserAgent, gotUA.Load())
}

func TestAdapter_Resolve_AppendsToExistingQuery(t *testing.T) {
	t.Parallel()

	var gotQuery atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery.Store(r.URL.Query())
		fmt.Fprint(w, "https://x.co/b")
	}))
	defer srv.Close()

	res, err := newTestAdapter(time.Second).Resolve(context.Background(), Request{
		BaseURL:     srv.URL + "/api?format=json",
		Key:         "k1234",
		Destination: "example.com",
	})
	require.NoError(t, err)
	require.Equal(t, "https://x.co/b", res.ShortURL)
	q := gotQuery.Load().(url.Values)
	require.Equal(t, "json", q.Get("format"))
	require.Equal(t, "k1234", q.Get("api"))
	require.Equal(t, "https://example.com", q.Get("url"))
}

func TestAdapter_Resolve_CorrectsToAPISuffix(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.URL.Path == "/api" {
			fmt.Fprint(w, `{"short_url":"https://x.co/fixed"}`)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, "<!DOCTYPE html><html><body>Welcome</body></html>")
	}))
	defer srv.Close()

	res, err := newTestAdapter(time.Second).Resolve(context.Background(), Request{
		BaseURL:     srv.URL,
		Key:         "key-1",
		Destination: "https://example.com",
	})
	require.NoError(t, err)
	require.Equal(t, "https://x.co/fixed", res.ShortURL)
	require.Equal(t, srv.URL+"/api", res.Endpoint)
	require.Equal(t, 2, res.Attempts)
	require.Equal(t, int32(2), calls.Load())
}

func TestAdapter_Resolve_FallsBackToRootAPI(t *testing.T) {
	t.Parallel()

	var (
		mu    sync.Mutex
		paths []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		paths = append(paths, r.URL.Path)
		mu.Unlock()
		if r.URL.Path == "/api" {
			fmt.Fprint(w, `{"data":{"url":"https://x.co/root"}}`)
			return
		}
		fmt.Fprint(w, "<html>dashboard</html>")
	}))
	defer srv.Close()

	res, err := newTestAdapter(time.Second).Resolve(context.Background(), Request{
		BaseURL:     srv.URL + "/member/tools",
		Key:         "key-1",
		Destination: "https://example.com",
	})
	require.NoError(t, err)
	require.Equal(t, "https://x.co/root", res.ShortURL)
	mu.Lock()
	require.Equal(t, []string{"/member/tools", "/member/tools/api", "/api"}, paths)
	mu.Unlock()
	require.Equal(t, 3, res.Attempts)
}

func TestAdapter_Resolve_HTMLEverywhere(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		fmt.Fprint(w, "<html>"+strings.Repeat("x", 2000)+"</html>")
	}))
	defer srv.Close()

	_, err := newTestAdapter(time.Second).Resolve(context.Background(), Request{
		BaseURL:     srv.URL + "/member",
		Key:         "key-1",
		Destination: "https://example.com",
	})
	be := requireKind(t, err, customerrors.KindProviderMalformedResponse)
	require.Equal(t, int32(3), calls.Load())
	require.Contains(t, be.Message, "different endpoint")
	require.True(t, strings.HasSuffix(be.RawBody, "(truncated)"))
	require.Contains(t, be.RequestURL, "/api?")
	require.Equal(t, 502, be.HTTPStatus())
}

func TestAdapter_Resolve_NoCorrectionWhenAlreadyRootAPI(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		fmt.Fprint(w, "<html></html>")
	}))
	defer srv.Close()

	_, err := newTestAdapter(time.Second).Resolve(context.Background(), Request{
		BaseURL:     srv.URL + "/api",
		Key:         "key-1",
		Destination: "https://example.com",
	})
	requireKind(t, err, customerrors.KindProviderMalformedResponse)
	require.Equal(t, int32(1), calls.Load())
}

func TestAdapter_Resolve_CorrectionBudget(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		fmt.Fprint(w, "<html></html>")
	}))
	defer srv.Close()

	a := NewAdapter(nil, Options{Timeout: time.Second, MaxCorrections: 1}, zap.NewNop())
	_, err := a.Resolve(context.Background(), Request{
		BaseURL:     srv.URL + "/member",
		Key:         "key-1",
		Destination: "https://example.com",
	})
	requireKind(t, err, customerrors.KindProviderMalformedResponse)
	require.Equal(t, int32(2), calls.Load())
}

// The reference deployment uses an 8s deadline against a provider that sleeps
// 9s; the same boundary is exercised here at a smaller scale.
func TestAdapter_Resolve_Timeout(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		select {
		case <-time.After(900 * time.Millisecond):
		case <-release:
		case <-r.Context().Done():
		}
		fmt.Fprint(w, "<html>late</html>")
	}))
	defer srv.Close()
	defer close(release)

	start := time.Now()
	_, err := newTestAdapter(100*time.Millisecond).Resolve(context.Background(), Request{
		BaseURL:     srv.URL,
		Key:         "key-1",
		Destination: "https://example.com",
	})
	be := requireKind(t, err, customerrors.KindProviderTimeout)
	require.Less(t, time.Since(start), 800*time.Millisecond)
	require.Equal(t, 504, be.HTTPStatus())
	require.Equal(t, int32(1), calls.Load())
	require.Contains(t, be.Message, "timed out")
}

func TestAdapter_Resolve_ParentCancellation(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()
	_, err := newTestAdapter(5*time.Second).Resolve(ctx, Request{
		BaseURL:     srv.URL,
		Key:         "key-1",
		Destination: "https://example.com",
	})
	requireKind(t, err, customerrors.KindProviderTimeout)
}

func TestAdapter_Resolve_Unauthorized(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, "<html>Log in with Vercel</html>")
	}))
	defer srv.Close()

	_, err := newTestAdapter(time.Second).Resolve(context.Background(), Request{
		BaseURL:     srv.URL,
		Key:         "key-1",
		Destination: "https://example.com",
	})
	be := requireKind(t, err, customerrors.KindProviderUnauthorized)
	require.Contains(t, be.Message, "unauthorized")
}

func TestAdapter_Resolve_BusinessError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"status":"error","message":"Invalid API token %s"}`, r.URL.Query().Get("api"))
	}))
	defer srv.Close()

	_, err := newTestAdapter(time.Second).Resolve(context.Background(), Request{
		BaseURL:     srv.URL,
		Key:         "very-secret-token",
		Destination: "https://example.com",
	})
	be := requireKind(t, err, customerrors.KindProviderBusinessError)
	require.Contains(t, be.Message, "rejected the link")
	require.NotContains(t, be.RawBody, "very-secret-token")
	require.NotContains(t, be.RequestURL, "very-secret-token")
	require.NotContains(t, be.Message, "very-secret-token")
	require.Contains(t, be.RequestURL, "api=***")
}

func TestAdapter_Resolve_NoURLInBody(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"status":"ok","count":3}`)
	}))
	defer srv.Close()

	_, err := newTestAdapter(time.Second).Resolve(context.Background(), Request{
		BaseURL:     srv.URL,
		Key:         "key-1",
		Destination: "https://example.com",
	})
	be := requireKind(t, err, customerrors.KindProviderMalformedResponse)
	require.Equal(t, `{"status":"ok","count":3}`, be.RawBody)
}

func TestAdapter_Resolve_Unreachable(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	addr := srv.URL
	srv.Close()

	_, err := newTestAdapter(time.Second).Resolve(context.Background(), Request{
		BaseURL:     addr,
		Key:         "key-1",
		Destination: "https://example.com",
	})
	requireKind(t, err, customerrors.KindProviderUnreachable)
}

func TestAdapter_Resolve_Preconditions(t *testing.T) {
	t.Parallel()

	a := newTestAdapter(time.Second)
	_, err := a.Resolve(context.Background(), Request{BaseURL: "x.co", Key: "", Destination: "https://example.com"})
	requireKind(t, err, customerrors.KindMissingParameter)

	_, err = a.Resolve(context.Background(), Request{BaseURL: "x.co", Key: "k", Destination: "not a url"})
	requireKind(t, err, customerrors.KindInvalidDestinationURL)
}

func TestAdapter_Probe(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, "<html>home</html>")
	}))
	defer srv.Close()

	report, err := newTestAdapter(time.Second).Probe(context.Background(), Request{
		BaseURL:     srv.URL,
		Key:         "key-12345",
		Destination: "example.com",
	})
	require.NoError(t, err)
	require.False(t, report.Success)
	require.True(t, report.IsHTML)
	require.False(t, report.JSONValid)
	require.Equal(t, http.StatusOK, report.StatusCode)
	require.Equal(t, string(customerrors.KindProviderMalformedResponse), report.Kind)
	require.NotContains(t, report.RequestURL, "key-12345")
}

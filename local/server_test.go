package local

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/proxykit/proxykit/proxy"
)

func newTestServer(t *testing.T, api *proxy.API) *Server {
	t.Helper()
	return New(api, Config{Addr: "127.0.0.1:0"}, WithLogger(zap.NewNop()))
}

func TestLoadConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg, err := LoadConfig()
		require.NoError(t, err)
		assert.Equal(t, "127.0.0.1:8000", cfg.Addr)
		assert.Equal(t, 30*time.Second, cfg.ReadTimeout)
		assert.Equal(t, 5*time.Second, cfg.ShutdownTimeout)
	})

	t.Run("environment override", func(t *testing.T) {
		t.Setenv("PROXY_ADDR", "0.0.0.0:9000")
		t.Setenv("PROXY_READ_TIMEOUT", "10s")

		cfg, err := LoadConfig()
		require.NoError(t, err)
		assert.Equal(t, "0.0.0.0:9000", cfg.Addr)
		assert.Equal(t, 10*time.Second, cfg.ReadTimeout)
	})

	t.Run("invalid value", func(t *testing.T) {
		t.Setenv("PROXY_READ_TIMEOUT", "not-a-duration")

		_, err := LoadConfig()
		assert.ErrorIs(t, err, ErrParsingConfig)
	})
}

func TestServeHTTP(t *testing.T) {
	api := proxy.NewAPI("test", proxy.WithLogger(zap.NewNop()))
	api.MustRegister("/hello/<name>", func(r *proxy.Request) (proxy.Response, error) {
		return proxy.PlainText(proxy.OK, "hello "+r.String("name")), nil
	})
	api.MustRegister("/greet", func(r *proxy.Request) (proxy.Response, error) {
		return proxy.PlainText(proxy.OK, "hi "+r.String("who")), nil
	})
	api.MustRegister("/echo", func(r *proxy.Request) (proxy.Response, error) {
		return proxy.PlainText(proxy.OK, string(r.Body())), nil
	}, proxy.WithMethods("POST"))
	api.MustRegister("/blob", func(r *proxy.Request) (proxy.Response, error) {
		return proxy.Binary(proxy.OK, "application/octet-stream", []byte{0x00, 0x01, 0xfe, 0xff}), nil
	}, proxy.WithBinaryEncoding())

	srv := newTestServer(t, api)

	t.Run("path parameter", func(t *testing.T) {
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/hello/bob", nil))

		assert.Equal(t, 200, rec.Code)
		assert.Equal(t, "hello bob", rec.Body.String())
		assert.Equal(t, "text/plain", rec.Header().Get("Content-Type"))
	})

	t.Run("query parameter", func(t *testing.T) {
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/greet?who=ada", nil))

		assert.Equal(t, 200, rec.Code)
		assert.Equal(t, "hi ada", rec.Body.String())
	})

	t.Run("post body", func(t *testing.T) {
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/echo", bytes.NewBufferString("payload")))

		assert.Equal(t, 200, rec.Code)
		assert.Equal(t, "payload", rec.Body.String())
	})

	t.Run("binary post body", func(t *testing.T) {
		api.MustRegister("/raw", func(r *proxy.Request) (proxy.Response, error) {
			return proxy.Binary(proxy.OK, "application/octet-stream", r.Body()), nil
		}, proxy.WithMethods("POST"))

		raw := []byte{0x00, 0xff, 0x80, 0x01}
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/raw", bytes.NewReader(raw)))

		assert.Equal(t, 200, rec.Code)
		assert.Equal(t, raw, rec.Body.Bytes())
	})

	t.Run("base64 envelope decoded on the wire", func(t *testing.T) {
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/blob", nil))

		assert.Equal(t, 200, rec.Code)
		assert.Equal(t, []byte{0x00, 0x01, 0xfe, 0xff}, rec.Body.Bytes())
	})

	t.Run("routing error", func(t *testing.T) {
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))

		assert.Equal(t, 400, rec.Code)
		assert.JSONEq(t, `{"errorMessage": "No view function for: /nope"}`, rec.Body.String())
	})

	t.Run("request id generated", func(t *testing.T) {
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/hello/bob", nil))

		assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
	})

	t.Run("request id preserved", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/hello/bob", nil)
		req.Header.Set("X-Request-Id", "abc-123")

		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, req)

		assert.Equal(t, "abc-123", rec.Header().Get("X-Request-Id"))
	})
}

func TestServeHTTPCompression(t *testing.T) {
	api := proxy.NewAPI("test", proxy.WithLogger(zap.NewNop()))
	api.MustRegister("/z", func(r *proxy.Request) (proxy.Response, error) {
		return proxy.PlainText(proxy.OK, "zzzz"), nil
	}, proxy.WithCompression("gzip"))

	srv := newTestServer(t, api)

	req := httptest.NewRequest(http.MethodGet, "/z", nil)
	req.Header.Set("Accept-Encoding", "gzip")

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	assert.Equal(t, 200, rec.Code)
	assert.Equal(t, "gzip", rec.Header().Get("Content-Encoding"))
}

func TestEventFromRequest(t *testing.T) {
	t.Run("text body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/x", bytes.NewBufferString("hello"))

		event, err := eventFromRequest(req)
		require.NoError(t, err)
		assert.Equal(t, "hello", event.Body)
		assert.False(t, event.IsBase64Encoded)
	})

	t.Run("binary body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/x", bytes.NewReader([]byte{0xff, 0xfe}))

		event, err := eventFromRequest(req)
		require.NoError(t, err)
		assert.True(t, event.IsBase64Encoded)
		assert.Equal(t, "//4=", event.Body)
	})

	t.Run("empty body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/x", nil)

		event, err := eventFromRequest(req)
		require.NoError(t, err)
		assert.Empty(t, event.Body)
		assert.False(t, event.IsBase64Encoded)
	})

	t.Run("first header and query values win", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/x?a=1&a=2", nil)
		req.Header.Add("X-Many", "first")
		req.Header.Add("X-Many", "second")

		event, err := eventFromRequest(req)
		require.NoError(t, err)
		assert.Equal(t, "first", event.Headers["X-Many"])
		assert.Equal(t, "1", event.QueryStringParameters["a"])
	})
}

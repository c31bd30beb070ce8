package local

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/proxykit/proxykit/proxy"
)

// requestIDHeader carries the per-request correlation identifier. A value
// supplied by the client is kept; otherwise one is generated.
const requestIDHeader = "X-Request-Id"

// Server hosts a proxy.API behind a plain HTTP listener for development
// and testing. Each HTTP request is translated into a gateway event,
// dispatched, and the returned envelope is written back as the HTTP
// response.
type Server struct {
	api  *proxy.API
	log  *zap.Logger
	http *http.Server
	cfg  Config
}

// Option configures a Server at construction time.
type Option func(*Server)

// WithLogger replaces the access logger.
func WithLogger(log *zap.Logger) Option {
	return func(s *Server) { s.log = log }
}

// New builds a development server for the given API.
func New(api *proxy.API, cfg Config, opts ...Option) *Server {
	s := &Server{
		api: api,
		cfg: cfg,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.log == nil {
		s.log, _ = zap.NewProduction()
	}

	s.http = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return s
}

// ServeHTTP implements http.Handler: it translates the request into a
// gateway event, dispatches it, and writes the envelope back.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	requestID := r.Header.Get(requestIDHeader)
	if requestID == "" {
		requestID = uuid.NewString()
	}

	event, err := eventFromRequest(r)
	if err != nil {
		http.Error(w, "failed to read request body", http.StatusInternalServerError)
		return
	}

	env := s.api.Handle(r.Context(), event)

	for k, v := range env.Headers {
		w.Header().Set(k, v)
	}
	w.Header().Set(requestIDHeader, requestID)

	body := []byte(env.Body)
	if env.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(env.Body)
		if err != nil {
			http.Error(w, "failed to decode response body", http.StatusInternalServerError)
			return
		}
		body = decoded
	}

	w.WriteHeader(env.StatusCode)
	_, _ = w.Write(body)

	s.log.Info("request",
		zap.String("request_id", requestID),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Int("status", env.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)
}

// Run serves until the context is canceled, then shuts down gracefully
// within the configured shutdown timeout.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	s.log.Info("listening", zap.String("addr", s.cfg.Addr))

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	return s.http.Shutdown(shutdownCtx)
}

// eventFromRequest builds a gateway event from an HTTP request. Multi-valued
// headers and query parameters are collapsed to their first value, matching
// the single-valued maps of the event format. A body that is not valid
// UTF-8 is base64-encoded and flagged, since the event body field is text.
func eventFromRequest(r *http.Request) (*proxy.Event, error) {
	headers := make(map[string]string, len(r.Header))
	for k, values := range r.Header {
		if len(values) > 0 {
			headers[k] = values[0]
		}
	}

	var query map[string]string
	if values := r.URL.Query(); len(values) > 0 {
		query = make(map[string]string, len(values))
		for k, v := range values {
			if len(v) > 0 {
				query[k] = v[0]
			}
		}
	}

	event := &proxy.Event{
		Path:                  r.URL.Path,
		HTTPMethod:            r.Method,
		Headers:               headers,
		QueryStringParameters: query,
	}

	if r.Body != nil {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			return nil, err
		}
		if len(body) > 0 {
			if utf8.Valid(body) {
				event.Body = string(body)
			} else {
				event.Body = base64.StdEncoding.EncodeToString(body)
				event.IsBase64Encoded = true
			}
		}
	}

	return event, nil
}

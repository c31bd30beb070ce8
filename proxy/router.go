package proxy

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"os"

	"go.uber.org/zap"
)

// tokenEnvVar is the environment variable holding the shared-secret access
// token for token-protected routes.
const tokenEnvVar = "TOKEN"

// API registers routes and dispatches inbound events against them.
//
// The route table is populated during application setup and must not be
// mutated once serving starts; dispatching itself keeps no per-call state
// on the API, so a populated API is safe for concurrent Handle calls.
type API struct {
	name        string
	log         *zap.Logger
	debug       bool
	routes      []*RouteEntry
	byTemplate  map[string]*RouteEntry
	tokenSource func() string
}

// Option configures an API at construction time.
type Option func(*API)

// WithDebug enables debug logging of inbound event metadata.
func WithDebug() Option {
	return func(a *API) { a.debug = true }
}

// WithLogger replaces the default logger.
func WithLogger(log *zap.Logger) Option {
	return func(a *API) { a.log = log }
}

// WithTokenSource replaces the shared-secret source used for
// token-protected routes. The default reads the TOKEN environment
// variable at validation time.
func WithTokenSource(source func() string) Option {
	return func(a *API) { a.tokenSource = source }
}

// NewAPI returns an empty API with the given application name.
func NewAPI(name string, opts ...Option) *API {
	a := &API{
		name:        name,
		byTemplate:  make(map[string]*RouteEntry),
		tokenSource: func() string { return os.Getenv(tokenEnvVar) },
	}

	for _, opt := range opts {
		opt(a)
	}

	if a.log == nil {
		a.log = newLogger(name, a.debug)
	}

	return a
}

// Register compiles the path template and adds a route for it. Without
// options the route answers GET only, with no CORS, auth, compression,
// binary encoding or cache policy.
//
// The same handler may be registered under several templates; each
// registration is independent. Registering the same template twice fails
// with ErrRouteExists. Registration is not safe for use concurrently with
// Handle: the route table is meant to be built once before serving starts.
func (a *API) Register(template string, handler Handler, opts ...RouteOption) (*RouteEntry, error) {
	if _, exists := a.byTemplate[template]; exists {
		return nil, fmt.Errorf("%w: %q", ErrRouteExists, template)
	}

	cfg := routeConfig{methods: []string{http.MethodGet}}
	for _, opt := range opts {
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	if cfg.compression != "" && !compressionMethods[cfg.compression] {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedCompression, cfg.compression)
	}

	compiled, err := compileTemplate(template)
	if err != nil {
		return nil, err
	}

	entry := &RouteEntry{
		template:     template,
		compiled:     compiled,
		handler:      handler,
		methods:      cfg.methods,
		cors:         cfg.cors,
		token:        cfg.token,
		compression:  cfg.compression,
		binaryB64:    cfg.binaryB64,
		cacheControl: cfg.cacheControl,
		description:  cfg.description,
		tags:         cfg.tags,
	}

	a.routes = append(a.routes, entry)
	a.byTemplate[template] = entry

	return entry, nil
}

// MustRegister is like Register but panics on error. Registration errors
// are setup mistakes that must be fixed before serving starts, so an
// example or main package can use this directly.
func (a *API) MustRegister(template string, handler Handler, opts ...RouteOption) *RouteEntry {
	entry, err := a.Register(template, handler, opts...)
	if err != nil {
		panic(err)
	}
	return entry
}

// Routes returns the registered routes in registration order. The slice is
// a copy; entries themselves are immutable. This is the read-only surface
// the documentation exporter builds from.
func (a *API) Routes() []*RouteEntry {
	return append([]*RouteEntry(nil), a.routes...)
}

// Name returns the application name the API was created with.
func (a *API) Name() string { return a.name }

// resolve returns the first registered route whose compiled pattern fully
// matches path, or nil. Registration order is the tie-break for
// overlapping templates: first registered wins, so more specific templates
// must be registered before permissive ones.
func (a *API) resolve(path string) *RouteEntry {
	for _, route := range a.routes {
		if route.compiled.match(path) {
			return route
		}
	}
	return nil
}

// Handle dispatches one inbound event and returns the response envelope.
// It never returns an error and never panics: routing failures, auth
// failures and handler failures are all rendered as error envelopes, so
// the host adapter has nothing to catch.
func (a *API) Handle(ctx context.Context, event *Event) Envelope {
	if ctx == nil {
		ctx = context.Background()
	}

	headers := lowerHeaders(event.Headers)

	if a.debug {
		a.log.Debug("dispatching event",
			zap.String("path", event.Path),
			zap.String("method", event.HTTPMethod),
			zap.Any("headers", headers),
			zap.Any("queryStringParameters", event.QueryStringParameters),
			zap.Any("pathParameters", event.PathParameters),
		)
	}

	path := event.requestPath()
	if path == "" {
		return encodeError(NOK, "Missing or invalid path")
	}

	route := a.resolve(path)
	if route == nil {
		return encodeError(NOK, fmt.Sprintf("No view function for: %s", path))
	}

	query := make(map[string]string, len(event.QueryStringParameters))
	for k, v := range event.QueryStringParameters {
		query[k] = v
	}

	if route.token {
		token := query["access_token"]
		if !a.validToken(token) {
			return encodeMessage(Error, "Invalid access token")
		}
	}
	// The token never reaches handler arguments, valid or not.
	delete(query, "access_token")

	if !methodAllowed(route.methods, event.HTTPMethod) {
		return encodeError(NOK, fmt.Sprintf("Unsupported method: %s", event.HTTPMethod))
	}

	resp := a.invoke(ctx, route, event, path, query)

	return encodeResponse(resp, encodeOptions{
		cors:           route.cors,
		methods:        route.methods,
		acceptEncoding: headers["accept-encoding"],
		compression:    route.compression,
		binaryEncode:   route.binaryB64,
		cacheControl:   route.cacheControl,
	})
}

// invoke assembles handler arguments and runs the handler, converting any
// returned error or panic into the canonical ERROR response. The recover
// also covers argument extraction, whose conversion panics signal an
// internal invariant violation.
func (a *API) invoke(ctx context.Context, route *RouteEntry, event *Event, path string, query map[string]string) (resp Response) {
	defer func() {
		if rv := recover(); rv != nil {
			a.log.Error("handler panic",
				zap.String("template", route.template),
				zap.Any("panic", rv),
			)
			resp = errorResponse(fmt.Sprint(rv))
		}
	}()

	args, ok := route.compiled.extract(path)
	if !ok {
		// resolve matched moments ago against an immutable table.
		panic(fmt.Sprintf("proxy: route %q no longer matches %q", route.template, path))
	}

	for k, v := range query {
		args[k] = v
	}

	if event.HTTPMethod == http.MethodPost && event.Body != "" {
		body := []byte(event.Body)
		if event.IsBase64Encoded {
			decoded, err := base64.StdEncoding.DecodeString(event.Body)
			if err != nil {
				return errorResponse(fmt.Sprintf("invalid base64 body: %v", err))
			}
			body = decoded
		}
		args[bodyArg] = body
	}

	req := &Request{ctx: ctx, event: event, route: route, args: args}

	resp, err := route.handler(req)
	if err != nil {
		a.log.Error("handler error",
			zap.String("template", route.template),
			zap.Error(err),
		)
		return errorResponse(err.Error())
	}

	return resp
}

// validToken compares the supplied token against the shared secret. An
// absent secret rejects every request on token-protected routes.
func (a *API) validToken(token string) bool {
	secret := a.tokenSource()
	if token == "" || secret == "" {
		return false
	}
	return token == secret
}

// methodAllowed reports whether method is in the route's allowed set.
func methodAllowed(methods []string, method string) bool {
	for _, m := range methods {
		if m == method {
			return true
		}
	}
	return false
}

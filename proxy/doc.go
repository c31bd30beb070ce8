// Package proxy implements a request router for API Gateway style proxy
// events: inbound events are matched against registered path templates,
// dispatched to handler functions, and the results are rendered back into
// a normalized response envelope.
//
// # Routes
//
// Create an API and register handlers against path templates:
//
//	app := proxy.NewAPI("app")
//	app.MustRegister("/users/<int:id>", userHandler, proxy.WithCORS())
//
// Templates embed typed placeholders in literal path segments:
//
//	<name>             any word characters, passed through as a string
//	<string:name>      same match, declared string type
//	<int:name>         digits, cast to int
//	<float:name>       signed decimal, cast to float64
//	<uuid:name>        canonical lowercase UUID, kept as a string
//	<regex(expr):name> user-supplied pattern, kept as a string
//
// Matching is anchored: a template matches the full request path or not at
// all. Overlapping templates resolve by registration order, first
// registered wins, so register specific templates before permissive ones:
//
//	app.MustRegister("/test/<regex([0-9]{4}):number>", byNumber)
//	app.MustRegister("/test/<value>", byValue)
//
// # Handlers
//
// A handler receives a request-scoped *Request and returns a three-part
// response: symbolic status, content type and body. Path parameters carry
// their declared types, query parameters are strings and a POST body is
// bound under "body":
//
//	func userHandler(r *proxy.Request) (proxy.Response, error) {
//		return proxy.PlainText(proxy.OK, fmt.Sprintf("user %d", r.Int("id"))), nil
//	}
//
// Returned errors and panics are captured once per dispatch and rendered
// as a 500 envelope with a JSON {"errorMessage": ...} body; they never
// propagate to the host adapter.
//
// # Dispatch
//
// Handle processes one event synchronously, start to finish:
//
//	envelope := app.Handle(ctx, &proxy.Event{Path: "/users/42", HTTPMethod: "GET"})
//
// The route table is built before serving starts and is read-only during
// dispatch, so a populated API is safe for concurrent Handle calls without
// locking.
//
// # Response shaping
//
// Per-route options control the envelope: WithCORS adds cross-origin
// headers, WithCompression negotiates gzip, zlib or deflate against the
// client's accept-encoding header, WithBinaryEncoding base64-encodes
// binary bodies and flags the envelope, and WithCacheControl or
// WithCacheTTL sets the cache policy for 200 responses (anything else gets
// "no-cache").
//
// # Access token
//
// Routes registered with WithToken compare the access_token query
// parameter against a shared secret read from the TOKEN environment
// variable at validation time. A missing secret rejects every request on
// protected routes. The mismatch response is a 500 with a JSON
// {"message": "Invalid access token"} body.
package proxy

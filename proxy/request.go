package proxy

import "context"

// bodyArg is the reserved argument name under which a POST body is bound.
const bodyArg = "body"

// Handler processes one dispatched request. A returned error, like a
// panic, is captured by the dispatcher and rendered as an ERROR envelope;
// it never reaches the host adapter.
type Handler func(r *Request) (Response, error)

// Request is the request-scoped view a handler receives: the merged
// argument bag (typed path parameters, remaining query parameters and the
// optional body), the matched route and the raw event. A Request is built
// per dispatch and never shared between calls.
type Request struct {
	ctx   context.Context
	event *Event
	route *RouteEntry
	args  map[string]any
}

// Context returns the context of the dispatch call.
func (r *Request) Context() context.Context { return r.ctx }

// Event returns the raw inbound event.
func (r *Request) Event() *Event { return r.event }

// Route returns the matched route entry.
func (r *Request) Route() *RouteEntry { return r.route }

// Method returns the request method token.
func (r *Request) Method() string { return r.event.HTTPMethod }

// Path returns the effective request path the route was matched against.
func (r *Request) Path() string { return r.event.requestPath() }

// Args returns the full argument bag: path parameters under their
// declared types, query parameters as strings, and the body under "body".
func (r *Request) Args() map[string]any { return r.args }

// Arg returns a single argument and whether it is present.
func (r *Request) Arg(name string) (any, bool) {
	v, ok := r.args[name]
	return v, ok
}

// String returns a string argument, or "" when absent or not a string.
func (r *Request) String(name string) string {
	v, _ := r.args[name].(string)
	return v
}

// Int returns an int argument, or 0 when absent or not an int.
func (r *Request) Int(name string) int {
	v, _ := r.args[name].(int)
	return v
}

// Float returns a float64 argument, or 0 when absent or not a float64.
func (r *Request) Float(name string) float64 {
	v, _ := r.args[name].(float64)
	return v
}

// Body returns the decoded request body bound by the dispatcher, or nil
// when the request carried none.
func (r *Request) Body() []byte {
	v, _ := r.args[bodyArg].([]byte)
	return v
}

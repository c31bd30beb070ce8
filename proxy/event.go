package proxy

import "strings"

// Event is the inbound request envelope in the shape produced by an
// AWS API Gateway proxy integration. Field names follow the gateway's
// wire format so that an Event can be decoded straight from the raw
// invocation payload.
type Event struct {
	// Resource is the matched gateway resource template, e.g.
	// "/tiles/{proxy+}" for a greedy proxy integration.
	Resource string `json:"resource,omitempty"`

	// Path is the raw request path.
	Path string `json:"path"`

	// HTTPMethod is the request method token, e.g. "GET".
	HTTPMethod string `json:"httpMethod"`

	// Headers are the request headers. Key case is not significant;
	// the dispatcher normalizes keys to lowercase before use.
	Headers map[string]string `json:"headers,omitempty"`

	// QueryStringParameters are the single-valued query parameters.
	// May be nil when the request carries no query string.
	QueryStringParameters map[string]string `json:"queryStringParameters,omitempty"`

	// PathParameters are the gateway-extracted path parameters. Only the
	// greedy "proxy" parameter is consulted, to reconstruct the effective
	// request path for proxy integrations.
	PathParameters map[string]string `json:"pathParameters,omitempty"`

	// Body is the request payload, base64-encoded when IsBase64Encoded
	// is set.
	Body string `json:"body,omitempty"`

	// IsBase64Encoded marks Body as base64 text.
	IsBase64Encoded bool `json:"isBase64Encoded,omitempty"`

	// RequestContext carries deployment metadata.
	RequestContext *RequestContext `json:"requestContext,omitempty"`
}

// RequestContext is the slice of the gateway request context the router
// consumes: the deployment stage, which may prefix the request path.
type RequestContext struct {
	Stage string `json:"stage,omitempty"`
}

// Envelope is the outbound response in API Gateway proxy format.
type Envelope struct {
	StatusCode      int               `json:"statusCode"`
	Headers         map[string]string `json:"headers"`
	Body            string            `json:"body"`
	IsBase64Encoded bool              `json:"isBase64Encoded,omitempty"`
}

// lowerHeaders returns a copy of headers with lowercased keys. Gateway
// events carry headers with inconsistent casing depending on the
// integration type.
func lowerHeaders(headers map[string]string) map[string]string {
	if headers == nil {
		return nil
	}
	out := make(map[string]string, len(headers))
	for k, v := range headers {
		out[strings.ToLower(k)] = v
	}
	return out
}

// requestPath resolves the effective request path of an event. For greedy
// proxy integrations the gateway reports the resource template and the
// captured sub-path separately; the effective path is the template with
// the wildcard segment substituted back in. A deployment stage prefix is
// stripped when present.
func (e *Event) requestPath() string {
	path := e.Path

	if e.Resource != "" && strings.Contains(e.Resource, "{proxy+}") {
		if sub, ok := e.PathParameters["proxy"]; ok {
			path = strings.Replace(e.Resource, "{proxy+}", sub, 1)
		}
	}

	if e.RequestContext != nil && e.RequestContext.Stage != "" {
		prefix := "/" + e.RequestContext.Stage
		switch {
		case path == prefix:
			path = "/"
		case strings.HasPrefix(path, prefix+"/"):
			path = strings.TrimPrefix(path, prefix)
		}
	}

	return path
}

package proxy

import (
	"fmt"
	"strings"
)

// compressionMethods are the payload compression methods accepted at
// registration time.
var compressionMethods = map[string]bool{
	"gzip":    true,
	"zlib":    true,
	"deflate": true,
}

// RouteEntry is a registered route: a compiled path template plus handler
// metadata. Entries are immutable once registered; every accessor is
// read-only, which is what the documentation exporter consumes.
type RouteEntry struct {
	template     string
	compiled     *compiledTemplate
	handler      Handler
	methods      []string
	cors         bool
	token        bool
	compression  string
	binaryB64    bool
	cacheControl string
	description  string
	tags         []string
}

// Template returns the route's path template as registered.
func (r *RouteEntry) Template() string { return r.template }

// DocPath returns the documentation-facing path with {name} placeholders.
func (r *RouteEntry) DocPath() string { return r.compiled.docPath() }

// Methods returns the allowed HTTP methods.
func (r *RouteEntry) Methods() []string { return append([]string(nil), r.methods...) }

// CORS reports whether cross-origin headers are added to responses.
func (r *RouteEntry) CORS() bool { return r.cors }

// TokenRequired reports whether the route requires the shared-secret
// access token.
func (r *RouteEntry) TokenRequired() bool { return r.token }

// Compression returns the configured payload compression method, or "".
func (r *RouteEntry) Compression() string { return r.compression }

// BinaryEncode reports whether binary bodies are base64-encoded.
func (r *RouteEntry) BinaryEncode() bool { return r.binaryB64 }

// CacheControl returns the Cache-Control value applied to 200 responses,
// or "" when the route has no cache policy.
func (r *RouteEntry) CacheControl() string { return r.cacheControl }

// Description returns the route description, if any.
func (r *RouteEntry) Description() string { return r.description }

// Tags returns the route's documentation tags.
func (r *RouteEntry) Tags() []string { return append([]string(nil), r.tags...) }

// Params returns the route's parameter descriptors in template order.
func (r *RouteEntry) Params() []ParamDescriptor {
	return append([]ParamDescriptor(nil), r.compiled.params...)
}

// routeConfig collects registration options before validation.
type routeConfig struct {
	methods      []string
	cors         bool
	token        bool
	compression  string
	binaryB64    bool
	cacheControl string
	description  string
	tags         []string
}

// RouteOption configures a route at registration time.
type RouteOption func(*routeConfig) error

// WithMethods sets the allowed HTTP methods. Methods are uppercased; the
// default without this option is GET only.
func WithMethods(methods ...string) RouteOption {
	return func(cfg *routeConfig) error {
		cfg.methods = make([]string, len(methods))
		for i, m := range methods {
			cfg.methods[i] = strings.ToUpper(m)
		}
		return nil
	}
}

// WithCORS adds cross-origin response headers to the route.
func WithCORS() RouteOption {
	return func(cfg *routeConfig) error {
		cfg.cors = true
		return nil
	}
}

// WithToken requires the shared-secret access token on every request.
func WithToken() RouteOption {
	return func(cfg *routeConfig) error {
		cfg.token = true
		return nil
	}
}

// WithCompression sets the payload compression method: "gzip", "zlib" or
// "deflate". Anything else fails registration with
// ErrUnsupportedCompression.
func WithCompression(method string) RouteOption {
	return func(cfg *routeConfig) error {
		cfg.compression = method
		return nil
	}
}

// WithBinaryEncoding base64-encodes binary response bodies and flags the
// envelope accordingly, for transports that cannot carry raw bytes.
func WithBinaryEncoding() RouteOption {
	return func(cfg *routeConfig) error {
		cfg.binaryB64 = true
		return nil
	}
}

// WithCacheControl sets an explicit Cache-Control value for 200 responses.
// Non-200 responses on the route are forced to "no-cache".
func WithCacheControl(value string) RouteOption {
	return func(cfg *routeConfig) error {
		cfg.cacheControl = value
		return nil
	}
}

// WithCacheTTL sets the cache policy in the legacy numeric form,
// equivalent to WithCacheControl("max-age=<seconds>").
func WithCacheTTL(seconds int) RouteOption {
	return func(cfg *routeConfig) error {
		cfg.cacheControl = fmt.Sprintf("max-age=%d", seconds)
		return nil
	}
}

// WithDescription sets the route description used by the documentation
// exporter.
func WithDescription(text string) RouteOption {
	return func(cfg *routeConfig) error {
		cfg.description = text
		return nil
	}
}

// WithTags sets the route's documentation tags.
func WithTags(tags ...string) RouteOption {
	return func(cfg *routeConfig) error {
		cfg.tags = append([]string(nil), tags...)
		return nil
	}
}

// WithSetting applies a route setting by key, for configuration-driven
// registration. The schema is strict: an unrecognized key fails with
// ErrUnknownSetting, a recognized key with a value of the wrong type fails
// with a descriptive error.
//
// Recognized keys and value types:
//
//	methods                     []string
//	cors                        bool
//	token                       bool
//	payload_compression_method  string
//	binary_b64encode            bool
//	cache_control               string or int (seconds TTL)
//	description                 string
//	tag                         []string
func WithSetting(key string, value any) RouteOption {
	return func(cfg *routeConfig) error {
		switch key {
		case "methods":
			v, ok := value.([]string)
			if !ok {
				return settingTypeError(key, "[]string", value)
			}
			return WithMethods(v...)(cfg)
		case "cors":
			v, ok := value.(bool)
			if !ok {
				return settingTypeError(key, "bool", value)
			}
			cfg.cors = v
		case "token":
			v, ok := value.(bool)
			if !ok {
				return settingTypeError(key, "bool", value)
			}
			cfg.token = v
		case "payload_compression_method":
			v, ok := value.(string)
			if !ok {
				return settingTypeError(key, "string", value)
			}
			cfg.compression = v
		case "binary_b64encode":
			v, ok := value.(bool)
			if !ok {
				return settingTypeError(key, "bool", value)
			}
			cfg.binaryB64 = v
		case "cache_control":
			switch v := value.(type) {
			case string:
				cfg.cacheControl = v
			case int:
				cfg.cacheControl = fmt.Sprintf("max-age=%d", v)
			default:
				return settingTypeError(key, "string or int", value)
			}
		case "description":
			v, ok := value.(string)
			if !ok {
				return settingTypeError(key, "string", value)
			}
			cfg.description = v
		case "tag":
			v, ok := value.([]string)
			if !ok {
				return settingTypeError(key, "[]string", value)
			}
			cfg.tags = append([]string(nil), v...)
		default:
			return fmt.Errorf("%w: %q", ErrUnknownSetting, key)
		}
		return nil
	}
}

func settingTypeError(key, want string, got any) error {
	return fmt.Errorf("proxy: setting %q expects %s, got %T", key, want, got)
}

package proxy

import "errors"

// ErrRouteExists is returned by Register when the exact template string has
// already been registered. Template strings must be unique within one API.
var ErrRouteExists = errors.New("proxy: duplicate route template")

// ErrUnsupportedCompression is returned by Register when the payload
// compression method is not one of "gzip", "zlib" or "deflate".
var ErrUnsupportedCompression = errors.New("proxy: unsupported payload compression method")

// ErrUnknownSetting is returned by Register when WithSetting is given a key
// that is not part of the route configuration schema.
var ErrUnknownSetting = errors.New("proxy: unknown route setting")

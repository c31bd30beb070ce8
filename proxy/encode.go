package proxy

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"compress/zlib"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
)

// binaryTypes lists content types whose bodies are raw bytes regardless of
// how the handler produced them. Bodies of these types are eligible for
// base64 encoding on routes registered with binary encoding.
var binaryTypes = map[string]bool{
	"application/octet-stream": true,
	"application/x-tar":        true,
	"application/zip":          true,
	"image/png":                true,
	"image/jpeg":               true,
	"image/tiff":               true,
	"image/webp":               true,
}

// encodeOptions carries the route metadata and the client capability the
// encoder needs to shape the final envelope.
type encodeOptions struct {
	cors           bool
	methods        []string
	acceptEncoding string
	compression    string
	binaryEncode   bool
	cacheControl   string
}

// encodeResponse builds the outbound envelope from a handler response:
// status code mapping, CORS headers, negotiated compression, cache policy
// and base64 binary encoding, in that order. Compression runs before
// binary encoding so that compressed payloads can still be carried over a
// text-only transport.
func encodeResponse(resp Response, opts encodeOptions) Envelope {
	code := resp.StatusCode
	if code == 0 {
		mapped, ok := statusCodes[resp.Status]
		if !ok {
			// A handler returned a symbol outside the status map; treat it
			// like any other handler failure.
			return encodeError(Error, fmt.Sprintf("Unknown response status: %s", resp.Status))
		}
		code = mapped
	}

	headers := map[string]string{
		"Content-Type": resp.ContentType,
	}

	if opts.cors {
		headers["Access-Control-Allow-Origin"] = "*"
		headers["Access-Control-Allow-Methods"] = strings.Join(opts.methods, ",")
		headers["Access-Control-Allow-Credentials"] = "true"
	}

	body := resp.Body
	compressed := false

	if opts.compression != "" && strings.Contains(opts.acceptEncoding, opts.compression) {
		out, err := compressBody(opts.compression, body)
		if err != nil {
			// Unreachable with registration-time validation; kept as a
			// defensive path per the taxonomy of encoder failures.
			return encodeError(Error, fmt.Sprintf("Unsupported compression mode: %s", opts.compression))
		}
		body = out
		compressed = true
		headers["Content-Encoding"] = opts.compression
	}

	if opts.cacheControl != "" {
		if code == 200 {
			headers["Cache-Control"] = opts.cacheControl
		} else {
			headers["Cache-Control"] = "no-cache"
		}
	}

	env := Envelope{
		StatusCode: code,
		Headers:    headers,
	}

	if opts.binaryEncode && (binaryTypes[resp.ContentType] || resp.Binary || compressed) {
		env.Body = base64.StdEncoding.EncodeToString(body)
		env.IsBase64Encoded = true
	} else {
		env.Body = string(body)
	}

	return env
}

// compressBody applies the configured compressor at maximum compression:
// a gzip container, a zlib stream or raw deflate.
func compressBody(method string, body []byte) ([]byte, error) {
	var buf bytes.Buffer

	switch method {
	case "gzip":
		w, err := gzip.NewWriterLevel(&buf, gzip.BestCompression)
		if err != nil {
			return nil, err
		}
		if _, err := w.Write(body); err != nil {
			return nil, err
		}
		if err := w.Close(); err != nil {
			return nil, err
		}
	case "zlib":
		w, err := zlib.NewWriterLevel(&buf, zlib.BestCompression)
		if err != nil {
			return nil, err
		}
		if _, err := w.Write(body); err != nil {
			return nil, err
		}
		if err := w.Close(); err != nil {
			return nil, err
		}
	case "deflate":
		w, err := flate.NewWriter(&buf, flate.BestCompression)
		if err != nil {
			return nil, err
		}
		if _, err := w.Write(body); err != nil {
			return nil, err
		}
		if err := w.Close(); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("proxy: no compressor for %q", method)
	}

	return buf.Bytes(), nil
}

// encodeError renders a routing-stage failure: a JSON body with an
// errorMessage field, no route metadata applied.
func encodeError(status Status, message string) Envelope {
	return encodeJSON(status, map[string]string{"errorMessage": message})
}

// encodeMessage renders an auth-stage failure, which historically uses a
// "message" body field instead of "errorMessage".
func encodeMessage(status Status, message string) Envelope {
	return encodeJSON(status, map[string]string{"message": message})
}

func encodeJSON(status Status, payload map[string]string) Envelope {
	body, _ := json.Marshal(payload)
	return encodeResponse(
		Response{Status: status, ContentType: "application/json", Body: body},
		encodeOptions{},
	)
}

package proxy

import (
	"encoding/json"
	"fmt"
)

// Status is the symbolic response status returned by handlers. The encoder
// maps symbols to numeric HTTP codes; a literal code can be set on
// Response.StatusCode instead and passes through unchanged.
type Status string

const (
	OK       Status = "OK"
	Empty    Status = "EMPTY"
	NOK      Status = "NOK"
	Found    Status = "FOUND"
	NotFound Status = "NOT_FOUND"
	Conflict Status = "CONFLICT"
	Error    Status = "ERROR"
)

// statusCodes maps symbolic statuses to numeric HTTP codes.
var statusCodes = map[Status]int{
	OK:       200,
	Empty:    204,
	NOK:      400,
	Found:    302,
	NotFound: 404,
	Conflict: 409,
	Error:    500,
}

// Response is the three-part handler result: a status, a content type and
// a body. Binary marks the body as raw bytes rather than text, which makes
// it eligible for base64 encoding on routes registered with binary
// encoding.
type Response struct {
	Status      Status
	StatusCode  int
	ContentType string
	Body        []byte
	Binary      bool
}

// PlainText returns a text/plain response.
func PlainText(status Status, body string) Response {
	return Response{Status: status, ContentType: "text/plain", Body: []byte(body)}
}

// HTML returns a text/html response.
func HTML(status Status, body string) Response {
	return Response{Status: status, ContentType: "text/html", Body: []byte(body)}
}

// XML returns an application/xml response from pre-rendered markup.
func XML(status Status, body string) Response {
	return Response{Status: status, ContentType: "application/xml", Body: []byte(body)}
}

// JSON returns an application/json response with v marshaled as the body.
// A marshaling failure yields an ERROR response carrying the failure
// message, so a handler can return the result directly.
func JSON(status Status, v any) Response {
	body, err := json.Marshal(v)
	if err != nil {
		return errorResponse(fmt.Sprintf("response marshaling failed: %v", err))
	}
	return Response{Status: status, ContentType: "application/json", Body: body}
}

// Binary returns a response carrying raw bytes of the given content type.
func Binary(status Status, contentType string, data []byte) Response {
	return Response{Status: status, ContentType: contentType, Body: data, Binary: true}
}

// errorResponse builds the canonical handler-failure response body.
func errorResponse(message string) Response {
	body, _ := json.Marshal(map[string]string{"errorMessage": message})
	return Response{Status: Error, ContentType: "application/json", Body: body}
}

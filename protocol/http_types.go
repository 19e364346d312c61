package protocol

import (
	"fmt"
	"strings"
)

// HttpMethod represents HTTP request methods
type HttpMethod int

const (
	MethodGet HttpMethod = iota
	MethodPost
)

func (m HttpMethod) String() string {
	switch m {
	case MethodGet:
		return "GET"
	case MethodPost:
		return "POST"
	default:
		return fmt.Sprintf("HttpMethod(%d)", int(m))
	}
}

// parseMethod matches the method token case-exactly
func parseMethod(s string) (HttpMethod, bool) {
	switch s {
	case "GET":
		return MethodGet, true
	case "POST":
		return MethodPost, true
	}
	return 0, false
}

// HttpHeader represents an HTTP header key-value pair
type HttpHeader struct {
	Key   string
	Value string
}

// HttpHeaders is an ordered header sequence. Names keep the case they were
// received with and duplicates are preserved.
type HttpHeaders []HttpHeader

// Add appends a header, keeping any existing header with the same name
func (h *HttpHeaders) Add(key, value string) {
	*h = append(*h, HttpHeader{Key: key, Value: value})
}

// Get returns the value of the first header whose name equals key exactly
func (h HttpHeaders) Get(key string) (string, bool) {
	for _, header := range h {
		if header.Key == key {
			return header.Value, true
		}
	}
	return "", false
}

// GetFold returns the value of the first header whose name equals key
// ignoring ASCII case
func (h HttpHeaders) GetFold(key string) (string, bool) {
	for _, header := range h {
		if strings.EqualFold(header.Key, key) {
			return header.Value, true
		}
	}
	return "", false
}

// HttpStatus is the status of a server response
type HttpStatus int

const (
	StatusOK HttpStatus = iota
	StatusCreated
	StatusNotFound
)

// Code returns the numeric status code
func (s HttpStatus) Code() int {
	switch s {
	case StatusOK:
		return 200
	case StatusCreated:
		return 201
	case StatusNotFound:
		return 404
	default:
		return 500
	}
}

// Reason returns the reason phrase sent on the status line
func (s HttpStatus) Reason() string {
	switch s {
	case StatusOK:
		return "OK"
	case StatusCreated:
		return "Created"
	case StatusNotFound:
		return "Not Found"
	default:
		return "Internal Server Error"
	}
}

func (s HttpStatus) String() string {
	return fmt.Sprintf("%d %s", s.Code(), s.Reason())
}

// HttpRequest represents an HTTP request. Body is nil unless the request
// carried a positive Content-Length.
type HttpRequest struct {
	Method  HttpMethod
	Path    string
	Version string
	Headers HttpHeaders
	Body    []byte
}

// WantsClose reports whether the request asked for the connection to be
// closed after its response. Both the header name and the value must match
// exactly.
func (r *HttpRequest) WantsClose() bool {
	value, ok := r.Headers.Get("Connection")
	return ok && value == "close"
}

// HttpResponse is a response produced by the server. A non-nil Body must be
// accompanied by a Content-Length header set by whoever built the response.
type HttpResponse struct {
	Status  HttpStatus
	Headers HttpHeaders
	Body    []byte
}

// Bytes serializes the response to wire format
func (r *HttpResponse) Bytes() []byte {
	return BuildResponse(r.Status, r.Headers, r.Body)
}

// ParsedResponse is a response read back by the client
type ParsedResponse struct {
	StatusCode    int
	StatusMessage string
	Headers       HttpHeaders
	Body          []byte
	ContentLength int
}

package client

import (
	"github.com/nczempin/httpd-go-uring/errors"
	"github.com/nczempin/httpd-go-uring/protocol"
	"github.com/nczempin/httpd-go-uring/transport"
)

// HttpClient sends requests over one keep-alive connection and reads the
// Content-Length framed responses the server produces
type HttpClient struct {
	transport transport.Transport
	reader    *protocol.ResponseReader
}

// NewHttpClient creates a client that owns t
func NewHttpClient(t transport.Transport) *HttpClient {
	return &HttpClient{
		transport: t,
		reader:    protocol.NewResponseReader(t),
	}
}

// Close closes the connection
func (c *HttpClient) Close() error {
	return c.transport.Close()
}

// Get performs a GET request
func (c *HttpClient) Get(req *protocol.HttpRequest) (*protocol.ParsedResponse, error) {
	if len(req.Body) > 0 {
		return nil, errors.NewInvalidArgumentError("GET request cannot have a body")
	}
	req.Method = protocol.MethodGet
	return c.Do(req)
}

// Post performs a POST request
func (c *HttpClient) Post(req *protocol.HttpRequest) (*protocol.ParsedResponse, error) {
	if err := c.validatePostRequest(req); err != nil {
		return nil, err
	}
	req.Method = protocol.MethodPost
	return c.Do(req)
}

// Do writes req as is and reads one response
func (c *HttpClient) Do(req *protocol.HttpRequest) (*protocol.ParsedResponse, error) {
	if _, err := c.transport.Write(protocol.BuildRequest(req)); err != nil {
		return nil, err
	}
	return c.reader.ReadResponse()
}

// validatePostRequest validates that a POST request has required fields
func (c *HttpClient) validatePostRequest(req *protocol.HttpRequest) error {
	if len(req.Body) == 0 {
		return errors.NewInvalidArgumentError("POST request must have a body")
	}

	if _, ok := req.Headers.GetFold("Content-Length"); !ok {
		return errors.NewInvalidArgumentError("POST request must have Content-Length header")
	}

	return nil
}

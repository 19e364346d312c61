// Package router maps parsed requests to responses.
package router

import (
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/nczempin/httpd-go-uring/compression"
	"github.com/nczempin/httpd-go-uring/protocol"
)

const filesPrefix = "/files/"

// FileServer serves requests under /files/. name is the path with the
// prefix removed.
type FileServer interface {
	Serve(req *protocol.HttpRequest, name string) *protocol.HttpResponse
}

// Router dispatches requests. It keeps no per-request state and is safe to
// share between connections.
type Router struct {
	files  FileServer
	logger zerolog.Logger
}

// New creates a router that delegates /files/ to files
func New(files FileServer, logger zerolog.Logger) *Router {
	return &Router{
		files:  files,
		logger: logger.With().Str("component", "router").Logger(),
	}
}

// Route produces the response for req. It never fails: handler problems are
// answered with a well-formed response.
func (rt *Router) Route(req *protocol.HttpRequest) *protocol.HttpResponse {
	path := req.Path

	switch {
	case path == "/":
		return &protocol.HttpResponse{Status: protocol.StatusOK}
	case strings.HasPrefix(path, "/echo"):
		return rt.echo(req)
	case strings.HasPrefix(path, filesPrefix):
		return rt.files.Serve(req, path[len(filesPrefix):])
	case path == "/user-agent":
		return rt.userAgent(req)
	default:
		return notFound()
	}
}

func (rt *Router) echo(req *protocol.HttpRequest) *protocol.HttpResponse {
	parts := strings.Split(req.Path, "/")
	if len(parts) != 3 {
		return notFound()
	}

	content := []byte(parts[2])
	if req.Body != nil {
		content = req.Body
	}

	headers := protocol.HttpHeaders{{Key: "Content-Type", Value: "text/plain"}}
	body, encoding := rt.encode(req, content)
	if encoding != "" {
		headers.Add("Content-Encoding", encoding)
	}
	return textResponse(req, headers, body)
}

// userAgent reflects the User-Agent header. A missing header is answered
// with an empty body.
func (rt *Router) userAgent(req *protocol.HttpRequest) *protocol.HttpResponse {
	value, _ := req.Headers.Get("User-Agent")
	headers := protocol.HttpHeaders{{Key: "Content-Type", Value: "text/plain"}}
	return textResponse(req, headers, []byte(value))
}

// encode compresses content with the negotiated encoding. An encoder error
// falls back to the identity encoding.
func (rt *Router) encode(req *protocol.HttpRequest, content []byte) ([]byte, string) {
	name, ok := Negotiate(req)
	if !ok {
		return content, ""
	}

	enc, _ := compression.Lookup(name)
	encoded, err := enc(content)
	if err != nil {
		rt.logger.Warn().Err(err).Str("encoding", name).Msg("compression failed, sending identity")
		return content, ""
	}
	return encoded, name
}

// textResponse finishes a 200 response: Content-Length of the final body,
// then Connection: close when the client asked for it
func textResponse(req *protocol.HttpRequest, headers protocol.HttpHeaders, body []byte) *protocol.HttpResponse {
	headers.Add("Content-Length", strconv.Itoa(len(body)))
	if req.WantsClose() {
		headers.Add("Connection", "close")
	}
	return &protocol.HttpResponse{
		Status:  protocol.StatusOK,
		Headers: headers,
		Body:    body,
	}
}

func notFound() *protocol.HttpResponse {
	return &protocol.HttpResponse{Status: protocol.StatusNotFound}
}

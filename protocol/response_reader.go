package protocol

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	httperrors "github.com/nczempin/httpd-go-uring/errors"
)

// ResponseReader reads Content-Length framed responses, as sent by the server
type ResponseReader struct {
	baseReader
}

// NewResponseReader creates a reader, reusing r when it is already buffered
func NewResponseReader(r io.Reader) *ResponseReader {
	return &ResponseReader{newBaseReader(r)}
}

// ReadResponse reads one response. A response without Content-Length has no
// body.
func (r *ResponseReader) ReadResponse() (*ParsedResponse, error) {
	line, err := r.readLine()
	if err != nil {
		if isEOF(err) {
			return nil, httperrors.NewProtocolError(
				httperrors.ProtocolErrorIncompleteResponse,
				"connection closed before status line",
			)
		}
		return nil, err
	}

	res, err := parseStatusLine(line)
	if err != nil {
		return nil, err
	}

	if res.Headers, err = r.readHeaders(httperrors.ProtocolErrorIncompleteResponse); err != nil {
		return nil, err
	}

	n, err := contentLength(res.Headers)
	if err != nil {
		return nil, err
	}
	res.ContentLength = n
	if n == 0 {
		return res, nil
	}

	if res.Body, err = r.readBody(n, httperrors.ProtocolErrorIncompleteResponse); err != nil {
		return nil, err
	}
	return res, nil
}

// parseStatusLine parses "HTTP/1.1 200 OK"
func parseStatusLine(line string) (*ParsedResponse, error) {
	parts := strings.SplitN(line, " ", 3)
	if len(parts) < 2 || !strings.HasPrefix(parts[0], "HTTP/") {
		return nil, httperrors.NewProtocolError(
			httperrors.ProtocolErrorInvalidStatusLine,
			"invalid status line format",
		)
	}

	statusCode, err := strconv.Atoi(parts[1])
	if err != nil || statusCode < 100 || statusCode > 599 {
		return nil, httperrors.NewProtocolError(
			httperrors.ProtocolErrorInvalidStatusLine,
			fmt.Sprintf("invalid status code: %s", parts[1]),
		)
	}

	statusMessage := ""
	if len(parts) == 3 {
		statusMessage = parts[2]
	}

	return &ParsedResponse{
		StatusCode:    statusCode,
		StatusMessage: statusMessage,
	}, nil
}

package protocol

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	httperrors "github.com/nczempin/httpd-go-uring/errors"
)

const (
	// MaxLineLength bounds the request line and every header line
	MaxLineLength = 8 << 10
	// MaxHeaders bounds the number of header lines in one message
	MaxHeaders = 100
	// MaxBodyLength bounds the Content-Length accepted from a peer
	MaxBodyLength = 32 << 20
)

// baseReader holds the line and header parsing shared by requests and
// responses
type baseReader struct {
	r *bufio.Reader
}

func newBaseReader(r io.Reader) baseReader {
	if br, ok := r.(*bufio.Reader); ok {
		return baseReader{r: br}
	}
	return baseReader{r: bufio.NewReader(r)}
}

// readLine reads one line terminated by LF, with an optional CR before it.
// On error the bytes read so far are returned with it.
func (r *baseReader) readLine() (string, error) {
	var line []byte
	for {
		chunk, err := r.r.ReadSlice('\n')
		line = append(line, chunk...)
		if len(line) > MaxLineLength {
			return "", httperrors.NewProtocolError(
				httperrors.ProtocolErrorMessageTooLarge,
				fmt.Sprintf("line exceeds %d bytes", MaxLineLength),
			)
		}
		if err == bufio.ErrBufferFull {
			continue
		}
		if err != nil {
			return string(line), err
		}
		break
	}

	line = line[:len(line)-1]
	if n := len(line); n > 0 && line[n-1] == '\r' {
		line = line[:n-1]
	}
	return string(line), nil
}

// readHeaders reads header lines up to and including the empty line. Lines
// without a colon are skipped.
func (r *baseReader) readHeaders(incomplete httperrors.ProtocolError) (HttpHeaders, error) {
	var headers HttpHeaders
	lines := 0
	for {
		line, err := r.readLine()
		if err != nil {
			if isEOF(err) {
				return nil, httperrors.NewProtocolError(incomplete, "connection closed inside headers")
			}
			return nil, err
		}
		if len(line) == 0 {
			return headers, nil
		}

		// The terminating empty line does not count
		if lines++; lines > MaxHeaders {
			return nil, httperrors.NewProtocolError(
				httperrors.ProtocolErrorMessageTooLarge,
				fmt.Sprintf("more than %d header lines", MaxHeaders),
			)
		}

		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		headers.Add(strings.TrimSpace(key), strings.TrimSpace(value))
	}
}

// readBody reads exactly n bytes
func (r *baseReader) readBody(n int, incomplete httperrors.ProtocolError) ([]byte, error) {
	body := make([]byte, n)
	if _, err := io.ReadFull(r.r, body); err != nil {
		if isEOF(err) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, httperrors.NewProtocolError(
				incomplete,
				fmt.Sprintf("connection closed inside %d byte body", n),
			)
		}
		return nil, err
	}
	return body, nil
}

// contentLength returns the declared body length, 0 when the header is absent
func contentLength(headers HttpHeaders) (int, error) {
	value, ok := headers.GetFold("Content-Length")
	if !ok {
		return 0, nil
	}
	n, err := strconv.ParseUint(value, 10, 63)
	if err != nil {
		return 0, httperrors.NewProtocolError(
			httperrors.ProtocolErrorMalformedContentLength,
			fmt.Sprintf("invalid Content-Length %q", value),
		)
	}
	if n > MaxBodyLength {
		return 0, httperrors.NewProtocolError(
			httperrors.ProtocolErrorMessageTooLarge,
			fmt.Sprintf("Content-Length %d exceeds %d", n, MaxBodyLength),
		)
	}
	return int(n), nil
}

func isEOF(err error) bool {
	return errors.Is(err, io.EOF) || httperrors.IsConnectionClosed(err)
}

// RequestReader parses HTTP/1.1 requests from a byte stream. A single reader
// is reused for every request on a keep-alive connection so that buffered
// bytes are never lost between requests.
type RequestReader struct {
	baseReader
}

// NewRequestReader creates a reader, reusing r when it is already buffered
func NewRequestReader(r io.Reader) *RequestReader {
	return &RequestReader{newBaseReader(r)}
}

// ReadRequest parses the next request. It returns io.EOF, unwrapped, when the
// peer closed the stream before sending any byte of a new request.
func (r *RequestReader) ReadRequest() (*HttpRequest, error) {
	line, err := r.readLine()
	if err != nil {
		if isEOF(err) {
			if line == "" {
				return nil, io.EOF
			}
			return nil, httperrors.NewProtocolError(
				httperrors.ProtocolErrorIncompleteRequest,
				"connection closed inside request line",
			)
		}
		return nil, err
	}

	req, err := parseRequestLine(line)
	if err != nil {
		return nil, err
	}

	if req.Headers, err = r.readHeaders(httperrors.ProtocolErrorIncompleteRequest); err != nil {
		return nil, err
	}

	n, err := contentLength(req.Headers)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return req, nil
	}

	body, err := r.readBody(n, httperrors.ProtocolErrorIncompleteRequest)
	if err != nil {
		return nil, err
	}
	if !utf8.Valid(body) {
		return nil, httperrors.NewProtocolError(
			httperrors.ProtocolErrorInvalidBodyEncoding,
			"request body is not valid UTF-8",
		)
	}
	req.Body = body
	return req, nil
}

func parseRequestLine(line string) (*HttpRequest, error) {
	fields := strings.Fields(line)
	if len(fields) != 3 {
		return nil, httperrors.NewProtocolError(
			httperrors.ProtocolErrorMalformedRequestLine,
			fmt.Sprintf("expected 3 fields, got %d", len(fields)),
		)
	}

	method, ok := parseMethod(fields[0])
	if !ok {
		return nil, httperrors.NewProtocolError(
			httperrors.ProtocolErrorUnsupportedMethod,
			fmt.Sprintf("unsupported method %q", fields[0]),
		)
	}

	return &HttpRequest{
		Method:  method,
		Path:    fields[1],
		Version: fields[2],
	}, nil
}

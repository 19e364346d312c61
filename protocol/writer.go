package protocol

import (
	"strconv"
)

// BuildResponse serializes a status line, the headers in the order given, a
// blank line and the raw body. It does not add or check Content-Length.
func BuildResponse(status HttpStatus, headers HttpHeaders, body []byte) []byte {
	size := len("HTTP/1.1 000 \r\n\r\n") + len(status.Reason()) + len(body)
	for _, header := range headers {
		size += len(header.Key) + len(header.Value) + 4
	}

	buf := make([]byte, 0, size)

	// Status line
	buf = append(buf, "HTTP/1.1 "...)
	buf = strconv.AppendInt(buf, int64(status.Code()), 10)
	buf = append(buf, ' ')
	buf = append(buf, status.Reason()...)
	buf = append(buf, "\r\n"...)

	// Headers
	buf = appendHeaders(buf, headers)

	// Blank line
	buf = append(buf, "\r\n"...)

	return append(buf, body...)
}

// BuildRequest formats a request the way the client sends it
func BuildRequest(req *HttpRequest) []byte {
	version := req.Version
	if version == "" {
		version = "HTTP/1.1"
	}

	buf := make([]byte, 0, 256+len(req.Body))
	buf = append(buf, req.Method.String()...)
	buf = append(buf, ' ')
	buf = append(buf, req.Path...)
	buf = append(buf, ' ')
	buf = append(buf, version...)
	buf = append(buf, "\r\n"...)
	buf = appendHeaders(buf, req.Headers)
	buf = append(buf, "\r\n"...)
	return append(buf, req.Body...)
}

func appendHeaders(buf []byte, headers HttpHeaders) []byte {
	for _, header := range headers {
		buf = append(buf, header.Key...)
		buf = append(buf, ": "...)
		buf = append(buf, header.Value...)
		buf = append(buf, "\r\n"...)
	}
	return buf
}

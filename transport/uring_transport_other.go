//go:build !linux

package transport

import (
	"net"

	httperrors "github.com/nczempin/httpd-go-uring/errors"
)

// UringTransport is only available on Linux
type UringTransport struct {
	connTransport
}

// UringTransportV2 is only available on Linux
type UringTransportV2 struct {
	connTransport
}

func errNoUring(conn net.Conn) error {
	conn.Close()
	return httperrors.NewTransportError(
		httperrors.TransportErrorIoUringInit,
		"io_uring requires linux",
		nil,
	)
}

// NewUringTransport always fails outside Linux
func NewUringTransport(conn net.Conn) (*UringTransport, error) {
	return nil, errNoUring(conn)
}

// NewUringTransportV2 always fails outside Linux
func NewUringTransportV2(conn net.Conn) (*UringTransportV2, error) {
	return nil, errNoUring(conn)
}

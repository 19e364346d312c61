package transport

import (
	"fmt"
	"net"

	httperrors "github.com/nczempin/httpd-go-uring/errors"
)

// Transport is the byte stream of one connection. Implementations include
// plain TCP and Unix sockets and two io_uring backed TCP transports.
type Transport interface {
	// Write sends data to the peer.
	// Returns the number of bytes written or an error.
	Write(buf []byte) (int, error)

	// Read receives data from the peer.
	// A peer that closed the stream yields a ConnectionClosed transport error.
	Read(buf []byte) (int, error)

	// Close closes the connection. Closing twice is not an error.
	Close() error

	// RemoteAddr describes the peer for logging.
	RemoteAddr() string
}

// Kind selects how accepted connections are driven
type Kind string

const (
	KindNet     Kind = "net"
	KindUring   Kind = "uring"
	KindUringV2 Kind = "uring-v2"
)

// ParseKind validates a transport name
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindNet, KindUring, KindUringV2:
		return k, nil
	}
	return "", httperrors.NewInvalidArgumentError(fmt.Sprintf("unknown transport %q", s))
}

// Wrap takes ownership of an accepted connection and returns the transport
// that serves it. io_uring kinds require a TCP connection.
func Wrap(kind Kind, conn net.Conn) (Transport, error) {
	switch kind {
	case KindUring:
		t, err := NewUringTransport(conn)
		if err != nil {
			return nil, err
		}
		return t, nil
	case KindUringV2:
		t, err := NewUringTransportV2(conn)
		if err != nil {
			return nil, err
		}
		return t, nil
	}

	switch c := conn.(type) {
	case *net.TCPConn:
		t, err := NewTcpTransport(c)
		if err != nil {
			return nil, err
		}
		return t, nil
	case *net.UnixConn:
		return NewUnixTransport(c), nil
	default:
		return &connTransport{conn: c}, nil
	}
}

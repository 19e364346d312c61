package transport

import (
	"errors"
	"fmt"
	"io"
	"net"
	"syscall"

	httperrors "github.com/nczempin/httpd-go-uring/errors"
)

// TcpTransport implements the Transport interface using TCP sockets
type TcpTransport struct {
	connTransport
}

// NewTcpTransport wraps an accepted TCP connection
func NewTcpTransport(conn *net.TCPConn) (*TcpTransport, error) {
	// Set TCP_NODELAY to disable Nagle's algorithm for lower latency
	if err := conn.SetNoDelay(true); err != nil {
		conn.Close()
		return nil, httperrors.NewTransportError(httperrors.TransportErrorSocketCreateFailure, "failed to set TCP_NODELAY", err)
	}
	return &TcpTransport{connTransport{conn: conn}}, nil
}

// DialTcp establishes a TCP connection to the specified host and port
func DialTcp(host string, port uint16) (*TcpTransport, error) {
	addr := net.JoinHostPort(host, fmt.Sprint(port))

	conn, err := net.Dial("tcp", addr)
	if err != nil {
		// Classify network errors using type assertions
		if opErr, ok := err.(*net.OpError); ok && opErr.Op == "dial" {
			// Check for DNS resolution failures
			if dnsErr, ok := opErr.Err.(*net.DNSError); ok {
				if dnsErr.IsNotFound || dnsErr.IsTemporary {
					return nil, httperrors.NewTransportError(httperrors.TransportErrorDnsFailure, addr, err)
				}
			}
		}
		return nil, httperrors.NewTransportError(httperrors.TransportErrorSocketConnectFailure, addr, err)
	}

	return NewTcpTransport(conn.(*net.TCPConn))
}

// connTransport adapts any net.Conn, classifying its errors
type connTransport struct {
	conn net.Conn
}

// Write sends data over the connection
func (t *connTransport) Write(buf []byte) (int, error) {
	if t.conn == nil {
		return 0, httperrors.NewTransportError(httperrors.TransportErrorSocketWriteFailure, "not connected", nil)
	}

	n, err := t.conn.Write(buf)
	if err != nil {
		// Check for broken pipe or connection reset
		if errors.Is(err, syscall.EPIPE) || errors.Is(err, syscall.ECONNRESET) || errors.Is(err, io.ErrClosedPipe) {
			return n, httperrors.NewTransportError(httperrors.TransportErrorConnectionClosed, "write", err)
		}
		return n, httperrors.NewTransportError(httperrors.TransportErrorSocketWriteFailure, "write", err)
	}

	return n, nil
}

// Read receives data from the connection
func (t *connTransport) Read(buf []byte) (int, error) {
	if t.conn == nil {
		return 0, httperrors.NewTransportError(httperrors.TransportErrorSocketReadFailure, "not connected", nil)
	}

	n, err := t.conn.Read(buf)
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, syscall.ECONNRESET) || errors.Is(err, io.ErrClosedPipe) {
			return n, httperrors.NewTransportError(httperrors.TransportErrorConnectionClosed, "read", err)
		}
		return n, httperrors.NewTransportError(httperrors.TransportErrorSocketReadFailure, "read", err)
	}

	return n, nil
}

// Close closes the connection
func (t *connTransport) Close() error {
	if t.conn == nil {
		return nil // Idempotent close
	}

	err := t.conn.Close()
	t.conn = nil

	if err != nil {
		return httperrors.NewTransportError(httperrors.TransportErrorConnectionClosed, "failed to close socket", err)
	}

	return nil
}

// RemoteAddr describes the peer
func (t *connTransport) RemoteAddr() string {
	if t.conn == nil || t.conn.RemoteAddr() == nil {
		return ""
	}
	return t.conn.RemoteAddr().String()
}

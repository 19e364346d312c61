package transport

import (
	"net"

	httperrors "github.com/nczempin/httpd-go-uring/errors"
)

// UnixTransport implements the Transport interface using Unix domain sockets
type UnixTransport struct {
	connTransport
}

// NewUnixTransport wraps an accepted Unix domain socket connection
func NewUnixTransport(conn *net.UnixConn) *UnixTransport {
	return &UnixTransport{connTransport{conn: conn}}
}

// DialUnix connects to the Unix domain socket at path
func DialUnix(path string) (*UnixTransport, error) {
	conn, err := net.Dial("unix", path)
	if err != nil {
		return nil, httperrors.NewTransportError(httperrors.TransportErrorSocketConnectFailure, path, err)
	}
	return NewUnixTransport(conn.(*net.UnixConn)), nil
}

// RemoteAddr describes the peer. Accepted Unix sockets usually have an
// unnamed peer, so the local socket path is reported instead.
func (t *UnixTransport) RemoteAddr() string {
	if addr := t.connTransport.RemoteAddr(); addr != "" {
		return addr
	}
	if t.conn == nil {
		return ""
	}
	return "unix:" + t.conn.LocalAddr().String()
}

package transport

import (
	"errors"
	"net"
	"os"
	"syscall"

	"github.com/iceber/iouring-go"

	httperrors "github.com/nczempin/httpd-go-uring/errors"
)

// uringQueueDepth is the submission queue size of each per-connection ring
const uringQueueDepth = 32

// UringTransport implements Transport using io_uring read and write
// operations on the socket descriptor
type UringTransport struct {
	iour   *iouring.IOURing
	file   *os.File
	fd     int
	remote string
	closed bool
}

// NewUringTransport takes over an accepted TCP connection and serves it
// through its own io_uring instance
func NewUringTransport(conn net.Conn) (*UringTransport, error) {
	file, remote, err := detachSocket(conn)
	if err != nil {
		return nil, err
	}

	// Create io_uring instance with queue depth of 32
	iour, err := iouring.New(uringQueueDepth)
	if err != nil {
		file.Close()
		return nil, httperrors.NewTransportError(
			httperrors.TransportErrorIoUringInit,
			"failed to initialize io_uring",
			err,
		)
	}

	return &UringTransport{
		iour:   iour,
		file:   file,
		fd:     int(file.Fd()),
		remote: remote,
	}, nil
}

// detachSocket moves an accepted TCP connection out of the Go netpoller into
// a blocking file descriptor owned by the caller
func detachSocket(conn net.Conn) (*os.File, string, error) {
	tcpConn, ok := conn.(*net.TCPConn)
	if !ok {
		conn.Close()
		return nil, "", httperrors.NewTransportError(
			httperrors.TransportErrorSocketCreateFailure,
			"io_uring transport requires a TCP connection",
			nil,
		)
	}

	remote := tcpConn.RemoteAddr().String()

	// Set TCP_NODELAY
	if err := tcpConn.SetNoDelay(true); err != nil {
		tcpConn.Close()
		return nil, "", httperrors.NewTransportError(
			httperrors.TransportErrorSocketCreateFailure,
			"failed to set TCP_NODELAY",
			err,
		)
	}

	// File returns a duplicate descriptor, the original is no longer needed
	file, err := tcpConn.File()
	tcpConn.Close()
	if err != nil {
		return nil, "", httperrors.NewTransportError(
			httperrors.TransportErrorSocketCreateFailure,
			"failed to detach socket",
			err,
		)
	}

	if err := syscall.SetNonblock(int(file.Fd()), false); err != nil {
		file.Close()
		return nil, "", httperrors.NewTransportError(
			httperrors.TransportErrorSocketCreateFailure,
			"failed to set blocking mode",
			err,
		)
	}

	return file, remote, nil
}

// Write sends data over the connection using io_uring
func (t *UringTransport) Write(buf []byte) (int, error) {
	if t.closed {
		return 0, httperrors.NewTransportError(
			httperrors.TransportErrorConnectionClosed,
			"connection closed",
			nil,
		)
	}

	totalWritten := 0
	for totalWritten < len(buf) {
		ch := make(chan iouring.Result, 1)
		// Write and Read attach the fd resolver that ReturnInt relies on,
		// Send and Recv do not
		prepReq := iouring.Write(t.fd, buf[totalWritten:])
		if _, err := t.iour.SubmitRequest(prepReq, ch); err != nil {
			return totalWritten, httperrors.NewTransportError(
				httperrors.TransportErrorIoUringSubmit,
				"failed to submit write request",
				err,
			)
		}

		result := <-ch
		n, err := result.ReturnInt()
		if err != nil {
			return totalWritten, classifyUringError(httperrors.TransportErrorSocketWriteFailure, "write failed", err)
		}

		if n <= 0 {
			return totalWritten, httperrors.NewTransportError(
				httperrors.TransportErrorConnectionClosed,
				"connection closed during write",
				nil,
			)
		}

		totalWritten += n
	}

	return totalWritten, nil
}

// Read receives data from the connection using io_uring
func (t *UringTransport) Read(buf []byte) (int, error) {
	if t.closed {
		return 0, httperrors.NewTransportError(
			httperrors.TransportErrorConnectionClosed,
			"connection closed",
			nil,
		)
	}

	ch := make(chan iouring.Result, 1)
	prepReq := iouring.Read(t.fd, buf)
	if _, err := t.iour.SubmitRequest(prepReq, ch); err != nil {
		return 0, httperrors.NewTransportError(
			httperrors.TransportErrorIoUringSubmit,
			"failed to submit read request",
			err,
		)
	}

	result := <-ch
	n, err := result.ReturnInt()
	if err != nil {
		return 0, classifyUringError(httperrors.TransportErrorSocketReadFailure, "read failed", err)
	}

	if n == 0 && len(buf) > 0 {
		return 0, httperrors.NewTransportError(
			httperrors.TransportErrorConnectionClosed,
			"connection closed by peer",
			nil,
		)
	}

	return n, nil
}

// Close closes the socket and releases the io_uring instance
func (t *UringTransport) Close() error {
	if t.closed {
		return nil
	}
	t.closed = true

	err := t.file.Close()
	t.iour.Close()
	if err != nil {
		return httperrors.NewTransportError(
			httperrors.TransportErrorConnectionClosed,
			"failed to close socket",
			err,
		)
	}
	return nil
}

// RemoteAddr describes the peer
func (t *UringTransport) RemoteAddr() string {
	return t.remote
}

// classifyUringError maps a failed completion to a transport error
func classifyUringError(fallback httperrors.TransportError, message string, err error) *httperrors.HttpError {
	if errors.Is(err, syscall.EPIPE) || errors.Is(err, syscall.ECONNRESET) {
		return httperrors.NewTransportError(httperrors.TransportErrorConnectionClosed, message, err)
	}
	return httperrors.NewTransportError(fallback, message, err)
}

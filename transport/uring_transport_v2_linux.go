package transport

import (
	"errors"
	"net"
	"os"
	"syscall"

	"github.com/godzie44/go-uring/uring"

	httperrors "github.com/nczempin/httpd-go-uring/errors"
)

// UringTransportV2 implements Transport using godzie44/go-uring. The ring is
// driven synchronously: one SQE is queued, submitted and reaped per call.
type UringTransportV2 struct {
	ring   *uring.Ring
	file   *os.File
	remote string
}

// NewUringTransportV2 takes over an accepted TCP connection
func NewUringTransportV2(conn net.Conn) (*UringTransportV2, error) {
	file, remote, err := detachSocket(conn)
	if err != nil {
		return nil, err
	}

	ring, err := uring.New(uringQueueDepth)
	if err != nil {
		file.Close()
		return nil, httperrors.NewTransportError(
			httperrors.TransportErrorIoUringInit,
			"failed to initialize io_uring",
			err,
		)
	}

	return &UringTransportV2{
		ring:   ring,
		file:   file,
		remote: remote,
	}, nil
}

// complete queues one operation, submits it and waits for its result
func (t *UringTransportV2) complete(queue func() error, fallback httperrors.TransportError, op string) (int, error) {
	if err := queue(); err != nil {
		return 0, httperrors.NewTransportError(
			httperrors.TransportErrorIoUringSubmit,
			"failed to queue "+op+" request",
			err,
		)
	}

	// Submit and wait
	if _, err := t.ring.Submit(); err != nil {
		return 0, httperrors.NewTransportError(
			httperrors.TransportErrorIoUringSubmit,
			"failed to submit "+op+" request",
			err,
		)
	}

	cqe, err := t.ring.WaitCQEvents(1)
	if err != nil {
		return 0, httperrors.NewTransportError(
			fallback,
			"failed to wait for "+op+" completion",
			err,
		)
	}

	if err := cqe.Error(); err != nil {
		t.ring.SeenCQE(cqe)
		if errors.Is(err, syscall.EPIPE) || errors.Is(err, syscall.ECONNRESET) {
			return 0, httperrors.NewTransportError(httperrors.TransportErrorConnectionClosed, op, err)
		}
		return 0, httperrors.NewTransportError(fallback, op+" operation failed", err)
	}

	n := int(cqe.Res)
	t.ring.SeenCQE(cqe)
	return n, nil
}

// Write sends data over the connection using io_uring
func (t *UringTransportV2) Write(buf []byte) (int, error) {
	if t.file == nil {
		return 0, httperrors.NewTransportError(
			httperrors.TransportErrorConnectionClosed,
			"connection closed",
			nil,
		)
	}

	totalWritten := 0
	for totalWritten < len(buf) {
		chunk := buf[totalWritten:]
		n, err := t.complete(func() error {
			return t.ring.QueueSQE(uring.Write(t.file.Fd(), chunk, 0), 0, 0)
		}, httperrors.TransportErrorSocketWriteFailure, "write")
		if err != nil {
			return totalWritten, err
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
func (t *UringTransportV2) Read(buf []byte) (int, error) {
	if t.file == nil {
		return 0, httperrors.NewTransportError(
			httperrors.TransportErrorConnectionClosed,
			"connection closed",
			nil,
		)
	}

	n, err := t.complete(func() error {
		return t.ring.QueueSQE(uring.Read(t.file.Fd(), buf, 0), 0, 0)
	}, httperrors.TransportErrorSocketReadFailure, "read")
	if err != nil {
		return 0, err
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

// Close closes the socket and the ring
func (t *UringTransportV2) Close() error {
	if t.file == nil {
		return nil
	}

	err := t.file.Close()
	t.file = nil
	if t.ring != nil {
		t.ring.Close()
		t.ring = nil
	}

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
func (t *UringTransportV2) RemoteAddr() string {
	return t.remote
}

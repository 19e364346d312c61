package transport

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	httperrors "github.com/nczempin/httpd-go-uring/errors"
)

var unixTestCounter uint64

func setupUnixTestServer(t *testing.T) (string, <-chan net.Conn, func()) {
	t.Helper()

	// Generate unique socket path
	count := atomic.AddUint64(&unixTestCounter, 1)
	socketPath := filepath.Join(os.TempDir(), fmt.Sprintf("httpd_test_%d_%d.sock", os.Getpid(), count))

	// Remove socket file if it exists
	os.Remove(socketPath)

	listener, err := net.Listen("unix", socketPath)
	if err != nil {
		t.Fatalf("Failed to create Unix test server: %v", err)
	}

	accepted := make(chan net.Conn, 1)
	go func() {
		conn, err := listener.Accept()
		if err != nil {
			close(accepted)
			return
		}
		accepted <- conn
	}()

	cleanup := func() {
		listener.Close()
		os.Remove(socketPath)
	}

	return socketPath, accepted, cleanup
}

func TestUnixTransport_ReadWriteClose(t *testing.T) {
	path, accepted, cleanup := setupUnixTestServer(t)
	defer cleanup()

	client, err := net.Dial("unix", path)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer client.Close()

	server, ok := <-accepted
	if !ok {
		t.Fatal("Accept failed")
	}

	transport, err := Wrap(KindNet, server)
	if err != nil {
		t.Fatalf("Wrap failed: %v", err)
	}
	if _, ok := transport.(*UnixTransport); !ok {
		t.Fatalf("Expected *UnixTransport, got %T", transport)
	}

	exerciseTransport(t, transport, client)
}

func TestDialUnix_Success(t *testing.T) {
	path, accepted, cleanup := setupUnixTestServer(t)
	defer cleanup()

	transport, err := DialUnix(path)
	if err != nil {
		t.Fatalf("DialUnix failed: %v", err)
	}
	defer transport.Close()

	if server, ok := <-accepted; ok {
		server.Close()
	}
}

func TestDialUnix_Failure_NoSocket(t *testing.T) {
	_, err := DialUnix("/nonexistent/httpd_test.sock")
	expectTransportError(t, err, httperrors.TransportErrorSocketConnectFailure)
}

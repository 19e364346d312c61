// Package server runs the accept loop and the per-connection request loop.
package server

import (
	"errors"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	httperrors "github.com/nczempin/httpd-go-uring/errors"
	"github.com/nczempin/httpd-go-uring/protocol"
	"github.com/nczempin/httpd-go-uring/transport"
)

// ErrServerClosed is returned by Serve after Close
var ErrServerClosed = errors.New("server: closed")

// Handler produces the response for a parsed request. It is shared by all
// connections and must not fail.
type Handler interface {
	Route(req *protocol.HttpRequest) *protocol.HttpResponse
}

// Options configures a Server
type Options struct {
	// Transport selects how accepted connections are driven
	Transport transport.Kind
}

// Server accepts connections and serves each on its own goroutine. The only
// state shared between connections is the handler.
type Server struct {
	handler Handler
	opts    Options
	logger  zerolog.Logger

	mu       sync.Mutex
	listener net.Listener
	closed   bool

	nextConn atomic.Uint64
}

// New creates a server
func New(opts Options, handler Handler, logger zerolog.Logger) *Server {
	if opts.Transport == "" {
		opts.Transport = transport.KindNet
	}
	return &Server{
		handler: handler,
		opts:    opts,
		logger:  logger,
	}
}

// Serve accepts connections on ln until Close is called or the listener
// fails. It always returns a non-nil error.
func (s *Server) Serve(ln net.Listener) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		ln.Close()
		return ErrServerClosed
	}
	s.listener = ln
	s.mu.Unlock()

	s.logger.Info().
		Str("addr", ln.Addr().String()).
		Str("transport", string(s.opts.Transport)).
		Msg("listening")

	var backoff time.Duration
	for {
		conn, err := ln.Accept()
		if err != nil {
			if s.isClosed() {
				return ErrServerClosed
			}
			if errors.Is(err, net.ErrClosed) {
				return httperrors.NewTransportError(httperrors.TransportErrorAcceptFailure, "listener closed", err)
			}

			// Back off on errors such as EMFILE instead of spinning
			if backoff == 0 {
				backoff = 5 * time.Millisecond
			} else if backoff *= 2; backoff > time.Second {
				backoff = time.Second
			}
			s.logger.Warn().Err(err).Dur("retry_in", backoff).Msg("accept failed")
			time.Sleep(backoff)
			continue
		}
		backoff = 0

		go s.handle(conn)
	}
}

// Close stops accepting connections. Connections already being served run
// until their peer closes or asks to close.
func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	if s.listener != nil {
		return s.listener.Close()
	}
	return nil
}

func (s *Server) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *Server) handle(conn net.Conn) {
	t, err := transport.Wrap(s.opts.Transport, conn)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to set up connection")
		return
	}
	s.ServeTransport(t)
}

// ServeTransport runs the request loop on t and closes it when done. The
// server takes ownership of t.
func (s *Server) ServeTransport(t transport.Transport) {
	c := &connection{
		handler:   s.handler,
		transport: t,
		reader:    protocol.NewRequestReader(t),
		logger: s.logger.With().
			Uint64("conn", s.nextConn.Add(1)).
			Str("remote", t.RemoteAddr()).
			Logger(),
	}
	c.run()
}

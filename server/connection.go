package server

import (
	"errors"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"

	httperrors "github.com/nczempin/httpd-go-uring/errors"
	"github.com/nczempin/httpd-go-uring/protocol"
	"github.com/nczempin/httpd-go-uring/transport"
)

// connection serves one peer strictly sequentially: a request is read in
// full, answered in full, and only then is the next one read
type connection struct {
	handler   Handler
	transport transport.Transport
	reader    *protocol.RequestReader
	logger    zerolog.Logger

	req    *protocol.HttpRequest
	served int
}

type stateFunc func(*connection) stateFunc

func (c *connection) run() {
	c.logger.Debug().Msg("connection opened")
	for state := waitForRequest; state != nil; {
		state = state(c)
	}
}

// state funcs

func waitForRequest(c *connection) stateFunc {
	req, err := c.reader.ReadRequest()
	switch {
	case err == nil:
		c.req = req
		return sendResponse
	case errors.Is(err, io.EOF):
		c.logger.Debug().Int("served", c.served).Msg("peer closed connection")
	case httperrors.IsProtocol(err, httperrors.ProtocolErrorNone):
		// No response is sent for a request that could not be parsed
		c.logger.Warn().Err(err).Int("served", c.served).Msg("dropping connection after parse failure")
	case httperrors.IsConnectionClosed(err):
		c.logger.Debug().Err(err).Msg("connection lost while reading")
	default:
		c.logger.Warn().Err(err).Msg("read failed")
	}
	return closeConnection
}

func sendResponse(c *connection) stateFunc {
	req := c.req
	c.req = nil

	res := c.handler.Route(req)
	if _, err := c.transport.Write(res.Bytes()); err != nil {
		c.logger.Warn().Err(err).Str("path", req.Path).Msg("write failed")
		return closeConnection
	}
	c.served++

	closing := req.WantsClose()
	c.logger.Debug().
		Stringer("method", req.Method).
		Str("path", req.Path).
		Int("status", res.Status.Code()).
		Str("size", humanize.Bytes(uint64(len(res.Body)))).
		Bool("close", closing).
		Msg("request served")

	if closing {
		return closeConnection
	}
	return waitForRequest
}

func closeConnection(c *connection) stateFunc {
	if err := c.transport.Close(); err != nil {
		c.logger.Debug().Err(err).Msg("close failed")
	}
	c.logger.Debug().Msg("connection closed")
	return nil
}

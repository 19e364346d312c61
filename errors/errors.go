package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorType represents the category of error
type ErrorType int

const (
	ErrorNone ErrorType = iota
	ErrorTransport
	ErrorProtocol
	ErrorHandler
	ErrorInvalidArgument
)

// TransportError represents transport-layer specific errors
type TransportError int

const (
	TransportErrorNone TransportError = iota
	TransportErrorSocketCreateFailure
	TransportErrorSocketConnectFailure
	TransportErrorSocketReadFailure
	TransportErrorSocketWriteFailure
	TransportErrorConnectionClosed
	TransportErrorDnsFailure
	TransportErrorAcceptFailure
	TransportErrorIoUringInit
	TransportErrorIoUringSubmit
)

func (e TransportError) String() string {
	switch e {
	case TransportErrorSocketCreateFailure:
		return "socket create failure"
	case TransportErrorSocketConnectFailure:
		return "socket connect failure"
	case TransportErrorSocketReadFailure:
		return "socket read failure"
	case TransportErrorSocketWriteFailure:
		return "socket write failure"
	case TransportErrorConnectionClosed:
		return "connection closed"
	case TransportErrorDnsFailure:
		return "DNS failure"
	case TransportErrorAcceptFailure:
		return "accept failure"
	case TransportErrorIoUringInit:
		return "io_uring init failure"
	case TransportErrorIoUringSubmit:
		return "io_uring submit failure"
	default:
		return fmt.Sprintf("transport error %d", int(e))
	}
}

// ProtocolError represents protocol-layer specific errors. Every one of them
// is fatal for the connection it was raised on.
type ProtocolError int

const (
	ProtocolErrorNone ProtocolError = iota
	ProtocolErrorMalformedRequestLine
	ProtocolErrorUnsupportedMethod
	ProtocolErrorMalformedContentLength
	ProtocolErrorInvalidBodyEncoding
	ProtocolErrorIncompleteRequest
	ProtocolErrorMessageTooLarge
	ProtocolErrorInvalidStatusLine
	ProtocolErrorIncompleteResponse
)

func (e ProtocolError) String() string {
	switch e {
	case ProtocolErrorMalformedRequestLine:
		return "malformed request line"
	case ProtocolErrorUnsupportedMethod:
		return "unsupported method"
	case ProtocolErrorMalformedContentLength:
		return "malformed Content-Length"
	case ProtocolErrorInvalidBodyEncoding:
		return "invalid body encoding"
	case ProtocolErrorIncompleteRequest:
		return "incomplete request"
	case ProtocolErrorMessageTooLarge:
		return "message too large"
	case ProtocolErrorInvalidStatusLine:
		return "invalid status line"
	case ProtocolErrorIncompleteResponse:
		return "incomplete response"
	default:
		return fmt.Sprintf("protocol error %d", int(e))
	}
}

// HttpError is the main error type shared by the server and the client
type HttpError struct {
	Type          ErrorType
	TransportErr  TransportError
	ProtocolErr   ProtocolError
	Message       string
	UnderlyingErr error
}

// Error implements the error interface
func (e *HttpError) Error() string {
	if e == nil {
		return "no error"
	}

	var typeStr string
	switch e.Type {
	case ErrorTransport:
		typeStr = fmt.Sprintf("Transport error (%s)", e.TransportErr)
	case ErrorProtocol:
		typeStr = fmt.Sprintf("Protocol error (%s)", e.ProtocolErr)
	case ErrorHandler:
		typeStr = "Handler error"
	case ErrorInvalidArgument:
		typeStr = "Invalid argument"
	default:
		typeStr = "Unknown error"
	}

	if e.Message != "" {
		typeStr = fmt.Sprintf("%s: %s", typeStr, e.Message)
	}

	if e.UnderlyingErr != nil {
		return fmt.Sprintf("%s (caused by: %v)", typeStr, e.UnderlyingErr)
	}

	return typeStr
}

// Unwrap returns the underlying error for error chain support
func (e *HttpError) Unwrap() error {
	return e.UnderlyingErr
}

// NewTransportError creates a new transport error
func NewTransportError(err TransportError, message string, underlying error) *HttpError {
	return &HttpError{
		Type:          ErrorTransport,
		TransportErr:  err,
		Message:       message,
		UnderlyingErr: underlying,
	}
}

// NewProtocolError creates a new protocol error
func NewProtocolError(err ProtocolError, message string) *HttpError {
	return &HttpError{
		Type:        ErrorProtocol,
		ProtocolErr: err,
		Message:     message,
	}
}

// NewHandlerError creates an error raised while producing a response. Handler
// errors are recovered by the router and never reach the connection loop.
func NewHandlerError(message string, underlying error) *HttpError {
	return &HttpError{
		Type:          ErrorHandler,
		Message:       message,
		UnderlyingErr: underlying,
	}
}

// NewInvalidArgumentError creates a new invalid argument error
func NewInvalidArgumentError(message string) *HttpError {
	return &HttpError{
		Type:    ErrorInvalidArgument,
		Message: message,
	}
}

// IsConnectionClosed reports whether err is a transport error signalling that
// the peer went away.
func IsConnectionClosed(err error) bool {
	var httpErr *HttpError
	if !stderrors.As(err, &httpErr) {
		return false
	}
	return httpErr.Type == ErrorTransport && httpErr.TransportErr == TransportErrorConnectionClosed
}

// IsProtocol reports whether err is a protocol error of the given kind.
// ProtocolErrorNone matches any protocol error.
func IsProtocol(err error, kind ProtocolError) bool {
	var httpErr *HttpError
	if !stderrors.As(err, &httpErr) || httpErr.Type != ErrorProtocol {
		return false
	}
	return kind == ProtocolErrorNone || httpErr.ProtocolErr == kind
}

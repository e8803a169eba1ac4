package client

import (
	"errors"
	"fmt"
	"time"
)

// Standard error types usable with errors.Is.
var (
	ErrNotConnected     = errors.New("client is not connected")
	ErrAlreadyConnected = errors.New("client is already connected")
	ErrRequestTimeout   = errors.New("request timed out")
	ErrTransportFailure = errors.New("transport failure")
	ErrInvalidResponse  = errors.New("invalid response from server")
)

// ClientError is the base error type for client errors.
type ClientError struct {
	Message string
	Cause   error
}

func (e *ClientError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *ClientError) Unwrap() error { return e.Cause }

// TransportError indicates a problem with the transport layer.
type TransportError struct {
	ClientError
	Transport string
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error (%s): %s", e.Transport, e.ClientError.Error())
}

// ConnectionError indicates the session could not be established or was lost.
type ConnectionError struct {
	ClientError
	Endpoint string
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connection error (%s): %s", e.Endpoint, e.ClientError.Error())
}

// TimeoutError indicates a request exceeded its deadline.
type TimeoutError struct {
	ClientError
	Operation string
	Timeout   time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("timeout after %v during %s", e.Timeout, e.Operation)
}

// ServerError represents a JSON-RPC error returned by the server.
type ServerError struct {
	ClientError
	Method string
	Code   int
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server error during %s (code=%d): %s", e.Method, e.Code, e.Message)
}

// NewTransportError creates a new TransportError.
func NewTransportError(transport, message string, cause error) error {
	return &TransportError{
		ClientError: ClientError{Message: message, Cause: cause},
		Transport:   transport,
	}
}

// NewConnectionError creates a new ConnectionError.
func NewConnectionError(endpoint, message string, cause error) error {
	return &ConnectionError{
		ClientError: ClientError{Message: message, Cause: cause},
		Endpoint:    endpoint,
	}
}

// NewTimeoutError creates a new TimeoutError.
func NewTimeoutError(operation string, timeout time.Duration, cause error) error {
	return &TimeoutError{
		ClientError: ClientError{Message: fmt.Sprintf("operation timed out after %v", timeout), Cause: cause},
		Operation:   operation,
		Timeout:     timeout,
	}
}

// NewServerError creates a new ServerError.
func NewServerError(method string, code int, message string) error {
	return &ServerError{
		ClientError: ClientError{Message: message},
		Method:      method,
		Code:        code,
	}
}

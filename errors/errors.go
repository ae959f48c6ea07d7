// MIT License
//
// Copyright (c) 2022-2026 GoAkt Team
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package errors

import (
	"errors"
	"fmt"
)

var (
	// ErrMailboxClosed is returned when a message is sent to a mailbox whose receivers are all gone
	// or whose sending side has been closed.
	ErrMailboxClosed = errors.New("mailbox is closed")

	// ErrMailboxFull is returned by non-blocking sends when the mailbox has no free slot.
	ErrMailboxFull = errors.New("mailbox is full")

	// ErrHandlerPanic is returned to a caller when the actor died while handling its message,
	// or when the message was discarded before being handled.
	ErrHandlerPanic = errors.New("actor panicked while handling the message")

	// ErrUnhandled is returned when an actor receives a message it cannot handle.
	ErrUnhandled = errors.New("unhandled message")

	// ErrInvalidMessage indicates that a message is structurally invalid, e.g. nil.
	ErrInvalidMessage = errors.New("invalid message")

	// ErrInvalidResponse is returned when a reply does not have the type the caller expects.
	ErrInvalidResponse = errors.New("invalid response type")

	// ErrResponseNotReady is returned by non-blocking reads of a reply that has not resolved yet.
	ErrResponseNotReady = errors.New("response is not ready")

	// ErrAddressReleased is returned when a released address is used.
	ErrAddressReleased = errors.New("address has been released")

	// ErrInitFailure is returned when an actor factory keeps failing after its retries.
	ErrInitFailure = errors.New("actor creation failed")

	// ErrInvalidQuantity is returned when a pool is spawned with less than one instance.
	ErrInvalidQuantity = errors.New("quantity must be greater than zero")

	// ErrBrokerExists is returned when a broker name is already in use on a stage.
	ErrBrokerExists = errors.New("broker already exists")

	// ErrStageStopped is returned when an operation is attempted on a stage that has been shut down.
	ErrStageStopped = errors.New("stage is stopped")

	// ErrInvalidName is returned when a stage or broker name contains invalid characters.
	ErrInvalidName = errors.New("invalid name, must contain only word characters (i.e. [a-zA-Z0-9] plus non-leading '-' or '_')")

	// ErrRequestTimeout indicates that a reply did not arrive in time.
	ErrRequestTimeout = errors.New("request timed out")

	// ErrForwardToLocal is returned when a remote request cannot be delivered to the local mailbox.
	ErrForwardToLocal = errors.New("failed to forward message to local address")

	// ErrRemoteHandler is returned when the remote actor handled the message and answered with an error.
	ErrRemoteHandler = errors.New("remote handler failed")

	// ErrReservedFingerprint is returned when a message identity hashes to the reply fingerprint.
	ErrReservedFingerprint = errors.New("fingerprint 0 is reserved for replies")

	// ErrFingerprintCollision is returned when two distinct identities share a fingerprint.
	ErrFingerprintCollision = errors.New("fingerprint collision")

	// ErrNotRemoteType is returned when a type has no remote identity.
	ErrNotRemoteType = errors.New("type has no remote identity")

	// ErrUnknownFingerprint is returned when no handler is registered for a fingerprint.
	ErrUnknownFingerprint = errors.New("unknown fingerprint")

	// ErrInvalidFrame is returned when wire bytes cannot be decoded into a frame.
	ErrInvalidFrame = errors.New("invalid frame")

	// ErrFrameTooLarge is returned when a frame exceeds the configured maximum size.
	ErrFrameTooLarge = errors.New("frame too large")

	// ErrDecode is returned when a payload cannot be deserialized.
	ErrDecode = errors.New("failed to decode payload")

	// ErrEncode is returned when a payload cannot be serialized.
	ErrEncode = errors.New("failed to encode payload")

	// ErrConnectionClosed is returned for requests pending on a connection that went away.
	ErrConnectionClosed = errors.New("connection is closed")

	// ErrServerStarted is returned when a remote server is started twice.
	ErrServerStarted = errors.New("server already started")

	// ErrServerNotStarted is returned when a remote server is used before Start.
	ErrServerNotStarted = errors.New("server has not started")

	// ErrInvalidTLSConfiguration is returned when TLS settings are missing or misconfigured.
	ErrInvalidTLSConfiguration = errors.New("TLS configuration is invalid")
)

// PanicError defines the panic error
// wrapping the underlying error
type PanicError struct {
	err error
}

// enforce compilation error
var _ error = (*PanicError)(nil)

// NewPanicError creates an instance of PanicError
func NewPanicError(err error) *PanicError {
	return &PanicError{err}
}

// Error implements the standard error interface
func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.err)
}

func (e *PanicError) Unwrap() error {
	return e.err
}

// SendError is returned when a message could not be enqueued.
// It hands the message back so the caller can decide to retry or drop it.
type SendError struct {
	err     error
	message any
}

// enforce compilation error
var _ error = (*SendError)(nil)

// NewSendError creates an instance of SendError
func NewSendError(err error, message any) *SendError {
	return &SendError{err: err, message: message}
}

// Error implements the standard error interface
func (e *SendError) Error() string {
	return fmt.Sprintf("send failed: %v", e.err)
}

func (e *SendError) Unwrap() error {
	return e.err
}

// Recover returns the message that was not sent
func (e *SendError) Recover() any {
	return e.message
}

// RemoteError carries a failure reported by a remote peer.
// It unwraps to the sentinel matching the failure kind so callers
// can use errors.Is across the wire.
type RemoteError struct {
	kind   error
	reason string
}

// enforce compilation error
var _ error = (*RemoteError)(nil)

// NewRemoteError creates an instance of RemoteError
func NewRemoteError(kind error, reason string) *RemoteError {
	return &RemoteError{kind: kind, reason: reason}
}

// Error implements the standard error interface
func (e *RemoteError) Error() string {
	if e.reason == "" {
		return fmt.Sprintf("remote: %v", e.kind)
	}
	return fmt.Sprintf("remote: %v: %s", e.kind, e.reason)
}

func (e *RemoteError) Unwrap() error {
	return e.kind
}

// Reason returns the message reported by the peer
func (e *RemoteError) Reason() string {
	return e.reason
}

// NewUnhandledError returns an error wrapping ErrUnhandled that names the message type
func NewUnhandledError(message any) error {
	return fmt.Errorf("%w: %T", ErrUnhandled, message)
}

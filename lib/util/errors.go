// Package util provides common utilities shared across the chat relay.
// This includes the sentinel errors for registry and relay operations and
// small error wrapper types carrying network context.
package util

import (
	"errors"
	"fmt"
)

// Sentinel errors for chat relay operations.
var (
	// ErrRoomExists indicates a CREATE targeted a room name already in use.
	ErrRoomExists = errors.New("room already exists")

	// ErrRoomNotFound indicates the requested room does not exist.
	ErrRoomNotFound = errors.New("room not found")

	// ErrUnauthorized indicates a datagram carried a token that is not a
	// member of the named room. Unknown room and unknown token are reported
	// identically so the sender learns nothing about room existence.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrDuplicateToken indicates a token collision inside one room.
	// Tokens are unique per room by construction; hitting this is a
	// programming error, not a client error.
	ErrDuplicateToken = errors.New("duplicated member token")

	// ErrServerClosed indicates an operation was attempted after shutdown.
	ErrServerClosed = errors.New("server closed")
)

// ConnectionError wraps an error with connection context.
// Use this when an error occurs at the admission connection level.
type ConnectionError struct {
	RemoteAddr string // Remote address of the connection
	Operation  string // The operation being performed
	Err        error  // The underlying error
}

// NewConnectionError creates a new ConnectionError with context.
func NewConnectionError(remoteAddr, operation string, err error) *ConnectionError {
	return &ConnectionError{
		RemoteAddr: remoteAddr,
		Operation:  operation,
		Err:        err,
	}
}

// Error implements the error interface.
func (e *ConnectionError) Error() string {
	if e.RemoteAddr == "" {
		return fmt.Sprintf("%s: %v", e.Operation, e.Err)
	}
	return fmt.Sprintf("[%s] %s: %v", e.RemoteAddr, e.Operation, e.Err)
}

// Unwrap returns the underlying error for errors.Is and errors.As support.
func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// RegistryError wraps an error with room registry context.
type RegistryError struct {
	Room      string // The room name the operation targeted
	Operation string // The operation being performed (e.g., "create", "join")
	Err       error  // The underlying error
}

// NewRegistryError creates a new RegistryError with context.
func NewRegistryError(room, operation string, err error) *RegistryError {
	return &RegistryError{
		Room:      room,
		Operation: operation,
		Err:       err,
	}
}

// Error implements the error interface.
func (e *RegistryError) Error() string {
	if e.Room == "" {
		return fmt.Sprintf("%s: %v", e.Operation, e.Err)
	}
	return fmt.Sprintf("room %q: %s: %v", e.Room, e.Operation, e.Err)
}

// Unwrap returns the underlying error for errors.Is and errors.As support.
func (e *RegistryError) Unwrap() error {
	return e.Err
}

package protocol

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrInvalidArgument = errors.New("mpd: argument contains a newline")
	ErrInvalidCommand  = errors.New("mpd: invalid command name")
	ErrLineTooLong     = errors.New("mpd: reply line too long")
)

// AckError represents an ACK reply: the server rejected a command.
//
// Format: ACK [<code>@<index>] {<command>} <message>
//
// Index is the position of the failing command inside a command list, zero
// for a single command. The connection stays usable.
type AckError struct {
	Code    AckCode
	Index   int
	Command string
	Message string
}

func (e *AckError) Error() string {
	return fmt.Sprintf("mpd: ACK %s (command %d %q): %s", e.Code, e.Index, e.Command, e.Message)
}

// ShouldCloseConnection returns false - the server answered and the stream is in sync
func (e *AckError) ShouldCloseConnection() bool {
	return false
}

// ParseError represents a reply the client could not understand.
//
// Connection handling: CLOSE, the position in the stream is unknown
type ParseError struct {
	Message string
	Err     error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return "mpd: parse error: " + e.Message + ": " + e.Err.Error()
	}
	return "mpd: parse error: " + e.Message
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

func (e *ParseError) ShouldCloseConnection() bool {
	return true
}

// ErrorWithConnectionState is implemented by errors that know whether the
// connection they came from can be reused.
type ErrorWithConnectionState interface {
	error
	ShouldCloseConnection() bool
}

// ShouldCloseConnection reports whether err leaves the connection unusable.
// Unknown errors (I/O, timeouts) close the connection.
func ShouldCloseConnection(err error) bool {
	if err == nil {
		return false
	}

	var e ErrorWithConnectionState
	if errors.As(err, &e) {
		return e.ShouldCloseConnection()
	}

	// Rejected before anything was written.
	if errors.Is(err, ErrInvalidArgument) || errors.Is(err, ErrInvalidCommand) {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	return true
}

// IsAck reports whether err is an ACK from the server, optionally with one of
// the given codes.
func IsAck(err error, codes ...AckCode) bool {
	var ack *AckError
	if !errors.As(err, &ack) {
		return false
	}
	if len(codes) == 0 {
		return true
	}
	for _, code := range codes {
		if ack.Code == code {
			return true
		}
	}
	return false
}

// ConnectionError wraps an I/O failure on the connection.
//
// Connection handling: CLOSE
type ConnectionError struct {
	Op  string // Operation that failed (read, write, dial, ...)
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("mpd: connection error during %s: %v", e.Op, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

func (e *ConnectionError) ShouldCloseConnection() bool {
	return true
}

package mpd

import (
	"bufio"
	"context"
	"errors"
	"net"
	"time"

	"github.com/pior/mpd/protocol"
	"github.com/pior/mpd/response"
)

var ErrNoGreeting = errors.New("mpd: handshake not performed")

// Connection is a single connection to the server.
// It is not safe for concurrent use: the pool hands it to one caller at a time.
type Connection struct {
	net.Conn
	Reader *bufio.Reader
	Writer *bufio.Writer

	greeting protocol.Greeting
}

// NewConnection wraps netConn. Handshake must be called before executing
// commands.
func NewConnection(netConn net.Conn) *Connection {
	return &Connection{
		Conn:   netConn,
		Reader: bufio.NewReader(netConn),
		Writer: bufio.NewWriter(netConn),
	}
}

// Handshake reads the server greeting and authenticates when password is set.
func (c *Connection) Handshake(ctx context.Context, password string) error {
	c.setDeadline(ctx)

	greeting, err := protocol.ReadGreeting(c.Reader)
	if err != nil {
		return wrapIO("greeting", err)
	}
	c.greeting = greeting

	if password == "" {
		return nil
	}

	_, err = c.Execute(ctx, protocol.NewCommand(protocol.CmdPassword, password))
	return err
}

// Greeting returns the greeting read by Handshake.
func (c *Connection) Greeting() protocol.Greeting {
	return c.greeting
}

// Execute sends cmd and reads its reply into a batch holding one segment.
func (c *Connection) Execute(ctx context.Context, cmd *protocol.Command) (*response.Batch, error) {
	if err := c.ready(ctx); err != nil {
		return nil, err
	}

	if err := protocol.WriteCommand(c.Writer, cmd); err != nil {
		return nil, wrapIO("write", err)
	}

	b, err := protocol.ReadResponse(c.Reader, c.greeting.Raw)
	return b, wrapIO("read", err)
}

// ExecuteList sends cmds as one command list and reads the replies into a batch
// holding one segment per command.
//
// When a command is rejected, the batch of replies received before it is
// returned together with the *protocol.AckError.
func (c *Connection) ExecuteList(ctx context.Context, cmds []*protocol.Command) (*response.Batch, error) {
	if len(cmds) == 0 {
		return response.Empty(), nil
	}

	if err := c.ready(ctx); err != nil {
		return nil, err
	}

	if err := protocol.WriteCommandList(c.Writer, cmds, true); err != nil {
		return nil, wrapIO("write", err)
	}

	b, err := protocol.ReadCommandList(c.Reader, c.greeting.Raw, len(cmds), true)
	return b, wrapIO("read", err)
}

// Ping checks that the server answers.
func (c *Connection) Ping(ctx context.Context) error {
	_, err := c.Execute(ctx, protocol.NewCommand(protocol.CmdPing))
	return err
}

// InSync reports whether the connection can carry another command: no reply
// bytes are left unread in the buffer.
func (c *Connection) InSync() bool {
	return c.Reader.Buffered() == 0
}

func (c *Connection) ready(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if c.greeting.Raw == "" {
		return ErrNoGreeting
	}
	c.setDeadline(ctx)
	return nil
}

func (c *Connection) setDeadline(ctx context.Context) {
	if deadline, ok := ctx.Deadline(); ok {
		c.SetDeadline(deadline)
	} else {
		c.SetDeadline(time.Time{})
	}
}

// wrapIO wraps errors that did not come from the protocol layer.
func wrapIO(op string, err error) error {
	if err == nil {
		return nil
	}

	var state protocol.ErrorWithConnectionState
	if errors.As(err, &state) {
		return err
	}
	if errors.Is(err, protocol.ErrInvalidArgument) || errors.Is(err, protocol.ErrInvalidCommand) {
		return err
	}
	return &protocol.ConnectionError{Op: op, Err: err}
}

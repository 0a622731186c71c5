package protocol

import (
	"bufio"
	"strings"
)

// Command is one request line: a command name and its arguments.
type Command struct {
	Name string
	Args []string
}

// NewCommand returns a command with the given arguments.
func NewCommand(name string, args ...string) *Command {
	return &Command{Name: name, Args: args}
}

func (c *Command) String() string {
	var sb strings.Builder
	c.appendTo(&sb)
	return sb.String()
}

func (c *Command) validate() error {
	if c.Name == "" || strings.ContainsAny(c.Name, " \t\r\n\"") {
		return ErrInvalidCommand
	}
	for _, arg := range c.Args {
		if strings.ContainsAny(arg, "\r\n") {
			return ErrInvalidArgument
		}
	}
	return nil
}

type stringWriter interface {
	WriteString(s string) (int, error)
	WriteByte(c byte) error
}

// appendTo writes the command line without its terminator.
// Arguments are always quoted, with backslash and double quote escaped.
func (c *Command) appendTo(w stringWriter) {
	w.WriteString(c.Name)
	for _, arg := range c.Args {
		w.WriteByte(' ')
		w.WriteByte('"')
		for i := 0; i < len(arg); i++ {
			if arg[i] == '"' || arg[i] == '\\' {
				w.WriteByte('\\')
			}
			w.WriteByte(arg[i])
		}
		w.WriteByte('"')
	}
}

// WriteCommand writes cmd and flushes w.
func WriteCommand(w *bufio.Writer, cmd *Command) error {
	if err := cmd.validate(); err != nil {
		return err
	}

	cmd.appendTo(w)
	w.WriteString(Newline)
	return w.Flush()
}

// WriteCommandList writes cmds framed as a command list and flushes w.
// When separated is true the server terminates every reply with list_OK.
func WriteCommandList(w *bufio.Writer, cmds []*Command, separated bool) error {
	for _, cmd := range cmds {
		if err := cmd.validate(); err != nil {
			return err
		}
	}

	if separated {
		w.WriteString(CmdListOKBegin)
	} else {
		w.WriteString(CmdListBegin)
	}
	w.WriteString(Newline)

	for _, cmd := range cmds {
		cmd.appendTo(w)
		w.WriteString(Newline)
	}

	w.WriteString(CmdListEnd)
	w.WriteString(Newline)
	return w.Flush()
}

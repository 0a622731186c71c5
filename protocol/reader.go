package protocol

import (
	"bufio"
	"log/slog"
	"strconv"
	"strings"

	"github.com/pior/mpd/response"
)

// Greeting is the first line sent by the server on a new connection.
type Greeting struct {
	Raw     string // Whole greeting line, without terminator
	Version string // Protocol version announced by the server
}

// ReadGreeting reads the connection greeting.
// Format: OK MPD <version>\n
func ReadGreeting(r *bufio.Reader) (Greeting, error) {
	line, err := readLine(r)
	if err != nil {
		return Greeting{}, err
	}

	version, ok := strings.CutPrefix(line, GreetingPrefix)
	if !ok || version == "" {
		slog.Error("mpd: invalid greeting", "line", line)
		return Greeting{}, &ParseError{Message: "invalid greeting: " + strconv.Quote(line)}
	}

	return Greeting{Raw: line, Version: version}, nil
}

// ReadResponse reads the reply to a single command, up to its OK or ACK line.
// The reply lines form one segment. The connection outcome is stored on the
// returned batch as-is.
//
// An ACK is returned as *AckError together with a nil batch.
func ReadResponse(r *bufio.Reader, outcome string) (*response.Batch, error) {
	b, err := readReplies(r, outcome, 1, false)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// ReadCommandList reads the reply to a command list of n commands.
//
// With separated set (command_list_ok_begin), every reply ends with a list_OK
// marker. Each reply becomes one segment of the returned batch: marker lines
// are dropped, the newlines inside a multi-line reply are recorded as
// exclusions and an empty reply is an empty line. The number of markers must
// be n.
//
// An empty payload holds no segments, so a list of one command whose reply is
// empty returns a batch with zero segments rather than one empty segment.
//
// Without separated (command_list_begin) the server does not mark replies and
// the whole reply is one segment.
//
// When the server rejects a command the list is aborted: the batch holding the
// replies completed so far is returned together with an *AckError.
func ReadCommandList(r *bufio.Reader, outcome string, n int, separated bool) (*response.Batch, error) {
	return readReplies(r, outcome, n, separated)
}

// payloadBuilder accumulates reply lines into a batch payload.
type payloadBuilder struct {
	sb      strings.Builder
	lines   int
	exclude []int

	segments  int
	replyLine int // lines in the current reply
}

func (p *payloadBuilder) addLine(line string, glue bool) {
	if p.lines > 0 {
		p.sb.WriteString(Newline)
		if glue {
			p.exclude = append(p.exclude, p.lines)
		}
	}
	p.sb.WriteString(line)
	p.lines++
}

// addReplyLine appends a line of the current reply.
func (p *payloadBuilder) addReplyLine(line string) {
	p.addLine(line, p.replyLine > 0)
	p.replyLine++
}

// endReply closes the current reply, emitting an empty line when it had none.
func (p *payloadBuilder) endReply() {
	if p.replyLine == 0 {
		p.addLine("", false)
	}
	p.segments++
	p.replyLine = 0
}

func (p *payloadBuilder) batch(outcome string) *response.Batch {
	payload := p.sb.String()

	count := p.segments
	if p.replyLine > 0 {
		count++
	}
	if payload == "" {
		count = 0
	}

	return response.NewWithCount(outcome, payload, p.exclude, count)
}

func readReplies(r *bufio.Reader, outcome string, n int, separated bool) (*response.Batch, error) {
	var p payloadBuilder

	for {
		line, err := readLine(r)
		if err != nil {
			return nil, err
		}

		switch {
		case line == ResponseOK:
			if !separated {
				if p.replyLine > 0 {
					p.endReply()
				}
				return p.batch(outcome), nil
			}

			if p.replyLine > 0 {
				return nil, &ParseError{Message: "reply lines after last " + ListOK}
			}
			if n > 0 && p.segments != n {
				slog.Warn("mpd: command list marker count mismatch", "expected", n, "received", p.segments)
				return nil, &ParseError{Message: "expected " + strconv.Itoa(n) + " replies, got " + strconv.Itoa(p.segments)}
			}
			return p.batch(outcome), nil

		case strings.HasPrefix(line, AckPrefix):
			ack, err := parseAck(line)
			if err != nil {
				return nil, err
			}
			if !separated && n <= 1 {
				return nil, ack
			}
			return p.batch(outcome), ack

		case separated && line == ListOK:
			p.endReply()

		default:
			p.addReplyLine(line)
		}
	}
}

// parseAck parses an ACK line.
// Format: ACK [<code>@<index>] {<command>} <message>
func parseAck(line string) (*AckError, error) {
	rest := strings.TrimPrefix(line, AckPrefix)

	if !strings.HasPrefix(rest, "[") {
		return nil, &ParseError{Message: "invalid ACK line: " + strconv.Quote(line)}
	}
	end := strings.IndexByte(rest, ']')
	if end < 0 {
		return nil, &ParseError{Message: "invalid ACK line: " + strconv.Quote(line)}
	}

	codeStr, indexStr, ok := strings.Cut(rest[1:end], "@")
	if !ok {
		return nil, &ParseError{Message: "invalid ACK code: " + strconv.Quote(line)}
	}
	code, err := strconv.Atoi(codeStr)
	if err != nil {
		return nil, &ParseError{Message: "invalid ACK code", Err: err}
	}
	index, err := strconv.Atoi(indexStr)
	if err != nil {
		return nil, &ParseError{Message: "invalid ACK index", Err: err}
	}

	ack := &AckError{Code: AckCode(code), Index: index}

	rest = strings.TrimPrefix(rest[end+1:], " ")
	if strings.HasPrefix(rest, "{") {
		if end := strings.IndexByte(rest, '}'); end >= 0 {
			ack.Command = rest[1:end]
			rest = strings.TrimPrefix(rest[end+1:], " ")
		}
	}
	ack.Message = rest

	return ack, nil
}

// readLine reads one line and strips its terminator.
func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadSlice('\n')
	if err == bufio.ErrBufferFull {
		var full []byte
		full = append(full, line...)
		for err == bufio.ErrBufferFull {
			if len(full) > MaxLineLength {
				return "", &ParseError{Message: "reading reply", Err: ErrLineTooLong}
			}
			line, err = r.ReadSlice('\n')
			full = append(full, line...)
		}
		line = full
	}
	if err != nil {
		return "", err
	}

	if len(line) > MaxLineLength {
		return "", &ParseError{Message: "reading reply", Err: ErrLineTooLong}
	}

	line = line[:len(line)-1]
	if n := len(line); n > 0 && line[n-1] == '\r' {
		line = line[:n-1]
	}
	return string(line), nil
}

package mpd

import (
	"bufio"
	"fmt"
	"net"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const testGreeting = "OK MPD 0.23.5"

func createListener(t testing.TB, handler func(conn net.Conn)) string {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err, "Failed to start test server")

	t.Cleanup(func() {
		listener.Close()
	})

	go func() {
		for {
			conn, err := listener.Accept()
			if err != nil {
				return
			}

			go func(c net.Conn) {
				defer c.Close()

				if handler != nil {
					handler(c)
				}
			}(conn)
		}
	}()

	time.Sleep(10 * time.Millisecond)

	return listener.Addr().String()
}

// fakeServer answers commands from a table keyed by the command line as sent
// by the client. Values are reply lines, each terminated by a newline, or an
// ACK line. Unknown commands are rejected like the real server does.
type fakeServer struct {
	replies  map[string]string
	password string

	accepted atomic.Int32
	commands atomic.Int32
}

func newFakeServer(replies map[string]string) *fakeServer {
	return &fakeServer{replies: replies}
}

func (s *fakeServer) start(t testing.TB) string {
	return createListener(t, s.handle)
}

func (s *fakeServer) reply(line string, index int) (string, bool) {
	name, _, _ := strings.Cut(line, " ")

	if name == "password" {
		if line == fmt.Sprintf("password %q", s.password) {
			return "", true
		}
		return fmt.Sprintf("ACK [3@%d] {password} incorrect password\n", index), false
	}
	if name == "ping" {
		return "", true
	}

	reply, ok := s.replies[line]
	if !ok {
		return fmt.Sprintf("ACK [5@%d] {} unknown command %q\n", index, name), false
	}
	if strings.HasPrefix(reply, "ACK ") {
		return strings.Replace(reply, "@0]", fmt.Sprintf("@%d]", index), 1), false
	}
	return reply, true
}

func (s *fakeServer) handle(conn net.Conn) {
	s.accepted.Add(1)

	w := bufio.NewWriter(conn)
	r := bufio.NewReader(conn)

	w.WriteString(testGreeting + "\n")
	w.Flush()

	var list []string
	inList, separated := false, false

	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return
		}
		line = strings.TrimSuffix(line, "\n")

		switch {
		case line == "command_list_begin" || line == "command_list_ok_begin":
			inList, separated = true, line == "command_list_ok_begin"
			list = list[:0]

		case line == "command_list_end":
			inList = false
			for i, cmd := range list {
				s.commands.Add(1)
				reply, ok := s.reply(cmd, i)
				w.WriteString(reply)
				if !ok {
					break
				}
				if separated {
					w.WriteString("list_OK\n")
				}
				if i == len(list)-1 {
					w.WriteString("OK\n")
				}
			}
			if len(list) == 0 {
				w.WriteString("OK\n")
			}
			w.Flush()

		case inList:
			list = append(list, line)

		case line == "close":
			return

		default:
			s.commands.Add(1)
			reply, ok := s.reply(line, 0)
			w.WriteString(reply)
			if ok {
				w.WriteString("OK\n")
			}
			w.Flush()
		}
	}
}

// newTestClient returns a client connected to addr, closed with the test.
func newTestClient(t testing.TB, config Config) *Client {
	t.Helper()

	client, err := NewClient(config)
	require.NoError(t, err)
	t.Cleanup(client.Close)
	return client
}

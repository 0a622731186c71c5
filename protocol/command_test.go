package protocol

import (
	"bufio"
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriteCommand(t *testing.T) {
	tests := []struct {
		name string
		cmd  *Command
		want string
	}{
		{
			name: "no arguments",
			cmd:  NewCommand("status"),
			want: "status\n",
		},
		{
			name: "plain argument",
			cmd:  NewCommand("play", "3"),
			want: "play \"3\"\n",
		},
		{
			name: "argument with spaces",
			cmd:  NewCommand("find", "artist", "Sonic Youth"),
			want: "find \"artist\" \"Sonic Youth\"\n",
		},
		{
			name: "escaped quote and backslash",
			cmd:  NewCommand("add", `dir\"quoted".flac`),
			want: `add "dir\\\"quoted\".flac"` + "\n",
		},
		{
			name: "empty argument",
			cmd:  NewCommand("list", "album", ""),
			want: "list \"album\" \"\"\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			w := bufio.NewWriter(&buf)

			require.NoError(t, WriteCommand(w, tt.cmd))
			require.Equal(t, tt.want, buf.String())
		})
	}
}

func TestWriteCommandInvalid(t *testing.T) {
	tests := []struct {
		name string
		cmd  *Command
		err  error
	}{
		{name: "empty name", cmd: NewCommand(""), err: ErrInvalidCommand},
		{name: "name with space", cmd: NewCommand("play now"), err: ErrInvalidCommand},
		{name: "newline in argument", cmd: NewCommand("add", "a\nclose"), err: ErrInvalidArgument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			w := bufio.NewWriter(&buf)

			require.ErrorIs(t, WriteCommand(w, tt.cmd), tt.err)
			require.NoError(t, w.Flush())
			require.Empty(t, buf.String(), "nothing is written for an invalid command")
		})
	}
}

func TestWriteCommandList(t *testing.T) {
	cmds := []*Command{NewCommand("status"), NewCommand("currentsong")}

	var buf bytes.Buffer
	w := bufio.NewWriter(&buf)
	require.NoError(t, WriteCommandList(w, cmds, true))
	require.Equal(t, "command_list_ok_begin\nstatus\ncurrentsong\ncommand_list_end\n", buf.String())

	buf.Reset()
	require.NoError(t, WriteCommandList(w, cmds, false))
	require.Equal(t, "command_list_begin\nstatus\ncurrentsong\ncommand_list_end\n", buf.String())
}

func TestWriteCommandListInvalid(t *testing.T) {
	cmds := []*Command{NewCommand("status"), NewCommand("add", "x\n")}

	var buf bytes.Buffer
	w := bufio.NewWriter(&buf)
	require.ErrorIs(t, WriteCommandList(w, cmds, true), ErrInvalidArgument)
	require.NoError(t, w.Flush())
	require.Empty(t, buf.String())
}

func TestCommandString(t *testing.T) {
	require.Equal(t, `search "title" "a \"b\""`, NewCommand("search", "title", `a "b"`).String())
}

package protocol

import "strconv"

// Line protocol markers
const (
	GreetingPrefix = "OK MPD "
	ResponseOK     = "OK"
	ListOK         = "list_OK"
	AckPrefix      = "ACK "
	Newline        = "\n"
)

// Command list framing commands
const (
	CmdListBegin   = "command_list_begin"
	CmdListOKBegin = "command_list_ok_begin"
	CmdListEnd     = "command_list_end"
)

// Commands used by the connection itself
const (
	CmdPassword = "password"
	CmdPing     = "ping"
	CmdClose    = "close"
)

// Protocol limits
const (
	MaxLineLength = 64 << 10 // Longest reply line accepted by the reader
)

// AckCode is the numeric error code carried by an ACK line.
type AckCode int

const (
	AckNotList       AckCode = 1
	AckArg           AckCode = 2
	AckPassword      AckCode = 3
	AckPermission    AckCode = 4
	AckUnknown       AckCode = 5
	AckNoExist       AckCode = 50
	AckPlaylistMax   AckCode = 51
	AckSystem        AckCode = 52
	AckPlaylistLoad  AckCode = 53
	AckUpdateAlready AckCode = 54
	AckPlayerSync    AckCode = 55
	AckExist         AckCode = 56
)

func (c AckCode) String() string {
	switch c {
	case AckNotList:
		return "not_list"
	case AckArg:
		return "arg"
	case AckPassword:
		return "password"
	case AckPermission:
		return "permission"
	case AckUnknown:
		return "unknown"
	case AckNoExist:
		return "no_exist"
	case AckPlaylistMax:
		return "playlist_max"
	case AckSystem:
		return "system"
	case AckPlaylistLoad:
		return "playlist_load"
	case AckUpdateAlready:
		return "update_already"
	case AckPlayerSync:
		return "player_sync"
	case AckExist:
		return "exist"
	default:
		return "ack_" + strconv.Itoa(int(c))
	}
}

package protocol

import (
	"testing"

	"github.com/pior/mpd/response"
	"github.com/stretchr/testify/require"
)

func TestPairs(t *testing.T) {
	pairs, err := Pairs().Interpret("volume: 50\nstate: play\nTitle: a: b")
	require.NoError(t, err)
	require.Equal(t, []Pair{
		{Key: "volume", Value: "50"},
		{Key: "state", Value: "play"},
		{Key: "Title", Value: "a: b"},
	}, pairs)

	pairs, err = Pairs().Interpret("")
	require.NoError(t, err)
	require.Empty(t, pairs)

	_, err = Pairs().Interpret("volume: 50\ngarbage")
	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
}

func TestObjects(t *testing.T) {
	segment := "file: a.flac\nTitle: A\nTime: 12\nfile: b.flac\nTitle: B\ndirectory: music\nLast-Modified: 2024-01-01T00:00:00Z"

	objects, err := Objects("file", "directory").Interpret(segment)
	require.NoError(t, err)
	require.Len(t, objects, 3)

	title, ok := objects[1].Get("Title")
	require.True(t, ok)
	require.Equal(t, "B", title)

	dir, ok := objects[2].Get("directory")
	require.True(t, ok)
	require.Equal(t, "music", dir)

	_, ok = objects[0].Get("Artist")
	require.False(t, ok)
}

func TestObjectsWithoutLeadingDelimiter(t *testing.T) {
	objects, err := Objects("file").Interpret("volume: 50\nfile: a.flac")
	require.NoError(t, err)
	require.Equal(t, []Object{
		{{Key: "volume", Value: "50"}},
		{{Key: "file", Value: "a.flac"}},
	}, objects)
}

func TestValues(t *testing.T) {
	values, err := Values("Artist").Interpret("Artist: A\nAlbum: X\nartist: B")
	require.NoError(t, err)
	require.Equal(t, []string{"A", "B"}, values)
}

func TestKindString(t *testing.T) {
	require.Equal(t, "raw", Raw().Kind().String())
	require.Equal(t, "pairs", Pairs().Kind().String())
	require.Equal(t, "objects", Objects().Kind().String())
	require.Equal(t, "values", Values("x").Kind().String())
	require.Equal(t, "kind(9)", Kind(9).String())
}

func TestDecode(t *testing.T) {
	b := response.New(greeting, "volume: 50\nstate: play\n\nfile: a.flac", []int{1})

	raw, err := Decode(b, Raw())
	require.NoError(t, err)
	require.Equal(t, []string{"volume: 50\nstate: play", "", "file: a.flac"}, raw)

	pairs, err := Decode(b, Pairs())
	require.NoError(t, err)
	require.Len(t, pairs, 3)
	require.Equal(t, []Pair{{Key: "volume", Value: "50"}, {Key: "state", Value: "play"}}, pairs[0])
	require.Empty(t, pairs[1])
	require.Equal(t, []Pair{{Key: "file", Value: "a.flac"}}, pairs[2])
}

func TestDecodeCapacityBoundedByPayload(t *testing.T) {
	b := response.NewWithCount(greeting, "volume: 50", nil, 1<<30)

	raw, err := Decode(b, Raw())
	require.NoError(t, err)
	require.Equal(t, []string{"volume: 50"}, raw)
	require.LessOrEqual(t, cap(raw), len(b.Payload())+1)
}

func TestDecodeError(t *testing.T) {
	b := response.New(greeting, "volume: 50\nnot a pair", nil)

	_, err := Decode(b, Pairs())
	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	require.Contains(t, err.Error(), "segment 1 as pairs")
}

func TestDecodeAt(t *testing.T) {
	b := response.New(greeting, "volume: 50\nsong: 3", nil)

	values, err := DecodeAt(b, 1, Values("song"))
	require.NoError(t, err)
	require.Equal(t, []string{"3"}, values)

	// missing segment reads as an empty reply
	pairs, err := DecodeAt(b, 5, Pairs())
	require.NoError(t, err)
	require.Empty(t, pairs)
}

package transfer

import (
	"encoding/binary"
	"errors"
	"io"
	"sync"

	"github.com/pior/mpd/response"
)

// MaxFrameSize bounds the size of a single frame accepted by Read.
const MaxFrameSize = 64 << 20

const frameHeaderSize = 4

var frames = newBufferPool(4096)

// Write writes b to w as a length-prefixed frame.
func Write(w io.Writer, b *response.Batch) error {
	buf := frames.Get()
	defer frames.Put(buf)

	*buf = append((*buf)[:0], 0, 0, 0, 0)
	*buf = AppendEncode(*buf, b)

	size := len(*buf) - frameHeaderSize
	if size > MaxFrameSize {
		return ErrFrameTooLarge
	}
	binary.BigEndian.PutUint32((*buf)[:frameHeaderSize], uint32(size))

	_, err := w.Write(*buf)
	return err
}

// Read reads one frame written by Write and decodes it.
// A frame cut short is reported as a DecodeError wrapping ErrTruncated.
func Read(r io.Reader) (*response.Batch, error) {
	var header [frameHeaderSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, decodeError("frame", ErrTruncated)
		}
		return nil, err
	}

	size := binary.BigEndian.Uint32(header[:])
	if size > MaxFrameSize {
		return nil, decodeError("frame", ErrFrameTooLarge)
	}

	data := make([]byte, size)
	if _, err := io.ReadFull(r, data); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, decodeError("frame", ErrTruncated)
		}
		return nil, err
	}

	return Decode(data)
}

type bufferPool struct {
	pool sync.Pool
}

func newBufferPool(initialSize int) *bufferPool {
	return &bufferPool{
		pool: sync.Pool{
			New: func() any {
				buf := make([]byte, 0, initialSize)
				return &buf
			},
		},
	}
}

func (p *bufferPool) Get() *[]byte {
	return p.pool.Get().(*[]byte)
}

func (p *bufferPool) Put(buf *[]byte) {
	*buf = (*buf)[:0]
	p.pool.Put(buf)
}

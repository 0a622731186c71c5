// Package transfer moves a response.Batch across a process boundary.
//
// # Wire form
//
// All fixed-size integers are big-endian.
//
//	magic       4 bytes   "MPDB"
//	version     1 byte    1
//	flags       1 byte    bit 0: count is computed
//	count       4 bytes   int32, memoized segment count (or the default hint)
//	outcome     uvarint length + bytes
//	payload     uvarint length + bytes
//	exclude     uvarint count + count × varint
//	checksum    8 bytes   xxh3-64 of every preceding byte
//
// The count travels as data: decoding never splits the payload again.
package transfer

import (
	"encoding/binary"
	"math"

	"github.com/pior/mpd/response"
	"github.com/zeebo/xxh3"
)

const (
	Magic   = "MPDB"
	Version = 1

	headerSize   = len(Magic) + 1 + 1 + 4
	checksumSize = 8

	flagCounted = 1 << 0
)

// Encode returns the wire form of b.
func Encode(b *response.Batch) []byte {
	return AppendEncode(nil, b)
}

// AppendEncode appends the wire form of b to dst.
func AppendEncode(dst []byte, b *response.Batch) []byte {
	if b == nil {
		b = response.Empty()
	}

	start := len(dst)

	dst = append(dst, Magic...)
	dst = append(dst, Version)

	var flags byte
	if b.Counted() {
		flags |= flagCounted
	}
	dst = append(dst, flags)

	count := b.CountHint()
	if count > math.MaxInt32 {
		count = math.MaxInt32
	}
	dst = binary.BigEndian.AppendUint32(dst, uint32(int32(count)))

	dst = appendString(dst, b.ConnectionResult())
	dst = appendString(dst, b.Payload())

	exclude := b.ExcludeOffsets()
	dst = binary.AppendUvarint(dst, uint64(len(exclude)))
	for _, k := range exclude {
		dst = binary.AppendVarint(dst, int64(k))
	}

	return binary.BigEndian.AppendUint64(dst, xxh3.Hash(dst[start:]))
}

// Decode rebuilds the batch encoded in data. Data must hold exactly one
// encoded batch.
func Decode(data []byte) (*response.Batch, error) {
	if len(data) < headerSize+checksumSize {
		return nil, decodeError("header", ErrTruncated)
	}

	if string(data[:len(Magic)]) != Magic {
		return nil, decodeError("magic", ErrBadMagic)
	}
	if data[len(Magic)] != Version {
		return nil, decodeError("version", ErrUnsupportedVersion)
	}

	body := data[:len(data)-checksumSize]
	sum := binary.BigEndian.Uint64(data[len(data)-checksumSize:])
	if xxh3.Hash(body) != sum {
		return nil, decodeError("checksum", ErrChecksum)
	}

	flags := data[len(Magic)+1]
	count := int32(binary.BigEndian.Uint32(data[len(Magic)+2 : headerSize]))

	d := decoder{buf: body[headerSize:]}

	outcome, err := d.readString("outcome")
	if err != nil {
		return nil, err
	}
	payload, err := d.readString("payload")
	if err != nil {
		return nil, err
	}
	exclude, err := d.readOffsets("exclude")
	if err != nil {
		return nil, err
	}

	if len(d.buf) != 0 {
		return nil, decodeError("exclude", ErrTrailingData)
	}

	if flags&flagCounted == 0 {
		return response.New(outcome, payload, exclude), nil
	}
	// a payload of n bytes holds at most n+1 segments
	if count < 0 || int(count) > len(payload)+1 {
		return nil, decodeError("count", ErrInvalidCount)
	}
	return response.NewWithCount(outcome, payload, exclude, int(count)), nil
}

func appendString(dst []byte, s string) []byte {
	dst = binary.AppendUvarint(dst, uint64(len(s)))
	return append(dst, s...)
}

type decoder struct {
	buf []byte
}

func (d *decoder) readUvarint(field string) (uint64, error) {
	v, n := binary.Uvarint(d.buf)
	if n <= 0 {
		return 0, decodeError(field, ErrTruncated)
	}
	d.buf = d.buf[n:]
	return v, nil
}

func (d *decoder) readString(field string) (string, error) {
	size, err := d.readUvarint(field)
	if err != nil {
		return "", err
	}
	if size > uint64(len(d.buf)) {
		return "", decodeError(field, ErrTruncated)
	}
	s := string(d.buf[:size])
	d.buf = d.buf[size:]
	return s, nil
}

func (d *decoder) readOffsets(field string) ([]int, error) {
	n, err := d.readUvarint(field)
	if err != nil {
		return nil, err
	}
	// every varint takes at least one byte
	if n > uint64(len(d.buf)) {
		return nil, decodeError(field, ErrTruncated)
	}
	if n == 0 {
		return nil, nil
	}

	offsets := make([]int, n)
	for i := range offsets {
		v, size := binary.Varint(d.buf)
		if size <= 0 {
			return nil, decodeError(field, ErrTruncated)
		}
		d.buf = d.buf[size:]

		offsets[i] = int(v)
		if i > 0 && offsets[i] <= offsets[i-1] {
			return nil, decodeError(field, ErrInvalidOffsets)
		}
	}
	return offsets, nil
}

package buffer

import (
	"encoding/binary"
	"errors"
)

// ErrShortBuffer is returned when a read runs past the end of the data.
var ErrShortBuffer = errors.New("buffer: read past end of data")

// Reader reads a window of a byte slice that starts at a fixed base.
// Offsets reported by the Reader are relative to that base.
type Reader struct {
	data   []byte
	base   int
	offset int
	slots  Slots
}

// NewReader creates a Reader over data[base:end]. An end outside the
// slice is clamped to len(data).
func NewReader(data []byte, base, end int) *Reader {
	if end < 0 || end > len(data) {
		end = len(data)
	}
	if base > end {
		base = end
	}
	return &Reader{data: data[:end], base: base}
}

// Offset returns the read position relative to the reader base.
func (r *Reader) Offset() int {
	return r.offset
}

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int {
	return len(r.data) - r.base - r.offset
}

// HasData reports whether any unread bytes remain.
func (r *Reader) HasData() bool {
	return r.Remaining() > 0
}

func (r *Reader) at(offset, n int) ([]byte, error) {
	start := r.base + offset
	if offset < 0 || n < 0 || start+n > len(r.data) {
		return nil, ErrShortBuffer
	}
	return r.data[start : start+n], nil
}

// ReadByte reads a single byte.
func (r *Reader) ReadByte() (byte, error) {
	b, err := r.at(r.offset, 1)
	if err != nil {
		return 0, err
	}
	r.offset++
	return b[0], nil
}

// ReadUint reads a big-endian unsigned value of the given width.
func (r *Reader) ReadUint(width int) (uint64, error) {
	b, err := r.at(r.offset, width)
	if err != nil {
		return 0, err
	}
	r.offset += width
	return getUint(b, width), nil
}

// ReadU32 reads a big-endian uint32.
func (r *Reader) ReadU32() (uint32, error) {
	v, err := r.ReadUint(4)
	return uint32(v), err
}

// ReadBytes reads exactly n bytes. The result aliases the input.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	b, err := r.at(r.offset, n)
	if err != nil {
		return nil, err
	}
	r.offset += n
	return b, nil
}

// ReadStream reads a u32 length-prefixed block and skips its padding. A
// zero or negative length yields an empty block.
func (r *Reader) ReadStream() ([]byte, error) {
	size, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	var out []byte
	if n := int(int32(size)); n > 0 {
		if out, err = r.ReadBytes(n); err != nil {
			return nil, err
		}
	}
	r.Realign()
	return out, nil
}

// ReadArray reads a u32 byte size followed by size/width values.
func (r *Reader) ReadArray(width int) ([]uint64, error) {
	size, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	n := int(size) / width
	if n > r.Remaining()/width {
		return nil, ErrShortBuffer
	}
	out := make([]uint64, n)
	for i := range out {
		if out[i], err = r.ReadUint(width); err != nil {
			return nil, err
		}
	}
	r.Realign()
	return out, nil
}

// ReadPacked mirrors Writer.WritePacked for count components of the
// given width, then moves past whatever the slot cursors have consumed.
func (r *Reader) ReadPacked(width, count int) ([]uint64, error) {
	r.slots.anchor(r.offset)

	out := make([]uint64, count)
	switch width * count {
	case 1:
		for i := range out {
			b, err := r.at(r.slots.Byte, width)
			if err != nil {
				return nil, err
			}
			out[i] = getUint(b, width)
			r.slots.Byte += width
		}
	case 2:
		for i := range out {
			b, err := r.at(r.slots.Word, width)
			if err != nil {
				return nil, err
			}
			out[i] = getUint(b, width)
			r.slots.Word += width
		}
	default:
		for i := range out {
			v, err := r.ReadUint(width)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		r.Realign()
	}

	if trailing := max(r.slots.Byte, r.slots.Word); r.offset < trailing {
		r.offset = trailing
		r.Realign()
	}
	return out, nil
}

// Realign skips to the next Alignment boundary.
func (r *Reader) Realign() {
	if pad := r.offset % Alignment; pad != 0 {
		r.offset += Alignment - pad
	}
}

func getUint(b []byte, width int) uint64 {
	switch width {
	case 1:
		return uint64(b[0])
	case 2:
		return uint64(binary.BigEndian.Uint16(b))
	case 4:
		return uint64(binary.BigEndian.Uint32(b))
	case 8:
		return binary.BigEndian.Uint64(b)
	default:
		panic("buffer: unsupported width")
	}
}

// Package buffer provides the big-endian byte buffers the KBin codec is
// built on: exact-width integer access, 4-byte aligned length-prefixed
// blocks, and the packed-slot mode that lets 1- and 2-byte scalars share
// 4-byte slots instead of each being padded.
package buffer

import "encoding/binary"

// Alignment is the boundary every block in a KBin section is padded to.
const Alignment = 4

// Slots tracks the two packed-slot cursors. A cursor is re-anchored to
// the current offset only while it sits on an Alignment boundary, which
// lets consecutive small values share one slot across sibling nodes.
type Slots struct {
	Byte int
	Word int
}

func (s *Slots) anchor(offset int) {
	if s.Byte%Alignment == 0 {
		s.Byte = offset
	}
	if s.Word%Alignment == 0 {
		s.Word = offset
	}
}

// Writer is an auto-growing write buffer. A Writer belongs to a single
// encode call and must not be shared.
type Writer struct {
	buf    []byte
	offset int
	slots  Slots
}

// NewWriter creates a Writer with the given initial capacity.
func NewWriter(capacity int) *Writer {
	if capacity < 1 {
		capacity = 32
	}
	return &Writer{buf: make([]byte, capacity)}
}

// Len returns the number of bytes written.
func (w *Writer) Len() int {
	return w.offset
}

// Bytes returns the written bytes. The slice aliases the buffer.
func (w *Writer) Bytes() []byte {
	return w.buf[:w.offset]
}

// Slots returns the current packed-slot cursors.
func (w *Writer) Slots() Slots {
	return w.slots
}

func (w *Writer) grow(n int) {
	capacity := len(w.buf)
	for w.offset+n > capacity {
		capacity *= 2
	}
	if capacity != len(w.buf) {
		next := make([]byte, capacity)
		copy(next, w.buf[:w.offset])
		w.buf = next
	}
}

// WriteByte appends a single byte.
func (w *Writer) WriteByte(b byte) error {
	w.grow(1)
	w.buf[w.offset] = b
	w.offset++
	return nil
}

// WriteUint appends the low width bytes of v in big-endian order. Width
// must be 1, 2, 4 or 8.
func (w *Writer) WriteUint(width int, v uint64) {
	w.grow(width)
	putUint(w.buf[w.offset:], width, v)
	w.offset += width
}

// WriteU32 appends a big-endian uint32.
func (w *Writer) WriteU32(v uint32) {
	w.WriteUint(4, uint64(v))
}

// WriteBytes appends p verbatim.
func (w *Writer) WriteBytes(p []byte) {
	w.grow(len(p))
	copy(w.buf[w.offset:], p)
	w.offset += len(p)
}

// WriteStream appends a u32 length, the bytes, and zero padding up to
// the next Alignment boundary.
func (w *Writer) WriteStream(p []byte) {
	w.WriteU32(uint32(len(p)))
	w.WriteBytes(p)
	w.Realign()
}

// WriteArray appends a u32 byte size followed by every value at the
// given width, then realigns.
func (w *Writer) WriteArray(width int, values []uint64) {
	w.WriteU32(uint32(len(values) * width))
	for _, v := range values {
		w.WriteUint(width, v)
	}
	w.Realign()
}

// WritePacked writes the components of one non-array value. Values whose
// total size is 1 or 2 bytes go into shared slots; anything larger is
// written in place and realigned.
func (w *Writer) WritePacked(width int, values []uint64) {
	w.slots.anchor(w.offset)

	switch len(values) * width {
	case 1:
		if w.slots.Byte%Alignment == 0 {
			w.WriteU32(0)
		}
		for _, v := range values {
			putUint(w.buf[w.slots.Byte:], width, v)
			w.slots.Byte += width
		}
	case 2:
		if w.slots.Word%Alignment == 0 {
			w.WriteU32(0)
		}
		for _, v := range values {
			putUint(w.buf[w.slots.Word:], width, v)
			w.slots.Word += width
		}
	default:
		for _, v := range values {
			w.WriteUint(width, v)
		}
		w.Realign()
	}
}

// Realign pads with zeros up to the next Alignment boundary.
func (w *Writer) Realign() {
	if pad := w.offset % Alignment; pad != 0 {
		w.grow(Alignment - pad)
		clear(w.buf[w.offset : w.offset+Alignment-pad])
		w.offset += Alignment - pad
	}
}

func putUint(b []byte, width int, v uint64) {
	switch width {
	case 1:
		b[0] = byte(v)
	case 2:
		binary.BigEndian.PutUint16(b, uint16(v))
	case 4:
		binary.BigEndian.PutUint32(b, uint32(v))
	case 8:
		binary.BigEndian.PutUint64(b, v)
	default:
		panic("buffer: unsupported width")
	}
}

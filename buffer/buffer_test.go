package buffer

import (
	"bytes"
	"errors"
	"testing"
)

func TestWriterGrowsByDoubling(t *testing.T) {
	w := NewWriter(2)
	w.WriteBytes([]byte{1, 2, 3, 4, 5})

	if w.Len() != 5 {
		t.Fatalf("Expected length 5, got %d", w.Len())
	}
	if cap(w.buf) != 8 {
		t.Errorf("Expected capacity 8, got %d", cap(w.buf))
	}
	if !bytes.Equal(w.Bytes(), []byte{1, 2, 3, 4, 5}) {
		t.Errorf("Unexpected bytes %x", w.Bytes())
	}
}

func TestWriterWriteUint(t *testing.T) {
	w := NewWriter(0)
	w.WriteUint(1, 0xAB)
	w.WriteUint(2, 0x1234)
	w.WriteUint(4, 0xDEADBEEF)
	w.WriteUint(8, 0x0102030405060708)

	expected := []byte{0xAB, 0x12, 0x34, 0xDE, 0xAD, 0xBE, 0xEF, 1, 2, 3, 4, 5, 6, 7, 8}
	if !bytes.Equal(w.Bytes(), expected) {
		t.Errorf("Expected %x, got %x", expected, w.Bytes())
	}
}

func TestWriterWriteStream(t *testing.T) {
	w := NewWriter(0)
	w.WriteStream([]byte("hello\x00"))

	expected := []byte{0, 0, 0, 6, 'h', 'e', 'l', 'l', 'o', 0, 0, 0}
	if !bytes.Equal(w.Bytes(), expected) {
		t.Errorf("Expected %x, got %x", expected, w.Bytes())
	}
}

func TestWriterWriteArray(t *testing.T) {
	w := NewWriter(0)
	w.WriteArray(2, []uint64{1, 2, 3})

	expected := []byte{0, 0, 0, 6, 0, 1, 0, 2, 0, 3, 0, 0}
	if !bytes.Equal(w.Bytes(), expected) {
		t.Errorf("Expected %x, got %x", expected, w.Bytes())
	}
}

func TestWriterPackedBytesShareSlot(t *testing.T) {
	w := NewWriter(0)
	w.WritePacked(1, []uint64{1})
	w.WritePacked(1, []uint64{2})
	w.WritePacked(1, []uint64{3})
	w.WritePacked(4, []uint64{0x0A0B0C0D})

	expected := []byte{1, 2, 3, 0, 0x0A, 0x0B, 0x0C, 0x0D}
	if !bytes.Equal(w.Bytes(), expected) {
		t.Errorf("Expected %x, got %x", expected, w.Bytes())
	}
}

func TestWriterPackedFifthByteOpensNewSlot(t *testing.T) {
	w := NewWriter(0)
	for i := 1; i <= 5; i++ {
		w.WritePacked(1, []uint64{uint64(i)})
	}

	expected := []byte{1, 2, 3, 4, 5, 0, 0, 0}
	if !bytes.Equal(w.Bytes(), expected) {
		t.Errorf("Expected %x, got %x", expected, w.Bytes())
	}
}

func TestWriterPackedInterleavesBytesAndWords(t *testing.T) {
	w := NewWriter(0)
	w.WritePacked(1, []uint64{0x11})
	w.WritePacked(2, []uint64{0x2222})
	w.WritePacked(1, []uint64{0x33})
	w.WritePacked(1, []uint64{0x44, 0x55})
	w.WritePacked(2, []uint64{0x6666})

	// The two-component u8 value is two bytes wide, so it takes word
	// slots rather than byte slots.
	expected := []byte{
		0x11, 0x33, 0, 0,
		0x22, 0x22, 0x44, 0x55,
		0x66, 0x66, 0, 0,
	}
	if !bytes.Equal(w.Bytes(), expected) {
		t.Errorf("Expected %x, got %x", expected, w.Bytes())
	}
}

func TestWriterPackedWideValuesAlign(t *testing.T) {
	w := NewWriter(0)
	w.WritePacked(1, []uint64{1, 2, 3})

	expected := []byte{1, 2, 3, 0}
	if !bytes.Equal(w.Bytes(), expected) {
		t.Errorf("Expected %x, got %x", expected, w.Bytes())
	}
}

func TestReaderReadUint(t *testing.T) {
	r := NewReader([]byte{0xFF, 0xAB, 0x12, 0x34}, 1, -1)

	v, err := r.ReadUint(1)
	if err != nil || v != 0xAB {
		t.Fatalf("Expected 0xAB, got %x (%v)", v, err)
	}
	v, err = r.ReadUint(2)
	if err != nil || v != 0x1234 {
		t.Fatalf("Expected 0x1234, got %x (%v)", v, err)
	}
	if r.HasData() {
		t.Error("Expected reader to be exhausted")
	}
	if _, err := r.ReadUint(1); !errors.Is(err, ErrShortBuffer) {
		t.Errorf("Expected ErrShortBuffer, got %v", err)
	}
}

func TestReaderRespectsEnd(t *testing.T) {
	r := NewReader([]byte{1, 2, 3, 4}, 0, 2)
	if _, err := r.ReadBytes(3); !errors.Is(err, ErrShortBuffer) {
		t.Errorf("Expected ErrShortBuffer, got %v", err)
	}
}

func TestReaderReadStream(t *testing.T) {
	r := NewReader([]byte{0, 0, 0, 6, 'h', 'e', 'l', 'l', 'o', 0, 0, 0, 0xEE}, 0, -1)

	s, err := r.ReadStream()
	if err != nil {
		t.Fatalf("ReadStream() failed: %v", err)
	}
	if string(s) != "hello\x00" {
		t.Errorf("Expected 'hello\\x00', got %q", s)
	}
	if r.Offset() != 12 {
		t.Errorf("Expected offset 12, got %d", r.Offset())
	}
}

func TestReaderReadArrayRejectsOversize(t *testing.T) {
	r := NewReader([]byte{0, 0, 1, 0, 1, 2}, 0, -1)
	if _, err := r.ReadArray(1); !errors.Is(err, ErrShortBuffer) {
		t.Errorf("Expected ErrShortBuffer, got %v", err)
	}
}

func TestPackedRoundTrip(t *testing.T) {
	type op struct {
		width  int
		values []uint64
	}
	ops := []op{
		{1, []uint64{0x01}},
		{2, []uint64{0x0203}},
		{4, []uint64{0x04050607}},
		{1, []uint64{0x08}},
		{1, []uint64{0x09, 0x0A}},
		{8, []uint64{0x0B0C0D0E0F101112}},
		{1, []uint64{0x13}},
		{1, []uint64{0x14}},
		{2, []uint64{0x1516}},
		{1, []uint64{0x17, 0x18, 0x19}},
		{1, []uint64{0x1A}},
	}

	w := NewWriter(0)
	for _, o := range ops {
		w.WritePacked(o.width, o.values)
	}

	// Prefix a length word the way a KBin data section does so the
	// reader starts at offset 4 rather than 0.
	data := append([]byte{0, 0, 0, byte(w.Len())}, w.Bytes()...)
	r := NewReader(data, 0, -1)
	if _, err := r.ReadU32(); err != nil {
		t.Fatalf("ReadU32() failed: %v", err)
	}

	for i, o := range ops {
		got, err := r.ReadPacked(o.width, len(o.values))
		if err != nil {
			t.Fatalf("op %d: ReadPacked() failed: %v", i, err)
		}
		for j := range got {
			if got[j] != o.values[j] {
				t.Errorf("op %d: Expected %x, got %x", i, o.values[j], got[j])
			}
		}
	}
	if r.Offset() != len(data) {
		t.Errorf("Expected reader at %d, got %d", len(data), r.Offset())
	}
}

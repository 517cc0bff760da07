// Package sixbit packs node and attribute names into six bits per
// character over a fixed 64-symbol alphabet.
package sixbit

import (
	"errors"
	"fmt"
	"io"
)

// Alphabet lists the encodable characters in code order.
const Alphabet = "0123456789:ABCDEFGHIJKLMNOPQRSTUVWXYZ_abcdefghijklmnopqrstuvwxyz"

// MaxLength is the longest name the one-byte length prefix can describe.
const MaxLength = 255

var (
	// ErrInvalidChar is returned when a name contains a character
	// outside Alphabet.
	ErrInvalidChar = errors.New("sixbit: character not in alphabet")
	// ErrTooLong is returned when a name exceeds MaxLength.
	ErrTooLong = errors.New("sixbit: name too long")
)

var codes [256]int8

func init() {
	for i := range codes {
		codes[i] = -1
	}
	for i := 0; i < len(Alphabet); i++ {
		codes[Alphabet[i]] = int8(i)
	}
}

// Valid reports whether name can be packed.
func Valid(name string) bool {
	if len(name) > MaxLength {
		return false
	}
	for i := 0; i < len(name); i++ {
		if codes[name[i]] < 0 {
			return false
		}
	}
	return true
}

// PackedLen returns the encoded size of a name of n characters,
// including the length byte.
func PackedLen(n int) int {
	return 1 + (n*6+7)/8
}

// Pack encodes name as a length byte followed by the packed codes, most
// significant bit first, with the final byte zero-filled in its low bits.
func Pack(name string) ([]byte, error) {
	if len(name) > MaxLength {
		return nil, fmt.Errorf("%w: %d characters", ErrTooLong, len(name))
	}
	out := make([]byte, PackedLen(len(name)))
	out[0] = byte(len(name))

	var acc uint32
	bits := 0
	pos := 1
	for i := 0; i < len(name); i++ {
		code := codes[name[i]]
		if code < 0 {
			return nil, fmt.Errorf("%w: %q in %q", ErrInvalidChar, name[i], name)
		}
		acc = acc<<6 | uint32(code)
		bits += 6
		if bits >= 8 {
			bits -= 8
			out[pos] = byte(acc >> bits)
			acc &= 1<<bits - 1
			pos++
		}
	}
	if bits > 0 {
		out[pos] = byte(acc << (8 - bits))
	}
	return out, nil
}

// Unpack reads one packed name from r.
func Unpack(r io.ByteReader) (string, error) {
	length, err := r.ReadByte()
	if err != nil {
		return "", err
	}

	out := make([]byte, length)
	var acc uint32
	bits := 0
	for i := range out {
		if bits < 6 {
			b, err := r.ReadByte()
			if err != nil {
				if err == io.EOF {
					err = io.ErrUnexpectedEOF
				}
				return "", err
			}
			acc = acc<<8 | uint32(b)
			bits += 8
		}
		bits -= 6
		out[i] = Alphabet[acc>>bits]
		acc &= 1<<bits - 1
	}
	return string(out), nil
}

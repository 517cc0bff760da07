package transform

import "errors"

// ErrCorruptLZ77 is returned when an lz77 stream ends without its
// terminator or holds a back reference with a zero offset.
var ErrCorruptLZ77 = errors.New("transform: corrupt lz77 stream")

const (
	lzWindow    = 0x1000
	lzMinMatch  = 3
	lzMaxMatch  = 0x0F + lzMinMatch
	lzMaxOffset = lzWindow - 1
)

// LZ77 is the X-Compress "lz77" scheme. Every flag byte governs eight
// tokens, least significant bit first: a set bit is a literal byte and a
// clear bit a big-endian word holding a 12-bit back offset and a 4-bit
// length less three. The word 0 ends the stream. Offsets reaching before
// the start of the output read zeros.
type LZ77 struct{}

func (LZ77) Name() string { return "lz77" }

func (LZ77) Inflate(data []byte) ([]byte, error) {
	out := make([]byte, 0, len(data)*2)
	pos := 0
	for {
		if pos >= len(data) {
			return nil, ErrCorruptLZ77
		}
		flags := data[pos]
		pos++
		for bit := 0; bit < 8; bit++ {
			if flags&(1<<bit) != 0 {
				if pos >= len(data) {
					return nil, ErrCorruptLZ77
				}
				out = append(out, data[pos])
				pos++
				continue
			}
			if pos+1 >= len(data) {
				return nil, ErrCorruptLZ77
			}
			word := int(data[pos])<<8 | int(data[pos+1])
			pos += 2
			if word == 0 {
				return out, nil
			}
			offset := word >> 4
			if offset == 0 {
				return nil, ErrCorruptLZ77
			}
			length := word&0x0F + lzMinMatch
			for i := 0; i < length; i++ {
				if offset > len(out) {
					out = append(out, 0)
				} else {
					out = append(out, out[len(out)-offset])
				}
			}
		}
	}
}

func (LZ77) Deflate(data []byte) ([]byte, error) {
	out := make([]byte, 0, len(data)+len(data)/8+3)

	// head maps a three byte prefix to its latest position; prev chains
	// earlier positions with the same prefix.
	head := make(map[[3]byte]int, len(data))
	prev := make([]int, len(data))
	insert := func(i int) {
		if i+lzMinMatch > len(data) {
			return
		}
		k := [3]byte{data[i], data[i+1], data[i+2]}
		if p, ok := head[k]; ok {
			prev[i] = p
		} else {
			prev[i] = -1
		}
		head[k] = i
	}

	flagPos, bit := -1, 8
	token := func() {
		if bit == 8 {
			flagPos = len(out)
			out = append(out, 0)
			bit = 0
		}
		bit++
	}

	i := 0
	for i < len(data) {
		bestLen, bestOff := 0, 0
		if i+lzMinMatch <= len(data) {
			k := [3]byte{data[i], data[i+1], data[i+2]}
			p, ok := head[k]
			for steps := 0; ok && p >= 0 && i-p <= lzMaxOffset && steps < 64; steps++ {
				n := 0
				for n < lzMaxMatch && i+n < len(data) && data[p+n] == data[i+n] {
					n++
				}
				if n > bestLen {
					bestLen, bestOff = n, i-p
					if n == lzMaxMatch {
						break
					}
				}
				p = prev[p]
			}
		}

		token()
		if bestLen >= lzMinMatch {
			word := bestOff<<4 | (bestLen - lzMinMatch)
			out = append(out, byte(word>>8), byte(word))
			for j := 0; j < bestLen; j++ {
				insert(i + j)
			}
			i += bestLen
			continue
		}
		out[flagPos] |= 1 << (bit - 1)
		out = append(out, data[i])
		insert(i)
		i++
	}

	token()
	out = append(out, 0, 0)
	return out, nil
}

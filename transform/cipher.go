// Package transform handles the transport framing around a KBin or XML
// payload: the RC4 stream cipher keyed by the X-Eamuse-Info header and
// the X-Compress body compression.
package transform

import (
	"crypto/md5"
	"crypto/rand"
	"crypto/rc4"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// ErrBadPublicKey is returned for an X-Eamuse-Info value that is not of
// the form 1-xxxxxxxx-xxxx.
var ErrBadPublicKey = errors.New("transform: malformed public key")

// keySuffix is the fixed tail of every cipher key. The six leading bytes
// come from the public key.
var keySuffix = [26]byte{
	0x69, 0xd7, 0x46, 0x27, 0xd9, 0x85, 0xee, 0x21, 0x87, 0x16, 0x15, 0x70, 0xd0,
	0x8d, 0x93, 0xb1, 0x24, 0x55, 0x03, 0x5b, 0x6d, 0xf0, 0xd8, 0x20, 0x5d, 0xf5,
}

// Cipher is the symmetric payload cipher. Apply both encrypts and
// decrypts.
type Cipher struct {
	key     [32]byte
	realKey [md5.Size]byte
}

// NewCipher derives the cipher named by an X-Eamuse-Info value such as
// "1-5cfb8b00-a8b3".
func NewCipher(publicKey string) (*Cipher, error) {
	parts := strings.Split(strings.TrimSpace(publicKey), "-")
	if len(parts) != 3 || len(parts[1]) != 8 || len(parts[2]) != 4 {
		return nil, fmt.Errorf("%w: %q", ErrBadPublicKey, publicKey)
	}
	prefix, err := hex.DecodeString(parts[1] + parts[2])
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrBadPublicKey, publicKey)
	}
	return newCipher(prefix), nil
}

// NewRandomCipher creates a cipher with a fresh random public key, used
// to encrypt responses.
func NewRandomCipher() (*Cipher, error) {
	prefix := make([]byte, 6)
	if _, err := rand.Read(prefix); err != nil {
		return nil, err
	}
	return newCipher(prefix), nil
}

func newCipher(prefix []byte) *Cipher {
	c := &Cipher{}
	copy(c.key[:6], prefix)
	copy(c.key[6:], keySuffix[:])
	c.realKey = md5.Sum(c.key[:])
	return c
}

// PublicKey returns the X-Eamuse-Info value for the cipher.
func (c *Cipher) PublicKey() string {
	return "1-" + hex.EncodeToString(c.key[0:4]) + "-" + hex.EncodeToString(c.key[4:6])
}

// Apply runs the key stream over data and returns the result in a new
// slice. Each call starts the stream from the beginning.
func (c *Cipher) Apply(data []byte) []byte {
	// rc4.NewCipher only fails for keys outside 1..256 bytes.
	stream, _ := rc4.NewCipher(c.realKey[:])
	out := make([]byte, len(data))
	stream.XORKeyStream(out, data)
	return out
}

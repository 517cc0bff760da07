package transform

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/RobertWHurst/kbin"
)

// CompressNone is the X-Compress value for an uncompressed body.
const CompressNone = "none"

// CompressThreshold is the body size above which Wrap compresses.
const CompressThreshold = 500

// Compressor is one X-Compress scheme.
type Compressor interface {
	Name() string
	Inflate(data []byte) ([]byte, error)
	Deflate(data []byte) ([]byte, error)
}

var (
	compressorsMu sync.RWMutex
	compressors   = map[string]Compressor{}
)

func init() {
	Register(LZ77{})
}

// Register makes a compressor available under its name.
func Register(c Compressor) {
	compressorsMu.Lock()
	defer compressorsMu.Unlock()
	compressors[c.Name()] = c
}

// Lookup returns the compressor registered under name. The "none" scheme
// and the empty name have no compressor.
func Lookup(name string) (Compressor, bool) {
	compressorsMu.RLock()
	defer compressorsMu.RUnlock()
	c, ok := compressors[name]
	return c, ok
}

// Framing describes how a body travels: the X-Eamuse-Info public key,
// empty when the body is in the clear, and the X-Compress scheme.
type Framing struct {
	Info     string
	Compress string
}

// Encrypted reports whether the body is encrypted.
func (f Framing) Encrypted() bool {
	return f.Info != ""
}

// Unwrap decrypts and then inflates a request body.
func Unwrap(body []byte, f Framing) ([]byte, error) {
	if f.Encrypted() {
		c, err := NewCipher(f.Info)
		if err != nil {
			return nil, err
		}
		body = c.Apply(body)
	}

	if f.Compress == "" || f.Compress == CompressNone {
		return body, nil
	}
	comp, ok := Lookup(f.Compress)
	if !ok {
		return nil, fmt.Errorf("transform: unknown compression %q", f.Compress)
	}
	out, err := comp.Inflate(body)
	if err != nil {
		return nil, fmt.Errorf("transform: %s inflate: %w", f.Compress, err)
	}
	kbin.Logger().Debug("body inflated",
		zap.String("compress", f.Compress),
		zap.Int("in", len(body)),
		zap.Int("out", len(out)),
	)
	return out, nil
}

// Wrap prepares a response body the way the request arrived. Bodies over
// CompressThreshold bytes are compressed with f.Compress; an encrypted
// request gets a response under a fresh random key. The returned Framing
// holds the header values to send.
func Wrap(body []byte, f Framing) ([]byte, Framing, error) {
	out := Framing{Compress: CompressNone}

	if f.Compress != "" && f.Compress != CompressNone && len(body) > CompressThreshold {
		comp, ok := Lookup(f.Compress)
		if !ok {
			return nil, Framing{}, fmt.Errorf("transform: unknown compression %q", f.Compress)
		}
		deflated, err := comp.Deflate(body)
		if err != nil {
			return nil, Framing{}, fmt.Errorf("transform: %s deflate: %w", f.Compress, err)
		}
		body = deflated
		out.Compress = comp.Name()
	}

	if f.Encrypted() {
		c, err := NewRandomCipher()
		if err != nil {
			return nil, Framing{}, err
		}
		body = c.Apply(body)
		out.Info = c.PublicKey()
	}

	return body, out, nil
}

// Package msgpackencoder carries trees as MessagePack maps holding their
// object view.
package msgpackencoder

import (
	"github.com/vmihailenco/msgpack/v5"

	"github.com/RobertWHurst/kbin"
)

// Encoder implements kbin.Encoder using MessagePack binary serialization.
type Encoder struct{}

var _ kbin.Encoder = &Encoder{}

// Encode serializes v to MessagePack bytes.
func (e *Encoder) Encode(v any) ([]byte, error) {
	if obj, ok := kbin.ObjectOf(v); ok {
		return msgpack.Marshal(obj)
	}
	return msgpack.Marshal(v)
}

// Decode deserializes MessagePack bytes into v.
func (d *Encoder) Decode(data []byte, v any) error {
	if !kbin.IsTreeTarget(v) {
		return msgpack.Unmarshal(data, v)
	}
	var obj map[string]any
	if err := msgpack.Unmarshal(data, &obj); err != nil {
		return err
	}
	return kbin.AssignObject(v, obj)
}

// New creates a new MessagePack encoder.
func New() *Encoder {
	return &Encoder{}
}

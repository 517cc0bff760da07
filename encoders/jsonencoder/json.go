// Package jsonencoder carries trees as the JSON rendering of their object
// view. Values that are not trees are passed to encoding/json unchanged.
package jsonencoder

import (
	"encoding/json"

	"github.com/RobertWHurst/kbin"
)

// Encoder implements kbin.Encoder using JSON serialization.
type Encoder struct{}

var _ kbin.Encoder = &Encoder{}

// Encode serializes v to JSON bytes.
func (e *Encoder) Encode(v any) ([]byte, error) {
	if obj, ok := kbin.ObjectOf(v); ok {
		return json.Marshal(obj)
	}
	return json.Marshal(v)
}

// Decode deserializes JSON bytes into v.
func (d *Encoder) Decode(data []byte, v any) error {
	if !kbin.IsTreeTarget(v) {
		return json.Unmarshal(data, v)
	}
	var obj map[string]any
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	return kbin.AssignObject(v, obj)
}

// New creates a new JSON encoder.
func New() *Encoder {
	return &Encoder{}
}

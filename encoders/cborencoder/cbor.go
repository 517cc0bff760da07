// Package cborencoder carries trees as CBOR maps holding their object
// view. Output uses core deterministic encoding, so equal trees produce
// identical bytes.
package cborencoder

import (
	"reflect"

	"github.com/fxamacker/cbor/v2"

	"github.com/RobertWHurst/kbin"
)

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error

	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("cborencoder: encoder initialization failed: " + err.Error())
	}

	decMode, err = cbor.DecOptions{
		// The object view is keyed by strings only.
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	}.DecMode()
	if err != nil {
		panic("cborencoder: decoder initialization failed: " + err.Error())
	}
}

// Encoder implements kbin.Encoder using CBOR.
type Encoder struct{}

var _ kbin.Encoder = &Encoder{}

func (e *Encoder) Encode(v any) ([]byte, error) {
	if obj, ok := kbin.ObjectOf(v); ok {
		return encMode.Marshal(obj)
	}
	return encMode.Marshal(v)
}

func (d *Encoder) Decode(data []byte, v any) error {
	if !kbin.IsTreeTarget(v) {
		return decMode.Unmarshal(data, v)
	}
	var obj map[string]any
	if err := decMode.Unmarshal(data, &obj); err != nil {
		return err
	}
	return kbin.AssignObject(v, obj)
}

func New() *Encoder {
	return &Encoder{}
}

package protobufencoder

import (
	"fmt"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/RobertWHurst/kbin"
)

// Encoder implements kbin.Encoder with Protocol Buffers. Trees travel as
// a google.protobuf.Struct holding their object view; other values must
// implement proto.Message.
type Encoder struct{}

var _ kbin.Encoder = &Encoder{}

func (e *Encoder) Encode(v any) ([]byte, error) {
	if obj, ok := kbin.ObjectOf(v); ok {
		s, err := structpb.NewStruct(obj)
		if err != nil {
			return nil, err
		}
		return proto.Marshal(s)
	}
	if m, ok := v.(proto.Message); ok {
		return proto.Marshal(m)
	}
	return nil, fmt.Errorf("v must be a tree or implement proto.Message")
}

func (e *Encoder) Decode(data []byte, v any) error {
	if kbin.IsTreeTarget(v) {
		s := &structpb.Struct{}
		if err := proto.Unmarshal(data, s); err != nil {
			return err
		}
		return kbin.AssignObject(v, s.AsMap())
	}
	if m, ok := v.(proto.Message); ok {
		return proto.Unmarshal(data, m)
	}
	return fmt.Errorf("v must be a tree or implement proto.Message")
}

func New() *Encoder {
	return &Encoder{}
}

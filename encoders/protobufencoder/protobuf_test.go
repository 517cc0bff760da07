package protobufencoder

import (
	"testing"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/RobertWHurst/kbin"
)

func testTree() *kbin.Node {
	return kbin.NewResponse("facility", 0,
		kbin.NewNode("location").Add(
			kbin.NewItem("id", kbin.Str("EA000001")),
			kbin.NewItem("country", kbin.Str("JP")),
		),
		kbin.NewItem("line", kbin.Scalar(kbin.TypeU8, kbin.Uint(1))),
	)
}

func TestEncoderTreeRoundTrip(t *testing.T) {
	encoder := New()

	encoded, err := encoder.Encode(testTree())
	if err != nil {
		t.Fatalf("Encode() failed: %v", err)
	}

	var decoded *kbin.Node
	if err := encoder.Decode(encoded, &decoded); err != nil {
		t.Fatalf("Decode() failed: %v", err)
	}

	if !decoded.Equal(testTree()) {
		t.Errorf("Expected %s, got %s", testTree(), decoded)
	}
}

func TestEncoderTreeIsStruct(t *testing.T) {
	encoded, err := New().Encode(testTree())
	if err != nil {
		t.Fatalf("Encode() failed: %v", err)
	}

	s := &structpb.Struct{}
	if err := proto.Unmarshal(encoded, s); err != nil {
		t.Fatalf("Unmarshal() failed: %v", err)
	}
	if _, ok := s.Fields["response"]; !ok {
		t.Errorf("Expected root field 'response', got %v", s.Fields)
	}
}

func TestEncoderEncodeNonProtoMessage(t *testing.T) {
	_, err := New().Encode("not a proto message")
	if err == nil {
		t.Error("Expected error for non-proto message, got nil")
	}
}

func TestEncoderEncodeDecodeRoundTrip(t *testing.T) {
	encoder := New()

	original := &wrapperspb.Int64Value{Value: 42}

	encoded, err := encoder.Encode(original)
	if err != nil {
		t.Fatalf("Encode() failed: %v", err)
	}

	decoded := &wrapperspb.Int64Value{}
	if err := encoder.Decode(encoded, decoded); err != nil {
		t.Fatalf("Decode() failed: %v", err)
	}

	if decoded.Value != original.Value {
		t.Errorf("Expected value %d, got %d", original.Value, decoded.Value)
	}
}

func TestEncoderDecodeNonProtoMessage(t *testing.T) {
	var result string
	if err := New().Decode([]byte{0x01, 0x02, 0x03}, &result); err == nil {
		t.Error("Expected error for non-proto message, got nil")
	}
}

func TestEncoderDecodeInvalid(t *testing.T) {
	var result *kbin.Node
	if err := New().Decode([]byte{0xFF, 0xFF, 0xFF}, &result); err == nil {
		t.Error("Expected error for invalid protobuf data, got nil")
	}
}

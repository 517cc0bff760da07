package cborencoder

import (
	"bytes"
	"testing"

	"github.com/RobertWHurst/kbin"
)

func testTree() *kbin.Node {
	return kbin.NewCall("LDJ:J:B:A:2020092900", "eventlog", "write",
		kbin.NewItem("retrycnt", kbin.Scalar(kbin.TypeU32, kbin.Uint(0))),
		kbin.NewNode("data").Add(
			kbin.NewItem("eventid", kbin.Str("G_CARDED")),
			kbin.NewItem("eventorder", kbin.Scalar(kbin.TypeS32, kbin.Int(-5))),
			kbin.NewItem("flags", kbin.Array(kbin.TypeBool, kbin.Flags(true, false)...)),
		),
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

func TestEncoderDeterministic(t *testing.T) {
	encoder := New()

	first, err := encoder.Encode(testTree())
	if err != nil {
		t.Fatalf("Encode() failed: %v", err)
	}
	for i := 0; i < 10; i++ {
		again, err := encoder.Encode(testTree())
		if err != nil {
			t.Fatalf("Encode() failed: %v", err)
		}
		if !bytes.Equal(first, again) {
			t.Fatal("Expected identical bytes for equal trees")
		}
	}
}

func TestEncoderPlainValues(t *testing.T) {
	encoder := New()

	encoded, err := encoder.Encode(map[string]int{"a": 1})
	if err != nil {
		t.Fatalf("Encode() failed: %v", err)
	}

	var out map[string]int
	if err := encoder.Decode(encoded, &out); err != nil {
		t.Fatalf("Decode() failed: %v", err)
	}
	if out["a"] != 1 {
		t.Errorf("Expected a=1, got %v", out)
	}
}

func TestEncoderDecodeInvalid(t *testing.T) {
	var result *kbin.Node
	if err := New().Decode([]byte{0xFF, 0xFF}, &result); err == nil {
		t.Error("Expected error for invalid CBOR data, got nil")
	}
}

package kbin

// Encoder defines the interface for message serialization and deserialization.
// Codec is the KBin/XML implementation; the encoders packages provide JSON,
// MessagePack, CBOR and Protocol Buffers renditions of the same trees.
type Encoder interface {
	// Encode serializes v into bytes.
	Encode(v any) ([]byte, error)

	// Decode deserializes data into v.
	Decode(data []byte, v any) error
}

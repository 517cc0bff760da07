package kbin

import (
	"bytes"
	"io"
	"strings"
)

// Message is one inbound payload, or the error that prevented one from
// arriving.
type Message struct {
	subject           string
	sourceServiceName string
	replySubject      string
	data              io.Reader
	client            *Client
	err               error
}

// Subject returns the subject the message was sent on.
func (m *Message) Subject() string {
	return m.subject
}

// Source returns the name of the sending service.
func (m *Message) Source() string {
	return m.sourceServiceName
}

// Err returns the error carried by the message, if any.
func (m *Message) Err() error {
	return m.err
}

// Into decodes the payload into v with the client's encoder.
func (m *Message) Into(v any) error {
	if m.err != nil {
		return m.err
	}
	data, err := io.ReadAll(io.LimitReader(m.data, MaxDecodeSize))
	if err != nil {
		return err
	}
	return m.client.encoder.Decode(data, v)
}

// Node decodes the payload as a tree.
func (m *Message) Node() (*Node, error) {
	var n *Node
	if err := m.Into(&n); err != nil {
		return nil, err
	}
	return n, nil
}

// Call decodes the payload as a request envelope.
func (m *Message) Call() (*Call, error) {
	n, err := m.Node()
	if err != nil {
		return nil, err
	}
	return ParseCall(n)
}

func (m *Message) Read(p []byte) (n int, err error) {
	if m.err != nil {
		return 0, m.err
	}
	return m.data.Read(p)
}

// Reply sends v back to the sender on the message's reply subject.
func (m *Message) Reply(v any) error {
	if m.err != nil {
		return m.err
	}

	data, err := intoDataReader(m.client.encoder, v)
	if err != nil {
		return err
	}

	return m.client.transport.Send(m.sourceServiceName, m.replySubject, m.client.serviceName, "", data)
}

func intoDataReader(encoder Encoder, v any) (io.Reader, error) {
	var data io.Reader
	if r, ok := v.(io.Reader); ok {
		data = r
	} else {
		switch dv := v.(type) {
		case []byte:
			data = bytes.NewReader(dv)
		case string:
			data = strings.NewReader(dv)
		default:
			encodedData, err := encoder.Encode(v)
			if err != nil {
				return nil, err
			}
			data = bytes.NewReader(encodedData)
		}
	}
	return data, nil
}

package kbin

import (
	"context"
	"math/rand"
	"time"
)

// ServiceClient provides methods for communicating with a specific remote service.
// It is created by calling Client.Service() with the target service name.
type ServiceClient struct {
	client            *Client
	remoteServiceName string
}

// Send sends a fire-and-forget message to the remote service.
// The value v can be a tree (encoded), string, []byte, or io.Reader.
// Returns an error if encoding or sending fails.
func (s *ServiceClient) Send(subject string, v any) error {
	data, err := intoDataReader(s.client.encoder, v)
	if err != nil {
		return err
	}
	return s.client.transport.Send(s.remoteServiceName, subject, s.client.serviceName, "", data)
}

// Request sends a message and waits for a reply with a default 30-second timeout.
// The returned Message can be chained with Into() or Node() to decode the response.
// Use RequestWithTimeout or RequestWithCtx for custom timeout control.
func (s *ServiceClient) Request(subject string, v any) *Message {
	return s.RequestWithTimeout(subject, v, 30*time.Second)
}

// RequestWithTimeout sends a message and waits for a reply with a custom timeout.
// Returns a Message with an error if the timeout expires.
func (s *ServiceClient) RequestWithTimeout(subject string, v any, timeout time.Duration) *Message {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return s.RequestWithCtx(ctx, subject, v)
}

// RequestWithCtx sends a message and waits for a reply until the context is canceled.
// Returns a Message with an error if the context is canceled or times out.
func (s *ServiceClient) RequestWithCtx(ctx context.Context, subject string, v any) *Message {
	replySubject := generateReplySubject()

	data, err := intoDataReader(s.client.encoder, v)
	if err != nil {
		return &Message{err: err}
	}

	// Bound before sending so a fast reply is not dropped.
	binding := s.client.BindOnce(replySubject)
	defer binding.Unbind()

	err = s.client.transport.Send(s.remoteServiceName, subject, s.client.serviceName, replySubject, data)
	if err != nil {
		return &Message{err: err}
	}

	select {
	case <-ctx.Done():
		return &Message{err: ctx.Err()}
	case msg, ok := <-binding.handlerChan:
		if !ok {
			return &Message{err: ErrBindingClosed}
		}
		return msg
	}
}

// Call sends a request tree on the subject "<module>.<method>" taken from
// its envelope and returns the response tree.
func (s *ServiceClient) Call(ctx context.Context, call *Node) (*Node, error) {
	envelope, err := ParseCall(call)
	if err != nil {
		return nil, err
	}
	return s.RequestWithCtx(ctx, envelope.Module+"."+envelope.Method, call).Node()
}

var replySubjectChars = []rune("abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789-_")

func generateReplySubject() string {
	b := make([]rune, 32)
	for i := range b {
		b[i] = replySubjectChars[rand.Intn(len(replySubjectChars))]
	}
	return string(b)
}

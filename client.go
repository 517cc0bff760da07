package kbin

import (
	"io"
	"sync"

	"go.uber.org/zap"
)

var MaxDecodeSize = int64(1024 * 1024 * 5) // 5 MB

// Client exchanges call and response trees with other services over a
// Transport.
type Client struct {
	serviceName         string
	transport           Transport
	encoder             Encoder
	handlerChansMu      sync.RWMutex
	handlerChans        map[string]map[*Binding]chan *Message
	queueHandlerChansMu sync.RWMutex
	queueHandlerChans   map[string]map[*Binding]chan *Message
}

// NewClient creates a client for serviceName. A nil encoder selects a
// KBin Codec.
func NewClient(serviceName string, transport Transport, encoder Encoder) *Client {
	if encoder == nil {
		encoder = NewCodec()
	}
	c := &Client{
		serviceName:       serviceName,
		transport:         transport,
		encoder:           encoder,
		handlerChans:      make(map[string]map[*Binding]chan *Message),
		queueHandlerChans: make(map[string]map[*Binding]chan *Message),
	}
	transport.Handle(c.serviceName, c.handleMessage)
	transport.HandleQueue(c.serviceName, c.handleQueueMessage)
	return c
}

func (c *Client) Service(remoteServiceName string) *ServiceClient {
	return &ServiceClient{
		client:            c,
		remoteServiceName: remoteServiceName,
	}
}

// Bind subscribes to every message sent to this service on subject.
func (c *Client) Bind(subject string) *Binding {
	return newBinding(c, BindTypeNormal, subject)
}

// BindOnce is Bind for a single message.
func (c *Client) BindOnce(subject string) *Binding {
	return newBinding(c, BindTypeOnce, subject)
}

// BindQueue subscribes to a share of the messages on subject, balanced
// across every instance of this service.
func (c *Client) BindQueue(subject string) *Binding {
	return newBinding(c, BindTypeQueue, subject)
}

func (c *Client) Close() error {
	return c.transport.Close()
}

func (c *Client) handleMessage(subject, sourceServiceName, replySubject string, reader io.Reader) {
	c.dispatch(&c.handlerChansMu, c.handlerChans, subject, sourceServiceName, replySubject, reader)
}

func (c *Client) handleQueueMessage(subject, sourceServiceName, replySubject string, reader io.Reader) {
	c.dispatch(&c.queueHandlerChansMu, c.queueHandlerChans, subject, sourceServiceName, replySubject, reader)
}

func (c *Client) dispatch(mu *sync.RWMutex, chans map[string]map[*Binding]chan *Message, subject, sourceServiceName, replySubject string, reader io.Reader) {
	msg := &Message{
		subject:           subject,
		sourceServiceName: sourceServiceName,
		replySubject:      replySubject,
		data:              reader,
		client:            c,
	}

	mu.RLock()
	defer mu.RUnlock()
	handlerChans, ok := chans[subject]
	if !ok || len(handlerChans) == 0 {
		Logger().Debug("no binding for subject",
			zap.String("service", c.serviceName),
			zap.String("subject", subject),
			zap.String("source", sourceServiceName))
		return
	}
	for _, ch := range handlerChans {
		ch <- msg
	}
}

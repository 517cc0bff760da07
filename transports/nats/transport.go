// Package nats carries kbin payloads between services over NATS. Payloads
// are streamed in chunks, so a large KBin document is never held in a
// single NATS message.
package nats

import (
	"errors"
	"io"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/zap"

	"github.com/RobertWHurst/kbin"
)

// SendTimeout is the maximum time to wait for a send acknowledgment.
const SendTimeout = 5 * time.Second

// ChunkSize is the size of each chunk when streaming large messages.
const ChunkSize = 1024 * 16

// ChunkTimeout bounds the wait for the next chunk of an inbound stream.
const ChunkTimeout = 5 * time.Minute

// NatsTransport implements kbin.Transport using NATS as the message broker.
type NatsTransport struct {
	NatsConnection       *nats.Conn
	Subscription         *nats.Subscription
	QueueSubscription    *nats.Subscription
	SubscriptionErr      error
	QueueSubscriptionErr error
}

// Send opens a stream. The receiver answers with a SendAck naming the
// subject the chunks are published on.
type Send struct {
	SourceServiceName string `msgpack:"sourceServiceName"`
	ReplySubject      string `msgpack:"replySubject"`
	Subject           string `msgpack:"subject"`
}

type SendAck struct {
	DataSubject string `msgpack:"dataSubject"`
}

// Chunk is one piece of a payload stream.
type Chunk struct {
	Index int    `msgpack:"index"`
	Data  []byte `msgpack:"data,omitempty"`
	Error string `msgpack:"error,omitempty"`
	IsEOF bool   `msgpack:"isEof,omitempty"`
}

var _ kbin.Transport = &NatsTransport{}

// NewNatsTransport creates a new NATS transport using the provided connection.
func NewNatsTransport(natsConnection *nats.Conn) *NatsTransport {
	return &NatsTransport{
		NatsConnection: natsConnection,
	}
}

func (t *NatsTransport) Send(serviceName, subject, sourceServiceName, replySubject string, reader io.Reader) error {
	if t.SubscriptionErr != nil {
		return t.SubscriptionErr
	}

	sendBuf, err := msgpack.Marshal(&Send{
		SourceServiceName: sourceServiceName,
		ReplySubject:      replySubject,
		Subject:           subject,
	})
	if err != nil {
		return err
	}

	natsSubject := namespace(serviceName)
	sendAckMsg, err := t.NatsConnection.Request(natsSubject, sendBuf, SendTimeout)
	if err != nil {
		return err
	}

	var sendAck SendAck
	if err := msgpack.Unmarshal(sendAckMsg.Data, &sendAck); err != nil {
		return err
	}

	chunks := 0
	err = writeChunks(reader, func(chunkBuf []byte) error {
		chunks++
		return t.NatsConnection.Publish(sendAck.DataSubject, chunkBuf)
	})
	kbin.Logger().Debug("nats payload sent",
		zap.String("service", serviceName),
		zap.String("subject", subject),
		zap.Int("chunks", chunks),
		zap.Error(err),
	)
	return err
}

// writeChunks reads the payload and passes each encoded chunk to publish.
// The last chunk is flagged EOF.
func writeChunks(reader io.Reader, publish func([]byte) error) error {
	buf := make([]byte, ChunkSize)
	index := 0
	for {
		n, err := reader.Read(buf)
		isEOF := errors.Is(err, io.EOF)
		if err != nil && !isEOF {
			return err
		}

		chunkBuf, err := msgpack.Marshal(&Chunk{
			Index: index,
			Data:  buf[:n],
			IsEOF: isEOF,
		})
		if err != nil {
			return err
		}

		if err := publish(chunkBuf); err != nil {
			return err
		}

		if isEOF {
			return nil
		}
		index++
	}
}

// readChunks writes chunk data to pw until EOF or a failure, which closes
// pw with the error.
func readChunks(pw *io.PipeWriter, next func() ([]byte, error)) {
	defer pw.Close()

	for {
		data, err := next()
		if err != nil {
			pw.CloseWithError(err)
			return
		}

		var chunk Chunk
		if err := msgpack.Unmarshal(data, &chunk); err != nil {
			pw.CloseWithError(err)
			return
		}

		if chunk.Error != "" {
			pw.CloseWithError(errors.New(chunk.Error))
			return
		}

		if _, err := pw.Write(chunk.Data); err != nil {
			pw.CloseWithError(err)
			return
		}

		if chunk.IsEOF {
			return
		}
	}
}

// ErrReader fails every read with err. Handlers receive one when a stream
// cannot be opened.
type ErrReader struct {
	err error
}

func (r *ErrReader) Read(p []byte) (n int, err error) {
	return 0, r.err
}

func (t *NatsTransport) Handle(serviceName string, handler kbin.Handler) {
	natsSubject := namespace(serviceName)
	subscription, err := t.NatsConnection.Subscribe(natsSubject, t.receiver(handler))
	if err != nil {
		kbin.Logger().Error("nats subscribe failed", zap.String("subject", natsSubject), zap.Error(err))
		t.SubscriptionErr = err
	} else {
		t.Subscription = subscription
	}
}

func (t *NatsTransport) HandleQueue(serviceName string, handler kbin.Handler) {
	natsSubject := namespace(serviceName)
	subscription, err := t.NatsConnection.QueueSubscribe(natsSubject, natsSubject, t.receiver(handler))
	if err != nil {
		kbin.Logger().Error("nats queue subscribe failed", zap.String("subject", natsSubject), zap.Error(err))
		t.QueueSubscriptionErr = err
	} else {
		t.QueueSubscription = subscription
	}
}

// receiver acknowledges each Send with a fresh data inbox and streams the
// chunks arriving there to handler.
func (t *NatsTransport) receiver(handler kbin.Handler) nats.MsgHandler {
	return func(natsMsg *nats.Msg) {
		var send Send
		fail := func(err error) {
			kbin.Logger().Warn("nats stream not opened", zap.String("subject", send.Subject), zap.Error(err))
			handler(send.Subject, send.SourceServiceName, send.ReplySubject, &ErrReader{err: err})
		}

		if err := msgpack.Unmarshal(natsMsg.Data, &send); err != nil {
			fail(err)
			return
		}

		dataSubject := nats.NewInbox()

		ackBuf, err := msgpack.Marshal(&SendAck{DataSubject: dataSubject})
		if err != nil {
			fail(err)
			return
		}

		dataSubscription, err := t.NatsConnection.SubscribeSync(dataSubject)
		if err != nil {
			fail(err)
			return
		}

		if err := natsMsg.Respond(ackBuf); err != nil {
			dataSubscription.Unsubscribe()
			fail(err)
			return
		}

		pr, pw := io.Pipe()

		go func() {
			defer dataSubscription.Unsubscribe()
			readChunks(pw, func() ([]byte, error) {
				dataMsg, err := dataSubscription.NextMsg(ChunkTimeout)
				if err != nil {
					return nil, err
				}
				return dataMsg.Data, nil
			})
		}()

		handler(send.Subject, send.SourceServiceName, send.ReplySubject, pr)
	}
}

func (t *NatsTransport) Close() error {
	var err error
	if t.Subscription != nil {
		if e := t.Subscription.Unsubscribe(); e != nil {
			err = e
		}
	}
	if t.QueueSubscription != nil {
		if e := t.QueueSubscription.Unsubscribe(); e != nil {
			err = e
		}
	}
	return err
}

package kbin

import (
	"strings"
	"sync"
	"testing"
	"time"
)

func TestNewClient(t *testing.T) {
	transport := &mockTransport{}
	encoder := &mockEncoder{}

	client := NewClient("core", transport, encoder)

	if client.serviceName != "core" {
		t.Errorf("Expected service name 'core', got '%s'", client.serviceName)
	}

	if client.transport != transport {
		t.Error("Transport not set correctly")
	}

	if client.encoder != encoder {
		t.Error("Encoder not set correctly")
	}

	if client.handlerChans == nil {
		t.Error("handlerChans not initialized")
	}
}

func TestClientService(t *testing.T) {
	client := NewClient("gateway", &mockTransport{}, &mockEncoder{})

	serviceClient := client.Service("core")

	if serviceClient.client != client {
		t.Error("ServiceClient not linked to client correctly")
	}

	if serviceClient.remoteServiceName != "core" {
		t.Errorf("Expected remote service 'core', got '%s'", serviceClient.remoteServiceName)
	}
}

func TestClientBind(t *testing.T) {
	client := NewClient("core", &mockTransport{}, &mockEncoder{})

	binding := client.Bind("pcbevent.put")

	if binding.client != client {
		t.Error("Binding not linked to client correctly")
	}

	if binding.eventName != "pcbevent.put" {
		t.Errorf("Expected event name 'pcbevent.put', got '%s'", binding.eventName)
	}

	if binding.handlerChan == nil {
		t.Error("Binding handler channel not initialized")
	}

	if _, ok := client.handlerChans["pcbevent.put"]; !ok {
		t.Error("Event not registered in client handler map")
	}

	if _, ok := client.handlerChans["pcbevent.put"][binding]; !ok {
		t.Error("Binding not registered in handler map")
	}
}

func TestClientClose(t *testing.T) {
	closeCalled := false
	transport := &mockTransport{
		closeFunc: func() error {
			closeCalled = true
			return nil
		},
	}

	client := NewClient("core", transport, &mockEncoder{})

	err := client.Close()
	if err != nil {
		t.Fatalf("Close() failed: %v", err)
	}

	if !closeCalled {
		t.Error("Transport Close() not called")
	}
}

func TestClientHandleMessage(t *testing.T) {
	var handler Handler
	transport := &mockTransport{
		handleFunc: func(serviceName string, h Handler) {
			handler = h
		},
	}

	client := NewClient("core", transport, &mockEncoder{})

	binding := client.Bind("pcbevent.put")

	msgReceived := make(chan *Message, 1)
	go func() {
		msg := binding.Next()
		msgReceived <- msg
	}()

	handler("pcbevent.put", "gateway", "reply-subject", strings.NewReader("pcbevent"))

	select {
	case msg := <-msgReceived:
		if msg.sourceServiceName != "gateway" {
			t.Errorf("Expected source 'gateway', got '%s'", msg.sourceServiceName)
		}
		if msg.replySubject != "reply-subject" {
			t.Errorf("Expected reply subject 'reply-subject', got '%s'", msg.replySubject)
		}
	case <-time.After(time.Second):
		t.Fatal("Message not received within timeout")
	}
}

func TestClientHandleMessageMultipleBindings(t *testing.T) {
	var handler Handler
	transport := &mockTransport{
		handleFunc: func(serviceName string, h Handler) {
			handler = h
		},
	}

	client := NewClient("core", transport, &mockEncoder{})

	binding1 := client.Bind("pcbevent.put")
	binding2 := client.Bind("pcbevent.put")

	received1 := make(chan bool, 1)
	received2 := make(chan bool, 1)

	go func() {
		binding1.Next()
		received1 <- true
	}()

	go func() {
		binding2.Next()
		received2 <- true
	}()

	handler("pcbevent.put", "gateway", "", strings.NewReader("pcbevent"))

	timeout := time.After(time.Second)
	count := 0
	for count < 2 {
		select {
		case <-received1:
			count++
		case <-received2:
			count++
		case <-timeout:
			t.Fatalf("Expected 2 bindings to receive message, got %d", count)
		}
	}
}

func TestClientHandleMessageNoBindings(t *testing.T) {
	var handler Handler
	transport := &mockTransport{
		handleFunc: func(serviceName string, h Handler) {
			handler = h
		},
	}

	NewClient("core", transport, &mockEncoder{})

	handler("facility.get", "gateway", "", strings.NewReader("pcbevent"))
}

func TestClientConcurrency(t *testing.T) {
	var handler Handler
	transport := &mockTransport{
		handleFunc: func(serviceName string, h Handler) {
			handler = h
		},
	}

	client := NewClient("core", transport, &mockEncoder{})

	var wg sync.WaitGroup
	bindingCount := 10

	for i := 0; i < bindingCount; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			binding := client.Bind("pcbevent.put")
			msg := binding.Next()
			if msg == nil {
				t.Error("Received nil message")
			}
			binding.Unbind()
		}(i)
	}

	time.Sleep(100 * time.Millisecond)

	for i := 0; i < bindingCount; i++ {
		handler("pcbevent.put", "gateway", "", strings.NewReader("pcbevent"))
	}

	done := make(chan bool)
	go func() {
		wg.Wait()
		done <- true
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Test timed out waiting for concurrent operations")
	}
}

func TestClientDefaultCodec(t *testing.T) {
	client := NewClient("core", &mockTransport{}, nil)

	codec, ok := client.encoder.(*Codec)
	if !ok {
		t.Fatalf("Expected *Codec encoder, got %T", client.encoder)
	}
	if codec.Encoding != EncodingShiftJIS {
		t.Errorf("Expected Shift_JIS codec, got %s", codec.Encoding)
	}
}

func TestClientBindQueue(t *testing.T) {
	var handler, queueHandler Handler
	transport := &mockTransport{
		handleFunc: func(serviceName string, h Handler) {
			handler = h
		},
		handleQueueFunc: func(serviceName string, h Handler) {
			queueHandler = h
		},
	}

	client := NewClient("core", transport, &mockEncoder{})

	broadcast := client.Bind("cardmng.inquire")
	queued := client.BindQueue("cardmng.inquire")

	if _, ok := client.queueHandlerChans["cardmng.inquire"][queued]; !ok {
		t.Fatal("Queue binding not registered in queue handler map")
	}
	if _, ok := client.handlerChans["cardmng.inquire"][queued]; ok {
		t.Error("Queue binding registered in broadcast handler map")
	}

	queueHandler("cardmng.inquire", "gateway", "", strings.NewReader("queued"))

	select {
	case msg := <-queued.handlerChan:
		if msg.Subject() != "cardmng.inquire" {
			t.Errorf("Expected subject 'cardmng.inquire', got '%s'", msg.Subject())
		}
		if msg.Source() != "gateway" {
			t.Errorf("Expected source 'gateway', got '%s'", msg.Source())
		}
	case <-time.After(time.Second):
		t.Fatal("Queue message not received within timeout")
	}

	select {
	case <-broadcast.handlerChan:
		t.Error("Broadcast binding received a queue message")
	default:
	}

	handler("cardmng.inquire", "gateway", "", strings.NewReader("broadcast"))

	select {
	case <-queued.handlerChan:
		t.Error("Queue binding received a broadcast message")
	case <-broadcast.handlerChan:
	case <-time.After(time.Second):
		t.Fatal("Broadcast message not received within timeout")
	}
}

func TestClientBindOnce(t *testing.T) {
	var handler Handler
	transport := &mockTransport{
		handleFunc: func(serviceName string, h Handler) {
			handler = h
		},
	}

	client := NewClient("core", transport, &mockEncoder{})
	binding := client.BindOnce("reply")

	handler("reply", "core", "", strings.NewReader("first"))

	msg := binding.Next()
	if msg.Err() != nil {
		t.Fatalf("Next() failed: %v", msg.Err())
	}
	if binding.IsBound() {
		t.Error("Expected once binding to unbind after its message")
	}
	if _, ok := client.handlerChans["reply"]; ok {
		t.Error("Expected subject removed from handler map")
	}
}

func BenchmarkClientBind(b *testing.B) {
	client := NewClient("core", &mockTransport{}, &mockEncoder{})

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		binding := client.Bind("pcbevent.put")
		binding.Unbind()
	}
}

func BenchmarkClientHandleMessage(b *testing.B) {
	var handler Handler
	transport := &mockTransport{
		handleFunc: func(serviceName string, h Handler) {
			handler = h
		},
	}

	client := NewClient("core", transport, &mockEncoder{})
	binding := client.Bind("pcbevent.put")

	go func() {
		for {
			msg := binding.Next()
			if msg == nil {
				return
			}
		}
	}()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		handler("pcbevent.put", "gateway", "", strings.NewReader("pcbevent"))
	}
}

package kbin

import (
	"errors"
	"sync"
)

// ErrBindingClosed is carried by messages read from an unbound binding.
var ErrBindingClosed = errors.New("kbin: binding closed")

// BindType specifies whether a binding receives all messages (broadcast)
// or only a share of messages (load-balanced).
type BindType int

const (
	// BindTypeNormal means all instances receive each message (fan-out/broadcast).
	BindTypeNormal BindType = iota
	// BindTypeOnce is like BindTypeNormal but will auto-unbind after one message.
	BindTypeOnce
	// BindTypeQueue means only one instance receives each message (load-balanced).
	BindTypeQueue
)

// Binding represents a subscription to messages on a specific subject.
// Bindings provide two ways to consume messages: Next() for blocking retrieval
// and To() for handler-based processing.
type Binding struct {
	client      *Client
	bindType    BindType
	eventName   string
	handlerChan chan *Message

	mu    sync.Mutex
	bound bool
}

func newBinding(client *Client, bindType BindType, eventName string) *Binding {
	b := &Binding{
		client:      client,
		bindType:    bindType,
		eventName:   eventName,
		handlerChan: make(chan *Message, 100),
		bound:       true,
	}

	mu, chans := b.registry()
	mu.Lock()
	defer mu.Unlock()
	if _, ok := chans[eventName]; !ok {
		chans[eventName] = make(map[*Binding]chan *Message)
	}
	chans[eventName][b] = b.handlerChan

	return b
}

func (b *Binding) registry() (*sync.RWMutex, map[string]map[*Binding]chan *Message) {
	if b.bindType == BindTypeQueue {
		return &b.client.queueHandlerChansMu, b.client.queueHandlerChans
	}
	return &b.client.handlerChansMu, b.client.handlerChans
}

// Next blocks until the next message arrives and returns it.
// This is useful for processing messages sequentially in a loop.
// After Unbind it returns a message carrying ErrBindingClosed.
func (b *Binding) Next() *Message {
	msg, ok := <-b.handlerChan
	if !ok {
		return &Message{err: ErrBindingClosed}
	}
	if b.bindType == BindTypeOnce {
		b.Unbind()
	}
	return msg
}

// To spawns a goroutine that calls the handler for each message.
// The handler runs asynchronously and continues until the binding is unbound.
func (b *Binding) To(handler func(msg *Message)) *Binding {
	go func() {
		for msg := range b.handlerChan {
			handler(msg)
			if b.bindType == BindTypeOnce {
				b.Unbind()
				return
			}
		}
	}()
	return b
}

// IsBound reports whether the binding still receives messages.
func (b *Binding) IsBound() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.bound
}

// Unbind unsubscribes from messages and frees resources. It is safe to
// call more than once. Any goroutines spawned by To() exit afterwards.
func (b *Binding) Unbind() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.bound {
		return
	}
	b.bound = false

	mu, chans := b.registry()
	mu.Lock()
	delete(chans[b.eventName], b)
	if len(chans[b.eventName]) == 0 {
		delete(chans, b.eventName)
	}
	mu.Unlock()

	close(b.handlerChan)
}

package events

import (
	"sync"
)

// Subscriber is a channel that receives signals
type Subscriber chan *Signal

// Broker fans signals out from sources to subscribers. The daemon runs
// one broker between the SQS source and the dispatcher loop; tests
// publish into it directly.
type Broker struct {
	subscribers map[Subscriber]bool
	mu          sync.RWMutex
	signalCh    chan *Signal
	stopCh      chan struct{}
}

// NewBroker creates a new signal broker
func NewBroker() *Broker {
	return &Broker{
		subscribers: make(map[Subscriber]bool),
		signalCh:    make(chan *Signal, 100), // Buffer up to 100 signals
		stopCh:      make(chan struct{}),
	}
}

// Start begins the broker's distribution loop
func (b *Broker) Start() {
	go b.run()
}

// Stop stops the broker
func (b *Broker) Stop() {
	close(b.stopCh)
}

// Subscribe creates a new subscription and returns a channel
func (b *Broker) Subscribe() Subscriber {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub := make(Subscriber, 50) // Buffer per subscriber
	b.subscribers[sub] = true
	return sub
}

// Unsubscribe removes a subscription
func (b *Broker) Unsubscribe(sub Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.subscribers, sub)
	close(sub)
}

// Publish delivers a signal to all subscribers
func (b *Broker) Publish(sig *Signal) {
	select {
	case b.signalCh <- sig:
	case <-b.stopCh:
	}
}

func (b *Broker) run() {
	for {
		select {
		case sig := <-b.signalCh:
			b.broadcast(sig)
		case <-b.stopCh:
			return
		}
	}
}

func (b *Broker) broadcast(sig *Signal) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for sub := range b.subscribers {
		select {
		case sub <- sig:
		default:
			// Subscriber buffer full, skip
		}
	}
}

// SubscriberCount returns the number of active subscribers
func (b *Broker) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

package transport

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/atomic"

	"go.viam.com/depthpub/logging"
	"go.viam.com/depthpub/utils"
)

// ErrBusClosed is returned when subscribing to a closed bus.
var ErrBusClosed = errors.New("bus is closed")

// DefaultQueueSize is used by Subscribe when a queue size of zero or less is asked for.
const DefaultQueueSize = 4

// Handler receives the messages of one subscription, one at a time, in publish order.
type Handler func(channel string, msg Message)

type subscription struct {
	channel string
	queue   chan Message
	handler Handler
	dropped atomic.Uint64
}

// Bus delivers published messages to every subscriber of a channel. Each subscriber has its own
// bounded queue and goroutine; Publish never waits, and a message that does not fit in a queue is
// dropped for that subscriber only.
type Bus struct {
	mu      sync.RWMutex
	logger  logging.Logger
	subs    map[string][]*subscription
	workers utils.StoppableWorkers
	closed  bool
}

// NewBus returns an open bus with no subscribers.
func NewBus(logger logging.Logger) *Bus {
	return &Bus{
		logger:  logger,
		subs:    map[string][]*subscription{},
		workers: utils.NewStoppableWorkers(),
	}
}

// Subscribe registers handler for channel.
func (b *Bus) Subscribe(channel string, queueSize int, handler Handler) error {
	if handler == nil {
		return errors.New("handler must not be nil")
	}
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return errors.Wrapf(ErrBusClosed, "cannot subscribe to %q", channel)
	}
	sub := &subscription{
		channel: channel,
		queue:   make(chan Message, queueSize),
		handler: handler,
	}
	b.subs[channel] = append(b.subs[channel], sub)
	b.workers.AddWorkers(func(ctx context.Context) {
		b.deliver(ctx, sub)
	})
	b.logger.Debugw("subscribed", "channel", channel, "queue_size", queueSize)
	return nil
}

func (b *Bus) deliver(ctx context.Context, sub *subscription) {
	for {
		select {
		case <-ctx.Done():
			// hand over whatever was queued before the bus closed
			for {
				select {
				case msg := <-sub.queue:
					sub.handler(sub.channel, msg)
				default:
					return
				}
			}
		case msg := <-sub.queue:
			sub.handler(sub.channel, msg)
		}
	}
}

// Publish queues msg for every subscriber of channel. It never blocks and reports nothing back.
// Messages published to a closed bus or a channel without subscribers are discarded.
func (b *Bus) Publish(channel string, msg Message) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		b.logger.Debugw("bus closed, discarding message", "channel", channel)
		return
	}
	for _, sub := range b.subs[channel] {
		select {
		case sub.queue <- msg:
		default:
			n := sub.dropped.Inc()
			b.logger.Debugw("subscriber queue full, dropping message",
				"channel", channel, "seq", msg.MessageHeader().Seq, "dropped", n)
		}
	}
}

// Dropped returns how many messages on channel did not fit in a subscriber queue.
func (b *Bus) Dropped(channel string) uint64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	var total uint64
	for _, sub := range b.subs[channel] {
		total += sub.dropped.Load()
	}
	return total
}

// Close stops accepting messages and returns once every queued message has been handled.
func (b *Bus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	b.mu.Unlock()
	b.workers.Stop()
}

package notifier

import (
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/aleister1102/sitewatch/internal/models"
)

// DefaultSubscriberBuffer is the per-subscriber channel capacity used when
// no explicit buffer size is configured.
const DefaultSubscriberBuffer = 64

// Broadcaster fans out update events to live subscribers.
//
// Every subscriber present at publish time receives the event; there is no
// replay for late joiners. Each subscriber owns a bounded buffered channel,
// and a subscriber whose buffer is full is disconnected rather than allowed
// to block the publisher.
type Broadcaster struct {
	mu          sync.Mutex
	subscribers map[string]chan models.UpdateEvent
	bufferSize  int
	closed      bool
	logger      zerolog.Logger
}

// NewBroadcaster creates a broadcaster with the given per-subscriber buffer size
func NewBroadcaster(bufferSize int, logger zerolog.Logger) *Broadcaster {
	if bufferSize <= 0 {
		bufferSize = DefaultSubscriberBuffer
	}

	return &Broadcaster{
		subscribers: make(map[string]chan models.UpdateEvent),
		bufferSize:  bufferSize,
		logger:      logger.With().Str("component", "Broadcaster").Logger(),
	}
}

// Subscribe registers a new subscriber and returns its id together with the
// channel events arrive on. The caller must Unsubscribe with the same id when
// done. Subscribing to a closed broadcaster returns an already closed channel.
func (b *Broadcaster) Subscribe() (string, <-chan models.UpdateEvent) {
	id := uuid.NewString()
	ch := make(chan models.UpdateEvent, b.bufferSize)

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		close(ch)
		return id, ch
	}

	b.subscribers[id] = ch
	b.logger.Debug().Str("subscriber_id", id).Int("subscribers", len(b.subscribers)).Msg("Subscriber registered")

	return id, ch
}

// Unsubscribe removes a subscriber and closes its channel. Unknown ids and
// repeated calls are no-ops.
func (b *Broadcaster) Unsubscribe(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch, ok := b.subscribers[id]
	if !ok {
		return
	}

	delete(b.subscribers, id)
	close(ch)
	b.logger.Debug().Str("subscriber_id", id).Int("subscribers", len(b.subscribers)).Msg("Subscriber removed")
}

// Publish delivers the event to every live subscriber. The send is
// non-blocking: a subscriber whose buffer is full is disconnected so one
// slow consumer cannot stall the monitor. Publishing on a closed
// broadcaster is a no-op.
func (b *Broadcaster) Publish(event models.UpdateEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}

	for id, ch := range b.subscribers {
		select {
		case ch <- event:
		default:
			delete(b.subscribers, id)
			close(ch)
			b.logger.Warn().
				Str("subscriber_id", id).
				Int64("site_id", event.SiteID).
				Msg("Subscriber buffer full, disconnecting")
		}
	}
}

// Close disconnects every subscriber and drops all further publishes
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true

	for id, ch := range b.subscribers {
		delete(b.subscribers, id)
		close(ch)
	}

	b.logger.Debug().Msg("Broadcaster closed")
}

// SubscriberCount reports the number of live subscribers
func (b *Broadcaster) SubscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return len(b.subscribers)
}

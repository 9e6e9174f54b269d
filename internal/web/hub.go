package web

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Gaurav-Gosain/livepane/internal/preview"
	"github.com/google/uuid"
)

// MaxDocumentSize is the largest document pushed to browsers.
const MaxDocumentSize = 1 << 20

// ErrDocumentTooLarge is returned by Hub.Load for documents above
// MaxDocumentSize.
var ErrDocumentTooLarge = errors.New("document too large")

// Subscriber is one connected browser. Its mailbox holds at most one
// document; a newer document replaces an unread older one.
type Subscriber struct {
	ID        string
	Remote    string
	Connected time.Time
	mailbox   chan string
}

// Updates delivers documents to the connection's writer goroutine.
func (s *Subscriber) Updates() <-chan string {
	return s.mailbox
}

// Hub is the browser render surface. Load never blocks on slow clients.
type Hub struct {
	mu      sync.Mutex
	doc     string
	hasDoc  bool
	buffers preview.Buffers
	pending *preview.Buffers
	subs    map[string]*Subscriber
	loads   int
}

// NewHub returns an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[string]*Subscriber)}
}

// Load stores doc as the current document and queues it for every
// subscriber.
func (h *Hub) Load(doc string) error {
	if len(doc) > MaxDocumentSize {
		return fmt.Errorf("%w: %d bytes (limit %d)", ErrDocumentTooLarge, len(doc), MaxDocumentSize)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.doc = doc
	h.hasDoc = true
	h.loads++
	if h.pending != nil && h.pending.Compose() == doc {
		h.buffers = *h.pending
		h.pending = nil
	}
	for _, sub := range h.subs {
		deliver(sub.mailbox, doc)
	}
	logger.Debug("document published", "bytes", len(doc), "subscribers", len(h.subs))
	return nil
}

// deliver replaces any unread document. Callers hold h.mu, so there is
// exactly one sender per mailbox.
func deliver(mailbox chan string, doc string) {
	select {
	case <-mailbox:
	default:
	}
	mailbox <- doc
}

// Document returns the current document.
func (h *Hub) Document() (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.doc, h.hasDoc
}

// SetBuffers records the buffers behind the next document. They become the
// exported buffers once Load accepts their composed document, so exports
// never run ahead of the document browsers are shown.
func (h *Hub) SetBuffers(b preview.Buffers) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.hasDoc && h.doc == b.Compose() {
		h.buffers = b
		h.pending = nil
		return
	}
	h.pending = &b
}

// Buffers returns the buffers behind the current document.
func (h *Hub) Buffers() preview.Buffers {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.buffers
}

// Subscribe registers a subscriber. If a document exists it is queued
// immediately so new browsers render without waiting for an edit.
func (h *Hub) Subscribe(remote string) *Subscriber {
	sub := &Subscriber{
		ID:        uuid.New().String(),
		Remote:    remote,
		Connected: time.Now(),
		mailbox:   make(chan string, 1),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.subs[sub.ID] = sub
	if h.hasDoc {
		deliver(sub.mailbox, h.doc)
	}
	return sub
}

// Unsubscribe removes sub. Safe to call more than once.
func (h *Hub) Unsubscribe(sub *Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.subs, sub.ID)
}

// Count returns the number of subscribers.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Loads returns how many documents were accepted.
func (h *Hub) Loads() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.loads
}

package dedupe

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

const defaultMaxSize = 10_000

// Deduper remembers recently queued deliveries by content key.
type Deduper interface {
	// SeenAndRecord atomically checks if key was seen and records it with
	// jobID if not. When the key is known it returns the recorded job id
	// and true.
	SeenAndRecord(ctx context.Context, key, jobID string) (string, bool)

	// Unrecord removes a key, allowing it to be submitted again. Used when
	// a delivery was recorded but could not be queued (e.g. backpressure).
	Unrecord(ctx context.Context, key string)

	Size() int64
}

// Key derives the dedupe key of a delivery: the recipient, compared
// case-insensitively, and the exact attachment bytes.
func Key(recipient string, attachment []byte) string {
	h := sha256.New()
	h.Write([]byte(strings.ToLower(strings.TrimSpace(recipient))))
	h.Write([]byte{0})
	h.Write(attachment)
	return hex.EncodeToString(h.Sum(nil))
}

// node is one remembered key in insertion order.
type node struct {
	key      string
	jobID    string
	recorded time.Time
	prev     *node
	next     *node
}

// reset clears the node state for reuse
func (n *node) reset() {
	*n = node{}
}

// inMemoryDeduper keeps keys in a map plus a doubly linked list ordered by
// insertion: head is the newest entry, tail the oldest. Expired and
// overflowing entries are dropped from the tail.
type inMemoryDeduper struct {
	mu       sync.Mutex
	seen     map[string]*node
	head     *node
	tail     *node
	maxSize  int
	ttl      time.Duration
	now      func() time.Time
	size     atomic.Int64
	nodePool sync.Pool
}

// NewInMemoryDeduper creates a new in-memory deduper with configuration options.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{
		maxSize: defaultMaxSize,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.seen = make(map[string]*node)
	d.nodePool = sync.Pool{
		New: func() interface{} {
			return &node{}
		},
	}
	return d
}

// SeenAndRecord implements Deduper.
func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, key, jobID string) (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	d.expire(now)

	if n, exists := d.seen[key]; exists {
		return n.jobID, true
	}

	if d.maxSize > 0 && len(d.seen) >= d.maxSize {
		d.remove(d.tail)
	}

	n := d.nodePool.Get().(*node)
	n.key = key
	n.jobID = jobID
	n.recorded = now
	n.next = d.head
	if d.head != nil {
		d.head.prev = n
	}
	d.head = n
	if d.tail == nil {
		d.tail = n
	}
	d.seen[key] = n
	d.size.Add(1)
	return "", false
}

// Unrecord implements Deduper.
func (d *inMemoryDeduper) Unrecord(_ context.Context, key string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if n, exists := d.seen[key]; exists {
		d.remove(n)
	}
}

// expire drops entries older than the TTL. Must be called with d.mu held.
func (d *inMemoryDeduper) expire(now time.Time) {
	if d.ttl <= 0 {
		return
	}
	for d.tail != nil && now.Sub(d.tail.recorded) >= d.ttl {
		d.remove(d.tail)
	}
}

// remove unlinks n and returns it to the pool. Must be called with d.mu held.
func (d *inMemoryDeduper) remove(n *node) {
	if n == nil {
		return
	}
	delete(d.seen, n.key)
	if n.prev != nil {
		n.prev.next = n.next
	} else {
		d.head = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		d.tail = n.prev
	}
	n.reset()
	d.nodePool.Put(n)
	d.size.Add(-1)
}

// Size returns the current number of entries in the deduper.
func (d *inMemoryDeduper) Size() int64 {
	return d.size.Load()
}

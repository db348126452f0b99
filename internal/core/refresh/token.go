// Package refresh holds the process-local refresh signal that the classify
// workflow raises after every successful upload.
package refresh

import "sync"

// Token is a monotonically increasing counter with one writer and any number
// of readers. Subscribers receive the latest value on a buffered channel;
// intermediate values may be coalesced, so readers must react to every
// receive rather than compare values.
type Token struct {
	mu     sync.Mutex
	value  uint64
	nextID int
	subs   map[int]chan uint64
}

func NewToken() *Token {
	return &Token{subs: make(map[int]chan uint64)}
}

func (t *Token) Value() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.value
}

// Subscribers is the number of active readers.
func (t *Token) Subscribers() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.subs)
}

// Increment bumps the counter and notifies every subscriber.
func (t *Token) Increment() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.value++
	for _, ch := range t.subs {
		select {
		case <-ch:
		default:
		}
		ch <- t.value
	}
	return t.value
}

// Subscribe registers a reader. The returned func unsubscribes and closes the
// channel; it is safe to call more than once.
func (t *Token) Subscribe() (<-chan uint64, func()) {
	t.mu.Lock()
	defer t.mu.Unlock()

	id := t.nextID
	t.nextID++
	ch := make(chan uint64, 1)
	t.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			t.mu.Lock()
			defer t.mu.Unlock()
			delete(t.subs, id)
			close(ch)
		})
	}
}

package lock

import (
	"context"
	"sync"
)

// LocalLocker keeps a one-slot semaphore per hotel name in process memory.
// A semaphore lives only while some request holds or waits for it.
type LocalLocker struct {
	mu     sync.Mutex
	hotels map[string]*hotelSlot
}

type hotelSlot struct {
	sem  chan struct{}
	refs int
}

// NewLocalLocker creates an in-process hotel locker.
func NewLocalLocker() *LocalLocker {
	return &LocalLocker{hotels: make(map[string]*hotelSlot)}
}

func (l *LocalLocker) acquire(hotel string) *hotelSlot {
	l.mu.Lock()
	defer l.mu.Unlock()

	slot, ok := l.hotels[hotel]
	if !ok {
		slot = &hotelSlot{sem: make(chan struct{}, 1)}
		l.hotels[hotel] = slot
	}
	slot.refs++
	return slot
}

func (l *LocalLocker) release(hotel string, slot *hotelSlot) {
	l.mu.Lock()
	defer l.mu.Unlock()

	slot.refs--
	if slot.refs == 0 {
		delete(l.hotels, hotel)
	}
}

// Lock blocks until the hotel is free or ctx is done.
func (l *LocalLocker) Lock(ctx context.Context, hotel string) (Unlock, error) {
	slot := l.acquire(hotel)
	select {
	case slot.sem <- struct{}{}:
	case <-ctx.Done():
		l.release(hotel, slot)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-slot.sem
			l.release(hotel, slot)
		})
	}, nil
}

func (l *LocalLocker) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.hotels)
}

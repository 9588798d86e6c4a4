package sessions

import (
	"context"
	"sync"
	"time"
)

type expiring struct {
	payload []byte
	expires time.Time
}

// MemoryStore — хранилище сессий в памяти процесса, используется без Redis.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]expiring

	ttl    time.Duration
	ticker *time.Ticker
	stop   chan struct{}
	now    func() time.Time
}

type Option func(*MemoryStore)

func WithClock(now func() time.Time) Option { return func(s *MemoryStore) { s.now = now } }

func NewMemoryStore(ttl time.Duration, opts ...Option) *MemoryStore {
	s := &MemoryStore{
		data: make(map[string]expiring),
		ttl:  ttl,
		stop: make(chan struct{}),
		now:  time.Now,
	}
	for _, o := range opts {
		o(s)
	}

	if s.ttl > 0 {
		s.ticker = time.NewTicker(s.ttl / 2)
		go func() {
			for {
				select {
				case <-s.ticker.C:
					s.purgeExpired()
				case <-s.stop:
					return
				}
			}
		}()
	}
	return s
}

func (s *MemoryStore) Close() {
	if s.ticker != nil {
		s.ticker.Stop()
	}
	close(s.stop)
}

func (s *MemoryStore) Save(_ context.Context, id string, payload []byte) error {
	entry := expiring{payload: append([]byte(nil), payload...)}
	if s.ttl > 0 {
		entry.expires = s.now().Add(s.ttl)
	}
	s.mu.Lock()
	s.data[id] = entry
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Load(ctx context.Context, id string) ([]byte, error) {
	s.mu.RLock()
	entry, ok := s.data[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	if !entry.expires.IsZero() && s.now().After(entry.expires) {
		_ = s.Delete(ctx, id)
		return nil, ErrNotFound
	}
	return append([]byte(nil), entry.payload...), nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	delete(s.data, id)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) purgeExpired() {
	now := s.now()
	s.mu.Lock()
	for id, entry := range s.data {
		if !entry.expires.IsZero() && now.After(entry.expires) {
			delete(s.data, id)
		}
	}
	s.mu.Unlock()
}

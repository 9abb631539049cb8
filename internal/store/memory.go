package store

import "sync"

type MemoryBackend struct {
	mu   sync.Mutex
	data map[string][]byte
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{data: map[string][]byte{}}
}

func (b *MemoryBackend) Get(key string) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	v, ok := b.data[key]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), v...), nil
}

func (b *MemoryBackend) Put(key string, value []byte) error {
	b.mu.Lock()
	b.data[key] = append([]byte(nil), value...)
	b.mu.Unlock()
	return nil
}

func (b *MemoryBackend) Delete(key string) error {
	b.mu.Lock()
	delete(b.data, key)
	b.mu.Unlock()
	return nil
}

func (b *MemoryBackend) Close() error { return nil }

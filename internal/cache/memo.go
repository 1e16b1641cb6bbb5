// Package cache memoizes pure computations keyed by the content of their inputs.
package cache

import (
	"strconv"
	"sync"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/sync/singleflight"
)

// Key is a 64-bit content hash.
type Key uint64

func (k Key) String() string { return strconv.FormatUint(uint64(k), 16) }

// KeyOf hashes the given parts. Parts are length-prefixed so that
// ("ab", "c") and ("a", "bc") hash differently.
func KeyOf(parts ...[]byte) Key {
	d := xxhash.New()
	var n [8]byte
	for _, p := range parts {
		l := uint64(len(p))
		for i := range n {
			n[i] = byte(l >> (8 * i))
		}
		d.Write(n[:])
		d.Write(p)
	}
	return Key(d.Sum64())
}

// KeyOfStrings is KeyOf for string parts.
func KeyOfStrings(parts ...string) Key {
	bs := make([][]byte, len(parts))
	for i, p := range parts {
		bs[i] = []byte(p)
	}
	return KeyOf(bs...)
}

// Memo caches values by Key. Concurrent misses on the same key run the
// compute function once. With a positive limit the oldest entries are evicted
// beyond it. Failed computations are not cached.
type Memo[V any] struct {
	mu    sync.Mutex
	vals  map[Key]V
	order []Key
	limit int
	group singleflight.Group

	hits, misses int
}

// New returns a memo holding at most limit entries; limit <= 0 means unbounded.
func New[V any](limit int) *Memo[V] {
	return &Memo[V]{vals: map[Key]V{}, limit: limit}
}

// Get returns the cached value for k, computing and storing it on a miss.
// hit reports whether the value came from the cache.
func (m *Memo[V]) Get(k Key, compute func() (V, error)) (v V, hit bool, err error) {
	m.mu.Lock()
	if v, ok := m.vals[k]; ok {
		m.hits++
		m.mu.Unlock()
		return v, true, nil
	}
	m.misses++
	m.mu.Unlock()

	res, err, _ := m.group.Do(k.String(), func() (any, error) {
		m.mu.Lock()
		if v, ok := m.vals[k]; ok {
			m.mu.Unlock()
			return v, nil
		}
		m.mu.Unlock()
		v, err := compute()
		if err != nil {
			return v, err
		}
		m.put(k, v)
		return v, nil
	})
	if err != nil {
		var zero V
		return zero, false, err
	}
	return res.(V), false, nil
}

func (m *Memo[V]) put(k Key, v V) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.vals[k]; !ok {
		m.order = append(m.order, k)
	}
	m.vals[k] = v
	for m.limit > 0 && len(m.order) > m.limit {
		delete(m.vals, m.order[0])
		m.order = m.order[1:]
	}
}

// Len reports the number of cached entries.
func (m *Memo[V]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.vals)
}

// Stats reports cache hits and misses since creation.
func (m *Memo[V]) Stats() (hits, misses int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.hits, m.misses
}

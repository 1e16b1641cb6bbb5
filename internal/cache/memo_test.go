package cache

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestKeyOfSeparatesParts(t *testing.T) {
	if KeyOfStrings("ab", "c") == KeyOfStrings("a", "bc") {
		t.Fatalf("keys collide across part boundaries")
	}
	if KeyOfStrings("x", "y") != KeyOf([]byte("x"), []byte("y")) {
		t.Fatalf("string and byte keys differ")
	}
}

func TestMemoCachesAndEvicts(t *testing.T) {
	m := New[int](2)
	calls := 0
	get := func(k string, v int) (int, bool) {
		got, hit, err := m.Get(KeyOfStrings(k), func() (int, error) { calls++; return v, nil })
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		return got, hit
	}
	if v, hit := get("a", 1); v != 1 || hit {
		t.Fatalf("first get = %d, %v", v, hit)
	}
	if v, hit := get("a", 99); v != 1 || !hit {
		t.Fatalf("second get = %d, %v", v, hit)
	}
	get("b", 2)
	get("c", 3)
	if m.Len() != 2 {
		t.Fatalf("len = %d, want 2", m.Len())
	}
	if v, hit := get("a", 4); v != 4 || hit {
		t.Fatalf("evicted get = %d, %v", v, hit)
	}
	if calls != 4 {
		t.Fatalf("calls = %d, want 4", calls)
	}
	if hits, misses := m.Stats(); hits != 1 || misses != 4 {
		t.Fatalf("stats = %d/%d", hits, misses)
	}
}

func TestMemoDoesNotCacheErrors(t *testing.T) {
	m := New[string](0)
	boom := errors.New("boom")
	if _, _, err := m.Get(1, func() (string, error) { return "", boom }); !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
	v, hit, err := m.Get(1, func() (string, error) { return "ok", nil })
	if err != nil || hit || v != "ok" {
		t.Fatalf("retry = %q %v %v", v, hit, err)
	}
}

func TestMemoCoalescesConcurrentMisses(t *testing.T) {
	m := New[int](0)
	var calls atomic.Int32
	release := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, _, err := m.Get(7, func() (int, error) {
				calls.Add(1)
				<-release
				return 42, nil
			})
			if err != nil || v != 42 {
				t.Errorf("Get = %d, %v", v, err)
			}
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()
	if n := calls.Load(); n != 1 {
		t.Fatalf("compute ran %d times, want 1", n)
	}
}

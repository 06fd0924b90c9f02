package cache

import (
	"testing"
	"time"
)

func TestLRUCacheEviction(t *testing.T) {
	c := NewLRUCache[int](2, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	if _, ok := c.Get("a"); !ok {
		t.Fatal("a should be cached")
	}
	c.Set("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Fatal("b should have been evicted as least recently used")
	}
	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Fatalf("a = %d, %v", v, ok)
	}
	if c.Size() != 2 {
		t.Fatalf("size = %d", c.Size())
	}
}

func TestLRUCacheExpiry(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewLRUCache[string](10, time.Second)
	c.now = func() time.Time { return now }

	c.Set("k", "v")
	c.Set("other", "w")
	now = now.Add(2 * time.Second)

	if _, ok := c.Get("k"); ok {
		t.Fatal("expired entry returned")
	}
	if removed := c.CleanExpired(); removed != 1 {
		t.Fatalf("CleanExpired removed %d", removed)
	}
	if c.Size() != 0 {
		t.Fatalf("size = %d", c.Size())
	}
}

func TestLRUCacheStatsAndDelete(t *testing.T) {
	c := NewLRUCache[int](4, time.Minute)
	c.Set("x", 1)
	c.Get("x")
	c.Get("y")
	c.Delete("x")
	c.Get("x")

	hits, misses := c.Stats()
	if hits != 1 || misses != 2 {
		t.Fatalf("hits=%d misses=%d", hits, misses)
	}
}

func TestRevisionKey(t *testing.T) {
	tests := []struct {
		name     string
		revision int64
		want     string
	}{
		{"report", 0, "report:0"},
		{"report", 42, "report:42"},
		{"monthly", 7, "monthly:7"},
	}
	for _, tt := range tests {
		if got := RevisionKey(tt.name, tt.revision); got != tt.want {
			t.Fatalf("RevisionKey(%q, %d) = %q, want %q", tt.name, tt.revision, got, tt.want)
		}
	}
}

func TestGetOrComputeOncePerRevision(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewLRUCache[int](2, time.Second)
	c.now = func() time.Time { return now }

	calls := 0
	compute := func() int {
		calls++
		return calls * 100
	}

	steps := []struct {
		revision int64
		advance  time.Duration
		want     int
		hit      bool
		calls    int
	}{
		{revision: 1, want: 100, hit: false, calls: 1},
		{revision: 1, want: 100, hit: true, calls: 1},
		{revision: 2, want: 200, hit: false, calls: 2},
		{revision: 2, advance: 2 * time.Second, want: 300, hit: false, calls: 3},
		{revision: 2, want: 300, hit: true, calls: 3},
	}
	for i, st := range steps {
		now = now.Add(st.advance)
		got, hit := c.GetOrCompute(RevisionKey("report", st.revision), compute)
		if got != st.want || hit != st.hit || calls != st.calls {
			t.Fatalf("step %d: got %d hit=%v calls=%d, want %d hit=%v calls=%d",
				i, got, hit, calls, st.want, st.hit, st.calls)
		}
	}
	if hits, misses := c.Stats(); hits != 2 || misses != 3 {
		t.Fatalf("hits=%d misses=%d", hits, misses)
	}
}

func TestManagerCleanAllAndStop(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewLRUCache[int](4, time.Second)
	c.now = func() time.Time { return now }
	c.Set("a", 1)

	m := NewManager()
	m.Register(c)
	m.StartCleanup(time.Hour)

	now = now.Add(time.Minute)
	if n := m.CleanAll(); n != 1 {
		t.Fatalf("CleanAll removed %d", n)
	}
	m.Stop()
	m.Stop()
}

func TestManagerStopWithoutStart(t *testing.T) {
	m := NewManager()
	m.Stop()
}

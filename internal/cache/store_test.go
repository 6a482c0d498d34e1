package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestStore_Coalescing(t *testing.T) {
	s := New[int]("test")
	ctx := context.Background()

	var loads atomic.Int32
	release := make(chan struct{})
	loader := func(ctx context.Context) (int, bool, error) {
		loads.Add(1)
		<-release
		return 42, true, nil
	}

	const callers = 8
	results := make([]int, callers)
	var wg sync.WaitGroup
	started := make(chan struct{}, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			started <- struct{}{}
			v, err := s.Get(ctx, "k", time.Minute, false, loader)
			if err != nil {
				t.Errorf("caller %d: %v", idx, err)
			}
			results[idx] = v
		}(i)
	}
	for i := 0; i < callers; i++ {
		<-started
	}
	// 留出时间让所有 goroutine 走到等待点
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	if got := loads.Load(); got != 1 {
		t.Errorf("loader invoked %d times, want 1", got)
	}
	for i, v := range results {
		if v != 42 {
			t.Errorf("caller %d got %d, want 42", i, v)
		}
	}
}

func TestStore_SharedFailure(t *testing.T) {
	s := New[int]("test")
	ctx := context.Background()

	wantErr := errors.New("backend down")
	release := make(chan struct{})
	first := make(chan struct{})
	var loads atomic.Int32
	loader := func(ctx context.Context) (int, bool, error) {
		loads.Add(1)
		close(first)
		<-release
		return 0, false, wantErr
	}

	var wg sync.WaitGroup
	errs := make([]error, 2)
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, errs[0] = s.Get(ctx, "k", time.Minute, false, loader)
	}()
	<-first
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, errs[1] = s.Get(ctx, "k", time.Minute, false, loader)
	}()
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	if loads.Load() != 1 {
		t.Errorf("loader invoked %d times, want 1", loads.Load())
	}
	for i, err := range errs {
		if !errors.Is(err, wantErr) {
			t.Errorf("caller %d err = %v, want %v", i, err, wantErr)
		}
	}
}

func TestStore_TTL(t *testing.T) {
	s := New[string]("test")
	ctx := context.Background()

	base := time.Unix(1700000000, 0)
	current := base
	s.now = func() time.Time { return current }

	var loads atomic.Int32
	loader := func(ctx context.Context) (string, bool, error) {
		loads.Add(1)
		return "v", true, nil
	}

	// t=0 写入
	if _, err := s.Get(ctx, "k", time.Second, false, loader); err != nil {
		t.Fatalf("initial get: %v", err)
	}
	if loads.Load() != 1 {
		t.Fatalf("loads = %d, want 1", loads.Load())
	}

	// t=999ms 命中
	current = base.Add(999 * time.Millisecond)
	if _, err := s.Get(ctx, "k", time.Second, false, loader); err != nil {
		t.Fatalf("cached get: %v", err)
	}
	if loads.Load() != 1 {
		t.Errorf("loads = %d after fresh hit, want 1", loads.Load())
	}

	// t=1001ms 过期，重新加载
	current = base.Add(1001 * time.Millisecond)
	if _, err := s.Get(ctx, "k", time.Second, false, loader); err != nil {
		t.Fatalf("expired get: %v", err)
	}
	if loads.Load() != 2 {
		t.Errorf("loads = %d after expiry, want 2", loads.Load())
	}
}

func TestStore_ZeroTTLNeverStores(t *testing.T) {
	s := New[int]("test")
	ctx := context.Background()

	var loads atomic.Int32
	loader := func(ctx context.Context) (int, bool, error) {
		loads.Add(1)
		return 1, true, nil
	}

	for i := 0; i < 3; i++ {
		if _, err := s.Get(ctx, "k", 0, false, loader); err != nil {
			t.Fatalf("get %d: %v", i, err)
		}
	}
	if loads.Load() != 3 {
		t.Errorf("loads = %d, want 3 (ttl=0 disables storage)", loads.Load())
	}
	if s.Len() != 0 {
		t.Errorf("snapshots = %d, want 0", s.Len())
	}
}

func TestStore_NotCacheableNotStored(t *testing.T) {
	s := New[int]("test")
	ctx := context.Background()

	var loads atomic.Int32
	loader := func(ctx context.Context) (int, bool, error) {
		loads.Add(1)
		return 0, false, nil // code != 200 之类的业务失败
	}

	s.Get(ctx, "k", time.Minute, false, loader)
	s.Get(ctx, "k", time.Minute, false, loader)
	if loads.Load() != 2 {
		t.Errorf("loads = %d, want 2", loads.Load())
	}
}

func TestStore_ForceRefreshKeepsOldSnapshotOnFailure(t *testing.T) {
	s := New[int]("test")
	ctx := context.Background()

	ok := func(ctx context.Context) (int, bool, error) { return 7, true, nil }
	fail := func(ctx context.Context) (int, bool, error) { return 0, false, errors.New("boom") }

	if _, err := s.Get(ctx, "k", time.Minute, false, ok); err != nil {
		t.Fatalf("seed: %v", err)
	}

	// 强制刷新失败：旧快照不应被清除
	if _, err := s.Get(ctx, "k", time.Minute, true, fail); err == nil {
		t.Fatalf("forced refresh should surface the loader error")
	}

	v, err := s.Get(ctx, "k", time.Minute, false, fail)
	if err != nil || v != 7 {
		t.Errorf("old snapshot should still serve: v=%d err=%v", v, err)
	}
}

func TestStore_Clear(t *testing.T) {
	s := New[int]("test")
	ctx := context.Background()

	var loads atomic.Int32
	loader := func(ctx context.Context) (int, bool, error) {
		loads.Add(1)
		return 1, true, nil
	}

	s.Get(ctx, "a", time.Minute, false, loader)
	s.Get(ctx, "b", time.Minute, false, loader)

	s.Clear("a")
	s.Get(ctx, "a", time.Minute, false, loader)
	s.Get(ctx, "b", time.Minute, false, loader)
	if loads.Load() != 3 {
		t.Errorf("loads = %d, want 3 (only a reloaded)", loads.Load())
	}

	s.Clear()
	if s.Len() != 0 {
		t.Errorf("snapshots = %d after full clear, want 0", s.Len())
	}
}

// Package cache 提供按 key 的限时记忆化与并发请求合并。
//
// 同一个 key 同一时刻最多只有一次 loader 调用在执行；窗口期内的
// 其他调用方共享这次调用的结果（成功或失败都共享）。
// 快照只在进程内存里保存，进程重启即失效。
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/ipFirto/ConsumeAnalyseSystem/internal/pkg/metrics"
)

// Loader 是一次真实加载。返回值中的 cacheable 表示本次结果
// 是否可以写入快照（通常为"后端状态码等于成功哨兵"）。
type Loader[T any] func(ctx context.Context) (value T, cacheable bool, err error)

// snapshot 是一条带过期时间的缓存记录。
type snapshot[T any] struct {
	expiresAt time.Time
	value     T
}

// call 是一次进行中的加载（in-flight 标记）。
type call[T any] struct {
	done  chan struct{}
	value T
	err   error
}

// Store 是一个按 key 维度的缓存实例。
//
// 互斥锁只保护两张表的读写，loader 在锁外执行。
type Store[T any] struct {
	name      string
	mu        sync.Mutex
	snapshots map[string]snapshot[T]
	inflight  map[string]*call[T]
	now       func() time.Time
}

// New 创建一个缓存实例，name 仅用于指标打点。
func New[T any](name string) *Store[T] {
	return &Store[T]{
		name:      name,
		snapshots: make(map[string]snapshot[T]),
		inflight:  make(map[string]*call[T]),
		now:       time.Now,
	}
}

// Get 返回 key 对应的值。
//
// 规则：
//  1. 非强制刷新且快照未过期：直接返回快照值，不触发 loader；
//  2. 非强制刷新且该 key 已有加载在执行：等待并共享那次结果；
//  3. 其余情况执行 loader，期间注册 in-flight 标记；结束后
//     （无论成败）先清除标记再返回。ttl > 0 且 loader 报告
//     可缓存时写入快照；ttl == 0 只合并请求、从不写快照。
//
// 强制刷新会绕过但不会清除旧快照；只有新的加载成功落盘后
// 旧值才被整体替换。
func (s *Store[T]) Get(ctx context.Context, key string, ttl time.Duration, force bool, loader Loader[T]) (T, error) {
	s.mu.Lock()
	if !force {
		if snap, ok := s.snapshots[key]; ok && s.now().Before(snap.expiresAt) {
			s.mu.Unlock()
			metrics.CacheHitTotal.WithLabelValues(s.name).Inc()
			return snap.value, nil
		}
		if c, ok := s.inflight[key]; ok {
			s.mu.Unlock()
			metrics.CacheCoalescedTotal.WithLabelValues(s.name).Inc()
			select {
			case <-c.done:
				return c.value, c.err
			case <-ctx.Done():
				var zero T
				return zero, ctx.Err()
			}
		}
	}

	// 检查与注册必须在同一次持锁内完成，否则两个调用方可能
	// 同时发起加载
	c := &call[T]{done: make(chan struct{})}
	s.inflight[key] = c
	s.mu.Unlock()

	metrics.CacheMissTotal.WithLabelValues(s.name).Inc()

	value, cacheable, err := loader(ctx)

	s.mu.Lock()
	if err == nil && cacheable && ttl > 0 {
		s.snapshots[key] = snapshot[T]{expiresAt: s.now().Add(ttl), value: value}
	}
	// 只清理自己的标记：强制刷新可能已经用新的 call 覆盖
	if s.inflight[key] == c {
		delete(s.inflight, key)
	}
	s.mu.Unlock()

	c.value, c.err = value, err
	close(c.done)
	return value, err
}

// Clear 清除指定 key 的快照与 in-flight 标记；
// 不传 key 时整体清空。
func (s *Store[T]) Clear(keys ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(keys) == 0 {
		s.snapshots = make(map[string]snapshot[T])
		s.inflight = make(map[string]*call[T])
		return
	}
	for _, key := range keys {
		delete(s.snapshots, key)
		delete(s.inflight, key)
	}
}

// Len 返回当前快照条数（仅用于观测与测试）。
func (s *Store[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.snapshots)
}

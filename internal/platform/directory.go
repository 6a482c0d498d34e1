// Package platform 维护上游平台清单。
//
// 清单整个进程只加载一次（或显式强制刷新），加载失败时回退到
// 内置默认列表，对调用方永不报错。
package platform

import (
	"context"
	"log/slog"
	"sync"

	"github.com/ipFirto/ConsumeAnalyseSystem/internal/model"
	"github.com/ipFirto/ConsumeAnalyseSystem/internal/normalize"
)

// DefaultPlatformList 是后端不可用时的兜底平台清单。
var DefaultPlatformList = []model.PlatformMeta{
	{ID: 1, Code: "douyin", Name: "抖音", Status: 1},
	{ID: 2, Code: "tmall", Name: "天猫", Status: 1},
	{ID: 3, Code: "jd", Name: "京东", Status: 1},
	{ID: 4, Code: "pdd", Name: "拼多多", Status: 1},
	{ID: 5, Code: "dewu", Name: "得物", Status: 1},
}

// Source 是平台清单的上游来源（由 upstream.Service 满足）。
type Source interface {
	PlatformList(ctx context.Context) (model.Envelope, error)
}

// loadCall 是一次进行中的加载。
type loadCall struct {
	done chan struct{}
	list []model.PlatformMeta
}

// Directory 是进程级的平台目录。
//
// 缓存没有 TTL：除非显式强制刷新，加载一次后一直有效。
type Directory struct {
	source Source
	logger *slog.Logger

	mu       sync.Mutex
	cached   []model.PlatformMeta
	inflight *loadCall
}

// NewDirectory 创建平台目录。
func NewDirectory(source Source, logger *slog.Logger) *Directory {
	return &Directory{source: source, logger: logger}
}

// Load 返回平台清单。
//
// 非强制且已有缓存时直接返回；已有加载在执行时共享那次结果。
// 上游失败、业务失败或清单为空都会回退到内置默认清单，
// 因此该方法对调用方永不报错。
func (d *Directory) Load(ctx context.Context, force bool) []model.PlatformMeta {
	d.mu.Lock()
	if !force {
		if len(d.cached) > 0 {
			list := d.cached
			d.mu.Unlock()
			return list
		}
		if c := d.inflight; c != nil {
			d.mu.Unlock()
			select {
			case <-c.done:
				return c.list
			case <-ctx.Done():
				return DefaultPlatformList
			}
		}
	}
	c := &loadCall{done: make(chan struct{})}
	d.inflight = c
	d.mu.Unlock()

	list := d.fetch(ctx)

	d.mu.Lock()
	d.cached = list
	if d.inflight == c {
		d.inflight = nil
	}
	d.mu.Unlock()

	c.list = list
	close(c.done)
	return list
}

// fetch 拉取并归一化平台清单，任何失败都降级为默认清单。
func (d *Directory) fetch(ctx context.Context) []model.PlatformMeta {
	envelope, err := d.source.PlatformList(ctx)
	if err != nil {
		if d.logger != nil {
			d.logger.Warn("load platform list failed, using defaults",
				slog.String("error", err.Error()))
		}
		return DefaultPlatformList
	}
	if envelope.Code != model.EnvelopeOK {
		if d.logger != nil {
			d.logger.Warn("platform list returned business failure, using defaults",
				slog.Int("code", envelope.Code),
				slog.String("msg", envelope.Msg))
		}
		return DefaultPlatformList
	}

	list := normalize.PlatformList(envelope.Data)
	if len(list) == 0 {
		return DefaultPlatformList
	}
	return list
}

// Cached 返回当前缓存的清单，未加载过时返回默认清单。
func (d *Directory) Cached() []model.PlatformMeta {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.cached) > 0 {
		return d.cached
	}
	return DefaultPlatformList
}

// MapByID 构造 id 到平台的查找表。
//
// 传入清单为空时使用当前缓存（或默认清单）。
func (d *Directory) MapByID(list ...[]model.PlatformMeta) map[int]model.PlatformMeta {
	source := d.Cached()
	if len(list) > 0 && len(list[0]) > 0 {
		source = list[0]
	}
	out := make(map[int]model.PlatformMeta, len(source))
	for _, item := range source {
		out[item.ID] = item
	}
	return out
}

// NameByID 按 id 查平台名；id 非正时不触碰缓存，直接返回空串。
func (d *Directory) NameByID(id int, list ...[]model.PlatformMeta) string {
	if id <= 0 {
		return ""
	}
	if item, ok := d.MapByID(list...)[id]; ok {
		return item.Name
	}
	return ""
}

// Reset 清空缓存（测试用）。
func (d *Directory) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cached = nil
	d.inflight = nil
}

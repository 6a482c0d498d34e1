// Package upstream 是各实体接口的类型化访问层。
//
// 它只做三件事：拼请求、归一化返回、按需要套缓存。
// 业务失败（code != 200）对内部调用方表现为空数据，
// 透传型接口则原样返回 Envelope 由上层自行判断。
package upstream

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/ipFirto/ConsumeAnalyseSystem/internal/cache"
	"github.com/ipFirto/ConsumeAnalyseSystem/internal/config"
	"github.com/ipFirto/ConsumeAnalyseSystem/internal/model"
	"github.com/ipFirto/ConsumeAnalyseSystem/internal/normalize"
	"github.com/ipFirto/ConsumeAnalyseSystem/internal/transport"
)

// ErrInvalidPlatformID 表示调用方传入了非正数的平台 ID。
//
// 这是调用方编码错误，在发起任何网络请求之前立即报错。
var ErrInvalidPlatformID = errors.New("upstream: invalid platform id")

const defaultProductFetchLimit = 5000

// Service 聚合所有上游实体接口。
type Service struct {
	client       *transport.Client
	logger       *slog.Logger
	orderCache   *cache.Store[[]model.OrderRecord]
	orderTTL     time.Duration
	productLimit int
}

// NewService 创建上游访问层。
func NewService(client *transport.Client, logger *slog.Logger, cfg *config.CacheConfig) *Service {
	orderTTL := 2 * time.Minute
	productLimit := defaultProductFetchLimit
	if cfg != nil {
		if cfg.OrderFeedTTL > 0 {
			orderTTL = cfg.OrderFeedTTL
		}
		if cfg.ProductFetchLimit > 0 {
			productLimit = cfg.ProductFetchLimit
		}
	}
	return &Service{
		client:       client,
		logger:       logger,
		orderCache:   cache.New[[]model.OrderRecord]("order_feed"),
		orderTTL:     orderTTL,
		productLimit: productLimit,
	}
}

// PlatformList 拉取平台列表，原样返回 Envelope。
func (s *Service) PlatformList(ctx context.Context) (model.Envelope, error) {
	return s.client.Get(ctx, "/platform/list", nil)
}

// OrdersByPlatform 拉取单个平台的订单流水（已归一化）。
//
// 按平台 ID 维度缓存（默认 2 分钟），并发请求合并；只有
// code == 200 的结果才会写入缓存。force 为 true 时绕过缓存。
func (s *Service) OrdersByPlatform(ctx context.Context, platformID int, force bool) ([]model.OrderRecord, error) {
	if platformID <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidPlatformID, platformID)
	}

	key := strconv.Itoa(platformID)
	return s.orderCache.Get(ctx, key, s.orderTTL, force, func(ctx context.Context) ([]model.OrderRecord, bool, error) {
		envelope, err := s.client.Get(ctx, "/platform/"+key, nil)
		if err != nil {
			return nil, false, err
		}
		if envelope.Code != model.EnvelopeOK {
			return []model.OrderRecord{}, false, nil
		}
		return normalize.OrderList(envelope.Data), true, nil
	})
}

// ClearOrderFeed 清除订单流水缓存；不传参数时整体清空。
func (s *Service) ClearOrderFeed(platformIDs ...int) {
	if len(platformIDs) == 0 {
		s.orderCache.Clear()
		return
	}
	keys := make([]string, 0, len(platformIDs))
	for _, id := range platformIDs {
		if id > 0 {
			keys = append(keys, strconv.Itoa(id))
		}
	}
	s.orderCache.Clear(keys...)
}

// ProductsByPlatform 拉取单个平台的商品列表（已归一化）。
//
// 业务失败得到空列表而不是错误，聚合侧据此把该平台降级为空数据。
func (s *Service) ProductsByPlatform(ctx context.Context, platformID int) ([]model.ProductRecord, error) {
	if platformID <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidPlatformID, platformID)
	}

	params := url.Values{}
	params.Set("platformId", strconv.Itoa(platformID))
	params.Set("status", "1")
	params.Set("limit", strconv.Itoa(s.productLimit))
	params.Set("offset", "0")

	envelope, err := s.client.Get(ctx, "/product/listByPlatform", params)
	if err != nil {
		return nil, err
	}
	if envelope.Code != model.EnvelopeOK {
		return []model.ProductRecord{}, nil
	}
	return normalize.ProductList(envelope.Data), nil
}

// ProductCategories 拉取单个平台的分类清单，去重并排序。
//
// 每行取 category、name 或裸字符串中第一个非空的值。
func (s *Service) ProductCategories(ctx context.Context, platformID int) ([]string, error) {
	if platformID <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidPlatformID, platformID)
	}

	params := url.Values{}
	params.Set("platformId", strconv.Itoa(platformID))

	envelope, err := s.client.Get(ctx, "/product/showCategory", params)
	if err != nil {
		return nil, err
	}
	if envelope.Code != model.EnvelopeOK {
		return []string{}, nil
	}

	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, row := range normalize.RawList(envelope.Data) {
		name := categoryName(row)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	sort.Strings(out)
	return out, nil
}

func categoryName(row any) string {
	if m, ok := row.(map[string]any); ok {
		if v, ok := m["category"]; ok && v != nil {
			return normalize.Text(v)
		}
		if v, ok := m["name"]; ok && v != nil {
			return normalize.Text(v)
		}
		return ""
	}
	return normalize.Text(row)
}

// CartItems 拉取购物车列表（已归一化）。
//
// 业务失败得到空列表而不是错误。
func (s *Service) CartItems(ctx context.Context) ([]model.CartItemRecord, error) {
	envelope, err := s.client.Get(ctx, "/mq/itemList", nil)
	if err != nil {
		return nil, err
	}
	if envelope.Code != model.EnvelopeOK {
		return []model.CartItemRecord{}, nil
	}
	return normalize.CartItemList(envelope.Data), nil
}

// RecentOrders 拉取最近订单（已归一化）。
//
// limit 非正时使用 30；status 只在为正时作为过滤条件携带。
func (s *Service) RecentOrders(ctx context.Context, limit, status int) ([]model.OrderRecord, error) {
	if limit <= 0 {
		limit = 30
	}
	params := url.Values{}
	params.Set("limit", strconv.Itoa(limit))
	if status > 0 {
		params.Set("status", strconv.Itoa(status))
	}

	envelope, err := s.client.Get(ctx, "/mq/selectRecentOrders", params)
	if err != nil {
		return nil, err
	}
	if envelope.Code != model.EnvelopeOK {
		return []model.OrderRecord{}, nil
	}
	return normalize.OrderList(envelope.Data), nil
}

// UserOrderList 拉取用户订单列表，原样返回 Envelope。
func (s *Service) UserOrderList(ctx context.Context) (model.Envelope, error) {
	return s.client.Get(ctx, "/show/userOrder", nil)
}

// Snapshot 拉取看板快照。
//
// scope 为空时使用 "home"；platformID <= 0 时不携带该参数。
func (s *Service) Snapshot(ctx context.Context, scope string, platformID int) (model.DashboardSnapshotResponse, error) {
	if scope == "" {
		scope = "home"
	}
	params := url.Values{}
	params.Set("scope", scope)
	if platformID > 0 {
		params.Set("platformId", strconv.Itoa(platformID))
	}

	var resp model.DashboardSnapshotResponse
	if err := s.client.GetInto(ctx, "/api/v1/dashboard/snapshot", params, &resp); err != nil {
		return model.DashboardSnapshotResponse{}, err
	}
	return resp, nil
}

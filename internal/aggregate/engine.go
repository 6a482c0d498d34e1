// Package aggregate 计算跨平台的资源商品统计数据集。
//
// 一次聚合会并发拉取每个平台的订单流水与商品列表，按复合键
// 关联出每个商品的销量统计，最后产出确定性排序的数据集。
// 整个数据集只有一个缓存槽位，默认 2 分钟有效。
package aggregate

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/ipFirto/ConsumeAnalyseSystem/internal/cache"
	"github.com/ipFirto/ConsumeAnalyseSystem/internal/model"
	"github.com/ipFirto/ConsumeAnalyseSystem/internal/normalize"
	"github.com/ipFirto/ConsumeAnalyseSystem/internal/pkg/metrics"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// DefaultCategory 是分类为空时的占位值。
const DefaultCategory = "Uncategorized"

// datasetKey 是数据集缓存的唯一槽位。整个进程只有一份数据集，
// 未来如果要按过滤条件拆分数据集，需要扩展这里的 key 空间。
const datasetKey = "resource-products"

// PlatformDirectory 提供参与聚合的平台清单。
type PlatformDirectory interface {
	Load(ctx context.Context, force bool) []model.PlatformMeta
}

// OrderSource 提供单平台的订单流水。
type OrderSource interface {
	OrdersByPlatform(ctx context.Context, platformID int, force bool) ([]model.OrderRecord, error)
}

// ProductSource 提供单平台的商品列表。
type ProductSource interface {
	ProductsByPlatform(ctx context.Context, platformID int) ([]model.ProductRecord, error)
}

// orderStat 是按复合键累计的销量统计。
type orderStat struct {
	salesCount    int
	totalAmount   float64
	latestOrderAt string
}

// Engine 是聚合引擎。
type Engine struct {
	directory PlatformDirectory
	orders    OrderSource
	products  ProductSource
	store     *cache.Store[model.ResourceProductDataset]
	ttl       time.Duration
	collator  *collate.Collator
	logger    *slog.Logger
}

// NewEngine 创建聚合引擎，ttl <= 0 时使用默认的 2 分钟。
func NewEngine(directory PlatformDirectory, orders OrderSource, products ProductSource, ttl time.Duration, logger *slog.Logger) *Engine {
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	return &Engine{
		directory: directory,
		orders:    orders,
		products:  products,
		store:     cache.New[model.ResourceProductDataset]("resource_products"),
		ttl:       ttl,
		collator:  collate.New(language.Chinese),
		logger:    logger,
	}
}

// ProductKey 计算订单与商品关联用的复合键。
//
// 有正数商品 ID 时使用 "platformId::pid::productId"；否则退化为
// "platformId::name::productName"（订单行缺少商品 ID 时的兜底键）。
func ProductKey(platformID, productID int, productName string) string {
	if productID > 0 {
		return strconv.Itoa(platformID) + "::pid::" + strconv.Itoa(productID)
	}
	return strconv.Itoa(platformID) + "::name::" + productName
}

// Dataset 返回资源商品数据集。
//
// 命中缓存时直接返回；否则执行一次完整聚合并（成功时）写入
// 唯一的缓存槽位。force 只透传给平台清单的加载，单平台拉取
// 失败降级为该平台空数据，聚合本身从不因此失败。
func (e *Engine) Dataset(ctx context.Context, force bool) (model.ResourceProductDataset, error) {
	return e.store.Get(ctx, datasetKey, e.ttl, force, func(ctx context.Context) (model.ResourceProductDataset, bool, error) {
		start := time.Now()
		dataset := e.aggregate(ctx, force)
		metrics.AggregationDuration.Observe(time.Since(start).Seconds())
		return dataset, true, nil
	})
}

// Invalidate 清除数据集缓存槽位。
func (e *Engine) Invalidate() {
	e.store.Clear(datasetKey)
}

// aggregate 执行一次完整聚合。
func (e *Engine) aggregate(ctx context.Context, force bool) model.ResourceProductDataset {
	platforms := e.directory.Load(ctx, force)

	ordersByIdx := make([][]model.OrderRecord, len(platforms))
	productsByIdx := make([][]model.ProductRecord, len(platforms))

	// 每个平台两路独立拉取，全部结算后才开始聚合；
	// 任何一路失败都只把该路降级为空，不取消其他拉取
	var wg sync.WaitGroup
	for i, p := range platforms {
		wg.Add(2)
		go func(idx, platformID int) {
			defer wg.Done()
			rows, err := e.orders.OrdersByPlatform(ctx, platformID, false)
			if err != nil {
				e.warnFetch("order feed", platformID, err)
				rows = nil
			}
			ordersByIdx[idx] = rows
		}(i, p.ID)
		go func(idx, platformID int) {
			defer wg.Done()
			rows, err := e.products.ProductsByPlatform(ctx, platformID)
			if err != nil {
				e.warnFetch("product list", platformID, err)
				rows = nil
			}
			productsByIdx[idx] = rows
		}(i, p.ID)
	}
	wg.Wait()

	productIDByName := buildProductIDByName(productsByIdx)
	stats := buildOrderStats(platforms, ordersByIdx, productIDByName)
	products, categories := e.buildItems(platforms, productsByIdx, stats)

	return model.ResourceProductDataset{
		Products:   products,
		Platforms:  platforms,
		Categories: categories,
	}
}

func (e *Engine) warnFetch(what string, platformID int, err error) {
	if e.logger != nil {
		e.logger.Warn("platform fetch degraded to empty",
			slog.String("source", what),
			slog.Int("platform_id", platformID),
			slog.String("error", err.Error()))
	}
}

// buildProductIDByName 构造 "platformId::productName" 到商品 ID 的
// 查找表，用来给缺少商品 ID 的订单行回填 ID。
func buildProductIDByName(productsByIdx [][]model.ProductRecord) map[string]int {
	out := make(map[string]int)
	for _, rows := range productsByIdx {
		for _, item := range rows {
			if item.ID > 0 && item.PlatformID > 0 && item.ProductName != "" {
				out[fmt.Sprintf("%d::%s", item.PlatformID, item.ProductName)] = item.ID
			}
		}
	}
	return out
}

// buildOrderStats 按复合键累计每个商品的销量统计。
func buildOrderStats(platforms []model.PlatformMeta, ordersByIdx [][]model.OrderRecord, productIDByName map[string]int) map[string]*orderStat {
	stats := make(map[string]*orderStat)

	for i, p := range platforms {
		for _, row := range ordersByIdx[i] {
			name := row.ProductName
			if name == "" {
				continue
			}

			productID := row.ProductID
			if productID <= 0 {
				productID = productIDByName[fmt.Sprintf("%d::%s", p.ID, name)]
			}

			key := ProductKey(p.ID, productID, name)
			current, ok := stats[key]
			if !ok {
				stats[key] = &orderStat{
					salesCount:    1,
					totalAmount:   row.Amount,
					latestOrderAt: row.CoCreatedAt,
				}
				continue
			}

			current.salesCount++
			current.totalAmount += row.Amount
			if normalize.Timestamp(row.CoCreatedAt) > normalize.Timestamp(current.latestOrderAt) {
				current.latestOrderAt = row.CoCreatedAt
			}
		}
	}
	return stats
}

// buildItems 生成排序后的商品统计与分类清单。
func (e *Engine) buildItems(platforms []model.PlatformMeta, productsByIdx [][]model.ProductRecord, stats map[string]*orderStat) ([]model.ResourceProductItem, []string) {
	categorySet := make(map[string]struct{})
	items := make([]model.ResourceProductItem, 0)

	for i, p := range platforms {
		for _, row := range productsByIdx[i] {
			if row.ID <= 0 || row.ProductName == "" {
				continue
			}

			key := ProductKey(p.ID, row.ID, row.ProductName)
			category := row.Category
			if category == "" {
				category = DefaultCategory
			}
			categorySet[category] = struct{}{}

			platformName := row.PlatformName
			if platformName == "" {
				platformName = p.Name
			}

			stock := int(row.Stock)
			if stock < 0 {
				stock = 0
			}

			item := model.ResourceProductItem{
				Key:            key,
				ProductID:      row.ID,
				ProductName:    row.ProductName,
				PlatformID:     p.ID,
				PlatformName:   platformName,
				Category:       category,
				ItemAmount:     row.Amount,
				StockRemaining: stock,
			}
			if stat, ok := stats[key]; ok {
				item.SalesCount = stat.salesCount
				item.TotalAmount = stat.totalAmount
				item.LatestOrderAt = stat.latestOrderAt
			}
			items = append(items, item)
		}
	}

	// 多级排序：销量降序 → 总额降序 → 最近成交降序 → 名称按
	// 中文排序规则升序；完全相同的行保持输入顺序（稳定排序）
	sort.SliceStable(items, func(a, b int) bool {
		left, right := items[a], items[b]
		if left.SalesCount != right.SalesCount {
			return left.SalesCount > right.SalesCount
		}
		if left.TotalAmount != right.TotalAmount {
			return left.TotalAmount > right.TotalAmount
		}
		leftTs, rightTs := normalize.Timestamp(left.LatestOrderAt), normalize.Timestamp(right.LatestOrderAt)
		if leftTs != rightTs {
			return leftTs > rightTs
		}
		return e.collator.CompareString(left.ProductName, right.ProductName) < 0
	})

	categories := make([]string, 0, len(categorySet))
	for category := range categorySet {
		categories = append(categories, category)
	}
	sort.Slice(categories, func(a, b int) bool {
		return e.collator.CompareString(categories[a], categories[b]) < 0
	})

	return items, categories
}

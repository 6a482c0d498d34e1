package model

import "encoding/json"

// Envelope 是后端所有接口统一的返回结构 {code, msg, data}。
//
// code == 200 表示业务成功；Data 保持原始 JSON，由各自的
// normalize 函数再做字段归一化。
type Envelope struct {
	Code int             `json:"code"` // 业务状态码，200 为成功
	Msg  string          `json:"msg"`  // 提示信息
	Data json.RawMessage `json:"data"` // 原始负载，按需解析
}

// EnvelopeOK 是通用的成功判定哨兵值。
const EnvelopeOK = 200

// PlatformMeta 表示一个上游平台（销售渠道/租户）。
//
// 平台列表整个进程只加载一次（或强制刷新），加载失败时回退到
// 内置默认列表。返回后视为不可变。
type PlatformMeta struct {
	ID     int    `json:"id"`     // 平台唯一标识
	Code   string `json:"code"`   // 平台编码（如 douyin）
	Name   string `json:"name"`   // 平台展示名
	Status int    `json:"status"` // 状态：1 启用 / 0 停用
}

// ProductRecord 表示归一化后的商品记录。
//
// 仅当 ID > 0 时才会被纳入任何结果列表。
type ProductRecord struct {
	ID           int     `json:"id"`            // 商品 ID
	PlatformID   int     `json:"platform_id"`   // 所属平台 ID
	Brand        string  `json:"brand"`         // 品牌
	ProductName  string  `json:"product_name"`  // 商品名称
	PlatformName string  `json:"platform_name"` // 平台名称（冗余字段）
	Category     string  `json:"category"`      // 分类
	Amount       float64 `json:"amount"`        // 单价
	Stock        float64 `json:"stock"`         // 库存
	Status       int     `json:"status"`        // 状态，归一化为 0/1
	CreatedAt    string  `json:"created_at"`    // 创建时间
	UpdatedAt    string  `json:"updated_at"`    // 更新时间
}

// OrderRecord 表示平台订单流水。
//
// 上游字段命名不统一（snake_case / camelCase / 同义字段），由
// normalize.Order 按别名优先级合并成这一种形状。
// 仅当 CoID > 0 或 CoOrderNo 非空时才会被纳入结果列表。
type OrderRecord struct {
	CoID          int     `json:"co_id"`          // 订单 ID
	CoOrderNo     string  `json:"co_order_no"`    // 订单号
	UserID        int     `json:"user_id"`        // 下单用户 ID
	ProductID     int     `json:"product_id"`     // 商品 ID（可能缺失，聚合时按名称回填）
	CityID        int     `json:"city_id"`        // 城市 ID
	Quantity      int     `json:"quantity"`       // 数量，至少为 1
	ProductName   string  `json:"product_name"`   // 商品名称
	Brand         string  `json:"brand"`          // 品牌
	Category      string  `json:"category"`       // 分类
	CityName      string  `json:"city_name"`      // 城市名
	ProvinceName  string  `json:"province_name"`  // 省份名
	PlatformName  string  `json:"platform_name"`  // 平台名
	Amount        float64 `json:"amount"`         // 订单金额
	CoCreatedAt   string  `json:"co_created_at"`  // 下单时间
	CoUpdatedAt   string  `json:"co_updated_at"`  // 更新时间
	CoRemark      string  `json:"co_remark"`      // 备注
	PayDeadline   string  `json:"pay_deadline"`   // 支付截止时间
	PayTime       string  `json:"pay_time"`       // 支付时间
	PaymentMethod string  `json:"payment_method"` // 支付方式
	PaymentNo     string  `json:"payment_no"`     // 支付流水号
	Status        int     `json:"status"`         // 订单状态
}

// CartItemRecord 表示归一化后的购物车条目。
//
// 仅当 ID > 0 且 ProductID > 0 时才会被纳入结果列表。
type CartItemRecord struct {
	ID             int     `json:"id"`               // 条目 ID
	UserID         int     `json:"user_id"`          // 用户 ID
	ProductID      int     `json:"product_id"`       // 商品 ID
	CityID         int     `json:"city_id"`          // 城市 ID
	Brand          string  `json:"brand"`            // 品牌
	Category       string  `json:"category"`         // 分类
	PlatformID     int     `json:"platform_id"`      // 平台 ID
	ProductStatus  int     `json:"product_status"`   // 商品状态
	CityName       string  `json:"city_name"`        // 城市名
	CartItemStatus int     `json:"cart_item_status"` // 条目状态
	Amount         float64 `json:"amount"`           // 金额
	Quantity       int     `json:"quantity"`         // 数量
	Status         int     `json:"status"`           // 与 CartItemStatus 保持一致
	CreatedAt      string  `json:"created_at"`       // 创建时间
	UpdatedAt      string  `json:"updated_at"`       // 更新时间
	ProductName    string  `json:"product_name"`     // 商品名称
}

// ResourceProductItem 是聚合产出的单个商品统计行。
//
// Key 是稳定的复合标识："platformId::pid::productId"；订单缺少
// 商品 ID 时退化为 "platformId::name::productName"。
// 该结构每次聚合都会重新计算，不独立持久化。
type ResourceProductItem struct {
	Key            string  `json:"key"`            // 复合标识
	ProductID      int     `json:"productId"`      // 商品 ID
	ProductName    string  `json:"productName"`    // 商品名称
	PlatformID     int     `json:"platformId"`     // 平台 ID
	PlatformName   string  `json:"platformName"`   // 平台名
	Category       string  `json:"category"`       // 分类（空时使用占位值）
	ItemAmount     float64 `json:"itemAmount"`     // 商品单价
	StockRemaining int     `json:"stockRemaining"` // 剩余库存（非负）
	SalesCount     int     `json:"salesCount"`     // 成交笔数
	TotalAmount    float64 `json:"totalAmount"`    // 成交总额
	LatestOrderAt  string  `json:"latestOrderAt"`  // 最近一次成交时间
}

// ResourceProductDataset 是资源商品聚合的完整产出。
type ResourceProductDataset struct {
	Products   []ResourceProductItem `json:"products"`   // 排序后的商品统计
	Platforms  []PlatformMeta        `json:"platforms"`  // 参与聚合的平台列表
	Categories []string              `json:"categories"` // 实际出现的分类（去重排序）
}

// DashboardEvent 是看板事件流上的一条有序事件。
//
// Cursor 单调不减，由调用方用来检测事件缺口；核心只透传。
type DashboardEvent struct {
	Cursor  int64           `json:"cursor"`  // 逻辑位置，单调不减
	Type    string          `json:"type"`    // 事件类型：hello / patch / heartbeat
	Topic   string          `json:"topic"`   // 订阅主题
	Op      string          `json:"op"`      // 操作标识
	Ts      string          `json:"ts"`      // 服务端时间戳
	Payload json.RawMessage `json:"payload"` // 事件负载，原样透传
}

// DashboardSnapshotData 是快照接口 data 字段的形状。
type DashboardSnapshotData struct {
	Scope    string          `json:"scope"`    // 快照范围
	Snapshot json.RawMessage `json:"snapshot"` // 快照内容，原样透传
}

// DashboardSnapshotResponse 是快照接口的完整返回。
type DashboardSnapshotResponse struct {
	Code       int                   `json:"code"`       // 业务状态码
	Message    string                `json:"message"`    // 提示信息
	ServerTime string                `json:"serverTime"` // 服务端时间
	Cursor     int64                 `json:"cursor"`     // 当前事件游标
	Data       DashboardSnapshotData `json:"data"`       // 快照数据
}

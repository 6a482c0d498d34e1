package normalize

import "github.com/ipFirto/ConsumeAnalyseSystem/internal/model"

// CartItem 把一行购物车原始数据归一化为 model.CartItemRecord。
//
// 条目状态优先取 cart_item_status，缺失时退回 status，默认 1；
// Status 字段与 CartItemStatus 保持同一个值。
func CartItem(raw any) model.CartItemRecord {
	row := asRow(decodeRaw(raw))
	if row == nil {
		return model.CartItemRecord{ProductStatus: 1, CartItemStatus: 1, Quantity: 1, Status: 1}
	}

	itemStatus := 1
	if v, ok := pick(row, "cart_item_status", "status"); ok {
		itemStatus = int(Number(v, 1))
	}

	return model.CartItemRecord{
		ID:             pickInt(row, 0, "id"),
		UserID:         pickInt(row, 0, "user_id", "userId"),
		ProductID:      pickInt(row, 0, "product_id", "productId"),
		CityID:         pickInt(row, 0, "city_id", "cityId"),
		Brand:          pickText(row, "brand"),
		Category:       pickText(row, "category"),
		PlatformID:     pickInt(row, 0, "platform_id", "platformId"),
		ProductStatus:  pickInt(row, 1, "product_status", "productStatus"),
		CityName:       pickText(row, "city_name", "cityName"),
		CartItemStatus: itemStatus,
		Amount:         pickNumber(row, 0, "amount"),
		Quantity:       pickInt(row, 1, "quantity"),
		Status:         itemStatus,
		CreatedAt:      pickText(row, "created_at", "createdAt"),
		UpdatedAt:      pickText(row, "updated_at", "updatedAt"),
		ProductName:    pickText(row, "product_name", "productName"),
	}
}

// CartItemList 归一化购物车列表。
//
// ID 或商品 ID 非正的行被静默丢弃。
func CartItemList(raw any) []model.CartItemRecord {
	rows := unwrapList(decodeRaw(raw))
	out := make([]model.CartItemRecord, 0, len(rows))
	for _, item := range rows {
		record := CartItem(item)
		if record.ID > 0 && record.ProductID > 0 {
			out = append(out, record)
		}
	}
	return out
}

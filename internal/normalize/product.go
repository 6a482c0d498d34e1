package normalize

import "github.com/ipFirto/ConsumeAnalyseSystem/internal/model"

// Product 把一行商品原始数据归一化为 model.ProductRecord。
func Product(raw any) model.ProductRecord {
	row := asRow(decodeRaw(raw))
	if row == nil {
		return model.ProductRecord{Status: 1}
	}

	return model.ProductRecord{
		ID:           pickInt(row, 0, "id"),
		PlatformID:   pickInt(row, 0, "platform_id", "platformId"),
		Brand:        pickText(row, "brand"),
		ProductName:  pickText(row, "product_name", "productName"),
		PlatformName: pickText(row, "platform_name", "platformName"),
		Category:     pickText(row, "category"),
		Amount:       pickNumber(row, 0, "amount"),
		Stock:        pickNumber(row, 0, "stock"),
		Status:       Status(row["status"]),
		CreatedAt:    pickText(row, "created_at", "createdAt"),
		UpdatedAt:    pickText(row, "updated_at", "updatedAt"),
	}
}

// ProductList 归一化商品列表，ID 非正的行被静默丢弃。
func ProductList(raw any) []model.ProductRecord {
	rows := unwrapList(decodeRaw(raw))
	out := make([]model.ProductRecord, 0, len(rows))
	for _, item := range rows {
		record := Product(item)
		if record.ID > 0 {
			out = append(out, record)
		}
	}
	return out
}

package normalize

import "github.com/ipFirto/ConsumeAnalyseSystem/internal/model"

// Order 把一行订单原始数据归一化为 model.OrderRecord。
//
// 每个字段按固定的别名优先级链解析，链上第一个出现的字段生效
// （即使值为 0 或空串），与旧前端的行为保持一致。
func Order(raw any) model.OrderRecord {
	row := asRow(decodeRaw(raw))
	if row == nil {
		return model.OrderRecord{Quantity: 1, Status: 1}
	}

	quantity := int(pickNumber(row, 1, "quantity", "co_quantity"))
	if quantity < 1 {
		quantity = 1
	}

	status := 1
	if v, ok := pick(row, "co_status", "order_status", "status", "orderStatus"); ok {
		status = int(Number(v, 1))
	}

	return model.OrderRecord{
		CoID:          pickInt(row, 0, "co_id", "coId", "order_id", "orderId", "id"),
		CoOrderNo:     pickText(row, "co_order_no", "coOrderNo", "order_no", "orderNo"),
		UserID:        pickInt(row, 0, "user_id", "userId"),
		ProductID:     pickInt(row, 0, "product_id", "productId", "pr_id", "prId"),
		CityID:        pickInt(row, 0, "city_id", "cityId", "c_id", "cId"),
		Quantity:      quantity,
		ProductName:   pickText(row, "product_name", "productName"),
		Brand:         pickText(row, "p_brand", "brand"),
		Category:      pickText(row, "category", "p_brand"),
		CityName:      pickText(row, "city_name", "cityName", "c_name", "cName"),
		ProvinceName:  pickText(row, "province_name", "provinceName", "pr_name", "prName"),
		PlatformName:  pickText(row, "platform_name", "platformName", "pf_name", "pfName"),
		Amount:        pickNumber(row, 0, "amount"),
		CoCreatedAt:   pickText(row, "co_created_at", "coCreatedAt", "created_at", "createdAt"),
		CoUpdatedAt:   pickText(row, "co_updated_at", "coUpdatedAt", "updated_at", "updatedAt"),
		CoRemark:      pickText(row, "co_remark", "coRemark", "remark"),
		PayDeadline:   pickText(row, "pay_deadline", "payDeadline"),
		PayTime:       pickText(row, "pay_time", "payTime"),
		PaymentMethod: pickText(row, "payment_method", "paymentMethod"),
		PaymentNo:     pickText(row, "payment_no", "paymentNo"),
		Status:        status,
	}
}

// OrderList 归一化订单列表。
//
// 接受裸数组或包在 list/records/rows 下的数组；没有正数 ID 且
// 订单号为空的行被静默丢弃。
func OrderList(raw any) []model.OrderRecord {
	rows := unwrapList(decodeRaw(raw))
	out := make([]model.OrderRecord, 0, len(rows))
	for _, item := range rows {
		record := Order(item)
		if record.CoID > 0 || record.CoOrderNo != "" {
			out = append(out, record)
		}
	}
	return out
}

package normalize

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestOrder_AliasPriority(t *testing.T) {
	// 链上第一个出现的别名生效，即使后面的别名也有值
	row := map[string]any{
		"co_id": float64(5),
		"coId":  float64(99),
	}
	record := Order(row)
	if record.CoID != 5 {
		t.Errorf("co_id should win over coId: got %d, want 5", record.CoID)
	}

	// 第一个别名缺失时沿链后退
	row = map[string]any{
		"orderId": float64(7),
	}
	record = Order(row)
	if record.CoID != 7 {
		t.Errorf("orderId fallback: got %d, want 7", record.CoID)
	}

	// 值为 0 也算命中，不继续后退
	row = map[string]any{
		"co_id": float64(0),
		"id":    float64(12),
	}
	record = Order(row)
	if record.CoID != 0 {
		t.Errorf("present zero should win: got %d, want 0", record.CoID)
	}
}

func TestOrder_Defaults(t *testing.T) {
	record := Order(map[string]any{})
	if record.Quantity != 1 {
		t.Errorf("quantity default = %d, want 1", record.Quantity)
	}
	if record.Status != 1 {
		t.Errorf("status default = %d, want 1", record.Status)
	}

	record = Order("not an object")
	if record.Quantity != 1 || record.Status != 1 {
		t.Errorf("non-object input should yield defaults, got %+v", record)
	}
}

func TestOrderList_FilterAndUnwrap(t *testing.T) {
	raw := map[string]any{
		"rows": []any{
			map[string]any{"co_id": float64(1), "amount": float64(10)},
			map[string]any{"co_id": float64(0), "co_order_no": ""},
			map[string]any{"co_id": float64(0), "co_order_no": "NO-1"},
			"garbage",
		},
	}
	list := OrderList(raw)
	if len(list) != 2 {
		t.Fatalf("got %d rows, want 2", len(list))
	}
	if list[0].CoID != 1 || list[1].CoOrderNo != "NO-1" {
		t.Errorf("unexpected rows: %+v", list)
	}
}

func TestOrderList_RawEnvelopeData(t *testing.T) {
	data := json.RawMessage(`[{"coId": 3, "amount": "15.5", "camelExtra": true}]`)
	list := OrderList(data)
	if len(list) != 1 {
		t.Fatalf("got %d rows, want 1", len(list))
	}
	if list[0].CoID != 3 || list[0].Amount != 15.5 {
		t.Errorf("unexpected record: %+v", list[0])
	}
}

func TestOrder_Idempotent(t *testing.T) {
	original := Order(map[string]any{
		"co_id":         float64(8),
		"order_no":      "NO-8",
		"product_name":  " Widget ",
		"amount":        "29.9",
		"co_created_at": "2024-05-01 10:00:00",
		"quantity":      float64(2),
		"co_status":     float64(0),
	})

	// 归一化结果重新序列化再归一化，应得到完全相同的记录
	encoded, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded any
	if err := json.Unmarshal(encoded, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	again := Order(decoded)
	if !reflect.DeepEqual(original, again) {
		t.Errorf("normalization not idempotent:\n first=%+v\nsecond=%+v", original, again)
	}
}

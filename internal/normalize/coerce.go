// Package normalize 把形状不稳定的上游负载收敛为固定结构。
//
// 上游接口的字段命名混杂（snake_case / camelCase / 同义缩写），
// 这里的每个实体函数都按固定的别名优先级链逐字段解析，
// 任何输入都不会 panic，解析不动的值一律降级为零值。
package normalize

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Number 把任意 JSON 值解析为数值，非有限值返回 fallback。
func Number(raw any, fallback float64) float64 {
	switch v := raw.(type) {
	case nil:
		return fallback
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fallback
		}
		return v
	case float32:
		return Number(float64(v), fallback)
	case int:
		return float64(v)
	case int32:
		return float64(v)
	case int64:
		return float64(v)
	case uint:
		return float64(v)
	case uint64:
		return float64(v)
	case bool:
		if v {
			return 1
		}
		return 0
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return fallback
		}
		return f
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return fallback
		}
		return f
	default:
		return fallback
	}
}

// Int 是 Number 的取整便捷形式（向零截断）。
func Int(raw any, fallback int) int {
	return int(Number(raw, float64(fallback)))
}

// Text 把任意 JSON 值转为去除首尾空白的字符串，nil 视为空串。
func Text(raw any) string {
	switch v := raw.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case json.Number:
		return strings.TrimSpace(v.String())
	case float64:
		if v == math.Trunc(v) && math.Abs(v) < 1e15 {
			return strconv.FormatInt(int64(v), 10)
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return strings.TrimSpace(fmt.Sprintf("%v", v))
	}
}

// Flag 把任意 JSON 值转为布尔：真布尔直接返回，
// 字符串 "true"/"false" 不区分大小写，其余按数值 > 0 判定。
func Flag(raw any) bool {
	if b, ok := raw.(bool); ok {
		return b
	}
	switch strings.ToLower(Text(raw)) {
	case "true":
		return true
	case "false":
		return false
	}
	return Number(raw, 0) > 0
}

// Status 把任意 JSON 值归一化为 0/1：只有明确等于 0 才算 0，
// 解析失败按启用（1）处理。
func Status(raw any) int {
	if b, ok := raw.(bool); ok {
		if b {
			return 1
		}
		return 0
	}
	v := Number(raw, math.NaN())
	if math.IsNaN(v) {
		return 1
	}
	if v == 0 {
		return 0
	}
	return 1
}

// 时间戳接受的格式，按出现频率排列。
var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006-01-02T15:04:05.000Z07:00",
	"2006-01-02",
}

// Timestamp 把字符串时间解析为 epoch 毫秒，解析失败返回 0。
//
// 排序与比较一律使用该函数的返回值，保证不可解析的时间
// 稳定地排在最早。
func Timestamp(raw string) int64 {
	text := strings.TrimSpace(raw)
	if text == "" {
		return 0
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, text, time.Local); err == nil {
			return t.UnixMilli()
		}
	}
	return 0
}

// pick 按优先级返回第一个存在且非 null 的字段值。
//
// 注意判定的是"是否出现"而不是真值：0、空串都算命中。
func pick(row map[string]any, keys ...string) (any, bool) {
	for _, key := range keys {
		if v, ok := row[key]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

func pickNumber(row map[string]any, fallback float64, keys ...string) float64 {
	v, ok := pick(row, keys...)
	if !ok {
		return fallback
	}
	return Number(v, fallback)
}

func pickInt(row map[string]any, fallback int, keys ...string) int {
	return int(pickNumber(row, float64(fallback), keys...))
}

func pickText(row map[string]any, keys ...string) string {
	v, ok := pick(row, keys...)
	if !ok {
		return ""
	}
	return Text(v)
}

// asRow 尝试把任意值转为一行对象，失败返回 nil。
func asRow(raw any) map[string]any {
	row, _ := raw.(map[string]any)
	return row
}

// unwrapList 接受裸数组，或包在 list / records / rows 字段下的
// 数组（按该优先级取第一个出现的字段）；其余形状得到空列表。
func unwrapList(raw any) []any {
	switch v := raw.(type) {
	case []any:
		return v
	case map[string]any:
		for _, key := range []string{"list", "records", "rows"} {
			if inner, ok := v[key]; ok && inner != nil {
				list, _ := inner.([]any)
				return list
			}
		}
	}
	return nil
}

// RawList 把任意负载解开成原始行的切片，不做逐行归一化。
// 供上层自行决定每行如何解释（如分类清单）。
func RawList(raw any) []any {
	return unwrapList(decodeRaw(raw))
}

// decodeRaw 把 json.RawMessage 解开成 any；其他类型原样返回。
// 各实体的 List 函数都先经过它，方便直接喂 Envelope.Data。
func decodeRaw(raw any) any {
	switch v := raw.(type) {
	case json.RawMessage:
		var decoded any
		if err := json.Unmarshal(v, &decoded); err != nil {
			return nil
		}
		return decoded
	case []byte:
		var decoded any
		if err := json.Unmarshal(v, &decoded); err != nil {
			return nil
		}
		return decoded
	default:
		return raw
	}
}

package normalize

import "github.com/ipFirto/ConsumeAnalyseSystem/internal/model"

// Platform 把一行平台原始数据归一化为 model.PlatformMeta。
func Platform(raw any) model.PlatformMeta {
	row := asRow(decodeRaw(raw))
	if row == nil {
		return model.PlatformMeta{Status: 1}
	}

	return model.PlatformMeta{
		ID:     pickInt(row, 0, "id"),
		Code:   pickText(row, "code"),
		Name:   pickText(row, "name"),
		Status: pickInt(row, 1, "status"),
	}
}

// PlatformList 归一化平台列表。
//
// ID 非正或名称为空的条目被静默丢弃。
func PlatformList(raw any) []model.PlatformMeta {
	rows := unwrapList(decodeRaw(raw))
	out := make([]model.PlatformMeta, 0, len(rows))
	for _, item := range rows {
		record := Platform(item)
		if record.ID > 0 && record.Name != "" {
			out = append(out, record)
		}
	}
	return out
}

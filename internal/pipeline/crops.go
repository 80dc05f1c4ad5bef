package pipeline

import (
	"image"
	"sort"

	"live-reporter-go/internal/config"
)

// CropBox 是绝对像素坐标下的裁剪矩形 [left, top, right, bottom]。
type CropBox [4]int

// Disabled 全零矩形表示该图表禁用，处理时跳过。
func (b CropBox) Disabled() bool {
	return b == CropBox{}
}

// Rect 转换为 image.Rectangle。
func (b CropBox) Rect() image.Rectangle {
	return image.Rect(b[0], b[1], b[2], b[3])
}

// CropPlan 是一个图片槽位的裁剪方案：图表键 -> 裁剪矩形。
type CropPlan map[string]CropBox

// sortedKeys 返回按字典序排列的图表键，保证裁剪顺序确定。
func (p CropPlan) sortedKeys() []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// defaultCropPlans 是四个图片槽位的内置裁剪方案，
// 按运营方实际使用的仪表盘截图布局标定。
func defaultCropPlans() []CropPlan {
	return []CropPlan{
		// 图片1: 综合趋势图
		{"overall_trend_chart": {140, 450, 1753, 1120}},
		// 图片2: 分钟级流量结构图
		{"minute_traffic_flow_chart": {135, 450, 1753, 850}},
		// 图片3: 罗盘页面图
		{
			"traffic_source_chart":   {47, 100, 531, 320},
			"live_users_trend_chart": {1730, 100, 2195, 430},
		},
		// 图片4: 人群画像图
		{"user_profile_chart": {113, 100, 2175, 1160}},
	}
}

// CropPlansFromConfig 把配置文件里的裁剪区域转换成裁剪方案，
// 配置留空的槽位回落到内置默认值。
func CropPlansFromConfig(cfg config.CropsConfig) []CropPlan {
	defaults := defaultCropPlans()
	plans := make([]CropPlan, len(defaults))

	for i, slot := range cfg.Slots() {
		if len(slot) == 0 {
			plans[i] = defaults[i]
			continue
		}
		plan := make(CropPlan, len(slot))
		for key, box := range slot {
			if len(box) != 4 {
				continue
			}
			plan[key] = CropBox{box[0], box[1], box[2], box[3]}
		}
		plans[i] = plan
	}
	return plans
}

package ocr

// Metrics 是视觉模型针对一张截图返回的结构化指标。
// 指针为 nil 表示该指标在图片中不存在或无法识别（对应 JSON null）。
// 所有数值指标在线路上都是纯数字：百分比直接是数字（12.5% -> 12.5），
// 时长已折算为总秒数。
type Metrics struct {
	LiveStartTime       *string  `json:"live_start_time"`
	GMV                 *float64 `json:"gmv"`
	GPM                 *float64 `json:"gpm"`
	OrderCount          *float64 `json:"order_count"`
	BuyerCount          *float64 `json:"buyer_count"`
	VV                  *float64 `json:"vv"`
	AvgOnlineUsers      *float64 `json:"avg_online_users"`
	AvgWatchTimeSeconds *float64 `json:"avg_watch_time_seconds"`
	NewFollowers        *float64 `json:"new_followers"`
	ClickToOrderRatio   *float64 `json:"click_to_order_ratio"`
	ViewToOrderRatio    *float64 `json:"view_to_order_ratio"`
	ExposeToViewRatio   *float64 `json:"expose_to_view_ratio"`
	ViewToInteractRatio *float64 `json:"view_to_interact_ratio"`
	FollowerOrderRatio  *float64 `json:"follower_order_ratio"`
}

// Merge 将 other 中所有非 nil 的字段覆盖到 m 上（后写者胜）。
func (m *Metrics) Merge(other Metrics) {
	if other.LiveStartTime != nil {
		m.LiveStartTime = other.LiveStartTime
	}
	if other.GMV != nil {
		m.GMV = other.GMV
	}
	if other.GPM != nil {
		m.GPM = other.GPM
	}
	if other.OrderCount != nil {
		m.OrderCount = other.OrderCount
	}
	if other.BuyerCount != nil {
		m.BuyerCount = other.BuyerCount
	}
	if other.VV != nil {
		m.VV = other.VV
	}
	if other.AvgOnlineUsers != nil {
		m.AvgOnlineUsers = other.AvgOnlineUsers
	}
	if other.AvgWatchTimeSeconds != nil {
		m.AvgWatchTimeSeconds = other.AvgWatchTimeSeconds
	}
	if other.NewFollowers != nil {
		m.NewFollowers = other.NewFollowers
	}
	if other.ClickToOrderRatio != nil {
		m.ClickToOrderRatio = other.ClickToOrderRatio
	}
	if other.ViewToOrderRatio != nil {
		m.ViewToOrderRatio = other.ViewToOrderRatio
	}
	if other.ExposeToViewRatio != nil {
		m.ExposeToViewRatio = other.ExposeToViewRatio
	}
	if other.ViewToInteractRatio != nil {
		m.ViewToInteractRatio = other.ViewToInteractRatio
	}
	if other.FollowerOrderRatio != nil {
		m.FollowerOrderRatio = other.FollowerOrderRatio
	}
}

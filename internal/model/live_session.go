// Package model 定义了与数据库表对应的 Go 结构体。
package model

import "time"

// 直播场次记录的生命周期状态。
// pending -> processing -> completed | failed
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// DateLayout 是 live_date 在接口与存储之间使用的统一格式。
const DateLayout = "2006-01-02"

// LiveSession 定义了 live_sessions 表的 ORM 模型。
// 一行对应一次上传提交：日期 + 开播时间构成自然键（开播时间识别出来之后），
// 提取出的各项指标与图表产物路径都落在这一行上。
type LiveSession struct {
	ID            uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	LiveDate      time.Time `gorm:"type:date;not null;uniqueIndex:uk_live_date_start_time" json:"liveDate"`
	LiveStartTime *string   `gorm:"type:varchar(50);uniqueIndex:uk_live_date_start_time" json:"liveStartTime"`
	Status        string    `gorm:"type:varchar(20);not null;default:pending" json:"status"`
	ErrorMessage  string    `gorm:"type:text" json:"errorMessage"`

	// OCR 提取的指标列，缺省都为 0，由管道按识别结果补齐。
	GMV                 float64 `gorm:"column:gmv;default:0" json:"gmv"`
	GPM                 float64 `gorm:"column:gpm;default:0" json:"gpm"`
	OrderCount          int     `gorm:"default:0" json:"orderCount"`
	BuyerCount          int     `gorm:"default:0" json:"buyerCount"`
	VV                  int     `gorm:"column:vv;default:0" json:"vv"`
	AvgOnlineUsers      int     `gorm:"default:0" json:"avgOnlineUsers"`
	AvgWatchTimeSeconds int     `gorm:"default:0" json:"avgWatchTimeSeconds"`
	NewFollowers        int     `gorm:"default:0" json:"newFollowers"`
	ClickToOrderRatio   float64 `gorm:"default:0" json:"clickToOrderRatio"`
	ViewToOrderRatio    float64 `gorm:"default:0" json:"viewToOrderRatio"`
	ExposeToViewRatio   float64 `gorm:"default:0" json:"exposeToViewRatio"`
	ViewToInteractRatio float64 `gorm:"default:0" json:"viewToInteractRatio"`
	FollowerOrderRatio  float64 `gorm:"default:0" json:"followerOrderRatio"`

	// ChartPaths 是 图表键 -> 存储位置 的 JSON 文本。
	ChartPaths string    `gorm:"type:text" json:"-"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (LiveSession) TableName() string {
	return "live_sessions"
}

// DateString 返回 live_date 的 YYYY-MM-DD 表示。
func (s *LiveSession) DateString() string {
	return s.LiveDate.Format(DateLayout)
}

// StartTime 返回开播时间，未识别时返回空字符串。
func (s *LiveSession) StartTime() string {
	if s.LiveStartTime == nil {
		return ""
	}
	return *s.LiveStartTime
}

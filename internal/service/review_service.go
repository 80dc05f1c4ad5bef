// Package service 包含了应用的业务逻辑层。
package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"live-reporter-go/internal/model"
	"live-reporter-go/internal/repository"
	"live-reporter-go/pkg/log"

	"gorm.io/gorm"
)

// MetricLabel 是历史趋势页可选指标的键与展示名。
type MetricLabel struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

// historicalMetrics 是历史趋势页的可选指标（顺序即展示顺序）。
var historicalMetrics = []MetricLabel{
	{"gmv", "成交金额 (GMV)"},
	{"order_count", "成交件数"},
	{"gpm", "千次观看成交金额 (GPM)"},
	{"buyer_count", "成交人数"},
	{"click_to_order_ratio", "点击-成交转化率 (%)"},
	{"avg_watch_time_seconds", "人均观看时长 (秒)"},
	{"vv", "累计观看人数"},
	{"new_followers", "新增粉丝数"},
	{"avg_online_users", "平均在线人数"},
	{"view_to_order_ratio", "观看-成交率 (%)"},
	{"expose_to_view_ratio", "曝光-观看率 (%)"},
	{"follower_order_ratio", "成交粉丝占比 (%)"},
}

// SessionView 是复盘页返回的单条场次视图，completed 时附带图表位置。
type SessionView struct {
	model.LiveSession
	Charts map[string]string `json:"charts"`
}

// DailyReview 是每日复盘接口的响应体。
type DailyReview struct {
	Date              string              `json:"date"`
	Sessions          []model.LiveSession `json:"sessions"`
	Selected          *SessionView        `json:"selected"`
	SelectedStartTime string              `json:"selectedStartTime,omitempty"`
	AllDates          []string            `json:"allDates"`
}

// TrendPoint 是趋势图一个数据点对应的原始 (日期, 开播时间)。
type TrendPoint struct {
	Date string `json:"date"`
	Time string `json:"time"`
}

// TrendsData 是历史趋势接口的响应体：标签与每个指标的时间序列平行排列。
type TrendsData struct {
	Labels  []string             `json:"labels"`
	RawInfo []TrendPoint         `json:"raw_info"`
	Series  map[string][]float64 `json:"series"`
	Metrics []MetricLabel        `json:"metrics"`
}

// ReviewService 接口定义了复盘与趋势查询的业务操作。
type ReviewService interface {
	// Daily 返回指定日期的复盘数据；dateStr 为空时回落到最近一条
	// 记录的日期（库空时为今天）。identifier 匹配开播时间或记录 id。
	Daily(dateStr, identifier string) (*DailyReview, error)
	// Trends 聚合所有 completed 场次的指标时间序列。
	Trends() (*TrendsData, error)
}

type reviewService struct {
	sessionRepo repository.SessionRepository
}

// NewReviewService 创建一个新的 ReviewService 实例。
func NewReviewService(sessionRepo repository.SessionRepository) ReviewService {
	return &reviewService{sessionRepo: sessionRepo}
}

// Daily 组装每日复盘数据。
func (s *reviewService) Daily(dateStr, identifier string) (*DailyReview, error) {
	if dateStr == "" {
		dateStr, identifier = s.defaultLocator()
	}

	date, err := time.Parse(model.DateLayout, dateStr)
	if err != nil {
		return nil, fmt.Errorf("日期格式无效: %w", err)
	}

	sessions, err := s.sessionRepo.FindByDate(date)
	if err != nil {
		return nil, fmt.Errorf("查询场次列表失败: %w", err)
	}

	review := &DailyReview{
		Date:     dateStr,
		Sessions: sessions,
	}

	if len(sessions) > 0 {
		selected := selectSession(sessions, identifier)
		view := &SessionView{LiveSession: *selected, Charts: map[string]string{}}
		if selected.Status == model.StatusCompleted {
			review.SelectedStartTime = selected.StartTime()
			if selected.ChartPaths != "" {
				if err := json.Unmarshal([]byte(selected.ChartPaths), &view.Charts); err != nil {
					log.Warnf("[ReviewService] 图表路径 JSON 解析失败, SessionID: %d, Error: %v", selected.ID, err)
					view.Charts = map[string]string{}
				}
			}
		}
		review.Selected = view
	}

	dates, err := s.sessionRepo.ListDates()
	if err != nil {
		return nil, fmt.Errorf("查询日期列表失败: %w", err)
	}
	review.AllDates = make([]string, 0, len(dates))
	for _, d := range dates {
		review.AllDates = append(review.AllDates, d.Format(model.DateLayout))
	}

	return review, nil
}

// defaultLocator 在未指定日期时返回最近一条记录的定位（库空时为今天）。
func (s *reviewService) defaultLocator() (string, string) {
	latest, err := s.sessionRepo.FindLatest()
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Warnf("[ReviewService] 查询最近场次失败: %v", err)
		}
		return time.Now().Format(model.DateLayout), ""
	}
	identifier := strconv.FormatUint(uint64(latest.ID), 10)
	if latest.Status == model.StatusCompleted {
		identifier = latest.StartTime()
	}
	return latest.DateString(), identifier
}

// selectSession 按标识符（开播时间或 id）选中一条场次，找不到时取第一条。
func selectSession(sessions []model.LiveSession, identifier string) *model.LiveSession {
	if identifier != "" {
		for i := range sessions {
			if sessions[i].StartTime() == identifier ||
				strconv.FormatUint(uint64(sessions[i].ID), 10) == identifier {
				return &sessions[i]
			}
		}
	}
	return &sessions[0]
}

// Trends 聚合历史趋势数据，只纳入 completed 的场次。
func (s *reviewService) Trends() (*TrendsData, error) {
	sessions, err := s.sessionRepo.FindCompletedOrdered()
	if err != nil {
		return nil, fmt.Errorf("查询历史场次失败: %w", err)
	}

	data := &TrendsData{
		Labels:  make([]string, 0, len(sessions)),
		RawInfo: make([]TrendPoint, 0, len(sessions)),
		Series:  make(map[string][]float64, len(historicalMetrics)),
		Metrics: historicalMetrics,
	}
	for _, m := range historicalMetrics {
		data.Series[m.Key] = make([]float64, 0, len(sessions))
	}

	for i := range sessions {
		session := &sessions[i]
		data.Labels = append(data.Labels, fmt.Sprintf("%s %s", session.LiveDate.Format("01-02"), session.StartTime()))
		data.RawInfo = append(data.RawInfo, TrendPoint{Date: session.DateString(), Time: session.StartTime()})
		for _, m := range historicalMetrics {
			data.Series[m.Key] = append(data.Series[m.Key], metricValue(session, m.Key))
		}
	}

	return data, nil
}

// metricValue 按指标键读取记录上的数值列。
func metricValue(s *model.LiveSession, key string) float64 {
	switch key {
	case "gmv":
		return s.GMV
	case "gpm":
		return s.GPM
	case "order_count":
		return float64(s.OrderCount)
	case "buyer_count":
		return float64(s.BuyerCount)
	case "vv":
		return float64(s.VV)
	case "avg_online_users":
		return float64(s.AvgOnlineUsers)
	case "avg_watch_time_seconds":
		return float64(s.AvgWatchTimeSeconds)
	case "new_followers":
		return float64(s.NewFollowers)
	case "click_to_order_ratio":
		return s.ClickToOrderRatio
	case "view_to_order_ratio":
		return s.ViewToOrderRatio
	case "expose_to_view_ratio":
		return s.ExposeToViewRatio
	case "view_to_interact_ratio":
		return s.ViewToInteractRatio
	case "follower_order_ratio":
		return s.FollowerOrderRatio
	default:
		return 0
	}
}

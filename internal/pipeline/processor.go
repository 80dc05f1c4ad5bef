// Package pipeline 定义了截图提交的后台处理流程。
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"live-reporter-go/internal/events"
	"live-reporter-go/internal/model"
	"live-reporter-go/internal/repository"
	"live-reporter-go/pkg/log"
	"live-reporter-go/pkg/ocr"
	"live-reporter-go/pkg/storage"
	"live-reporter-go/pkg/tasks"

	"gorm.io/gorm"
)

// Processor 封装了场次处理的所有依赖和逻辑。
// 状态机: pending -> processing -> completed | failed。
type Processor struct {
	sessionRepo repository.SessionRepository
	ocrClient   ocr.Client
	store       storage.ArtifactStore
	plans       []CropPlan
	publisher   events.Publisher
}

// NewProcessor 创建一个新的 Processor 实例。
func NewProcessor(
	sessionRepo repository.SessionRepository,
	ocrClient ocr.Client,
	store storage.ArtifactStore,
	plans []CropPlan,
	publisher events.Publisher,
) *Processor {
	return &Processor{
		sessionRepo: sessionRepo,
		ocrClient:   ocrClient,
		store:       store,
		plans:       plans,
		publisher:   publisher,
	}
}

// Process 是场次处理的主函数。
// 记录被认领（状态置为 processing）之后的任何失败都会落库为 failed
// 并返回 nil —— 提交级失败不重投；认领之前的基础设施错误原样返回，
// 由消费者按重试策略处理。
func (p *Processor) Process(ctx context.Context, task tasks.SessionProcessingTask) error {
	log.Infof("[Processor] 开始处理场次, SessionID: %d, LiveDate: %s, Images: %d",
		task.SessionID, task.LiveDate, len(task.Images))

	session, err := p.sessionRepo.FindByID(task.SessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Warnf("[Processor] 场次记录不存在，跳过任务, SessionID: %d", task.SessionID)
			return nil
		}
		return fmt.Errorf("查询场次记录失败: %w", err)
	}

	// 认领：先提交 processing 状态，让复盘页能看到处理中
	if err := p.sessionRepo.UpdateStatus(session.ID, model.StatusProcessing); err != nil {
		return fmt.Errorf("更新场次状态为 processing 失败: %w", err)
	}
	session.Status = model.StatusProcessing
	p.publish(ctx, session)

	if err := p.run(ctx, session, task); err != nil {
		log.Errorf("[Processor] 任务失败: SessionID=%d, Error: %v", session.ID, err)
		p.markFailed(ctx, session.ID, err)
	}
	return nil
}

// run 执行认领之后的全部处理，任何返回的错误都会把记录置为 failed。
func (p *Processor) run(ctx context.Context, session *model.LiveSession, task tasks.SessionProcessingTask) error {
	if len(task.Images) == 0 {
		return errors.New("任务不包含任何图片")
	}

	dateStr := session.DateString()

	// 步骤1: OCR 第一张图，识别开播时间（关键字段）
	log.Info("[Processor] 步骤1: OCR 第一张图片识别开播时间")
	firstMetrics, err := p.ocrImageBytes(ctx, task.Images[0])
	if err != nil {
		return fmt.Errorf("第一张图片 OCR 失败: %w", err)
	}
	if firstMetrics.LiveStartTime == nil || *firstMetrics.LiveStartTime == "" {
		return errors.New("关键错误: 未能从第一张图片识别出开播时间")
	}
	startTime := *firstMetrics.LiveStartTime
	log.Infof("[Processor] 步骤1: 识别出开播时间 '%s'", startTime)

	// 步骤2: 重复检测。同 (日期, 开播时间) 已有记录时丢弃本次占位记录。
	existing, err := p.sessionRepo.FindConflict(session.LiveDate, startTime, session.ID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("重复检测查询失败: %w", err)
	}
	session.LiveStartTime = &startTime
	if existing != nil {
		log.Warnf("[Processor] 任务中止: 日期 %s (开播于 %s) 的数据已存在 (existing=%d), 丢弃本次提交 (session=%d)",
			dateStr, startTime, existing.ID, session.ID)
		return p.discard(ctx, session)
	}

	// 步骤3: 逐张处理图片。第一张只裁剪（指标已拿到），
	// 其余图片裁剪并补充 OCR 指标，合并时后到的非空值覆盖先到的。
	merged := firstMetrics
	chartPaths := make(map[string]string)
	for i, imgBytes := range task.Images {
		if i >= len(p.plans) {
			break
		}
		withOCR := i > 0
		log.Infof("[Processor] 步骤3: 处理第 %d/%d 张图片, withOCR=%v", i+1, len(task.Images), withOCR)
		metrics, charts, err := p.processImage(ctx, imgBytes, dateStr, startTime, p.plans[i], withOCR)
		if err != nil {
			return fmt.Errorf("处理第 %d 张图片失败: %w", i+1, err)
		}
		merged.Merge(metrics)
		for key, location := range charts {
			chartPaths[key] = location
		}
	}

	// 步骤4: 合并指标与图表路径，一次性提交 completed
	applyMetrics(session, merged)
	chartJSON, err := json.Marshal(chartPaths)
	if err != nil {
		return fmt.Errorf("序列化图表路径失败: %w", err)
	}
	session.ChartPaths = string(chartJSON)
	session.Status = model.StatusCompleted
	session.ErrorMessage = ""

	if err := p.sessionRepo.Save(session); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// 两个提交同时通过了预检，唯一键在提交时拦下：按后到的重复处理
			log.Warnf("[Processor] 提交时命中唯一键冲突: 日期 %s (开播于 %s), 丢弃本次提交 (session=%d)",
				dateStr, startTime, session.ID)
			return p.discard(ctx, session)
		}
		return fmt.Errorf("保存场次结果失败: %w", err)
	}

	p.publish(ctx, session)
	log.Infof("[Processor] 任务成功: %s (开播于 %s) 数据处理完毕, 图表 %d 张", dateStr, startTime, len(chartPaths))
	return nil
}

// discard 删除重复的占位记录，并广播一条丢弃事件让订阅方结束等待。
func (p *Processor) discard(ctx context.Context, session *model.LiveSession) error {
	if err := p.sessionRepo.Delete(session.ID); err != nil {
		return fmt.Errorf("删除重复占位记录失败: %w", err)
	}
	session.Status = events.StatusDiscarded
	session.ErrorMessage = ""
	p.publish(ctx, session)
	return nil
}

// markFailed 重新取一次记录并落库 failed 状态与错误信息。
// 这一步无论管道在哪个环节失败都会执行。
func (p *Processor) markFailed(ctx context.Context, sessionID uint, cause error) {
	fresh, err := p.sessionRepo.FindByID(sessionID)
	if err != nil {
		log.Errorf("[Processor] 标记失败状态时查询记录出错, SessionID: %d, Error: %v", sessionID, err)
		return
	}
	if err := p.sessionRepo.MarkFailed(fresh.ID, cause.Error()); err != nil {
		log.Errorf("[Processor] 写入失败状态出错, SessionID: %d, Error: %v", sessionID, err)
		return
	}
	fresh.Status = model.StatusFailed
	fresh.ErrorMessage = cause.Error()
	p.publish(ctx, fresh)
}

// publish 广播一次状态变更。
func (p *Processor) publish(ctx context.Context, session *model.LiveSession) {
	if p.publisher == nil {
		return
	}
	p.publisher.PublishSessionEvent(ctx, events.SessionEvent{
		SessionID:     session.ID,
		LiveDate:      session.DateString(),
		LiveStartTime: session.StartTime(),
		Status:        session.Status,
		ErrorMessage:  session.ErrorMessage,
	})
}

// applyMetrics 把 OCR 指标按已知字段清单写到记录上，nil 字段保持原值，
// 未知键在解码阶段就已被丢弃。
func applyMetrics(session *model.LiveSession, m ocr.Metrics) {
	if m.GMV != nil {
		session.GMV = *m.GMV
	}
	if m.GPM != nil {
		session.GPM = *m.GPM
	}
	if m.OrderCount != nil {
		session.OrderCount = roundToInt(*m.OrderCount)
	}
	if m.BuyerCount != nil {
		session.BuyerCount = roundToInt(*m.BuyerCount)
	}
	if m.VV != nil {
		session.VV = roundToInt(*m.VV)
	}
	if m.AvgOnlineUsers != nil {
		session.AvgOnlineUsers = roundToInt(*m.AvgOnlineUsers)
	}
	if m.AvgWatchTimeSeconds != nil {
		session.AvgWatchTimeSeconds = roundToInt(*m.AvgWatchTimeSeconds)
	}
	if m.NewFollowers != nil {
		session.NewFollowers = roundToInt(*m.NewFollowers)
	}
	if m.ClickToOrderRatio != nil {
		session.ClickToOrderRatio = *m.ClickToOrderRatio
	}
	if m.ViewToOrderRatio != nil {
		session.ViewToOrderRatio = *m.ViewToOrderRatio
	}
	if m.ExposeToViewRatio != nil {
		session.ExposeToViewRatio = *m.ExposeToViewRatio
	}
	if m.ViewToInteractRatio != nil {
		session.ViewToInteractRatio = *m.ViewToInteractRatio
	}
	if m.FollowerOrderRatio != nil {
		session.FollowerOrderRatio = *m.FollowerOrderRatio
	}
}

func roundToInt(v float64) int {
	return int(math.Round(v))
}

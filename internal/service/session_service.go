// Package service 包含了应用的业务逻辑层。
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"live-reporter-go/internal/model"
	"live-reporter-go/internal/repository"
	"live-reporter-go/pkg/log"
	"live-reporter-go/pkg/tasks"
)

// MaxImagesPerSubmission 是一次提交最多处理的截图数量，多余的在入口被丢弃。
const MaxImagesPerSubmission = 4

// TaskPublisher 把场次处理任务交给消息队列，由 pkg/kafka 的 Producer 实现。
type TaskPublisher interface {
	PublishSessionTask(ctx context.Context, task tasks.SessionProcessingTask) error
}

// SessionService 接口定义了场次提交相关的业务操作。
type SessionService interface {
	// Submit 创建 pending 占位记录并把原始图片字节投递给后台管道，
	// 立即返回，不等待 OCR/裁剪完成。
	Submit(ctx context.Context, liveDate time.Time, images [][]byte) (*model.LiveSession, error)
	// Delete 删除一条场次记录，返回被删除的记录。
	Delete(id uint) (*model.LiveSession, error)
}

type sessionService struct {
	sessionRepo repository.SessionRepository
	publisher   TaskPublisher
}

// NewSessionService 创建一个新的 SessionService 实例。
func NewSessionService(sessionRepo repository.SessionRepository, publisher TaskPublisher) SessionService {
	return &sessionService{
		sessionRepo: sessionRepo,
		publisher:   publisher,
	}
}

// Submit 处理一次上传提交。
func (s *sessionService) Submit(ctx context.Context, liveDate time.Time, images [][]byte) (*model.LiveSession, error) {
	if len(images) == 0 {
		return nil, errors.New("必须上传至少一张图片")
	}
	if len(images) > MaxImagesPerSubmission {
		images = images[:MaxImagesPerSubmission]
	}

	session := &model.LiveSession{
		LiveDate:   liveDate,
		Status:     model.StatusPending,
		ChartPaths: "{}",
	}
	if err := s.sessionRepo.Create(session); err != nil {
		return nil, fmt.Errorf("创建场次占位记录失败: %w", err)
	}

	task := tasks.SessionProcessingTask{
		SessionID: session.ID,
		LiveDate:  session.DateString(),
		Images:    images,
	}
	if err := s.publisher.PublishSessionTask(ctx, task); err != nil {
		// 任务没发出去，占位记录会永远停在 pending，直接清掉
		if derr := s.sessionRepo.Delete(session.ID); derr != nil {
			log.Errorf("[SessionService] 投递失败后清理占位记录失败, SessionID: %d, Error: %v", session.ID, derr)
		}
		return nil, fmt.Errorf("投递处理任务失败: %w", err)
	}

	log.Infof("[SessionService] 已受理日期 %s 的提交, SessionID: %d, 图片 %d 张",
		session.DateString(), session.ID, len(images))
	return session, nil
}

// Delete 删除一条场次记录。
func (s *sessionService) Delete(id uint) (*model.LiveSession, error) {
	session, err := s.sessionRepo.FindByID(id)
	if err != nil {
		return nil, err
	}
	if err := s.sessionRepo.Delete(id); err != nil {
		return nil, fmt.Errorf("删除场次记录失败: %w", err)
	}
	return session, nil
}

// Package repository 定义了与数据库进行数据交换的接口和实现。
package repository

import (
	"time"

	"live-reporter-go/internal/model"

	"gorm.io/gorm"
)

// SessionRepository 接口定义了直播场次记录的数据持久化操作。
type SessionRepository interface {
	Create(session *model.LiveSession) error
	FindByID(id uint) (*model.LiveSession, error)
	Save(session *model.LiveSession) error
	UpdateStatus(id uint, status string) error
	MarkFailed(id uint, message string) error
	Delete(id uint) error

	// FindConflict 查找同 (日期, 开播时间) 且 id 不同的记录，用于重复检测。
	FindConflict(liveDate time.Time, startTime string, excludeID uint) (*model.LiveSession, error)

	FindByDate(liveDate time.Time) ([]model.LiveSession, error)
	FindLatest() (*model.LiveSession, error)
	ListDates() ([]time.Time, error)
	FindCompletedOrdered() ([]model.LiveSession, error)
}

// sessionRepository 是 SessionRepository 接口的 GORM 实现。
type sessionRepository struct {
	db *gorm.DB
}

// NewSessionRepository 创建一个新的 SessionRepository 实例。
func NewSessionRepository(db *gorm.DB) SessionRepository {
	return &sessionRepository{db: db}
}

// Create 在数据库中创建一个新的场次记录。
func (r *sessionRepository) Create(session *model.LiveSession) error {
	return r.db.Create(session).Error
}

// FindByID 根据主键检索场次记录。
func (r *sessionRepository) FindByID(id uint) (*model.LiveSession, error) {
	var session model.LiveSession
	err := r.db.First(&session, id).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// Save 整行保存一个已存在的场次记录。
func (r *sessionRepository) Save(session *model.LiveSession) error {
	return r.db.Save(session).Error
}

// UpdateStatus 更新指定场次记录的状态。
func (r *sessionRepository) UpdateStatus(id uint, status string) error {
	return r.db.Model(&model.LiveSession{}).Where("id = ?", id).Update("status", status).Error
}

// MarkFailed 把记录置为 failed 并保留错误信息，供复盘页展示。
func (r *sessionRepository) MarkFailed(id uint, message string) error {
	return r.db.Model(&model.LiveSession{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":        model.StatusFailed,
			"error_message": message,
		}).Error
}

// Delete 删除一个场次记录。
func (r *sessionRepository) Delete(id uint) error {
	return r.db.Delete(&model.LiveSession{}, id).Error
}

// FindConflict 查找同 (日期, 开播时间) 的其他记录，没有冲突时返回 gorm.ErrRecordNotFound。
func (r *sessionRepository) FindConflict(liveDate time.Time, startTime string, excludeID uint) (*model.LiveSession, error) {
	var session model.LiveSession
	err := r.db.Where("live_date = ? AND live_start_time = ? AND id <> ?", liveDate, startTime, excludeID).
		First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// FindByDate 查找指定日期的所有场次，按 id 升序。
func (r *sessionRepository) FindByDate(liveDate time.Time) ([]model.LiveSession, error) {
	var sessions []model.LiveSession
	err := r.db.Where("live_date = ?", liveDate).Order("id asc").Find(&sessions).Error
	return sessions, err
}

// FindLatest 返回最近一条场次记录（日期最新、id 最大），库空时返回 gorm.ErrRecordNotFound。
func (r *sessionRepository) FindLatest() (*model.LiveSession, error) {
	var session model.LiveSession
	err := r.db.Order("live_date desc, id desc").First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// ListDates 返回所有存在数据的日期（去重）。
func (r *sessionRepository) ListDates() ([]time.Time, error) {
	var dates []time.Time
	err := r.db.Model(&model.LiveSession{}).Distinct().Order("live_date asc").Pluck("live_date", &dates).Error
	return dates, err
}

// FindCompletedOrdered 返回所有 completed 的场次，按日期和开播时间升序，
// 供历史趋势聚合使用。
func (r *sessionRepository) FindCompletedOrdered() ([]model.LiveSession, error) {
	var sessions []model.LiveSession
	err := r.db.Where("status = ?", model.StatusCompleted).
		Order("live_date asc, live_start_time asc").Find(&sessions).Error
	return sessions, err
}

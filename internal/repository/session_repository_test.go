package repository

import (
	"errors"
	"testing"
	"time"

	"live-reporter-go/internal/model"

	"github.com/DATA-DOG/go-sqlmock"
	mysqlDriver "gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	gdb, err := gorm.Open(mysqlDriver.New(mysqlDriver.Config{
		Conn:                      db,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("gorm.Open: %v", err)
	}
	return gdb, mock
}

func date(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse(model.DateLayout, s)
	if err != nil {
		t.Fatal(err)
	}
	return d
}

func TestUpdateStatus(t *testing.T) {
	gdb, mock := newMockDB(t)
	repo := NewSessionRepository(gdb)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `live_sessions` SET `status`=.+WHERE id = .+").
		WithArgs(model.StatusProcessing, 7).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := repo.UpdateStatus(7, model.StatusProcessing); err != nil {
		t.Fatalf("UpdateStatus returned error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestMarkFailed(t *testing.T) {
	gdb, mock := newMockDB(t)
	repo := NewSessionRepository(gdb)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `live_sessions` SET .+WHERE id = .+").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), 3).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := repo.MarkFailed(3, "关键错误: 未能从第一张图片识别出开播时间"); err != nil {
		t.Fatalf("MarkFailed returned error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestFindConflictExcludesOwnID(t *testing.T) {
	gdb, mock := newMockDB(t)
	repo := NewSessionRepository(gdb)
	liveDate := date(t, "2025-06-01")

	rows := sqlmock.NewRows([]string{"id", "live_date", "live_start_time", "status"}).
		AddRow(2, liveDate, "18:30", model.StatusCompleted)
	mock.ExpectQuery("SELECT \\* FROM `live_sessions` WHERE live_date = .+ AND live_start_time = .+ AND id <> .+").
		WithArgs(liveDate, "18:30", 9, 1).
		WillReturnRows(rows)

	found, err := repo.FindConflict(liveDate, "18:30", 9)
	if err != nil {
		t.Fatalf("FindConflict returned error: %v", err)
	}
	if found.ID != 2 {
		t.Errorf("conflict id = %d, want 2", found.ID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestFindConflictNone(t *testing.T) {
	gdb, mock := newMockDB(t)
	repo := NewSessionRepository(gdb)
	liveDate := date(t, "2025-06-01")

	mock.ExpectQuery("SELECT \\* FROM `live_sessions` WHERE live_date = .+").
		WithArgs(liveDate, "18:30", 9, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.FindConflict(liveDate, "18:30", 9)
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("err = %v, want gorm.ErrRecordNotFound", err)
	}
}

func TestFindByDateOrdersByID(t *testing.T) {
	gdb, mock := newMockDB(t)
	repo := NewSessionRepository(gdb)
	liveDate := date(t, "2025-06-01")

	rows := sqlmock.NewRows([]string{"id", "live_date", "status"}).
		AddRow(1, liveDate, model.StatusCompleted).
		AddRow(2, liveDate, model.StatusProcessing)
	mock.ExpectQuery("SELECT \\* FROM `live_sessions` WHERE live_date = .+ ORDER BY id asc").
		WithArgs(liveDate).
		WillReturnRows(rows)

	sessions, err := repo.FindByDate(liveDate)
	if err != nil {
		t.Fatalf("FindByDate returned error: %v", err)
	}
	if len(sessions) != 2 || sessions[0].ID != 1 {
		t.Errorf("sessions = %+v", sessions)
	}
}

func TestFindCompletedOrdered(t *testing.T) {
	gdb, mock := newMockDB(t)
	repo := NewSessionRepository(gdb)

	rows := sqlmock.NewRows([]string{"id", "live_date", "live_start_time", "status", "gmv"}).
		AddRow(1, date(t, "2025-06-01"), "12:00", model.StatusCompleted, 100.0).
		AddRow(2, date(t, "2025-06-02"), "18:30", model.StatusCompleted, 300.0)
	mock.ExpectQuery("SELECT \\* FROM `live_sessions` WHERE status = .+ ORDER BY live_date asc, live_start_time asc").
		WithArgs(model.StatusCompleted).
		WillReturnRows(rows)

	sessions, err := repo.FindCompletedOrdered()
	if err != nil {
		t.Fatalf("FindCompletedOrdered returned error: %v", err)
	}
	if len(sessions) != 2 || sessions[1].GMV != 300 {
		t.Errorf("sessions = %+v", sessions)
	}
}

func TestDeleteSession(t *testing.T) {
	gdb, mock := newMockDB(t)
	repo := NewSessionRepository(gdb)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM `live_sessions` WHERE `live_sessions`.`id` = .+").
		WithArgs(5).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := repo.Delete(5); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestListDates(t *testing.T) {
	gdb, mock := newMockDB(t)
	repo := NewSessionRepository(gdb)

	rows := sqlmock.NewRows([]string{"live_date"}).
		AddRow(date(t, "2025-06-01")).
		AddRow(date(t, "2025-06-02"))
	mock.ExpectQuery("SELECT DISTINCT `live_date` FROM `live_sessions` ORDER BY live_date asc").
		WillReturnRows(rows)

	dates, err := repo.ListDates()
	if err != nil {
		t.Fatalf("ListDates returned error: %v", err)
	}
	if len(dates) != 2 {
		t.Errorf("dates = %v", dates)
	}
}

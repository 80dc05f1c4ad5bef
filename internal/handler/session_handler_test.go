package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"live-reporter-go/internal/model"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// fakeSessionService 是 SessionService 的桩实现。
type fakeSessionService struct {
	submitted struct {
		liveDate time.Time
		images   [][]byte
	}
	submitErr error
	deleteErr error
	deleted   []uint
}

func (s *fakeSessionService) Submit(_ context.Context, liveDate time.Time, images [][]byte) (*model.LiveSession, error) {
	if s.submitErr != nil {
		return nil, s.submitErr
	}
	s.submitted.liveDate = liveDate
	s.submitted.images = images
	start := "18:30"
	return &model.LiveSession{ID: 11, LiveDate: liveDate, LiveStartTime: &start, Status: model.StatusPending}, nil
}

func (s *fakeSessionService) Delete(id uint) (*model.LiveSession, error) {
	if s.deleteErr != nil {
		return nil, s.deleteErr
	}
	s.deleted = append(s.deleted, id)
	start := "18:30"
	liveDate, _ := time.Parse(model.DateLayout, "2025-06-01")
	return &model.LiveSession{ID: id, LiveDate: liveDate, LiveStartTime: &start}, nil
}

func uploadRequest(t *testing.T, liveDate string, imageCount int) *http.Request {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	if liveDate != "" {
		if err := writer.WriteField("live_date", liveDate); err != nil {
			t.Fatal(err)
		}
	}
	for i := 0; i < imageCount; i++ {
		part, err := writer.CreateFormFile("images", "shot.png")
		if err != nil {
			t.Fatal(err)
		}
		if _, err := part.Write([]byte{0x89, 'P', 'N', 'G', byte(i)}); err != nil {
			t.Fatal(err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions/upload", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func newUploadRouter(svc *fakeSessionService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewSessionHandler(svc)
	r.POST("/api/v1/sessions/upload", h.Upload)
	r.DELETE("/api/v1/sessions/:id", h.Delete)
	return r
}

func TestUploadAccepted(t *testing.T) {
	svc := &fakeSessionService{}
	r := newUploadRouter(svc)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, uploadRequest(t, "2025-06-01", 2))

	if w.Code != http.StatusAccepted {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if got := svc.submitted.liveDate.Format(model.DateLayout); got != "2025-06-01" {
		t.Errorf("submitted date = %q", got)
	}
	if len(svc.submitted.images) != 2 {
		t.Errorf("submitted %d images, want 2", len(svc.submitted.images))
	}

	var resp struct {
		Warning string `json:"warning"`
		Data    struct {
			SessionID uint `json:"sessionId"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Data.SessionID != 11 {
		t.Errorf("sessionId = %d", resp.Data.SessionID)
	}
	if resp.Warning != "" {
		t.Errorf("unexpected warning %q", resp.Warning)
	}
}

func TestUploadRequiresDate(t *testing.T) {
	r := newUploadRouter(&fakeSessionService{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, uploadRequest(t, "", 1))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "必须选择一个日期") {
		t.Errorf("body = %s", w.Body.String())
	}
}

func TestUploadRequiresImages(t *testing.T) {
	r := newUploadRouter(&fakeSessionService{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, uploadRequest(t, "2025-06-01", 0))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "必须上传至少一张图片") {
		t.Errorf("body = %s", w.Body.String())
	}
}

func TestUploadRejectsBadDate(t *testing.T) {
	r := newUploadRouter(&fakeSessionService{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, uploadRequest(t, "06/01/2025", 1))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestUploadTrimsToFourWithWarning(t *testing.T) {
	svc := &fakeSessionService{}
	r := newUploadRouter(svc)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, uploadRequest(t, "2025-06-01", 6))

	if w.Code != http.StatusAccepted {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if len(svc.submitted.images) != 4 {
		t.Errorf("submitted %d images, want 4", len(svc.submitted.images))
	}
	var resp struct {
		Warning string `json:"warning"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(resp.Warning, "6 张图片") {
		t.Errorf("warning = %q", resp.Warning)
	}
}

func TestUploadSubmitFailure(t *testing.T) {
	svc := &fakeSessionService{submitErr: errors.New("broker down")}
	r := newUploadRouter(svc)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, uploadRequest(t, "2025-06-01", 1))

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestDeleteSession(t *testing.T) {
	svc := &fakeSessionService{}
	r := newUploadRouter(svc)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/v1/sessions/5", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if len(svc.deleted) != 1 || svc.deleted[0] != 5 {
		t.Errorf("deleted = %v", svc.deleted)
	}
	if !strings.Contains(w.Body.String(), "已成功清空") {
		t.Errorf("body = %s", w.Body.String())
	}
}

func TestDeleteSessionNotFound(t *testing.T) {
	svc := &fakeSessionService{deleteErr: gorm.ErrRecordNotFound}
	r := newUploadRouter(svc)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/v1/sessions/99", nil))

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestReadUploadedImages(t *testing.T) {
	// 通过真实 multipart 表单构造可打开的 FileHeader
	req := uploadRequest(t, "2025-06-01", 2)
	if err := req.ParseMultipartForm(32 << 20); err != nil {
		t.Fatal(err)
	}
	files := req.MultipartForm.File["images"]

	images, err := readUploadedImages(files)
	if err != nil {
		t.Fatalf("readUploadedImages returned error: %v", err)
	}
	if len(images) != 2 {
		t.Fatalf("read %d images, want 2", len(images))
	}
	if !bytes.HasPrefix(images[0], []byte{0x89, 'P', 'N', 'G'}) {
		t.Errorf("image content = %v", images[0][:4])
	}
}

func TestReadUploadedImagesOpenFailure(t *testing.T) {
	// 空 FileHeader 没有底层内容，Open 必然失败
	broken := &multipart.FileHeader{Filename: "broken.png"}

	_, err := readUploadedImages([]*multipart.FileHeader{broken})
	if err == nil {
		t.Fatal("expected error for unopenable file")
	}
	if !strings.Contains(err.Error(), "无法打开") || !strings.Contains(err.Error(), "broken.png") {
		t.Errorf("err = %v, want open-failure message naming the file", err)
	}
}

func TestDeleteSessionBadID(t *testing.T) {
	r := newUploadRouter(&fakeSessionService{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/v1/sessions/abc", nil))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
}

// Package handler 包含了处理 HTTP 请求的控制器逻辑。
package handler

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"live-reporter-go/internal/model"
	"live-reporter-go/internal/service"
	"live-reporter-go/pkg/log"

	"github.com/gin-gonic/gin"
)

// SessionHandler 负责处理场次提交与删除相关的 API 请求。
type SessionHandler struct {
	sessionService service.SessionService
}

// NewSessionHandler 创建一个新的 SessionHandler 实例。
func NewSessionHandler(sessionService service.SessionService) *SessionHandler {
	return &SessionHandler{sessionService: sessionService}
}

// Upload 处理截图上传的请求。
// 接收表单字段 live_date 与最多 4 个 images 文件；只做同步校验，
// 处理结果通过复盘页或 watch 接口异步可见。
func (h *SessionHandler) Upload(c *gin.Context) {
	liveDateStr := c.PostForm("live_date")
	if liveDateStr == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "必须选择一个日期!"})
		return
	}
	liveDate, err := time.Parse(model.DateLayout, liveDateStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "日期格式无效，应为 YYYY-MM-DD"})
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的 multipart 表单"})
		return
	}
	files := form.File["images"]
	if len(files) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "必须上传至少一张图片!"})
		return
	}

	warning := ""
	if len(files) > service.MaxImagesPerSubmission {
		warning = fmt.Sprintf("提醒：您上传了 %d 张图片，系统将只处理前%d张。", len(files), service.MaxImagesPerSubmission)
		files = files[:service.MaxImagesPerSubmission]
	}

	images, err := readUploadedImages(files)
	if err != nil {
		log.Warnf("Upload: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	session, err := h.sessionService.Submit(c.Request.Context(), liveDate, images)
	if err != nil {
		log.Error("Upload: failed to submit session", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "提交失败: " + err.Error()})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"code":    http.StatusAccepted,
		"message": fmt.Sprintf("日期 %s 的图片已上传，正在后台处理中。请稍后在每日数据复盘页查看结果。", liveDateStr),
		"warning": warning,
		"data":    gin.H{"sessionId": session.ID},
	})
}

// readUploadedImages 逐个读出上传文件的字节，打开失败与读取失败分开报错。
func readUploadedImages(files []*multipart.FileHeader) ([][]byte, error) {
	images := make([][]byte, 0, len(files))
	for _, fileHeader := range files {
		file, err := fileHeader.Open()
		if err != nil {
			return nil, fmt.Errorf("无法打开上传的图片 '%s': %w", fileHeader.Filename, err)
		}
		data, err := io.ReadAll(file)
		_ = file.Close()
		if err != nil {
			return nil, fmt.Errorf("读取上传的图片 '%s' 失败: %w", fileHeader.Filename, err)
		}
		images = append(images, data)
	}
	return images, nil
}

// Delete 处理删除一条场次记录的请求。
func (h *SessionHandler) Delete(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的记录 ID"})
		return
	}

	session, err := h.sessionService.Delete(uint(id))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "未找到要删除的数据条目"})
		return
	}

	startTime := session.StartTime()
	if startTime == "" {
		startTime = "N/A"
	}
	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": fmt.Sprintf("日期 %s (开播于 %s) 的数据已成功清空。", session.DateString(), startTime),
	})
}

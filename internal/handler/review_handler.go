package handler

import (
	"net/http"

	"live-reporter-go/internal/service"
	"live-reporter-go/pkg/log"

	"github.com/gin-gonic/gin"
)

// ReviewHandler 负责处理每日复盘与历史趋势相关的 API 请求。
type ReviewHandler struct {
	reviewService service.ReviewService
}

// NewReviewHandler 创建一个新的 ReviewHandler 实例。
func NewReviewHandler(reviewService service.ReviewService) *ReviewHandler {
	return &ReviewHandler{reviewService: reviewService}
}

// Daily 处理每日复盘数据查询的请求。
// 支持可选的 date 与 identifier 查询参数，缺省时定位到最近一条记录。
func (h *ReviewHandler) Daily(c *gin.Context) {
	dateStr := c.Query("date")
	identifier := c.Query("identifier")

	review, err := h.reviewService.Daily(dateStr, identifier)
	if err != nil {
		log.Error("Daily: failed to build review", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code": http.StatusOK,
		"data": review,
	})
}

// Trends 处理历史趋势数据查询的请求。
func (h *ReviewHandler) Trends(c *gin.Context) {
	trends, err := h.reviewService.Trends()
	if err != nil {
		log.Error("Trends: failed to build trends", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code": http.StatusOK,
		"data": trends,
	})
}

package handler

import (
	"context"
	"net/http"

	"live-reporter-go/internal/events"
	"live-reporter-go/pkg/log"
	"live-reporter-go/pkg/token"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WatchHandler 通过 WebSocket 向前端推送场次处理状态变化。
// 事件由 worker 经 Redis 发布，这里只做订阅转发。
type WatchHandler struct {
	jwtManager *token.JWTManager
	rdb        *redis.Client
}

// NewWatchHandler 创建一个新的 WatchHandler 实例。
func NewWatchHandler(jwtManager *token.JWTManager, rdb *redis.Client) *WatchHandler {
	return &WatchHandler{jwtManager: jwtManager, rdb: rdb}
}

// Watch 处理状态推送的 WebSocket 连接。
// 浏览器的 WebSocket API 无法设置请求头，token 通过查询参数传递。
func (h *WatchHandler) Watch(c *gin.Context) {
	tokenString := c.Query("token")
	if tokenString == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "缺少 token 参数"})
		return
	}
	claims, err := h.jwtManager.VerifyToken(tokenString)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "无效的 token"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warnf("Watch: WebSocket upgrade failed, error: %v", err)
		return
	}
	defer conn.Close()

	log.Infof("Watch: user '%s' connected", claims.Username)

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	pubsub := events.Subscribe(ctx, h.rdb)
	defer pubsub.Close()

	// 读循环只用来感知客户端断开
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-pubsub.Channel():
			if !ok {
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, []byte(msg.Payload)); err != nil {
				log.Warnf("Watch: failed to push event to user '%s', error: %v", claims.Username, err)
				return
			}
		}
	}
}

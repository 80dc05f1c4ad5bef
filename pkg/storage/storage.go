// Package storage 提供了图表产物的持久化能力，支持本地目录与 MinIO 对象存储。
package storage

import (
	"context"
	"fmt"

	"live-reporter-go/internal/config"
)

// ArtifactStore 把一张裁剪出来的图表写入存储，并返回可供前端引用的位置。
// 本地模式返回相对路径，对象存储模式返回完整 URL。
type ArtifactStore interface {
	SaveChart(ctx context.Context, filename string, data []byte) (string, error)
}

// New 根据部署配置选择存储后端。
func New(cfg config.StorageConfig) (ArtifactStore, error) {
	switch cfg.Mode {
	case "minio":
		return newMinIOStore(cfg.MinIO)
	case "", "local":
		return newLocalStore(cfg.LocalDir)
	default:
		return nil, fmt.Errorf("未知的存储模式: %s", cfg.Mode)
	}
}

package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// localStore 把图表写入本地目录，返回相对于目录父级的 web 路径。
// 用于本地开发部署，目录通常挂在静态文件服务下。
type localStore struct {
	dir string
}

func newLocalStore(dir string) (ArtifactStore, error) {
	if dir == "" {
		dir = "static/generated_charts"
	}
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return nil, fmt.Errorf("创建本地图表目录失败: %w", err)
	}
	return &localStore{dir: dir}, nil
}

// SaveChart 将 PNG 数据写入本地目录。
func (s *localStore) SaveChart(_ context.Context, filename string, data []byte) (string, error) {
	path := filepath.Join(s.dir, filename)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("写入本地图表文件失败: %w", err)
	}
	// 返回 web 相对路径：目录的最后一级 + 文件名
	return filepath.ToSlash(filepath.Join(filepath.Base(s.dir), filename)), nil
}

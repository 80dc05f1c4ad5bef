package pipeline

import (
	"context"
	"fmt"
	"image"
	"regexp"
	"strings"

	"live-reporter-go/pkg/imgproc"
	"live-reporter-go/pkg/log"
	"live-reporter-go/pkg/ocr"

	"github.com/google/uuid"
)

// maxOCRWidth 是发给视觉模型前的最大图片宽度，超出则等比缩小，
// 用于压低请求体大小（不约束调用时长）。
const maxOCRWidth = 1920

var unsafeTokenPattern = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

// sanitizeToken 把文件名片段中不安全的字符统一替换为下划线。
func sanitizeToken(s string) string {
	return unsafeTokenPattern.ReplaceAllString(s, "_")
}

// chartFileName 生成图表产物的文件名:
// {date}_{sanitized-start-time}_{chart-key}_{8位随机hex}.png
func chartFileName(dateStr, startTime, key string) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("%s_%s_%s_%s.png", dateStr, sanitizeToken(startTime), key, suffix)
}

// processImage 处理单张截图：按方案裁剪出图表并写入存储，
// withOCR 为 true 时再把整图（按需缩小）送给视觉模型提取指标。
// 任何一步失败都直接向上传播，由管道决定整次提交的去向。
func (p *Processor) processImage(ctx context.Context, data []byte, dateStr, startTime string, plan CropPlan, withOCR bool) (ocr.Metrics, map[string]string, error) {
	chartPaths := make(map[string]string)
	if len(plan) == 0 && !withOCR {
		return ocr.Metrics{}, chartPaths, nil
	}

	img, err := imgproc.Decode(data)
	if err != nil {
		return ocr.Metrics{}, nil, err
	}

	for _, key := range plan.sortedKeys() {
		box := plan[key]
		if box.Disabled() {
			continue
		}
		chart := imgproc.Crop(img, box.Rect())
		encoded, err := imgproc.EncodePNG(chart)
		if err != nil {
			return ocr.Metrics{}, nil, fmt.Errorf("编码图表 '%s' 失败: %w", key, err)
		}

		filename := chartFileName(dateStr, startTime, key)
		location, err := p.store.SaveChart(ctx, filename, encoded)
		if err != nil {
			return ocr.Metrics{}, nil, fmt.Errorf("保存图表 '%s' 失败: %w", key, err)
		}
		chartPaths[key] = location
	}

	var metrics ocr.Metrics
	if withOCR {
		metrics, err = p.ocrImage(ctx, img)
		if err != nil {
			return ocr.Metrics{}, nil, err
		}
	}

	return metrics, chartPaths, nil
}

// ocrImageBytes 解码原始字节后走 ocrImage，用于第一张图的关键字段识别。
func (p *Processor) ocrImageBytes(ctx context.Context, data []byte) (ocr.Metrics, error) {
	img, err := imgproc.Decode(data)
	if err != nil {
		return ocr.Metrics{}, err
	}
	return p.ocrImage(ctx, img)
}

// ocrImage 把图像按宽度上限缩小后编码为 PNG 送给视觉模型。
func (p *Processor) ocrImage(ctx context.Context, img image.Image) (ocr.Metrics, error) {
	bounds := img.Bounds()
	scaled := imgproc.DownscaleToWidth(img, maxOCRWidth)
	if scaled.Bounds().Dx() != bounds.Dx() {
		log.Infof("[Processor] OCR 前缩小图片: %dx%d -> %dx%d",
			bounds.Dx(), bounds.Dy(), scaled.Bounds().Dx(), scaled.Bounds().Dy())
	}

	payload, err := imgproc.EncodePNG(scaled)
	if err != nil {
		return ocr.Metrics{}, fmt.Errorf("编码 OCR 图片失败: %w", err)
	}
	return p.ocrClient.ExtractMetrics(ctx, payload)
}

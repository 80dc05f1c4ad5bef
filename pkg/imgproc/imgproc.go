// Package imgproc 提供了截图处理所需的图像解码、裁剪与缩放辅助函数。
package imgproc

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	// 注册 PNG / JPEG 解码器
	_ "image/jpeg"

	"golang.org/x/image/draw"
)

// Decode 将原始字节解码为图像，支持 PNG 与 JPEG。
func Decode(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("图片解码失败: %w", err)
	}
	return img, nil
}

// Crop 按给定矩形裁剪出子图。
// 结果复制到新的 RGBA 画布上，与源图不共享像素。
func Crop(img image.Image, rect image.Rectangle) image.Image {
	rect = rect.Intersect(img.Bounds())
	out := image.NewRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	draw.Draw(out, out.Bounds(), img, rect.Min, draw.Src)
	return out
}

// DownscaleToWidth 在图像宽度超过 maxWidth 时按比例缩小到该宽度，
// 否则原样返回。用于在调用 OCR 前压低请求体大小。
func DownscaleToWidth(img image.Image, maxWidth int) image.Image {
	bounds := img.Bounds()
	if maxWidth <= 0 || bounds.Dx() <= maxWidth {
		return img
	}
	ratio := float64(bounds.Dy()) / float64(bounds.Dx())
	newHeight := int(float64(maxWidth) * ratio)
	out := image.NewRGBA(image.Rect(0, 0, maxWidth, newHeight))
	draw.CatmullRom.Scale(out, out.Bounds(), img, bounds, draw.Over, nil)
	return out
}

// EncodePNG 将图像编码为 PNG 字节。
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("PNG 编码失败: %w", err)
	}
	return buf.Bytes(), nil
}

// Package ocr provides a client for extracting dashboard metrics from
// screenshots via a vision-language model.
package ocr

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"live-reporter-go/internal/config"
	"live-reporter-go/pkg/log"
)

// jsonPrompt 是发给视觉模型的抽取指令，要求返回一个可直接解析的 JSON 对象。
const jsonPrompt = `
你是一个顶级的抖音直播数据分析专家，拥有精确的视觉识别能力（OCR）。
你的任务是严格按照用户提供的图片，提取所有关键数据指标，并以一个纯净的、不含任何额外解释的JSON格式返回。
请根据图片内容，填充以下JSON结构。
- 对于图片中存在的指标，请精确提取其数值。
- 对于数值，只返回数字（整数或浮点数），不要包含任何单位如 "¥"、"%" 或 "分秒"。对于百分比，请直接返回数字，例如 "12.5%" 应返回 12.5。对于时间 "1分"，请计算总秒数后返回 60。
- 对于图片中不存在或无法识别的指标，请使用 ` + "`null`" + ` 作为其值。
- 最终的输出必须是一个能被直接解析的JSON对象，不要在JSON代码块前后添加任何文字、注释或markdown标记。
这是你必须严格遵守的JSON结构，请根据图片中的中文标签进行精确匹配和提取：
{
  "live_start_time": "字符串 (对应 '开播时间')",
  "gmv": "浮点数 (对应 '直播间成交金额' 或 '直播间用户支付金额')",
  "gpm": "浮点数 (对应 '千次观看成交金额')",
  "order_count": "整数 (对应 '成交件数')",
  "buyer_count": "整数 (对应 '成交人数')",
  "vv": "整数 (对应 '累计观看人数')",
  "avg_online_users": "整数 (对应 '平均在线人数')",
  "avg_watch_time_seconds": "整数 (对应 '人均观看时长', 结果转为总秒数)",
  "new_followers": "整数 (对应 '新增粉丝数')",
  "click_to_order_ratio": "浮点数 (对应 '商品点击-成交率(人数)')",
  "view_to_order_ratio": "浮点数 (对应 '观看-成交率(人数)')",
  "expose_to_view_ratio": "浮点数 (对应 '曝光-观看率(次数)')",
  "view_to_interact_ratio": "浮点数 (对应 '观看-互动率(人数)')",
  "follower_order_ratio": "浮点数 (对应 '成交粉丝占比' 或 '粉丝成交占比')"
}
`

// Client defines the interface for an OCR extraction client.
type Client interface {
	// ExtractMetrics 把一张 PNG 图片发给视觉模型，返回解析后的指标。
	// 响应无法解析时整次调用视为失败，不做部分字段恢复。
	ExtractMetrics(ctx context.Context, pngData []byte) (Metrics, error)
}

type visionClient struct {
	cfg    config.OCRConfig
	client *http.Client
}

// NewClient creates a new OCR client for an OpenAI-compatible endpoint.
func NewClient(cfg config.OCRConfig) Client {
	return &visionClient{
		cfg:    cfg,
		client: &http.Client{},
	}
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type chatMessage struct {
	Role    string        `json:"role"`
	Content []contentPart `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// ExtractMetrics calls the chat completions API with the JSON prompt and
// one image, then parses the returned JSON object.
func (c *visionClient) ExtractMetrics(ctx context.Context, pngData []byte) (Metrics, error) {
	log.Infof("[OCRClient] 开始调用视觉模型, model: %s, image_bytes: %d", c.cfg.Model, len(pngData))

	dataURL := "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngData)
	reqBody := chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{
				Role: "user",
				Content: []contentPart{
					{Type: "text", Text: jsonPrompt},
					{Type: "image_url", ImageURL: &imageURL{URL: dataURL}},
				},
			},
		},
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: 0,
	}

	reqBytes, err := json.Marshal(reqBody)
	if err != nil {
		return Metrics{}, fmt.Errorf("failed to marshal ocr request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.cfg.BaseURL+"/chat/completions", bytes.NewReader(reqBytes))
	if err != nil {
		return Metrics{}, fmt.Errorf("failed to create ocr request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		log.Errorf("[OCRClient] 调用视觉模型失败, error: %v", err)
		return Metrics{}, fmt.Errorf("failed to call ocr api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return Metrics{}, fmt.Errorf("ocr api returned non-200 status: %s, body: %s", resp.Status, string(bodyBytes))
	}

	var chatResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return Metrics{}, fmt.Errorf("failed to decode ocr response: %w", err)
	}
	if len(chatResp.Choices) == 0 {
		return Metrics{}, fmt.Errorf("ocr api returned no choices")
	}

	payload := StripJSONFence(chatResp.Choices[0].Message.Content)

	var metrics Metrics
	if err := json.Unmarshal([]byte(payload), &metrics); err != nil {
		log.Errorf("[OCRClient] 模型输出不是合法 JSON: %v, content: %s", err, payload)
		return Metrics{}, fmt.Errorf("failed to parse ocr result json: %w", err)
	}

	log.Info("[OCRClient] 指标提取成功")
	return metrics, nil
}

// StripJSONFence 去掉模型偶尔附带的 markdown 代码围栏。
func StripJSONFence(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	return strings.TrimSpace(s)
}

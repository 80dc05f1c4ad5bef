// Package tasks defines the structure for tasks that are sent to Kafka.
package tasks

// SessionProcessingTask represents one submission handed off to the
// background pipeline: the placeholder record's id, the calendar date and
// the raw screenshot bytes. [][]byte 走 JSON 序列化时自动按 base64 编码。
type SessionProcessingTask struct {
	SessionID uint     `json:"session_id"`
	LiveDate  string   `json:"live_date"`
	Images    [][]byte `json:"images"`
}

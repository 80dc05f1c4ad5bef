package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"live-reporter-go/internal/config"
)

func TestLocalStoreSaveChart(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "generated_charts")
	store, err := New(config.StorageConfig{Mode: "local", LocalDir: dir})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	location, err := store.SaveChart(context.Background(), "2025-06-01_18_30_overall_trend_chart_abcd1234.png", []byte("png-data"))
	if err != nil {
		t.Fatalf("SaveChart returned error: %v", err)
	}
	if location != "generated_charts/2025-06-01_18_30_overall_trend_chart_abcd1234.png" {
		t.Errorf("location = %q", location)
	}

	data, err := os.ReadFile(filepath.Join(dir, "2025-06-01_18_30_overall_trend_chart_abcd1234.png"))
	if err != nil {
		t.Fatalf("chart file not written: %v", err)
	}
	if string(data) != "png-data" {
		t.Errorf("file content = %q", data)
	}
}

func TestNewRejectsUnknownMode(t *testing.T) {
	if _, err := New(config.StorageConfig{Mode: "s3"}); err == nil {
		t.Fatal("expected error for unknown storage mode")
	}
}

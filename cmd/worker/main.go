// Package main 是后台处理 worker 的入口点。
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"live-reporter-go/internal/config"
	"live-reporter-go/internal/events"
	"live-reporter-go/internal/pipeline"
	"live-reporter-go/internal/repository"
	"live-reporter-go/pkg/database"
	"live-reporter-go/pkg/kafka"
	"live-reporter-go/pkg/log"
	"live-reporter-go/pkg/ocr"
	"live-reporter-go/pkg/storage"
)

func main() {
	// 1. 初始化配置
	config.Init("./configs/config.yaml")
	cfg := config.Conf

	// 2. 初始化日志记录器
	log.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.OutputPath)
	defer log.Sync()
	log.Info("日志记录器初始化成功")

	// 3. 初始化数据库、Redis 与图表存储
	database.InitMySQL(cfg.Database.MySQL.DSN)
	database.InitRedis(cfg.Database.Redis.Addr, cfg.Database.Redis.Password, cfg.Database.Redis.DB)
	store, err := storage.New(cfg.Storage)
	if err != nil {
		log.Fatalf("初始化图表存储失败: %v", err)
	}

	// 4. 初始化场次处理管道 (Processor)
	sessionRepository := repository.NewSessionRepository(database.DB)
	ocrClient := ocr.NewClient(cfg.OCR)
	publisher := events.NewPublisher(database.RDB)
	processor := pipeline.NewProcessor(
		sessionRepository,
		ocrClient,
		store,
		pipeline.CropPlansFromConfig(cfg.Crops),
		publisher,
	)

	// 5. 启动 Kafka 消费者，收到停机信号时取消上下文退出循环
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		log.Info("接收到停机信号，正在关闭 worker...")
		cancel()
	}()

	kafka.StartConsumer(ctx, cfg.Kafka, database.RDB, processor)
	log.Info("worker 已优雅关闭")
}

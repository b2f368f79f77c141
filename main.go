package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hoshinonyaruko/snake-in-canvas/api"
	"github.com/hoshinonyaruko/snake-in-canvas/config"
	"github.com/hoshinonyaruko/snake-in-canvas/memimg"
)

func main() {
	// Initialize the configuration
	cfg := config.LoadConfig("./config.json")
	EnsureFoldersExist(cfg.SpriteDir)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 载入贴图到内存
	if err := memimg.LoadSprites(cfg.SpriteDir, cfg.Blocksize); err != nil {
		log.Printf("Failed to load sprites from %s: %v", cfg.SpriteDir, err)
	}
	// 检测并热更新到内存 加速绘图
	go func() {
		if err := memimg.WatchSprites(ctx, cfg.SpriteDir, cfg.Blocksize); err != nil {
			log.Printf("Sprite watcher stopped: %v", err)
		}
	}()

	// tickinterval 为0时只能通过 /tick 手动推进
	manager := api.NewManager(ctx, time.Duration(cfg.TickInterval)*time.Millisecond)
	defer manager.Close()

	router := api.NewRouter(manager, "./static")
	// 从配置单例读取端口 监听
	srv := &http.Server{
		Addr:    ":" + config.GetConfigValue("port").(string),
		Handler: router,
	}
	go func() {
		<-ctx.Done()
		log.Println("Shutting down, stopping all games")
		manager.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("Server shutdown: %v", err)
		}
	}()
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("Server stopped: %v", err)
	}
}

// EnsureFoldersExist 检查并创建必需的文件夹
func EnsureFoldersExist(spriteDir string) {
	folders := []string{"static", spriteDir}

	for _, folder := range folders {
		if _, err := os.Stat(folder); os.IsNotExist(err) {
			// 文件夹不存在，尝试创建它
			err := os.MkdirAll(folder, 0755) // 使用0755权限以确保读写权限
			if err != nil {
				// 如果创建失败，则记录错误并可能退出程序
				log.Fatalf("Failed to create %s directory: %s", folder, err)
			}
			log.Printf("Created %s directory", folder)
		} else {
			// 文件夹已存在
			log.Printf("%s directory already exists", folder)
		}
	}
}

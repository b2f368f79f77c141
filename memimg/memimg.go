package memimg

import (
	"context"
	"errors"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/fsnotify/fsnotify"

	"github.com/hoshinonyaruko/snake-in-canvas/structs"
)

var (
	sprites      = make(map[structs.CellKind]image.Image)
	spritesMutex sync.RWMutex
)

// spriteKind 由文件名(不含扩展名)找对应的格子类型，比如 head.png
func spriteKind(path string) (structs.CellKind, bool) {
	name := strings.ToLower(strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)))
	for _, kind := range structs.CellKinds() {
		if kind.String() == name {
			return kind, true
		}
	}
	return structs.Empty, false
}

// LoadSprites 载入目录里的 empty/border/head/body/food 图片并缩放到 blockSize。
// 目录不存在不算错误，绘图时会退回纯色。
func LoadSprites(directory string, blockSize int) error {
	entries, err := os.ReadDir(directory)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(directory, entry.Name())
		if _, ok := spriteKind(path); !ok {
			continue
		}
		if err := loadSprite(path, blockSize); err != nil {
			return err
		}
	}
	return nil
}

func loadSprite(path string, blockSize int) error {
	kind, ok := spriteKind(path)
	if !ok {
		return nil
	}
	img, err := loadImage(path)
	if err != nil {
		return err
	}
	scaled := imaging.Resize(img, blockSize, blockSize, imaging.Lanczos)

	spritesMutex.Lock()
	sprites[kind] = scaled
	spritesMutex.Unlock()
	return nil
}

func loadImage(path string) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	img, _, err := image.Decode(file)
	if err != nil {
		return nil, err
	}
	return img, nil
}

// WatchSprites 监听目录，图片被写入或新建时热更新到内存，ctx 取消时退出
func WatchSprites(ctx context.Context, directory string, blockSize int) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(directory); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&fsnotify.Write == fsnotify.Write || event.Op&fsnotify.Create == fsnotify.Create {
				if err := loadSprite(event.Name, blockSize); err != nil {
					log.Printf("reload sprite %s: %v", event.Name, err)
				}
			}
			if event.Op&fsnotify.Remove == fsnotify.Remove {
				if kind, ok := spriteKind(event.Name); ok {
					spritesMutex.Lock()
					delete(sprites, kind)
					spritesMutex.Unlock()
				}
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Println("sprite watcher error:", err)
		}
	}
}

// GetSprite 从内存中取某种格子的贴图
func GetSprite(kind structs.CellKind) (image.Image, bool) {
	spritesMutex.RLock()
	img, exists := sprites[kind]
	spritesMutex.RUnlock()
	return img, exists
}

// ClearSprites 清空缓存
func ClearSprites() {
	spritesMutex.Lock()
	sprites = make(map[structs.CellKind]image.Image)
	spritesMutex.Unlock()
}

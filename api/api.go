package api

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/hoshinonyaruko/snake-in-canvas/config"
	"github.com/hoshinonyaruko/snake-in-canvas/snake"
)

// 单次 /tick 最多推进多少帧
const maxManualTicks = 10000

// NewRouter 注册所有路由，staticDir 用来存放渲染出的图片
func NewRouter(m *Manager, staticDir string) *gin.Engine {
	router := gin.Default()
	// 新开一局
	router.GET("/new-game", NewGameHandler(m))
	// 处理玩家改变方向
	router.GET("/update-direction", UpdateDirection(m))
	// 手动推进
	router.GET("/tick", TickHandler(m))
	// 当前状态
	router.GET("/state", StateHandler(m))
	// 渲染函数 返回静态地址
	router.GET("/render-map", RenderMapHandler(m, staticDir))
	// 删除地图
	router.GET("/delete-map", DeleteMapHandler(m))
	router.Static("/static", staticDir) // 静态文件服务
	return router
}

// intQuery 读取整数参数，参数缺省时返回默认值
func intQuery(c *gin.Context, key string, def int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("query parameter %s must be an integer, got '%s'", key, raw)
	}
	return v, nil
}

// lookupSession 取 groupid 对应的会话，失败时已经写好响应
func lookupSession(c *gin.Context, m *Manager) (*Session, bool) {
	groupID := c.Query("groupid")
	if groupID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required query parameter: groupid"})
		return nil, false
	}
	s, ok := m.Get(groupID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("no game found for group '%s'", groupID)})
		return nil, false
	}
	return s, true
}

func NewGameHandler(m *Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		groupID := c.Query("groupid")
		if groupID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required query parameter: groupid"})
			return
		}

		cfg := config.Get()
		opts := GameOptions{
			Lives:         cfg.Lives,
			GrowthPerFood: cfg.GrowthPerFood,
			BlockSize:     cfg.Blocksize,
			KeepScore:     cfg.KeepScore,
			Seed:          cfg.Seed,
		}
		var err error
		if opts.Height, err = intQuery(c, "height", cfg.Height); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if opts.Width, err = intQuery(c, "width", cfg.Width); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if opts.BaseSpeed, err = intQuery(c, "speed", cfg.BaseSpeed); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		// 画布按 width*blocksize x height*blocksize 分配，必须限制大小
		if opts.Height > cfg.MaxHeight || opts.Width > cfg.MaxWidth {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("board %dx%d exceeds the maximum %dx%d", opts.Height, opts.Width, cfg.MaxHeight, cfg.MaxWidth)})
			return
		}
		seed, err := intQuery(c, "seed", 0)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if seed != 0 {
			opts.Seed = int64(seed)
		}

		s, err := m.Create(groupID, opts)
		if errors.Is(err, snake.ErrInvalidDimensions) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Unable to create game"})
			return
		}
		c.JSON(http.StatusOK, s.State())
	}
}

func UpdateDirection(m *Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		newDirection := c.Query("direction")
		if newDirection == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required query parameter: direction"})
			return
		}
		s, ok := lookupSession(c, m)
		if !ok {
			return
		}

		// 掉头和游戏结束后的输入由引擎静默忽略，这里只校验按键本身
		if !s.HandleKey(newDirection) {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid direction '%s' provided", newDirection)})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Direction updated successfully"})
	}
}

func TickHandler(m *Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		n, err := intQuery(c, "n", 1)
		if err != nil || n < 1 || n > maxManualTicks {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("n must be between 1 and %d", maxManualTicks)})
			return
		}
		s, ok := lookupSession(c, m)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, s.Tick(n))
	}
}

func StateHandler(m *Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, ok := lookupSession(c, m)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, s.State())
	}
}

// RenderMapHandler 渲染并保存为 static/<groupid>.png，format=png 时直接返回图片
func RenderMapHandler(m *Manager, staticDir string) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, ok := lookupSession(c, m)
		if !ok {
			return
		}

		if c.Query("format") == "png" {
			var buf bytes.Buffer
			if err := s.EncodePNG(&buf); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Unable to render map"})
				return
			}
			c.Data(http.StatusOK, "image/png", buf.Bytes())
			return
		}

		groupID := c.Query("groupid")
		fileName := filepath.Join(staticDir, filepath.Base(groupID)+".png")
		if err := s.SavePNG(fileName); err != nil {
			fmt.Printf("err SavePNG :%v\n", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Unable to render map"})
			return
		}

		imageUrl := fmt.Sprintf("%s/static/%s.png", config.Get().SelfPath, filepath.Base(groupID))
		c.JSON(http.StatusOK, gin.H{"image_url": imageUrl})
	}
}

func DeleteMapHandler(m *Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		groupID := c.Query("groupid")
		if groupID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required query parameter: groupid"})
			return
		}
		if !m.Delete(groupID) {
			c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("no game found for group '%s'", groupID)})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Map deleted successfully"})
	}
}

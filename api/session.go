package api

import (
	"context"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/hoshinonyaruko/snake-in-canvas/canvas"
	"github.com/hoshinonyaruko/snake-in-canvas/snake"
	"github.com/hoshinonyaruko/snake-in-canvas/structs"
)

// 最近事件最多保留多少条
const maxRecentEvents = 64

// GameOptions 创建一局游戏需要的参数
type GameOptions struct {
	Height        int
	Width         int
	BaseSpeed     int
	Lives         int
	GrowthPerFood int
	BlockSize     int
	KeepScore     bool
	Seed          int64
}

// EventRecord 记录一条引擎事件
type EventRecord struct {
	Kind structs.EventKind `json:"kind"`
	Tick int               `json:"tick"`
	Time time.Time         `json:"time"`
}

// State 是 /state 接口返回的内容
type State struct {
	GroupID string `json:"group_id"`
	structs.Snapshot
	Events []EventRecord `json:"events"`
}

// Session 一个群对应一局游戏。引擎不是并发安全的，所有调用都在 mu 下进行。
type Session struct {
	mu     sync.Mutex
	id     string
	engine *snake.Engine
	board  *canvas.Board
	score  int
	lives  int
	events []EventRecord
	cancel context.CancelFunc
}

// NewSession 创建引擎，画布作为 Renderer，会话自己作为 EventSink
func NewSession(id string, opts GameOptions) (*Session, error) {
	s := &Session{id: id}
	if opts.BlockSize <= 0 {
		opts.BlockSize = 20
	}
	if opts.Height >= snake.MinHeight && opts.Width >= snake.MinWidth {
		s.board = canvas.NewBoard(opts.Height, opts.Width, opts.BlockSize)
	}

	engineOpts := []snake.Option{
		snake.WithEventSink(s),
		snake.WithLives(opts.Lives),
		snake.WithKeepScore(opts.KeepScore),
		snake.WithGrowthPerFood(opts.GrowthPerFood),
		snake.WithRand(snake.NewRand(opts.Seed)),
	}
	if s.board != nil {
		engineOpts = append(engineOpts, snake.WithRenderer(s.board))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	engine, err := snake.NewGame(opts.Height, opts.Width, opts.BaseSpeed, engineOpts...)
	if err != nil {
		return nil, err
	}
	s.engine = engine
	return s, nil
}

// 以下 EventSink 方法都是在引擎调用中触发的，此时 mu 已经持有

func (s *Session) OnScore(score int) {
	s.score = score
	if s.board != nil {
		s.board.SetStatus(s.score, s.lives)
	}
}

func (s *Session) OnLives(lives int) {
	s.lives = lives
	if s.board != nil {
		s.board.SetStatus(s.score, s.lives)
	}
}

func (s *Session) OnEvent(kind structs.EventKind) {
	switch kind {
	case structs.RenderPre, structs.RenderPost:
		// 每帧都会有，不记录
		return
	case structs.Died:
		log.Printf("group[%s] snake died, lives left %d", s.id, s.lives)
	case structs.GameOver:
		if s.board != nil {
			s.board.SetGameOver(true)
		}
		if err := s.engineErr(); err != nil {
			log.Printf("group[%s] game stopped: %v, score %d", s.id, err, s.score)
		} else {
			log.Printf("group[%s] game over, score %d", s.id, s.score)
		}
	}

	tick := 0
	if s.engine != nil {
		tick = s.engine.TickCount()
	}
	s.events = append(s.events, EventRecord{Kind: kind, Tick: tick, Time: time.Now()})
	if len(s.events) > maxRecentEvents {
		s.events = s.events[len(s.events)-maxRecentEvents:]
	}
}

func (s *Session) engineErr() error {
	if s.engine == nil {
		return nil
	}
	return s.engine.Err()
}

// Start 按固定间隔驱动 Tick，ctx 取消或游戏结束后退出
func (s *Session) Start(ctx context.Context, interval time.Duration) {
	ctx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.cancel = cancel
	s.mu.Unlock()

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if !s.tickOnce() {
					log.Printf("group[%s] tick loop stopped", s.id)
					return
				}
			}
		}
	}()
}

// Stop 停止自动 tick
func (s *Session) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

func (s *Session) tickOnce() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.engine.Tick()
	return s.engine.Running()
}

// Tick 手动推进 n 帧
func (s *Session) Tick(n int) structs.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := 0; i < n && s.engine.Running(); i++ {
		s.engine.Tick()
	}
	return s.engine.Snapshot()
}

// HandleKey 转发按键，返回按键是否可识别
func (s *Session) HandleKey(key string) bool {
	d, ok := structs.ParseDirection(key)
	if !ok {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.engine.HandleInput(d)
	return true
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	events := make([]EventRecord, len(s.events))
	copy(events, s.events)
	return State{
		GroupID:  s.id,
		Snapshot: s.engine.Snapshot(),
		Events:   events,
	}
}

// SavePNG 渲染当前画面并保存
func (s *Session) SavePNG(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.board == nil {
		return fmt.Errorf("group %s has no board", s.id)
	}
	return s.board.SavePNG(path)
}

// EncodePNG 把当前画面写到 w
func (s *Session) EncodePNG(w io.Writer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.board == nil {
		return fmt.Errorf("group %s has no board", s.id)
	}
	return s.board.EncodePNG(w)
}

package main

import (
	"fmt"
	"image/color"
	"log"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/hoshinonyaruko/snake-in-canvas/snake"
	"github.com/hoshinonyaruko/snake-in-canvas/structs"
)

const hudHeight = 16

var cellColors = map[structs.CellKind]color.RGBA{
	structs.Border: {0xff, 0xff, 0xff, 0xff},
	structs.Empty:  {0x00, 0x00, 0x00, 0xff},
	structs.Head:   {0x62, 0xde, 0x6d, 0xff},
	structs.Body:   {0x62, 0xde, 0x6d, 0xff},
	structs.Food:   {0xdb, 0x55, 0xdd, 0xff},
}

type keyBinding struct {
	key ebiten.Key
	dir structs.Direction
}

// 按顺序检查，同一帧按下多个键时结果是确定的
var keyBindings = []keyBinding{
	{ebiten.KeyArrowUp, structs.Up},
	{ebiten.KeyArrowDown, structs.Down},
	{ebiten.KeyArrowLeft, structs.Left},
	{ebiten.KeyArrowRight, structs.Right},
	{ebiten.KeyW, structs.Up},
	{ebiten.KeyS, structs.Down},
	{ebiten.KeyA, structs.Left},
	{ebiten.KeyD, structs.Right},
}

// pressedDirections returns the directions whose keys were pressed, in keyBindings order.
func pressedDirections(pressed func(ebiten.Key) bool) []structs.Direction {
	var dirs []structs.Direction
	for _, b := range keyBindings {
		if pressed(b.key) {
			dirs = append(dirs, b.dir)
		}
	}
	return dirs
}

const defaultBlockSize = 20

type Settings struct {
	Height    int
	Width     int
	BaseSpeed int
	BlockSize int
	Lives     int
	Seed      int64
	KeepScore bool
}

// normalize 修正格子大小并提前检查尺寸，ebiten.NewImage 遇到非正数会 panic
func (s *Settings) normalize() error {
	if s.BlockSize <= 0 {
		log.Printf("invalid block size %d, using %d", s.BlockSize, defaultBlockSize)
		s.BlockSize = defaultBlockSize
	}
	if s.Height < snake.MinHeight || s.Width < snake.MinWidth {
		return fmt.Errorf("%w: %dx%d", snake.ErrInvalidDimensions, s.Height, s.Width)
	}
	return nil
}

// board 把引擎的逐格绘制画到离屏图像上
type board struct {
	img   *ebiten.Image
	block int
}

func (b *board) Draw(row, col int, kind structs.CellKind) {
	c, ok := cellColors[kind]
	if !ok {
		c = cellColors[structs.Empty]
	}
	s := float32(b.block)
	vector.DrawFilledRect(b.img, float32(col)*s, float32(row)*s, s, s, c, false)
}

// hud 作为 EventSink，记录分数、生命和状态文字
type hud struct {
	score  int
	lives  int
	status string
}

func (h *hud) OnScore(score int) { h.score = score }
func (h *hud) OnLives(lives int) { h.lives = lives }

func (h *hud) OnEvent(kind structs.EventKind) {
	switch kind {
	case structs.Died:
		log.Println("You just died")
		h.status = ""
	case structs.GameOver:
		log.Printf("game over, score %d", h.score)
		h.status = "GAME OVER - press space"
	case structs.AteFood:
		h.status = ""
	}
}

// Game implements ebiten.Game. Update and Draw run on the same goroutine, so the engine needs no lock.
type Game struct {
	settings Settings
	engine   *snake.Engine
	board    *board
	hud      *hud
}

func NewGame(settings Settings) (*Game, error) {
	if err := settings.normalize(); err != nil {
		return nil, err
	}
	g := &Game{settings: settings}
	if err := g.restart(); err != nil {
		return nil, err
	}
	return g, nil
}

func (g *Game) restart() error {
	b := &board{
		img:   ebiten.NewImage(g.settings.Width*g.settings.BlockSize, g.settings.Height*g.settings.BlockSize),
		block: g.settings.BlockSize,
	}
	h := &hud{}
	engine, err := snake.NewGame(g.settings.Height, g.settings.Width, g.settings.BaseSpeed,
		snake.WithRenderer(b),
		snake.WithEventSink(h),
		snake.WithLives(g.settings.Lives),
		snake.WithKeepScore(g.settings.KeepScore),
		snake.WithRand(snake.NewRand(g.settings.Seed)),
	)
	if err != nil {
		return fmt.Errorf("start game: %w", err)
	}
	g.engine, g.board, g.hud = engine, b, h
	return nil
}

func (g *Game) Update() error {
	if !g.engine.Running() {
		if inpututil.IsKeyJustPressed(ebiten.KeySpace) || inpututil.IsKeyJustPressed(ebiten.KeyEnter) {
			return g.restart()
		}
		return nil
	}
	for _, dir := range pressedDirections(inpututil.IsKeyJustPressed) {
		g.engine.HandleInput(dir)
	}
	g.engine.Tick()
	return nil
}

func (g *Game) Draw(screen *ebiten.Image) {
	screen.DrawImage(g.board.img, &ebiten.DrawImageOptions{})
	y := g.settings.Height * g.settings.BlockSize
	ebitenutil.DebugPrintAt(screen, fmt.Sprintf("score %d  lives %d  %s", g.hud.score, g.hud.lives, g.hud.status), 2, y)
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return g.settings.Width * g.settings.BlockSize, g.settings.Height*g.settings.BlockSize + hudHeight
}

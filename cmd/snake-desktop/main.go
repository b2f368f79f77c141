// cmd/snake-desktop/main.go
package main

import (
	"flag"
	"log"
	"os"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/hoshinonyaruko/snake-in-canvas/config"
)

func main() {
	// 和服务端共用同一个配置文件，命令行参数优先
	config.LoadConfig("./config.json")
	settings, err := parseSettings(config.Get(), os.Args[1:])
	if err != nil {
		log.Fatal(err)
	}

	g, err := NewGame(settings)
	if err != nil {
		log.Fatal(err)
	}

	w, h := g.Layout(0, 0)
	ebiten.SetWindowSize(w*2, h*2)
	ebiten.SetWindowTitle("Snake")
	// 默认60TPS，相当于浏览器的 requestAnimationFrame
	if err := ebiten.RunGame(g); err != nil {
		log.Fatal(err)
	}
}

// parseSettings reads the command line on top of the loaded config.
func parseSettings(defaults config.AppConfig, args []string) (Settings, error) {
	fs := flag.NewFlagSet("snake-desktop", flag.ContinueOnError)
	height := fs.Int("height", defaults.Height, "grid rows")
	width := fs.Int("width", defaults.Width, "grid columns")
	speed := fs.Int("speed", defaults.BaseSpeed, "frames per step at the starting length")
	block := fs.Int("block", defaults.Blocksize, "cell size in pixels")
	lives := fs.Int("lives", defaults.Lives, "lives per game")
	seed := fs.Int64("seed", defaults.Seed, "food placement seed, 0 uses the clock")
	keepScore := fs.Bool("keepscore", defaults.KeepScore, "keep the score after losing a life")
	if err := fs.Parse(args); err != nil {
		return Settings{}, err
	}

	s := Settings{
		Height:    *height,
		Width:     *width,
		BaseSpeed: *speed,
		BlockSize: *block,
		Lives:     *lives,
		Seed:      *seed,
		KeepScore: *keepScore,
	}
	if err := s.normalize(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Package canvas 把引擎的逐格绘制通知画到一张 gg 画布上，并输出 PNG。
package canvas

import (
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
	"golang.org/x/image/font/basicfont"

	"github.com/hoshinonyaruko/snake-in-canvas/memimg"
	"github.com/hoshinonyaruko/snake-in-canvas/structs"
)

// HUDHeight is the strip below the grid used for score and lives.
const HUDHeight = 20

// 默认配色，没有贴图时使用
var palette = map[structs.CellKind]string{
	structs.Border: "#ffffff",
	structs.Empty:  "#000000",
	structs.Head:   "#62de6d",
	structs.Body:   "#62de6d",
	structs.Food:   "#db55dd",
}

// Board implements snake.Renderer on top of a gg.Context.
// Not safe for concurrent use; the owning session serialises access.
type Board struct {
	dc        *gg.Context
	height    int
	width     int
	blockSize int
	score     int
	lives     int
	gameOver  bool
}

func NewBoard(height, width, blockSize int) *Board {
	b := &Board{
		dc:        gg.NewContext(width*blockSize, height*blockSize+HUDHeight),
		height:    height,
		width:     width,
		blockSize: blockSize,
	}
	b.dc.SetFontFace(basicfont.Face7x13)
	b.dc.SetHexColor(palette[structs.Empty])
	b.dc.Clear()
	b.drawHUD()
	return b
}

// Draw 画一个格子，优先用贴图，没有贴图时用纯色
func (b *Board) Draw(row, col int, kind structs.CellKind) {
	x := col * b.blockSize
	y := row * b.blockSize
	if img, ok := memimg.GetSprite(kind); ok {
		b.dc.DrawImage(img, x, y)
		return
	}
	color, ok := palette[kind]
	if !ok {
		color = palette[structs.Empty]
	}
	b.dc.SetHexColor(color)
	b.dc.DrawRectangle(float64(x), float64(y), float64(b.blockSize), float64(b.blockSize))
	b.dc.Fill()
}

// SetStatus 更新HUD上的分数和生命
func (b *Board) SetStatus(score, lives int) {
	b.score = score
	b.lives = lives
	b.drawHUD()
}

// SetGameOver marks the frame so Image blurs the grid and overlays a banner.
func (b *Board) SetGameOver(over bool) {
	b.gameOver = over
}

func (b *Board) drawHUD() {
	top := float64(b.height * b.blockSize)
	b.dc.SetHexColor("#202020")
	b.dc.DrawRectangle(0, top, float64(b.width*b.blockSize), HUDHeight)
	b.dc.Fill()

	b.dc.SetHexColor("#ffffff")
	b.dc.DrawString(fmt.Sprintf("score %d", b.score), 4, top+14)
	b.dc.SetHexColor("#f83b3a")
	b.dc.DrawStringAnchored(fmt.Sprintf("lives %d", b.lives), float64(b.width*b.blockSize)-4, top+14, 1, 0)
}

// Bounds 返回画布像素大小
func (b *Board) Bounds() image.Rectangle {
	return image.Rect(0, 0, b.dc.Width(), b.dc.Height())
}

// Image 返回当前画面。游戏结束时网格做高斯模糊并写上 GAME OVER。
func (b *Board) Image() image.Image {
	if !b.gameOver {
		return imaging.Clone(b.dc.Image())
	}

	blurred := imaging.Blur(b.dc.Image(), 3)
	out := gg.NewContextForImage(blurred)
	out.SetFontFace(basicfont.Face7x13)
	out.SetHexColor("#ffffff")
	gridH := float64(b.height * b.blockSize)
	out.DrawStringAnchored("GAME OVER", float64(out.Width())/2, gridH/2, 0.5, 0.5)
	return out.Image()
}

// EncodePNG 把当前画面写成 PNG
func (b *Board) EncodePNG(w io.Writer) error {
	out := gg.NewContextForImage(b.Image())
	return out.EncodePNG(w)
}

// SavePNG 保存到文件，目录不存在时自动创建
func (b *Board) SavePNG(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
		return err
	}
	return gg.SavePNG(path, b.Image())
}

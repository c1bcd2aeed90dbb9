package pngchart

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"

	"github.com/kirillkom/deck-pipeline/internal/core/domain"
)

var (
	background   = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	gridColor    = color.RGBA{R: 0xd9, G: 0xd9, B: 0xd9, A: 0xff}
	axisColor    = color.RGBA{R: 0x40, G: 0x40, B: 0x40, A: 0xff}
	revenueColor = color.RGBA{R: 0x1f, G: 0x4e, B: 0x79, A: 0xff}
	ebitdaColor  = color.RGBA{R: 0x70, G: 0xad, B: 0x47, A: 0xff}
)

const (
	marginLeft   = 60
	marginRight  = 30
	marginTop    = 40
	marginBottom = 50
	gridLines    = 4
)

var errNothingToPlot = errors.New("financial summary has no positive figures")

// Renderer draws the grouped Year 1..3 revenue and EBITDA bar chart.
type Renderer struct {
	width  int
	height int
}

func NewRenderer() *Renderer {
	return &Renderer{width: 800, height: 450}
}

func (r *Renderer) RenderFinancialChart(ctx context.Context, summary domain.FinancialSummary, outPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	img, err := r.draw(summary)
	if err != nil {
		return err
	}
	return writePNG(img, outPath)
}

func (r *Renderer) draw(summary domain.FinancialSummary) (*image.RGBA, error) {
	revenue := summary.Revenue.Values()
	ebitda := summary.EBITDA.Values()
	maxValue := int64(0)
	for i := range revenue {
		maxValue = max(maxValue, revenue[i], ebitda[i])
	}
	if maxValue <= 0 {
		return nil, errNothingToPlot
	}

	img := image.NewRGBA(image.Rect(0, 0, r.width, r.height))
	draw.Draw(img, img.Bounds(), image.NewUniform(background), image.Point{}, draw.Src)

	plot := r.plotArea()
	for i := 1; i <= gridLines; i++ {
		y := plot.Max.Y - plot.Dy()*i/gridLines
		fill(img, image.Rect(plot.Min.X, y, plot.Max.X, y+1), gridColor)
	}

	for year := range revenue {
		fill(img, r.barRect(year, 0, revenue[year], maxValue), revenueColor)
		fill(img, r.barRect(year, 1, ebitda[year], maxValue), ebitdaColor)
	}

	fill(img, image.Rect(plot.Min.X, plot.Min.Y, plot.Min.X+2, plot.Max.Y), axisColor)
	fill(img, image.Rect(plot.Min.X, plot.Max.Y, plot.Max.X, plot.Max.Y+2), axisColor)

	legendX := plot.Max.X - 120
	fill(img, image.Rect(legendX, 12, legendX+16, 28), revenueColor)
	fill(img, image.Rect(legendX+60, 12, legendX+76, 28), ebitdaColor)
	return img, nil
}

func (r *Renderer) plotArea() image.Rectangle {
	return image.Rect(marginLeft, marginTop, r.width-marginRight, r.height-marginBottom)
}

// barRect is the bar of one series (0 revenue, 1 EBITDA) in one year group. Negative values
// draw no bar.
func (r *Renderer) barRect(year, series int, value, maxValue int64) image.Rectangle {
	plot := r.plotArea()
	groupWidth := plot.Dx() / 3
	barWidth := groupWidth / 4
	x0 := plot.Min.X + year*groupWidth + groupWidth/6 + series*(barWidth+barWidth/4)

	height := 0
	if value > 0 {
		height = int(float64(value) / float64(maxValue) * float64(plot.Dy()))
	}
	return image.Rect(x0, plot.Max.Y-height, x0+barWidth, plot.Max.Y)
}

func fill(img *image.RGBA, rect image.Rectangle, c color.Color) {
	draw.Draw(img, rect, image.NewUniform(c), image.Point{}, draw.Src)
}

func writePNG(img image.Image, outPath string) error {
	dir := filepath.Dir(outPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create chart dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".chart.*.png")
	if err != nil {
		return fmt.Errorf("create chart file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := png.Encode(tmp, img); err != nil {
		tmp.Close()
		return fmt.Errorf("encode chart: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close chart file: %w", err)
	}
	if err := os.Rename(tmp.Name(), outPath); err != nil {
		return fmt.Errorf("replace chart file: %w", err)
	}
	return nil
}

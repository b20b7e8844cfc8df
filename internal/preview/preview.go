// Package preview draws generated layouts as box-drawing sketches for the
// terminal and the MCP tools.
package preview

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/1broseidon/rivertile/internal/layout"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("62"))
	summaryStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// Summarize describes the view sizes of a generated layout in one line.
func Summarize(views []layout.ViewPlacement) string {
	if len(views) == 0 {
		return "no views"
	}

	minW, minH := views[0].Width, views[0].Height
	maxW, maxH := views[0].Width, views[0].Height
	for _, v := range views[1:] {
		minW, maxW = min(minW, v.Width), max(maxW, v.Width)
		minH, maxH = min(minH, v.Height), max(maxH, v.Height)
	}

	if minW == maxW && minH == maxH {
		return fmt.Sprintf("%d views • %d×%d px each", len(views), minW, minH)
	}
	return fmt.Sprintf("%d views • min %d×%d • max %d×%d", len(views), minW, minH, maxW, maxH)
}

// Render maps views laid out in an areaW×areaH output onto a width×height
// character canvas. Tiles are numbered in push order; tiles too small to
// draw at this scale are skipped.
func Render(views []layout.ViewPlacement, areaW, areaH uint32, width, height int) []string {
	if areaW == 0 || areaH == 0 || width < 5 || height < 3 {
		return emptyCanvas(max(width, 0), max(height, 0))
	}

	canvas := make([][]rune, height)
	for i := range canvas {
		canvas[i] = []rune(strings.Repeat(" ", width))
	}

	for i, v := range views {
		drawTile(canvas, v, i+1, int(areaW), int(areaH), width, height)
	}
	drawBorder(canvas, width, height)

	lines := make([]string, height)
	for i, row := range canvas {
		lines[i] = string(row)
	}
	return lines
}

// Frame titles a rendered canvas and appends the size summary.
func Frame(title string, lines []string, views []layout.ViewPlacement) string {
	return lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render(title),
		strings.Join(lines, "\n"),
		summaryStyle.Render(Summarize(views)),
	)
}

func drawTile(canvas [][]rune, v layout.ViewPlacement, num, areaW, areaH, canvasW, canvasH int) {
	x1 := int(v.X) * canvasW / areaW
	y1 := int(v.Y) * canvasH / areaH
	x2 := (int(v.X) + int(v.Width)) * canvasW / areaW
	y2 := (int(v.Y) + int(v.Height)) * canvasH / areaH

	// Keep the outer border free.
	x1 = max(x1, 1)
	y1 = max(y1, 1)
	x2 = min(x2, canvasW-2)
	y2 = min(y2, canvasH-2)

	if x2 <= x1 || y2 <= y1 {
		return
	}

	for x := x1; x <= x2; x++ {
		canvas[y1][x] = '─'
		canvas[y2][x] = '─'
	}
	for y := y1; y <= y2; y++ {
		canvas[y][x1] = '│'
		canvas[y][x2] = '│'
	}
	canvas[y1][x1] = '┌'
	canvas[y1][x2] = '┐'
	canvas[y2][x1] = '└'
	canvas[y2][x2] = '┘'

	centerY := (y1 + y2) / 2
	centerX := (x1 + x2) / 2
	if centerY > y1 && centerY < y2 && centerX > x1 && centerX < x2 {
		label := fmt.Sprintf("%d", num)
		startX := centerX - len(label)/2
		for i, r := range label {
			if startX+i > x1 && startX+i < x2 {
				canvas[centerY][startX+i] = r
			}
		}
	}
}

func drawBorder(canvas [][]rune, width, height int) {
	for x := 0; x < width; x++ {
		canvas[0][x] = '═'
		canvas[height-1][x] = '═'
	}
	for y := 0; y < height; y++ {
		canvas[y][0] = '║'
		canvas[y][width-1] = '║'
	}
	canvas[0][0] = '╔'
	canvas[0][width-1] = '╗'
	canvas[height-1][0] = '╚'
	canvas[height-1][width-1] = '╝'
}

func emptyCanvas(width, height int) []string {
	lines := make([]string, height)
	empty := strings.Repeat(" ", width)
	for i := range lines {
		lines[i] = empty
	}
	return lines
}

package tiling

import (
	"errors"
	"fmt"
	"math"

	"github.com/1broseidon/rivertile/internal/config"
)

// ErrInsufficientSpace is returned when gaps leave no room for a tile.
var ErrInsufficientSpace = errors.New("insufficient space for layout")

// Rect represents a view position and size
type Rect struct {
	X      int
	Y      int
	Width  int
	Height int
}

// CalculateGrid determines the optimal grid dimensions for the given number of views
func CalculateGrid(numViews int) (rows, cols int) {
	if numViews == 0 {
		return 0, 0
	}

	// Calculate columns first (ceiling of square root)
	cols = int(math.Ceil(math.Sqrt(float64(numViews))))

	// Calculate rows needed
	rows = int(math.Ceil(float64(numViews) / float64(cols)))

	return rows, cols
}

// CalculatePositionsWithLayout computes exactly numViews positions inside
// area. Views that do not fit a bounded grid share its last cell.
func CalculatePositionsWithLayout(
	numViews int,
	area Rect,
	layout *config.Layout,
	gapSize int,
) ([]Rect, error) {
	if numViews <= 0 {
		return []Rect{}, nil
	}

	var rows, cols int
	flexibleLastRow := layout.FlexibleLastRow

	switch layout.Mode {
	case config.LayoutModeAuto:
		rows, cols = CalculateGrid(numViews)

	case config.LayoutModeFixed:
		rows = layout.FixedGrid.Rows
		cols = layout.FixedGrid.Cols
		// Flexible last row doesn't apply to fixed grids
		flexibleLastRow = false

	case config.LayoutModeVertical:
		rows = numViews
		cols = 1
		flexibleLastRow = false

	case config.LayoutModeHorizontal:
		rows = 1
		cols = numViews
		flexibleLastRow = false

	case config.LayoutModeMasterStack:
		return masterStackPositions(numViews, area, layout.MasterStack, gapSize)

	case config.LayoutModeMonocle:
		return Monocle(numViews, area, gapSize), nil

	default:
		return nil, fmt.Errorf("unsupported layout mode: %q", layout.Mode)
	}

	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("invalid grid dimensions: rows=%d cols=%d", rows, cols)
	}

	// Views beyond the grid's capacity are stacked in the last cell.
	capacity := rows * cols
	placed := min(numViews, capacity)
	if placed < capacity {
		// Drop empty trailing rows so the grid fills the area.
		rows = (placed + cols - 1) / cols
	}

	totalHorizontalGaps := (cols + 1) * gapSize
	totalVerticalGaps := (rows + 1) * gapSize

	slotWidth := (area.Width - totalHorizontalGaps) / cols
	slotHeight := (area.Height - totalVerticalGaps) / rows

	if slotWidth <= 0 || slotHeight <= 0 {
		return nil, fmt.Errorf("%w: area=%dx%d rows=%d cols=%d gap=%d (slot=%dx%d)",
			ErrInsufficientSpace, area.Width, area.Height, rows, cols, gapSize, slotWidth, slotHeight)
	}

	viewWidth := slotWidth
	viewHeight := slotHeight

	// Apply max dimension constraints (within each slot)
	if layout.MaxTileWidth > 0 && viewWidth > layout.MaxTileWidth {
		viewWidth = layout.MaxTileWidth
	}
	if layout.MaxTileHeight > 0 && viewHeight > layout.MaxTileHeight {
		viewHeight = layout.MaxTileHeight
	}

	lastRowIndex := rows - 1
	viewsInLastRow := placed - (lastRowIndex * cols)
	if viewsInLastRow <= 0 {
		viewsInLastRow = cols
	}

	var lastRowSlotWidth, lastRowViewWidth int
	if flexibleLastRow && viewsInLastRow < cols {
		// Last row has fewer views - they expand to fill the width
		lastRowSlotWidth = (area.Width - (viewsInLastRow+1)*gapSize) / viewsInLastRow
		lastRowViewWidth = lastRowSlotWidth
		if layout.MaxTileWidth > 0 && lastRowViewWidth > layout.MaxTileWidth {
			lastRowViewWidth = layout.MaxTileWidth
		}
	}

	positions := make([]Rect, numViews)

	for i := 0; i < placed; i++ {
		row := i / cols
		col := i % cols

		useFlexible := flexibleLastRow && row == lastRowIndex && viewsInLastRow < cols

		var thisSlotWidth, thisViewWidth, x int
		if useFlexible {
			lastRowCol := i - (lastRowIndex * cols)
			thisSlotWidth = lastRowSlotWidth
			thisViewWidth = lastRowViewWidth
			x = area.X + gapSize + lastRowCol*(thisSlotWidth+gapSize)
		} else {
			thisSlotWidth = slotWidth
			thisViewWidth = viewWidth
			x = area.X + gapSize + col*(slotWidth+gapSize)
		}

		y := area.Y + gapSize + row*(slotHeight+gapSize)

		// Center within the slot if the tile is smaller than available space
		if thisViewWidth < thisSlotWidth {
			x += (thisSlotWidth - thisViewWidth) / 2
		}
		if viewHeight < slotHeight {
			y += (slotHeight - viewHeight) / 2
		}

		positions[i] = Rect{X: x, Y: y, Width: thisViewWidth, Height: viewHeight}
	}
	for i := placed; i < numViews; i++ {
		positions[i] = positions[placed-1]
	}

	return positions, nil
}

func masterStackPositions(numViews int, area Rect, ms config.MasterStack, gapSize int) ([]Rect, error) {
	stackHeight := area.Height - 2*gapSize

	if numViews == 1 {
		if area.Width-2*gapSize <= 0 || stackHeight <= 0 {
			return nil, fmt.Errorf("%w: area=%dx%d gap=%d", ErrInsufficientSpace, area.Width, area.Height, gapSize)
		}
		return []Rect{{
			X:      area.X + gapSize,
			Y:      area.Y + gapSize,
			Width:  area.Width - 2*gapSize,
			Height: stackHeight,
		}}, nil
	}

	masterWidth := (area.Width * ms.MasterWidthPercent / 100) - gapSize

	// Right region for stack grid
	rightStartX := area.X + masterWidth + 2*gapSize
	rightRegionWidth := area.Width - masterWidth - 3*gapSize

	stackCount := numViews - 1

	// Auto-grid: cols = ceil(stackCount / MaxStackRows) capped at MaxStackCols
	stackCols := int(math.Ceil(float64(stackCount) / float64(ms.MaxStackRows)))
	stackCols = max(1, min(stackCols, ms.MaxStackCols))
	stackRows := int(math.Ceil(float64(stackCount) / float64(stackCols)))
	stackRows = min(stackRows, ms.MaxStackRows)

	placed := min(stackCount, stackRows*stackCols)

	cellWidth := (rightRegionWidth - (stackCols-1)*gapSize) / stackCols
	cellHeight := (stackHeight - (stackRows-1)*gapSize) / stackRows

	if masterWidth <= 0 || cellWidth <= 0 || cellHeight <= 0 {
		return nil, fmt.Errorf(
			"%w: area=%dx%d masterWidth=%d cellWidth=%d cellHeight=%d gap=%d",
			ErrInsufficientSpace, area.Width, area.Height, masterWidth, cellWidth, cellHeight, gapSize,
		)
	}

	positions := make([]Rect, numViews)
	positions[0] = Rect{
		X:      area.X + gapSize,
		Y:      area.Y + gapSize,
		Width:  masterWidth,
		Height: stackHeight,
	}

	for i := 0; i < placed; i++ {
		row := i / stackCols
		col := i % stackCols
		positions[i+1] = Rect{
			X:      rightStartX + col*(cellWidth+gapSize),
			Y:      area.Y + gapSize + row*(cellHeight+gapSize),
			Width:  cellWidth,
			Height: cellHeight,
		}
	}
	for i := placed + 1; i < numViews; i++ {
		positions[i] = positions[placed]
	}

	return positions, nil
}

// Monocle places every view over the whole area, inset by gapSize when that
// leaves a positive size.
func Monocle(numViews int, area Rect, gapSize int) []Rect {
	r := area
	if area.Width-2*gapSize > 0 && area.Height-2*gapSize > 0 {
		r = Rect{
			X:      area.X + gapSize,
			Y:      area.Y + gapSize,
			Width:  area.Width - 2*gapSize,
			Height: area.Height - 2*gapSize,
		}
	}
	positions := make([]Rect, max(numViews, 0))
	for i := range positions {
		positions[i] = r
	}
	return positions
}

// ApplyRegion applies the tile region to an area, returning adjusted bounds
func ApplyRegion(area Rect, region config.TileRegion) Rect {
	adjusted := area

	switch region.Type {
	case config.RegionFull:
		// No change

	case config.RegionLeftHalf:
		adjusted.Width = area.Width / 2

	case config.RegionRightHalf:
		adjusted.X = area.X + area.Width/2
		adjusted.Width = area.Width - area.Width/2

	case config.RegionTopHalf:
		adjusted.Height = area.Height / 2

	case config.RegionBottomHalf:
		adjusted.Y = area.Y + area.Height/2
		adjusted.Height = area.Height - area.Height/2

	case config.RegionCustom:
		adjusted.X = area.X + (area.Width * region.XPercent / 100)
		adjusted.Y = area.Y + (area.Height * region.YPercent / 100)
		adjusted.Width = area.Width * region.WidthPercent / 100
		adjusted.Height = area.Height * region.HeightPercent / 100
	}

	if adjusted.Width < 1 {
		adjusted.Width = 1
	}
	if adjusted.Height < 1 {
		adjusted.Height = 1
	}

	return adjusted
}

// ApplyPadding shrinks area by the configured screen padding. Padding that
// would consume the whole area is ignored.
func ApplyPadding(area Rect, p config.Margins) Rect {
	padded := Rect{
		X:      area.X + p.Left,
		Y:      area.Y + p.Top,
		Width:  area.Width - p.Left - p.Right,
		Height: area.Height - p.Top - p.Bottom,
	}
	if padded.Width < 1 || padded.Height < 1 {
		return area
	}
	return padded
}

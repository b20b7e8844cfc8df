package mcp

import (
	"context"
	"fmt"
	"strings"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/rivertile/internal/layout"
	"github.com/1broseidon/rivertile/internal/preview"
	"github.com/1broseidon/rivertile/internal/tiling"
)

const (
	defaultPreviewViews  = 3
	maxPreviewViews      = 256
	defaultPreviewWidth  = 1920
	defaultPreviewHeight = 1080
	defaultPreviewOutput = "preview"

	sketchCols = 64
	sketchRows = 18
)

func (s *Server) handleListLayouts(_ context.Context, _ *mcpsdk.CallToolRequest, args ListLayoutsInput) (*mcpsdk.CallToolResult, ListLayoutsOutput, error) {
	def := s.config.DefaultLayoutFor(args.Output)

	names := s.config.LayoutNames()
	layouts := make([]LayoutInfo, 0, len(names))
	for _, name := range names {
		l := s.config.Layouts[name]
		layouts = append(layouts, LayoutInfo{
			Name:    name,
			Label:   s.config.LayoutLabel(name),
			Mode:    string(l.Mode),
			Region:  string(l.TileRegion.Type),
			Default: name == def,
		})
	}

	return nil, ListLayoutsOutput{
		Namespace:     s.config.Namespace,
		DefaultLayout: def,
		Layouts:       layouts,
	}, nil
}

func (s *Server) handlePreviewLayout(_ context.Context, _ *mcpsdk.CallToolRequest, args PreviewLayoutInput) (*mcpsdk.CallToolResult, PreviewLayoutOutput, error) {
	output := strings.TrimSpace(args.Output)
	if output == "" {
		output = defaultPreviewOutput
	}
	views := defaultPreviewViews
	if args.Views != nil {
		views = *args.Views
	}
	if views < 0 || views > maxPreviewViews {
		return nil, PreviewLayoutOutput{}, fmt.Errorf("views must be between 0 and %d, got %d", maxPreviewViews, views)
	}
	width, height := args.Width, args.Height
	if width == 0 {
		width = defaultPreviewWidth
	}
	if height == 0 {
		height = defaultPreviewHeight
	}
	if width < 0 || height < 0 {
		return nil, PreviewLayoutOutput{}, fmt.Errorf("width and height must be positive, got %dx%d", width, height)
	}

	gen := tiling.NewGenerator(s.config, s.logger)
	name := strings.TrimSpace(args.Layout)
	if name != "" {
		if err := gen.HandleCommand(nil, output, "layout "+name); err != nil {
			return nil, PreviewLayoutOutput{}, err
		}
	} else {
		name = gen.ActiveLayout(output, 0)
	}

	gl, err := layout.Generate(gen, 0, output, uint32(width), uint32(height), views)
	if err != nil {
		return nil, PreviewLayoutOutput{}, err
	}

	placements := make([]Placement, len(gl.Views))
	for i, v := range gl.Views {
		placements[i] = Placement{X: v.X, Y: v.Y, Width: v.Width, Height: v.Height}
	}
	lines := preview.Render(gl.Views, uint32(width), uint32(height), sketchCols, sketchRows)

	s.logger.Debug("preview computed", "layout", name, "output", output, "view_count", views)

	return nil, PreviewLayoutOutput{
		Layout:     name,
		Label:      gl.Name,
		Output:     output,
		Width:      uint32(width),
		Height:     uint32(height),
		Placements: placements,
		Summary:    preview.Summarize(gl.Views),
		Sketch:     strings.Join(lines, "\n"),
	}, nil
}

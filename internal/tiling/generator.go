package tiling

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/1broseidon/rivertile/internal/config"
	"github.com/1broseidon/rivertile/internal/layout"
)

const (
	minMainRatio = 10
	maxMainRatio = 90
)

// outputState is what user commands have changed on one output.
type outputState struct {
	layout     string            // active layout when the tags have no override
	tagLayouts map[uint32]string // layout chosen while a tag set was focused
	gap        int
	mainRatio  int // master width percent; 0 keeps the layout's own
}

// Generator tiles views using the layouts from a config.Config. It is
// driven from a single goroutine.
type Generator struct {
	cfg     *config.Config
	logger  *slog.Logger
	outputs map[string]*outputState
}

var _ layout.Generator = (*Generator)(nil)

func NewGenerator(cfg *config.Config, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Generator{
		cfg:     cfg,
		logger:  logger,
		outputs: make(map[string]*outputState),
	}
}

func (g *Generator) Namespace() string {
	return g.cfg.Namespace
}

func (g *Generator) state(output string) *outputState {
	st, ok := g.outputs[output]
	if !ok {
		st = &outputState{
			layout:     g.cfg.DefaultLayoutFor(output),
			tagLayouts: make(map[uint32]string),
			gap:        g.cfg.GapSizeFor(output),
		}
		g.outputs[output] = st
	}
	return st
}

// activeLayout returns the layout name used for tags on st.
func (st *outputState) activeLayout(tags uint32) string {
	if name, ok := st.tagLayouts[tags]; ok {
		return name
	}
	return st.layout
}

func (st *outputState) setLayout(tags *uint32, name string) {
	if tags != nil {
		st.tagLayouts[*tags] = name
		return
	}
	st.layout = name
}

// ActiveLayout reports the layout an output uses for tags.
func (g *Generator) ActiveLayout(output string, tags uint32) string {
	return g.state(output).activeLayout(tags)
}

// HandleCommand applies one user command:
//
//	layout <name>
//	cycle-layout [next|prev]
//	gap <n|+n|-n>
//	main-ratio <n|+n|-n>
//	reset
//
// With tags known, layout and cycle-layout apply to that tag set only.
func (g *Generator) HandleCommand(tags *uint32, output, command string) error {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return fmt.Errorf("empty command")
	}
	st := g.state(output)
	cmd, args := fields[0], fields[1:]

	switch cmd {
	case "layout":
		if len(args) != 1 {
			return fmt.Errorf("usage: layout <name>")
		}
		if _, err := g.cfg.GetLayout(args[0]); err != nil {
			return err
		}
		st.setLayout(tags, args[0])

	case "cycle-layout":
		step := 1
		if len(args) > 1 {
			return fmt.Errorf("usage: cycle-layout [next|prev]")
		}
		if len(args) == 1 {
			switch args[0] {
			case "next":
			case "prev", "previous":
				step = -1
			default:
				return fmt.Errorf("cycle-layout: unknown direction %q", args[0])
			}
		}
		var current uint32
		if tags != nil {
			current = *tags
		}
		st.setLayout(tags, g.cycle(st.activeLayout(current), step))

	case "gap":
		if len(args) != 1 {
			return fmt.Errorf("usage: gap <n|+n|-n>")
		}
		v, err := adjust(st.gap, args[0])
		if err != nil {
			return fmt.Errorf("gap: %w", err)
		}
		st.gap = max(v, 0)

	case "main-ratio":
		if len(args) != 1 {
			return fmt.Errorf("usage: main-ratio <n|+n|-n>")
		}
		current := st.mainRatio
		if current == 0 {
			var active uint32
			if tags != nil {
				active = *tags
			}
			current = g.masterPercent(st.activeLayout(active))
		}
		v, err := adjust(current, args[0])
		if err != nil {
			return fmt.Errorf("main-ratio: %w", err)
		}
		st.mainRatio = min(max(v, minMainRatio), maxMainRatio)

	case "reset":
		if len(args) != 0 {
			return fmt.Errorf("usage: reset")
		}
		delete(g.outputs, output)

	default:
		return fmt.Errorf("unknown command %q", cmd)
	}

	g.logger.Debug("layout state changed", "output", output, "command", command)
	return nil
}

// cycle steps through layout names in sorted order.
func (g *Generator) cycle(current string, step int) string {
	names := g.cfg.LayoutNames()
	i := slices.Index(names, current)
	if i < 0 {
		return names[0]
	}
	return names[(i+step+len(names))%len(names)]
}

func (g *Generator) masterPercent(name string) int {
	if l, ok := g.cfg.Layouts[name]; ok && l.Mode == config.LayoutModeMasterStack {
		return l.MasterStack.MasterWidthPercent
	}
	return config.BuiltinLayouts()["master-stack"].MasterStack.MasterWidthPercent
}

// adjust parses an absolute value or a signed delta applied to current.
func adjust(current int, arg string) (int, error) {
	v, err := strconv.Atoi(arg)
	if err != nil {
		return 0, fmt.Errorf("invalid value %q", arg)
	}
	if strings.HasPrefix(arg, "+") || strings.HasPrefix(arg, "-") {
		return current + v, nil
	}
	return v, nil
}

// GenerateLayout returns exactly viewCount placements for the output's
// active layout.
func (g *Generator) GenerateLayout(tags uint32, output string, width, height uint32, viewCount int) (layout.GeneratedLayout, error) {
	st := g.state(output)
	name := st.activeLayout(tags)
	l, err := g.cfg.GetLayout(name)
	if err != nil {
		return layout.GeneratedLayout{}, err
	}
	if st.mainRatio != 0 && l.Mode == config.LayoutModeMasterStack {
		l.MasterStack.MasterWidthPercent = st.mainRatio
	}

	// Placements carry int32 positions; keep the area inside that range.
	area := Rect{Width: int(min(width, math.MaxInt32)), Height: int(min(height, math.MaxInt32))}
	area = ApplyPadding(area, g.cfg.ScreenPadding)
	region := ApplyRegion(area, l.TileRegion)

	rects, err := CalculatePositionsWithLayout(viewCount, region, l, st.gap)
	if errors.Is(err, ErrInsufficientSpace) {
		g.logger.Debug("layout does not fit, stacking views", "output", output, "layout", name, "error", err)
		rects = Monocle(viewCount, region, 0)
	} else if err != nil {
		return layout.GeneratedLayout{}, fmt.Errorf("layout %q: %w", name, err)
	}

	views := make([]layout.ViewPlacement, len(rects))
	for i, r := range rects {
		views[i] = layout.ViewPlacement{
			X:      int32(r.X),
			Y:      int32(r.Y),
			Width:  uint32(max(r.Width, 1)),
			Height: uint32(max(r.Height, 1)),
		}
	}
	return layout.GeneratedLayout{Views: views, Name: g.cfg.LayoutLabel(name)}, nil
}

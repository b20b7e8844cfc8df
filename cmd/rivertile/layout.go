package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/1broseidon/rivertile/internal/config"
	"github.com/1broseidon/rivertile/internal/layout"
)

func printLayoutUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  rivertile layout list [--json] [--config PATH]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Run 'rivertile layout <command> --help' for command-specific options.")
}

func runLayout(args []string) int {
	if len(args) == 0 {
		printLayoutUsage(os.Stderr)
		return layout.ExitUsage
	}
	if args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		printLayoutUsage(os.Stdout)
		return layout.ExitOK
	}

	switch args[0] {
	case "list":
		fs := flag.NewFlagSet("list", flag.ContinueOnError)
		fs.SetOutput(os.Stderr)
		fs.Usage = func() {
			fmt.Fprintln(os.Stderr, "Usage: rivertile layout list [--json] [--config PATH]")
			fmt.Fprintln(os.Stderr, "")
			fmt.Fprintln(os.Stderr, "List available layouts.")
			fmt.Fprintln(os.Stderr, "")
			fmt.Fprintln(os.Stderr, "Flags:")
			fs.PrintDefaults()
		}
		jsonOut := fs.Bool("json", false, "Output full layout details as JSON")
		configPath := fs.String("config", "", "Config file path (default: ~/.config/rivertile/config.yaml)")
		if code, ok := parseFlags(fs, args[1:]); !ok {
			return code
		}
		if fs.NArg() != 0 {
			fmt.Fprintln(os.Stderr, "layout list takes no arguments")
			fs.Usage()
			return layout.ExitUsage
		}

		res, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return layout.ExitFailure
		}
		if *jsonOut {
			err = writeLayoutsJSON(os.Stdout, res.Config)
		} else {
			writeLayouts(os.Stdout, res.Config)
		}
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return layout.ExitFailure
		}
		return layout.ExitOK

	default:
		fmt.Fprintf(os.Stderr, "Unknown layout command: %s\n\n", args[0])
		printLayoutUsage(os.Stderr)
		return layout.ExitUsage
	}
}

func writeLayouts(w io.Writer, cfg *config.Config) {
	fmt.Fprintf(w, "default_layout: %s\n", cfg.DefaultLayout)
	for _, name := range cfg.LayoutNames() {
		fmt.Fprintf(w, "- %-14s %-6s %s\n", name, cfg.LayoutLabel(name), cfg.Layouts[name].Mode)
	}
}

type layoutJSON struct {
	Name            string           `json:"name"`
	Label           string           `json:"label"`
	Mode            string           `json:"mode"`
	Default         bool             `json:"default"`
	TileRegion      tileRegionJSON   `json:"tile_region"`
	FixedGrid       *fixedGridJSON   `json:"fixed_grid,omitempty"`
	MasterStack     *masterStackJSON `json:"master_stack,omitempty"`
	MaxTileWidth    int              `json:"max_tile_width"`
	MaxTileHeight   int              `json:"max_tile_height"`
	FlexibleLastRow bool             `json:"flexible_last_row"`
}

type tileRegionJSON struct {
	Type          string `json:"type"`
	XPercent      int    `json:"x_percent,omitempty"`
	YPercent      int    `json:"y_percent,omitempty"`
	WidthPercent  int    `json:"width_percent,omitempty"`
	HeightPercent int    `json:"height_percent,omitempty"`
}

type fixedGridJSON struct {
	Rows int `json:"rows"`
	Cols int `json:"cols"`
}

type masterStackJSON struct {
	MasterWidthPercent int `json:"master_width_percent"`
	MaxStackRows       int `json:"max_stack_rows"`
	MaxStackCols       int `json:"max_stack_cols"`
}

func writeLayoutsJSON(w io.Writer, cfg *config.Config) error {
	names := cfg.LayoutNames()
	layouts := make([]layoutJSON, 0, len(names))
	for _, name := range names {
		l := cfg.Layouts[name]
		entry := layoutJSON{
			Name:            name,
			Label:           cfg.LayoutLabel(name),
			Mode:            string(l.Mode),
			Default:         name == cfg.DefaultLayout,
			MaxTileWidth:    l.MaxTileWidth,
			MaxTileHeight:   l.MaxTileHeight,
			FlexibleLastRow: l.FlexibleLastRow,
			TileRegion: tileRegionJSON{
				Type:          string(l.TileRegion.Type),
				XPercent:      l.TileRegion.XPercent,
				YPercent:      l.TileRegion.YPercent,
				WidthPercent:  l.TileRegion.WidthPercent,
				HeightPercent: l.TileRegion.HeightPercent,
			},
		}
		switch l.Mode {
		case config.LayoutModeFixed:
			entry.FixedGrid = &fixedGridJSON{Rows: l.FixedGrid.Rows, Cols: l.FixedGrid.Cols}
		case config.LayoutModeMasterStack:
			entry.MasterStack = &masterStackJSON{
				MasterWidthPercent: l.MasterStack.MasterWidthPercent,
				MaxStackRows:       l.MasterStack.MaxStackRows,
				MaxStackCols:       l.MasterStack.MaxStackCols,
			}
		}
		layouts = append(layouts, entry)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(layouts)
}

package config

import (
	"fmt"
	"sort"
	"strings"
)

// Margins shrinks the usable area a layout tiles into.
type Margins struct {
	Top    int `yaml:"top"`
	Bottom int `yaml:"bottom"`
	Left   int `yaml:"left"`
	Right  int `yaml:"right"`
}

// LayoutMode defines how views are arranged.
type LayoutMode string

const (
	LayoutModeAuto        LayoutMode = "auto"         // Dynamic grid based on count.
	LayoutModeFixed       LayoutMode = "fixed"        // Specific rows × cols.
	LayoutModeVertical    LayoutMode = "vertical"     // Single column stack.
	LayoutModeHorizontal  LayoutMode = "horizontal"   // Single row side-by-side.
	LayoutModeMasterStack LayoutMode = "master-stack" // Master pane left, stack grid right.
	LayoutModeMonocle     LayoutMode = "monocle"      // Every view fills the region.
)

// RegionType defines tile region presets.
type RegionType string

const (
	RegionFull       RegionType = "full"
	RegionLeftHalf   RegionType = "left-half"
	RegionRightHalf  RegionType = "right-half"
	RegionTopHalf    RegionType = "top-half"
	RegionBottomHalf RegionType = "bottom-half"
	RegionCustom     RegionType = "custom"
)

// TileRegion defines the part of the usable area views are tiled into.
type TileRegion struct {
	Type          RegionType `yaml:"type"`
	XPercent      int        `yaml:"x_percent"`      // 0-100
	YPercent      int        `yaml:"y_percent"`      // 0-100
	WidthPercent  int        `yaml:"width_percent"`  // 0-100
	HeightPercent int        `yaml:"height_percent"` // 0-100
}

// FixedGrid defines specific grid dimensions.
type FixedGrid struct {
	Rows int `yaml:"rows"`
	Cols int `yaml:"cols"`
}

// MasterStack defines the master-stack layout parameters.
type MasterStack struct {
	MasterWidthPercent int `yaml:"master_width_percent"` // Width of master pane as percentage (10-90)
	MaxStackRows       int `yaml:"max_stack_rows"`       // Maximum rows in the stack grid (>= 1)
	MaxStackCols       int `yaml:"max_stack_cols"`       // Maximum columns in the stack grid (>= 1)
}

// Layout defines a tiling configuration.
type Layout struct {
	Mode            LayoutMode  `yaml:"mode"`
	Label           string      `yaml:"label,omitempty"` // shown by the compositor; defaults to the layout name
	TileRegion      TileRegion  `yaml:"tile_region"`
	FixedGrid       FixedGrid   `yaml:"fixed_grid,omitempty"`
	MasterStack     MasterStack `yaml:"master_stack,omitempty"`
	MaxTileWidth    int         `yaml:"max_tile_width"`    // 0 = unlimited
	MaxTileHeight   int         `yaml:"max_tile_height"`   // 0 = unlimited
	FlexibleLastRow bool        `yaml:"flexible_last_row"` // Last row views expand to fill width (auto mode only)
}

// OutputConfig overrides defaults for one output, keyed by output name.
type OutputConfig struct {
	DefaultLayout string `yaml:"default_layout,omitempty"`
	GapSize       *int   `yaml:"gap_size,omitempty"`
}

const (
	DefaultNamespace     = "rivertile"
	DefaultGapSize       = 8
	DefaultOnLayoutError = "fatal"
)

// Config holds the application configuration.
type Config struct {
	Namespace     string                  `yaml:"namespace"`
	DefaultLayout string                  `yaml:"default_layout"`
	GapSize       int                     `yaml:"gap_size"`
	ScreenPadding Margins                 `yaml:"screen_padding"`
	Layouts       map[string]Layout       `yaml:"layouts"`
	Outputs       map[string]OutputConfig `yaml:"outputs,omitempty"`
	LogLevel      string                  `yaml:"log_level"`
	OnLayoutError string                  `yaml:"on_layout_error"`
}

func DefaultConfig() *Config {
	return &Config{
		Namespace:     DefaultNamespace,
		DefaultLayout: DefaultBuiltinLayout,
		GapSize:       DefaultGapSize,
		Layouts:       BuiltinLayouts(),
		Outputs:       make(map[string]OutputConfig),
		LogLevel:      "info",
		OnLayoutError: DefaultOnLayoutError,
	}
}

// GetLayout retrieves a layout by name with validation.
func (c *Config) GetLayout(name string) (*Layout, error) {
	layout, ok := c.Layouts[name]
	if !ok {
		return nil, fmt.Errorf("layout %q not found", name)
	}

	if err := validateLayout(&layout); err != nil {
		return nil, fmt.Errorf("invalid layout %q: %w", name, err)
	}

	return &layout, nil
}

// LayoutNames returns every layout name in cycling order.
func (c *Config) LayoutNames() []string {
	return sortedKeys(c.Layouts)
}

// LayoutLabel returns the name the compositor displays for a layout.
func (c *Config) LayoutLabel(name string) string {
	if l, ok := c.Layouts[name]; ok && l.Label != "" {
		return l.Label
	}
	return name
}

// DefaultLayoutFor returns the starting layout for an output.
func (c *Config) DefaultLayoutFor(output string) string {
	if oc, ok := c.Outputs[output]; ok && oc.DefaultLayout != "" {
		return oc.DefaultLayout
	}
	return c.DefaultLayout
}

// GapSizeFor returns the starting gap for an output.
func (c *Config) GapSizeFor(output string) int {
	if oc, ok := c.Outputs[output]; ok && oc.GapSize != nil {
		return *oc.GapSize
	}
	return c.GapSize
}

// Validate performs strict validation of the effective configuration.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Namespace) == "" {
		return &ValidationError{Path: "namespace", Err: fmt.Errorf("namespace is required")}
	}
	if strings.ContainsAny(c.Namespace, " \t\n") {
		return &ValidationError{Path: "namespace", Err: fmt.Errorf("namespace must not contain whitespace")}
	}
	if c.GapSize < 0 {
		return &ValidationError{Path: "gap_size", Err: fmt.Errorf("gap_size must be >= 0")}
	}
	if c.ScreenPadding.Top < 0 || c.ScreenPadding.Bottom < 0 || c.ScreenPadding.Left < 0 || c.ScreenPadding.Right < 0 {
		return &ValidationError{Path: "screen_padding", Err: fmt.Errorf("screen_padding values must be >= 0")}
	}
	if c.LogLevel != "debug" && c.LogLevel != "info" && c.LogLevel != "warning" && c.LogLevel != "error" {
		return &ValidationError{Path: "log_level", Err: fmt.Errorf("log_level must be one of: debug, info, warning, error")}
	}
	switch c.OnLayoutError {
	case "fatal", "fallback":
	default:
		return &ValidationError{Path: "on_layout_error", Err: fmt.Errorf("on_layout_error must be one of: fatal, fallback")}
	}

	if len(c.Layouts) == 0 {
		return &ValidationError{Path: "layouts", Err: fmt.Errorf("layouts must not be empty")}
	}
	if c.DefaultLayout == "" {
		return &ValidationError{Path: "default_layout", Err: fmt.Errorf("default_layout is required")}
	}
	if _, ok := c.Layouts[c.DefaultLayout]; !ok {
		return &ValidationError{Path: "default_layout", Err: fmt.Errorf("default_layout %q not found in layouts", c.DefaultLayout)}
	}

	for _, name := range sortedKeys(c.Layouts) {
		layout := c.Layouts[name]
		if err := validateLayout(&layout); err != nil {
			return &ValidationError{Path: "layouts." + name, Err: err}
		}
	}

	for _, name := range sortedKeys(c.Outputs) {
		oc := c.Outputs[name]
		if oc.DefaultLayout != "" {
			if _, ok := c.Layouts[oc.DefaultLayout]; !ok {
				return &ValidationError{Path: "outputs." + name + ".default_layout", Err: fmt.Errorf("layout %q not found in layouts", oc.DefaultLayout)}
			}
		}
		if oc.GapSize != nil && *oc.GapSize < 0 {
			return &ValidationError{Path: "outputs." + name + ".gap_size", Err: fmt.Errorf("gap_size must be >= 0")}
		}
	}

	return nil
}

// validateLayout checks if a layout configuration is valid.
func validateLayout(layout *Layout) error {
	switch layout.Mode {
	case LayoutModeAuto, LayoutModeFixed, LayoutModeVertical, LayoutModeHorizontal, LayoutModeMasterStack, LayoutModeMonocle:
	default:
		return fmt.Errorf("invalid mode %q", layout.Mode)
	}

	if layout.Mode == LayoutModeFixed {
		if layout.FixedGrid.Rows <= 0 || layout.FixedGrid.Cols <= 0 {
			return fmt.Errorf("fixed mode requires rows and cols to be positive")
		}
	}

	if layout.Mode == LayoutModeMasterStack {
		if layout.MasterStack.MasterWidthPercent < 10 || layout.MasterStack.MasterWidthPercent > 90 {
			return fmt.Errorf("master_stack.master_width_percent must be between 10 and 90")
		}
		if layout.MasterStack.MaxStackRows < 1 {
			return fmt.Errorf("master_stack.max_stack_rows must be >= 1")
		}
		if layout.MasterStack.MaxStackCols < 1 {
			return fmt.Errorf("master_stack.max_stack_cols must be >= 1")
		}
	}

	if layout.MaxTileWidth < 0 || layout.MaxTileHeight < 0 {
		return fmt.Errorf("max_tile_width/height must be >= 0")
	}

	switch layout.TileRegion.Type {
	case RegionFull, RegionLeftHalf, RegionRightHalf, RegionTopHalf, RegionBottomHalf:
		// ok
	case RegionCustom:
		if layout.TileRegion.XPercent < 0 || layout.TileRegion.XPercent > 100 {
			return fmt.Errorf("x_percent must be between 0 and 100")
		}
		if layout.TileRegion.YPercent < 0 || layout.TileRegion.YPercent > 100 {
			return fmt.Errorf("y_percent must be between 0 and 100")
		}
		if layout.TileRegion.WidthPercent <= 0 || layout.TileRegion.WidthPercent > 100 {
			return fmt.Errorf("width_percent must be between 1 and 100")
		}
		if layout.TileRegion.HeightPercent <= 0 || layout.TileRegion.HeightPercent > 100 {
			return fmt.Errorf("height_percent must be between 1 and 100")
		}
		if layout.TileRegion.XPercent+layout.TileRegion.WidthPercent > 100 {
			return fmt.Errorf("x_percent + width_percent must be <= 100")
		}
		if layout.TileRegion.YPercent+layout.TileRegion.HeightPercent > 100 {
			return fmt.Errorf("y_percent + height_percent must be <= 100")
		}
	default:
		return fmt.Errorf("invalid region type %q", layout.TileRegion.Type)
	}

	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

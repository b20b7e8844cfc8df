package config

// Raw* types mirror the YAML file. Pointer fields distinguish "unset" from
// zero so patches only override what the user wrote.

type RawMargins struct {
	Top    *int `yaml:"top"`
	Bottom *int `yaml:"bottom"`
	Left   *int `yaml:"left"`
	Right  *int `yaml:"right"`
}

type RawFixedGrid struct {
	Rows *int `yaml:"rows"`
	Cols *int `yaml:"cols"`
}

type RawTileRegion struct {
	Type          *RegionType `yaml:"type"`
	XPercent      *int        `yaml:"x_percent"`
	YPercent      *int        `yaml:"y_percent"`
	WidthPercent  *int        `yaml:"width_percent"`
	HeightPercent *int        `yaml:"height_percent"`
}

type RawMasterStack struct {
	MasterWidthPercent *int `yaml:"master_width_percent"`
	MaxStackRows       *int `yaml:"max_stack_rows"`
	MaxStackCols       *int `yaml:"max_stack_cols"`
}

type RawLayout struct {
	Inherits        *string         `yaml:"inherits"`
	Mode            *LayoutMode     `yaml:"mode"`
	Label           *string         `yaml:"label"`
	TileRegion      *RawTileRegion  `yaml:"tile_region"`
	FixedGrid       *RawFixedGrid   `yaml:"fixed_grid"`
	MasterStack     *RawMasterStack `yaml:"master_stack"`
	MaxTileWidth    *int            `yaml:"max_tile_width"`
	MaxTileHeight   *int            `yaml:"max_tile_height"`
	FlexibleLastRow *bool           `yaml:"flexible_last_row"`
}

type RawOutput struct {
	DefaultLayout *string `yaml:"default_layout"`
	GapSize       *int    `yaml:"gap_size"`
}

type RawConfig struct {
	Namespace     *string              `yaml:"namespace"`
	DefaultLayout *string              `yaml:"default_layout"`
	GapSize       *int                 `yaml:"gap_size"`
	ScreenPadding *RawMargins          `yaml:"screen_padding"`
	Layouts       map[string]RawLayout `yaml:"layouts"`
	Outputs       map[string]RawOutput `yaml:"outputs"`
	LogLevel      *string              `yaml:"log_level"`
	OnLayoutError *string              `yaml:"on_layout_error"`
}

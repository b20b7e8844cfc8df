package config

const DefaultBuiltinLayout = "grid"

// BuiltinLayouts returns the built-in layout library.
//
// These are always available without being defined in YAML. Labels follow
// the short bracket style river bars display.
func BuiltinLayouts() map[string]Layout {
	return map[string]Layout{
		"grid": {
			Mode:  LayoutModeAuto,
			Label: "[+]",
			TileRegion: TileRegion{
				Type: RegionFull,
			},
			FlexibleLastRow: true,
		},
		"columns": {
			Mode:  LayoutModeVertical,
			Label: "[=]",
			TileRegion: TileRegion{
				Type: RegionFull,
			},
		},
		"rows": {
			Mode:  LayoutModeHorizontal,
			Label: "[|]",
			TileRegion: TileRegion{
				Type: RegionFull,
			},
		},
		"half-left": {
			Mode:  LayoutModeAuto,
			Label: "[+ ]",
			TileRegion: TileRegion{
				Type: RegionLeftHalf,
			},
			FlexibleLastRow: true,
		},
		"half-right": {
			Mode:  LayoutModeAuto,
			Label: "[ +]",
			TileRegion: TileRegion{
				Type: RegionRightHalf,
			},
			FlexibleLastRow: true,
		},
		"master-stack": {
			Mode:  LayoutModeMasterStack,
			Label: "[]=",
			TileRegion: TileRegion{
				Type: RegionFull,
			},
			MasterStack: MasterStack{
				MasterWidthPercent: 55,
				MaxStackRows:       4,
				MaxStackCols:       2,
			},
		},
		"monocle": {
			Mode:  LayoutModeMonocle,
			Label: "[M]",
			TileRegion: TileRegion{
				Type: RegionFull,
			},
		},
	}
}

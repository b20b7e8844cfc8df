package config

import (
	"fmt"
	"strings"
)

type ValidationError struct {
	Path   string
	Source Source
	Err    error
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Source.Kind == SourceFile && e.Source.File != "" && e.Source.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s: %v", e.Source.File, e.Source.Line, e.Source.Column, e.Path, e.Err)
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	}
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// BuildEffectiveConfig applies raw over the defaults. It returns the config
// and, per layout name, the builtin it was derived from.
func BuildEffectiveConfig(raw RawConfig) (*Config, map[string]string, error) {
	cfg := DefaultConfig()

	if raw.Namespace != nil {
		cfg.Namespace = strings.TrimSpace(*raw.Namespace)
	}
	if raw.GapSize != nil {
		cfg.GapSize = *raw.GapSize
	}
	if raw.ScreenPadding != nil {
		cfg.ScreenPadding = Margins{
			Top:    derefInt(raw.ScreenPadding.Top, 0),
			Bottom: derefInt(raw.ScreenPadding.Bottom, 0),
			Left:   derefInt(raw.ScreenPadding.Left, 0),
			Right:  derefInt(raw.ScreenPadding.Right, 0),
		}
	}
	if raw.LogLevel != nil {
		cfg.LogLevel = *raw.LogLevel
	}
	if raw.OnLayoutError != nil {
		cfg.OnLayoutError = *raw.OnLayoutError
	}

	layoutBases, err := applyLayouts(cfg, raw)
	if err != nil {
		return nil, nil, err
	}

	if raw.DefaultLayout != nil {
		cfg.DefaultLayout = *raw.DefaultLayout
	}
	if cfg.DefaultLayout == "" {
		cfg.DefaultLayout = DefaultBuiltinLayout
	}
	if _, err := cfg.GetLayout(cfg.DefaultLayout); err != nil {
		return nil, nil, &ValidationError{Path: "default_layout", Err: err}
	}

	for name, out := range raw.Outputs {
		oc := OutputConfig{GapSize: out.GapSize}
		if out.DefaultLayout != nil {
			oc.DefaultLayout = *out.DefaultLayout
		}
		cfg.Outputs[name] = oc
	}

	return cfg, layoutBases, nil
}

func applyLayouts(cfg *Config, raw RawConfig) (map[string]string, error) {
	builtin := BuiltinLayouts()

	cfg.Layouts = make(map[string]Layout, len(builtin)+len(raw.Layouts))
	layoutBases := make(map[string]string, len(builtin)+len(raw.Layouts))
	for name, layout := range builtin {
		cfg.Layouts[name] = layout
		layoutBases[name] = name
	}

	for _, name := range sortedKeys(raw.Layouts) {
		patch := raw.Layouts[name]
		baseName, baseLayout, err := selectLayoutBase(name, patch, builtin)
		if err != nil {
			return nil, err
		}

		merged := mergeLayoutPatch(baseLayout, patch)
		if patch.Label == nil && baseName != name {
			// A derived layout does not borrow its parent's label.
			merged.Label = ""
		}
		if err := validateLayout(&merged); err != nil {
			return nil, &ValidationError{Path: "layouts." + name, Err: err}
		}

		cfg.Layouts[name] = merged
		layoutBases[name] = baseName
	}

	return layoutBases, nil
}

func selectLayoutBase(name string, patch RawLayout, builtin map[string]Layout) (string, Layout, error) {
	ref := ""
	if patch.Inherits != nil {
		ref = strings.TrimSpace(*patch.Inherits)
	}

	baseName := DefaultBuiltinLayout
	if _, ok := builtin[name]; ok {
		baseName = name
	}

	if ref != "" {
		const prefix = "builtin:"
		if !strings.HasPrefix(ref, prefix) {
			return "", Layout{}, &ValidationError{
				Path: "layouts." + name + ".inherits",
				Err:  fmt.Errorf("inherits must be %q-prefixed (builtin-only), got %q", prefix, ref),
			}
		}
		baseName = strings.TrimSpace(strings.TrimPrefix(ref, prefix))
	}

	baseLayout, ok := builtin[baseName]
	if !ok {
		return "", Layout{}, &ValidationError{
			Path: "layouts." + name + ".inherits",
			Err:  fmt.Errorf("unknown builtin layout %q", baseName),
		}
	}

	return baseName, baseLayout, nil
}

func mergeLayoutPatch(base Layout, patch RawLayout) Layout {
	out := base

	if patch.Mode != nil {
		out.Mode = *patch.Mode
	}
	if patch.Label != nil {
		out.Label = *patch.Label
	}
	if patch.TileRegion != nil {
		if patch.TileRegion.Type != nil {
			out.TileRegion.Type = *patch.TileRegion.Type
		}
		if patch.TileRegion.XPercent != nil {
			out.TileRegion.XPercent = *patch.TileRegion.XPercent
		}
		if patch.TileRegion.YPercent != nil {
			out.TileRegion.YPercent = *patch.TileRegion.YPercent
		}
		if patch.TileRegion.WidthPercent != nil {
			out.TileRegion.WidthPercent = *patch.TileRegion.WidthPercent
		}
		if patch.TileRegion.HeightPercent != nil {
			out.TileRegion.HeightPercent = *patch.TileRegion.HeightPercent
		}

		if out.TileRegion.Type == RegionCustom {
			if patch.TileRegion.WidthPercent == nil && out.TileRegion.WidthPercent == 0 {
				out.TileRegion.WidthPercent = 100
			}
			if patch.TileRegion.HeightPercent == nil && out.TileRegion.HeightPercent == 0 {
				out.TileRegion.HeightPercent = 100
			}
		}
	}
	if patch.FixedGrid != nil {
		if patch.FixedGrid.Rows != nil {
			out.FixedGrid.Rows = *patch.FixedGrid.Rows
		}
		if patch.FixedGrid.Cols != nil {
			out.FixedGrid.Cols = *patch.FixedGrid.Cols
		}
	}
	if patch.MasterStack != nil {
		if patch.MasterStack.MasterWidthPercent != nil {
			out.MasterStack.MasterWidthPercent = *patch.MasterStack.MasterWidthPercent
		}
		if patch.MasterStack.MaxStackRows != nil {
			out.MasterStack.MaxStackRows = *patch.MasterStack.MaxStackRows
		}
		if patch.MasterStack.MaxStackCols != nil {
			out.MasterStack.MaxStackCols = *patch.MasterStack.MaxStackCols
		}
	}
	if patch.MaxTileWidth != nil {
		out.MaxTileWidth = *patch.MaxTileWidth
	}
	if patch.MaxTileHeight != nil {
		out.MaxTileHeight = *patch.MaxTileHeight
	}
	if patch.FlexibleLastRow != nil {
		out.FlexibleLastRow = *patch.FlexibleLastRow
	}

	return out
}

func derefInt(p *int, def int) int {
	if p == nil {
		return def
	}
	return *p
}

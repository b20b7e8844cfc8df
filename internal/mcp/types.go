package mcp

// ListLayoutsInput is the input for the list_layouts tool.
type ListLayoutsInput struct {
	Output string `json:"output,omitempty" jsonschema:"Output name (e.g. DP-1) whose default layout should be reported"`
}

// LayoutInfo describes one configured layout.
type LayoutInfo struct {
	Name    string `json:"name"`
	Label   string `json:"label"`
	Mode    string `json:"mode"`
	Region  string `json:"region"`
	Default bool   `json:"default"`
}

// ListLayoutsOutput is the output for the list_layouts tool.
type ListLayoutsOutput struct {
	Namespace     string       `json:"namespace"`
	DefaultLayout string       `json:"default_layout"`
	Layouts       []LayoutInfo `json:"layouts"`
}

// PreviewLayoutInput is the input for the preview_layout tool.
type PreviewLayoutInput struct {
	Layout string `json:"layout,omitempty" jsonschema:"Layout name (default: the output's default layout)"`
	Views  *int   `json:"views,omitempty" jsonschema:"Number of views to place (default: 3, max: 256)"`
	Width  int    `json:"width,omitempty" jsonschema:"Usable output width in pixels (default: 1920)"`
	Height int    `json:"height,omitempty" jsonschema:"Usable output height in pixels (default: 1080)"`
	Output string `json:"output,omitempty" jsonschema:"Output name used to resolve per-output settings (default: preview)"`
}

// Placement is one view's position and size.
type Placement struct {
	X      int32  `json:"x"`
	Y      int32  `json:"y"`
	Width  uint32 `json:"width"`
	Height uint32 `json:"height"`
}

// PreviewLayoutOutput is the output for the preview_layout tool.
type PreviewLayoutOutput struct {
	Layout     string      `json:"layout"`
	Label      string      `json:"label"`
	Output     string      `json:"output"`
	Width      uint32      `json:"width"`
	Height     uint32      `json:"height"`
	Placements []Placement `json:"placements"`
	Summary    string      `json:"summary"`
	Sketch     string      `json:"sketch"`
}

package main

import (
	"flag"
	"fmt"
	"io"
	"math"
	"os"

	"golang.org/x/term"

	"github.com/1broseidon/rivertile/internal/config"
	"github.com/1broseidon/rivertile/internal/layout"
	"github.com/1broseidon/rivertile/internal/preview"
	"github.com/1broseidon/rivertile/internal/tiling"
)

const (
	defaultSketchCols = 64
	maxSketchCols     = 120
	minSketchRows     = 6
	maxPreviewViews   = 256
)

type previewOptions struct {
	Layout string
	Views  int
	Width  int
	Height int
	Output string
}

func (o previewOptions) validate() error {
	if o.Views < 0 || o.Views > maxPreviewViews {
		return fmt.Errorf("views must be between 0 and %d, got %d", maxPreviewViews, o.Views)
	}
	if o.Width <= 0 || o.Height <= 0 || o.Width > math.MaxInt32 || o.Height > math.MaxInt32 {
		return fmt.Errorf("width and height must be between 1 and %d, got %dx%d", math.MaxInt32, o.Width, o.Height)
	}
	return nil
}

func runPreview(args []string) int {
	fs := flag.NewFlagSet("preview", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: rivertile preview [--layout NAME] [--views N] [--width W] [--height H] [--output NAME] [--config PATH]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Sketch the placements a layout produces, without a compositor.")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Flags:")
		fs.PrintDefaults()
	}
	var opts previewOptions
	fs.StringVar(&opts.Layout, "layout", "", "Layout name (default: the output's default layout)")
	fs.IntVar(&opts.Views, "views", 3, "Number of views")
	fs.IntVar(&opts.Width, "width", 1920, "Usable output width in pixels")
	fs.IntVar(&opts.Height, "height", 1080, "Usable output height in pixels")
	fs.StringVar(&opts.Output, "output", "preview", "Output name used for per-output settings")
	configPath := fs.String("config", "", "Config file path (default: ~/.config/rivertile/config.yaml)")
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "preview takes no arguments")
		fs.Usage()
		return layout.ExitUsage
	}
	if err := opts.validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return layout.ExitUsage
	}

	res, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return layout.ExitFailure
	}

	fd := int(os.Stdout.Fd())
	var termW, termH int
	if term.IsTerminal(fd) {
		termW, termH, _ = term.GetSize(fd)
	}
	cols, rows := sketchSize(termW, termH, opts.Width, opts.Height)

	if err := writePreview(os.Stdout, res.Config, opts, cols, rows); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return layout.ExitCode(err)
	}
	return layout.ExitOK
}

// sketchSize picks a canvas that keeps the output's aspect ratio, assuming
// terminal cells are about twice as tall as wide. A zero terminal size
// means stdout is not a terminal.
func sketchSize(termW, termH, width, height int) (cols, rows int) {
	cols = defaultSketchCols
	if termW > 0 {
		cols = min(termW-2, maxSketchCols)
	}
	cols = max(cols, 10)

	rows = cols * height / max(width, 1) / 2
	if termH > 0 {
		// Title and summary take two lines.
		rows = min(rows, termH-3)
	}
	return cols, max(rows, minSketchRows)
}

func writePreview(w io.Writer, cfg *config.Config, opts previewOptions, cols, rows int) error {
	if err := opts.validate(); err != nil {
		return err
	}
	gen := tiling.NewGenerator(cfg, nil)
	name := opts.Layout
	if name != "" {
		if err := gen.HandleCommand(nil, opts.Output, "layout "+name); err != nil {
			return err
		}
	} else {
		name = gen.ActiveLayout(opts.Output, 0)
	}

	gl, err := layout.Generate(gen, 0, opts.Output, uint32(opts.Width), uint32(opts.Height), opts.Views)
	if err != nil {
		return err
	}

	title := fmt.Sprintf("%s %s on %s (%d×%d)", name, gl.Name, opts.Output, opts.Width, opts.Height)
	lines := preview.Render(gl.Views, uint32(opts.Width), uint32(opts.Height), cols, rows)
	_, err = fmt.Fprintln(w, preview.Frame(title, lines, gl.Views))
	return err
}

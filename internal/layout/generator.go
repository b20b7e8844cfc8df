package layout

import "fmt"

// ViewPlacement positions one view inside the usable area.
type ViewPlacement struct {
	X      int32
	Y      int32
	Width  uint32
	Height uint32
}

// GeneratedLayout is the answer to one layout demand.
type GeneratedLayout struct {
	Views []ViewPlacement
	Name  string
}

// Generator is a layout policy. Namespace must be stable for the lifetime of
// the process; it is claimed once per output.
type Generator interface {
	Namespace() string

	// HandleCommand receives a user command. tags is nil when the compositor
	// has not reported tags for the output yet.
	HandleCommand(tags *uint32, output, command string) error

	// GenerateLayout must return exactly viewCount placements.
	GenerateLayout(tags uint32, output string, width, height uint32, viewCount int) (GeneratedLayout, error)
}

// adapter wraps a Generator and enforces its contract.
type adapter struct {
	gen Generator
}

func (a adapter) command(tags *uint32, output, command string) error {
	if err := a.gen.HandleCommand(tags, output, command); err != nil {
		return newError(ErrGenerator, "user_command", output, err)
	}
	return nil
}

func (a adapter) compute(tags uint32, output string, width, height uint32, viewCount int) (GeneratedLayout, error) {
	gl, err := a.gen.GenerateLayout(tags, output, width, height, viewCount)
	if err != nil {
		return GeneratedLayout{}, newError(ErrGenerator, "layout_demand", output, err)
	}
	if len(gl.Views) != viewCount {
		return GeneratedLayout{}, newError(ErrContractViolation, "layout_demand", output,
			fmt.Errorf("generator %q returned %d views, demand asked for %d", a.gen.Namespace(), len(gl.Views), viewCount))
	}
	return gl, nil
}

// Generate runs gen once with the same contract checks a live demand gets.
func Generate(gen Generator, tags uint32, output string, width, height uint32, viewCount int) (GeneratedLayout, error) {
	return adapter{gen: gen}.compute(tags, output, width, height, viewCount)
}

// fallbackLayout stacks every view over the whole usable area.
func fallbackLayout(width, height uint32, viewCount int) GeneratedLayout {
	views := make([]ViewPlacement, viewCount)
	for i := range views {
		views[i] = ViewPlacement{Width: width, Height: height}
	}
	return GeneratedLayout{Views: views, Name: "[fallback]"}
}

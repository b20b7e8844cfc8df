package layout

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// request is one call recorded by fakeTransport.
type request struct {
	Op      string
	Object  ObjectID
	Args    []any
	Created ObjectID
}

func (r request) String() string {
	return fmt.Sprintf("%s(%d %v)", r.Op, r.Object, r.Args)
}

// fakeTransport replays scripted dispatch batches and records requests.
type fakeTransport struct {
	batches  [][]Event
	requests []request
	nextID   ObjectID
	bindErr  error
	sendErr  error
	closed   bool
}

func newFakeTransport(batches ...[]Event) *fakeTransport {
	return &fakeTransport{batches: batches, nextID: 100}
}

func (f *fakeTransport) Dispatch(ctx context.Context) ([]Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(f.batches) == 0 {
		return nil, io.EOF
	}
	b := f.batches[0]
	f.batches = f.batches[1:]
	return b, nil
}

func (f *fakeTransport) alloc() ObjectID {
	f.nextID++
	return f.nextID
}

func (f *fakeTransport) Bind(name uint32, iface string, version uint32) (ObjectID, error) {
	if f.bindErr != nil {
		return 0, f.bindErr
	}
	id := f.alloc()
	f.requests = append(f.requests, request{Op: "bind", Args: []any{name, iface, version}, Created: id})
	return id, nil
}

func (f *fakeTransport) GetLayout(manager, output ObjectID, namespace string) (ObjectID, error) {
	id := f.alloc()
	f.requests = append(f.requests, request{Op: "get_layout", Object: manager, Args: []any{output, namespace}, Created: id})
	return id, nil
}

func (f *fakeTransport) PushViewDimensions(layout ObjectID, x, y int32, width, height, serial uint32) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.requests = append(f.requests, request{Op: "push", Object: layout, Args: []any{x, y, width, height, serial}})
	return nil
}

func (f *fakeTransport) Commit(layout ObjectID, name string, serial uint32) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.requests = append(f.requests, request{Op: "commit", Object: layout, Args: []any{name, serial}})
	return nil
}

func (f *fakeTransport) DestroyLayout(layout ObjectID) error {
	f.requests = append(f.requests, request{Op: "destroy_layout", Object: layout})
	return nil
}

func (f *fakeTransport) ReleaseOutput(output ObjectID) error {
	f.requests = append(f.requests, request{Op: "release_output", Object: output})
	return nil
}

func (f *fakeTransport) Close() error {
	f.closed = true
	return nil
}

func (f *fakeTransport) ops(op string) []request {
	var out []request
	for _, r := range f.requests {
		if r.Op == op {
			out = append(out, r)
		}
	}
	return out
}

func (f *fakeTransport) created(op string, arg any) ObjectID {
	for _, r := range f.requests {
		if r.Op != op {
			continue
		}
		for _, a := range r.Args {
			if a == arg {
				return r.Created
			}
		}
	}
	return 0
}

func (f *fakeTransport) trace() string {
	parts := make([]string, len(f.requests))
	for i, r := range f.requests {
		parts[i] = r.String()
	}
	return strings.Join(parts, " ")
}

// evenGenerator splits the usable width into equal columns.
type evenGenerator struct {
	namespace  string
	commands   []string
	commandErr error
	layoutErr  error
	lastTags   uint32
	lastOutput string
	short      int // views to drop from every answer; negative adds views
}

func (g *evenGenerator) Namespace() string {
	if g.namespace == "" {
		return "even"
	}
	return g.namespace
}

func (g *evenGenerator) HandleCommand(tags *uint32, output, command string) error {
	t := "none"
	if tags != nil {
		t = fmt.Sprintf("%#x", *tags)
	}
	g.commands = append(g.commands, fmt.Sprintf("%s|%s|%s", t, output, command))
	return g.commandErr
}

func (g *evenGenerator) GenerateLayout(tags uint32, output string, width, height uint32, viewCount int) (GeneratedLayout, error) {
	g.lastTags = tags
	g.lastOutput = output
	if g.layoutErr != nil {
		return GeneratedLayout{}, g.layoutErr
	}
	n := viewCount - g.short
	if n < 0 {
		n = 0
	}
	views := make([]ViewPlacement, n)
	for i := range views {
		w := width / uint32(max(viewCount, 1))
		views[i] = ViewPlacement{X: int32(uint32(i) * w), Y: 0, Width: w, Height: height}
	}
	return GeneratedLayout{Views: views, Name: "[|||]"}, nil
}

var errBoom = errors.New("boom")

func u32(v uint32) *uint32 { return &v }

// announce returns the registry burst for one manager and the given outputs,
// followed by the initial sync.
func announce(outputs ...uint32) []Event {
	evs := []Event{GlobalEvent{Name: 1, Interface: LayoutManagerInterface, Version: 2}}
	for _, o := range outputs {
		evs = append(evs, GlobalEvent{Name: o, Interface: OutputInterface, Version: 4})
	}
	evs = append(evs, GlobalEvent{Name: 99, Interface: "wl_seat", Version: 7}, SyncEvent{})
	return evs
}

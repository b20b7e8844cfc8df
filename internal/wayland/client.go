// Package wayland is a minimal Wayland client transport for the
// river-layout-v3 protocol. It speaks only the handful of interfaces a
// layout generator needs and turns their events into layout.Event values.
package wayland

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"time"

	"github.com/1broseidon/rivertile/internal/layout"
	"github.com/1broseidon/rivertile/internal/runtimepath"
)

type objectKind int

const (
	kindDisplay objectKind = iota
	kindRegistry
	kindCallback
	kindOutput
	kindLayoutManager
	kindLayout
)

func (k objectKind) String() string {
	switch k {
	case kindDisplay:
		return "wl_display"
	case kindRegistry:
		return "wl_registry"
	case kindCallback:
		return "wl_callback"
	case kindOutput:
		return layout.OutputInterface
	case kindLayoutManager:
		return layout.LayoutManagerInterface
	case kindLayout:
		return "river_layout_v3"
	default:
		return fmt.Sprintf("objectKind(%d)", int(k))
	}
}

// Request opcodes.
const (
	displaySync        = 0
	displayGetRegistry = 1

	registryBind = 0

	outputRelease = 0

	managerDestroy   = 0
	managerGetLayout = 1

	layoutDestroy            = 0
	layoutPushViewDimensions = 1
	layoutCommit             = 2
)

// Event opcodes.
const (
	displayError    = 0
	displayDeleteID = 1

	registryGlobal       = 0
	registryGlobalRemove = 1

	callbackDone = 0

	outputName = 4

	layoutNamespaceInUse  = 0
	layoutDemand          = 1
	layoutUserCommand     = 2
	layoutUserCommandTags = 3
)

const displayID = 1

// Client is a connection to the compositor. It implements layout.Transport
// and must only be used from one goroutine.
type Client struct {
	conn     *net.UnixConn
	rd       *reader
	logger   *slog.Logger
	objects  map[uint32]objectKind
	nextID   uint32
	registry uint32
	pending  []byte
}

var _ layout.Transport = (*Client)(nil)

// Dial connects to the socket named by WAYLAND_DISPLAY.
func Dial(ctx context.Context, logger *slog.Logger) (*Client, error) {
	path, err := runtimepath.WaylandSocketPath()
	if err != nil {
		return nil, &layout.Error{Kind: layout.ErrConnectFailed, Op: "connect", Err: err}
	}
	return DialPath(ctx, path, logger)
}

// DialPath connects to the compositor socket at path, requests the registry
// and queues the initial sync barrier.
func DialPath(ctx context.Context, path string, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	var d net.Dialer
	c, err := d.DialContext(ctx, "unix", path)
	if err != nil {
		return nil, &layout.Error{Kind: layout.ErrConnectFailed, Op: "connect", Err: err}
	}
	client, err := newClient(c.(*net.UnixConn), logger)
	if err != nil {
		c.Close()
		return nil, &layout.Error{Kind: layout.ErrConnectFailed, Op: "connect", Err: err}
	}
	logger.Debug("connected to compositor", "socket", path)
	return client, nil
}

// newClient sends get_registry and sync on an established connection.
func newClient(conn *net.UnixConn, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	c := &Client{
		conn:    conn,
		rd:      newReader(conn),
		logger:  logger,
		objects: map[uint32]objectKind{displayID: kindDisplay},
		nextID:  displayID,
	}
	c.registry = c.alloc(kindRegistry)
	if err := c.send(newMessage(displayID, displayGetRegistry).uint(c.registry)); err != nil {
		return nil, fmt.Errorf("get_registry: %w", err)
	}
	callback := c.alloc(kindCallback)
	if err := c.send(newMessage(displayID, displaySync).uint(callback)); err != nil {
		return nil, fmt.Errorf("sync: %w", err)
	}
	return c, nil
}

// alloc hands out client object ids. Ids are never reused.
func (c *Client) alloc(kind objectKind) uint32 {
	c.nextID++
	c.objects[c.nextID] = kind
	return c.nextID
}

func (c *Client) send(m *message) error {
	_, err := c.conn.Write(m.bytes())
	return err
}

// Dispatch blocks until at least one event this client translates has
// arrived and returns every complete event read so far.
func (c *Client) Dispatch(ctx context.Context) ([]layout.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.conn.SetReadDeadline(time.Time{})
	stop := context.AfterFunc(ctx, func() {
		c.conn.SetReadDeadline(time.Unix(1, 0))
	})
	defer stop()

	var events []layout.Event
	for {
		var err error
		events, err = c.drain(events)
		if err != nil {
			return nil, err
		}
		if len(events) > 0 {
			return events, nil
		}
		data, err := c.rd.read()
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			return nil, err
		}
		c.pending = append(c.pending, data...)
	}
}

// drain decodes every complete message in the pending buffer.
func (c *Client) drain(events []layout.Event) ([]layout.Event, error) {
	for len(c.pending) >= headerSize {
		h, err := parseHeader(c.pending)
		if err != nil {
			return nil, err
		}
		if len(c.pending) < h.size {
			break
		}
		body := c.pending[headerSize:h.size]
		ev, err := c.decode(h, &args{data: body})
		c.pending = c.pending[h.size:]
		if err != nil {
			return nil, err
		}
		if ev != nil {
			events = append(events, ev)
		}
	}
	if len(c.pending) == 0 {
		c.pending = nil
	}
	return events, nil
}

// decode translates one event. It returns nil for events the layout
// negotiation does not use.
func (c *Client) decode(h header, a *args) (layout.Event, error) {
	kind, ok := c.objects[h.sender]
	if !ok {
		c.logger.Debug("event for unknown object dropped", "object", h.sender, "opcode", h.opcode)
		return nil, nil
	}

	var ev layout.Event
	switch kind {
	case kindDisplay:
		switch h.opcode {
		case displayError:
			object, code, msg := a.uint(), a.uint(), a.string()
			if a.err != nil {
				break
			}
			name := "unknown"
			if kind, ok := c.objects[object]; ok {
				name = kind.String()
			}
			return nil, fmt.Errorf("compositor error on %s@%d (code %d): %s", name, object, code, msg)
		case displayDeleteID:
			id := a.uint()
			if a.err == nil {
				delete(c.objects, id)
			}
		}
	case kindRegistry:
		switch h.opcode {
		case registryGlobal:
			name, iface, version := a.uint(), a.string(), a.uint()
			ev = layout.GlobalEvent{Name: name, Interface: iface, Version: version}
		case registryGlobalRemove:
			ev = layout.GlobalRemoveEvent{Name: a.uint()}
		}
	case kindCallback:
		if h.opcode == callbackDone {
			a.uint()
			delete(c.objects, h.sender)
			ev = layout.SyncEvent{}
		}
	case kindOutput:
		if h.opcode == outputName {
			ev = layout.OutputNameEvent{Output: layout.ObjectID(h.sender), Name: a.string()}
		}
	case kindLayout:
		id := layout.ObjectID(h.sender)
		switch h.opcode {
		case layoutNamespaceInUse:
			ev = layout.NamespaceInUseEvent{Layout: id}
		case layoutDemand:
			viewCount, width, height, tags, serial := a.uint(), a.uint(), a.uint(), a.uint(), a.uint()
			ev = layout.DemandEvent{
				Layout:       id,
				ViewCount:    viewCount,
				UsableWidth:  width,
				UsableHeight: height,
				Tags:         &tags,
				Serial:       serial,
			}
		case layoutUserCommand:
			ev = layout.CommandEvent{Layout: id, Command: a.string()}
		case layoutUserCommandTags:
			ev = layout.TagsEvent{Layout: id, Tags: a.uint()}
		}
	}
	if a.err != nil {
		return nil, fmt.Errorf("%s@%d opcode %d: %w", kind, h.sender, h.opcode, a.err)
	}
	return ev, nil
}

// Bind binds a registry global and returns the new object.
func (c *Client) Bind(name uint32, iface string, version uint32) (layout.ObjectID, error) {
	var kind objectKind
	switch iface {
	case layout.OutputInterface:
		kind = kindOutput
	case layout.LayoutManagerInterface:
		kind = kindLayoutManager
	default:
		return 0, fmt.Errorf("unsupported interface %q", iface)
	}
	id := c.alloc(kind)
	m := newMessage(c.registry, registryBind).uint(name).string(iface).uint(version).uint(id)
	if err := c.send(m); err != nil {
		return 0, err
	}
	return layout.ObjectID(id), nil
}

func (c *Client) GetLayout(manager, output layout.ObjectID, namespace string) (layout.ObjectID, error) {
	id := c.alloc(kindLayout)
	m := newMessage(uint32(manager), managerGetLayout).uint(id).uint(uint32(output)).string(namespace)
	if err := c.send(m); err != nil {
		return 0, err
	}
	return layout.ObjectID(id), nil
}

func (c *Client) PushViewDimensions(l layout.ObjectID, x, y int32, width, height, serial uint32) error {
	return c.send(newMessage(uint32(l), layoutPushViewDimensions).int(x).int(y).uint(width).uint(height).uint(serial))
}

func (c *Client) Commit(l layout.ObjectID, name string, serial uint32) error {
	return c.send(newMessage(uint32(l), layoutCommit).string(name).uint(serial))
}

func (c *Client) DestroyLayout(l layout.ObjectID) error {
	delete(c.objects, uint32(l))
	return c.send(newMessage(uint32(l), layoutDestroy))
}

func (c *Client) ReleaseOutput(output layout.ObjectID) error {
	delete(c.objects, uint32(output))
	return c.send(newMessage(uint32(output), outputRelease))
}

// Close destroys the layout manager, if bound, and closes the socket.
func (c *Client) Close() error {
	var errs []error
	for id, kind := range c.objects {
		if kind == kindLayoutManager {
			errs = append(errs, c.send(newMessage(id, managerDestroy)))
			delete(c.objects, id)
		}
	}
	errs = append(errs, c.conn.Close())
	return errors.Join(errs...)
}

package layout

import "context"

// ObjectID identifies a protocol object on the transport.
type ObjectID uint32

// Interface names of the globals the registry watcher cares about.
const (
	OutputInterface        = "wl_output"
	LayoutManagerInterface = "river_layout_manager_v3"
)

// Minimum and preferred versions. wl_output reports its name from v4 on;
// river_layout_manager_v3 v2 adds user_command_tags.
const (
	OutputVersion        uint32 = 4
	LayoutManagerVersion uint32 = 2
)

// Transport is the compositor connection the Connection drives. All calls
// are made from the dispatch loop goroutine.
type Transport interface {
	// Dispatch blocks until at least one event is available and returns
	// every event that has fully arrived.
	Dispatch(ctx context.Context) ([]Event, error)

	Bind(name uint32, iface string, version uint32) (ObjectID, error)
	GetLayout(manager, output ObjectID, namespace string) (ObjectID, error)
	PushViewDimensions(layout ObjectID, x, y int32, width, height, serial uint32) error
	Commit(layout ObjectID, name string, serial uint32) error
	DestroyLayout(layout ObjectID) error
	ReleaseOutput(output ObjectID) error
	Close() error
}

// Event is one notification delivered by Transport.Dispatch.
type Event interface {
	event()
}

// GlobalEvent announces a registry global.
type GlobalEvent struct {
	Name      uint32
	Interface string
	Version   uint32
}

// GlobalRemoveEvent withdraws a registry global.
type GlobalRemoveEvent struct {
	Name uint32
}

// OutputNameEvent reports the display name of a bound output.
type OutputNameEvent struct {
	Output ObjectID
	Name   string
}

// TagsEvent carries the tags a following user command applies to.
type TagsEvent struct {
	Layout ObjectID
	Tags   uint32
}

// CommandEvent carries a user command sent to the layout namespace.
type CommandEvent struct {
	Layout  ObjectID
	Command string
}

// DemandEvent asks for a layout of ViewCount views. Tags is nil only when
// the transport could not report tags for this demand.
type DemandEvent struct {
	Layout       ObjectID
	ViewCount    uint32
	UsableWidth  uint32
	UsableHeight uint32
	Tags         *uint32
	Serial       uint32
}

// NamespaceInUseEvent reports that another client owns the namespace.
type NamespaceInUseEvent struct {
	Layout ObjectID
}

// SyncEvent marks the end of the initial registry burst.
type SyncEvent struct{}

func (GlobalEvent) event()         {}
func (GlobalRemoveEvent) event()   {}
func (OutputNameEvent) event()     {}
func (TagsEvent) event()           {}
func (CommandEvent) event()        {}
func (DemandEvent) event()         {}
func (NamespaceInUseEvent) event() {}
func (SyncEvent) event()           {}

package layout

import (
	"errors"
	"fmt"
)

// SessionState is the negotiation state of one output.
type SessionState int

const (
	AwaitingName SessionState = iota
	Negotiating
	Terminal
)

func (s SessionState) String() string {
	switch s {
	case AwaitingName:
		return "awaiting-name"
	case Negotiating:
		return "negotiating"
	case Terminal:
		return "terminal"
	default:
		return fmt.Sprintf("SessionState(%d)", int(s))
	}
}

// Session is the layout negotiation for one output. The zero value is an
// output still waiting for its name.
type Session struct {
	state  SessionState
	layout ObjectID
	tags   *uint32
}

// begin moves an AwaitingName session to Negotiating on layout.
func (s *Session) begin(layout ObjectID) {
	*s = Session{state: Negotiating, layout: layout}
}

func (s *Session) setTags(tags uint32) {
	s.tags = &tags
}

// tagsFor returns the tags a demand runs with: the demand's own tags when
// present, else the last reported tags, else 0.
func (s *Session) tagsFor(demand *uint32) uint32 {
	switch {
	case demand != nil:
		return *demand
	case s.tags != nil:
		return *s.tags
	default:
		return 0
	}
}

// startSession requests a layout object for a named output. Outputs named
// before the layout manager is bound stay pending until it is.
func (c *Connection) startSession(e *OutputEntry) error {
	if e.session.state != AwaitingName || e.Name == "" || c.manager == 0 {
		return nil
	}
	id, err := c.transport.GetLayout(c.manager, e.Output, c.namespace)
	if err != nil {
		return newError(ErrTransportFault, "get_layout", e.Name, err)
	}
	e.session.begin(id)
	c.outputs.indexLayout(e)
	c.logger.Info("layout session started", "output", e.Name, "layout", id, "namespace", c.namespace)
	return nil
}

func (c *Connection) handleOutputName(ev OutputNameEvent) error {
	e := c.outputs.LookupByOutput(ev.Output)
	if e == nil {
		c.logger.Debug("name for unknown output dropped", "output_id", ev.Output, "name", ev.Name)
		return nil
	}
	if e.Name != "" && e.Name != ev.Name {
		c.logger.Info("output renamed", "from", e.Name, "to", ev.Name)
	}
	e.Name = ev.Name
	return c.startSession(e)
}

// negotiating returns the entry owning layout if its session accepts events.
func (c *Connection) negotiating(layout ObjectID, kind string) *OutputEntry {
	e := c.outputs.LookupByLayout(layout)
	if e == nil {
		c.logger.Debug("event for unknown layout dropped", "event", kind, "layout", layout)
		return nil
	}
	if e.session.state != Negotiating {
		c.logger.Debug("event for inactive session dropped", "event", kind, "output", e.label(), "state", e.session.state)
		return nil
	}
	return e
}

func (c *Connection) handleTags(ev TagsEvent) {
	e := c.negotiating(ev.Layout, "user_command_tags")
	if e == nil {
		return
	}
	e.session.setTags(ev.Tags)
}

func (c *Connection) handleCommand(ev CommandEvent) {
	e := c.negotiating(ev.Layout, "user_command")
	if e == nil {
		return
	}
	if err := c.gen.command(e.session.tags, e.Name, ev.Command); err != nil {
		c.logger.Warn("layout command failed", "output", e.Name, "command", ev.Command, "error", err)
		return
	}
	c.logger.Debug("layout command handled", "output", e.Name, "command", ev.Command)
}

func (c *Connection) handleDemand(ev DemandEvent) error {
	e := c.negotiating(ev.Layout, "layout_demand")
	if e == nil {
		return nil
	}
	tags := e.session.tagsFor(ev.Tags)
	viewCount := int(ev.ViewCount)

	gl, err := c.gen.compute(tags, e.Name, ev.UsableWidth, ev.UsableHeight, viewCount)
	if err != nil {
		if c.onLayoutError != FallbackOnError || !errors.Is(err, ErrGenerator) {
			return err
		}
		c.logger.Warn("layout generation failed, committing fallback",
			"output", e.Name, "serial", ev.Serial, "error", err)
		gl = fallbackLayout(ev.UsableWidth, ev.UsableHeight, viewCount)
	}

	for _, v := range gl.Views {
		if err := c.transport.PushViewDimensions(ev.Layout, v.X, v.Y, v.Width, v.Height, ev.Serial); err != nil {
			return newError(ErrTransportFault, "push_view_dimensions", e.Name, err)
		}
	}
	if err := c.transport.Commit(ev.Layout, gl.Name, ev.Serial); err != nil {
		return newError(ErrTransportFault, "commit", e.Name, err)
	}
	c.logger.Debug("layout committed",
		"output", e.Name, "layout_name", gl.Name, "view_count", viewCount, "tags", tags, "serial", ev.Serial)
	return nil
}

func (c *Connection) handleNamespaceInUse(ev NamespaceInUseEvent) error {
	e := c.negotiating(ev.Layout, "namespace_in_use")
	if e == nil {
		return nil
	}
	e.session.state = Terminal
	c.logger.Error("layout namespace already in use", "output", e.Name, "namespace", c.namespace)
	if err := c.transport.DestroyLayout(ev.Layout); err != nil {
		c.logger.Warn("destroy layout failed", "output", e.Name, "error", err)
	}
	return newError(ErrNamespaceInUse, "get_layout", e.Name, fmt.Errorf("namespace %q is claimed by another client", c.namespace))
}

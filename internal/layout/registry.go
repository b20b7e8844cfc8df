package layout

import "fmt"

func (c *Connection) handleGlobal(ev GlobalEvent) error {
	switch ev.Interface {
	case OutputInterface:
		return c.bindOutput(ev)
	case LayoutManagerInterface:
		return c.bindLayoutManager(ev)
	default:
		return nil
	}
}

func (c *Connection) bindOutput(ev GlobalEvent) error {
	if ev.Version < OutputVersion {
		return newError(ErrBindFailed, "bind", "",
			fmt.Errorf("%s global %d has version %d, need %d", ev.Interface, ev.Name, ev.Version, OutputVersion))
	}
	if c.outputs.Lookup(ev.Name) != nil {
		c.logger.Warn("output announced twice, ignoring", "global", ev.Name)
		return nil
	}
	id, err := c.transport.Bind(ev.Name, OutputInterface, OutputVersion)
	if err != nil {
		return newError(ErrBindFailed, "bind", "", fmt.Errorf("%s global %d: %w", ev.Interface, ev.Name, err))
	}
	c.outputs.Insert(&OutputEntry{Global: ev.Name, Output: id})
	c.logger.Debug("output bound", "global", ev.Name, "output_id", id)
	return nil
}

func (c *Connection) bindLayoutManager(ev GlobalEvent) error {
	if c.manager != 0 {
		c.logger.Warn("layout manager announced twice, ignoring", "global", ev.Name)
		return nil
	}
	version := min(ev.Version, LayoutManagerVersion)
	id, err := c.transport.Bind(ev.Name, LayoutManagerInterface, version)
	if err != nil {
		return newError(ErrBindFailed, "bind", "", fmt.Errorf("%s global %d: %w", ev.Interface, ev.Name, err))
	}
	c.manager = id
	c.logger.Debug("layout manager bound", "global", ev.Name, "version", version)

	for _, e := range c.outputs.Entries() {
		if err := c.startSession(e); err != nil {
			return err
		}
	}
	return nil
}

// handleGlobalRemove tears down a withdrawn output: its layout object is
// destroyed before the output is released. Unknown globals are ignored.
func (c *Connection) handleGlobalRemove(ev GlobalRemoveEvent) error {
	e := c.outputs.Remove(ev.Name)
	if e == nil {
		return nil
	}
	if e.session.state == Negotiating {
		if err := c.transport.DestroyLayout(e.session.layout); err != nil {
			return newError(ErrTransportFault, "destroy_layout", e.Name, err)
		}
	}
	if err := c.transport.ReleaseOutput(e.Output); err != nil {
		return newError(ErrTransportFault, "release_output", e.Name, err)
	}
	c.logger.Info("output removed", "output", e.label(), "global", ev.Name)
	return nil
}

// handleSync fails the run when the initial registry burst had no layout
// manager in it.
func (c *Connection) handleSync() error {
	if c.synced {
		return nil
	}
	c.synced = true
	if c.manager == 0 {
		return newError(ErrBindFailed, "bind", "", fmt.Errorf("compositor does not advertise %s", LayoutManagerInterface))
	}
	c.logger.Info("connected", "namespace", c.namespace, "outputs", c.outputs.Len())
	return nil
}

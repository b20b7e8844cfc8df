// Package layout drives the river-layout-v3 negotiation: it tracks outputs,
// runs one layout session per output and answers layout demands with the
// placements computed by a Generator.
package layout

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
)

// LayoutErrorPolicy decides what happens when a generator fails a demand.
type LayoutErrorPolicy int

const (
	// FatalOnError ends the run with the generator's error.
	FatalOnError LayoutErrorPolicy = iota
	// FallbackOnError commits a trivial layout so the compositor is not
	// left waiting.
	FallbackOnError
)

// ParseLayoutErrorPolicy parses "fatal" or "fallback".
func ParseLayoutErrorPolicy(s string) (LayoutErrorPolicy, error) {
	switch s {
	case "", "fatal":
		return FatalOnError, nil
	case "fallback":
		return FallbackOnError, nil
	default:
		return FatalOnError, fmt.Errorf("unknown layout error policy %q", s)
	}
}

// Options configures a Connection.
type Options struct {
	Logger        *slog.Logger
	OnLayoutError LayoutErrorPolicy
}

// Connection owns the transport and every output's state for one run.
type Connection struct {
	transport     Transport
	gen           adapter
	namespace     string
	outputs       *OutputTable
	manager       ObjectID
	synced        bool
	onLayoutError LayoutErrorPolicy
	logger        *slog.Logger
	err           error
}

// NewConnection wraps an established transport. It does not dispatch.
func NewConnection(t Transport, gen Generator, opts Options) *Connection {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Connection{
		transport:     t,
		gen:           adapter{gen: gen},
		namespace:     gen.Namespace(),
		outputs:       NewOutputTable(),
		onLayoutError: opts.OnLayoutError,
		logger:        logger,
	}
}

// Outputs exposes the output table for inspection.
func (c *Connection) Outputs() *OutputTable {
	return c.outputs
}

// Err returns the error that ended the run, if any.
func (c *Connection) Err() error {
	return c.err
}

// Run dispatches until a fatal condition or ctx cancellation. It never
// returns nil: a cancelled run returns ctx.Err().
func (c *Connection) Run(ctx context.Context) error {
	for {
		if err := c.Step(ctx); err != nil {
			return err
		}
	}
}

// Step performs one blocking dispatch and handles the events it returned.
// Once Step has failed it keeps returning the same error.
func (c *Connection) Step(ctx context.Context) error {
	if c.err != nil {
		return c.err
	}
	events, err := c.transport.Dispatch(ctx)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			return ctxErr
		}
		c.err = newError(ErrTransportFault, "dispatch", "", err)
		return c.err
	}
	for _, ev := range events {
		if err := c.handle(ev); err != nil {
			c.err = err
			c.logger.Error("layout run stopped", "error", err)
			return err
		}
	}
	return nil
}

func (c *Connection) handle(ev Event) error {
	switch ev := ev.(type) {
	case GlobalEvent:
		return c.handleGlobal(ev)
	case GlobalRemoveEvent:
		return c.handleGlobalRemove(ev)
	case SyncEvent:
		return c.handleSync()
	case OutputNameEvent:
		return c.handleOutputName(ev)
	case TagsEvent:
		c.handleTags(ev)
		return nil
	case CommandEvent:
		c.handleCommand(ev)
		return nil
	case DemandEvent:
		return c.handleDemand(ev)
	case NamespaceInUseEvent:
		return c.handleNamespaceInUse(ev)
	default:
		c.logger.Debug("unhandled event", "event", fmt.Sprintf("%T", ev))
		return nil
	}
}

// Close releases every live session and output, then closes the transport.
func (c *Connection) Close() error {
	var errs []error
	for _, e := range c.outputs.Entries() {
		if e.session.state == Negotiating {
			errs = append(errs, c.transport.DestroyLayout(e.session.layout))
		}
		errs = append(errs, c.transport.ReleaseOutput(e.Output))
		c.outputs.Remove(e.Global)
	}
	errs = append(errs, c.transport.Close())
	return errors.Join(errs...)
}

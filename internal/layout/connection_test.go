package layout

import (
	"context"
	"errors"
	"io"
	"testing"
)

func setup(t *testing.T, gen Generator, opts Options, outputs ...uint32) (*Connection, *fakeTransport) {
	t.Helper()
	f := newFakeTransport(announce(outputs...))
	c := NewConnection(f, gen, opts)
	if err := c.Step(context.Background()); err != nil {
		t.Fatalf("initial step: %v", err)
	}
	return c, f
}

func step(c *Connection, f *fakeTransport, events ...Event) error {
	f.batches = append(f.batches, events)
	return c.Step(context.Background())
}

// nameOutput resolves the name of global and returns its layout object.
func nameOutput(t *testing.T, c *Connection, f *fakeTransport, global uint32, name string) ObjectID {
	t.Helper()
	e := c.Outputs().Lookup(global)
	if e == nil {
		t.Fatalf("output %d not tracked", global)
	}
	if err := step(c, f, OutputNameEvent{Output: e.Output, Name: name}); err != nil {
		t.Fatalf("name step: %v", err)
	}
	if e.State() != Negotiating {
		t.Fatalf("output %s state = %v, want negotiating", name, e.State())
	}
	return e.session.layout
}

func TestDemand_EvenTilingOnSingleOutput(t *testing.T) {
	gen := &evenGenerator{}
	c, f := setup(t, gen, Options{}, 10)
	layout := nameOutput(t, c, f, 10, "eDP-1")

	err := step(c, f, DemandEvent{Layout: layout, ViewCount: 3, UsableWidth: 1920, UsableHeight: 1080, Tags: u32(0x1), Serial: 7})
	if err != nil {
		t.Fatalf("demand: %v", err)
	}

	pushes := f.ops("push")
	if len(pushes) != 3 {
		t.Fatalf("expected 3 pushes, got %d: %s", len(pushes), f.trace())
	}
	var sum uint32
	for i, p := range pushes {
		if p.Object != layout {
			t.Fatalf("push %d on object %d, want %d", i, p.Object, layout)
		}
		w, h, serial := p.Args[2].(uint32), p.Args[3].(uint32), p.Args[4].(uint32)
		sum += w
		if h != 1080 {
			t.Fatalf("push %d height = %d, want 1080", i, h)
		}
		if serial != 7 {
			t.Fatalf("push %d serial = %d, want 7", i, serial)
		}
	}
	if sum != 1920 {
		t.Fatalf("widths sum to %d, want 1920", sum)
	}

	commits := f.ops("commit")
	if len(commits) != 1 {
		t.Fatalf("expected 1 commit, got %d", len(commits))
	}
	if name := commits[0].Args[0].(string); name == "" {
		t.Fatalf("commit label is empty")
	}
	if serial := commits[0].Args[1].(uint32); serial != 7 {
		t.Fatalf("commit serial = %d, want 7", serial)
	}
	if last := f.requests[len(f.requests)-1]; last.Op != "commit" {
		t.Fatalf("commit must come after every push: %s", f.trace())
	}
	if gen.lastOutput != "eDP-1" || gen.lastTags != 0x1 {
		t.Fatalf("generator saw output=%q tags=%#x", gen.lastOutput, gen.lastTags)
	}
}

func TestDemand_PushCountMatchesViewCount(t *testing.T) {
	for viewCount := uint32(0); viewCount <= 12; viewCount++ {
		for _, short := range []int{-2, -1, 0, 1, 2} {
			gen := &evenGenerator{short: short}
			c, f := setup(t, gen, Options{}, 10)
			layout := nameOutput(t, c, f, 10, "DP-1")
			serial := 1000 + viewCount

			err := step(c, f, DemandEvent{Layout: layout, ViewCount: viewCount, UsableWidth: 2560, UsableHeight: 1440, Tags: u32(1), Serial: serial})

			// Dropping views from an empty answer still yields an empty answer.
			matches := short == 0 || (short > 0 && viewCount == 0)
			if matches {
				if err != nil {
					t.Fatalf("views=%d short=%d: unexpected error %v", viewCount, short, err)
				}
				if got := len(f.ops("push")); uint32(got) != viewCount {
					t.Fatalf("views=%d: %d pushes", viewCount, got)
				}
				for _, r := range append(f.ops("push"), f.ops("commit")...) {
					if r.Args[len(r.Args)-1].(uint32) != serial {
						t.Fatalf("views=%d: request %s does not echo serial %d", viewCount, r, serial)
					}
				}
				continue
			}
			if !errors.Is(err, ErrContractViolation) {
				t.Fatalf("views=%d short=%d: expected contract violation, got %v", viewCount, short, err)
			}
			if n := len(f.ops("push")) + len(f.ops("commit")); n != 0 {
				t.Fatalf("views=%d short=%d: %d push/commit requests sent: %s", viewCount, short, n, f.trace())
			}
		}
	}
}

func TestDemand_ShortAnswerIsContractViolation(t *testing.T) {
	gen := &evenGenerator{short: 1}
	c, f := setup(t, gen, Options{}, 10)
	layout := nameOutput(t, c, f, 10, "eDP-1")

	err := step(c, f, DemandEvent{Layout: layout, ViewCount: 3, UsableWidth: 1920, UsableHeight: 1080, Tags: u32(1), Serial: 7})
	if !errors.Is(err, ErrContractViolation) {
		t.Fatalf("expected ErrContractViolation, got %v", err)
	}
	var lerr *Error
	if !errors.As(err, &lerr) || lerr.Output != "eDP-1" {
		t.Fatalf("expected *Error for eDP-1, got %#v", err)
	}
	if len(f.ops("push")) != 0 || len(f.ops("commit")) != 0 {
		t.Fatalf("no push/commit expected: %s", f.trace())
	}

	// The run is over; later steps do not dispatch.
	f.batches = append(f.batches, []Event{DemandEvent{Layout: layout, ViewCount: 1, Serial: 8}})
	if err2 := c.Step(context.Background()); !errors.Is(err2, ErrContractViolation) {
		t.Fatalf("expected sticky error, got %v", err2)
	}
	if len(f.batches) != 1 {
		t.Fatalf("step after failure must not dispatch")
	}
	if ExitCode(err) != ExitContractViolation {
		t.Fatalf("exit code = %d", ExitCode(err))
	}
}

func TestTags_LastReportedTagsApplyToDemandsWithoutTags(t *testing.T) {
	gen := &evenGenerator{}
	c, f := setup(t, gen, Options{}, 10)
	layout := nameOutput(t, c, f, 10, "eDP-1")

	if err := step(c, f, TagsEvent{Layout: layout, Tags: 0x4}); err != nil {
		t.Fatalf("tags: %v", err)
	}
	if len(f.ops("push"))+len(f.ops("commit")) != 0 {
		t.Fatalf("tags alone must not trigger a layout")
	}

	if err := step(c, f, DemandEvent{Layout: layout, ViewCount: 1, UsableWidth: 100, UsableHeight: 100, Serial: 1}); err != nil {
		t.Fatalf("demand: %v", err)
	}
	if gen.lastTags != 0x4 {
		t.Fatalf("demand without tags used %#x, want 0x4", gen.lastTags)
	}

	if err := step(c, f, DemandEvent{Layout: layout, ViewCount: 1, UsableWidth: 100, UsableHeight: 100, Tags: u32(0x8), Serial: 2}); err != nil {
		t.Fatalf("demand: %v", err)
	}
	if gen.lastTags != 0x8 {
		t.Fatalf("demand tags not authoritative: %#x", gen.lastTags)
	}

	if err := step(c, f, DemandEvent{Layout: layout, ViewCount: 1, UsableWidth: 100, UsableHeight: 100, Serial: 3}); err != nil {
		t.Fatalf("demand: %v", err)
	}
	if gen.lastTags != 0x4 {
		t.Fatalf("demand tags must not replace stored tags, got %#x", gen.lastTags)
	}
	if tags := c.Outputs().Lookup(10).Tags(); tags == nil || *tags != 0x4 {
		t.Fatalf("stored tags = %v", tags)
	}
}

func TestCommand_ForwardsTagsAndOutputName(t *testing.T) {
	gen := &evenGenerator{}
	c, f := setup(t, gen, Options{}, 10)
	layout := nameOutput(t, c, f, 10, "HDMI-A-1")

	if err := step(c, f, CommandEvent{Layout: layout, Command: "layout grid"}); err != nil {
		t.Fatalf("command: %v", err)
	}
	if err := step(c, f, TagsEvent{Layout: layout, Tags: 0x2}, CommandEvent{Layout: layout, Command: "gap +2"}); err != nil {
		t.Fatalf("command: %v", err)
	}

	want := []string{"none|HDMI-A-1|layout grid", "0x2|HDMI-A-1|gap +2"}
	if len(gen.commands) != len(want) {
		t.Fatalf("commands = %v", gen.commands)
	}
	for i := range want {
		if gen.commands[i] != want[i] {
			t.Fatalf("command %d = %q, want %q", i, gen.commands[i], want[i])
		}
	}
}

func TestCommand_GeneratorErrorKeepsSessionRunning(t *testing.T) {
	gen := &evenGenerator{commandErr: errBoom}
	c, f := setup(t, gen, Options{}, 10)
	layout := nameOutput(t, c, f, 10, "eDP-1")

	if err := step(c, f, CommandEvent{Layout: layout, Command: "bogus"}); err != nil {
		t.Fatalf("command error must not end the run: %v", err)
	}
	if err := step(c, f, DemandEvent{Layout: layout, ViewCount: 2, UsableWidth: 100, UsableHeight: 50, Tags: u32(1), Serial: 3}); err != nil {
		t.Fatalf("demand after failed command: %v", err)
	}
	if len(f.ops("commit")) != 1 {
		t.Fatalf("session did not keep answering demands: %s", f.trace())
	}
}

func TestNamespaceInUse_EndsRunAcrossSessions(t *testing.T) {
	gen := &evenGenerator{}
	c, f := setup(t, gen, Options{}, 10, 11, 12)
	nameOutput(t, c, f, 10, "DP-1")
	second := nameOutput(t, c, f, 11, "DP-2")
	nameOutput(t, c, f, 12, "DP-3")

	err := step(c, f, NamespaceInUseEvent{Layout: second})
	if !errors.Is(err, ErrNamespaceInUse) {
		t.Fatalf("expected ErrNamespaceInUse, got %v", err)
	}
	if ExitCode(err) != ExitNamespaceInUse {
		t.Fatalf("exit code = %d", ExitCode(err))
	}
	if st := c.Outputs().Lookup(11).State(); st != Terminal {
		t.Fatalf("conflicting session state = %v", st)
	}
	destroyed := f.ops("destroy_layout")
	if len(destroyed) != 1 || destroyed[0].Object != second {
		t.Fatalf("expected the conflicting layout to be destroyed: %s", f.trace())
	}

	f.batches = append(f.batches, []Event{GlobalEvent{Name: 13, Interface: OutputInterface, Version: 4}})
	if err := c.Run(context.Background()); !errors.Is(err, ErrNamespaceInUse) {
		t.Fatalf("Run after conflict = %v", err)
	}
	if len(f.batches) != 1 {
		t.Fatalf("dispatch must stop after the conflict")
	}
}

func TestNamespaceInUse_StopsRemainingEventsInBatch(t *testing.T) {
	gen := &evenGenerator{}
	c, f := setup(t, gen, Options{}, 10, 11)
	first := nameOutput(t, c, f, 10, "DP-1")
	second := nameOutput(t, c, f, 11, "DP-2")

	err := step(c, f,
		NamespaceInUseEvent{Layout: first},
		DemandEvent{Layout: second, ViewCount: 1, UsableWidth: 10, UsableHeight: 10, Tags: u32(1), Serial: 4},
	)
	if !errors.Is(err, ErrNamespaceInUse) {
		t.Fatalf("expected ErrNamespaceInUse, got %v", err)
	}
	if len(f.ops("commit")) != 0 {
		t.Fatalf("no demand may be answered after the conflict: %s", f.trace())
	}
}

func TestOutputRemoval_DestroysLayoutBeforeReleasingOutput(t *testing.T) {
	gen := &evenGenerator{}
	c, f := setup(t, gen, Options{}, 10, 11)
	layout := nameOutput(t, c, f, 10, "DP-1")
	other := nameOutput(t, c, f, 11, "DP-2")
	output := c.Outputs().Lookup(10).Output

	mark := len(f.requests)
	if err := step(c, f, GlobalRemoveEvent{Name: 10}); err != nil {
		t.Fatalf("remove: %v", err)
	}
	got := f.requests[mark:]
	if len(got) != 2 || got[0].Op != "destroy_layout" || got[0].Object != layout || got[1].Op != "release_output" || got[1].Object != output {
		t.Fatalf("unexpected teardown order: %v", got)
	}
	if c.Outputs().Lookup(10) != nil || c.Outputs().LookupByLayout(layout) != nil || c.Outputs().LookupByOutput(output) != nil {
		t.Fatalf("removed output still indexed")
	}

	// Late events for the removed output are dropped silently.
	err := step(c, f,
		TagsEvent{Layout: layout, Tags: 3},
		CommandEvent{Layout: layout, Command: "x"},
		DemandEvent{Layout: layout, ViewCount: 2, UsableWidth: 10, UsableHeight: 10, Tags: u32(1), Serial: 9},
		OutputNameEvent{Output: output, Name: "DP-1"},
		GlobalRemoveEvent{Name: 10},
		GlobalRemoveEvent{Name: 4242},
	)
	if err != nil {
		t.Fatalf("stale events must not fail the run: %v", err)
	}
	if len(f.requests) != mark+2 {
		t.Fatalf("stale events produced requests: %s", f.trace())
	}
	if len(gen.commands) != 0 {
		t.Fatalf("stale command reached the generator")
	}

	// The other output is unaffected.
	if err := step(c, f, DemandEvent{Layout: other, ViewCount: 1, UsableWidth: 10, UsableHeight: 10, Tags: u32(1), Serial: 10}); err != nil {
		t.Fatalf("demand on remaining output: %v", err)
	}
	if len(f.ops("commit")) != 1 {
		t.Fatalf("remaining output not answered: %s", f.trace())
	}
}

func TestOutputRemoval_BeforeNameOnlyReleasesOutput(t *testing.T) {
	c, f := setup(t, &evenGenerator{}, Options{}, 10)
	output := c.Outputs().Lookup(10).Output

	if err := step(c, f, GlobalRemoveEvent{Name: 10}); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if len(f.ops("destroy_layout")) != 0 {
		t.Fatalf("no layout object existed to destroy")
	}
	rel := f.ops("release_output")
	if len(rel) != 1 || rel[0].Object != output {
		t.Fatalf("expected output release: %s", f.trace())
	}
}

func TestRegistry_OutputVersionTooOld(t *testing.T) {
	f := newFakeTransport([]Event{GlobalEvent{Name: 3, Interface: OutputInterface, Version: 3}})
	c := NewConnection(f, &evenGenerator{}, Options{})

	err := c.Run(context.Background())
	if !errors.Is(err, ErrBindFailed) {
		t.Fatalf("expected ErrBindFailed, got %v", err)
	}
	if ExitCode(err) != ExitBindFailed {
		t.Fatalf("exit code = %d", ExitCode(err))
	}
}

func TestRegistry_BindRejected(t *testing.T) {
	f := newFakeTransport(announce(10))
	f.bindErr = errBoom
	c := NewConnection(f, &evenGenerator{}, Options{})

	err := c.Run(context.Background())
	if !errors.Is(err, ErrBindFailed) || !errors.Is(err, errBoom) {
		t.Fatalf("expected ErrBindFailed wrapping cause, got %v", err)
	}
}

func TestRegistry_MissingLayoutManager(t *testing.T) {
	f := newFakeTransport([]Event{
		GlobalEvent{Name: 10, Interface: OutputInterface, Version: 4},
		SyncEvent{},
	})
	c := NewConnection(f, &evenGenerator{}, Options{})

	if err := c.Run(context.Background()); !errors.Is(err, ErrBindFailed) {
		t.Fatalf("expected ErrBindFailed, got %v", err)
	}
}

func TestRegistry_LayoutManagerBoundOnce(t *testing.T) {
	f := newFakeTransport([]Event{
		GlobalEvent{Name: 1, Interface: LayoutManagerInterface, Version: 2},
		GlobalEvent{Name: 2, Interface: LayoutManagerInterface, Version: 2},
		SyncEvent{},
		SyncEvent{},
	})
	c := NewConnection(f, &evenGenerator{}, Options{})
	if err := c.Step(context.Background()); err != nil {
		t.Fatalf("step: %v", err)
	}
	binds := f.ops("bind")
	if len(binds) != 1 {
		t.Fatalf("layout manager bound %d times", len(binds))
	}
	if v := binds[0].Args[2].(uint32); v != LayoutManagerVersion {
		t.Fatalf("bound version %d", v)
	}
}

func TestRegistry_ManagerVersionNegotiatedDown(t *testing.T) {
	f := newFakeTransport([]Event{GlobalEvent{Name: 1, Interface: LayoutManagerInterface, Version: 1}})
	c := NewConnection(f, &evenGenerator{}, Options{})
	if err := c.Step(context.Background()); err != nil {
		t.Fatalf("step: %v", err)
	}
	if v := f.ops("bind")[0].Args[2].(uint32); v != 1 {
		t.Fatalf("bound version %d, want 1", v)
	}
}

func TestRegistry_NameBeforeManagerStartsSessionLater(t *testing.T) {
	gen := &evenGenerator{namespace: "late"}
	f := newFakeTransport([]Event{GlobalEvent{Name: 10, Interface: OutputInterface, Version: 4}})
	c := NewConnection(f, gen, Options{})
	if err := c.Step(context.Background()); err != nil {
		t.Fatalf("step: %v", err)
	}
	e := c.Outputs().Lookup(10)

	if err := step(c, f, OutputNameEvent{Output: e.Output, Name: "eDP-1"}); err != nil {
		t.Fatalf("name: %v", err)
	}
	if e.State() != AwaitingName || len(f.ops("get_layout")) != 0 {
		t.Fatalf("session must wait for the layout manager")
	}

	if err := step(c, f, GlobalEvent{Name: 1, Interface: LayoutManagerInterface, Version: 2}, SyncEvent{}); err != nil {
		t.Fatalf("manager: %v", err)
	}
	gl := f.ops("get_layout")
	if len(gl) != 1 || gl[0].Args[0].(ObjectID) != e.Output || gl[0].Args[1].(string) != "late" {
		t.Fatalf("unexpected get_layout: %s", f.trace())
	}
	if e.State() != Negotiating {
		t.Fatalf("state = %v", e.State())
	}
}

func TestDemand_GeneratorErrorIsFatalByDefault(t *testing.T) {
	gen := &evenGenerator{layoutErr: errBoom}
	c, f := setup(t, gen, Options{}, 10)
	layout := nameOutput(t, c, f, 10, "eDP-1")

	err := step(c, f, DemandEvent{Layout: layout, ViewCount: 2, UsableWidth: 10, UsableHeight: 10, Tags: u32(1), Serial: 5})
	if !errors.Is(err, ErrGenerator) || !errors.Is(err, errBoom) {
		t.Fatalf("expected generator error, got %v", err)
	}
	if len(f.ops("push"))+len(f.ops("commit")) != 0 {
		t.Fatalf("failed demand must not be partially answered: %s", f.trace())
	}
}

func TestDemand_GeneratorErrorFallbackCommitsTrivialLayout(t *testing.T) {
	gen := &evenGenerator{layoutErr: errBoom}
	c, f := setup(t, gen, Options{OnLayoutError: FallbackOnError}, 10)
	layout := nameOutput(t, c, f, 10, "eDP-1")

	if err := step(c, f, DemandEvent{Layout: layout, ViewCount: 2, UsableWidth: 800, UsableHeight: 600, Tags: u32(1), Serial: 5}); err != nil {
		t.Fatalf("fallback demand: %v", err)
	}
	pushes := f.ops("push")
	if len(pushes) != 2 {
		t.Fatalf("expected 2 pushes: %s", f.trace())
	}
	for _, p := range pushes {
		if p.Args[2].(uint32) != 800 || p.Args[3].(uint32) != 600 || p.Args[4].(uint32) != 5 {
			t.Fatalf("unexpected fallback push %s", p)
		}
	}
	commits := f.ops("commit")
	if len(commits) != 1 || commits[0].Args[0].(string) != "[fallback]" {
		t.Fatalf("unexpected commit: %s", f.trace())
	}
}

func TestDemand_FallbackDoesNotHideContractViolation(t *testing.T) {
	gen := &evenGenerator{short: 1}
	c, f := setup(t, gen, Options{OnLayoutError: FallbackOnError}, 10)
	layout := nameOutput(t, c, f, 10, "eDP-1")

	err := step(c, f, DemandEvent{Layout: layout, ViewCount: 2, UsableWidth: 10, UsableHeight: 10, Tags: u32(1), Serial: 5})
	if !errors.Is(err, ErrContractViolation) {
		t.Fatalf("expected contract violation, got %v", err)
	}
}

func TestDemand_SendFailureIsTransportFault(t *testing.T) {
	c, f := setup(t, &evenGenerator{}, Options{}, 10)
	layout := nameOutput(t, c, f, 10, "eDP-1")
	f.sendErr = errBoom

	err := step(c, f, DemandEvent{Layout: layout, ViewCount: 1, UsableWidth: 10, UsableHeight: 10, Tags: u32(1), Serial: 5})
	if !errors.Is(err, ErrTransportFault) {
		t.Fatalf("expected transport fault, got %v", err)
	}
}

func TestRun_TransportFailureEndsRun(t *testing.T) {
	f := newFakeTransport(announce(10))
	c := NewConnection(f, &evenGenerator{}, Options{})

	err := c.Run(context.Background())
	if !errors.Is(err, ErrTransportFault) || !errors.Is(err, io.EOF) {
		t.Fatalf("expected transport fault wrapping EOF, got %v", err)
	}
	if ExitCode(err) != ExitTransportFault {
		t.Fatalf("exit code = %d", ExitCode(err))
	}
}

func TestRun_NeverReturnsNil(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c := NewConnection(newFakeTransport(announce(10)), &evenGenerator{}, Options{})

	err := c.Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if errors.Is(err, ErrTransportFault) {
		t.Fatalf("cancellation is not a transport fault")
	}
}

func TestClose_ReleasesSessionsAndOutputs(t *testing.T) {
	c, f := setup(t, &evenGenerator{}, Options{}, 10, 11)
	layout := nameOutput(t, c, f, 10, "DP-1")

	if err := c.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if !f.closed {
		t.Fatalf("transport not closed")
	}
	if d := f.ops("destroy_layout"); len(d) != 1 || d[0].Object != layout {
		t.Fatalf("expected layout destroy: %s", f.trace())
	}
	if len(f.ops("release_output")) != 2 {
		t.Fatalf("expected both outputs released: %s", f.trace())
	}
	if c.Outputs().Len() != 0 {
		t.Fatalf("table not emptied")
	}
}

package layout

import "sort"

// OutputEntry is one output announced by the compositor.
type OutputEntry struct {
	Global  uint32   // registry name, stable for the entry's lifetime
	Output  ObjectID // bound wl_output
	Name    string   // empty until the compositor reports it
	session Session
}

// State reports the entry's session state.
func (e *OutputEntry) State() SessionState {
	return e.session.state
}

// Tags returns the last tags reported for the output, or nil.
func (e *OutputEntry) Tags() *uint32 {
	return e.session.tags
}

func (e *OutputEntry) label() string {
	if e.Name != "" {
		return e.Name
	}
	return "<unnamed>"
}

// OutputTable indexes output entries by registry name, output object and
// layout object. Misses return nil.
type OutputTable struct {
	byGlobal map[uint32]*OutputEntry
	byOutput map[ObjectID]*OutputEntry
	byLayout map[ObjectID]*OutputEntry
}

// NewOutputTable creates an empty table.
func NewOutputTable() *OutputTable {
	return &OutputTable{
		byGlobal: make(map[uint32]*OutputEntry),
		byOutput: make(map[ObjectID]*OutputEntry),
		byLayout: make(map[ObjectID]*OutputEntry),
	}
}

func (t *OutputTable) Insert(e *OutputEntry) {
	t.byGlobal[e.Global] = e
	t.byOutput[e.Output] = e
	if id := e.session.layout; id != 0 {
		t.byLayout[id] = e
	}
}

// Remove drops the entry for global and returns it, or nil if untracked.
func (t *OutputTable) Remove(global uint32) *OutputEntry {
	e, ok := t.byGlobal[global]
	if !ok {
		return nil
	}
	delete(t.byGlobal, global)
	delete(t.byOutput, e.Output)
	if id := e.session.layout; id != 0 {
		delete(t.byLayout, id)
	}
	return e
}

func (t *OutputTable) Lookup(global uint32) *OutputEntry {
	return t.byGlobal[global]
}

func (t *OutputTable) LookupByOutput(id ObjectID) *OutputEntry {
	return t.byOutput[id]
}

func (t *OutputTable) LookupByLayout(id ObjectID) *OutputEntry {
	return t.byLayout[id]
}

// indexLayout records the layout object a session was given.
func (t *OutputTable) indexLayout(e *OutputEntry) {
	if id := e.session.layout; id != 0 {
		t.byLayout[id] = e
	}
}

func (t *OutputTable) Len() int {
	return len(t.byGlobal)
}

// Entries returns all entries ordered by registry name.
func (t *OutputTable) Entries() []*OutputEntry {
	out := make([]*OutputEntry, 0, len(t.byGlobal))
	for _, e := range t.byGlobal {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Global < out[j].Global })
	return out
}

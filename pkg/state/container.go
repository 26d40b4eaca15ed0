package state

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/rs/zerolog"

	"github.com/goliatone/go-formtree/pkg/interpreter"
	"github.com/goliatone/go-formtree/pkg/model"
	"github.com/goliatone/go-formtree/pkg/values"
)

var (
	// ErrUnknownField is returned for edits addressing a name the schema
	// does not declare.
	ErrUnknownField = errors.New("state: unknown field")
	// ErrLoadPending rejects edits while a schema load is in flight.
	ErrLoadPending = errors.New("state: schema load pending")
	// ErrStaleLoad is returned when completing a load superseded by a newer
	// one. The result is discarded.
	ErrStaleLoad = errors.New("state: stale schema load")
	// ErrStaleEdit rejects edits emitted by units of an older schema.
	ErrStaleEdit = errors.New("state: edit targets a previous schema")
)

// Fetcher resolves a form identifier into a schema.
type Fetcher interface {
	FetchSchema(ctx context.Context, formID string) (model.Schema, error)
}

// ChangeReason describes what produced a Change.
type ChangeReason string

const (
	ChangeLoad  ChangeReason = "load"
	ChangeEdit  ChangeReason = "edit"
	ChangeReset ChangeReason = "reset"
)

// Change is delivered to subscribers after the tree changes. Path is set for
// edits only.
type Change struct {
	Reason     ChangeReason
	Generation uint64
	Path       values.Path
	Old        values.Tree
	New        values.Tree
}

// Ticket identifies a load started with BeginLoad.
type Ticket struct {
	seq uint64
}

// Container is the root state of a single form.
type Container struct {
	mu         sync.Mutex
	schema     model.Schema
	tree       values.Tree
	generation uint64
	loadSeq    uint64
	pending    bool

	lenient    bool
	decorators []model.Decorator
	logger     zerolog.Logger

	subsMu  sync.Mutex
	subs    map[int]func(Change)
	nextSub int
}

// New constructs an empty container. Until the first Load every edit fails
// with ErrUnknownField.
func New(options ...Option) *Container {
	c := &Container{
		tree:   values.Tree{},
		logger: zerolog.Nop(),
		subs:   make(map[int]func(Change)),
	}
	for _, opt := range options {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Load replaces the schema, discards all values and initialises top-level
// booleans to false. Any load started with BeginLoad is superseded.
func (c *Container) Load(schema model.Schema) error {
	prepared, err := c.prepare(schema)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.loadSeq++
	c.pending = false
	change := c.install(prepared)
	c.mu.Unlock()

	c.notify(change)
	return nil
}

// BeginLoad marks a load as pending. Edits are rejected with ErrLoadPending
// until the ticket is completed or aborted, or a newer load supersedes it.
func (c *Container) BeginLoad() Ticket {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loadSeq++
	c.pending = true
	return Ticket{seq: c.loadSeq}
}

// Complete installs the schema fetched for ticket. Results for superseded
// tickets are discarded with ErrStaleLoad. An invalid schema ends the pending
// state and keeps the previous schema in place.
func (c *Container) Complete(ticket Ticket, schema model.Schema) error {
	prepared, err := c.prepare(schema)

	c.mu.Lock()
	if ticket.seq != c.loadSeq {
		c.mu.Unlock()
		c.logger.Debug().Uint64("ticket", ticket.seq).Msg("discarding stale schema load")
		return ErrStaleLoad
	}
	c.pending = false
	if err != nil {
		c.mu.Unlock()
		return err
	}
	change := c.install(prepared)
	c.mu.Unlock()

	c.notify(change)
	return nil
}

// Abort clears the pending state of a failed load. Aborting a superseded
// ticket is a no-op.
func (c *Container) Abort(ticket Ticket) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ticket.seq == c.loadSeq {
		c.pending = false
	}
}

// LoadFrom fetches formID and loads the result, keeping the container in the
// pending state while the fetch runs.
func (c *Container) LoadFrom(ctx context.Context, fetcher Fetcher, formID string) error {
	if fetcher == nil {
		return errors.New("state: fetcher is nil")
	}
	ticket := c.BeginLoad()
	schema, err := fetcher.FetchSchema(ctx, formID)
	if err != nil {
		c.Abort(ticket)
		return err
	}
	return c.Complete(ticket, schema)
}

// Edit replaces exactly one top-level value. The value is stored as given.
// Slots and unknown fields carry no value and are rejected.
func (c *Container) Edit(name string, value any) error {
	c.mu.Lock()
	if c.pending {
		c.mu.Unlock()
		return ErrLoadPending
	}
	node, ok := c.schema.Field(name)
	if !ok {
		c.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	if !node.Kind.IsScalar() && node.Kind != model.KindCluster {
		c.mu.Unlock()
		return fmt.Errorf("state: %q: %w", name, interpreter.ErrReadOnly)
	}
	change := c.commit(values.Path{name}, values.Merge(c.tree, name, value))
	c.mu.Unlock()

	c.notify(change)
	return nil
}

// Apply stores an edit emitted by an interpreted unit. Edits tagged with a
// generation other than the current one are rejected; untagged edits
// (generation zero) are accepted.
func (c *Container) Apply(edit interpreter.Edit) error {
	c.mu.Lock()
	if c.pending {
		c.mu.Unlock()
		return ErrLoadPending
	}
	if edit.Generation != 0 && edit.Generation != c.generation {
		c.mu.Unlock()
		return ErrStaleEdit
	}
	node, ok := c.schema.Lookup(edit.Path)
	if !ok {
		c.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrUnknownField, edit.Path.String())
	}
	if !node.Kind.IsScalar() {
		c.mu.Unlock()
		return fmt.Errorf("state: %q: %w", edit.Path.String(), interpreter.ErrReadOnly)
	}
	change := c.commit(edit.Path, values.SetAt(c.tree, edit.Path, edit.Value))
	c.mu.Unlock()

	c.notify(change)
	return nil
}

// CurrentValues returns the tree as it stands. Trees are never mutated in
// place, so the result stays valid after later edits.
func (c *Container) CurrentValues() values.Tree {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tree
}

// Reset restores the initial values of the current schema.
func (c *Container) Reset() {
	c.mu.Lock()
	old := c.tree
	c.tree = initialValues(c.schema)
	change := Change{Reason: ChangeReset, Generation: c.generation, Old: old, New: c.tree}
	c.mu.Unlock()

	c.notify(change)
}

// Schema returns the loaded schema.
func (c *Container) Schema() model.Schema {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.schema
}

// Generation returns the number of schemas loaded so far.
func (c *Container) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation
}

// Pending reports whether a load is in flight.
func (c *Container) Pending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending
}

// Form interprets the current schema against the current tree with the
// container as edit sink.
func (c *Container) Form(options ...interpreter.Option) []interpreter.Unit {
	c.mu.Lock()
	schema, tree, generation := c.schema, c.tree, c.generation
	c.mu.Unlock()

	opts := append([]interpreter.Option{interpreter.WithGeneration(generation)}, options...)
	return interpreter.Interpret(schema, tree, c, opts...)
}

// Subscribe registers fn for change notifications. Callbacks run on the
// goroutine that caused the change, after the container lock is released.
func (c *Container) Subscribe(fn func(Change)) (cancel func()) {
	if fn == nil {
		return func() {}
	}
	c.subsMu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	c.subsMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.subsMu.Lock()
			delete(c.subs, id)
			c.subsMu.Unlock()
		})
	}
}

func (c *Container) prepare(schema model.Schema) (model.Schema, error) {
	prepared := schema
	for _, decorator := range c.decorators {
		if err := decorator.Decorate(&prepared); err != nil {
			return nil, fmt.Errorf("state: decorate schema: %w", err)
		}
	}
	if c.lenient {
		return prepared, nil
	}
	if err := model.Validate(prepared); err != nil {
		return nil, err
	}
	return prepared, nil
}

// install must be called with c.mu held.
func (c *Container) install(schema model.Schema) Change {
	old := c.tree
	c.schema = schema
	c.generation++
	c.tree = initialValues(schema)
	c.logger.Debug().
		Uint64("generation", c.generation).
		Int("fields", len(schema)).
		Msg("schema loaded")
	return Change{Reason: ChangeLoad, Generation: c.generation, Old: old, New: c.tree}
}

// commit must be called with c.mu held.
func (c *Container) commit(path values.Path, next values.Tree) Change {
	old := c.tree
	c.tree = next
	return Change{Reason: ChangeEdit, Generation: c.generation, Path: path, Old: old, New: next}
}

func (c *Container) notify(change Change) {
	c.subsMu.Lock()
	if len(c.subs) == 0 {
		c.subsMu.Unlock()
		return
	}
	ids := make([]int, 0, len(c.subs))
	for id := range c.subs {
		ids = append(ids, id)
	}
	callbacks := make([]func(Change), 0, len(ids))
	slices.Sort(ids)
	for _, id := range ids {
		callbacks = append(callbacks, c.subs[id])
	}
	c.subsMu.Unlock()

	for _, fn := range callbacks {
		fn(change)
	}
}

// initialValues materialises top-level booleans as false. Nested booleans
// stay absent so untouched clusters are omitted from submissions.
func initialValues(schema model.Schema) values.Tree {
	tree := values.Tree{}
	for _, node := range schema {
		if node.Kind == model.KindBoolean {
			tree[node.Name] = false
		}
	}
	return tree
}

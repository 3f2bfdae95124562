package lineage

import (
	"fmt"
	"slices"
)

// AddChild appends Child to Parent's children.
type AddChild struct {
	Parent Entity
	Child  Entity
}

func (c AddChild) Apply(sto Storage) error {
	return sto.AddChild(c.Parent, c.Child)
}

// AddChildren appends Children to the end of Parent's children.
type AddChildren struct {
	Parent   Entity
	Children []Entity
}

func NewAddChildren(parent Entity, children ...Entity) AddChildren {
	return AddChildren{Parent: parent, Children: slices.Clone(children)}
}

func (c AddChildren) Apply(sto Storage) error {
	return sto.AddChildren(c.Parent, c.Children...)
}

// InsertChild inserts Child at Index of Parent's children, shifting the
// following children back.
type InsertChild struct {
	Parent Entity
	Index  int
	Child  Entity
}

func (c InsertChild) Apply(sto Storage) error {
	return sto.InsertChild(c.Parent, c.Index, c.Child)
}

type InsertChildren struct {
	Parent   Entity
	Index    int
	Children []Entity
}

func NewInsertChildren(parent Entity, index int, children ...Entity) InsertChildren {
	return InsertChildren{Parent: parent, Index: index, Children: slices.Clone(children)}
}

func (c InsertChildren) Apply(sto Storage) error {
	return sto.InsertChildren(c.Parent, c.Index, c.Children...)
}

// RemoveChild detaches Child from Parent. Nothing happens if Parent does not
// list Child.
type RemoveChild struct {
	Parent Entity
	Child  Entity
}

func (c RemoveChild) Apply(sto Storage) error {
	return sto.RemoveChild(c.Parent, c.Child)
}

type RemoveChildren struct {
	Parent   Entity
	Children []Entity
}

func NewRemoveChildren(parent Entity, children ...Entity) RemoveChildren {
	return RemoveChildren{Parent: parent, Children: slices.Clone(children)}
}

func (c RemoveChildren) Apply(sto Storage) error {
	return sto.RemoveChildren(c.Parent, c.Children...)
}

type RemoveAllChildren struct {
	Parent Entity
}

func (c RemoveAllChildren) Apply(sto Storage) error {
	return sto.RemoveAllChildren(c.Parent)
}

// RemoveParent detaches Child from whatever parent it has.
type RemoveParent struct {
	Child Entity
}

func (c RemoveParent) Apply(sto Storage) error {
	return sto.RemoveParent(c.Child)
}

// DespawnChildrenRecursive destroys every descendant of Entity.
type DespawnChildrenRecursive struct {
	Entity Entity
}

func (c DespawnChildrenRecursive) Apply(sto Storage) error {
	return sto.DespawnDescendants(c.Entity)
}

// Despawn destroys Entity and, through the removal hooks, its subtree.
// Despawning a dead entity is a no-op.
type Despawn struct {
	Entity Entity
}

func (c Despawn) Apply(sto Storage) error {
	return sto.DestroyEntities(c.Entity)
}

// CommandQueue batches commands for a later Apply. Commands run in push order
// and each observes the graph left by the ones before it.
type CommandQueue struct {
	commands []Command
}

func (q *CommandQueue) Push(commands ...Command) {
	q.commands = append(q.commands, commands...)
}

func (q *CommandQueue) Len() int {
	return len(q.commands)
}

// Commands returns a copy of the queued commands.
func (q *CommandQueue) Commands() []Command {
	return slices.Clone(q.commands)
}

// Append moves every command of other to the end of q.
func (q *CommandQueue) Append(other *CommandQueue) {
	q.commands = append(q.commands, other.commands...)
	other.commands = nil
}

// Apply empties the queue into sto. On an unlocked storage the commands run
// now and their errors are joined; a locked storage runs them on Unlock.
func (q *CommandQueue) Apply(sto Storage) error {
	commands := q.commands
	q.commands = nil
	return sto.Enqueue(commands...)
}

// Entity returns a command recorder scoped to e.
func (q *CommandQueue) Entity(e Entity) EntityCommands {
	return EntityCommands{entity: e, queue: q}
}

// EntityCommands records structural commands for one entity on a queue.
type EntityCommands struct {
	entity Entity
	queue  *CommandQueue
}

func (ec EntityCommands) ID() Entity { return ec.entity }

func (ec EntityCommands) AddChild(child Entity) EntityCommands {
	ec.queue.Push(AddChild{Parent: ec.entity, Child: child})
	return ec
}

func (ec EntityCommands) AddChildren(children ...Entity) EntityCommands {
	ec.queue.Push(NewAddChildren(ec.entity, children...))
	return ec
}

func (ec EntityCommands) InsertChild(index int, child Entity) EntityCommands {
	ec.queue.Push(InsertChild{Parent: ec.entity, Index: index, Child: child})
	return ec
}

func (ec EntityCommands) InsertChildren(index int, children ...Entity) EntityCommands {
	ec.queue.Push(NewInsertChildren(ec.entity, index, children...))
	return ec
}

func (ec EntityCommands) RemoveChild(child Entity) EntityCommands {
	ec.queue.Push(RemoveChild{Parent: ec.entity, Child: child})
	return ec
}

func (ec EntityCommands) RemoveChildren(children ...Entity) EntityCommands {
	ec.queue.Push(NewRemoveChildren(ec.entity, children...))
	return ec
}

func (ec EntityCommands) RemoveAllChildren() EntityCommands {
	ec.queue.Push(RemoveAllChildren{Parent: ec.entity})
	return ec
}

func (ec EntityCommands) SetParent(parent Entity) EntityCommands {
	ec.queue.Push(AddChild{Parent: parent, Child: ec.entity})
	return ec
}

func (ec EntityCommands) RemoveParent() EntityCommands {
	ec.queue.Push(RemoveParent{Child: ec.entity})
	return ec
}

func (ec EntityCommands) DespawnDescendants() EntityCommands {
	ec.queue.Push(DespawnChildrenRecursive{Entity: ec.entity})
	return ec
}

func (ec EntityCommands) Despawn() EntityCommands {
	ec.queue.Push(Despawn{Entity: ec.entity})
	return ec
}

// WithChildren records a subtree under entity. See CommandQueue.WithChildren.
func (ec EntityCommands) WithChildren(sto Storage, build func(*QueuedChildBuilder)) (EntityCommands, error) {
	err := ec.queue.WithChildren(sto, ec.entity, build)
	return ec, err
}

// QueuedChildBuilder records spawns under a fixed parent. Spawned ids are
// reserved immediately; the entities and their wiring materialize when the
// queue is applied. A queue that is never applied keeps its ids reserved.
type QueuedChildBuilder struct {
	sto      *storage
	queue    *CommandQueue
	parent   Entity
	children []Entity
}

// WithChildren runs build with a QueuedChildBuilder for parent and closes the
// scope with a single AddChildren command.
func (q *CommandQueue) WithChildren(sto Storage, parent Entity, build func(*QueuedChildBuilder)) error {
	s, ok := sto.(*storage)
	if !ok {
		return fmt.Errorf("queued child builder requires a lineage storage, got %T", sto)
	}
	b := &QueuedChildBuilder{sto: s, queue: q, parent: parent}
	build(b)
	q.Push(NewAddChildren(parent, b.children...))
	return nil
}

func (b *QueuedChildBuilder) Spawn(components ...Component) EntityCommands {
	e := b.sto.pool.reserve()
	b.queue.Push(spawnOp{entities: []Entity{e}, comps: slices.Clone(components)})
	b.children = append(b.children, e)
	return b.queue.Entity(e)
}

func (b *QueuedChildBuilder) SpawnEmpty() EntityCommands {
	return b.Spawn()
}

func (b *QueuedChildBuilder) ParentID() Entity {
	return b.parent
}

// Queue returns the queue the builder records on.
func (b *QueuedChildBuilder) Queue() *CommandQueue {
	return b.queue
}

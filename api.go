package lineage

import (
	"iter"

	"github.com/TheBitDrifter/table"
)

type Storage interface {
	Hierarchy

	Entry(Entity) (table.Entry, error)
	Alive(Entity) bool
	NewEntities(int, ...Component) ([]Entity, error)
	EnqueueNewEntities(int, ...Component) ([]Entity, error)
	DestroyEntities(...Entity) error
	EnqueueDestroyEntities(...Entity) error
	HasComponent(Entity, Component) bool
	AddComponent(Entity, Component) error
	RemoveComponent(Entity, Component) error
	EnqueueAddComponent(Entity, Component) error
	EnqueueRemoveComponent(Entity, Component) error
	OnRemove(Component, RemoveHook)
	Enqueue(...Command) error
	Events() *EventBus
	RowIndexFor(Component) uint32
	Locked() bool
	Lock()
	Unlock()
}

// Hierarchy is the structural surface over the Parent and Children
// components. Every method leaves the two sides mirrored when it returns.
type Hierarchy interface {
	AddChild(parent, child Entity) error
	AddChildren(parent Entity, children ...Entity) error
	InsertChild(parent Entity, index int, child Entity) error
	InsertChildren(parent Entity, index int, children ...Entity) error
	RemoveChild(parent, child Entity) error
	RemoveChildren(parent Entity, children ...Entity) error
	RemoveAllChildren(parent Entity) error
	SetParent(child, parent Entity) error
	RemoveParent(child Entity) error
	DespawnDescendants(entity Entity) error
	WithChildren(parent Entity, build func(*ChildBuilder) error) error

	Parent(child Entity) (Entity, bool)
	Children(parent Entity) []Entity
	Ancestors(entity Entity) iter.Seq[Entity]
	Descendants(entity Entity) iter.Seq[Entity]
	Roots() []Entity
}

// RemoveHook runs while the component is still attached, so the hook can
// read the value that is about to go away.
type RemoveHook func(sto Storage, entity Entity)

// Command is a deferred structural intent. Commands carry identifiers only
// and are validated against the live storage when applied.
type Command interface {
	Apply(sto Storage) error
}

// Component represents a data attribute/state that can be attached to entities
// Components can be used to create queries for entities
type Component interface {
	table.ElementType
}

type Archetype interface {
	ID() uint32
	Table() table.Table
}

type Query interface {
	QueryNode
	And(items ...interface{}) QueryNode
	Or(items ...interface{}) QueryNode
	Not(items ...interface{}) QueryNode
}

type QueryNode interface {
	Evaluate(archetype Archetype, storage Storage) bool
}

type iCursor interface {
	Entities() iter.Seq2[int, table.Table]
	Next() bool
	Entity() Entity
}

type Cache[T any] interface {
	GetIndex(string) (int, bool)
	GetItem(int) *T
	Lookup(string) (*T, bool)
	Register(string, T) (int, error)
	Len() int
}

// Warning: internal Dependencies abound!
type Cursor struct {
	// The query to filter entities
	query QueryNode

	// The storage to iterate over
	storage *storage

	// Current iteration state
	currentArchetype archetype
	storageIndex     int
	entityIndex      int
	remaining        int

	// Initialization state
	initialized     bool
	matchedStorages []archetype
}

type AccessibleComponent[T any] struct {
	Component
	table.Accessor[T] // concrete.
}

type SimpleCache[T any] struct {
	items       []T
	itemIndices map[string]int
	maxCapacity int
}

package lineage

import "fmt"

type LockedStorageError struct{}

func (e LockedStorageError) Error() string {
	return fmt.Sprintf("storage is currently locked")
}

// EntityRelationError reports a parent/child pairing that would close a
// cycle, including an entity parented to itself.
type EntityRelationError struct {
	child, parent Entity
}

func (e EntityRelationError) Error() string {
	if e.child == e.parent {
		return fmt.Sprintf("entity (%v) cannot be its own parent", e.child)
	}
	return fmt.Sprintf("child (%v) is an ancestor of parent %v", e.child, e.parent)
}

type EntityNotFoundError struct {
	Entity Entity
}

func (e EntityNotFoundError) Error() string {
	return fmt.Sprintf("entity does not exist: %v", e.Entity)
}

type IndexOutOfRangeError struct {
	Parent Entity
	Index  int
	Len    int
}

func (e IndexOutOfRangeError) Error() string {
	return fmt.Sprintf("insertion index %d out of range [0, %d] for children of %v", e.Index, e.Len, e.Parent)
}

// ParentBusyError is returned when a parent's children are mutated while a
// ChildBuilder for that parent is open.
type ParentBusyError struct {
	Parent Entity
}

func (e ParentBusyError) Error() string {
	return fmt.Sprintf("children of %v are being built", e.Parent)
}

type BuilderClosedError struct {
	Parent Entity
}

func (e BuilderClosedError) Error() string {
	return fmt.Sprintf("child builder for %v used outside its scope", e.Parent)
}

type ComponentExistsError struct {
	Component Component
}

func (e ComponentExistsError) Error() string {
	return fmt.Sprintf("component already exists on entity: %T", e.Component)
}

type ComponentNotFoundError struct {
	Component Component
}

func (e ComponentNotFoundError) Error() string {
	return fmt.Sprintf("component does not exist on entity: %T", e.Component)
}

type CacheFullError struct {
	Capacity int
}

func (e CacheFullError) Error() string {
	return fmt.Sprintf("cache at maximum capacity (%d)", e.Capacity)
}

// InvariantError describes one broken hierarchy invariant.
type InvariantError struct {
	Entity Entity
	Reason string
}

func (e InvariantError) Error() string {
	return fmt.Sprintf("hierarchy invariant broken at %v: %s", e.Entity, e.Reason)
}

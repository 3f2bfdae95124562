package lineage

import (
	"go.uber.org/zap"
)

func (sto *storage) AddChild(parent, child Entity) error {
	return sto.attach(parent, []Entity{child}, placement{appending: true})
}

func (sto *storage) AddChildren(parent Entity, children ...Entity) error {
	return sto.attach(parent, children, placement{appending: true})
}

func (sto *storage) InsertChild(parent Entity, index int, child Entity) error {
	return sto.attach(parent, []Entity{child}, placement{index: index})
}

// InsertChildren places children at index, preserving their relative order.
// The index addresses the parent's list as it is before the call; children
// already listed are moved rather than duplicated.
func (sto *storage) InsertChildren(parent Entity, index int, children ...Entity) error {
	return sto.attach(parent, children, placement{index: index})
}

// placement says where attach puts a batch: at the end, or at index.
type placement struct {
	index     int
	appending bool
}

// attach is the shared body of the add and insert operations. All checks
// run before the first mutation.
func (sto *storage) attach(parent Entity, children []Entity, at placement) error {
	if err := sto.guard(parent); err != nil {
		return err
	}
	batch := dedupe(children)
	if err := sto.validateEdges(parent, batch); err != nil {
		return err
	}
	n := len(sto.Children(parent))
	index := at.index
	if at.appending {
		index = n
	} else if index < 0 || index > n {
		return IndexOutOfRangeError{Parent: parent, Index: index, Len: n}
	}
	if len(batch) == 0 {
		return nil
	}

	events, err := sto.updateParents(parent, batch)
	pushEvents(sto, events...)
	if err != nil {
		return err
	}
	if err := sto.placeChildren(parent, index, batch); err != nil {
		return err
	}
	return sto.flush()
}

// validateEdges checks that each child can be placed under parent.
func (sto *storage) validateEdges(parent Entity, children []Entity) error {
	if !sto.Alive(parent) {
		return EntityNotFoundError{Entity: parent}
	}
	for _, child := range children {
		if !sto.Alive(child) {
			return EntityNotFoundError{Entity: child}
		}
		if child == parent {
			return EntityRelationError{child: child, parent: parent}
		}
		// Moving a child out of a list that is being built is an edit of
		// that list too.
		if previous, ok := sto.Parent(child); ok && previous != parent {
			if _, busy := sto.building[previous]; busy {
				return ParentBusyError{Parent: previous}
			}
		}
		for ancestor := range sto.Ancestors(parent) {
			if ancestor == child {
				return EntityRelationError{child: child, parent: parent}
			}
		}
	}
	return nil
}

func (sto *storage) RemoveChild(parent, child Entity) error {
	return sto.RemoveChildren(parent, child)
}

func (sto *storage) RemoveChildren(parent Entity, children ...Entity) error {
	if err := sto.guard(parent); err != nil {
		return err
	}
	if !sto.Alive(parent) {
		return EntityNotFoundError{Entity: parent}
	}
	if err := sto.removeChildren(parent, children); err != nil {
		return err
	}
	return sto.flush()
}

// RemoveAllChildren detaches every child of parent and emits ChildRemoved
// for each. Unlike removing the Children component directly, which despawns
// the former children through the removal hook, the children stay alive.
// Use DespawnDescendants to destroy them.
func (sto *storage) RemoveAllChildren(parent Entity) error {
	if err := sto.guard(parent); err != nil {
		return err
	}
	if !sto.Alive(parent) {
		return EntityNotFoundError{Entity: parent}
	}
	if err := sto.removeChildren(parent, sto.Children(parent)); err != nil {
		return err
	}
	return sto.flush()
}

func (sto *storage) SetParent(child, parent Entity) error {
	return sto.AddChild(parent, child)
}

func (sto *storage) RemoveParent(child Entity) error {
	if sto.Locked() {
		return LockedStorageError{}
	}
	if !sto.Alive(child) {
		return EntityNotFoundError{Entity: child}
	}
	parent, ok := sto.Parent(child)
	if !ok {
		return nil
	}
	if err := sto.guard(parent); err != nil {
		return err
	}
	if err := sto.removeComponent(child, ParentComponent); err != nil {
		return err
	}
	return sto.flush()
}

// DespawnDescendants destroys every descendant of entity and keeps entity.
// Removing the Children component hands the subtree to the removal hooks.
func (sto *storage) DespawnDescendants(entity Entity) error {
	if err := sto.guard(entity); err != nil {
		return err
	}
	if !sto.Alive(entity) {
		return EntityNotFoundError{Entity: entity}
	}
	if !sto.HasComponent(entity, ChildrenComponent) {
		return nil
	}
	sto.logger().Debug("despawning descendants", zap.Stringer("entity", entity))
	if err := sto.removeComponent(entity, ChildrenComponent); err != nil {
		return err
	}
	return sto.flush()
}

func (sto *storage) Parent(child Entity) (Entity, bool) {
	p, ok := ParentComponent.lookup(sto, child)
	if !ok {
		return 0, false
	}
	return p.entity, true
}

// Children returns a copy of parent's ordered child list, or nil.
func (sto *storage) Children(parent Entity) []Entity {
	list, ok := ChildrenComponent.lookup(sto, parent)
	if !ok {
		return nil
	}
	return list.Entities()
}

package lineage

// Component pointers returned by lookup point into table columns. Any
// archetype transfer may move rows, so pointers are never held across a
// structural change.

// updateParent sets or replaces the child's Parent and reports the parent it
// held before. Children lists are left for the caller to reconcile.
func (sto *storage) updateParent(child, parent Entity) (previous Entity, had bool, err error) {
	if p, ok := ParentComponent.lookup(sto, child); ok {
		previous = p.entity
		p.entity = parent
		return previous, true, nil
	}
	if err := InsertComponent(sto, child, ParentComponent, Parent{entity: parent}); err != nil {
		return 0, false, err
	}
	return 0, false, nil
}

// setParent points child at parent and cleans up the previous parent's list.
// It never touches parent's own Children. The returned event is nil when the
// child was already parented to parent.
func (sto *storage) setParent(child, parent Entity) (HierarchyEvent, error) {
	previous, had, err := sto.updateParent(child, parent)
	if err != nil {
		return nil, err
	}
	if !had {
		return ChildAdded{Child: child, Parent: parent}, nil
	}
	if previous == parent {
		return nil, nil
	}
	if err := sto.removeChild(previous, child); err != nil {
		return nil, err
	}
	return ChildMoved{Child: child, PreviousParent: previous, NewParent: parent}, nil
}

// updateParents is setParent over a batch, collecting one event per child
// that actually changed, in argument order.
func (sto *storage) updateParents(parent Entity, children []Entity) ([]HierarchyEvent, error) {
	events := make([]HierarchyEvent, 0, len(children))
	for _, child := range children {
		ev, err := sto.setParent(child, parent)
		if err != nil {
			return events, err
		}
		if ev != nil {
			events = append(events, ev)
		}
	}
	return events, nil
}

// removeChild strips child from parent's list without emitting anything and
// drops the list once it is empty. A vanished parent has nothing to strip.
func (sto *storage) removeChild(parent, child Entity) error {
	list, ok := ChildrenComponent.lookup(sto, parent)
	if !ok {
		return nil
	}
	list.retain(func(e Entity) bool { return e != child })
	return sto.collapseChildren(parent)
}

// removeChildren detaches the named children that parent actually lists.
// Absent entities are skipped. ChildRemoved is emitted once per detached
// child, by the Parent removal hook when the child points back at parent and
// directly otherwise.
func (sto *storage) removeChildren(parent Entity, children []Entity) error {
	list, ok := ChildrenComponent.lookup(sto, parent)
	if !ok {
		return nil
	}
	present := make([]Entity, 0, len(children))
	for _, child := range dedupe(children) {
		if list.Contains(child) {
			present = append(present, child)
		}
	}
	if len(present) == 0 {
		return nil
	}
	list.retain(func(e Entity) bool { return !containsEntity(present, e) })

	for _, child := range present {
		p, ok := ParentComponent.lookup(sto, child)
		if !ok || p.entity != parent {
			pushEvents(sto, ChildRemoved{Child: child, Parent: parent})
			continue
		}
		if err := sto.removeComponent(child, ParentComponent); err != nil {
			return err
		}
	}
	return sto.collapseChildren(parent)
}

// addChildUnchecked appends child to parent's list, creating the list when
// needed. The caller guarantees child is not listed yet.
func (sto *storage) addChildUnchecked(parent, child Entity) error {
	if list, ok := ChildrenComponent.lookup(sto, parent); ok {
		list.entities = append(list.entities, child)
		return nil
	}
	return InsertComponent(sto, parent, ChildrenComponent, Children{entities: []Entity{child}})
}

// placeChildren inserts batch into parent's list at index and then drops
// older occurrences of batch members, so moved entries keep the new position.
func (sto *storage) placeChildren(parent Entity, index int, batch []Entity) error {
	list, ok := ChildrenComponent.lookup(sto, parent)
	if !ok {
		return InsertComponent(sto, parent, ChildrenComponent, Children{entities: append([]Entity(nil), batch...)})
	}
	placed := make([]Entity, 0, len(list.entities)+len(batch))
	for _, e := range list.entities[:index] {
		if !containsEntity(batch, e) {
			placed = append(placed, e)
		}
	}
	placed = append(placed, batch...)
	for _, e := range list.entities[index:] {
		if !containsEntity(batch, e) {
			placed = append(placed, e)
		}
	}
	list.entities = placed
	return nil
}

// collapseChildren removes parent's Children once the list is empty.
func (sto *storage) collapseChildren(parent Entity) error {
	list, ok := ChildrenComponent.lookup(sto, parent)
	if !ok || list.Len() > 0 {
		return nil
	}
	return sto.removeComponent(parent, ChildrenComponent)
}

func containsEntity(entities []Entity, e Entity) bool {
	for _, x := range entities {
		if x == e {
			return true
		}
	}
	return false
}

// dedupe keeps the first occurrence of every entity.
func dedupe(entities []Entity) []Entity {
	out := make([]Entity, 0, len(entities))
	for _, e := range entities {
		if !containsEntity(out, e) {
			out = append(out, e)
		}
	}
	return out
}

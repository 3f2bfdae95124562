package lineage

// ChildBuilder spawns entities directly under a fixed parent. Every spawned
// entity is fully wired before Spawn returns. A builder is only valid inside
// the WithChildren call that created it.
type ChildBuilder struct {
	sto     *storage
	parent  Entity
	spawned []Entity
	closed  bool
}

// WithChildren opens a ChildBuilder for parent. While build runs, any other
// structural edit of parent's children fails with ParentBusyError.
// Children spawned before build returns an error stay attached.
func (sto *storage) WithChildren(parent Entity, build func(*ChildBuilder) error) error {
	if err := sto.guard(parent); err != nil {
		return err
	}
	if !sto.Alive(parent) {
		return EntityNotFoundError{Entity: parent}
	}
	sto.building[parent] = struct{}{}
	b := &ChildBuilder{sto: sto, parent: parent}
	err := func() error {
		defer func() {
			delete(sto.building, parent)
			b.closed = true
		}()
		return build(b)
	}()
	if err != nil {
		return err
	}
	return sto.flush()
}

// Spawn creates a child carrying components and Parent, appends it to the
// parent's list and emits ChildAdded. A builder used after its WithChildren
// call returned fails with BuilderClosedError.
func (b *ChildBuilder) Spawn(components ...Component) (EntityHandle, error) {
	if b.closed {
		return EntityHandle{}, BuilderClosedError{Parent: b.parent}
	}
	if !b.sto.Alive(b.parent) {
		return EntityHandle{}, EntityNotFoundError{Entity: b.parent}
	}
	comps := make([]Component, 0, len(components)+1)
	comps = append(comps, components...)
	comps = append(comps, ParentComponent)

	entities, err := b.sto.NewEntities(1, comps...)
	if err != nil {
		return EntityHandle{}, err
	}
	child := entities[0]
	p, _ := ParentComponent.lookup(b.sto, child)
	p.entity = b.parent
	if err := b.sto.addChildUnchecked(b.parent, child); err != nil {
		return EntityHandle{}, err
	}
	pushEvents(b.sto, ChildAdded{Child: child, Parent: b.parent})
	b.spawned = append(b.spawned, child)
	return Handle(b.sto, child), nil
}

// SpawnEmpty is Spawn without user components.
func (b *ChildBuilder) SpawnEmpty() (EntityHandle, error) {
	return b.Spawn()
}

// ParentID returns the entity the builder spawns under.
func (b *ChildBuilder) ParentID() Entity {
	return b.parent
}

// Spawned lists the children created by this builder, in spawn order.
func (b *ChildBuilder) Spawned() []Entity {
	return append([]Entity(nil), b.spawned...)
}

func (b *ChildBuilder) Storage() Storage {
	return b.sto
}

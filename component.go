package lineage

import (
	"github.com/TheBitDrifter/table"
)

// identity is the hidden column every archetype carries. It maps a table row
// back to its Entity and lets entities exist without user components.
type identity struct {
	entity Entity
}

var identityComponent = FactoryNewComponent[identity]()

// GetFromCursor retrieves a component value for the entity at the cursor position
func (c AccessibleComponent[T]) GetFromCursor(cursor *Cursor) *T {
	return c.Get(
		cursor.entityIndex-1,
		cursor.currentArchetype.table,
	)
}

// GetFromCursorSafe safely retrieves a component value, checking if the component exists
// Returns a boolean indicating success and the component pointer if found
func (c AccessibleComponent[T]) GetFromCursorSafe(cursor *Cursor) (bool, *T) {
	ok := c.Accessor.Check(cursor.currentArchetype.table)
	if ok {
		return true, c.GetFromCursor(cursor)
	}
	return false, nil
}

// CheckCursor determines if the component exists in the archetype at the cursor position
func (c AccessibleComponent[T]) CheckCursor(cursor *Cursor) bool {
	return c.Accessor.Check(cursor.currentArchetype.table)
}

// GetFromEntry retrieves the component value stored in the entry's row.
// The caller must know the entry's table holds the component.
func (c AccessibleComponent[T]) GetFromEntry(entry table.Entry) *T {
	return c.Get(entry.Index(), entry.Table())
}

// GetFromEntity retrieves a component value for the specified entity
func (c AccessibleComponent[T]) GetFromEntity(sto Storage, e Entity) (*T, error) {
	entry, err := sto.Entry(e)
	if err != nil {
		return nil, err
	}
	if !c.Accessor.Check(entry.Table()) {
		return nil, ComponentNotFoundError{Component: c}
	}
	return c.GetFromEntry(entry), nil
}

// lookup is GetFromEntity without the error detail.
func (c AccessibleComponent[T]) lookup(sto Storage, e Entity) (*T, bool) {
	v, err := c.GetFromEntity(sto, e)
	return v, err == nil
}

// InsertComponent attaches c to e, adding the component first when e does
// not carry it yet, and stores value.
func InsertComponent[T any](sto Storage, e Entity, c AccessibleComponent[T], value T) error {
	if !sto.HasComponent(e, c) {
		if err := sto.AddComponent(e, c); err != nil {
			return err
		}
	}
	ptr, err := c.GetFromEntity(sto, e)
	if err != nil {
		return err
	}
	*ptr = value
	return nil
}

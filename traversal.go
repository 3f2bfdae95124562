package lineage

import (
	"errors"
	"fmt"
	"iter"
	"slices"
)

// Ancestors yields the parent of entity, then its parent, up to the root.
func (sto *storage) Ancestors(entity Entity) iter.Seq[Entity] {
	return func(yield func(Entity) bool) {
		seen := map[Entity]struct{}{entity: {}}
		current := entity
		for {
			parent, ok := sto.Parent(current)
			if !ok {
				return
			}
			if _, loop := seen[parent]; loop {
				return
			}
			seen[parent] = struct{}{}
			if !yield(parent) {
				return
			}
			current = parent
		}
	}
}

// Descendants yields every entity below entity, breadth first, each level in
// child order.
func (sto *storage) Descendants(entity Entity) iter.Seq[Entity] {
	return func(yield func(Entity) bool) {
		seen := map[Entity]struct{}{entity: {}}
		queue := sto.Children(entity)
		for len(queue) > 0 {
			e := queue[0]
			queue = queue[1:]
			if _, loop := seen[e]; loop {
				continue
			}
			seen[e] = struct{}{}
			if !yield(e) {
				return
			}
			queue = append(queue, sto.Children(e)...)
		}
	}
}

// Roots returns the entities that have children but no parent, ordered by
// entity index.
func (sto *storage) Roots() []Entity {
	query := Factory.NewQuery()
	node := query.And(ChildrenComponent, query.Not(ParentComponent))
	cursor := Factory.NewCursor(node, sto)

	var roots []Entity
	for cursor.Next() {
		roots = append(roots, cursor.Entity())
	}
	slices.SortFunc(roots, func(a, b Entity) int { return int(a.Index()) - int(b.Index()) })
	return roots
}

// VerifyHierarchy checks the mirror invariant between Parent and Children
// over the whole storage and reports every violation it finds.
func VerifyHierarchy(sto Storage) error {
	query := Factory.NewQuery()
	node := query.Or(ParentComponent, ChildrenComponent)
	cursor := Factory.NewCursor(node, sto)

	var related []Entity
	for cursor.Next() {
		related = append(related, cursor.Entity())
	}

	var errs []error
	for _, e := range related {
		if parent, ok := sto.Parent(e); ok {
			switch n := countEntity(sto.Children(parent), e); {
			case !sto.Alive(parent):
				errs = append(errs, InvariantError{e, fmt.Sprintf("parent %v does not exist", parent)})
			case n != 1:
				errs = append(errs, InvariantError{e, fmt.Sprintf("listed %d times by parent %v", n, parent)})
			}
		}
		if !sto.HasComponent(e, ChildrenComponent) {
			continue
		}
		children := sto.Children(e)
		if len(children) == 0 {
			errs = append(errs, InvariantError{e, "empty Children component"})
		}
		for _, child := range children {
			if n := countEntity(children, child); n > 1 {
				errs = append(errs, InvariantError{e, fmt.Sprintf("child %v listed %d times", child, n)})
			}
			if p, ok := sto.Parent(child); !ok || p != e {
				errs = append(errs, InvariantError{e, fmt.Sprintf("child %v does not point back", child)})
			}
		}
	}
	return errors.Join(errs...)
}

func countEntity(entities []Entity, e Entity) int {
	n := 0
	for _, x := range entities {
		if x == e {
			n++
		}
	}
	return n
}

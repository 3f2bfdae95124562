/*
Package lineage provides entity hierarchies on top of an archetype-based
Entity-Component-System storage.

Entities declare parent/child relationships through two mirrored components:
Parent on the child and an ordered Children list on the parent. Every
structural operation keeps both sides consistent and reports what changed as
HierarchyEvent values on the storage's EventBus.

Core Concepts:

  - Entity: A generational identifier issued by a Storage.
  - Component: A data container attached to entities; Parent and Children are
    the two the hierarchy maintains.
  - HierarchyEvent: ChildAdded, ChildRemoved or ChildMoved, one per change.
  - Command: A deferred structural intent, applied later in FIFO order.
  - ChildBuilder: A scope that spawns fully wired children under one parent.

Basic Usage:

	schema := table.Factory.NewSchema()
	storage := lineage.Factory.NewStorage(schema)

	name := lineage.FactoryNewComponent[Name]()
	entities, _ := storage.NewEntities(3, name)
	root, a, b := entities[0], entities[1], entities[2]

	storage.AddChildren(root, a, b)
	storage.WithChildren(a, func(cb *lineage.ChildBuilder) error {
		_, err := cb.Spawn(name)
		return err
	})

	for _, ev := range lineage.Drain[lineage.HierarchyEvent](storage.Events()) {
		fmt.Println(ev)
	}

	// Destroying root cascades through a and b and the child of a.
	storage.DestroyEntities(root)

While a Cursor iterates, the storage is locked and structural edits must go
through Enqueue or a CommandQueue; they run when the cursor finishes.
*/
package lineage

package lineage

import (
	"testing"
)

func TestCascadingDestroy(t *testing.T) {
	sto, es := newHierarchy(t, 4)
	p, a, b, d := es[0], es[1], es[2], es[3]

	if err := sto.AddChildren(p, a, b); err != nil {
		t.Fatalf("AddChildren failed: %v", err)
	}
	if err := sto.AddChild(a, d); err != nil {
		t.Fatalf("AddChild failed: %v", err)
	}
	drainEvents(sto)

	if err := sto.DestroyEntities(p); err != nil {
		t.Fatalf("DestroyEntities failed: %v", err)
	}
	for _, e := range es {
		if sto.Alive(e) {
			t.Errorf("%v survived the cascade", e)
		}
	}
	assertEvents(t, sto,
		ChildRemoved{Child: a, Parent: p},
		ChildRemoved{Child: b, Parent: p},
		ChildRemoved{Child: d, Parent: a},
	)

	// Despawning twice is a no-op
	if err := sto.DestroyEntities(p); err != nil {
		t.Errorf("Second DestroyEntities failed: %v", err)
	}
	if err := Handle(sto, a).Despawn(); err != nil {
		t.Errorf("Despawn of cascaded child failed: %v", err)
	}
	assertEvents(t, sto)
	assertConsistent(t, sto)
}

func TestDestroyMiddleOfTree(t *testing.T) {
	sto, es := newHierarchy(t, 4)
	g, p, q, c := es[0], es[1], es[2], es[3]

	if err := sto.AddChildren(g, p, q); err != nil {
		t.Fatalf("AddChildren failed: %v", err)
	}
	if err := sto.AddChild(p, c); err != nil {
		t.Fatalf("AddChild failed: %v", err)
	}
	drainEvents(sto)

	if err := sto.DestroyEntities(p); err != nil {
		t.Fatalf("DestroyEntities failed: %v", err)
	}
	assertChildren(t, sto, g, q)
	if sto.Alive(c) {
		t.Errorf("Grandchild %v survived", c)
	}
	assertEvents(t, sto,
		ChildRemoved{Child: p, Parent: g},
		ChildRemoved{Child: c, Parent: p},
	)
	assertConsistent(t, sto)
}

func TestDestroyLastChildCollapsesParent(t *testing.T) {
	sto, es := newHierarchy(t, 3)
	g, p, c := es[0], es[1], es[2]

	if err := sto.AddChild(g, p); err != nil {
		t.Fatalf("AddChild failed: %v", err)
	}
	if err := sto.AddChild(p, c); err != nil {
		t.Fatalf("AddChild failed: %v", err)
	}
	drainEvents(sto)

	if err := sto.DestroyEntities(c); err != nil {
		t.Fatalf("DestroyEntities failed: %v", err)
	}
	if !sto.Alive(p) {
		t.Fatalf("Parent %v destroyed with its last child", p)
	}
	assertChildren(t, sto, p)
	assertParent(t, sto, p, g)
	assertChildren(t, sto, g, p)
	assertEvents(t, sto, ChildRemoved{Child: c, Parent: p})
	assertConsistent(t, sto)
}

func TestDespawnDescendants(t *testing.T) {
	sto, es := newHierarchy(t, 2)
	parent, child := es[0], es[1]

	if err := sto.AddChild(parent, child); err != nil {
		t.Fatalf("AddChild failed: %v", err)
	}
	drainEvents(sto)

	if err := Handle(sto, parent).DespawnDescendants(); err != nil {
		t.Fatalf("DespawnDescendants failed: %v", err)
	}
	if !sto.Alive(parent) {
		t.Errorf("Parent destroyed by DespawnDescendants")
	}
	if sto.Alive(child) {
		t.Errorf("Child survived DespawnDescendants")
	}
	assertChildren(t, sto, parent)
	assertEvents(t, sto, ChildRemoved{Child: child, Parent: parent})

	// A childless entity has nothing to despawn
	if err := sto.DespawnDescendants(parent); err != nil {
		t.Errorf("DespawnDescendants on childless entity failed: %v", err)
	}
	assertEvents(t, sto)
	assertConsistent(t, sto)
}

func TestDirectComponentRemovalRunsHooks(t *testing.T) {
	sto, es := newHierarchy(t, 4)
	parent, a, b, c := es[0], es[1], es[2], es[3]

	if err := sto.AddChildren(parent, a, b); err != nil {
		t.Fatalf("AddChildren failed: %v", err)
	}
	if err := sto.AddChild(b, c); err != nil {
		t.Fatalf("AddChild failed: %v", err)
	}
	drainEvents(sto)

	// Dropping a back-reference through the plain component API still
	// unlinks the child from its parent's list.
	if err := sto.RemoveComponent(a, ParentComponent); err != nil {
		t.Fatalf("RemoveComponent(Parent) failed: %v", err)
	}
	assertChildren(t, sto, parent, b)
	assertEvents(t, sto, ChildRemoved{Child: a, Parent: parent})

	// Dropping a child list destroys the children it named.
	if err := sto.RemoveComponent(b, ChildrenComponent); err != nil {
		t.Fatalf("RemoveComponent(Children) failed: %v", err)
	}
	if sto.Alive(c) {
		t.Errorf("Child %v survived removal of its parent's list", c)
	}
	assertEvents(t, sto, ChildRemoved{Child: c, Parent: b})
	assertConsistent(t, sto)
}

func TestDeepCascade(t *testing.T) {
	const depth = 2000
	sto, chain := newHierarchy(t, depth)
	for i := 1; i < depth; i++ {
		if err := sto.AddChild(chain[i-1], chain[i]); err != nil {
			t.Fatalf("AddChild(%d) failed: %v", i, err)
		}
	}
	drainEvents(sto)

	if err := sto.DestroyEntities(chain[0]); err != nil {
		t.Fatalf("DestroyEntities failed: %v", err)
	}
	for i, e := range chain {
		if sto.Alive(e) {
			t.Fatalf("Entity %d survived the cascade", i)
		}
	}
	if got := Pending[HierarchyEvent](sto.Events()); got != depth-1 {
		t.Errorf("Pending events = %d, want %d", got, depth-1)
	}
}

package lineage

import (
	"errors"
	"slices"
	"testing"
)

func TestChildBuilderSpawnOrder(t *testing.T) {
	sto, es := newHierarchy(t, 1)
	parent := es[0]
	posComp := FactoryNewComponent[Position]()

	var spawned []Entity
	err := Handle(sto, parent).WithChildren(func(cb *ChildBuilder) error {
		for i := 0; i < 3; i++ {
			h, err := cb.Spawn(posComp)
			if err != nil {
				return err
			}
			// The handle is wired before Spawn returns
			if p, ok := h.Parent(); !ok || p != parent {
				t.Errorf("Spawned child %v has parent %v (%v)", h.ID(), p, ok)
			}
			if err := InsertComponent(sto, h.ID(), posComp, Position{X: float64(i)}); err != nil {
				return err
			}
			spawned = append(spawned, h.ID())
		}
		if !slices.Equal(cb.Spawned(), spawned) {
			t.Errorf("Spawned() = %v, want %v", cb.Spawned(), spawned)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("WithChildren failed: %v", err)
	}

	assertChildren(t, sto, parent, spawned...)
	assertEvents(t, sto,
		ChildAdded{Child: spawned[0], Parent: parent},
		ChildAdded{Child: spawned[1], Parent: parent},
		ChildAdded{Child: spawned[2], Parent: parent},
	)
	for i, e := range spawned {
		pos, err := posComp.GetFromEntity(sto, e)
		if err != nil || pos.X != float64(i) {
			t.Errorf("Position of child %d = %v, %v", i, pos, err)
		}
	}
	assertConsistent(t, sto)
}

func TestChildBuilderExclusive(t *testing.T) {
	sto, es := newHierarchy(t, 3)
	parent, other, loose := es[0], es[1], es[2]

	err := sto.WithChildren(parent, func(cb *ChildBuilder) error {
		if cb.ParentID() != parent {
			t.Errorf("ParentID() = %v, want %v", cb.ParentID(), parent)
		}
		spawned, err := cb.SpawnEmpty()
		if err != nil {
			return err
		}

		busy := []struct {
			name string
			op   func() error
		}{
			{"AddChild", func() error { return sto.AddChild(parent, loose) }},
			{"InsertChild", func() error { return sto.InsertChild(parent, 0, loose) }},
			{"RemoveAllChildren", func() error { return sto.RemoveAllChildren(parent) }},
			{"DespawnDescendants", func() error { return sto.DespawnDescendants(parent) }},
			{"Move spawned child away", func() error { return sto.AddChild(other, spawned.ID()) }},
			{"Reparent spawned child", func() error { return spawned.SetParent(other) }},
			{"Nested builder", func() error {
				return sto.WithChildren(parent, func(*ChildBuilder) error { return nil })
			}},
		}
		for _, tt := range busy {
			var busyErr ParentBusyError
			if err := tt.op(); !errors.As(err, &busyErr) || busyErr.Parent != parent {
				t.Errorf("%s during build: err = %v, want ParentBusyError", tt.name, err)
			}
		}

		if p, ok := spawned.Parent(); !ok || p != parent {
			t.Errorf("Spawned child moved to %v during build", p)
		}

		// Other parents are not affected
		if err := sto.AddChild(other, loose); err != nil {
			t.Errorf("AddChild on another parent failed: %v", err)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("WithChildren failed: %v", err)
	}

	// The scope is closed again
	if err := sto.AddChild(parent, loose); err != nil {
		t.Errorf("AddChild after build failed: %v", err)
	}
	if got := sto.Children(parent); len(got) != 2 || got[1] != loose {
		t.Errorf("Children(parent) = %v", got)
	}
	assertConsistent(t, sto)
}

func TestChildBuilderNested(t *testing.T) {
	sto, es := newHierarchy(t, 1)
	root := es[0]

	var child, grandchild Entity
	err := sto.WithChildren(root, func(cb *ChildBuilder) error {
		h, err := cb.SpawnEmpty()
		if err != nil {
			return err
		}
		child = h.ID()
		return h.WithChildren(func(nested *ChildBuilder) error {
			g, err := nested.SpawnEmpty()
			grandchild = g.ID()
			return err
		})
	})
	if err != nil {
		t.Fatalf("WithChildren failed: %v", err)
	}

	assertChildren(t, sto, root, child)
	assertChildren(t, sto, child, grandchild)
	assertEvents(t, sto,
		ChildAdded{Child: child, Parent: root},
		ChildAdded{Child: grandchild, Parent: child},
	)
	assertConsistent(t, sto)
}

func TestChildBuilderError(t *testing.T) {
	sto, es := newHierarchy(t, 1)
	parent := es[0]
	errStop := errors.New("stop")

	var kept Entity
	err := sto.WithChildren(parent, func(cb *ChildBuilder) error {
		h, err := cb.SpawnEmpty()
		if err != nil {
			return err
		}
		kept = h.ID()
		return errStop
	})
	if !errors.Is(err, errStop) {
		t.Fatalf("WithChildren err = %v, want %v", err, errStop)
	}

	// Children spawned before the failure stay attached
	assertChildren(t, sto, parent, kept)
	assertConsistent(t, sto)

	// A locked storage rejects the scope outright
	sto.Lock()
	if err := sto.WithChildren(parent, func(*ChildBuilder) error { return nil }); !errors.As(err, &LockedStorageError{}) {
		t.Errorf("WithChildren while locked err = %v, want LockedStorageError", err)
	}
	sto.Unlock()
}

func TestChildBuilderClosedAfterScope(t *testing.T) {
	sto, es := newHierarchy(t, 1)
	parent := es[0]

	var escaped *ChildBuilder
	err := sto.WithChildren(parent, func(cb *ChildBuilder) error {
		escaped = cb
		_, err := cb.SpawnEmpty()
		return err
	})
	if err != nil {
		t.Fatalf("WithChildren failed: %v", err)
	}
	drainEvents(sto)

	var closedErr BuilderClosedError
	if _, err := escaped.Spawn(); !errors.As(err, &closedErr) || closedErr.Parent != parent {
		t.Errorf("Spawn after scope err = %v, want BuilderClosedError", err)
	}
	if got := sto.Children(parent); len(got) != 1 {
		t.Errorf("Children(parent) = %v, want the one child spawned in scope", got)
	}
	assertEvents(t, sto)
	assertConsistent(t, sto)
}

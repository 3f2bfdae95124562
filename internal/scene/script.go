package scene

import (
	"errors"
	"fmt"

	"github.com/TheBitDrifter/lineage"
	"go.uber.org/zap"
)

// Edit is one scripted structural change. Entity fields hold node paths or
// ids; which of them an edit reads depends on Op.
type Edit struct {
	Op       string   `yaml:"op"`
	Parent   string   `yaml:"parent"`
	Child    string   `yaml:"child"`
	Children []string `yaml:"children"`
	Entity   string   `yaml:"entity"`
	Index    int      `yaml:"index"`
	Name     string   `yaml:"name"` // spawn
	ID       string   `yaml:"id"`   // spawn, optional
}

// pendingLabel is a node spawned by the script. It is addressable at once,
// but its Label can only be written after the spawn has been applied.
type pendingLabel struct {
	entity lineage.Entity
	label  Label
}

// queue translates edits into commands on a fresh queue. References are
// resolved now; whether they are still alive is checked when the queue is
// applied.
func (sc *Scene) queue(edits []Edit) (*lineage.CommandQueue, []pendingLabel, error) {
	q := lineage.Factory.NewCommandQueue()
	var pending []pendingLabel
	for i, edit := range edits {
		if err := sc.queueEdit(q, edit, &pending); err != nil {
			return nil, nil, fmt.Errorf("script edit %d (%s): %w", i, edit.Op, err)
		}
	}
	return q, pending, nil
}

func (sc *Scene) queueEdit(q *lineage.CommandQueue, edit Edit, pending *[]pendingLabel) error {
	switch edit.Op {
	case "add_child":
		parent, child, err := sc.pair(edit.Parent, edit.Child)
		if err != nil {
			return err
		}
		q.Push(lineage.AddChild{Parent: parent, Child: child})
	case "add_children":
		parent, children, err := sc.batch(edit.Parent, edit.Children)
		if err != nil {
			return err
		}
		q.Push(lineage.NewAddChildren(parent, children...))
	case "insert_child":
		parent, child, err := sc.pair(edit.Parent, edit.Child)
		if err != nil {
			return err
		}
		q.Push(lineage.InsertChild{Parent: parent, Index: edit.Index, Child: child})
	case "insert_children":
		parent, children, err := sc.batch(edit.Parent, edit.Children)
		if err != nil {
			return err
		}
		q.Push(lineage.NewInsertChildren(parent, edit.Index, children...))
	case "remove_child":
		parent, child, err := sc.pair(edit.Parent, edit.Child)
		if err != nil {
			return err
		}
		q.Push(lineage.RemoveChild{Parent: parent, Child: child})
	case "remove_children":
		parent, children, err := sc.batch(edit.Parent, edit.Children)
		if err != nil {
			return err
		}
		q.Push(lineage.NewRemoveChildren(parent, children...))
	case "remove_all_children":
		parent, err := sc.lookup(edit.Parent)
		if err != nil {
			return err
		}
		q.Entity(parent).RemoveAllChildren()
	case "set_parent":
		parent, child, err := sc.pair(edit.Parent, edit.Child)
		if err != nil {
			return err
		}
		q.Entity(child).SetParent(parent)
	case "remove_parent":
		e, err := sc.lookup(edit.Entity)
		if err != nil {
			return err
		}
		q.Entity(e).RemoveParent()
	case "despawn_descendants":
		e, err := sc.lookup(edit.Entity)
		if err != nil {
			return err
		}
		q.Push(lineage.DespawnChildrenRecursive{Entity: e})
	case "despawn":
		e, err := sc.lookup(edit.Entity)
		if err != nil {
			return err
		}
		q.Entity(e).Despawn()
	case "spawn":
		parent, err := sc.lookup(edit.Parent)
		if err != nil {
			return err
		}
		l, err := newLabel(sc.Name(parent), Node{Name: edit.Name, ID: edit.ID})
		if err != nil {
			return err
		}
		var regErr error
		err = q.WithChildren(sc.sto, parent, func(b *lineage.QueuedChildBuilder) {
			child := b.Spawn(LabelComponent).ID()
			regErr = sc.register(child, l.Path, l.ID)
			*pending = append(*pending, pendingLabel{entity: child, label: l})
		})
		if err != nil {
			return err
		}
		return regErr
	default:
		return fmt.Errorf("unknown op %q", edit.Op)
	}
	return nil
}

// Replay queues edits and applies them against the scene's storage in
// order. Failing edits do not stop the ones after them; their errors are
// joined.
func (sc *Scene) Replay(edits []Edit) error {
	q, pending, err := sc.queue(edits)
	if err != nil {
		return err
	}
	sc.log.Debug("replaying script", zap.Int("edits", len(edits)), zap.Int("commands", q.Len()))

	var errs []error
	if err := q.Apply(sc.sto); err != nil {
		errs = append(errs, err)
	}
	for _, p := range pending {
		if !sc.sto.Alive(p.entity) {
			continue
		}
		if err := lineage.InsertComponent(sc.sto, p.entity, LabelComponent, p.label); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (sc *Scene) pair(parentRef, childRef string) (lineage.Entity, lineage.Entity, error) {
	parent, err := sc.lookup(parentRef)
	if err != nil {
		return 0, 0, err
	}
	child, err := sc.lookup(childRef)
	if err != nil {
		return 0, 0, err
	}
	return parent, child, nil
}

func (sc *Scene) batch(parentRef string, childRefs []string) (lineage.Entity, []lineage.Entity, error) {
	parent, err := sc.lookup(parentRef)
	if err != nil {
		return 0, nil, err
	}
	children := make([]lineage.Entity, len(childRefs))
	for i, ref := range childRefs {
		if children[i], err = sc.lookup(ref); err != nil {
			return 0, nil, err
		}
	}
	return parent, children, nil
}

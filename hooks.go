package lineage

import "go.uber.org/zap"

func registerHierarchyHooks(sto *storage) {
	sto.OnRemove(ChildrenComponent, func(_ Storage, e Entity) { sto.onRemoveChildren(e) })
	sto.OnRemove(ParentComponent, func(_ Storage, e Entity) { sto.onRemoveParent(e) })
}

// onRemoveChildren queues the destruction of every listed child. Each
// destruction fires the hooks again, so a subtree unwinds through the queue
// instead of the call stack.
func (sto *storage) onRemoveChildren(e Entity) {
	list, ok := ChildrenComponent.lookup(sto, e)
	if !ok || list.Len() == 0 {
		return
	}
	children := list.Entities()
	sto.logger().Debug("queueing child despawns",
		zap.Stringer("parent", e),
		zap.Int("children", len(children)),
	)
	sto.opQueue.EnqueueDestroy(children)
}

// onRemoveParent reports the detach and strips child from its parent. An
// emptied list is dropped through the queue.
func (sto *storage) onRemoveParent(child Entity) {
	p, ok := ParentComponent.lookup(sto, child)
	if !ok {
		return
	}
	parent := p.entity
	pushEvents(sto, ChildRemoved{Child: child, Parent: parent})

	list, ok := ChildrenComponent.lookup(sto, parent)
	if !ok {
		return
	}
	list.retain(func(e Entity) bool { return e != child })
	if list.Len() == 0 {
		sto.opQueue.enqueueOp(collapseOp{parent: parent})
	}
}

// collapseOp drops an emptied Children component. The list is checked again
// at apply time because later operations may have refilled it.
type collapseOp struct {
	parent Entity
}

func (op collapseOp) Apply(sto Storage) error {
	list, ok := ChildrenComponent.lookup(sto, op.parent)
	if !ok || list.Len() > 0 {
		return nil
	}
	return sto.RemoveComponent(op.parent, ChildrenComponent)
}

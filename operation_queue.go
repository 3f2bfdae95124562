package lineage

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
)

type operationType int

const (
	opAddComponent operationType = iota
	opRemoveComponent
)

// spawnOp materializes entities reserved by EnqueueNewEntities.
type spawnOp struct {
	entities []Entity
	comps    []Component
}

func (op spawnOp) Apply(sto Storage) error {
	s, ok := sto.(*storage)
	if !ok {
		return fmt.Errorf("spawn requires a lineage storage, got %T", sto)
	}
	if err := s.materialize(op.entities, op.comps...); err != nil {
		return fmt.Errorf("failed to process queued entity creation: %w", err)
	}
	return nil
}

type despawnOp struct {
	entities []Entity
}

func (op despawnOp) Apply(sto Storage) error {
	if err := sto.DestroyEntities(op.entities...); err != nil {
		return fmt.Errorf("failed to delete queued entries: %w", err)
	}
	return nil
}

type componentOp struct {
	typ    operationType
	entity Entity
	comp   Component
}

func (op componentOp) Apply(sto Storage) error {
	// Entities destroyed after the op was queued are skipped.
	if !sto.Alive(op.entity) {
		return nil
	}
	switch op.typ {
	case opAddComponent:
		if err := sto.AddComponent(op.entity, op.comp); err != nil {
			return fmt.Errorf("failed to add queued component: %w", err)
		}
	case opRemoveComponent:
		if err := sto.RemoveComponent(op.entity, op.comp); err != nil {
			return fmt.Errorf("failed to remove queued component: %w", err)
		}
	}
	return nil
}

type opQueue struct {
	commands       []Command
	pendingDestroy map[Entity]struct{}
}

func newOpQueue() opQueue {
	return opQueue{
		pendingDestroy: make(map[Entity]struct{}),
	}
}

func (q *opQueue) enqueueOp(op Command) {
	q.commands = append(q.commands, op)
}

func (q *opQueue) Len() int {
	return len(q.commands)
}

// processOperationQueue applies queued commands strictly in FIFO order.
// Commands queued while draining run in the same pass. A failing command is
// logged and does not stop the rest of the batch.
func (s *storage) processOperationQueue() error {
	if len(s.opQueue.commands) == 0 {
		return nil
	}
	log := s.logger()
	var errs []error
	applied := 0
	for len(s.opQueue.commands) > 0 {
		cmd := s.opQueue.commands[0]
		s.opQueue.commands[0] = nil
		s.opQueue.commands = s.opQueue.commands[1:]
		applied++
		if err := cmd.Apply(s); err != nil {
			log.Warn("queued operation failed", zap.String("op", fmt.Sprintf("%T", cmd)), zap.Error(err))
			errs = append(errs, err)
		}
	}
	log.Debug("operation queue drained", zap.Int("applied", applied), zap.Int("failed", len(errs)))

	s.opQueue.commands = nil
	clear(s.opQueue.pendingDestroy)
	return errors.Join(errs...)
}

func (q *opQueue) EnqueueDestroy(entities []Entity) {
	// Filter out already queued entities
	var newEntities []Entity
	for _, entity := range entities {
		if _, exists := q.pendingDestroy[entity]; !exists {
			newEntities = append(newEntities, entity)
			q.pendingDestroy[entity] = struct{}{}
		}
	}

	if len(newEntities) > 0 {
		q.enqueueOp(despawnOp{entities: newEntities})
	}
}

func (q *opQueue) EnqueueComponentOp(typ operationType, entity Entity, comp Component) {
	// If entity is pending destroy, ignore component operations
	if _, isDestroyed := q.pendingDestroy[entity]; isDestroyed {
		return
	}
	q.enqueueOp(componentOp{
		typ:    typ,
		entity: entity,
		comp:   comp,
	})
}

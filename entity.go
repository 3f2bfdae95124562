package lineage

import (
	"fmt"
	"iter"

	"github.com/TheBitDrifter/table"
)

// Entity packs a slot index in the low 32 bits and the slot generation in
// the high 32 bits. Generations start at 1, so the zero Entity is never issued.
type Entity uint64

func newEntity(index, generation uint32) Entity {
	return Entity(uint64(generation)<<32 | uint64(index))
}

func (e Entity) Index() uint32      { return uint32(e) }
func (e Entity) Generation() uint32 { return uint32(e >> 32) }
func (e Entity) IsZero() bool       { return e == 0 }

func (e Entity) String() string {
	return fmt.Sprintf("%dv%d", e.Index(), e.Generation())
}

type slotState uint8

const (
	slotFree slotState = iota
	slotReserved
	slotLive
)

// slot keeps the entry id, never the entry itself: entries are values whose
// table and row go stale once the row moves.
type slot struct {
	id         table.EntryID
	generation uint32
	state      slotState
}

// entityPool hands out generational slots. A reserved slot has an id but no
// table row yet; it becomes live once materialized.
type entityPool struct {
	slots    []slot
	freeList []uint32
}

func (p *entityPool) reserve() Entity {
	if n := len(p.freeList); n > 0 {
		idx := p.freeList[n-1]
		p.freeList = p.freeList[:n-1]
		s := &p.slots[idx]
		s.state = slotReserved
		return newEntity(idx, s.generation)
	}
	idx := uint32(len(p.slots))
	p.slots = append(p.slots, slot{generation: 1, state: slotReserved})
	return newEntity(idx, 1)
}

func (p *entityPool) lookup(e Entity) (*slot, bool) {
	idx := e.Index()
	if e.IsZero() || int(idx) >= len(p.slots) {
		return nil, false
	}
	s := &p.slots[idx]
	if s.generation != e.Generation() || s.state == slotFree {
		return nil, false
	}
	return s, true
}

func (p *entityPool) live(e Entity) (*slot, bool) {
	s, ok := p.lookup(e)
	if !ok || s.state != slotLive {
		return nil, false
	}
	return s, true
}

func (p *entityPool) release(e Entity) {
	s, ok := p.lookup(e)
	if !ok {
		return
	}
	s.id = 0
	s.state = slotFree
	s.generation++
	p.freeList = append(p.freeList, e.Index())
}

func (p *entityPool) liveEntities() iter.Seq[Entity] {
	return func(yield func(Entity) bool) {
		for i := range p.slots {
			s := &p.slots[i]
			if s.state != slotLive {
				continue
			}
			if !yield(newEntity(uint32(i), s.generation)) {
				return
			}
		}
	}
}

// EntityHandle scopes the storage operations to a single entity.
type EntityHandle struct {
	entity Entity
	sto    Storage
}

// Handle returns an EntityHandle for e. The handle does not keep e alive.
func Handle(sto Storage, e Entity) EntityHandle {
	return EntityHandle{entity: e, sto: sto}
}

func (h EntityHandle) ID() Entity       { return h.entity }
func (h EntityHandle) Storage() Storage { return h.sto }
func (h EntityHandle) Alive() bool      { return h.sto.Alive(h.entity) }

func (h EntityHandle) AddComponent(c Component) error {
	return h.sto.AddComponent(h.entity, c)
}

func (h EntityHandle) RemoveComponent(c Component) error {
	return h.sto.RemoveComponent(h.entity, c)
}

func (h EntityHandle) EnqueueAddComponent(c Component) error {
	return h.sto.EnqueueAddComponent(h.entity, c)
}

func (h EntityHandle) EnqueueRemoveComponent(c Component) error {
	return h.sto.EnqueueRemoveComponent(h.entity, c)
}

func (h EntityHandle) AddChild(child Entity) error {
	return h.sto.AddChild(h.entity, child)
}

func (h EntityHandle) AddChildren(children ...Entity) error {
	return h.sto.AddChildren(h.entity, children...)
}

func (h EntityHandle) InsertChildren(index int, children ...Entity) error {
	return h.sto.InsertChildren(h.entity, index, children...)
}

func (h EntityHandle) RemoveChildren(children ...Entity) error {
	return h.sto.RemoveChildren(h.entity, children...)
}

func (h EntityHandle) SetParent(parent Entity) error {
	return h.sto.SetParent(h.entity, parent)
}

func (h EntityHandle) RemoveParent() error {
	return h.sto.RemoveParent(h.entity)
}

func (h EntityHandle) DespawnDescendants() error {
	return h.sto.DespawnDescendants(h.entity)
}

func (h EntityHandle) Despawn() error {
	return h.sto.DestroyEntities(h.entity)
}

func (h EntityHandle) WithChildren(build func(*ChildBuilder) error) error {
	return h.sto.WithChildren(h.entity, build)
}

func (h EntityHandle) Parent() (Entity, bool) {
	return h.sto.Parent(h.entity)
}

func (h EntityHandle) Children() []Entity {
	return h.sto.Children(h.entity)
}

package lineage

import (
	"errors"
	"fmt"

	"github.com/TheBitDrifter/mask"
	"github.com/TheBitDrifter/table"
	iter_util "github.com/TheBitDrifter/util/iter"
	"go.uber.org/zap"
)

var _ Storage = &storage{}

type storage struct {
	locks      int
	draining   bool
	schema     table.Schema
	entryIndex table.EntryIndex
	archetypes *archetypes
	opQueue    opQueue
	pool       entityPool
	hooks      []componentHook
	events     *EventBus
	building   map[Entity]struct{}
}

type componentHook struct {
	component Component
	row       uint32
	hook      RemoveHook
}

func newStorage(schema table.Schema) Storage {
	archetypes := &archetypes{
		nextID:           1,
		idsGroupedByMask: make(map[mask.Mask]archetypeID),
	}
	storage := &storage{
		archetypes: archetypes,
		schema:     schema,
		entryIndex: table.Factory.NewEntryIndex(),
		opQueue:    newOpQueue(),
		events:     NewEventBus(),
		building:   make(map[Entity]struct{}),
	}
	schema.Register(identityComponent)
	registerHierarchyHooks(storage)
	return storage
}

func (sto *storage) Entry(e Entity) (table.Entry, error) {
	s, ok := sto.pool.live(e)
	if !ok {
		return nil, EntityNotFoundError{Entity: e}
	}
	entry, err := sto.entryIndex.Entry(int(s.id) - 1)
	if err != nil {
		return nil, fmt.Errorf("entity %v: %w", e, err)
	}
	return entry, nil
}

func (sto *storage) Alive(e Entity) bool {
	_, ok := sto.pool.live(e)
	return ok
}

func (sto *storage) NewEntities(n int, components ...Component) ([]Entity, error) {
	if sto.Locked() {
		return nil, LockedStorageError{}
	}
	reserved := make([]Entity, n)
	for i := range reserved {
		reserved[i] = sto.pool.reserve()
	}
	if err := sto.materialize(reserved, components...); err != nil {
		for _, e := range reserved {
			sto.pool.release(e)
		}
		return nil, err
	}
	return reserved, nil
}

// materialize gives table rows to reserved entities. Entities that are no
// longer reserved (destroyed before their spawn was applied) are skipped.
func (sto *storage) materialize(reserved []Entity, components ...Component) error {
	pending := reserved[:0:0]
	for _, e := range reserved {
		if s, ok := sto.pool.lookup(e); ok && s.state == slotReserved {
			pending = append(pending, e)
		}
	}
	if len(pending) == 0 {
		return nil
	}

	comps := sto.uniqueComponents(append([]Component{identityComponent}, components...))
	var entityMask mask.Mask
	for _, component := range comps {
		entityMask.Mark(sto.schema.RowIndexFor(component))
	}
	entityArchetype, err := sto.archetypes.forMask(entityMask, sto.schema, sto.entryIndex, comps)
	if err != nil {
		return fmt.Errorf("failed to get/create archetype: %w", err)
	}
	entries, err := entityArchetype.table.NewEntries(len(pending))
	if err != nil {
		return err
	}
	for i, entry := range entries {
		s, _ := sto.pool.lookup(pending[i])
		s.id = entry.ID()
		s.state = slotLive
		identityComponent.GetFromEntry(entry).entity = pending[i]
	}
	return nil
}

func (sto *storage) EnqueueNewEntities(n int, components ...Component) ([]Entity, error) {
	if !sto.Locked() {
		entities, err := sto.NewEntities(n, components...)
		if err != nil {
			return nil, fmt.Errorf("failed to create entities directly: %w", err)
		}
		return entities, nil
	}
	reserved := make([]Entity, n)
	for i := range reserved {
		reserved[i] = sto.pool.reserve()
	}
	sto.opQueue.enqueueOp(spawnOp{entities: reserved, comps: components})
	return reserved, nil
}

func (sto *storage) DestroyEntities(entities ...Entity) error {
	if sto.Locked() {
		return LockedStorageError{}
	}
	for _, e := range entities {
		if err := sto.destroy(e); err != nil {
			return err
		}
	}
	return sto.flush()
}

// destroy runs the removal hooks of every hooked component e carries, then
// frees e's row and slot. Unknown and already destroyed entities are ignored.
func (sto *storage) destroy(e Entity) error {
	s, ok := sto.pool.lookup(e)
	if !ok {
		return nil
	}
	if s.state == slotReserved {
		sto.pool.release(e)
		return nil
	}
	for _, h := range sto.hooks {
		if sto.HasComponent(e, h.component) {
			h.hook(sto, e)
		}
	}
	entry, err := sto.Entry(e)
	if err != nil {
		return err
	}
	if _, err := entry.Table().DeleteEntries(entry.Index()); err != nil {
		return fmt.Errorf("failed to delete entries: %w", err)
	}
	sto.pool.release(e)
	return nil
}

func (sto *storage) EnqueueDestroyEntities(entities ...Entity) error {
	if !sto.Locked() {
		return sto.DestroyEntities(entities...)
	}
	sto.opQueue.EnqueueDestroy(entities)
	return nil
}

func (sto *storage) HasComponent(e Entity, c Component) bool {
	entry, err := sto.Entry(e)
	return err == nil && entry.Table().Contains(c)
}

func (sto *storage) AddComponent(e Entity, c Component) error {
	if sto.Locked() {
		return LockedStorageError{}
	}
	entry, err := sto.Entry(e)
	if err != nil {
		return err
	}
	originTable := entry.Table()
	if originTable.Contains(c) {
		return ComponentExistsError{Component: c}
	}

	sto.schema.Register(c)
	destMask := originTable.(mask.Maskable).Mask()
	destMask.Mark(sto.schema.RowIndexFor(c))

	comps := append(tableComponents(originTable), c)
	destArchetype, err := sto.archetypes.forMask(destMask, sto.schema, sto.entryIndex, comps)
	if err != nil {
		return fmt.Errorf("failed to get/create archetype: %w", err)
	}
	if err := originTable.TransferEntries(destArchetype.table, entry.Index()); err != nil {
		return fmt.Errorf("failed to transfer entity: %w", err)
	}
	return nil
}

func (sto *storage) RemoveComponent(e Entity, c Component) error {
	if sto.Locked() {
		return LockedStorageError{}
	}
	if err := sto.removeComponent(e, c); err != nil {
		return err
	}
	return sto.flush()
}

func (sto *storage) removeComponent(e Entity, c Component) error {
	entry, err := sto.Entry(e)
	if err != nil {
		return err
	}
	if !entry.Table().Contains(c) {
		return ComponentNotFoundError{Component: c}
	}
	row := sto.schema.RowIndexFor(c)
	for _, h := range sto.hooks {
		if h.row == row {
			h.hook(sto, e)
		}
	}

	// Hooks may have moved rows; resolve the entry again.
	if entry, err = sto.Entry(e); err != nil {
		return err
	}
	originTable := entry.Table()
	destMask := originTable.(mask.Maskable).Mask()
	destMask.Unmark(row)

	comps := make([]Component, 0, 4)
	for _, comp := range tableComponents(originTable) {
		if sto.schema.RowIndexFor(comp) != row {
			comps = append(comps, comp)
		}
	}
	destArchetype, err := sto.archetypes.forMask(destMask, sto.schema, sto.entryIndex, comps)
	if err != nil {
		return fmt.Errorf("failed to get/create archetype: %w", err)
	}
	if err := originTable.TransferEntries(destArchetype.table, entry.Index()); err != nil {
		return fmt.Errorf("failed to transfer entity: %w", err)
	}
	return nil
}

func (sto *storage) EnqueueAddComponent(e Entity, c Component) error {
	if !sto.Locked() {
		return sto.AddComponent(e, c)
	}
	sto.opQueue.EnqueueComponentOp(opAddComponent, e, c)
	return nil
}

func (sto *storage) EnqueueRemoveComponent(e Entity, c Component) error {
	if !sto.Locked() {
		return sto.RemoveComponent(e, c)
	}
	sto.opQueue.EnqueueComponentOp(opRemoveComponent, e, c)
	return nil
}

func (sto *storage) OnRemove(c Component, hook RemoveHook) {
	sto.schema.Register(c)
	sto.hooks = append(sto.hooks, componentHook{
		component: c,
		row:       sto.schema.RowIndexFor(c),
		hook:      hook,
	})
}

// Enqueue applies the commands in order when the storage is unlocked and
// defers them to Unlock otherwise.
func (sto *storage) Enqueue(commands ...Command) error {
	if sto.Locked() {
		for _, cmd := range commands {
			sto.opQueue.enqueueOp(cmd)
		}
		return nil
	}
	var errs []error
	for _, cmd := range commands {
		if err := cmd.Apply(sto); err != nil {
			errs = append(errs, err)
		}
	}
	if err := sto.flush(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (sto *storage) Events() *EventBus {
	return sto.events
}

// RowIndexFor registers c on first use, so queries may name components no
// entity carries yet.
func (sto *storage) RowIndexFor(c Component) uint32 {
	sto.schema.Register(c)
	return sto.schema.RowIndexFor(c)
}

func (sto *storage) Locked() bool {
	return sto.locks > 0
}

func (sto *storage) Lock() {
	sto.locks++
}

func (sto *storage) Unlock() {
	if sto.locks == 0 {
		return
	}
	sto.locks--
	if sto.locks > 0 {
		return
	}
	err := sto.flush()
	if err != nil {
		panic(err)
	}
}

// flush drains deferred operations, including those pushed by hooks while
// draining. Nested calls return at once so the outer loop keeps FIFO order.
func (sto *storage) flush() error {
	if sto.Locked() || sto.draining {
		return nil
	}
	sto.draining = true
	defer func() { sto.draining = false }()
	return sto.processOperationQueue()
}

// guard rejects structural edits of parent that cannot run right now.
func (sto *storage) guard(parent Entity) error {
	if sto.Locked() {
		return LockedStorageError{}
	}
	if _, busy := sto.building[parent]; busy {
		return ParentBusyError{Parent: parent}
	}
	return nil
}

func (sto *storage) logger() *zap.Logger {
	return Config.Logger()
}

func tableComponents(tbl table.Table) []Component {
	elementTypes := iter_util.Collect(tbl.ElementTypes())
	comps := make([]Component, len(elementTypes))
	for i, et := range elementTypes {
		comps[i] = et
	}
	return comps
}

// uniqueComponents registers comps and drops repeats, comparing schema rows.
func (sto *storage) uniqueComponents(comps []Component) []Component {
	out := comps[:0:0]
	seen := make(map[uint32]struct{}, len(comps))
	for _, c := range comps {
		sto.schema.Register(c)
		row := sto.schema.RowIndexFor(c)
		if _, dup := seen[row]; dup {
			continue
		}
		seen[row] = struct{}{}
		out = append(out, c)
	}
	return out
}

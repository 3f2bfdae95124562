package lineage

import (
	"iter"

	"github.com/TheBitDrifter/table"
)

var _ iCursor = &Cursor{}

// newCursor binds query to storage. The storage stays locked from the first
// Next until iteration ends, so structural edits made meanwhile must be
// enqueued.
func newCursor(query QueryNode, sto Storage) *Cursor {
	return &Cursor{
		query:   query,
		storage: sto.(*storage),
	}
}

func (c *Cursor) Next() bool {
	if c.entityIndex < c.remaining {
		c.entityIndex++
		return true
	}
	return c.advance()
}

func (c *Cursor) advance() bool {
	if !c.initialized {
		c.initialize()
	}
	for c.storageIndex < len(c.matchedStorages) {
		c.currentArchetype = c.matchedStorages[c.storageIndex]
		c.remaining = c.currentArchetype.table.Length()

		if c.entityIndex < c.remaining {
			c.entityIndex++
			return true
		}
		c.storageIndex++
		c.entityIndex = 0
	}
	c.Reset()
	return false
}

// Entity returns the entity at the cursor position.
func (c *Cursor) Entity() Entity {
	return identityComponent.GetFromCursor(c).entity
}

// Entities yields the row index and table of every match. Component getters
// that take the cursor stay valid inside the loop.
func (c *Cursor) Entities() iter.Seq2[int, table.Table] {
	return func(yield func(int, table.Table) bool) {
		c.initialize()

		for c.storageIndex < len(c.matchedStorages) {
			c.currentArchetype = c.matchedStorages[c.storageIndex]
			c.remaining = c.currentArchetype.table.Length()

			for c.entityIndex < c.remaining {
				c.entityIndex++
				if !yield(c.entityIndex-1, c.currentArchetype.table) {
					c.Reset()
					return
				}
			}
			c.entityIndex = 0
			c.storageIndex++
		}
		c.Reset()
	}
}

func (c *Cursor) initialize() {
	if c.initialized {
		return
	}
	c.matchedStorages = make([]archetype, 0)

	for _, arch := range c.storage.archetypes.asSlice {
		if c.query.Evaluate(arch, c.storage) {
			c.matchedStorages = append(c.matchedStorages, arch)
		}
	}
	if len(c.matchedStorages) > 0 {
		c.storageIndex = 0
		c.currentArchetype = c.matchedStorages[0]
		c.remaining = c.currentArchetype.table.Length()
	}
	c.initialized = true
	c.storage.Lock()
}

// Reset rewinds the cursor and releases its lock, which applies any
// operations enqueued during iteration.
func (c *Cursor) Reset() {
	wasInitialized := c.initialized
	c.storageIndex = 0
	c.entityIndex = 0
	c.remaining = 0
	c.matchedStorages = nil
	c.initialized = false
	if wasInitialized {
		c.storage.Unlock()
	}
}

func (c *Cursor) CurrentEntity() (int, table.Table) {
	return c.entityIndex, c.currentArchetype.table
}

func (c *Cursor) RemainingInArchetype() int {
	return c.remaining - c.entityIndex
}

// TotalMatched counts matching entities without starting an iteration.
func (c *Cursor) TotalMatched() int {
	total := 0
	for _, arch := range c.storage.archetypes.asSlice {
		if c.query.Evaluate(arch, c.storage) {
			total += arch.table.Length()
		}
	}
	return total
}

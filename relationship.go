package lineage

import "slices"

// Parent is carried by a child and names the entity whose Children list
// holds it.
type Parent struct {
	entity Entity
}

func (p Parent) Get() Entity { return p.entity }

// Children is carried by a parent. It is never empty: the component is
// removed together with the last child.
type Children struct {
	entities []Entity
}

func (c Children) Len() int { return len(c.entities) }

func (c Children) Contains(e Entity) bool {
	return slices.Contains(c.entities, e)
}

// Entities returns a copy of the ordered child list.
func (c Children) Entities() []Entity {
	return slices.Clone(c.entities)
}

func (c *Children) retain(keep func(Entity) bool) {
	c.entities = slices.DeleteFunc(c.entities, func(e Entity) bool { return !keep(e) })
}

var (
	ParentComponent   = FactoryNewComponent[Parent]()
	ChildrenComponent = FactoryNewComponent[Children]()
)

package lineage

import (
	"github.com/TheBitDrifter/mask"
	"github.com/TheBitDrifter/table"
)

type archetypeID uint32

type archetype struct {
	id    archetypeID
	table table.Table
}

type archetypes struct {
	nextID           archetypeID
	asSlice          []archetype
	idsGroupedByMask map[mask.Mask]archetypeID
}

func newArchetype(schema table.Schema, entryIndex table.EntryIndex, id archetypeID, components ...Component) (archetype, error) {
	elementTypes := make([]table.ElementType, len(components))
	for i, comp := range components {
		elementTypes[i] = comp
	}
	tbl, err := table.NewTableBuilder().
		WithSchema(schema).
		WithEntryIndex(entryIndex).
		WithElementTypes(elementTypes...).
		WithEvents(Config.tableEvents).
		Build()
	if err != nil {
		return archetype{}, err
	}
	return archetype{
		table: tbl,
		id:    id,
	}, nil
}

// forMask returns the archetype registered for m, building it from
// components when the signature has not been seen before.
func (a *archetypes) forMask(m mask.Mask, schema table.Schema, entryIndex table.EntryIndex, components []Component) (archetype, error) {
	if id, found := a.idsGroupedByMask[m]; found {
		return a.asSlice[id-1], nil
	}
	created, err := newArchetype(schema, entryIndex, a.nextID, components...)
	if err != nil {
		return archetype{}, err
	}
	a.asSlice = append(a.asSlice, created)
	a.idsGroupedByMask[m] = a.nextID
	a.nextID++
	return created, nil
}

func (a archetype) ID() uint32 {
	return uint32(a.id)
}

func (a archetype) Table() table.Table {
	return a.table
}

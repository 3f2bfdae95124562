package scene

import (
	"fmt"
	"io"
	"slices"

	"github.com/TheBitDrifter/lineage"
	"github.com/mattn/go-runewidth"
)

type row struct {
	text string
	id   string
}

// Fprint writes the scene's forest to w, one node per line with its id in
// an aligned column. Trees are ordered by root entity, children in list
// order.
func (sc *Scene) Fprint(w io.Writer) error {
	var rows []row
	for _, root := range sc.tops() {
		rows = sc.appendTree(rows, root, "", "")
	}

	width := 0
	for _, r := range rows {
		width = max(width, runewidth.StringWidth(r.text))
	}
	for _, r := range rows {
		if _, err := fmt.Fprintf(w, "%s  %s\n", runewidth.FillRight(r.text, width), r.id); err != nil {
			return err
		}
	}
	return nil
}

// tops returns the labeled entities without a parent.
func (sc *Scene) tops() []lineage.Entity {
	query := lineage.Factory.NewQuery()
	node := query.And(LabelComponent, query.Not(lineage.ParentComponent))
	cursor := lineage.Factory.NewCursor(node, sc.sto)

	var tops []lineage.Entity
	for cursor.Next() {
		tops = append(tops, cursor.Entity())
	}
	slices.SortFunc(tops, func(a, b lineage.Entity) int { return int(a.Index()) - int(b.Index()) })
	return tops
}

func (sc *Scene) appendTree(rows []row, e lineage.Entity, lead, branch string) []row {
	name, id := e.String(), "-"
	if l, err := LabelComponent.GetFromEntity(sc.sto, e); err == nil {
		name, id = l.Name, l.ID.String()
	}
	rows = append(rows, row{text: lead + branch + name, id: id})

	children := sc.sto.Children(e)
	next := lead
	switch branch {
	case "├─ ":
		next += "│  "
	case "└─ ":
		next += "   "
	}
	for i, child := range children {
		b := "├─ "
		if i == len(children)-1 {
			b = "└─ "
		}
		rows = sc.appendTree(rows, child, next, b)
	}
	return rows
}

// Describe renders ev with scene paths in place of raw entity ids.
func (sc *Scene) Describe(ev lineage.HierarchyEvent) string {
	switch ev := ev.(type) {
	case lineage.ChildAdded:
		return fmt.Sprintf("added   %s -> %s", sc.Name(ev.Child), sc.Name(ev.Parent))
	case lineage.ChildRemoved:
		return fmt.Sprintf("removed %s from %s", sc.Name(ev.Child), sc.Name(ev.Parent))
	case lineage.ChildMoved:
		return fmt.Sprintf("moved   %s: %s -> %s", sc.Name(ev.Child), sc.Name(ev.PreviousParent), sc.Name(ev.NewParent))
	}
	return ev.String()
}

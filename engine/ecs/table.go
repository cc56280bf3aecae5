package ecs

import (
	"reflect"
	"slices"
	"strconv"
	"strings"
	"unsafe"
)

// column stores the values of one data-carrying component for every row of
// a table. The backing slice is a reflect.Value so tables stay untyped.
type column struct {
	info *componentInfo
	data reflect.Value
}

func newColumn(ci *componentInfo) *column {
	return &column{
		info: ci,
		data: reflect.MakeSlice(reflect.SliceOf(ci.typ), 0, 4),
	}
}

func (c *column) pointer(row int) unsafe.Pointer {
	return c.data.Index(row).Addr().UnsafePointer()
}

func (c *column) appendZero() {
	c.data = reflect.Append(c.data, reflect.Zero(c.info.typ))
}

func (c *column) appendFrom(src *column, row int) {
	c.data = reflect.Append(c.data, src.data.Index(row))
}

// swapRemove moves the last value into row and shrinks the column.
func (c *column) swapRemove(row int) {
	last := c.data.Len() - 1
	if row != last {
		c.data.Index(row).Set(c.data.Index(last))
	}
	c.data.Index(last).Set(reflect.Zero(c.info.typ))
	c.data = c.data.Slice(0, last)
}

// table is an archetype: every entity stored in it has exactly the same
// sorted set of ids.
type table struct {
	index    int
	ids      []Entity
	columns  []*column // parallel to ids, nil for tags and pairs
	entities []Entity

	addEdges    map[Entity]*table
	removeEdges map[Entity]*table
}

func tableKey(ids []Entity) string {
	var sb strings.Builder
	for i, id := range ids {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.FormatUint(uint64(id), 16))
	}
	return sb.String()
}

func (w *World) tableFor(ids []Entity) *table {
	key := tableKey(ids)
	if t, ok := w.tableIndex[key]; ok {
		return t
	}
	t := &table{
		index:       len(w.tables),
		ids:         ids,
		columns:     make([]*column, len(ids)),
		addEdges:    make(map[Entity]*table),
		removeEdges: make(map[Entity]*table),
	}
	for i, id := range ids {
		if ci, ok := w.components[id]; ok && ci.size > 0 {
			t.columns[i] = newColumn(ci)
		}
	}
	w.tables = append(w.tables, t)
	w.tableIndex[key] = t
	return t
}

func (t *table) count() int {
	return len(t.entities)
}

// find returns the position of the first id matching requested, or -1.
func (t *table) find(requested Entity) int {
	if requested.IsPair() && requested.Second() == Wildcard {
		for i, id := range t.ids {
			if matchesID(requested, id) {
				return i
			}
		}
		return -1
	}
	if i, ok := slices.BinarySearch(t.ids, requested); ok {
		return i
	}
	return -1
}

func (w *World) tableWith(t *table, id Entity) *table {
	if next, ok := t.addEdges[id]; ok {
		return next
	}
	ids := make([]Entity, 0, len(t.ids)+1)
	ids = append(ids, t.ids...)
	ids = append(ids, id)
	slices.Sort(ids)
	next := w.tableFor(ids)
	t.addEdges[id] = next
	next.removeEdges[id] = t
	return next
}

func (w *World) tableWithout(t *table, id Entity) *table {
	if next, ok := t.removeEdges[id]; ok {
		return next
	}
	ids := make([]Entity, 0, len(t.ids))
	for _, existing := range t.ids {
		if existing != id {
			ids = append(ids, existing)
		}
	}
	next := w.tableFor(ids)
	t.removeEdges[id] = next
	next.addEdges[id] = t
	return next
}

// appendRow adds e to t with zero values in every column.
func (w *World) appendRow(t *table, e Entity) int {
	row := len(t.entities)
	t.entities = append(t.entities, e)
	for _, c := range t.columns {
		if c != nil {
			c.appendZero()
		}
	}
	return row
}

// removeRow deletes row from t, keeping the moved entity's record current.
func (w *World) removeRow(t *table, row int) {
	last := len(t.entities) - 1
	for _, c := range t.columns {
		if c != nil {
			c.swapRemove(row)
		}
	}
	if row != last {
		moved := t.entities[last]
		t.entities[row] = moved
		w.records[moved].row = row
	}
	t.entities = t.entities[:last]
}

// moveEntity relocates e to dst, copying shared values. Hooks never run here.
func (w *World) moveEntity(e Entity, dst *table) {
	rec := w.records[e]
	src := rec.table
	if src == dst {
		return
	}
	row := len(dst.entities)
	dst.entities = append(dst.entities, e)
	for i, c := range dst.columns {
		if c == nil {
			continue
		}
		if j := src.find(dst.ids[i]); j >= 0 && src.columns[j] != nil {
			c.appendFrom(src.columns[j], rec.row)
		} else {
			c.appendZero()
		}
	}
	w.removeRow(src, rec.row)
	rec.table = dst
	rec.row = row
}

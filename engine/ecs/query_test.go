package ecs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type position3 [3]float32

type scale float32

type fixture struct {
	w      *World
	pos2   Entity
	pos3   Entity
	scale  Entity
	uses   Entity
	handle Entity
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	w := NewWorld()
	t.Cleanup(w.Fini)
	return &fixture{
		w:      w,
		pos2:   Register[position](w, "Position2D"),
		pos3:   Register[position3](w, "Position3D"),
		scale:  Register[scale](w, "Scale"),
		uses:   Tag(w, "Uses"),
		handle: Register[handle](w, "Handle"),
	}
}

func TestQueryOrChain(t *testing.T) {
	f := newFixture(t)
	a, b, c := f.w.New(), f.w.New(), f.w.New()
	require.NoError(t, Set(f.w, a, position{1, 2}))
	require.NoError(t, Set(f.w, b, position3{1, 2, 3}))
	require.NoError(t, Set(f.w, c, scale(2)))

	q, err := f.w.Query(QueryDesc{Terms: []Term{
		{ID: f.pos2, Oper: Or},
		{ID: f.pos3},
		{ID: f.scale, Oper: Optional},
	}})
	require.NoError(t, err)

	seen := map[Entity]bool{}
	it := q.Iter()
	for it.Next() {
		require.Equal(t, 1, it.Count)
		e := it.Entities[0]
		seen[e] = true
		switch e {
		case a:
			assert.True(t, it.IsSet(0))
			assert.False(t, it.IsSet(1))
			assert.Equal(t, []position{{1, 2}}, Field[position](it, 0))
			assert.Nil(t, Field[position3](it, 1))
		case b:
			assert.False(t, it.IsSet(0))
			assert.True(t, it.IsSet(1))
			assert.Equal(t, position3{1, 2, 3}, Field[position3](it, 1)[0])
		}
		assert.False(t, it.IsSet(2))
		assert.Nil(t, Field[scale](it, 2))
	}
	assert.Equal(t, map[Entity]bool{a: true, b: true}, seen)
}

func TestQueryOrChainMatchesTablesCreatedLater(t *testing.T) {
	f := newFixture(t)
	q, err := f.w.Query(QueryDesc{Terms: []Term{
		{ID: f.pos2, Oper: Or},
		{ID: f.pos3},
		{ID: f.handle},
	}})
	require.NoError(t, err)
	assert.Equal(t, 0, q.Count())

	a, b, c := f.w.New(), f.w.New(), f.w.New()
	require.NoError(t, Set(f.w, a, position{1, 2}))
	require.NoError(t, Set(f.w, a, handle{ID: 1}))
	require.NoError(t, Set(f.w, b, position3{1, 2, 3}))
	require.NoError(t, Set(f.w, b, handle{ID: 2}))
	require.NoError(t, Set(f.w, c, handle{ID: 3}))

	var ids []uint32
	it := q.Iter()
	for it.Next() {
		for _, h := range Field[handle](it, 2) {
			ids = append(ids, h.ID)
		}
	}
	assert.ElementsMatch(t, []uint32{1, 2}, ids)
}

func TestQueryNot(t *testing.T) {
	f := newFixture(t)
	a, b := f.w.New(), f.w.New()
	require.NoError(t, Set(f.w, a, position{}))
	require.NoError(t, Set(f.w, b, position{}))
	require.NoError(t, Set(f.w, b, handle{ID: 1}))

	q, err := f.w.Query(QueryDesc{Terms: []Term{
		{ID: f.pos2},
		{ID: f.handle, Oper: Not},
	}})
	require.NoError(t, err)

	it := q.Iter()
	require.True(t, it.Next())
	assert.Equal(t, []Entity{a}, it.Entities)
	assert.False(t, it.Next())
}

func TestQueryFixedSource(t *testing.T) {
	f := newFixture(t)
	shared := f.w.New()
	require.NoError(t, Set(f.w, shared, scale(3)))
	for i := 0; i < 2; i++ {
		require.NoError(t, Set(f.w, f.w.New(), position{float32(i), 0}))
	}

	q, err := f.w.Query(QueryDesc{Terms: []Term{
		{ID: f.pos2},
		{ID: f.scale, Src: shared},
	}})
	require.NoError(t, err)

	it := q.Iter()
	require.True(t, it.Next())
	assert.Equal(t, 2, it.Count)
	assert.Len(t, Field[position](it, 0), 2)
	assert.Equal(t, []scale{3}, Field[scale](it, 1))
	assert.True(t, it.IsSelf(0))
	assert.False(t, it.IsSelf(1))
	assert.Equal(t, shared, it.Src(1))
	assert.Equal(t, float32(3), *(*float32)(it.FieldPointer(1, 1)))

	require.NoError(t, f.w.Remove(shared, f.scale))
	assert.Zero(t, q.Count())
}

func TestQueryVariableSource(t *testing.T) {
	f := newFixture(t)
	program := f.w.New()
	mesh := f.w.New()
	require.NoError(t, Set(f.w, mesh, handle{ID: 42}))

	e := f.w.New()
	require.NoError(t, Set(f.w, e, position{}))
	require.NoError(t, f.w.Add(e, Pair(f.uses, program)))
	require.NoError(t, f.w.Add(e, Pair(f.uses, mesh)))

	// An entity using only the program has no mesh to bind.
	other := f.w.New()
	require.NoError(t, Set(f.w, other, position{}))
	require.NoError(t, f.w.Add(other, Pair(f.uses, program)))

	q, err := f.w.Query(QueryDesc{Terms: []Term{
		{ID: f.pos2},
		{ID: Pair(f.uses, program)},
		{ID: Pair(f.uses, Wildcard), TargetVar: "mesh"},
		{ID: f.handle, SrcVar: "mesh"},
	}})
	require.NoError(t, err)

	it := q.Iter()
	require.True(t, it.Next())
	assert.Equal(t, []Entity{e}, it.Entities)
	assert.Equal(t, mesh, it.Var("mesh"))
	assert.Equal(t, Pair(f.uses, mesh), it.FieldID(2))
	assert.Equal(t, []handle{{ID: 42}}, Field[handle](it, 3))
	assert.False(t, it.Next())
}

func TestQueryValidation(t *testing.T) {
	f := newFixture(t)

	terms := make([]Term, MaxTermCount+1)
	for i := range terms {
		terms[i] = Term{ID: f.pos2, Oper: Optional}
	}
	_, err := f.w.Query(QueryDesc{Terms: terms})
	assert.ErrorIs(t, err, ErrTooManyTerms)

	_, err = f.w.Query(QueryDesc{Terms: terms[:MaxTermCount]})
	assert.NoError(t, err)

	_, err = f.w.Query(QueryDesc{Terms: []Term{{ID: f.pos2, Oper: Or}}})
	assert.ErrorIs(t, err, ErrInvalidTerm)

	_, err = f.w.Query(QueryDesc{Terms: []Term{{ID: f.handle, SrcVar: "mesh"}}})
	assert.ErrorIs(t, err, ErrInvalidTerm)
}

func TestQueryPicksUpNewTables(t *testing.T) {
	f := newFixture(t)
	q, err := f.w.Query(QueryDesc{Terms: []Term{{ID: f.pos2}}})
	require.NoError(t, err)
	assert.Zero(t, q.Count())

	e := f.w.New()
	require.NoError(t, Set(f.w, e, position{}))
	require.NoError(t, Set(f.w, e, scale(1)))
	assert.Equal(t, 1, q.Count())

	q.Fini()
	assert.Zero(t, q.Count())
}

func TestProgressRunsPhasesInOrder(t *testing.T) {
	w := NewWorld()
	defer w.Fini()
	pos := Register[position](w, "Position")

	var order []string
	_, err := w.System(SystemDesc{Name: "store", Phase: OnStore, Callback: func(*Iter) { order = append(order, "store") }})
	require.NoError(t, err)
	_, err = w.System(SystemDesc{Name: "load", Phase: OnLoad, Callback: func(it *Iter) {
		order = append(order, "load")
		e := it.World.New()
		require.NoError(t, Set(it.World, e, position{1, 1}))
		assert.False(t, it.World.Has(e, pos), "structural changes are deferred inside systems")
	}})
	require.NoError(t, err)

	matched := 0
	_, err = w.System(SystemDesc{
		Name:  "move",
		Phase: OnUpdate,
		Query: &QueryDesc{Terms: []Term{{ID: pos, InOut: InOutDefault}}},
		Callback: func(it *Iter) {
			order = append(order, "move")
			for i := range Field[position](it, 0) {
				Field[position](it, 0)[i][0] += it.DeltaTime
			}
			matched += it.Count
		},
	})
	require.NoError(t, err)

	assert.True(t, w.Progress(0.5))
	assert.Equal(t, []string{"load", "move", "store"}, order)
	assert.Equal(t, 1, matched)
	assert.Equal(t, float32(0.5), w.WorldTime())

	w.Quit()
	assert.False(t, w.Progress(0.5))
}

package ecs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type position [2]float32

type velocity struct {
	X, Y float32
}

type handle struct {
	ID uint32
}

func TestRegisterInfersDataType(t *testing.T) {
	w := NewWorld()
	defer w.Fini()

	pos := Register[position](w, "Position")
	vel := Register[velocity](w, "Velocity")
	speed := Register[float32](w, "Speed")
	color := Register[struct{ R, G, B, A float32 }](w, "Color", IsA(DataTypeVec4))

	assert.Equal(t, DataTypeVec2, w.DataTypeOf(pos))
	assert.Equal(t, DataTypeNone, w.DataTypeOf(vel))
	assert.Equal(t, DataTypeF32, w.DataTypeOf(speed))
	assert.Equal(t, DataTypeVec4, w.DataTypeOf(color))
	assert.Equal(t, pos, w.Lookup("Position"))
	assert.Equal(t, pos, Register[position](w, "Position"))
	assert.Zero(t, w.Lookup("position"), "lookups are case-sensitive")
}

func TestIsAMustMatchTheSize(t *testing.T) {
	w := NewWorld()
	defer w.Fini()

	speed := Register[float32](w, "Speed", IsA(DataTypeVec4))
	pos := Register[position](w, "Position", IsA(DataTypeMat4))
	vel := Register[velocity](w, "Velocity", IsA(DataTypeVec2))

	assert.Equal(t, DataTypeNone, w.DataTypeOf(speed))
	assert.Equal(t, DataTypeNone, w.DataTypeOf(pos))
	assert.Equal(t, DataTypeVec2, w.DataTypeOf(vel))
}

func TestSetGetRemove(t *testing.T) {
	w := NewWorld()
	defer w.Fini()
	pos := Register[position](w, "Position")
	vel := Register[velocity](w, "Velocity")

	a, b := w.New(), w.New()
	require.NoError(t, Set(w, a, position{1, 2}))
	require.NoError(t, Set(w, b, position{3, 4}))
	require.NoError(t, Set(w, a, velocity{5, 6}))

	assert.Equal(t, position{1, 2}, *Get[position](w, a))
	assert.Equal(t, position{3, 4}, *Get[position](w, b))
	assert.Equal(t, velocity{5, 6}, *Get[velocity](w, a))
	assert.Nil(t, Get[velocity](w, b))

	require.NoError(t, w.Remove(a, pos))
	assert.False(t, w.Has(a, pos))
	assert.True(t, w.Has(a, vel))
	assert.Equal(t, velocity{5, 6}, *Get[velocity](w, a))
	assert.Equal(t, position{3, 4}, *Get[position](w, b))
}

func TestHooksRunOnReplaceAndDelete(t *testing.T) {
	w := NewWorld()
	defer w.Fini()

	var events []string
	SetHooks(w, Hooks[handle]{
		Ctor:  func(v *handle) { v.ID = 99 },
		OnAdd: func(_ *World, _ Entity, v *handle) { events = append(events, "add") },
		OnSet: func(_ *World, _ Entity, v *handle) { events = append(events, "set") },
		OnRemove: func(_ *World, _ Entity, v *handle) {
			events = append(events, "remove")
			assert.NotZero(t, v.ID)
		},
	})

	e := w.New()
	require.NoError(t, Set(w, e, handle{ID: 1}))
	require.NoError(t, Set(w, e, handle{ID: 2}))
	require.NoError(t, w.Delete(e))

	assert.Equal(t, []string{"add", "set", "remove", "set", "remove"}, events)
	assert.False(t, w.IsAlive(e))

	f := w.New()
	require.NoError(t, w.Add(f, Id[handle](w)))
	assert.Equal(t, uint32(99), Get[handle](w, f).ID)
}

func TestFiniRunsRemoveHooks(t *testing.T) {
	w := NewWorld()
	removed := 0
	SetHooks(w, Hooks[handle]{
		OnRemove: func(_ *World, _ Entity, _ *handle) { removed++ },
	})
	for i := 0; i < 3; i++ {
		require.NoError(t, Set(w, w.New(), handle{ID: uint32(i + 1)}))
	}
	w.Fini()
	assert.Equal(t, 3, removed)
}

func TestDeleteRemovesPairs(t *testing.T) {
	w := NewWorld()
	defer w.Fini()
	uses := Tag(w, "Uses")
	target := w.New()
	holder := w.New()

	require.NoError(t, w.Add(holder, Pair(uses, target)))
	assert.True(t, w.Has(holder, Pair(uses, Wildcard)))
	assert.Equal(t, target, w.Target(holder, uses))

	require.NoError(t, w.Delete(target))
	assert.True(t, w.IsAlive(holder))
	assert.False(t, w.Has(holder, Pair(uses, Wildcard)))
}

func TestDeferredChanges(t *testing.T) {
	w := NewWorld()
	defer w.Fini()
	pos := Register[position](w, "Position")
	e := w.New()

	w.DeferBegin()
	require.NoError(t, Set(w, e, position{1, 1}))
	assert.False(t, w.Has(e, pos))
	require.NoError(t, w.Delete(e))
	assert.True(t, w.IsAlive(e))
	w.DeferEnd()

	assert.False(t, w.IsAlive(e))
}

func TestNamesAreUnique(t *testing.T) {
	w := NewWorld()
	defer w.Fini()
	e, err := w.NewNamed("camera")
	require.NoError(t, err)
	assert.Equal(t, "camera", w.Name(e))

	_, err = w.NewNamed("camera")
	assert.ErrorIs(t, err, ErrNameInUse)

	require.NoError(t, w.Delete(e))
	assert.Zero(t, w.Lookup("camera"))
}

func TestSingleton(t *testing.T) {
	w := NewWorld()
	defer w.Fini()
	assert.Nil(t, Singleton[velocity](w))
	require.NoError(t, SetSingleton(w, velocity{1, 2}))
	assert.Equal(t, velocity{1, 2}, *Singleton[velocity](w))
}

func TestPairEncoding(t *testing.T) {
	p := Pair(7, 9)
	assert.True(t, p.IsPair())
	assert.Equal(t, Entity(7), p.First())
	assert.Equal(t, Entity(9), p.Second())
	assert.True(t, matchesID(Pair(7, Wildcard), p))
	assert.False(t, matchesID(Pair(8, Wildcard), p))
	assert.False(t, Entity(7).IsPair())
}

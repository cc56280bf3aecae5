// Package ecs is the small entity component store the renderer is built on.
//
// It provides typed component storage in archetype tables, tags and
// relationship pairs, lifecycle hooks, queries assembled from term
// descriptors and a phased system pipeline. Everything runs on the caller's
// goroutine; a World must not be shared between goroutines.
package ecs

import (
	"errors"
	"fmt"
)

// Entity identifies an entity, a component, a tag or a relationship pair.
type Entity uint64

const (
	pairFlag   Entity = 1 << 63
	entityMask Entity = 1<<31 - 1

	// Wildcard matches any target when used as the second element of a pair.
	Wildcard Entity = 1

	firstUserEntity Entity = 2
)

var (
	ErrNotAlive         = errors.New("entity is not alive")
	ErrUnknownComponent = errors.New("component is not registered")
	ErrTooManyTerms     = errors.New("too many query terms")
	ErrInvalidTerm      = errors.New("invalid query term")
	ErrNameInUse        = errors.New("name already in use")
)

// Pair builds the id of the relationship (rel, target).
func Pair(rel, target Entity) Entity {
	return pairFlag | (rel&entityMask)<<32 | target&entityMask
}

// IsPair reports whether id encodes a relationship pair.
func (e Entity) IsPair() bool {
	return e&pairFlag != 0
}

// First returns the relationship of a pair.
func (e Entity) First() Entity {
	return (e >> 32) & entityMask
}

// Second returns the target of a pair.
func (e Entity) Second() Entity {
	return e & entityMask
}

func (e Entity) String() string {
	if e.IsPair() {
		return fmt.Sprintf("(%d, %d)", e.First(), e.Second())
	}
	return fmt.Sprintf("#%d", uint64(e))
}

// matchesID reports whether the concrete id in a table type satisfies the
// (possibly wildcard) id requested by a term.
func matchesID(requested, actual Entity) bool {
	if requested == actual {
		return true
	}
	if requested.IsPair() && actual.IsPair() && requested.Second() == Wildcard {
		return requested.First() == actual.First() && actual.Second() != Wildcard
	}
	return false
}

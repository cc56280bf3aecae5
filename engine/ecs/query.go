package ecs

import (
	"fmt"
)

// MaxTermCount is the largest number of terms a query may have.
const MaxTermCount = 32

// Oper selects how a term contributes to a match.
type Oper uint8

const (
	// And requires the id.
	And Oper = iota
	// Or chains the term with the next one; one of the chain must match.
	Or
	// Optional matches whether or not the id is present.
	Optional
	// Not requires the id to be absent.
	Not
)

// InOut documents how a system accesses a field.
type InOut uint8

const (
	InOutDefault InOut = iota
	In
	Out
	InOutNone
)

// Term is one condition of a query.
type Term struct {
	// ID is a component, tag or pair. Pairs may use Wildcard as target.
	ID Entity
	// Src matches ID on a fixed entity instead of the iterated one.
	Src Entity
	// SrcVar matches ID on the entity bound to a query variable.
	SrcVar string
	// TargetVar binds the target of a wildcard pair to a query variable.
	TargetVar string
	InOut     InOut
	Oper      Oper
}

// QueryDesc lists the terms of a query in field order.
type QueryDesc struct {
	Terms []Term
}

// Query is a compiled set of terms. It caches the tables that can match and
// only rescans the world when new tables appear.
type Query struct {
	world *World
	terms []Term
	vars  []string

	srcVar    []int
	targetVar []int

	candidates []*table
	scanned    int
	finished   bool
}

// Query compiles desc.
func (w *World) Query(desc QueryDesc) (*Query, error) {
	if len(desc.Terms) == 0 {
		return nil, fmt.Errorf("%w: query has no terms", ErrInvalidTerm)
	}
	if len(desc.Terms) > MaxTermCount {
		return nil, fmt.Errorf("%w: %d > %d", ErrTooManyTerms, len(desc.Terms), MaxTermCount)
	}
	q := &Query{
		world:     w,
		terms:     append([]Term(nil), desc.Terms...),
		srcVar:    make([]int, len(desc.Terms)),
		targetVar: make([]int, len(desc.Terms)),
	}
	for i, term := range q.terms {
		q.srcVar[i], q.targetVar[i] = -1, -1
		if term.ID == 0 {
			return nil, fmt.Errorf("%w: term %d has no id", ErrInvalidTerm, i)
		}
		if term.Src != 0 && term.SrcVar != "" {
			return nil, fmt.Errorf("%w: term %d has two sources", ErrInvalidTerm, i)
		}
		if term.SrcVar != "" {
			v := q.varIndex(term.SrcVar)
			if v < 0 {
				return nil, fmt.Errorf("%w: term %d uses unbound variable %q", ErrInvalidTerm, i, term.SrcVar)
			}
			q.srcVar[i] = v
		}
		if term.TargetVar != "" {
			if term.Oper != And || !term.ID.IsPair() || term.ID.Second() != Wildcard {
				return nil, fmt.Errorf("%w: term %d binds a variable without an And wildcard pair", ErrInvalidTerm, i)
			}
			q.targetVar[i] = len(q.vars)
			q.vars = append(q.vars, term.TargetVar)
		}
	}
	if q.terms[len(q.terms)-1].Oper == Or {
		return nil, fmt.Errorf("%w: or chain is not terminated", ErrInvalidTerm)
	}
	w.queries[q] = struct{}{}
	return q, nil
}

func (q *Query) varIndex(name string) int {
	for i, v := range q.vars {
		if v == name {
			return i
		}
	}
	return -1
}

// TermCount returns the number of terms.
func (q *Query) TermCount() int {
	return len(q.terms)
}

// Fini releases the query. Finalising twice is harmless.
func (q *Query) Fini() {
	if q.finished {
		return
	}
	q.finished = true
	q.candidates = nil
	delete(q.world.queries, q)
}

// Count returns the number of entities currently matched.
func (q *Query) Count() int {
	n := 0
	it := q.Iter()
	for it.Next() {
		n += it.Count
	}
	return n
}

func (q *Query) isSelf(i int) bool {
	return q.terms[i].Src == 0 && q.srcVar[i] < 0
}

// refresh adds the tables created since the last scan whose ids satisfy
// every self-sourced And term. The last term of an Or chain is left to matchFrom.
func (q *Query) refresh() {
	tables := q.world.tables
	for _, t := range tables[q.scanned:] {
		ok := true
		for i, term := range q.terms {
			if i > 0 && q.terms[i-1].Oper == Or {
				continue
			}
			if term.Oper == And && q.isSelf(i) && t.find(term.ID) < 0 {
				ok = false
				break
			}
		}
		if ok {
			q.candidates = append(q.candidates, t)
		}
	}
	q.scanned = len(tables)
}

type match struct {
	set  []bool
	ids  []Entity
	src  []Entity
	cols []*column
	rows []int
	vars []Entity
}

func (m *match) reset(terms, vars int) {
	if cap(m.set) < terms {
		m.set = make([]bool, terms)
		m.ids = make([]Entity, terms)
		m.src = make([]Entity, terms)
		m.cols = make([]*column, terms)
		m.rows = make([]int, terms)
	}
	m.set, m.ids, m.src = m.set[:terms], m.ids[:terms], m.src[:terms]
	m.cols, m.rows = m.cols[:terms], m.rows[:terms]
	clear(m.set)
	clear(m.cols)
	if cap(m.vars) < vars {
		m.vars = make([]Entity, vars)
	}
	m.vars = m.vars[:vars]
	clear(m.vars)
}

// source resolves the table and row a term is evaluated against. Self terms
// report row -1.
func (q *Query) source(t *table, i int, m *match) (Entity, *table, int, bool) {
	term := q.terms[i]
	var src Entity
	switch {
	case term.Src != 0:
		src = term.Src
	case q.srcVar[i] >= 0:
		src = m.vars[q.srcVar[i]]
	default:
		return 0, t, -1, true
	}
	rec, ok := q.world.records[src]
	if !ok {
		return 0, nil, 0, false
	}
	return src, rec.table, rec.row, true
}

func (q *Query) setField(i int, m *match, src Entity, st *table, row, idx int) {
	m.set[i] = true
	m.ids[i] = st.ids[idx]
	m.src[i] = src
	m.cols[i] = st.columns[idx]
	m.rows[i] = row
}

func (q *Query) unsetField(i int, m *match) {
	m.set[i] = false
	m.ids[i] = q.terms[i].ID
	m.src[i] = 0
	m.cols[i] = nil
}

// matchFrom evaluates terms[i:] against t, backtracking over the targets
// bound to query variables.
func (q *Query) matchFrom(t *table, i int, m *match) bool {
	if i == len(q.terms) {
		return true
	}
	term := q.terms[i]

	if term.Oper == Or {
		end := i
		for q.terms[end].Oper == Or {
			end++
		}
		found := false
		for j := i; j <= end; j++ {
			q.unsetField(j, m)
			if found {
				continue
			}
			src, st, row, ok := q.source(t, j, m)
			if !ok {
				continue
			}
			if idx := st.find(q.terms[j].ID); idx >= 0 {
				q.setField(j, m, src, st, row, idx)
				found = true
			}
		}
		return found && q.matchFrom(t, end+1, m)
	}

	src, st, row, ok := q.source(t, i, m)
	switch term.Oper {
	case Optional:
		q.unsetField(i, m)
		if ok {
			if idx := st.find(term.ID); idx >= 0 {
				q.setField(i, m, src, st, row, idx)
			}
		}
		return q.matchFrom(t, i+1, m)
	case Not:
		if ok && st.find(term.ID) >= 0 {
			return false
		}
		q.unsetField(i, m)
		return q.matchFrom(t, i+1, m)
	}

	if !ok {
		return false
	}
	if v := q.targetVar[i]; v >= 0 {
		for idx, id := range st.ids {
			if !matchesID(term.ID, id) {
				continue
			}
			m.vars[v] = id.Second()
			q.setField(i, m, src, st, row, idx)
			if q.matchFrom(t, i+1, m) {
				return true
			}
		}
		m.vars[v] = 0
		return false
	}
	idx := st.find(term.ID)
	if idx < 0 {
		return false
	}
	q.setField(i, m, src, st, row, idx)
	return q.matchFrom(t, i+1, m)
}

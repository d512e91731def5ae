package system

import (
	"fmt"
	"path"
	"sort"
	"strings"
)

// Variable is one named entry of the Jacobian variable catalogue.
type Variable struct {
	Component string // device or bus name, e.g. "G 01" or "Bus 16"
	Name      string // variable name within the component, e.g. "speed" or "ur"
	Row       int    // row/column position in the Jacobian
	State     bool   // true for differential variables
}

// FullName returns "component.name", the naming convention used for
// variable selection and output labelling.
func (v Variable) FullName() string {
	return v.Component + "." + v.Name
}

type varKey struct {
	component string
	name      string
}

// Index maps named variables to Jacobian rows. It is immutable once built.
type Index struct {
	vars   []Variable // ordered by row
	byKey  map[varKey]int
	comps  map[string]struct{}
	nState int
}

// NewIndex validates vars and builds an index ordered by row.
//
// Rows must be unique and contiguous in [0, len(vars)), and every state
// variable row must precede every algebraic variable row.
func NewIndex(vars []Variable) (*Index, error) {
	if len(vars) == 0 {
		return nil, ErrEmptyIndex
	}

	n := len(vars)
	ordered := make([]Variable, n)
	seen := make([]bool, n)
	byKey := make(map[varKey]int, n)
	comps := make(map[string]struct{})

	for _, v := range vars {
		if v.Row < 0 || v.Row >= n {
			return nil, fmt.Errorf("%w: %s at row %d (size %d)", ErrRowOutOfRange, v.FullName(), v.Row, n)
		}

		if seen[v.Row] {
			return nil, fmt.Errorf("%w: %d (%s)", ErrDuplicateRow, v.Row, v.FullName())
		}

		k := varKey{v.Component, v.Name}
		if _, dup := byKey[k]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateVariable, v.FullName())
		}

		seen[v.Row] = true
		byKey[k] = v.Row
		comps[v.Component] = struct{}{}
		ordered[v.Row] = v
	}

	nState := 0
	for nState < n && ordered[nState].State {
		nState++
	}

	for i := nState; i < n; i++ {
		if ordered[i].State {
			return nil, fmt.Errorf("%w: %s at row %d", ErrStateOrder, ordered[i].FullName(), i)
		}
	}

	return &Index{vars: ordered, byKey: byKey, comps: comps, nState: nState}, nil
}

// Len returns the total number of variables N.
func (ix *Index) Len() int { return len(ix.vars) }

// NumState returns the number of differential variables Ns.
func (ix *Index) NumState() int { return ix.nState }

// NumAlgebraic returns the number of algebraic variables Na.
func (ix *Index) NumAlgebraic() int { return len(ix.vars) - ix.nState }

// At returns the variable stored at row.
func (ix *Index) At(row int) Variable { return ix.vars[row] }

// Lookup returns the variable registered for (component, name).
func (ix *Index) Lookup(component, name string) (Variable, bool) {
	row, ok := ix.byKey[varKey{component, name}]
	if !ok {
		return Variable{}, false
	}

	return ix.vars[row], true
}

// HasComponent reports whether any variable belongs to component.
func (ix *Index) HasComponent(component string) bool {
	_, ok := ix.comps[component]
	return ok
}

// AlgebraicOffset returns the position of (component, name) inside the
// algebraic sub-block, i.e. its global row minus Ns.
func (ix *Index) AlgebraicOffset(component, name string) (int, error) {
	v, ok := ix.Lookup(component, name)
	if !ok {
		return 0, fmt.Errorf("%w: %s.%s", ErrUnknownVariable, component, name)
	}

	if v.State {
		return 0, fmt.Errorf("%w: %s is a state variable", ErrPartition, v.FullName())
	}

	return v.Row - ix.nState, nil
}

// Names returns the full variable names ordered by row.
func (ix *Index) Names() []string {
	out := make([]string, len(ix.vars))
	for i, v := range ix.vars {
		out[i] = v.FullName()
	}

	return out
}

// Components returns the sorted component names present in the index.
func (ix *Index) Components() []string {
	out := make([]string, 0, len(ix.comps))
	for c := range ix.comps {
		out = append(out, c)
	}

	sort.Strings(out)

	return out
}

// Select resolves full variable names or glob patterns (path.Match syntax,
// e.g. "G *.speed") to rows in ascending row order. Each row appears once.
// An empty pattern list selects every variable.
func (ix *Index) Select(patterns []string) ([]int, error) {
	if len(patterns) == 0 {
		rows := make([]int, len(ix.vars))
		for i := range rows {
			rows[i] = i
		}

		return rows, nil
	}

	picked := make([]bool, len(ix.vars))

	for _, p := range patterns {
		if !strings.ContainsAny(p, "*?[") {
			dot := strings.LastIndexByte(p, '.')
			if dot < 0 {
				return nil, fmt.Errorf("%w: %q", ErrUnknownVariable, p)
			}

			row, found := ix.byKey[varKey{p[:dot], p[dot+1:]}]
			if !found {
				return nil, fmt.Errorf("%w: %q", ErrUnknownVariable, p)
			}

			picked[row] = true

			continue
		}

		matched := false

		for i, v := range ix.vars {
			ok, err := path.Match(p, v.FullName())
			if err != nil {
				return nil, fmt.Errorf("system: bad variable pattern %q: %w", p, err)
			}

			if ok {
				picked[i] = true
				matched = true
			}
		}

		if !matched {
			return nil, fmt.Errorf("%w: pattern %q matches nothing", ErrUnknownVariable, p)
		}
	}

	var rows []int
	for i, ok := range picked {
		if ok {
			rows = append(rows, i)
		}
	}

	return rows, nil
}

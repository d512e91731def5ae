package system

import (
	"errors"
	"reflect"
	"testing"
)

func sampleVars() []Variable {
	return []Variable{
		{Component: "G 01", Name: "speed", Row: 0, State: true},
		{Component: "G 01", Name: "phi", Row: 1, State: true},
		{Component: "G 02", Name: "speed", Row: 2, State: true},
		{Component: "Bus 01", Name: "ur", Row: 3},
		{Component: "Bus 01", Name: "ui", Row: 4},
		{Component: "Bus 02", Name: "ur", Row: 5},
		{Component: "Bus 02", Name: "ui", Row: 6},
	}
}

func TestNewIndex(t *testing.T) {
	// Input order does not matter, rows do.
	vars := sampleVars()
	vars[0], vars[5] = vars[5], vars[0]

	ix, err := NewIndex(vars)
	if err != nil {
		t.Fatalf("NewIndex: %v", err)
	}

	if ix.Len() != 7 || ix.NumState() != 3 || ix.NumAlgebraic() != 4 {
		t.Fatalf("sizes = (%d,%d,%d), want (7,3,4)", ix.Len(), ix.NumState(), ix.NumAlgebraic())
	}

	want := []string{"G 01.speed", "G 01.phi", "G 02.speed", "Bus 01.ur", "Bus 01.ui", "Bus 02.ur", "Bus 02.ui"}
	if got := ix.Names(); !reflect.DeepEqual(got, want) {
		t.Fatalf("Names() = %v, want %v", got, want)
	}

	off, err := ix.AlgebraicOffset("Bus 02", "ur")
	if err != nil || off != 2 {
		t.Fatalf("AlgebraicOffset = %d, %v; want 2, nil", off, err)
	}

	if _, err := ix.AlgebraicOffset("G 01", "speed"); !errors.Is(err, ErrPartition) {
		t.Fatalf("AlgebraicOffset(state) err = %v, want ErrPartition", err)
	}

	if !ix.HasComponent("Bus 01") || ix.HasComponent("Bus 99") {
		t.Fatal("HasComponent gave wrong answer")
	}
}

func TestNewIndexRejectsInvalidCatalogues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func([]Variable) []Variable
		want   error
	}{
		{"empty", func([]Variable) []Variable { return nil }, ErrEmptyIndex},
		{"duplicate row", func(v []Variable) []Variable { v[1].Row = 0; return v }, ErrDuplicateRow},
		{"gap", func(v []Variable) []Variable { v[6].Row = 9; return v }, ErrRowOutOfRange},
		{"duplicate name", func(v []Variable) []Variable { v[2].Component = "G 01"; return v }, ErrDuplicateVariable},
		{"state after algebraic", func(v []Variable) []Variable { v[5].State = true; return v }, ErrStateOrder},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewIndex(tt.mutate(sampleVars()))
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestIndexSelect(t *testing.T) {
	ix, err := NewIndex(sampleVars())
	if err != nil {
		t.Fatalf("NewIndex: %v", err)
	}

	rows, err := ix.Select([]string{"G *.speed"})
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if !reflect.DeepEqual(rows, []int{0, 2}) {
		t.Fatalf("rows = %v, want [0 2]", rows)
	}

	rows, err = ix.Select([]string{"Bus 02.ui", "G 01.speed", "G 01.speed"})
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if !reflect.DeepEqual(rows, []int{0, 6}) {
		t.Fatalf("rows = %v, want [0 6]", rows)
	}

	all, err := ix.Select(nil)
	if err != nil || len(all) != 7 {
		t.Fatalf("Select(nil) = %v, %v", all, err)
	}

	if _, err := ix.Select([]string{"G 09.speed"}); !errors.Is(err, ErrUnknownVariable) {
		t.Fatalf("unknown name err = %v", err)
	}
	if _, err := ix.Select([]string{"Load *.P"}); !errors.Is(err, ErrUnknownVariable) {
		t.Fatalf("empty pattern err = %v", err)
	}
}

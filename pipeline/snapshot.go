package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"sort"

	"github.com/cwbudde/algo-smallsignal/inject"
	"github.com/cwbudde/algo-smallsignal/result"
	"github.com/cwbudde/algo-smallsignal/system"
	"github.com/klauspost/compress/zstd"
	"gonum.org/v1/gonum/mat"
)

// Snapshot is the solver data of one operating point. It is read-only once
// decoded.
type Snapshot struct {
	ID string

	// Exactly one of Jacobian and Sparse is set.
	Jacobian *mat.Dense
	Sparse   *system.SparseJacobian

	Reference *mat.Dense // reduced matrix computed by the solver
	Index     *system.Index
	Topology  inject.Topology

	Generators []string
	H, S       map[string]float64
	Buses      []string

	OperatingPoint *result.OperatingPoint

	Htot, Etot, Mtot float64

	// Config is the solver configuration, echoed into the bundle.
	Config json.RawMessage
}

// snapshotFile is the exported layout of a snapshot.
type snapshotFile struct {
	J       *result.Matrix         `json:"J,omitempty"`
	JSparse *system.SparseJacobian `json:"J_sparse,omitempty"`
	A       *result.Matrix         `json:"A"`

	VarsIdx   map[string]map[string]int `json:"vars_idx"`
	StateVars map[string][]string       `json:"state_vars"`

	GenNames []string           `json:"gen_names"`
	H        map[string]float64 `json:"H"`
	S        map[string]float64 `json:"S"`
	Buses    []string           `json:"bus_names,omitempty"`

	PF        *result.OperatingPoint `json:"PF_without_slack"`
	LoadBuses map[string]string      `json:"load_buses"`
	BusEquiv  map[string][]string    `json:"bus_equiv_terms,omitempty"`

	Inertia  float64         `json:"inertia"`
	Energy   float64         `json:"energy"`
	Momentum float64         `json:"momentum"`
	Config   json.RawMessage `json:"config,omitempty"`
}

// DecodeSnapshot reads a JSON snapshot from r.
func DecodeSnapshot(id string, r io.Reader) (*Snapshot, error) {
	var f snapshotFile
	if err := json.NewDecoder(r).Decode(&f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSnapshot, err)
	}

	return f.snapshot(id)
}

// ReadSnapshot reads a zstd-compressed JSON snapshot from r.
func ReadSnapshot(id string, r io.Reader) (*Snapshot, error) {
	zr, err := zstd.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("pipeline: zstd reader: %w", err)
	}
	defer zr.Close()

	return DecodeSnapshot(id, zr)
}

func (f *snapshotFile) snapshot(id string) (*Snapshot, error) {
	if (f.J == nil) == (f.JSparse == nil) {
		return nil, fmt.Errorf("%w: exactly one of J and J_sparse is required", ErrSnapshot)
	}

	if f.A == nil {
		return nil, ErrMissingReference
	}

	ref, err := f.A.Dense()
	if err != nil {
		return nil, fmt.Errorf("%w: A: %v", ErrSnapshot, err)
	}

	ix, err := f.index()
	if err != nil {
		return nil, err
	}

	s := &Snapshot{
		ID:             id,
		Sparse:         f.JSparse,
		Reference:      ref,
		Index:          ix,
		Generators:     f.GenNames,
		H:              f.H,
		S:              f.S,
		Buses:          f.Buses,
		OperatingPoint: f.PF,
		Htot:           f.Inertia,
		Etot:           f.Energy,
		Mtot:           f.Momentum,
		Config:         f.Config,
		Topology: inject.Topology{
			LoadBus:  f.LoadBuses,
			BusEquiv: f.BusEquiv,
		},
	}

	if f.PF != nil {
		s.Topology.LoadPower = f.PF.Loads
	}

	if f.J != nil {
		if s.Jacobian, err = f.J.Dense(); err != nil {
			return nil, fmt.Errorf("%w: J: %v", ErrSnapshot, err)
		}
	}

	if n := s.size(); n != ix.Len() {
		return nil, fmt.Errorf("%w: %d variables for a %d x %d jacobian", ErrSnapshot, ix.Len(), n, n)
	}

	return s, nil
}

// index builds the variable index from the per-component row map. A
// variable is a state when its component lists it in state_vars.
func (f *snapshotFile) index() (*system.Index, error) {
	var vars []system.Variable

	for comp, names := range f.VarsIdx {
		for name, row := range names {
			vars = append(vars, system.Variable{
				Component: comp,
				Name:      name,
				Row:       row,
				State:     slices.Contains(f.StateVars[comp], name),
			})
		}
	}

	ix, err := system.NewIndex(vars)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSnapshot, err)
	}

	return ix, nil
}

func (s *Snapshot) size() int {
	if s.Sparse != nil {
		return s.Sparse.N
	}

	n, _ := s.Jacobian.Dims()

	return n
}

// EncodeSnapshot writes s as JSON, the inverse of DecodeSnapshot.
func EncodeSnapshot(w io.Writer, s *Snapshot) error {
	f := snapshotFile{
		JSparse:   s.Sparse,
		A:         result.NewMatrix(s.Reference),
		VarsIdx:   make(map[string]map[string]int),
		StateVars: make(map[string][]string),
		GenNames:  s.Generators,
		H:         s.H,
		S:         s.S,
		Buses:     s.Buses,
		PF:        s.OperatingPoint,
		LoadBuses: s.Topology.LoadBus,
		BusEquiv:  s.Topology.BusEquiv,
		Inertia:   s.Htot,
		Energy:    s.Etot,
		Momentum:  s.Mtot,
		Config:    s.Config,
	}

	if s.Jacobian != nil {
		f.J = result.NewMatrix(s.Jacobian)
	}

	for row := range s.Index.Len() {
		v := s.Index.At(row)
		if f.VarsIdx[v.Component] == nil {
			f.VarsIdx[v.Component] = make(map[string]int)
		}

		f.VarsIdx[v.Component][v.Name] = row

		if v.State {
			f.StateVars[v.Component] = append(f.StateVars[v.Component], v.Name)
		}
	}

	for _, names := range f.StateVars {
		sort.Strings(names)
	}

	if err := json.NewEncoder(w).Encode(&f); err != nil {
		return fmt.Errorf("pipeline: encode snapshot %q: %w", s.ID, err)
	}

	return nil
}

// WriteSnapshot writes s as zstd-compressed JSON.
func WriteSnapshot(w io.Writer, s *Snapshot) error {
	zw, err := zstd.NewWriter(w)
	if err != nil {
		return fmt.Errorf("pipeline: zstd writer: %w", err)
	}

	if err := EncodeSnapshot(zw, s); err != nil {
		_ = zw.Close()
		return err
	}

	return zw.Close()
}

package codegen

import (
	"sort"
	"sync"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"
	"github.com/samber/lo"
)

// Registry is a caller-owned set of functions, keyed by name.
type Registry struct {
	mu        sync.RWMutex
	functions map[string]*Function
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{functions: map[string]*Function{}}
}

// Register adds f. Names must be unique.
func (r *Registry) Register(f *Function) error {
	if f == nil || f.Name == "" {
		return errors.New("cannot register an unnamed function")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.functions[f.Name]; ok {
		return errors.Errorf("function %q is already registered", f.Name)
	}
	r.functions[f.Name] = f
	return nil
}

// Lookup returns the named function.
func (r *Registry) Lookup(name string) (*Function, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.functions[name]
	return f, ok
}

// Functions returns every function sorted by name.
func (r *Registry) Functions() []*Function {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fs := lo.Values(r.functions)
	sort.Slice(fs, func(i, j int) bool { return fs[i].Name < fs[j].Name })
	return fs
}

// Signatures renders a table of every function with its inputs and outputs.
func (r *Registry) Signatures() string {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"Function", "Inputs", "Outputs", "Description"})
	for _, f := range r.Functions() {
		t.AppendRow(table.Row{f.Name, formatFields(f.Inputs), formatFields(f.Outputs), f.Doc})
	}
	return t.Render()
}

// Describe renders one function's fields with their storage dimensions.
func (r *Registry) Describe(name string) (string, error) {
	f, ok := r.Lookup(name)
	if !ok {
		return "", errors.Errorf("unknown function %q", name)
	}
	t := table.NewWriter()
	t.SetTitle(f.Signature())
	t.AppendHeader(table.Row{"Direction", "Name", "Type", "Dim"})
	for _, in := range f.Inputs {
		t.AppendRow(table.Row{"in", in.Name, in.Type.Name, in.Type.Dim})
	}
	for _, out := range f.Outputs {
		t.AppendRow(table.Row{"out", out.Name, out.Type.Name, out.Type.Dim})
	}
	return t.Render(), nil
}

package codegen

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/samber/lo"
)

// ErrDimensionMismatch is returned when a value does not have its type's storage dimension.
var ErrDimensionMismatch = errors.New("dimension mismatch")

func dimensionMismatch(name string, expected, actual int) error {
	return errors.Wrapf(ErrDimensionMismatch, "%s expects %d values, got %d", name, expected, actual)
}

// EvalFunc computes the outputs of a function from inputs already checked against their types.
type EvalFunc func(inputs [][]float64) [][]float64

// Function is a pure numeric function with named, typed inputs and outputs.
type Function struct {
	Name    string
	Doc     string
	Inputs  []Field
	Outputs []Field
	eval    EvalFunc
}

// NewFunction returns a Function evaluating eval.
func NewFunction(name, doc string, inputs, outputs []Field, eval EvalFunc) *Function {
	return &Function{Name: name, Doc: doc, Inputs: inputs, Outputs: outputs, eval: eval}
}

// Eval checks every input against its declared dimension, then evaluates the function.
func (f *Function) Eval(inputs [][]float64) ([][]float64, error) {
	if len(inputs) != len(f.Inputs) {
		return nil, errors.Errorf("%s takes %d inputs, got %d", f.Name, len(f.Inputs), len(inputs))
	}
	for i, in := range f.Inputs {
		if len(inputs[i]) != in.Type.Dim {
			return nil, dimensionMismatch(fmt.Sprintf("input %q of %s", in.Name, f.Name), in.Type.Dim, len(inputs[i]))
		}
	}
	outputs := f.eval(inputs)
	if len(outputs) != len(f.Outputs) {
		return nil, errors.Errorf("%s produced %d outputs, declared %d", f.Name, len(outputs), len(f.Outputs))
	}
	for i, out := range f.Outputs {
		if len(outputs[i]) != out.Type.Dim {
			return nil, dimensionMismatch(fmt.Sprintf("output %q of %s", out.Name, f.Name), out.Type.Dim, len(outputs[i]))
		}
	}
	return outputs, nil
}

// InputIndex returns the position of the named input.
func (f *Function) InputIndex(name string) (int, error) {
	_, idx, ok := lo.FindIndexOf(f.Inputs, func(in Field) bool { return in.Name == name })
	if !ok {
		return -1, errors.Errorf("%s has no input %q", f.Name, name)
	}
	return idx, nil
}

// OutputIndex returns the position of the named output.
func (f *Function) OutputIndex(name string) (int, error) {
	_, idx, ok := lo.FindIndexOf(f.Outputs, func(out Field) bool { return out.Name == name })
	if !ok {
		return -1, errors.Errorf("%s has no output %q", f.Name, name)
	}
	return idx, nil
}

// Signature renders the function as "name(a: T[n], ...) -> (b: U[m])".
func (f *Function) Signature() string {
	return fmt.Sprintf("%s(%s) -> (%s)", f.Name, formatFields(f.Inputs), formatFields(f.Outputs))
}

func formatFields(fields []Field) string {
	return strings.Join(lo.Map(fields, func(field Field, _ int) string {
		return fmt.Sprintf("%s: %s", field.Name, field.Type)
	}), ", ")
}

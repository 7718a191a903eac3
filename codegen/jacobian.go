package codegen

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/mat"

	"github.com/inertial/se23/utils"
)

// JacobianStep is the central difference step used by Jacobian.
const JacobianStep = 1e-6

// Jacobian returns d(output)/d(wrt) of f at inputs, by central differences on the storage of the
// named input. The result has one row per output scalar and one column per input scalar.
func Jacobian(f *Function, inputs [][]float64, wrt, output string) (*mat.Dense, error) {
	in, err := f.InputIndex(wrt)
	if err != nil {
		return nil, err
	}
	out, err := f.OutputIndex(output)
	if err != nil {
		return nil, err
	}
	if _, err := f.Eval(inputs); err != nil {
		return nil, err
	}

	var (
		mu      sync.Mutex
		evalErr error
	)
	eval := func(y, x []float64) {
		perturbed := make([][]float64, len(inputs))
		copy(perturbed, inputs)
		perturbed[in] = x
		outputs, err := f.Eval(perturbed)
		if err != nil {
			mu.Lock()
			evalErr = multierr.Append(evalErr, err)
			mu.Unlock()
			return
		}
		copy(y, outputs[out])
	}

	x := append([]float64(nil), inputs[in]...)
	dst := mat.NewDense(f.Outputs[out].Type.Dim, f.Inputs[in].Type.Dim, nil)
	fd.Jacobian(dst, eval, x, &fd.JacobianSettings{
		Formula: fd.Central,
		Step:    JacobianStep,
	})
	if evalErr != nil {
		return nil, errors.Wrapf(evalErr, "differentiating %s", f.Name)
	}
	return dst, nil
}

// EvaluateBatch evaluates f at every point concurrently. Results are in point order.
func EvaluateBatch(ctx context.Context, f *Function, points [][][]float64) ([][][]float64, error) {
	results := make([][][]float64, len(points))
	err := utils.ForEach(ctx, len(points), func(i int) error {
		out, err := f.Eval(points[i])
		if err != nil {
			return errors.Wrapf(err, "point %d", i)
		}
		results[i] = out
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

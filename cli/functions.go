package cli

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"gonum.org/v1/gonum/mat"

	"github.com/inertial/se23/codegen"
)

// FunctionsAction is the corresponding Action for 'functions'.
func FunctionsAction(c *cli.Context) error {
	registry, err := builtins(c)
	if err != nil {
		return err
	}
	if c.NArg() == 0 {
		printf(c.App.Writer, "%s", registry.Signatures())
		return nil
	}
	desc, err := registry.Describe(c.Args().First())
	if err != nil {
		return err
	}
	printf(c.App.Writer, "%s", desc)
	return nil
}

// EvaluateAction is the corresponding Action for 'evaluate'.
func EvaluateAction(c *cli.Context) error {
	f, inputs, err := functionAndInputs(c)
	if err != nil {
		return err
	}
	outputs, err := f.Eval(inputs)
	if err != nil {
		return err
	}
	t := table.NewWriter()
	t.AppendHeader(table.Row{"Output", "Type", "Values"})
	for i, out := range f.Outputs {
		t.AppendRow(table.Row{out.Name, out.Type.String(), formatFloats(outputs[i])})
	}
	printf(c.App.Writer, "%s", t.Render())
	return nil
}

// JacobianAction is the corresponding Action for 'jacobian'.
func JacobianAction(c *cli.Context) error {
	f, inputs, err := functionAndInputs(c)
	if err != nil {
		return err
	}
	j, err := codegen.Jacobian(f, inputs, c.String(wrtFlag), c.String(outputFlag))
	if err != nil {
		return err
	}
	printf(c.App.Writer, "d(%s)/d(%s) =\n%v", c.String(outputFlag), c.String(wrtFlag), mat.Formatted(j, mat.Squeeze()))
	return nil
}

// functionAndInputs looks up the function named by the first argument and parses the rest as its inputs.
func functionAndInputs(c *cli.Context) (*codegen.Function, [][]float64, error) {
	if c.NArg() == 0 {
		return nil, nil, errors.New("a function name is required")
	}
	registry, err := builtins(c)
	if err != nil {
		return nil, nil, err
	}
	name := c.Args().First()
	f, ok := registry.Lookup(name)
	if !ok {
		return nil, nil, errors.Errorf("unknown function %q", name)
	}
	args := c.Args().Tail()
	inputs := make([][]float64, 0, len(args))
	for i, arg := range args {
		values, err := parseFloats(arg)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "input %d", i)
		}
		inputs = append(inputs, values)
	}
	return f, inputs, nil
}

// builtins registers the builtin functions with the --epsilon regularization.
func builtins(c *cli.Context) (*codegen.Registry, error) {
	r := codegen.NewRegistry()
	if err := codegen.RegisterBuiltins(r, c.Float64(epsilonFlag)); err != nil {
		return nil, errors.Wrapf(err, "--%s", epsilonFlag)
	}
	return r, nil
}

package hooks

import (
	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/ast"
	"github.com/expr-lang/expr/builtin"
	"github.com/expr-lang/expr/vm"
	"github.com/go-faster/errors"

	"github.com/metrico/datareader/reader/shared"
)

const getValue = "getValue"

// identPatcher turns every field reference into getValue("field") so the
// program runs against the current record without knowing its fields at
// compile time.
type identPatcher struct {
	Identifiers []string
}

func (p *identPatcher) Visit(node *ast.Node) {
	n, ok := (*node).(*ast.IdentifierNode)
	if !ok {
		return
	}
	if _, ok := builtin.Index[n.Value]; ok || n.Value == getValue {
		return
	}
	ast.Patch(node, &ast.CallNode{
		Callee:    &ast.IdentifierNode{Value: getValue},
		Arguments: []ast.Node{&ast.StringNode{Value: n.Value}},
	})
	p.Identifiers = append(p.Identifiers, n.Value)
}

// Expression is a compiled filter. It is safe for concurrent use; every
// worker takes its own Filter from it.
type Expression struct {
	source      string
	program     *vm.Program
	identifiers []string
}

var compileEnv = map[string]any{
	getValue: func(string) any { return nil },
}

// CompileFilter compiles a boolean expression over record fields, e.g.
// `value > 0 && state != "TX"`. Fields missing from a record are nil.
func CompileFilter(expression string) (*Expression, error) {
	helper := identPatcher{}
	prog, err := expr.Compile(expression, expr.Env(compileEnv), expr.Patch(&helper))
	if err != nil {
		return nil, shared.NewConfigError("filter", err)
	}
	return &Expression{source: expression, program: prog, identifiers: helper.Identifiers}, nil
}

func (e *Expression) String() string {
	return e.source
}

// Identifiers lists the fields the expression reads.
func (e *Expression) Identifiers() []string {
	return e.identifiers
}

// Filter returns a hook evaluating the expression. A Filter must not be
// shared between goroutines.
func (e *Expression) Filter() *Filter {
	f := &Filter{expression: e}
	f.env = map[string]any{
		getValue: func(name string) any {
			return f.current.Value(name)
		},
	}
	return f
}

type Filter struct {
	expression *Expression
	machine    vm.VM
	env        map[string]any
	current    *shared.Record
}

// NewFilter compiles expression and returns a single-goroutine hook for it.
func NewFilter(expression string) (*Filter, error) {
	e, err := CompileFilter(expression)
	if err != nil {
		return nil, err
	}
	return e.Filter(), nil
}

func (f *Filter) Process(rec *shared.Record) (bool, error) {
	f.current = rec
	defer func() { f.current = nil }()
	out, err := f.machine.Run(f.expression.program, f.env)
	if err != nil {
		return false, errors.Wrapf(err, "filter %q", f.expression.source)
	}
	keep, ok := out.(bool)
	if !ok {
		return false, errors.Errorf("filter %q returned %T, expected bool", f.expression.source, out)
	}
	return keep, nil
}
